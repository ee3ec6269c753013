// This file is part of pl0c.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vm

import (
	"io"
	"strconv"

	"github.com/pl0c-lang/pl0c/internal/diag"
)

// Dump writes the final register state and the live portion of the data
// stack to w, for the driver's debugging dump (spec.md §1 lists "the
// debugging dump" as an external collaborator of the core). Adapted from
// the teacher's cmd/retro dumpSlice/dumpVM pair: a plain space-separated
// rendering through an error-tracking writer rather than a structured
// format, since nothing downstream parses it back in.
func (i *Instance) Dump(w io.Writer) error {
	ew := diag.NewErrWriter(w)
	ew.Printf("pc=%d bp=%d sp=%d\n", i.pc, i.bp, i.sp)
	ew.WriteString("stack:")
	for k := 0; k <= i.sp && k < len(i.stack); k++ {
		ew.WriteString(" ")
		ew.WriteString(strconv.FormatInt(int64(i.stack[k]), 10))
	}
	ew.WriteString("\n")
	return ew.Err
}
