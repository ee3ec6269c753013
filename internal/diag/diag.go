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

// Package diag is the PL/0C toolchain's shared diagnostic plumbing: the
// error-counting sink the compiler reports to (spec.md §7), and the
// formatter the driver uses to print accumulated errors to standard error.
//
// Adapted from the teacher's internal/ngi.ErrWriter: a thin wrapper that
// tracks failures instead of a logging framework.
package diag

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/pl0c-lang/pl0c/token"
)

// Diagnostic is a single compile-time or runtime error, in the form the
// driver prints as "<program>: <message> [near line <n>]" (spec.md §6).
type Diagnostic struct {
	Message string
	Pos     token.Position
	HasPos  bool
}

// Sink accumulates diagnostics and counts them, the way spec.md §7 requires:
// "Compile-time errors are counted and accumulated; compilation always runs
// to end of input and reports the total."
type Sink struct {
	Program string
	items   []Diagnostic
}

// NewSink creates a Sink that tags every diagnostic with program in its
// rendered form.
func NewSink(program string) *Sink {
	return &Sink{Program: program}
}

// Errorf records a diagnostic at pos.
func (s *Sink) Errorf(pos token.Position, format string, args ...interface{}) {
	s.items = append(s.items, Diagnostic{
		Message: fmt.Sprintf(format, args...),
		Pos:     pos,
		HasPos:  true,
	})
}

// Error records a diagnostic with no associated position (e.g. a read
// failure latched by the lexer).
func (s *Sink) Error(format string, args ...interface{}) {
	s.items = append(s.items, Diagnostic{Message: fmt.Sprintf(format, args...)})
}

// Count returns the number of accumulated diagnostics.
func (s *Sink) Count() int { return len(s.items) }

// ExitCode caps Count() at 255, per spec.md §6: "Exit code is the
// compiler's error count capped at 255 if non-zero".
func (s *Sink) ExitCode() int {
	n := s.Count()
	if n > 255 {
		return 255
	}
	return n
}

// Print writes every accumulated diagnostic to w, one per line, colorizing
// when w is a terminal.
func (s *Sink) Print(w io.Writer) {
	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	errLabel := color.New(color.FgRed, color.Bold)
	posLabel := color.New(color.Faint)
	errLabel.DisableColor()
	posLabel.DisableColor()
	if useColor {
		errLabel.EnableColor()
		posLabel.EnableColor()
	}
	for _, d := range s.items {
		fmt.Fprint(w, s.Program+": ")
		errLabel.Fprint(w, d.Message)
		if d.HasPos {
			fmt.Fprint(w, " ")
			posLabel.Fprintf(w, "[near line %d]", d.Pos.Line)
		}
		fmt.Fprintln(w)
	}
}
