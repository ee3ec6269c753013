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

// Package vm implements the PL/0C stack-machine interpreter: nested
// activation frames addressed via Wirth-style base(level) static links
// (spec.md §4.4). It is a structural port of the teacher's vm.Instance /
// vm.Run fetch-decode-dispatch loop, adapted from Forth's flat data/address
// stack model to PL/0C's framed calling convention.
package vm

import (
	"github.com/pl0c-lang/pl0c/code"
)

// defaultStackSize is the configured word count for the data stack
// (spec.md §5: "pre-sized to a configured word count, default 512 words").
const defaultStackSize = 512

// Option configures an Instance at construction, the way the teacher's
// vm.DataSize/vm.AddressSize/vm.Output functional options configure a
// vm.Instance.
type Option func(*Instance)

// WithStackSize overrides the default data stack capacity.
func WithStackSize(words int) Option {
	return func(i *Instance) { i.stack = make([]int32, words) }
}

// WithTrace installs a Tracer that receives one register-dump line before
// every dispatched instruction, driving the CLI's -v mode (spec.md §6).
func WithTrace(t Tracer) Option {
	return func(i *Instance) { i.trace = t }
}

// Tracer receives one formatted line per traced event.
type Tracer func(format string, args ...interface{})

// Instance is a PL/0C virtual machine: a single contiguous word stack plus
// the pc, bp and sp registers of spec.md §4.4. The current instruction is
// held in a local of Run rather than in a register field.
type Instance struct {
	code  []code.Instruction
	stack []int32

	pc int // instruction index
	bp int // base of current frame
	sp int // current top of stack, -1 means empty

	trace Tracer
}

// New creates an Instance ready to Run code. Initial state follows
// spec.md §4.4 "Initial state": pc = 0, bp = 0, sp = 3, stack[0..3] = 0 —
// a synthetic caller frame whose retAddr is 0, so that the main block's
// Ret sets pc = 0 and terminates.
func New(program []code.Instruction, opts ...Option) *Instance {
	i := &Instance{code: program}
	for _, opt := range opts {
		opt(i)
	}
	if i.stack == nil {
		i.stack = make([]int32, defaultStackSize)
	}
	i.pc, i.bp, i.sp = 0, 0, 3
	for k := 0; k <= 3; k++ {
		i.stack[k] = 0
	}
	return i
}

// PC, BP, and SP expose the interpreter's registers for tracing and
// testing.
func (i *Instance) PC() int { return i.pc }
func (i *Instance) BP() int { return i.bp }
func (i *Instance) SP() int { return i.sp }

// StackSlot returns the value at the given stack index, for tests and
// post-mortem dumps.
func (i *Instance) StackSlot(idx int) int32 { return i.stack[idx] }
