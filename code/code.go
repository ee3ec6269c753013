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

// Package code defines the PL/0C instruction model shared by the compiler
// and the interpreter: the opcode enumeration, the Instruction triple,
// activation frame layout constants, and a disassembler (spec.md §3
// "Instruction", §4.5).
package code

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// Op is the opcode half of an Instruction.
type Op uint8

// The "richer" opcode set of spec.md §9: PushVar/Eval/Assign act on
// addresses, plus full bitwise/shift/comparison coverage.
const (
	Nop Op = iota
	PushConst
	PushVar
	Eval
	Assign
	Call
	Enter
	Ret
	Retf
	Jump
	JNEQ
	Neg
	Not
	Comp
	Add
	Sub
	Mul
	Div
	Rem
	BAnd
	BOr
	BXor
	Shl
	Shr
	LogAnd
	LogOr
	Eq
	Neq
	Lt
	Leq
	Gt
	Geq
	Halt
)

var mnemonics = [...]string{
	Nop:       "nop",
	PushConst: "pushconst",
	PushVar:   "pushvar",
	Eval:      "eval",
	Assign:    "assign",
	Call:      "call",
	Enter:     "enter",
	Ret:       "ret",
	Retf:      "retf",
	Jump:      "jump",
	JNEQ:      "jneq",
	Neg:       "neg",
	Not:       "not",
	Comp:      "comp",
	Add:       "add",
	Sub:       "sub",
	Mul:       "mul",
	Div:       "div",
	Rem:       "rem",
	BAnd:      "band",
	BOr:       "bor",
	BXor:      "bxor",
	Shl:       "shl",
	Shr:       "shr",
	LogAnd:    "and",
	LogOr:     "or",
	Eq:        "eq",
	Neq:       "neq",
	Lt:        "lt",
	Leq:       "leq",
	Gt:        "gt",
	Geq:       "geq",
	Halt:      "halt",
}

// String renders the mnemonic for op.
func (op Op) String() string {
	if int(op) < len(mnemonics) && mnemonics[op] != "" {
		return mnemonics[op]
	}
	return fmt.Sprintf("op(%d)", op)
}

// hasLevel reports whether op's Level field is meaningful (only memory and
// call opcodes carry a static-link hop count, spec.md §3 "Instruction").
func (op Op) hasLevel() bool {
	switch op {
	case PushVar, Call:
		return true
	default:
		return false
	}
}

// hasAddr reports whether op's Addr field is meaningful.
func (op Op) hasAddr() bool {
	switch op {
	case PushConst, PushVar, Call, Enter, Ret, Retf, Jump, JNEQ:
		return true
	default:
		return false
	}
}

// Instruction is the triple (opcode, level, addr) of spec.md §3. Level is
// an 8-bit non-negative static-link hop count; Addr's interpretation
// (constant value, variable offset, code address, or argument pop count)
// is opcode-specific.
type Instruction struct {
	Op    Op
	Level uint8
	Addr  int32
}

// Activation frame layout (spec.md §3 "Activation frame"): offsets of the
// fixed header fields relative to a frame's base pointer. Locals begin at
// FrameSize.
const (
	FrameBase    = 0 // static link
	FrameOldBP   = 1 // dynamic link
	FrameRetAddr = 2 // return address
	FrameRetVal  = 3 // function return value
	FrameSize    = 4 // header size; first local offset
)

// Disassemble writes one human-readable line per instruction in code to w,
// in the form "<loc>: <mnemonic> [<level>,] <addr>" (spec.md §4.5). It is
// purely informational and has no semantic impact on compilation or
// execution.
func Disassemble(w io.Writer, code []Instruction) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for loc, ins := range code {
		fmt.Fprintf(tw, "%4d:\t%s", loc, ins.Op)
		switch {
		case ins.Op.hasLevel() && ins.Op.hasAddr():
			fmt.Fprintf(tw, "\t%d,%d", ins.Level, ins.Addr)
		case ins.Op.hasAddr():
			fmt.Fprintf(tw, "\t%d", ins.Addr)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

// DisassembleOne formats a single instruction at location loc the way
// Disassemble does, without the surrounding tabwriter column alignment.
// Used by the interpreter's -v register dump.
func DisassembleOne(loc int, ins Instruction) string {
	switch {
	case ins.Op.hasLevel() && ins.Op.hasAddr():
		return fmt.Sprintf("%d: %s %d,%d", loc, ins.Op, ins.Level, ins.Addr)
	case ins.Op.hasAddr():
		return fmt.Sprintf("%d: %s %d", loc, ins.Op, ins.Addr)
	default:
		return fmt.Sprintf("%d: %s", loc, ins.Op)
	}
}
