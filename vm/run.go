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
	"github.com/pkg/errors"

	"github.com/pl0c-lang/pl0c/code"
)

// RuntimeError reports a fatal interpreter failure (spec.md §7 "Runtime"):
// divide by zero, stack overflow, unknown opcode, or pc out of range. It
// carries enough context for the driver to print "<program>: <message>
// [near line <n>]"-shaped diagnostics even though the VM has no source line
// information of its own — only the failing instruction's location.
type RuntimeError struct {
	PC      int
	Message string
}

func (e *RuntimeError) Error() string { return e.Message }

func fail(format string, args ...interface{}) {
	panic(errors.Errorf(format, args...))
}

// base resolves the static link chain: base(0) is bp unchanged, base(k) is
// stack[base(k-1)] (spec.md §4.4 "Static link resolution", §9 "Frame
// pointer arithmetic").
func (i *Instance) base(hops uint8) int {
	b := i.bp
	for ; hops > 0; hops-- {
		b = int(i.stack[b])
	}
	return b
}

func (i *Instance) checkStack(idx int) {
	if idx < -1 || idx >= len(i.stack) {
		fail("stack overflow at pc=%d (sp=%d, capacity=%d)", i.pc, idx, len(i.stack))
	}
}

func (i *Instance) push(v int32) {
	i.sp++
	i.checkStack(i.sp)
	i.stack[i.sp] = v
}

func (i *Instance) pop() int32 {
	if i.sp < 0 {
		fail("stack underflow at pc=%d", i.pc)
	}
	v := i.stack[i.sp]
	i.sp--
	return v
}

// Run executes the loaded program to completion (spec.md §4.4). It returns
// nil on a clean termination (pc reaches 0 via the main block's Ret) and a
// *RuntimeError wrapped in the ordinary error chain on any fatal failure.
func (i *Instance) Run() (err error) {
	defer func() {
		if e := recover(); e != nil {
			switch v := e.(type) {
			case error:
				err = &RuntimeError{PC: i.pc, Message: v.Error()}
			default:
				panic(e)
			}
		}
	}()

	first := true
	for {
		if !first && i.pc == 0 {
			return nil
		}
		first = false

		if i.pc < 0 || i.pc >= len(i.code) {
			fail("pc out of range: %d", i.pc)
		}
		ins := i.code[i.pc]

		if i.trace != nil {
			i.trace("%s  pc=%d bp=%d sp=%d", code.DisassembleOne(i.pc, ins), i.pc, i.bp, i.sp)
		}

		switch ins.Op {
		case code.Nop:
			i.pc++

		case code.PushConst:
			i.push(ins.Addr)
			i.pc++

		case code.PushVar:
			i.push(int32(i.base(ins.Level) + int(ins.Addr)))
			i.pc++

		case code.Eval:
			i.checkStack(i.sp)
			addr := int(i.stack[i.sp])
			i.checkStack(addr)
			i.stack[i.sp] = i.stack[addr]
			i.pc++

		case code.Assign:
			addr := i.pop()
			val := i.pop()
			i.checkStack(int(addr))
			i.stack[addr] = val
			i.pc++

		case code.Neg:
			i.checkStack(i.sp)
			i.stack[i.sp] = -i.stack[i.sp]
			i.pc++

		case code.Not:
			i.checkStack(i.sp)
			if i.stack[i.sp] == 0 {
				i.stack[i.sp] = 1
			} else {
				i.stack[i.sp] = 0
			}
			i.pc++

		case code.Comp:
			i.checkStack(i.sp)
			i.stack[i.sp] = ^i.stack[i.sp]
			i.pc++

		case code.Add, code.Sub, code.Mul, code.Div, code.Rem,
			code.BAnd, code.BOr, code.BXor, code.Shl, code.Shr,
			code.LogAnd, code.LogOr,
			code.Eq, code.Neq, code.Lt, code.Leq, code.Gt, code.Geq:
			i.binOp(ins.Op)
			i.pc++

		case code.Call:
			nb := i.base(ins.Level)
			frame := i.sp + 1
			i.checkStack(frame + 3)
			i.stack[frame+code.FrameBase] = int32(nb)
			i.stack[frame+code.FrameOldBP] = int32(i.bp)
			i.stack[frame+code.FrameRetAddr] = int32(i.pc + 1)
			i.stack[frame+code.FrameRetVal] = 0
			i.bp = frame
			i.sp = frame + 3
			i.pc = int(ins.Addr)

		case code.Enter:
			i.sp += int(ins.Addr) - code.FrameSize
			i.checkStack(i.sp)
			i.pc++

		case code.Ret:
			i.ret(int(ins.Addr))

		case code.Retf:
			saved := i.stack[i.bp+code.FrameRetVal]
			i.ret(int(ins.Addr))
			i.push(saved)

		case code.Jump:
			i.pc = int(ins.Addr)

		case code.JNEQ:
			v := i.pop()
			if v == 0 {
				i.pc = int(ins.Addr)
			} else {
				i.pc++
			}

		case code.Halt:
			return nil

		default:
			fail("unknown opcode %v at pc=%d", ins.Op, i.pc)
		}
	}
}

// ret implements the common tail of Ret and Retf (spec.md §4.4).
func (i *Instance) ret(nargs int) {
	retAddr := i.stack[i.bp+code.FrameRetAddr]
	oldBp := i.stack[i.bp+code.FrameOldBP]
	i.sp = i.bp - 1
	i.pc = int(retAddr)
	i.bp = int(oldBp)
	i.sp -= nargs
}

func (i *Instance) binOp(op code.Op) {
	rhs := i.pop()
	lhs := i.pop()
	var res int32
	switch op {
	case code.Add:
		res = lhs + rhs
	case code.Sub:
		res = lhs - rhs
	case code.Mul:
		res = lhs * rhs
	case code.Div:
		if rhs == 0 {
			fail("division by zero at pc=%d", i.pc)
		}
		res = lhs / rhs
	case code.Rem:
		if rhs == 0 {
			fail("division by zero at pc=%d", i.pc)
		}
		res = lhs % rhs
	case code.BAnd:
		res = lhs & rhs
	case code.BOr:
		res = lhs | rhs
	case code.BXor:
		res = lhs ^ rhs
	case code.Shl:
		res = lhs << (uint32(rhs) % 32)
	case code.Shr:
		res = lhs >> (uint32(rhs) % 32)
	case code.LogAnd:
		res = boolWord(lhs != 0 && rhs != 0)
	case code.LogOr:
		res = boolWord(lhs != 0 || rhs != 0)
	case code.Eq:
		res = boolWord(lhs == rhs)
	case code.Neq:
		res = boolWord(lhs != rhs)
	case code.Lt:
		res = boolWord(lhs < rhs)
	case code.Leq:
		res = boolWord(lhs <= rhs)
	case code.Gt:
		res = boolWord(lhs > rhs)
	case code.Geq:
		res = boolWord(lhs >= rhs)
	}
	i.push(res)
}

func boolWord(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
