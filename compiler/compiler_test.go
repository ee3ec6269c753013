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

package compiler_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pl0c-lang/pl0c/code"
	"github.com/pl0c-lang/pl0c/compiler"
	"github.com/pl0c-lang/pl0c/internal/diag"
	"github.com/pl0c-lang/pl0c/lexer"
	"github.com/pl0c-lang/pl0c/symtab"
)

// compile is a test helper: compiles src and returns the program plus the
// diagnostic sink so callers can assert on either success or error count.
func compile(t *testing.T, src string) ([]code.Instruction, *diag.Sink) {
	t.Helper()
	lex := lexer.New("t", strings.NewReader(src))
	sym := symtab.New()
	sink := diag.NewSink("t")
	c := compiler.New(lex, sym, sink)
	prog := c.Compile()
	return prog, sink
}

func opSeq(prog []code.Instruction) []code.Op {
	ops := make([]code.Op, len(prog))
	for i, ins := range prog {
		ops[i] = ins.Op
	}
	return ops
}

func TestEmptyProgram(t *testing.T) {
	prog, sink := compile(t, ".")
	require.Equal(t, 0, sink.Count())
	// trampoline jump, enter, ret, halt
	assert.Equal(t, []code.Op{code.Jump, code.Enter, code.Ret, code.Halt}, opSeq(prog))
}

func TestConstAndVarDeclarations(t *testing.T) {
	prog, sink := compile(t, "const a = 1; var b; begin b = a end.")
	require.Equal(t, 0, sink.Count())
	assert.Contains(t, opSeq(prog), code.PushConst)
	assert.Contains(t, opSeq(prog), code.Assign)
}

func TestArithmeticAndBitwisePrecedence(t *testing.T) {
	prog, sink := compile(t, "var x; begin x = 1 + 2 * 3 | 4 & 5 end.")
	require.Equal(t, 0, sink.Count())
	ops := opSeq(prog)
	assert.Contains(t, ops, code.Mul)
	assert.Contains(t, ops, code.Add)
	assert.Contains(t, ops, code.BOr)
	assert.Contains(t, ops, code.BAnd)
}

func TestIfElseEmitsJNEQAndJump(t *testing.T) {
	prog, sink := compile(t, "var x; begin if x == 0 then x = 1 else x = 2 end.")
	require.Equal(t, 0, sink.Count())
	ops := opSeq(prog)
	assert.Contains(t, ops, code.JNEQ)
	assert.Contains(t, ops, code.Jump)
	assert.Contains(t, ops, code.Eq)
}

func TestWhileLoopBackpatchesToHead(t *testing.T) {
	prog, sink := compile(t, "var x; begin while x < 10 do x = x + 1 end.")
	require.Equal(t, 0, sink.Count())

	var jneqIdx, jumpIdx int = -1, -1
	for i, ins := range prog {
		if ins.Op == code.JNEQ {
			jneqIdx = i
		}
		if ins.Op == code.Jump && i > 1 {
			jumpIdx = i
		}
	}
	require.NotEqual(t, -1, jneqIdx)
	require.NotEqual(t, -1, jumpIdx)
	assert.Less(t, prog[jumpIdx].Addr, int32(jumpIdx), "while loop's backward jump must target the head")
	assert.Equal(t, int32(jumpIdx+1), prog[jneqIdx].Addr, "JNEQ must patch past the loop body")
}

func TestRepeatUntilJNEQBranchesBackward(t *testing.T) {
	prog, sink := compile(t, "var x; begin repeat x = x + 1 until x == 10 end.")
	require.Equal(t, 0, sink.Count())
	ops := opSeq(prog)
	assert.Contains(t, ops, code.JNEQ)
	assert.Contains(t, ops, code.Eq)
}

func TestProcedureCallAndRecursion(t *testing.T) {
	src := `
var n;
procedure count(k)
begin
  if k == 0 then n = n
  else count(k - 1)
end;
begin
  n = 0;
  count(3)
end.`
	prog, sink := compile(t, src)
	require.Equal(t, 0, sink.Count())
	ops := opSeq(prog)
	assert.Contains(t, ops, code.Call)
	assert.Contains(t, ops, code.Ret)
}

func TestFunctionReturnsValueViaRetf(t *testing.T) {
	src := `
var y;
function sq(x)
begin
  sq = x * x
end;
begin y = sq(4) end.`
	prog, sink := compile(t, src)
	require.Equal(t, 0, sink.Count())
	assert.Contains(t, opSeq(prog), code.Retf)
}

func TestUndefinedIdentifierIsReported(t *testing.T) {
	_, sink := compile(t, "begin x = 1 end.")
	assert.Equal(t, 1, sink.Count())
}

func TestRedefinitionAtSameScopeIsReported(t *testing.T) {
	_, sink := compile(t, "var a, a; begin a = 1 end.")
	assert.Equal(t, 1, sink.Count())
}

func TestAssignToConstantIsReported(t *testing.T) {
	_, sink := compile(t, "const a = 1; begin a = 2 end.")
	assert.Equal(t, 1, sink.Count())
}

func TestCallingAVariableIsReported(t *testing.T) {
	_, sink := compile(t, "var a; begin a() end.")
	assert.Equal(t, 1, sink.Count())
}

func TestMissingDotIsReported(t *testing.T) {
	_, sink := compile(t, "var a; begin a = 1 end")
	assert.GreaterOrEqual(t, sink.Count(), 1)
}

func TestOddPredicateEmitsBAndOne(t *testing.T) {
	prog, sink := compile(t, "var x; begin if odd x then x = 1 end.")
	require.Equal(t, 0, sink.Count())
	ops := opSeq(prog)
	assert.Contains(t, ops, code.BAnd)
}

func TestUnaryNotAndComplement(t *testing.T) {
	prog, sink := compile(t, "var x; begin x = !1; x = ~1 end.")
	require.Equal(t, 0, sink.Count())
	ops := opSeq(prog)
	assert.Contains(t, ops, code.Not)
	assert.Contains(t, ops, code.Comp)
}

func TestNestedProcedureSelfRecursionResolvesStaticLink(t *testing.T) {
	src := `
procedure outer()
var v;
  procedure inner(n)
  begin
    if n == 0 then v = v
    else inner(n - 1)
  end;
begin
  v = 0;
  inner(2)
end;
begin outer() end.`
	_, sink := compile(t, src)
	assert.Equal(t, 0, sink.Count())
}
