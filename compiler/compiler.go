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

// Package compiler implements the PL/0C single-pass recursive-descent
// compiler (spec.md §4.3): it parses the grammar of spec.md §4.3 directly
// against the token stream and emits code.Instruction values, back-patching
// forward jumps and nested procedure/function prologue addresses as it
// goes, structured like the teacher's asm.parser (an unexported parser
// struct with an accumulating error sink and label back-patch bookkeeping).
package compiler

import (
	"github.com/pl0c-lang/pl0c/code"
	"github.com/pl0c-lang/pl0c/internal/diag"
	"github.com/pl0c-lang/pl0c/lexer"
	"github.com/pl0c-lang/pl0c/symtab"
	"github.com/pl0c-lang/pl0c/token"
)

// maxErrors bounds how many diagnostics the compiler accumulates before
// giving up entirely, so that adversarial input cannot make it loop
// indefinitely accumulating garbage (spec.md §4.3 "Errors").
const maxErrors = 200

// Tracer receives one line per emit/patch event when non-nil.
type Tracer func(format string, args ...interface{})

// funcCtx identifies an enclosing function whose body is currently being
// compiled, so that an assignment to its own name can be special-cased as
// setting its return value rather than resolved as an ordinary variable.
type funcCtx struct {
	name  string
	level int
}

// Compiler parses a token stream into a code.Instruction sequence.
type Compiler struct {
	lex   *lexer.Lexer
	sym   *symtab.Table
	sink  *diag.Sink
	trace Tracer

	cur       token.Token
	code      []code.Instruction
	funcStack []funcCtx
}

// New creates a Compiler reading tokens from lex, resolving names in sym,
// and reporting errors to sink.
func New(lex *lexer.Lexer, sym *symtab.Table, sink *diag.Sink) *Compiler {
	return &Compiler{lex: lex, sym: sym, sink: sink}
}

// SetTrace installs a Tracer for emit/patch diagnostics.
func (c *Compiler) SetTrace(t Tracer) { c.trace = t }

// Compile parses program = block "." and returns the emitted instruction
// sequence. If any errors were reported, the returned slice is nil; the
// caller should consult the diag.Sink passed to New for the count and text.
func (c *Compiler) Compile() []code.Instruction {
	c.advance()
	c.block(0, "main", 0, 0, false, nil)
	c.expect(token.Dot)
	c.emit(code.Halt, 0, 0)
	if c.sink.Count() > 0 {
		return nil
	}
	return c.code
}

// --- token plumbing -------------------------------------------------------

func (c *Compiler) advance() {
	c.cur = c.lex.Get()
}

func (c *Compiler) abort() bool { return c.sink.Count() >= maxErrors }

// expect consumes the current token if it matches kind, reporting an error
// otherwise. On mismatch it does not consume: the token is left for the
// caller's following productions, and fact consumes a token it cannot use,
// so parsing keeps moving on bad input.
func (c *Compiler) expect(kind token.Kind) bool {
	if c.cur.Kind == kind {
		c.advance()
		return true
	}
	c.errorf("expected %s, got %s", kind, c.cur.Kind)
	return false
}

func (c *Compiler) errorf(format string, args ...interface{}) {
	c.sink.Errorf(c.cur.Pos, format, args...)
}

func (c *Compiler) tracef(format string, args ...interface{}) {
	if c.trace != nil {
		c.trace(format, args...)
	}
}

// --- emission and back-patching -------------------------------------------

// emit appends an instruction and returns its index, for later patching.
func (c *Compiler) emit(op code.Op, level uint8, addr int32) int {
	idx := len(c.code)
	c.code = append(c.code, code.Instruction{Op: op, Level: level, Addr: addr})
	c.tracef("emit %d: %s %d,%d", idx, op, level, addr)
	return idx
}

// patch sets the Addr of the instruction at idx to the current code length
// (i.e. the address of the next instruction to be emitted).
func (c *Compiler) patch(idx int) {
	c.patchTo(idx, int32(len(c.code)))
}

func (c *Compiler) patchTo(idx int, addr int32) {
	c.code[idx].Addr = addr
	c.tracef("patch %d -> %d", idx, addr)
}

// --- name resolution -------------------------------------------------------

// resolve looks up name at the given lexical level, reporting "undefined
// identifier" if absent.
func (c *Compiler) resolve(name string, level int) (symtab.Entry, bool) {
	e, ok := c.sym.Lookup(name, level)
	if !ok {
		c.errorf("undefined identifier %s", name)
	}
	return e, ok
}

// --- grammar ---------------------------------------------------------------

// block compiles one block (spec.md §4.3 "Block emission"). myLevel is the
// lexical level of this block's own locals, params, and statement body.
// ownName/ownDeclLevel identify the symbol table entry whose Value this
// block's entry address patches once known (the bootstrap "main" entry for
// the top-level block, or a nested procedure/function's own entry).
// nargs/isFunction describe this block if it is itself a subroutine body;
// params holds the declared parameter names, already known to the caller.
func (c *Compiler) block(myLevel int, ownName string, ownDeclLevel int, nargs int, isFunction bool, params []string) {
	if c.abort() {
		return
	}

	trampoline := c.emit(code.Jump, 0, 0)

	for i, p := range params {
		c.sym.Insert(symtab.Entry{
			Name:  p,
			Kind:  symtab.Variable,
			Level: myLevel,
			Value: int32(i - len(params)),
		})
	}

	localOffset := int32(code.FrameSize)

	if c.cur.Kind == token.Const {
		c.advance()
		for {
			if c.cur.Kind != token.Ident {
				c.errorf("expected identifier in const declaration, got %s", c.cur.Kind)
				break
			}
			name := c.cur.Str
			c.advance()
			if !c.expect(token.Assign) {
				break
			}
			if c.cur.Kind != token.Number {
				c.errorf("expected number, got %s", c.cur.Kind)
				break
			}
			val := c.cur.Int
			c.advance()
			if c.sym.DeclaredAtLevel(name, myLevel) {
				c.errorf("redefinition of %s at this scope", name)
			} else {
				c.sym.Insert(symtab.Entry{Name: name, Kind: symtab.Constant, Level: myLevel, Value: val})
			}
			if c.cur.Kind != token.Comma {
				break
			}
			c.advance()
		}
		c.expect(token.Semicolon)
	}

	if c.cur.Kind == token.Var {
		c.advance()
		for {
			if c.cur.Kind != token.Ident {
				c.errorf("expected identifier in var declaration, got %s", c.cur.Kind)
				break
			}
			name := c.cur.Str
			c.advance()
			if c.sym.DeclaredAtLevel(name, myLevel) {
				c.errorf("redefinition of %s at this scope", name)
			} else {
				c.sym.Insert(symtab.Entry{Name: name, Kind: symtab.Variable, Level: myLevel, Value: localOffset})
				localOffset++
			}
			if c.cur.Kind != token.Comma {
				break
			}
			c.advance()
		}
		c.expect(token.Semicolon)
	}

	for c.cur.Kind == token.Procedure || c.cur.Kind == token.Function {
		subIsFunction := c.cur.Kind == token.Function
		subKind := symtab.Procedure
		if subIsFunction {
			subKind = symtab.Function
		}
		c.advance()
		if c.cur.Kind != token.Ident {
			c.errorf("expected subroutine name, got %s", c.cur.Kind)
			break
		}
		name := c.cur.Str
		c.advance()
		c.expect(token.LParen)
		var subParams []string
		if c.cur.Kind == token.Ident {
			subParams = append(subParams, c.cur.Str)
			c.advance()
			for c.cur.Kind == token.Comma {
				c.advance()
				if c.cur.Kind != token.Ident {
					c.errorf("expected parameter name, got %s", c.cur.Kind)
					break
				}
				subParams = append(subParams, c.cur.Str)
				c.advance()
			}
		}
		c.expect(token.RParen)
		if c.sym.DeclaredAtLevel(name, myLevel) {
			c.errorf("redefinition of %s at this scope", name)
		} else {
			c.sym.Insert(symtab.Entry{
				Name: name, Kind: subKind, Level: myLevel, Value: 0, NArgs: len(subParams),
			})
		}
		c.block(myLevel+1, name, myLevel, len(subParams), subIsFunction, subParams)
		c.expect(token.Semicolon)
		if c.abort() {
			break
		}
	}

	entry := int32(len(c.code))
	c.patchTo(trampoline, entry)
	c.sym.SetValue(ownName, ownDeclLevel, entry)

	c.emit(code.Enter, 0, localOffset)

	if isFunction {
		c.funcStack = append(c.funcStack, funcCtx{name: ownName, level: myLevel})
	}
	c.statement(myLevel)
	if isFunction {
		c.funcStack = c.funcStack[:len(c.funcStack)-1]
		c.emit(code.Retf, 0, int32(nargs))
	} else {
		c.emit(code.Ret, 0, int32(nargs))
	}

	c.sym.PurgeLevel(myLevel)
}

// funcReturn reports whether name/level identifies the innermost enclosing
// function whose body is currently being compiled — i.e. whether an
// assignment to name at level is this function setting its own return
// value, per the classic Wirth convention of assigning to the function's
// own name (spec.md's Retf reads the frame's FrameRetVal slot, but the
// grammar gives no other syntax for writing it).
func (c *Compiler) funcReturn(name string, level int) bool {
	for _, f := range c.funcStack {
		if f.name == name && f.level == level {
			return true
		}
	}
	return false
}

// statement compiles one statement production (spec.md §4.3 "statement").
func (c *Compiler) statement(level int) {
	if c.abort() {
		return
	}
	switch c.cur.Kind {
	case token.Ident:
		c.identStatement(level)
	case token.Begin:
		c.advance()
		c.statement(level)
		for c.cur.Kind == token.Semicolon {
			c.advance()
			c.statement(level)
		}
		c.expect(token.End)
	case token.If:
		c.advance()
		c.cond(level)
		c.expect(token.Then)
		jneq := c.emit(code.JNEQ, 0, 0)
		c.statement(level)
		if c.cur.Kind == token.Else {
			jmp := c.emit(code.Jump, 0, 0)
			c.patch(jneq)
			c.advance()
			c.statement(level)
			c.patch(jmp)
		} else {
			c.patch(jneq)
		}
	case token.While:
		c.advance()
		head := int32(len(c.code))
		c.cond(level)
		c.expect(token.Do)
		jexit := c.emit(code.JNEQ, 0, 0)
		c.statement(level)
		c.emit(code.Jump, 0, head)
		c.patch(jexit)
	case token.Repeat:
		c.advance()
		head := int32(len(c.code))
		c.statement(level)
		c.expect(token.Until)
		c.cond(level)
		c.emit(code.JNEQ, 0, head)
	default:
		// empty statement
	}
}

// identStatement compiles either an assignment or a procedure/function call
// used as a statement (spec.md §4.3 "statement": "ident (\"=\" expr |
// \"(\" ... \")\")").
func (c *Compiler) identStatement(level int) {
	name := c.cur.Str
	pos := c.cur.Pos
	c.advance()

	if c.cur.Kind == token.Assign {
		c.advance()
		c.expr(level)
		if c.funcReturn(name, level) {
			c.emit(code.PushVar, 0, code.FrameRetVal)
			c.emit(code.Assign, 0, 0)
			return
		}
		e, ok := c.resolve(name, level)
		if ok && e.Kind != symtab.Variable {
			c.sink.Errorf(pos, "cannot assign to %s %s", e.Kind, name)
		}
		if ok {
			c.emit(code.PushVar, uint8(level-e.Level), e.Value)
			c.emit(code.Assign, 0, 0)
		}
		return
	}

	e, ok := c.resolve(name, level)
	if ok && e.Kind != symtab.Procedure && e.Kind != symtab.Function {
		c.sink.Errorf(pos, "cannot call %s %s", e.Kind, name)
		ok = false
	}
	nargs := 0
	if c.cur.Kind == token.LParen {
		c.advance()
		if c.cur.Kind != token.RParen {
			c.expr(level)
			nargs++
			for c.cur.Kind == token.Comma {
				c.advance()
				c.expr(level)
				nargs++
			}
		}
		c.expect(token.RParen)
	} else {
		c.errorf("expected ( in call to %s, got %s", name, c.cur.Kind)
	}
	if ok {
		c.emit(code.Call, uint8(level-e.Level), e.Value)
	}
	_ = nargs // argument-count mismatch is intentionally not checked (spec.md §9)
}

// cond compiles the cond production (spec.md §4.3).
func (c *Compiler) cond(level int) {
	if c.cur.Kind == token.Odd {
		c.advance()
		c.expr(level)
		c.emit(code.PushConst, 0, 1)
		c.emit(code.BAnd, 0, 0)
		return
	}
	c.expr(level)
	op, ok := relOp(c.cur.Kind)
	if !ok {
		c.errorf("expected relational operator, got %s", c.cur.Kind)
		return
	}
	c.advance()
	c.expr(level)
	c.emit(op, 0, 0)
}

func relOp(k token.Kind) (code.Op, bool) {
	switch k {
	case token.Equal:
		return code.Eq, true
	case token.NotEqual:
		return code.Neq, true
	case token.Less:
		return code.Lt, true
	case token.LessEqual:
		return code.Leq, true
	case token.Greater:
		return code.Gt, true
	case token.GreaterEqual:
		return code.Geq, true
	default:
		return 0, false
	}
}

// expr compiles the expr production (spec.md §4.3).
func (c *Compiler) expr(level int) {
	neg := false
	switch c.cur.Kind {
	case token.Plus:
		c.advance()
	case token.Minus:
		neg = true
		c.advance()
	}
	c.term(level)
	if neg {
		c.emit(code.Neg, 0, 0)
	}
	for {
		var op code.Op
		switch c.cur.Kind {
		case token.Plus:
			op = code.Add
		case token.Minus:
			op = code.Sub
		case token.BOr:
			op = code.BOr
		case token.BXor:
			op = code.BXor
		case token.LogOr:
			op = code.LogOr
		default:
			return
		}
		c.advance()
		c.term(level)
		c.emit(op, 0, 0)
	}
}

// term compiles the term production (spec.md §4.3).
func (c *Compiler) term(level int) {
	c.fact(level)
	for {
		var op code.Op
		switch c.cur.Kind {
		case token.Star:
			op = code.Mul
		case token.Slash:
			op = code.Div
		case token.Percent:
			op = code.Rem
		case token.BAnd:
			op = code.BAnd
		case token.Shl:
			op = code.Shl
		case token.Shr:
			op = code.Shr
		case token.LogAnd:
			op = code.LogAnd
		default:
			return
		}
		c.advance()
		c.fact(level)
		c.emit(op, 0, 0)
	}
}

// fact compiles the fact production (spec.md §4.3).
func (c *Compiler) fact(level int) {
	if c.abort() {
		return
	}
	switch c.cur.Kind {
	case token.Ident:
		name := c.cur.Str
		pos := c.cur.Pos
		c.advance()
		if c.cur.Kind == token.LParen {
			c.advance()
			if c.cur.Kind != token.RParen {
				c.expr(level)
				for c.cur.Kind == token.Comma {
					c.advance()
					c.expr(level)
				}
			}
			c.expect(token.RParen)
			e, ok := c.sym.Lookup(name, level)
			if !ok {
				c.sink.Errorf(pos, "undefined identifier %s", name)
				return
			}
			if e.Kind != symtab.Procedure && e.Kind != symtab.Function {
				c.sink.Errorf(pos, "cannot call %s %s", e.Kind, name)
				return
			}
			c.emit(code.Call, uint8(level-e.Level), e.Value)
			return
		}
		e, ok := c.sym.Lookup(name, level)
		if !ok {
			c.sink.Errorf(pos, "undefined identifier %s", name)
			return
		}
		switch e.Kind {
		case symtab.Constant:
			c.emit(code.PushConst, 0, e.Value)
		case symtab.Variable:
			c.emit(code.PushVar, uint8(level-e.Level), e.Value)
			c.emit(code.Eval, 0, 0)
		default:
			c.sink.Errorf(pos, "%s %s used as a value", e.Kind, name)
		}
	case token.Number:
		c.emit(code.PushConst, 0, c.cur.Int)
		c.advance()
	case token.LParen:
		c.advance()
		c.expr(level)
		c.expect(token.RParen)
	case token.Not:
		c.advance()
		c.fact(level)
		c.emit(code.Not, 0, 0)
	case token.Comp:
		c.advance()
		c.fact(level)
		c.emit(code.Comp, 0, 0)
	default:
		c.errorf("unexpected token %s in expression", c.cur.Kind)
		c.advance()
	}
}
