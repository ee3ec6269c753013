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

// Package lexer implements the PL/0C lexical scanner: a restartable token
// stream over an arbitrary byte source (spec.md §4.1).
package lexer

import (
	"bufio"
	"io"
	"math"

	"github.com/pkg/errors"

	"github.com/pl0c-lang/pl0c/token"
)

// readErrContext is the wrap message attached to a non-EOF read failure
// from the underlying io.Reader, matching the teacher's errors.Wrap(err,
// "... failed") idiom (vm/mem.go, vm/io.go) rather than a bare sentinel.
const readErrContext = "lexer: read error"

// Tracer receives one line of text per scanned token (plus one per saturated
// numeric literal) when non-nil, the way
// the teacher's driver traces VM register state: a plain callback, not a
// logging framework.
type Tracer func(format string, args ...interface{})

// Lexer scans a character source into a Token stream. It maintains the
// current line, current column, and the last token produced so that Current
// can be called repeatedly without re-scanning.
type Lexer struct {
	name     string
	r        *bufio.Reader
	line     int
	col      int
	ungot    rune
	hasUngot bool
	cur      token.Token
	Trace    Tracer
	err      error
}

// New creates a Lexer reading from r. name is used only to tag Position
// values in diagnostics (typically the source file name, or "-" for stdin).
func New(name string, r io.Reader) *Lexer {
	l := &Lexer{
		name: name,
		r:    bufio.NewReader(r),
		line: 1,
		col:  0,
	}
	return l
}

// Reset rediscts the Lexer at a new input source, resetting line to 1 and
// column to 0 (spec.md §4.1: "Setting a new input source resets column and
// line").
func (l *Lexer) Reset(name string, r io.Reader) {
	l.name = name
	l.r = bufio.NewReader(r)
	l.line = 1
	l.col = 0
	l.hasUngot = false
	l.err = nil
}

func (l *Lexer) pos() token.Position {
	return token.Position{Filename: l.name, Line: l.line, Column: l.col}
}

// readRune reads the next rune, tracking line/column. A put-back rune (via
// unget) is replayed first. A non-EOF failure from the underlying reader is
// wrapped and latched in l.err, retrievable via Err, since the Token result
// type has no room to carry an arbitrary error (spec.md §3 "Token").
func (l *Lexer) readRune() (rune, error) {
	if l.hasUngot {
		l.hasUngot = false
		r := l.ungot
		l.advance(r)
		return r, nil
	}
	r, _, err := l.r.ReadRune()
	if err != nil {
		if err != io.EOF {
			l.err = errors.Wrap(err, readErrContext)
		}
		return 0, err
	}
	l.advance(r)
	return r, nil
}

// Err returns the first non-EOF read failure the Lexer encountered, or nil
// if the stream has only ever reached a clean end of input. Callers that
// see a trailing token.EOF should consult Err to distinguish "source
// exhausted normally" from "the underlying reader failed".
func (l *Lexer) Err() error { return l.err }

func (l *Lexer) advance(r rune) {
	if r == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
}

// unget pushes back a single rune so that the next readRune call returns it
// again. Only one level of pushback is supported (spec.md §4.1: "one-character
// lookahead is sufficient").
func (l *Lexer) unget(r rune) {
	l.ungot = r
	l.hasUngot = true
	if r == '\n' {
		l.line--
	} else {
		l.col--
	}
}

// Current returns the last token returned by Get without consuming input.
func (l *Lexer) Current() token.Token { return l.cur }

// Get scans and returns the next token, advancing the stream.
func (l *Lexer) Get() token.Token {
	tok := l.scan()
	l.cur = tok
	if l.Trace != nil {
		l.Trace("lex: %s @ %s", tok, tok.Pos)
	}
	return tok
}

func isLetter(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isIdentRune(r rune) bool {
	return isLetter(r) || isDigit(r)
}

// scan does the actual work: skip whitespace and comments, then recognize
// one token.
func (l *Lexer) scan() token.Token {
	for {
		r, err := l.readRune()
		if err != nil {
			return token.Token{Kind: token.EOF, Pos: l.pos()}
		}
		switch {
		case r == ' ' || r == '\t' || r == '\r' || r == '\n':
			continue
		case r == '/':
			r2, err2 := l.readRune()
			if err2 == nil && r2 == '/' {
				l.skipLineComment()
				continue
			}
			if err2 == nil && r2 == '*' {
				openLine := l.line
				if ok := l.skipBlockComment(); !ok {
					return token.Token{Kind: token.BadComment, Int: int32(openLine), Pos: l.pos()}
				}
				continue
			}
			if err2 == nil {
				l.unget(r2)
			}
			return token.Token{Kind: token.Slash, Pos: l.pos()}
		default:
			l.unget(r)
			return l.scanToken()
		}
	}
}

func (l *Lexer) skipLineComment() {
	for {
		r, err := l.readRune()
		if err != nil || r == '\n' {
			return
		}
	}
}

// skipBlockComment consumes a /* ... */ comment (which does not nest),
// tracking newlines for the line counter even inside the comment body, per
// spec.md §4.1. Returns false if input ends before the closing */.
func (l *Lexer) skipBlockComment() bool {
	prev := rune(0)
	for {
		r, err := l.readRune()
		if err != nil {
			return false
		}
		if prev == '*' && r == '/' {
			return true
		}
		prev = r
	}
}

// scanToken recognizes exactly one non-whitespace, non-comment token
// starting at the current read position.
func (l *Lexer) scanToken() token.Token {
	pos := l.pos()
	r, err := l.readRune()
	if err != nil {
		return token.Token{Kind: token.EOF, Pos: pos}
	}

	switch {
	case isDigit(r):
		return l.scanNumber(r, pos)
	case isLetter(r):
		return l.scanIdent(r, pos)
	}

	mk := func(k token.Kind) token.Token { return token.Token{Kind: k, Pos: pos} }

	switch r {
	case '=':
		if r2, err2 := l.readRune(); err2 == nil {
			if r2 == '=' {
				return mk(token.Equal)
			}
			l.unget(r2)
		}
		return mk(token.Assign)
	case '!':
		if r2, err2 := l.readRune(); err2 == nil {
			if r2 == '=' {
				return mk(token.NotEqual)
			}
			l.unget(r2)
		}
		return mk(token.Not)
	case '<':
		if r2, err2 := l.readRune(); err2 == nil {
			switch r2 {
			case '=':
				return mk(token.LessEqual)
			case '<':
				return mk(token.Shl)
			default:
				l.unget(r2)
			}
		}
		return mk(token.Less)
	case '>':
		if r2, err2 := l.readRune(); err2 == nil {
			switch r2 {
			case '=':
				return mk(token.GreaterEqual)
			case '>':
				return mk(token.Shr)
			default:
				l.unget(r2)
			}
		}
		return mk(token.Greater)
	case '|':
		if r2, err2 := l.readRune(); err2 == nil {
			if r2 == '|' {
				return mk(token.LogOr)
			}
			l.unget(r2)
		}
		return mk(token.BOr)
	case '&':
		if r2, err2 := l.readRune(); err2 == nil {
			if r2 == '&' {
				return mk(token.LogAnd)
			}
			l.unget(r2)
		}
		return mk(token.BAnd)
	case '~':
		return mk(token.Comp)
	case '^':
		return mk(token.BXor)
	case '+':
		return mk(token.Plus)
	case '-':
		return mk(token.Minus)
	case '*':
		return mk(token.Star)
	case '%':
		return mk(token.Percent)
	case '(':
		return mk(token.LParen)
	case ')':
		return mk(token.RParen)
	case ',':
		return mk(token.Comma)
	case '.':
		return mk(token.Dot)
	case ';':
		return mk(token.Semicolon)
	default:
		return token.Token{Kind: token.Unknown, Str: string(r), Int: int32(r), Pos: pos}
	}
}

func (l *Lexer) scanIdent(first rune, pos token.Position) token.Token {
	var sb []rune
	sb = append(sb, first)
	for {
		r, err := l.readRune()
		if err != nil {
			break
		}
		if !isIdentRune(r) {
			l.unget(r)
			break
		}
		sb = append(sb, r)
	}
	s := string(sb)
	if kw, ok := token.Keywords[s]; ok {
		return token.Token{Kind: kw, Str: s, Pos: pos}
	}
	return token.Token{Kind: token.Ident, Str: s, Pos: pos}
}

// maxWord is the largest value a signed 32-bit word can hold; numeric
// literals overflowing it are saturated (spec.md §4.1 "Numbers").
const maxWord = math.MaxInt32

func (l *Lexer) scanNumber(first rune, pos token.Position) token.Token {
	n := int64(first - '0')
	overflowed := false
	for {
		r, err := l.readRune()
		if err != nil {
			break
		}
		if !isDigit(r) {
			l.unget(r)
			break
		}
		n = n*10 + int64(r-'0')
		if n > maxWord {
			n = maxWord
			overflowed = true
		}
	}
	if overflowed && l.Trace != nil {
		l.Trace("lex: numeric literal overflow at %s, saturated to %d", pos, maxWord)
	}
	return token.Token{Kind: token.Number, Int: int32(n), Pos: pos}
}
