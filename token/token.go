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

// Package token defines the vocabulary of the PL/0C lexical scanner: the
// fixed kind enumeration, the position type used to tag diagnostics, and the
// Token value itself.
package token

import "fmt"

// Kind identifies the syntactic category of a Token.
type Kind int

// The fixed token kind enumeration (spec.md §3 "Token").
const (
	EOF Kind = iota
	Unknown
	BadComment
	Ident
	Number

	// keywords
	Const
	Var
	Procedure
	Function
	Begin
	End
	If
	Then
	Else
	While
	Do
	Repeat
	Until
	Odd

	// operators and punctuation
	Assign // =
	Equal  // ==
	NotEqual
	Less
	LessEqual
	Greater
	GreaterEqual
	LogOr  // ||
	LogAnd // &&
	Shl    // <<
	Shr    // >>
	Not    // !
	Comp   // ~
	BOr    // |
	BAnd   // &
	BXor   // ^
	Plus
	Minus
	Star
	Slash
	Percent
	LParen
	RParen
	Comma
	Dot
	Semicolon
)

var names = map[Kind]string{
	EOF:          "end of input",
	Unknown:      "unknown character",
	BadComment:   "unterminated comment",
	Ident:        "identifier",
	Number:       "number",
	Const:        "const",
	Var:          "var",
	Procedure:    "procedure",
	Function:     "function",
	Begin:        "begin",
	End:          "end",
	If:           "if",
	Then:         "then",
	Else:         "else",
	While:        "while",
	Do:           "do",
	Repeat:       "repeat",
	Until:        "until",
	Odd:          "odd",
	Assign:       "=",
	Equal:        "==",
	NotEqual:     "!=",
	Less:         "<",
	LessEqual:    "<=",
	Greater:      ">",
	GreaterEqual: ">=",
	LogOr:        "||",
	LogAnd:       "&&",
	Shl:          "<<",
	Shr:          ">>",
	Not:          "!",
	Comp:         "~",
	BOr:          "|",
	BAnd:         "&",
	BXor:         "^",
	Plus:         "+",
	Minus:        "-",
	Star:         "*",
	Slash:        "/",
	Percent:      "%",
	LParen:       "(",
	RParen:       ")",
	Comma:        ",",
	Dot:          ".",
	Semicolon:    ";",
}

// Keywords maps a lowercase identifier spelling to its keyword Kind. Any
// identifier matching one of these produces the keyword's kind instead of
// Ident (spec.md §3 "Token").
var Keywords = map[string]Kind{
	"const":     Const,
	"var":       Var,
	"procedure": Procedure,
	"function":  Function,
	"begin":     Begin,
	"end":       End,
	"if":        If,
	"then":      Then,
	"else":      Else,
	"while":     While,
	"do":        Do,
	"repeat":    Repeat,
	"until":     Until,
	"odd":       Odd,
}

// String implements fmt.Stringer, returning a human-readable name for k.
func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Position identifies a point in the source text, analogous to
// text/scanner.Position: a filename plus a 1-based line and a 0-based
// column (the number of characters read on the line before the token).
type Position struct {
	Filename string
	Line     int
	Column   int
}

// String renders the position as "file:line:column", omitting the filename
// segment when empty.
func (p Position) String() string {
	if p.Filename == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}

// Token is a tagged lexical value: a Kind plus the string or integer payload
// it carries, if any.
type Token struct {
	Kind Kind
	Str  string // identifier spelling, or the raw spelling of an Unknown char
	Int  int32  // Number literal value
	Pos  Position
}

// String renders the token for diagnostics and -v tracing.
func (t Token) String() string {
	switch t.Kind {
	case Ident:
		return fmt.Sprintf("ident(%s)", t.Str)
	case Number:
		return fmt.Sprintf("number(%d)", t.Int)
	case Unknown:
		return fmt.Sprintf("unknown(%q)", t.Str)
	case BadComment:
		return "unterminated comment"
	default:
		return t.Kind.String()
	}
}
