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

package lexer_test

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pl0c-lang/pl0c/lexer"
	"github.com/pl0c-lang/pl0c/token"
)

// failingReader returns a fixed non-EOF error on its first Read, simulating
// an underlying I/O failure (e.g. a broken pipe) partway through scanning.
type failingReader struct{ err error }

func (f failingReader) Read([]byte) (int, error) { return 0, f.err }

func kinds(t *testing.T, src string) []token.Kind {
	t.Helper()
	l := lexer.New("test", strings.NewReader(src))
	var ks []token.Kind
	for {
		tok := l.Get()
		ks = append(ks, tok.Kind)
		if tok.Kind == token.EOF {
			return ks
		}
	}
}

func TestOperatorDisambiguation(t *testing.T) {
	cases := []struct {
		src  string
		want []token.Kind
	}{
		{"=", []token.Kind{token.Assign, token.EOF}},
		{"==", []token.Kind{token.Equal, token.EOF}},
		{"<", []token.Kind{token.Less, token.EOF}},
		{"<=", []token.Kind{token.LessEqual, token.EOF}},
		{"<<", []token.Kind{token.Shl, token.EOF}},
		{">", []token.Kind{token.Greater, token.EOF}},
		{">=", []token.Kind{token.GreaterEqual, token.EOF}},
		{">>", []token.Kind{token.Shr, token.EOF}},
		{"|", []token.Kind{token.BOr, token.EOF}},
		{"||", []token.Kind{token.LogOr, token.EOF}},
		{"&", []token.Kind{token.BAnd, token.EOF}},
		{"&&", []token.Kind{token.LogAnd, token.EOF}},
		{"!", []token.Kind{token.Not, token.EOF}},
		{"!=", []token.Kind{token.NotEqual, token.EOF}},
		{"~", []token.Kind{token.Comp, token.EOF}},
	}
	for _, c := range cases {
		assert.Equalf(t, c.want, kinds(t, c.src), "source %q", c.src)
	}
}

func TestKeywordVsIdentifier(t *testing.T) {
	assert.Equal(t, []token.Kind{token.While, token.Ident, token.EOF}, kinds(t, "while whilex"))
	assert.Equal(t, []token.Kind{token.Odd, token.EOF}, kinds(t, "odd"))
}

func TestLineComment(t *testing.T) {
	l := lexer.New("t", strings.NewReader("1 // two\n3"))
	tok := l.Get()
	require.Equal(t, token.Number, tok.Kind)
	require.Equal(t, int32(1), tok.Int)
	tok = l.Get()
	require.Equal(t, token.Number, tok.Kind)
	assert.Equal(t, int32(3), tok.Int)
	assert.Equal(t, 2, tok.Pos.Line)
}

func TestBlockCommentTracksNewlines(t *testing.T) {
	l := lexer.New("t", strings.NewReader("/* line1\nline2\nline3 */ 42"))
	tok := l.Get()
	require.Equal(t, token.Number, tok.Kind)
	assert.Equal(t, int32(42), tok.Int)
	assert.Equal(t, 3, tok.Pos.Line)
}

func TestUnterminatedBlockComment(t *testing.T) {
	l := lexer.New("t", strings.NewReader("/* never closes"))
	tok := l.Get()
	require.Equal(t, token.BadComment, tok.Kind)
	assert.Equal(t, int32(1), tok.Int)
}

func TestNumberOverflowSaturates(t *testing.T) {
	l := lexer.New("t", strings.NewReader("99999999999"))
	tok := l.Get()
	require.Equal(t, token.Number, tok.Kind)
	assert.Equal(t, int32(2147483647), tok.Int)
}

func TestUnknownCharacter(t *testing.T) {
	l := lexer.New("t", strings.NewReader("@"))
	tok := l.Get()
	require.Equal(t, token.Unknown, tok.Kind)
	assert.Equal(t, "@", tok.Str)
}

func TestEOFRepeats(t *testing.T) {
	l := lexer.New("t", strings.NewReader(""))
	assert.Equal(t, token.EOF, l.Get().Kind)
	assert.Equal(t, token.EOF, l.Get().Kind)
	assert.NoError(t, l.Err(), "a clean EOF must not be reported through Err")
}

func TestNonEOFReadFailureIsLatchedInErr(t *testing.T) {
	underlying := errors.New("broken pipe")
	l := lexer.New("t", failingReader{err: underlying})
	tok := l.Get()
	assert.Equal(t, token.EOF, tok.Kind, "Token has no room for an arbitrary error, so scan still reports EOF")
	require.Error(t, l.Err())
	assert.Contains(t, l.Err().Error(), "lexer: read error")
	assert.True(t, errors.Cause(l.Err()) == underlying || errors.Is(l.Err(), underlying))
}

func TestCurrentDoesNotConsume(t *testing.T) {
	l := lexer.New("t", strings.NewReader("1 2"))
	first := l.Get()
	require.Equal(t, first, l.Current())
	second := l.Get()
	assert.NotEqual(t, first, second)
}

func TestResetRestartsLineAndColumn(t *testing.T) {
	l := lexer.New("a", strings.NewReader("1\n2"))
	l.Get()
	l.Get()
	l.Reset("b", strings.NewReader("3"))
	tok := l.Get()
	assert.Equal(t, 1, tok.Pos.Line)
	assert.Equal(t, "b", tok.Pos.Filename)
}

func TestIdentifierGrammar(t *testing.T) {
	l := lexer.New("t", strings.NewReader("_foo9 Bar_Baz"))
	tok := l.Get()
	require.Equal(t, token.Ident, tok.Kind)
	assert.Equal(t, "_foo9", tok.Str)
	tok = l.Get()
	require.Equal(t, token.Ident, tok.Kind)
	assert.Equal(t, "Bar_Baz", tok.Str)
}
