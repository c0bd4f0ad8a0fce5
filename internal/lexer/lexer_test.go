package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dachsc/dachs/internal/lexer"
)

func scanAll(t *testing.T, src string) []lexer.Token {
	t.Helper()
	lx := lexer.New([]byte(src), "t.dcs")
	var out []lexer.Token
	for {
		tok, err := lx.Next()
		require.NoError(t, err)
		out = append(out, tok)
		if tok.Kind == lexer.EOF {
			return out
		}
	}
}

func TestIdentifiersAndKeywords(t *testing.T) {
	toks := scanAll(t, "func add end")
	require.Len(t, toks, 4)
	assert.Equal(t, lexer.Keyword, toks[0].Kind)
	assert.Equal(t, "func", toks[0].Text)
	assert.Equal(t, lexer.Ident, toks[1].Kind)
	assert.Equal(t, "add", toks[1].Text)
	assert.Equal(t, lexer.Keyword, toks[2].Kind)
}

func TestIdentifierSuffixes(t *testing.T) {
	toks := scanAll(t, "x? x'' x!")
	assert.Equal(t, "x?", toks[0].Text)
	assert.Equal(t, "x''", toks[1].Text)
	assert.Equal(t, "x!", toks[2].Text)
}

func TestIntegerLiterals(t *testing.T) {
	toks := scanAll(t, "10 0x1F 0b101 0o17 4u")
	assert.Equal(t, int64(10), toks[0].IntVal)
	assert.Equal(t, int64(31), toks[1].IntVal)
	assert.Equal(t, int64(5), toks[2].IntVal)
	assert.Equal(t, int64(15), toks[3].IntVal)
	assert.Equal(t, lexer.UintLit, toks[4].Kind)
	assert.Equal(t, uint64(4), toks[4].UintVal)
}

func TestFloatLiteralRequiresTrailingDigit(t *testing.T) {
	toks := scanAll(t, "1.5")
	require.Equal(t, lexer.FloatLit, toks[0].Kind)
	assert.Equal(t, 1.5, toks[0].FloatVal)

	// "1." with no following digit must NOT be consumed as a float.
	toks = scanAll(t, "1.add")
	assert.Equal(t, lexer.IntLit, toks[0].Kind)
	assert.Equal(t, lexer.Op, toks[1].Kind)
	assert.Equal(t, ".", toks[1].Text)
}

func TestStringEscapes(t *testing.T) {
	toks := scanAll(t, `"a\nb\"c"`)
	require.Equal(t, lexer.StringLit, toks[0].Kind)
	assert.Equal(t, "a\nb\"c", toks[0].StrVal)
}

func TestCharEscape(t *testing.T) {
	toks := scanAll(t, `'\t'`)
	require.Equal(t, lexer.CharLit, toks[0].Kind)
	assert.Equal(t, byte('\t'), toks[0].CharVal)
}

func TestSymbolLiteral(t *testing.T) {
	toks := scanAll(t, ":foo :+ :<=")
	require.Len(t, toks, 4)
	assert.Equal(t, lexer.SymbolLit, toks[0].Kind)
	assert.Equal(t, "foo", toks[0].StrVal)
	assert.Equal(t, "+", toks[1].StrVal)
	assert.Equal(t, "<=", toks[2].StrVal)
}

func TestRangeOperators(t *testing.T) {
	toks := scanAll(t, "0..3 0...3")
	assert.Equal(t, "..", toks[1].Text)
	assert.Equal(t, "...", toks[4].Text)
}

func TestPrecededBySpace(t *testing.T) {
	toks := scanAll(t, "f.name x, y")
	// f . name x , y
	var names []string
	for _, tk := range toks {
		names = append(names, tk.Text)
	}
	require.True(t, len(toks) >= 6)
	assert.True(t, toks[3].PrecededBySpace) // "x" preceded by space after "name"
}
