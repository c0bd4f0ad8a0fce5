// Package lexer turns Dachs source text into a token stream per spec.md
// section 4.1's lexical rules, in the manual scanning style of the
// teacher's gql/lex.go (itself wrapping text/scanner), adapted to this
// language's own literal and operator grammar instead of delegating to
// text/scanner. Scanning is byte by byte; no UTF-8 decoding is done.
package lexer

import "github.com/dachsc/dachs/internal/token"

// Kind identifies a lexical token class.
type Kind int

const (
	EOF Kind = iota
	Ident
	Keyword
	IntLit
	UintLit
	FloatLit
	CharLit
	StringLit
	SymbolLit
	Op       // any operator or punctuation, disambiguated by Text
	Newline  // statement separator
	Semi     // explicit `;` separator
)

// Token is one lexical token plus its literal payload and source position.
type Token struct {
	Kind     Kind
	Text     string // identifier text, keyword text, operator spelling
	IntVal   int64
	UintVal  uint64
	Unsigned bool
	FloatVal float64
	CharVal  byte
	StrVal   string // decoded string/char contents
	Pos      token.Position

	// PrecededBySpace records whether whitespace separated this token from
	// the previous one, without crossing a line. It resolves ambiguity
	// rule 1 of spec.md section 4.1: "expr.name x, y" reads "x, y" as
	// arguments only when "expr.name" is immediately followed by a space.
	PrecededBySpace bool
}

// Keywords reserved at a lexical boundary (spec.md section 6). A keyword
// must not be immediately followed by an identifier character.
var Keywords = map[string]bool{
	"if": true, "unless": true, "case": true, "when": true, "then": true,
	"else": true, "elseif": true, "end": true, "for": true, "in": true,
	"do": true, "begin": true, "ensure": true, "ret": true, "var": true,
	"func": true, "proc": true, "init": true, "copy": true, "cast": true,
	"class": true, "import": true, "let": true, "new": true, "as": true,
	"typeof": true, "static_array": true, "pointer": true,
	"true": true, "false": true,
}
