// Package parser implements the hand-written, backtracking-capable parser
// of spec.md section 4.1: a PEG-flavored grammar with operator-precedence
// expression layering.
//
// Design Notes in spec.md section 9 explicitly permit reimplementing the
// PEG/yacc machinery of the teacher (grailbio-gql parses via goyacc, see
// gql/gql.go and the generated y.go) as hand-written recursive descent with
// explicit lookahead, "as long as the acceptance set is preserved exactly".
// This parser takes that option: it tokenizes eagerly into a slice so that
// the ambiguous productions (lambda-params-without-parens, postfix calls
// without parens, do-end trailing blocks) can save/restore an index instead
// of the teacher's two-temporary-vector PEG rollback trick.
package parser

import (
	"fmt"

	"github.com/dachsc/dachs/internal/ast"
	"github.com/dachsc/dachs/internal/diag"
	"github.com/dachsc/dachs/internal/lexer"
	"github.com/dachsc/dachs/internal/token"
)

// Parser holds the token stream and the AST arena being built.
type Parser struct {
	toks []lexer.Token
	i    int
	tree *ast.Tree
	path string

	sawString, sawArray, sawRange bool
}

// Parse tokenizes and parses src, returning the populated Tree and the
// compilation-unit node id on success. On failure it returns a single
// *diag.Diagnostic, per spec.md section 4.1's "Output" contract: no partial
// tree is ever returned on error.
func Parse(src []byte, path string) (tree *ast.Tree, unit ast.NodeID, err error) {
	toks, lexErr := tokenizeAll(src, path)
	if lexErr != nil {
		le := lexErr.(*lexer.Error)
		return nil, ast.InvalidNode, diag.New(diag.Parse, le.Pos.String(), "%s", le.Message)
	}

	p := &Parser{toks: toks, tree: ast.NewTree(), path: path}
	rerr := diag.Recover(func() {
		unit = p.parseCompilationUnit()
		p.tree.Root = unit
	})
	if rerr != nil {
		return nil, ast.InvalidNode, rerr
	}
	return p.tree, unit, nil
}

func tokenizeAll(src []byte, path string) ([]lexer.Token, error) {
	lx := lexer.New(src, path)
	var out []lexer.Token
	for {
		tok, err := lx.Next()
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
		if tok.Kind == lexer.EOF {
			return out, nil
		}
	}
}

// --- token-stream primitives ---

func (p *Parser) cur() lexer.Token  { return p.toks[p.i] }
func (p *Parser) peekAt(n int) lexer.Token {
	j := p.i + n
	if j >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[j]
}

func (p *Parser) advance() lexer.Token {
	t := p.toks[p.i]
	if p.i < len(p.toks)-1 {
		p.i++
	}
	return t
}

func (p *Parser) mark() int         { return p.i }
func (p *Parser) reset(m int)       { p.i = m }

func (p *Parser) atEOF() bool { return p.cur().Kind == lexer.EOF }

func (p *Parser) atKeyword(kw string) bool {
	return p.cur().Kind == lexer.Keyword && p.cur().Text == kw
}

func (p *Parser) atOp(op string) bool {
	return p.cur().Kind == lexer.Op && p.cur().Text == op
}

func (p *Parser) fail(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	diag.Panic(diag.New(diag.Parse, p.cur().Pos.String(), "%s", msg))
}

func (p *Parser) expectOp(op string) token.Position {
	if !p.atOp(op) {
		p.fail("%q, got %q", op, p.cur().Text)
	}
	return p.advance().Pos
}

func (p *Parser) expectKeyword(kw string) token.Position {
	if !p.atKeyword(kw) {
		p.fail("keyword %q, got %q", kw, p.cur().Text)
	}
	return p.advance().Pos
}

func (p *Parser) expectIdent() lexer.Token {
	if p.cur().Kind != lexer.Ident {
		p.fail("an identifier, got %q", p.cur().Text)
	}
	return p.advance()
}

// skipSeparators consumes a repeatable run of ';' or end-of-line separators
// (spec.md section 4.1 "Separators").
func (p *Parser) skipSeparators() {
	for p.cur().Kind == lexer.Newline || p.cur().Kind == lexer.Semi {
		p.advance()
	}
}

// skipOptionalTrailingComma consumes a single optional trailing comma,
// spec.md section 4.1: "Trailing comma is optional anywhere a list ...
// appears."
func (p *Parser) skipOptionalTrailingComma() {
	if p.atOp(",") {
		p.advance()
	}
}
