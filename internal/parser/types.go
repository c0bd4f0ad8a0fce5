package parser

import (
	"github.com/dachsc/dachs/internal/ast"
	"github.com/dachsc/dachs/internal/lexer"
	"github.com/dachsc/dachs/internal/token"
)

// parseType parses any_type (spec.md section 3.2 "Type variants"):
// primary (name + template params), tuple, function, array, dict, pointer,
// typeof, qualified (`?` suffix, parsed last so it composes with any of
// the above).
func (p *Parser) parseType() ast.NodeID {
	base := p.parseTypeBase()
	for p.atOp("?") {
		pos := p.advance().Pos
		n := p.tree.New(ast.TypeQualified, pos)
		p.tree.Attach(n, base)
		base = n
	}
	return base
}

func (p *Parser) parseTypeBase() ast.NodeID {
	switch {
	case p.atOp("("):
		return p.parseTupleOrFuncType()
	case p.atOp("["):
		return p.parseArrayType()
	case p.atKeyword("typeof"):
		return p.parseTypeOf()
	case p.atKeyword("pointer"):
		return p.parsePointerType()
	default:
		return p.parseNamedType()
	}
}

// parseNamedType parses `Name` or `Name(T1, T2, ...)` (a builtin, class, or
// `dict(K, V)` / `func(...)`-style named type whose name is a keyword like
// `func`, `static_array` or a plain identifier). `dict` is a named type
// taking exactly two template arguments.
func (p *Parser) parseNamedType() ast.NodeID {
	pos := p.cur().Pos
	name := p.typeNameToken()
	if name == "dict" {
		return p.parseDictTypeArgs(pos)
	}
	if name == "func" {
		return p.parseFuncTypeArgs(pos)
	}
	n := p.tree.New(ast.TypePrimary, pos)
	p.tree.Node(n).Ident = name
	if p.atOp("(") {
		p.advance()
		for !p.atOp(")") {
			arg := p.parseType()
			p.tree.Attach(n, arg)
			if p.atOp(",") {
				p.advance()
				continue
			}
			break
		}
		p.expectOp(")")
	}
	return n
}

func (p *Parser) typeNameToken() string {
	if p.cur().Kind == lexer.Ident {
		return p.advance().Text
	}
	// Keywords usable as type-head names: func, static_array.
	if p.atKeyword("func") || p.atKeyword("static_array") {
		return p.advance().Text
	}
	p.fail("a type name")
	return ""
}

func (p *Parser) parseDictTypeArgs(pos token.Position) ast.NodeID {
	n := p.tree.New(ast.TypeDict, pos)
	p.expectOp("(")
	key := p.parseType()
	p.expectOp(",")
	val := p.parseType()
	p.skipOptionalTrailingComma()
	p.expectOp(")")
	p.tree.Attach(n, key)
	p.tree.Attach(n, val)
	return n
}

func (p *Parser) parseFuncTypeArgs(pos token.Position) ast.NodeID {
	n := p.tree.New(ast.TypeFunc, pos)
	p.expectOp("(")
	var params []ast.NodeID
	for !p.atOp(")") {
		params = append(params, p.parseType())
		if p.atOp(",") {
			p.advance()
			continue
		}
		break
	}
	p.expectOp(")")
	p.tree.Node(n).IntVal = int64(len(params)) // split point between params and optional return type
	for _, prm := range params {
		p.tree.Attach(n, prm)
	}
	if p.atOp(":") {
		p.advance()
		ret := p.parseType()
		p.tree.Attach(n, ret)
	}
	return n
}

// parseTupleOrFuncType parses `(T)` (parenthesized single type, same node
// as T) or `(T1, T2, ...)` (a tuple type; at least one comma required,
// mirroring the expression-level tuple-vs-paren ambiguity rule 4).
func (p *Parser) parseTupleOrFuncType() ast.NodeID {
	pos := p.advance().Pos // '('
	first := p.parseType()
	if p.atOp(")") {
		p.advance()
		return first
	}
	n := p.tree.New(ast.TypeTuple, pos)
	p.tree.Attach(n, first)
	for p.atOp(",") {
		p.advance()
		if p.atOp(")") {
			break
		}
		p.tree.Attach(n, p.parseType())
	}
	p.expectOp(")")
	return n
}

// parseArrayType parses `[T]` (unsized) or `[T; N]` (fixed size), per
// spec.md section 3.2 "array (element + optional fixed size)".
func (p *Parser) parseArrayType() ast.NodeID {
	pos := p.advance().Pos // '['
	n := p.tree.New(ast.TypeArray, pos)
	elem := p.parseType()
	p.tree.Attach(n, elem)
	if p.cur().Kind == lexer.Semi {
		p.advance()
		size := p.parseExpr()
		p.tree.Attach(n, size)
	}
	p.expectOp("]")
	return n
}

func (p *Parser) parseTypeOf() ast.NodeID {
	pos := p.expectKeyword("typeof")
	p.expectOp("(")
	expr := p.parseExpr()
	p.expectOp(")")
	n := p.tree.New(ast.TypeOf, pos)
	p.tree.Attach(n, expr)
	return n
}

func (p *Parser) parsePointerType() ast.NodeID {
	pos := p.expectKeyword("pointer")
	p.expectOp("(")
	pointee := p.parseType()
	p.expectOp(")")
	n := p.tree.New(ast.TypePointer, pos)
	p.tree.Attach(n, pointee)
	return n
}
