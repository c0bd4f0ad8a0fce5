package parser

import (
	"github.com/dachsc/dachs/internal/ast"
	"github.com/dachsc/dachs/internal/lexer"
)

// parseBlockUntil parses statements until the current token is the given
// keyword (without consuming it), wrapping them in a StmtBlock node. Used
// for both function/class bodies ("end") and control-flow bodies
// ("end"/"else"/"elseif"/"when").
func (p *Parser) parseBlockUntil(stopKeywords ...string) ast.NodeID {
	pos := p.cur().Pos
	n := p.tree.New(ast.StmtBlock, pos)
	p.skipSeparators()
	for !p.atEOF() && !p.atAnyKeyword(stopKeywords...) {
		stmt := p.parseStatement()
		p.tree.Attach(n, stmt)
		p.skipSeparators()
	}
	return n
}

func (p *Parser) atAnyKeyword(kws ...string) bool {
	for _, kw := range kws {
		if p.atKeyword(kw) {
			return true
		}
	}
	return false
}

// parseStatement parses one statement, then applies the postfix-if
// rewrite (spec.md section 3.2 "postfix-if": `stmt if cond`).
func (p *Parser) parseStatement() ast.NodeID {
	stmt := p.parseStatementCore()
	for p.atKeyword("if") || p.atKeyword("unless") {
		negate := p.atKeyword("unless")
		pos := p.advance().Pos
		cond := p.parseExpr()
		pf := p.tree.New(ast.PostfixIf, pos)
		p.tree.Node(pf).BoolVal = negate
		p.tree.Attach(pf, stmt)
		p.tree.Attach(pf, cond)
		stmt = pf
	}
	return stmt
}

func (p *Parser) parseStatementCore() ast.NodeID {
	switch {
	case p.atKeyword("if"), p.atKeyword("unless"):
		return p.parseIfStatement()
	case p.atKeyword("case"):
		return p.parseSwitchStatement()
	case p.atKeyword("ret"):
		return p.parseReturn()
	case p.atKeyword("for"):
		return p.parseFor()
	case p.atKeyword("while"):
		return p.parseWhile()
	case p.atKeyword("begin"):
		return p.parseBeginEnd()
	case p.atKeyword("let"):
		return p.parseLet()
	case p.atKeyword("var"):
		return p.parseVarDeclStatement()
	case p.atKeyword("import"):
		return p.parseImport()
	case p.atKeyword("class"):
		return p.parseClassDef()
	case p.atKeyword("func"), p.atKeyword("proc"):
		return p.parseFuncDef(false)
	default:
		return p.parseSimpleStatement()
	}
}

// parseSimpleStatement disambiguates `name := expr [, name := expr]*`
// (Initialize), `lhs = expr` (Assign), and a bare expression statement by
// attempting the assignment forms and backtracking.
func (p *Parser) parseSimpleStatement() ast.NodeID {
	start := p.mark()
	if n, ok := p.tryParseInitialize(); ok {
		return n
	}
	p.reset(start)

	lhs := p.parseExpr()
	if p.atOp("=") {
		pos := p.advance().Pos
		rhs := p.parseExpr()
		n := p.tree.New(ast.Assign, pos)
		p.tree.Attach(n, lhs)
		p.tree.Attach(n, rhs)
		return n
	}
	return lhs
}

// tryParseInitialize attempts `name (',' name)* ':=' expr (',' expr)*`.
func (p *Parser) tryParseInitialize() (ast.NodeID, bool) {
	if p.cur().Kind != lexer.Ident {
		return ast.InvalidNode, false
	}
	pos := p.cur().Pos
	var names []ast.NodeID
	for {
		if p.cur().Kind != lexer.Ident {
			return ast.InvalidNode, false
		}
		tok := p.advance()
		d := p.tree.New(ast.VarDecl, tok.Pos)
		p.tree.Node(d).Ident = tok.Text
		p.tree.Node(d).IsVar = true
		names = append(names, d)
		if p.atOp(",") {
			p.advance()
			continue
		}
		break
	}
	if !p.atOp(":=") {
		return ast.InvalidNode, false
	}
	p.advance()
	var rhs []ast.NodeID
	for {
		rhs = append(rhs, p.parseExpr())
		if p.atOp(",") {
			p.advance()
			continue
		}
		break
	}
	n := p.tree.New(ast.Initialize, pos)
	node := p.tree.Node(n)
	node.IntVal = int64(len(names)) // split point between decls and rhs
	for _, d := range names {
		p.tree.Attach(n, d)
	}
	for _, e := range rhs {
		p.tree.Attach(n, e)
	}
	return n, true
}

// parseVarDeclStatement parses `var name (: type)? (= expr)?`.
func (p *Parser) parseVarDeclStatement() ast.NodeID {
	pos := p.expectKeyword("var")
	nameTok := p.expectIdent()
	n := p.tree.New(ast.VarDecl, pos)
	node := p.tree.Node(n)
	node.Ident = nameTok.Text
	node.IsVar = true
	if p.atOp(":") {
		p.advance()
		p.tree.Attach(n, p.parseType())
	} else {
		p.tree.Attach(n, ast.InvalidNode)
	}
	if p.atOp("=") {
		p.advance()
		init := p.parseExpr()
		ini := p.tree.New(ast.Initialize, pos)
		p.tree.Node(ini).IntVal = 1
		p.tree.Attach(ini, n)
		p.tree.Attach(ini, init)
		return ini
	}
	return n
}

func (p *Parser) parseIfStatement() ast.NodeID {
	pos := p.cur().Pos
	negate := p.atKeyword("unless")
	p.advance() // if/unless
	n := p.tree.New(ast.If, pos)
	p.tree.Node(n).BoolVal = negate

	cond := p.parseExpr()
	p.tree.Attach(n, cond)
	p.skipSeparators()
	then := p.parseBlockUntil("end", "else", "elseif")
	p.tree.Attach(n, then)

	for p.atKeyword("elseif") {
		epos := p.advance().Pos
		ei := p.tree.New(ast.If, epos)
		econd := p.parseExpr()
		p.tree.Attach(ei, econd)
		p.skipSeparators()
		ebody := p.parseBlockUntil("end", "else", "elseif")
		p.tree.Attach(ei, ebody)
		p.tree.Attach(n, ei)
	}
	if p.atKeyword("else") {
		p.advance()
		p.skipSeparators()
		elseBody := p.parseBlockUntil("end")
		p.tree.Attach(n, elseBody)
	}
	p.expectKeyword("end")
	return n
}

// parseSwitchStatement parses `case scrutinee (when cond+ then? body)* (else body)? end`.
func (p *Parser) parseSwitchStatement() ast.NodeID {
	pos := p.expectKeyword("case")
	n := p.tree.New(ast.Switch, pos)
	scrutinee := p.parseExpr()
	p.tree.Attach(n, scrutinee)
	p.skipSeparators()
	for p.atKeyword("when") {
		wpos := p.advance().Pos
		w := p.tree.New(ast.WhenClause, wpos)
		p.tree.Attach(w, p.parseExpr())
		for p.atOp(",") {
			p.advance()
			p.tree.Attach(w, p.parseExpr())
		}
		if p.atKeyword("then") {
			p.advance()
		}
		p.skipSeparators()
		body := p.parseBlockUntil("end", "when", "else")
		p.tree.Attach(w, body)
		p.tree.Attach(n, w)
	}
	if p.atKeyword("else") {
		p.advance()
		p.skipSeparators()
		elseBody := p.parseBlockUntil("end")
		p.tree.Attach(n, elseBody)
	}
	p.expectKeyword("end")
	return n
}

func (p *Parser) parseReturn() ast.NodeID {
	pos := p.expectKeyword("ret")
	n := p.tree.New(ast.Return, pos)
	if !p.atEndOfStatement() {
		p.tree.Attach(n, p.parseExpr())
	}
	if p.tree.Node(n).EmptyPos() && len(p.tree.Node(n).Children) > 0 {
		// spec.md section 4.2: a zero-location return inherits its first
		// expression's location.
		p.tree.CopyPos(n, p.tree.Node(n).Children[0])
	}
	return n
}

func (p *Parser) atEndOfStatement() bool {
	return p.cur().Kind == lexer.Newline || p.cur().Kind == lexer.Semi ||
		p.atEOF() || p.atAnyKeyword("end", "else", "elseif", "when", "if", "unless")
}

func (p *Parser) parseFor() ast.NodeID {
	pos := p.expectKeyword("for")
	n := p.tree.New(ast.For, pos)
	varTok := p.expectIdent()
	iterVar := p.tree.New(ast.VarDecl, varTok.Pos)
	p.tree.Node(iterVar).Ident = varTok.Text
	p.tree.Attach(n, iterVar)
	p.expectKeyword("in")
	iterable := p.parseExpr()
	p.tree.Attach(n, iterable)
	p.skipSeparators()
	body := p.parseBlockUntil("end")
	p.tree.Attach(n, body)
	p.expectKeyword("end")
	return n
}

func (p *Parser) parseWhile() ast.NodeID {
	pos := p.expectKeyword("while")
	n := p.tree.New(ast.While, pos)
	cond := p.parseExpr()
	p.tree.Attach(n, cond)
	p.skipSeparators()
	body := p.parseBlockUntil("end")
	p.tree.Attach(n, body)
	p.expectKeyword("end")
	return n
}

// parseBeginEnd parses `begin stmts (ensure stmts)? end`, a standalone
// scoped block (spec.md section 3.2 statement "begin-end").
func (p *Parser) parseBeginEnd() ast.NodeID {
	pos := p.expectKeyword("begin")
	n := p.tree.New(ast.BeginEnd, pos)
	body := p.parseBlockUntil("end", "ensure")
	p.tree.Attach(n, body)
	if p.atKeyword("ensure") {
		p.advance()
		ensure := p.parseBlockUntil("end")
		p.tree.Attach(n, ensure)
	}
	p.expectKeyword("end")
	return n
}

// parseLet parses the statement form `let decls sep stmts end`; there is
// no `let ... in expr` form, and `end` is always required. It always
// introduces a fresh local scope (spec.md section 4.2: "let creates a
// local scope").
func (p *Parser) parseLet() ast.NodeID {
	pos := p.expectKeyword("let")
	n := p.tree.New(ast.BeginEnd, pos)
	p.tree.Node(n).Synthetic = true
	for {
		decl := p.parseSimpleStatement()
		p.tree.Attach(n, decl)
		if p.atOp(",") {
			p.advance()
			continue
		}
		break
	}
	p.skipSeparators()
	body := p.parseBlockUntil("end")
	p.tree.Attach(n, body)
	p.expectKeyword("end")
	return n
}
