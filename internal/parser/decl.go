package parser

import (
	"github.com/dachsc/dachs/internal/ast"
	"github.com/dachsc/dachs/internal/lexer"
)

// parseCompilationUnit parses the whole source file: a sequence of imports,
// function/class/cast definitions and top-level const statements
// (spec.md section 4.6).
func (p *Parser) parseCompilationUnit() ast.NodeID {
	pos := p.cur().Pos
	unit := p.tree.New(ast.CompilationUnit, pos)
	p.skipSeparators()
	for !p.atEOF() {
		child := p.parseTopLevel()
		p.tree.Attach(unit, child)
		p.skipSeparators()
	}
	p.prependImplicitImports(unit)
	return unit
}

// prependImplicitImports implements spec.md section 4.1's implicit-import
// rule: a string literal, array literal, or range expression anywhere in
// the unit triggers a synthetic `import` node for that type, prepended to
// the compilation unit.
func (p *Parser) prependImplicitImports(unit ast.NodeID) {
	var synthetic []ast.NodeID
	add := func(name string) {
		pos := p.tree.Node(unit).Pos
		n := p.tree.New(ast.Import, pos)
		p.tree.Node(n).Ident = name
		p.tree.Node(n).Synthetic = true
		synthetic = append(synthetic, n)
	}
	if p.sawRange {
		add("range")
	}
	if p.sawArray {
		add("array")
	}
	if p.sawString {
		add("string")
	}
	if len(synthetic) == 0 {
		return
	}
	u := p.tree.Node(unit)
	u.Children = append(synthetic, u.Children...)
}

func (p *Parser) parseTopLevel() ast.NodeID {
	switch {
	case p.atKeyword("import"):
		return p.parseImport()
	case p.atKeyword("class"):
		return p.parseClassDef()
	case p.atKeyword("func"), p.atKeyword("proc"):
		return p.parseFuncDef(false)
	case p.atKeyword("cast"):
		return p.parseCastDef()
	default:
		return p.parseStatement()
	}
}

func (p *Parser) parseImport() ast.NodeID {
	pos := p.expectKeyword("import")
	name := p.expectIdent().Text
	for p.atOp(".") {
		p.advance()
		name += "." + p.expectIdent().Text
	}
	n := p.tree.New(ast.Import, pos)
	p.tree.Node(n).Ident = name
	return n
}

// parseFuncDef parses `func`/`proc` name '(' params ')' (':' type)? sep
// block 'end'. isMember marks a method defined inside a class body.
func (p *Parser) parseFuncDef(isMember bool) ast.NodeID {
	var pos = p.cur().Pos
	isProc := p.atKeyword("proc")
	if isProc {
		p.advance()
	} else {
		p.expectKeyword("func")
	}
	name := p.funcName()
	n := p.tree.New(ast.FuncDef, pos)
	node := p.tree.Node(n)
	node.Ident = name
	node.IsProc = isProc
	node.IsMember = isMember

	params := p.parseParamList()
	for _, prm := range params {
		p.tree.Attach(n, prm)
	}

	var retType ast.NodeID = ast.InvalidNode
	if p.atOp(":") {
		p.advance()
		retType = p.parseType()
	}
	// A proc declaring a return type is a semantic error, not a syntax
	// error (internal/sema/forward.go's bindFunc reports it as a batched
	// diagnostic); the parser attaches whatever return type it saw and
	// moves on.
	node.Children = append(node.Children, retType) // children[len(params)] == return type slot
	retIdx := len(params)
	_ = retIdx

	p.skipSeparators()
	body := p.parseBlockUntil("end")
	p.expectKeyword("end")
	node.Children = append(node.Children, body)
	// layout: Children = [param...] [returnType] [body]
	return n
}

// funcName accepts a plain identifier or "init"/"copy" as special member
// names (constructor/copier, spec.md section 1).
func (p *Parser) funcName() string {
	if p.cur().Kind == lexer.Keyword && (p.cur().Text == "init" || p.cur().Text == "copy") {
		return p.advance().Text
	}
	return p.expectIdent().Text
}

func (p *Parser) parseCastDef() ast.NodeID {
	pos := p.expectKeyword("cast")
	n := p.tree.New(ast.FuncDef, pos)
	node := p.tree.Node(n)
	node.Ident = "cast"

	params := p.parseParamList()
	for _, prm := range params {
		p.tree.Attach(n, prm)
	}
	p.expectOp(":")
	retType := p.parseType()
	node.Children = append(node.Children, retType)

	p.skipSeparators()
	body := p.parseBlockUntil("end")
	p.expectKeyword("end")
	node.Children = append(node.Children, body)
	return n
}

// parseParamList parses '(' (param (',' param)* ','?)? ')'. An empty
// parameter list ("()") is legal; a func with no parens at all is also
// legal (zero parameters).
func (p *Parser) parseParamList() []ast.NodeID {
	if !p.atOp("(") {
		return nil
	}
	p.advance()
	var out []ast.NodeID
	for !p.atOp(")") {
		out = append(out, p.parseParam())
		if p.atOp(",") {
			p.advance()
			continue
		}
		break
	}
	p.expectOp(")")
	return out
}

// parseParam parses `var? name (: type)?`. `_` is accepted and later
// uniquified by the forward analyzer (spec.md section 4.2); `@name` is
// rejected here per spec.md section 4.1 ("forbidden as parameter names").
func (p *Parser) parseParam() ast.NodeID {
	pos := p.cur().Pos
	isVar := false
	if p.atKeyword("var") {
		p.advance()
		isVar = true
	}
	nameTok := p.expectIdent()
	if len(nameTok.Text) > 0 && nameTok.Text[0] == '@' {
		p.fail("a parameter name without a leading '@'")
	}
	n := p.tree.New(ast.Param, pos)
	node := p.tree.Node(n)
	node.Ident = nameTok.Text
	node.IsVar = isVar
	if p.atOp(":") {
		p.advance()
		typ := p.parseType()
		p.tree.Attach(n, typ)
	}
	return n
}

// parseClassDef parses `class Name (params?) sep (instance-var|method)* end`.
func (p *Parser) parseClassDef() ast.NodeID {
	pos := p.expectKeyword("class")
	name := p.expectIdent().Text
	n := p.tree.New(ast.ClassDef, pos)
	p.tree.Node(n).Ident = name

	params := p.parseParamList()
	for _, prm := range params {
		p.tree.Attach(n, prm)
	}
	p.skipSeparators()
	for !p.atKeyword("end") {
		var member ast.NodeID
		switch {
		case p.atKeyword("func"), p.atKeyword("proc"), p.atKeyword("init"), p.atKeyword("copy"):
			member = p.parseFuncDef(true)
		default:
			member = p.parseInstanceVarDecl()
		}
		p.tree.Attach(n, member)
		p.skipSeparators()
	}
	p.expectKeyword("end")
	return n
}

// parseInstanceVarDecl parses `@name : type`, an instance variable
// declaration (spec.md section 3.4: "offsets match declaration order").
func (p *Parser) parseInstanceVarDecl() ast.NodeID {
	pos := p.cur().Pos
	nameTok := p.expectIdent()
	n := p.tree.New(ast.InstanceVarDecl, pos)
	p.tree.Node(n).Ident = nameTok.Text
	p.expectOp(":")
	typ := p.parseType()
	p.tree.Attach(n, typ)
	return n
}
