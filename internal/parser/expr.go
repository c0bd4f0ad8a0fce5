package parser

import (
	"github.com/dachsc/dachs/internal/ast"
	"github.com/dachsc/dachs/internal/lexer"
	"github.com/dachsc/dachs/internal/token"
)

// parseExpr is the entry point into the precedence chain of spec.md
// section 4.1: range ( || ( && ( | ( ^ ( & ( ==/!= ( relational ( shift
// ( +- ( */% ( as ( unary ( postfix ( primary ) ) ) ) ) ) ) ) ) ) ) ) ).
// Ranges sit at the lowest binary tier, looser than `||`.
func (p *Parser) parseExpr() ast.NodeID {
	return p.parseRange()
}

func (p *Parser) parseRange() ast.NodeID {
	left := p.parseLogicalOr()
	if p.atOp("..") || p.atOp("...") {
		inclusive := p.atOp("...")
		pos := p.advance().Pos
		right := p.parseLogicalOr()
		p.sawRange = true
		n := p.tree.New(ast.Invocation, pos)
		callee := p.tree.New(ast.VarRef, pos)
		if inclusive {
			p.tree.Node(callee).Ident = "__range_inclusive"
		} else {
			p.tree.Node(callee).Ident = "__range_exclusive"
		}
		p.tree.Attach(n, callee)
		p.tree.Attach(n, left)
		p.tree.Attach(n, right)
		return n
	}
	return left
}

func (p *Parser) binaryLevel(next func() ast.NodeID, ops ...string) ast.NodeID {
	left := next()
	for {
		matched := ""
		for _, op := range ops {
			if p.atOp(op) {
				matched = op
				break
			}
		}
		if matched == "" {
			return left
		}
		pos := p.advance().Pos
		right := next()
		n := p.tree.New(ast.Binary, pos)
		p.tree.Node(n).Ident = matched
		p.tree.Attach(n, left)
		p.tree.Attach(n, right)
		left = n
	}
}

func (p *Parser) parseLogicalOr() ast.NodeID  { return p.binaryLevel(p.parseLogicalAnd, "||") }
func (p *Parser) parseLogicalAnd() ast.NodeID { return p.binaryLevel(p.parseBitOr, "&&") }
func (p *Parser) parseBitOr() ast.NodeID      { return p.binaryLevel(p.parseBitXor, "|") }
func (p *Parser) parseBitXor() ast.NodeID     { return p.binaryLevel(p.parseBitAnd, "^") }
func (p *Parser) parseBitAnd() ast.NodeID     { return p.binaryLevel(p.parseEquality, "&") }
func (p *Parser) parseEquality() ast.NodeID   { return p.binaryLevel(p.parseRelational, "==", "!=") }
func (p *Parser) parseRelational() ast.NodeID {
	return p.binaryLevel(p.parseShift, "<=", ">=", "<", ">")
}
func (p *Parser) parseShift() ast.NodeID { return p.binaryLevel(p.parseAdditive, "<<", ">>") }
func (p *Parser) parseAdditive() ast.NodeID { return p.binaryLevel(p.parseMultiplicative, "+", "-") }
func (p *Parser) parseMultiplicative() ast.NodeID {
	return p.binaryLevel(p.parseAs, "*", "/", "%")
}

// parseAs implements the `as` cast operator, precedence between
// multiplicative and unary.
func (p *Parser) parseAs() ast.NodeID {
	left := p.parseUnary()
	for p.atKeyword("as") {
		pos := p.advance().Pos
		typ := p.parseType()
		n := p.tree.New(ast.Cast, pos)
		p.tree.Attach(n, left)
		p.tree.Attach(n, typ)
		left = n
	}
	return left
}

func (p *Parser) parseUnary() ast.NodeID {
	if p.cur().Kind == lexer.Op && (p.cur().Text == "+" || p.cur().Text == "-" || p.cur().Text == "~" || p.cur().Text == "!") {
		pos := p.advance().Pos
		op := p.toks[p.i-1].Text
		operand := p.parseUnary()
		n := p.tree.New(ast.Unary, pos)
		p.tree.Node(n).Ident = op
		p.tree.Attach(n, operand)
		return n
	}
	return p.parsePostfix()
}

// parsePostfix parses the postfix chain of spec.md glossary: a sequence of
// `.name`, `.name(args)`, `[index]`, `(args)` and a trailing do-end/{}
// block, applied to a primary expression.
func (p *Parser) parsePostfix() ast.NodeID {
	expr := p.parsePrimary()
	for {
		switch {
		case p.atOp(".") && p.peekAt(1).Kind == lexer.Op && p.peekAt(1).Text == "(":
			expr = p.parseDotCall(expr)
		case p.atOp("."):
			expr = p.parseMemberOrUFCS(expr)
		case p.atOp("(") && !p.cur().PrecededBySpace:
			expr = p.parseCallArgs(expr, expr)
		case p.atOp("["):
			expr = p.parseIndex(expr)
		default:
			if blk, ok := p.tryParseTrailingBlock(); ok {
				expr = p.attachTrailingBlock(expr, blk)
				continue
			}
			return expr
		}
	}
}

// parseMemberOrUFCS parses `.name`, `.name(args)`, or (ambiguity rule 1)
// `.name arg1, arg2` when "name" is immediately followed by a space and the
// next token is not `as` and does not start with unary +/-.
func (p *Parser) parseMemberOrUFCS(recv ast.NodeID) ast.NodeID {
	dotPos := p.advance().Pos
	nameTok := p.expectIdent()
	n := p.tree.New(ast.UFCSInvocation, dotPos)
	p.tree.Node(n).Ident = nameTok.Text
	p.tree.Attach(n, recv)

	switch {
	case p.atOp("(") && !p.cur().PrecededBySpace:
		p.advance()
		for !p.atOp(")") {
			p.tree.Attach(n, p.parseExpr())
			if p.atOp(",") {
				p.advance()
				continue
			}
			break
		}
		p.expectOp(")")
	case p.canStartNoParenArgs():
		for {
			p.tree.Attach(n, p.parseExpr())
			if p.atOp(",") {
				p.advance()
				continue
			}
			break
		}
	}
	return n
}

// canStartNoParenArgs implements spec.md section 4.1 ambiguity rule 1: a
// postfix name immediately preceded by a space may start an argument list
// without parens, but unary +/- may not begin the first argument (that
// would be ambiguous with `expr.name + 1` meaning "invocation result plus
// one" versus "call with argument +1").
func (p *Parser) canStartNoParenArgs() bool {
	if !p.cur().PrecededBySpace {
		return false
	}
	if p.atKeyword("as") {
		return false
	}
	if p.cur().Kind == lexer.Op && (p.cur().Text == "+" || p.cur().Text == "-") {
		return false
	}
	return p.startsExpression()
}

func (p *Parser) startsExpression() bool {
	switch p.cur().Kind {
	case lexer.Ident, lexer.IntLit, lexer.UintLit, lexer.FloatLit, lexer.CharLit, lexer.StringLit, lexer.SymbolLit:
		return true
	case lexer.Keyword:
		switch p.cur().Text {
		case "true", "false", "new", "typeof", "if", "unless", "case":
			return true
		}
		return false
	case lexer.Op:
		switch p.cur().Text {
		case "(", "[", "{", "!", "~":
			return true
		}
		return false
	}
	return false
}

func (p *Parser) parseCallArgs(recv, calleeSameAsRecv ast.NodeID) ast.NodeID {
	pos := p.cur().Pos
	p.advance() // '('
	n := p.tree.New(ast.Invocation, pos)
	p.tree.Attach(n, recv)
	for !p.atOp(")") {
		p.tree.Attach(n, p.parseExpr())
		if p.atOp(",") {
			p.advance()
			continue
		}
		break
	}
	p.expectOp(")")
	return n
}

// parseDotCall parses `recv.(args)`, the direct-invocation form used to
// call a value of function type (spec.md section 8 example 3: `f.(41)`),
// as distinct from `recv.name(args)` which names a member or UFCS callee.
func (p *Parser) parseDotCall(recv ast.NodeID) ast.NodeID {
	dotPos := p.advance().Pos // '.'
	n := p.tree.New(ast.Invocation, dotPos)
	p.tree.Attach(n, recv)
	p.advance() // '('
	for !p.atOp(")") {
		p.tree.Attach(n, p.parseExpr())
		if p.atOp(",") {
			p.advance()
			continue
		}
		break
	}
	p.expectOp(")")
	return n
}

func (p *Parser) parseIndex(recv ast.NodeID) ast.NodeID {
	pos := p.advance().Pos // '['
	idx := p.parseExpr()
	p.expectOp("]")
	n := p.tree.New(ast.IndexAccess, pos)
	p.tree.Attach(n, recv)
	p.tree.Attach(n, idx)
	return n
}

// tryParseTrailingBlock recognizes a trailing `{ |params| body }` or `do
// |params| ... end` attached to the immediately preceding invocation
// (spec.md section 4.1 ambiguity rule 2). It does not consume anything on
// a non-match.
func (p *Parser) tryParseTrailingBlock() (ast.NodeID, bool) {
	switch {
	case p.atOp("{"):
		return p.parseOneLineBlockLambda(), true
	case p.atKeyword("do"):
		return p.parseDoEndBlockLambda(), true
	default:
		return ast.InvalidNode, false
	}
}

func (p *Parser) parseOneLineBlockLambda() ast.NodeID {
	pos := p.advance().Pos // '{'
	n := p.tree.New(ast.Lambda, pos)
	params := p.parseOptionalPipeParams()
	for _, prm := range params {
		p.tree.Attach(n, prm)
	}
	body := p.tree.New(ast.BlockExpr, pos)
	for !p.atOp("}") {
		stmt := p.parseStatement()
		p.tree.Attach(body, stmt)
		p.skipSeparators()
	}
	p.expectOp("}")
	p.tree.Attach(n, body)
	return n
}

func (p *Parser) parseDoEndBlockLambda() ast.NodeID {
	pos := p.expectKeyword("do")
	n := p.tree.New(ast.Lambda, pos)
	params := p.parseOptionalPipeParams()
	for _, prm := range params {
		p.tree.Attach(n, prm)
	}
	body := p.parseBlockUntil("end")
	p.expectKeyword("end")
	p.tree.Attach(n, body)
	return n
}

func (p *Parser) parseOptionalPipeParams() []ast.NodeID {
	if !p.atOp("|") {
		return nil
	}
	p.advance()
	var params []ast.NodeID
	for !p.atOp("|") {
		params = append(params, p.parseParam())
		if p.atOp(",") {
			p.advance()
			continue
		}
		break
	}
	p.expectOp("|")
	return params
}

// attachTrailingBlock appends a trailing-block lambda as the last argument
// of the preceding call/UFCS-invocation/object-construction, or, if expr is
// not itself a call, synthesizes a zero-arg invocation of expr with the
// block as its only argument.
func (p *Parser) attachTrailingBlock(expr, block ast.NodeID) ast.NodeID {
	n := p.tree.Node(expr)
	switch n.Kind {
	case ast.Invocation, ast.UFCSInvocation, ast.ObjectConstr:
		n.Children = append(n.Children, block)
		n.HasTrailing = true
		return expr
	default:
		inv := p.tree.New(ast.Invocation, n.Pos)
		p.tree.Attach(inv, expr)
		p.tree.Attach(inv, block)
		p.tree.Node(inv).HasTrailing = true
		return inv
	}
}

// parseLambda parses `-> params in body` (e.g. `-> x in x + 1`), with the
// parameter-list rollback of spec.md section 4.1 ambiguity rule 3: once
// `->` is seen, a bare comma-separated identifier list is parsed
// speculatively, and if `in` is not found afterward the parameter list is
// rolled back to empty before giving up on the whole form.
func (p *Parser) parseLambda() (ast.NodeID, bool) {
	if !p.atOp("->") {
		return ast.InvalidNode, false
	}
	start := p.mark()
	pos := p.advance().Pos // '->'

	paramsStart := p.mark()
	var params []ast.NodeID
	for p.cur().Kind == lexer.Ident {
		tok := p.advance()
		prm := p.tree.New(ast.Param, tok.Pos)
		p.tree.Node(prm).Ident = tok.Text
		params = append(params, prm)
		if p.atOp(",") {
			p.advance()
			continue
		}
		break
	}
	if !p.atKeyword("in") {
		// Rollback: the identifiers we tentatively consumed as parameters
		// were not followed by `in`, so this is not a lambda after all.
		p.reset(paramsStart)
		params = nil
		if !p.atKeyword("in") {
			p.reset(start)
			return ast.InvalidNode, false
		}
	}
	p.advance() // 'in'
	n := p.tree.New(ast.Lambda, pos)
	for _, prm := range params {
		p.tree.Attach(n, prm)
	}
	bodyExpr := p.parseExpr()
	body := p.tree.New(ast.BlockExpr, p.tree.Node(bodyExpr).Pos)
	p.tree.Node(body).Synthetic = true
	// A `->` lambda has no statements, just the tail expression; its body
	// is a single-child BlockExpr whose child is a synthetic Return of
	// that expression.
	retPos := p.tree.Node(bodyExpr).Pos
	ret := p.tree.New(ast.Return, retPos)
	p.tree.Node(ret).Synthetic = true
	p.tree.Attach(ret, bodyExpr)
	p.tree.Attach(body, ret)
	p.tree.Attach(n, body)
	return n, true
}

func (p *Parser) parsePrimary() ast.NodeID {
	if n, ok := p.parseLambda(); ok {
		return n
	}

	tok := p.cur()
	switch {
	case tok.Kind == lexer.IntLit:
		p.advance()
		n := p.tree.New(ast.IntLit, tok.Pos)
		p.tree.Node(n).IntVal = tok.IntVal
		return n
	case tok.Kind == lexer.UintLit:
		p.advance()
		n := p.tree.New(ast.UintLit, tok.Pos)
		p.tree.Node(n).UintVal = tok.UintVal
		return n
	case tok.Kind == lexer.FloatLit:
		p.advance()
		n := p.tree.New(ast.FloatLit, tok.Pos)
		p.tree.Node(n).FloatVal = tok.FloatVal
		return n
	case tok.Kind == lexer.CharLit:
		p.advance()
		n := p.tree.New(ast.CharLit, tok.Pos)
		p.tree.Node(n).CharVal = tok.CharVal
		return n
	case tok.Kind == lexer.StringLit:
		p.advance()
		p.sawString = true
		n := p.tree.New(ast.StringLit, tok.Pos)
		p.tree.Node(n).StrVal = tok.StrVal
		return n
	case tok.Kind == lexer.SymbolLit:
		p.advance()
		n := p.tree.New(ast.SymbolLit, tok.Pos)
		p.tree.Node(n).StrVal = tok.StrVal
		return n
	case tok.Kind == lexer.Keyword && tok.Text == "true":
		p.advance()
		n := p.tree.New(ast.BoolLit, tok.Pos)
		p.tree.Node(n).BoolVal = true
		return n
	case tok.Kind == lexer.Keyword && tok.Text == "false":
		p.advance()
		return p.tree.New(ast.BoolLit, tok.Pos)
	case tok.Kind == lexer.Keyword && tok.Text == "new":
		return p.parseObjectConstruction()
	case tok.Kind == lexer.Keyword && tok.Text == "typeof":
		return p.parseTypeOfExpr()
	case tok.Kind == lexer.Keyword && (tok.Text == "if" || tok.Text == "unless"):
		return p.parseIfExpr()
	case tok.Kind == lexer.Keyword && tok.Text == "case":
		return p.parseSwitchExpr()
	case tok.Kind == lexer.Ident:
		p.advance()
		n := p.tree.New(ast.VarRef, tok.Pos)
		p.tree.Node(n).Ident = tok.Text
		return n
	case tok.Kind == lexer.Op && tok.Text == "(":
		return p.parseParenOrTuple()
	case tok.Kind == lexer.Op && tok.Text == "[":
		return p.parseArrayLit()
	case tok.Kind == lexer.Op && tok.Text == "{":
		return p.parseDictLit()
	default:
		p.fail("an expression, got %q", tok.Text)
		return ast.InvalidNode
	}
}

// parseParenOrTuple implements spec.md section 4.1 ambiguity rule 4:
// `(e)` is just `e`; `(e, e, ...)` with at least one comma is a tuple
// literal.
func (p *Parser) parseParenOrTuple() ast.NodeID {
	pos := p.advance().Pos // '('
	first := p.parseExpr()
	if p.atOp(")") {
		p.advance()
		return first
	}
	n := p.tree.New(ast.TupleLit, pos)
	p.tree.Attach(n, first)
	for p.atOp(",") {
		p.advance()
		if p.atOp(")") {
			break
		}
		p.tree.Attach(n, p.parseExpr())
	}
	p.expectOp(")")
	return n
}

func (p *Parser) parseArrayLit() ast.NodeID {
	pos := p.advance().Pos // '['
	p.sawArray = true
	n := p.tree.New(ast.ArrayLit, pos)
	for !p.atOp("]") {
		p.tree.Attach(n, p.parseExpr())
		if p.atOp(",") {
			p.advance()
			continue
		}
		break
	}
	p.expectOp("]")
	return n
}

func (p *Parser) parseDictLit() ast.NodeID {
	pos := p.advance().Pos // '{'
	n := p.tree.New(ast.DictLit, pos)
	for !p.atOp("}") {
		epos := p.cur().Pos
		key := p.parseExpr()
		p.expectOp(":")
		val := p.parseExpr()
		entry := p.tree.New(ast.DictLitEntry, epos)
		p.tree.Attach(entry, key)
		p.tree.Attach(entry, val)
		p.tree.Attach(n, entry)
		if p.atOp(",") {
			p.advance()
			continue
		}
		break
	}
	p.expectOp("}")
	return n
}

// parseIfExpr parses the expression form of if/unless: `if cond then expr
// (elseif cond then expr)* else expr end`. Unlike the statement form, every
// branch is a single tail expression (wrapped in a BlockExpr so the
// semantic analyzer can treat both statement- and expression-if uniformly)
// and the else branch is mandatory, since an if-expression must always
// yield a value.
func (p *Parser) parseIfExpr() ast.NodeID {
	pos := p.cur().Pos
	negate := p.atKeyword("unless")
	p.advance() // if/unless
	n := p.tree.New(ast.IfExpr, pos)
	p.tree.Node(n).BoolVal = negate

	cond := p.parseExpr()
	p.tree.Attach(n, cond)
	if p.atKeyword("then") {
		p.advance()
	}
	then := p.parseExprBlock("end", "else", "elseif")
	p.tree.Attach(n, then)

	for p.atKeyword("elseif") {
		epos := p.advance().Pos
		ei := p.tree.New(ast.IfExpr, epos)
		econd := p.parseExpr()
		p.tree.Attach(ei, econd)
		if p.atKeyword("then") {
			p.advance()
		}
		ebody := p.parseExprBlock("end", "else", "elseif")
		p.tree.Attach(ei, ebody)
		p.tree.Attach(n, ei)
	}
	p.expectKeyword("else")
	elseBody := p.parseExprBlock("end")
	p.tree.Attach(n, elseBody)
	p.expectKeyword("end")
	return n
}

// parseExprBlock parses a sequence of statements followed by a tail
// expression, stopping at one of stopKeywords, and wraps the whole thing
// in a BlockExpr whose last child is the value-producing expression.
func (p *Parser) parseExprBlock(stopKeywords ...string) ast.NodeID {
	pos := p.cur().Pos
	n := p.tree.New(ast.BlockExpr, pos)
	p.skipSeparators()
	for {
		mk := p.mark()
		expr := p.parseExpr()
		p.skipSeparators()
		if p.atEOF() || p.atAnyKeyword(stopKeywords...) {
			p.tree.Attach(n, expr)
			return n
		}
		// Not yet at the block's end: this was a statement, not the tail
		// expression. Re-parse it as a full statement so assignments and
		// declarations (which parseExpr alone cannot produce) are handled.
		p.reset(mk)
		stmt := p.parseStatement()
		p.tree.Attach(n, stmt)
		p.skipSeparators()
	}
}

// parseSwitchExpr parses the expression form of `case`: every `when`
// clause and the mandatory `else` clause contribute a single tail
// expression.
func (p *Parser) parseSwitchExpr() ast.NodeID {
	pos := p.expectKeyword("case")
	n := p.tree.New(ast.SwitchExpr, pos)
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
		body := p.parseExprBlock("end", "when", "else")
		p.tree.Attach(w, body)
		p.tree.Attach(n, w)
	}
	p.expectKeyword("else")
	elseBody := p.parseExprBlock("end")
	p.tree.Attach(n, elseBody)
	p.expectKeyword("end")
	return n
}

func (p *Parser) parseTypeOfExpr() ast.NodeID {
	typ := p.parseTypeOf() // reuse type-level production; node kind TypeOf
	// typeof(...) used in expression position carries the same node; the
	// semantic analyzer treats a TypeOf node found in expression position
	// as the `__type` string of its inner expression's type.
	return typ
}

// parseObjectConstruction parses `new Type (args)? block?`, including the
// spec.md section 4.1 ambiguity rule 5 rewrite: `new [T]{n}` becomes an
// `array` ObjectConstr with a `static_array(T)` type child and `{n}`
// attached to that outer node as its trailing size block (see
// parseArrayShorthandConstruction). No inner static_array construction
// node is built; `n` is not wrapped in a nested `new static_array(T){n}`.
func (p *Parser) parseObjectConstruction() ast.NodeID {
	pos := p.expectKeyword("new")

	if p.atOp("[") {
		return p.parseArrayShorthandConstruction(pos)
	}

	typ := p.parseType()
	return p.finishObjectConstruction(pos, typ)
}

func (p *Parser) finishObjectConstruction(pos token.Position, typ ast.NodeID) ast.NodeID {
	n := p.tree.New(ast.ObjectConstr, pos)
	p.tree.Attach(n, typ)
	if p.atOp("(") {
		p.advance()
		for !p.atOp(")") {
			p.tree.Attach(n, p.parseExpr())
			if p.atOp(",") {
				p.advance()
				continue
			}
			break
		}
		p.expectOp(")")
	}
	if blk, ok := p.tryParseTrailingBlock(); ok {
		p.tree.Node(n).Children = append(p.tree.Node(n).Children, blk)
		p.tree.Node(n).HasTrailing = true
	}
	return n
}

// parseArrayShorthandConstruction implements spec.md section 4.1
// ambiguity rule 5: `new [T]{n}` is rewritten at parse time into `new
// array(static_array(T)){n}` — an ObjectConstr of the builtin `array`
// class whose sole constructor argument is a `static_array(T)` type
// expression, with `{n}` still attached as the trailing block/size arg.
func (p *Parser) parseArrayShorthandConstruction(pos token.Position) ast.NodeID {
	p.expectOp("[")
	elem := p.parseType()
	p.expectOp("]")

	staticArr := p.tree.New(ast.TypePrimary, pos)
	p.tree.Node(staticArr).Ident = "static_array"
	p.tree.Node(staticArr).Synthetic = true
	p.tree.Attach(staticArr, elem)

	arrayType := p.tree.New(ast.TypePrimary, pos)
	p.tree.Node(arrayType).Ident = "array"
	p.tree.Node(arrayType).Synthetic = true

	n := p.tree.New(ast.ObjectConstr, pos)
	p.tree.Node(n).Synthetic = true
	p.tree.Attach(n, arrayType)
	p.tree.Attach(n, staticArr)

	if p.atOp("{") {
		bpos := p.advance().Pos
		size := p.parseExpr()
		p.expectOp("}")
		sizeNode := p.tree.New(ast.BlockExpr, bpos)
		p.tree.Node(sizeNode).Synthetic = true
		p.tree.Attach(sizeNode, size)
		p.tree.Attach(n, sizeNode)
		p.tree.Node(n).HasTrailing = true
	}
	return n
}
