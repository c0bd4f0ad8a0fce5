package irgen

import (
	"github.com/pkg/errors"

	"github.com/dachsc/dachs/internal/ast"
	"github.com/dachsc/dachs/internal/ir"
	"github.com/dachsc/dachs/internal/scope"
)

// genIfStmt lowers an `if`/`unless` statement: Children = [cond,
// then(StmtBlock), elseif(If)*, else(StmtBlock)?] (internal/parser's
// parseIfStatement). Each arm's block joins at a common exit block, unless
// every arm returns, in which case no join block is left live.
func (fg *funcGen) genIfStmt(local scope.ID, id ast.NodeID) error {
	exit := fg.fn.NewBlock("if.exit")
	if err := fg.genIfArm(local, id, exit); err != nil {
		return err
	}
	reached := false
	for _, b := range fg.fn.Blocks {
		for _, instr := range b.Instrs {
			for _, t := range instr.Targets {
				reached = reached || t == exit
			}
		}
	}
	if !reached {
		for i, b := range fg.fn.Blocks {
			if b == exit {
				fg.fn.Blocks = append(fg.fn.Blocks[:i], fg.fn.Blocks[i+1:]...)
				break
			}
		}
		return nil
	}
	fg.cur = exit
	return nil
}

// genIfArm emits one if/elseif/else level starting at fg.cur, branching
// into a then-block and (if present) a next condition/else block, each
// arm jumping to exit when it doesn't itself terminate.
func (fg *funcGen) genIfArm(local scope.ID, id ast.NodeID, exit *ir.Block) error {
	n := fg.node(id)
	cond, err := fg.genExpr(local, n.Children[0])
	if err != nil {
		return err
	}
	if n.BoolVal {
		cond = fg.cur.NewNot(cond)
	}

	thenNode := n.Children[1]
	thenBlock := fg.fn.NewBlock("if.then")

	rest := n.Children[2:]
	var elseifNode ast.NodeID = ast.InvalidNode
	var elseNode ast.NodeID = ast.InvalidNode
	for _, c := range rest {
		if fg.node(c).Kind == ast.If {
			elseifNode = c
		} else {
			elseNode = c
		}
	}

	if elseifNode != ast.InvalidNode {
		elseifBlock := fg.fn.NewBlock("if.elseif")
		fg.cur.NewCondBr(cond, thenBlock, elseifBlock)

		fg.cur = thenBlock
		if err := fg.genBlock(scope.ID(fg.node(thenNode).ScopeID), thenNode); err != nil {
			return err
		}
		if !fg.cur.Terminated() {
			fg.cur.NewBr(exit)
		}

		fg.cur = elseifBlock
		return fg.genIfArm(local, elseifNode, exit)
	}

	if elseNode != ast.InvalidNode {
		elseBlock := fg.fn.NewBlock("if.else")
		fg.cur.NewCondBr(cond, thenBlock, elseBlock)

		fg.cur = thenBlock
		if err := fg.genBlock(scope.ID(fg.node(thenNode).ScopeID), thenNode); err != nil {
			return err
		}
		if !fg.cur.Terminated() {
			fg.cur.NewBr(exit)
		}

		fg.cur = elseBlock
		if err := fg.genBlock(scope.ID(fg.node(elseNode).ScopeID), elseNode); err != nil {
			return err
		}
		if !fg.cur.Terminated() {
			fg.cur.NewBr(exit)
		}
		return nil
	}

	// No else/elseif: falling through the condition skips straight to exit.
	fg.cur.NewCondBr(cond, thenBlock, exit)
	fg.cur = thenBlock
	if err := fg.genBlock(scope.ID(fg.node(thenNode).ScopeID), thenNode); err != nil {
		return err
	}
	if !fg.cur.Terminated() {
		fg.cur.NewBr(exit)
	}
	return nil
}

// genSwitchStmt lowers `case scrutinee (when cond+ body)* (else body)? end`
// to a chain of equality branches (spec.md section 4.5: "no jump table is
// required").
func (fg *funcGen) genSwitchStmt(local scope.ID, id ast.NodeID) error {
	n := fg.node(id)
	scrutinee, err := fg.genExpr(local, n.Children[0])
	if err != nil {
		return err
	}
	exit := fg.fn.NewBlock("switch.exit")

	var elseNode ast.NodeID = ast.InvalidNode
	whens := make([]ast.NodeID, 0, len(n.Children)-1)
	for _, c := range n.Children[1:] {
		if fg.node(c).Kind == ast.WhenClause {
			whens = append(whens, c)
		} else {
			elseNode = c
		}
	}

	for _, w := range whens {
		wn := fg.node(w)
		conds := wn.Children[:len(wn.Children)-1]
		body := wn.Children[len(wn.Children)-1]

		matchBlock := fg.fn.NewBlock("switch.when")
		nextBlock := fg.fn.NewBlock("switch.next")

		for i, c := range conds {
			cv, err := fg.genExpr(local, c)
			if err != nil {
				return err
			}
			eq := fg.cur.NewBinOp("==", ir.I1Type, scrutinee, cv)
			if i == len(conds)-1 {
				fg.cur.NewCondBr(eq, matchBlock, nextBlock)
			} else {
				tryNext := fg.fn.NewBlock("switch.or")
				fg.cur.NewCondBr(eq, matchBlock, tryNext)
				fg.cur = tryNext
			}
		}

		fg.cur = matchBlock
		if err := fg.genBlock(scope.ID(fg.node(body).ScopeID), body); err != nil {
			return err
		}
		if !fg.cur.Terminated() {
			fg.cur.NewBr(exit)
		}
		fg.cur = nextBlock
	}

	if elseNode != ast.InvalidNode {
		if err := fg.genBlock(scope.ID(fg.node(elseNode).ScopeID), elseNode); err != nil {
			return err
		}
	}
	if !fg.cur.Terminated() {
		fg.cur.NewBr(exit)
	}
	fg.cur = exit
	return nil
}

// genSwitchExpr is genSwitchStmt's value-producing sibling: each `when`
// arm's tail expression and the mandatory `else` arm's tail expression join
// at a common block through a phi typed with the switch-expression's
// resolved type (spec.md section 4.5, the same "if/switch expressions ...
// joined by a phi" contract genIfExpr implements for `if`).
func (fg *funcGen) genSwitchExpr(local scope.ID, id ast.NodeID) (ir.Value, error) {
	n := fg.node(id)
	resultTy, err := fg.types.Emit(n.Type)
	if err != nil {
		return ir.Value{}, err
	}
	scrutinee, err := fg.genExpr(local, n.Children[0])
	if err != nil {
		return ir.Value{}, err
	}
	merge := fg.fn.NewBlock("switchexpr.merge")

	var incoming []ir.PhiEdge
	var elseNode ast.NodeID = ast.InvalidNode

	for _, c := range n.Children[1:] {
		cn := fg.node(c)
		if cn.Kind != ast.WhenClause {
			elseNode = c
			continue
		}
		conds := cn.Children[:len(cn.Children)-1]
		body := cn.Children[len(cn.Children)-1]

		matchBlock := fg.fn.NewBlock("switchexpr.when")
		nextBlock := fg.fn.NewBlock("switchexpr.next")

		for i, cond := range conds {
			cv, err := fg.genExpr(local, cond)
			if err != nil {
				return ir.Value{}, err
			}
			eq := fg.cur.NewBinOp("==", ir.I1Type, scrutinee, cv)
			if i == len(conds)-1 {
				fg.cur.NewCondBr(eq, matchBlock, nextBlock)
			} else {
				tryNext := fg.fn.NewBlock("switchexpr.or")
				fg.cur.NewCondBr(eq, matchBlock, tryNext)
				fg.cur = tryNext
			}
		}

		fg.cur = matchBlock
		v, err := fg.genBlockExpr(local, body)
		if err != nil {
			return ir.Value{}, err
		}
		incoming = append(incoming, ir.PhiEdge{Value: v, Block: fg.cur})
		fg.cur.NewBr(merge)

		fg.cur = nextBlock
	}

	if elseNode == ast.InvalidNode {
		return ir.Value{}, errors.New("internal compilation error: switch-expression missing an else branch")
	}
	ev, err := fg.genBlockExpr(local, elseNode)
	if err != nil {
		return ir.Value{}, err
	}
	incoming = append(incoming, ir.PhiEdge{Value: ev, Block: fg.cur})
	fg.cur.NewBr(merge)

	fg.cur = merge
	return merge.NewPhi(resultTy, incoming), nil
}

func (fg *funcGen) genWhile(local scope.ID, id ast.NodeID) error {
	n := fg.node(id)
	header := fg.fn.NewBlock("while.header")
	body := fg.fn.NewBlock("while.body")
	exit := fg.fn.NewBlock("while.exit")

	fg.cur.NewBr(header)
	fg.cur = header
	cond, err := fg.genExpr(local, n.Children[0])
	if err != nil {
		return err
	}
	fg.cur.NewCondBr(cond, body, exit)

	fg.cur = body
	bodyNode := n.Children[1]
	if err := fg.genBlock(scope.ID(fg.node(bodyNode).ScopeID), bodyNode); err != nil {
		return err
	}
	if !fg.cur.Terminated() {
		fg.cur.NewBr(header)
	}
	fg.cur = exit
	return nil
}

// genFor lowers `for x in range body end`. spec.md section 4.5: "header/
// body/exit blocks with induction variable updated by the range step (1
// for `..`/`...`, the latter is inclusive)". Only the `..`/`...` range
// sugar (internal/parser's __range_inclusive/__range_exclusive desugaring)
// is a legal iterable here; genRangeBounds reports an error for any other
// iterable shape.
func (fg *funcGen) genFor(local scope.ID, id ast.NodeID) error {
	n := fg.node(id)
	iterVarNode := fg.node(n.Children[0])
	begin, end, inclusive, err := fg.genRangeBounds(local, n.Children[1])
	if err != nil {
		return err
	}

	indVarSlot := fg.cur.NewAlloca(begin.Type, iterVarNode.Ident+".addr")
	fg.cur.NewStore(begin, indVarSlot)

	bodyNode := n.Children[2]
	bodyScope := scope.ID(fg.node(bodyNode).ScopeID)
	iterSym := fg.symbolForDecl(bodyScope, n.Children[0])
	if iterSym != nil {
		fg.locals[iterSym] = indVarSlot
	}

	header := fg.fn.NewBlock("for.header")
	body := fg.fn.NewBlock("for.body")
	exit := fg.fn.NewBlock("for.exit")

	fg.cur.NewBr(header)
	fg.cur = header
	cur := fg.cur.NewLoad(indVarSlot)
	cmpOp := "<"
	if inclusive {
		cmpOp = "<="
	}
	cond := fg.cur.NewBinOp(cmpOp, ir.I1Type, cur, end)
	fg.cur.NewCondBr(cond, body, exit)

	fg.cur = body
	if err := fg.genBlock(bodyScope, bodyNode); err != nil {
		return err
	}
	if !fg.cur.Terminated() {
		loopVal := fg.cur.NewLoad(indVarSlot)
		next := fg.cur.NewBinOp("+", begin.Type, loopVal, ir.ConstInt(begin.Type, 1))
		fg.cur.NewStore(next, indVarSlot)
		fg.cur.NewBr(header)
	}
	fg.cur = exit
	return nil
}

// genRangeBounds extracts the begin/end values and inclusivity out of the
// `..`/`...` desugared Invocation (internal/sema.typeInvocation's
// __range_inclusive/__range_exclusive special case).
func (fg *funcGen) genRangeBounds(local scope.ID, id ast.NodeID) (begin, end ir.Value, inclusive bool, err error) {
	n := fg.node(id)
	if n.Kind != ast.Invocation || len(n.Children) != 3 {
		return ir.Value{}, ir.Value{}, false, errors.New("internal compilation error: `for` iterable is not a range expression")
	}
	callee := fg.node(n.Children[0])
	switch callee.Ident {
	case "__range_inclusive":
		inclusive = true
	case "__range_exclusive":
		inclusive = false
	default:
		return ir.Value{}, ir.Value{}, false, errors.New("internal compilation error: `for` iterable is not a range expression")
	}
	begin, err = fg.genExpr(local, n.Children[1])
	if err != nil {
		return
	}
	end, err = fg.genExpr(local, n.Children[2])
	return
}

func (fg *funcGen) genIndexAddr(local scope.ID, id ast.NodeID) (ir.Value, error) {
	n := fg.node(id)
	base, err := fg.genExpr(local, n.Children[0])
	if err != nil {
		return ir.Value{}, err
	}
	idx, err := fg.genExpr(local, n.Children[1])
	if err != nil {
		return ir.Value{}, err
	}
	return fg.cur.NewGEP(base, ir.NewPointer(base.Type.Elem()), idx), nil
}
