package irgen

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/dachsc/dachs/internal/ast"
	"github.com/dachsc/dachs/internal/ir"
	"github.com/dachsc/dachs/internal/scope"
)

func (fg *funcGen) genExpr(local scope.ID, id ast.NodeID) (ir.Value, error) {
	n := fg.node(id)
	switch n.Kind {
	case ast.IntLit:
		return ir.ConstInt(ir.I64Type, n.IntVal), nil
	case ast.UintLit:
		return ir.ConstInt(ir.I64Type, int64(n.UintVal)), nil
	case ast.SymbolLit:
		return ir.ConstInt(ir.I64Type, n.IntVal), nil
	case ast.CharLit:
		return ir.ConstInt(ir.I8Type, int64(n.CharVal)), nil
	case ast.BoolLit:
		v := int64(0)
		if n.BoolVal {
			v = 1
		}
		return ir.ConstInt(ir.I1Type, v), nil
	case ast.FloatLit:
		// No floating-point IR constant form exists at this layer
		// (internal/ir models every constant as ConstInt); a backend
		// binding would add one. Left as an unresolved Open Question in
		// DESIGN.md rather than silently truncating to an integer.
		return ir.Value{}, errors.New("floating point literal constants are not yet representable in internal/ir")
	case ast.StringLit:
		return fg.genStringLit(n), nil
	case ast.VarRef:
		return fg.genVarRef(local, n)
	case ast.Lambda:
		return fg.genLambda(local, n)
	case ast.Binary:
		return fg.genBinary(local, n)
	case ast.Unary:
		return fg.genUnary(local, n)
	case ast.IndexAccess:
		addr, err := fg.genIndexAddr(local, id)
		if err != nil {
			return ir.Value{}, err
		}
		return fg.cur.NewLoad(addr), nil
	case ast.Cast:
		return fg.genCast(local, n)
	case ast.Invocation:
		return fg.genInvocation(local, n)
	case ast.UFCSInvocation:
		return fg.genUFCS(local, n)
	case ast.ArrayLit:
		return fg.genArrayLit(local, n)
	case ast.TupleLit:
		return fg.genTupleLit(local, n)
	case ast.ObjectConstr:
		return fg.genObjectConstr(local, n)
	case ast.BlockExpr:
		return fg.genBlockExpr(local, id)
	case ast.IfExpr:
		return fg.genIfExpr(local, id)
	case ast.SwitchExpr:
		return fg.genSwitchExpr(local, id)
	case ast.TypedExpr:
		return fg.genExpr(local, n.Children[0])
	case ast.TypeOf:
		// typeof(x) in expression position resolves to the printed type
		// string (internal/sema.typeExpr's TypeOf case); emit that string
		// as a literal rather than re-deriving it.
		s := ""
		if len(n.Children) > 0 {
			s = fg.node(n.Children[0]).Type.String()
		}
		return fg.genStringLitBytes(s), nil
	default:
		return ir.Value{}, errors.Errorf("internal compilation error: unsupported expression kind %v at %s", n.Kind, n.Pos)
	}
}

func (fg *funcGen) genStringLit(n *ast.Node) ir.Value {
	return fg.genStringLitBytes(n.StrVal)
}

func (fg *funcGen) genStringLitBytes(s string) ir.Value {
	name := fmt.Sprintf("str.%d", len(fg.module.Globals))
	return fg.module.NewGlobalString(name, s)
}

func (fg *funcGen) genVarRef(local scope.ID, n *ast.Node) (ir.Value, error) {
	sym, ownerScope, ok := fg.scp.ResolveOwner(local, n.Ident)
	if !ok {
		return ir.Value{}, errors.Errorf("internal compilation error: unresolved variable %q at %s", n.Ident, n.Pos)
	}
	if fg.scp.Scope(ownerScope).Kind == scope.Class {
		addr, err := fg.instanceVarAddr(ownerScope, sym)
		if err != nil {
			return ir.Value{}, errors.Wrapf(err, "variable %q at %s", n.Ident, n.Pos)
		}
		return fg.cur.NewLoad(addr), nil
	}
	v, err := fg.genLoadSymbol(sym)
	if err != nil {
		return ir.Value{}, errors.Wrapf(err, "variable %q at %s", n.Ident, n.Pos)
	}
	return v, nil
}

// genLoadSymbol loads sym's current value, whether it lives in a module
// global slot or a function-local alloca (including a lambda's captured
// parameter slot, set up by Emitter.emitFunc's capture prologue).
func (fg *funcGen) genLoadSymbol(sym *scope.VarSymbol) (ir.Value, error) {
	if sym.IsGlobal {
		slot, err := fg.e.ensureGlobalSlot(sym)
		if err != nil {
			return ir.Value{}, err
		}
		return fg.cur.NewLoad(slot), nil
	}
	slot, ok := fg.locals[sym]
	if !ok {
		return ir.Value{}, errors.Errorf("internal compilation error: %q has no recorded slot", sym.Name)
	}
	return fg.cur.NewLoad(slot), nil
}

// genLambda materializes a closure value: a malloc'd capture struct
// populated in capture insertion order (spec.md section 4.5). The callee
// this closure eventually invokes is identified statically through its
// GenericFunction type's FuncID, not through a function pointer stored in
// the struct itself — this language has no dynamic dispatch through a
// closure, only static resolution of which generated function a call site
// targets (internal/irgen/call.go's genInvocation).
func (fg *funcGen) genLambda(local scope.ID, n *ast.Node) (ir.Value, error) {
	fnID := scope.ID(n.ScopeID)
	fs := fg.scp.Scope(fnID)

	ptr, err := fg.alloc.malloc(n.Type)
	if err != nil {
		return ir.Value{}, err
	}
	if len(fs.Captures) == 0 {
		return ptr, nil
	}
	structTy, err := fg.types.EmitAlloc(n.Type)
	if err != nil {
		return ir.Value{}, err
	}
	for i, c := range fs.Captures {
		v, err := fg.genLoadSymbol(c.Sym)
		if err != nil {
			return ir.Value{}, errors.Wrapf(err, "capturing %q", c.Name)
		}
		fieldTy := structTy.Fields()[i]
		addr := fg.cur.NewGEP(ptr, ir.NewPointer(fieldTy), ir.ConstInt(ir.I64Type, int64(i)))
		fg.cur.NewStore(v, addr)
	}
	return ptr, nil
}

func (fg *funcGen) genBinary(local scope.ID, n *ast.Node) (ir.Value, error) {
	lhs, err := fg.genExpr(local, n.Children[0])
	if err != nil {
		return ir.Value{}, err
	}
	rhs, err := fg.genExpr(local, n.Children[1])
	if err != nil {
		return ir.Value{}, err
	}
	resultTy, err := fg.types.Emit(n.Type)
	if err != nil {
		return ir.Value{}, err
	}
	return fg.cur.NewBinOp(n.Ident, resultTy, lhs, rhs), nil
}

func (fg *funcGen) genUnary(local scope.ID, n *ast.Node) (ir.Value, error) {
	v, err := fg.genExpr(local, n.Children[0])
	if err != nil {
		return ir.Value{}, err
	}
	switch n.Ident {
	case "!", "not":
		return fg.cur.NewNot(v), nil
	case "-":
		return fg.cur.NewBinOp("-", v.Type, ir.ConstInt(v.Type, 0), v), nil
	default:
		return v, nil
	}
}

func (fg *funcGen) genCast(local scope.ID, n *ast.Node) (ir.Value, error) {
	v, err := fg.genExpr(local, n.Children[0])
	if err != nil {
		return ir.Value{}, err
	}
	toTy, err := fg.types.Emit(n.Type)
	if err != nil {
		return ir.Value{}, err
	}
	if ir.Equal(v.Type, toTy) {
		return v, nil
	}
	return fg.cur.NewBitCast(v, toTy), nil
}

// genArrayLit allocates a fixed-size array (spec.md section 4.5: "Tuple and
// fixed-array literals allocate, then store each element at its
// GEP-addressed field") and stores each element value in order.
func (fg *funcGen) genArrayLit(local scope.ID, n *ast.Node) (ir.Value, error) {
	elemT := n.Type.Elem()
	ptr, err := fg.alloc.mallocConst(elemT, int64(len(n.Children)))
	if err != nil {
		return ir.Value{}, err
	}
	for i, c := range n.Children {
		v, err := fg.genExpr(local, c)
		if err != nil {
			return ir.Value{}, err
		}
		addr := fg.cur.NewGEP(ptr, ptr.Type, ir.ConstInt(ir.I64Type, int64(i)))
		fg.cur.NewStore(v, addr)
	}
	return ptr, nil
}

// genTupleLit allocates a heterogeneous struct and stores each element at
// its field index.
func (fg *funcGen) genTupleLit(local scope.ID, n *ast.Node) (ir.Value, error) {
	structTy, err := fg.types.EmitAlloc(n.Type)
	if err != nil {
		return ir.Value{}, err
	}
	ptr, err := fg.alloc.mallocConst(n.Type, 1)
	if err != nil {
		return ir.Value{}, err
	}
	for i, c := range n.Children {
		v, err := fg.genExpr(local, c)
		if err != nil {
			return ir.Value{}, err
		}
		fieldTy := structTy.Fields()[i]
		addr := fg.cur.NewGEP(ptr, ir.NewPointer(fieldTy), ir.ConstInt(ir.I64Type, int64(i)))
		fg.cur.NewStore(v, addr)
	}
	return ptr, nil
}

func (fg *funcGen) genBlockExpr(local scope.ID, id ast.NodeID) (ir.Value, error) {
	n := fg.node(id)
	if len(n.Children) == 0 {
		return ir.Value{}, nil
	}
	for _, stmt := range n.Children[:len(n.Children)-1] {
		if err := fg.genStmt(local, stmt); err != nil {
			return ir.Value{}, err
		}
	}
	return fg.genExpr(local, n.Children[len(n.Children)-1])
}

// genIfExpr lowers an if-expression, joining each arm's tail value with a
// phi typed per spec.md section 4.5 ("if/switch expressions emit basic
// blocks per arm joined by a phi typed with the expression's resolved
// type").
func (fg *funcGen) genIfExpr(local scope.ID, id ast.NodeID) (ir.Value, error) {
	n := fg.node(id)
	resultTy, err := fg.types.Emit(n.Type)
	if err != nil {
		return ir.Value{}, err
	}
	merge := fg.fn.NewBlock("ifexpr.merge")
	incoming, err := fg.genIfExprArm(local, id, merge, resultTy)
	if err != nil {
		return ir.Value{}, err
	}
	fg.cur = merge
	return merge.NewPhi(resultTy, incoming), nil
}

func (fg *funcGen) genIfExprArm(local scope.ID, id ast.NodeID, merge *ir.Block, resultTy ir.Type) ([]ir.PhiEdge, error) {
	n := fg.node(id)
	cond, err := fg.genExpr(local, n.Children[0])
	if err != nil {
		return nil, err
	}
	if n.BoolVal {
		cond = fg.cur.NewNot(cond)
	}

	thenNode := n.Children[1]
	thenBlock := fg.fn.NewBlock("ifexpr.then")

	rest := n.Children[2:]
	var elseifNode ast.NodeID = ast.InvalidNode
	var elseNode ast.NodeID = ast.InvalidNode
	for _, c := range rest {
		if fg.node(c).Kind == ast.IfExpr {
			elseifNode = c
		} else {
			elseNode = c
		}
	}

	var incoming []ir.PhiEdge

	if elseifNode != ast.InvalidNode {
		elseifBlock := fg.fn.NewBlock("ifexpr.elseif")
		fg.cur.NewCondBr(cond, thenBlock, elseifBlock)

		fg.cur = thenBlock
		v, err := fg.genBlockExpr(local, thenNode)
		if err != nil {
			return nil, err
		}
		incoming = append(incoming, ir.PhiEdge{Value: v, Block: fg.cur})
		fg.cur.NewBr(merge)

		fg.cur = elseifBlock
		rest, err := fg.genIfExprArm(local, elseifNode, merge, resultTy)
		if err != nil {
			return nil, err
		}
		return append(incoming, rest...), nil
	}

	elseBlock := fg.fn.NewBlock("ifexpr.else")
	fg.cur.NewCondBr(cond, thenBlock, elseBlock)

	fg.cur = thenBlock
	tv, err := fg.genBlockExpr(local, thenNode)
	if err != nil {
		return nil, err
	}
	incoming = append(incoming, ir.PhiEdge{Value: tv, Block: fg.cur})
	fg.cur.NewBr(merge)

	fg.cur = elseBlock
	if elseNode == ast.InvalidNode {
		return nil, errors.New("internal compilation error: if-expression missing an else branch")
	}
	ev, err := fg.genBlockExpr(local, elseNode)
	if err != nil {
		return nil, err
	}
	incoming = append(incoming, ir.PhiEdge{Value: ev, Block: fg.cur})
	fg.cur.NewBr(merge)

	return incoming, nil
}
