package irgen

import (
	"github.com/pkg/errors"

	"github.com/dachsc/dachs/internal/ast"
	"github.com/dachsc/dachs/internal/ir"
	"github.com/dachsc/dachs/internal/irtypes"
	"github.com/dachsc/dachs/internal/scope"
)

// funcGen emits the IR for exactly one function body (or the synthesized
// global-initializer pseudo-function). It mirrors internal/sema.Semantic's
// walk shape, reading the ScopeID/Type/SymbolID annotations that pass
// stamped rather than re-deriving them.
type funcGen struct {
	e      *Emitter
	tree   *ast.Tree
	scp    *scope.Tree
	types  *irtypes.Emitter
	module *ir.Module

	fn   *ir.Function
	fnID scope.ID
	cur  *ir.Block
	alloc *allocationEmitter

	locals  map[*scope.VarSymbol]ir.Value // VarSymbol -> alloca'd slot pointer
	self    ir.Value                      // the receiver pointer, set only for member functions
	hasSelf bool
}

// instanceVarAddr computes the address of sym, an instance variable owned
// by the class scope clsID, through fg.self (spec.md section 3.3's
// `@name` instance-variable access; InstanceVars' declaration order is
// the struct's field order, the same convention genObjectConstr's malloc
// and genLambda's capture struct already rely on).
func (fg *funcGen) instanceVarAddr(clsID scope.ID, sym *scope.VarSymbol) (ir.Value, error) {
	if !fg.hasSelf {
		return ir.Value{}, errors.Errorf("internal compilation error: %q referenced outside a member function", sym.Name)
	}
	cs := fg.scp.Scope(clsID)
	idx := -1
	for i, iv := range cs.InstanceVars {
		if iv == sym {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ir.Value{}, errors.Errorf("internal compilation error: %q is not a member of %s", sym.Name, cs.ClassName)
	}
	fieldTy := fg.self.Type.Elem().Fields()[idx]
	return fg.cur.NewGEP(fg.self, ir.NewPointer(fieldTy), ir.ConstInt(ir.I64Type, int64(idx))), nil
}

func (fg *funcGen) node(id ast.NodeID) *ast.Node { return fg.tree.Node(id) }

func (fg *funcGen) genBlock(local scope.ID, id ast.NodeID) error {
	n := fg.node(id)
	for _, stmt := range n.Children {
		if fg.cur.Terminated() {
			// Unreachable code after a return/branch in every live path;
			// nothing left to emit for this block.
			break
		}
		if err := fg.genStmt(local, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (fg *funcGen) genStmt(local scope.ID, id ast.NodeID) error {
	n := fg.node(id)
	switch n.Kind {
	case ast.VarDecl:
		return fg.genVarDeclSlot(local, id)
	case ast.Initialize:
		return fg.genLocalInitialize(local, id)
	case ast.Assign:
		return fg.genAssign(local, id)
	case ast.StmtBlock:
		return fg.genBlock(scope.ID(n.ScopeID), id)
	case ast.BeginEnd:
		child := scope.ID(n.ScopeID)
		for _, c := range n.Children {
			if err := fg.genStmt(child, c); err != nil {
				return err
			}
		}
		return nil
	case ast.If:
		return fg.genIfStmt(local, id)
	case ast.Switch:
		return fg.genSwitchStmt(local, id)
	case ast.For:
		return fg.genFor(local, id)
	case ast.While:
		return fg.genWhile(local, id)
	case ast.Return:
		return fg.genReturn(local, id)
	case ast.PostfixIf:
		return fg.genPostfixIf(local, id)
	case ast.FuncDef, ast.ClassDef:
		// Nested declarations are emitted as their own top-level functions
		// by Emitter.Emit (every func scope, however nested its AST node,
		// is registered flat under the global or class scope); nothing to
		// emit at this statement position.
		return nil
	default:
		_, err := fg.genExpr(local, id)
		return err
	}
}

func (fg *funcGen) genVarDeclSlot(local scope.ID, id ast.NodeID) error {
	sym := fg.symbolForDecl(local, id)
	if sym == nil {
		return errors.Errorf("internal compilation error: no symbol recorded for declaration at %s", fg.node(id).Pos)
	}
	if _, ok := fg.locals[sym]; ok {
		return nil
	}
	ty, err := fg.types.Emit(sym.Type)
	if err != nil {
		return errors.Wrapf(err, "declaration of %q", sym.Name)
	}
	fg.locals[sym] = fg.cur.NewAlloca(ty, sym.Name+".addr")
	return nil
}

func (fg *funcGen) symbolForDecl(local scope.ID, declNode ast.NodeID) *scope.VarSymbol {
	sc := fg.scp.Scope(local)
	if sc.Kind == scope.Local {
		for _, v := range sc.Locals {
			if v.Node == declNode {
				return v
			}
		}
	}
	return nil
}

func (fg *funcGen) genLocalInitialize(local scope.ID, id ast.NodeID) error {
	n := fg.node(id)
	declCount := int(n.IntVal)
	for i := 0; i < declCount && i < len(n.Children); i++ {
		if fg.node(n.Children[i]).Kind == ast.VarDecl {
			if err := fg.genVarDeclSlot(local, n.Children[i]); err != nil {
				return err
			}
		}
	}
	rhs := n.Children[declCount:]
	for i, r := range rhs {
		v, err := fg.genExpr(local, r)
		if err != nil {
			return err
		}
		if i >= declCount {
			continue
		}
		declNode := n.Children[i]
		if fg.node(declNode).Kind != ast.VarDecl {
			continue
		}
		sym := fg.symbolForDecl(local, declNode)
		if sym == nil {
			return errors.Errorf("internal compilation error: no symbol recorded for declaration at %s", fg.node(declNode).Pos)
		}
		slot := fg.locals[sym]
		fg.cur.NewStore(v, slot)
	}
	return nil
}

// genGlobalInitialize is genLocalInitialize's counterpart for the
// compilation unit's top-level Initialize nodes, storing into module-scope
// slots instead of local allocas.
func (fg *funcGen) genGlobalInitialize(id ast.NodeID) error {
	n := fg.node(id)
	declCount := int(n.IntVal)
	g := fg.scp.Scope(fg.scp.Global)
	rhs := n.Children[declCount:]
	for i, r := range rhs {
		v, err := fg.genExpr(fg.scp.Global, r)
		if err != nil {
			return err
		}
		if i >= declCount {
			continue
		}
		declNode := n.Children[i]
		if fg.node(declNode).Kind != ast.VarDecl {
			continue
		}
		var sym *scope.VarSymbol
		for _, c := range g.Constants {
			if c.Node == declNode {
				sym = c
				break
			}
		}
		if sym == nil {
			return errors.Errorf("internal compilation error: no global constant recorded for declaration at %s", fg.node(declNode).Pos)
		}
		slot, err := fg.e.ensureGlobalSlot(sym)
		if err != nil {
			return err
		}
		fg.cur.NewStore(v, slot)
	}
	return nil
}

func (fg *funcGen) genAssign(local scope.ID, id ast.NodeID) error {
	n := fg.node(id)
	lhs, rhs := n.Children[0], n.Children[1]
	v, err := fg.genExpr(local, rhs)
	if err != nil {
		return err
	}
	slot, err := fg.lvalueSlot(local, lhs)
	if err != nil {
		return err
	}
	fg.cur.NewStore(v, slot)
	return nil
}

// lvalueSlot resolves the storage address an assignment's left-hand side
// writes through: a local/param slot, a global slot, or (for index/member
// targets) the GEP'd address of the aggregate element.
func (fg *funcGen) lvalueSlot(local scope.ID, id ast.NodeID) (ir.Value, error) {
	n := fg.node(id)
	switch n.Kind {
	case ast.VarRef:
		sym, ownerScope, ok := fg.scp.ResolveOwner(local, n.Ident)
		if !ok {
			return ir.Value{}, errors.Errorf("internal compilation error: unresolved assignment target %q", n.Ident)
		}
		if fg.scp.Scope(ownerScope).Kind == scope.Class {
			return fg.instanceVarAddr(ownerScope, sym)
		}
		if sym.IsGlobal {
			return fg.e.ensureGlobalSlot(sym)
		}
		slot, ok := fg.locals[sym]
		if !ok {
			return ir.Value{}, errors.Errorf("internal compilation error: no slot recorded for %q", n.Ident)
		}
		return slot, nil
	case ast.IndexAccess:
		return fg.genIndexAddr(local, id)
	default:
		return ir.Value{}, errors.Errorf("internal compilation error: unsupported assignment target kind %v", n.Kind)
	}
}

func (fg *funcGen) genReturn(local scope.ID, id ast.NodeID) error {
	n := fg.node(id)
	if len(n.Children) == 0 {
		fg.cur.NewRetVoid()
		return nil
	}
	v, err := fg.genExpr(local, n.Children[0])
	if err != nil {
		return err
	}
	fg.cur.NewRet(v)
	return nil
}

func (fg *funcGen) genPostfixIf(local scope.ID, id ast.NodeID) error {
	n := fg.node(id)
	cond, err := fg.genExpr(local, n.Children[1])
	if err != nil {
		return err
	}
	if n.BoolVal {
		cond = fg.cur.NewNot(cond)
	}
	thenBlock := fg.fn.NewBlock("postfix.then")
	join := fg.fn.NewBlock("postfix.join")
	fg.cur.NewCondBr(cond, thenBlock, join)

	fg.cur = thenBlock
	if err := fg.genStmt(local, n.Children[0]); err != nil {
		return err
	}
	if !fg.cur.Terminated() {
		fg.cur.NewBr(join)
	}
	fg.cur = join
	return nil
}
