// Package irgen implements spec.md section 4.5: the allocation and IR
// emitter. Given a resolved AST (internal/ast), its scope tree
// (internal/scope) and the type annotations internal/sema stamped onto
// every node, it walks each concrete function body and emits an
// internal/ir.Module.
//
// The walk mirrors internal/sema's typeFunc/typeStmt/typeExpr shape
// node-for-node (same Children indexing, same ScopeID-driven scope lookup)
// so that the two passes stay in lockstep the same way the forward and
// semantic passes do.
package irgen

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/dachsc/dachs/internal/ast"
	"github.com/dachsc/dachs/internal/ir"
	"github.com/dachsc/dachs/internal/irtypes"
	"github.com/dachsc/dachs/internal/scope"
	"github.com/dachsc/dachs/internal/types"
)

// Emitter owns the module under construction and the per-compilation-unit
// state (scope tree, AST, type lowering) every function generator shares.
type Emitter struct {
	tree  *ast.Tree
	scp   *scope.Tree
	types *irtypes.Emitter
	mod   *ir.Module

	fnNames     map[scope.ID]string
	globalSlots map[*scope.VarSymbol]ir.Value
}

func New(tree *ast.Tree, scp *scope.Tree, moduleName string) *Emitter {
	return &Emitter{
		tree:    tree,
		scp:     scp,
		types:   irtypes.New(scp),
		mod:         ir.NewModule(moduleName),
		fnNames:     make(map[scope.ID]string),
		globalSlots: make(map[*scope.VarSymbol]ir.Value),
	}
}

// Emit lowers the global-constant initializers, then every concrete
// (non-generic) function and member function reachable from the global
// scope, into e's module and returns it.
func (e *Emitter) Emit() (*ir.Module, error) {
	g := e.scp.Scope(e.scp.Global)

	if err := e.emitGlobalInit(); err != nil {
		return nil, errors.Wrap(err, "global initializers")
	}

	for _, fnID := range g.Funcs {
		if e.isGeneric(fnID) {
			continue
		}
		if err := e.emitFunc(fnID); err != nil {
			return nil, errors.Wrapf(err, "function %q", e.scp.Scope(fnID).Name)
		}
	}
	for _, clsID := range g.Classes {
		cs := e.scp.Scope(clsID)
		for _, mfID := range cs.MemberFuncs {
			if e.isGeneric(mfID) {
				continue
			}
			if err := e.emitFunc(mfID); err != nil {
				return nil, errors.Wrapf(err, "member function %q.%q", cs.ClassName, e.scp.Scope(mfID).Name)
			}
		}
	}
	return e.mod, nil
}

// isGeneric reports whether fnID is a template declaration that was never
// instantiated with concrete types (its params/return still mention a
// template parameter) — these have no IR representation of their own, only
// their instantiations (internal/sema.instantiate) do.
func (e *Emitter) isGeneric(fnID scope.ID) bool {
	fs := e.scp.Scope(fnID)
	for _, p := range fs.Params {
		if p.Type.IsTemplate() {
			return true
		}
	}
	return fs.HasReturnType && fs.ReturnType.IsTemplate()
}

// mangledName assigns and caches a unique IR symbol name for a func scope,
// since distinct scope ids can share a Dachs-level name (overloads, and
// every template instantiation of the same generic function).
func (e *Emitter) mangledName(fnID scope.ID) string {
	if n, ok := e.fnNames[fnID]; ok {
		return n
	}
	fs := e.scp.Scope(fnID)
	n := fmt.Sprintf("%s$%d", fs.Name, int64(fnID))
	e.fnNames[fnID] = n
	return n
}

func (e *Emitter) emitFunc(fnID scope.ID) error {
	fs := e.scp.Scope(fnID)

	paramTys := make([]ir.Type, 0, len(fs.Captures)+len(fs.Params)+1)
	paramVals := make([]ir.Value, 0, len(fs.Captures)+len(fs.Params)+1)
	// A captured function receives its captures as leading parameters,
	// loaded by the call site out of the closure struct (spec.md section
	// 4.5: "a call to a captured function loads the closure struct and
	// passes captured fields followed by explicit arguments").
	for _, c := range fs.Captures {
		ct, err := e.types.Emit(c.Sym.Type)
		if err != nil {
			return errors.Wrapf(err, "capture %q", c.Name)
		}
		paramTys = append(paramTys, ct)
		paramVals = append(paramVals, ir.Value{Name: c.Name + ".cap", Type: ct})
	}
	if fs.IsMemberFunc {
		selfTy, err := e.types.Emit(e.selfType(fnID))
		if err != nil {
			return errors.Wrap(err, "self parameter")
		}
		paramTys = append(paramTys, selfTy)
		paramVals = append(paramVals, ir.Value{Name: "self", Type: selfTy})
	}
	for _, p := range fs.Params {
		pt, err := e.types.Emit(p.Type)
		if err != nil {
			return errors.Wrapf(err, "parameter %q", p.Name)
		}
		paramTys = append(paramTys, pt)
		paramVals = append(paramVals, ir.Value{Name: p.Name, Type: pt})
	}

	retTy := ir.Type{}
	if fs.HasReturnType {
		var err error
		retTy, err = e.types.Emit(fs.ReturnType)
		if err != nil {
			return errors.Wrap(err, "return type")
		}
	}

	fn := e.mod.NewFunction(e.mangledName(fnID), paramVals, retTy)
	fg := &funcGen{
		e:      e,
		tree:   e.tree,
		scp:    e.scp,
		types:  e.types,
		module: e.mod,
		fn:     fn,
		fnID:   fnID,
		locals: make(map[*scope.VarSymbol]ir.Value),
	}
	fg.alloc = newAllocationEmitter(fg)
	fg.cur = fn.NewBlock("entry")
	if fs.IsMemberFunc {
		fg.self = paramVals[len(fs.Captures)]
		fg.hasSelf = true
	}

	paramIdx := 0
	for _, c := range fs.Captures {
		slot := fg.cur.NewAlloca(paramVals[paramIdx].Type, c.Name+".addr")
		fg.cur.NewStore(paramVals[paramIdx], slot)
		fg.locals[c.Sym] = slot
		paramIdx++
	}
	if fs.IsMemberFunc {
		paramIdx++
	}
	for i, p := range fs.Params {
		slot := fg.cur.NewAlloca(paramVals[paramIdx+i].Type, p.Name+".addr")
		fg.cur.NewStore(paramVals[paramIdx+i], slot)
		fg.locals[p] = slot
	}

	if fs.BodyNode != ast.InvalidNode {
		if err := fg.genBlock(fs.Body, fs.BodyNode); err != nil {
			return err
		}
	}
	if !fg.cur.Terminated() {
		if fs.HasReturnType {
			return errors.Errorf("function %q falls off the end without returning a value", fs.Name)
		}
		fg.cur.NewRetVoid()
	}
	return nil
}

// dachsInitName is the synthesized function every global constant
// initializer runs in, in source declaration order, before any user code
// (analogous to a C++ translation unit's global constructors).
const dachsInitName = "dachs.init"

// emitGlobalInit walks the compilation unit's top-level Initialize
// statements (spec.md section 4.5 gives codegen no explicit global-init
// contract; we ground this on the same Initialize-node shape
// internal/sema.typeGlobalInitialize already consumes) and stores each
// initializer's value into that constant's module-scope slot.
func (e *Emitter) emitGlobalInit() error {
	g := e.scp.Scope(e.scp.Global)
	fn := e.mod.NewFunction(dachsInitName, nil, ir.Type{})
	fg := &funcGen{
		e: e, tree: e.tree, scp: e.scp, types: e.types, module: e.mod,
		fn: fn, fnID: scope.InvalidID, locals: make(map[*scope.VarSymbol]ir.Value),
	}
	fg.alloc = newAllocationEmitter(fg)
	fg.cur = fn.NewBlock("entry")

	for _, child := range e.tree.Node(g.UnitNode).Children {
		n := e.tree.Node(child)
		if n.Kind != ast.Initialize {
			continue
		}
		if err := fg.genGlobalInitialize(child); err != nil {
			return err
		}
	}
	fg.cur.NewRetVoid()
	return nil
}

func (e *Emitter) ensureGlobalSlot(sym *scope.VarSymbol) (ir.Value, error) {
	if v, ok := e.globalSlots[sym]; ok {
		return v, nil
	}
	ty, err := e.types.Emit(sym.Type)
	if err != nil {
		return ir.Value{}, errors.Wrapf(err, "global %q", sym.Name)
	}
	slot := e.mod.NewGlobalSlot("global."+sym.Name, ty)
	e.globalSlots[sym] = slot
	return slot, nil
}

// selfType resolves the receiver type of a member function scope by
// walking back to its owning class scope.
func (e *Emitter) selfType(fnID scope.ID) types.Type {
	g := e.scp.Scope(e.scp.Global)
	for _, clsID := range g.Classes {
		cs := e.scp.Scope(clsID)
		for _, mf := range cs.MemberFuncs {
			if mf == fnID {
				return types.NewClass(scope.ClassRefOf(clsID))
			}
		}
	}
	return types.Unresolved
}
