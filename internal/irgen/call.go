package irgen

import (
	"github.com/pkg/errors"

	"github.com/dachsc/dachs/internal/ast"
	"github.com/dachsc/dachs/internal/ir"
	"github.com/dachsc/dachs/internal/scope"
	"github.com/dachsc/dachs/internal/types"
)

// genInvocation lowers `callee(args...)`, including the `..`/`...` range
// sugar (never reached here directly — internal/irgen/control.go consumes
// those through genRangeBounds before genExpr ever sees them as a plain
// call) and a call through a value held in a local/param/capture rather
// than a name internal/sema resolved to a function scope outright.
func (fg *funcGen) genInvocation(local scope.ID, n *ast.Node) (ir.Value, error) {
	calleeID := n.Children[0]
	argNodes := n.Children[1:]
	calleeNode := fg.node(calleeID)

	if calleeNode.Kind == ast.VarRef && (calleeNode.Ident == "__range_inclusive" || calleeNode.Ident == "__range_exclusive") {
		return ir.Value{}, errors.New("internal compilation error: a range expression has no IR value outside of a `for` iterable")
	}

	if n.SymbolID != 0 {
		targetID := scope.ID(n.SymbolID)
		// A named nested function may itself capture variables from its
		// enclosing scope (internal/sema's capture detection is not
		// limited to anonymous lambdas); calling it by name from within
		// that same enclosing scope chain can load those captures
		// straight out of `local` rather than through a closure value.
		fs := fg.scp.Scope(targetID)
		capVals := make([]ir.Value, len(fs.Captures))
		for i, c := range fs.Captures {
			v, err := fg.genLoadSymbol(c.Sym)
			if err != nil {
				return ir.Value{}, errors.Wrapf(err, "capturing %q", c.Name)
			}
			capVals[i] = v
		}
		return fg.emitDirectCall(local, targetID, capVals, argNodes, nil)
	}

	// No symbol was resolved at the call site itself: the callee is a
	// value (a lambda, or a function/capture parameter) rather than a
	// name bound directly to a function scope.
	switch calleeNode.Type.Kind() {
	case types.GenericFunction:
		closure, err := fg.genExpr(local, calleeID)
		if err != nil {
			return ir.Value{}, err
		}
		return fg.callClosure(local, closure, calleeNode.Type, argNodes)
	default:
		return ir.Value{}, errors.Errorf("internal compilation error: calling a value of kind %v is not supported by this emitter", calleeNode.Type.Kind())
	}
}

// callClosure unpacks a closure pointer's capture fields and calls the
// generated function its GenericFunction type statically names (FuncID),
// passing captures ahead of the explicit arguments.
func (fg *funcGen) callClosure(local scope.ID, closure ir.Value, ty types.Type, argNodes []ast.NodeID) (ir.Value, error) {
	targetID := scope.ID(ty.FuncID())
	captures := ty.Captures()
	capVals := make([]ir.Value, len(captures))
	if len(captures) > 0 {
		structTy := closure.Type.Elem()
		for i := range captures {
			fieldTy := structTy.Fields()[i]
			addr := fg.cur.NewGEP(closure, ir.NewPointer(fieldTy), ir.ConstInt(ir.I64Type, int64(i)))
			capVals[i] = fg.cur.NewLoad(addr)
		}
	}
	return fg.emitDirectCall(local, targetID, capVals, argNodes, nil)
}

// genUFCS lowers `recv.name(args...)` / `recv.name`. internal/sema.typeUFCS
// stamps n.SymbolID for both the member-function branch and the
// free-function UFCS branch, distinguished here by the target scope's
// IsMemberFunc flag; a zero SymbolID means a builtin tuple/array accessor
// or an instance-variable read through an explicit receiver, neither of
// which has a backing function scope.
func (fg *funcGen) genUFCS(local scope.ID, n *ast.Node) (ir.Value, error) {
	recvID := n.Children[0]
	argNodes := n.Children[1:]
	recvVal, err := fg.genExpr(local, recvID)
	if err != nil {
		return ir.Value{}, err
	}

	if n.SymbolID == 0 {
		return fg.genBuiltinMember(n, recvVal)
	}

	targetID := scope.ID(n.SymbolID)
	fs := fg.scp.Scope(targetID)
	if fs.IsMemberFunc {
		return fg.emitDirectCall(local, targetID, nil, argNodes, &recvVal)
	}

	// Free UFCS function: the receiver becomes the first explicit argument.
	argVals := make([]ir.Value, 0, 1+len(argNodes))
	argVals = append(argVals, recvVal)
	for _, a := range argNodes {
		v, err := fg.genExpr(local, a)
		if err != nil {
			return ir.Value{}, err
		}
		argVals = append(argVals, v)
	}
	retTy, err := fg.returnTypeOf(fs)
	if err != nil {
		return ir.Value{}, err
	}
	return fg.cur.NewCall(fg.e.mangledName(targetID), retTy, argVals...), nil
}

// genBuiltinMember lowers the handful of member accessors internal/sema
// resolves without a backing function scope: tuple.first/second/last/size,
// array.size, and a class instance-variable read through an explicit
// receiver (`recvVal.name`, as opposed to the bare `@name` genVarRef
// handles for the implicit receiver).
func (fg *funcGen) genBuiltinMember(n *ast.Node, recvVal ir.Value) (ir.Value, error) {
	recvType := fg.node(n.Children[0]).Type
	name := n.Ident

	switch recvType.Kind() {
	case types.Class:
		cs := fg.scp.Scope(fg.scp.ClassByRef(recvType.ClassRef()))
		idx := -1
		for i, iv := range cs.InstanceVars {
			if iv.Name == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			return ir.Value{}, errors.Errorf("internal compilation error: %q is not a member of %s", name, cs.ClassName)
		}
		fieldTy := recvVal.Type.Elem().Fields()[idx]
		addr := fg.cur.NewGEP(recvVal, ir.NewPointer(fieldTy), ir.ConstInt(ir.I64Type, int64(idx)))
		return fg.cur.NewLoad(addr), nil
	case types.Tuple:
		elems := recvType.TupleElems()
		idx := -1
		switch name {
		case "first":
			idx = 0
		case "second":
			if len(elems) > 1 {
				idx = 1
			}
		case "last":
			idx = len(elems) - 1
		case "size":
			return ir.ConstInt(ir.I64Type, int64(len(elems))), nil
		}
		if idx < 0 || idx >= len(elems) {
			return ir.Value{}, errors.Errorf("internal compilation error: tuple has no member %q", name)
		}
		fieldTy := recvVal.Type.Elem().Fields()[idx]
		addr := fg.cur.NewGEP(recvVal, ir.NewPointer(fieldTy), ir.ConstInt(ir.I64Type, int64(idx)))
		return fg.cur.NewLoad(addr), nil
	case types.Array:
		if name == "size" {
			size, ok := recvType.ArraySize()
			if !ok {
				return ir.Value{}, errors.New("array size is not known at compile time")
			}
			return ir.ConstInt(ir.I64Type, size), nil
		}
	}
	return ir.Value{}, errors.Errorf("internal compilation error: unsupported builtin member %q on %s", name, recvType)
}

// genObjectConstr lowers `new Type(args...)`: the array shorthand
// (`new [T]{n}`, internal/sema.typeArrayShorthand) mallocs n elements of T
// directly, while general class construction mallocs the class struct and
// calls the class's `init` member function (if it has one) with the
// explicit arguments (spec.md section 4.5).
func (fg *funcGen) genObjectConstr(local scope.ID, n *ast.Node) (ir.Value, error) {
	if n.Type.Kind() == types.Array {
		return fg.genArrayShorthand(local, n)
	}

	ptr, err := fg.alloc.malloc(n.Type)
	if err != nil {
		return ir.Value{}, err
	}

	clsID := fg.scp.ClassByRef(n.Type.ClassRef())
	cs := fg.scp.Scope(clsID)
	// internal/parser's funcName treats the `init`/`copy` keywords as a
	// member function's literal source name (internal/parser/decl.go); the
	// resolved constructor is whichever member function scope is named
	// "init", called under its Emitter.mangledName name (`init$<scope id>`),
	// not the module's global-initializer function `dachs.init`.
	var ctorID scope.ID
	for _, mfID := range cs.MemberFuncs {
		if fg.scp.Scope(mfID).Name == "init" {
			ctorID = mfID
			break
		}
	}
	if ctorID == scope.InvalidID {
		// No user-defined constructor: the malloc'd, zero-valued struct is
		// the constructed object.
		return ptr, nil
	}

	argNodes := n.Children[1:]
	selfVal := ptr
	if _, err := fg.emitDirectCall(local, ctorID, nil, argNodes, &selfVal); err != nil {
		return ir.Value{}, err
	}
	return ptr, nil
}

// genArrayShorthand lowers `new [T]{n}` to a single malloc of
// n elements, with no per-element initialization beyond the zero value
// malloc already guarantees.
func (fg *funcGen) genArrayShorthand(local scope.ID, n *ast.Node) (ir.Value, error) {
	elemT := n.Type.Elem()
	size, hasSize := n.Type.ArraySize()
	if hasSize {
		return fg.alloc.mallocConst(elemT, size)
	}
	if len(n.Children) < 3 {
		return ir.Value{}, errors.New("internal compilation error: array construction missing a size expression")
	}
	sizeBlock := fg.node(n.Children[2])
	if len(sizeBlock.Children) == 0 {
		return ir.Value{}, errors.New("internal compilation error: array construction missing a size expression")
	}
	sizeVal, err := fg.genExpr(local, sizeBlock.Children[0])
	if err != nil {
		return ir.Value{}, err
	}
	return fg.alloc.mallocValue(elemT, sizeVal)
}

// emitDirectCall calls a resolved function scope directly by its mangled
// IR name, assembling the argument list as captures, then self (if
// non-nil), then the explicit argument expressions, matching the parameter
// order Emitter.emitFunc builds for that same scope.
func (fg *funcGen) emitDirectCall(local scope.ID, targetID scope.ID, capVals []ir.Value, argNodes []ast.NodeID, self *ir.Value) (ir.Value, error) {
	fs := fg.scp.Scope(targetID)
	argVals := make([]ir.Value, 0, len(capVals)+len(argNodes)+1)
	argVals = append(argVals, capVals...)
	if self != nil {
		argVals = append(argVals, *self)
	}
	for _, a := range argNodes {
		v, err := fg.genExpr(local, a)
		if err != nil {
			return ir.Value{}, err
		}
		argVals = append(argVals, v)
	}
	retTy, err := fg.returnTypeOf(fs)
	if err != nil {
		return ir.Value{}, err
	}
	return fg.cur.NewCall(fg.e.mangledName(targetID), retTy, argVals...), nil
}

func (fg *funcGen) returnTypeOf(fs *scope.Scope) (ir.Type, error) {
	if !fs.HasReturnType {
		return ir.Type{}, nil
	}
	retTy, err := fg.types.Emit(fs.ReturnType)
	if err != nil {
		return ir.Type{}, errors.Wrapf(err, "return type of %q", fs.Name)
	}
	return retTy, nil
}
