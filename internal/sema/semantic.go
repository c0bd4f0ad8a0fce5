// Package sema: the semantic/type analyzer of spec.md section 4.3. It runs
// after the forward analyzer has built the scope tree, walking the same AST
// a second time via the scope ids the forward pass stamped onto StmtBlock,
// BeginEnd, For/While bodies, WhenClause bodies, FuncDef/Lambda nodes and
// the compilation unit itself (ast.Node.ScopeID). This lets the second walk
// stay in lockstep with the first without rebuilding or re-deriving a
// second, divergent scope tree.
package sema

import (
	"sort"

	"github.com/dachsc/dachs/internal/ast"
	"github.com/dachsc/dachs/internal/diag"
	"github.com/dachsc/dachs/internal/objhash"
	"github.com/dachsc/dachs/internal/scope"
	"github.com/dachsc/dachs/internal/symbol"
	"github.com/dachsc/dachs/internal/types"
)

// Semantic carries the state of one semantic-pass run: the instantiation
// cache (spec.md section 4.3 "memoized template instantiation") and the
// stack of enclosing function scopes used to detect lambda captures.
type Semantic struct {
	tree *ast.Tree
	scp  *scope.Tree
	bag  *diag.Bag

	instantiated map[objhash.Hash]scope.ID
	funcStack    []scope.ID
}

// RunSemantic performs the semantic/type analysis walk of spec.md section
// 4.3 over a scope tree already built by RunForward: typing every global
// constant's initializer, then every function and class member function
// body, recording captures, resolving overloads and template instantiation
// as it goes. It returns a *diag.SemanticCheckError (via bag.CheckPhase) if
// any error-severity diagnostic was recorded.
func RunSemantic(tree *ast.Tree, scp *scope.Tree, bag *diag.Bag) error {
	s := &Semantic{tree: tree, scp: scp, bag: bag, instantiated: make(map[objhash.Hash]scope.ID)}

	g := scp.Scope(scp.Global)
	unit := g.UnitNode
	for _, child := range tree.Node(unit).Children {
		s.topLevel(scp.Global, child)
	}
	for _, fnID := range append([]scope.ID(nil), g.Funcs...) {
		s.typeFunc(fnID)
	}
	for _, clsID := range g.Classes {
		cs := scp.Scope(clsID)
		for _, mfID := range append([]scope.ID(nil), cs.MemberFuncs...) {
			s.typeFunc(mfID)
		}
	}
	return bag.CheckPhase("semantic/type analysis")
}

func (s *Semantic) node(id ast.NodeID) *ast.Node { return s.tree.Node(id) }

// topLevel types a non-func/class top-level statement: global constant
// initializers, and bare expression statements (which may themselves
// contain lambda definitions, already scope-bound by the forward pass).
func (s *Semantic) topLevel(g scope.ID, id ast.NodeID) {
	n := s.node(id)
	switch n.Kind {
	case ast.Import, ast.FuncDef, ast.ClassDef:
		// FuncDef/ClassDef are typed separately, after every global
		// constant has its type (a function may reference another global
		// constant defined later in the unit).
	case ast.Initialize:
		s.typeGlobalInitialize(g, id)
	case ast.VarDecl:
		// A global constant without an initializer has no type to infer
		// here; it stays Unresolved until annotated some other way.
	default:
		s.typeStmt(g, id)
	}
}

func (s *Semantic) typeGlobalInitialize(g scope.ID, id ast.NodeID) {
	n := s.node(id)
	declCount := int(n.IntVal)
	rhs := n.Children[declCount:]
	for i, r := range rhs {
		t := s.typeExpr(g, r)
		if i >= declCount {
			continue
		}
		declNode := n.Children[i]
		if s.node(declNode).Kind != ast.VarDecl {
			continue
		}
		name := s.node(declNode).Ident
		if sym := s.globalConstantByNode(declNode); sym != nil && (sym.Type.Kind() == types.Invalid) {
			sym.Type = t
		}
		_ = name
	}
}

func (s *Semantic) globalConstantByNode(node ast.NodeID) *scope.VarSymbol {
	gs := s.scp.Scope(s.scp.Global)
	for _, c := range gs.Constants {
		if c.Node == node {
			return c
		}
	}
	return nil
}

func (s *Semantic) localSymbolByNode(scopeID scope.ID, node ast.NodeID) *scope.VarSymbol {
	sc := s.scp.Scope(scopeID)
	switch sc.Kind {
	case scope.Local:
		for _, v := range sc.Locals {
			if v.Node == node {
				return v
			}
		}
	case scope.Func:
		for _, v := range sc.Params {
			if v.Node == node {
				return v
			}
		}
	}
	return nil
}

// typeFunc types one function's body and returns (and stamps onto its
// defining node) its generic-function type, complete with the captures the
// body walk discovered.
func (s *Semantic) typeFunc(fnID scope.ID) types.Type {
	fs := s.scp.Scope(fnID)
	s.funcStack = append(s.funcStack, fnID)
	if fs.BodyNode != ast.InvalidNode {
		s.typeBlock(fs.Body, fs.BodyNode)
	}
	s.funcStack = s.funcStack[:len(s.funcStack)-1]

	captureTypes := make([]types.Type, len(fs.Captures))
	for i, c := range fs.Captures {
		captureTypes[i] = c.Sym.Type
	}
	var ret *types.Type
	if fs.HasReturnType {
		t := fs.ReturnType
		ret = &t
	}
	gt := types.NewGenericFunction(int64(fnID), paramTypes(fs), ret, captureTypes)
	if fs.Node != ast.InvalidNode {
		s.node(fs.Node).Type = gt
	}
	if fs.Parent == s.scp.Global {
		if c := s.globalConstantByNode(fs.Node); c != nil {
			c.Type = gt
		}
	}
	return gt
}

// --- statements ---

func (s *Semantic) typeBlock(local scope.ID, id ast.NodeID) {
	n := s.node(id)
	for _, stmt := range n.Children {
		s.typeStmt(local, stmt)
	}
}

func (s *Semantic) typeStmt(local scope.ID, id ast.NodeID) {
	n := s.node(id)
	switch n.Kind {
	case ast.VarDecl:
		// Nothing further to type: its declared (or template-placeholder)
		// type was already resolved during forward analysis.
	case ast.Initialize:
		s.typeLocalInitialize(local, id)
	case ast.Assign:
		s.typeAssign(local, id)
	case ast.StmtBlock:
		child := scope.ID(n.ScopeID)
		s.typeBlock(child, id)
	case ast.BeginEnd:
		child := scope.ID(n.ScopeID)
		for _, c := range n.Children {
			s.typeStmt(child, c)
		}
	case ast.If:
		s.typeExpr(local, n.Children[0])
		for i := 1; i < len(n.Children); i++ {
			s.typeStmt(local, n.Children[i])
		}
	case ast.Switch:
		s.typeExpr(local, n.Children[0])
		for i := 1; i < len(n.Children); i++ {
			s.typeStmt(local, n.Children[i])
		}
	case ast.WhenClause:
		for _, cond := range n.Children[:len(n.Children)-1] {
			s.typeExpr(local, cond)
		}
		body := n.Children[len(n.Children)-1]
		child := scope.ID(s.node(body).ScopeID)
		s.typeBlock(child, body)
	case ast.For:
		s.typeExpr(local, n.Children[1])
		bodyNode := n.Children[2]
		child := scope.ID(s.node(bodyNode).ScopeID)
		s.typeBlock(child, bodyNode)
	case ast.While:
		s.typeExpr(local, n.Children[0])
		bodyNode := n.Children[1]
		child := scope.ID(s.node(bodyNode).ScopeID)
		s.typeBlock(child, bodyNode)
	case ast.Return:
		if len(n.Children) > 0 {
			s.typeExpr(local, n.Children[0])
		}
	case ast.PostfixIf:
		s.typeExpr(local, n.Children[1])
		s.typeStmt(local, n.Children[0])
	case ast.FuncDef:
		fn := scope.ID(n.ScopeID)
		s.typeFunc(fn)
	case ast.ClassDef:
		// Registered under the global scope regardless of nesting; typed
		// once from RunSemantic's top-level class loop.
	default:
		s.typeExpr(local, id)
	}
}

func (s *Semantic) typeLocalInitialize(local scope.ID, id ast.NodeID) {
	n := s.node(id)
	declCount := int(n.IntVal)
	rhs := n.Children[declCount:]
	for i, r := range rhs {
		t := s.typeExpr(local, r)
		if i >= declCount {
			continue
		}
		declNode := n.Children[i]
		if s.node(declNode).Kind != ast.VarDecl {
			continue
		}
		if sym := s.localSymbolByNode(local, declNode); sym != nil && sym.Type.Kind() == types.Template {
			sym.Type = t
		}
	}
}

func (s *Semantic) typeAssign(local scope.ID, id ast.NodeID) {
	n := s.node(id)
	lhs, rhs := n.Children[0], n.Children[1]
	rt := s.typeExpr(local, rhs)
	lhsNode := s.node(lhs)
	if lhsNode.Kind != ast.VarRef {
		// Assignment through an index/member expression (`a[i] = x`,
		// `@f = x`); its own resolution reports any mutability problem.
		s.typeExpr(local, lhs)
		return
	}
	sym, _, ok := s.scp.ResolveOwner(local, lhsNode.Ident)
	if !ok {
		s.bag.Errorf(diag.UnresolvedName, lhsNode.Pos.String(), "assignment to unresolved name %q", lhsNode.Ident)
		return
	}
	if sym.Immutable {
		s.bag.Errorf(diag.ImmutabilityViolation, lhsNode.Pos.String(), "cannot assign to %q: not declared with var", lhsNode.Ident)
	}
	if sym.Type.Kind() == types.Invalid || sym.Type.Kind() == types.Template {
		sym.Type = rt
	}
	lhsNode.Type = sym.Type
}

// --- expressions ---

func (s *Semantic) typeExpr(local scope.ID, id ast.NodeID) types.Type {
	if id == ast.InvalidNode {
		return types.Unresolved
	}
	n := s.node(id)
	switch n.Kind {
	case ast.IntLit:
		n.Type = types.IntType
	case ast.UintLit:
		n.Type = types.UintType
	case ast.FloatLit:
		n.Type = types.FloatType
	case ast.CharLit:
		n.Type = types.CharType
	case ast.BoolLit:
		n.Type = types.BoolType
	case ast.StringLit:
		n.Type = types.StringType
	case ast.SymbolLit:
		n.IntVal = int64(symbol.Intern(n.StrVal))
		n.Type = types.SymbolType
	case ast.ArrayLit:
		return s.typeArrayLit(local, id)
	case ast.TupleLit:
		return s.typeTupleLit(local, id)
	case ast.DictLit:
		return s.typeDictLit(local, id)
	case ast.Lambda:
		return s.typeFunc(scope.ID(n.ScopeID))
	case ast.VarRef:
		return s.typeVarRef(local, id)
	case ast.Invocation:
		return s.typeInvocation(local, id)
	case ast.UFCSInvocation:
		return s.typeUFCS(local, id)
	case ast.ObjectConstr:
		return s.typeObjectConstr(local, id)
	case ast.IndexAccess:
		return s.typeIndexAccess(local, id)
	case ast.Cast:
		return s.typeCast(local, id)
	case ast.Unary:
		n.Type = s.typeExpr(local, n.Children[0])
	case ast.Binary:
		return s.typeBinary(local, id)
	case ast.BlockExpr:
		n.Type = s.typeBlockExprBody(local, id)
	case ast.IfExpr:
		return s.typeIfExpr(local, id)
	case ast.SwitchExpr:
		return s.typeSwitchExpr(local, id)
	case ast.TypeOf:
		s.typeExpr(local, n.Children[0])
		// typeof(x) in expression position resolves to the printed type
		// string, the same representation the `__type` pseudo-member uses
		// (spec.md section 4.3) — an Open Question resolved this way since
		// the spec gives type-introspection no other concrete shape.
		n.Type = types.StringType
	case ast.TypedExpr:
		n.Type = s.typeExpr(local, n.Children[0])
	default:
		n.Type = types.Unresolved
	}
	return n.Type
}

// typeBlockExprBody types a BlockExpr found in expression position (an
// if/switch-expression branch): every child but the last is a statement,
// the last is the tail expression whose type the block yields.
func (s *Semantic) typeBlockExprBody(local scope.ID, id ast.NodeID) types.Type {
	n := s.node(id)
	if len(n.Children) == 0 {
		return types.Unresolved
	}
	for _, c := range n.Children[:len(n.Children)-1] {
		s.typeStmt(local, c)
	}
	tail := n.Children[len(n.Children)-1]
	return s.typeExpr(local, tail)
}

func (s *Semantic) typeArrayLit(local scope.ID, id ast.NodeID) types.Type {
	n := s.node(id)
	elemT := types.Unresolved
	for i, c := range n.Children {
		t := s.typeExpr(local, c)
		if i == 0 {
			elemT = t
		} else if !types.Equal(elemT, t) {
			s.bag.Errorf(diag.TypeMismatch, n.Pos.String(), "array literal elements have mismatched types %s and %s", elemT, t)
		}
	}
	n.Type = types.NewArray(elemT, int64(len(n.Children)), true)
	return n.Type
}

func (s *Semantic) typeTupleLit(local scope.ID, id ast.NodeID) types.Type {
	n := s.node(id)
	elems := make([]types.Type, len(n.Children))
	for i, c := range n.Children {
		elems[i] = s.typeExpr(local, c)
	}
	n.Type = types.NewTuple(elems...)
	return n.Type
}

func (s *Semantic) typeDictLit(local scope.ID, id ast.NodeID) types.Type {
	n := s.node(id)
	keyT, valT := types.Unresolved, types.Unresolved
	for i, c := range n.Children {
		entry := s.node(c)
		kt := s.typeExpr(local, entry.Children[0])
		vt := s.typeExpr(local, entry.Children[1])
		if i == 0 {
			keyT, valT = kt, vt
			continue
		}
		if !types.Equal(keyT, kt) {
			s.bag.Errorf(diag.TypeMismatch, entry.Pos.String(), "dict literal keys have mismatched types %s and %s", keyT, kt)
		}
		if !types.Equal(valT, vt) {
			s.bag.Errorf(diag.TypeMismatch, entry.Pos.String(), "dict literal values have mismatched types %s and %s", valT, vt)
		}
	}
	n.Type = types.NewDict(keyT, valT)
	return n.Type
}

func (s *Semantic) typeVarRef(local scope.ID, id ast.NodeID) types.Type {
	n := s.node(id)
	sym, ownerScope, ok := s.scp.ResolveOwner(local, n.Ident)
	if !ok {
		s.bag.Errorf(diag.UnresolvedName, n.Pos.String(), "unresolved name %q", n.Ident)
		n.Type = types.Unresolved
		return n.Type
	}
	s.recordCaptureIfNeeded(ownerScope, sym, n.Ident)
	n.Type = sym.Type
	return n.Type
}

func (s *Semantic) recordCaptureIfNeeded(ownerScope scope.ID, sym *scope.VarSymbol, name string) {
	if sym.IsGlobal || len(s.funcStack) == 0 {
		return
	}
	innermost := s.funcStack[len(s.funcStack)-1]
	ownerFunc := s.scp.EnclosingFunc(ownerScope)
	if ownerFunc == scope.InvalidID || ownerFunc == innermost {
		return
	}
	s.scp.AddCapture(innermost, name, sym)
}

func (s *Semantic) typeIndexAccess(local scope.ID, id ast.NodeID) types.Type {
	n := s.node(id)
	recvT := s.typeExpr(local, n.Children[0])
	s.typeExpr(local, n.Children[1])
	switch recvT.Kind() {
	case types.Array, types.Dict:
		n.Type = recvT.Elem()
	default:
		s.bag.Errorf(diag.TypeMismatch, n.Pos.String(), "%s is not indexable", recvT)
		n.Type = types.Unresolved
	}
	return n.Type
}

func (s *Semantic) typeCast(local scope.ID, id ast.NodeID) types.Type {
	n := s.node(id)
	fromType := s.typeExpr(local, n.Children[0])
	toType := ResolveTypeExpr(s.scp, s.tree, n.Children[1])
	if !types.Equal(fromType, toType) {
		if _, ok := s.scp.LookupCast(fromType, toType); !ok {
			s.bag.Errorf(diag.TypeMismatch, n.Pos.String(), "no cast registered from %s to %s", fromType, toType)
		}
	}
	n.Type = toType
	return n.Type
}

func (s *Semantic) typeBinary(local scope.ID, id ast.NodeID) types.Type {
	n := s.node(id)
	lt := s.typeExpr(local, n.Children[0])
	rt := s.typeExpr(local, n.Children[1])
	switch n.Ident {
	case "==", "!=", "<", "<=", ">", ">=", "&&", "||":
		n.Type = types.BoolType
	default:
		if !types.Equal(lt, rt) && !lt.IsTemplate() && !rt.IsTemplate() {
			s.bag.Errorf(diag.TypeMismatch, n.Pos.String(), "operator %q operands have mismatched types %s and %s", n.Ident, lt, rt)
		}
		n.Type = lt
	}
	return n.Type
}

func (s *Semantic) typeIfExpr(local scope.ID, id ast.NodeID) types.Type {
	n := s.node(id)
	s.typeExpr(local, n.Children[0])
	result := types.Unresolved
	have := false
	for i := 1; i < len(n.Children); i++ {
		child := n.Children[i]
		cn := s.node(child)
		var t types.Type
		if cn.Kind == ast.IfExpr {
			t = s.typeIfExpr(local, child)
		} else {
			t = s.typeBlockExprBody(local, child)
			cn.Type = t
		}
		if !have {
			result, have = t, true
		} else if !types.Equal(result, t) {
			s.bag.Errorf(diag.TypeMismatch, n.Pos.String(), "if-expression branches have mismatched types %s and %s", result, t)
		}
	}
	n.Type = result
	return result
}

func (s *Semantic) typeSwitchExpr(local scope.ID, id ast.NodeID) types.Type {
	n := s.node(id)
	s.typeExpr(local, n.Children[0])
	result := types.Unresolved
	have := false
	for i := 1; i < len(n.Children); i++ {
		child := n.Children[i]
		cn := s.node(child)
		var t types.Type
		if cn.Kind == ast.WhenClause {
			for _, cond := range cn.Children[:len(cn.Children)-1] {
				s.typeExpr(local, cond)
			}
			body := cn.Children[len(cn.Children)-1]
			t = s.typeBlockExprBody(local, body)
		} else {
			t = s.typeBlockExprBody(local, child)
		}
		cn.Type = t
		if !have {
			result, have = t, true
		} else if !types.Equal(result, t) {
			s.bag.Errorf(diag.TypeMismatch, n.Pos.String(), "switch-expression branches have mismatched types %s and %s", result, t)
		}
	}
	n.Type = result
	return result
}

func (s *Semantic) typeObjectConstr(local scope.ID, id ast.NodeID) types.Type {
	n := s.node(id)
	typeNode := n.Children[0]
	tn := s.node(typeNode)
	if tn.Kind == ast.TypePrimary && tn.Ident == "array" && tn.Synthetic {
		return s.typeArrayShorthand(local, id)
	}
	ct := ResolveTypeExpr(s.scp, s.tree, typeNode)
	for _, c := range n.Children[1:] {
		s.typeExpr(local, c)
	}
	n.Type = ct
	return ct
}

// typeArrayShorthand types the `new [T]{n}` rewrite (an ObjectConstr whose
// type child names the synthetic "array"/"static_array" pair produced by
// the parser's ambiguity-rule-5 rewrite), producing an array type directly
// rather than resolving "array"/"static_array" as real class names.
func (s *Semantic) typeArrayShorthand(local scope.ID, id ast.NodeID) types.Type {
	n := s.node(id)
	staticArr := s.node(n.Children[1])
	elemT := ResolveTypeExpr(s.scp, s.tree, staticArr.Children[0])
	var size int64
	hasSize := false
	if len(n.Children) > 2 {
		sizeBlock := s.node(n.Children[2])
		if len(sizeBlock.Children) > 0 {
			sizeExprID := sizeBlock.Children[0]
			s.typeExpr(local, sizeExprID)
			sizeExpr := s.node(sizeExprID)
			if sizeExpr.Kind == ast.IntLit {
				size, hasSize = sizeExpr.IntVal, true
			}
		}
	}
	n.Type = types.NewArray(elemT, size, hasSize)
	return n.Type
}

// typeInvocation types `callee(args...)`, including the `recv.(args)`
// direct-call form (its callee child is the receiver expression itself,
// spec.md section 8 example 3) and the `..`/`...` range sugar rewritten by
// the parser into calls to __range_inclusive/__range_exclusive.
func (s *Semantic) typeInvocation(local scope.ID, id ast.NodeID) types.Type {
	n := s.node(id)
	callee := n.Children[0]
	args := n.Children[1:]
	argTypes := make([]types.Type, len(args))
	for i, a := range args {
		argTypes[i] = s.typeExpr(local, a)
	}
	calleeNode := s.node(callee)
	if calleeNode.Kind == ast.VarRef {
		switch calleeNode.Ident {
		case "__range_inclusive", "__range_exclusive":
			if len(argTypes) == 2 {
				n.Type = types.NewRange(argTypes[0], argTypes[1], calleeNode.Ident == "__range_inclusive")
			} else {
				n.Type = types.Unresolved
			}
			return n.Type
		}
		return s.typeNamedInvocation(local, n, calleeNode, argTypes)
	}
	ct := s.typeExpr(local, callee)
	n.Type = s.callThroughValue(n.Pos.String(), ct)
	return n.Type
}

func (s *Semantic) typeNamedInvocation(local scope.ID, n *ast.Node, calleeNode *ast.Node, argTypes []types.Type) types.Type {
	name := calleeNode.Ident
	sym, ownerScope, found := s.scp.ResolveOwner(local, name)
	if found && ownerScope != s.scp.Global {
		// A local parameter or variable holding a function/lambda value
		// shadows any function of the same name, per ordinary scoping.
		calleeNode.Type = sym.Type
		n.Type = s.callThroughValue(n.Pos.String(), sym.Type)
		return n.Type
	}
	candidates := s.scp.LookupFuncsByName(s.scp.Global, name)
	if len(candidates) == 0 {
		if found {
			calleeNode.Type = sym.Type
			n.Type = s.callThroughValue(n.Pos.String(), sym.Type)
			return n.Type
		}
		s.bag.Errorf(diag.UnresolvedName, n.Pos.String(), "unresolved name %q", name)
		n.Type = types.Unresolved
		return n.Type
	}
	fnID, subst, ok := s.resolveOverload(n.Pos.String(), name, candidates, argTypes)
	if !ok {
		n.Type = types.Unresolved
		return n.Type
	}
	target := fnID
	if len(subst) > 0 {
		target = s.instantiate(fnID, subst)
	}
	n.SymbolID = int64(target)
	calleeNode.SymbolID = int64(target)
	targetFS := s.scp.Scope(target)
	if targetFS.HasReturnType {
		n.Type = substituteType(targetFS.ReturnType, subst)
	} else {
		n.Type = types.Unresolved
	}
	return n.Type
}

func (s *Semantic) callThroughValue(pos string, ct types.Type) types.Type {
	if ct.Kind() != types.Function && ct.Kind() != types.GenericFunction {
		s.bag.Errorf(diag.TypeMismatch, pos, "call target of type %s is not a function", ct)
		return types.Unresolved
	}
	if r := ct.FuncReturn(); r != nil {
		return *r
	}
	return types.Unresolved
}

// typeUFCS types `recv.name(args...)` / `recv.name args...`, resolving in
// the order spec.md section 4.3 requires: (1) instance variable, (2) member
// function, (3) built-in member, (4) UFCS free function taking recv as its
// first argument.
func (s *Semantic) typeUFCS(local scope.ID, id ast.NodeID) types.Type {
	n := s.node(id)
	recv := n.Children[0]
	args := n.Children[1:]
	recvType := s.typeExpr(local, recv)
	argTypes := make([]types.Type, len(args))
	for i, a := range args {
		argTypes[i] = s.typeExpr(local, a)
	}
	name := n.Ident

	if recvType.Kind() == types.Class {
		cls := s.scp.ClassByRef(recvType.ClassRef())
		if cls != scope.InvalidID {
			cs := s.scp.Scope(cls)
			if len(args) == 0 {
				for _, iv := range cs.InstanceVars {
					if iv.Name == name {
						n.Type = iv.Type
						return n.Type
					}
				}
			}
			if candidates := s.scp.LookupFuncsByName(cls, name); len(candidates) > 0 {
				fnID, subst, ok := s.resolveOverload(n.Pos.String(), name, candidates, argTypes)
				if !ok {
					n.Type = types.Unresolved
					return n.Type
				}
				target := fnID
				if len(subst) > 0 {
					target = s.instantiate(fnID, subst)
				}
				n.SymbolID = int64(target)
				targetFS := s.scp.Scope(target)
				if targetFS.HasReturnType {
					n.Type = substituteType(targetFS.ReturnType, subst)
				} else {
					n.Type = types.Unresolved
				}
				return n.Type
			}
		}
	}

	if t, ok := s.builtinMember(recvType, name); ok {
		n.Type = t
		return t
	}

	candidates := s.scp.LookupFuncsByName(s.scp.Global, name)
	if len(candidates) == 0 {
		s.bag.Errorf(diag.UnresolvedName, n.Pos.String(), "%q has no instance variable, member function, built-in member, or UFCS function named %q", recvType, name)
		n.Type = types.Unresolved
		return n.Type
	}
	fullArgs := append([]types.Type{recvType}, argTypes...)
	fnID, subst, ok := s.resolveOverload(n.Pos.String(), name, candidates, fullArgs)
	if !ok {
		n.Type = types.Unresolved
		return n.Type
	}
	target := fnID
	if len(subst) > 0 {
		target = s.instantiate(fnID, subst)
	}
	n.SymbolID = int64(target)
	targetFS := s.scp.Scope(target)
	if targetFS.HasReturnType {
		n.Type = substituteType(targetFS.ReturnType, subst)
	} else {
		n.Type = types.Unresolved
	}
	return n.Type
}

// builtinMember implements spec.md section 4.3's built-in member checker:
// tuple.size/first/second/last, array.size (legal when the size is known
// statically), and the __type pseudo-member on any type.
func (s *Semantic) builtinMember(recvType types.Type, name string) (types.Type, bool) {
	switch name {
	case "size":
		switch recvType.Kind() {
		case types.Tuple:
			return types.IntType, true
		case types.Array:
			// An array whose size is not known statically is only legal
			// here when it is main's argv parameter, a case tracked by the
			// allocation emitter rather than this layer; resolving size's
			// type is valid regardless of which case applies.
			return types.IntType, true
		}
	case "first":
		if recvType.Kind() == types.Tuple {
			if elems := recvType.TupleElems(); len(elems) > 0 {
				return elems[0], true
			}
		}
	case "second":
		if recvType.Kind() == types.Tuple {
			if elems := recvType.TupleElems(); len(elems) > 1 {
				return elems[1], true
			}
		}
	case "last":
		if recvType.Kind() == types.Tuple {
			if elems := recvType.TupleElems(); len(elems) > 0 {
				return elems[len(elems)-1], true
			}
		}
	case "__type":
		return types.StringType, true
	}
	return types.Unresolved, false
}

// --- overload resolution & template instantiation ---

type candidateMatch struct {
	fnID  scope.ID
	score int
	subst map[types.TemplateRef]types.Type
}

// resolveOverload picks the most-specific candidate by pairwise parameter
// compatibility (spec.md section 4.3): a Template parameter matches any
// argument type (binding it in the substitution), anything else must match
// exactly. The candidate with the most exact (non-template) matches wins;
// a tie is reported as ambiguous.
func (s *Semantic) resolveOverload(pos string, name string, candidates []scope.ID, argTypes []types.Type) (scope.ID, map[types.TemplateRef]types.Type, bool) {
	var matches []candidateMatch
	for _, c := range candidates {
		fs := s.scp.Scope(c)
		if len(fs.Params) != len(argTypes) {
			continue
		}
		subst := map[types.TemplateRef]types.Type{}
		score := 0
		ok := true
		for i, p := range fs.Params {
			pt, at := p.Type, argTypes[i]
			if pt.Kind() == types.Template {
				if existing, bound := subst[pt.TemplateRef()]; bound {
					if !types.Equal(existing, at) {
						ok = false
						break
					}
				} else {
					subst[pt.TemplateRef()] = at
				}
				continue
			}
			if types.Equal(pt, at) {
				score++
				continue
			}
			ok = false
			break
		}
		if ok {
			matches = append(matches, candidateMatch{fnID: c, score: score, subst: subst})
		}
	}
	if len(matches) == 0 {
		s.bag.Errorf(diag.UnresolvedName, pos, "no matching overload of %q for the given argument types", name)
		return scope.InvalidID, nil, false
	}
	best := matches[0]
	tie := false
	for _, m := range matches[1:] {
		switch {
		case m.score > best.score:
			best, tie = m, false
		case m.score == best.score:
			tie = true
		}
	}
	if tie {
		s.bag.Errorf(diag.OverloadAmbiguity, pos, "call to %q is ambiguous among %d overloads", name, len(matches))
		return scope.InvalidID, nil, false
	}
	return best.fnID, best.subst, true
}

// instantiate returns a concrete (template-substituted) func scope for
// genFnID+subst, memoized by a hash of the substitution so the same
// instantiation is never built twice (spec.md section 4.3 "memoized
// template instantiation", using internal/objhash the same way
// internal/irtypes does for its class-struct memoization cache).
func (s *Semantic) instantiate(genFnID scope.ID, subst map[types.TemplateRef]types.Type) scope.ID {
	key := s.instantiationKey(genFnID, subst)
	if cached, ok := s.instantiated[key]; ok {
		return cached
	}
	genFS := s.scp.Scope(genFnID)
	concrete := s.scp.NewFunc(genFS.Parent, genFS.Name, genFS.Node, genFS.IsMemberFunc)
	cfs := s.scp.Scope(concrete)
	cfs.IsConst = genFS.IsConst
	cfs.Body = genFS.Body
	cfs.BodyNode = genFS.BodyNode
	cfs.HasReturnType = genFS.HasReturnType
	if genFS.HasReturnType {
		cfs.ReturnType = substituteType(genFS.ReturnType, subst)
	}
	for _, p := range genFS.Params {
		cfs.Params = append(cfs.Params, &scope.VarSymbol{
			Name: p.Name, Node: p.Node, Immutable: p.Immutable,
			Type: substituteType(p.Type, subst), DeclOrder: p.DeclOrder,
		})
	}
	s.instantiated[key] = concrete
	return concrete
}

func (s *Semantic) instantiationKey(fnID scope.ID, subst map[types.TemplateRef]types.Type) objhash.Hash {
	h := objhash.Uint64(uint64(fnID))
	refs := make([]int64, 0, len(subst))
	for r := range subst {
		refs = append(refs, int64(r))
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i] < refs[j] })
	for _, r := range refs {
		h = h.Merge(objhash.Uint64(uint64(r)))
		h = h.Merge(objhash.String(subst[types.TemplateRef(r)].String()))
	}
	return h
}

// substituteType replaces every Template leaf of t with its binding in
// subst, leaving anything unbound as-is, and rebuilds every aggregate
// wrapper around the substituted elements.
func substituteType(t types.Type, subst map[types.TemplateRef]types.Type) types.Type {
	if t.Kind() == types.Template {
		if rep, ok := subst[t.TemplateRef()]; ok {
			return rep
		}
		return t
	}
	switch t.Kind() {
	case types.Array:
		size, hasSize := t.ArraySize()
		return types.NewArray(substituteType(t.Elem(), subst), size, hasSize)
	case types.Pointer:
		return types.NewPointer(substituteType(t.Elem(), subst))
	case types.Qualified:
		return types.NewQualified(substituteType(t.Elem(), subst))
	case types.Tuple:
		elems := t.TupleElems()
		out := make([]types.Type, len(elems))
		for i, e := range elems {
			out[i] = substituteType(e, subst)
		}
		return types.NewTuple(out...)
	case types.Dict:
		return types.NewDict(substituteType(t.DictKey(), subst), substituteType(t.Elem(), subst))
	case types.Class:
		args := t.ClassInstanceArgs()
		out := make([]types.Type, len(args))
		for i, a := range args {
			out[i] = substituteType(a, subst)
		}
		return types.NewClass(t.ClassRef(), out...)
	case types.Function:
		params := t.FuncParams()
		out := make([]types.Type, len(params))
		for i, p := range params {
			out[i] = substituteType(p, subst)
		}
		var ret *types.Type
		if r := t.FuncReturn(); r != nil {
			rr := substituteType(*r, subst)
			ret = &rr
		}
		return types.NewFunction(out, ret)
	default:
		return t
	}
}
