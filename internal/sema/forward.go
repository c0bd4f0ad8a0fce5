// Package sema implements the two AST walks of spec.md section 4.2 and
// 4.3: a forward analyzer that builds the scope tree and binds every
// definition site, followed by a semantic/type analyzer that resolves
// names, performs overload resolution and template instantiation, records
// lambda captures, and annotates every expression node with its type.
//
// Both walks follow the teacher's diagnostic-batching convention
// (internal/diag.Bag): nothing panics on a single bad definition, errors
// accumulate, and the phase fails as a whole via diag.SemanticCheckError
// only after the walk completes.
package sema

import (
	"fmt"

	"github.com/dachsc/dachs/internal/ast"
	"github.com/dachsc/dachs/internal/diag"
	"github.com/dachsc/dachs/internal/scope"
	"github.com/dachsc/dachs/internal/types"
)

// Forward runs the forward analyzer of spec.md section 4.2 over unit,
// returning the populated scope tree. Errors are batched into bag; the
// caller decides (via bag.CheckPhase) whether to continue to the semantic
// pass.
type Forward struct {
	tree *ast.Tree
	scp  *scope.Tree
	bag  *diag.Bag
}

// RunForward builds the scope tree for a parsed compilation unit.
func RunForward(tree *ast.Tree, unit ast.NodeID, bag *diag.Bag) *scope.Tree {
	f := &Forward{tree: tree, scp: scope.NewTree(), bag: bag}
	f.scp.Scope(f.scp.Global).UnitNode = unit
	tree.Node(unit).ScopeID = int64(f.scp.Global)
	for _, child := range tree.Node(unit).Children {
		f.topLevel(f.scp.Global, child)
	}
	f.checkDuplicateFunctions()
	return f.scp
}

func (f *Forward) node(id ast.NodeID) *ast.Node { return f.tree.Node(id) }

func (f *Forward) topLevel(enclosing scope.ID, id ast.NodeID) {
	n := f.node(id)
	switch n.Kind {
	case ast.Import:
		// Textual-inclusion only (spec.md section 1 Non-goals); nothing to
		// bind at this layer.
	case ast.FuncDef:
		fn := f.bindFunc(enclosing, id, false)
		if n.Ident == "cast" {
			f.registerCast(fn)
		}
	case ast.ClassDef:
		f.bindClass(id)
	default:
		f.bindGlobalStatement(enclosing, id)
	}
}

// bindGlobalStatement handles a top-level statement that is not an
// import/func/class — almost always an Initialize/VarDecl defining a
// global constant.
func (f *Forward) bindGlobalStatement(enclosing scope.ID, id ast.NodeID) {
	n := f.node(id)
	switch n.Kind {
	case ast.Initialize:
		f.bindGlobalInitialize(id)
	case ast.VarDecl:
		f.defineGlobalConstant(n.Ident, id)
	default:
		// Any other top-level statement is a bare expression; scan it for
		// lambda definitions the same as inside a function body.
		f.scanLambdas(enclosing, id)
	}
}

func (f *Forward) bindGlobalInitialize(id ast.NodeID) {
	n := f.node(id)
	declCount := int(n.IntVal)
	for i := 0; i < declCount && i < len(n.Children); i++ {
		decl := f.node(n.Children[i])
		if decl.Kind == ast.VarDecl {
			f.defineGlobalConstant(decl.Ident, n.Children[i])
		}
	}
	for i := declCount; i < len(n.Children); i++ {
		f.scanLambdas(f.scp.Global, n.Children[i])
	}
}

func (f *Forward) defineGlobalConstant(name string, node ast.NodeID) {
	if scope.IsBuiltinName(name) {
		f.bag.Errorf(diag.ReservedName, f.node(node).Pos.String(), "name %q is reserved for built-in registration", name)
		return
	}
	g := f.scp.Scope(f.scp.Global)
	g.Constants = append(g.Constants, &scope.VarSymbol{
		Name: name, Node: node, Immutable: true, IsGlobal: true,
	})
}

// bindFunc creates a function scope, binds its parameters, and — if
// enclosed directly in global scope — also defines a global function
// symbol and constant of the same name (spec.md section 4.2).
func (f *Forward) bindFunc(enclosing scope.ID, id ast.NodeID, isMember bool) scope.ID {
	n := f.node(id)
	if scope.IsBuiltinName(n.Ident) {
		f.bag.Errorf(diag.ReservedName, n.Pos.String(), "name %q is reserved for built-in registration", n.Ident)
	}

	fn := f.scp.NewFunc(enclosing, n.Ident, id, isMember)
	n.ScopeID = int64(fn)
	fs := f.scp.Scope(fn)
	fs.IsConst = n.IsConst

	paramCount := len(n.Children) - 2 // children = [params...] [returnType] [body]
	if paramCount < 0 {
		paramCount = 0
	}
	for i := 0; i < paramCount; i++ {
		f.bindParam(fs, n.Children[i])
	}

	if paramCount >= 0 && paramCount < len(n.Children) {
		retSlot := n.Children[paramCount]
		if retSlot != ast.InvalidNode {
			if n.IsProc {
				// original_source/semantics/forward_analyzer_impl.hpp:95-96
				// batches this as a semantic error rather than rejecting at
				// parse time, so it accumulates with other diagnostics.
				f.bag.Errorf(diag.InvalidTypeExpression, n.Pos.String(), "procedure %q can't have return type", n.Ident)
			} else {
				fs.HasReturnType = true
				fs.ReturnType = f.resolveTypeExpr(retSlot)
			}
		}
	}

	if enclosing == f.scp.Global {
		g := f.scp.Scope(f.scp.Global)
		g.Constants = append(g.Constants, &scope.VarSymbol{
			Name: n.Ident, Node: id, Immutable: true, IsGlobal: true,
			Type: types.NewGenericFunction(int64(fn), paramTypes(fs), returnTypePtr(fs), nil),
		})
	}

	body := f.scp.NewLocal(fn)
	fs.Body = body
	if paramCount+1 < len(n.Children) {
		bodyNode := n.Children[len(n.Children)-1]
		fs.BodyNode = bodyNode
		f.node(bodyNode).ScopeID = int64(body)
		f.walkBlock(body, bodyNode)
	}
	return fn
}

func paramTypes(fs *scope.Scope) []types.Type {
	out := make([]types.Type, len(fs.Params))
	for i, p := range fs.Params {
		out[i] = p.Type
	}
	return out
}

func returnTypePtr(fs *scope.Scope) *types.Type {
	if !fs.HasReturnType {
		return nil
	}
	t := fs.ReturnType
	return &t
}

// bindParam creates a var symbol for one parameter. `_` is uniquified per
// node identity (spec.md section 4.2: "duplicates of _ are tolerated");
// `@`-prefixed names are already rejected by the parser.
func (f *Forward) bindParam(fs *scope.Scope, id ast.NodeID) {
	n := f.node(id)
	name := n.Ident
	if name == "_" {
		name = fmt.Sprintf("_$%d", id)
	}
	var t types.Type
	if len(n.Children) > 0 && n.Children[0] != ast.InvalidNode {
		t = f.resolveTypeExpr(n.Children[0])
	} else {
		t = types.NewTemplate(types.TemplateRef(id))
	}
	fs.Params = append(fs.Params, &scope.VarSymbol{
		Name: name, Node: id, Immutable: !n.IsVar, Type: t, DeclOrder: len(fs.Params),
	})
}

// bindClass creates a class scope, binds instance variables in
// declaration order, and binds every member function.
func (f *Forward) bindClass(id ast.NodeID) scope.ID {
	n := f.node(id)
	cls := f.scp.NewClass(n.Ident, id)
	n.ScopeID = int64(cls)
	cs := f.scp.Scope(cls)
	for _, child := range n.Children {
		cn := f.node(child)
		switch cn.Kind {
		case ast.InstanceVarDecl:
			t := types.Unresolved
			if len(cn.Children) > 0 {
				t = f.resolveTypeExpr(cn.Children[0])
			}
			cs.InstanceVars = append(cs.InstanceVars, &scope.VarSymbol{
				Name: cn.Ident, Node: child, Type: t, DeclOrder: len(cs.InstanceVars),
			})
		case ast.FuncDef:
			f.bindFunc(cls, child, true)
		}
	}
	return cls
}

// walkBlock creates/uses local scope `local` for a StmtBlock node's
// statements.
func (f *Forward) walkBlock(local scope.ID, id ast.NodeID) {
	n := f.node(id)
	for _, stmt := range n.Children {
		f.statement(local, stmt)
	}
}

func (f *Forward) statement(local scope.ID, id ast.NodeID) {
	n := f.node(id)
	switch n.Kind {
	case ast.VarDecl:
		f.bindLocalVar(local, id)
	case ast.Initialize:
		declCount := int(n.IntVal)
		for i := 0; i < declCount && i < len(n.Children); i++ {
			if f.node(n.Children[i]).Kind == ast.VarDecl {
				f.bindLocalVar(local, n.Children[i])
			}
		}
		for i := declCount; i < len(n.Children); i++ {
			f.scanLambdas(local, n.Children[i])
		}
	case ast.Assign:
		for _, c := range n.Children {
			f.scanLambdas(local, c)
		}
	case ast.StmtBlock:
		child := f.scp.NewLocal(local)
		n.ScopeID = int64(child)
		f.walkBlock(child, id)
	case ast.BeginEnd:
		child := f.scp.NewLocal(local)
		n.ScopeID = int64(child)
		for _, c := range n.Children {
			f.statement(child, c)
		}
	case ast.If:
		f.scanLambdas(local, n.Children[0])
		for i := 1; i < len(n.Children); i++ {
			f.statement(local, n.Children[i])
		}
	case ast.Switch:
		f.scanLambdas(local, n.Children[0])
		for i := 1; i < len(n.Children); i++ {
			f.statement(local, n.Children[i])
		}
	case ast.WhenClause:
		for _, cond := range n.Children[:len(n.Children)-1] {
			f.scanLambdas(local, cond)
		}
		body := n.Children[len(n.Children)-1]
		child := f.scp.NewLocal(local)
		f.node(body).ScopeID = int64(child)
		f.walkBlock(child, body)
	case ast.For:
		child := f.scp.NewLocal(local)
		iterVar := f.node(n.Children[0])
		f.scanLambdas(local, n.Children[1])
		f.scp.DefineLocal(child, &scope.VarSymbol{
			Name: iterVar.Ident, Node: n.Children[0], Immutable: true,
			Type: types.NewTemplate(types.TemplateRef(n.Children[0])),
		})
		f.node(n.Children[2]).ScopeID = int64(child)
		f.walkBlock(child, n.Children[2])
	case ast.While:
		f.scanLambdas(local, n.Children[0])
		child := f.scp.NewLocal(local)
		f.node(n.Children[1]).ScopeID = int64(child)
		f.walkBlock(child, n.Children[1])
	case ast.Return:
		if len(n.Children) > 0 {
			f.scanLambdas(local, n.Children[0])
		}
	case ast.PostfixIf:
		f.scanLambdas(local, n.Children[1])
		f.statement(local, n.Children[0])
	case ast.FuncDef:
		// A nested local function definition (the `func`/`proc` statement
		// form), distinct from a Lambda expression node.
		f.bindFunc(local, id, false)
	case ast.ClassDef:
		f.bindClass(id)
	default:
		// Any other statement kind is a bare expression statement; scan it
		// for lambda definitions directly.
		f.scanLambdas(local, id)
	}
}

// scanLambdas walks an expression subtree looking for Lambda nodes
// (spec.md section 4.2: "a lambda definition gets a synthesized unique
// name ... and is analyzed the same as a function"). It stops descending
// at a Lambda boundary — the lambda's own body is walked by bindLambda via
// walkBlock/statement, which calls back into scanLambdas for its own
// nested expressions.
func (f *Forward) scanLambdas(enclosing scope.ID, id ast.NodeID) {
	if id == ast.InvalidNode {
		return
	}
	n := f.node(id)
	if n.Kind == ast.Lambda {
		f.bindLambda(enclosing, id)
		return
	}
	for _, c := range n.Children {
		f.scanLambdas(enclosing, c)
	}
}

// bindLambda creates a function scope for a lambda expression, with the
// synthesized name `lambda.<line>.<col>.<length>` spec.md section 4.2
// requires.
func (f *Forward) bindLambda(enclosing scope.ID, id ast.NodeID) scope.ID {
	n := f.node(id)
	name := fmt.Sprintf("lambda.%d.%d.%d", n.Pos.Line, n.Pos.Col, n.Pos.Length)
	fn := f.scp.NewFunc(enclosing, name, id, false)
	n.ScopeID = int64(fn)
	fs := f.scp.Scope(fn)

	paramCount := len(n.Children) - 1 // children = [params...] [body]
	if paramCount < 0 {
		paramCount = 0
	}
	for i := 0; i < paramCount; i++ {
		f.bindParam(fs, n.Children[i])
	}
	body := f.scp.NewLocal(fn)
	fs.Body = body
	if paramCount < len(n.Children) {
		bodyNode := n.Children[len(n.Children)-1]
		fs.BodyNode = bodyNode
		f.node(bodyNode).ScopeID = int64(body)
		f.walkBlock(body, bodyNode)
	}
	return fn
}

func (f *Forward) bindLocalVar(local scope.ID, id ast.NodeID) {
	n := f.node(id)
	var t types.Type
	if len(n.Children) > 0 && n.Children[0] != ast.InvalidNode {
		t = f.resolveTypeExpr(n.Children[0])
	} else {
		t = types.NewTemplate(types.TemplateRef(id))
	}
	shadowed := f.scp.DefineLocal(local, &scope.VarSymbol{
		Name: n.Ident, Node: id, Immutable: !n.IsVar, Type: t,
	})
	if shadowed {
		f.bag.Warnf(diag.ShadowingError, n.Pos.String(), "declaration of %q shadows an outer local variable", n.Ident)
	}
}

// resolveTypeExpr resolves an any_type node through ResolveTypeExpr, the
// type-resolution helper both passes use. It runs during the forward walk,
// so a class name resolves only if that class was bound earlier in the
// unit; otherwise it yields types.Unresolved and is not revisited.
// Unannotated declarations get a fresh template instead (the callers'
// job).
func (f *Forward) resolveTypeExpr(typeNode ast.NodeID) types.Type {
	return ResolveTypeExpr(f.scp, f.tree, typeNode)
}

// registerCast records a `cast` definition in the global cast_funcs table
// keyed by (from, to) — its single parameter's type and its declared
// return type (spec.md section 4.3: "Resolves as by looking up a
// registered converter function ... keyed by (from, to)").
func (f *Forward) registerCast(fn scope.ID) {
	fs := f.scp.Scope(fn)
	if len(fs.Params) != 1 || !fs.HasReturnType {
		f.bag.Errorf(diag.InvalidTypeExpression, f.node(fs.Node).Pos.String(), "cast must take exactly one parameter and declare a return type")
		return
	}
	if !f.scp.RegisterCast(fs.Params[0].Type, fs.ReturnType, fn) {
		f.bag.Errorf(diag.DuplicateDefinition, f.node(fs.Node).Pos.String(), "duplicate cast from %s to %s", fs.Params[0].Type, fs.ReturnType)
	}
}

// checkDuplicateFunctions implements spec.md section 4.2's post-walk
// "function duplication check": every pair of functions in each scope
// (global, and each class's member set) is compared by overload equality.
func (f *Forward) checkDuplicateFunctions() {
	g := f.scp.Scope(f.scp.Global)
	f.checkDuplicatesIn(g.Funcs)
	for _, clsID := range g.Classes {
		cs := f.scp.Scope(clsID)
		f.checkDuplicatesIn(cs.MemberFuncs)
	}
}

func (f *Forward) checkDuplicatesIn(fns []scope.ID) {
	for i := 0; i < len(fns); i++ {
		a := f.scp.Scope(fns[i])
		for j := i + 1; j < len(fns); j++ {
			b := f.scp.Scope(fns[j])
			if scope.OverloadEqual(a, b) {
				f.bag.Errorf(diag.DuplicateDefinition, f.node(b.Node).Pos.String(),
					"function %q duplicates the definition at %s", b.Name, f.node(a.Node).Pos.String())
			}
		}
	}
}
