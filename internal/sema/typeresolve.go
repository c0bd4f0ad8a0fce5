package sema

import (
	"github.com/dachsc/dachs/internal/ast"
	"github.com/dachsc/dachs/internal/scope"
	"github.com/dachsc/dachs/internal/types"
)

// ResolveTypeExpr converts an any_type AST node (spec.md section 3.2) into
// a concrete types.Type. Class names are looked up in the global scope;
// an unknown class name resolves to types.Unresolved (the caller is
// responsible for reporting it). Declaration annotations (parameters,
// variables, return types, instance variables) are resolved once, by the
// forward pass in source order, so a class named there before its own
// definition resolves to Unresolved; type nodes in expression position
// (casts, object construction) are resolved in the semantic pass, after
// every class is bound.
func ResolveTypeExpr(scp *scope.Tree, tree *ast.Tree, id ast.NodeID) types.Type {
	if id == ast.InvalidNode {
		return types.Unresolved
	}
	n := tree.Node(id)
	switch n.Kind {
	case ast.TypePrimary:
		return resolvePrimary(scp, tree, n)
	case ast.TypeTuple:
		elems := make([]types.Type, len(n.Children))
		for i, c := range n.Children {
			elems[i] = ResolveTypeExpr(scp, tree, c)
		}
		return types.NewTuple(elems...)
	case ast.TypeFunc:
		return resolveFuncType(scp, tree, n)
	case ast.TypeArray:
		elem := ResolveTypeExpr(scp, tree, n.Children[0])
		if len(n.Children) > 1 {
			sizeNode := tree.Node(n.Children[1])
			if sizeNode.Kind == ast.IntLit {
				return types.NewArray(elem, sizeNode.IntVal, true)
			}
			// A non-literal size expression cannot be resolved without
			// evaluating a constant expression, which this layer does not
			// attempt; treat it as statically unknown.
			return types.NewArray(elem, 0, false)
		}
		return types.NewArray(elem, 0, false)
	case ast.TypeDict:
		key := ResolveTypeExpr(scp, tree, n.Children[0])
		val := ResolveTypeExpr(scp, tree, n.Children[1])
		return types.NewDict(key, val)
	case ast.TypePointer:
		return types.NewPointer(ResolveTypeExpr(scp, tree, n.Children[0]))
	case ast.TypeOf:
		// typeof(expr) as a *type* position names the type of expr; this
		// helper does not type expressions, so it resolves to Unresolved
		// here and no later step re-resolves it.
		return types.Unresolved
	case ast.TypeQualified:
		return types.NewQualified(ResolveTypeExpr(scp, tree, n.Children[0]))
	default:
		return types.Unresolved
	}
}

func resolvePrimary(scp *scope.Tree, tree *ast.Tree, n *ast.Node) types.Type {
	switch n.Ident {
	case "int":
		return types.IntType
	case "uint":
		return types.UintType
	case "float":
		return types.FloatType
	case "char":
		return types.CharType
	case "bool":
		return types.BoolType
	case "string":
		return types.StringType
	case "symbol":
		return types.SymbolType
	}
	var args []types.Type
	for _, c := range n.Children {
		args = append(args, ResolveTypeExpr(scp, tree, c))
	}
	if clsID, ok := scp.LookupClassByName(n.Ident); ok {
		return types.NewClass(scope.ClassRefOf(clsID), args...)
	}
	// "static_array" and any other not-yet-defined class both fall
	// through here; static_array(T) is only ever produced internally by
	// the new-[T]{n} rewrite and is resolved directly to an array type by
	// the object-construction type-check in semantic.go rather than here.
	return types.Unresolved
}

func resolveFuncType(scp *scope.Tree, tree *ast.Tree, n *ast.Node) types.Type {
	// n.IntVal records the param/return split point (parser.go's
	// parseFuncTypeArgs): children[:IntVal] are parameter types,
	// children[IntVal:] is the optional single return type.
	paramCount := int(n.IntVal)
	children := n.Children
	params := make([]types.Type, paramCount)
	for i := 0; i < paramCount; i++ {
		params[i] = ResolveTypeExpr(scp, tree, children[i])
	}
	if paramCount >= len(children) {
		return types.NewFunction(params, nil)
	}
	ret := ResolveTypeExpr(scp, tree, children[paramCount])
	return types.NewFunction(params, &ret)
}
