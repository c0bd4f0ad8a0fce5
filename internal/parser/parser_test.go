package parser

import (
	"testing"

	"github.com/dachsc/dachs/internal/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) (*ast.Tree, ast.NodeID) {
	t.Helper()
	tree, unit, err := Parse([]byte(src), "test.dachs")
	require.NoError(t, err)
	require.NotNil(t, tree)
	return tree, unit
}

func findFirst(tree *ast.Tree, root ast.NodeID, kind ast.Kind) ast.NodeID {
	var found ast.NodeID = ast.InvalidNode
	tree.Walk(root, func(id ast.NodeID) {
		if found != ast.InvalidNode {
			return
		}
		if tree.Node(id).Kind == kind {
			found = id
		}
	})
	return found
}

func TestParseSimpleFuncDef(t *testing.T) {
	src := "func add(a: int, b: int): int\n  ret a + b\nend\n"
	tree, unit := mustParse(t, src)
	fn := findFirst(tree, unit, ast.FuncDef)
	require.NotEqual(t, ast.InvalidNode, fn)
	assert.Equal(t, "add", tree.Node(fn).Ident)
	assert.False(t, tree.Node(fn).IsProc)
}

func TestParseProcWithReturnTypeParsesWithoutError(t *testing.T) {
	// A proc declaring a return type is a semantic error, reported by
	// internal/sema's forward pass as a batched diagnostic, not a parse
	// error — the parser attaches whatever return type it saw regardless.
	tree, unit, err := Parse([]byte("proc p(): int\nend\n"), "t.dachs")
	require.NoError(t, err)
	fn := findFirst(tree, unit, ast.FuncDef)
	require.NotEqual(t, ast.InvalidNode, fn)
	assert.True(t, tree.Node(fn).IsProc)
}

func TestParseClassWithInstanceVars(t *testing.T) {
	src := "class Point\n  @x: int\n  @y: int\n  func sum(): int\n    ret @x + @y\n  end\nend\n"
	tree, unit := mustParse(t, src)
	cls := findFirst(tree, unit, ast.ClassDef)
	require.NotEqual(t, ast.InvalidNode, cls)
	assert.Equal(t, "Point", tree.Node(cls).Ident)
}

func TestParseIfStatementWithElseif(t *testing.T) {
	src := "func f(x: int): int\n" +
		"  if x == 0\n    ret 0\n  elseif x == 1\n    ret 1\n  else\n    ret 2\n  end\n" +
		"end\n"
	tree, unit := mustParse(t, src)
	iff := findFirst(tree, unit, ast.If)
	require.NotEqual(t, ast.InvalidNode, iff)
}

func TestParsePostfixIf(t *testing.T) {
	src := "func f(x: int): int\n  ret 1 if x == 0\n  ret 2\nend\n"
	tree, unit := mustParse(t, src)
	pf := findFirst(tree, unit, ast.PostfixIf)
	require.NotEqual(t, ast.InvalidNode, pf)
}

func TestParseInitializeMultiple(t *testing.T) {
	src := "func f(): int\n  a, b := 1, 2\n  ret a + b\nend\n"
	tree, unit := mustParse(t, src)
	init := findFirst(tree, unit, ast.Initialize)
	require.NotEqual(t, ast.InvalidNode, init)
	assert.EqualValues(t, 2, tree.Node(init).IntVal)
}

func TestParseUFCSWithoutParens(t *testing.T) {
	// "x.foo 1, 2" should parse as a no-paren UFCS invocation since "foo" is
	// followed by a space and an expression-starting token.
	src := "func f(x: int): int\n  ret x.foo 1, 2\nend\n"
	tree, unit := mustParse(t, src)
	call := findFirst(tree, unit, ast.UFCSInvocation)
	require.NotEqual(t, ast.InvalidNode, call)
	assert.Equal(t, "foo", tree.Node(call).Ident)
	assert.Len(t, tree.Node(call).Children, 3) // receiver + 2 args
}

func TestParseUFCSAmbiguityUnaryNotConsumed(t *testing.T) {
	// "x.foo + 1" must NOT be read as a no-paren call with argument "+1":
	// it is "(x.foo) + 1".
	src := "func f(x: int): int\n  ret x.foo + 1\nend\n"
	tree, unit := mustParse(t, src)
	bin := findFirst(tree, unit, ast.Binary)
	require.NotEqual(t, ast.InvalidNode, bin)
	assert.Equal(t, "+", tree.Node(bin).Ident)
	ufcs := findFirst(tree, unit, ast.UFCSInvocation)
	require.NotEqual(t, ast.InvalidNode, ufcs)
	assert.Len(t, tree.Node(ufcs).Children, 1) // receiver only, no args
}

func TestParseTupleVsParen(t *testing.T) {
	src1 := "func f(): int\n  ret (1)\nend\n"
	tree1, unit1 := mustParse(t, src1)
	tup1 := findFirst(tree1, unit1, ast.TupleLit)
	assert.Equal(t, ast.InvalidNode, tup1)

	src2 := "func f(): int\n  ret (1, 2)\nend\n"
	tree2, unit2 := mustParse(t, src2)
	tup2 := findFirst(tree2, unit2, ast.TupleLit)
	require.NotEqual(t, ast.InvalidNode, tup2)
	assert.Len(t, tree2.Node(tup2).Children, 2)
}

func TestParseLambdaArrowIn(t *testing.T) {
	src := "func f(): int\n  g := -> x in x + 1\n  ret g.(41)\nend\n"
	tree, unit := mustParse(t, src)
	lam := findFirst(tree, unit, ast.Lambda)
	require.NotEqual(t, ast.InvalidNode, lam)
	call := findFirst(tree, unit, ast.Invocation)
	require.NotEqual(t, ast.InvalidNode, call)
}

func TestParseDoEndTrailingBlock(t *testing.T) {
	src := "func f(): int\n  ret [1, 2, 3].each do |x|\n    ret x\n  end\nend\n"
	tree, unit := mustParse(t, src)
	ufcs := findFirst(tree, unit, ast.UFCSInvocation)
	require.NotEqual(t, ast.InvalidNode, ufcs)
	assert.True(t, tree.Node(ufcs).HasTrailing)
}

func TestParseNewArrayShorthandRewrite(t *testing.T) {
	src := "func f(): int\n  a := new [int]{10}\n  ret 0\nend\n"
	tree, unit := mustParse(t, src)
	constr := findFirst(tree, unit, ast.ObjectConstr)
	require.NotEqual(t, ast.InvalidNode, constr)
	typeChild := tree.Node(constr).Children[0]
	assert.Equal(t, "array", tree.Node(typeChild).Ident)
	argChild := tree.Node(constr).Children[1]
	assert.Equal(t, "static_array", tree.Node(argChild).Ident)
}

func TestParseRangeExpressionMarksImplicitImport(t *testing.T) {
	src := "func f(): int\n  a := 1..10\n  ret 0\nend\n"
	tree, unit := mustParse(t, src)
	call := findFirst(tree, unit, ast.Invocation)
	require.NotEqual(t, ast.InvalidNode, call)
	imp := findFirst(tree, unit, ast.Import)
	require.NotEqual(t, ast.InvalidNode, imp)
	assert.Equal(t, "range", tree.Node(imp).Ident)
	assert.True(t, tree.Node(imp).Synthetic)
}

func TestParseIfExpression(t *testing.T) {
	src := "func f(x: int): int\n  y := if x == 0 then 1 else 2 end\n  ret y\nend\n"
	tree, unit := mustParse(t, src)
	ifExpr := findFirst(tree, unit, ast.IfExpr)
	require.NotEqual(t, ast.InvalidNode, ifExpr)
}

func TestParseSwitchExpression(t *testing.T) {
	src := "func f(x: int): int\n  y := case x\n  when 0 then 10\n  when 1, 2 then 20\n  else 30\n  end\n  ret y\nend\n"
	tree, unit := mustParse(t, src)
	sw := findFirst(tree, unit, ast.SwitchExpr)
	require.NotEqual(t, ast.InvalidNode, sw)
}

func TestParseArrayTypeWithSize(t *testing.T) {
	src := "func f(): int\n  var a: [int; 4]\n  ret 0\nend\n"
	tree, unit := mustParse(t, src)
	arrType := findFirst(tree, unit, ast.TypeArray)
	require.NotEqual(t, ast.InvalidNode, arrType)
	assert.Len(t, tree.Node(arrType).Children, 2) // elem + size
}

func TestParseImportAndClassCast(t *testing.T) {
	src := "import std.io\n" +
		"cast(x: int): float\n  ret 0.0\nend\n"
	tree, unit := mustParse(t, src)
	imp := findFirst(tree, unit, ast.Import)
	require.NotEqual(t, ast.InvalidNode, imp)
	assert.Equal(t, "std.io", tree.Node(imp).Ident)
	fn := findFirst(tree, unit, ast.FuncDef)
	require.NotEqual(t, ast.InvalidNode, fn)
	assert.Equal(t, "cast", tree.Node(fn).Ident)
}

func TestParseLetIntroducesScope(t *testing.T) {
	src := "func f(): int\n  let a := 1\n    ret a\n  end\nend\n"
	tree, unit := mustParse(t, src)
	be := findFirst(tree, unit, ast.BeginEnd)
	require.NotEqual(t, ast.InvalidNode, be)
	assert.True(t, tree.Node(be).Synthetic)
}

func TestParseUnresolvedTokenIsSingularError(t *testing.T) {
	_, _, err := Parse([]byte("func f(:\nend\n"), "bad.dachs")
	assert.Error(t, err)
}
