package sema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dachsc/dachs/internal/ast"
	"github.com/dachsc/dachs/internal/diag"
	"github.com/dachsc/dachs/internal/parser"
	"github.com/dachsc/dachs/internal/scope"
	"github.com/dachsc/dachs/internal/sema"
)

func mustForward(t *testing.T, src string) (*ast.Tree, ast.NodeID, *scope.Tree, *diag.Bag) {
	t.Helper()
	tree, unit, err := parser.Parse([]byte(src), "test.dachs")
	require.NoError(t, err)
	bag := &diag.Bag{}
	scp := sema.RunForward(tree, unit, bag)
	return tree, unit, scp, bag
}

func TestForwardBindsGlobalFunction(t *testing.T) {
	_, _, scp, bag := mustForward(t, "func add(a: int, b: int): int\n  ret a + b\nend\n")
	require.Equal(t, 0, bag.FailureCount())
	g := scp.Scope(scp.Global)
	require.Len(t, g.Funcs, 1)
	fs := scp.Scope(g.Funcs[0])
	assert.Equal(t, "add", fs.Name)
	assert.True(t, fs.HasReturnType)
	assert.Len(t, fs.Params, 2)
}

func TestForwardDetectsDuplicateOverload(t *testing.T) {
	src := "func add(a: int, b: int): int\n  ret a + b\nend\n" +
		"func add(a: int, b: int): int\n  ret a - b\nend\n"
	_, _, _, bag := mustForward(t, src)
	assert.Equal(t, 1, bag.FailureCount())
}

func TestForwardAllowsOverloadsOfDifferentArity(t *testing.T) {
	src := "func add(a: int, b: int): int\n  ret a + b\nend\n" +
		"func add(a: int): int\n  ret a\nend\n"
	_, _, _, bag := mustForward(t, src)
	assert.Equal(t, 0, bag.FailureCount())
}

func TestForwardStampsScopeIDsForSemanticWalk(t *testing.T) {
	tree, unit, scp, bag := mustForward(t, "func f(): int\n  x := 1\n  ret x\nend\n")
	require.Equal(t, 0, bag.FailureCount())
	assert.NotZero(t, tree.Node(unit).ScopeID)

	g := scp.Scope(scp.Global)
	fn := g.Funcs[0]
	fs := scp.Scope(fn)
	require.NotEqual(t, ast.InvalidNode, fs.BodyNode)
	assert.EqualValues(t, fs.Body, tree.Node(fs.BodyNode).ScopeID)
}

func TestForwardBindsClassMembers(t *testing.T) {
	src := "class Point\n  @x: int\n  @y: int\n  func sum(): int\n    ret @x\n  end\nend\n"
	_, _, scp, bag := mustForward(t, src)
	require.Equal(t, 0, bag.FailureCount())
	g := scp.Scope(scp.Global)
	require.Len(t, g.Classes, 1)
	cs := scp.Scope(g.Classes[0])
	assert.Len(t, cs.InstanceVars, 2)
	assert.Len(t, cs.MemberFuncs, 1)
}

func TestForwardWarnsOnLocalShadowing(t *testing.T) {
	src := "func f(): int\n" +
		"  x := 1\n" +
		"  begin\n" +
		"    x := 2\n" +
		"    ret x\n" +
		"  end\n" +
		"end\n"
	_, _, _, bag := mustForward(t, src)
	var sawWarning bool
	for _, d := range bag.Diagnostics {
		if d.Category == diag.ShadowingError {
			sawWarning = true
		}
	}
	assert.True(t, sawWarning)
	assert.Equal(t, 0, bag.FailureCount())
}

func TestForwardRejectsReservedBuiltinName(t *testing.T) {
	_, _, _, bag := mustForward(t, "func __builtin_foo(): int\n  ret 1\nend\n")
	assert.Equal(t, 1, bag.FailureCount())
}

func TestForwardRejectsProcWithReturnType(t *testing.T) {
	_, _, scp, bag := mustForward(t, "proc p(): int\nend\n")
	assert.Equal(t, 1, bag.FailureCount())
	g := scp.Scope(scp.Global)
	require.Len(t, g.Funcs, 1)
	fs := scp.Scope(g.Funcs[0])
	assert.False(t, fs.HasReturnType, "a rejected proc return type must not be recorded")
}

func TestForwardAllowsProcWithoutReturnType(t *testing.T) {
	_, _, _, bag := mustForward(t, "proc p()\nend\n")
	assert.Equal(t, 0, bag.FailureCount())
}
