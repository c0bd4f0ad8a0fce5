package ast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dachsc/dachs/internal/ast"
	"github.com/dachsc/dachs/internal/token"
)

func TestTreeNewAndNodeRoundTrip(t *testing.T) {
	tr := ast.NewTree()
	id := tr.New(ast.IntLit, token.Position{Line: 1, Col: 1})
	n := tr.Node(id)
	assert.Equal(t, ast.IntLit, n.Kind)
	assert.True(t, tr.Valid(id))
	assert.False(t, tr.Valid(ast.InvalidNode))
}

func TestTreeNodePanicsOnInvalidID(t *testing.T) {
	tr := ast.NewTree()
	assert.Panics(t, func() { tr.Node(ast.InvalidNode) })
}

func TestTreeAttachBuildsChildren(t *testing.T) {
	tr := ast.NewTree()
	parent := tr.New(ast.Binary, token.Position{})
	child := tr.New(ast.IntLit, token.Position{})
	tr.Attach(parent, child)
	require.Len(t, tr.Node(parent).Children, 1)
	assert.Equal(t, child, tr.Node(parent).Children[0])
}

func TestTreeAttachIgnoresInvalidChild(t *testing.T) {
	tr := ast.NewTree()
	parent := tr.New(ast.Binary, token.Position{})
	tr.Attach(parent, ast.InvalidNode)
	assert.Empty(t, tr.Node(parent).Children)
}

func TestTreeCopyPosMarksSynthetic(t *testing.T) {
	tr := ast.NewTree()
	parent := tr.New(ast.Binary, token.Position{})
	child := tr.New(ast.IntLit, token.Position{Line: 5, Col: 2})
	tr.CopyPos(parent, child)
	p := tr.Node(parent)
	assert.True(t, p.Synthetic)
	assert.Equal(t, 5, p.Pos.Line)
}

func TestTreeWalkVisitsPreOrder(t *testing.T) {
	tr := ast.NewTree()
	root := tr.New(ast.Binary, token.Position{})
	left := tr.New(ast.IntLit, token.Position{})
	right := tr.New(ast.IntLit, token.Position{})
	tr.Attach(root, left)
	tr.Attach(root, right)

	var visited []ast.NodeID
	tr.Walk(root, func(id ast.NodeID) { visited = append(visited, id) })
	assert.Equal(t, []ast.NodeID{root, left, right}, visited)
}

func TestTreeWalkOnInvalidNodeIsNoop(t *testing.T) {
	tr := ast.NewTree()
	var visited []ast.NodeID
	tr.Walk(ast.InvalidNode, func(id ast.NodeID) { visited = append(visited, id) })
	assert.Empty(t, visited)
}
