package ast

import (
	"sync/atomic"

	"github.com/dachsc/dachs/internal/token"
)

// nextID is the single process-wide, monotonically increasing node-id
// generator described in spec.md section 5 ("a single monotonically
// increasing node-id generator is the only process-wide state"). It starts
// at 1 so that the zero value NodeID(0) can serve as InvalidNode.
var nextID int64 = 1

func allocID() NodeID {
	return NodeID(atomic.AddInt64(&nextID, 1) - 1)
}

// Tree is the node arena for one compilation unit. Every Node the parser
// produces is owned by exactly one Tree (spec.md section 3.5 "Lifecycle":
// "nodes created by the parser are owned by their parent in the AST tree").
type Tree struct {
	nodes []*Node
	Root  NodeID
}

// NewTree creates an empty arena.
func NewTree() *Tree {
	return &Tree{nodes: []*Node{nil}} // index 0 reserved for InvalidNode
}

// New allocates a node of the given kind at the given position and returns
// its id. The returned node's Children slice is nil; callers append to it
// directly or via the Attach helper.
func (t *Tree) New(kind Kind, pos token.Position) NodeID {
	id := allocID()
	n := &Node{ID: id, Kind: kind, Pos: pos}
	if int(id) >= len(t.nodes) {
		grown := make([]*Node, id+1)
		copy(grown, t.nodes)
		t.nodes = grown
	}
	t.nodes[id] = n
	return id
}

// Node dereferences a NodeID. It panics on an out-of-range or unallocated
// id: every reachable NodeID in a finished tree must resolve, per spec.md's
// invariant that the parser only ever produces nodes with all required
// children present.
func (t *Tree) Node(id NodeID) *Node {
	if id == InvalidNode || int(id) >= len(t.nodes) || t.nodes[id] == nil {
		panic("ast: dereference of invalid node id")
	}
	return t.nodes[id]
}

// Valid reports whether id resolves to an allocated node in this tree.
func (t *Tree) Valid(id NodeID) bool {
	return id != InvalidNode && int(id) < len(t.nodes) && t.nodes[id] != nil
}

// Attach appends a child id to a parent's Children list.
func (t *Tree) Attach(parent, child NodeID) {
	if child == InvalidNode {
		return
	}
	t.Node(parent).Children = append(t.Node(parent).Children, child)
}

// CopyPos copies a child's position onto a synthetic parent node, per
// spec.md section 3.1 ("Locations ... may be copied from a child when the
// parent is synthetic").
func (t *Tree) CopyPos(parent, child NodeID) {
	p, c := t.Node(parent), t.Node(child)
	p.Pos = c.Pos
	p.Synthetic = true
}

// Walk visits id and every descendant in pre-order, depth first.
func (t *Tree) Walk(id NodeID, visit func(NodeID)) {
	if id == InvalidNode {
		return
	}
	visit(id)
	for _, c := range t.Node(id).Children {
		t.Walk(c, visit)
	}
}
