package ast

import (
	"github.com/dachsc/dachs/internal/token"
	"github.com/dachsc/dachs/internal/types"
)

// NodeID is a stable index into a Tree's node arena. Using indices instead
// of shared pointers (as the C++ original does) avoids the
// scope<->AST ownership cycle described in spec.md's design notes: a Node
// holds a ScopeID, a scope holds NodeIDs, and neither side needs reference
// counting.
type NodeID int64

// InvalidNode is never a valid node reference.
const InvalidNode NodeID = 0

// Node is a single element of the tagged-sum AST described in spec.md
// section 3.2. Rather than one Go type per grammar production, every node
// is this one flat struct discriminated by Kind, the same flat-struct
// pattern the interpreter in the pack's other Go examples uses for its own
// AST/CFG node type: fields not meaningful for a given Kind are simply
// unused, which keeps one allocation per node and one arena per tree.
type Node struct {
	ID   NodeID
	Kind Kind
	Pos  token.Position

	// Children, in a role-dependent but kind-stable order; the parser
	// function that builds each Kind documents the exact shape it produces.
	Children []NodeID

	// Scalar literal payloads.
	Ident    string // identifier text, field/member name, operator text
	StrVal   string
	IntVal   int64
	UintVal  uint64
	FloatVal float64
	CharVal  byte
	BoolVal  bool

	// Declaration / invocation flags.
	IsVar       bool // `var` present on a variable-decl or parameter
	IsProc      bool // func-def declares no return type (a `proc`)
	IsConst     bool // member function declared const
	IsMember    bool // function def is a class member
	HasTrailing bool // invocation/object-construction carries a trailing do/end or {} block arg

	// Semantic annotations, filled in by internal/sema (spec.md section
	// 3.2's "annotates every expression node with its concrete type").
	Type     types.Type
	ScopeID  int64 // weak ref to the scope this node defines/owns, 0 if none
	SymbolID int64 // weak ref to the resolved function scope id (scope.ID) for Invocation/UFCS and an invocation's callee VarRef

	// Synthetic marks a node fabricated by a rewrite (e.g. the `new [T]{n}`
	// rewrite of spec.md section 4.1 rule 5, or an implicit import), so
	// debug dumps can tell it apart from a node with a real source
	// location.
	Synthetic bool
}

// EmptyPos reports whether n has no recorded source location, matching
// spec.md's token.Position.Empty semantics for synthetic nodes.
func (n *Node) EmptyPos() bool {
	return n.Pos.Empty()
}
