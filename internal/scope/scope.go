// Package scope builds and queries the scope tree described by spec.md
// section 3.4: a global scope owning function/class/constant vectors, a
// tree of local scopes nested under function bodies and let/do blocks,
// and per-function and per-class scopes. It is deliberately separate from
// internal/symbol (which interns the language's 64-bit `symbol` literal
// type) — scope.VarSymbol and Scope here are the var_symbol/func_scope/class_scope
// family of spec.md section 3.3, a different "symbol" concept that
// happens to share the name.
package scope

import (
	"github.com/dachsc/dachs/internal/ast"
	"github.com/dachsc/dachs/internal/types"
)

// ID is a stable, process-unique handle for a scope, mirroring ast.NodeID:
// Node.ScopeID and types.ClassRef hold these so ast and types never need a
// pointer back into this package, avoiding an import cycle.
type ID int64

// InvalidID is never a valid scope reference.
const InvalidID ID = 0

// Kind discriminates the scope-tree node variants of spec.md section 3.4.
type Kind uint8

const (
	InvalidKind Kind = iota
	Global
	Local
	Func
	Class
)

// VarSymbol is spec.md's `var_symbol{name, ast_node_weak, immutable,
// is_global, type}`.
type VarSymbol struct {
	Name       string
	Node       ast.NodeID // weak reference to the defining decl/param node
	Immutable  bool
	IsGlobal   bool
	Type       types.Type
	DeclOrder  int // instance-var or parameter position, stable ordering
}

// Scope is one node of the scope tree. Fields not meaningful for a given
// Kind are simply unused, the same flat-struct convention internal/ast
// uses for its own tagged sum.
type Scope struct {
	ID     ID
	Kind   Kind
	Parent ID // InvalidID for Global

	// Global-only.
	Funcs     []ID // func_scope ids
	Classes   []ID // class_scope ids
	Constants []*VarSymbol
	CastFuncs map[castKey]ID // registered converters, keyed by (from, to), first-insertion wins
	UnitNode  ast.NodeID     // weak back-ref to the compilation-unit node

	// Local-only.
	Children []ID
	Locals   []*VarSymbol
	Lambdas  []ID // unnamed func_scope ids defined directly in this local scope

	// Func-only (also true of lambda func scopes, which set Kind == Func).
	Name          string
	Node          ast.NodeID // weak ref to the FuncDef/Lambda node
	Body          ID         // the function's top-level local scope
	BodyNode      ast.NodeID // weak ref to the body StmtBlock/BlockExpr node
	Params        []*VarSymbol
	ReturnType    types.Type
	HasReturnType bool
	IsMemberFunc  bool
	IsConst       bool
	Captures      []CaptureRef // stable insertion order, spec.md section 4.3

	// Class-only.
	ClassName    string
	ClassNode    ast.NodeID
	MemberFuncs  []ID // func_scope ids
	InstanceVars []*VarSymbol // ordered; offsets are index into this slice
}

// CaptureRef names one variable captured by a lambda, in the order it was
// first referenced (spec.md section 4.3: "stable insertion order").
type CaptureRef struct {
	Name string
	Sym  *VarSymbol
}

type castKey struct {
	from, to string // types.Type.String(), since Type is not comparable with aggregates
}

// Tree owns every Scope by ID, the same arena-by-index pattern
// internal/ast.Tree uses for AST nodes, for the same reason: scopes hold
// weak references to AST nodes and vice versa, so neither side needs
// shared/weak pointers or reference counting.
type Tree struct {
	scopes []*Scope
	Global ID
}

// NewTree creates an empty scope tree with its global scope already
// allocated.
func NewTree() *Tree {
	t := &Tree{scopes: []*Scope{nil}} // index 0 reserved for InvalidID
	g := t.alloc(Global, InvalidID)
	g.CastFuncs = make(map[castKey]ID)
	t.Global = g.ID
	return t
}

func (t *Tree) alloc(kind Kind, parent ID) *Scope {
	s := &Scope{ID: ID(len(t.scopes)), Kind: kind, Parent: parent}
	t.scopes = append(t.scopes, s)
	return s
}

// Scope returns the scope for id, panicking on an invalid id — a lookup
// failure here is always an internal-compiler-error, never user input.
func (t *Tree) Scope(id ID) *Scope {
	if id <= InvalidID || int(id) >= len(t.scopes) {
		panic("scope: invalid scope id")
	}
	return t.scopes[id]
}

// NewLocal allocates a child local scope under parent and registers it as
// one of parent's children (spec.md section 4.2: "a statement block
// creates a new local scope").
func (t *Tree) NewLocal(parent ID) ID {
	s := t.alloc(Local, parent)
	p := t.Scope(parent)
	switch p.Kind {
	case Local:
		p.Children = append(p.Children, s.ID)
	case Func:
		// The function's own body scope is wired by the caller via
		// Scope(funcID).Body = id, not through Children.
	default:
		panic("scope: local scope parent must be local or func")
	}
	return s.ID
}

// NewFunc allocates a function scope. If parent is the global scope, the
// caller is responsible for also registering a global function symbol
// and constant (spec.md section 4.2).
func (t *Tree) NewFunc(parent ID, name string, node ast.NodeID, isMember bool) ID {
	s := t.alloc(Func, parent)
	s.Name = name
	s.Node = node
	s.IsMemberFunc = isMember
	switch p := t.Scope(parent); p.Kind {
	case Global:
		p.Funcs = append(p.Funcs, s.ID)
	case Class:
		p.MemberFuncs = append(p.MemberFuncs, s.ID)
	case Local:
		p.Lambdas = append(p.Lambdas, s.ID)
	}
	return s.ID
}

// NewClass allocates a class scope under the global scope.
func (t *Tree) NewClass(name string, node ast.NodeID) ID {
	s := t.alloc(Class, t.Global)
	s.ClassName = name
	s.ClassNode = node
	g := t.Scope(t.Global)
	g.Classes = append(g.Classes, s.ID)
	return s.ID
}

// DefineLocal appends a var symbol to a local scope's vector, applying the
// spec.md section 3.4 shadowing rule: shadowing an existing name already
// visible in an *enclosing local scope* (not global) produces a warning,
// which the caller surfaces via the diag package; shadowing a global is
// silent. DefineLocal itself only reports whether an enclosing local
// shadow occurred — it never rejects the definition.
func (t *Tree) DefineLocal(scopeID ID, sym *VarSymbol) (shadowedLocal bool) {
	s := t.Scope(scopeID)
	if s.Kind != Local {
		panic("scope: DefineLocal on non-local scope")
	}
	if _, found := t.lookupLocalChain(s.Parent, sym.Name); found {
		shadowedLocal = true
	}
	s.Locals = append(s.Locals, sym)
	return shadowedLocal
}

func (t *Tree) lookupLocalChain(from ID, name string) (*VarSymbol, bool) {
	for id := from; id != InvalidID; {
		s := t.Scope(id)
		switch s.Kind {
		case Local:
			for _, v := range s.Locals {
				if v.Name == name {
					return v, true
				}
			}
			id = s.Parent
		case Func:
			for _, v := range s.Params {
				if v.Name == name {
					return v, true
				}
			}
			id = s.Parent
		default:
			return nil, false
		}
	}
	return nil, false
}

// Resolve walks outward from scopeID looking for name, per spec.md
// section 4.3 ("resolves variable references by walking scopes
// outward"). It checks locals, then function parameters, then (at global)
// constants. It does not consider instance variables or member functions
// — those resolve through the object.name rules in internal/sema.
func (t *Tree) Resolve(scopeID ID, name string) (*VarSymbol, bool) {
	if sym, ok := t.lookupLocalChain(scopeID, name); ok {
		return sym, true
	}
	g := t.Scope(t.Global)
	for _, v := range g.Constants {
		if v.Name == name {
			return v, true
		}
	}
	return nil, false
}

// ResolveOwner is Resolve, but additionally returns the scope id (a Local
// or Func scope, or the global scope for a global constant) that owns the
// returned symbol. The semantic analyzer uses the owner id to tell whether
// a name crossed a function boundary on its way to resolving — the
// definition of a lambda capture (spec.md section 4.3).
func (t *Tree) ResolveOwner(scopeID ID, name string) (*VarSymbol, ID, bool) {
	for id := scopeID; id != InvalidID; {
		s := t.Scope(id)
		switch s.Kind {
		case Local:
			for _, v := range s.Locals {
				if v.Name == name {
					return v, id, true
				}
			}
			id = s.Parent
		case Func:
			for _, v := range s.Params {
				if v.Name == name {
					return v, id, true
				}
			}
			id = s.Parent
		case Class:
			// A member function's Parent is its owning class scope
			// (Tree.NewFunc); reaching one here means the walk started
			// inside a member function body and fell through its params,
			// so an `@name` still unresolved is an instance variable.
			for _, v := range s.InstanceVars {
				if v.Name == name {
					return v, id, true
				}
			}
			id = InvalidID
		default:
			id = InvalidID
		}
	}
	g := t.Scope(t.Global)
	for _, v := range g.Constants {
		if v.Name == name {
			return v, t.Global, true
		}
	}
	return nil, InvalidID, false
}

// EnclosingFunc walks up from id to the nearest Func-kind ancestor
// (inclusive), or InvalidID if id is not nested under any function (e.g.
// it is the global scope itself).
func (t *Tree) EnclosingFunc(id ID) ID {
	for cur := id; cur != InvalidID; {
		s := t.Scope(cur)
		if s.Kind == Func {
			return cur
		}
		cur = s.Parent
	}
	return InvalidID
}

// RegisterCast records a converter function under (from, to) in the
// global cast_funcs table, first-insertion-wins (spec.md section 4.3:
// "registered converter function ... keyed by (from, to)"). It reports
// whether the registration happened (false if a converter for this pair
// already existed).
func (t *Tree) RegisterCast(from, to types.Type, fn ID) bool {
	g := t.Scope(t.Global)
	key := castKey{from: from.String(), to: to.String()}
	if _, exists := g.CastFuncs[key]; exists {
		return false
	}
	g.CastFuncs[key] = fn
	return true
}

// LookupCast finds a registered converter for (from, to).
func (t *Tree) LookupCast(from, to types.Type) (ID, bool) {
	g := t.Scope(t.Global)
	id, ok := g.CastFuncs[castKey{from: from.String(), to: to.String()}]
	return id, ok
}

// AddCapture appends name to fn's capture list if not already present,
// preserving stable insertion order (spec.md section 4.3).
func (t *Tree) AddCapture(fn ID, name string, sym *VarSymbol) {
	s := t.Scope(fn)
	for _, c := range s.Captures {
		if c.Name == name {
			return
		}
	}
	s.Captures = append(s.Captures, CaptureRef{Name: name, Sym: sym})
}

// OverloadEqual implements spec.md section 3.4's func_scope equality:
// "same name AND same parameter arity AND structurally equal parameter
// types after template substitution."
func OverloadEqual(a, b *Scope) bool {
	if a.Name != b.Name || len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if !types.Equal(a.Params[i].Type, b.Params[i].Type) {
			return false
		}
	}
	return true
}

// ClassRefOf converts a class scope id to the weak types.ClassRef used to
// embed class references inside a types.Type without an import cycle.
func ClassRefOf(id ID) types.ClassRef { return types.ClassRef(id) }

// ClassByRef recovers the class scope id from a types.ClassRef.
func (t *Tree) ClassByRef(ref types.ClassRef) ID { return ID(ref) }

// LookupClassByName finds a class scope by name in the global scope.
func (t *Tree) LookupClassByName(name string) (ID, bool) {
	g := t.Scope(t.Global)
	for _, id := range g.Classes {
		if t.Scope(id).ClassName == name {
			return id, true
		}
	}
	return InvalidID, false
}

// LookupFuncsByName returns every func_scope directly registered under
// scopeID (global or class) with the given name — the overload candidate
// set before arity/type filtering (spec.md section 4.3).
func (t *Tree) LookupFuncsByName(scopeID ID, name string) []ID {
	s := t.Scope(scopeID)
	var pool []ID
	switch s.Kind {
	case Global:
		pool = s.Funcs
	case Class:
		pool = s.MemberFuncs
	default:
		return nil
	}
	var out []ID
	for _, id := range pool {
		if t.Scope(id).Name == name {
			out = append(out, id)
		}
	}
	return out
}

// IsBuiltinName reports whether name is reserved for built-in
// registration (spec.md section 3.4: "a name prefixed __builtin_ is
// rejected when defined outside built-in registration").
func IsBuiltinName(name string) bool {
	return len(name) >= len("__builtin_") && name[:len("__builtin_")] == "__builtin_"
}
