// Package types implements the type lattice of spec.md section 3.5: builtin
// scalars, classes, tuples, arrays, pointers, functions, generic-functions,
// dicts, ranges, qualified (maybe) types and unresolved template
// parameters.
//
// Types are value-semantic and compared by shape with Equal (spec.md
// section 3.5 "Lifecycle"); constructors build fresh values and there is
// no interning table. The design mirrors the teacher's ValueType enum in gql/value_type.go
// generalized from a flat byte enum to a small recursive value, since the
// Dachs type lattice (unlike GQL's row-value types) needs element/parameter
// nesting.
package types

// Kind discriminates the disjoint type variants.
type Kind uint8

const (
	Invalid Kind = iota
	Int
	Uint
	Float
	Char
	Bool
	String
	Symbol
	Class
	Tuple
	Array
	Pointer
	Function
	GenericFunction
	Dict
	Range
	Qualified
	Template
)

// ClassRef is a weak, by-value reference to a class_scope. The concrete
// scope tree lives in internal/scope; types stays independent of it (and of
// internal/ast) so that scope and ast can both depend on types without a
// cycle. internal/scope resolves a ClassRef back to its class scope id
// via scope.Tree.ClassByRef.
type ClassRef int64

// TemplateRef names an unresolved template parameter, bound to the
// parameter's AST node id (internal/ast.NodeID, stored here as a plain
// int64 for the same reason as ClassRef).
type TemplateRef int64

// Type is an immutable, value-semantic type. The zero Type is Invalid.
type Type struct {
	kind Kind

	// Class, Tuple, Array, Dict, Range, Qualified, Pointer, Function,
	// GenericFunction all nest further Types; which fields are meaningful
	// depends on kind.
	class   ClassRef
	tmpl    TemplateRef
	elem    *Type   // Array/Pointer/Qualified element; Dict value
	key     *Type   // Dict key
	begin   *Type   // Range begin
	end     *Type   // Range end
	incl    bool    // Range: inclusive end (`...` vs `..`)
	params  []Type  // Tuple elements; Function/GenericFunction param types; Class instance-type-args
	ret     *Type   // Function/GenericFunction optional return type
	size    int64   // Array fixed size
	hasSize bool    // Array: size is known at compile time
	capture []Type  // GenericFunction: captured variable types, insertion order
	funcID  int64   // GenericFunction: weak ref to the underlying func_scope id
}

// Builtin singletons (spec.md section 3.5 "built-in types are singletons").
var (
	IntType    = Type{kind: Int}
	UintType   = Type{kind: Uint}
	FloatType  = Type{kind: Float}
	CharType   = Type{kind: Char}
	BoolType   = Type{kind: Bool}
	StringType = Type{kind: String}
	SymbolType = Type{kind: Symbol}
	Unresolved = Type{kind: Invalid}
)

// Kind returns the type's discriminant.
func (t Type) Kind() Kind { return t.kind }

// IsBuiltin matches a builtin type by its printed name, per spec.md
// "is_builtin(name) matches by builtin tag name".
func (t Type) IsBuiltin(name string) bool {
	if k, ok := builtinNames[name]; ok {
		return t.kind == k
	}
	return false
}

var builtinNames = map[string]Kind{
	"int": Int, "uint": Uint, "float": Float, "char": Char,
	"bool": Bool, "string": String, "symbol": Symbol,
}

// IsTemplate reports whether t, or any type nested within it, is an
// unresolved template parameter.
func (t Type) IsTemplate() bool {
	switch t.kind {
	case Template:
		return true
	case Array, Pointer, Qualified:
		return t.elem != nil && t.elem.IsTemplate()
	case Dict:
		return (t.key != nil && t.key.IsTemplate()) || (t.elem != nil && t.elem.IsTemplate())
	case Range:
		return (t.begin != nil && t.begin.IsTemplate()) || (t.end != nil && t.end.IsTemplate())
	case Tuple, Class:
		for _, p := range t.params {
			if p.IsTemplate() {
				return true
			}
		}
		return false
	case Function, GenericFunction:
		for _, p := range t.params {
			if p.IsTemplate() {
				return true
			}
		}
		return t.ret != nil && t.ret.IsTemplate()
	default:
		return false
	}
}

// IsAggregate reports whether t is always passed by pointer at the IR layer
// (spec.md glossary: "Aggregate type").
func (t Type) IsAggregate() bool {
	switch t.kind {
	case Tuple, Array, Dict, Class, Range:
		return true
	default:
		return false
	}
}

// --- constructors ---

// NewClass builds a class type referencing the given class scope, with
// optional instance-type arguments (for generic classes parameterized over
// instance variable types, per spec.md section 1 "parametric template-like
// generics ... over class instance variables").
func NewClass(ref ClassRef, instanceArgs ...Type) Type {
	return Type{kind: Class, class: ref, params: instanceArgs}
}

// ClassRef returns the class this type references. Valid only if Kind()==Class.
func (t Type) ClassRef() ClassRef { return t.class }

// ClassInstanceArgs returns the instance-type arguments of a generic class.
func (t Type) ClassInstanceArgs() []Type { return t.params }

// NewTuple builds a tuple type from its ordered element types.
func NewTuple(elems ...Type) Type {
	return Type{kind: Tuple, params: elems}
}

// TupleElems returns a tuple's element types in order.
func (t Type) TupleElems() []Type { return t.params }

// NewArray builds an array type. size/hasSize capture the optional
// compile-time fixed size (spec.md section 3.2 "array (element + optional
// fixed size)").
func NewArray(elem Type, size int64, hasSize bool) Type {
	e := elem
	return Type{kind: Array, elem: &e, size: size, hasSize: hasSize}
}

// Elem returns the element type of an array, pointer, qualified, or the
// value type of a dict.
func (t Type) Elem() Type {
	if t.elem == nil {
		return Unresolved
	}
	return *t.elem
}

// ArraySize returns the array's compile-time size and whether it is known.
func (t Type) ArraySize() (int64, bool) { return t.size, t.hasSize }

// NewPointer builds a pointer-to-T type.
func NewPointer(pointee Type) Type {
	e := pointee
	return Type{kind: Pointer, elem: &e}
}

// NewFunction builds a concrete (non-generic) function type.
func NewFunction(params []Type, ret *Type) Type {
	return Type{kind: Function, params: params, ret: ret}
}

// NewGenericFunction builds a generic-function type wrapping a func_scope
// (weak reference by id) plus its captured-environment descriptor
// (spec.md section 3.5: "generic-function (weak reference to function
// scope + captured environment descriptor)").
func NewGenericFunction(funcID int64, params []Type, ret *Type, captures []Type) Type {
	return Type{kind: GenericFunction, funcID: funcID, params: params, ret: ret, capture: captures}
}

// FuncParams returns a function or generic-function's parameter types.
func (t Type) FuncParams() []Type { return t.params }

// FuncReturn returns a function or generic-function's return type, or nil
// when the function returns nothing (a `proc`).
func (t Type) FuncReturn() *Type { return t.ret }

// FuncID returns the weak func_scope reference of a generic-function type.
func (t Type) FuncID() int64 { return t.funcID }

// Captures returns the capture descriptor of a generic-function type, in
// insertion order.
func (t Type) Captures() []Type { return t.capture }

// NewDict builds a dict(key, value) type.
func NewDict(key, value Type) Type {
	k, v := key, value
	return Type{kind: Dict, key: &k, elem: &v}
}

// DictKey returns a dict's key type.
func (t Type) DictKey() Type {
	if t.key == nil {
		return Unresolved
	}
	return *t.key
}

// NewRange builds a range(begin, end) type; inclusive marks `...` vs `..`.
func NewRange(begin, end Type, inclusive bool) Type {
	b, e := begin, end
	return Type{kind: Range, begin: &b, end: &e, incl: inclusive}
}

// RangeBounds returns a range's begin/end element type and inclusivity.
func (t Type) RangeBounds() (begin, end Type, inclusive bool) {
	if t.begin == nil || t.end == nil {
		return Unresolved, Unresolved, false
	}
	return *t.begin, *t.end, t.incl
}

// NewQualified builds a `?` (maybe) qualified type.
func NewQualified(inner Type) Type {
	e := inner
	return Type{kind: Qualified, elem: &e}
}

// NewTemplate builds an unresolved template parameter type bound to a
// parameter's AST node id.
func NewTemplate(ref TemplateRef) Type {
	return Type{kind: Template, tmpl: ref}
}

// TemplateRef returns the parameter node this template parameter is bound
// to. Valid only if Kind()==Template.
func (t Type) TemplateRef() TemplateRef { return t.tmpl }

// Equal reports whether two types are structurally identical. Used by
// overload equality (spec.md section 3.4) after template substitution.
func Equal(a, b Type) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case Class:
		if a.class != b.class || len(a.params) != len(b.params) {
			return false
		}
		for i := range a.params {
			if !Equal(a.params[i], b.params[i]) {
				return false
			}
		}
		return true
	case Tuple:
		if len(a.params) != len(b.params) {
			return false
		}
		for i := range a.params {
			if !Equal(a.params[i], b.params[i]) {
				return false
			}
		}
		return true
	case Array:
		if a.hasSize != b.hasSize || (a.hasSize && a.size != b.size) {
			return false
		}
		return Equal(a.Elem(), b.Elem())
	case Pointer, Qualified:
		return Equal(a.Elem(), b.Elem())
	case Dict:
		return Equal(a.DictKey(), b.DictKey()) && Equal(a.Elem(), b.Elem())
	case Range:
		ab, ae, ai := a.RangeBounds()
		bb, be, bi := b.RangeBounds()
		return ai == bi && Equal(ab, bb) && Equal(ae, be)
	case Function, GenericFunction:
		if len(a.params) != len(b.params) {
			return false
		}
		for i := range a.params {
			if !Equal(a.params[i], b.params[i]) {
				return false
			}
		}
		if (a.ret == nil) != (b.ret == nil) {
			return false
		}
		if a.ret != nil && !Equal(*a.ret, *b.ret) {
			return false
		}
		return true
	case Template:
		return a.tmpl == b.tmpl
	default:
		return true // scalar kinds: kind equality is sufficient
	}
}

// String renders a type for diagnostics and the `__type` pseudo-member
// (spec.md section 4.3).
func (t Type) String() string {
	return render(t)
}
