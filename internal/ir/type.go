// Package ir is a minimal in-module intermediate representation standing in
// for a real backend library (spec.md section 1 puts code generation to an
// actual object-code/LLVM backend out of scope, and none of the retrieved
// example repos bind to one). It specifies exactly the operations
// internal/irgen's allocation and control-flow emitter asks of a backend:
// scalar/pointer/array/struct/function-pointer types, a basic-block/
// instruction model, and phi-joined control flow.
//
// The shape mirrors the teacher's value-semantic, kind-tagged internal/types
// package rather than a mutable pointer graph, since a Type here (unlike an
// llvm.Type) never needs identity-based lookup beyond the emitter's own
// class-struct memoization cache.
package ir

import "strconv"

// TypeKind discriminates the disjoint IR type variants spec.md section 4.4
// emits into.
type TypeKind uint8

const (
	Invalid TypeKind = iota
	I1
	I8
	I64
	Double
	Pointer
	Array
	Struct
	FuncPtr
)

// Type is an immutable, value-semantic IR type.
type Type struct {
	kind   TypeKind
	elem   *Type  // Pointer/Array element
	size   int64  // Array element count
	name   string // Struct: optional name, "" for an anonymous (tuple/closure) struct
	fields []Type // Struct fields in order
	params []Type // FuncPtr parameter types
	ret    *Type  // FuncPtr return type
}

var (
	I1Type     = Type{kind: I1}
	I8Type     = Type{kind: I8}
	I64Type    = Type{kind: I64}
	DoubleType = Type{kind: Double}
)

func NewPointer(elem Type) Type { return Type{kind: Pointer, elem: &elem} }

func NewArray(elem Type, size int64) Type {
	return Type{kind: Array, elem: &elem, size: size}
}

func NewStruct(name string, fields []Type) Type {
	return Type{kind: Struct, name: name, fields: append([]Type(nil), fields...)}
}

func NewFuncPtr(params []Type, ret Type) Type {
	return Type{kind: FuncPtr, params: append([]Type(nil), params...), ret: &ret}
}

func (t Type) Kind() TypeKind { return t.kind }
func (t Type) Elem() Type {
	if t.elem == nil {
		return Type{}
	}
	return *t.elem
}
func (t Type) ArraySize() int64    { return t.size }
func (t Type) Name() string        { return t.name }
func (t Type) Fields() []Type      { return t.fields }
func (t Type) Params() []Type      { return t.params }
func (t Type) Return() Type {
	if t.ret == nil {
		return Type{}
	}
	return *t.ret
}

// IsPointer reports whether t is a Pointer, which is the only IR type kind a
// malloc/realloc site or a GEP ever touches directly.
func (t Type) IsPointer() bool { return t.kind == Pointer }

func Equal(a, b Type) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case Invalid, I1, I8, I64, Double:
		return true
	case Pointer, Array:
		if a.size != b.size {
			return false
		}
		return Equal(a.Elem(), b.Elem())
	case Struct:
		if len(a.fields) != len(b.fields) {
			return false
		}
		for i := range a.fields {
			if !Equal(a.fields[i], b.fields[i]) {
				return false
			}
		}
		return true
	case FuncPtr:
		if len(a.params) != len(b.params) {
			return false
		}
		for i := range a.params {
			if !Equal(a.params[i], b.params[i]) {
				return false
			}
		}
		return Equal(a.Return(), b.Return())
	default:
		return false
	}
}

func (t Type) String() string {
	switch t.kind {
	case I1:
		return "i1"
	case I8:
		return "i8"
	case I64:
		return "i64"
	case Double:
		return "double"
	case Pointer:
		return t.Elem().String() + "*"
	case Array:
		return "[" + strconv.FormatInt(t.size, 10) + " x " + t.Elem().String() + "]"
	case Struct:
		if t.name != "" {
			return "%" + t.name
		}
		s := "{"
		for i, f := range t.fields {
			if i > 0 {
				s += ", "
			}
			s += f.String()
		}
		return s + "}"
	case FuncPtr:
		s := t.Return().String() + " ("
		for i, p := range t.params {
			if i > 0 {
				s += ", "
			}
			s += p.String()
		}
		return s + ")*"
	default:
		return "<invalid>"
	}
}
