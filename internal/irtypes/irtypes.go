// Package irtypes maps the source type lattice (internal/types) to
// internal/ir's low-level type model, per spec.md section 4.4. It mirrors
// the teacher-adjacent original_source/codegen/llvmir/type_ir_emitter.hpp
// one-for-one: a visitor keyed by types.Kind, with a memoized class-struct
// table so every reference to the same class scope shares one named struct
// instead of allocating a fresh anonymous one per use.
package irtypes

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/dachsc/dachs/internal/ir"
	"github.com/dachsc/dachs/internal/objhash"
	"github.com/dachsc/dachs/internal/scope"
	"github.com/dachsc/dachs/internal/types"
)

// Emitter holds the per-compilation-unit state the type-IR emitter needs:
// the scope tree, to resolve a class type's ClassRef back to its instance
// variables, and a memoized class-struct table so repeated references to
// the same class share one named struct.
type Emitter struct {
	scp        *scope.Tree
	classTable map[objhash.Hash]ir.Type
}

func New(scp *scope.Tree) *Emitter {
	return &Emitter{scp: scp, classTable: make(map[objhash.Hash]ir.Type)}
}

// Emit lowers a resolved source type to its IR representation (spec.md
// section 4.4's per-kind table).
func (e *Emitter) Emit(t types.Type) (ir.Type, error) {
	switch t.Kind() {
	case types.Int, types.Uint, types.Symbol:
		return ir.I64Type, nil
	case types.Float:
		return ir.DoubleType, nil
	case types.Char:
		return ir.I8Type, nil
	case types.Bool:
		return ir.I1Type, nil
	case types.String:
		return ir.NewPointer(ir.I8Type), nil
	case types.Class:
		return e.emitClass(t)
	case types.Tuple:
		return e.emitTuple(t)
	case types.Array:
		return e.emitArray(t)
	case types.Pointer:
		return e.emitPointer(t)
	case types.Function:
		return e.emitFunc(t)
	case types.GenericFunction:
		return e.emitGenericFunc(t)
	case types.Dict, types.Range:
		// spec.md section 4.4 gives no IR shape for dict/range. `for x in
		// range` is lowered directly from its AST by internal/irgen without
		// a range IR type; internal/irgen has no lowering for dict values,
		// so a dict type reaching this emitter is reported as an error.
		// Treated the same as Qualified rather than silently emitting
		// something wrong.
		return ir.Type{}, errors.Errorf("%s has no representable IR type at this layer", t)
	case types.Qualified:
		return ir.Type{}, errors.New("qualified types are not representable at the IR layer")
	case types.Template:
		return ir.Type{}, errors.Errorf("internal compilation error: unresolved template type reached the IR layer: %s", t)
	default:
		return ir.Type{}, errors.Errorf("internal compilation error: unrecognized type kind for %s", t)
	}
}

func (e *Emitter) emitClass(t types.Type) (ir.Type, error) {
	ref := t.ClassRef()
	key := objhash.Uint64(uint64(ref))
	if cached, ok := e.classTable[key]; ok {
		return cached, nil
	}

	clsID := e.scp.ClassByRef(ref)
	cs := e.scp.Scope(clsID)

	fields := make([]ir.Type, len(cs.InstanceVars))
	for i, v := range cs.InstanceVars {
		ft, err := e.Emit(v.Type)
		if err != nil {
			return ir.Type{}, errors.Wrapf(err, "instance variable %q of class %q", v.Name, cs.ClassName)
		}
		fields[i] = ft
	}

	result := ir.NewPointer(ir.NewStruct(fmt.Sprintf("class.%s", cs.ClassName), fields))
	e.classTable[key] = result
	return result, nil
}

func (e *Emitter) emitTuple(t types.Type) (ir.Type, error) {
	elems := t.TupleElems()
	fields := make([]ir.Type, len(elems))
	for i, et := range elems {
		ft, err := e.Emit(et)
		if err != nil {
			return ir.Type{}, errors.Wrapf(err, "tuple element %d", i)
		}
		fields[i] = ft
	}
	return ir.NewPointer(ir.NewStruct("", fields)), nil
}

func (e *Emitter) emitArray(t types.Type) (ir.Type, error) {
	elemT, err := e.Emit(t.Elem())
	if err != nil {
		return ir.Type{}, errors.Wrap(err, "array element type")
	}
	return ir.NewPointer(elemT), nil
}

func (e *Emitter) emitPointer(t types.Type) (ir.Type, error) {
	pointee := t.Elem()
	elemT, err := e.Emit(pointee)
	if err != nil {
		return ir.Type{}, errors.Wrap(err, "pointee type")
	}
	if pointee.IsAggregate() {
		// Aggregates already emit as a pointer (class/tuple/array are
		// pointer-represented; dict/range have no IR type and fail in Emit
		// above); pointer(aggregate) stays that one level.
		if !elemT.IsPointer() {
			return ir.Type{}, errors.Errorf("internal compilation error: aggregate %s did not emit as a pointer", pointee)
		}
		return elemT, nil
	}
	return ir.NewPointer(elemT), nil
}

func (e *Emitter) emitFunc(t types.Type) (ir.Type, error) {
	ret := t.FuncReturn()
	if ret == nil {
		return ir.Type{}, errors.New("internal compilation error: function type missing a return type")
	}
	retT, err := e.Emit(*ret)
	if err != nil {
		return ir.Type{}, errors.Wrap(err, "function return type")
	}
	params := t.FuncParams()
	paramTs := make([]ir.Type, len(params))
	for i, p := range params {
		pt, err := e.Emit(p)
		if err != nil {
			return ir.Type{}, errors.Wrapf(err, "function parameter %d", i)
		}
		paramTs[i] = pt
	}
	return ir.NewFuncPtr(paramTs, retT), nil
}

// emitGenericFunc lowers a lambda/closure value's type to a pointer to its
// capture struct, or a pointer to an empty struct when it captures nothing
// (spec.md section 4.4).
func (e *Emitter) emitGenericFunc(t types.Type) (ir.Type, error) {
	captures := t.Captures()
	fields := make([]ir.Type, len(captures))
	for i, c := range captures {
		ft, err := e.Emit(c)
		if err != nil {
			return ir.Type{}, errors.Wrapf(err, "capture %d", i)
		}
		fields[i] = ft
	}
	return ir.NewPointer(ir.NewStruct("", fields)), nil
}

// EmitAlloc returns the value type to malloc for T: strips one pointer
// level off an aggregate (since the aggregate's own emitted type is already
// a pointer to it), leaving scalars (string included), pointers and function
// types unchanged (spec.md section 4.4, emit_alloc_type). A generic-function
// (closure) type is stripped to its capture struct like an aggregate.
func (e *Emitter) EmitAlloc(t types.Type) (ir.Type, error) {
	emitted, err := e.Emit(t)
	if err != nil {
		return ir.Type{}, err
	}
	switch t.Kind() {
	case types.Pointer, types.Function, types.String:
		return emitted, nil
	default:
		if emitted.IsPointer() {
			return emitted.Elem(), nil
		}
		return emitted, nil
	}
}

// EmitAllocFixedArray lowers a fixed-size array type directly to an IR
// [N x elem] value type. Nothing in internal/irgen calls it; irgen
// allocates arrays through malloc.
func (e *Emitter) EmitAllocFixedArray(elem types.Type, size int64) (ir.Type, error) {
	var elemT ir.Type
	var err error
	if elem.IsAggregate() {
		elemT, err = e.Emit(elem)
	} else {
		elemT, err = e.EmitAlloc(elem)
	}
	if err != nil {
		return ir.Type{}, err
	}
	return ir.NewArray(elemT, size), nil
}
