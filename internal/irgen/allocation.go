package irgen

import (
	"github.com/dachsc/dachs/internal/ir"
	"github.com/dachsc/dachs/internal/types"
)

// allocationEmitter is a direct port of the original codegen's
// allocation_emitter: malloc/realloc with a zero-size fast path and, for a
// runtime-valued count, a conditional region that guarantees exactly one
// allocation site executes (spec.md section 4.5).
type allocationEmitter struct {
	fg          *funcGen
	reallocFunc *ir.Function
}

func newAllocationEmitter(fg *funcGen) *allocationEmitter {
	return &allocationEmitter{fg: fg}
}

func (a *allocationEmitter) reallocFn() *ir.Function {
	if a.reallocFunc == nil {
		a.reallocFunc = a.fg.module.DeclareExternal(
			"realloc",
			[]ir.Type{ir.NewPointer(ir.I8Type), ir.I64Type},
			ir.NewPointer(ir.I8Type),
		)
	}
	return a.reallocFunc
}

// mallocConst emits `malloc(elem_type, n)` for a compile-time-known count.
func (a *allocationEmitter) mallocConst(elemType types.Type, n int64) (ir.Value, error) {
	elemTy, err := a.fg.types.EmitAlloc(elemType)
	if err != nil {
		return ir.Value{}, err
	}
	if n == 0 {
		return ir.ConstNull(ir.NewPointer(elemTy)), nil
	}
	return a.fg.cur.NewMallocCall(elemTy, ir.ConstInt(ir.I64Type, n)), nil
}

// mallocValue emits `malloc(elem_type, n_value)`. When n_value is a
// constant it dispatches to mallocConst (spec.md section 4.5: "if n_value
// is a constant, dispatch to the constant form"); otherwise it builds the
// zero/nonzero branch and joins with a phi.
func (a *allocationEmitter) mallocValue(elemType types.Type, n ir.Value) (ir.Value, error) {
	if n.IsConstant() {
		return a.mallocConst(elemType, n.ConstValue())
	}

	elemTy, err := a.fg.types.EmitAlloc(elemType)
	if err != nil {
		return ir.Value{}, err
	}
	ptrTy := ir.NewPointer(elemTy)

	zeroBlock := a.fg.cur
	cond := zeroBlock.NewICmpEqZero(n)
	nonzero := a.fg.fn.NewBlock("alloc.nonzero")
	merge := a.fg.fn.NewBlock("alloc.merge")
	zeroBlock.NewCondBr(cond, merge, nonzero)

	a.fg.cur = nonzero
	allocated := nonzero.NewMallocCall(elemTy, n)
	nonzero.NewBr(merge)

	a.fg.cur = merge
	return ir.NewAllocPhi(merge, ptrTy, zeroBlock, nonzero, allocated), nil
}

// malloc is `malloc(elem_type)`, the single-element form.
func (a *allocationEmitter) malloc(elemType types.Type) (ir.Value, error) {
	return a.mallocConst(elemType, 1)
}

// reallocConst emits a constant-count realloc; n==0 returns typed null
// without calling realloc (spec.md section 4.5).
func (a *allocationEmitter) reallocConst(ptr ir.Value, elemSize int64, n int64) (ir.Value, error) {
	if n == 0 {
		return ir.ConstNull(ptr.Type), nil
	}
	byteSize := ir.ConstInt(ir.I64Type, n*elemSize)
	return a.fg.cur.NewReallocCall(a.reallocFn(), ptr, byteSize), nil
}

// reallocValue is the runtime-count analogue of mallocValue: a constant
// size_value dispatches to reallocConst, otherwise the same zero/nonzero
// branch-and-phi shape is built around the realloc call.
func (a *allocationEmitter) reallocValue(ptr ir.Value, elemSize int64, n ir.Value) (ir.Value, error) {
	if n.IsConstant() {
		return a.reallocConst(ptr, elemSize, n.ConstValue())
	}

	zeroBlock := a.fg.cur
	cond := zeroBlock.NewICmpEqZero(n)
	nonzero := a.fg.fn.NewBlock("alloc.nonzero")
	merge := a.fg.fn.NewBlock("alloc.merge")
	zeroBlock.NewCondBr(cond, merge, nonzero)

	a.fg.cur = nonzero
	byteSize := nonzero.NewBinOp("*", ir.I64Type, n, ir.ConstInt(ir.I64Type, elemSize))
	reallocated := nonzero.NewReallocCall(a.reallocFn(), ptr, byteSize)
	nonzero.NewBr(merge)

	a.fg.cur = merge
	return ir.NewAllocPhi(merge, ptr.Type, zeroBlock, nonzero, reallocated), nil
}
