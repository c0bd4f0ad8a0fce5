package ir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dachsc/dachs/internal/ir"
)

func TestMallocCallProducesPointerType(t *testing.T) {
	m := ir.NewModule("test")
	fn := m.NewFunction("f", nil, ir.I64Type)
	b := fn.NewBlock("entry")

	n := ir.ConstInt(ir.I64Type, 3)
	ptr := b.NewMallocCall(ir.I64Type, n)

	require.True(t, ptr.Type.IsPointer())
	assert.True(t, ir.Equal(ir.I64Type, ptr.Type.Elem()))
	assert.Len(t, b.Instrs, 1)
}

func TestAllocPhiJoinsZeroAndNonzeroBlocks(t *testing.T) {
	m := ir.NewModule("test")
	fn := m.NewFunction("f", nil, ir.I64Type)
	entry := fn.NewBlock("entry")
	nonzero := fn.NewBlock("alloc.nonzero")
	merge := fn.NewBlock("alloc.merge")

	n := ir.ConstInt(ir.I64Type, 5)
	cond := entry.NewICmpEqZero(n)
	entry.NewCondBr(cond, merge, nonzero)

	ptrTy := ir.NewPointer(ir.I64Type)
	allocated := nonzero.NewMallocCall(ir.I64Type, n)
	nonzero.NewBr(merge)

	phi := ir.NewAllocPhi(merge, ptrTy, entry, nonzero, allocated)

	assert.True(t, entry.Terminated())
	assert.True(t, nonzero.Terminated())
	assert.True(t, ir.Equal(ptrTy, phi.Type))
	require.Len(t, merge.Instrs, 1)
	assert.Len(t, merge.Instrs[0].Incoming, 2)
}

func TestReallocCallBitCastsAroundExternalCall(t *testing.T) {
	m := ir.NewModule("test")
	reallocFn := m.DeclareExternal("realloc", []ir.Type{ir.NewPointer(ir.I8Type), ir.I64Type}, ir.NewPointer(ir.I8Type))
	fn := m.NewFunction("f", nil, ir.I64Type)
	b := fn.NewBlock("entry")

	ptr := b.NewMallocCall(ir.I64Type, ir.ConstInt(ir.I64Type, 1))
	grown := b.NewReallocCall(reallocFn, ptr, ir.ConstInt(ir.I64Type, 16))

	assert.True(t, ir.Equal(ptr.Type, grown.Type))
}

func TestGlobalStringPointerType(t *testing.T) {
	m := ir.NewModule("test")
	v := m.NewGlobalString("str.0", "hi")
	assert.True(t, ir.Equal(ir.NewPointer(ir.I8Type), v.Type))
	require.Len(t, m.Globals, 1)
	assert.Equal(t, "hi", m.Globals[0].Str)
}

func TestFuncPtrTypeString(t *testing.T) {
	ft := ir.NewFuncPtr([]ir.Type{ir.I64Type, ir.I64Type}, ir.I64Type)
	assert.Equal(t, "i64 (i64, i64)*", ft.String())
}
