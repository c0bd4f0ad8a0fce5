package irtypes_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dachsc/dachs/internal/ir"
	"github.com/dachsc/dachs/internal/irtypes"
	"github.com/dachsc/dachs/internal/scope"
	"github.com/dachsc/dachs/internal/types"
)

func TestEmitBuiltinScalars(t *testing.T) {
	scp := scope.NewTree()
	e := irtypes.New(scp)

	cases := []struct {
		src  types.Type
		want ir.Type
	}{
		{types.IntType, ir.I64Type},
		{types.UintType, ir.I64Type},
		{types.SymbolType, ir.I64Type},
		{types.FloatType, ir.DoubleType},
		{types.CharType, ir.I8Type},
		{types.BoolType, ir.I1Type},
	}
	for _, c := range cases {
		got, err := e.Emit(c.src)
		require.NoError(t, err)
		assert.True(t, ir.Equal(c.want, got))
	}

	str, err := e.Emit(types.StringType)
	require.NoError(t, err)
	assert.True(t, ir.Equal(ir.NewPointer(ir.I8Type), str))
}

func TestEmitClassMemoizesStruct(t *testing.T) {
	scp := scope.NewTree()
	clsID := scp.NewClass("Point", 0)
	cs := scp.Scope(clsID)
	cs.InstanceVars = []*scope.VarSymbol{
		{Name: "x", Type: types.IntType},
		{Name: "y", Type: types.IntType},
	}
	ct := types.NewClass(scope.ClassRefOf(clsID))

	e := irtypes.New(scp)
	first, err := e.Emit(ct)
	require.NoError(t, err)
	second, err := e.Emit(ct)
	require.NoError(t, err)

	require.True(t, first.IsPointer())
	assert.Equal(t, first.Elem().Name(), second.Elem().Name())
	assert.Len(t, first.Elem().Fields(), 2)
}

func TestEmitTupleAndArray(t *testing.T) {
	scp := scope.NewTree()
	e := irtypes.New(scp)

	tup, err := e.Emit(types.NewTuple(types.IntType, types.FloatType))
	require.NoError(t, err)
	require.True(t, tup.IsPointer())
	assert.Len(t, tup.Elem().Fields(), 2)

	arr, err := e.Emit(types.NewArray(types.IntType, 4, true))
	require.NoError(t, err)
	require.True(t, arr.IsPointer())
	assert.True(t, ir.Equal(ir.I64Type, arr.Elem()))
}

func TestEmitAllocStripsAggregatePointer(t *testing.T) {
	scp := scope.NewTree()
	e := irtypes.New(scp)

	allocTy, err := e.EmitAlloc(types.NewTuple(types.IntType, types.IntType))
	require.NoError(t, err)
	assert.Equal(t, ir.Struct, allocTy.Kind())

	scalarAllocTy, err := e.EmitAlloc(types.IntType)
	require.NoError(t, err)
	assert.True(t, ir.Equal(ir.I64Type, scalarAllocTy))
}

func TestEmitQualifiedIsAnError(t *testing.T) {
	scp := scope.NewTree()
	e := irtypes.New(scp)
	_, err := e.Emit(types.NewQualified(types.IntType))
	assert.Error(t, err)
}
