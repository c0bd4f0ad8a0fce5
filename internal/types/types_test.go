package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dachsc/dachs/internal/types"
)

func TestBuiltinSingletons(t *testing.T) {
	assert.True(t, types.IntType.IsBuiltin("int"))
	assert.False(t, types.IntType.IsBuiltin("uint"))
	assert.Equal(t, "int", types.IntType.String())
}

func TestIsTemplate(t *testing.T) {
	tmpl := types.NewTemplate(types.TemplateRef(1))
	assert.True(t, tmpl.IsTemplate())
	assert.False(t, types.IntType.IsTemplate())

	arr := types.NewArray(tmpl, 0, false)
	assert.True(t, arr.IsTemplate())

	tup := types.NewTuple(types.IntType, tmpl)
	assert.True(t, tup.IsTemplate())
}

func TestIsAggregate(t *testing.T) {
	assert.True(t, types.NewTuple(types.IntType).IsAggregate())
	assert.True(t, types.NewArray(types.IntType, 3, true).IsAggregate())
	assert.True(t, types.NewDict(types.StringType, types.IntType).IsAggregate())
	assert.False(t, types.IntType.IsAggregate())
	assert.False(t, types.NewPointer(types.IntType).IsAggregate())
}

func TestEqualAfterSubstitution(t *testing.T) {
	tmplA := types.NewTemplate(types.TemplateRef(1))
	tmplB := types.NewTemplate(types.TemplateRef(1))
	assert.True(t, types.Equal(tmplA, tmplB))

	fa := types.NewFunction([]types.Type{types.IntType, types.IntType}, nil)
	fb := types.NewFunction([]types.Type{types.IntType, types.IntType}, nil)
	assert.True(t, types.Equal(fa, fb))

	ret := types.IntType
	fc := types.NewFunction([]types.Type{types.IntType}, &ret)
	assert.False(t, types.Equal(fa, fc))
}

func TestArraySizeEquality(t *testing.T) {
	a := types.NewArray(types.IntType, 4, true)
	b := types.NewArray(types.IntType, 4, true)
	c := types.NewArray(types.IntType, 5, true)
	assert.True(t, types.Equal(a, b))
	assert.False(t, types.Equal(a, c))
}
