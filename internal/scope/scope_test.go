package scope

import (
	"testing"

	"github.com/dachsc/dachs/internal/ast"
	"github.com/dachsc/dachs/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTreeHasGlobal(t *testing.T) {
	tr := NewTree()
	g := tr.Scope(tr.Global)
	assert.Equal(t, Global, g.Kind)
	assert.Equal(t, InvalidID, g.Parent)
}

func TestNewFuncRegistersUnderGlobal(t *testing.T) {
	tr := NewTree()
	fn := tr.NewFunc(tr.Global, "add", ast.NodeID(5), false)
	g := tr.Scope(tr.Global)
	require.Len(t, g.Funcs, 1)
	assert.Equal(t, fn, g.Funcs[0])
}

func TestNewLocalUnderLocalAttaches(t *testing.T) {
	tr := NewTree()
	fn := tr.NewFunc(tr.Global, "f", ast.NodeID(1), false)
	body := tr.NewLocal(fn)
	tr.Scope(fn).Body = body
	child := tr.NewLocal(body)
	assert.Contains(t, tr.Scope(body).Children, child)
}

func TestDefineLocalShadowWarning(t *testing.T) {
	tr := NewTree()
	fn := tr.NewFunc(tr.Global, "f", ast.NodeID(1), false)
	outer := tr.NewLocal(fn)
	tr.Scope(fn).Body = outer
	shadowed := tr.DefineLocal(outer, &VarSymbol{Name: "x", Type: types.IntType})
	assert.False(t, shadowed)

	inner := tr.NewLocal(outer)
	shadowedInner := tr.DefineLocal(inner, &VarSymbol{Name: "x", Type: types.IntType})
	assert.True(t, shadowedInner)
}

func TestResolveWalksOutward(t *testing.T) {
	tr := NewTree()
	fn := tr.NewFunc(tr.Global, "f", ast.NodeID(1), false)
	outer := tr.NewLocal(fn)
	tr.Scope(fn).Body = outer
	tr.DefineLocal(outer, &VarSymbol{Name: "x", Type: types.IntType})
	inner := tr.NewLocal(outer)

	sym, ok := tr.Resolve(inner, "x")
	require.True(t, ok)
	assert.Equal(t, "x", sym.Name)

	_, ok = tr.Resolve(inner, "nope")
	assert.False(t, ok)
}

func TestResolveFallsBackToGlobalConstant(t *testing.T) {
	tr := NewTree()
	g := tr.Scope(tr.Global)
	g.Constants = append(g.Constants, &VarSymbol{Name: "PI", Type: types.FloatType, IsGlobal: true})
	fn := tr.NewFunc(tr.Global, "f", ast.NodeID(1), false)
	body := tr.NewLocal(fn)
	tr.Scope(fn).Body = body

	sym, ok := tr.Resolve(body, "PI")
	require.True(t, ok)
	assert.True(t, sym.IsGlobal)
}

func TestOverloadEqualityByParamTypes(t *testing.T) {
	a := &Scope{Name: "f", Params: []*VarSymbol{{Type: types.IntType}}}
	b := &Scope{Name: "f", Params: []*VarSymbol{{Type: types.IntType}}}
	c := &Scope{Name: "f", Params: []*VarSymbol{{Type: types.FloatType}}}
	assert.True(t, OverloadEqual(a, b))
	assert.False(t, OverloadEqual(a, c))
}

func TestRegisterCastFirstInsertionWins(t *testing.T) {
	tr := NewTree()
	ok1 := tr.RegisterCast(types.IntType, types.FloatType, ID(1))
	ok2 := tr.RegisterCast(types.IntType, types.FloatType, ID(2))
	assert.True(t, ok1)
	assert.False(t, ok2)
	id, found := tr.LookupCast(types.IntType, types.FloatType)
	require.True(t, found)
	assert.Equal(t, ID(1), id)
}

func TestAddCaptureDedupesAndPreservesOrder(t *testing.T) {
	tr := NewTree()
	fn := tr.NewFunc(tr.Global, "lambda.1.1.3", ast.NodeID(9), false)
	tr.AddCapture(fn, "x", &VarSymbol{Name: "x"})
	tr.AddCapture(fn, "y", &VarSymbol{Name: "y"})
	tr.AddCapture(fn, "x", &VarSymbol{Name: "x"})
	caps := tr.Scope(fn).Captures
	require.Len(t, caps, 2)
	assert.Equal(t, "x", caps[0].Name)
	assert.Equal(t, "y", caps[1].Name)
}

func TestIsBuiltinName(t *testing.T) {
	assert.True(t, IsBuiltinName("__builtin_foo"))
	assert.False(t, IsBuiltinName("foo"))
}
