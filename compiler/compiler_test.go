package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dachsc/dachs/compiler"
)

func TestCompileSimpleFunction(t *testing.T) {
	src := "func add(a: int, b: int): int\n  ret a + b\nend\n"
	res, err := compiler.Compile([]byte(src), "add.dachs")
	require.NoError(t, err)
	require.NotNil(t, res.Module)

	var found bool
	for _, fn := range res.Module.Functions {
		if len(fn.Params) == 2 {
			found = true
		}
	}
	assert.True(t, found, "expected a two-parameter function in the emitted module")
}

func TestCompileReportsParseError(t *testing.T) {
	_, err := compiler.Compile([]byte("func (\n"), "broken.dachs")
	require.Error(t, err)
}

func TestCompileReportsUnresolvedName(t *testing.T) {
	src := "func f(): int\n  ret nonexistent_name\nend\n"
	_, err := compiler.Compile([]byte(src), "f.dachs")
	require.Error(t, err)
}

func TestCompileEmitsGlobalInit(t *testing.T) {
	src := "let x := 1 + 2\n"
	res, err := compiler.Compile([]byte(src), "g.dachs")
	require.NoError(t, err)

	var found bool
	for _, fn := range res.Module.Functions {
		if fn.Name == "dachs.init" {
			found = true
		}
	}
	assert.True(t, found, "expected the synthesized global-init function")
}
