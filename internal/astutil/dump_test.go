package astutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dachsc/dachs/internal/astutil"
	"github.com/dachsc/dachs/internal/parser"
)

func TestDumpRendersKindIdentAndChildren(t *testing.T) {
	tree, unit, err := parser.Parse([]byte("func f(): int\n  ret 1 + 2\nend\n"), "f.dachs")
	require.NoError(t, err)

	out := astutil.Dump(tree, unit)
	assert.Contains(t, out, "(compilation_unit")
	assert.Contains(t, out, `(func_def "f"`)
	assert.Contains(t, out, `(binary "+"`)
	assert.Contains(t, out, "(int_lit 1")
}

func TestDumpMarksSyntheticNodes(t *testing.T) {
	tree, unit, err := parser.Parse([]byte("func f(): int\n  ret new [int]{4u}\nend\n"), "f.dachs")
	require.NoError(t, err)

	out := astutil.Dump(tree, unit)
	assert.Contains(t, out, "synthetic")
}
