package diag_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dachsc/dachs/internal/diag"
)

func TestBagBatchesErrors(t *testing.T) {
	var b diag.Bag
	b.Errorf(diag.DuplicateDefinition, "a.dcs:1:1", "f duplicated")
	b.Errorf(diag.DuplicateDefinition, "a.dcs:5:1", "f duplicated")
	b.Warnf(diag.ShadowingError, "a.dcs:2:1", "shadowed x")

	require.Len(t, b.Diagnostics, 3)
	assert.Equal(t, 2, b.FailureCount())

	err := b.CheckPhase("function duplication check")
	require.Error(t, err)
	sce, ok := err.(*diag.SemanticCheckError)
	require.True(t, ok)
	assert.Equal(t, 2, sce.Count)
	assert.Equal(t, "function duplication check", sce.Phase)
}

func TestBagNoErrorsNoPhaseFailure(t *testing.T) {
	var b diag.Bag
	b.Warnf(diag.ShadowingError, "a.dcs:2:1", "shadowed x")
	assert.NoError(t, b.CheckPhase("forward analysis"))
}

func TestRecoverCatchesPanic(t *testing.T) {
	err := diag.Recover(func() {
		diag.Panicf(diag.Codegen, "a.dcs:9:1", "unknown allocation size")
	})
	require.Error(t, err)
	d, ok := err.(*diag.Diagnostic)
	require.True(t, ok)
	assert.Equal(t, diag.Codegen, d.Category)
}

func TestRecoverWrapsGenuinePanic(t *testing.T) {
	err := diag.Recover(func() {
		var p *int
		_ = *p // nil deref
	})
	require.Error(t, err)
}
