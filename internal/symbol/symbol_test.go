package symbol_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dachsc/dachs/internal/symbol"
)

func TestIntern(t *testing.T) {
	a := symbol.Intern("foo")
	b := symbol.Intern("foo")
	c := symbol.Intern("bar")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, "foo", a.Str())
	assert.Equal(t, "bar", c.Str())
}

func TestInvalid(t *testing.T) {
	assert.False(t, symbol.Invalid.Valid())
	assert.True(t, symbol.Intern("x").Valid())
}

func TestFastHashStable(t *testing.T) {
	id := symbol.Intern("stable")
	assert.Equal(t, id.FastHash(), symbol.Intern("stable").FastHash())
}
