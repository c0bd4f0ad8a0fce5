package token_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dachsc/dachs/internal/token"
)

func TestPositionEmpty(t *testing.T) {
	assert.True(t, token.Position{}.Empty())
	assert.False(t, token.Position{Line: 1}.Empty())
	assert.False(t, token.Position{Path: "a.dachs"}.Empty())
}

func TestPositionString(t *testing.T) {
	assert.Equal(t, "<unknown>", token.Position{}.String())
	assert.Equal(t, "3:7", token.Position{Line: 3, Col: 7}.String())
	assert.Equal(t, "a.dachs:3:7", token.Position{Path: "a.dachs", Line: 3, Col: 7}.String())
}

func TestPositionEnd(t *testing.T) {
	p := token.Position{Path: "a.dachs", Line: 2, Col: 4, Length: 3}
	end := p.End()
	assert.Equal(t, 2, end.Line)
	assert.Equal(t, 7, end.Col)
	assert.Equal(t, 0, end.Length)
	assert.Equal(t, "a.dachs", end.Path)
}
