package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequentialIDs(t *testing.T) {
	g := NewSequentialIDs("job")
	assert.Equal(t, "job-1", g.NewID())
	assert.Equal(t, "job-2", g.NewID())
}

func TestSequentialIDs_DefaultPrefix(t *testing.T) {
	assert.Equal(t, "id-1", NewSequentialIDs("").NewID())
}

func TestFixedIDs_InOrder(t *testing.T) {
	g := NewFixedIDs("a", "b")
	assert.Equal(t, "a", g.NewID())
	assert.Equal(t, "b", g.NewID())
}

func TestFixedIDs_PanicsWhenExhausted(t *testing.T) {
	g := NewFixedIDs("only")
	g.NewID()
	assert.Panics(t, func() { g.NewID() })
}
