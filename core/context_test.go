package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContext_SetGetRemove(t *testing.T) {
	c := NewContext()
	c.Set("k", "v")

	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	c.Remove("k")
	_, ok = c.Get("k")
	assert.False(t, ok)

	c.Remove("missing")
}

func TestContext_Cumulative(t *testing.T) {
	c := NewContext()
	assert.Nil(t, c.GetCumulative("results"))

	c.SetCumulative("results", 1)
	c.SetCumulative("results", 2)
	assert.Equal(t, []any{1, 2}, c.GetCumulative("results"))

	got := c.GetCumulative("results")
	got[0] = 99
	assert.Equal(t, []any{1, 2}, c.GetCumulative("results"))
}

func TestContext_CloneDiverges(t *testing.T) {
	c := NewContext()
	c.Set("a", 1)
	c.SetCumulative("l", "x")

	clone := c.Clone()
	clone.Set("b", 2)
	clone.SetCumulative("l", "y")

	_, ok := c.Get("b")
	assert.False(t, ok)
	assert.Equal(t, []any{"x"}, c.GetCumulative("l"))
	assert.Equal(t, []any{"x", "y"}, clone.GetCumulative("l"))
}

func TestNewContextFrom(t *testing.T) {
	src := map[string]any{"x": 1}
	c := NewContextFrom(src)
	src["y"] = 2

	assert.Equal(t, map[string]any{"x": 1}, c.Values())
}
