package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheHitMissInvalidate(t *testing.T) {
	c := NewCache()
	s := Initialize(time.January, 2025)

	c.Put(time.January, 2025, "Orani", s)

	got, ok := c.Get(time.January, 2025, "Orani")
	require.True(t, ok)
	assert.Same(t, s, got)

	// Any change to the triple is a miss.
	_, ok = c.Get(time.February, 2025, "Orani")
	assert.False(t, ok)
	_, ok = c.Get(time.January, 2024, "Orani")
	assert.False(t, ok)
	_, ok = c.Get(time.January, 2025, "Balanga")
	assert.False(t, ok)

	// Exact string equality on municipality: no case normalization.
	_, ok = c.Get(time.January, 2025, "orani")
	assert.False(t, ok)

	c.Invalidate(time.January, 2025, "Orani")
	_, ok = c.Get(time.January, 2025, "Orani")
	assert.False(t, ok)
}

func TestCachePutOverwrites(t *testing.T) {
	c := NewCache()
	first := Initialize(time.January, 2025)
	second := Initialize(time.January, 2025)

	c.Put(time.January, 2025, "Orani", first)
	c.Put(time.January, 2025, "Orani", second)

	got, ok := c.Get(time.January, 2025, "Orani")
	require.True(t, ok)
	assert.Same(t, second, got)
}
