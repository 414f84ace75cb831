package extract

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/genmeta/api"
)

func TestCache_GetOrCompute_ComputesOnce(t *testing.T) {
	c := NewCache(10, time.Hour)
	computed := 0
	compute := func() (api.Summary, error) {
		computed++
		return api.Summary{Model: "m"}, nil
	}

	first, err := c.GetOrCompute("fp", compute)
	require.NoError(t, err)
	second, err := c.GetOrCompute("fp", compute)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, computed)
}

func TestCache_ErrorsAreNotCached(t *testing.T) {
	c := NewCache(10, time.Hour)
	calls := 0
	failing := func() (api.Summary, error) {
		calls++
		return api.Summary{}, fmt.Errorf("boom")
	}

	_, err := c.GetOrCompute("fp", failing)
	require.Error(t, err)
	_, err = c.GetOrCompute("fp", failing)
	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, c.Len())
}

func TestCache_NeverExceedsMaxEntries(t *testing.T) {
	c := NewCache(5, time.Hour)
	for i := 0; i < 20; i++ {
		c.Put(fmt.Sprintf("fp-%d", i), api.Summary{})
		assert.LessOrEqual(t, c.Len(), 5)
	}
}

func TestCache_TTLPurgeBeforeEviction(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewCache(3, time.Minute)
	c.now = func() time.Time { return now }

	c.Put("old-1", api.Summary{})
	c.Put("old-2", api.Summary{})
	c.Put("old-3", api.Summary{})

	// Everything above ages out before the next insert.
	now = now.Add(2 * time.Minute)
	c.Put("fresh", api.Summary{})

	assert.Equal(t, 1, c.Len())
	_, ok := c.Get("fresh")
	assert.True(t, ok)
}

func TestCache_EvictsLowestHitCount(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewCache(5, time.Hour)
	c.now = func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	for i := 0; i < 5; i++ {
		c.Put(fmt.Sprintf("fp-%d", i), api.Summary{})
	}
	// Warm every entry except fp-0.
	for i := 1; i < 5; i++ {
		for j := 0; j <= i; j++ {
			_, ok := c.Get(fmt.Sprintf("fp-%d", i))
			require.True(t, ok)
		}
	}

	c.Put("overflow", api.Summary{})

	_, ok := c.Get("fp-0")
	assert.False(t, ok, "cold entry should be evicted first")
	_, ok = c.Get("fp-4")
	assert.True(t, ok)
}
