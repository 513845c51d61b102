package evidence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Symbol string  `json:"symbol"`
	Score  float64 `json:"score"`
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", payload{Symbol: "USDC", Score: 92}, time.Minute, 1))

	var got payload
	hit, err := s.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, payload{Symbol: "USDC", Score: 92}, got)
}

func TestMemoryStoreMiss(t *testing.T) {
	s := NewMemoryStore()
	var got payload
	hit, err := s.Get(context.Background(), "absent", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestMemoryStoreLazyExpiry(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "k", payload{Symbol: "DAI"}, time.Minute, 2))

	has, err := s.Has(ctx, "k")
	require.NoError(t, err)
	assert.True(t, has)

	now = now.Add(2 * time.Minute)

	has, err = s.Has(ctx, "k")
	require.NoError(t, err)
	assert.False(t, has, "expired entry must read as absent")

	var got payload
	hit, err := s.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 0, s.Len(), "expired entry is removed on read")
}

func TestMemoryStoreOverwriteWins(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", payload{Score: 1}, time.Minute, 1))
	require.NoError(t, s.Set(ctx, "k", payload{Score: 2}, time.Minute, 1))

	var got payload
	hit, err := s.Get(ctx, "k", &got)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, 2.0, got.Score)
}

func TestMemoryStoreCleanup(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "short", payload{}, time.Minute, 1))
	require.NoError(t, s.Set(ctx, "long", payload{}, time.Hour, 1))

	now = now.Add(10 * time.Minute)
	removed, err := s.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStoreClearAndStats(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "a", payload{}, time.Minute, 1))
	var got payload
	s.Get(ctx, "a", &got)
	s.Get(ctx, "missing", &got)

	stats := s.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, uint64(1), stats.Sets)

	require.NoError(t, s.Clear(ctx))
	assert.Equal(t, 0, s.Len())
}

func TestTierKey(t *testing.T) {
	assert.Equal(t, "assessment:tier1:USDC", TierKey("USDC", 1))
	assert.Equal(t, "assessment:tier3:DAI", TierKey("DAI", 3))
}
