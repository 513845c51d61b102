package evidence

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// Store is the evidence cache contract. Values are JSON-serializable;
// expiry is checked lazily on read, so an entry past its TTL is treated as
// absent. A concurrent re-set of the same key is last-write-wins.
type Store interface {
	// Get unmarshals the cached value into dest and reports whether the key
	// was present and fresh.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	// Set stores value under key for ttl, tagged with the producing tier.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration, tier int) error
	Has(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	// Cleanup removes expired entries eagerly and returns how many went.
	Cleanup(ctx context.Context) (int, error)
	Stats() Stats
	Close() error
}

// Stats are cumulative cache counters for the debug surface.
type Stats struct {
	Hits        uint64 `json:"hits"`
	Misses      uint64 `json:"misses"`
	Sets        uint64 `json:"sets"`
	Expirations uint64 `json:"expirations"`
}

type counters struct {
	hits        atomic.Uint64
	misses      atomic.Uint64
	sets        atomic.Uint64
	expirations atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Sets:        c.sets.Load(),
		Expirations: c.expirations.Load(),
	}
}

// TierKey builds the tier-scoped cache key for a symbol.
func TierKey(symbol string, tier int) string {
	return fmt.Sprintf("assessment:tier%d:%s", tier, symbol)
}
