package cache

import (
	"cbrrates/internal/domain"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/ristretto"
)

// RistrettoRecordsCache keeps per-date record sets. Published rates never change,
// so the TTL only bounds memory, not staleness.
type RistrettoRecordsCache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

func NewRecordsCache(maxItems int64, ttl time.Duration) (*RistrettoRecordsCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10 * maxItems,
		MaxCost:     maxItems,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create records cache failed: %w", err)
	}
	return &RistrettoRecordsCache{cache: c, ttl: ttl}, nil
}

func (c *RistrettoRecordsCache) Get(date string) ([]domain.CurrencyRecord, bool) {
	if v, ok := c.cache.Get(date); ok {
		records, ok := v.([]domain.CurrencyRecord)
		return slices.Clone(records), ok
	}
	return nil, false
}

func (c *RistrettoRecordsCache) Set(date string, records []domain.CurrencyRecord) {
	if len(records) == 0 {
		return
	}
	c.cache.SetWithTTL(date, slices.Clone(records), 1, c.ttl)
}

func (c *RistrettoRecordsCache) Close() { c.cache.Close() }
