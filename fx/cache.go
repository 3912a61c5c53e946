// Package fx provides currency conversion rates with a time-to-live cache in
// front of a rate provider.
package fx

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// DefaultTTL is how long a rate is served from the cache.
const DefaultTTL = time.Hour

// Source provides the rate of a currency pair: the price of one unit of
// from in to.
type Source interface {
	FXRate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

type entry struct {
	value     decimal.Decimal
	fetchedAt time.Time
}

// Cache is a RateSource that keeps rates for a TTL. It is safe for
// concurrent use.
//
// A pair missing from the source is looked up in the other direction and
// inverted. Unavailable rates are not cached.
type Cache struct {
	source Source
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]entry
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets how long a rate is served from the cache.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithClock sets the clock of the cache, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// NewCache returns a cache of the rates provided by source.
func NewCache(source Source, opts ...Option) *Cache {
	c := &Cache{
		source:  source,
		ttl:     DefaultTTL,
		now:     time.Now,
		entries: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Rate returns the conversion factor from one currency to another. It
// reports false when the rate is not available.
func (c *Cache) Rate(ctx context.Context, from, to string) (decimal.Decimal, bool) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return decimal.NewFromInt(1), true
	}
	key := from + to

	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()
	if ok && c.now().Sub(e.fetchedAt) < c.ttl {
		log.Debug().Str("pair", key).Msg("fx cache hit")
		return e.value, true
	}

	// fetchedAt is the time of the request, not of the response.
	fetchedAt := c.now()
	value, ok := c.fetch(ctx, from, to)
	if !ok {
		log.Warn().Str("pair", key).Msg("fx rate unavailable")
		return decimal.Zero, false
	}

	c.mu.Lock()
	c.entries[key] = entry{value: value, fetchedAt: fetchedAt}
	c.mu.Unlock()
	return value, true
}

// fetch tries the direct pair, then the inverse one.
func (c *Cache) fetch(ctx context.Context, from, to string) (decimal.Decimal, bool) {
	direct, err := c.source.FXRate(ctx, from, to)
	if err == nil && direct.IsPositive() {
		return direct, true
	}
	if err != nil {
		log.Debug().Err(err).Str("pair", from+to).Msg("fx direct pair failed")
	}

	inverse, err := c.source.FXRate(ctx, to, from)
	if err == nil && inverse.IsPositive() {
		return decimal.NewFromInt(1).Div(inverse), true
	}
	if err != nil {
		log.Debug().Err(err).Str("pair", to+from).Msg("fx inverse pair failed")
	}
	return decimal.Zero, false
}

// Invalidate drops every cached rate.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}
