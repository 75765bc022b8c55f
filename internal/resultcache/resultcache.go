// Package resultcache memoizes a tournament's AutoCIResult behind a
// deterministic cache key derived from (strategy id, statistic,
// sample hash, confidence level, replicate counts): since every input
// to a bootstrap run is either data or a CRN-seeded deterministic
// draw, re-running the identical request always reproduces the
// identical result, so a cache hit is never stale.
//
// A circuit breaker guards the Redis round trip: once Redis is
// unhealthy the cache is bypassed (treated as a miss) rather than
// blocking every caller on a failing dependency.
//
// Grounded on internal/infrastructure/providers/circuitbreakers.go's
// per-name breaker manager and the teacher's Redis client usage.
package resultcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/sawpanic/strategyci/internal/ciresult"
)

// Key is the deterministic cache key for one tournament request.
type Key struct {
	StrategyID    string
	Statistic     string
	SampleHash    uint64
	CL            float64
	BOuter        int
	BlockLen      int
}

// String renders k as a flat Redis key.
func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%x:%.4f:%d:%d", k.StrategyID, k.Statistic, k.SampleHash, k.CL, k.BOuter, k.BlockLen)
}

// Cache wraps a Redis client with a circuit breaker and a key prefix.
type Cache struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker
	prefix  string
	ttl     time.Duration
	log     *zerolog.Logger
}

// New builds a Cache against addr, wrapping every call in a circuit
// breaker named "resultcache" that trips after 5 consecutive failures
// and probes again after 30s.
func New(addr, prefix string, ttl time.Duration, log *zerolog.Logger) *Cache {
	client := redis.NewClient(&redis.Options{Addr: addr})
	return newWithClient(client, prefix, ttl, log)
}

func newWithClient(client *redis.Client, prefix string, ttl time.Duration, log *zerolog.Logger) *Cache {
	st := gobreaker.Settings{
		Name:        "resultcache",
		MaxRequests: 1,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || err == redis.Nil
		},
	}
	return &Cache{client: client, breaker: gobreaker.NewCircuitBreaker(st), prefix: prefix, ttl: ttl, log: log}
}

// Get returns the cached result for key, and whether it was a hit. A
// tripped breaker, a Redis error, or a cache miss all report false
// rather than surfacing an error: the caller always has a fallback
// (run the tournament), so a cache failure degrades to a miss.
func (c *Cache) Get(ctx context.Context, key Key) (ciresult.AutoCIResult, bool) {
	raw, err := c.breaker.Execute(func() (interface{}, error) {
		return c.client.Get(ctx, c.prefix+key.String()).Bytes()
	})
	if err != nil {
		if c.log != nil && err != redis.Nil {
			c.log.Debug().Err(err).Str("key", key.String()).Msg("resultcache get miss")
		}
		return ciresult.AutoCIResult{}, false
	}
	var res ciresult.AutoCIResult
	if err := json.Unmarshal(raw.([]byte), &res); err != nil {
		if c.log != nil {
			c.log.Warn().Err(err).Str("key", key.String()).Msg("resultcache corrupt entry")
		}
		return ciresult.AutoCIResult{}, false
	}
	return res, true
}

// Put writes res under key with the cache's configured TTL. Errors
// are logged, not returned: a failed write degrades to "run it again
// next time", never blocks the caller that already has its result.
func (c *Cache) Put(ctx context.Context, key Key, res ciresult.AutoCIResult) {
	raw, err := json.Marshal(res)
	if err != nil {
		if c.log != nil {
			c.log.Warn().Err(err).Msg("resultcache marshal failed")
		}
		return
	}
	_, err = c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Set(ctx, c.prefix+key.String(), raw, c.ttl).Err()
	})
	if err != nil && c.log != nil {
		c.log.Debug().Err(err).Str("key", key.String()).Msg("resultcache put failed")
	}
}

// State reports the circuit breaker's current state, exposed for
// telemetry/health-check endpoints.
func (c *Cache) State() gobreaker.State {
	return c.breaker.State()
}
