// Package cache provides a Redis read-through decorator over the
// upstream fetchers so repeated feed generations within a period do
// not hammer the snapshot aggregator.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/finpulse/finpulse/internal/fetch"
)

const keyPrefix = "finpulse"

// Fetchers wraps an inner fetch.Fetchers with a Redis cache. A cache
// or decode error is treated as a miss: the inner fetcher is consulted
// and the result re-cached best effort. Upstream errors still
// propagate untouched.
type Fetchers struct {
	inner fetch.Fetchers
	rdb   *redis.Client
	ttl   time.Duration
	log   zerolog.Logger
}

// New creates a caching decorator with the given TTL.
func New(inner fetch.Fetchers, rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *Fetchers {
	return &Fetchers{inner: inner, rdb: rdb, ttl: ttl, log: log}
}

// FetchSnapshot implements fetch.SnapshotFetcher.
func (c *Fetchers) FetchSnapshot(ctx context.Context, businessID string) (*fetch.Snapshot, error) {
	key := fmt.Sprintf("%s:snapshot:%s", keyPrefix, businessID)
	var snap fetch.Snapshot
	if c.lookup(ctx, key, &snap) {
		return &snap, nil
	}

	fresh, err := c.inner.FetchSnapshot(ctx, businessID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, fresh)
	return fresh, nil
}

// FetchGAData implements fetch.AnalyticsFetcher.
func (c *Fetchers) FetchGAData(ctx context.Context, businessID string) (*fetch.GAData, error) {
	key := fmt.Sprintf("%s:ga:%s", keyPrefix, businessID)
	var ga fetch.GAData
	if c.lookup(ctx, key, &ga) {
		return &ga, nil
	}

	fresh, err := c.inner.FetchGAData(ctx, businessID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, fresh)
	return fresh, nil
}

// FetchAudienceLab implements fetch.AudienceFetcher.
func (c *Fetchers) FetchAudienceLab(ctx context.Context, businessID string) ([]fetch.AudienceSegment, error) {
	key := fmt.Sprintf("%s:audience:%s", keyPrefix, businessID)
	var segments []fetch.AudienceSegment
	if c.lookup(ctx, key, &segments) {
		return segments, nil
	}

	fresh, err := c.inner.FetchAudienceLab(ctx, businessID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, fresh)
	return fresh, nil
}

func (c *Fetchers) lookup(ctx context.Context, key string, out interface{}) bool {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn().Err(err).Str("key", key).Msg("cache read failed, falling through")
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache entry corrupt, falling through")
		return false
	}
	return true
}

func (c *Fetchers) store(ctx context.Context, key string, val interface{}) {
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}
