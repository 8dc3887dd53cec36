package storage

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/hailam/chesspuzzles/internal/puzzle"
)

// Cached wraps another repository with a read-through cache for Get.
// Writes through the wrapper invalidate the cached copy.
type Cached struct {
	inner  puzzle.Repository
	cache  *ristretto.Cache[string, *puzzle.Record]
	hits   atomic.Uint64
	misses atomic.Uint64
}

var _ puzzle.Repository = (*Cached)(nil)

// NewCached caches up to size records from inner.
func NewCached(inner puzzle.Repository, size int) (*Cached, error) {
	if size <= 0 {
		size = 1024
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, *puzzle.Record]{
		NumCounters:        int64(size) * 10,
		MaxCost:            int64(size),
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("puzzle cache: %w", err)
	}
	return &Cached{inner: inner, cache: cache}, nil
}

// Close releases the cache. The inner repository is left open.
func (c *Cached) Close() { c.cache.Close() }

// Stats returns cache hit and miss counts for Get.
func (c *Cached) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *Cached) remember(r *puzzle.Record) {
	c.cache.Set(r.ID, r.Clone(), 1)
	c.cache.Wait()
}

func (c *Cached) Create(ctx context.Context, r *puzzle.Record) (*puzzle.Record, error) {
	rec, err := c.inner.Create(ctx, r)
	if err != nil {
		return nil, err
	}
	c.remember(rec)
	return rec, nil
}

func (c *Cached) Update(ctx context.Context, r *puzzle.Record) (*puzzle.Record, error) {
	c.cache.Del(r.ID)
	rec, err := c.inner.Update(ctx, r)
	if err != nil {
		return nil, err
	}
	c.remember(rec)
	return rec, nil
}

func (c *Cached) Delete(ctx context.Context, id string) error {
	c.cache.Del(id)
	return c.inner.Delete(ctx, id)
}

func (c *Cached) Get(ctx context.Context, id string) (*puzzle.Record, error) {
	if rec, ok := c.cache.Get(id); ok {
		c.hits.Add(1)
		return rec.Clone(), nil
	}
	c.misses.Add(1)
	rec, err := c.inner.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.remember(rec)
	return rec, nil
}

// List always goes to the inner repository.
func (c *Cached) List(ctx context.Context) ([]*puzzle.Record, error) {
	return c.inner.List(ctx)
}
