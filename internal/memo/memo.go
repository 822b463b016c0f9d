// Package memo coalesces concurrent calls for the same key into one
// in-flight call and optionally keeps the result for a short time.
package memo

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry[V any] struct {
	value   V
	expires time.Time
}

// Group memoizes values of type V by string key. The zero value is not
// usable; call New.
type Group[V any] struct {
	ttl time.Duration
	now func() time.Time

	flight singleflight.Group

	mu    sync.Mutex
	cache map[string]entry[V]
	gens  map[string]uint64
}

// New returns a Group. A ttl of 0 only coalesces in-flight calls and
// caches nothing.
func New[V any](ttl time.Duration) *Group[V] {
	return &Group[V]{
		ttl:   ttl,
		now:   time.Now,
		cache: make(map[string]entry[V]),
		gens:  make(map[string]uint64),
	}
}

// Do returns the cached value for key or runs fn. Concurrent callers with
// the same key share a single fn call. Errors are never cached. If ctx ends
// first, Do returns ctx.Err() while the shared call keeps running for the
// remaining callers.
func (g *Group[V]) Do(ctx context.Context, key string, fn func(ctx context.Context) (V, error)) (V, bool, error) {
	if v, ok := g.lookup(key); ok {
		return v, true, nil
	}

	ch := g.flight.DoChan(key, func() (any, error) {
		gen := g.generation(key)
		// Detached so one caller's cancellation does not fail the others.
		v, err := fn(context.WithoutCancel(ctx))
		if err == nil {
			g.store(key, v, gen)
		}
		return v, err
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			var zero V
			return zero, res.Shared, res.Err
		}
		return res.Val.(V), res.Shared, nil
	case <-ctx.Done():
		var zero V
		return zero, false, ctx.Err()
	}
}

// Forget drops the cached value for key. An in-flight call is not
// interrupted, but later callers start a new one and its result is not
// cached.
func (g *Group[V]) Forget(key string) {
	g.flight.Forget(key)
	g.mu.Lock()
	delete(g.cache, key)
	g.gens[key]++
	g.mu.Unlock()
}

func (g *Group[V]) generation(key string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gens[key]
}

func (g *Group[V]) lookup(key string) (V, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, ok := g.cache[key]
	if !ok {
		var zero V
		return zero, false
	}
	if !g.now().Before(e.expires) {
		delete(g.cache, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

func (g *Group[V]) store(key string, v V, gen uint64) {
	if g.ttl <= 0 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gens[key] != gen {
		return
	}
	g.cache[key] = entry[V]{value: v, expires: g.now().Add(g.ttl)}
}
