package interceptors

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/glimte/mmate-aspect/invocation"
)

// ShortCircuitInterceptor answers a call itself when the evaluator says so,
// without running the rest of the chain or the real method.
type ShortCircuitInterceptor struct {
	evaluator ShortCircuitEvaluator
}

// ShortCircuitEvaluator determines if the chain should be short-circuited
type ShortCircuitEvaluator interface {
	// ShouldShortCircuit returns true and the result to return in place of
	// the call, or false to let the call proceed
	ShouldShortCircuit(ctx context.Context, inv *invocation.Invocation) (bool, any, error)
}

// ShortCircuitEvaluatorFunc is a function adapter for ShortCircuitEvaluator
type ShortCircuitEvaluatorFunc func(ctx context.Context, inv *invocation.Invocation) (bool, any, error)

// ShouldShortCircuit implements ShortCircuitEvaluator
func (f ShortCircuitEvaluatorFunc) ShouldShortCircuit(ctx context.Context, inv *invocation.Invocation) (bool, any, error) {
	return f(ctx, inv)
}

// NewShortCircuitInterceptor creates a new short-circuit interceptor
func NewShortCircuitInterceptor(evaluator ShortCircuitEvaluator) *ShortCircuitInterceptor {
	return &ShortCircuitInterceptor{evaluator: evaluator}
}

// Invoke implements MethodInterceptor
func (i *ShortCircuitInterceptor) Invoke(ctx context.Context, next *invocation.Invocation) (any, error) {
	shortCircuit, result, err := i.evaluator.ShouldShortCircuit(ctx, next.Original())
	if err != nil {
		return nil, err
	}

	if shortCircuit {
		return result, nil
	}

	return next.Proceed(ctx)
}

// Name implements Interceptor
func (i *ShortCircuitInterceptor) Name() string {
	return "ShortCircuitInterceptor"
}

// ResultCache stores call results by key
type ResultCache interface {
	Get(ctx context.Context, key string) (any, bool, error)
	Set(ctx context.Context, key string, value any) error
}

// KeyFunc derives a cache key from an invocation; false disables caching for it
type KeyFunc func(inv *invocation.Invocation) (string, bool)

// DefaultKey keys by method name and the type and Go syntax of each argument.
// Every part is length-prefixed so argument boundaries cannot collide.
func DefaultKey(inv *invocation.Invocation) (string, bool) {
	var b strings.Builder
	writeKeyPart(&b, inv.Method())
	for _, arg := range inv.Arguments() {
		writeKeyPart(&b, fmt.Sprintf("%T", arg))
		writeKeyPart(&b, fmt.Sprintf("%#v", arg))
	}
	return b.String(), true
}

func writeKeyPart(b *strings.Builder, part string) {
	fmt.Fprintf(b, "%d:%s;", len(part), part)
}

// CachingInterceptor returns cached results without proceeding on a hit and
// stores successful results on a miss
type CachingInterceptor struct {
	cache ResultCache
	key   KeyFunc
}

// NewCachingInterceptor creates a new caching interceptor. A nil key uses DefaultKey.
func NewCachingInterceptor(cache ResultCache, key KeyFunc) *CachingInterceptor {
	if key == nil {
		key = DefaultKey
	}
	return &CachingInterceptor{cache: cache, key: key}
}

// Invoke implements MethodInterceptor
func (i *CachingInterceptor) Invoke(ctx context.Context, next *invocation.Invocation) (any, error) {
	cacheKey, ok := i.key(next.Original())
	if !ok {
		return next.Proceed(ctx)
	}

	cached, found, err := i.cache.Get(ctx, cacheKey)
	if err != nil {
		return nil, err
	}
	if found {
		return cached, nil
	}

	result, err := next.Proceed(ctx)
	if err != nil {
		return nil, err
	}

	if err := i.cache.Set(ctx, cacheKey, result); err != nil {
		return nil, err
	}

	return result, nil
}

// Name implements Interceptor
func (i *CachingInterceptor) Name() string {
	return "CachingInterceptor"
}

// Clone implements Cloner. Caches implementing Clone() ResultCache get an
// independent copy; others are shared.
func (i *CachingInterceptor) Clone() Interceptor {
	cache := i.cache
	if c, ok := cache.(interface{ Clone() ResultCache }); ok {
		cache = c.Clone()
	}
	return &CachingInterceptor{cache: cache, key: i.key}
}

// MemoryCache is an unbounded in-process ResultCache
type MemoryCache struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewMemoryCache creates an empty memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{values: make(map[string]any)}
}

// Get implements ResultCache
func (c *MemoryCache) Get(ctx context.Context, key string) (any, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.values[key]
	return value, ok, nil
}

// Set implements ResultCache
func (c *MemoryCache) Set(ctx context.Context, key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

// Len returns the number of cached entries
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.values)
}

// Clone returns a copy holding the same entries
func (c *MemoryCache) Clone() ResultCache {
	c.mu.RLock()
	defer c.mu.RUnlock()

	clone := NewMemoryCache()
	for k, v := range c.values {
		clone.values[k] = v
	}
	return clone
}
