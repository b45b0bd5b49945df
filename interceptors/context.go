package interceptors

import (
	"context"
	"sort"
	"sync"

	"github.com/glimte/mmate-aspect/invocation"
)

// Keys set by EnrichmentInterceptor before its enricher runs
const (
	ScopeInvocationID = "invocation.id"
	ScopeMethod       = "invocation.method"
)

type scopeKey struct{}

// CallScope carries values from one interceptor of a call to the ones after
// it and to the target. It travels in the context.Context passed to Proceed
// and is safe for concurrent use.
type CallScope struct {
	mu     sync.RWMutex
	values map[string]any
}

func NewCallScope() *CallScope {
	return &CallScope{values: make(map[string]any)}
}

func (s *CallScope) Set(key string, value any) {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
}

func (s *CallScope) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	return value, ok
}

func (s *CallScope) Delete(key string) {
	s.mu.Lock()
	delete(s.values, key)
	s.mu.Unlock()
}

// Keys returns the stored keys in sorted order
func (s *CallScope) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Fork returns a scope starting with the values of s. Later writes to either
// scope are not seen by the other, so a nested call can extend its scope
// without leaking into the caller's.
func (s *CallScope) Fork() *CallScope {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fork := &CallScope{values: make(map[string]any, len(s.values))}
	for k, v := range s.values {
		fork.values[k] = v
	}
	return fork
}

// Lookup returns the value under key if it is a T
func Lookup[T any](s *CallScope, key string) (T, bool) {
	value, _ := s.Get(key)
	typed, ok := value.(T)
	return typed, ok
}

// ScopeFrom returns the call scope carried by ctx
func ScopeFrom(ctx context.Context) (*CallScope, bool) {
	s, ok := ctx.Value(scopeKey{}).(*CallScope)
	return s, ok && s != nil
}

// WithScope returns a context carrying s
func WithScope(ctx context.Context, s *CallScope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// EnsureScope returns ctx and its scope, attaching a new scope when ctx has none
func EnsureScope(ctx context.Context) (context.Context, *CallScope) {
	if s, ok := ScopeFrom(ctx); ok {
		return ctx, s
	}
	s := NewCallScope()
	return WithScope(ctx, s), s
}

// Enricher adds values to the scope of a call before it proceeds
type Enricher interface {
	Enrich(ctx context.Context, scope *CallScope, inv *invocation.Invocation) error
}

// EnrichmentInterceptor records the invocation id and method in the call
// scope, lets its enricher add more, then proceeds. An enricher error ends
// the call.
type EnrichmentInterceptor struct {
	enricher Enricher
}

func NewEnrichmentInterceptor(enricher Enricher) *EnrichmentInterceptor {
	return &EnrichmentInterceptor{enricher: enricher}
}

// Invoke implements MethodInterceptor
func (i *EnrichmentInterceptor) Invoke(ctx context.Context, next *invocation.Invocation) (any, error) {
	ctx, scope := EnsureScope(ctx)
	scope.Set(ScopeInvocationID, next.ID())
	scope.Set(ScopeMethod, next.Method())

	if err := i.enricher.Enrich(ctx, scope, next.Original()); err != nil {
		return nil, err
	}
	return next.Proceed(ctx)
}

// Name implements Interceptor
func (i *EnrichmentInterceptor) Name() string {
	return "EnrichmentInterceptor"
}
