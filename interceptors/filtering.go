package interceptors

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/glimte/mmate-aspect/invocation"
)

// ErrFiltered is returned by a FilteringInterceptor using SkipWithError
var ErrFiltered = errors.New("invocation filtered")

// InvocationFilter decides whether an invocation is let through
type InvocationFilter interface {
	// ShouldProcess returns true if the invocation should be processed
	ShouldProcess(ctx context.Context, inv *invocation.Invocation) (bool, error)
}

// InvocationFilterFunc is a function adapter for InvocationFilter
type InvocationFilterFunc func(ctx context.Context, inv *invocation.Invocation) (bool, error)

// ShouldProcess implements InvocationFilter
func (f InvocationFilterFunc) ShouldProcess(ctx context.Context, inv *invocation.Invocation) (bool, error) {
	return f(ctx, inv)
}

// SkipBehavior defines what a FilteringInterceptor returns for a filtered call
type SkipBehavior int

const (
	// SkipSilently returns a nil result and no error
	SkipSilently SkipBehavior = iota
	// SkipWithError returns ErrFiltered
	SkipWithError
)

// FilteringInterceptor stops calls the filter rejects
type FilteringInterceptor struct {
	filter       InvocationFilter
	skipBehavior SkipBehavior
}

// NewFilteringInterceptor creates a new filtering interceptor
func NewFilteringInterceptor(filter InvocationFilter, skipBehavior SkipBehavior) *FilteringInterceptor {
	return &FilteringInterceptor{
		filter:       filter,
		skipBehavior: skipBehavior,
	}
}

// Invoke implements MethodInterceptor
func (i *FilteringInterceptor) Invoke(ctx context.Context, next *invocation.Invocation) (any, error) {
	shouldProcess, err := i.filter.ShouldProcess(ctx, next.Original())
	if err != nil {
		return nil, fmt.Errorf("filter error: %w", err)
	}

	if !shouldProcess {
		if i.skipBehavior == SkipWithError {
			return nil, fmt.Errorf("%w: method=%s, id=%s", ErrFiltered, next.Method(), next.ID())
		}
		return nil, nil
	}

	return next.Proceed(ctx)
}

// Name implements Interceptor
func (i *FilteringInterceptor) Name() string {
	return "FilteringInterceptor"
}

// CompositeFilter combines multiple filters with AND logic
type CompositeFilter struct {
	filters []InvocationFilter
}

// NewCompositeFilter creates a new composite filter
func NewCompositeFilter(filters ...InvocationFilter) *CompositeFilter {
	return &CompositeFilter{filters: filters}
}

// ShouldProcess implements InvocationFilter - all filters must return true
func (f *CompositeFilter) ShouldProcess(ctx context.Context, inv *invocation.Invocation) (bool, error) {
	for _, filter := range f.filters {
		ok, err := filter.ShouldProcess(ctx, inv)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// OrFilter combines multiple filters with OR logic
type OrFilter struct {
	filters []InvocationFilter
}

// NewOrFilter creates a new OR filter
func NewOrFilter(filters ...InvocationFilter) *OrFilter {
	return &OrFilter{filters: filters}
}

// ShouldProcess implements InvocationFilter - at least one filter must return true
func (f *OrFilter) ShouldProcess(ctx context.Context, inv *invocation.Invocation) (bool, error) {
	for _, filter := range f.filters {
		ok, err := filter.ShouldProcess(ctx, inv)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// NotFilter inverts a filter
type NotFilter struct {
	filter InvocationFilter
}

// NewNotFilter creates a new NOT filter
func NewNotFilter(filter InvocationFilter) *NotFilter {
	return &NotFilter{filter: filter}
}

// ShouldProcess implements InvocationFilter
func (f *NotFilter) ShouldProcess(ctx context.Context, inv *invocation.Invocation) (bool, error) {
	ok, err := f.filter.ShouldProcess(ctx, inv)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// MethodFilter lets through only the listed methods
type MethodFilter struct {
	methods map[string]bool
}

// NewMethodFilter creates a filter that only allows specific methods
func NewMethodFilter(methods ...string) *MethodFilter {
	allowed := make(map[string]bool, len(methods))
	for _, m := range methods {
		allowed[m] = true
	}
	return &MethodFilter{methods: allowed}
}

// ShouldProcess implements InvocationFilter
func (f *MethodFilter) ShouldProcess(ctx context.Context, inv *invocation.Invocation) (bool, error) {
	return f.methods[inv.Method()], nil
}

// MethodPrefixFilter lets through methods starting with a prefix
type MethodPrefixFilter struct {
	prefix string
}

// NewMethodPrefixFilter creates a prefix filter
func NewMethodPrefixFilter(prefix string) *MethodPrefixFilter {
	return &MethodPrefixFilter{prefix: prefix}
}

// ShouldProcess implements InvocationFilter
func (f *MethodPrefixFilter) ShouldProcess(ctx context.Context, inv *invocation.Invocation) (bool, error) {
	return strings.HasPrefix(inv.Method(), f.prefix), nil
}

// ConditionalInterceptor runs an interceptor only if a condition is met and
// otherwise proceeds as if it were absent
type ConditionalInterceptor struct {
	condition   InvocationFilter
	interceptor MethodInterceptor
}

// NewConditionalInterceptor creates a new conditional interceptor
func NewConditionalInterceptor(condition InvocationFilter, interceptor MethodInterceptor) *ConditionalInterceptor {
	return &ConditionalInterceptor{
		condition:   condition,
		interceptor: interceptor,
	}
}

// Invoke implements MethodInterceptor
func (i *ConditionalInterceptor) Invoke(ctx context.Context, next *invocation.Invocation) (any, error) {
	shouldExecute, err := i.condition.ShouldProcess(ctx, next.Original())
	if err != nil {
		return nil, err
	}

	if shouldExecute {
		return i.interceptor.Invoke(ctx, next)
	}

	return next.Proceed(ctx)
}

// Name implements Interceptor
func (i *ConditionalInterceptor) Name() string {
	return fmt.Sprintf("ConditionalInterceptor[%s]", i.interceptor.Name())
}

// Clone implements Cloner by cloning the wrapped interceptor when it is a Cloner
func (i *ConditionalInterceptor) Clone() Interceptor {
	inner := i.interceptor
	if c, ok := inner.(Cloner); ok {
		if cloned, ok := c.Clone().(MethodInterceptor); ok {
			inner = cloned
		}
	}
	return &ConditionalInterceptor{condition: i.condition, interceptor: inner}
}

// ScopeFilter lets an invocation through when its call scope holds the
// expected value under key. Values are compared deeply, so slices and maps
// match by content.
type ScopeFilter struct {
	key      string
	expected any
}

func NewScopeFilter(key string, expected any) *ScopeFilter {
	return &ScopeFilter{key: key, expected: expected}
}

// ShouldProcess implements InvocationFilter
func (f *ScopeFilter) ShouldProcess(ctx context.Context, inv *invocation.Invocation) (bool, error) {
	scope, ok := ScopeFrom(ctx)
	if !ok {
		return false, nil
	}

	value, ok := scope.Get(f.key)
	if !ok {
		return false, nil
	}
	return reflect.DeepEqual(value, f.expected), nil
}
