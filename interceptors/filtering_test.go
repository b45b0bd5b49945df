package interceptors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glimte/mmate-aspect/invocation"
)

func named(method string) *invocation.Invocation {
	return invocation.New(invocation.CalleeFunc(func(ctx context.Context, inv *invocation.Invocation) (any, error) {
		return inv.Method(), nil
	}), method, nil)
}

func TestFilteringInterceptor(t *testing.T) {
	ctx := context.Background()

	t.Run("lets matching calls through", func(t *testing.T) {
		i := NewFilteringInterceptor(NewMethodFilter("Charge"), SkipWithError)
		result, err := i.Invoke(ctx, named("Charge"))
		require.NoError(t, err)
		assert.Equal(t, "Charge", result)
	})

	t.Run("skips silently", func(t *testing.T) {
		i := NewFilteringInterceptor(NewMethodFilter("Charge"), SkipSilently)
		result, err := i.Invoke(ctx, named("Refund"))
		assert.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("skips with an error", func(t *testing.T) {
		i := NewFilteringInterceptor(NewMethodFilter("Charge"), SkipWithError)
		_, err := i.Invoke(ctx, named("Refund"))
		assert.ErrorIs(t, err, ErrFiltered)
	})

	t.Run("wraps filter errors", func(t *testing.T) {
		boom := errors.New("boom")
		i := NewFilteringInterceptor(InvocationFilterFunc(func(ctx context.Context, inv *invocation.Invocation) (bool, error) {
			return false, boom
		}), SkipSilently)

		_, err := i.Invoke(ctx, named("Charge"))
		assert.ErrorIs(t, err, boom)
	})
}

func TestFilterCombinators(t *testing.T) {
	ctx := context.Background()
	charge := named("Charge")
	getBalance := named("GetBalance")

	tests := []struct {
		name   string
		filter InvocationFilter
		inv    *invocation.Invocation
		want   bool
	}{
		{"prefix match", NewMethodPrefixFilter("Get"), getBalance, true},
		{"prefix miss", NewMethodPrefixFilter("Get"), charge, false},
		{"and of both", NewCompositeFilter(NewMethodFilter("Charge"), NewMethodPrefixFilter("Ch")), charge, true},
		{"and with a miss", NewCompositeFilter(NewMethodFilter("Charge"), NewMethodPrefixFilter("Get")), charge, false},
		{"or with one match", NewOrFilter(NewMethodFilter("Refund"), NewMethodPrefixFilter("Get")), getBalance, true},
		{"or with none", NewOrFilter(NewMethodFilter("Refund")), charge, false},
		{"not", NewNotFilter(NewMethodPrefixFilter("Get")), charge, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.filter.ShouldProcess(ctx, tt.inv)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConditionalInterceptor(t *testing.T) {
	ctx := context.Background()
	stub := NewMethodInterceptorFunc("stub", func(ctx context.Context, next *invocation.Invocation) (any, error) {
		return "stubbed", nil
	})
	i := NewConditionalInterceptor(NewMethodPrefixFilter("Get"), stub)

	t.Run("runs the wrapped interceptor when the condition holds", func(t *testing.T) {
		result, err := i.Invoke(ctx, named("GetBalance"))
		require.NoError(t, err)
		assert.Equal(t, "stubbed", result)
	})

	t.Run("otherwise behaves as if absent", func(t *testing.T) {
		result, err := i.Invoke(ctx, named("Charge"))
		require.NoError(t, err)
		assert.Equal(t, "Charge", result)
	})

	t.Run("name includes the wrapped interceptor", func(t *testing.T) {
		assert.Equal(t, "ConditionalInterceptor[stub]", i.Name())
	})

	t.Run("clone duplicates a stateful wrapped interceptor", func(t *testing.T) {
		cached := NewCachingInterceptor(NewMemoryCache(), nil)
		c := NewConditionalInterceptor(NewMethodPrefixFilter("Get"), cached)

		clone := c.Clone().(*ConditionalInterceptor)

		assert.NotSame(t, cached, clone.interceptor)
		assert.IsType(t, &CachingInterceptor{}, clone.interceptor)
	})
}

func TestScopeFilter(t *testing.T) {
	f := NewScopeFilter("tenant", "acme")

	t.Run("no call scope", func(t *testing.T) {
		ok, err := f.ShouldProcess(context.Background(), named("Charge"))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("matching value", func(t *testing.T) {
		ctx, scope := EnsureScope(context.Background())
		scope.Set("tenant", "acme")

		ok, err := f.ShouldProcess(ctx, named("Charge"))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("other value", func(t *testing.T) {
		ctx, scope := EnsureScope(context.Background())
		scope.Set("tenant", "globex")

		ok, err := f.ShouldProcess(ctx, named("Charge"))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("slice values compare by content", func(t *testing.T) {
		roles := NewScopeFilter("roles", []string{"admin"})
		ctx, scope := EnsureScope(context.Background())
		scope.Set("roles", []string{"admin"})

		ok, err := roles.ShouldProcess(ctx, named("Charge"))
		require.NoError(t, err)
		assert.True(t, ok)

		scope.Set("roles", []string{"viewer"})
		ok, err = roles.ShouldProcess(ctx, named("Charge"))
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
