package proxy

import (
	"context"
	"errors"
	"math"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glimte/mmate-aspect/dispatcher"
	"github.com/glimte/mmate-aspect/interceptors"
	"github.com/glimte/mmate-aspect/invocation"
)

var errDeclined = errors.New("card declined")

type paymentService struct {
	balance int
}

func (s *paymentService) Charge(ctx context.Context, amount int) (int, error) {
	if amount > s.balance {
		return 0, errDeclined
	}
	s.balance -= amount
	return s.balance, nil
}

func (s *paymentService) Balance() int {
	return s.balance
}

func (s *paymentService) Reset(ctx context.Context) error {
	s.balance = 0
	return nil
}

func (s *paymentService) Tag(prefix string, parts ...string) string {
	return prefix + strings.Join(parts, ",")
}

func (s *paymentService) Lookup(ids map[string]int) *int {
	return nil
}

func (s *paymentService) Split() (int, int) {
	return 0, 0
}

func (s *paymentService) internal() {}

func newPayments(t *testing.T, balance int) (*Object, *dispatcher.Dispatcher) {
	t.Helper()
	callee, err := Reflect(&paymentService{balance: balance})
	require.NoError(t, err)
	d := dispatcher.New(dispatcher.WithName("PaymentService"))
	return New(d, callee), d
}

func TestReflect(t *testing.T) {
	ctx := context.Background()
	svc := &paymentService{balance: 500}
	callee, err := Reflect(svc)
	require.NoError(t, err)

	call := func(method string, args ...any) (any, error) {
		return invocation.New(callee, method, args).Proceed(ctx)
	}

	t.Run("passes the context and returns value and error", func(t *testing.T) {
		result, err := call("Charge", 100)
		require.NoError(t, err)
		assert.Equal(t, 400, result)

		_, err = call("Charge", 1000)
		assert.Same(t, errDeclined, err)
	})

	t.Run("converts numeric arguments", func(t *testing.T) {
		result, err := call("Charge", int64(100))
		require.NoError(t, err)
		assert.Equal(t, 300, result)
	})

	t.Run("single value and error-only methods", func(t *testing.T) {
		result, err := call("Balance")
		require.NoError(t, err)
		assert.Equal(t, 300, result)

		result, err = call("Reset")
		require.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("variadic methods", func(t *testing.T) {
		result, err := call("Tag", "p:", "a", "b")
		require.NoError(t, err)
		assert.Equal(t, "p:a,b", result)

		result, err = call("Tag", "p:")
		require.NoError(t, err)
		assert.Equal(t, "p:", result)
	})

	t.Run("nil for nillable parameters", func(t *testing.T) {
		_, err := call("Lookup", nil)
		assert.NoError(t, err)
	})

	t.Run("unknown and unsupported methods", func(t *testing.T) {
		_, err := call("Withdraw")
		assert.ErrorIs(t, err, ErrUnknownMethod)

		_, err = call("Split")
		assert.ErrorIs(t, err, ErrUnknownMethod)
	})

	t.Run("argument errors", func(t *testing.T) {
		_, err := call("Charge", "100")
		var argErr *ArgumentError
		require.ErrorAs(t, err, &argErr)
		assert.Equal(t, 0, argErr.Index)
		assert.Equal(t, "int", argErr.Want)
		assert.Equal(t, "string", argErr.Got)

		_, err = call("Charge")
		require.ErrorAs(t, err, &argErr)
		assert.Equal(t, -1, argErr.Index)

		_, err = call("Tag")
		require.ErrorAs(t, err, &argErr)
		assert.Contains(t, argErr.Error(), "at least 1 arguments")
	})

	t.Run("nil target", func(t *testing.T) {
		_, err := Reflect(nil)
		assert.ErrorIs(t, err, ErrNilTarget)
	})

	t.Run("lossy numeric arguments are rejected", func(t *testing.T) {
		for _, arg := range []any{1.9, -0.5, math.Inf(1), uint64(math.MaxUint64)} {
			_, err := call("Charge", arg)
			var argErr *ArgumentError
			require.ErrorAs(t, err, &argErr, "%v", arg)
			assert.Equal(t, "int", argErr.Want)
		}

		result, err := call("Charge", 0.0)
		require.NoError(t, err)
		assert.Equal(t, 0, result)
	})
}

func TestConvert(t *testing.T) {
	uint8Type := reflect.TypeOf(uint8(0))
	float32Type := reflect.TypeOf(float32(0))

	tests := []struct {
		name string
		arg  any
		want reflect.Type
		ok   bool
	}{
		{"int in range", 200, uint8Type, true},
		{"int overflow", 300, uint8Type, false},
		{"negative to unsigned", -1, uint8Type, false},
		{"whole float", 7.0, uint8Type, true},
		{"fractional float", 7.5, uint8Type, false},
		{"float64 to float32", 0.25, float32Type, true},
		{"float32 overflow", math.MaxFloat64, float32Type, false},
		{"int to float", 3, float32Type, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := convert(tt.arg, tt.want)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestMethodNames(t *testing.T) {
	assert.Equal(t, []string{"Balance", "Charge", "Lookup", "Reset", "Tag"}, MethodNames(&paymentService{}))
	assert.Nil(t, MethodNames(nil))
}

func TestObject_Call(t *testing.T) {
	ctx := context.Background()

	t.Run("runs the method chain", func(t *testing.T) {
		payments, d := newPayments(t, 500)
		var seen atomic.Int64
		require.NoError(t, d.AddMethodInterceptor("Charge", interceptors.NewMethodInterceptorFunc("count",
			func(ctx context.Context, next *invocation.Invocation) (any, error) {
				seen.Add(1)
				return next.Proceed(ctx)
			})))

		result, err := payments.Call(ctx, "Charge", 100)

		require.NoError(t, err)
		assert.Equal(t, 400, result)
		assert.Equal(t, int64(1), seen.Load())
	})

	t.Run("failures reach the exception chain", func(t *testing.T) {
		payments, d := newPayments(t, 50)
		var failed *invocation.Invocation
		require.NoError(t, d.AddExceptionInterceptor("Charge", interceptors.NewExceptionInterceptorFunc("observe",
			func(ctx context.Context, next *invocation.Invocation) (any, error) {
				failed = next
				return next.Proceed(ctx)
			})))

		_, err := payments.Call(ctx, "Charge", 100)

		assert.Same(t, errDeclined, err)
		require.NotNil(t, failed)
		assert.Same(t, errDeclined, failed.Err())
		assert.Equal(t, "Charge", failed.Method())
		assert.Equal(t, []any{100}, failed.Arguments())
		require.NotNil(t, failed.Parent())
		assert.Equal(t, failed.ID(), failed.Parent().ID())
	})

	t.Run("the exception chain may recover", func(t *testing.T) {
		payments, d := newPayments(t, 50)
		require.NoError(t, d.AddExceptionInterceptor("Charge", interceptors.NewFallbackInterceptor(
			interceptors.FallbackProviderFunc(func(ctx context.Context, inv *invocation.Invocation, err error) (any, bool) {
				return -1, errors.Is(err, errDeclined)
			}), nil)))

		result, err := Call[int](ctx, payments, "Charge", 100)

		require.NoError(t, err)
		assert.Equal(t, -1, result)
	})

	t.Run("interceptor errors also reach the exception chain", func(t *testing.T) {
		payments, d := newPayments(t, 500)
		denied := errors.New("denied")
		require.NoError(t, d.AddMethodInterceptor("Charge", interceptors.NewMethodInterceptorFunc("deny",
			func(ctx context.Context, next *invocation.Invocation) (any, error) {
				return nil, denied
			})))
		var reached bool
		require.NoError(t, d.AddExceptionInterceptor("Charge", interceptors.NewExceptionInterceptorFunc("observe",
			func(ctx context.Context, next *invocation.Invocation) (any, error) {
				reached = true
				return next.Proceed(ctx)
			})))

		_, err := payments.Call(ctx, "Charge", 100)

		assert.Same(t, denied, err)
		assert.True(t, reached)
	})

	t.Run("later registrations apply to later calls", func(t *testing.T) {
		payments, d := newPayments(t, 500)
		_, err := payments.Call(ctx, "Charge", 1)
		require.NoError(t, err)

		require.NoError(t, d.AddMethodInterceptor("Charge", interceptors.NewMethodInterceptorFunc("stub",
			func(ctx context.Context, next *invocation.Invocation) (any, error) {
				return 0, nil
			})))

		result, err := payments.Call(ctx, "Charge", 1)
		require.NoError(t, err)
		assert.Equal(t, 0, result)
	})
}

func TestCall(t *testing.T) {
	ctx := context.Background()
	payments, _ := newPayments(t, 500)

	t.Run("typed result", func(t *testing.T) {
		balance, err := Call[int](ctx, payments, "Balance")
		require.NoError(t, err)
		assert.Equal(t, 500, balance)
	})

	t.Run("nil result is the zero value", func(t *testing.T) {
		result, err := Call[string](ctx, payments, "Reset")
		require.NoError(t, err)
		assert.Empty(t, result)
	})

	t.Run("wrong type", func(t *testing.T) {
		_, err := Call[string](ctx, payments, "Balance")
		assert.ErrorIs(t, err, ErrUnexpectedResult)
	})
}

type counting struct {
	calls atomic.Int64
}

func (c *counting) Invoke(ctx context.Context, next *invocation.Invocation) (any, error) {
	c.calls.Add(1)
	return next.Proceed(ctx)
}

func (c *counting) Name() string {
	return "counting"
}

func (c *counting) Clone() interceptors.Interceptor {
	return &counting{}
}

func TestObject_Clone(t *testing.T) {
	ctx := context.Background()
	payments, d := newPayments(t, 500)
	c := &counting{}
	require.NoError(t, d.AddMethodInterceptor("Charge", c))

	other, err := Reflect(&paymentService{balance: 10})
	require.NoError(t, err)
	clone, err := payments.Clone(other)
	require.NoError(t, err)

	balance, err := Call[int](ctx, clone, "Balance")
	require.NoError(t, err)
	assert.Equal(t, 10, balance)

	_, err = clone.Call(ctx, "Charge", 5)
	require.NoError(t, err)
	assert.Zero(t, c.calls.Load())

	chain, ok := clone.Dispatcher().Interceptors("Charge")
	require.True(t, ok)
	assert.Equal(t, int64(1), chain[0].(*counting).calls.Load())

	same, err := payments.Clone(nil)
	require.NoError(t, err)
	balance, err = Call[int](ctx, same, "Balance")
	require.NoError(t, err)
	assert.Equal(t, 500, balance)
}
