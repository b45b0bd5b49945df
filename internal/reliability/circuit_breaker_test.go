package reliability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type recordingListener struct {
	transitions []string
}

func (l *recordingListener) OnStateChange(name string, from, to State, reason string) {
	l.transitions = append(l.transitions, from.String()+"->"+to.String())
}

func fail() (any, error) {
	return nil, errors.New("test error")
}

func succeed() (any, error) {
	return "ok", nil
}

func TestCircuitBreaker(t *testing.T) {
	ctx := context.Background()

	t.Run("starts in closed state", func(t *testing.T) {
		cb := NewCircuitBreaker()
		assert.Equal(t, StateClosed, cb.State())
	})

	t.Run("returns the result in closed state", func(t *testing.T) {
		cb := NewCircuitBreaker()

		result, err := cb.Execute(ctx, succeed)

		assert.NoError(t, err)
		assert.Equal(t, "ok", result)
	})

	t.Run("opens after failure threshold and rejects calls", func(t *testing.T) {
		cb := NewCircuitBreaker(WithFailureThreshold(3), WithName("charge"))

		for i := 0; i < 3; i++ {
			_, err := cb.Execute(ctx, fail)
			assert.Error(t, err)
		}
		assert.Equal(t, StateOpen, cb.State())

		executed := false
		_, err := cb.Execute(ctx, func() (any, error) {
			executed = true
			return nil, nil
		})

		assert.False(t, executed)
		assert.ErrorIs(t, err, ErrCircuitOpen)
		var cbErr *CircuitBreakerError
		require.ErrorAs(t, err, &cbErr)
		assert.Equal(t, "charge", cbErr.Name)
		assert.Equal(t, StateOpen, cbErr.State)
	})

	t.Run("half-open after timeout then closed on success threshold", func(t *testing.T) {
		clock := &fakeClock{now: time.Unix(1000, 0)}
		listener := &recordingListener{}
		cb := NewCircuitBreaker(
			WithFailureThreshold(1),
			WithSuccessThreshold(2),
			WithTimeout(time.Minute),
			WithClock(clock.Now),
			WithListener(listener),
		)

		_, _ = cb.Execute(ctx, fail)
		assert.Equal(t, StateOpen, cb.State())

		clock.Advance(2 * time.Minute)

		_, err := cb.Execute(ctx, succeed)
		require.NoError(t, err)
		assert.Equal(t, StateHalfOpen, cb.State())

		_, err = cb.Execute(ctx, succeed)
		require.NoError(t, err)
		assert.Equal(t, StateClosed, cb.State())

		assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, listener.transitions)
	})

	t.Run("half-open to open on failure", func(t *testing.T) {
		clock := &fakeClock{now: time.Unix(1000, 0)}
		cb := NewCircuitBreaker(WithFailureThreshold(1), WithTimeout(time.Second), WithClock(clock.Now))

		_, _ = cb.Execute(ctx, fail)
		clock.Advance(2 * time.Second)

		_, err := cb.Execute(ctx, fail)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrCircuitOpen)
		assert.Equal(t, StateOpen, cb.State())
	})

	t.Run("success in closed state resets failures", func(t *testing.T) {
		cb := NewCircuitBreaker(WithFailureThreshold(5))

		_, _ = cb.Execute(ctx, fail)
		_, _ = cb.Execute(ctx, succeed)
		_, _ = cb.Execute(ctx, fail)

		failures, _ := cb.Stats()
		assert.Equal(t, 1, failures)
	})

	t.Run("cancelled context does not count as a failure", func(t *testing.T) {
		cb := NewCircuitBreaker(WithFailureThreshold(1))
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := cb.Execute(cancelled, succeed)

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, StateClosed, cb.State())
	})

	t.Run("Reset closes the circuit", func(t *testing.T) {
		cb := NewCircuitBreaker(WithFailureThreshold(1))
		_, _ = cb.Execute(ctx, fail)

		cb.Reset()

		assert.Equal(t, StateClosed, cb.State())
		failures, successes := cb.Stats()
		assert.Zero(t, failures)
		assert.Zero(t, successes)
	})

	t.Run("Clone keeps configuration but not history", func(t *testing.T) {
		cb := NewCircuitBreaker(WithFailureThreshold(1), WithName("charge"))
		_, _ = cb.Execute(ctx, fail)

		clone := cb.Clone()

		assert.Equal(t, StateOpen, cb.State())
		assert.Equal(t, StateClosed, clone.State())

		_, err := clone.Execute(ctx, fail)
		assert.Error(t, err)
		assert.Equal(t, StateOpen, clone.State())
	})
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", State(42).String())
}
