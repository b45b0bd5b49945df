package binding

import (
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/glimte/mmate-aspect/dispatcher"
	"github.com/glimte/mmate-aspect/interceptors"
	"github.com/glimte/mmate-aspect/internal/reliability"
)

// Factory creates one interceptor instance from a binding's params
type Factory func(params map[string]any) (interceptors.Interceptor, error)

// Catalog maps interceptor names used in binding files to factories
type Catalog struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{factories: make(map[string]Factory)}
}

// Register adds a factory under name
func (c *Catalog) Register(name string, factory Factory) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.factories[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateFactory, name)
	}
	c.factories[name] = factory
	return nil
}

// MustRegister is Register for static catalogs; it panics on a duplicate name
func (c *Catalog) MustRegister(name string, factory Factory) {
	if err := c.Register(name, factory); err != nil {
		panic(err)
	}
}

// Build creates an instance of the named interceptor. A factory returning no
// instance fails with dispatcher.ErrNilInterceptor.
func (c *Catalog) Build(name string, params map[string]any) (interceptors.Interceptor, error) {
	c.mu.RLock()
	factory, ok := c.factories[name]
	c.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownInterceptor, name)
	}

	instance, err := factory(params)
	if err != nil {
		return nil, err
	}
	if instance == nil {
		return nil, fmt.Errorf("%w: factory %s returned none", dispatcher.ErrNilInterceptor, name)
	}
	if v := reflect.ValueOf(instance); v.Kind() == reflect.Pointer && v.IsNil() {
		return nil, fmt.Errorf("%w: factory %s returned a nil %T", dispatcher.ErrNilInterceptor, name, instance)
	}
	return instance, nil
}

// Names returns the registered names in sorted order
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.factories))
	for name := range c.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultCatalog returns a catalog holding the built-in interceptors that
// need no collaborators beyond a logger:
//
//	logging         method     no params
//	errorLogging    exception  no params
//	retry           method     maxRetries (int, 3), delay (duration, 100ms)
//	rateLimit       method     rate (float per second, required), burst (int, 1)
//	circuitBreaker  method     failureThreshold (int, 5), timeout (duration, 30s)
//	cache           method     no params
func DefaultCatalog(logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}

	c := NewCatalog()
	c.MustRegister("logging", func(map[string]any) (interceptors.Interceptor, error) {
		return interceptors.NewLoggingInterceptor(logger), nil
	})
	c.MustRegister("errorLogging", func(map[string]any) (interceptors.Interceptor, error) {
		return interceptors.NewErrorLoggingInterceptor(logger), nil
	})
	c.MustRegister("retry", func(params map[string]any) (interceptors.Interceptor, error) {
		maxRetries, err := intParam(params, "maxRetries", 3)
		if err != nil {
			return nil, err
		}
		delay, err := durationParam(params, "delay", 100*time.Millisecond)
		if err != nil {
			return nil, err
		}
		return interceptors.NewRetryInterceptor(reliability.NewFixedDelay(delay, maxRetries)).WithLogger(logger), nil
	})
	c.MustRegister("rateLimit", func(params map[string]any) (interceptors.Interceptor, error) {
		perSecond, err := floatParam(params, "rate", -1)
		if err != nil {
			return nil, err
		}
		if perSecond <= 0 {
			return nil, fmt.Errorf("%w: rate must be positive", ErrInvalidParam)
		}
		burst, err := intParam(params, "burst", 1)
		if err != nil {
			return nil, err
		}
		return interceptors.NewRateLimitingInterceptor(interceptors.NewTokenBucketLimiter(rate.Limit(perSecond), burst)), nil
	})
	c.MustRegister("circuitBreaker", func(params map[string]any) (interceptors.Interceptor, error) {
		threshold, err := intParam(params, "failureThreshold", 5)
		if err != nil {
			return nil, err
		}
		timeout, err := durationParam(params, "timeout", 30*time.Second)
		if err != nil {
			return nil, err
		}
		cb := reliability.NewCircuitBreaker(
			reliability.WithFailureThreshold(threshold),
			reliability.WithTimeout(timeout),
		)
		return interceptors.NewCircuitBreakerInterceptor(cb), nil
	})
	c.MustRegister("cache", func(map[string]any) (interceptors.Interceptor, error) {
		return interceptors.NewCachingInterceptor(interceptors.NewMemoryCache(), nil), nil
	})

	return c
}

func intParam(params map[string]any, key string, def int) (int, error) {
	v, ok := params[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n == float64(int(n)) {
			return int(n), nil
		}
	}
	return 0, fmt.Errorf("%w: %s must be an integer, got %v", ErrInvalidParam, key, v)
}

func floatParam(params map[string]any, key string, def float64) (float64, error) {
	v, ok := params[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	}
	return 0, fmt.Errorf("%w: %s must be a number, got %v", ErrInvalidParam, key, v)
}

func durationParam(params map[string]any, key string, def time.Duration) (time.Duration, error) {
	v, ok := params[key]
	if !ok {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("%w: %s must be a duration string, got %v", ErrInvalidParam, key, v)
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidParam, key, err)
	}
	return d, nil
}
