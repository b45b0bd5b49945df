package binding

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned for a malformed binding file
	ErrInvalidConfig = errors.New("binding: invalid configuration")
	// ErrUnknownInterceptor is returned when no factory has the bound name
	ErrUnknownInterceptor = errors.New("binding: unknown interceptor")
	// ErrDuplicateFactory is returned when registering a factory name twice
	ErrDuplicateFactory = errors.New("binding: factory already registered")
	// ErrInvalidParam is returned by factories for a bad or missing param
	ErrInvalidParam = errors.New("binding: invalid param")
)

// BindingError reports a problem with one entry of a binding file
type BindingError struct {
	Index       int
	Interceptor string
	Err         error
}

func (e *BindingError) Error() string {
	if e.Interceptor != "" {
		return fmt.Sprintf("binding[%d] %q: %v", e.Index, e.Interceptor, e.Err)
	}
	return fmt.Sprintf("binding[%d]: %v", e.Index, e.Err)
}

func (e *BindingError) Unwrap() error {
	return e.Err
}
