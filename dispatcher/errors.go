package dispatcher

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyMethod is returned when registering under an empty method name
	ErrEmptyMethod = errors.New("dispatcher: method name is empty")
	// ErrNilInterceptor is returned when registering a nil interceptor
	ErrNilInterceptor = errors.New("dispatcher: interceptor is nil")
	// ErrWrongKind is returned when an interceptor lacks the capability of the
	// chain it is registered into
	ErrWrongKind = errors.New("dispatcher: interceptor does not implement the chain's capability")
	// ErrUnknownKind is returned for a Kind other than MethodKind or ExceptionKind
	ErrUnknownKind = errors.New("dispatcher: unknown interceptor kind")
	// ErrNilInvocation is returned by Invoke and InvokeException for a nil descriptor
	ErrNilInvocation = errors.New("dispatcher: invocation is nil")
	// ErrMethodMismatch is returned by a MethodHandle given another method's invocation
	ErrMethodMismatch = errors.New("dispatcher: invocation is for a different method")
	// ErrBrokenChain is returned if a chain link has no next invocation
	ErrBrokenChain = errors.New("dispatcher: chain link has no next invocation")
)

// ConfigurationError reports a rejected registration or duplication
type ConfigurationError struct {
	Op          string
	Kind        Kind
	Method      string
	Interceptor string
	Err         error
}

func (e *ConfigurationError) Error() string {
	if e.Interceptor != "" {
		return fmt.Sprintf("dispatcher: %s %s interceptor %s for method %q: %v",
			e.Op, e.Kind, e.Interceptor, e.Method, e.Err)
	}
	return fmt.Sprintf("dispatcher: %s %s interceptor for method %q: %v", e.Op, e.Kind, e.Method, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
