package proxy

import (
	"errors"
	"fmt"
)

var (
	// ErrNilTarget is returned by Reflect for a nil value
	ErrNilTarget = errors.New("proxy: target is nil")
	// ErrUnknownMethod is returned when the target has no callable method of that name
	ErrUnknownMethod = errors.New("proxy: unknown method")
	// ErrUnexpectedResult is returned by Call when the result has another type
	ErrUnexpectedResult = errors.New("proxy: unexpected result type")
)

// ArgumentError reports arguments that do not fit the method's parameters.
// Index is -1 when the argument count is wrong.
type ArgumentError struct {
	Method string
	Index  int
	Want   string
	Got    string
}

func (e *ArgumentError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("proxy: %s takes %s, got %s", e.Method, e.Want, e.Got)
	}
	return fmt.Sprintf("proxy: %s argument %d: want %s, got %s", e.Method, e.Index, e.Want, e.Got)
}
