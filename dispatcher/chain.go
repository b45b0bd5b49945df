package dispatcher

import (
	"context"
	"reflect"

	"github.com/glimte/mmate-aspect/interceptors"
	"github.com/glimte/mmate-aspect/invocation"
)

// buildChain wraps terminal in one link per interceptor, right to left, and
// returns the outermost link. Driving it runs chain[0], chain[1], ... and
// finally terminal, each link's Proceed being the call of the next one.
func buildChain[T interceptors.Interceptor](terminal *invocation.Invocation, chain []T, link func(T) invocation.Callee) *invocation.Invocation {
	head := terminal
	for i := len(chain) - 1; i >= 0; i-- {
		head = invocation.Link(link(chain[i]), head)
	}
	return head
}

func methodLink(interceptor interceptors.MethodInterceptor) invocation.Callee {
	return invocation.CalleeFunc(func(ctx context.Context, link *invocation.Invocation) (any, error) {
		next, ok := link.Next()
		if !ok {
			return nil, ErrBrokenChain
		}
		return interceptor.Invoke(ctx, next)
	})
}

func exceptionLink(interceptor interceptors.ExceptionInterceptor) invocation.Callee {
	return invocation.CalleeFunc(func(ctx context.Context, link *invocation.Invocation) (any, error) {
		next, ok := link.Next()
		if !ok {
			return nil, ErrBrokenChain
		}
		return interceptor.InvokeException(ctx, next)
	})
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
