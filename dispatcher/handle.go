package dispatcher

import (
	"context"
	"fmt"

	"github.com/glimte/mmate-aspect/interceptors"
	"github.com/glimte/mmate-aspect/invocation"
)

// MethodHandle is a method resolved once against a dispatcher. A proxy can
// keep one handle per method and skip the name lookup on every call. The
// handle observes registrations made after it was resolved.
type MethodHandle struct {
	method     string
	methods    *sequence[interceptors.MethodInterceptor]
	exceptions *sequence[interceptors.ExceptionInterceptor]
}

// Method resolves method into a handle
func (d *Dispatcher) Method(method string) *MethodHandle {
	return &MethodHandle{
		method:     method,
		methods:    d.methods.resolve(method),
		exceptions: d.exceptions.resolve(method),
	}
}

// Name returns the resolved method name
func (h *MethodHandle) Name() string {
	return h.method
}

// Intercepted reports whether any method interceptor is registered
func (h *MethodHandle) Intercepted() bool {
	_, ok := h.methods.snapshot()
	return ok
}

// Invoke is Dispatcher.Invoke without the method lookup
func (h *MethodHandle) Invoke(ctx context.Context, inv *invocation.Invocation) (any, error) {
	if err := h.check(inv); err != nil {
		return nil, err
	}

	chain, ok := h.methods.snapshot()
	if !ok {
		return inv.Proceed(ctx)
	}
	return buildChain(inv, chain, methodLink).Proceed(ctx)
}

// InvokeException is Dispatcher.InvokeException without the method lookup
func (h *MethodHandle) InvokeException(ctx context.Context, inv *invocation.Invocation) (any, error) {
	if err := h.check(inv); err != nil {
		return nil, err
	}

	chain, ok := h.exceptions.snapshot()
	if !ok {
		return inv.Proceed(ctx)
	}
	return buildChain(inv, chain, exceptionLink).Proceed(ctx)
}

func (h *MethodHandle) check(inv *invocation.Invocation) error {
	if inv == nil {
		return ErrNilInvocation
	}
	if inv.Method() != h.method {
		return fmt.Errorf("%w: handle %q, invocation %q", ErrMethodMismatch, h.method, inv.Method())
	}
	return nil
}
