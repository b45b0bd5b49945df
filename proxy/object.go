package proxy

import (
	"context"
	"fmt"
	"sync"

	"github.com/glimte/mmate-aspect/dispatcher"
	"github.com/glimte/mmate-aspect/invocation"
)

// Object is a proxied object: every call goes through the dispatcher's
// method chain, and a failed call is handed to its exception chain.
type Object struct {
	d      *dispatcher.Dispatcher
	callee invocation.Callee

	mu      sync.RWMutex
	handles map[string]*dispatcher.MethodHandle
}

// New creates an object calling callee through d
func New(d *dispatcher.Dispatcher, callee invocation.Callee) *Object {
	return &Object{
		d:       d,
		callee:  callee,
		handles: make(map[string]*dispatcher.MethodHandle),
	}
}

// Dispatcher returns the dispatcher holding the object's chains
func (o *Object) Dispatcher() *dispatcher.Dispatcher {
	return o.d
}

// Call invokes method with args. When the method chain returns an error the
// exception chain runs with a descriptor whose parent is the failed call and
// whose terminal re-raises the error; its outcome is the call's outcome.
func (o *Object) Call(ctx context.Context, method string, args ...any) (any, error) {
	h := o.handle(method)

	inv := invocation.New(o.callee, method, args)
	result, err := h.Invoke(ctx, inv)
	if err == nil {
		return result, nil
	}

	failed := invocation.New(reraise, method, args,
		invocation.WithID(inv.ID()),
		invocation.WithParent(inv),
		invocation.WithError(err),
	)
	return h.InvokeException(ctx, failed)
}

// Clone returns an object over a duplicate of the dispatcher. A nil callee
// keeps the receiver's callee.
func (o *Object) Clone(callee invocation.Callee) (*Object, error) {
	d, err := o.d.Clone()
	if err != nil {
		return nil, err
	}
	if callee == nil {
		callee = o.callee
	}
	return New(d, callee), nil
}

func (o *Object) handle(method string) *dispatcher.MethodHandle {
	o.mu.RLock()
	h, ok := o.handles[method]
	o.mu.RUnlock()
	if ok {
		return h
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if h, ok = o.handles[method]; !ok {
		h = o.d.Method(method)
		o.handles[method] = h
	}
	return h
}

var reraise = invocation.CalleeFunc(func(ctx context.Context, inv *invocation.Invocation) (any, error) {
	return nil, inv.Err()
})

// Call is Object.Call with a typed result. A nil result yields the zero value.
func Call[T any](ctx context.Context, o *Object, method string, args ...any) (T, error) {
	var zero T

	result, err := o.Call(ctx, method, args...)
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}

	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s returned %T, want %T", ErrUnexpectedResult, method, result, zero)
	}
	return typed, nil
}
