package invocation

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNoTarget is returned by Proceed when the invocation has no target
var ErrNoTarget = errors.New("invocation: no target to proceed to")

// Callee executes the call an invocation describes
type Callee interface {
	Call(ctx context.Context, inv *Invocation) (any, error)
}

// CalleeFunc is a function adapter for Callee
type CalleeFunc func(ctx context.Context, inv *Invocation) (any, error)

// Call implements Callee
func (f CalleeFunc) Call(ctx context.Context, inv *Invocation) (any, error) {
	return f(ctx, inv)
}

// Invocation describes one link in a call chain. It is immutable after
// construction and may be shared by the frames of a single call.
type Invocation struct {
	id     string
	target Callee
	method string
	args   []any
	parent *Invocation
	err    error
	link   bool
}

// Option configures an invocation at construction time
type Option func(*Invocation)

// WithParent sets the invocation this one originated from
func WithParent(parent *Invocation) Option {
	return func(inv *Invocation) {
		inv.parent = parent
	}
}

// WithError attaches the error that triggered an exception chain
func WithError(err error) Option {
	return func(inv *Invocation) {
		inv.err = err
	}
}

// WithID overrides the generated invocation id
func WithID(id string) Option {
	return func(inv *Invocation) {
		inv.id = id
	}
}

// New creates an invocation of method on target. The argument slice is copied.
func New(target Callee, method string, args []any, options ...Option) *Invocation {
	inv := &Invocation{
		target: target,
		method: method,
		args:   append([]any(nil), args...),
	}

	for _, opt := range options {
		opt(inv)
	}

	if inv.id == "" {
		inv.id = uuid.New().String()
	}

	return inv
}

// Link creates a chain link that drives target with next as its only
// argument. The link shares the id, method and error of next's original
// invocation, which becomes its parent.
func Link(target Callee, next *Invocation) *Invocation {
	origin := next.Original()
	return &Invocation{
		id:     origin.id,
		target: target,
		method: origin.method,
		args:   []any{next},
		parent: origin,
		err:    origin.err,
		link:   true,
	}
}

// ID returns the invocation id
func (inv *Invocation) ID() string {
	return inv.id
}

// Target returns the callee driven by Proceed
func (inv *Invocation) Target() Callee {
	return inv.target
}

// Method returns the logical method being intercepted
func (inv *Invocation) Method() string {
	return inv.method
}

// Arguments returns a copy of the argument sequence
func (inv *Invocation) Arguments() []any {
	return append([]any(nil), inv.args...)
}

// Argument returns the i-th argument, or nil if out of range
func (inv *Invocation) Argument(i int) any {
	if i < 0 || i >= len(inv.args) {
		return nil
	}
	return inv.args[i]
}

// NumArguments returns the number of arguments
func (inv *Invocation) NumArguments() int {
	return len(inv.args)
}

// Parent returns the invocation this one originated from, if any
func (inv *Invocation) Parent() *Invocation {
	return inv.parent
}

// Err returns the error carried by an exception invocation
func (inv *Invocation) Err() error {
	return inv.err
}

// IsLink reports whether the invocation was built by Link
func (inv *Invocation) IsLink() bool {
	return inv.link
}

// Next returns the invocation a chain link forwards to
func (inv *Invocation) Next() (*Invocation, bool) {
	if !inv.link || len(inv.args) != 1 {
		return nil, false
	}
	next, ok := inv.args[0].(*Invocation)
	return next, ok && next != nil
}

// Original returns the terminal invocation wrapped by the chain. For a
// terminal invocation it returns the invocation itself.
func (inv *Invocation) Original() *Invocation {
	if inv.link && inv.parent != nil {
		return inv.parent
	}
	return inv
}

// Proceed drives the invocation by calling its target. Repeated calls are not
// guarded against; whether they are safe depends on the target.
func (inv *Invocation) Proceed(ctx context.Context) (any, error) {
	if inv.target == nil {
		return nil, ErrNoTarget
	}
	return inv.target.Call(ctx, inv)
}
