package dispatcher

import (
	"context"
	"log/slog"

	"github.com/glimte/mmate-aspect/interceptors"
	"github.com/glimte/mmate-aspect/invocation"
)

// Kind selects one of the two interceptor chains of a method
type Kind int

const (
	// MethodKind is the chain run by Invoke
	MethodKind Kind = iota
	// ExceptionKind is the chain run by InvokeException
	ExceptionKind
)

func (k Kind) String() string {
	switch k {
	case MethodKind:
		return "method"
	case ExceptionKind:
		return "exception"
	default:
		return "unknown"
	}
}

// Dispatcher holds the interceptor chains of one proxied object and runs
// them around its calls.
type Dispatcher struct {
	methods    *registry[interceptors.MethodInterceptor]
	exceptions *registry[interceptors.ExceptionInterceptor]
	name       string
	logger     *slog.Logger
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithLogger sets the logger used for registration and duplication events
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithName sets the name reported in logs, typically the proxied type
func WithName(name string) Option {
	return func(d *Dispatcher) {
		d.name = name
	}
}

// New creates a dispatcher with no registrations
func New(options ...Option) *Dispatcher {
	d := &Dispatcher{
		methods:    newRegistry[interceptors.MethodInterceptor](),
		exceptions: newRegistry[interceptors.ExceptionInterceptor](),
		name:       "dispatcher",
		logger:     slog.Default(),
	}

	for _, opt := range options {
		opt(d)
	}

	return d
}

// Name returns the dispatcher name
func (d *Dispatcher) Name() string {
	return d.name
}

// AddMethodInterceptor appends interceptor to the method chain of method.
// The same interceptor may be added more than once and then runs more than once.
func (d *Dispatcher) AddMethodInterceptor(method string, interceptor interceptors.MethodInterceptor) error {
	return d.AddMethodInterceptors(method, interceptor)
}

// AddMethodInterceptors appends several interceptors to the method chain of
// method in the given order. Nothing is registered if any of them is rejected,
// and an empty stack registers nothing.
func (d *Dispatcher) AddMethodInterceptors(method string, stack ...interceptors.MethodInterceptor) error {
	if method == "" {
		return &ConfigurationError{Op: "register", Kind: MethodKind, Method: method, Err: ErrEmptyMethod}
	}
	if len(stack) == 0 {
		return nil
	}

	for _, interceptor := range stack {
		if err := checkRegistration(MethodKind, method, interceptor); err != nil {
			return err
		}
	}

	d.methods.append(method, stack...)
	logRegistration(d, MethodKind, method, stack)
	return nil
}

// AddExceptionInterceptor appends interceptor to the exception chain of method
func (d *Dispatcher) AddExceptionInterceptor(method string, interceptor interceptors.ExceptionInterceptor) error {
	if err := checkRegistration(ExceptionKind, method, interceptor); err != nil {
		return err
	}

	d.exceptions.append(method, interceptor)
	logRegistration(d, ExceptionKind, method, []interceptors.ExceptionInterceptor{interceptor})
	return nil
}

// Register appends an interceptor whose variant is only known at run time,
// as produced by a binder. An interceptor lacking the capability of kind is
// rejected with a ConfigurationError wrapping ErrWrongKind.
func (d *Dispatcher) Register(kind Kind, method string, interceptor interceptors.Interceptor) error {
	if isNil(interceptor) {
		return &ConfigurationError{Op: "register", Kind: kind, Method: method, Err: ErrNilInterceptor}
	}

	switch kind {
	case MethodKind:
		mi, ok := interceptor.(interceptors.MethodInterceptor)
		if !ok {
			return wrongKind(kind, method, interceptor)
		}
		return d.AddMethodInterceptor(method, mi)

	case ExceptionKind:
		ei, ok := interceptor.(interceptors.ExceptionInterceptor)
		if !ok {
			return wrongKind(kind, method, interceptor)
		}
		return d.AddExceptionInterceptor(method, ei)

	default:
		return &ConfigurationError{
			Op: "register", Kind: kind, Method: method, Interceptor: interceptor.Name(), Err: ErrUnknownKind,
		}
	}
}

// Interceptors returns a copy of the method chain of method. The boolean is
// false when nothing was ever registered for it.
func (d *Dispatcher) Interceptors(method string) ([]interceptors.MethodInterceptor, bool) {
	items, ok := d.methods.lookup(method)
	if !ok {
		return nil, false
	}
	return append([]interceptors.MethodInterceptor(nil), items...), true
}

// ExceptionInterceptors returns a copy of the exception chain of method. The
// boolean is false when nothing was ever registered for it.
func (d *Dispatcher) ExceptionInterceptors(method string) ([]interceptors.ExceptionInterceptor, bool) {
	items, ok := d.exceptions.lookup(method)
	if !ok {
		return nil, false
	}
	return append([]interceptors.ExceptionInterceptor(nil), items...), true
}

// Methods returns the sorted names of methods with a registration of kind
func (d *Dispatcher) Methods(kind Kind) []string {
	switch kind {
	case MethodKind:
		return d.methods.methods()
	case ExceptionKind:
		return d.exceptions.methods()
	default:
		return nil
	}
}

// Invoke runs the method chain of inv's method around inv. When no method
// interceptor is registered inv is driven directly. Errors from any
// interceptor or from inv itself are returned unchanged.
func (d *Dispatcher) Invoke(ctx context.Context, inv *invocation.Invocation) (any, error) {
	if inv == nil {
		return nil, ErrNilInvocation
	}

	chain, ok := d.methods.lookup(inv.Method())
	if !ok {
		return inv.Proceed(ctx)
	}
	return buildChain(inv, chain, methodLink).Proceed(ctx)
}

// InvokeException runs the exception chain of inv's method around inv. It is
// called by the proxy layer after the wrapped call failed; inv usually
// re-raises that error when driven.
func (d *Dispatcher) InvokeException(ctx context.Context, inv *invocation.Invocation) (any, error) {
	if inv == nil {
		return nil, ErrNilInvocation
	}

	chain, ok := d.exceptions.lookup(inv.Method())
	if !ok {
		return inv.Proceed(ctx)
	}
	return buildChain(inv, chain, exceptionLink).Proceed(ctx)
}

func checkRegistration(kind Kind, method string, interceptor interceptors.Interceptor) error {
	if method == "" {
		return &ConfigurationError{Op: "register", Kind: kind, Method: method, Err: ErrEmptyMethod}
	}
	if isNil(interceptor) {
		return &ConfigurationError{Op: "register", Kind: kind, Method: method, Err: ErrNilInterceptor}
	}
	return nil
}

func wrongKind(kind Kind, method string, interceptor interceptors.Interceptor) error {
	return &ConfigurationError{
		Op:          "register",
		Kind:        kind,
		Method:      method,
		Interceptor: interceptor.Name(),
		Err:         ErrWrongKind,
	}
}

func logRegistration[T interceptors.Interceptor](d *Dispatcher, kind Kind, method string, added []T) {
	for _, i := range added {
		d.logger.Debug("interceptor registered",
			"dispatcher", d.name,
			"kind", kind.String(),
			"method", method,
			"interceptor", i.Name(),
		)
	}
}
