// Package dispatcher stores the interceptor chains of a proxied object and
// runs them around its calls.
//
// Each method name has two independent, append-only chains: method
// interceptors, run by Invoke, and exception interceptors, run by
// InvokeException. Registration order is execution order.
//
//	d := dispatcher.New(dispatcher.WithName("PaymentService"))
//	_ = d.AddMethodInterceptor("Charge", audit)
//	_ = d.AddMethodInterceptor("Charge", counter)
//
//	result, err := d.Invoke(ctx, invocation.New(realCharge, "Charge", []any{amount}))
//
// For every call a fresh chain of invocations is built from a snapshot of the
// registered interceptors: for [i0, i1, ..., iN] around terminal T the
// outermost link drives i0, whose Proceed drives i1, and so on until iN's
// Proceed drives T. A method with nothing registered is a pass-through and T
// is driven directly. The engine neither catches nor wraps errors raised in
// the chain; routing a failure into InvokeException is the proxy layer's job.
//
// Registrations are expected to happen before traffic starts but are safe to
// make concurrently with calls: sequences are replaced on append, never
// modified, so a chain already built keeps the interceptors it was built from.
package dispatcher
