// Package invocation provides the descriptor of a pending method call.
//
// An Invocation records what should execute next: a target Callee, the logical
// method name, the argument sequence and an optional parent. Driving an
// invocation with Proceed calls the target with the invocation itself.
//
// The proxy layer builds a terminal invocation around the real call:
//
//	inv := invocation.New(invocation.CalleeFunc(func(ctx context.Context, inv *invocation.Invocation) (any, error) {
//		return svc.Charge(ctx, inv.Argument(0))
//	}), "Charge", []any{amount})
//
//	result, err := d.Invoke(ctx, inv)
//
// The dispatcher wraps the terminal invocation in chain links. A link's only
// argument is the next invocation in the chain, which is what an interceptor
// receives and may forward to by calling Proceed.
package invocation
