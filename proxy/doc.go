// Package proxy puts a dispatcher in front of an ordinary Go value.
//
//	svc := &PaymentService{}
//	callee, err := proxy.Reflect(svc)
//	if err != nil {
//		return err
//	}
//
//	d := dispatcher.New(dispatcher.WithName("PaymentService"))
//	d.AddMethodInterceptor("Charge", interceptors.NewLoggingInterceptor(logger))
//
//	payments := proxy.New(d, callee)
//	balance, err := proxy.Call[int](ctx, payments, "Charge", 100)
//
// Reflect is one way to obtain a Callee; generated or hand-written adapters
// that switch on the method name work the same way.
package proxy
