// Package binding registers interceptors on a dispatcher from a declarative
// binding file.
//
// A binding file names interceptors by catalog name and selects the methods
// they apply to, either by listing them or with a CEL expression over the
// method name:
//
//	name: PaymentService
//	bindings:
//	  - interceptor: logging
//	    when: method.startsWith("Charge") || method == "Refund"
//	  - interceptor: retry
//	    methods: [Charge]
//	    params:
//	      maxRetries: 3
//	      delay: 50ms
//	  - interceptor: errorLogging
//	    kind: exception
//	    when: "true"
//
// Bindings are applied in file order, so within one method the chain order is
// the order of the bindings that select it. Binding happens once, before the
// dispatcher serves calls.
package binding
