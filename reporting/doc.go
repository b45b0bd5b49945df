// Package reporting turns failed intercepted calls into FailureReports and
// publishes them, typically to a RabbitMQ exchange.
//
// ReportingInterceptor is an exception interceptor. Register it for the
// methods whose failures should be reported:
//
//	ch, _ := conn.Channel()
//	publisher := reporting.NewChannelPublisher(ch, "aspect.failures", "payments")
//	d.AddExceptionInterceptor("Charge", reporting.NewReportingInterceptor(publisher,
//		reporting.WithSource("payments"),
//	))
package reporting
