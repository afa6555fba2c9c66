// Package telemetry holds the business-level Prometheus metrics.
package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the business metric collectors.
type Metrics struct {
	OrdersCreated        prometheus.Counter
	OrdersConfirmed      prometheus.Counter
	OversellPrevented    prometheus.Counter
	VerificationFailures prometheus.Counter
	JobsProcessed        *prometheus.CounterVec
}

// NewMetrics creates the business metrics, registering them on the given
// registerer (nil uses the default registry).
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "kicks"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Total number of orders created",
		}),
		OrdersConfirmed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_confirmed_total",
			Help:      "Total number of orders confirmed after payment verification",
		}),
		OversellPrevented: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oversell_prevented_total",
			Help:      "Confirmations rejected because stock was insufficient",
		}),
		VerificationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_verification_failures_total",
			Help:      "Payment callbacks rejected for invalid signatures",
		}),
		JobsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_processed_total",
			Help:      "Background jobs processed by outcome",
		}, []string{"job_type", "outcome"}),
	}

	reg.MustRegister(
		m.OrdersCreated,
		m.OrdersConfirmed,
		m.OversellPrevented,
		m.VerificationFailures,
		m.JobsProcessed,
	)
	return m
}

// NewTestMetrics creates metrics on a throwaway registry for tests.
func NewTestMetrics() *Metrics {
	return NewMetrics("test", prometheus.NewRegistry())
}
