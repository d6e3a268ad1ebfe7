package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Métricas de negócio
	ChargeOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stripe_driver_charge_outcomes_total",
		Help: "Charge attempts by outcome",
	}, []string{"status"})

	ScaOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stripe_driver_sca_outcomes_total",
		Help: "Authentication resumptions by outcome",
	}, []string{"status"})

	RefundOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stripe_driver_refund_outcomes_total",
		Help: "Refunds by outcome",
	}, []string{"status"})

	SourceOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stripe_driver_source_operations_total",
		Help: "Saved card operations",
	}, []string{"action"})

	// Métricas de infraestrutura
	GatewayRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stripe_driver_gateway_request_seconds",
		Help:    "Latency of Stripe API calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	GatewayErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stripe_driver_gateway_errors_total",
		Help: "Stripe API errors by kind",
	}, []string{"operation", "kind"})

	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "stripe_driver_circuit_breaker_state",
		Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
	}, []string{"name"})

	DatabaseLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stripe_driver_database_latency_seconds",
		Help:    "Repository query latency",
		Buckets: prometheus.DefBuckets,
	})
)
