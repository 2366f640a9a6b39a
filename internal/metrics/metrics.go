// Package metrics exposes Prometheus counters for engine operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// OperationsTotal counts engine operations by name and outcome. Every
// service entry point increments it exactly once, after commit or abort.
var OperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "rise",
		Subsystem: "engine",
		Name:      "operations_total",
		Help:      "Engine operations by operation name and outcome.",
	},
	[]string{"operation", "status"},
)

// InsufficientFundsTotal counts debits rejected for lack of funds, a useful
// signal independent of which operation triggered them.
var InsufficientFundsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "rise",
		Subsystem: "engine",
		Name:      "insufficient_funds_total",
		Help:      "Debit attempts rejected because they would overdraw an account.",
	},
)

// Observe records one operation outcome.
func Observe(operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	OperationsTotal.WithLabelValues(operation, status).Inc()
}
