// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ResultUnauthenticated labels failed validations; successes are labelled
// with the credential kind.
const ResultUnauthenticated = "unauthenticated"

var (
	// AuthValidations counts bearer validations by outcome.
	AuthValidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "driftwatch",
		Subsystem: "auth",
		Name:      "validations_total",
		Help:      "Bearer credential validations by outcome.",
	}, []string{"result"})

	// LoaderBatches counts bulk fetches issued by request-scoped loaders.
	LoaderBatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "driftwatch",
		Subsystem: "loader",
		Name:      "batches_total",
		Help:      "Bulk entity fetches issued by request-scoped loaders.",
	}, []string{"kind"})

	// LoaderBatchErrors counts failed bulk fetches.
	LoaderBatchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "driftwatch",
		Subsystem: "loader",
		Name:      "batch_errors_total",
		Help:      "Bulk entity fetches that failed.",
	}, []string{"kind"})
)
