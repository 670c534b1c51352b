package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the donation engine.
type Metrics struct {
	RequestsCreated     prometheus.Counter
	RequestsCancelled   prometheus.Counter
	RequestsExpired     prometheus.Counter
	ResponsesSubmitted  *prometheus.CounterVec
	DonationsCompleted  prometheus.Counter
	VersionConflicts    prometheus.Counter
	EligibilityRejected prometheus.Counter
	SweepRuns           prometheus.Counter
}

// New creates and registers all donation engine metrics.
func New() *Metrics {
	return &Metrics{
		RequestsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hemabank_requests_created_total",
			Help: "Total number of donation requests created",
		}),
		RequestsCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hemabank_requests_cancelled_total",
			Help: "Total number of donation requests cancelled",
		}),
		RequestsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hemabank_requests_expired_total",
			Help: "Total number of donation requests expired by the sweep",
		}),
		ResponsesSubmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hemabank_responses_submitted_total",
			Help: "Total number of donation responses submitted, by decision",
		}, []string{"decision"}),
		DonationsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hemabank_donations_completed_total",
			Help: "Total number of completed donations",
		}),
		VersionConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hemabank_version_conflicts_total",
			Help: "Total number of optimistic concurrency conflicts",
		}),
		EligibilityRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hemabank_eligibility_rejections_total",
			Help: "Total number of operations rejected on eligibility grounds",
		}),
		SweepRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hemabank_expiration_sweep_runs_total",
			Help: "Total number of expiration sweep executions",
		}),
	}
}
