package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Results
const (
	ResultOK    = "ok"
	ResultError = "error"
)

var (
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)

	RosterLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gradebook_roster_loads_total",
			Help: "Total number of mark sheet loads",
		},
		[]string{"grade_level", "subject", "result"},
	)

	MarksSaved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gradebook_marks_saved_total",
			Help: "Total number of mark saves",
		},
		[]string{"grade_level", "subject", "result"},
	)

	MarkDistribution = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gradebook_mark",
			Help:    "Distribution of saved marks",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
		[]string{"grade_level", "subject"},
	)

	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gradebook_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"result"},
	)
)

// Result labels err as ResultOK or ResultError.
func Result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
