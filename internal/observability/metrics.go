package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	gradingRunsTotal      *prometheus.CounterVec
	gradingSubmissions    *prometheus.CounterVec
	gradingRunDuration    prometheus.Histogram
	gradingBatchSize      prometheus.Histogram
	studentRequestsTotal  *prometheus.CounterVec
	studentLatencySeconds *prometheus.HistogramVec
)

// RegisterMetrics initialises the Prometheus collectors for the grading
// pipeline and the student-facing API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		gradingRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_runs_total",
			Help: "Total number of grading scheduler runs.",
		}, []string{"outcome"})

		gradingSubmissions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_submissions_total",
			Help: "Submissions processed by the grading pipeline, by outcome.",
		}, []string{"outcome"})

		gradingRunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "grading_run_duration_seconds",
			Help:    "Duration of one grading scheduler run.",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300},
		})

		gradingBatchSize = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "grading_batch_size",
			Help:    "Number of submissions selected per grading run.",
			Buckets: []float64{0, 1, 5, 10, 25, 50},
		})

		studentRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "student_requests_total",
			Help: "Total number of student API requests served.",
		}, []string{"method", "route", "status"})

		studentLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "student_latency_seconds",
			Help:    "Latency distribution for student API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		prometheus.MustRegister(
			gradingRunsTotal,
			gradingSubmissions,
			gradingRunDuration,
			gradingBatchSize,
			studentRequestsTotal,
			studentLatencySeconds,
		)
	})
}

// GradingRuns exposes the counter for scheduler runs.
func GradingRuns() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingRunsTotal
}

// GradingSubmissions exposes the per-outcome submission counter.
func GradingSubmissions() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingSubmissions
}

// GradingRunDuration exposes the run duration histogram.
func GradingRunDuration() prometheus.Histogram {
	RegisterMetrics()
	return gradingRunDuration
}

// GradingBatchSize exposes the batch size histogram.
func GradingBatchSize() prometheus.Histogram {
	RegisterMetrics()
	return gradingBatchSize
}

// StudentRequests exposes the counter for student requests.
func StudentRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return studentRequestsTotal
}

// StudentLatency exposes the latency histogram for student requests.
func StudentLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return studentLatencySeconds
}
