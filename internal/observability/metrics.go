package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	examRequestsTotal     *prometheus.CounterVec
	examLatencySeconds    *prometheus.HistogramVec
	examErrorsTotal       *prometheus.CounterVec
	attemptsStartedTotal  *prometheus.CounterVec
	attemptsFinishedTotal *prometheus.CounterVec
	answersGradedTotal    *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors for the exam engine.
func RegisterMetrics() {
	registerOnce.Do(func() {
		examRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exam_requests_total",
			Help: "Total number of exam API requests served.",
		}, []string{"method", "route", "status"})

		examLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "exam_latency_seconds",
			Help:    "Latency distribution for exam API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		examErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exam_errors_total",
			Help: "Total number of error responses returned by exam endpoints.",
		}, []string{"method", "route", "status"})

		attemptsStartedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exam_attempts_started_total",
			Help: "Total number of exam attempts started, resumes excluded.",
		}, []string{"school"})

		attemptsFinishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exam_attempts_finished_total",
			Help: "Total number of attempts reaching a terminal state.",
		}, []string{"school", "status"})

		answersGradedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exam_answers_graded_total",
			Help: "Total number of answers graded on submission.",
		}, []string{"school", "question_type"})

		prometheus.MustRegister(
			examRequestsTotal,
			examLatencySeconds,
			examErrorsTotal,
			attemptsStartedTotal,
			attemptsFinishedTotal,
			answersGradedTotal,
		)
	})
}

// ExamRequests exposes the counter for exam API requests.
func ExamRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return examRequestsTotal
}

// ExamLatency exposes the latency histogram for exam API requests.
func ExamLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return examLatencySeconds
}

// ExamErrors exposes the counter for exam error responses.
func ExamErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return examErrorsTotal
}

// AttemptsStarted exposes the counter for newly created attempts.
func AttemptsStarted() *prometheus.CounterVec {
	RegisterMetrics()
	return attemptsStartedTotal
}

// AttemptsFinished exposes the counter for finalized and expired attempts.
func AttemptsFinished() *prometheus.CounterVec {
	RegisterMetrics()
	return attemptsFinishedTotal
}

// AnswersGraded exposes the counter for graded answer submissions.
func AnswersGraded() *prometheus.CounterVec {
	RegisterMetrics()
	return answersGradedTotal
}
