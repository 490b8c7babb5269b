// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route, method and status code",
		},
		[]string{"route", "method", "code"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	SweepRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sweep_runs_total",
			Help: "Due-task sweep cycles by outcome (ok, failed)",
		},
		[]string{"outcome"},
	)
	SweepTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sweep_tasks_total",
			Help: "Tasks handled by the due-task sweep by result",
		},
		[]string{"result"},
	)
	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Due notices by transport and outcome",
		},
		[]string{"transport", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequests)
	prometheus.MustRegister(HTTPDuration)
	prometheus.MustRegister(SweepRuns)
	prometheus.MustRegister(SweepTasks)
	prometheus.MustRegister(Notifications)
}

// Outcome maps an error to the "ok"/"failed" label value.
func Outcome(err error) string {
	if err != nil {
		return "failed"
	}
	return "ok"
}
