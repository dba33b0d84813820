// Package metrics exposes consumer counters to Prometheus and publishes the
// end-of-run summary to CloudWatch.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config holds metrics settings.
type Config struct {
	// Addr serves /metrics and /health while the consumer runs; empty disables it.
	Addr string `mapstructure:"addr" default:""`
	// CloudWatchNamespace receives the run summary at exit; empty disables it.
	CloudWatchNamespace string `mapstructure:"cloudwatch_namespace" default:""`
}

// Poll results.
const (
	PollEmpty    = "empty"
	PollNonEmpty = "non_empty"
	PollError    = "error"
)

// Recorder holds the consumer's Prometheus collectors.
type Recorder struct {
	Polls    *prometheus.CounterVec
	Requests *prometheus.CounterVec
	Acks     *prometheus.CounterVec
	Duration prometheus.Histogram
}

// NewRecorder creates the collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		Polls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "widget_consumer_polls_total",
				Help: "Total number of source polls by result",
			},
			[]string{"result"},
		),
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "widget_consumer_requests_total",
				Help: "Total number of requests handled by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		Acks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "widget_consumer_acks_total",
				Help: "Total number of source acknowledgments by status",
			},
			[]string{"status"},
		),
		Duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "widget_consumer_request_duration_seconds",
				Help:    "Duration of request processing in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
	reg.MustRegister(r.Polls, r.Requests, r.Acks, r.Duration)
	return r
}

// ObservePoll counts one poll.
func (r *Recorder) ObservePoll(result string) {
	if r == nil {
		return
	}
	r.Polls.WithLabelValues(result).Inc()
}

// ObserveRequest counts one handled request.
func (r *Recorder) ObserveRequest(operation, outcome string, took time.Duration) {
	if r == nil {
		return
	}
	r.Requests.WithLabelValues(operation, outcome).Inc()
	r.Duration.Observe(took.Seconds())
}

// ObserveAck counts one acknowledgment attempt.
func (r *Recorder) ObserveAck(err error) {
	if r == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.Acks.WithLabelValues(status).Inc()
}
