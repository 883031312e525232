// Package metrics exposes Prometheus instrumentation for the relay.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "formmail"

// Submission outcomes used as the "outcome" label
const (
	OutcomeSuccess          = "success"
	OutcomeValidationFailed = "validation_failed"
	OutcomeFileInvalid      = "file_invalid"
	OutcomeSendFailed       = "send_failed"
	OutcomeInternalError    = "internal_error"
)

// Metrics holds the relay collectors
type Metrics struct {
	registry *prometheus.Registry

	SubmissionsTotal    *prometheus.CounterVec
	SendDuration        prometheus.Histogram
	AuditWriteFailures  prometheus.Counter
	AttachmentsTotal    prometheus.Counter
	AttachmentSize      prometheus.Histogram
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	FeedClients         prometheus.Gauge
}

// New creates the collectors on a dedicated registry, together with the Go
// runtime and process collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg)
}

// NewWithRegistry creates the collectors on the given registry
func NewWithRegistry(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		SubmissionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "submissions_total",
				Help:      "Form submissions by pipeline outcome",
			},
			[]string{"outcome"},
		),

		SendDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "send_duration_seconds",
				Help:      "Time spent handing a message to the mail transport",
				Buckets:   prometheus.DefBuckets,
			},
		),

		AuditWriteFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "audit_write_failures_total",
				Help:      "Audit records that could not be stored",
			},
		),

		AttachmentsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "attachments_total",
				Help:      "CSV attachments relayed successfully",
			},
		),

		AttachmentSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "attachment_size_bytes",
				Help:      "Size of relayed CSV attachments",
				Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
			},
		),

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		FeedClients: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "audit_feed_clients",
				Help:      "Connected audit feed WebSocket clients",
			},
		),
	}
}

// Registry returns the registry backing these collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Recording methods are no-ops on a nil *Metrics.

// RecordSubmission counts one pipeline outcome
func (m *Metrics) RecordSubmission(outcome string) {
	if m == nil {
		return
	}
	m.SubmissionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveSend records how long the transport call took
func (m *Metrics) ObserveSend(d time.Duration) {
	if m == nil {
		return
	}
	m.SendDuration.Observe(d.Seconds())
}

// RecordAuditWriteFailure counts an audit record that was lost
func (m *Metrics) RecordAuditWriteFailure() {
	if m == nil {
		return
	}
	m.AuditWriteFailures.Inc()
}

// RecordAttachment counts a relayed attachment and its size
func (m *Metrics) RecordAttachment(size int64) {
	if m == nil {
		return
	}
	m.AttachmentsTotal.Inc()
	m.AttachmentSize.Observe(float64(size))
}

// RecordHTTPRequest records a served HTTP request
func (m *Metrics) RecordHTTPRequest(method, route, statusCode string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// SetFeedClients reports the number of connected audit feed clients
func (m *Metrics) SetFeedClients(n int) {
	if m == nil {
		return
	}
	m.FeedClients.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
