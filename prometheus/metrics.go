// Package prometheus instruments pagelens adapters and the HTTP surface
// with Prometheus metrics.
package prometheus

import (
	"context"
	"net/http"
	"time"

	"github.com/fwojciec/pagelens"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pagelens"

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics holds the collectors shared by the decorators in this package.
type Metrics struct {
	CapturesTotal   *prometheus.CounterVec
	CaptureDuration *prometheus.HistogramVec
	CapturedBytes   prometheus.Histogram
	CapturedStyles  prometheus.Histogram

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CapturesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "captures_total",
				Help:      "Total number of page captures and fetches by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		CaptureDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "capture_duration_seconds",
				Help:      "Page capture duration in seconds.",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"operation"},
		),
		CapturedBytes: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "captured_html_bytes",
				Help:      "Size of captured HTML in bytes.",
				Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
			},
		),
		CapturedStyles: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "captured_stylesheets",
				Help:      "Number of style sources per capture.",
				Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
			},
		),
		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests.",
			},
			[]string{"code", "method"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"code", "method"},
		),
	}
}

// Middleware records request counts and latencies for every request
// passing through next.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return promhttp.InstrumentHandlerCounter(m.RequestsTotal,
		promhttp.InstrumentHandlerDuration(m.RequestDuration, next))
}

func (m *Metrics) observe(op string, start time.Time, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	m.CapturesTotal.WithLabelValues(op, outcome).Inc()
	m.CaptureDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// Ensure MetricsCapturer implements pagelens.Capturer at compile time.
var _ pagelens.Capturer = (*MetricsCapturer)(nil)

// MetricsCapturer wraps a Capturer and records capture metrics.
type MetricsCapturer struct {
	next    pagelens.Capturer
	metrics *Metrics
}

// NewMetricsCapturer creates a new MetricsCapturer.
func NewMetricsCapturer(next pagelens.Capturer, m *Metrics) *MetricsCapturer {
	return &MetricsCapturer{next: next, metrics: m}
}

func (c *MetricsCapturer) Capture(ctx context.Context, url string) (*pagelens.CapturedPage, error) {
	start := time.Now()
	page, err := c.next.Capture(ctx, url)
	c.metrics.observe("capture", start, err)
	if err == nil && page != nil {
		c.metrics.CapturedBytes.Observe(float64(len(page.HTML)))
		c.metrics.CapturedStyles.Observe(float64(len(page.Styles)))
	}
	return page, err
}

func (c *MetricsCapturer) Close() error {
	return c.next.Close()
}

// Ensure MetricsFetcher implements pagelens.Fetcher at compile time.
var _ pagelens.Fetcher = (*MetricsFetcher)(nil)

// MetricsFetcher wraps a Fetcher and records fetch metrics.
type MetricsFetcher struct {
	next    pagelens.Fetcher
	metrics *Metrics
}

// NewMetricsFetcher creates a new MetricsFetcher.
func NewMetricsFetcher(next pagelens.Fetcher, m *Metrics) *MetricsFetcher {
	return &MetricsFetcher{next: next, metrics: m}
}

func (f *MetricsFetcher) Fetch(ctx context.Context, url string) (string, error) {
	start := time.Now()
	html, err := f.next.Fetch(ctx, url)
	f.metrics.observe("fetch", start, err)
	return html, err
}

func (f *MetricsFetcher) Close() error {
	return f.next.Close()
}
