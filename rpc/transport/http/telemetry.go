package http

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/common/expfmt"
)

// transportMetrics holds the request metrics of one server transport.
// Every transport owns its registry so several servers can run in one process.
type transportMetrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inFlight        *prometheus.GaugeVec
}

func newTransportMetrics() *transportMetrics {
	startTime := time.Now()

	m := &transportMetrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "expmap",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests.",
			},
			[]string{"op", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "expmap",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Latency of HTTP requests.",
				// 100µs .. ~3s
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15),
			},
			[]string{"op"},
		),
		inFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "expmap",
				Subsystem: "http",
				Name:      "in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"op"},
		),
	}

	uptime := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "expmap",
			Name:      "uptime_seconds",
			Help:      "Transport uptime in seconds.",
		},
		func() float64 { return time.Since(startTime).Seconds() },
	)

	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.inFlight,
		uptime,
		collectors.NewGoCollector(),
	)
	return m
}

// write renders all registered metrics in the Prometheus text format
func (m *transportMetrics) write(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// statusWriter captures the status code for the request counter
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// instrument wraps an http.Handler to record metrics under the provided "op" label
func (m *transportMetrics) instrument(op string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		m.inFlight.WithLabelValues(op).Inc()
		defer m.inFlight.WithLabelValues(op).Dec()

		next.ServeHTTP(sw, r)

		class := strconv.Itoa(sw.status/100) + "xx"
		m.requestsTotal.WithLabelValues(op, class).Inc()
		m.requestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	})
}
