package service

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the booking
// engine: HTTP traffic, cache behaviour and the reservation/reminder
// counters the on-call dashboards watch.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter

	reservationsTotal prometheus.Counter
	conflictsTotal    prometheus.Counter
	transitionsTotal  *prometheus.CounterVec

	emailsTotal *prometheus.CounterVec

	remindersSent     prometheus.Counter
	remindersFailed   prometheus.Counter
	dispatchDuration  prometheus.Histogram
	dispatchBatchSize prometheus.Histogram
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	s := &MetricsService{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total cache hits",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total cache misses",
		}),
		reservationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookings_reserved_total",
			Help: "Successful slot reservations",
		}),
		conflictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookings_conflicts_total",
			Help: "Reservations rejected because the slot was already taken",
		}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookings_transitions_total",
			Help: "Booking lifecycle transitions by target status",
		}, []string{"to"}),
		emailsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "emails_total",
			Help: "Outbound email attempts by kind and outcome",
		}, []string{"kind", "outcome"}),
		remindersSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reminders_sent_total",
			Help: "Reminder notifications delivered",
		}),
		remindersFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reminders_failed_total",
			Help: "Reminder delivery attempts that failed",
		}),
		dispatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "reminder_dispatch_duration_seconds",
			Help:    "Duration of a reminder dispatch pass",
			Buckets: prometheus.DefBuckets,
		}),
		dispatchBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "reminder_dispatch_batch_size",
			Help:    "Number of due actions handled per dispatch pass",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 200},
		}),
	}

	registry.MustRegister(
		s.requestDuration, s.requestTotal,
		s.cacheHits, s.cacheMisses,
		s.reservationsTotal, s.conflictsTotal, s.transitionsTotal,
		s.emailsTotal, s.remindersSent, s.remindersFailed,
		s.dispatchDuration, s.dispatchBatchSize,
	)

	s.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return s
}

// Handler exposes the /metrics scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one served request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := prometheus.Labels{"method": method, "path": path, "status": httpStatusLabel(status)}
	s.requestDuration.With(labels).Observe(duration.Seconds())
	s.requestTotal.With(labels).Inc()
}

// RecordCacheOperation counts a cache hit or miss.
func (s *MetricsService) RecordCacheOperation(hit bool) {
	if hit {
		s.cacheHits.Inc()
		return
	}
	s.cacheMisses.Inc()
}

// RecordReservation counts a successful slot claim.
func (s *MetricsService) RecordReservation() {
	s.reservationsTotal.Inc()
}

// RecordConflict counts a reservation that lost the race.
func (s *MetricsService) RecordConflict() {
	s.conflictsTotal.Inc()
}

// RecordTransition counts a lifecycle transition.
func (s *MetricsService) RecordTransition(to string) {
	s.transitionsTotal.WithLabelValues(to).Inc()
}

// RecordEmail counts one outbound email attempt.
func (s *MetricsService) RecordEmail(kind string, success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	s.emailsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordReminder counts a reminder delivery outcome.
func (s *MetricsService) RecordReminder(success bool) {
	if success {
		s.remindersSent.Inc()
		return
	}
	s.remindersFailed.Inc()
}

// ObserveDispatchPass records one dispatch loop execution.
func (s *MetricsService) ObserveDispatchPass(batch int, duration time.Duration) {
	s.dispatchBatchSize.Observe(float64(batch))
	s.dispatchDuration.Observe(duration.Seconds())
}

func httpStatusLabel(status int) string {
	switch {
	case status < 200:
		return "1xx"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
