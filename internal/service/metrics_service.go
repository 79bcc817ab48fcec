package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/sciclub-api/internal/models"
)

// Outcome labels shared by the counters below.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeQueued  = "queued"
	OutcomeExpired = "expired"
	OutcomeInvalid = "invalid"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	notifications   *prometheus.CounterVec
	otpEvents       *prometheus.CounterVec
	pageViews       prometheus.Counter
	statusChanges   *prometheus.CounterVec

	requestCount         uint64
	requestDurationTotal uint64
	notificationsSent    uint64
	notificationsFailed  uint64
	otpIssued            uint64
	otpVerified          uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_total",
		Help: "Email notifications by template and outcome",
	}, []string{"template", "outcome"})

	otpEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "otp_events_total",
		Help: "OTP requests and verifications by purpose and outcome",
	}, []string{"purpose", "stage", "outcome"})

	pageViews := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "page_views_total",
		Help: "Recorded public page views",
	})

	statusChanges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "certificate_status_changes_total",
		Help: "Certificate status transitions",
	}, []string{"from", "to"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, notifications, otpEvents, pageViews, statusChanges, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		notifications:   notifications,
		otpEvents:       otpEvents,
		pageViews:       pageViews,
		statusChanges:   statusChanges,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordNotification counts an email delivery attempt.
func (m *MetricsService) RecordNotification(template, outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(template, outcome).Inc()
	switch outcome {
	case OutcomeSuccess:
		atomic.AddUint64(&m.notificationsSent, 1)
	case OutcomeFailure:
		atomic.AddUint64(&m.notificationsFailed, 1)
	}
}

// RecordOTP counts an OTP request or verification outcome.
func (m *MetricsService) RecordOTP(purpose models.OTPPurpose, stage, outcome string) {
	if m == nil {
		return
	}
	m.otpEvents.WithLabelValues(string(purpose), stage, outcome).Inc()
	if outcome != OutcomeSuccess {
		return
	}
	switch stage {
	case "request":
		atomic.AddUint64(&m.otpIssued, 1)
	case "verify":
		atomic.AddUint64(&m.otpVerified, 1)
	}
}

// RecordPageView counts a recorded page view.
func (m *MetricsService) RecordPageView() {
	if m == nil {
		return
	}
	m.pageViews.Inc()
}

// RecordStatusChange counts a certificate status transition.
func (m *MetricsService) RecordStatusChange(from, to models.CertificateStatus) {
	if m == nil {
		return
	}
	m.statusChanges.WithLabelValues(string(from), string(to)).Inc()
}

// Snapshot returns aggregated counters for the admin dashboard.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		NotificationsSent:        atomic.LoadUint64(&m.notificationsSent),
		NotificationsFailed:      atomic.LoadUint64(&m.notificationsFailed),
		OTPIssued:                atomic.LoadUint64(&m.otpIssued),
		OTPVerified:              atomic.LoadUint64(&m.otpVerified),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
