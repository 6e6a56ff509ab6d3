package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jsamuelsen11/commitquest/ui-service/internal/models"
	"github.com/jsamuelsen11/commitquest/ui-service/internal/redis"
)

// Metrics holds Prometheus metrics for monitoring.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Form metrics
	FormSubmissions *prometheus.CounterVec
	GateOutcomes    *prometheus.CounterVec

	// Storage metrics
	StoreOperations *prometheus.CounterVec

	// Health metrics
	HealthChecksTotal     *prometheus.CounterVec
	ComponentHealthStatus *prometheus.GaugeVec
}

// NewMetrics creates the service metrics and registers them with reg.
// Tests pass a fresh prometheus.NewRegistry() to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ui_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ui_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ui_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{0, 100, 500, 1000, 5000, 10000, 50000},
			},
			[]string{"method", "path"},
		),
		FormSubmissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ui_form_submissions_total",
				Help: "Total number of input form submissions",
			},
			[]string{"surface", "action", "token_source"},
		),
		GateOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ui_trigger_gate_outcomes_total",
				Help: "Trigger gate evaluations after an Analyze press",
			},
			[]string{"outcome"},
		),
		StoreOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ui_session_store_operations_total",
				Help: "Total number of session store operations",
			},
			[]string{"operation", "status"},
		),
		HealthChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ui_health_checks_total",
				Help: "Total number of health checks",
			},
			[]string{"endpoint", "status"},
		),
		ComponentHealthStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ui_component_health_status",
				Help: "Health status of service components (1=healthy, 0=unhealthy)",
			},
			[]string{"component"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.HTTPRequestsTotal,
			m.HTTPRequestDuration,
			m.HTTPResponseSize,
			m.FormSubmissions,
			m.GateOutcomes,
			m.StoreOperations,
			m.HealthChecksTotal,
			m.ComponentHealthStatus,
		)
	}

	return m
}

// ObserveSubmission counts one form submission and, for Analyze presses,
// whether the gate opened.
func (m *Metrics) ObserveSubmission(
	surface string,
	input models.FormInput,
	state *models.SessionState,
	result models.RenderResult,
) {
	action := "update"
	if input.Analyze {
		action = "analyze"
	}
	m.FormSubmissions.WithLabelValues(surface, action, string(state.Credentials.Source)).Inc()

	if !input.Analyze {
		return
	}
	outcome := "closed"
	if result.Ready {
		outcome = "open"
	}
	m.GateOutcomes.WithLabelValues(outcome).Inc()
}

// Instrument records request count, latency and response size per route template.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rec, r)

		path := routeTemplate(r)
		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.statusCode)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		m.HTTPResponseSize.WithLabelValues(r.Method, path).Observe(float64(rec.size))
	})
}

// routeTemplate keeps label cardinality bounded by using the matched mux route.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

// instrumentedStore counts every store call by operation and outcome.
type instrumentedStore struct {
	redis.Store
	ops *prometheus.CounterVec
}

// InstrumentStore wraps store so each operation increments StoreOperations.
func InstrumentStore(store redis.Store, m *Metrics) redis.Store {
	return &instrumentedStore{Store: store, ops: m.StoreOperations}
}

// Unwrap returns the underlying store.
func (s *instrumentedStore) Unwrap() redis.Store {
	return s.Store
}

func (s *instrumentedStore) observe(op string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	s.ops.WithLabelValues(op, status).Inc()
}

func (s *instrumentedStore) StoreSession(ctx context.Context, state *models.SessionState, ttl time.Duration) error {
	err := s.Store.StoreSession(ctx, state, ttl)
	s.observe("store", err)
	return err
}

func (s *instrumentedStore) GetSession(ctx context.Context, id string) (*models.SessionState, error) {
	state, err := s.Store.GetSession(ctx, id)
	if err == nil || errors.Is(err, redis.ErrSessionNotFound) {
		s.observe("get", nil)
	} else {
		s.observe("get", err)
	}
	return state, err
}

func (s *instrumentedStore) DeleteSession(ctx context.Context, id string) error {
	err := s.Store.DeleteSession(ctx, id)
	s.observe("delete", err)
	return err
}

func (s *instrumentedStore) ClearAllSessions(ctx context.Context) (int, error) {
	n, err := s.Store.ClearAllSessions(ctx)
	s.observe("clear", err)
	return n, err
}
