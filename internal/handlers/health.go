package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/jsamuelsen11/commitquest/ui-service/internal/config"
	"github.com/jsamuelsen11/commitquest/ui-service/internal/database/postgres"
	"github.com/jsamuelsen11/commitquest/ui-service/internal/redis"
)

const (
	// HealthCheckTimeout is the default timeout for health check operations.
	HealthCheckTimeout = 5 * time.Second
	// SlowStorageThreshold marks Redis as degraded.
	SlowStorageThreshold = time.Second
	// SlowDatabaseThreshold marks PostgreSQL as degraded.
	SlowDatabaseThreshold = 2 * time.Second

	componentSessionStore  = "session_store"
	componentDatabase      = "database"
	componentConfiguration = "configuration"
)

// HealthHandler provides health check and monitoring endpoints.
type HealthHandler struct {
	config    *config.Config
	store     redis.Store
	dbMgr     *postgres.Manager
	logger    *logrus.Logger
	metrics   *Metrics
	gatherer  prometheus.Gatherer
	startTime time.Time
}

// HealthStatus represents the health status of a component.
type HealthStatus string

const (
	// StatusHealthy indicates the component is healthy.
	StatusHealthy HealthStatus = "healthy"
	// StatusUnhealthy indicates the component is unhealthy.
	StatusUnhealthy HealthStatus = "unhealthy"
	// StatusDegraded indicates the component has degraded performance.
	StatusDegraded HealthStatus = "degraded"
)

// HealthResponse represents the overall health check response.
type HealthResponse struct {
	Status     HealthStatus               `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Uptime     string                     `json:"uptime,omitempty"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
	Details    map[string]any             `json:"details,omitempty"`
}

// ComponentHealth represents the health of an individual component.
type ComponentHealth struct {
	Status       HealthStatus `json:"status"`
	Message      string       `json:"message,omitempty"`
	LastChecked  time.Time    `json:"last_checked"`
	ResponseTime string       `json:"response_time,omitempty"`
}

// ReadinessResponse represents the readiness check response.
type ReadinessResponse struct {
	Ready      bool                       `json:"ready"`
	Timestamp  time.Time                  `json:"timestamp"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
}

// NewHealthHandler creates a new health check handler. A nil dbMgr reports
// the database as not configured.
func NewHealthHandler(
	cfg *config.Config,
	store redis.Store,
	dbMgr *postgres.Manager,
	metrics *Metrics,
	gatherer prometheus.Gatherer,
	logger *logrus.Logger,
) *HealthHandler {
	return &HealthHandler{
		config:    cfg,
		store:     store,
		dbMgr:     dbMgr,
		logger:    logger,
		metrics:   metrics,
		gatherer:  gatherer,
		startTime: time.Now(),
	}
}

// RegisterRoutes registers health check and monitoring endpoints.
func (h *HealthHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	router.HandleFunc("/health/live", h.Liveness).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", h.Readiness).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
}

// Health reports every component. A failing session store makes the service
// unhealthy; the ledger database and configuration only degrade it.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	components := h.collectComponents(r.Context(), true)
	overall := overallStatus(components)

	h.metrics.HealthChecksTotal.WithLabelValues("health", string(overall)).Inc()
	for component, health := range components {
		value := float64(0)
		if health.Status == StatusHealthy {
			value = 1
		}
		h.metrics.ComponentHealthStatus.WithLabelValues(component).Set(value)
	}

	statusCode := http.StatusOK
	if overall == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	writeJSONResponse(w, HealthResponse{
		Status:     overall,
		Timestamp:  time.Now(),
		Version:    getVersion(),
		Uptime:     time.Since(h.startTime).String(),
		Components: components,
		Details:    map[string]any{"check_duration": time.Since(start).String()},
	}, statusCode, h.logger)

	h.logger.WithFields(logrus.Fields{
		"status":   overall,
		"duration": time.Since(start).String(),
	}).Debug("Health check completed")
}

// Liveness returns 200 while the process is serving requests.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	h.metrics.HealthChecksTotal.WithLabelValues("liveness", "healthy").Inc()

	writeJSONResponse(w, map[string]any{
		"status":    "alive",
		"timestamp": time.Now(),
		"uptime":    time.Since(h.startTime).String(),
	}, http.StatusOK, h.logger)
}

// Readiness reports whether the session store can serve page renders.
// The database is listed but never blocks readiness.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	components := h.collectComponents(r.Context(), false)
	ready := components[componentSessionStore].Status == StatusHealthy

	statusLabel, statusCode := "ready", http.StatusOK
	if !ready {
		statusLabel, statusCode = "not_ready", http.StatusServiceUnavailable
	}
	h.metrics.HealthChecksTotal.WithLabelValues("readiness", statusLabel).Inc()

	writeJSONResponse(w, ReadinessResponse{
		Ready:      ready,
		Timestamp:  time.Now(),
		Components: components,
	}, statusCode, h.logger)
}

func (h *HealthHandler) collectComponents(ctx context.Context, withConfig bool) map[string]ComponentHealth {
	components := map[string]ComponentHealth{
		componentSessionStore: h.checkStorage(ctx),
		componentDatabase:     h.checkDatabase(ctx),
	}
	if withConfig {
		components[componentConfiguration] = h.checkConfiguration()
	}
	return components
}

func overallStatus(components map[string]ComponentHealth) HealthStatus {
	if components[componentSessionStore].Status != StatusHealthy {
		return StatusUnhealthy
	}
	for _, c := range components {
		if c.Status != StatusHealthy {
			return StatusDegraded
		}
	}
	return StatusHealthy
}

// checkStorage checks storage backend connectivity and performance.
func (h *HealthHandler) checkStorage(ctx context.Context) ComponentHealth {
	start := time.Now()

	checkCtx, cancel := context.WithTimeout(ctx, HealthCheckTimeout)
	defer cancel()

	err := h.store.Ping(checkCtx)
	duration := time.Since(start)

	// Determine storage type based on the store implementation
	storageType := h.getStorageType()

	if err != nil {
		h.logger.WithError(err).Warn("Storage health check failed")
		return ComponentHealth{
			Status:       StatusUnhealthy,
			Message:      storageType + " connection failed: " + err.Error(),
			LastChecked:  time.Now(),
			ResponseTime: duration.String(),
		}
	}

	// Check if response time is acceptable (warn if > 1s for Redis, always healthy for memory)
	status := StatusHealthy
	message := storageType + " is healthy"

	// Only check response time for Redis (memory store should always be fast)
	if storageType == "Redis" && duration > SlowStorageThreshold {
		status = StatusDegraded
		message = "Redis response time is slow"
	}

	return ComponentHealth{
		Status:       status,
		Message:      message,
		LastChecked:  time.Now(),
		ResponseTime: duration.String(),
	}
}

// checkDatabase checks PostgreSQL connectivity for the trigger ledger.
func (h *HealthHandler) checkDatabase(ctx context.Context) ComponentHealth {
	if h.dbMgr == nil || h.dbMgr.Status() == postgres.StatusNotConfigured {
		return ComponentHealth{
			Status:      StatusHealthy,
			Message:     "Database not configured (optional)",
			LastChecked: time.Now(),
		}
	}

	start := time.Now()
	checkCtx, cancel := context.WithTimeout(ctx, HealthCheckTimeout)
	defer cancel()

	err := h.dbMgr.Ping(checkCtx)
	duration := time.Since(start)

	if err != nil {
		h.logger.WithError(err).Debug("Database health check failed")
		return ComponentHealth{
			Status:       StatusUnhealthy,
			Message:      "PostgreSQL connection failed: " + err.Error(),
			LastChecked:  time.Now(),
			ResponseTime: duration.String(),
		}
	}

	status := StatusHealthy
	message := "PostgreSQL is healthy"
	if duration > SlowDatabaseThreshold {
		status = StatusDegraded
		message = "PostgreSQL response time is slow"
	}

	return ComponentHealth{
		Status:       status,
		Message:      message,
		LastChecked:  time.Now(),
		ResponseTime: duration.String(),
	}
}

// getStorageType determines the type of storage backend being used.
func (h *HealthHandler) getStorageType() string {
	store := h.store
	if wrapped, ok := store.(interface{ Unwrap() redis.Store }); ok {
		store = wrapped.Unwrap()
	}

	switch store.(type) {
	case *redis.Client:
		return "Redis"
	case *redis.MemoryStore:
		return "In-Memory"
	default:
		return "Unknown"
	}
}

// checkConfiguration validates critical configuration values. The default
// credential is only checked for presence.
func (h *HealthHandler) checkConfiguration() ComponentHealth {
	var issues []string

	if len(h.config.Session.Secret) < config.MinSessionSecretLength {
		issues = append(issues, "session secret is too short")
	}

	if h.config.Session.TTL < config.MinSessionTTL {
		issues = append(issues, "session TTL is too short")
	}

	if !h.config.HasDefaultToken() {
		issues = append(issues, "no default GitHub token, users must supply their own")
	}

	status := StatusHealthy
	message := "Configuration is valid"

	if len(issues) > 0 {
		status = StatusDegraded
		message = "Configuration issues: " + strings.Join(issues, ", ")
	}

	return ComponentHealth{
		Status:      status,
		Message:     message,
		LastChecked: time.Now(),
	}
}

// Version is set at build time with -ldflags "-X .../handlers.Version=...".
var Version = "dev"

func getVersion() string {
	return Version
}
