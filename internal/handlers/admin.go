// Package handlers provides the HTTP handlers of the UI service: the input
// page, the session and stats JSON APIs, admin endpoints and health checks.
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/jsamuelsen11/commitquest/ui-service/internal/models"
	"github.com/jsamuelsen11/commitquest/ui-service/internal/session"
)

// TriggerLister reads the trigger ledger.
type TriggerLister interface {
	ListRecentTriggers(ctx context.Context, limit int) ([]models.TriggerEvent, error)
}

// AdminHandler handles admin session management endpoints.
type AdminHandler struct {
	adminSvc session.AdminService
	triggers TriggerLister
	logger   *logrus.Logger
}

// NewAdminHandler creates a new admin handler. A nil triggers lister makes
// GET /admin/triggers answer 503.
func NewAdminHandler(adminSvc session.AdminService, triggers TriggerLister, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{
		adminSvc: adminSvc,
		triggers: triggers,
		logger:   logger,
	}
}

// RegisterRoutes registers admin routes on the provided router.
// Note: The router should already have admin auth middleware applied.
// Each path also gets a method-agnostic fallback route: with several routes on
// one subrouter mux reports a method mismatch as 404, so the 405 is explicit.
func (h *AdminHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/sessions/stats", h.GetSessionStats).Methods(http.MethodGet)
	router.HandleFunc("/sessions", h.ClearSessions).Methods(http.MethodDelete)
	router.HandleFunc("/triggers", h.ListTriggers).Methods(http.MethodGet)

	router.Handle("/sessions/stats", methodNotAllowed(h.logger, http.MethodGet))
	router.Handle("/sessions", methodNotAllowed(h.logger, http.MethodDelete))
	router.Handle("/triggers", methodNotAllowed(h.logger, http.MethodGet))
}

// GetSessionStats handles GET /admin/sessions/stats
// Returns statistics about current sessions in the store.
//
// Responses:
//   - 200: Session statistics retrieved successfully
//   - 401: Unauthorized (handled by middleware)
//   - 500: Internal server error
func (h *AdminHandler) GetSessionStats(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("Processing session stats request")

	stats, err := h.adminSvc.GetSessionStats(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to get session stats")
		writeErrorResponse(w, models.NewServerError("Failed to retrieve session statistics"), h.logger)
		return
	}

	writeJSONResponse(w, stats, http.StatusOK, h.logger)
	h.logger.WithFields(logrus.Fields{
		"total_sessions":     stats.TotalSessions,
		"triggered_sessions": stats.TriggeredSessions,
	}).Info("Session stats retrieved successfully")
}

// ClearSessions handles DELETE /admin/sessions
// Clears all sessions from the store.
//
// Responses:
//   - 200: Sessions cleared successfully
//   - 401: Unauthorized (handled by middleware)
//   - 500: Internal server error
func (h *AdminHandler) ClearSessions(w http.ResponseWriter, r *http.Request) {
	h.logger.Warn("Processing clear sessions request")

	response, err := h.adminSvc.ClearAllSessions(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to clear sessions")
		writeErrorResponse(w, models.NewServerError("Failed to clear sessions"), h.logger)
		return
	}

	writeJSONResponse(w, response, http.StatusOK, h.logger)
	h.logger.WithField("sessions_cleared", response.SessionsCleared).Info("Sessions cleared successfully")
}

// ListTriggers handles GET /admin/triggers
// Returns the most recent Analyze presses that opened the gate.
//
// Query Parameters:
//   - limit: Maximum number of events (default 50, capped at 500)
//
// Responses:
//   - 200: Events retrieved successfully
//   - 400: Invalid limit
//   - 503: Trigger ledger not configured or unavailable
func (h *AdminHandler) ListTriggers(w http.ResponseWriter, r *http.Request) {
	if h.triggers == nil {
		writeErrorResponse(w, models.ErrTemporarilyUnavailable.WithDescription("Trigger ledger is not configured"), h.logger)
		return
	}

	limit, ok := h.parseIntParam(r, "limit")
	if !ok {
		writeErrorResponse(w, models.NewInvalidRequest("limit must be an integer"), h.logger)
		return
	}

	events, err := h.triggers.ListRecentTriggers(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list trigger events")
		writeErrorResponse(w, models.ErrTemporarilyUnavailable.WithDescription("Failed to read trigger ledger"), h.logger)
		return
	}

	if events == nil {
		events = []models.TriggerEvent{}
	}

	writeJSONResponse(w, models.TriggerList{Triggers: events, Count: len(events)}, http.StatusOK, h.logger)
}

// parseIntParam parses an optional integer query parameter; absent means 0.
func (h *AdminHandler) parseIntParam(r *http.Request, name string) (int, bool) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return 0, true
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	return result, true
}
