package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/jsamuelsen11/commitquest/ui-service/internal/config"
	"github.com/jsamuelsen11/commitquest/ui-service/internal/middleware"
	"github.com/jsamuelsen11/commitquest/ui-service/internal/models"
	"github.com/jsamuelsen11/commitquest/ui-service/internal/session"
	"github.com/jsamuelsen11/commitquest/ui-service/pkg/logger"
)

// SessionHandler exposes the session form as JSON.
type SessionHandler struct {
	sessions *session.Service
	cookies  SessionCookieWriter
	links    []models.NavLink
	metrics  *Metrics
	logger   *logrus.Logger
}

// NewSessionHandler creates the JSON session handler.
func NewSessionHandler(
	sessions *session.Service,
	cookies SessionCookieWriter,
	cfg *config.Config,
	metrics *Metrics,
	logger *logrus.Logger,
) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		cookies:  cookies,
		links:    NavigationLinks(cfg),
		metrics:  metrics,
		logger:   logger,
	}
}

// RegisterRoutes registers the session API under the provided router.
func (h *SessionHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/session", h.GetSession).Methods(http.MethodGet)
	router.HandleFunc("/session", h.UpdateSession).Methods(http.MethodPut)
	router.HandleFunc("/session/reset", h.ResetSession).Methods(http.MethodPost)
}

// GetSession handles GET /api/v1/session
//
// Responses:
//   - 200: Current session view
//   - 500: Session storage unavailable
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	state, err := h.sessions.Load(ctx, middleware.SessionID(ctx))
	if err != nil {
		writeErrorResponse(w, models.NewServerError("Session storage is unavailable"), h.logger)
		return
	}

	h.respond(w, r, state)
}

// UpdateSession handles PUT /api/v1/session
// The body is one form submission; "analyze": true presses the trigger.
// It replaces the whole form, like a submitted HTML page: an omitted
// "username" clears it, and "token_present": true without "user_token"
// stores an empty token. The latch itself is never cleared here.
//
// Responses:
//   - 200: Updated session view
//   - 400: Malformed body
//   - 500: Session storage unavailable
func (h *SessionHandler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var input models.FormInput
	if err := decodeJSONBody(w, r, &input); err != nil {
		logger.WithCorrelationID(ctx, h.logger).WithError(err).Debug("Rejected session update body")
		writeErrorResponse(w, models.NewInvalidRequest("Request body must be a JSON form submission"), h.logger)
		return
	}

	state, result, err := h.sessions.Submit(ctx, middleware.SessionID(ctx), input)
	if err != nil {
		writeErrorResponse(w, models.NewServerError("Session storage is unavailable"), h.logger)
		return
	}
	h.metrics.ObserveSubmission(surfaceAPI, input, state, result)

	h.respond(w, r, state)
}

// ResetSession handles POST /api/v1/session/reset
// Clears the form and the Analyze latch.
func (h *SessionHandler) ResetSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	state, err := h.sessions.Reset(ctx, middleware.SessionID(ctx))
	if err != nil {
		writeErrorResponse(w, models.NewServerError("Session storage is unavailable"), h.logger)
		return
	}

	h.respond(w, r, state)
}

func (h *SessionHandler) respond(w http.ResponseWriter, r *http.Request, state *models.SessionState) {
	if err := h.cookies.Write(w, state.ID); err != nil {
		logger.WithCorrelationID(r.Context(), h.logger).WithError(err).Error("Failed to issue session cookie")
		writeErrorResponse(w, models.ErrServerError, h.logger)
		return
	}

	writeJSONResponse(w, h.sessions.View(state, h.links), http.StatusOK, h.logger)
}
