package handlers

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/jsamuelsen11/commitquest/ui-service/internal/config"
	"github.com/jsamuelsen11/commitquest/ui-service/internal/constants"
	"github.com/jsamuelsen11/commitquest/ui-service/internal/middleware"
	"github.com/jsamuelsen11/commitquest/ui-service/internal/models"
	"github.com/jsamuelsen11/commitquest/ui-service/internal/session"
	"github.com/jsamuelsen11/commitquest/ui-service/pkg/logger"
)

const (
	surfaceHTML = "html"
	surfaceAPI  = "api"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// SessionCookieWriter issues the session cookie after a session is loaded or saved.
type SessionCookieWriter interface {
	Write(w http.ResponseWriter, sessionID string) error
}

// NavigationLinks builds the Overview and Predictions links for the configured environment.
func NavigationLinks(cfg *config.Config) []models.NavLink {
	urls := cfg.GetServiceURLs()
	return []models.NavLink{
		{Label: cfg.UI.Overview.Label, Icon: cfg.UI.Overview.Icon, Help: cfg.UI.Overview.Help, URL: urls.OverviewURL},
		{
			Label: cfg.UI.Predictions.Label,
			Icon:  cfg.UI.Predictions.Icon,
			Help:  cfg.UI.Predictions.Help,
			URL:   urls.PredictionsURL,
		},
	}
}

type pageData struct {
	UI   config.UIConfig
	View models.SessionView
	// UserToken seeds the password field with the stored user token so an
	// unchanged field round-trips. The default credential never reaches it.
	UserToken  string
	ShowNotice bool
}

// UIHandler serves the input page.
type UIHandler struct {
	sessions *session.Service
	cookies  SessionCookieWriter
	ui       config.UIConfig
	links    []models.NavLink
	metrics  *Metrics
	logger   *logrus.Logger
}

// NewUIHandler creates the page handler.
func NewUIHandler(
	sessions *session.Service,
	cookies SessionCookieWriter,
	cfg *config.Config,
	metrics *Metrics,
	logger *logrus.Logger,
) *UIHandler {
	return &UIHandler{
		sessions: sessions,
		cookies:  cookies,
		ui:       cfg.UI,
		links:    NavigationLinks(cfg),
		metrics:  metrics,
		logger:   logger,
	}
}

// RegisterRoutes registers the page routes.
func (h *UIHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/", h.Index).Methods(http.MethodGet)
	router.HandleFunc("/", h.Submit).Methods(http.MethodPost)
	router.HandleFunc("/reset", h.Reset).Methods(http.MethodPost)
}

// Index handles GET /
// Renders the form from the stored session state.
func (h *UIHandler) Index(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	state, err := h.sessions.Load(ctx, middleware.SessionID(ctx))
	if err != nil {
		writeErrorResponse(w, models.NewServerError("Session storage is unavailable"), h.logger)
		return
	}

	if !h.writeCookie(w, r, state.ID) {
		return
	}

	view := h.sessions.View(state, h.links)
	data := pageData{
		UI:         h.ui,
		View:       view,
		UserToken:  state.UserToken(),
		ShowNotice: view.ButtonPressed && !view.Ready,
	}

	w.Header().Set(constants.HeaderContentType, constants.ContentTypeHTMLUTF8)
	w.WriteHeader(http.StatusOK)
	if err = pageTemplates.ExecuteTemplate(w, "index.html", data); err != nil {
		logger.WithCorrelationID(ctx, h.logger).WithError(err).Error("Failed to render page")
	}
}

// Submit handles POST /
// Applies one form render pass and redirects back to the page.
func (h *UIHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		writeErrorResponse(w, models.NewInvalidRequest("Malformed form body"), h.logger)
		return
	}

	input := formInput(r)

	state, result, err := h.sessions.Submit(ctx, middleware.SessionID(ctx), input)
	if err != nil {
		writeErrorResponse(w, models.NewServerError("Session storage is unavailable"), h.logger)
		return
	}
	h.metrics.ObserveSubmission(surfaceHTML, input, state, result)

	if !h.writeCookie(w, r, state.ID) {
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Reset handles POST /reset
// Clears the form and the Analyze latch, then redirects back to the page.
func (h *UIHandler) Reset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	state, err := h.sessions.Reset(ctx, middleware.SessionID(ctx))
	if err != nil {
		writeErrorResponse(w, models.NewServerError("Session storage is unavailable"), h.logger)
		return
	}

	if !h.writeCookie(w, r, state.ID) {
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *UIHandler) writeCookie(w http.ResponseWriter, r *http.Request, sessionID string) bool {
	if err := h.cookies.Write(w, sessionID); err != nil {
		logger.WithCorrelationID(r.Context(), h.logger).WithError(err).Error("Failed to issue session cookie")
		writeErrorResponse(w, models.ErrServerError, h.logger)
		return false
	}
	return true
}

// formInput maps the posted form onto a submission. Only the Analyze button
// presses the trigger.
func formInput(r *http.Request) models.FormInput {
	return models.FormInput{
		Username:     r.PostForm.Get(constants.FormFieldUsername),
		TokenPresent: r.PostForm.Get(constants.FormFieldTokenPresent) != "",
		UserToken:    r.PostForm.Get(constants.FormFieldUserToken),
		Analyze:      r.PostForm.Get(constants.FormFieldAction) == constants.FormActionAnalyze,
	}
}
