package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/jsamuelsen11/commitquest/ui-service/internal/constants"
	"github.com/jsamuelsen11/commitquest/ui-service/internal/models"
	"github.com/jsamuelsen11/commitquest/ui-service/internal/stats"
	"github.com/jsamuelsen11/commitquest/ui-service/pkg/logger"
)

// StatsHandler formats growth metrics for downstream pages.
type StatsHandler struct {
	logger *logrus.Logger
}

// NewStatsHandler creates the stats handler.
func NewStatsHandler(logger *logrus.Logger) *StatsHandler {
	return &StatsHandler{logger: logger}
}

// RegisterRoutes registers the stats API under the provided router.
func (h *StatsHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/stats/growth", h.Growth).Methods(http.MethodPost)
}

// Growth handles POST /api/v1/stats/growth
// Returns the two growth widgets as JSON, or as an HTML fragment when the
// caller accepts text/html.
//
// Responses:
//   - 200: Formatted metrics
//   - 400: Malformed body
//   - 422: Summary fields out of range
func (h *StatsHandler) Growth(w http.ResponseWriter, r *http.Request) {
	var input models.MetricsInput
	if err := decodeJSONBody(w, r, &input); err != nil {
		writeErrorResponse(w, models.NewInvalidRequest("Request body must be a JSON metrics summary"), h.logger)
		return
	}

	if problems := stats.Validate(input); problems.HasErrors() {
		writeErrorResponse(w, models.NewValidationFailed(problems), h.logger)
		return
	}

	growth := stats.FormatGrowth(input)

	if !wantsHTML(r) {
		writeJSONResponse(w, growth, http.StatusOK, h.logger)
		return
	}

	w.Header().Set(constants.HeaderContentType, constants.ContentTypeHTMLUTF8)
	w.WriteHeader(http.StatusOK)
	if err := pageTemplates.ExecuteTemplate(w, "growth.html", growth); err != nil {
		logger.WithCorrelationID(r.Context(), h.logger).WithError(err).Error("Failed to render growth metrics")
	}
}
