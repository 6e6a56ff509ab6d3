package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/jsamuelsen11/commitquest/ui-service/internal/constants"
	"github.com/jsamuelsen11/commitquest/ui-service/internal/middleware"
	"github.com/jsamuelsen11/commitquest/ui-service/internal/models"
)

// maxJSONBodyBytes bounds JSON request bodies.
const maxJSONBodyBytes = 64 << 10

// writeJSONResponse writes a JSON response with the given status code.
func writeJSONResponse(w http.ResponseWriter, data any, statusCode int, logger *logrus.Logger) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.WithError(err).Error("Failed to encode JSON response")
	}
}

// writeErrorResponse writes apiErr in the standard error envelope.
func writeErrorResponse(w http.ResponseWriter, apiErr *models.APIError, logger *logrus.Logger) {
	middleware.WriteError(w, apiErr, logger)
}

// decodeJSONBody decodes a bounded JSON body into dst, rejecting unknown fields.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// wantsHTML reports whether the caller prefers an HTML response.
func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get(constants.HeaderAccept), constants.ContentTypeHTML)
}

// methodNotAllowed answers 405 with an Allow header listing allowed.
func methodNotAllowed(logger *logrus.Logger, allowed ...string) http.Handler {
	allow := strings.Join(allowed, ", ")
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Allow", allow)
		writeErrorResponse(w, models.ErrMethodNotAllowed, logger)
	})
}
