package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/jsamuelsen11/commitquest/ui-service/internal/models"
)

// AdminClient calls the session administration endpoints.
type AdminClient struct {
	*BaseClient // Embedded - inherits Do, DoJSON and ParseErrorResponse

	logger *logrus.Logger
}

// NewAdminClient creates an admin client for the service at baseURL
// (e.g. "http://localhost:8080/admin").
func NewAdminClient(base *BaseClient, logger *logrus.Logger) *AdminClient {
	return &AdminClient{
		BaseClient: base,
		logger:     logger,
	}
}

// GetSessionStats fetches store statistics.
func (c *AdminClient) GetSessionStats(ctx context.Context) (*models.SessionStats, error) {
	var stats models.SessionStats
	if err := c.DoJSON(ctx, http.MethodGet, "/sessions/stats", nil, http.StatusOK, &stats); err != nil {
		return nil, fmt.Errorf("failed to get session stats: %w", err)
	}
	return &stats, nil
}

// ClearSessions removes every stored session.
func (c *AdminClient) ClearSessions(ctx context.Context) (*models.ClearSessionsResponse, error) {
	var response models.ClearSessionsResponse
	if err := c.DoJSON(ctx, http.MethodDelete, "/sessions", nil, http.StatusOK, &response); err != nil {
		return nil, fmt.Errorf("failed to clear sessions: %w", err)
	}

	c.logger.WithField("sessions_cleared", response.SessionsCleared).Info("Sessions cleared")
	return &response, nil
}

// ListTriggers fetches the newest trigger ledger events. A non-positive limit
// uses the server default.
func (c *AdminClient) ListTriggers(ctx context.Context, limit int) (*models.TriggerList, error) {
	path := "/triggers"
	if limit > 0 {
		path += "?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	}

	var list models.TriggerList
	if err := c.DoJSON(ctx, http.MethodGet, path, nil, http.StatusOK, &list); err != nil {
		return nil, fmt.Errorf("failed to list triggers: %w", err)
	}
	return &list, nil
}
