package session

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/jsamuelsen11/commitquest/ui-service/internal/models"
	"github.com/jsamuelsen11/commitquest/ui-service/internal/redis"
)

// AdminService defines the interface for administrative session operations.
type AdminService interface {
	// GetSessionStats retrieves statistics about current sessions in the store.
	GetSessionStats(ctx context.Context) (*models.SessionStats, error)

	// ClearAllSessions clears all sessions from the store.
	ClearAllSessions(ctx context.Context) (*models.ClearSessionsResponse, error)
}

type adminService struct {
	store  redis.Store
	logger *logrus.Logger
}

// NewAdminService creates a new admin service instance with the provided dependencies.
func NewAdminService(store redis.Store, logger *logrus.Logger) AdminService {
	return &adminService{
		store:  store,
		logger: logger,
	}
}

func (s *adminService) GetSessionStats(ctx context.Context) (*models.SessionStats, error) {
	s.logger.Info("Retrieving session statistics")

	stats, err := s.store.GetSessionStats(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to retrieve session statistics")
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"total_sessions":     stats.TotalSessions,
		"triggered_sessions": stats.TriggeredSessions,
		"storage_backend":    stats.StorageBackend,
	}).Info("Session statistics retrieved successfully")

	return stats, nil
}

func (s *adminService) ClearAllSessions(ctx context.Context) (*models.ClearSessionsResponse, error) {
	s.logger.Warn("Clearing all sessions from the store")

	count, err := s.store.ClearAllSessions(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to clear sessions")
		return nil, err
	}

	s.logger.WithField("sessions_cleared", count).Info("Sessions cleared successfully")

	return &models.ClearSessionsResponse{
		Success:         true,
		Message:         fmt.Sprintf("Successfully cleared %d sessions", count),
		SessionsCleared: count,
	}, nil
}
