package redis

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jsamuelsen11/commitquest/ui-service/internal/models"
)

const (
	// CleanupInterval is the interval between expired session cleanup runs.
	CleanupInterval = 5 * time.Minute
)

// MemoryStore is an in-memory implementation of the Store interface used for
// local development when Redis is unavailable. Data does not survive a restart.
type MemoryStore struct {
	sessions      map[string]*expiringItem[models.SessionState]
	logger        *logrus.Logger
	mu            sync.RWMutex
	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	closeOnce     sync.Once
}

// expiringItem wraps data with expiration time for TTL support.
type expiringItem[T any] struct {
	Data      T
	ExpiresAt time.Time
}

func (e *expiringItem[T]) isExpiredAt(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// NewMemoryStore creates a new in-memory store with background TTL cleanup.
func NewMemoryStore(logger *logrus.Logger) *MemoryStore {
	store := &MemoryStore{
		sessions:      make(map[string]*expiringItem[models.SessionState]),
		logger:        logger,
		cleanupTicker: time.NewTicker(CleanupInterval),
		stopCleanup:   make(chan struct{}),
	}

	go store.cleanupExpiredItems()

	logger.Info("In-memory session store initialized with TTL cleanup")
	return store
}

func (m *MemoryStore) cleanupExpiredItems() {
	defer m.cleanupTicker.Stop()

	for {
		select {
		case <-m.cleanupTicker.C:
			m.performCleanup(time.Now())
		case <-m.stopCleanup:
			return
		}
	}
}

func (m *MemoryStore) performCleanup(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	expired := 0
	for key, item := range m.sessions {
		if item.isExpiredAt(now) {
			delete(m.sessions, key)
			expired++
		}
	}

	if expired > 0 {
		m.logger.WithField("expired_sessions", expired).Debug("Cleaned up expired sessions from memory store")
	}
	return expired
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (m *MemoryStore) Close() error {
	m.closeOnce.Do(func() {
		close(m.stopCleanup)
		m.logger.Info("In-memory session store closed")
	})
	return nil
}

// Ping always succeeds for the in-memory store.
func (m *MemoryStore) Ping(_ context.Context) error {
	return nil
}

// StoreSession stores a copy of the session with TTL.
func (m *MemoryStore) StoreSession(_ context.Context, session *models.SessionState, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[session.ID] = &expiringItem[models.SessionState]{
		Data:      *session,
		ExpiresAt: time.Now().Add(ttl),
	}
	m.logger.WithField("session_id", MaskToken(session.ID)).Debug("Session stored in memory")
	return nil
}

// GetSession returns a copy of the stored session, so callers may mutate it freely.
func (m *MemoryStore) GetSession(_ context.Context, sessionID string) (*models.SessionState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, exists := m.sessions[sessionID]
	if !exists || item.isExpiredAt(time.Now()) {
		return nil, ErrSessionNotFound
	}

	session := item.Data
	return &session, nil
}

// DeleteSession removes a session from memory.
func (m *MemoryStore) DeleteSession(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, sessionID)
	m.logger.WithField("session_id", MaskToken(sessionID)).Debug("Session deleted from memory")
	return nil
}

// CountSessions returns the number of unexpired sessions.
func (m *MemoryStore) CountSessions(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now()
	count := 0
	for _, item := range m.sessions {
		if !item.isExpiredAt(now) {
			count++
		}
	}
	return count, nil
}

// GetSessionStats summarizes the unexpired sessions.
func (m *MemoryStore) GetSessionStats(_ context.Context) (*models.SessionStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &models.SessionStats{
		StorageBackend: BackendMemory,
		MemoryUsage:    "n/a",
	}

	now := time.Now()
	for _, item := range m.sessions {
		if item.isExpiredAt(now) {
			continue
		}
		stats.TotalSessions++
		if item.Data.ButtonPressed() {
			stats.TriggeredSessions++
		}
	}
	return stats, nil
}

// ClearAllSessions removes every session, expired or not, and returns how many
// unexpired sessions were dropped.
func (m *MemoryStore) ClearAllSessions(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	cleared := 0
	for _, item := range m.sessions {
		if !item.isExpiredAt(now) {
			cleared++
		}
	}
	m.sessions = make(map[string]*expiringItem[models.SessionState])

	m.logger.WithField("sessions_cleared", cleared).Info("All sessions cleared from memory")
	return cleared, nil
}
