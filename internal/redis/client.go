// Package redis provides session storage for the UI service.
//
// Session state is stored as JSON under the key pattern "ui:session:{id}" with a
// sliding TTL that is refreshed on every write. Expired sessions are removed by
// Redis itself. A MemoryStore with the same Store interface is provided for local
// development and tests.
//
// Credential values are never written to logs. Session ids are bearer values
// once signed into the cookie, so store logs show them through MaskToken.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/jsamuelsen11/commitquest/ui-service/internal/config"
	"github.com/jsamuelsen11/commitquest/ui-service/internal/models"
)

const (
	// MinTokenLengthForMasking is the minimum token length before masking is applied.
	MinTokenLengthForMasking = 8

	// ScanBatchSize is the number of keys to scan per Redis SCAN iteration.
	ScanBatchSize = 100

	// BackendRedis and BackendMemory name the storage backends in stats output.
	BackendRedis  = "redis"
	BackendMemory = "memory"

	sessionKeyPrefix  = "ui:session:"
	sessionKeyPattern = sessionKeyPrefix + "*"
)

// ErrSessionNotFound is returned when a session does not exist or has expired.
// Callers treat it as "start a fresh session", not as a failure.
var ErrSessionNotFound = errors.New("session not found")

// Store defines session persistence. Implementations must be safe for concurrent use.
type Store interface {
	// Close releases the underlying resources.
	Close() error

	// Ping verifies connectivity to the backend.
	Ping(ctx context.Context) error

	// StoreSession writes the session and resets its TTL.
	StoreSession(ctx context.Context, session *models.SessionState, ttl time.Duration) error

	// GetSession returns ErrSessionNotFound when the id is unknown or expired.
	GetSession(ctx context.Context, sessionID string) (*models.SessionState, error)

	// DeleteSession removes a session. Deleting a missing session is not an error.
	DeleteSession(ctx context.Context, sessionID string) error

	// CountSessions returns the number of live sessions.
	CountSessions(ctx context.Context) (int, error)

	// GetSessionStats summarizes the live sessions for the admin endpoint.
	GetSessionStats(ctx context.Context) (*models.SessionStats, error)

	// ClearAllSessions deletes every session and returns how many were removed.
	ClearAllSessions(ctx context.Context) (int, error)
}

// Client is a Redis-backed Store.
//
// Thread Safety: All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	rdb    *redis.Client
	logger *logrus.Logger
}

// NewClient creates a Redis client from the configuration and verifies
// connectivity with an initial PING.
func NewClient(cfg *config.RedisConfig, logger *logrus.Logger) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	if cfg.Password != "" {
		opts.Password = cfg.Password // pragma: allowlist secret
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}

	opts.MaxRetries = cfg.MaxRetries
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConn
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout
	opts.PoolTimeout = cfg.PoolTimeout
	opts.ConnMaxIdleTime = cfg.IdleTimeout

	client := NewClientFromRDB(redis.NewClient(opts), logger)

	if pingErr := client.Ping(context.Background()); pingErr != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", pingErr)
	}

	logger.Info("Connected to Redis successfully")

	return client, nil
}

// NewClientFromRDB wraps an existing go-redis client without pinging it.
func NewClientFromRDB(rdb *redis.Client, logger *logrus.Logger) *Client {
	return &Client{rdb: rdb, logger: logger}
}

// Close gracefully shuts down the Redis client and its connection pool.
func (c *Client) Close() error {
	if err := c.rdb.Close(); err != nil {
		c.logger.WithError(err).Error("Failed to close Redis connection")
		return err
	}
	c.logger.Info("Redis connection closed")
	return nil
}

// Ping tests connectivity to the Redis server by sending a PING command.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// GetRedisClient returns the underlying go-redis client for rate limiting with redis_rate.
func (c *Client) GetRedisClient() *redis.Client {
	return c.rdb
}

// StoreSession persists the session as JSON with the given TTL.
func (c *Client) StoreSession(ctx context.Context, session *models.SessionState, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if setErr := c.rdb.Set(ctx, sessionKey(session.ID), data, ttl).Err(); setErr != nil {
		return fmt.Errorf("failed to store session: %w", setErr)
	}

	c.logger.WithFields(logrus.Fields{
		"session_id":   MaskToken(session.ID),
		"token_source": session.Credentials.Source,
	}).Debug("Session stored successfully")
	return nil
}

// GetSession retrieves a session by id. Missing and unreadable sessions both
// return ErrSessionNotFound; unreadable ones are deleted.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*models.SessionState, error) {
	data, err := c.rdb.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session models.SessionState
	if unmarshalErr := json.Unmarshal(data, &session); unmarshalErr != nil {
		// An unreadable payload cannot be repaired, so the caller starts over.
		c.logger.WithError(unmarshalErr).WithField("session_id", MaskToken(sessionID)).
			Warn("Discarding unreadable session")
		if delErr := c.rdb.Del(ctx, sessionKey(sessionID)).Err(); delErr != nil {
			c.logger.WithError(delErr).WithField("session_id", MaskToken(sessionID)).
				Warn("Failed to delete unreadable session")
		}
		return nil, ErrSessionNotFound
	}

	return &session, nil
}

// DeleteSession removes a session immediately.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	if err := c.rdb.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	c.logger.WithField("session_id", MaskToken(sessionID)).Debug("Session deleted successfully")
	return nil
}

// CountSessions counts the session keys with SCAN.
func (c *Client) CountSessions(ctx context.Context) (int, error) {
	keys, err := c.scanSessionKeys(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to scan session keys: %w", err)
	}
	return len(keys), nil
}

// GetSessionStats counts live and triggered sessions and reports Redis memory usage.
func (c *Client) GetSessionStats(ctx context.Context) (*models.SessionStats, error) {
	sessionKeys, err := c.scanSessionKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan session keys: %w", err)
	}

	stats := &models.SessionStats{
		TotalSessions:  len(sessionKeys),
		StorageBackend: BackendRedis,
		MemoryUsage:    c.getMemoryUsage(ctx),
	}

	for i := 0; i < len(sessionKeys); i += ScanBatchSize {
		end := min(i+ScanBatchSize, len(sessionKeys))

		values, mgetErr := c.rdb.MGet(ctx, sessionKeys[i:end]...).Result()
		if mgetErr != nil {
			return nil, fmt.Errorf("failed to read session batch: %w", mgetErr)
		}
		stats.TriggeredSessions += countTriggered(values)
	}

	c.logger.WithFields(logrus.Fields{
		"total_sessions":     stats.TotalSessions,
		"triggered_sessions": stats.TriggeredSessions,
	}).Debug("Session stats retrieved successfully")

	return stats, nil
}

// ClearAllSessions deletes all session keys in batches.
func (c *Client) ClearAllSessions(ctx context.Context) (int, error) {
	sessionKeys, err := c.scanSessionKeys(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to scan session keys: %w", err)
	}

	if len(sessionKeys) == 0 {
		c.logger.Debug("No sessions to clear")
		return 0, nil
	}

	deleted := 0
	for i := 0; i < len(sessionKeys); i += ScanBatchSize {
		end := min(i+ScanBatchSize, len(sessionKeys))

		batch := sessionKeys[i:end]
		result, delErr := c.rdb.Del(ctx, batch...).Result()
		if delErr != nil {
			c.logger.WithError(delErr).WithField("batch_size", len(batch)).Error("Failed to delete session batch")
			return deleted, fmt.Errorf("failed to delete session batch: %w", delErr)
		}
		deleted += int(result)
	}

	c.logger.WithField("sessions_cleared", deleted).Info("All sessions cleared successfully")
	return deleted, nil
}

func (c *Client) scanSessionKeys(ctx context.Context) ([]string, error) {
	var sessionKeys []string
	var cursor uint64

	for {
		keys, nextCursor, err := c.rdb.Scan(ctx, cursor, sessionKeyPattern, ScanBatchSize).Result()
		if err != nil {
			return nil, err
		}

		sessionKeys = append(sessionKeys, keys...)
		cursor = nextCursor

		if cursor == 0 {
			break
		}
	}

	return sessionKeys, nil
}

func (c *Client) getMemoryUsage(ctx context.Context) string {
	info, err := c.rdb.Info(ctx, "memory").Result()
	if err != nil {
		c.logger.WithError(err).Warn("Failed to get Redis memory info")
		return "unavailable"
	}

	return parseMemoryUsage(info)
}

// parseMemoryUsage extracts used_memory_human from Redis INFO memory output.
func parseMemoryUsage(info string) string {
	for _, line := range strings.Split(info, "\n") {
		if value, ok := strings.CutPrefix(strings.TrimSpace(line), "used_memory_human:"); ok {
			return value
		}
	}
	return "unavailable"
}

// countTriggered counts MGET results whose session has the Analyze latch set.
// Keys that expired between SCAN and MGET come back nil and are skipped.
func countTriggered(values []any) int {
	triggered := 0
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var s models.SessionState
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			continue
		}
		if s.ButtonPressed() {
			triggered++
		}
	}
	return triggered
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

// MaskToken masks a credential for logging, keeping the first and last four
// characters of long values.
//
// Examples:
//   - "abc123xyz789" -> "abc1***z789"
//   - "short" -> "***"
func MaskToken(token string) string {
	if len(token) <= MinTokenLengthForMasking {
		return "***"
	}
	return token[:4] + "***" + token[len(token)-4:]
}
