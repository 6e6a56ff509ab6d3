// Package postgres manages the optional PostgreSQL connection pool used by the
// trigger ledger. The service keeps running when the database is unconfigured
// or unreachable; a background monitor reconnects when it comes back.
package postgres

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/jsamuelsen11/commitquest/ui-service/internal/config"
)

const (
	healthCheckTimeout = 5 * time.Second

	// StatusNotConfigured, StatusConnected and StatusUnavailable describe the manager for health checks.
	StatusNotConfigured = "not_configured"
	StatusConnected     = "connected"
	StatusUnavailable   = "unavailable"
)

// ErrDatabaseUnavailable is returned when database operations are attempted while database is unavailable.
var ErrDatabaseUnavailable = errors.New("database is not available")

// Manager manages the PostgreSQL database connection pool and health monitoring.
type Manager struct {
	pool       *pgxpool.Pool
	config     *config.DatabaseConfig
	dsn        string
	configured bool
	logger     *logrus.Logger
	available  bool
	mu         sync.RWMutex
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewManager creates a database manager. When credentials are not configured
// it returns a manager that never connects and reports StatusNotConfigured.
func NewManager(cfg *config.Config, logger *logrus.Logger) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	manager := &Manager{
		config:     &cfg.PostgresDatabase,
		dsn:        cfg.PostgresDatabaseDSN(),
		configured: cfg.IsPostgresDatabaseConfigured(),
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}

	if !manager.configured {
		close(manager.done)
		logger.Info("PostgreSQL database not configured, trigger ledger disabled")
		return manager
	}

	if err := manager.connect(); err != nil {
		logger.WithError(err).Warn("Failed to connect to PostgreSQL database on startup, will retry periodically")
	}

	go manager.healthMonitor()

	return manager
}

func (m *Manager) connect() error {
	poolConfig, err := pgxpool.ParseConfig(m.dsn)
	if err != nil {
		return err
	}

	poolConfig.MaxConns = m.config.MaxConn
	poolConfig.MinConns = m.config.MinConn
	poolConfig.MaxConnLifetime = m.config.MaxConnLifetime
	poolConfig.MaxConnIdleTime = m.config.MaxConnIdleTime
	poolConfig.ConnConfig.ConnectTimeout = m.config.ConnectTimeout

	ctx, cancel := context.WithTimeout(m.ctx, m.config.ConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return err
	}

	if pingErr := pool.Ping(ctx); pingErr != nil {
		pool.Close()
		return pingErr
	}

	m.mu.Lock()
	if m.pool != nil {
		m.pool.Close()
	}
	m.pool = pool
	m.available = true
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"host":     m.config.Host,
		"database": m.config.Database,
		"schema":   m.config.Schema,
	}).Info("Successfully connected to PostgreSQL database")
	return nil
}

func (m *Manager) healthMonitor() {
	defer close(m.done)

	ticker := time.NewTicker(m.config.HealthCheckPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.checkHealth()
		}
	}
}

func (m *Manager) checkHealth() {
	m.mu.RLock()
	pool := m.pool
	wasAvailable := m.available
	m.mu.RUnlock()

	if pool == nil {
		if err := m.connect(); err != nil {
			m.setAvailable(false)
			if wasAvailable {
				m.logger.WithError(err).Warn("PostgreSQL database connection lost, attempting reconnection")
			}
		}
		return
	}

	ctx, cancel := context.WithTimeout(m.ctx, healthCheckTimeout)
	defer cancel()

	if err := pool.Ping(ctx); err != nil {
		m.setAvailable(false)
		if wasAvailable {
			m.logger.WithError(err).Warn("PostgreSQL database health check failed, connection lost")
		}

		if reconnectErr := m.connect(); reconnectErr != nil {
			m.logger.WithError(reconnectErr).Debug("PostgreSQL reconnection attempt failed")
		}
		return
	}

	if !wasAvailable {
		m.logger.Info("PostgreSQL database connection restored")
	}
	m.setAvailable(true)
}

func (m *Manager) setAvailable(available bool) {
	m.mu.Lock()
	m.available = available
	m.mu.Unlock()
}

// IsConfigured reports whether database credentials were supplied.
func (m *Manager) IsConfigured() bool {
	return m.configured
}

// IsAvailable returns true if the database is currently available.
func (m *Manager) IsAvailable() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.available
}

// Status summarizes the manager for health reporting.
func (m *Manager) Status() string {
	switch {
	case !m.configured:
		return StatusNotConfigured
	case m.IsAvailable():
		return StatusConnected
	default:
		return StatusUnavailable
	}
}

// Pool returns the database connection pool. Returns nil if database is not available.
func (m *Manager) Pool() *pgxpool.Pool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.available {
		return m.pool
	}
	return nil
}

// Close closes the connection pool and waits for health monitoring to stop.
func (m *Manager) Close() {
	m.cancel()
	<-m.done

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pool != nil {
		m.pool.Close()
		m.pool = nil
	}
	m.available = false
}

// Ping performs a health check on the database connection.
func (m *Manager) Ping(ctx context.Context) error {
	pool := m.Pool()
	if pool == nil {
		return ErrDatabaseUnavailable
	}
	return pool.Ping(ctx)
}
