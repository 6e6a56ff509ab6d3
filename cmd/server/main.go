// Package main provides the entry point for the CommitQuest UI service.
// It initializes the session store, the optional trigger ledger, HTTP routes
// with middleware, and starts the server with graceful shutdown support.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/jsamuelsen11/commitquest/ui-service/internal/config"
	"github.com/jsamuelsen11/commitquest/ui-service/internal/database/postgres"
	"github.com/jsamuelsen11/commitquest/ui-service/internal/handlers"
	"github.com/jsamuelsen11/commitquest/ui-service/internal/middleware"
	"github.com/jsamuelsen11/commitquest/ui-service/internal/redis"
	"github.com/jsamuelsen11/commitquest/ui-service/internal/repository"
	"github.com/jsamuelsen11/commitquest/ui-service/internal/session"
	"github.com/jsamuelsen11/commitquest/ui-service/internal/token"
	"github.com/jsamuelsen11/commitquest/ui-service/pkg/logger"
)

// services bundles the long-lived dependencies built at startup.
type services struct {
	store    redis.Store
	rdb      *goredis.Client
	dbMgr    *postgres.Manager
	triggers repository.TriggerRepository
}

func main() {
	// Load .env.local file only in development (when GO_ENV is not set or set to "development")
	goEnv := os.Getenv("GO_ENV")
	if goEnv == "" || goEnv == "development" {
		if err := godotenv.Load(".env.local"); err != nil {
			if !os.IsNotExist(err) {
				fmt.Fprintf(os.Stderr, "Warning: Error loading .env.local file: %v\n", err)
			}
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewWithConfig(&cfg.Logging)
	log.Info("Starting CommitQuest UI Service")
	log.WithFields(logrus.Fields{
		"version":       handlers.Version,
		"environment":   cfg.Environment.Environment,
		"port":          cfg.Server.Port,
		"host":          cfg.Server.Host,
		"tls":           cfg.IsTLSEnabled(),
		"default_token": cfg.HasDefaultToken(),
		"admin_enabled": cfg.IsAdminEnabled(),
	}).Info("Service configuration loaded")

	svc := initializeServices(cfg, log)
	defer closeStore(svc.store, log)
	defer closeDatabase(svc.dbMgr, log)

	server := setupServer(cfg, svc, log)

	runServer(server, cfg, log)
}

func initializeServices(cfg *config.Config, log *logrus.Logger) *services {
	svc := &services{
		dbMgr: postgres.NewManager(cfg, log),
	}

	if svc.dbMgr.IsConfigured() {
		repo := repository.NewPostgresTriggerRepository(svc.dbMgr.Pool)
		if err := repo.EnsureSchema(context.Background()); err != nil {
			log.WithError(err).Warn("Failed to ensure trigger ledger schema, events will be dropped until the database recovers")
		}
		svc.triggers = repo
	}

	redisStore, err := redis.NewClient(&cfg.Redis, log)
	if err != nil {
		log.WithError(err).Warn("Failed to connect to Redis, falling back to in-memory store")
		log.Warn("Note: In-memory store will not persist sessions between restarts")
		svc.store = redis.NewMemoryStore(log)
		return svc
	}

	log.Info("Successfully connected to Redis store")
	svc.store = redisStore
	svc.rdb = redisStore.GetRedisClient()
	return svc
}

func closeStore(store redis.Store, log *logrus.Logger) {
	if storeErr := store.Close(); storeErr != nil {
		log.WithError(storeErr).Error("Failed to close store connection")
	}
}

func closeDatabase(dbMgr *postgres.Manager, log *logrus.Logger) {
	if dbMgr != nil && dbMgr.IsConfigured() {
		dbMgr.Close()
		log.Info("Database connections closed")
	}
}

func setupServer(cfg *config.Config, svc *services, log *logrus.Logger) *http.Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := handlers.NewMetrics(registry)

	store := handlers.InstrumentStore(svc.store, metrics)

	var ledger session.Ledger = session.NoopLedger{}
	var triggerLister handlers.TriggerLister
	if svc.triggers != nil {
		ledger = svc.triggers
		triggerLister = svc.triggers
	}

	sessions := session.NewService(store, session.NewResolver(cfg.GitHub.DefaultToken), ledger, cfg.Session.TTL, log)
	cookies := middleware.NewSessionCookies(cfg, token.NewCookieService(&cfg.Session), log)
	middlewareStack := middleware.NewStack(cfg, svc.rdb, log)

	router := mux.NewRouter()
	router.Use(metrics.Instrument)

	handlers.NewHealthHandler(cfg, store, svc.dbMgr, metrics, registry, log).RegisterRoutes(router)
	handlers.NewUIHandler(sessions, cookies, cfg, metrics, log).RegisterRoutes(router)

	apiV1Router := router.PathPrefix("/api/v1").Subrouter()
	handlers.NewSessionHandler(sessions, cookies, cfg, metrics, log).RegisterRoutes(apiV1Router)
	handlers.NewStatsHandler(log).RegisterRoutes(apiV1Router)

	if cfg.IsAdminEnabled() {
		adminRouter := router.PathPrefix("/admin").Subrouter()
		adminRouter.Use(middlewareStack.AdminAuth(cfg.Admin.APIKey))
		handlers.NewAdminHandler(session.NewAdminService(store, log), triggerLister, log).RegisterRoutes(adminRouter)
	} else {
		log.Info("ADMIN_API_KEY not set, admin endpoints disabled")
	}

	finalHandler := middlewareStack.Chain(
		router,
		middlewareStack.Recovery,
		middlewareStack.RequestLogger,
		middlewareStack.SecurityHeaders,
		middlewareStack.CORS,
		middlewareStack.RateLimit,
		middlewareStack.ContentType,
		cookies.Middleware,
	)

	return &http.Server{
		Addr:         cfg.ServerAddr(),
		Handler:      finalHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
}

func runServer(server *http.Server, cfg *config.Config, log *logrus.Logger) {
	go startServer(server, cfg, log)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		log.WithError(shutdownErr).Error("Server forced to shutdown")
	} else {
		log.Info("Server exited gracefully")
	}
}

func startServer(server *http.Server, cfg *config.Config, log *logrus.Logger) {
	log.WithFields(logrus.Fields{
		"addr": server.Addr,
		"tls":  cfg.IsTLSEnabled(),
	}).Info("Starting HTTP server")

	var startErr error
	if cfg.IsTLSEnabled() {
		startErr = server.ListenAndServeTLS(cfg.Server.TLSCert, cfg.Server.TLSKey)
	} else {
		startErr = server.ListenAndServe()
	}

	if startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
		log.WithError(startErr).Fatal("Failed to start server")
	}
}
