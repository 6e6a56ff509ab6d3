// Package config provides configuration management for the CommitQuest UI service.
// It supports environment variable-based configuration with validation and default values
// for all service components including server, session storage, the default GitHub
// credential, security, and logging settings. Display copy comes from YAML files.
package config

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// MinSessionSecretLength is the minimum required length for the session cookie signing secret.
	MinSessionSecretLength = 32
	// MinPortNumber is the minimum valid port number.
	MinPortNumber = 1
	// MaxPortNumber is the maximum valid port number.
	MaxPortNumber = 65535
	// MinSessionTTL is the shortest session lifetime accepted.
	MinSessionTTL = time.Minute
)

// Config represents the complete configuration for the UI service,
// aggregating all component-specific configurations.
type Config struct {
	// Environment holds environment-specific settings.
	Environment EnvironmentConfig `envconfig:"ENVIRONMENT"`
	// Server contains HTTP server configuration including ports, timeouts, and TLS settings.
	Server ServerConfig `envconfig:"SERVER"`
	// Redis contains Redis connection and pool configuration for the session store.
	Redis RedisConfig `envconfig:"REDIS"`
	// PostgresDatabase contains PostgreSQL configuration for the trigger ledger.
	PostgresDatabase DatabaseConfig `envconfig:"POSTGRES"`
	// Session contains session cookie and lifetime settings.
	Session SessionConfig `envconfig:"SESSION"`
	// GitHub contains the process-wide default credential.
	GitHub GitHubConfig `envconfig:"GITHUB"`
	// Admin contains admin endpoint settings.
	Admin AdminConfig `envconfig:"ADMIN"`
	// Security contains security-related settings like CORS and rate limiting.
	Security SecurityConfig `envconfig:"SECURITY"`
	// Logging contains logging configuration.
	Logging LoggingConfig `envconfig:"LOGGING"`
	// UI holds display copy loaded from YAML, not from the environment.
	UI UIConfig `ignored:"true"`
}

type Environment string

const (
	Local   Environment = "LOCAL"
	NonProd Environment = "NONPROD"
	Prod    Environment = "PROD"
)

// EnvironmentConfig holds environment-specific settings.
type EnvironmentConfig struct {
	// Environment indicates the current running environment (LOCAL, NONPROD, PROD).
	Environment Environment `envconfig:"ENV"        default:"LOCAL"`
	// ConfigDir is the directory holding defaults.yaml and the per-environment overlay.
	ConfigDir string `envconfig:"CONFIG_DIR" default:"./configs"`
}

// ServerConfig holds HTTP server configuration including network settings,
// timeouts, and TLS certificate paths.
type ServerConfig struct {
	// Port is the HTTP server listening port.
	Port int `envconfig:"PORT"             default:"8080"`
	// Host is the network interface to bind to.
	Host string `envconfig:"HOST"             default:"0.0.0.0"`
	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration `envconfig:"READ_TIMEOUT"     default:"15s"`
	// WriteTimeout is the maximum duration before timing out writes.
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT"    default:"15s"`
	// IdleTimeout is the maximum amount of time to wait for keep-alive connections.
	IdleTimeout time.Duration `envconfig:"IDLE_TIMEOUT"     default:"60s"`
	// ShutdownTimeout is the maximum time to wait for graceful server shutdown.
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	// TLSCert is the path to the TLS certificate file for HTTPS.
	TLSCert string `envconfig:"TLS_CERT"`
	// TLSKey is the path to the TLS private key file for HTTPS.
	TLSKey string `envconfig:"TLS_KEY"`
}

// RedisConfig contains Redis connection configuration including
// connection pool settings and timeouts.
type RedisConfig struct {
	URL          string        `envconfig:"URL"           default:"redis://localhost:6379"`
	Password     string        `envconfig:"PASSWORD"`
	DB           int           `envconfig:"DB"            default:"0"`
	MaxRetries   int           `envconfig:"MAX_RETRIES"   default:"3"`
	PoolSize     int           `envconfig:"POOL_SIZE"     default:"10"`
	MinIdleConn  int           `envconfig:"MIN_IDLE_CONN" default:"2"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT"  default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT"  default:"3s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`
	PoolTimeout  time.Duration `envconfig:"POOL_TIMEOUT"  default:"4s"`
	IdleTimeout  time.Duration `envconfig:"IDLE_TIMEOUT"  default:"300s"`
}

// DatabaseConfig contains PostgreSQL database connection configuration
// including connection pool settings and health check parameters.
type DatabaseConfig struct {
	// Host is the PostgreSQL server hostname.
	Host string `envconfig:"HOST"                default:"localhost"`
	// Port is the PostgreSQL server port.
	Port int `envconfig:"PORT"                default:"5432"`
	// Database is the PostgreSQL database name.
	Database string `envconfig:"DB"                  default:"commitquest"`
	// Schema is the PostgreSQL schema name.
	Schema string `envconfig:"SCHEMA"              default:"commitquest"`
	// User is the database username.
	User string `envconfig:"USER"`
	// Password is the database password.
	Password string `envconfig:"PASSWORD"`
	// SSLMode is the SSL connection mode (disable, require, verify-ca, verify-full).
	SSLMode string `envconfig:"SSL_MODE"            default:"require"`
	// MaxConn is the maximum number of connections in the pool.
	MaxConn int32 `envconfig:"MAX_CONN"            default:"10"`
	// MinConn is the minimum number of connections in the pool.
	MinConn int32 `envconfig:"MIN_CONN"            default:"1"`
	// MaxConnLifetime is the maximum lifetime of a connection.
	MaxConnLifetime time.Duration `envconfig:"MAX_CONN_LIFETIME"   default:"1h"`
	// MaxConnIdleTime is the maximum idle time for a connection.
	MaxConnIdleTime time.Duration `envconfig:"MAX_CONN_IDLE_TIME"  default:"30m"`
	// HealthCheckPeriod is how often to check database connectivity.
	HealthCheckPeriod time.Duration `envconfig:"HEALTH_CHECK_PERIOD" default:"30s"`
	// ConnectTimeout is the timeout for establishing connections.
	ConnectTimeout time.Duration `envconfig:"CONNECT_TIMEOUT"     default:"10s"`
}

// SessionConfig contains the session cookie and lifetime settings.
type SessionConfig struct {
	// Secret signs the session cookie (required, minimum 32 characters).
	Secret string `envconfig:"SECRET"      required:"true"`
	// CookieName is the name of the session cookie.
	CookieName string `envconfig:"COOKIE_NAME" default:"cq_session"`
	// TTL is how long an idle session is retained.
	TTL time.Duration `envconfig:"TTL"         default:"24h"`
	// Issuer is the issuer claim written into session cookies.
	Issuer string `envconfig:"ISSUER"      default:"commitquest-ui"`
}

// GitHubConfig holds the fallback credential used when a user supplies none.
type GitHubConfig struct {
	// DefaultToken is the process-wide default credential. Never logged or rendered.
	DefaultToken string `envconfig:"DEFAULT_TOKEN"`
}

// AdminConfig controls the session administration endpoints.
type AdminConfig struct {
	// APIKey is the bearer key for admin endpoints. Empty disables them.
	APIKey string `envconfig:"API_KEY"`
}

// SecurityConfig contains security-related settings including
// rate limiting, CORS configuration, and cookie security.
type SecurityConfig struct {
	// RateLimitRPS is the maximum requests per second per client.
	RateLimitRPS int `envconfig:"RATE_LIMIT_RPS"    default:"20"`
	// RateLimitBurst is the maximum burst size for rate limiting.
	RateLimitBurst int `envconfig:"RATE_LIMIT_BURST"  default:"40"`
	// AllowedOrigins are the CORS allowed origins.
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS"   default:"*"`
	// AllowedMethods are the CORS allowed HTTP methods.
	AllowedMethods []string `envconfig:"ALLOWED_METHODS"   default:"GET,POST,PUT,DELETE,OPTIONS"`
	// AllowedHeaders are the CORS allowed headers.
	AllowedHeaders []string `envconfig:"ALLOWED_HEADERS"   default:"*"`
	// ExposedHeaders are the response headers readable by cross-origin callers.
	ExposedHeaders []string `envconfig:"EXPOSED_HEADERS"   default:"X-Request-ID"`
	// AllowCredentials determines if CORS allows credentials.
	AllowCredentials bool `envconfig:"ALLOW_CREDENTIALS" default:"true"`
	// MaxAge is the CORS preflight cache duration in seconds.
	MaxAge int `envconfig:"MAX_AGE"           default:"86400"`
	// TrustedProxies are the trusted proxy IP addresses, exempt from rate limiting.
	TrustedProxies []string `envconfig:"TRUSTED_PROXIES"`
	// SecureCookies determines if cookies should be marked as secure.
	SecureCookies bool `envconfig:"SECURE_COOKIES"    default:"true"`
	// SameSiteCookies sets the SameSite attribute for cookies (strict, lax, none).
	SameSiteCookies string `envconfig:"SAME_SITE_COOKIES" default:"lax"`
}

// LoggingConfig contains logging configuration including
// log level, format, and output destination.
type LoggingConfig struct {
	// Level is the logging level (debug, info, warn, error).
	Level string `envconfig:"LEVEL"              default:"info"`
	// Format is the log output format (json, text).
	Format string `envconfig:"FORMAT"             default:"json"`
	// Output is the log output destination (stdout, stderr, file path).
	Output string `envconfig:"OUTPUT"             default:"stdout"`
	// ConsoleFormat is the format for console output (text, json).
	ConsoleFormat string `envconfig:"CONSOLE_FORMAT"     default:"text"`
	// FileFormat is the format for file output (text, json).
	FileFormat string `envconfig:"FILE_FORMAT"        default:"json"`
	// FilePath is the path to the log file for dual output.
	FilePath string `envconfig:"FILE_PATH"`
	// EnableDualOutput enables both console and file logging simultaneously.
	EnableDualOutput bool `envconfig:"ENABLE_DUAL_OUTPUT" default:"false"`
}

// Load reads configuration from environment variables, overlays the YAML
// display copy, and returns a validated Config instance.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	cfg.UI = DefaultUIConfig()
	if err := loadUIConfig(cfg.Environment.Environment, cfg.Environment.ConfigDir, &cfg.UI); err != nil {
		return nil, fmt.Errorf("failed to load UI configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate performs validation of all configuration values.
func (c *Config) Validate() error {
	if c.Session.Secret == "" {
		return errors.New("session secret is required")
	}

	if len(c.Session.Secret) < MinSessionSecretLength {
		return fmt.Errorf("session secret must be at least %d characters long", MinSessionSecretLength)
	}

	if c.Server.Port < MinPortNumber || c.Server.Port > MaxPortNumber {
		return errors.New("server port must be between 1 and 65535")
	}

	if c.Session.TTL < MinSessionTTL {
		return errors.New("session TTL must be at least 1 minute")
	}

	if c.Session.CookieName == "" {
		return errors.New("session cookie name is required")
	}

	switch strings.ToLower(c.Security.SameSiteCookies) {
	case "", "strict", "lax", "none":
	default:
		return fmt.Errorf("unsupported SameSite cookie mode: %s", c.Security.SameSiteCookies)
	}

	return nil
}

// ServerAddr returns the formatted server address string in host:port format.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// IsTLSEnabled returns true if both TLS certificate and key paths are configured.
func (c *Config) IsTLSEnabled() bool {
	return c.Server.TLSCert != "" && c.Server.TLSKey != ""
}

// PostgresDatabaseDSN returns the PostgreSQL connection string (Data Source Name).
func (c *Config) PostgresDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s search_path=%s",
		c.PostgresDatabase.Host,
		c.PostgresDatabase.Port,
		c.PostgresDatabase.Database,
		c.PostgresDatabase.User,
		c.PostgresDatabase.Password,
		c.PostgresDatabase.SSLMode,
		c.PostgresDatabase.Schema,
	)
}

// IsPostgresDatabaseConfigured returns true if PostgreSQL user and password are configured.
func (c *Config) IsPostgresDatabaseConfigured() bool {
	return c.PostgresDatabase.User != "" && c.PostgresDatabase.Password != ""
}

// HasDefaultToken reports whether a default GitHub credential is configured.
func (c *Config) HasDefaultToken() bool {
	return c.GitHub.DefaultToken != ""
}

// IsAdminEnabled reports whether the admin endpoints should be mounted.
func (c *Config) IsAdminEnabled() bool {
	return c.Admin.APIKey != ""
}

// SameSiteMode maps SameSiteCookies to the net/http constant.
func (c *Config) SameSiteMode() http.SameSite {
	switch strings.ToLower(c.Security.SameSiteCookies) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
