package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Dataset       DatasetConfig
	Detector      DetectorConfig
	Evaluator     EvaluatorConfig
	Orchestrator  OrchestratorConfig
	Database      DatabaseConfig
	Auth          AuthConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatasetConfig holds tabular data source configuration
type DatasetConfig struct {
	// DefaultSource is the dataset used when a request names no source.
	DefaultSource string
	// FetchTimeout bounds HTTP dataset fetches.
	FetchTimeout time.Duration
	// CacheCapacity is the number of datasets kept in memory at once.
	CacheCapacity int
}

// DetectorConfig holds fraud pattern detector configuration
type DetectorConfig struct {
	// ApprovalLimit is the amount above which expenses need approval.
	ApprovalLimit float64
}

// EvaluatorConfig holds snippet evaluator configuration
type EvaluatorConfig struct {
	// MaxResultLength caps evaluator output before truncation.
	MaxResultLength int
}

// OrchestratorConfig holds audit workflow configuration
type OrchestratorConfig struct {
	// StepTimeout bounds each capability round trip.
	StepTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL verdict archive configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	// Enabled toggles the verdict archive; without it verdicts are
	// returned to callers but not persisted.
	Enabled          bool
	ConnectionString string // From DATABASE_URL when set
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// AuthConfig holds gateway bearer-token configuration
type AuthConfig struct {
	// Enabled toggles JWT verification on the API routes.
	Enabled bool
	// JWTSecret signs and verifies bearer tokens (HS256).
	JWTSecret string
	// TokenTTL bounds issued token lifetimes.
	TokenTTL time.Duration
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or text
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Dataset: DatasetConfig{
			DefaultSource: getEnv("DATASET_DEFAULT_SOURCE", "data/expenses.csv"),
			FetchTimeout:  getEnvAsDuration("DATASET_FETCH_TIMEOUT", 30*time.Second),
			CacheCapacity: getEnvAsInt("DATASET_CACHE_CAPACITY", 1),
		},
		Detector: DetectorConfig{
			ApprovalLimit: getEnvAsFloat("DETECTOR_APPROVAL_LIMIT", 500),
		},
		Evaluator: EvaluatorConfig{
			MaxResultLength: getEnvAsInt("EVALUATOR_MAX_RESULT_LENGTH", 5000),
		},
		Orchestrator: OrchestratorConfig{
			StepTimeout: getEnvAsDuration("ORCHESTRATOR_STEP_TIMEOUT", 30*time.Second),
		},
		Database: loadDatabaseConfig(),
		Auth: AuthConfig{
			Enabled:   getEnvAsBool("AUTH_ENABLED", false),
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
			TokenTTL:  getEnvAsDuration("AUTH_TOKEN_TTL", 24*time.Hour),
		},
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	if c.Dataset.DefaultSource == "" {
		return fmt.Errorf("default dataset source is required: set DATASET_DEFAULT_SOURCE")
	}
	if c.Dataset.CacheCapacity < 1 {
		return fmt.Errorf("dataset cache capacity must be at least 1")
	}
	if c.Detector.ApprovalLimit <= 0 {
		return fmt.Errorf("detector approval limit must be positive")
	}
	if c.Evaluator.MaxResultLength <= 0 {
		return fmt.Errorf("evaluator max result length must be positive")
	}
	if c.Orchestrator.StepTimeout <= 0 {
		return fmt.Errorf("orchestrator step timeout must be positive")
	}

	if c.Database.Enabled && c.Database.ConnectionString == "" && c.Database.Host == "" {
		return fmt.Errorf("verdict archive enabled but no database configured: set DATABASE_URL or DB_HOST")
	}

	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth enabled but AUTH_JWT_SECRET is not set")
	}

	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password). Parses ConnectionString when set.
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			host := u.Hostname()
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			db := strings.TrimPrefix(u.Path, "/")
			return fmt.Sprintf("host=%s port=%s database=%s", host, port, db)
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// loadDatabaseConfig loads database config from DATABASE_URL or DB_* env vars
func loadDatabaseConfig() DatabaseConfig {
	dbURL := getEnv("DATABASE_URL", "")
	if dbURL != "" {
		return DatabaseConfig{
			Enabled:          getEnvAsBool("ARCHIVE_ENABLED", true),
			ConnectionString: dbURL,
			MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		}
	}
	return DatabaseConfig{
		Enabled:         getEnvAsBool("ARCHIVE_ENABLED", false),
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvAsInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "audit"),
		Password:        getEnv("DB_PASSWORD", "audit_password"),
		Database:        getEnv("DB_NAME", "auditcore"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 8080)
func getPort() int {
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	if value := os.Getenv("SERVER_PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	return 8080
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
