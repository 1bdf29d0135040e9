// Package config provides configuration management for the product API server.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Default configuration values.
const (
	DefaultServerPort      = 3000
	DefaultEnvironment     = "development"
	DefaultLogLevel        = "info"
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMetricsEnabled  = true
	DefaultStoreDriver     = StoreDriverMongo
	DefaultMongoURI        = "mongodb://127.0.0.1:27017"
	DefaultMongoDatabase   = "product_api"
	DefaultMongoCollection = "products"
	DefaultQueryTimeout    = 10 * time.Second
	DefaultAuthScope       = AuthScopeWrites
	DefaultEnvFile         = ".env"
)

// Environment variable names.
const (
	EnvServerPort      = "APP_SERVER_PORT"
	EnvEnvironment     = "APP_ENVIRONMENT"
	EnvLogLevel        = "APP_LOG_LEVEL"
	EnvShutdownTimeout = "APP_SHUTDOWN_TIMEOUT"
	EnvMetricsEnabled  = "APP_METRICS_ENABLED"
	EnvStoreDriver     = "APP_STORE_DRIVER"
	EnvMongoURI        = "APP_MONGO_URI"
	EnvMongoDatabase   = "APP_MONGO_DATABASE"
	EnvMongoCollection = "APP_MONGO_COLLECTION"
	EnvQueryTimeout    = "APP_QUERY_TIMEOUT"
	EnvAPIKey          = "APP_API_KEY" //nolint:gosec // env var name, not a credential
	EnvAuthScope       = "APP_AUTH_SCOPE"
	EnvEnvFile         = "APP_ENV_FILE"
)

// Store drivers.
const (
	StoreDriverMongo  = "mongo"
	StoreDriverMemory = "memory"
)

// Auth scopes.
const (
	// AuthScopeWrites protects only the mutating product endpoints.
	AuthScopeWrites = "writes"
	// AuthScopeAll protects every product endpoint, reads included.
	AuthScopeAll = "all"
)

// EnvironmentProduction hides internal error details from responses.
const EnvironmentProduction = "production"

// Config holds the application configuration.
type Config struct {
	// Server settings.
	ServerPort      int
	Environment     string
	LogLevel        string
	ShutdownTimeout time.Duration
	MetricsEnabled  bool

	// Store settings.
	StoreDriver     string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
	QueryTimeout    time.Duration

	// Authentication settings.
	APIKey    string
	AuthScope string
}

// Validation errors.
var (
	ErrInvalidServerPort      = errors.New("server port must be between 1 and 65535")
	ErrInvalidLogLevel        = errors.New("log level must be one of: debug, info, warn, error")
	ErrInvalidShutdownTimeout = errors.New("shutdown timeout must be positive")
	ErrInvalidQueryTimeout    = errors.New("query timeout must be positive")
	ErrInvalidStoreDriver     = errors.New("store driver must be one of: mongo, memory")
	ErrInvalidMongoConfig     = errors.New(
		"mongo URI, database and collection must be set when store driver is mongo",
	)
	ErrMissingAPIKey      = errors.New("API key must be set")
	ErrInvalidAuthScope   = errors.New("auth scope must be one of: writes, all")
	ErrInvalidEnvironment = errors.New("environment must not be empty")
)

// Load reads configuration from the environment with defaults. Values from
// the env file (APP_ENV_FILE, default .env) are applied first and never
// override variables already present in the environment.
func Load() (*Config, error) {
	envFile := os.Getenv(EnvEnvFile)
	if envFile == "" {
		envFile = DefaultEnvFile
	}

	return LoadWithEnvFile(envFile)
}

// LoadWithEnvFile is Load with an explicit env file path. A missing file is
// not an error; an empty path skips the file entirely.
func LoadWithEnvFile(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading env file %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		ServerPort:      DefaultServerPort,
		Environment:     DefaultEnvironment,
		LogLevel:        DefaultLogLevel,
		ShutdownTimeout: DefaultShutdownTimeout,
		MetricsEnabled:  DefaultMetricsEnabled,
		StoreDriver:     DefaultStoreDriver,
		MongoURI:        DefaultMongoURI,
		MongoDatabase:   DefaultMongoDatabase,
		MongoCollection: DefaultMongoCollection,
		QueryTimeout:    DefaultQueryTimeout,
		AuthScope:       DefaultAuthScope,
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("loading config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadFromEnv loads configuration values from environment variables.
func (c *Config) loadFromEnv() error {
	if err := c.loadServerEnv(); err != nil {
		return err
	}

	if err := c.loadStoreEnv(); err != nil {
		return err
	}

	c.loadAuthEnv()

	return nil
}

// loadServerEnv loads server-related environment variables.
func (c *Config) loadServerEnv() error {
	if val := os.Getenv(EnvServerPort); val != "" {
		port, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvServerPort, err)
		}
		c.ServerPort = port
	}

	if val := os.Getenv(EnvEnvironment); val != "" {
		c.Environment = val
	}

	if val := os.Getenv(EnvLogLevel); val != "" {
		c.LogLevel = val
	}

	if val := os.Getenv(EnvShutdownTimeout); val != "" {
		timeout, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvShutdownTimeout, err)
		}
		c.ShutdownTimeout = timeout
	}

	if val := os.Getenv(EnvMetricsEnabled); val != "" {
		enabled, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvMetricsEnabled, err)
		}
		c.MetricsEnabled = enabled
	}

	return nil
}

// loadStoreEnv loads database-related environment variables.
func (c *Config) loadStoreEnv() error {
	if val := os.Getenv(EnvStoreDriver); val != "" {
		c.StoreDriver = val
	}

	if val := os.Getenv(EnvMongoURI); val != "" {
		c.MongoURI = val
	}

	if val := os.Getenv(EnvMongoDatabase); val != "" {
		c.MongoDatabase = val
	}

	if val := os.Getenv(EnvMongoCollection); val != "" {
		c.MongoCollection = val
	}

	if val := os.Getenv(EnvQueryTimeout); val != "" {
		timeout, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvQueryTimeout, err)
		}
		c.QueryTimeout = timeout
	}

	return nil
}

// loadAuthEnv loads authentication environment variables.
func (c *Config) loadAuthEnv() {
	if val := os.Getenv(EnvAPIKey); val != "" {
		c.APIKey = val
	}

	if val := os.Getenv(EnvAuthScope); val != "" {
		c.AuthScope = val
	}
}

// Validate checks if the configuration values are valid.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateStore(); err != nil {
		return err
	}

	if err := c.validateAuth(); err != nil {
		return err
	}

	return nil
}

// validateServer validates server-related configuration.
func (c *Config) validateServer() error {
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return ErrInvalidServerPort
	}

	if c.Environment == "" {
		return ErrInvalidEnvironment
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return ErrInvalidLogLevel
	}

	if c.ShutdownTimeout <= 0 {
		return ErrInvalidShutdownTimeout
	}

	return nil
}

// validateStore validates database configuration.
func (c *Config) validateStore() error {
	switch c.StoreDriver {
	case StoreDriverMongo:
		if c.MongoURI == "" || c.MongoDatabase == "" || c.MongoCollection == "" {
			return ErrInvalidMongoConfig
		}
	case StoreDriverMemory:
	default:
		return ErrInvalidStoreDriver
	}

	if c.QueryTimeout <= 0 {
		return ErrInvalidQueryTimeout
	}

	return nil
}

// validateAuth validates authentication configuration.
func (c *Config) validateAuth() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}

	if c.AuthScope != AuthScopeWrites && c.AuthScope != AuthScopeAll {
		return ErrInvalidAuthScope
	}

	return nil
}

// Address returns the server address in host:port format.
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}

// IsProduction reports whether the service runs in the production
// environment.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}

// ProtectReads reports whether read endpoints require authentication.
func (c *Config) ProtectReads() bool {
	return c.AuthScope == AuthScopeAll
}
