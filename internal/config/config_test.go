// Package config provides configuration management for the product API server.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testAPIKey = "test-secret"

func TestLoad_DefaultValues(t *testing.T) {
	// Arrange - Clear all environment variables
	clearEnvVars(t)
	t.Setenv(EnvAPIKey, testAPIKey)

	// Act
	cfg, err := LoadWithEnvFile("")

	// Assert
	if err != nil {
		t.Fatalf("LoadWithEnvFile() returned unexpected error: %v", err)
	}

	if cfg.ServerPort != DefaultServerPort {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, DefaultServerPort)
	}
	if cfg.Environment != DefaultEnvironment {
		t.Errorf("Environment = %s, want %s", cfg.Environment, DefaultEnvironment)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel = %s, want %s", cfg.LogLevel, DefaultLogLevel)
	}
	if cfg.ShutdownTimeout != DefaultShutdownTimeout {
		t.Errorf("ShutdownTimeout = %v, want %v", cfg.ShutdownTimeout, DefaultShutdownTimeout)
	}
	if cfg.MetricsEnabled != DefaultMetricsEnabled {
		t.Errorf("MetricsEnabled = %v, want %v", cfg.MetricsEnabled, DefaultMetricsEnabled)
	}
	if cfg.StoreDriver != StoreDriverMongo {
		t.Errorf("StoreDriver = %s, want %s", cfg.StoreDriver, StoreDriverMongo)
	}
	if cfg.MongoURI != DefaultMongoURI {
		t.Errorf("MongoURI = %s, want %s", cfg.MongoURI, DefaultMongoURI)
	}
	if cfg.MongoDatabase != DefaultMongoDatabase || cfg.MongoCollection != DefaultMongoCollection {
		t.Errorf("Mongo namespace = %s.%s, want %s.%s",
			cfg.MongoDatabase, cfg.MongoCollection, DefaultMongoDatabase, DefaultMongoCollection)
	}
	if cfg.QueryTimeout != DefaultQueryTimeout {
		t.Errorf("QueryTimeout = %v, want %v", cfg.QueryTimeout, DefaultQueryTimeout)
	}
	if cfg.AuthScope != AuthScopeWrites {
		t.Errorf("AuthScope = %s, want %s", cfg.AuthScope, AuthScopeWrites)
	}
	if cfg.IsProduction() {
		t.Error("IsProduction() = true for default environment")
	}
	if cfg.ProtectReads() {
		t.Error("ProtectReads() = true for default auth scope")
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(*testing.T, *Config)
	}{
		{
			name:    "custom server port",
			envVars: map[string]string{EnvServerPort: "8081"},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.ServerPort != 8081 {
					t.Errorf("ServerPort = %d, want 8081", cfg.ServerPort)
				}
				if cfg.Address() != ":8081" {
					t.Errorf("Address() = %s, want :8081", cfg.Address())
				}
			},
		},
		{
			name:    "production environment",
			envVars: map[string]string{EnvEnvironment: "production"},
			validate: func(t *testing.T, cfg *Config) {
				if !cfg.IsProduction() {
					t.Error("IsProduction() = false, want true")
				}
			},
		},
		{
			name:    "custom log level",
			envVars: map[string]string{EnvLogLevel: "debug"},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.LogLevel != "debug" {
					t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
				}
			},
		},
		{
			name:    "custom shutdown timeout",
			envVars: map[string]string{EnvShutdownTimeout: "60s"},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.ShutdownTimeout != 60*time.Second {
					t.Errorf("ShutdownTimeout = %v, want 60s", cfg.ShutdownTimeout)
				}
			},
		},
		{
			name:    "metrics disabled",
			envVars: map[string]string{EnvMetricsEnabled: "false"},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.MetricsEnabled {
					t.Error("MetricsEnabled = true, want false")
				}
			},
		},
		{
			name: "mongo settings",
			envVars: map[string]string{
				EnvMongoURI:        "mongodb://db:27017",
				EnvMongoDatabase:   "catalog",
				EnvMongoCollection: "items",
				EnvQueryTimeout:    "2s",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.MongoURI != "mongodb://db:27017" {
					t.Errorf("MongoURI = %s", cfg.MongoURI)
				}
				if cfg.MongoDatabase != "catalog" || cfg.MongoCollection != "items" {
					t.Errorf("Mongo namespace = %s.%s, want catalog.items", cfg.MongoDatabase, cfg.MongoCollection)
				}
				if cfg.QueryTimeout != 2*time.Second {
					t.Errorf("QueryTimeout = %v, want 2s", cfg.QueryTimeout)
				}
			},
		},
		{
			name:    "memory store driver",
			envVars: map[string]string{EnvStoreDriver: StoreDriverMemory, EnvMongoURI: ""},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.StoreDriver != StoreDriverMemory {
					t.Errorf("StoreDriver = %s, want memory", cfg.StoreDriver)
				}
			},
		},
		{
			name:    "auth scope all",
			envVars: map[string]string{EnvAuthScope: AuthScopeAll},
			validate: func(t *testing.T, cfg *Config) {
				if !cfg.ProtectReads() {
					t.Error("ProtectReads() = false, want true")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			clearEnvVars(t)
			t.Setenv(EnvAPIKey, testAPIKey)
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			// Act
			cfg, err := LoadWithEnvFile("")

			// Assert
			if err != nil {
				t.Fatalf("LoadWithEnvFile() returned unexpected error: %v", err)
			}
			tt.validate(t, cfg)
		})
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr error
	}{
		{"port zero", map[string]string{EnvServerPort: "0"}, ErrInvalidServerPort},
		{"port too large", map[string]string{EnvServerPort: "70000"}, ErrInvalidServerPort},
		{"bad log level", map[string]string{EnvLogLevel: "verbose"}, ErrInvalidLogLevel},
		{"negative shutdown timeout", map[string]string{EnvShutdownTimeout: "-1s"}, ErrInvalidShutdownTimeout},
		{"zero query timeout", map[string]string{EnvQueryTimeout: "0s"}, ErrInvalidQueryTimeout},
		{"unknown store driver", map[string]string{EnvStoreDriver: "postgres"}, ErrInvalidStoreDriver},
		{"unknown auth scope", map[string]string{EnvAuthScope: "reads"}, ErrInvalidAuthScope},
		{"missing api key", map[string]string{EnvAPIKey: ""}, ErrMissingAPIKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			clearEnvVars(t)
			t.Setenv(EnvAPIKey, testAPIKey)
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			// Act
			cfg, err := LoadWithEnvFile("")

			// Assert
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("LoadWithEnvFile() error = %v, want %v", err, tt.wantErr)
			}
			if cfg != nil {
				t.Error("LoadWithEnvFile() returned config alongside error")
			}
		})
	}
}

func TestLoad_ParseErrors(t *testing.T) {
	tests := []struct {
		name string
		env  string
		val  string
	}{
		{"invalid port", EnvServerPort, "abc"},
		{"invalid shutdown timeout", EnvShutdownTimeout, "soon"},
		{"invalid metrics flag", EnvMetricsEnabled, "maybe"},
		{"invalid query timeout", EnvQueryTimeout, "ten"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			clearEnvVars(t)
			t.Setenv(EnvAPIKey, testAPIKey)
			t.Setenv(tt.env, tt.val)

			// Act
			_, err := LoadWithEnvFile("")

			// Assert
			if err == nil {
				t.Errorf("LoadWithEnvFile() with %s=%s expected error, got nil", tt.env, tt.val)
			}
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	// Arrange
	clearEnvVars(t)
	t.Setenv(EnvServerPort, "4000")

	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	content := "APP_API_KEY=from-file\nAPP_SERVER_PORT=5000\nAPP_STORE_DRIVER=memory\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}

	// Act
	cfg, err := LoadWithEnvFile(envFile)

	// Assert
	if err != nil {
		t.Fatalf("LoadWithEnvFile() error = %v", err)
	}
	if cfg.APIKey != "from-file" {
		t.Errorf("APIKey = %s, want from-file", cfg.APIKey)
	}
	if cfg.ServerPort != 4000 {
		t.Errorf("ServerPort = %d, want 4000 (environment wins over file)", cfg.ServerPort)
	}
	if cfg.StoreDriver != StoreDriverMemory {
		t.Errorf("StoreDriver = %s, want memory", cfg.StoreDriver)
	}
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	// Arrange
	clearEnvVars(t)
	t.Setenv(EnvAPIKey, testAPIKey)
	t.Setenv(EnvEnvFile, filepath.Join(t.TempDir(), "absent.env"))

	// Act
	cfg, err := Load()

	// Assert
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIKey != testAPIKey {
		t.Errorf("APIKey = %s, want %s", cfg.APIKey, testAPIKey)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			ServerPort:      3000,
			Environment:     DefaultEnvironment,
			LogLevel:        "info",
			ShutdownTimeout: time.Second,
			StoreDriver:     StoreDriverMongo,
			MongoURI:        DefaultMongoURI,
			MongoDatabase:   DefaultMongoDatabase,
			MongoCollection: DefaultMongoCollection,
			QueryTimeout:    time.Second,
			APIKey:          testAPIKey,
			AuthScope:       AuthScopeWrites,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid config", func(_ *Config) {}, nil},
		{"memory driver needs no mongo settings", func(c *Config) {
			c.StoreDriver = StoreDriverMemory
			c.MongoURI = ""
		}, nil},
		{"mongo driver without URI", func(c *Config) { c.MongoURI = "" }, ErrInvalidMongoConfig},
		{"mongo driver without collection", func(c *Config) { c.MongoCollection = "" }, ErrInvalidMongoConfig},
		{"empty environment", func(c *Config) { c.Environment = "" }, ErrInvalidEnvironment},
		{"empty auth scope", func(c *Config) { c.AuthScope = "" }, ErrInvalidAuthScope},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			cfg := valid()
			tt.mutate(&cfg)

			// Act
			err := cfg.Validate()

			// Assert
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// clearEnvVars unsets every variable the loader reads. t.Setenv registers
// the restore before the unset so the process environment is put back
// after the test.
func clearEnvVars(t *testing.T) {
	t.Helper()
	envVars := []string{
		EnvServerPort,
		EnvEnvironment,
		EnvLogLevel,
		EnvShutdownTimeout,
		EnvMetricsEnabled,
		EnvStoreDriver,
		EnvMongoURI,
		EnvMongoDatabase,
		EnvMongoCollection,
		EnvQueryTimeout,
		EnvAPIKey,
		EnvAuthScope,
		EnvEnvFile,
	}
	for _, env := range envVars {
		t.Setenv(env, "")
		if err := os.Unsetenv(env); err != nil {
			t.Fatalf("failed to unset env var %s: %v", env, err)
		}
	}
}
