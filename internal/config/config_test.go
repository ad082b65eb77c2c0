package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:                     "8000",
		Env:                      "development",
		DBDriver:                 DriverPostgres,
		DBHost:                   "localhost",
		DBPort:                   "5432",
		DBUser:                   "postgres",
		DBPassword:               "secure-password",
		DBName:                   "postboard",
		DBSSLMode:                "disable",
		DBMaxOpenConns:           25,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 5,
		DBSchemaMode:             "hybrid",
		JWTSecret:                "secure-secret-at-least-32-chars-long",
		JWTAlgorithm:             "HS256",
		AccessTokenExpireMinutes: 30,
		BcryptCost:               10,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"valid development config", func(*Config) {}, false},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"unsupported algorithm", func(c *Config) { c.JWTAlgorithm = "RS256" }, true},
		{"HS512 algorithm", func(c *Config) { c.JWTAlgorithm = "HS512" }, false},
		{"zero token ttl", func(c *Config) { c.AccessTokenExpireMinutes = 0 }, true},
		{"bcrypt cost too low", func(c *Config) { c.BcryptCost = 2 }, true},
		{"negative hash concurrency", func(c *Config) { c.HashConcurrency = -1 }, true},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }, true},
		{"missing db host", func(c *Config) { c.DBHost = "" }, true},
		{"sqlite with sql schema mode", func(c *Config) { c.DBDriver = DriverSQLite; c.DBSchemaMode = "sql" }, true},
		{"sqlite with auto schema mode", func(c *Config) { c.DBDriver = DriverSQLite; c.DBSchemaMode = "auto" }, false},
		{"unknown schema mode", func(c *Config) { c.DBSchemaMode = "yolo" }, true},
		{"zero pool size", func(c *Config) { c.DBMaxOpenConns = 0 }, true},
		{"bad tracing exporter", func(c *Config) { c.TracingEnabled = true; c.TracingExporter = "zipkin" }, true},
		{"bad tracing ratio", func(c *Config) { c.TracingEnabled = true; c.TracingExporter = "otlp"; c.TracingSampleRatio = 2 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateProduction(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"strict production config", func(*Config) {}, false},
		{"default secret", func(c *Config) { c.JWTSecret = defaultJWTSecret }, true},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }, true},
		{"default db password", func(c *Config) { c.DBPassword = "password" }, true},
		{"ssl disabled", func(c *Config) { c.DBSSLMode = "disable" }, true},
		{"sqlite driver", func(c *Config) { c.DBDriver = DriverSQLite }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = "production"
			c.DBSSLMode = "require"
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_EnvOverridesAndNormalization(t *testing.T) {
	defer viper.Reset()

	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("JWT_ALGORITHM", "hs384")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "45")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "test", c.Env)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "HS384", c.JWTAlgorithm)
	assert.Equal(t, 45, c.AccessTokenExpireMinutes)
	assert.Equal(t, "8000", c.Port)
	assert.Equal(t, 25, c.DBMaxOpenConns)
}

func TestLoadConfig_InvalidValueIsFatal(t *testing.T) {
	defer viper.Reset()

	t.Setenv("APP_ENV", "test")
	t.Setenv("JWT_ALGORITHM", "none")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	defer viper.Reset()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("FEATURE_FLAGS=case_insensitive_search=on\nPORT=9000\n"), 0o600))
	t.Chdir(dir)

	t.Setenv("APP_ENV", "test")
	t.Setenv("PORT", "7000")
	// Registered for cleanup, then removed so .env can supply it.
	t.Setenv("FEATURE_FLAGS", "")
	require.NoError(t, os.Unsetenv("FEATURE_FLAGS"))

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "case_insensitive_search=on", c.FeatureFlags)
	assert.Equal(t, "7000", c.Port, "real environment wins over .env")
}
