package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable the tests touch. Viper ignores empty
// environment values, so blank behaves as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"OPENSHIP_APP_NAME",
		"OPENSHIP_APP_ENV",
		"OPENSHIP_APP_PORT",
		"OPENSHIP_APP_PUBLIC_URL",
		"OPENSHIP_DATABASE_HOST",
		"OPENSHIP_DATABASE_PORT",
		"OPENSHIP_DATABASE_USER",
		"OPENSHIP_DATABASE_PASSWORD",
		"OPENSHIP_DATABASE_DBNAME",
		"OPENSHIP_DATABASE_SSLMODE",
		"OPENSHIP_DATABASE_MAX_OPEN_CONNS",
		"OPENSHIP_DATABASE_MAX_IDLE_CONNS",
		"OPENSHIP_JWT_SECRET",
		"OPENSHIP_PLACEMENT_MAX_CONCURRENCY",
		"OPENSHIP_PLACEMENT_LOCK_TTL",
		"OPENSHIP_STORAGE_ENABLED",
		"OPENSHIP_STORAGE_BUCKET",
		"OPENSHIP_HTTP_CORS_ALLOW_ORIGINS",
		"OPENSHIP_TELEMETRY_SAMPLING_RATIO",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "openship", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "http://localhost:8080", cfg.App.PublicURL)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "openship", cfg.Database.DBName)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, 4, cfg.Placement.MaxConcurrency)
		assert.Equal(t, 2*time.Minute, cfg.Placement.LockTTL)
		assert.Equal(t, 24*time.Hour, cfg.Webhook.IdempotencyTTL)
		assert.Equal(t, 10*time.Minute, cfg.OAuth.StateTTL)
		assert.Equal(t, 30*time.Second, cfg.Adapter.RequestTimeout)
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
		assert.False(t, cfg.Storage.Enabled)
	})

	t.Run("loads values from environment variables with OPENSHIP prefix", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("OPENSHIP_APP_NAME", "test-app")
		t.Setenv("OPENSHIP_APP_ENV", "testing")
		t.Setenv("OPENSHIP_APP_PORT", "9000")
		t.Setenv("OPENSHIP_APP_PUBLIC_URL", "https://hooks.example.com/")
		t.Setenv("OPENSHIP_DATABASE_HOST", "testdb.local")
		t.Setenv("OPENSHIP_DATABASE_PORT", "5433")
		t.Setenv("OPENSHIP_DATABASE_USER", "testuser")
		t.Setenv("OPENSHIP_DATABASE_PASSWORD", "testpass")
		t.Setenv("OPENSHIP_DATABASE_DBNAME", "testdb")
		t.Setenv("OPENSHIP_DATABASE_SSLMODE", "require")
		t.Setenv("OPENSHIP_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("OPENSHIP_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("OPENSHIP_PLACEMENT_MAX_CONCURRENCY", "8")
		t.Setenv("OPENSHIP_PLACEMENT_LOCK_TTL", "30s")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "testing", cfg.App.Env)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "https://hooks.example.com", cfg.App.PublicURL)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "testuser", cfg.Database.User)
		assert.Equal(t, "testpass", cfg.Database.Password)
		assert.Equal(t, "testdb", cfg.Database.DBName)
		assert.Equal(t, "require", cfg.Database.SSLMode)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.Equal(t, 8, cfg.Placement.MaxConcurrency)
		assert.Equal(t, 30*time.Second, cfg.Placement.LockTTL)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("OPENSHIP_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("OPENSHIP_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("validates MaxIdleConns cannot be negative", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("OPENSHIP_DATABASE_MAX_IDLE_CONNS", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns cannot be negative")
	})

	t.Run("requires a bucket when storage is enabled", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("OPENSHIP_STORAGE_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.bucket")
	})

	t.Run("rejects sampling ratio out of range", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("OPENSHIP_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		clearEnv(t)
		t.Setenv("OPENSHIP_APP_ENV", "production")
		t.Setenv("OPENSHIP_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		t.Setenv("OPENSHIP_DATABASE_PASSWORD", "secure-password")
		t.Setenv("OPENSHIP_DATABASE_SSLMODE", "require")
	}

	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "requires jwt.secret",
			env:     map[string]string{"OPENSHIP_JWT_SECRET": ""},
			wantErr: "jwt.secret is required in production",
		},
		{
			name:    "requires jwt.secret at least 32 characters",
			env:     map[string]string{"OPENSHIP_JWT_SECRET": "short-secret"},
			wantErr: "jwt.secret must be at least 32 characters",
		},
		{
			name:    "requires database.password",
			env:     map[string]string{"OPENSHIP_DATABASE_PASSWORD": ""},
			wantErr: "database.password is required in production",
		},
		{
			name:    "requires SSL enabled",
			env:     map[string]string{"OPENSHIP_DATABASE_SSLMODE": "disable"},
			wantErr: "database.sslmode cannot be 'disable' in production",
		},
		{
			name:    "rejects wildcard CORS origin",
			env:     map[string]string{"OPENSHIP_HTTP_CORS_ALLOW_ORIGINS": "*"},
			wantErr: "cors_allow_origins cannot be '*'",
		},
		{
			name: "passes with valid production config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setValidProductionBase(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "production", cfg.App.Env)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost")
		assert.Contains(t, dsn, "5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}
