package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestAppConfigFromEnv_Defaults(t *testing.T) {
	cfg, err := AppConfigFromEnv(envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "memory", cfg.DatabaseType)
	assert.Equal(t, 800*time.Millisecond, cfg.CalcDelay)
	assert.Equal(t, 3, cfg.SubmitAttempts)
	assert.Equal(t, 7*24*time.Hour, cfg.DraftTTL)
}

func TestAppConfigFromEnv_Overrides(t *testing.T) {
	cfg, err := AppConfigFromEnv(envMap(map[string]string{
		"QUOTEGO_PORT":    "9090",
		"DATABASE_TYPE":   "SQLite",
		"DATABASE_URL":    "file:quotes.db",
		"REDIS_URL":       "redis://localhost:6379/0",
		"JWT_SECRET":      "s3cret",
		"CALC_DELAY":      "2s",
		"SUBMIT_ATTEMPTS": "5",
		"DRAFT_TTL":       "48h",
	}))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DatabaseType)
	assert.Equal(t, "file:quotes.db", cfg.DatabaseURL)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, 2*time.Second, cfg.CalcDelay)
	assert.Equal(t, 5, cfg.SubmitAttempts)
	assert.Equal(t, 48*time.Hour, cfg.DraftTTL)
}

func TestAppConfigFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"bad delay", map[string]string{"CALC_DELAY": "soon"}, "CALC_DELAY"},
		{"bad attempts", map[string]string{"SUBMIT_ATTEMPTS": "many"}, "SUBMIT_ATTEMPTS"},
		{"zero attempts", map[string]string{"SUBMIT_ATTEMPTS": "0"}, "at least 1"},
		{"unknown database", map[string]string{"DATABASE_TYPE": "oracle"}, "unknown DATABASE_TYPE"},
		{"postgres without url", map[string]string{"DATABASE_TYPE": "postgres"}, "DATABASE_URL is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AppConfigFromEnv(envMap(tt.env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadAppConfig_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("QUOTEGO_TEST_ONLY_PORT=1\nSUBMIT_ATTEMPTS=4\n"), 0644))
	t.Setenv("SUBMIT_ATTEMPTS", "")
	os.Unsetenv("SUBMIT_ATTEMPTS")

	cfg, err := LoadAppConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.SubmitAttempts)
	assert.Equal(t, "1", os.Getenv("QUOTEGO_TEST_ONLY_PORT"))
	os.Unsetenv("QUOTEGO_TEST_ONLY_PORT")

	_, err = LoadAppConfig(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err, "a missing env file is ignored")
}
