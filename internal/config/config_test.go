package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
[development]
host = "localhost"
port = 9000
environment = "development"
log_level = "debug"
log_to_stdout = true
profile_id = "dev-profile"
profile_name = "Dev"
timezone = "UTC"
storage_backend = "memory"
replay_cache_size = "2MB"
replay_expire_sec = 30
ingest_rate_limit_per_min = 10
cors_origins = ["http://localhost:8080"]

[production]
host = "0.0.0.0"
port = 8080
environment = "production"
log_level = "info"
logs_path = "/var/log/coachai/service.log"
sentry_enabled = true
metrics_port = 2113
storage_backend = "postgres"
postgres_host = "db"
postgres_port = "5432"
postgres_db = "coachai"
inference_url = "http://inference:8000/analyze"
inference_timeout_sec = 120
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Development(t *testing.T) {
	cfg, err := Load("dev", writeConfig(t, testConfig))
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.LogToStdout)
	assert.Equal(t, "dev-profile", cfg.ProfileID)
	assert.Equal(t, StorageMemory, cfg.StorageBackend)
	assert.Equal(t, 2000000, cfg.ReplayCacheSizeBytes())
	assert.Equal(t, 30, cfg.ReplayExpireSec)
	assert.Equal(t, 10, cfg.IngestRateLimitPerMin)
	assert.Equal(t, []string{"http://localhost:8080"}, cfg.CorsOrigins)
	assert.Equal(t, 2112, cfg.MetricsPort)
	assert.Equal(t, "UTC", cfg.Location().String())
}

func TestLoad_Production(t *testing.T) {
	cfg, err := Load("production", writeConfig(t, testConfig))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.True(t, cfg.SentryEnabled)
	assert.Equal(t, 2113, cfg.MetricsPort)
	assert.Equal(t, StoragePostgres, cfg.StorageBackend)
	assert.Equal(t, "coachai", cfg.PostgresDB)
	assert.Equal(t, "local", cfg.ProfileID)
	assert.Equal(t, 0, cfg.ReplayCacheSizeBytes())
	assert.Equal(t, 2*time.Minute, cfg.InferenceTimeout())
	assert.Equal(t, time.Local, cfg.Location())
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name          string
		env           string
		content       string
		expectedError string
	}{
		{
			name:          "unknown env",
			env:           "staging",
			content:       testConfig,
			expectedError: "unknown env: staging",
		},
		{
			name:          "missing section",
			env:           "production",
			content:       "[development]\nport = 1\nstorage_backend = \"memory\"\n",
			expectedError: "not found",
		},
		{
			name:          "malformed toml",
			env:           "dev",
			content:       "[development\nport = 1",
			expectedError: "decode config file",
		},
		{
			name:          "no port",
			env:           "dev",
			content:       "[development]\nstorage_backend = \"memory\"\n",
			expectedError: "port must be set",
		},
		{
			name:          "file backend without dir",
			env:           "dev",
			content:       "[development]\nport = 1\n",
			expectedError: "data_dir is required",
		},
		{
			name:          "unknown backend",
			env:           "dev",
			content:       "[development]\nport = 1\nstorage_backend = \"aerospike\"\n",
			expectedError: "unknown storage backend: aerospike",
		},
		{
			name:          "redis without host",
			env:           "dev",
			content:       "[development]\nport = 1\nstorage_backend = \"redis\"\n",
			expectedError: "redis_host and redis_port are required",
		},
		{
			name:          "bad timezone",
			env:           "dev",
			content:       "[development]\nport = 1\nstorage_backend = \"memory\"\ntimezone = \"Mars/Olympus\"\n",
			expectedError: "timezone",
		},
		{
			name:          "bad replay cache size",
			env:           "dev",
			content:       "[development]\nport = 1\nstorage_backend = \"memory\"\nreplay_cache_size = \"lots\"\n",
			expectedError: "replay_cache_size",
		},
		{
			name:          "negative replay expiry",
			env:           "dev",
			content:       "[development]\nport = 1\nstorage_backend = \"memory\"\nreplay_expire_sec = -1\n",
			expectedError: "replay_expire_sec",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load(tc.env, writeConfig(t, tc.content))
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tc.expectedError)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("dev", filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestExampleConfig(t *testing.T) {
	for _, env := range []string{"development", "production"} {
		_, err := Load(env, "../../config.toml")
		assert.NoError(t, err, env)
	}
}
