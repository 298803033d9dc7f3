package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/dustin/go-humanize"
)

const (
	StorageFile     = "file"
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

type Config struct {
	Host        string
	Port        int
	Environment string `toml:"environment"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`
	// metrics
	MetricsHost string `toml:"metrics_host"`
	MetricsPort int    `toml:"metrics_port"`
	// profile
	ProfileID   string `toml:"profile_id"`
	ProfileName string `toml:"profile_name"`
	Timezone    string `toml:"timezone"`
	// storage
	StorageBackend string `toml:"storage_backend"`
	DataDir        string `toml:"data_dir"`
	// ingestion replay
	ReplayCacheSize string `toml:"replay_cache_size"`
	ReplayExpireSec int    `toml:"replay_expire_sec"`
	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`
	// postgres
	PostgresHost string `toml:"postgres_host"`
	PostgresPort string `toml:"postgres_port"`
	PostgresDB   string `toml:"postgres_db"`
	PostgresUser string `toml:"postgres_user"`
	// inference
	InferenceURL        string `toml:"inference_url"`
	InferenceTimeoutSec int    `toml:"inference_timeout_sec"`
	// http
	IngestRateLimitPerMin int      `toml:"ingest_rate_limit_per_min"`
	CorsOrigins           []string `toml:"cors_origins"`

	location             *time.Location
	replayCacheSizeBytes int
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

// Load decodes the TOML file at path and returns the validated section of env.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config for env [%s] not found in %s", env, path)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid [%s] config: %w", env, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 {
		return errors.New("port must be set")
	}
	if c.MetricsPort <= 0 {
		c.MetricsPort = 2112
	}
	if c.ProfileID == "" {
		c.ProfileID = "local"
	}

	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	c.location = loc

	if c.ReplayCacheSize != "" {
		size, err := humanize.ParseBytes(c.ReplayCacheSize)
		if err != nil {
			return fmt.Errorf("replay_cache_size: %w", err)
		}
		c.replayCacheSizeBytes = int(size)
	}
	if c.ReplayExpireSec < 0 {
		return errors.New("replay_expire_sec must not be negative")
	}

	switch c.StorageBackend {
	case "", StorageFile:
		c.StorageBackend = StorageFile
		if c.DataDir == "" {
			return errors.New("data_dir is required for the file storage backend")
		}
	case StorageMemory:
	case StorageRedis:
		if c.RedisHost == "" || c.RedisPort == "" {
			return errors.New("redis_host and redis_port are required for the redis storage backend")
		}
	case StoragePostgres:
		if c.PostgresHost == "" || c.PostgresPort == "" || c.PostgresDB == "" {
			return errors.New("postgres_host, postgres_port and postgres_db are required for the postgres storage backend")
		}
	default:
		return fmt.Errorf("unknown storage backend: %s", c.StorageBackend)
	}

	if c.IngestRateLimitPerMin < 0 {
		return errors.New("ingest_rate_limit_per_min must not be negative")
	}
	if c.InferenceTimeoutSec < 0 {
		return errors.New("inference_timeout_sec must not be negative")
	}

	return nil
}

// Location is the timezone calendar days are computed in.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// ReplayCacheSizeBytes is the parsed replay_cache_size, 0 when ingestion replay is disabled.
func (c *Config) ReplayCacheSizeBytes() int {
	return c.replayCacheSizeBytes
}

func (c *Config) InferenceTimeout() time.Duration {
	return time.Duration(c.InferenceTimeoutSec) * time.Second
}
