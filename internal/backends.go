package internal

import (
	"context"
	"fmt"
	"net"

	"github.com/2beens/coachai/internal/config"
	"github.com/2beens/coachai/internal/db"
	"github.com/2beens/coachai/internal/storage"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// Backends holds the opened storage and the clients behind it.
// RedisClient and DBPool are nil when the config does not need them.
type Backends struct {
	KV          storage.KV
	RedisClient *redis.Client
	DBPool      *pgxpool.Pool
}

type OpenBackendsParams struct {
	Config           *config.Config
	RedisPassword    string
	PostgresPassword string
	TracingEnabled   bool
	// WithRateLimiter opens redis for request rate limiting even when
	// it is not the storage backend.
	WithRateLimiter bool
}

func OpenBackends(ctx context.Context, params OpenBackendsParams) (_ *Backends, err error) {
	cfg := params.Config
	b := &Backends{}
	defer func() {
		if err != nil {
			b.Close()
		}
	}()

	needsRedis := cfg.StorageBackend == config.StorageRedis ||
		(params.WithRateLimiter && cfg.RedisHost != "" && cfg.IngestRateLimitPerMin > 0)
	if needsRedis {
		b.RedisClient = redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
			Password: params.RedisPassword,
			DB:       0, // use default DB
		})

		rdbStatus := b.RedisClient.Ping(ctx)
		if err := rdbStatus.Err(); err != nil {
			if cfg.StorageBackend == config.StorageRedis {
				return nil, fmt.Errorf("ping redis: %w", err)
			}
			log.Errorf("--> failed to ping redis: %s", err)
		} else {
			log.Debugf("redis ping: %s", rdbStatus.Val())
		}
	}

	var kv storage.KV
	switch cfg.StorageBackend {
	case config.StorageMemory:
		log.Warnln("using in-memory storage, nothing will survive a restart")
		kv = storage.NewMemoryKV()
	case config.StorageRedis:
		kv = storage.NewRedisKV(b.RedisClient, "")
	case config.StoragePostgres:
		b.DBPool, err = db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDB,
			DBUser:         cfg.PostgresUser,
			DBPassword:     params.PostgresPassword,
			TracingEnabled: params.TracingEnabled,
		})
		if err != nil {
			return nil, fmt.Errorf("new db pool: %w", err)
		}
		pgKV := storage.NewPostgresKV(b.DBPool, "")
		if err := pgKV.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure postgres schema: %w", err)
		}
		kv = pgKV
	default:
		fileKV, err := storage.NewFileKV(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("open data dir: %w", err)
		}
		kv = fileKV
	}

	b.KV = kv
	return b, nil
}

func (b *Backends) Close() {
	if b.RedisClient != nil {
		if err := b.RedisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if b.DBPool != nil {
		log.Debugln("closing db pool ...")
		b.DBPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}
}
