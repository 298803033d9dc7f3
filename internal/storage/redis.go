package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/2beens/coachai/internal/apperrors"
	"github.com/2beens/coachai/internal/telemetry/tracing"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel/attribute"
)

var (
	_ KV          = (*RedisKV)(nil)
	_ BatchWriter = (*RedisKV)(nil)
)

const DefaultRedisKeyPrefix = "coachai||"

type RedisKV struct {
	client    *redis.Client
	keyPrefix string
}

func NewRedisKV(client *redis.Client, keyPrefix string) *RedisKV {
	if keyPrefix == "" {
		keyPrefix = DefaultRedisKeyPrefix
	}
	return &RedisKV{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (r *RedisKV) redisKey(key string) string {
	return r.keyPrefix + key
}

func (r *RedisKV) Get(ctx context.Context, key string) (_ []byte, _ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "storage.redis.get")
	span.SetAttributes(attribute.String("key", key))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	value, err := r.client.Get(ctx, r.redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, apperrors.NewStorageError("get", key, err)
	}
	return value, true, nil
}

func (r *RedisKV) Set(ctx context.Context, key string, value []byte) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "storage.redis.set")
	span.SetAttributes(attribute.String("key", key))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := r.client.Set(ctx, r.redisKey(key), value, 0).Err(); err != nil {
		return apperrors.NewStorageError("set", key, err)
	}
	return nil
}

// SetMany writes all entries in one MULTI/EXEC transaction.
func (r *RedisKV) SetMany(ctx context.Context, entries []Entry) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "storage.redis.setmany")
	span.SetAttributes(attribute.Int("entries", len(entries)))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if _, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, e := range entries {
			pipe.Set(ctx, r.redisKey(e.Key), e.Value, 0)
		}
		return nil
	}); err != nil {
		return apperrors.NewStorageError("set many", entryKeys(entries), err)
	}
	return nil
}

func entryKeys(entries []Entry) string {
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.Key)
	}
	return strings.Join(keys, ",")
}
