package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/coachai/internal/apperrors"
	"github.com/2beens/coachai/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var (
	_ KV          = (*PostgresKV)(nil)
	_ BatchWriter = (*PostgresKV)(nil)
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS kv_store
(
    key        VARCHAR PRIMARY KEY,
    value      BYTEA       NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

const upsertSQL = `
INSERT INTO kv_store (key, value, updated_at)
	VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE
	SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at;`

type PostgresKV struct {
	db        *pgxpool.Pool
	keyPrefix string
}

func NewPostgresKV(db *pgxpool.Pool, keyPrefix string) *PostgresKV {
	return &PostgresKV{
		db:        db,
		keyPrefix: keyPrefix,
	}
}

// EnsureSchema creates the backing table if it does not exist yet.
func (p *PostgresKV) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create kv_store table: %w", err)
	}
	return nil
}

func (p *PostgresKV) Get(ctx context.Context, key string) (_ []byte, _ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "storage.postgres.get")
	span.SetAttributes(attribute.String("key", key))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var value []byte
	err = p.db.QueryRow(
		ctx,
		`SELECT value FROM kv_store WHERE key = $1;`,
		p.keyPrefix+key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, apperrors.NewStorageError("get", key, err)
	}

	return value, true, nil
}

func (p *PostgresKV) Set(ctx context.Context, key string, value []byte) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "storage.postgres.set")
	span.SetAttributes(attribute.String("key", key))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if _, err := p.db.Exec(ctx, upsertSQL, p.keyPrefix+key, value); err != nil {
		return apperrors.NewStorageError("set", key, err)
	}
	return nil
}

// SetMany upserts all entries inside one transaction.
func (p *PostgresKV) SetMany(ctx context.Context, entries []Entry) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "storage.postgres.setmany")
	span.SetAttributes(attribute.Int("entries", len(entries)))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := pgx.BeginFunc(ctx, p.db, func(tx pgx.Tx) error {
		for _, e := range entries {
			if _, err := tx.Exec(ctx, upsertSQL, p.keyPrefix+e.Key, e.Value); err != nil {
				return fmt.Errorf("upsert [%s]: %w", e.Key, err)
			}
		}
		return nil
	}); err != nil {
		return apperrors.NewStorageError("set many", entryKeys(entries), err)
	}
	return nil
}
