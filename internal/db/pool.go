package db

import (
	"context"
	"fmt"
	"net/url"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultDBUser = "postgres"
	// one profile, a handful of writers at most
	maxPoolConns = 4
)

type NewDBPoolParams struct {
	DBHost         string
	DBPort         string
	DBName         string
	DBUser         string
	DBPassword     string
	TracingEnabled bool
}

func connString(params NewDBPoolParams) string {
	user := params.DBUser
	if user == "" {
		user = defaultDBUser
	}
	u := url.URL{
		Scheme:   "postgres",
		Host:     fmt.Sprintf("%s:%s", params.DBHost, params.DBPort),
		Path:     "/" + params.DBName,
		RawQuery: "sslmode=disable",
	}
	if params.DBPassword != "" {
		u.User = url.UserPassword(user, params.DBPassword)
	} else {
		u.User = url.User(user)
	}
	return u.String()
}

func NewDBPool(ctx context.Context, params NewDBPoolParams) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(connString(params))
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}
	poolConfig.MaxConns = maxPoolConns

	if params.TracingEnabled {
		poolConfig.ConnConfig.Tracer = otelpgx.NewTracer()
	}

	db, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return db, nil
}
