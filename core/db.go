package core

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the subset of pgxpool.Pool the repositories use. Tests substitute a
// pgxmock pool through the same interface.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Connect opens a pgx connection pool with conservative defaults.
//
// Expected schema:
//
//	users(id BIGSERIAL PRIMARY KEY, username TEXT UNIQUE NOT NULL,
//	      password_hash TEXT NOT NULL, email TEXT NOT NULL DEFAULT '',
//	      role TEXT NOT NULL DEFAULT 'user', token TEXT,
//	      is_authenticated BOOLEAN NOT NULL DEFAULT FALSE,
//	      created_at TIMESTAMPTZ NOT NULL DEFAULT NOW())
//	records(id BIGINT PRIMARY KEY, name TEXT NOT NULL,
//	      category TEXT NOT NULL DEFAULT '', attributes JSONB NOT NULL DEFAULT '{}')
//	request_logs(id BIGSERIAL PRIMARY KEY, username TEXT NOT NULL,
//	      endpoint TEXT NOT NULL, created_at TIMESTAMPTZ NOT NULL DEFAULT NOW())
//	error_logs(id BIGSERIAL PRIMARY KEY, endpoint TEXT NOT NULL,
//	      status INT NOT NULL, message TEXT NOT NULL DEFAULT '',
//	      created_at TIMESTAMPTZ NOT NULL DEFAULT NOW())
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, errors.New("empty database dsn")
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	// Reasonable defaults for small services; callers can override if needed.
	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}

	// Validate connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}
