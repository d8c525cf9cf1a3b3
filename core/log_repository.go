package core

import (
	"context"
	"time"
)

// RequestLogEntry records one successfully gated request. Append-only.
type RequestLogEntry struct {
	Username  string    `json:"username"`
	Endpoint  string    `json:"endpoint"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrorLogEntry records one failed request anywhere in the pipeline. Append-only.
type ErrorLogEntry struct {
	Endpoint  string    `json:"endpoint"`
	Status    int       `json:"status"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// RequestLogRepository persists and reads the request log. Reads are always
// most-recent-first; entries are never mutated or deleted.
type RequestLogRepository interface {
	Append(ctx context.Context, entry RequestLogEntry) error
	Recent(ctx context.Context, since *time.Time, limit int) ([]RequestLogEntry, error)
	Count(ctx context.Context) (int64, error)
}

// ErrorLogRepository persists and reads the error log.
type ErrorLogRepository interface {
	Append(ctx context.Context, entry ErrorLogEntry) error
	Recent(ctx context.Context, limit int) ([]ErrorLogEntry, error)
	Count(ctx context.Context) (int64, error)
}

type PgRequestLogRepository struct {
	db DB
}

func NewPgRequestLogRepository(db DB) *PgRequestLogRepository {
	return &PgRequestLogRepository{db: db}
}

func (r *PgRequestLogRepository) Append(ctx context.Context, entry RequestLogEntry) error {
	const q = `INSERT INTO request_logs (username, endpoint) VALUES ($1,$2)`
	_, err := r.db.Exec(ctx, q, entry.Username, entry.Endpoint)
	return err
}

// Recent returns up to limit entries ordered newest first. A nil since reads
// the whole log; otherwise only entries at or after since are returned.
func (r *PgRequestLogRepository) Recent(ctx context.Context, since *time.Time, limit int) ([]RequestLogEntry, error) {
	if limit <= 0 {
		limit = 1000
	}
	var (
		rowsQ = `SELECT username, endpoint, created_at FROM request_logs ORDER BY created_at DESC, id DESC LIMIT $1`
		args  = []any{limit}
	)
	if since != nil {
		rowsQ = `SELECT username, endpoint, created_at FROM request_logs WHERE created_at >= $1 ORDER BY created_at DESC, id DESC LIMIT $2`
		args = []any{*since, limit}
	}
	rows, err := r.db.Query(ctx, rowsQ, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RequestLogEntry
	for rows.Next() {
		var e RequestLogEntry
		if err := rows.Scan(&e.Username, &e.Endpoint, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *PgRequestLogRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM request_logs`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

type PgErrorLogRepository struct {
	db DB
}

func NewPgErrorLogRepository(db DB) *PgErrorLogRepository {
	return &PgErrorLogRepository{db: db}
}

func (r *PgErrorLogRepository) Append(ctx context.Context, entry ErrorLogEntry) error {
	const q = `INSERT INTO error_logs (endpoint, status, message) VALUES ($1,$2,$3)`
	_, err := r.db.Exec(ctx, q, entry.Endpoint, entry.Status, entry.Message)
	return err
}

func (r *PgErrorLogRepository) Recent(ctx context.Context, limit int) ([]ErrorLogEntry, error) {
	if limit <= 0 {
		limit = 1000
	}
	const q = `SELECT endpoint, status, message, created_at FROM error_logs ORDER BY created_at DESC, id DESC LIMIT $1`
	rows, err := r.db.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ErrorLogEntry
	for rows.Next() {
		var e ErrorLogEntry
		if err := rows.Scan(&e.Endpoint, &e.Status, &e.Message, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *PgErrorLogRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM error_logs`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
