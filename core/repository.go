package core

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// UserRepository defines credential-store operations.
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByToken(ctx context.Context, token string) (*User, error)
	FindByUsernames(ctx context.Context, usernames []string) ([]User, error)
	Create(ctx context.Context, username, passwordHash, email string, role Role) (*User, error)
	UpdateToken(ctx context.Context, id int64, token string) error
	SetAuthenticated(ctx context.Context, id int64, authenticated bool) error
	HasAdmin(ctx context.Context) (bool, error)
}

// PgUserRepository implements UserRepository on Postgres.
type PgUserRepository struct {
	db DB
}

func NewPgUserRepository(db DB) *PgUserRepository {
	return &PgUserRepository{db: db}
}

const userColumns = `id, username, password_hash, email, role, COALESCE(token,''), is_authenticated, created_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.Role, &u.Token, &u.IsAuthenticated, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PgUserRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE username=$1`
	u, err := scanUser(r.db.QueryRow(ctx, q, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

func (r *PgUserRepository) FindByToken(ctx context.Context, token string) (*User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE token=$1`
	u, err := scanUser(r.db.QueryRow(ctx, q, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

// FindByUsernames resolves a set of usernames back to full records. Unknown
// names are simply absent from the result.
func (r *PgUserRepository) FindByUsernames(ctx context.Context, usernames []string) ([]User, error) {
	if len(usernames) == 0 {
		return nil, nil
	}
	const q = `SELECT ` + userColumns + ` FROM users WHERE username = ANY($1)`
	rows, err := r.db.Query(ctx, q, usernames)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (r *PgUserRepository) Create(ctx context.Context, username, passwordHash, email string, role Role) (*User, error) {
	const q = `INSERT INTO users (username, password_hash, email, role, is_authenticated)
VALUES ($1,$2,$3,$4,FALSE) RETURNING id, created_at`
	u := User{Username: username, PasswordHash: passwordHash, Email: email, Role: role}
	if err := r.db.QueryRow(ctx, q, username, passwordHash, email, string(role)).Scan(&u.ID, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PgUserRepository) UpdateToken(ctx context.Context, id int64, token string) error {
	const q = `UPDATE users SET token=$1 WHERE id=$2`
	ct, err := r.db.Exec(ctx, q, token, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errors.New("user not found")
	}
	return nil
}

func (r *PgUserRepository) SetAuthenticated(ctx context.Context, id int64, authenticated bool) error {
	const q = `UPDATE users SET is_authenticated=$1 WHERE id=$2`
	ct, err := r.db.Exec(ctx, q, authenticated, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errors.New("user not found")
	}
	return nil
}

func (r *PgUserRepository) HasAdmin(ctx context.Context) (bool, error) {
	const q = `SELECT 1 FROM users WHERE role='admin' LIMIT 1`
	var one int
	if err := r.db.QueryRow(ctx, q).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
