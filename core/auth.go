package core

import (
	"context"
	"time"
)

// Role is the access tier of a user. Comparison is always strict equality
// against one of the two constants.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is a credential-store row. The password hash is never serialized.
type User struct {
	ID              int64     `json:"id"`
	Username        string    `json:"username"`
	PasswordHash    string    `json:"-"`
	Email           string    `json:"email"`
	Role            Role      `json:"role"`
	Token           string    `json:"token,omitempty"`
	IsAuthenticated bool      `json:"is_authenticated"`
	CreatedAt       time.Time `json:"created_at"`
}

// AccountService defines the account lifecycle used by the auth server.
type AccountService interface {
	Register(ctx context.Context, username, password, email string) (*User, error)
	Login(ctx context.Context, username, password string) (*User, error)
	Logout(ctx context.Context, token string) error
}
