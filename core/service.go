package core

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// RepositoryAccountService implements AccountService over a credential store
// and a token issuer.
type RepositoryAccountService struct {
	users  UserRepository
	issuer *TokenIssuer
}

func NewRepositoryAccountService(users UserRepository, issuer *TokenIssuer) *RepositoryAccountService {
	return &RepositoryAccountService{users: users, issuer: issuer}
}

// Register creates a new user with a hashed password. The session token stays
// unset until the first login.
func (s *RepositoryAccountService) Register(ctx context.Context, username, password, email string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, BadRequest("username and password are required")
	}

	existing, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, DbErr("failed to look up user", err)
	}
	if existing != nil {
		return nil, BadRequest("user already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, DbErr("failed to hash password", err)
	}

	u, err := s.users.Create(ctx, username, string(hash), strings.TrimSpace(email), RoleUser)
	if err != nil {
		return nil, DbErr("failed to create user", err)
	}
	return u, nil
}

// Login validates the password, lazily issues or reuses the session token, and
// flips the authentication flag on.
func (s *RepositoryAccountService) Login(ctx context.Context, username, password string) (*User, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, AuthErr("please provide username and password")
	}

	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, DbErr("failed to look up user", err)
	}
	if u == nil {
		return nil, AuthErr("user not found")
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, AuthErr("password is incorrect")
	}

	if _, err := s.issuer.IssueOrReuse(ctx, u); err != nil {
		return nil, err
	}

	if err := s.users.SetAuthenticated(ctx, u.ID, true); err != nil {
		return nil, DbErr("failed to update session flag", err)
	}
	u.IsAuthenticated = true
	return u, nil
}

// Logout clears the authentication flag. The token itself is kept so a later
// login reuses it.
func (s *RepositoryAccountService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return AuthErr("missing token")
	}
	u, err := s.users.FindByToken(ctx, token)
	if err != nil {
		return DbErr("failed to look up token", err)
	}
	if u == nil {
		return AuthErr("invalid token")
	}
	if err := s.users.SetAuthenticated(ctx, u.ID, false); err != nil {
		return DbErr("failed to update session flag", err)
	}
	return nil
}
