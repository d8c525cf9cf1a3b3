package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenIssuer signs durable session tokens and binds them to a user record.
// Tokens carry no expiry; a token stays valid for the lifetime of the account.
type TokenIssuer struct {
	secret []byte
	users  UserRepository
}

// SessionClaims are the signed contents of a session token. The jti makes
// every issued token unique even across users created in the same instant.
type SessionClaims struct {
	UserID   int64  `json:"uid"`
	Username string `json:"sub"`
	jwt.RegisteredClaims
}

func NewTokenIssuer(secret string, users UserRepository) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), users: users}
}

// IssueOrReuse returns the user's existing token unchanged, or signs a new one
// and persists it before returning. The token is not valid until persisted.
func (t *TokenIssuer) IssueOrReuse(ctx context.Context, user *User) (string, error) {
	if user == nil {
		return "", errors.New("nil user")
	}
	if user.Token != "" {
		return user.Token, nil
	}
	if len(t.secret) == 0 {
		return "", errors.New("token secret is empty")
	}

	claims := SessionClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(nowFunc()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	if err := t.users.UpdateToken(ctx, user.ID, token); err != nil {
		return "", DbErr("failed to persist token", err)
	}
	user.Token = token
	return token, nil
}

// Verify checks the signature and returns the embedded claims.
func (t *TokenIssuer) Verify(tokenString string) (*SessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
