package auth

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrNoVerifier   = errors.New("authentication not configured")
)

// TokenVerifier defines the interface for JWT token verification
type TokenVerifier interface {
	Validate(tokenString string) (*Claims, error)
	Close() error
}

// Claims is the identity extracted from a verified token
type Claims struct {
	UserID       string       `json:"sub"`
	Email        string       `json:"email,omitempty"`
	Name         string       `json:"name,omitempty"`
	Role         string       `json:"role,omitempty"`
	UserMetadata UserMetadata `json:"user_metadata,omitempty"`
	jwt.RegisteredClaims
}

// UserMetadata is the profile block hosted auth providers embed in tokens
type UserMetadata struct {
	FullName string `json:"full_name,omitempty"`
	Name     string `json:"name,omitempty"`
}

// DisplayName prefers the top-level name claim over user metadata.
func (c *Claims) DisplayName() string {
	switch {
	case c.Name != "":
		return c.Name
	case c.UserMetadata.FullName != "":
		return c.UserMetadata.FullName
	default:
		return c.UserMetadata.Name
	}
}

// Chain tries each verifier in order and accepts the first success.
type Chain []TokenVerifier

func (ch Chain) Validate(tokenString string) (*Claims, error) {
	if len(ch) == 0 {
		return nil, ErrNoVerifier
	}
	var errs []error
	for _, v := range ch {
		claims, err := v.Validate(tokenString)
		if err == nil {
			return claims, nil
		}
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}

func (ch Chain) Close() error {
	var errs []error
	for _, v := range ch {
		errs = append(errs, v.Close())
	}
	return errors.Join(errs...)
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(parts[1]), nil
}
