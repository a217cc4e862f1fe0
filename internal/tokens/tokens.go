package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrMissingSubject = errors.New("tokens: access token has no sub claim")

// Claims is the subset of platform access-token claims the companion relies on.
type Claims struct {
	jwt.RegisteredClaims
	Email        string                 `json:"email,omitempty"`
	Role         string                 `json:"role,omitempty"`
	UserMetadata map[string]interface{} `json:"user_metadata,omitempty"`
}

// Expiry returns the exp claim, or the zero time when absent.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// DisplayName reads the display name the user chose at sign-up.
func (c *Claims) DisplayName() string {
	for _, k := range []string{"display_name", "full_name", "name"} {
		if v, ok := c.UserMetadata[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// ParseUnverified decodes the claims without checking the signature.
func ParseUnverified(raw string) (*Claims, error) {
	var c Claims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &c); err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}
	if c.Subject == "" {
		return nil, ErrMissingSubject
	}
	return &c, nil
}

// VerifyHS256 checks the signature with the project's shared secret.
// Time-based claims are not validated: an expired token is still returned so
// the caller can decide to refresh it.
func VerifyHS256(raw string, secret []byte) (*Claims, error) {
	var c Claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, fmt.Errorf("verify access token: %w", err)
	}
	if c.Subject == "" {
		return nil, ErrMissingSubject
	}
	return &c, nil
}
