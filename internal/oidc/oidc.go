package oidc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/linguaflow/linguaflow/client/go-companion/internal/tokens"
	"github.com/linguaflow/linguaflow/client/go-companion/pkg/logger"
)

// Verifier checks a platform access token and returns its claims.
// Expiry is not enforced; callers compare Claims.Expiry themselves.
type Verifier interface {
	Verify(ctx context.Context, raw string) (*tokens.Claims, error)
}

// JWKSVerifier validates signatures against the platform's published key set.
type JWKSVerifier struct {
	keys *oidc.RemoteKeySet
}

// NewJWKSVerifier creates a verifier backed by the JWKS document at jwksURL.
// Keys are fetched lazily and cached by go-oidc.
func NewJWKSVerifier(ctx context.Context, jwksURL string) *JWKSVerifier {
	return &JWKSVerifier{keys: oidc.NewRemoteKeySet(ctx, jwksURL)}
}

func (v *JWKSVerifier) Verify(ctx context.Context, raw string) (*tokens.Claims, error) {
	payload, err := v.keys.VerifySignature(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("verify access token: %w", err)
	}
	var c tokens.Claims
	if err := json.Unmarshal(payload, &c); err != nil {
		return nil, fmt.Errorf("decode access token claims: %w", err)
	}
	if c.Subject == "" {
		return nil, tokens.ErrMissingSubject
	}
	return &c, nil
}

// HMACVerifier validates HS256 tokens signed with the project JWT secret.
type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

func (v *HMACVerifier) Verify(ctx context.Context, raw string) (*tokens.Claims, error) {
	return tokens.VerifyHS256(raw, v.secret)
}

// InsecureVerifier decodes claims WITHOUT validating signatures.
// Used when neither a JWKS URL nor a JWT secret is configured; the platform
// remains the authority for every call made with the token.
type InsecureVerifier struct{}

func NewInsecureVerifier() *InsecureVerifier { return &InsecureVerifier{} }

func (v *InsecureVerifier) Verify(ctx context.Context, raw string) (*tokens.Claims, error) {
	return tokens.ParseUnverified(raw)
}

// NewVerifier picks the strongest verifier the configuration allows.
func NewVerifier(ctx context.Context, jwksURL, jwtSecret string) Verifier {
	switch {
	case jwksURL != "":
		return NewJWKSVerifier(ctx, jwksURL)
	case jwtSecret != "":
		return NewHMACVerifier(jwtSecret)
	default:
		logger.Warnf("no PLATFORM_JWKS_URL or PLATFORM_JWT_SECRET set; restored sessions are not signature-checked")
		return NewInsecureVerifier()
	}
}
