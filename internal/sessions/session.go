package sessions

import (
	"time"

	"github.com/linguaflow/linguaflow/client/go-companion/internal/models"
)

// Session is the client-side copy of a platform-issued session.
// The User is embedded so session and identity are always replaced together.
type Session struct {
	AccessToken  string      `bson:"accessToken" json:"access_token"`
	RefreshToken string      `bson:"refreshToken" json:"refresh_token"`
	TokenType    string      `bson:"tokenType,omitempty" json:"token_type,omitempty"`
	ExpiresAt    time.Time   `bson:"expiresAt" json:"expires_at"`
	User         models.User `bson:"user" json:"user"`
}

// Expired reports whether the access token is expired at now, allowing for leeway.
// A zero ExpiresAt never expires.
func (s *Session) Expired(now time.Time, leeway time.Duration) bool {
	if s == nil {
		return true
	}
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(leeway).Before(s.ExpiresAt)
}

// Clone returns a deep copy so callers never share the cached value.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.User.EmailConfirmedAt != nil {
		t := *s.User.EmailConfirmedAt
		c.User.EmailConfirmedAt = &t
	}
	return &c
}
