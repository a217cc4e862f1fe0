package authclient

import (
	"time"

	"github.com/linguaflow/linguaflow/client/go-companion/internal/models"
	"github.com/linguaflow/linguaflow/client/go-companion/internal/sessions"
)

type wireUser struct {
	ID               string                 `json:"id"`
	Email            string                 `json:"email"`
	EmailConfirmedAt *time.Time             `json:"email_confirmed_at"`
	CreatedAt        time.Time              `json:"created_at"`
	UserMetadata     map[string]interface{} `json:"user_metadata"`
}

func (w wireUser) model() models.User {
	u := models.User{
		ID:               w.ID,
		Email:            w.Email,
		EmailConfirmedAt: w.EmailConfirmedAt,
		CreatedAt:        w.CreatedAt,
	}
	for _, k := range []string{"display_name", "full_name", "name"} {
		if v, ok := w.UserMetadata[k].(string); ok && v != "" {
			u.DisplayName = v
			break
		}
	}
	return u
}

type wireSession struct {
	AccessToken  string   `json:"access_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int64    `json:"expires_in"`
	ExpiresAt    int64    `json:"expires_at"`
	RefreshToken string   `json:"refresh_token"`
	User         wireUser `json:"user"`
}

func (w wireSession) session(now time.Time) *sessions.Session {
	s := &sessions.Session{
		AccessToken:  w.AccessToken,
		RefreshToken: w.RefreshToken,
		TokenType:    w.TokenType,
		User:         w.User.model(),
	}
	switch {
	case w.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(w.ExpiresAt, 0).UTC()
	case w.ExpiresIn > 0:
		s.ExpiresAt = now.Add(time.Duration(w.ExpiresIn) * time.Second).UTC()
	}
	return s
}
