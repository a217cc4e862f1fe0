package authclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/linguaflow/linguaflow/client/go-companion/internal/events"
	"github.com/linguaflow/linguaflow/client/go-companion/internal/models"
	"github.com/linguaflow/linguaflow/client/go-companion/internal/oidc"
	"github.com/linguaflow/linguaflow/client/go-companion/internal/platform"
	"github.com/linguaflow/linguaflow/client/go-companion/internal/sessions"
	"github.com/linguaflow/linguaflow/client/go-companion/pkg/logger"
)

// ErrNoSession is returned by operations that need a signed-in user.
var ErrNoSession = errors.New("auth session missing")

// DefaultStoreKey is the key the current session is persisted under.
const DefaultStoreKey = "current"

// refreshLeeway refreshes access tokens slightly before they expire.
const refreshLeeway = 30 * time.Second

// ResendType selects which confirmation email Resend sends again.
type ResendType string

const (
	ResendSignup      ResendType = "signup"
	ResendEmailChange ResendType = "email_change"
)

type Options struct {
	// Store persists the session across restarts; defaults to an in-memory store.
	Store    sessions.Store
	StoreKey string
	// Verifier checks restored access tokens. Nil skips the check.
	Verifier oidc.Verifier
	Now      func() time.Time
}

// Client talks to the platform's auth REST API and keeps the current
// session. Every state change is published on the auth event stream.
type Client struct {
	api      *platform.Client
	store    sessions.Store
	key      string
	verifier oidc.Verifier
	now      func() time.Time
	hub      *events.Hub[events.Change]
	log      *logger.Logger

	// commitMu keeps session writes and their events in the same order.
	commitMu sync.Mutex

	mu          sync.Mutex
	session     *sessions.Session
	initialized bool
}

func New(api *platform.Client, opts Options) *Client {
	if opts.Store == nil {
		opts.Store = sessions.NewMemoryStore()
	}
	if opts.StoreKey == "" {
		opts.StoreKey = DefaultStoreKey
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Client{
		api:      api,
		store:    opts.Store,
		key:      opts.StoreKey,
		verifier: opts.Verifier,
		now:      opts.Now,
		hub:      events.NewHub[events.Change](),
		log:      logger.For("authclient"),
	}
}

// OnAuthStateChange registers fn for every auth event. Listeners run
// synchronously on the publishing goroutine and must not call back into
// operations that publish.
func (c *Client) OnAuthStateChange(fn func(events.Change)) *events.Subscription {
	return c.hub.Subscribe(fn)
}

// CurrentSession returns a copy of the cached session without contacting the platform.
func (c *Client) CurrentSession() *sessions.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Clone()
}

// AccessToken returns the cached bearer, or "" when signed out.
func (c *Client) AccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.AccessToken
}

// commit replaces the cached session, persists it and publishes ev.
func (c *Client) commit(ctx context.Context, ev events.Event, s *sessions.Session) {
	c.commitMu.Lock()
	defer c.commitMu.Unlock()

	c.mu.Lock()
	c.session = s.Clone()
	c.mu.Unlock()

	if s != nil {
		if err := c.store.Save(ctx, c.key, s); err != nil {
			c.log.Warnf("persisting session failed: %v", err)
		}
	} else if err := c.store.Delete(ctx, c.key); err != nil {
		c.log.Warnf("clearing stored session failed: %v", err)
	}
	c.hub.Publish(events.Change{Event: ev, Session: s.Clone()})
}

// SignUpResult is the platform's answer to a sign up. Session is nil when
// the account must confirm its email first.
type SignUpResult struct {
	User             models.User
	Session          *sessions.Session
	ConfirmationSent bool
}

// SignUp registers a new account. metadata is stored as user metadata.
func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]interface{}, redirectTo string) (*SignUpResult, error) {
	body := map[string]interface{}{"email": email, "password": password}
	if len(metadata) > 0 {
		body["data"] = metadata
	}
	var raw json.RawMessage
	if err := c.api.Do(ctx, http.MethodPost, "/auth/v1/signup", redirectQuery(redirectTo), "", body, &raw); err != nil {
		return nil, err
	}

	var probe struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("decoding sign up response: %w", err)
	}
	if probe.AccessToken != "" {
		var ws wireSession
		if err := json.Unmarshal(raw, &ws); err != nil {
			return nil, fmt.Errorf("decoding sign up session: %w", err)
		}
		s := ws.session(c.now())
		c.commit(ctx, events.SignedIn, s)
		return &SignUpResult{User: s.User, Session: s.Clone()}, nil
	}

	var wu wireUser
	if err := json.Unmarshal(raw, &wu); err != nil {
		return nil, fmt.Errorf("decoding sign up user: %w", err)
	}
	return &SignUpResult{User: wu.model(), ConfirmationSent: true}, nil
}

// SignInWithPassword exchanges credentials for a session and publishes SIGNED_IN.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*sessions.Session, error) {
	q := url.Values{"grant_type": {"password"}}
	var ws wireSession
	if err := c.api.Do(ctx, http.MethodPost, "/auth/v1/token", q, "", map[string]string{"email": email, "password": password}, &ws); err != nil {
		return nil, err
	}
	s := ws.session(c.now())
	c.commit(ctx, events.SignedIn, s)
	return s.Clone(), nil
}

// SignOut revokes the session remotely and then clears it locally. A remote
// answer saying the session is already gone still signs out; any other
// failure leaves the session in place.
func (c *Client) SignOut(ctx context.Context) error {
	token := c.AccessToken()
	if token != "" {
		err := c.api.Do(ctx, http.MethodPost, "/auth/v1/logout", nil, token, nil, nil)
		var pe *platform.Error
		if err != nil && !(errors.As(err, &pe) && sessionGone(pe.Status)) {
			return err
		}
	}
	c.commit(ctx, events.SignedOut, nil)
	return nil
}

func sessionGone(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden || status == http.StatusNotFound
}

// ResetPasswordForEmail asks the platform to send a recovery link.
func (c *Client) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	return c.api.Do(ctx, http.MethodPost, "/auth/v1/recover", redirectQuery(redirectTo), "", map[string]string{"email": email}, nil)
}

// UserAttributes are the updatable fields of the signed-in user.
type UserAttributes struct {
	Email    string                 `json:"email,omitempty"`
	Password string                 `json:"password,omitempty"`
	Data     map[string]interface{} `json:"data,omitempty"`
}

// UpdateUser changes the signed-in user and publishes USER_UPDATED.
func (c *Client) UpdateUser(ctx context.Context, attrs UserAttributes) (*models.User, error) {
	cur := c.CurrentSession()
	if cur == nil {
		return nil, ErrNoSession
	}
	var wu wireUser
	if err := c.api.Do(ctx, http.MethodPut, "/auth/v1/user", nil, cur.AccessToken, attrs, &wu); err != nil {
		return nil, err
	}
	cur.User = wu.model()
	c.commit(ctx, events.UserUpdated, cur)
	u := cur.User
	return &u, nil
}

// Resend sends the confirmation email of kind t again.
func (c *Client) Resend(ctx context.Context, t ResendType, email, redirectTo string) error {
	body := map[string]interface{}{"type": string(t), "email": email}
	if redirectTo != "" {
		body["options"] = map[string]string{"email_redirect_to": redirectTo}
	}
	return c.api.Do(ctx, http.MethodPost, "/auth/v1/resend", nil, "", body, nil)
}

// VerifyOTP exchanges an emailed token hash for a session. Recovery links
// publish PASSWORD_RECOVERY, everything else SIGNED_IN.
func (c *Client) VerifyOTP(ctx context.Context, otpType, tokenHash string) (*sessions.Session, error) {
	var ws wireSession
	body := map[string]string{"type": otpType, "token_hash": tokenHash}
	if err := c.api.Do(ctx, http.MethodPost, "/auth/v1/verify", nil, "", body, &ws); err != nil {
		return nil, err
	}
	s := ws.session(c.now())
	ev := events.SignedIn
	if otpType == "recovery" {
		ev = events.PasswordRecovery
	}
	c.commit(ctx, ev, s)
	return s.Clone(), nil
}

// RefreshSession trades the refresh token for a new session and publishes TOKEN_REFRESHED.
func (c *Client) RefreshSession(ctx context.Context) (*sessions.Session, error) {
	cur := c.CurrentSession()
	if cur == nil || cur.RefreshToken == "" {
		return nil, ErrNoSession
	}
	return c.refresh(ctx, cur.RefreshToken)
}

func (c *Client) refresh(ctx context.Context, refreshToken string) (*sessions.Session, error) {
	q := url.Values{"grant_type": {"refresh_token"}}
	var ws wireSession
	if err := c.api.Do(ctx, http.MethodPost, "/auth/v1/token", q, "", map[string]string{"refresh_token": refreshToken}, &ws); err != nil {
		return nil, err
	}
	s := ws.session(c.now())
	c.commit(ctx, events.TokenRefreshed, s)
	return s.Clone(), nil
}

// GetSession returns the current session, restoring it from the store on
// first use and refreshing it when the access token has expired. A stored
// session that fails verification or can no longer be refreshed is
// discarded and (nil, nil) is returned. The first call publishes
// INITIAL_SESSION, also when it fails: after a network failure the event
// carries the kept session, so listeners agree with CurrentSession.
func (c *Client) GetSession(ctx context.Context) (*sessions.Session, error) {
	c.mu.Lock()
	cur := c.session.Clone()
	first := !c.initialized
	c.initialized = true
	c.mu.Unlock()

	if cur == nil && first {
		restored, err := c.restore(ctx)
		if err != nil {
			c.publishInitial(nil)
			return nil, err
		}
		cur = restored
	}

	if cur != nil && cur.Expired(c.now(), refreshLeeway) {
		refreshed, err := c.refresh(ctx, cur.RefreshToken)
		if err != nil {
			var pe *platform.Error
			if !errors.As(err, &pe) {
				// The platform is unreachable; the kept session stays usable.
				if first {
					c.publishInitial(cur)
				}
				return nil, err
			}
			c.log.Infof("stored session could not be refreshed (%d): discarding", pe.Status)
			c.discard(ctx)
			cur = nil
		} else {
			cur = refreshed
		}
	}

	if first {
		c.publishInitial(cur)
	}
	return cur, nil
}

func (c *Client) publishInitial(s *sessions.Session) {
	c.hub.Publish(events.Change{Event: events.InitialSession, Session: s.Clone()})
}

func (c *Client) restore(ctx context.Context) (*sessions.Session, error) {
	s, err := c.store.Load(ctx, c.key)
	if err != nil {
		return nil, fmt.Errorf("loading stored session: %w", err)
	}
	if s == nil {
		return nil, nil
	}
	if c.verifier != nil {
		claims, err := c.verifier.Verify(ctx, s.AccessToken)
		if err != nil || claims.Subject != s.User.ID {
			c.log.Warnf("stored session failed verification: discarding")
			c.discard(ctx)
			return nil, nil
		}
		if exp := claims.Expiry(); !exp.IsZero() {
			s.ExpiresAt = exp
		}
	}
	c.mu.Lock()
	c.session = s.Clone()
	c.mu.Unlock()
	return s, nil
}

func (c *Client) discard(ctx context.Context) {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
	if err := c.store.Delete(ctx, c.key); err != nil {
		c.log.Warnf("clearing stored session failed: %v", err)
	}
}

func redirectQuery(redirectTo string) url.Values {
	if redirectTo == "" {
		return nil
	}
	return url.Values{"redirect_to": {redirectTo}}
}
