// Package auth holds the process-wide session state: who is signed in, and
// the user-facing auth operations that change it.
package auth

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/linguaflow/linguaflow/client/go-companion/internal/authclient"
	"github.com/linguaflow/linguaflow/client/go-companion/internal/events"
	"github.com/linguaflow/linguaflow/client/go-companion/internal/models"
	"github.com/linguaflow/linguaflow/client/go-companion/internal/sessions"
	"github.com/linguaflow/linguaflow/client/go-companion/internal/ui"
	"github.com/linguaflow/linguaflow/client/go-companion/pkg/logger"
)

type Status string

const (
	StatusLoading       Status = "loading"
	StatusAnonymous     Status = "anonymous"
	StatusAuthenticated Status = "authenticated"
)

// State is a consistent snapshot of the manager.
type State struct {
	Status  Status            `json:"status"`
	Session *sessions.Session `json:"-"`
	User    *models.User      `json:"user,omitempty"`
	// Event is the auth event that produced this state, empty for the initial fetch.
	Event events.Event `json:"event,omitempty"`
	Busy  bool         `json:"busy"`
}

// Platform is the auth surface the manager drives.
type Platform interface {
	SignUp(ctx context.Context, email, password string, metadata map[string]interface{}, redirectTo string) (*authclient.SignUpResult, error)
	SignInWithPassword(ctx context.Context, email, password string) (*sessions.Session, error)
	SignOut(ctx context.Context) error
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	UpdateUser(ctx context.Context, attrs authclient.UserAttributes) (*models.User, error)
	Resend(ctx context.Context, t authclient.ResendType, email, redirectTo string) error
	VerifyOTP(ctx context.Context, otpType, tokenHash string) (*sessions.Session, error)
	GetSession(ctx context.Context) (*sessions.Session, error)
	OnAuthStateChange(fn func(events.Change)) *events.Subscription
}

type Options struct {
	Notifier ui.Notifier
	// PostSignIn runs detached after every SIGNED_IN event. Its error is logged only.
	PostSignIn        func(ctx context.Context) error
	PostSignInTimeout time.Duration
	// RedirectURL is where confirmation and recovery emails send the user back to.
	RedirectURL string
}

type Manager struct {
	platform    Platform
	notifier    ui.Notifier
	postSignIn  func(ctx context.Context) error
	postTimeout time.Duration
	redirectURL string
	log         *logger.Logger
	hub         *events.Hub[State]

	// pubMu orders state writes with their publication so subscribers see
	// states in the order they were applied.
	pubMu sync.Mutex

	mu       sync.Mutex
	status   Status
	session  *sessions.Session
	event    events.Event
	sawEvent bool
	sub      *events.Subscription

	busy  atomic.Int32
	tasks sync.WaitGroup
}

func NewManager(p Platform, opts Options) *Manager {
	if opts.Notifier == nil {
		opts.Notifier = ui.LogNotifier{}
	}
	if opts.PostSignInTimeout <= 0 {
		opts.PostSignInTimeout = 30 * time.Second
	}
	return &Manager{
		platform:    p,
		notifier:    opts.Notifier,
		postSignIn:  opts.PostSignIn,
		postTimeout: opts.PostSignInTimeout,
		redirectURL: opts.RedirectURL,
		log:         logger.For("auth"),
		hub:         events.NewHub[State](),
		status:      StatusLoading,
	}
}

// SetPostSignIn replaces the post sign-in hook. Call before Start.
func (m *Manager) SetPostSignIn(fn func(ctx context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.postSignIn = fn
}

// Start subscribes to the auth event stream and fetches the initial session.
// Events win over the initial fetch: if one arrived first, the fetch result is dropped.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.sub != nil {
		m.mu.Unlock()
		return errors.New("auth: manager already started")
	}
	m.sub = m.platform.OnAuthStateChange(m.onChange)
	m.mu.Unlock()

	s, err := m.platform.GetSession(ctx)
	if err != nil {
		m.log.Warnf("initial session fetch failed: %v", err)
		s = nil
	}

	m.pubMu.Lock()
	defer m.pubMu.Unlock()
	m.mu.Lock()
	if m.sawEvent {
		m.mu.Unlock()
		return nil
	}
	m.setLocked(s, "")
	st := m.snapshotLocked()
	m.mu.Unlock()
	m.hub.Publish(st)
	return nil
}

// Close cancels the event subscription. Safe to call more than once.
func (m *Manager) Close() {
	m.mu.Lock()
	sub := m.sub
	m.mu.Unlock()
	sub.Unsubscribe()
}

// Wait blocks until detached post sign-in tasks have finished.
func (m *Manager) Wait() {
	m.tasks.Wait()
}

func (m *Manager) onChange(ch events.Change) {
	m.pubMu.Lock()
	m.mu.Lock()
	m.sawEvent = true
	m.setLocked(ch.Session, ch.Event)
	st := m.snapshotLocked()
	hook := m.postSignIn
	m.mu.Unlock()

	m.log.Debugf("auth event %s: %s", ch.Event, st.Status)
	m.hub.Publish(st)
	m.pubMu.Unlock()

	if ch.Event == events.SignedIn && hook != nil {
		m.detach(hook)
	}
}

func (m *Manager) setLocked(s *sessions.Session, ev events.Event) {
	m.session = s.Clone()
	m.event = ev
	if s == nil {
		m.status = StatusAnonymous
	} else {
		m.status = StatusAuthenticated
	}
}

func (m *Manager) snapshotLocked() State {
	st := State{Status: m.status, Session: m.session.Clone(), Event: m.event, Busy: m.busy.Load() > 0}
	if m.session != nil {
		u := m.session.User
		st.User = &u
	}
	return st
}

// detach runs fn on its own goroutine with its own deadline. The caller never waits.
func (m *Manager) detach(fn func(ctx context.Context) error) {
	m.tasks.Add(1)
	go func() {
		defer m.tasks.Done()
		defer func() {
			if r := recover(); r != nil {
				m.log.Errorf("post sign-in task panicked: %v", r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), m.postTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			m.log.Warnf("post sign-in task failed: %v", err)
		}
	}()
}

// Subscribe registers fn for every state change.
func (m *Manager) Subscribe(fn func(State)) *events.Subscription {
	return m.hub.Subscribe(fn)
}

func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) CurrentSession() *sessions.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Clone()
}

func (m *Manager) CurrentUser() *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	u := m.session.User
	return &u
}

// AccessToken returns the current bearer, or "" when anonymous.
func (m *Manager) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return ""
	}
	return m.session.AccessToken
}

// Busy reports whether any operation is in flight.
func (m *Manager) Busy() bool {
	return m.busy.Load() > 0
}

// begin marks an operation in flight; the returned func releases it.
func (m *Manager) begin() func() {
	m.busy.Add(1)
	return func() { m.busy.Add(-1) }
}
