package events

import (
	"sync"

	"github.com/google/uuid"

	"github.com/linguaflow/linguaflow/client/go-companion/internal/sessions"
)

// Event names emitted by the platform auth client.
type Event string

const (
	InitialSession   Event = "INITIAL_SESSION"
	SignedIn         Event = "SIGNED_IN"
	SignedOut        Event = "SIGNED_OUT"
	TokenRefreshed   Event = "TOKEN_REFRESHED"
	UserUpdated      Event = "USER_UPDATED"
	PasswordRecovery Event = "PASSWORD_RECOVERY"
)

// Change is one auth state change: the event and the session after it (nil when signed out).
type Change struct {
	Event   Event
	Session *sessions.Session
}

// Listener receives published values.
type Listener[T any] func(T)

// Hub fans values out to listeners. Publish calls are serialized and
// listeners run synchronously in subscription order, so every listener
// observes values in emission order. A listener must not publish on the
// same hub.
type Hub[T any] struct {
	publishMu sync.Mutex

	mu        sync.Mutex
	order     []string
	listeners map[string]Listener[T]
}

func NewHub[T any]() *Hub[T] {
	return &Hub[T]{listeners: make(map[string]Listener[T])}
}

// Subscription is the handle returned by Subscribe. Unsubscribe must be
// called on teardown; it is safe to call more than once.
type Subscription struct {
	ID     string
	once   sync.Once
	cancel func()
}

func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(s.cancel)
}

func (h *Hub[T]) Subscribe(fn Listener[T]) *Subscription {
	id := uuid.NewString()
	h.mu.Lock()
	h.listeners[id] = fn
	h.order = append(h.order, id)
	h.mu.Unlock()
	return &Subscription{ID: id, cancel: func() { h.remove(id) }}
}

func (h *Hub[T]) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.listeners, id)
	for i, v := range h.order {
		if v == id {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

// Publish delivers v to every current listener and returns after all of them ran.
func (h *Hub[T]) Publish(v T) {
	h.publishMu.Lock()
	defer h.publishMu.Unlock()

	h.mu.Lock()
	fns := make([]Listener[T], 0, len(h.order))
	for _, id := range h.order {
		fns = append(fns, h.listeners[id])
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Len reports the number of active listeners.
func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}
