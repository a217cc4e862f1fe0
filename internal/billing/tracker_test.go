package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguaflow/linguaflow/client/go-companion/internal/apperrors"
	"github.com/linguaflow/linguaflow/client/go-companion/internal/auth"
	"github.com/linguaflow/linguaflow/client/go-companion/internal/events"
	"github.com/linguaflow/linguaflow/client/go-companion/internal/models"
	"github.com/linguaflow/linguaflow/client/go-companion/internal/platform"
	"github.com/linguaflow/linguaflow/client/go-companion/internal/ui"
)

type call struct {
	name   string
	bearer string
	body   interface{}
}

// fakeFunctions answers each function with a JSON document or an error.
type fakeFunctions struct {
	mu      sync.Mutex
	calls   []call
	replies map[string]func() (string, error)
}

func newFakeFunctions() *fakeFunctions {
	return &fakeFunctions{replies: map[string]func() (string, error){}}
}

func (f *fakeFunctions) on(name, reply string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[name] = func() (string, error) { return reply, err }
}

func (f *fakeFunctions) Invoke(ctx context.Context, name, bearer string, body, result interface{}) error {
	f.mu.Lock()
	f.calls = append(f.calls, call{name, bearer, body})
	reply, ok := f.replies[name]
	f.mu.Unlock()
	if !ok {
		return fmt.Errorf("no reply for %s", name)
	}
	doc, err := reply()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(doc), result)
}

func (f *fakeFunctions) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.name == name {
			n++
		}
	}
	return n
}

type staticToken string

func (s staticToken) AccessToken() string { return string(s) }

// manualTimers records scheduled callbacks instead of running them.
type manualTimers struct {
	mu     sync.Mutex
	delays []time.Duration
	fns    []func()
}

func (m *manualTimers) after(d time.Duration, f func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delays = append(m.delays, d)
	m.fns = append(m.fns, f)
}

func (m *manualTimers) fire() {
	m.mu.Lock()
	fns := m.fns
	m.fns = nil
	m.mu.Unlock()
	for _, f := range fns {
		f()
	}
}

func (m *manualTimers) scheduled() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.delays...)
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []ui.Notice
}

func (r *recordingNotifier) Notify(n ui.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *recordingNotifier) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notices)
}

const activeSub = `{"subscribed":true,"subscription_tier":"premium","subscription_end":"2026-12-01T00:00:00Z"}`

func newTestTracker(fns *fakeFunctions, token string) (*Tracker, *recordingNotifier, *manualTimers, *ui.Outbox) {
	n := &recordingNotifier{}
	timers := &manualTimers{}
	out := ui.NewOutbox()
	tr := NewTracker(fns, staticToken(token), Options{
		Notifier:        n,
		Navigator:       out,
		NoiseRetryDelay: 7 * time.Second,
		AfterFunc:       timers.after,
	})
	return tr, n, timers, out
}

func TestRefresh_NoSessionIsNoop(t *testing.T) {
	fns := newFakeFunctions()
	tr, _, _, _ := newTestTracker(fns, "")
	require.NoError(t, tr.Refresh(context.Background()))
	assert.Equal(t, 0, fns.count(FnCheckSubscription))
}

func TestRefresh_Success(t *testing.T) {
	fns := newFakeFunctions()
	fns.on(FnCheckSubscription, activeSub, nil)
	tr, _, _, _ := newTestTracker(fns, "tok")

	require.NoError(t, tr.Refresh(context.Background()))
	d := tr.Data()
	assert.True(t, d.Subscribed)
	require.NotNil(t, d.Tier)
	assert.Equal(t, "premium", *d.Tier)
	require.NotNil(t, d.PeriodEnd)
	assert.Equal(t, 2026, d.PeriodEnd.Year())
	assert.Equal(t, "tok", fns.calls[0].bearer)
}

func TestRefresh_FailureResetsEverything(t *testing.T) {
	fns := newFakeFunctions()
	fns.on(FnCheckSubscription, activeSub, nil)
	tr, n, timers, _ := newTestTracker(fns, "tok")
	require.NoError(t, tr.Refresh(context.Background()))
	require.True(t, tr.Data().Subscribed)

	fns.on(FnCheckSubscription, "", &platform.Error{Status: 500, Message: "Stripe key invalid"})
	require.Error(t, tr.Refresh(context.Background()))

	d := tr.Data()
	assert.False(t, d.Subscribed)
	assert.Nil(t, d.Tier)
	assert.Nil(t, d.PeriodEnd)
	assert.Equal(t, 1, n.len())
	assert.Empty(t, timers.scheduled())
}

func TestRefresh_NoiseIsQuietAndRetriedOnce(t *testing.T) {
	noisy := []error{
		fmt.Errorf("%w: dial tcp: connection refused", platform.ErrNetwork),
		&platform.Error{Status: 502, Message: "function unreachable: check-subscription"},
		errors.New("Failed to send a request to the Edge Function"),
		&platform.Error{Status: 401, Message: "Auth session missing!"},
	}
	for _, nerr := range noisy {
		t.Run(nerr.Error(), func(t *testing.T) {
			fns := newFakeFunctions()
			fns.on(FnCheckSubscription, "", nerr)
			tr, n, timers, _ := newTestTracker(fns, "tok")

			require.Error(t, tr.Refresh(context.Background()))
			assert.Equal(t, 0, n.len())
			assert.Equal(t, []time.Duration{7 * time.Second}, timers.scheduled())

			timers.fire()
			assert.Equal(t, 2, fns.count(FnCheckSubscription))
			assert.Len(t, timers.scheduled(), 1, "the retry must not schedule another retry")
			assert.Equal(t, 0, n.len())
		})
	}
}

func TestReturnMarker(t *testing.T) {
	tr, _, _, _ := newTestTracker(newFakeFunctions(), "tok")
	assert.True(t, tr.HasReturnMarker("http://localhost:5173/pricing?checkout=success"))
	assert.False(t, tr.HasReturnMarker("http://localhost:5173/pricing?checkout=cancel"))
	assert.False(t, tr.HasReturnMarker("http://localhost:5173/pricing"))
	assert.False(t, tr.HasReturnMarker(""))
	assert.False(t, tr.HasReturnMarker("://bad"))
}

func TestOnSessionAvailable_SchedulesReturnRefreshes(t *testing.T) {
	fns := newFakeFunctions()
	fns.on(FnCheckSubscription, activeSub, nil)
	tr, _, timers, _ := newTestTracker(fns, "tok")

	require.NoError(t, tr.OnSessionAvailable(context.Background(), "http://app/?checkout=success"))
	assert.Equal(t, 1, fns.count(FnCheckSubscription))
	assert.Equal(t, RefreshSchedule, timers.scheduled())

	timers.fire()
	assert.Equal(t, 4, fns.count(FnCheckSubscription))
}

func TestOnSessionAvailable_PlainPage(t *testing.T) {
	fns := newFakeFunctions()
	fns.on(FnCheckSubscription, activeSub, nil)
	tr, _, timers, _ := newTestTracker(fns, "tok")

	require.NoError(t, tr.OnSessionAvailable(context.Background(), "http://app/dashboard"))
	assert.Equal(t, 1, fns.count(FnCheckSubscription))
	assert.Empty(t, timers.scheduled())
}

func TestCreateCheckout(t *testing.T) {
	t.Run("requires session", func(t *testing.T) {
		fns := newFakeFunctions()
		tr, n, _, out := newTestTracker(fns, "")
		err := tr.CreateCheckout(context.Background(), PlanMonthly)
		assert.Equal(t, apperrors.KindUnauthenticated, apperrors.KindOf(err))
		assert.Equal(t, 1, n.len())
		assert.Equal(t, 0, fns.count(FnCreateCheckout))
		assert.Nil(t, out.Drain().Navigation)
	})
	t.Run("rejects unknown plan", func(t *testing.T) {
		fns := newFakeFunctions()
		tr, _, _, _ := newTestTracker(fns, "tok")
		err := tr.CreateCheckout(context.Background(), Plan("weekly"))
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
		assert.Equal(t, 0, fns.count(FnCreateCheckout))
	})
	t.Run("navigates current tab", func(t *testing.T) {
		fns := newFakeFunctions()
		fns.on(FnCreateCheckout, `{"url":"https://checkout.example/cs_1"}`, nil)
		tr, _, _, out := newTestTracker(fns, "tok")
		require.NoError(t, tr.CreateCheckout(context.Background(), PlanYearly))
		nav := out.Drain().Navigation
		require.NotNil(t, nav)
		assert.Equal(t, "https://checkout.example/cs_1", nav.URL)
		assert.False(t, nav.Isolated)
		assert.Equal(t, map[string]string{"plan": "yearly"}, fns.calls[0].body)
	})
	t.Run("failure is generic", func(t *testing.T) {
		fns := newFakeFunctions()
		fns.on(FnCreateCheckout, "", &platform.Error{Status: 500, Message: "price not configured"})
		tr, n, _, out := newTestTracker(fns, "tok")
		err := tr.CreateCheckout(context.Background(), PlanMonthly)
		assert.Equal(t, apperrors.KindGeneric, apperrors.KindOf(err))
		assert.Equal(t, 1, n.len())
		assert.Nil(t, out.Drain().Navigation)
	})
}

func TestOpenCustomerPortal(t *testing.T) {
	t.Run("isolated window", func(t *testing.T) {
		fns := newFakeFunctions()
		fns.on(FnCustomerPortal, `{"url":"https://billing.example/p"}`, nil)
		tr, _, _, out := newTestTracker(fns, "tok")
		require.NoError(t, tr.OpenCustomerPortal(context.Background()))
		nav := out.Drain().Navigation
		require.NotNil(t, nav)
		assert.True(t, nav.Isolated)
	})
	t.Run("popup blocked falls back", func(t *testing.T) {
		fns := newFakeFunctions()
		fns.on(FnCustomerPortal, `{"url":"https://billing.example/p"}`, nil)
		tr, _, _, out := newTestTracker(fns, "tok")
		out.SetPopupsAllowed(false)
		require.NoError(t, tr.OpenCustomerPortal(context.Background()))
		nav := out.Drain().Navigation
		require.NotNil(t, nav)
		assert.False(t, nav.Isolated)
		assert.Equal(t, "https://billing.example/p", nav.URL)
	})
	t.Run("requires session", func(t *testing.T) {
		tr, _, _, _ := newTestTracker(newFakeFunctions(), "")
		assert.Equal(t, apperrors.KindUnauthenticated, apperrors.KindOf(tr.OpenCustomerPortal(context.Background())))
	})
}

type fakeWatcher struct {
	hub *events.Hub[auth.State]
}

func (w *fakeWatcher) Subscribe(fn func(auth.State)) *events.Subscription {
	return w.hub.Subscribe(fn)
}

func signedIn(ev events.Event) auth.State {
	return auth.State{Status: auth.StatusAuthenticated, Event: ev, User: &models.User{ID: "user-1"}}
}

func TestWatch(t *testing.T) {
	fns := newFakeFunctions()
	fns.on(FnCheckSubscription, activeSub, nil)
	tr, _, timers, _ := newTestTracker(fns, "tok")
	w := &fakeWatcher{hub: events.NewHub[auth.State]()}
	page := "http://app/?checkout=success"
	sub := tr.Watch(w, func() string { return page })
	defer sub.Unsubscribe()

	// restored session: refreshed by the watcher
	w.hub.Publish(signedIn(events.InitialSession))
	require.Eventually(t, func() bool { return fns.count(FnCheckSubscription) == 1 }, time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return tr.Data().Subscribed }, time.Second, 10*time.Millisecond)
	assert.Len(t, timers.scheduled(), 3)

	// same user again: nothing new
	w.hub.Publish(signedIn(events.TokenRefreshed))
	assert.Len(t, timers.scheduled(), 3)

	// sign out resets
	w.hub.Publish(auth.State{Status: auth.StatusAnonymous, Event: events.SignedOut})
	assert.False(t, tr.Data().Subscribed)

	// explicit sign in: immediate refresh left to the post sign-in hook
	page = "http://app/dashboard"
	w.hub.Publish(signedIn(events.SignedIn))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, fns.count(FnCheckSubscription))
	assert.Len(t, timers.scheduled(), 3)
}
