// Package billing tracks the signed-in user's subscription status and starts
// the hosted checkout and customer portal flows.
package billing

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/linguaflow/linguaflow/client/go-companion/internal/apperrors"
	"github.com/linguaflow/linguaflow/client/go-companion/internal/auth"
	"github.com/linguaflow/linguaflow/client/go-companion/internal/events"
	"github.com/linguaflow/linguaflow/client/go-companion/internal/ui"
	"github.com/linguaflow/linguaflow/client/go-companion/pkg/logger"
	"github.com/linguaflow/linguaflow/client/go-companion/pkg/metrics"
)

// Function names on the platform.
const (
	FnCheckSubscription = "check-subscription"
	FnCreateCheckout    = "create-checkout"
	FnCustomerPortal    = "customer-portal"
)

// RefreshSchedule is when the extra refreshes after a payment return fire.
var RefreshSchedule = []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

// noise marks failures caused by plumbing rather than billing; they are not shown to the user.
var noise = []string{"auth", "network", "failed to fetch", "failed to send a request", "function unreachable"}

// SubscriptionData is the billing status. The zero value means not subscribed.
type SubscriptionData struct {
	Subscribed bool       `json:"subscribed"`
	Tier       *string    `json:"subscription_tier"`
	PeriodEnd  *time.Time `json:"subscription_end"`
}

func (d SubscriptionData) clone() SubscriptionData {
	c := SubscriptionData{Subscribed: d.Subscribed}
	if d.Tier != nil {
		t := *d.Tier
		c.Tier = &t
	}
	if d.PeriodEnd != nil {
		p := *d.PeriodEnd
		c.PeriodEnd = &p
	}
	return c
}

type Plan string

const (
	PlanMonthly Plan = "monthly"
	PlanYearly  Plan = "yearly"
)

func (p Plan) Valid() bool {
	return p == PlanMonthly || p == PlanYearly
}

// Functions invokes platform functions by name.
type Functions interface {
	Invoke(ctx context.Context, name, bearer string, body, result interface{}) error
}

// TokenSource yields the current bearer, "" when signed out.
type TokenSource interface {
	AccessToken() string
}

// Watcher publishes session state changes.
type Watcher interface {
	Subscribe(fn func(auth.State)) *events.Subscription
}

type Options struct {
	Notifier  ui.Notifier
	Navigator ui.Navigator
	// ReturnParam and ReturnValue form the query marker of a payment return page.
	ReturnParam string
	ReturnValue string
	// NoiseRetryDelay is the wait before the single silent retry of a noise failure.
	NoiseRetryDelay time.Duration
	// RefreshTimeout bounds refreshes that run on timers.
	RefreshTimeout time.Duration
	AfterFunc      func(d time.Duration, f func())
}

type Tracker struct {
	fns         Functions
	tokens      TokenSource
	notifier    ui.Notifier
	nav         ui.Navigator
	returnParam string
	returnValue string
	retryDelay  time.Duration
	timeout     time.Duration
	afterFunc   func(d time.Duration, f func())
	log         *logger.Logger

	mu       sync.Mutex
	data     SubscriptionData
	lastUser string
}

func NewTracker(fns Functions, tokens TokenSource, opts Options) *Tracker {
	if opts.Notifier == nil {
		opts.Notifier = ui.LogNotifier{}
	}
	if opts.ReturnParam == "" {
		opts.ReturnParam = "checkout"
	}
	if opts.ReturnValue == "" {
		opts.ReturnValue = "success"
	}
	if opts.NoiseRetryDelay <= 0 {
		opts.NoiseRetryDelay = 10 * time.Second
	}
	if opts.RefreshTimeout <= 0 {
		opts.RefreshTimeout = 15 * time.Second
	}
	if opts.AfterFunc == nil {
		opts.AfterFunc = func(d time.Duration, f func()) { time.AfterFunc(d, f) }
	}
	return &Tracker{
		fns:         fns,
		tokens:      tokens,
		notifier:    opts.Notifier,
		nav:         opts.Navigator,
		returnParam: opts.ReturnParam,
		returnValue: opts.ReturnValue,
		retryDelay:  opts.NoiseRetryDelay,
		timeout:     opts.RefreshTimeout,
		afterFunc:   opts.AfterFunc,
		log:         logger.For("billing"),
	}
}

// Data returns a copy of the current status.
func (t *Tracker) Data() SubscriptionData {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.data.clone()
}

func (t *Tracker) set(d SubscriptionData) {
	t.mu.Lock()
	t.data = d.clone()
	t.mu.Unlock()
}

// Reset drops the cached status back to not subscribed.
func (t *Tracker) Reset() {
	t.set(SubscriptionData{})
}

// Refresh fetches the status with the current session. Without a session it
// does nothing. On failure the status is reset; only failures that are not
// infrastructure noise are shown to the user, noise is retried once quietly.
func (t *Tracker) Refresh(ctx context.Context) error {
	return t.refresh(ctx, true)
}

func (t *Tracker) refresh(ctx context.Context, retryNoise bool) error {
	token := t.tokens.AccessToken()
	if token == "" {
		metrics.SubscriptionRefreshes.WithLabelValues("skipped").Inc()
		return nil
	}

	var d SubscriptionData
	if err := t.fns.Invoke(ctx, FnCheckSubscription, token, nil, &d); err != nil {
		t.Reset()
		if isNoise(err) {
			metrics.SubscriptionRefreshes.WithLabelValues("noise").Inc()
			t.log.Infof("subscription check failed (not shown): %v", err)
			if retryNoise {
				t.afterFunc(t.retryDelay, func() { t.detached(false) })
			}
			return err
		}
		metrics.SubscriptionRefreshes.WithLabelValues("error").Inc()
		t.log.Warnf("subscription check failed: %v", err)
		e := apperrors.Classify(apperrors.OpRefreshSubscription, err)
		t.notifier.Notify(ui.Error(apperrors.Title(apperrors.OpRefreshSubscription), e.Message))
		return err
	}
	t.set(d)
	metrics.SubscriptionRefreshes.WithLabelValues("ok").Inc()
	return nil
}

// detached refreshes on a timer goroutine with its own deadline.
func (t *Tracker) detached(retryNoise bool) {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()
	_ = t.refresh(ctx, retryNoise)
}

func isNoise(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, n := range noise {
		if strings.Contains(msg, n) {
			return true
		}
	}
	return false
}

// HasReturnMarker reports whether pageURL is the payment return page.
func (t *Tracker) HasReturnMarker(pageURL string) bool {
	if pageURL == "" {
		return false
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	return u.Query().Get(t.returnParam) == t.returnValue
}

// ScheduleReturnRefreshes fires the delayed refreshes when pageURL is the
// payment return page. The refreshes are independent; the last to finish wins.
func (t *Tracker) ScheduleReturnRefreshes(pageURL string) bool {
	if !t.HasReturnMarker(pageURL) {
		return false
	}
	t.log.Infof("payment return detected, scheduling %d extra refreshes", len(RefreshSchedule))
	for _, d := range RefreshSchedule {
		t.afterFunc(d, func() { t.detached(true) })
	}
	return true
}

// OnSessionAvailable refreshes now and, on the payment return page, schedules the delayed refreshes.
func (t *Tracker) OnSessionAvailable(ctx context.Context, pageURL string) error {
	err := t.Refresh(ctx)
	t.ScheduleReturnRefreshes(pageURL)
	return err
}

// Watch follows session changes: a newly signed-in user gets a refresh (the
// SIGNED_IN path is left to the post sign-in hook) plus the payment return
// refreshes, and signing out resets the status.
func (t *Tracker) Watch(w Watcher, pageURL func() string) *events.Subscription {
	return w.Subscribe(func(st auth.State) {
		if st.Status != auth.StatusAuthenticated || st.User == nil {
			t.mu.Lock()
			changed := t.lastUser != ""
			t.lastUser = ""
			t.data = SubscriptionData{}
			t.mu.Unlock()
			if changed {
				t.log.Debugf("signed out, subscription status reset")
			}
			return
		}

		t.mu.Lock()
		isNew := t.lastUser != st.User.ID
		t.lastUser = st.User.ID
		t.mu.Unlock()
		if !isNew {
			return
		}
		if st.Event != events.SignedIn {
			go t.detached(true)
		}
		if pageURL != nil {
			t.ScheduleReturnRefreshes(pageURL())
		}
	})
}

// CreateCheckout starts a hosted checkout for plan and sends the current tab there.
func (t *Tracker) CreateCheckout(ctx context.Context, plan Plan) error {
	if !plan.Valid() {
		return t.fail(apperrors.OpCheckout, apperrors.New(apperrors.KindValidation, apperrors.OpCheckout))
	}
	token := t.tokens.AccessToken()
	if token == "" {
		return t.fail(apperrors.OpCheckout, apperrors.New(apperrors.KindUnauthenticated, apperrors.OpCheckout))
	}
	var out struct {
		URL string `json:"url"`
	}
	if err := t.fns.Invoke(ctx, FnCreateCheckout, token, map[string]string{"plan": string(plan)}, &out); err != nil {
		return t.fail(apperrors.OpCheckout, err)
	}
	if out.URL == "" {
		return t.fail(apperrors.OpCheckout, errors.New("checkout returned no url"))
	}
	t.navigator().Assign(out.URL)
	return nil
}

// OpenCustomerPortal opens the subscription portal in an isolated new
// context, falling back to the current tab when that is blocked.
func (t *Tracker) OpenCustomerPortal(ctx context.Context) error {
	token := t.tokens.AccessToken()
	if token == "" {
		return t.fail(apperrors.OpPortal, apperrors.New(apperrors.KindUnauthenticated, apperrors.OpPortal))
	}
	var out struct {
		URL string `json:"url"`
	}
	if err := t.fns.Invoke(ctx, FnCustomerPortal, token, nil, &out); err != nil {
		return t.fail(apperrors.OpPortal, err)
	}
	if out.URL == "" {
		return t.fail(apperrors.OpPortal, errors.New("customer portal returned no url"))
	}
	nav := t.navigator()
	if err := nav.OpenIsolated(out.URL); err != nil {
		if !errors.Is(err, ui.ErrPopupBlocked) {
			return t.fail(apperrors.OpPortal, err)
		}
		t.log.Infof("new window blocked, opening portal in the current tab")
		nav.Assign(out.URL)
	}
	return nil
}

func (t *Tracker) navigator() ui.Navigator {
	if t.nav == nil {
		return noNavigator{}
	}
	return t.nav
}

func (t *Tracker) fail(op apperrors.Operation, err error) error {
	e := apperrors.Classify(op, err)
	t.log.Warnf("%s failed: %v", op, err)
	t.notifier.Notify(ui.Error(apperrors.Title(op), e.Message))
	return e
}

type noNavigator struct{}

func (noNavigator) Assign(url string) {
	logger.Infof("open %s", url)
}

func (noNavigator) OpenIsolated(url string) error {
	logger.Infof("open %s", url)
	return nil
}

func (noNavigator) CurrentURL() string { return "" }
