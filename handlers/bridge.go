package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/linguaflow/linguaflow/client/go-companion/internal/apperrors"
	"github.com/linguaflow/linguaflow/client/go-companion/internal/auth"
	"github.com/linguaflow/linguaflow/client/go-companion/internal/billing"
	"github.com/linguaflow/linguaflow/client/go-companion/internal/models"
	"github.com/linguaflow/linguaflow/client/go-companion/internal/notify"
	"github.com/linguaflow/linguaflow/client/go-companion/internal/ui"
	"github.com/linguaflow/linguaflow/client/go-companion/pkg/middleware"
)

// SessionService is the session manager as seen by the bridge.
type SessionService interface {
	Snapshot() auth.State
	CurrentUser() *models.User
	SignUp(ctx context.Context, email, password, displayName string) error
	SignIn(ctx context.Context, email, password string) error
	SignOut(ctx context.Context) error
	ResetPassword(ctx context.Context, email, redirectTo string) error
	UpdatePassword(ctx context.Context, password string) error
	ResendConfirmation(ctx context.Context, email string) error
	VerifyLink(ctx context.Context, linkType, tokenHash string) error
}

type BillingService interface {
	Data() billing.SubscriptionData
	Refresh(ctx context.Context) error
	CreateCheckout(ctx context.Context, plan billing.Plan) error
	OpenCustomerPortal(ctx context.Context) error
	OnSessionAvailable(ctx context.Context, pageURL string) error
}

type NotificationService interface {
	CheckPreferences(ctx context.Context, userID string, category notify.Category) notify.Preferences
	SendWithPreferences(ctx context.Context, req notify.Request) (*notify.Receipt, error)
}

// Effects is the queue of UI effects produced while serving requests.
type Effects interface {
	Drain() ui.Effects
	SetCurrentURL(url string)
	SetPopupsAllowed(ok bool)
	CurrentURL() string
}

type Options struct {
	Sessions      SessionService
	Billing       BillingService
	Notifications NotificationService
	Effects       Effects
	// Ready reports dependency health for /ready; nil means always ready.
	Ready    func() map[string]bool
	Gatherer prometheus.Gatherer
}

// Bridge serves the local HTTP API the UI talks to. Every JSON response
// carries the notices and navigation queued while handling it.
type Bridge struct {
	sessions SessionService
	billing  BillingService
	notify   NotificationService
	effects  Effects
	ready    func() map[string]bool
	gatherer prometheus.Gatherer
	started  time.Time
}

func NewBridge(opts Options) *Bridge {
	if opts.Effects == nil {
		opts.Effects = ui.NewOutbox()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	return &Bridge{
		sessions: opts.Sessions,
		billing:  opts.Billing,
		notify:   opts.Notifications,
		effects:  opts.Effects,
		ready:    opts.Ready,
		gatherer: opts.Gatherer,
		started:  time.Now(),
	}
}

// Register mounts every bridge route on r.
func (b *Bridge) Register(r *gin.Engine) {
	r.Use(b.pageContext())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", b.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(b.gatherer, promhttp.HandlerOpts{})))
	r.GET("/effects", func(c *gin.Context) { b.reply(c, nil, nil) })
	RegisterSwagger(r)

	r.GET("/session", b.Session)
	b.registerAuth(r.Group("/auth"))

	if b.billing != nil {
		b.registerBilling(r.Group("/billing", middleware.RequireSession(b.sessions)))
	}
	if b.notify != nil {
		b.registerNotifications(r.Group("/notifications", middleware.RequireSession(b.sessions)))
	}
}

// pageContext records the page and popup policy the UI reports on each request.
func (b *Bridge) pageContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		if u := c.GetHeader("X-Page-URL"); u != "" {
			b.effects.SetCurrentURL(u)
		}
		switch strings.ToLower(c.GetHeader("X-Popups-Allowed")) {
		case "true":
			b.effects.SetPopupsAllowed(true)
		case "false":
			b.effects.SetPopupsAllowed(false)
		}
		c.Next()
	}
}

func (b *Bridge) Ready(c *gin.Context) {
	deps := map[string]bool{}
	if b.ready != nil {
		deps = b.ready()
	}
	ready := true
	for _, ok := range deps {
		ready = ready && ok
	}
	uptime := fmt.Sprintf("%s", time.Since(b.started).Truncate(time.Second))
	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "deps": deps, "uptime": uptime})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "deps": deps, "uptime": uptime})
}

// Session returns the session snapshot.
func (b *Bridge) Session(c *gin.Context) {
	st := b.sessions.Snapshot()
	data := gin.H{"status": st.Status, "user": st.User, "busy": st.Busy}
	if st.Session != nil {
		data["expires_at"] = st.Session.ExpiresAt
	}
	b.reply(c, data, nil)
}

// reply writes data or err together with the drained UI effects.
func (b *Bridge) reply(c *gin.Context, data interface{}, err error) {
	body := gin.H{"effects": b.effects.Drain()}
	if err != nil {
		status, kind, msg := describe(err)
		body["error"] = gin.H{"kind": kind, "message": msg}
		c.JSON(status, body)
		return
	}
	if data != nil {
		body["data"] = data
	}
	c.JSON(http.StatusOK, body)
}

func (b *Bridge) badRequest(c *gin.Context, err error) {
	b.reply(c, nil, apperrors.Wrap(apperrors.KindValidation, opRequest, err))
}

// opRequest marks malformed bridge requests; their message is the binding error.
const opRequest apperrors.Operation = "request"

func describe(err error) (status int, kind, msg string) {
	var ae *apperrors.Error
	var de *notify.DeliveryError
	switch {
	case errors.As(err, &ae):
		status = statusFor(ae.Kind)
		kind = ae.Kind.String()
		msg = ae.Message
		if ae.Op == opRequest && ae.Cause != nil {
			msg = ae.Cause.Error()
		}
	case errors.As(err, &de):
		return http.StatusBadGateway, "delivery", de.Message
	case errors.Is(err, notify.ErrInvalidChannel):
		return http.StatusBadRequest, apperrors.KindValidation.String(), err.Error()
	default:
		return http.StatusBadGateway, apperrors.KindGeneric.String(), err.Error()
	}
	return status, kind, msg
}

func statusFor(k apperrors.Kind) int {
	switch k {
	case apperrors.KindUnauthenticated, apperrors.KindInvalidCredentials:
		return http.StatusUnauthorized
	}
	switch k.Class() {
	case apperrors.ClassValidation:
		return http.StatusBadRequest
	case apperrors.ClassConflict:
		return http.StatusConflict
	case apperrors.ClassRateLimit:
		return http.StatusTooManyRequests
	case apperrors.ClassNotFound:
		return http.StatusNotFound
	case apperrors.ClassTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
