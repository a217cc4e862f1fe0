// Package notify composes learner notifications and forwards them to the
// platform's delivery function, honouring per-user preferences.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/linguaflow/linguaflow/client/go-companion/internal/platform"
	"github.com/linguaflow/linguaflow/client/go-companion/pkg/logger"
	"github.com/linguaflow/linguaflow/client/go-companion/pkg/metrics"
)

// FnSendNotification is the delivery function's name.
const FnSendNotification = "send-notification"

// PreferencesTable holds one preference row per user.
const PreferencesTable = "notification_preferences"

// ErrInvalidChannel is returned for a channel other than email, push or both.
var ErrInvalidChannel = errors.New("notify: invalid channel")

type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPush  Channel = "push"
	ChannelBoth  Channel = "both"
)

func (c Channel) Valid() bool {
	return c == ChannelEmail || c == ChannelPush || c == ChannelBoth
}

type Category string

const (
	CategoryAchievement    Category = "achievement"
	CategoryDailyGoal      Category = "daily_goal"
	CategoryStreakReminder Category = "streak_reminder"
	CategoryLessonReminder Category = "lesson_reminder"
	CategoryWeeklySummary  Category = "weekly_summary"
)

// Categories lists every category in a stable order.
var Categories = []Category{CategoryAchievement, CategoryDailyGoal, CategoryStreakReminder, CategoryLessonReminder, CategoryWeeklySummary}

func (c Category) Valid() bool {
	_, ok := categoryColumn[c]
	return ok
}

// Request is one notification to deliver. It is sent to the platform as is.
type Request struct {
	UserID   string                 `json:"userId"`
	Channel  Channel                `json:"channel"`
	Category Category               `json:"category"`
	Title    string                 `json:"title"`
	Body     string                 `json:"body"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Receipt is the delivery function's answer.
type Receipt struct {
	Success bool                   `json:"success"`
	ID      string                 `json:"id,omitempty"`
	Results map[string]interface{} `json:"results,omitempty"`
}

// DeliveryError is a failure reported by the delivery function itself.
type DeliveryError struct {
	Message string
	Cause   error
}

func (e *DeliveryError) Error() string { return "notification delivery failed: " + e.Message }
func (e *DeliveryError) Unwrap() error { return e.Cause }

// Functions invokes platform functions.
type Functions interface {
	Invoke(ctx context.Context, name, bearer string, body, result interface{}) error
}

// Rows reads rows from platform tables.
type Rows interface {
	SelectRows(ctx context.Context, table string, filters url.Values, bearer string, result interface{}) error
}

// TokenSource yields the bearer used for platform calls.
type TokenSource interface {
	AccessToken() string
}

// StaticToken is a TokenSource with a fixed bearer, e.g. a service key.
type StaticToken string

func (s StaticToken) AccessToken() string { return string(s) }

type Dispatcher struct {
	fns    Functions
	rows   Rows
	tokens TokenSource
	log    *logger.Logger
}

func NewDispatcher(fns Functions, rows Rows, tokens TokenSource) *Dispatcher {
	if tokens == nil {
		tokens = StaticToken("")
	}
	return &Dispatcher{fns: fns, rows: rows, tokens: tokens, log: logger.For("notify")}
}

// Send forwards req to the delivery function without looking at preferences.
func (d *Dispatcher) Send(ctx context.Context, req Request) (*Receipt, error) {
	if !req.Channel.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidChannel, req.Channel)
	}
	var r Receipt
	if err := d.fns.Invoke(ctx, FnSendNotification, d.tokens.AccessToken(), req, &r); err != nil {
		metrics.Notifications.WithLabelValues(string(req.Category), "failed").Inc()
		var pe *platform.Error
		if errors.As(err, &pe) {
			return nil, &DeliveryError{Message: pe.Message, Cause: err}
		}
		d.log.Errorf("sending %s notification to %s: %v", req.Category, req.UserID, err)
		return nil, fmt.Errorf("sending notification: %w", err)
	}
	metrics.Notifications.WithLabelValues(string(req.Category), "sent").Inc()
	return &r, nil
}

func metricsSuppressed(c Category) {
	metrics.Notifications.WithLabelValues(string(c), "suppressed").Inc()
}
