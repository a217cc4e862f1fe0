package notify

import (
	"context"
	"net/url"
)

// Preferences are the channels a category may use for one user.
type Preferences struct {
	Email bool `json:"email"`
	Push  bool `json:"push"`
}

// DefaultPreferences apply when no row exists or it cannot be read.
var DefaultPreferences = Preferences{Email: true, Push: false}

var categoryColumn = map[Category]string{
	CategoryAchievement:    "achievement_notifications",
	CategoryDailyGoal:      "daily_goal_reminders",
	CategoryStreakReminder: "streak_reminders",
	CategoryLessonReminder: "lesson_reminders",
	CategoryWeeklySummary:  "weekly_summary",
}

// preferenceRow mirrors the table; nil columns are unset and count as enabled.
type preferenceRow struct {
	UserID                   string `json:"user_id"`
	EmailEnabled             *bool  `json:"email_enabled"`
	PushEnabled              *bool  `json:"push_enabled"`
	LessonReminders          *bool  `json:"lesson_reminders"`
	StreakReminders          *bool  `json:"streak_reminders"`
	AchievementNotifications *bool  `json:"achievement_notifications"`
	DailyGoalReminders       *bool  `json:"daily_goal_reminders"`
	WeeklySummary            *bool  `json:"weekly_summary"`
}

func (r preferenceRow) category(c Category) *bool {
	switch c {
	case CategoryAchievement:
		return r.AchievementNotifications
	case CategoryDailyGoal:
		return r.DailyGoalReminders
	case CategoryStreakReminder:
		return r.StreakReminders
	case CategoryLessonReminder:
		return r.LessonReminders
	case CategoryWeeklySummary:
		return r.WeeklySummary
	}
	return nil
}

func enabled(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// CheckPreferences reads the user's preferences for category. It never
// fails: any read problem or a missing row yields DefaultPreferences.
func (d *Dispatcher) CheckPreferences(ctx context.Context, userID string, category Category) Preferences {
	var rows []preferenceRow
	filters := url.Values{"user_id": {"eq." + userID}, "limit": {"1"}}
	if err := d.rows.SelectRows(ctx, PreferencesTable, filters, d.tokens.AccessToken(), &rows); err != nil {
		d.log.Warnf("reading preferences for %s, using defaults: %v", userID, err)
		return DefaultPreferences
	}
	if len(rows) == 0 {
		return DefaultPreferences
	}
	row := rows[0]
	if !enabled(row.category(category), true) {
		return Preferences{}
	}
	return Preferences{
		Email: enabled(row.EmailEnabled, DefaultPreferences.Email),
		Push:  enabled(row.PushEnabled, DefaultPreferences.Push),
	}
}

// effectiveChannel narrows requested to what prefs allow; ok is false when nothing may be sent.
func effectiveChannel(requested Channel, prefs Preferences) (ch Channel, ok bool) {
	switch requested {
	case ChannelBoth:
		switch {
		case prefs.Email && prefs.Push:
			return ChannelBoth, true
		case prefs.Email:
			return ChannelEmail, true
		case prefs.Push:
			return ChannelPush, true
		}
	case ChannelEmail:
		return ChannelEmail, prefs.Email
	case ChannelPush:
		return ChannelPush, prefs.Push
	}
	return "", false
}

// SendWithPreferences sends req on the channels the user allows. When the
// user allows none of the requested channels nothing is sent and (nil, nil)
// is returned.
func (d *Dispatcher) SendWithPreferences(ctx context.Context, req Request) (*Receipt, error) {
	if !req.Channel.Valid() {
		return nil, ErrInvalidChannel
	}
	prefs := d.CheckPreferences(ctx, req.UserID, req.Category)
	ch, ok := effectiveChannel(req.Channel, prefs)
	if !ok {
		d.log.Infof("%s notification for %s suppressed by preferences", req.Category, req.UserID)
		metricsSuppressed(req.Category)
		return nil, nil
	}
	req.Channel = ch
	return d.Send(ctx, req)
}
