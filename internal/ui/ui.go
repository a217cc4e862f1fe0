// Package ui defines the side effects the companion asks the UI to perform:
// toast-style notices and navigation. Presentation lives in the UI itself.
package ui

import (
	"errors"
	"sync"

	"github.com/linguaflow/linguaflow/client/go-companion/pkg/logger"
)

// ErrPopupBlocked is returned by OpenIsolated when a new browsing context cannot be opened.
var ErrPopupBlocked = errors.New("popup blocked")

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notice is a short message for the user.
type Notice struct {
	Level   Level  `json:"level"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

func Info(title, msg string) Notice    { return Notice{Level: LevelInfo, Title: title, Message: msg} }
func Success(title, msg string) Notice { return Notice{Level: LevelSuccess, Title: title, Message: msg} }
func Error(title, msg string) Notice   { return Notice{Level: LevelError, Title: title, Message: msg} }

// Notifier surfaces notices to the user.
type Notifier interface {
	Notify(n Notice)
}

// Navigator moves the UI to another location.
type Navigator interface {
	// Assign replaces the current page.
	Assign(url string)
	// OpenIsolated opens url in a new browsing context with no opener or referrer.
	OpenIsolated(url string) error
	// CurrentURL is the page the UI is showing.
	CurrentURL() string
}

// Navigation is a pending navigation request.
type Navigation struct {
	URL      string `json:"url"`
	Isolated bool   `json:"isolated"`
}

// Effects is everything queued for the UI since the last Drain.
type Effects struct {
	Notices    []Notice    `json:"notices"`
	Navigation *Navigation `json:"navigation,omitempty"`
}

// Outbox queues effects until the UI bridge hands them over. It implements
// both Notifier and Navigator.
type Outbox struct {
	mu            sync.Mutex
	notices       []Notice
	nav           *Navigation
	currentURL    string
	popupsAllowed bool
}

func NewOutbox() *Outbox {
	return &Outbox{popupsAllowed: true}
}

func (o *Outbox) Notify(n Notice) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.notices = append(o.notices, n)
}

func (o *Outbox) Assign(url string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.nav = &Navigation{URL: url}
	o.currentURL = url
}

func (o *Outbox) OpenIsolated(url string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.popupsAllowed {
		return ErrPopupBlocked
	}
	o.nav = &Navigation{URL: url, Isolated: true}
	return nil
}

func (o *Outbox) CurrentURL() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.currentURL
}

// SetCurrentURL records the page the UI reports it is on.
func (o *Outbox) SetCurrentURL(url string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.currentURL = url
}

// SetPopupsAllowed records whether the UI can open new browsing contexts.
func (o *Outbox) SetPopupsAllowed(ok bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.popupsAllowed = ok
}

// Drain returns and clears the queued effects.
func (o *Outbox) Drain() Effects {
	o.mu.Lock()
	defer o.mu.Unlock()
	e := Effects{Notices: o.notices, Navigation: o.nav}
	if e.Notices == nil {
		e.Notices = []Notice{}
	}
	o.notices = nil
	o.nav = nil
	return e
}

// LogNotifier writes notices to the log. Used by headless commands.
type LogNotifier struct{}

func (LogNotifier) Notify(n Notice) {
	switch n.Level {
	case LevelError:
		logger.Warnf("notice: %s: %s", n.Title, n.Message)
	default:
		logger.Infof("notice: %s: %s", n.Title, n.Message)
	}
}
