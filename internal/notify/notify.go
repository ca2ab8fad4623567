// Package notify keeps the short-lived user notifications raised by
// requests and store mutations.
package notify

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	insighterrors "github.com/kubeadapt/resource-insight/internal/errors"
	"github.com/kubeadapt/resource-insight/internal/observability"
)

// Type is the severity of a notification.
type Type string

const (
	TypeSuccess Type = "success"
	TypeWarning Type = "warning"
	TypeError   Type = "error"
	TypeInfo    Type = "info"
)

const (
	// DefaultToastDuration applies to request failure toasts.
	DefaultToastDuration = 3 * time.Second
	// DefaultNotifyDuration applies to store notifications.
	DefaultNotifyDuration = 5 * time.Second
)

// Notification is one message. A zero Duration never expires.
type Notification struct {
	ID        string        `json:"id"`
	Type      Type          `json:"type"`
	Title     string        `json:"title"`
	Message   string        `json:"message"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
}

// Expired reports whether n has outlived its duration at now.
func (n Notification) Expired(now time.Time) bool {
	return n.Duration > 0 && now.Sub(n.Timestamp) >= n.Duration
}

// Center holds active notifications, oldest first. Expired entries are
// pruned on read.
type Center struct {
	mu    sync.Mutex
	items []Notification

	clock          insighterrors.Clock
	metrics        *observability.Metrics
	logger         *slog.Logger
	toastDuration  time.Duration
	notifyDuration time.Duration
	listeners      []func(Notification)
}

// Option customizes a Center.
type Option func(*Center)

// WithDurations overrides the toast and store notification durations.
func WithDurations(toast, notify time.Duration) Option {
	return func(c *Center) {
		c.toastDuration = toast
		c.notifyDuration = notify
	}
}

func WithMetrics(m *observability.Metrics) Option {
	return func(c *Center) { c.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Center) { c.logger = l }
}

// NewCenter creates an empty Center. A nil clock uses the system clock.
func NewCenter(clock insighterrors.Clock, opts ...Option) *Center {
	if clock == nil {
		clock = insighterrors.RealClock{}
	}
	c := &Center{
		clock:          clock,
		logger:         slog.Default(),
		toastDuration:  DefaultToastDuration,
		notifyDuration: DefaultNotifyDuration,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add records a notification and returns it.
func (c *Center) Add(typ Type, title, message string, d time.Duration) Notification {
	n := Notification{
		ID:        uuid.NewString(),
		Type:      typ,
		Title:     title,
		Message:   message,
		Duration:  d,
		Timestamp: c.clock.Now(),
	}

	c.mu.Lock()
	c.pruneLocked(n.Timestamp)
	c.items = append(c.items, n)
	listeners := slices.Clone(c.listeners)
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.NotificationsTotal.WithLabelValues(string(typ)).Inc()
	}
	c.logger.Debug("notification", "type", typ, "title", title, "message", message)
	for _, fn := range listeners {
		fn(n)
	}
	return n
}

func (c *Center) Success(title, message string) {
	c.Add(TypeSuccess, title, message, c.notifyDuration)
}

func (c *Center) Warning(title, message string) {
	c.Add(TypeWarning, title, message, c.notifyDuration)
}

func (c *Center) Error(title, message string) {
	c.Add(TypeError, title, message, c.notifyDuration)
}

func (c *Center) Info(title, message string) {
	c.Add(TypeInfo, title, message, c.notifyDuration)
}

// NotifyError raises a request failure toast.
func (c *Center) NotifyError(title, message string) {
	c.Add(TypeError, title, message, c.toastDuration)
}

// OnAdd registers fn to be called with every new notification.
func (c *Center) OnAdd(fn func(Notification)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Active returns the unexpired notifications, oldest first.
func (c *Center) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pruneLocked(c.clock.Now())
	return append([]Notification(nil), c.items...)
}

// Dismiss removes the notification with id. It reports whether one was found.
func (c *Center) Dismiss(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, n := range c.items {
		if n.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Center) Clear() {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()
}

func (c *Center) pruneLocked(now time.Time) {
	kept := c.items[:0]
	for _, n := range c.items {
		if !n.Expired(now) {
			kept = append(kept, n)
		}
	}
	clear(c.items[len(kept):])
	c.items = kept
}
