package notify

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"campusd/internal/metrics"
	"campusd/internal/queue"
)

// Variant selects how a notification is presented.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// MessageType tags notifications on the queue.
const MessageType = "notification"

// Notification is a transient, user-visible message about the outcome of an operation.
type Notification struct {
	ID          string    `json:"id"`
	Operator    string    `json:"operator,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Variant     Variant   `json:"variant"`
	CreatedAt   time.Time `json:"created_at"`
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// New stamps a notification with an id and creation time.
func New(title, description string, variant Variant) Notification {
	now := time.Now().UTC()
	entropyMu.Lock()
	id := ulid.MustNew(ulid.Timestamp(now), entropy)
	entropyMu.Unlock()
	return Notification{
		ID:          id.String(),
		Title:       title,
		Description: description,
		Variant:     variant,
		CreatedAt:   now,
	}
}

// Success builds a default notification.
func Success(title, description string) Notification {
	return New(title, description, VariantDefault)
}

// Failure builds a destructive notification.
func Failure(title, description string) Notification {
	return New(title, description, VariantDestructive)
}

// Feed keeps the most recent notifications in memory until drained.
type Feed struct {
	mu    sync.Mutex
	items []Notification
	limit int
}

// NewFeed creates a feed holding at most limit notifications.
func NewFeed(limit int) *Feed {
	if limit <= 0 {
		limit = 50
	}
	return &Feed{limit: limit}
}

// Notify appends n, dropping the oldest entry once the feed is full.
func (f *Feed) Notify(_ context.Context, n Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, n)
	if len(f.items) > f.limit {
		f.items = f.items[len(f.items)-f.limit:]
	}
}

// Drain returns all pending notifications, oldest first, and empties the feed.
func (f *Feed) Drain() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.items
	f.items = nil
	if out == nil {
		out = []Notification{}
	}
	return out
}

// Publisher forwards notifications to a queue for the worker.
type Publisher struct {
	q   queue.Queue
	log *zap.Logger
}

// NewPublisher creates a queue-backed notifier.
func NewPublisher(q queue.Queue, log *zap.Logger) *Publisher {
	return &Publisher{q: q, log: log}
}

// Notify publishes n. Delivery is best effort; failures are logged.
func (p *Publisher) Notify(ctx context.Context, n Notification) {
	body, err := json.Marshal(n)
	if err != nil {
		p.log.Warn("encode notification failed", zap.Error(err))
		return
	}
	if err := p.q.Publish(ctx, queue.Message{Type: MessageType, Body: body}); err != nil {
		p.log.Warn("publish notification failed", zap.String("id", n.ID), zap.Error(err))
		return
	}
	metrics.NotificationsPublished.WithLabelValues(string(n.Variant)).Inc()
}

// Decode parses a queued notification.
func Decode(msg queue.Message) (Notification, error) {
	var n Notification
	err := json.Unmarshal(msg.Body, &n)
	return n, err
}

// Tee fans a notification out to several notifiers, stamping the operator on the way.
type Tee struct {
	Operator string
	Targets  []Notifier
}

// Notify delivers n to every target.
func (t Tee) Notify(ctx context.Context, n Notification) {
	if n.Operator == "" {
		n.Operator = t.Operator
	}
	for _, target := range t.Targets {
		target.Notify(ctx, n)
	}
}
