package session

import (
	"context"
	"sync"
)

// Logout reasons.
const (
	ReasonSignOut      = "sign_out"
	ReasonUnauthorized = "unauthorized"
	ReasonExpired      = "expired"
)

// LogoutEvent describes a session that just ended.
type LogoutEvent struct {
	UserID int
	ViewID string
	Reason string
}

// Subscriber is called once for every ended session.
type Subscriber func(ctx context.Context, event LogoutEvent)

// Notifier fans logout events out to its subscribers.
type Notifier struct {
	mu   sync.RWMutex
	subs []Subscriber
}

// NewNotifier creates an empty Notifier.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Subscribe registers fn for future logout events.
func (n *Notifier) Subscribe(fn Subscriber) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subs = append(n.subs, fn)
}

// Notify calls every subscriber in registration order.
func (n *Notifier) Notify(ctx context.Context, event LogoutEvent) {
	n.mu.RLock()
	subs := n.subs
	n.mu.RUnlock()

	for _, fn := range subs {
		fn(ctx, event)
	}
}
