// Package realtime fans out per-user change notifications so open dashboards can refresh.
package realtime

import (
	"context"
	"time"
)

// EventKind names what changed.
type EventKind string

// Event kinds.
const (
	EventRoutineSaved    EventKind = "routine_saved"
	EventRoutinesDeleted EventKind = "routines_deleted"
)

// subscriberBuffer bounds how many events a slow subscriber may lag behind before drops.
const subscriberBuffer = 8

// ChangeEvent tells a subscriber that a user's routines changed. It carries no row data:
// receivers re-read the full state.
type ChangeEvent struct {
	UserID string    `json:"user_id"`
	Kind   EventKind `json:"kind"`
	Date   string    `json:"date,omitempty"`
	At     time.Time `json:"at"`
}

// Notifier publishes change events and hands out per-user subscriptions.
type Notifier interface {
	// Publish never blocks on slow subscribers; events they cannot take are dropped.
	Publish(ctx context.Context, userID string, ev ChangeEvent) error
	// Subscribe returns a channel of the user's events and an unsubscribe func.
	// The func must be called on teardown; it is safe to call more than once.
	// The subscription also ends when ctx is done.
	Subscribe(ctx context.Context, userID string) (<-chan ChangeEvent, func(), error)
}
