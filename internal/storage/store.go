// Package storage persists durable per-chat state: subscriptions, contact
// handles, tracked alerts, and the two notification-dedup record kinds.
package storage

import (
	"context"
	"time"
)

// ChatContact pairs a chat with its derived contact handle.
type ChatContact struct {
	ChatID  int64
	Contact string
}

// Store is the persistence API consumed by the dialog engine and the
// polling pipeline. All dedup/tracking writes are idempotent
// (insert-if-absent), so repeated or concurrent execution never produces
// duplicate rows.
type Store interface {
	AddSubscriber(ctx context.Context, chatID int64) error
	RemoveSubscriber(ctx context.Context, chatID int64) error
	IsSubscriber(ctx context.Context, chatID int64) (bool, error)
	Subscribers(ctx context.Context) ([]int64, error)

	// ContactFor returns the chat's contact handle, creating it on first use.
	// Handles are immutable once created.
	ContactFor(ctx context.Context, chatID int64) (string, error)

	SaveAlert(ctx context.Context, chatID, alertID int64) error
	// DeleteAlert removes the tracked alert and cascades to its dedup records.
	DeleteAlert(ctx context.Context, chatID, alertID int64) error
	ChatsWithAlerts(ctx context.Context) ([]ChatContact, error)

	DealSeen(ctx context.Context, chatID, dealID int64) (bool, error)
	MarkDealSeen(ctx context.Context, chatID, dealID int64) error

	AlertDealNotified(ctx context.Context, chatID, alertID, dealID int64) (bool, error)
	MarkAlertDealNotified(ctx context.Context, chatID, alertID, dealID int64) error

	// PruneSeenDeals deletes seen-deal records older than the horizon and
	// reports how many were removed. Alert dedup records are never pruned.
	PruneSeenDeals(ctx context.Context, olderThan time.Duration) (int64, error)

	Close() error
}

// Config configures the sqlite store.
type Config struct {
	Path        string
	BusyTimeout time.Duration // 0 means default
}
