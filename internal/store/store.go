package store

import (
	"context"

	"github.com/healthbell/healthbell/internal/model"
)

// NotificationFilter controls filtering and pagination for cached
// notification queries.
type NotificationFilter struct {
	UnreadOnly bool
	Type       *model.NotificationType
	Limit      int
	Offset     int
}

// Store defines the local cache interface. The cache holds the last
// fetched notification snapshot so the panel can show something while
// offline, plus the last stats sample for the bell badge. The backend
// remains authoritative; every successful fetch replaces the snapshot.
type Store interface {
	// ReplaceNotifications swaps the cached snapshot for this one.
	ReplaceNotifications(ctx context.Context, notifications []model.Notification) error

	// GetNotifications reads cached notifications, newest first.
	GetNotifications(ctx context.Context, filter NotificationFilter) ([]model.Notification, error)

	// KnownIDs returns the set of cached notification IDs, used to
	// detect new arrivals between polls.
	KnownIDs(ctx context.Context) (map[int64]bool, error)

	// MarkNotificationRead mirrors an optimistic mark-read locally.
	MarkNotificationRead(ctx context.Context, id int64) error

	// MarkAllNotificationsRead mirrors an optimistic mark-all locally.
	MarkAllNotificationsRead(ctx context.Context) error

	// DeleteNotification mirrors an optimistic delete locally.
	DeleteNotification(ctx context.Context, id int64) error

	// SaveStats records the most recent stats sample.
	SaveStats(ctx context.Context, stats model.Stats) error

	// GetStats returns the last recorded stats sample, or zeros when
	// no sample has been stored yet.
	GetStats(ctx context.Context) (model.Stats, error)

	Close() error
}
