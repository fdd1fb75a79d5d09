package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/healthbell/healthbell/internal/model"
)

// notificationRow is the database representation of a cached notification.
type notificationRow struct {
	ID        int64         `db:"id"`
	UserID    sql.NullInt64 `db:"user_id"`
	Type      string        `db:"type"`
	Title     string        `db:"title"`
	Message   string        `db:"message"`
	IsRead    int           `db:"is_read"`
	CreatedAt time.Time     `db:"created_at"`
	FetchedAt time.Time     `db:"fetched_at"`
}

// toModel converts a row to the domain type.
func (r notificationRow) toModel() model.Notification {
	n := model.Notification{
		ID:        r.ID,
		Type:      model.NotificationType(r.Type),
		Title:     r.Title,
		Message:   r.Message,
		IsRead:    r.IsRead != 0,
		CreatedAt: r.CreatedAt.UTC(),
	}
	if r.UserID.Valid {
		uid := r.UserID.Int64
		n.UserID = &uid
	}
	return n
}

// ReplaceNotifications swaps the cached snapshot for the given list in
// one transaction, so readers never observe a half-replaced cache.
func (s *SQLiteStore) ReplaceNotifications(
	ctx context.Context,
	notifications []model.Notification,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM notifications"); err != nil {
		return fmt.Errorf("clearing notification cache: %w", err)
	}

	now := time.Now().UTC()
	for _, n := range notifications {
		var userID interface{}
		if n.UserID != nil {
			userID = *n.UserID
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO notifications
				(id, user_id, type, title, message, is_read, created_at, fetched_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			n.ID, userID, string(n.Type), n.Title, n.Message,
			boolToInt(n.IsRead), n.CreatedAt.UTC(), now,
		)
		if err != nil {
			return fmt.Errorf("caching notification %d: %w", n.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing notification cache: %w", err)
	}
	return nil
}

// GetNotifications reads cached notifications, newest first.
func (s *SQLiteStore) GetNotifications(
	ctx context.Context,
	filter NotificationFilter,
) ([]model.Notification, error) {
	query := "SELECT id, user_id, type, title, message, is_read, created_at, fetched_at FROM notifications"
	var args []interface{}
	var where []string

	if filter.UnreadOnly {
		where = append(where, "is_read = 0")
	}
	if filter.Type != nil {
		where = append(where, "type = ?")
		args = append(args, string(*filter.Type))
	}

	for i, cond := range where {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}

	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	var rows []notificationRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("reading notification cache: %w", err)
	}

	notifications := make([]model.Notification, 0, len(rows))
	for _, r := range rows {
		notifications = append(notifications, r.toModel())
	}
	return notifications, nil
}

// KnownIDs returns the set of cached notification IDs.
func (s *SQLiteStore) KnownIDs(ctx context.Context) (map[int64]bool, error) {
	var ids []int64
	if err := s.db.SelectContext(ctx, &ids, "SELECT id FROM notifications"); err != nil {
		return nil, fmt.Errorf("reading cached notification ids: %w", err)
	}

	known := make(map[int64]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}
	return known, nil
}

// MarkNotificationRead mirrors a mark-read in the cache. Marking an
// already-read or unknown id is a no-op, matching the backend.
func (s *SQLiteStore) MarkNotificationRead(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(
		ctx, "UPDATE notifications SET is_read = 1 WHERE id = ?", id,
	)
	if err != nil {
		return fmt.Errorf("marking cached notification %d read: %w", id, err)
	}
	return nil
}

// MarkAllNotificationsRead mirrors a mark-all in the cache.
func (s *SQLiteStore) MarkAllNotificationsRead(ctx context.Context) error {
	_, err := s.db.ExecContext(
		ctx, "UPDATE notifications SET is_read = 1 WHERE is_read = 0",
	)
	if err != nil {
		return fmt.Errorf("marking cached notifications read: %w", err)
	}
	return nil
}

// DeleteNotification mirrors a delete in the cache.
func (s *SQLiteStore) DeleteNotification(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(
		ctx, "DELETE FROM notifications WHERE id = ?", id,
	)
	if err != nil {
		return fmt.Errorf("deleting cached notification %d: %w", id, err)
	}
	return nil
}

// SaveStats upserts the single stats sample row.
func (s *SQLiteStore) SaveStats(ctx context.Context, stats model.Stats) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stats (id, total, unread, sampled_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			total = excluded.total,
			unread = excluded.unread,
			sampled_at = excluded.sampled_at`,
		stats.Total, stats.Unread, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving stats sample: %w", err)
	}
	return nil
}

// GetStats returns the last stats sample, or zeros when none exists.
func (s *SQLiteStore) GetStats(ctx context.Context) (model.Stats, error) {
	var stats model.Stats
	err := s.db.GetContext(
		ctx, &stats, "SELECT total, unread FROM stats WHERE id = 1",
	)
	if err != nil {
		if isNoRows(err) {
			return model.Stats{}, nil
		}
		return model.Stats{}, fmt.Errorf("reading stats sample: %w", err)
	}
	return stats, nil
}
