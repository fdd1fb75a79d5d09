package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/healthbell/healthbell/internal/model"
)

// messageBody is the backend's acknowledgement envelope for mutations
// that do not return a notification.
type messageBody struct {
	Message string `json:"message"`
}

// List fetches the caller's visible notifications, newest first. With
// unreadOnly set, filtering happens server-side via the query parameter.
func (c *Client) List(
	ctx context.Context,
	unreadOnly bool,
) ([]model.Notification, error) {
	path := fmt.Sprintf("/api/notifications?unread_only=%t", unreadOnly)

	var notifications []model.Notification
	if err := c.Get(ctx, path, &notifications); err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	return notifications, nil
}

// Stats fetches the total/unread counters for the bell badge. The
// counters are computed server-side and may lag the list.
func (c *Client) Stats(ctx context.Context) (model.Stats, error) {
	var stats model.Stats
	if err := c.Get(ctx, "/api/notifications/stats", &stats); err != nil {
		return model.Stats{}, fmt.Errorf("fetching notification stats: %w", err)
	}
	return stats, nil
}

// MarkRead marks a single notification as read and returns the updated
// record. The backend treats repeat calls on an already-read
// notification as a no-op success.
func (c *Client) MarkRead(
	ctx context.Context,
	id int64,
) (model.Notification, error) {
	path := fmt.Sprintf("/api/notifications/%d/read", id)

	var n model.Notification
	if err := c.Patch(ctx, path, nil, &n); err != nil {
		return model.Notification{}, fmt.Errorf("marking notification %d read: %w", id, err)
	}
	return n, nil
}

// MarkAllRead marks every unread notification for the caller as read in
// one call and returns the backend's acknowledgement message.
func (c *Client) MarkAllRead(ctx context.Context) (string, error) {
	var body messageBody
	if err := c.Patch(ctx, "/api/notifications/read-all", nil, &body); err != nil {
		return "", fmt.Errorf("marking all notifications read: %w", err)
	}
	return body.Message, nil
}

// DeleteNotification removes one notification. The backend rejects the
// call (404) when the notification does not exist or does not belong to
// the caller, which includes all broadcasts.
func (c *Client) DeleteNotification(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/api/notifications/%d", id)

	if err := c.Delete(ctx, path, nil); err != nil {
		return fmt.Errorf("deleting notification %d: %w", id, err)
	}
	return nil
}

// Generate requests a new AI-generated personalized health tip in the
// given language ("en" or "hi"). This is a slow call; callers should
// track it separately from ordinary list loading.
func (c *Client) Generate(
	ctx context.Context,
	language string,
) (model.Notification, error) {
	path := "/api/notifications/personalized?language=" + url.QueryEscape(language)

	var n model.Notification
	if err := c.Post(ctx, path, nil, &n); err != nil {
		return model.Notification{}, fmt.Errorf("generating notification: %w", err)
	}
	return n, nil
}

// CreateAdminNotification creates an announcement (broadcast) or a
// direct notification. Admin only; payload constraints are validated
// locally before the request is sent.
func (c *Client) CreateAdminNotification(
	ctx context.Context,
	create model.AdminNotificationCreate,
) (model.Notification, error) {
	if err := create.Validate(); err != nil {
		return model.Notification{}, err
	}

	var n model.Notification
	if err := c.Post(ctx, "/api/notifications/admin/create", create, &n); err != nil {
		return model.Notification{}, fmt.Errorf("creating admin notification: %w", err)
	}
	return n, nil
}

// ListUsers fetches the recipient list with per-user feedback summaries
// for targeting direct notifications. Admin only.
func (c *Client) ListUsers(ctx context.Context) ([]model.UserSummary, error) {
	var users []model.UserSummary
	if err := c.Get(ctx, "/api/notifications/admin/users", &users); err != nil {
		return nil, fmt.Errorf("listing notification recipients: %w", err)
	}
	return users, nil
}

// BroadcastAI asks the backend to generate a personalized notification
// for every user. Admin only; this can take a long while on large user
// bases since generation happens per user.
func (c *Client) BroadcastAI(
	ctx context.Context,
	language string,
) (model.BroadcastResult, error) {
	path := "/api/notifications/admin/broadcast-ai?language=" + url.QueryEscape(language)

	var result model.BroadcastResult
	if err := c.Post(ctx, path, nil, &result); err != nil {
		return model.BroadcastResult{}, fmt.Errorf("broadcasting AI notifications: %w", err)
	}
	return result, nil
}
