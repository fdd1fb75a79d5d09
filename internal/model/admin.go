package model

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// maxTitleLength mirrors the backend's schema limit, in characters.
const maxTitleLength = 200

// AdminNotificationCreate is the payload for creating an announcement
// (broadcast) or a direct message as an administrator.
type AdminNotificationCreate struct {
	Title   string           `json:"title"`
	Message string           `json:"message"`
	Type    NotificationType `json:"type"`

	// UserID must be set for direct notifications and nil for
	// announcements; the backend rejects the other combinations.
	UserID *int64 `json:"user_id"`
}

// Validate checks the payload against the backend's constraints so that
// obviously invalid sends fail before a round trip.
func (c AdminNotificationCreate) Validate() error {
	if c.Title == "" {
		return fmt.Errorf("title is required")
	}
	if utf8.RuneCountInString(c.Title) > maxTitleLength {
		return fmt.Errorf("title exceeds %d characters", maxTitleLength)
	}
	if c.Message == "" {
		return fmt.Errorf("message is required")
	}

	switch c.Type {
	case TypeAnnouncement:
		if c.UserID != nil {
			return fmt.Errorf("announcements must not have a user_id")
		}
	case TypeDirect:
		if c.UserID == nil {
			return fmt.Errorf("direct notifications must have a user_id")
		}
	default:
		return fmt.Errorf("admin notifications must be announcement or direct, got %q", c.Type)
	}

	return nil
}

// FeedbackSummary aggregates a user's prediction activity, shown when an
// administrator picks a recipient for a direct notification.
type FeedbackSummary struct {
	TotalPredictions int    `json:"total_predictions"`
	FeedbackCount    int    `json:"feedback_count"`
	LastActivity     string `json:"last_activity"`
}

// UserSummary is one row of the admin recipient list.
type UserSummary struct {
	ID              int64           `json:"id"`
	Email           string          `json:"email"`
	FullName        string          `json:"full_name"`
	CreatedAt       time.Time       `json:"created_at"`
	FeedbackSummary FeedbackSummary `json:"feedback_summary"`
}

// BroadcastResult reports the outcome of an admin AI broadcast.
type BroadcastResult struct {
	Message    string `json:"message"`
	TotalUsers int    `json:"total_users"`
}
