package model

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// NotificationType classifies how a notification was addressed and created.
type NotificationType string

const (
	// TypePersonalized is an AI-generated health tip for one user.
	TypePersonalized NotificationType = "personalized"

	// TypeAnnouncement is a broadcast from an administrator to all users.
	TypeAnnouncement NotificationType = "announcement"

	// TypeDirect is an administrator message to exactly one user.
	TypeDirect NotificationType = "direct"
)

// Notification represents one message addressed to the current user or,
// when UserID is nil, broadcast to every user.
type Notification struct {
	// ID is the server-assigned identifier, stable for the
	// notification's lifetime.
	ID int64 `json:"id" db:"id"`

	// UserID is nil for broadcast announcements. Only notifications
	// with a non-nil UserID may be deleted by their recipient.
	UserID *int64 `json:"user_id" db:"user_id"`

	// Type selects the icon and label shown for this notification.
	Type NotificationType `json:"type" db:"type"`

	// Title is a short heading, at most 200 characters.
	Title string `json:"title" db:"title"`

	// Message is the body text and may contain newlines.
	Message string `json:"message" db:"message"`

	// IsRead flips from false to true at most once from this client.
	IsRead bool `json:"is_read" db:"is_read"`

	// CreatedAt is the server timestamp. See ParseServerTime for how
	// zone-less wire values are interpreted.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Deletable reports whether the current user may delete this notification.
// Broadcasts (UserID == nil) are shared and cannot be removed per-recipient.
func (n Notification) Deletable() bool {
	return n.UserID != nil
}

// Stats is the independently polled total/unread summary shown on the
// bell indicator. It is not guaranteed to match the currently loaded
// list; the badge and the list reconcile on the next poll or refresh.
type Stats struct {
	Total  int `json:"total" db:"total"`
	Unread int `json:"unread" db:"unread"`
}

// zoneSuffix matches an explicit zone designator at the end of a
// timestamp: "Z", "+05:30", "-0800".
var zoneSuffix = regexp.MustCompile(`[zZ]$|[+-]\d{2}:?\d{2}$`)

// ParseServerTime parses a timestamp from the backend. The server emits
// naive timestamps ("2025-01-01 10:00:00") that are UTC by convention;
// any value without an explicit zone designator is therefore pinned to
// UTC rather than the viewer's local zone.
func ParseServerTime(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	s = strings.Replace(s, " ", "T", 1)
	if !zoneSuffix.MatchString(s) {
		s += "Z"
	}

	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05Z0700",
		"2006-01-02T15:04:05.999999999Z0700",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

// UnmarshalJSON accepts both zone-qualified and naive timestamp strings
// for created_at, normalizing the latter to UTC.
func (n *Notification) UnmarshalJSON(data []byte) error {
	type alias Notification
	aux := struct {
		*alias
		CreatedAt string `json:"created_at"`
	}{alias: (*alias)(n)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.CreatedAt != "" {
		t, err := ParseServerTime(aux.CreatedAt)
		if err != nil {
			return fmt.Errorf("notification %d: %w", n.ID, err)
		}
		n.CreatedAt = t
	}

	return nil
}
