package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServerTimeNaiveIsUTC(t *testing.T) {
	// A zone-less backend timestamp must be pinned to UTC, not the
	// viewer's local zone.
	got, err := ParseServerTime("2025-01-01 10:00:00")
	require.NoError(t, err)

	want := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	assert.True(t, got.Equal(want), "got %v, want %v", got, want)
}

func TestParseServerTimeExplicitZone(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want time.Time
	}{
		{
			name: "zulu",
			raw:  "2025-01-01T10:00:00Z",
			want: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			name: "positive offset",
			raw:  "2025-01-01T15:30:00+05:30",
			want: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			name: "space separator with offset",
			raw:  "2025-01-01 15:30:00+05:30",
			want: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			name: "fractional seconds naive",
			raw:  "2025-01-01 10:00:00.123456",
			want: time.Date(2025, 1, 1, 10, 0, 0, 123456000, time.UTC),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseServerTime(tc.raw)
			require.NoError(t, err)
			assert.True(t, got.Equal(tc.want), "got %v, want %v", got, tc.want)
		})
	}
}

func TestParseServerTimeRejectsGarbage(t *testing.T) {
	_, err := ParseServerTime("")
	assert.Error(t, err)

	_, err = ParseServerTime("not a timestamp")
	assert.Error(t, err)
}

func TestNotificationUnmarshalNormalizesCreatedAt(t *testing.T) {
	raw := `{
		"id": 7,
		"user_id": 3,
		"type": "personalized",
		"title": "Health Tip",
		"message": "Drink water.",
		"is_read": false,
		"created_at": "2025-01-01 10:00:00"
	}`

	var n Notification
	require.NoError(t, json.Unmarshal([]byte(raw), &n))

	assert.Equal(t, int64(7), n.ID)
	require.NotNil(t, n.UserID)
	assert.Equal(t, int64(3), *n.UserID)
	assert.Equal(t, TypePersonalized, n.Type)
	assert.False(t, n.IsRead)

	want := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	assert.True(t, n.CreatedAt.Equal(want), "got %v, want %v", n.CreatedAt, want)
}

func TestNotificationUnmarshalNullUserID(t *testing.T) {
	raw := `{
		"id": 1,
		"user_id": null,
		"type": "announcement",
		"title": "Maintenance",
		"message": "Down tonight.",
		"is_read": false,
		"created_at": "2025-06-01T08:00:00Z"
	}`

	var n Notification
	require.NoError(t, json.Unmarshal([]byte(raw), &n))
	assert.Nil(t, n.UserID)
	assert.False(t, n.Deletable())
}

func TestDeletable(t *testing.T) {
	uid := int64(5)

	assert.True(t, Notification{UserID: &uid}.Deletable())
	assert.False(t, Notification{UserID: nil}.Deletable())
}
