package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdminNotificationCreateValidate(t *testing.T) {
	uid := int64(4)

	cases := []struct {
		name    string
		payload AdminNotificationCreate
		wantErr string
	}{
		{
			name: "valid announcement",
			payload: AdminNotificationCreate{
				Title:   "Maintenance",
				Message: "Down tonight.",
				Type:    TypeAnnouncement,
			},
		},
		{
			name: "valid direct",
			payload: AdminNotificationCreate{
				Title:   "Checkup",
				Message: "Please review your symptoms.",
				Type:    TypeDirect,
				UserID:  &uid,
			},
		},
		{
			name: "missing title",
			payload: AdminNotificationCreate{
				Message: "No title.",
				Type:    TypeAnnouncement,
			},
			wantErr: "title is required",
		},
		{
			name: "title too long",
			payload: AdminNotificationCreate{
				Title:   strings.Repeat("x", 201),
				Message: "Long title.",
				Type:    TypeAnnouncement,
			},
			wantErr: "200 characters",
		},
		{
			name: "missing message",
			payload: AdminNotificationCreate{
				Title: "Empty",
				Type:  TypeAnnouncement,
			},
			wantErr: "message is required",
		},
		{
			name: "announcement with user",
			payload: AdminNotificationCreate{
				Title:   "Broadcast",
				Message: "To all.",
				Type:    TypeAnnouncement,
				UserID:  &uid,
			},
			wantErr: "must not have a user_id",
		},
		{
			name: "direct without user",
			payload: AdminNotificationCreate{
				Title:   "Personal",
				Message: "To someone.",
				Type:    TypeDirect,
			},
			wantErr: "must have a user_id",
		},
		{
			name: "personalized not allowed",
			payload: AdminNotificationCreate{
				Title:   "Tip",
				Message: "Generated.",
				Type:    TypePersonalized,
			},
			wantErr: "announcement or direct",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.payload.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tc.wantErr)
			}
		})
	}
}

func TestTitleAtLimitIsValid(t *testing.T) {
	payload := AdminNotificationCreate{
		Title:   strings.Repeat("x", 200),
		Message: "Boundary.",
		Type:    TypeAnnouncement,
	}
	assert.NoError(t, payload.Validate())
}

func TestTitleLimitCountsCharactersNotBytes(t *testing.T) {
	// 200 Devanagari characters are within the limit even though they
	// take three bytes each.
	payload := AdminNotificationCreate{
		Title:   strings.Repeat("स", 200),
		Message: "Multi-byte boundary.",
		Type:    TypeAnnouncement,
	}
	assert.NoError(t, payload.Validate())

	payload.Title = strings.Repeat("स", 201)
	assert.ErrorContains(t, payload.Validate(), "200 characters")
}
