package api_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthbell/healthbell/internal/api"
	"github.com/healthbell/healthbell/internal/model"
	"github.com/healthbell/healthbell/tests/testutil"
)

func newTestClient(t *testing.T) (*api.Client, *testutil.Backend) {
	t.Helper()
	backend := testutil.NewBackend(t)
	client := api.NewClient(backend.URL(), testutil.Token, 5*time.Second)
	return client, backend
}

func seedMixed(backend *testutil.Backend) (read, unread model.Notification) {
	uid := int64(1)
	read = backend.Seed(model.Notification{
		UserID:  &uid,
		Type:    model.TypePersonalized,
		Title:   "Old tip",
		Message: "Already seen.",
		IsRead:  true,
	})
	unread = backend.Seed(model.Notification{
		Type:    model.TypeAnnouncement,
		Title:   "Maintenance",
		Message: "Down tonight.",
	})
	return read, unread
}

func TestListNewestFirst(t *testing.T) {
	client, backend := newTestClient(t)
	read, unread := seedMixed(backend)

	got, err := client.List(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, unread.ID, got[0].ID)
	assert.Equal(t, read.ID, got[1].ID)
	assert.False(t, got[0].CreatedAt.IsZero())
}

func TestListUnreadOnly(t *testing.T) {
	client, backend := newTestClient(t)
	_, unread := seedMixed(backend)

	got, err := client.List(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, unread.ID, got[0].ID)
}

func TestStats(t *testing.T) {
	client, backend := newTestClient(t)
	seedMixed(backend)

	stats, err := client.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.Stats{Total: 2, Unread: 1}, stats)
}

func TestMarkReadIsIdempotent(t *testing.T) {
	client, backend := newTestClient(t)
	_, unread := seedMixed(backend)

	updated, err := client.MarkRead(context.Background(), unread.ID)
	require.NoError(t, err)
	assert.True(t, updated.IsRead)

	// A second call on the now-read notification still succeeds.
	updated, err = client.MarkRead(context.Background(), unread.ID)
	require.NoError(t, err)
	assert.True(t, updated.IsRead)

	stats, err := client.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Unread)
}

func TestMarkReadMissingIsNotFound(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.MarkRead(context.Background(), 999)
	require.Error(t, err)
	assert.True(t, api.IsNotFound(err))
}

func TestMarkAllRead(t *testing.T) {
	client, backend := newTestClient(t)
	seedMixed(backend)
	backend.Seed(model.Notification{
		Type:    model.TypeAnnouncement,
		Title:   "Second",
		Message: "Also unread.",
	})

	msg, err := client.MarkAllRead(context.Background())
	require.NoError(t, err)
	assert.Contains(t, msg, "2")

	got, err := client.List(context.Background(), true)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDeleteOwnNotification(t *testing.T) {
	client, backend := newTestClient(t)
	read, _ := seedMixed(backend)

	require.NoError(t, client.DeleteNotification(context.Background(), read.ID))

	got, err := client.List(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.NotEqual(t, read.ID, got[0].ID)
}

func TestDeleteBroadcastIsNotFound(t *testing.T) {
	client, backend := newTestClient(t)
	_, broadcast := seedMixed(backend)

	err := client.DeleteNotification(context.Background(), broadcast.ID)
	require.Error(t, err)
	assert.True(t, api.IsNotFound(err))

	// Nothing was removed.
	assert.Len(t, backend.Notifications(), 2)
}

func TestGenerate(t *testing.T) {
	client, _ := newTestClient(t)

	n, err := client.Generate(context.Background(), "en")
	require.NoError(t, err)
	assert.Equal(t, model.TypePersonalized, n.Type)
	assert.NotEmpty(t, n.Message)

	got, err := client.List(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, n.ID, got[0].ID)
}

func TestGenerateRejectsUnknownLanguage(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.Generate(context.Background(), "fr")
	require.Error(t, err)

	var statusErr *api.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 422, statusErr.StatusCode)
}

func TestCreateAdminAnnouncement(t *testing.T) {
	client, _ := newTestClient(t)

	n, err := client.CreateAdminNotification(context.Background(), model.AdminNotificationCreate{
		Title:   "Scheduled maintenance",
		Message: "Service will be offline at midnight UTC.",
		Type:    model.TypeAnnouncement,
	})
	require.NoError(t, err)
	assert.Nil(t, n.UserID)
	assert.Equal(t, model.TypeAnnouncement, n.Type)
}

func TestCreateAdminDirect(t *testing.T) {
	client, _ := newTestClient(t)
	uid := int64(7)

	n, err := client.CreateAdminNotification(context.Background(), model.AdminNotificationCreate{
		Title:   "Follow up",
		Message: "Please log your symptoms.",
		Type:    model.TypeDirect,
		UserID:  &uid,
	})
	require.NoError(t, err)
	require.NotNil(t, n.UserID)
	assert.Equal(t, uid, *n.UserID)
}

func TestCreateAdminValidatesBeforeSending(t *testing.T) {
	client, backend := newTestClient(t)

	_, err := client.CreateAdminNotification(context.Background(), model.AdminNotificationCreate{
		Message: "No title.",
		Type:    model.TypeAnnouncement,
	})
	assert.ErrorContains(t, err, "title is required")
	assert.Empty(t, backend.Notifications())
}

func TestListUsers(t *testing.T) {
	client, backend := newTestClient(t)
	backend.SeedUsers([]model.UserSummary{
		{
			ID:       1,
			Email:    "asha@example.com",
			FullName: "Asha Verma",
			FeedbackSummary: model.FeedbackSummary{
				TotalPredictions: 12,
				FeedbackCount:    4,
			},
		},
	})

	users, err := client.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Asha Verma", users[0].FullName)
	assert.Equal(t, 12, users[0].FeedbackSummary.TotalPredictions)
}

func TestBroadcastAI(t *testing.T) {
	client, backend := newTestClient(t)
	backend.SeedUsers([]model.UserSummary{
		{ID: 1, Email: "a@example.com"},
		{ID: 2, Email: "b@example.com"},
	})

	result, err := client.BroadcastAI(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalUsers)
}

func TestBadTokenIsAuthError(t *testing.T) {
	backend := testutil.NewBackend(t)
	client := api.NewClient(backend.URL(), "stale-token", 5*time.Second)

	_, err := client.Stats(context.Background())
	require.Error(t, err)
	assert.True(t, api.IsAuthError(err))
}
