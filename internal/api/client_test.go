package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthbell/healthbell/internal/api"
)

func TestRetriesOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.Header().Set("Retry-After", "0")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"total": 5, "unread": 2}`))
		},
	))
	t.Cleanup(server.Close)

	client := api.NewClient(server.URL, "token", 5*time.Second)
	stats, err := client.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 2, stats.Unread)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGivesUpAfterMaxRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
		},
	))
	t.Cleanup(server.Close)

	client := api.NewClient(server.URL, "token", 5*time.Second)
	_, err := client.Stats(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries")
	assert.Contains(t, err.Error(), "rate limited")
}

func TestRateLimitRespectsContextCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			// No Retry-After header, so the client backs off for
			// at least a second, long enough for the cancel to win.
			w.WriteHeader(http.StatusTooManyRequests)
		},
	))
	t.Cleanup(server.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	client := api.NewClient(server.URL, "token", 5*time.Second)
	_, err := client.Stats(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStatusErrorCarriesDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"detail": "Admin access required"}`))
		},
	))
	t.Cleanup(server.Close)

	client := api.NewClient(server.URL, "token", 5*time.Second)
	_, err := client.ListUsers(context.Background())
	require.Error(t, err)

	var statusErr *api.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
	assert.Equal(t, "Admin access required", statusErr.Detail)
	assert.Contains(t, statusErr.Error(), "Admin access required")
}

func TestSendsAuthAndRequestIDHeaders(t *testing.T) {
	var gotAuth, gotRequestID string
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotRequestID = r.Header.Get("X-Request-ID")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"total": 0, "unread": 0}`))
		},
	))
	t.Cleanup(server.Close)

	client := api.NewClient(server.URL, "secret", 5*time.Second)
	_, err := client.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", gotAuth)
	assert.NotEmpty(t, gotRequestID)
}

func TestIsNotFoundOnlyMatches404(t *testing.T) {
	assert.True(t, api.IsNotFound(&api.StatusError{StatusCode: 404}))
	assert.False(t, api.IsNotFound(&api.StatusError{StatusCode: 500}))
	assert.False(t, api.IsNotFound(errors.New("plain error")))
	assert.False(t, api.IsNotFound(nil))
}
