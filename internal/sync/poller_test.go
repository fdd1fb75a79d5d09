package sync_test

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthbell/healthbell/internal/api"
	"github.com/healthbell/healthbell/internal/model"
	"github.com/healthbell/healthbell/internal/sync"
	"github.com/healthbell/healthbell/tests/testutil"
)

// runCmd executes a tea.Cmd from a test, with a deadline so a stuck
// channel fails the test instead of hanging it.
func runCmd(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	require.NotNil(t, cmd)

	done := make(chan tea.Msg, 1)
	go func() {
		done <- cmd()
	}()

	select {
	case msg := <-done:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("command did not complete in time")
		return nil
	}
}

func TestStartDeliversInitialStats(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.Seed(model.Notification{
		Type:    model.TypeAnnouncement,
		Title:   "Welcome",
		Message: "Hello.",
	})

	client := api.NewClient(backend.URL(), testutil.Token, 5*time.Second)
	s := testutil.NewTestStore(t)

	p := sync.New(client, s, time.Hour)
	t.Cleanup(p.Stop)

	msg := runCmd(t, p.Start())
	statsMsg, ok := msg.(sync.StatsMsg)
	require.True(t, ok, "expected StatsMsg, got %T", msg)

	require.NoError(t, statsMsg.Error)
	assert.Equal(t, model.Stats{Total: 1, Unread: 1}, statsMsg.Stats)
	assert.Equal(t, 1, statsMsg.NewUnread)

	// The sample landed in the cache.
	cached, err := s.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, statsMsg.Stats, cached)
}

func TestNewUnreadIsDeltaFromPreviousSample(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.Seed(model.Notification{
		Type:    model.TypeAnnouncement,
		Title:   "First",
		Message: "One.",
	})

	client := api.NewClient(backend.URL(), testutil.Token, 5*time.Second)
	s := testutil.NewTestStore(t)

	p := sync.New(client, s, time.Hour)
	t.Cleanup(p.Stop)

	msg := runCmd(t, p.Start())
	first, ok := msg.(sync.StatsMsg)
	require.True(t, ok)
	assert.Equal(t, 1, first.NewUnread)

	// Two more arrive before the next poll.
	backend.Seed(model.Notification{Type: model.TypeAnnouncement, Title: "Second", Message: "Two."})
	backend.Seed(model.Notification{Type: model.TypeAnnouncement, Title: "Third", Message: "Three."})

	next := p.WaitForNextResult()
	p.Refresh()

	msg = runCmd(t, next)
	second, ok := msg.(sync.StatsMsg)
	require.True(t, ok)
	require.NoError(t, second.Error)
	assert.Equal(t, 3, second.Stats.Unread)
	assert.Equal(t, 2, second.NewUnread)
}

func TestNewUnreadNeverNegative(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.Seed(model.Notification{
		Type:    model.TypeAnnouncement,
		Title:   "Only",
		Message: "One.",
	})

	client := api.NewClient(backend.URL(), testutil.Token, 5*time.Second)
	s := testutil.NewTestStore(t)

	// Pretend the previous sample saw more unread than now exist.
	require.NoError(t, s.SaveStats(context.Background(), model.Stats{Total: 5, Unread: 5}))

	p := sync.New(client, s, time.Hour)
	t.Cleanup(p.Stop)

	msg := runCmd(t, p.Start())
	statsMsg, ok := msg.(sync.StatsMsg)
	require.True(t, ok)
	require.NoError(t, statsMsg.Error)
	assert.Zero(t, statsMsg.NewUnread)
}

func TestAuthFailureIsFlagged(t *testing.T) {
	backend := testutil.NewBackend(t)
	client := api.NewClient(backend.URL(), "stale-token", 5*time.Second)
	s := testutil.NewTestStore(t)

	p := sync.New(client, s, time.Hour)
	t.Cleanup(p.Stop)

	msg := runCmd(t, p.Start())
	statsMsg, ok := msg.(sync.StatsMsg)
	require.True(t, ok)

	require.Error(t, statsMsg.Error)
	require.NotNil(t, statsMsg.AuthError)
	assert.Contains(t, statsMsg.AuthError.Message, "session expired")

	status := p.GetStatus()
	assert.Equal(t, sync.PollError, status.State)
	assert.Error(t, status.Error)
}

func TestStartTwiceIsNoOp(t *testing.T) {
	backend := testutil.NewBackend(t)
	client := api.NewClient(backend.URL(), testutil.Token, 5*time.Second)
	s := testutil.NewTestStore(t)

	p := sync.New(client, s, time.Hour)
	t.Cleanup(p.Stop)

	first := p.Start()
	require.NotNil(t, first)
	assert.Nil(t, p.Start())

	// Drain the initial result so the goroutine is not left blocked.
	runCmd(t, first)
}
