package sync

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"github.com/healthbell/healthbell/internal/api"
	"github.com/healthbell/healthbell/internal/model"
	"github.com/healthbell/healthbell/internal/store"
)

// PollState represents the current state of the stats poller.
type PollState int

const (
	PollIdle PollState = iota
	PollRunning
	PollError
)

// Status holds the poller's state for display in the status bar.
type Status struct {
	State    PollState
	LastPoll time.Time
	Error    error
}

// StatsMsg is a tea.Msg sent when a stats poll completes. NewUnread is
// how many unread notifications appeared since the previous sample.
type StatsMsg struct {
	Stats     model.Stats
	NewUnread int
	Error     error
	AuthError *AuthErrorMsg
}

// AuthErrorMsg is a tea.Msg sent when the backend rejects the token.
type AuthErrorMsg struct {
	Message string
}

// fetchTimeout is the maximum time allowed for a single stats fetch.
const fetchTimeout = 30 * time.Second

// Poller fetches notification stats on a fixed cadence and delivers
// results to the Bubble Tea runtime through a buffered channel. User
// actions can trigger an immediate refresh between ticks.
type Poller struct {
	client    *api.Client
	store     store.Store
	interval  time.Duration
	status    Status
	resultCh  chan StatsMsg
	triggerCh chan struct{}
	stopCh    chan struct{}
	mu        gosync.Mutex
	running   bool
}

// New creates a new Poller. A non-positive interval falls back to the
// 30 second default.
func New(client *api.Client, s store.Store, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Poller{
		client:    client,
		store:     s,
		interval:  interval,
		resultCh:  make(chan StatsMsg, 16),
		triggerCh: make(chan struct{}, 16),
		stopCh:    make(chan struct{}),
	}
}

// Start returns a tea.Cmd that starts the polling goroutine and
// subscribes to results. The returned command waits on the result
// channel and returns StatsMsg messages to the Bubble Tea runtime.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	go p.loop()

	return p.waitForResult()
}

// Stop halts the polling goroutine.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	p.running = false
}

// Refresh triggers an immediate poll without waiting for the next tick.
// Mutating actions call this so the badge catches up right away.
func (p *Poller) Refresh() {
	select {
	case p.triggerCh <- struct{}{}:
	default:
		// Channel full; a refresh is already pending.
	}
}

// GetStatus returns the poller's current status.
func (p *Poller) GetStatus() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// loop runs the polling loop until Stop is called.
func (p *Poller) loop() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Do an initial fetch immediately.
	p.fetchStats()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.fetchStats()
		case <-p.triggerCh:
			p.fetchStats()
		}
	}
}

// fetchStats performs a single stats fetch, records the sample in the
// local cache, and sends a StatsMsg on the result channel.
func (p *Poller) fetchStats() {
	p.setStatus(PollRunning, nil)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	stats, err := p.client.Stats(ctx)
	if err != nil {
		p.setStatus(PollError, err)

		// Poll failures are transient; the next tick retries, so they
		// are logged rather than alerted.
		log.WithError(err).Warn("stats poll failed")

		if api.IsAuthError(err) {
			p.sendResult(StatsMsg{
				Error: err,
				AuthError: &AuthErrorMsg{
					Message: fmt.Sprintf(
						"session expired: %v; restart after logging in again", err,
					),
				},
			})
			return
		}

		p.sendResult(StatsMsg{Error: err})
		return
	}

	// Compare with the previous sample to report new arrivals.
	newUnread := 0
	if prev, err := p.store.GetStats(ctx); err == nil {
		if diff := stats.Unread - prev.Unread; diff > 0 {
			newUnread = diff
		}
	}

	if err := p.store.SaveStats(ctx, stats); err != nil {
		log.WithError(err).Warn("saving stats sample failed")
	}

	p.setStatus(PollIdle, nil)
	p.sendResult(StatsMsg{Stats: stats, NewUnread: newUnread})
}

// setStatus updates the poller status.
func (p *Poller) setStatus(state PollState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.State = state
	p.status.Error = err
	if state == PollIdle && err == nil {
		p.status.LastPoll = time.Now()
	}
}

// sendResult sends a StatsMsg on the result channel without blocking.
func (p *Poller) sendResult(msg StatsMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller.
	}
}

// waitForResult returns a tea.Cmd that waits for the next result from
// the result channel.
func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next poll
// result. This should be called after processing a StatsMsg to continue
// listening for future results.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
