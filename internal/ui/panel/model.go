package panel

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	log "github.com/sirupsen/logrus"

	"github.com/healthbell/healthbell/internal/api"
	"github.com/healthbell/healthbell/internal/keys"
	"github.com/healthbell/healthbell/internal/model"
	"github.com/healthbell/healthbell/internal/store"
	"github.com/healthbell/healthbell/internal/theme"
)

// fetchTimeout bounds a list fetch. Generation gets a longer window
// since the backend calls a language model per request.
const (
	fetchTimeout    = 30 * time.Second
	generateTimeout = 90 * time.Second
)

// ListLoadedMsg is sent when the notification list has been fetched.
// FromCache is set when the backend was unreachable and the local
// snapshot was shown instead.
type ListLoadedMsg struct {
	Notifications []model.Notification
	FromCache     bool
	NewCount      int
	Err           error
}

// StatsDirtyMsg asks the parent to refresh the bell badge after a
// successful mutation; the badge is independently sourced and would
// otherwise go stale.
type StatsDirtyMsg struct{}

// ActionFailedMsg surfaces a failed user action. The parent must show
// it to the user; mutation failures are never silent.
type ActionFailedMsg struct {
	Action string
	Err    error
}

// StatusMsg carries a transient informational line for the status bar.
type StatusMsg struct {
	Text string
}

// CloseMsg is sent when the user dismisses the panel.
type CloseMsg struct{}

// ResultMsg marks messages produced by the panel's background
// commands. A mutation can resolve after the panel closes; its badge
// refresh or failure alert still has to fire, so the parent forwards
// these to the panel regardless of the active view.
type ResultMsg interface{ panelResult() }

func (ListLoadedMsg) panelResult()     {}
func (markReadResultMsg) panelResult() {}
func (markAllResultMsg) panelResult()  {}
func (deleteResultMsg) panelResult()   {}
func (generateResultMsg) panelResult() {}

type markReadResultMsg struct {
	id  int64
	err error
}

type markAllResultMsg struct {
	message string
	err     error
}

type deleteResultMsg struct {
	id  int64
	err error
}

type generateResultMsg struct {
	err error
}

// Model is the notification panel: it owns the loaded list, the
// unread-only filter, and the loading/generating flags.
type Model struct {
	list     list.Model
	client   *api.Client
	store    store.Store
	keys     *keys.KeyMap
	language string
	greeting string

	showUnreadOnly bool
	loading        bool
	generating     bool
	fromCache      bool

	// pendingDelete is the id awaiting y/n confirmation, or 0.
	pendingDelete int64

	spinner spinner.Model
	width   int
	height  int
}

// New creates a new notification panel.
func New(
	client *api.Client,
	s store.Store,
	k *keys.KeyMap,
	language string,
	greeting string,
	width, height int,
) Model {
	l := list.New([]list.Item{}, EntryDelegate{}, width, height-4)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorMagenta)

	return Model{
		list:     l,
		client:   client,
		store:    s,
		keys:     k,
		language: language,
		greeting: greeting,
		spinner:  sp,
		width:    width,
		height:   height,
	}
}

// SetSize updates the panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width-4, height-6)
}

// Load returns a command that fetches the list for the current filter.
// The caller should call Open or toggle the filter rather than calling
// this directly. On transport failure the local cache snapshot is
// returned so the panel still shows something; the failure itself is
// only logged, since the next open or refresh retries.
func (m Model) Load() tea.Cmd {
	client := m.client
	s := m.store
	unreadOnly := m.showUnreadOnly

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		notifications, err := client.List(ctx, unreadOnly)
		if err != nil {
			log.WithError(err).Warn("notification list fetch failed; using cache")

			cached, cacheErr := s.GetNotifications(ctx, store.NotificationFilter{
				UnreadOnly: unreadOnly,
			})
			if cacheErr != nil {
				return ListLoadedMsg{Err: err}
			}
			return ListLoadedMsg{
				Notifications: cached,
				FromCache:     true,
				Err:           err,
			}
		}

		// Count arrivals not seen in the previous snapshot before
		// replacing it. Only the unfiltered list updates the cache;
		// a filtered fetch is a partial view.
		newCount := 0
		if !unreadOnly {
			if known, err := s.KnownIDs(ctx); err == nil && len(known) > 0 {
				for _, n := range notifications {
					if !known[n.ID] {
						newCount++
					}
				}
			}
			if err := s.ReplaceNotifications(ctx, notifications); err != nil {
				log.WithError(err).Warn("caching notifications failed")
			}
		}

		return ListLoadedMsg{Notifications: notifications, NewCount: newCount}
	}
}

// Open marks the panel as loading and returns the lazy list fetch; the
// list is never fetched while the panel is closed.
func (m *Model) Open() tea.Cmd {
	m.loading = true
	m.pendingDelete = 0
	return m.Load()
}

// UnreadCount is the panel's own header count, computed from the loaded
// list independently of the separately polled badge.
func (m Model) UnreadCount() int {
	count := 0
	for _, item := range m.list.Items() {
		if entry, ok := item.(EntryItem); ok && !entry.Notification.IsRead {
			count++
		}
	}
	return count
}

// Generating reports whether an AI generation request is in flight.
func (m Model) Generating() bool { return m.generating }

// Loading reports whether a list fetch is in flight.
func (m Model) Loading() bool { return m.loading }

// Update handles messages for the panel.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ListLoadedMsg:
		m.loading = false
		m.fromCache = msg.FromCache
		items := make([]list.Item, len(msg.Notifications))
		for i, n := range msg.Notifications {
			items[i] = EntryItem{Notification: n}
		}
		cmd := m.list.SetItems(items)
		m.syncDelegate()
		return m, cmd

	case markReadResultMsg:
		if msg.err != nil {
			// Local state stays flipped; the next fetch corrects it
			// if the server disagrees. Rolling back would flicker
			// without guaranteeing correctness.
			return m, reportFailure("mark as read", msg.err)
		}
		return m, statsDirty()

	case markAllResultMsg:
		if msg.err != nil {
			return m, reportFailure("mark all as read", msg.err)
		}
		return m, tea.Batch(statsDirty(), status(msg.message))

	case deleteResultMsg:
		if msg.err != nil {
			return m, reportFailure("delete notification", msg.err)
		}
		return m, statsDirty()

	case generateResultMsg:
		m.generating = false
		if msg.err != nil {
			return m, reportFailure("generate AI health tip", msg.err)
		}
		// The generated notification is not synthesized locally; the
		// authoritative copy (server id, timestamp) comes from a
		// re-fetch.
		m.loading = true
		return m, tea.Batch(m.Load(), statsDirty())

	case spinner.TickMsg:
		if !m.generating {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleKey processes key input for the panel.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	// A pending delete confirmation intercepts everything.
	if m.pendingDelete != 0 {
		switch msg.String() {
		case "y", "Y":
			id := m.pendingDelete
			m.pendingDelete = 0
			m.syncDelegate()
			return m.confirmDelete(id)
		default:
			m.pendingDelete = 0
			m.syncDelegate()
			return m, nil
		}
	}

	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(msg, m.keys.Select):
		return m.markSelectedRead()

	case key.Matches(msg, m.keys.MarkAllRead):
		return m.markAllRead()

	case key.Matches(msg, m.keys.Delete):
		return m.requestDelete()

	case key.Matches(msg, m.keys.Generate):
		return m.generate()

	case key.Matches(msg, m.keys.UnreadFilter):
		m.showUnreadOnly = !m.showUnreadOnly
		m.loading = true
		return m, m.Load()

	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, m.Load()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// markSelectedRead optimistically flips the selected entry and issues
// the backend call. Selecting an already-read entry is a no-op.
func (m Model) markSelectedRead() (Model, tea.Cmd) {
	entry, ok := m.selectedEntry()
	if !ok || entry.Notification.IsRead {
		return m, nil
	}

	entry.Notification.IsRead = true
	setCmd := m.list.SetItem(m.list.Index(), entry)

	client := m.client
	s := m.store
	id := entry.Notification.ID
	callCmd := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		if _, err := client.MarkRead(ctx, id); err != nil {
			return markReadResultMsg{id: id, err: err}
		}
		if err := s.MarkNotificationRead(ctx, id); err != nil {
			log.WithError(err).Warn("updating cache after mark-read failed")
		}
		return markReadResultMsg{id: id}
	}

	return m, tea.Batch(setCmd, callCmd)
}

// markAllRead optimistically flips every loaded entry, then calls the
// backend once. The local list flips atomically from the user's view.
func (m Model) markAllRead() (Model, tea.Cmd) {
	if m.UnreadCount() == 0 {
		return m, nil
	}

	items := m.list.Items()
	flipped := make([]list.Item, len(items))
	for i, item := range items {
		flipped[i] = item
		if entry, ok := item.(EntryItem); ok {
			entry.Notification.IsRead = true
			flipped[i] = entry
		}
	}
	setCmd := m.list.SetItems(flipped)

	client := m.client
	s := m.store
	callCmd := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		message, err := client.MarkAllRead(ctx)
		if err != nil {
			return markAllResultMsg{err: err}
		}
		if err := s.MarkAllNotificationsRead(ctx); err != nil {
			log.WithError(err).Warn("updating cache after mark-all failed")
		}
		return markAllResultMsg{message: message}
	}

	return m, tea.Batch(setCmd, callCmd)
}

// requestDelete arms the y/n confirmation for the selected entry.
// Broadcasts have no delete affordance at all.
func (m Model) requestDelete() (Model, tea.Cmd) {
	entry, ok := m.selectedEntry()
	if !ok || !entry.Notification.Deletable() {
		return m, nil
	}

	m.pendingDelete = entry.Notification.ID
	m.syncDelegate()
	return m, nil
}

// confirmDelete optimistically removes the entry and issues the call.
func (m Model) confirmDelete(id int64) (Model, tea.Cmd) {
	for i, item := range m.list.Items() {
		if entry, ok := item.(EntryItem); ok && entry.Notification.ID == id {
			m.list.RemoveItem(i)
			break
		}
	}

	client := m.client
	s := m.store
	callCmd := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		if err := client.DeleteNotification(ctx, id); err != nil {
			return deleteResultMsg{id: id, err: err}
		}
		if err := s.DeleteNotification(ctx, id); err != nil {
			log.WithError(err).Warn("updating cache after delete failed")
		}
		return deleteResultMsg{id: id}
	}

	return m, callCmd
}

// generate requests an AI health tip. Re-entry is prevented by the
// generating flag; the key is simply ignored while a request is out.
func (m Model) generate() (Model, tea.Cmd) {
	if m.generating {
		return m, nil
	}

	m.generating = true
	client := m.client
	language := m.language
	callCmd := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
		defer cancel()

		_, err := client.Generate(ctx, language)
		return generateResultMsg{err: err}
	}

	return m, tea.Batch(m.spinner.Tick, callCmd)
}

// selectedEntry returns the focused entry, if any.
func (m Model) selectedEntry() (EntryItem, bool) {
	entry, ok := m.list.SelectedItem().(EntryItem)
	return entry, ok
}

// syncDelegate pushes the pending-delete id into the render delegate.
func (m *Model) syncDelegate() {
	m.list.SetDelegate(EntryDelegate{pendingDeleteID: m.pendingDelete})
}

// View renders the panel.
func (m Model) View() string {
	header := m.renderHeader()

	var body string
	switch {
	case m.loading:
		body = theme.HelpStyle.Render("loading notifications…")
	case len(m.list.Items()) == 0:
		body = m.renderEmptyState()
	default:
		body = m.list.View()
	}

	content := lipgloss.JoinVertical(lipgloss.Left, header, body)

	return theme.PanelStyle.
		Width(m.width - 2).
		Render(content)
}

// renderHeader draws the greeting, the title with the panel's own
// unread count, and the filter/generating indicators.
func (m Model) renderHeader() string {
	var lines []string

	if m.greeting != "" {
		lines = append(lines, theme.HelpStyle.Render("Hi "+m.greeting+" 👋"))
	}

	title := "🔔 Notifications"
	if count := m.UnreadCount(); count > 0 {
		title += fmt.Sprintf(" (%d unread)", count)
	}
	if m.showUnreadOnly {
		title += theme.HelpStyle.Render("  [unread only]")
	}
	if m.fromCache {
		title += theme.HelpStyle.Render("  [offline copy]")
	}
	lines = append(lines, lipgloss.NewStyle().Bold(true).Render(title))

	if m.generating {
		lines = append(lines, m.spinner.View()+" generating AI health tip…")
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderEmptyState shows guidance text when no notifications are loaded.
func (m Model) renderEmptyState() string {
	if m.showUnreadOnly {
		return theme.HelpStyle.Render("No unread notifications")
	}
	return theme.HelpStyle.Render(
		"No notifications yet\nPress g for a personalized AI health tip",
	)
}

// reportFailure wraps a mutation failure as an ActionFailedMsg and logs
// it. Mutations the user explicitly requested must never fail silently.
func reportFailure(action string, err error) tea.Cmd {
	log.WithError(err).Errorf("%s failed", action)
	return func() tea.Msg {
		return ActionFailedMsg{Action: action, Err: err}
	}
}

func statsDirty() tea.Cmd {
	return func() tea.Msg { return StatsDirtyMsg{} }
}

func status(text string) tea.Cmd {
	return func() tea.Msg { return StatusMsg{Text: text} }
}
