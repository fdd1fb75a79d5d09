package app

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/healthbell/healthbell/internal/api"
	"github.com/healthbell/healthbell/internal/keys"
	"github.com/healthbell/healthbell/internal/model"
	"github.com/healthbell/healthbell/internal/store"
	appsync "github.com/healthbell/healthbell/internal/sync"
	"github.com/healthbell/healthbell/internal/theme"
	"github.com/healthbell/healthbell/internal/ui"
	adminview "github.com/healthbell/healthbell/internal/ui/admin"
	helpview "github.com/healthbell/healthbell/internal/ui/help"
	"github.com/healthbell/healthbell/internal/ui/panel"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewHome ViewState = iota
	ViewPanel
	ViewAdmin
	ViewHelp
)

// Model is the root Bubble Tea model: it owns the bell indicator (the
// polled stats badge in the header), routes views, and carries the
// status line where failed actions are surfaced.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap
	store        store.Store
	poller       *appsync.Poller

	panelView panel.Model
	adminView adminview.Model
	helpView  helpview.Model

	stats     model.Stats
	alert     string
	statusMsg string
	ready     bool
}

// New creates the root application model.
func New(client *api.Client, s store.Store, p *appsync.Poller, cfg *model.AppConfig) Model {
	k := keys.DefaultKeyMap()

	return Model{
		currentView: ViewHome,
		keys:        k,
		store:       s,
		poller:      p,
		panelView: panel.New(
			client, s, k,
			cfg.Notifications.Language,
			cfg.Display.Name,
			80, 24,
		),
		adminView: adminview.New(client, cfg.Notifications.Language, 80, 24),
		helpView:  helpview.New(k, 80, 24),
	}
}

// Init starts the stats poller; the badge gets its first sample right
// away and then refreshes on the configured cadence.
func (m Model) Init() tea.Cmd {
	return m.poller.Start()
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.panelView.SetSize(contentWidth, contentHeight)
		m.adminView.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		// Forward to the active view so huh forms can lay out.
		return m.updateActiveView(msg)

	case appsync.StatsMsg:
		if msg.AuthError != nil {
			m.alert = msg.AuthError.Message
		} else if msg.Error == nil {
			m.stats = msg.Stats
			if msg.NewUnread > 0 {
				m.statusMsg = fmt.Sprintf(
					"%d new notification(s)", msg.NewUnread,
				)
			}
		}
		// A failed poll keeps the stale badge; the next tick retries.
		return m, m.poller.WaitForNextResult()

	case panel.StatsDirtyMsg:
		// A mutation succeeded; the independently sourced badge would
		// go stale without an explicit refresh.
		m.poller.Refresh()
		return m, nil

	case panel.ActionFailedMsg:
		m.alert = fmt.Sprintf("%s failed: %v", msg.Action, msg.Err)
		return m, nil

	case panel.StatusMsg:
		m.statusMsg = msg.Text
		return m, nil

	case panel.CloseMsg:
		m.currentView = ViewHome
		return m, nil

	case adminview.CloseMsg:
		m.currentView = ViewHome
		return m, nil

	case tea.KeyMsg:
		// Any keypress clears a previous alert or status message.
		m.alert = ""
		m.statusMsg = ""

		switch msg.String() {
		case "ctrl+c":
			m.poller.Stop()
			return m, tea.Quit

		case "q":
			if m.currentView == ViewHome {
				m.poller.Stop()
				return m, tea.Quit
			}

		case "?":
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return m, nil

		case "b", "enter":
			if m.currentView == ViewHome {
				// Opening the bell is the only trigger for the list
				// fetch; the list is never loaded while closed.
				m.currentView = ViewPanel
				return m, m.panelView.Open()
			}

		case "A":
			if m.currentView == ViewHome {
				m.previousView = m.currentView
				m.currentView = ViewAdmin
				return m, m.adminView.Init()
			}

		case "r":
			if m.currentView == ViewHome {
				m.poller.Refresh()
				return m, nil
			}
		}
	}

	return m.updateActiveView(msg)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewPanel:
		m.panelView, cmd = m.panelView.Update(msg)
	case ViewAdmin:
		m.adminView, cmd = m.adminView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	default:
		// No child view owns the home screen; panel results that
		// arrive after the view closed still need delivery so the
		// badge refresh fires and failed mutations alert.
		if _, ok := msg.(panel.ResultMsg); ok {
			m.panelView, cmd = m.panelView.Update(msg)
		}
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("HealthBell", m.bellText())
	content := m.renderContent()

	statusText := m.keyHints()
	alert := false
	switch {
	case m.alert != "":
		statusText = m.alert
		alert = true
	case m.statusMsg != "":
		statusText = m.statusMsg
	}
	statusBar := m.layout.RenderStatusBar(statusText, alert)

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// bellText renders the bell with its unread badge. Counts above 99
// collapse to "99+" so the badge width stays bounded.
func (m Model) bellText() string {
	if m.stats.Unread <= 0 {
		return "🔔"
	}
	return "🔔 " + theme.BadgeStyle.Render(BadgeLabel(m.stats.Unread))
}

// BadgeLabel formats an unread count for the badge.
func BadgeLabel(unread int) string {
	if unread > 99 {
		return "99+"
	}
	return fmt.Sprintf("%d", unread)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewPanel:
		return m.panelView.View()
	case ViewAdmin:
		return m.adminView.View()
	case ViewHelp:
		return m.helpView.View()
	default:
		return m.renderHome()
	}
}

// renderHome shows the idle dashboard with the latest stats sample.
func (m Model) renderHome() string {
	title := lipgloss.NewStyle().Bold(true).Render("Health notifications")

	summary := fmt.Sprintf(
		"%d total, %d unread", m.stats.Total, m.stats.Unread,
	)

	pollStatus := "badge idle"
	st := m.poller.GetStatus()
	switch st.State {
	case appsync.PollRunning:
		pollStatus = "refreshing badge…"
	case appsync.PollError:
		pollStatus = "backend unreachable; will retry"
	default:
		if !st.LastPoll.IsZero() {
			pollStatus = "badge updated " + st.LastPoll.Format("15:04:05")
		}
	}

	body := lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		"",
		summary,
		theme.HelpStyle.Render(pollStatus),
		"",
		theme.HelpStyle.Render("b open notifications | A admin | ? help | q quit"),
	)

	return theme.PanelStyle.
		Width(m.layout.ContentWidth() - 2).
		Render(body)
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewPanel:
		return "enter mark read | m mark all | d delete | g AI tip | u unread only | r refresh | esc close"
	case ViewAdmin:
		return "enter submit | esc close"
	case ViewHelp:
		return "? close help"
	default:
		return "b notifications | A admin | r refresh | ? help | q quit"
	}
}
