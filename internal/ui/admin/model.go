package admin

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	log "github.com/sirupsen/logrus"

	"github.com/healthbell/healthbell/internal/api"
	"github.com/healthbell/healthbell/internal/model"
	"github.com/healthbell/healthbell/internal/theme"
)

// requestTimeout bounds a single admin call; the AI broadcast generates
// a notification per user and is given a much longer window.
const (
	requestTimeout   = 30 * time.Second
	broadcastTimeout = 10 * time.Minute
)

// CloseMsg is sent when the admin console is dismissed.
type CloseMsg struct{}

// SentMsg reports the outcome of creating an announcement or direct
// notification.
type SentMsg struct {
	Notification model.Notification
	Err          error
}

// UsersLoadedMsg carries the recipient list for direct notifications.
type UsersLoadedMsg struct {
	Users []model.UserSummary
	Err   error
}

// BroadcastDoneMsg reports the outcome of an AI broadcast to all users.
type BroadcastDoneMsg struct {
	Result model.BroadcastResult
	Err    error
}

// notificationTemplates offers canned title/message pairs per type,
// selectable from the form as a starting point.
var notificationTemplates = map[model.NotificationType][][2]string{
	model.TypeAnnouncement: {
		{"System Update", "We have updated the system with new features."},
		{"Scheduled Maintenance", "The system will be down for maintenance tonight."},
	},
	model.TypeDirect: {
		{"Personal Reminder", "Please check your health dashboard for updates."},
		{"Feedback Request", "We value your feedback! Please let us know your thoughts."},
	},
}

// mode tracks which admin screen is active.
type mode int

const (
	modeMenu mode = iota
	modeCompose
	modeBroadcastConfirm
	modeSending
	modeResult
)

// formBindings holds form field values on the heap so that huh's
// Value() pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	action   string
	title    string
	message  string
	userID   int64
	template int
	confirm  bool
}

// Model is the admin console: it composes announcements and direct
// messages and triggers the AI broadcast.
type Model struct {
	client   *api.Client
	language string

	mode       mode
	kind       model.NotificationType
	form       *huh.Form
	fb         *formBindings
	users      []model.UserSummary
	resultText string
	sending    bool

	width  int
	height int
}

// New creates a new admin console model.
func New(client *api.Client, language string, width, height int) Model {
	return Model{
		client:   client,
		language: language,
		fb:       &formBindings{},
		width:    width,
		height:   height,
	}
}

// Init builds the action menu and, for direct messages, preloads the
// recipient list in the background.
func (m *Model) Init() tea.Cmd {
	m.mode = modeMenu
	m.resultText = ""
	m.fb.action = ""
	m.form = m.buildMenuForm()
	return tea.Batch(m.form.Init(), m.loadUsers())
}

// SetSize updates the console dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// loadUsers fetches the recipient list with feedback summaries.
func (m Model) loadUsers() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		users, err := client.ListUsers(ctx)
		return UsersLoadedMsg{Users: users, Err: err}
	}
}

// Update handles messages for the admin console.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case UsersLoadedMsg:
		if msg.Err != nil {
			// The list is only needed for direct sends; composing an
			// announcement still works.
			log.WithError(msg.Err).Warn("loading notification recipients failed")
			return m, nil
		}
		m.users = msg.Users
		return m, nil

	case SentMsg:
		m.sending = false
		m.mode = modeResult
		if msg.Err != nil {
			m.resultText = fmt.Sprintf("Send failed: %v", msg.Err)
			return m, nil
		}
		m.resultText = fmt.Sprintf(
			"Sent %s #%d: %s",
			msg.Notification.Type, msg.Notification.ID, msg.Notification.Title,
		)
		return m, nil

	case BroadcastDoneMsg:
		m.sending = false
		m.mode = modeResult
		if msg.Err != nil {
			m.resultText = fmt.Sprintf("Broadcast failed: %v", msg.Err)
			return m, nil
		}
		m.resultText = fmt.Sprintf(
			"AI notifications sent to %d users", msg.Result.TotalUsers,
		)
		return m, nil

	case tea.KeyMsg:
		if m.mode == modeResult {
			return m, func() tea.Msg { return CloseMsg{} }
		}
		if msg.String() == "esc" && m.mode == modeMenu {
			return m, func() tea.Msg { return CloseMsg{} }
		}
	}

	if m.form == nil || m.sending {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CloseMsg{} }
	}

	return m, cmd
}

// handleSubmit advances the console after a completed form.
func (m Model) handleSubmit() (Model, tea.Cmd) {
	switch m.mode {
	case modeMenu:
		switch m.fb.action {
		case "announcement":
			m.kind = model.TypeAnnouncement
			m.mode = modeCompose
			m.form = m.buildComposeForm()
			return m, m.form.Init()
		case "direct":
			m.kind = model.TypeDirect
			m.mode = modeCompose
			m.form = m.buildComposeForm()
			return m, m.form.Init()
		case "broadcast":
			m.mode = modeBroadcastConfirm
			m.fb.confirm = false
			m.form = m.buildBroadcastForm()
			return m, m.form.Init()
		}
		return m, func() tea.Msg { return CloseMsg{} }

	case modeCompose:
		m.mode = modeSending
		m.sending = true
		return m, m.send()

	case modeBroadcastConfirm:
		if !m.fb.confirm {
			return m, func() tea.Msg { return CloseMsg{} }
		}
		m.mode = modeSending
		m.sending = true
		return m, m.broadcast()
	}

	return m, nil
}

// send creates the composed notification.
func (m Model) send() tea.Cmd {
	create := model.AdminNotificationCreate{
		Title:   strings.TrimSpace(m.fb.title),
		Message: strings.TrimSpace(m.fb.message),
		Type:    m.kind,
	}
	if m.kind == model.TypeDirect {
		uid := m.fb.userID
		create.UserID = &uid
	}

	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		n, err := client.CreateAdminNotification(ctx, create)
		return SentMsg{Notification: n, Err: err}
	}
}

// broadcast triggers per-user AI generation for everyone.
func (m Model) broadcast() tea.Cmd {
	client := m.client
	language := m.language
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), broadcastTimeout)
		defer cancel()

		result, err := client.BroadcastAI(ctx, language)
		return BroadcastDoneMsg{Result: result, Err: err}
	}
}

func (m *Model) buildMenuForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Admin Notifications").
				Options(
					huh.NewOption("📢 Announcement (all users)", "announcement"),
					huh.NewOption("📩 Direct message (one user)", "direct"),
					huh.NewOption("🤖 AI broadcast (generate for everyone)", "broadcast"),
				).
				Value(&m.fb.action),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m *Model) buildComposeForm() *huh.Form {
	m.fb.title = ""
	m.fb.message = ""
	m.fb.template = -1

	fields := []huh.Field{m.templateField()}

	if m.kind == model.TypeDirect {
		fields = append(fields, m.recipientField())
	}

	fields = append(fields,
		huh.NewInput().
			Title("Title").
			Placeholder("Short heading (max 200 chars)").
			Value(&m.fb.title).
			Validate(validateTitle),
		huh.NewText().
			Title("Message").
			Placeholder("Body text…").
			Value(&m.fb.message).
			Validate(validateRequired("Message")),
	)

	return huh.NewForm(
		huh.NewGroup(fields...),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m *Model) buildBroadcastForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Send AI-generated health tips to ALL users?").
				Description("One personalized notification is generated per user based on their history.").
				Affirmative("Send").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

// templateField offers canned content; picking one pre-fills the
// title/message inputs.
func (m *Model) templateField() huh.Field {
	opts := []huh.Option[int]{huh.NewOption("(start blank)", -1)}
	for i, t := range notificationTemplates[m.kind] {
		opts = append(opts, huh.NewOption(t[0], i))
	}

	fb := m.fb
	kind := m.kind
	return huh.NewSelect[int]().
		Title("Template").
		Options(opts...).
		Value(&fb.template).
		Validate(func(i int) error {
			if i >= 0 && i < len(notificationTemplates[kind]) {
				fb.title = notificationTemplates[kind][i][0]
				fb.message = notificationTemplates[kind][i][1]
			}
			return nil
		})
}

func (m *Model) recipientField() huh.Field {
	opts := make([]huh.Option[int64], 0, len(m.users))
	for _, u := range m.users {
		label := fmt.Sprintf(
			"%s <%s> | %d predictions",
			u.FullName, u.Email, u.FeedbackSummary.TotalPredictions,
		)
		opts = append(opts, huh.NewOption(label, u.ID))
	}
	return huh.NewSelect[int64]().
		Title("Recipient").
		Options(opts...).
		Value(&m.fb.userID)
}

// View renders the admin console.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	var content string
	switch m.mode {
	case modeSending:
		content = theme.HelpStyle.Render("sending…")
	case modeResult:
		content = m.resultText + "\n\n" +
			theme.HelpStyle.Render("press any key to close")
	default:
		if m.form != nil {
			content = m.form.View()
		}
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(titleStyle.Render("Admin Console") + "\n" + content)
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateTitle(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("Title is required")
	}
	if utf8.RuneCountInString(s) > 200 {
		return fmt.Errorf("Title must be at most 200 characters")
	}
	return nil
}
