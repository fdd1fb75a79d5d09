package panel

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/healthbell/healthbell/internal/model"
	"github.com/healthbell/healthbell/internal/theme"
)

// EntryItem wraps a model.Notification so it can be used in a bubbles/list.
type EntryItem struct {
	Notification model.Notification
}

// FilterValue returns the string used for fuzzy filtering.
func (e EntryItem) FilterValue() string {
	return e.Notification.Title
}

// Title returns the notification title for the list.
func (e EntryItem) Title() string {
	return e.Notification.Title
}

// Description returns a short summary line for the list.
func (e EntryItem) Description() string {
	parts := []string{
		TypeLabel(e.Notification.Type),
		relativeAge(e.Notification.CreatedAt),
	}
	return strings.Join(parts, " | ")
}

// TypeIcon returns the icon shown for a notification type.
func TypeIcon(t model.NotificationType) string {
	switch t {
	case model.TypePersonalized:
		return "🤖"
	case model.TypeAnnouncement:
		return "📢"
	case model.TypeDirect:
		return "📩"
	default:
		return "🔔"
	}
}

// TypeLabel returns the human-readable label for a notification type.
func TypeLabel(t model.NotificationType) string {
	switch t {
	case model.TypePersonalized:
		return "AI Health Tip"
	case model.TypeAnnouncement:
		return "Announcement"
	case model.TypeDirect:
		return "Direct Message"
	default:
		return ""
	}
}

// EntryDelegate implements list.ItemDelegate for rendering notification
// entries. Each entry takes two lines: a heading line and a body line.
type EntryDelegate struct {
	// pendingDeleteID is the notification awaiting delete confirmation,
	// or 0. Shared by value from the panel model on every render.
	pendingDeleteID int64
}

// Height returns the number of lines each entry takes.
func (d EntryDelegate) Height() int { return 2 }

// Spacing returns the number of blank lines between entries.
func (d EntryDelegate) Spacing() int { return 0 }

// Update handles per-entry messages (unused).
func (d EntryDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single notification entry.
func (d EntryDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	entry, ok := item.(EntryItem)
	if !ok {
		return
	}

	n := entry.Notification
	isSelected := index == m.Index()

	// Unread marker
	var marker string
	if n.IsRead {
		marker = " "
	} else {
		marker = lipgloss.NewStyle().Foreground(theme.ColorBlue).Render("●")
	}

	typeBadge := theme.TypeStyle(string(n.Type)).Render(TypeLabel(n.Type))

	heading := fmt.Sprintf("%s %s %s %s", marker, TypeIcon(n.Type), n.Title, typeBadge)

	age := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(relativeAge(n.CreatedAt))

	var trailer string
	switch {
	case d.pendingDeleteID == n.ID:
		trailer = lipgloss.NewStyle().
			Foreground(theme.ColorRed).
			Render("  delete? y/n")
	case n.Deletable():
		trailer = theme.HelpStyle.Render("  d delete")
	}

	body := fmt.Sprintf("   %s  %s%s", messageSnippet(n.Message), age, trailer)

	line := heading + "\n" + body
	if n.IsRead {
		line = theme.DimmedStyle.Render(line)
	}

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// messageSnippet condenses a message body to a single display line.
// Truncation counts runes, not bytes, so multi-byte scripts are never
// cut mid-sequence.
func messageSnippet(message string) string {
	s := strings.Join(strings.Fields(message), " ")
	const maxLen = 80
	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-1]) + "…"
	}
	return s
}

// relativeAge returns a human-friendly relative time string.
func relativeAge(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case d < 24*time.Hour:
		hrs := int(d.Hours())
		if hrs == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hrs)
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		weeks := int(d.Hours() / 24 / 7)
		if weeks == 1 {
			return "1w ago"
		}
		return fmt.Sprintf("%dw ago", weeks)
	}
}
