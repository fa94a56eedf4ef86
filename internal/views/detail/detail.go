// Package detail renders the field overlay for a single event.
package detail

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/ps2-census/census-stream/internal/render"
	"github.com/ps2-census/census-stream/internal/theme"
	"github.com/ps2-census/census-stream/pkg/events"
)

const (
	panelWidth = 64
	labelWidth = 26
)

var (
	stylePanel = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.ColorBorder).
			Padding(0, 1)

	styleLabel = lipgloss.NewStyle().
			Foreground(theme.ColorDimmed).
			Width(labelWidth)

	styleValue = lipgloss.NewStyle().
			Foreground(theme.ColorBright)

	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorBright)

	styleFooter = lipgloss.NewStyle().
			Foreground(theme.ColorDimmed)
)

// Model holds the state for the detail overlay.
type Model struct {
	Event    events.Event
	Received time.Time
}

// New creates a detail model for the given event.
func New(ev events.Event, received time.Time) Model {
	return Model{Event: ev, Received: received}
}

// View renders the detail panel. Returns an empty string if no event is set.
func (m Model) View() string {
	if m.Event == nil {
		return ""
	}
	return stylePanel.Width(panelWidth).Render(m.renderInner())
}

func (m Model) renderInner() string {
	var b strings.Builder

	family := events.FamilyOf(m.Event.EventName())
	glyph := lipgloss.NewStyle().Foreground(theme.FamilyColor(family)).Render(theme.FamilyGlyph(family))
	b.WriteString(glyph + " " + styleTitle.Render(string(m.Event.EventName())) + "\n")
	b.WriteString(strings.Repeat("─", panelWidth-4) + "\n")

	if s := render.Summary(m.Event); s != "" {
		b.WriteString(s + "\n\n")
	}

	for _, f := range render.Fields(m.Event) {
		writeRow(&b, f.Key, f.Value)
	}

	b.WriteString("\n")
	if ts := render.Timestamp(m.Event); !ts.IsZero() {
		writeRow(&b, "occurred", ts.UTC().Format(time.RFC3339))
	}
	if !m.Received.IsZero() {
		writeRow(&b, "received", formatAge(m.Received))
	}

	b.WriteString("\n")
	b.WriteString(styleFooter.Render("[esc] close"))
	return b.String()
}

func writeRow(b *strings.Builder, label, value string) {
	b.WriteString(styleLabel.Render(label+":") + styleValue.Render(truncate(value, panelWidth-labelWidth-4)) + "\n")
}

// truncate cuts s to max terminal cells.
func truncate(s string, max int) string {
	return ansi.Truncate(s, max, "…")
}

func formatAge(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm %ds ago", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh %dm ago", int(d.Hours()), int(d.Minutes())%60)
	}
}
