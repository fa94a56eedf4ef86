package status

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/ps2-census/census-stream/internal/theme"
	"github.com/ps2-census/census-stream/pkg/census"
	"github.com/ps2-census/census-stream/pkg/stream"
)

// Model holds the status bar state.
type Model struct {
	Environment census.Environment
	Health      stream.Health
	Ceiling     float64
	Events      int
	Errors      int
	LastError   string
	Width       int
}

// New creates a status bar model.
func New(env census.Environment, ceiling float64) Model {
	return Model{Environment: env, Ceiling: ceiling}
}

// SetHealth replaces the connection snapshot.
func (m *Model) SetHealth(h stream.Health) {
	m.Health = h
}

// RecordError counts a per-frame error.
func (m *Model) RecordError(err error) {
	m.Errors++
	m.LastError = err.Error()
}

// Online counts the endpoints currently reported up.
func (m Model) Online() (online, total int) {
	for _, up := range m.Health.Endpoints {
		total++
		if up {
			online++
		}
	}
	return online, total
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	var connStr string
	if m.Health.Connected {
		connStr = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("● Connected")
	} else {
		connStr = lipgloss.NewStyle().Foreground(theme.ColorDanger).Render("○ Connecting...")
	}

	env := string(m.Environment)
	weight := lipgloss.NewStyle().Foreground(theme.WeightColor(m.Health.Weight, m.Ceiling)).
		Render(fmt.Sprintf("weight %.1f/%.0f", m.Health.Weight, m.Ceiling))

	online, total := m.Online()
	endpoints := fmt.Sprintf("%d/%d endpoints", online, total)
	color := theme.ColorHealthy
	if online < total {
		color = theme.ColorWarning
	}
	endpoints = lipgloss.NewStyle().Foreground(color).Render(endpoints)

	counts := fmt.Sprintf("%d events  %d errors  %d reconnects", m.Events, m.Errors, m.Health.Reconnects)

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := connStr + sep + env + sep + weight + sep + endpoints + sep + counts
	if m.LastError != "" {
		content += sep + lipgloss.NewStyle().Foreground(theme.ColorDanger).Render(m.LastError)
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}
