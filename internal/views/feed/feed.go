// Package feed renders the scrolling list of received events.
package feed

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

const maxEntries = 500

// Entry is one received event.
type Entry struct {
	At    time.Time
	Event events.Event
}

// filters is the cycle order of the family filter; FamilyUnknown means all.
var filters = []events.Family{
	events.FamilyUnknown,
	events.FamilyCharacter,
	events.FamilyConnection,
	events.FamilyWorld,
}

// Model holds the feed state. Selected indexes the visible entries,
// newest first.
type Model struct {
	Entries  []Entry
	Selected int
	Filter   events.Family
	Paused   bool
	Dropped  int
	Width    int
	Height   int
}

// New creates an empty feed.
func New() Model {
	return Model{}
}

// Push appends an event and caps the buffer. While paused the event is
// counted but not kept.
func (m *Model) Push(ev events.Event, at time.Time) {
	if m.Paused {
		m.Dropped++
		return
	}
	m.Entries = append(m.Entries, Entry{At: at, Event: ev})
	if len(m.Entries) > maxEntries {
		m.Entries = m.Entries[len(m.Entries)-maxEntries:]
	}
	if m.Selected > 0 && m.matches(ev) {
		// Keep the same entry selected as new ones arrive on top.
		m.Selected++
	}
	m.clamp()
}

func (m Model) matches(ev events.Event) bool {
	return m.Filter == events.FamilyUnknown || events.FamilyOf(ev.EventName()) == m.Filter
}

// Visible returns the entries passing the filter, newest first.
func (m Model) Visible() []Entry {
	out := make([]Entry, 0, len(m.Entries))
	for i := len(m.Entries) - 1; i >= 0; i-- {
		if m.matches(m.Entries[i].Event) {
			out = append(out, m.Entries[i])
		}
	}
	return out
}

// Current returns the selected entry.
func (m Model) Current() (Entry, bool) {
	vis := m.Visible()
	if m.Selected < 0 || m.Selected >= len(vis) {
		return Entry{}, false
	}
	return vis[m.Selected], true
}

// Down moves the selection towards older entries.
func (m *Model) Down() {
	m.Selected++
	m.clamp()
}

// Up moves the selection towards newer entries.
func (m *Model) Up() {
	m.Selected--
	m.clamp()
}

// CycleFilter switches to the next family filter.
func (m *Model) CycleFilter() {
	for i, f := range filters {
		if f == m.Filter {
			m.Filter = filters[(i+1)%len(filters)]
			m.Selected = 0
			return
		}
	}
	m.Filter = events.FamilyUnknown
	m.Selected = 0
}

// TogglePause stops or resumes recording.
func (m *Model) TogglePause() {
	m.Paused = !m.Paused
	if !m.Paused {
		m.Dropped = 0
	}
}

// Clear drops every entry.
func (m *Model) Clear() {
	m.Entries = nil
	m.Selected = 0
}

func (m *Model) clamp() {
	n := len(m.Visible())
	if m.Selected >= n {
		m.Selected = n - 1
	}
	if m.Selected < 0 {
		m.Selected = 0
	}
}

// FilterName describes the active filter.
func (m Model) FilterName() string {
	if m.Filter == events.FamilyUnknown {
		return "all"
	}
	return m.Filter.String()
}

// View renders as many entries as fit in Height, keeping the selection in
// view.
func (m Model) View() string {
	vis := m.Visible()
	height := m.Height
	if height < 1 {
		height = 10
	}

	header := theme.StyleHeader.Render(fmt.Sprintf("EVENTS  filter: %s", m.FilterName()))
	if m.Paused {
		header += "  " + lipgloss.NewStyle().Foreground(theme.ColorWarning).
			Render(fmt.Sprintf("PAUSED (%d skipped)", m.Dropped))
	}
	lines := []string{header}

	if len(vis) == 0 {
		lines = append(lines, theme.StyleDimmed.Render("  Waiting for events..."))
		return strings.Join(lines, "\n")
	}

	start := 0
	if m.Selected >= height {
		start = m.Selected - height + 1
	}
	end := min(start+height, len(vis))
	for i := start; i < end; i++ {
		lines = append(lines, m.renderLine(vis[i], i == m.Selected))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderLine(e Entry, selected bool) string {
	family := events.FamilyOf(e.Event.EventName())
	prefix := "  "
	if selected {
		prefix = "> "
	}
	glyph := lipgloss.NewStyle().Foreground(theme.FamilyColor(family)).Render(theme.FamilyGlyph(family))
	text := render.Line(e.Event)
	if m.Width > 8 {
		text = ansi.Truncate(text, m.Width-4, "...")
	}
	if selected {
		text = theme.StyleSelected.Render(text)
	}
	return prefix + glyph + " " + text
}
