// Package app is the root Bubble Tea model of the watch command.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ps2-census/census-stream/internal/theme"
	"github.com/ps2-census/census-stream/internal/views/detail"
	"github.com/ps2-census/census-stream/internal/views/feed"
	"github.com/ps2-census/census-stream/internal/views/status"
	"github.com/ps2-census/census-stream/pkg/census"
	"github.com/ps2-census/census-stream/pkg/events"
	"github.com/ps2-census/census-stream/pkg/stream"
)

const healthInterval = time.Second

// Source is the part of the stream client the UI reads from.
type Source interface {
	NextEvent(ctx context.Context) (events.Event, error)
	Health() stream.Health
}

// EventMsg carries one event out of the source.
type EventMsg struct {
	Event events.Event
	At    time.Time
}

// ErrorMsg carries an error returned by the source.
type ErrorMsg struct {
	Err error
}

// HealthMsg carries a periodic connection snapshot.
type HealthMsg stream.Health

// Model is the root Bubble Tea model.
type Model struct {
	src    Source
	ctx    context.Context
	cancel context.CancelFunc

	keys   KeyMap
	width  int
	height int

	feed      feed.Model
	statusBar status.Model
	showing   bool

	// fatal is set once the source stops producing events for good.
	fatal error
}

// New creates the root model reading from src.
func New(src Source, env census.Environment, ceiling float64) Model {
	ctx, cancel := context.WithCancel(context.Background())
	return Model{
		src:       src,
		ctx:       ctx,
		cancel:    cancel,
		keys:      DefaultKeyMap(),
		feed:      feed.New(),
		statusBar: status.New(env, ceiling),
	}
}

// Init starts reading events and polling health.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitEvent(), m.pollHealth(), tickHealth())
}

func (m Model) waitEvent() tea.Cmd {
	src, ctx := m.src, m.ctx
	return func() tea.Msg {
		ev, err := src.NextEvent(ctx)
		if err != nil {
			return ErrorMsg{Err: err}
		}
		return EventMsg{Event: ev, At: time.Now()}
	}
}

func (m Model) pollHealth() tea.Cmd {
	src := m.src
	return func() tea.Msg { return HealthMsg(src.Health()) }
}

type tickMsg struct{}

func tickHealth() tea.Cmd {
	return tea.Tick(healthInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

// Fatal reports whether err ends the session.
func Fatal(err error) bool {
	return errors.Is(err, census.ErrTooManyReconnects) ||
		errors.Is(err, census.ErrClosed) ||
		errors.Is(err, context.Canceled)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		m.feed.Width = msg.Width
		// Status bar (3 rows), feed header and help line.
		m.feed.Height = max(msg.Height-6, 1)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case EventMsg:
		m.statusBar.Events++
		m.feed.Push(msg.Event, msg.At)
		return m, m.waitEvent()

	case ErrorMsg:
		if Fatal(msg.Err) {
			m.fatal = msg.Err
			m.statusBar.Health.Connected = false
			return m, nil
		}
		m.statusBar.RecordError(msg.Err)
		return m, m.waitEvent()

	case HealthMsg:
		m.statusBar.SetHealth(stream.Health(msg))
		return m, nil

	case tickMsg:
		if m.fatal != nil {
			return m, nil
		}
		return m, tea.Batch(m.pollHealth(), tickHealth())
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.cancel()
		return m, tea.Quit
	}

	if m.showing {
		if key.Matches(msg, m.keys.Escape) {
			m.showing = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Down):
		m.feed.Down()
	case key.Matches(msg, m.keys.Up):
		m.feed.Up()
	case key.Matches(msg, m.keys.Filter):
		m.feed.CycleFilter()
	case key.Matches(msg, m.keys.Pause):
		m.feed.TogglePause()
	case key.Matches(msg, m.keys.Clear):
		m.feed.Clear()
	case key.Matches(msg, m.keys.Enter):
		_, ok := m.feed.Current()
		m.showing = ok
	}
	return m, nil
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	body := m.feed.View()
	switch {
	case m.fatal != nil || !m.statusBar.Health.Connected:
		body = m.renderDisconnected()
	case m.showing:
		if e, ok := m.feed.Current(); ok {
			body = detail.New(e.Event, e.At).View()
		}
	}

	sections := []string{
		m.statusBar.View(),
		body,
		theme.StyleDimmed.Render("  j/k:navigate  enter:detail  f:filter  p:pause  c:clear  q:quit"),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderDisconnected() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorDanger).Render("DISCONNECTED")
	var line string
	if m.fatal != nil {
		line = m.fatal.Error() + "  (q to quit)"
	} else {
		line = "Reconnecting to the census push service..."
	}
	return theme.StyleBorder.Padding(1, 4).Render(title + "\n\n" + theme.StyleDimmed.Render(line))
}
