package feed

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/ps2-census/census-stream/pkg/events"
)

func login(id uint64) events.Event {
	return events.PlayerLogin{CharacterID: id, Timestamp: 1700000000, WorldID: 17}
}

func TestPush(t *testing.T) {
	m := New()
	m.Push(login(1), time.Now())
	if len(m.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(m.Entries))
	}
	cur, ok := m.Current()
	if !ok {
		t.Fatal("expected a selected entry")
	}
	if cur.Event.EventName() != events.NamePlayerLogin {
		t.Errorf("expected PlayerLogin, got %q", cur.Event.EventName())
	}
}

func TestMaxEntries(t *testing.T) {
	m := New()
	for i := 0; i < maxEntries+50; i++ {
		m.Push(login(uint64(i)), time.Now())
	}
	if len(m.Entries) != maxEntries {
		t.Errorf("expected %d entries, got %d", maxEntries, len(m.Entries))
	}
	cur, _ := m.Current()
	if got := cur.Event.(events.PlayerLogin).CharacterID; got != maxEntries+49 {
		t.Errorf("expected newest entry selected, got %d", got)
	}
}

func TestSelectionFollowsEntry(t *testing.T) {
	m := New()
	for i := 0; i < 5; i++ {
		m.Push(login(uint64(i)), time.Now())
	}
	m.Down()
	m.Down()
	cur, _ := m.Current()
	held := cur.Event.(events.PlayerLogin).CharacterID
	if held != 2 {
		t.Fatalf("expected character 2 selected, got %d", held)
	}

	m.Push(login(99), time.Now())
	cur, _ = m.Current()
	if got := cur.Event.(events.PlayerLogin).CharacterID; got != held {
		t.Errorf("selection moved from %d to %d", held, got)
	}
}

func TestUpDownClamped(t *testing.T) {
	m := New()
	for i := 0; i < 3; i++ {
		m.Push(login(uint64(i)), time.Now())
	}
	m.Up()
	if m.Selected != 0 {
		t.Errorf("expected selection 0, got %d", m.Selected)
	}
	for i := 0; i < 10; i++ {
		m.Down()
	}
	if m.Selected != 2 { // max is len-1
		t.Errorf("expected selection 2, got %d", m.Selected)
	}
}

func TestCycleFilter(t *testing.T) {
	m := New()
	m.Push(login(1), time.Now())
	m.Push(events.Death{CharacterID: 2, WorldID: 1}, time.Now())
	m.Push(events.ContinentUnlock{ZoneID: 2, WorldID: 1}, time.Now())

	want := []struct {
		name    string
		visible int
	}{
		{"character", 1},
		{"connection", 1},
		{"world", 1},
		{"all", 3},
	}
	for _, w := range want {
		m.CycleFilter()
		if m.FilterName() != w.name {
			t.Errorf("expected filter %q, got %q", w.name, m.FilterName())
		}
		if n := len(m.Visible()); n != w.visible {
			t.Errorf("filter %q: expected %d visible, got %d", w.name, w.visible, n)
		}
	}
}

func TestPause(t *testing.T) {
	m := New()
	m.TogglePause()
	m.Push(login(1), time.Now())
	m.Push(login(2), time.Now())
	if len(m.Entries) != 0 {
		t.Errorf("paused feed recorded %d entries", len(m.Entries))
	}
	if !strings.Contains(m.View(), "PAUSED (2 skipped)") {
		t.Error("paused view should show the skipped count")
	}

	m.TogglePause()
	m.Push(login(3), time.Now())
	if len(m.Entries) != 1 || m.Dropped != 0 {
		t.Errorf("expected 1 entry and no drops after resume, got %d and %d", len(m.Entries), m.Dropped)
	}
}

func TestClear(t *testing.T) {
	m := New()
	m.Push(login(1), time.Now())
	m.Clear()
	if _, ok := m.Current(); ok {
		t.Error("expected no selection after clear")
	}
}

func TestViewEmpty(t *testing.T) {
	m := New()
	if !strings.Contains(m.View(), "Waiting for events") {
		t.Error("empty view should show a waiting message")
	}
}

func TestViewWithEntries(t *testing.T) {
	m := New()
	m.Height = 5
	m.Push(events.Death{AttackerCharacterID: 7, CharacterID: 8, WorldID: 17}, time.Now())
	v := m.View()
	if !strings.Contains(v, "7 killed 8") {
		t.Error("view should contain the death summary")
	}
	if !strings.Contains(v, "[Emerald]") {
		t.Error("view should contain the world name")
	}
}

func TestViewTruncatesToWidth(t *testing.T) {
	m := New()
	m.Width = 30
	m.Push(events.Death{AttackerCharacterID: 1234567890123, CharacterID: 9876543210987, WorldID: 17}, time.Now())
	lines := strings.Split(m.View(), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one entry, got %d lines", len(lines))
	}
	if !strings.HasSuffix(lines[1], "...") {
		t.Errorf("long line should be cut with an ellipsis: %q", lines[1])
	}
	if !utf8.ValidString(lines[1]) {
		t.Error("truncated line is not valid UTF-8")
	}
}
