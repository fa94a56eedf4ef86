package detail

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"

	"github.com/ps2-census/census-stream/pkg/events"
)

func TestTruncateKeepsRunes(t *testing.T) {
	s := strings.Repeat("é", 40)
	got := truncate(s, 10)
	if !utf8.ValidString(got) {
		t.Fatalf("truncate split a rune: %q", got)
	}
	if w := ansi.StringWidth(got); w > 10 {
		t.Errorf("expected width <= 10, got %d", w)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("expected ellipsis, got %q", got)
	}
}

func TestTruncateShort(t *testing.T) {
	if got := truncate("ok", 10); got != "ok" {
		t.Errorf("expected %q, got %q", "ok", got)
	}
}

func TestViewEmpty(t *testing.T) {
	if v := New(nil, time.Time{}).View(); v != "" {
		t.Errorf("expected empty view, got %q", v)
	}
}

func TestViewMultiByteField(t *testing.T) {
	ev := events.ItemAdded{Context: strings.Repeat("Ω", 80), ItemID: 5, CharacterID: 1}
	v := New(ev, time.Now()).View()
	if !utf8.ValidString(v) {
		t.Fatal("view contains a split rune")
	}
	if !strings.Contains(v, "item_id") {
		t.Error("view should list the item_id field")
	}
}
