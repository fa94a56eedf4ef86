// Package render turns decoded events into text for the tail command and
// the terminal UI.
package render

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/ps2-census/census-stream/pkg/census"
	"github.com/ps2-census/census-stream/pkg/events"
)

// Field is one named value of an event, in declaration order.
type Field struct {
	Key   string
	Value string
}

// Fields lists the event's fields by their wire names.
func Fields(ev events.Event) []Field {
	v := reflect.ValueOf(ev)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}
	t := v.Type()
	out := make([]Field, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		key, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if key == "" || key == "-" {
			key = t.Field(i).Name
		}
		out = append(out, Field{Key: key, Value: fmt.Sprint(v.Field(i).Interface())})
	}
	return out
}

// Timestamp returns the event's timestamp, or the zero time for events
// without one.
func Timestamp(ev events.Event) time.Time {
	v := reflect.ValueOf(ev)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return time.Time{}
	}
	f := v.FieldByName("Timestamp")
	if !f.IsValid() || f.Kind() != reflect.Uint64 {
		return time.Time{}
	}
	return time.Unix(int64(f.Uint()), 0)
}

// World returns the event's world, if it has one.
func World(ev events.Event) (census.World, bool) {
	v := reflect.ValueOf(ev)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return 0, false
	}
	f := v.FieldByName("WorldID")
	if !f.IsValid() || f.Kind() != reflect.Uint8 {
		return 0, false
	}
	return census.World(f.Uint()), true
}

// Summary is a short human description of the event.
func Summary(ev events.Event) string {
	switch e := ev.(type) {
	case events.PlayerLogin:
		return fmt.Sprintf("%d logged in", e.CharacterID)
	case events.PlayerLogout:
		return fmt.Sprintf("%d logged out", e.CharacterID)
	case events.Death:
		s := fmt.Sprintf("%d killed %d", e.AttackerCharacterID, e.CharacterID)
		if e.IsHeadshot {
			s += " (headshot)"
		}
		return s
	case events.VehicleDestroy:
		return fmt.Sprintf("%d destroyed vehicle %d of %d", e.AttackerCharacterID, e.VehicleID, e.CharacterID)
	case events.GainExperience:
		return fmt.Sprintf("%d gained %d xp (experience %d)", e.CharacterID, e.Amount, e.ExperienceID)
	case events.AchievementEarned:
		return fmt.Sprintf("%d earned achievement %d", e.CharacterID, e.AchievementID)
	case events.BattleRankUp:
		return fmt.Sprintf("%d reached battle rank %d", e.CharacterID, e.BattleRank)
	case events.ItemAdded:
		return fmt.Sprintf("%d received %dx item %d", e.CharacterID, e.ItemCount, e.ItemID)
	case events.SkillAdded:
		return fmt.Sprintf("%d learned skill %d", e.CharacterID, e.SkillID)
	case events.PlayerFacilityCapture:
		return fmt.Sprintf("%d captured facility %d", e.CharacterID, e.FacilityID)
	case events.PlayerFacilityDefend:
		return fmt.Sprintf("%d defended facility %d", e.CharacterID, e.FacilityID)
	case events.FacilityControl:
		return fmt.Sprintf("facility %d: %s -> %s", e.FacilityID, Faction(e.OldFactionID), Faction(e.NewFactionID))
	case events.ContinentLock:
		return fmt.Sprintf("zone %d locked by %s", e.ZoneID, Faction(e.TriggeringFaction))
	case events.ContinentUnlock:
		return fmt.Sprintf("zone %d unlocked", e.ZoneID)
	case events.MetagameEvent:
		state := e.MetagameEventStateName
		if state == "" {
			state = fmt.Sprint(e.MetagameEventState)
		}
		return fmt.Sprintf("alert %d %s (VS %.0f%% NC %.0f%% TR %.0f%%)",
			e.MetagameEventID, state, e.FactionVS, e.FactionNC, e.FactionTR)
	case events.ServiceStateChange:
		if e.Online {
			return e.Detail + " online"
		}
		return e.Detail + " offline"
	case events.ConnectionStateChange:
		if e.Connected {
			return "connected"
		}
		return "disconnected"
	}
	return ""
}

// Faction names a faction id.
func Faction(id uint8) string {
	switch id {
	case 1:
		return "VS"
	case 2:
		return "NC"
	case 3:
		return "TR"
	case 4:
		return "NSO"
	}
	return "none"
}

// Line renders ev as a single line: time, world, name and summary.
func Line(ev events.Event) string {
	var b strings.Builder
	if ts := Timestamp(ev); !ts.IsZero() {
		b.WriteString(ts.UTC().Format("15:04:05"))
		b.WriteByte(' ')
	}
	if w, ok := World(ev); ok {
		fmt.Fprintf(&b, "[%s] ", w)
	}
	b.WriteString(string(ev.EventName()))
	if s := Summary(ev); s != "" {
		b.WriteString(": ")
		b.WriteString(s)
	}
	return b.String()
}

// JSON renders ev as one JSON object with its name under "event_name".
func JSON(ev events.Event) ([]byte, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, err
	}
	m["event_name"], _ = json.Marshal(ev.EventName())
	return json.Marshal(m)
}
