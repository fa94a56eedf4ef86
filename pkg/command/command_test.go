package command

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ps2-census/census-stream/pkg/census"
	"github.com/ps2-census/census-stream/pkg/events"
)

func decode(t *testing.T, cmd Command) map[string]any {
	t.Helper()
	data, err := Encode(cmd)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestEncodeSubscribe(t *testing.T) {
	got := decode(t, Subscribe{
		EventNames: []events.Name{events.NameAchievementEarned},
		Characters: []string{AllCharacters},
		Worlds:     []string{AllWorlds},
	})

	assert.Equal(t, map[string]any{
		"service":                        "event",
		"action":                         "subscribe",
		"eventNames":                     []any{"AchievementEarned"},
		"characters":                     []any{"all"},
		"worlds":                         []any{"all"},
		"logicalAndCharactersWithWorlds": false,
	}, got)
}

func TestEncodeSubscribeDefaults(t *testing.T) {
	got := decode(t, Subscribe{EventNames: []events.Name{events.NameDeath, events.NameGainExperience}})

	assert.Equal(t, []any{"Death", "GainExperience"}, got["eventNames"])
	assert.Equal(t, []any{}, got["characters"])
	assert.Equal(t, []any{}, got["worlds"])
	assert.Equal(t, false, got["logicalAndCharactersWithWorlds"])

	got = decode(t, Subscribe{LogicalAndCharactersWithWorlds: Bool(true)})
	assert.Equal(t, []any{}, got["eventNames"])
	assert.Equal(t, true, got["logicalAndCharactersWithWorlds"])
}

func TestEncodeSubscribeWorldIDs(t *testing.T) {
	got := decode(t, Subscribe{
		EventNames: []events.Name{events.NameFacilityControl},
		Worlds:     WorldIDs(census.Emerald, census.Connery),
	})
	assert.Equal(t, []any{"17", "1"}, got["worlds"])
}

func TestEncodeEcho(t *testing.T) {
	got := decode(t, Echo{Payload: map[string]any{"test": "ping"}})
	assert.Equal(t, map[string]any{
		"service": "event",
		"action":  "echo",
		"payload": map[string]any{"test": "ping"},
	}, got)
}

func TestEncodeClearSubscribe(t *testing.T) {
	got := decode(t, ClearSubscribe{All: true, Worlds: []string{"17"}})
	assert.Equal(t, map[string]any{"service": "event", "action": "clearSubscribe", "all": "true"}, got)

	got = decode(t, ClearSubscribe{EventNames: []events.Name{events.NameDeath}})
	assert.Equal(t, map[string]any{
		"service":    "event",
		"action":     "clearSubscribe",
		"eventNames": []any{"Death"},
	}, got)
}

func TestEncodeUnsupportedPayload(t *testing.T) {
	_, err := Encode(Echo{Payload: make(chan int)})
	require.Error(t, err)
	assert.ErrorIs(t, err, census.ErrProtocol)
}
