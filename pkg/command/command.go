// Package command encodes outbound directives for the push service.
package command

import (
	"encoding/json"

	"github.com/ps2-census/census-stream/pkg/census"
	"github.com/ps2-census/census-stream/pkg/events"
)

const service = "event"

// Wildcards accepted in the characters and worlds lists.
const (
	AllCharacters = "all"
	AllWorlds     = "all"
)

// Command is an outbound directive. Implementations are plain values and
// are never mutated after construction.
type Command interface {
	Action() string
}

// Echo asks the service to send Payload back.
type Echo struct {
	Payload any
}

func (Echo) Action() string { return "echo" }

func (c Echo) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Service string `json:"service"`
		Action  string `json:"action"`
		Payload any    `json:"payload"`
	}{service, c.Action(), c.Payload})
}

// Subscribe adds event names for the given characters and worlds to the
// session's subscription. Nil lists are sent as empty lists and a nil
// LogicalAndCharactersWithWorlds as false.
type Subscribe struct {
	EventNames                     []events.Name
	Characters                     []string
	Worlds                         []string
	LogicalAndCharactersWithWorlds *bool
}

func (Subscribe) Action() string { return "subscribe" }

func (c Subscribe) MarshalJSON() ([]byte, error) {
	and := false
	if c.LogicalAndCharactersWithWorlds != nil {
		and = *c.LogicalAndCharactersWithWorlds
	}
	return json.Marshal(struct {
		Service    string        `json:"service"`
		Action     string        `json:"action"`
		EventNames []events.Name `json:"eventNames"`
		Characters []string      `json:"characters"`
		Worlds     []string      `json:"worlds"`
		LogicalAnd bool          `json:"logicalAndCharactersWithWorlds"`
	}{
		Service:    service,
		Action:     c.Action(),
		EventNames: orEmpty(c.EventNames),
		Characters: orEmpty(c.Characters),
		Worlds:     orEmpty(c.Worlds),
		LogicalAnd: and,
	})
}

// ClearSubscribe removes names, characters or worlds from the session's
// subscription. All clears everything and ignores the lists.
type ClearSubscribe struct {
	All        bool
	EventNames []events.Name
	Characters []string
	Worlds     []string
}

func (ClearSubscribe) Action() string { return "clearSubscribe" }

func (c ClearSubscribe) MarshalJSON() ([]byte, error) {
	if c.All {
		return json.Marshal(struct {
			Service string `json:"service"`
			Action  string `json:"action"`
			All     string `json:"all"`
		}{service, c.Action(), "true"})
	}
	return json.Marshal(struct {
		Service    string        `json:"service"`
		Action     string        `json:"action"`
		EventNames []events.Name `json:"eventNames,omitempty"`
		Characters []string      `json:"characters,omitempty"`
		Worlds     []string      `json:"worlds,omitempty"`
	}{service, c.Action(), c.EventNames, c.Characters, c.Worlds})
}

// Encode returns the wire JSON for cmd.
func Encode(cmd Command) ([]byte, error) {
	data, err := json.Marshal(cmd)
	if err != nil {
		return nil, census.Wrap(census.KindProtocol, "could not encode "+cmd.Action()+" command", err)
	}
	return data, nil
}

// WorldIDs converts worlds to the string ids used in the worlds list.
func WorldIDs(worlds ...census.World) []string {
	ids := make([]string, len(worlds))
	for i, w := range worlds {
		ids[i] = w.ID()
	}
	return ids
}

// Bool returns a pointer to b, for LogicalAndCharactersWithWorlds.
func Bool(b bool) *bool {
	return &b
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
