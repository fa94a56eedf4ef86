package stream

import (
	"encoding/json"

	"github.com/ps2-census/census-stream/pkg/census"
)

type frameKind int

const (
	frameInvalid frameKind = iota
	frameHeartbeat
	frameServiceState
	frameConnectionState
	frameServiceMessage
	frameAck
	frameHelp
	frameUnknownType
	frameUnrecognized
)

// label is the metrics label for a frame kind.
func (k frameKind) label() string {
	switch k {
	case frameHeartbeat:
		return "heartbeat"
	case frameServiceState:
		return "serviceStateChanged"
	case frameConnectionState:
		return "connectionStateChanged"
	case frameServiceMessage:
		return "serviceMessage"
	case frameAck:
		return "subscription"
	case frameHelp:
		return "help"
	case frameUnknownType, frameUnrecognized:
		return "unknown"
	default:
		return "invalid"
	}
}

// helpKey is the single key of the hint the service sends after connecting.
const helpKey = "send this for help"

// classify looks at the top level keys of an inbound frame. typ is the raw
// type tag, if the frame had one.
func classify(data []byte) (kind frameKind, typ string, err error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return frameInvalid, "", census.Wrap(census.KindProtocol, "could not parse ws message to json", err)
	}

	if raw, ok := top["type"]; ok && json.Unmarshal(raw, &typ) == nil {
		switch typ {
		case "heartbeat":
			return frameHeartbeat, typ, nil
		case "serviceStateChanged":
			return frameServiceState, typ, nil
		case "connectionStateChanged":
			return frameConnectionState, typ, nil
		case "serviceMessage":
			return frameServiceMessage, typ, nil
		}
		return frameUnknownType, typ, census.Protocol("unknown event type: " + typ)
	}

	if _, ok := top["subscribe"]; ok {
		return frameAck, "", nil
	}
	if _, ok := top["subscription"]; ok {
		return frameAck, "", nil
	}
	if _, ok := top[helpKey]; ok {
		return frameHelp, "", nil
	}
	return frameUnrecognized, "", census.Protocol("could not determine event type")
}
