package stream

import (
	"encoding/json"
	"maps"
	"sync"
	"time"

	"github.com/ps2-census/census-stream/pkg/events"
)

// Health is a snapshot of what the client knows about the push service.
type Health struct {
	// Connected is true while a socket is open.
	Connected bool `json:"connected"`

	// Endpoints maps a world endpoint detail string, as sent in
	// serviceStateChanged frames and heartbeats, to its online state.
	Endpoints map[string]bool `json:"endpoints"`

	LastHeartbeat time.Time `json:"last_heartbeat"`
	Reconnects    int       `json:"reconnects"`
	Weight        float64   `json:"reconnect_weight"`
}

// health guards the snapshot shared between the reader and Health callers.
type health struct {
	mu   sync.Mutex
	snap Health
}

func (h *health) get() Health {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.snap
	s.Endpoints = maps.Clone(h.snap.Endpoints)
	return s
}

func (h *health) update(fn func(*Health)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn(&h.snap)
}

func (h *health) setEndpoint(detail string, online bool) {
	h.update(func(s *Health) {
		if s.Endpoints == nil {
			s.Endpoints = make(map[string]bool)
		}
		s.Endpoints[detail] = online
	})
}

// heartbeat records a heartbeat frame. The service lists every endpoint
// with a "true"/"false" string under "online".
func (h *health) heartbeat(data []byte, at time.Time) {
	var hb struct {
		Online map[string]string `json:"online"`
	}
	_ = json.Unmarshal(data, &hb)
	h.update(func(s *Health) {
		s.LastHeartbeat = at
		if len(hb.Online) == 0 {
			return
		}
		if s.Endpoints == nil {
			s.Endpoints = make(map[string]bool, len(hb.Online))
		}
		for detail, v := range hb.Online {
			s.Endpoints[detail] = v == "true"
		}
	})
}

func (h *health) serviceState(ev events.ServiceStateChange) {
	h.setEndpoint(ev.Detail, ev.Online)
}
