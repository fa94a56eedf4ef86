// Package fakepush is an in-process stand-in for the push service. It speaks
// the same frame shapes over a real websocket and is used by the tests and
// by the mock command.
package fakepush

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"goa.design/clue/log"

	"github.com/ps2-census/census-stream/pkg/census"
	"github.com/ps2-census/census-stream/pkg/events"
)

// Path is the only route the server answers.
const Path = "/streaming"

// Config configures a Server.
type Config struct {
	// HeartbeatInterval is the period of heartbeat frames. Zero disables them.
	HeartbeatInterval time.Duration

	// SkipGreeting suppresses the frames normally sent right after the
	// upgrade (connection state, help hint, endpoint state).
	SkipGreeting bool

	// Worlds lists the endpoints reported online. Default: every world.
	Worlds []census.World

	// HangUp, when non-zero, closes every connection with this close code
	// right after the greeting.
	HangUp int
}

// Server accepts push connections.
type Server struct {
	cfg    Config
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	clients map[*client]bool

	dials atomic.Int64

	recvMu   sync.Mutex
	received [][]byte
}

// New returns a server. ctx carries the logger; cancelling it stops the
// heartbeat loop, as does Close.
func New(ctx context.Context, cfg Config) *Server {
	if len(cfg.Worlds) == 0 {
		cfg.Worlds = []census.World{
			census.Connery, census.Miller, census.Cobalt, census.Emerald,
			census.Jaeger, census.Apex, census.Briggs, census.SolTech,
		}
	}
	s := &Server{cfg: cfg, clients: make(map[*client]bool)}
	s.ctx, s.cancel = context.WithCancel(ctx)
	if cfg.HeartbeatInterval > 0 {
		go s.heartbeatLoop(cfg.HeartbeatInterval)
	}
	return s
}

// Close stops the heartbeat loop and disconnects every client.
func (s *Server) Close() {
	s.cancel()
	s.mu.Lock()
	for c := range s.clients {
		delete(s.clients, c)
		c.stop()
	}
	s.mu.Unlock()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != Path {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	if !census.Environment(q.Get("environment")).Valid() {
		http.Error(w, "unknown environment", http.StatusBadRequest)
		return
	}
	if id := q.Get("service-id"); !strings.HasPrefix(id, "s:") || len(id) == 2 {
		http.Error(w, "missing service id", http.StatusBadRequest)
		return
	}

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error(s.ctx, err, log.KV{K: "msg", V: "ws upgrade error"})
		return
	}
	c := s.addClient(conn)
	log.Debugf(s.ctx, "push client connected: %s", r.RemoteAddr)

	if !s.cfg.SkipGreeting {
		for _, frame := range s.greeting() {
			c.enqueue(outbound{data: frame})
		}
	}
	if s.cfg.HangUp != 0 {
		c.enqueue(outbound{closeCode: s.cfg.HangUp})
	}
	s.dials.Add(1)

	go func() {
		defer func() {
			s.removeClient(c)
			log.Debugf(s.ctx, "push client disconnected: %s", r.RemoteAddr)
		}()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			s.handleCommand(c, data)
		}
	}()
}

func (s *Server) addClient(conn *websocket.Conn) *client {
	c := newClient(conn)
	s.mu.Lock()
	s.clients[c] = true
	s.mu.Unlock()
	return c
}

func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		c.stop()
	}
	s.mu.Unlock()
}

func (s *Server) snapshot() []*client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	return clients
}

func (s *Server) greeting() [][]byte {
	frames := [][]byte{
		mustJSON(map[string]string{"connected": "true", "service": "push", "type": "connectionStateChanged"}),
		mustJSON(map[string]any{helpKey: map[string]string{"action": "help", "service": "event"}}),
	}
	for _, w := range s.cfg.Worlds {
		frames = append(frames, mustJSON(map[string]string{
			"detail":  endpoint(w),
			"online":  "true",
			"service": "event",
			"type":    "serviceStateChanged",
		}))
	}
	return frames
}

func (s *Server) heartbeatLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			online := make(map[string]string, len(s.cfg.Worlds))
			for _, w := range s.cfg.Worlds {
				online[endpoint(w)] = "true"
			}
			s.Broadcast(mustJSON(map[string]any{"online": online, "service": "event", "type": "heartbeat"}))
		}
	}
}

// Publish sends a service message named name to every client whose
// subscription matches it and returns how many clients it was queued for.
// The payload's event_name is set to name.
func (s *Server) Publish(name events.Name, payload map[string]string) int {
	body := make(map[string]string, len(payload)+1)
	for k, v := range payload {
		body[k] = v
	}
	body["event_name"] = string(name)
	frame := mustJSON(map[string]any{"payload": body, "service": "event", "type": "serviceMessage"})

	n := 0
	for _, c := range s.snapshot() {
		if !c.subscribed(string(name), body) {
			continue
		}
		if c.enqueue(outbound{data: frame}) {
			n++
		}
	}
	return n
}

// Broadcast sends raw to every client regardless of subscription.
func (s *Server) Broadcast(raw []byte) {
	for _, c := range s.snapshot() {
		if !c.enqueue(outbound{data: raw}) {
			log.Debugf(s.ctx, "push client too slow, disconnecting")
			s.removeClient(c)
		}
	}
}

// DropAll sends a close frame with code to every client and closes their
// sockets.
func (s *Server) DropAll(code int) {
	for _, c := range s.snapshot() {
		c.enqueue(outbound{closeCode: code})
	}
}

// Connections returns the number of open client connections.
func (s *Server) Connections() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Dials returns the number of successful upgrades since New. A connection
// is counted once it is registered and its greeting is queued.
func (s *Server) Dials() int {
	return int(s.dials.Load())
}

// Received returns every command frame received so far, in order.
func (s *Server) Received() [][]byte {
	s.recvMu.Lock()
	defer s.recvMu.Unlock()
	return slices.Clone(s.received)
}

type inboundCommand struct {
	Service    string          `json:"service"`
	Action     string          `json:"action"`
	EventNames []string        `json:"eventNames"`
	Characters []string        `json:"characters"`
	Worlds     []string        `json:"worlds"`
	All        string          `json:"all"`
	LogicalAnd bool            `json:"logicalAndCharactersWithWorlds"`
	Payload    json.RawMessage `json:"payload"`
}

// handleCommand applies one command frame. The frame is recorded only once
// it has taken effect, so a test that sees it in Received can rely on it.
func (s *Server) handleCommand(c *client, data []byte) {
	defer func() {
		s.recvMu.Lock()
		s.received = append(s.received, slices.Clone(data))
		s.recvMu.Unlock()
	}()

	var cmd inboundCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		log.Debugf(s.ctx, "ignoring malformed command: %v", err)
		return
	}

	switch cmd.Action {
	case "subscribe":
		ack := c.subscribe(cmd)
		c.enqueue(outbound{data: mustJSON(map[string]any{"subscription": ack})})
	case "clearSubscribe":
		ack := c.clear(cmd)
		c.enqueue(outbound{data: mustJSON(map[string]any{"subscription": ack})})
	case "echo":
		if len(cmd.Payload) > 0 {
			c.enqueue(outbound{data: cmd.Payload})
		}
	default:
		c.enqueue(outbound{data: mustJSON(map[string]any{helpKey: map[string]string{"action": "help", "service": "event"}})})
	}
}

const helpKey = "send this for help"

func endpoint(w census.World) string {
	return "EventServerEndpoint_" + w.String() + "_" + w.ID()
}

func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
