package fakepush

import (
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 5 * time.Second

type outbound struct {
	data []byte
	// closeCode, when set, makes the write pump send a close frame and
	// hang up instead of writing data.
	closeCode int
}

type client struct {
	conn *websocket.Conn
	send chan outbound
	done chan struct{}
	once sync.Once

	mu  sync.Mutex
	sub subscription
}

func newClient(conn *websocket.Conn) *client {
	c := &client{
		conn: conn,
		send: make(chan outbound, 64),
		done: make(chan struct{}),
		sub:  newSubscription(),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if msg.closeCode != 0 {
				frame := websocket.FormatCloseMessage(msg.closeCode, "")
				_ = c.conn.WriteControl(websocket.CloseMessage, frame, time.Now().Add(writeTimeout))
				c.stop()
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg.data); err != nil {
				c.stop()
				return
			}
		}
	}
}

// enqueue hands msg to the write pump. It returns false when the client is
// gone or its buffer is full.
func (c *client) enqueue(msg outbound) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *client) stop() {
	c.once.Do(func() { close(c.done) })
}

func (c *client) subscribe(cmd inboundCommand) subscriptionAck {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sub.add(cmd)
	return c.sub.ack()
}

func (c *client) clear(cmd inboundCommand) subscriptionAck {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cmd.All == "true" {
		c.sub = newSubscription()
	} else {
		c.sub.remove(cmd)
	}
	return c.sub.ack()
}

func (c *client) subscribed(name string, payload map[string]string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sub.matches(name, payload)
}

type subscription struct {
	events     map[string]bool
	characters map[string]bool
	worlds     map[string]bool
	logicalAnd bool
}

type subscriptionAck struct {
	CharacterCount int      `json:"characterCount"`
	EventNames     []string `json:"eventNames"`
	LogicalAnd     bool     `json:"logicalAndCharactersWithWorlds"`
	Worlds         []string `json:"worlds"`
}

func newSubscription() subscription {
	return subscription{
		events:     make(map[string]bool),
		characters: make(map[string]bool),
		worlds:     make(map[string]bool),
	}
}

func (s *subscription) add(cmd inboundCommand) {
	for _, n := range cmd.EventNames {
		s.events[n] = true
	}
	for _, ch := range cmd.Characters {
		s.characters[ch] = true
	}
	for _, w := range cmd.Worlds {
		s.worlds[w] = true
	}
	s.logicalAnd = cmd.LogicalAnd
}

func (s *subscription) remove(cmd inboundCommand) {
	for _, n := range cmd.EventNames {
		delete(s.events, n)
	}
	for _, ch := range cmd.Characters {
		delete(s.characters, ch)
	}
	for _, w := range cmd.Worlds {
		delete(s.worlds, w)
	}
}

func (s *subscription) ack() subscriptionAck {
	return subscriptionAck{
		CharacterCount: len(s.characters),
		EventNames:     sortedKeys(s.events),
		LogicalAnd:     s.logicalAnd,
		Worlds:         sortedKeys(s.worlds),
	}
}

// matches reports whether an event passes the subscription. A subscription
// naming neither characters nor worlds matches every world.
func (s *subscription) matches(name string, payload map[string]string) bool {
	if !s.events[name] && !s.events["all"] {
		return false
	}
	if len(s.characters) == 0 && len(s.worlds) == 0 {
		return true
	}
	world := s.worlds["all"] || s.worlds[payload["world_id"]]
	character := s.characters["all"] || s.characters[payload["character_id"]]
	if s.logicalAnd {
		return world && character
	}
	return world || character
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
