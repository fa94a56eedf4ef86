package fakepush

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ps2-census/census-stream/pkg/census"
	"github.com/ps2-census/census-stream/pkg/events"
)

func startServer(t *testing.T, cfg Config) (*Server, string) {
	t.Helper()
	s := New(context.Background(), cfg)
	srv := httptest.NewServer(s)
	t.Cleanup(func() {
		s.Close()
		srv.Close()
	})
	return s, "ws" + strings.TrimPrefix(srv.URL, "http") + Path
}

func dialPush(t *testing.T, base string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(base+"?environment=ps2&service-id=s:example", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestServeHTTP_RejectsBadQuery(t *testing.T) {
	_, base := startServer(t, Config{SkipGreeting: true})
	httpBase := "http" + strings.TrimPrefix(base, "ws")

	tests := []struct {
		name  string
		query string
	}{
		{"MissingEnvironment", "?service-id=s:example"},
		{"UnknownEnvironment", "?environment=ps3&service-id=s:example"},
		{"MissingPrefix", "?environment=ps2&service-id=example"},
		{"EmptyServiceID", "?environment=ps2&service-id=s:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(httpBase + tt.query)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestServeHTTP_Greeting(t *testing.T) {
	s, base := startServer(t, Config{Worlds: []census.World{census.Emerald}})
	conn := dialPush(t, base)

	first := readJSON(t, conn)
	assert.Equal(t, "connectionStateChanged", first["type"])
	assert.Equal(t, "true", first["connected"])

	help := readJSON(t, conn)
	assert.Contains(t, help, helpKey)

	state := readJSON(t, conn)
	assert.Equal(t, "serviceStateChanged", state["type"])
	assert.Equal(t, "EventServerEndpoint_Emerald_17", state["detail"])

	assert.Eventually(t, func() bool { return s.Dials() == 1 && s.Connections() == 1 }, time.Second, 10*time.Millisecond)
}

func TestSubscribeAndPublish(t *testing.T) {
	s, base := startServer(t, Config{SkipGreeting: true})
	conn := dialPush(t, base)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"service":"event","action":"subscribe","eventNames":["Death"],"worlds":["17"],"characters":[],"logicalAndCharactersWithWorlds":false}`)))

	ack := readJSON(t, conn)
	sub, ok := ack["subscription"].(map[string]any)
	require.True(t, ok, "expected subscription ack, got %v", ack)
	assert.Equal(t, []any{"Death"}, sub["eventNames"])
	assert.Equal(t, []any{"17"}, sub["worlds"])

	assert.Equal(t, 0, s.Publish(events.NamePlayerLogin, map[string]string{"world_id": "17"}))
	assert.Equal(t, 0, s.Publish(events.NameDeath, map[string]string{"world_id": "1"}))
	assert.Equal(t, 1, s.Publish(events.NameDeath, map[string]string{"world_id": "17"}))

	msg := readJSON(t, conn)
	assert.Equal(t, "serviceMessage", msg["type"])
	payload := msg["payload"].(map[string]any)
	assert.Equal(t, "Death", payload["event_name"])

	assert.Eventually(t, func() bool { return len(s.Received()) == 1 }, time.Second, 10*time.Millisecond)
}

func TestClearSubscribeAll(t *testing.T) {
	s, base := startServer(t, Config{SkipGreeting: true})
	conn := dialPush(t, base)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"service":"event","action":"subscribe","eventNames":["all"],"worlds":["all"]}`)))
	readJSON(t, conn)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"service":"event","action":"clearSubscribe","all":"true"}`)))
	ack := readJSON(t, conn)
	sub := ack["subscription"].(map[string]any)
	assert.Empty(t, sub["eventNames"])

	assert.Equal(t, 0, s.Publish(events.NameDeath, map[string]string{"world_id": "17"}))
}

func TestEcho(t *testing.T) {
	_, base := startServer(t, Config{SkipGreeting: true})
	conn := dialPush(t, base)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"service":"event","action":"echo","payload":{"hello":"world"}}`)))
	assert.Equal(t, map[string]any{"hello": "world"}, readJSON(t, conn))
}

func TestDropAll(t *testing.T) {
	s, base := startServer(t, Config{SkipGreeting: true})
	conn := dialPush(t, base)
	require.Eventually(t, func() bool { return s.Connections() == 1 }, time.Second, 10*time.Millisecond)

	s.DropAll(websocket.CloseGoingAway)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	var ce *websocket.CloseError
	require.True(t, errors.As(err, &ce), "expected close error, got %v", err)
	assert.Equal(t, websocket.CloseGoingAway, ce.Code)
	assert.Eventually(t, func() bool { return s.Connections() == 0 }, time.Second, 10*time.Millisecond)
}

func TestHeartbeat(t *testing.T) {
	_, base := startServer(t, Config{SkipGreeting: true, HeartbeatInterval: 20 * time.Millisecond})
	conn := dialPush(t, base)

	hb := readJSON(t, conn)
	assert.Equal(t, "heartbeat", hb["type"])
	online := hb["online"].(map[string]any)
	assert.Equal(t, "true", online["EventServerEndpoint_Connery_1"])
}
