package adaptor

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	pb "github.com/ponyo877/sketchsphere/grpc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts ...Option) *httptest.Server {
	t.Helper()
	a, _ := newTestAdaptor(t, opts...)
	srv := httptest.NewServer(NewRouter(a, prometheus.NewRegistry()))
	t.Cleanup(srv.Close)
	return srv
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) pb.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var env pb.Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func TestWebSocketLegacyJoinAndDraw(t *testing.T) {
	srv := newTestServer(t)
	a := dialWS(t, srv)
	b := dialWS(t, srv)

	require.NoError(t, a.WriteJSON(map[string]any{"event": "join-room", "payload": "R1"}))
	assert.Equal(t, pb.EventInitialState, readEnvelope(t, a).Event)
	assert.Equal(t, pb.EventChatHistory, readEnvelope(t, a).Event)

	require.NoError(t, b.WriteJSON(map[string]any{"event": "join", "payload": map[string]any{"roomId": "R1"}}))
	assert.Equal(t, pb.EventInitialState, readEnvelope(t, b).Event)
	assert.Equal(t, pb.EventChatHistory, readEnvelope(t, b).Event)

	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte("{not json")))
	require.NoError(t, a.WriteJSON(map[string]any{
		"event": "draw",
		"payload": map[string]any{
			"roomId": "R1", "startX": 0, "startY": 0, "endX": 5, "endY": 5,
			"color": "#123456", "lineWidth": 3,
		},
	}))

	env := readEnvelope(t, b)
	require.Equal(t, pb.EventDraw, env.Event)
	var op pb.Operation
	require.NoError(t, json.Unmarshal(env.Payload, &op))
	assert.Equal(t, "#123456", op.Color)
	assert.Equal(t, 3.0, op.LineWidth)
	assert.Equal(t, pb.EventDraw, readEnvelope(t, a).Event)

	require.NoError(t, a.Close())
	left := readEnvelope(t, b)
	assert.Equal(t, pb.EventUserLeft, left.Event)
}

func TestWebSocketRejectsForeignOrigin(t *testing.T) {
	srv := newTestServer(t, WithAllowedOrigins([]string{"http://localhost:5173"}))
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	header := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header = http.Header{"Origin": []string{"http://localhost:5173"}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	conn.Close()
}

func TestWebSocketSessionsEndOnShutdown(t *testing.T) {
	a, uc := newTestAdaptor(t)
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	srv := httptest.NewUnstartedServer(NewRouter(a, nil))
	srv.Config.BaseContext = func(net.Listener) context.Context { return baseCtx }
	srv.Config.RegisterOnShutdown(cancelBase)
	srv.Start()
	t.Cleanup(srv.Close)

	conn := dialWS(t, srv)
	require.NoError(t, conn.WriteJSON(pb.Envelope{Event: pb.EventJoin, Payload: []byte(`{"roomId":"R1","displayName":"alice"}`)}))
	assert.Equal(t, pb.EventInitialState, readEnvelope(t, conn).Event)
	assert.Equal(t, pb.EventChatHistory, readEnvelope(t, conn).Event)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Config.Shutdown(ctx))
	require.NoError(t, a.WaitWebSockets(ctx))
	assert.Zero(t, uc.Stats().ActiveSessions)
	assert.Empty(t, uc.ListRooms())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}
