package adaptor

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	pb "github.com/ponyo877/sketchsphere/grpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if v != nil {
		require.NoError(t, json.Unmarshal(body, v), string(body))
	}
	return resp.StatusCode
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	var health map[string]string
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/healthz", &health))
	assert.Equal(t, "ok", health["status"])

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRoomAndMessageEndpoints(t *testing.T) {
	srv := newTestServer(t)
	conn := dialWS(t, srv)

	require.NoError(t, conn.WriteJSON(pb.Envelope{Event: pb.EventJoin, Payload: []byte(`{"roomId":"R1","displayName":"alice"}`)}))
	readEnvelope(t, conn)
	readEnvelope(t, conn)
	var posted []pb.ChatMessage
	for _, text := range []string{"one", "two", "three"} {
		payload, err := json.Marshal(pb.ChatPayload{Message: text})
		require.NoError(t, err)
		require.NoError(t, conn.WriteJSON(pb.Envelope{Event: pb.EventChatMessage, Payload: payload}))
		env := readEnvelope(t, conn)
		require.Equal(t, pb.EventChatMessage, env.Event)
		var msg pb.ChatMessage
		require.NoError(t, env.Decode(&msg))
		posted = append(posted, msg)
	}

	var rooms pb.RoomList
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/rooms", &rooms))
	require.Len(t, rooms.Rooms, 1)
	assert.Equal(t, 1, rooms.Rooms[0].Members)

	var list pb.MessageList
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/rooms/R1/messages?limit=2", &list))
	require.Len(t, list.Messages, 2)
	assert.Equal(t, "two", list.Messages[0].Message)

	list = pb.MessageList{}
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/rooms/R1/messages?q=%5Et", &list))
	assert.Len(t, list.Messages, 2)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/api/rooms/R1/messages?q=%28", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/api/rooms/R1/messages?limit=x", nil))

	var stats pb.Stats
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/stats", &stats))
	assert.Equal(t, int64(3), stats.TotalMessages)
	assert.Equal(t, int64(3), stats.StoredMessages)

	var msg pb.ChatMessage
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/messages/"+posted[1].ID, &msg))
	assert.Equal(t, "two", msg.Message)
	assert.Equal(t, "R1", msg.RoomID)
	assert.Equal(t, "alice", msg.DisplayName)
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/api/messages/missing", nil))

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
