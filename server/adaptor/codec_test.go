package adaptor

import (
	"errors"
	"testing"

	pb "github.com/ponyo877/sketchsphere/grpc"
	"github.com/ponyo877/sketchsphere/server/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envelope(t *testing.T, event string, payload any) pb.Envelope {
	t.Helper()
	env, err := pb.NewEnvelope(event, payload)
	require.NoError(t, err)
	return env
}

func TestDecodeJoin(t *testing.T) {
	req, err := DecodeRequest(envelope(t, pb.EventJoin, pb.JoinPayload{RoomID: "R1", DisplayName: "alice"}))
	require.NoError(t, err)
	assert.Equal(t, domain.NewJoinRequest("R1", "alice"), req)

	req, err = DecodeRequest(envelope(t, "join-room", "R2"))
	require.NoError(t, err)
	assert.Equal(t, domain.RequestJoin, req.Type)
	assert.Equal(t, "R2", req.RoomID)
}

func TestDecodeDraw(t *testing.T) {
	req, err := DecodeRequest(envelope(t, pb.EventDraw, map[string]any{
		"roomId": "R1",
		"startX": 1, "startY": 2, "endX": 3, "endY": 4,
		"color": "#ff0000", "lineWidth": 5,
		"tool": "line",
	}))
	require.NoError(t, err)
	assert.Equal(t, domain.RequestDraw, req.Type)
	assert.Equal(t, "R1", req.RoomID)
	assert.Equal(t, domain.ToolLine, req.Operation.Tool)
	assert.Equal(t, 4.0, req.Operation.EndY)

	_, err = DecodeRequest(pb.Envelope{Event: pb.EventDraw, Payload: []byte(`[1,2]`)})
	assert.True(t, errors.Is(err, domain.ErrInvalidOperation))
}

func TestDecodeRoomScopedRequests(t *testing.T) {
	tests := []struct {
		event   string
		payload any
		want    domain.Request
	}{
		{pb.EventUndo, "R1", domain.NewUndoRequest("R1")},
		{pb.EventRedo, pb.RoomPayload{RoomID: "R1"}, domain.NewRedoRequest("R1")},
		{pb.EventClear, pb.RoomPayload{RoomID: "R1"}, domain.NewClearRequest("R1")},
		{pb.EventSync, nil, domain.NewSyncRequest("")},
		{pb.EventLeave, nil, domain.NewLeaveRequest("")},
		{pb.EventChatMessage, pb.ChatPayload{RoomID: "R1", Message: "hi", DisplayName: "me"}, domain.NewChatRequest("R1", "hi", "me")},
	}
	for _, tt := range tests {
		t.Run(tt.event, func(t *testing.T) {
			req, err := DecodeRequest(envelope(t, tt.event, tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.want, req)
		})
	}
}

func TestDecodeRejectsUnknownEvents(t *testing.T) {
	_, err := DecodeRequest(pb.Envelope{Event: pb.EventInitialState})
	assert.True(t, errors.Is(err, domain.ErrInvalidRequest))

	_, err = DecodeRequest(pb.Envelope{Event: pb.EventUndo, Payload: []byte(`42`)})
	assert.True(t, errors.Is(err, domain.ErrInvalidRequest))
}

func TestEncodeEvent(t *testing.T) {
	env, err := EncodeEvent(domain.NewUserLeftEvent("R1", "c1"))
	require.NoError(t, err)
	assert.Equal(t, pb.EventUserLeft, env.Event)
	assert.JSONEq(t, `"c1"`, string(env.Payload))

	env, err = EncodeEvent(domain.NewClearBoardEvent("R1"))
	require.NoError(t, err)
	assert.Equal(t, pb.EventClearBoard, env.Event)
	assert.Empty(t, env.Payload)

	env, err = EncodeEvent(domain.NewInitialStateEvent("R1", domain.Snapshot{}))
	require.NoError(t, err)
	var snap pb.Snapshot
	require.NoError(t, env.Decode(&snap))
	assert.Empty(t, snap.Drawings)
}
