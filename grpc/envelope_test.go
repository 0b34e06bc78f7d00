package pb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

type segment struct {
	RoomID string  `json:"roomId"`
	StartX float64 `json:"startX"`
	EndX   float64 `json:"endX"`
	Color  string  `json:"color"`
	Points []struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	} `json:"path,omitempty"`
}

func TestEnvelopeThroughStruct(t *testing.T) {
	env, err := NewEnvelope(EventDraw, map[string]any{
		"roomId": "R1",
		"startX": 0,
		"endX":   10.5,
		"color":  "#000",
		"path":   []map[string]float64{{"x": 1, "y": 2}, {"x": 3, "y": 4}},
	})
	require.NoError(t, err)

	s, err := env.ToStruct()
	require.NoError(t, err)
	assert.Equal(t, EventDraw, s.GetFields()["event"].GetStringValue())

	back, err := EnvelopeFromStruct(s)
	require.NoError(t, err)
	assert.Equal(t, EventDraw, back.Event)

	var seg segment
	require.NoError(t, back.Decode(&seg))
	assert.Equal(t, "R1", seg.RoomID)
	assert.Equal(t, 10.5, seg.EndX)
	require.Len(t, seg.Points, 2)
	assert.Equal(t, 3.0, seg.Points[1].X)
}

func TestEnvelopeWithoutPayload(t *testing.T) {
	env, err := NewEnvelope(EventClearBoard, nil)
	require.NoError(t, err)
	assert.Empty(t, env.Payload)

	s, err := env.ToStruct()
	require.NoError(t, err)
	_, hasPayload := s.GetFields()["payload"]
	assert.False(t, hasPayload)

	var v map[string]any
	assert.NoError(t, env.Decode(&v))
	assert.Nil(t, v)
}

func TestEnvelopeFromStructRequiresEvent(t *testing.T) {
	s, err := structpb.NewStruct(map[string]any{"payload": map[string]any{"roomId": "R1"}})
	require.NoError(t, err)

	_, err = EnvelopeFromStruct(s)
	assert.Error(t, err)
}

func TestDecodeRejectsMismatchedPayload(t *testing.T) {
	env := Envelope{Event: EventJoin, Payload: []byte(`"R1"`)}
	var v struct {
		RoomID string `json:"roomId"`
	}
	assert.Error(t, env.Decode(&v))
}
