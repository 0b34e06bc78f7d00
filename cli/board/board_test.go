package board

import (
	"testing"
	"time"

	pb "github.com/ponyo877/sketchsphere/grpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envelope(t *testing.T, event string, payload any) pb.Envelope {
	t.Helper()
	env, err := pb.NewEnvelope(event, payload)
	require.NoError(t, err)
	return env
}

func stroke(id string) pb.Operation {
	return pb.Operation{ID: id, Type: "draw", RoomID: "R1", Tool: "pen", Color: "#000", LineWidth: 2, EndX: 10, EndY: 10}
}

func TestApplyReplaysUndoRedo(t *testing.T) {
	b := New()
	b.Reset("R1")

	_, err := b.Apply(envelope(t, pb.EventInitialState, pb.Snapshot{Drawings: []pb.Operation{}, History: []pb.Operation{}, RedoStack: []pb.Operation{}}))
	require.NoError(t, err)
	assert.Empty(t, b.Drawings())

	line, err := b.Apply(envelope(t, pb.EventDraw, stroke("op1")))
	require.NoError(t, err)
	assert.Contains(t, line, "pen #000 (0,0)->(10,10)")
	assert.Len(t, b.Drawings(), 1)

	_, err = b.Apply(envelope(t, pb.EventUndo, pb.Snapshot{Drawings: []pb.Operation{}, History: []pb.Operation{}, RedoStack: []pb.Operation{stroke("op1")}}))
	require.NoError(t, err)
	assert.Empty(t, b.Drawings())
	assert.Len(t, b.RedoStack(), 1)

	_, err = b.Apply(envelope(t, pb.EventRedo, pb.Snapshot{Drawings: []pb.Operation{stroke("op1")}, History: []pb.Operation{stroke("op1")}, RedoStack: []pb.Operation{}}))
	require.NoError(t, err)
	assert.Len(t, b.Drawings(), 1)
	assert.Empty(t, b.RedoStack())
	assert.Equal(t, "room R1 | 1 strokes | history 1 | redo 0 | chat 0", b.Summary())
}

func TestApplyDrawInvalidatesRedoAndSkipsDuplicates(t *testing.T) {
	b := New()
	b.Reset("R1")
	_, err := b.Apply(envelope(t, pb.EventInitialState, pb.Snapshot{RedoStack: []pb.Operation{stroke("old")}}))
	require.NoError(t, err)
	require.Len(t, b.RedoStack(), 1)

	_, err = b.Apply(envelope(t, pb.EventDraw, stroke("op1")))
	require.NoError(t, err)
	line, err := b.Apply(envelope(t, pb.EventDraw, stroke("op1")))
	require.NoError(t, err)

	assert.Equal(t, "draw: duplicate op1", line)
	assert.Len(t, b.History(), 1)
	assert.Empty(t, b.RedoStack())
}

func TestApplyIgnoresEventsOfPreviousRoom(t *testing.T) {
	b := New()
	b.Reset("R1")
	b.Expect("late")
	b.Reset("R2")

	line, err := b.Apply(envelope(t, pb.EventDraw, pb.Operation{ID: "late", Type: "draw", RoomID: "R1", UserID: "me", Tool: "pen"}))
	require.NoError(t, err)
	assert.Equal(t, "draw: ignored from R1", line)
	assert.Empty(t, b.Drawings())
	assert.Empty(t, b.History())
	assert.Equal(t, "me", b.Self())

	line, err = b.Apply(envelope(t, pb.EventChatMessage, pb.ChatMessage{ID: "m1", RoomID: "R1", Message: "hi"}))
	require.NoError(t, err)
	assert.Equal(t, "chat: ignored from R1", line)
	assert.Empty(t, b.Chat())

	op := stroke("op1")
	op.RoomID = "R2"
	_, err = b.Apply(envelope(t, pb.EventDraw, op))
	require.NoError(t, err)
	assert.Len(t, b.Drawings(), 1)
}

func TestApplyClearBoard(t *testing.T) {
	b := New()
	b.Reset("R1")
	_, err := b.Apply(envelope(t, pb.EventDraw, stroke("op1")))
	require.NoError(t, err)

	_, err = b.Apply(pb.Envelope{Event: pb.EventClearBoard})
	require.NoError(t, err)

	assert.Empty(t, b.Drawings())
	history := b.History()
	require.Len(t, history, 1)
	assert.Equal(t, "clear", history[0].Type)
}

func TestApplyLearnsSelfFromEcho(t *testing.T) {
	b := New()
	b.Reset("R1")
	b.Expect("mine")

	other := stroke("theirs")
	other.UserID = "conn-b"
	_, err := b.Apply(envelope(t, pb.EventDraw, other))
	require.NoError(t, err)
	assert.Empty(t, b.Self())

	mine := stroke("mine")
	mine.UserID = "conn-a"
	_, err = b.Apply(envelope(t, pb.EventDraw, mine))
	require.NoError(t, err)
	assert.Equal(t, "conn-a", b.Self())

	ts := time.Date(2025, 1, 1, 12, 0, 0, 0, time.Local)
	_, err = b.Apply(envelope(t, pb.EventChatHistory, []pb.ChatMessage{
		{ID: "m1", RoomID: "R1", Message: "hi", UserID: "conn-a", DisplayName: "alice", Timestamp: ts},
		{ID: "m2", RoomID: "R1", Message: "hey", UserID: "conn-b", DisplayName: "bob", Timestamp: ts},
	}))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"[12:00:00] alice (you): hi",
		"[12:00:00] bob: hey",
	}, b.ChatLines())
}

func TestApplyChatAndUserLeft(t *testing.T) {
	b := New()
	b.Reset("R1")

	line, err := b.Apply(envelope(t, pb.EventChatMessage, pb.ChatMessage{ID: "m1", RoomID: "R1", Message: "hello", UserID: "c1", DisplayName: "alice", Timestamp: time.Now()}))
	require.NoError(t, err)
	assert.Contains(t, line, "alice: hello")
	assert.Len(t, b.Chat(), 1)

	line, err = b.Apply(envelope(t, pb.EventUserLeft, "c1"))
	require.NoError(t, err)
	assert.Equal(t, "c1 left", line)
	assert.Equal(t, []string{"c1"}, b.Left())
}

func TestApplyRejectsUnknownAndMalformed(t *testing.T) {
	b := New()
	_, err := b.Apply(pb.Envelope{Event: "bogus"})
	assert.Error(t, err)

	_, err = b.Apply(pb.Envelope{Event: pb.EventDraw, Payload: []byte(`"not an operation"`)})
	assert.Error(t, err)
	assert.Empty(t, b.Drawings())
}

func TestResetForgetsRoom(t *testing.T) {
	b := New()
	b.Reset("R1")
	_, err := b.Apply(envelope(t, pb.EventDraw, stroke("op1")))
	require.NoError(t, err)

	b.Reset("R2")
	assert.Equal(t, "R2", b.RoomID())
	assert.Empty(t, b.Drawings())
	assert.Empty(t, b.History())
}
