package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func segment(roomID string, x float64) Operation {
	return NewDrawOperation(roomID, ToolPen, "#000", 2, x, x, x+10, x+10)
}

func TestRoomStateReplayMatchesLiveState(t *testing.T) {
	s := newRoomState(1)
	var live []Operation
	for i := 0; i < 20; i++ {
		op := segment("R1", float64(i))
		require.NoError(t, s.Append(op))
		live = append(live, op)
	}

	assert.Equal(t, live, s.Log())
	assert.Equal(t, live, s.Drawings())
}

func TestRoomStateUndoRedoRoundTrip(t *testing.T) {
	s := newRoomState(1)
	require.NoError(t, s.Append(segment("R1", 0)))
	require.NoError(t, s.Append(segment("R1", 1)))
	_, err := s.Undo()
	require.NoError(t, err)

	logBefore, redoBefore := s.Log(), s.RedoBuffer()

	_, err = s.Undo()
	require.NoError(t, err)
	_, err = s.Redo()
	require.NoError(t, err)

	assert.Equal(t, logBefore, s.Log())
	assert.Equal(t, redoBefore, s.RedoBuffer())
}

func TestRoomStateUndoRedoEmpty(t *testing.T) {
	s := newRoomState(1)

	_, err := s.Undo()
	assert.True(t, errors.Is(err, ErrEmptyHistory))
	_, err = s.Redo()
	assert.True(t, errors.Is(err, ErrEmptyRedo))
}

func TestRoomStateDrawInvalidatesRedo(t *testing.T) {
	s := newRoomState(1)
	require.NoError(t, s.Append(segment("R1", 0)))
	_, err := s.Undo()
	require.NoError(t, err)
	require.Len(t, s.RedoBuffer(), 1)

	require.NoError(t, s.Append(segment("R1", 5)))
	assert.Empty(t, s.RedoBuffer())
	assert.Len(t, s.Log(), 1)
}

func TestRoomStateRejectsDuplicateIDs(t *testing.T) {
	s := newRoomState(1)
	op := segment("R1", 0)
	op.ID = "X"
	require.NoError(t, s.Append(op))
	assert.True(t, errors.Is(s.Append(op), ErrDuplicateOperation))
	assert.Len(t, s.Log(), 1)

	_, err := s.Undo()
	require.NoError(t, err)
	assert.True(t, errors.Is(s.Append(op), ErrDuplicateOperation))
	assert.Empty(t, s.Log())
	assert.Len(t, s.RedoBuffer(), 1)

	require.NoError(t, s.Append(segment("R1", 1)))
	require.NoError(t, s.Append(segment("R1", 2)))
	assert.Len(t, s.Log(), 2)
}

func TestRoomStateClear(t *testing.T) {
	s := newRoomState(1)
	require.NoError(t, s.Append(segment("R1", 0)))
	require.NoError(t, s.Append(segment("R1", 1)))
	_, err := s.Undo()
	require.NoError(t, err)

	require.NoError(t, s.Clear(NewClearOperation("R1")))

	log := s.Log()
	require.Len(t, log, 1)
	assert.True(t, log[0].IsClear())
	assert.Empty(t, s.Drawings())
	assert.Empty(t, s.RedoBuffer())
}

func TestRoomStateUndoOfClearLeavesBlankBoard(t *testing.T) {
	s := newRoomState(1)
	require.NoError(t, s.Append(segment("R1", 0)))
	require.NoError(t, s.Clear(NewClearOperation("R1")))

	undone, err := s.Undo()
	require.NoError(t, err)
	assert.True(t, undone.IsClear())
	assert.Empty(t, s.Drawings())
	assert.Empty(t, s.Log())

	redone, err := s.Redo()
	require.NoError(t, err)
	assert.True(t, redone.IsClear())
	assert.Empty(t, s.Drawings())
}

func TestRoomStateRejectsWrongKinds(t *testing.T) {
	s := newRoomState(1)
	assert.True(t, errors.Is(s.Append(NewClearOperation("R1")), ErrInvalidOperation))
	assert.True(t, errors.Is(s.Clear(segment("R1", 0)), ErrInvalidOperation))
}

func TestRoomStateSnapshotIsDetached(t *testing.T) {
	s := newRoomState(1)
	require.NoError(t, s.Append(segment("R1", 0)))

	snap := s.Snapshot()
	snap.History[0].Color = "#fff"
	snap.Drawings = append(snap.Drawings, segment("R1", 9))

	assert.Equal(t, "#000", s.Log()[0].Color)
	assert.Len(t, s.Drawings(), 1)
	assert.NotNil(t, snap.RedoStack)
}

func TestRoomStateMembersOrderedByJoin(t *testing.T) {
	s := newRoomState(1)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, s.addMember(NewMember("b", "bob", base.Add(time.Second))))
	assert.True(t, s.addMember(NewMember("a", "alice", base)))
	assert.False(t, s.addMember(NewMember("a", "alice again", base)))

	members := s.Members()
	require.Len(t, members, 2)
	assert.Equal(t, "alice", members[0].DisplayName)
	assert.Equal(t, "bob", members[1].DisplayName)
}

func TestRoomExecAfterClose(t *testing.T) {
	room := newRoom("R1", 1, time.Now())
	room.closed = true

	called := false
	err := room.Exec(func(*RoomState) error {
		called = true
		return nil
	})
	assert.True(t, errors.Is(err, ErrRoomClosed))
	assert.False(t, called)
}
