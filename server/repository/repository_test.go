package repository

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ponyo877/sketchsphere/server/domain"
	"github.com/ponyo877/sketchsphere/server/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) usecase.Repository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db)
}

func chat(id, roomID, text string, at time.Time) domain.ChatMessage {
	return domain.NewChatMessage(id, roomID, "conn-"+id, "user-"+id, text, at)
}

func TestListMessagesReturnsLastNOldestFirst(t *testing.T) {
	repo := newTestRepository(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.CreateMessage(1, chat(fmt.Sprint(i), "R1", fmt.Sprintf("msg %d", i), base.Add(time.Duration(i)*time.Second))))
	}
	require.NoError(t, repo.CreateMessage(1, chat("other", "R2", "elsewhere", base)))

	messages, err := repo.ListMessages("R1", 1, 3)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "msg 2", messages[0].Message)
	assert.Equal(t, "msg 4", messages[2].Message)
	assert.Equal(t, "user-4", messages[2].DisplayName)
	assert.True(t, base.Add(4*time.Second).Equal(messages[2].Timestamp))

	all, err := repo.ListMessages("R1", 1, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestListMessagesEmptyRoom(t *testing.T) {
	repo := newTestRepository(t)

	messages, err := repo.ListMessages("nobody", 1, 10)
	require.NoError(t, err)
	assert.NotNil(t, messages)
	assert.Empty(t, messages)
}

func TestSearchMessagesUsesRegexp(t *testing.T) {
	repo := newTestRepository(t)
	now := time.Now()
	require.NoError(t, repo.CreateMessage(1, chat("1", "R1", "draw a circle", now)))
	require.NoError(t, repo.CreateMessage(1, chat("2", "R1", "nice square", now)))
	require.NoError(t, repo.CreateMessage(1, chat("3", "R1", "another circle here", now)))
	require.NoError(t, repo.CreateMessage(1, chat("4", "R2", "circle in another room", now)))

	found, err := repo.SearchMessages("R1", 1, "^(draw|another) circle")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "1", found[0].ID)
	assert.Equal(t, "3", found[1].ID)

	_, err = repo.SearchMessages("R1", 1, "(")
	assert.Error(t, err)
}

func TestDeleteMessagesPurgesOneRoom(t *testing.T) {
	repo := newTestRepository(t)
	now := time.Now()
	require.NoError(t, repo.CreateMessage(1, chat("1", "R1", "hello", now)))
	require.NoError(t, repo.CreateMessage(1, chat("2", "R2", "hi", now)))

	require.NoError(t, repo.DeleteMessages("R1", 1))

	r1, err := repo.ListMessages("R1", 1, 0)
	require.NoError(t, err)
	assert.Empty(t, r1)

	count, err := repo.CountMessages()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestGenerationsKeepTranscriptsApart(t *testing.T) {
	repo := newTestRepository(t)
	now := time.Now()
	require.NoError(t, repo.CreateMessage(1, chat("1", "R1", "old room", now)))
	require.NoError(t, repo.CreateMessage(2, chat("2", "R1", "new room", now)))

	messages, err := repo.ListMessages("R1", 2, 0)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "new room", messages[0].Message)

	found, err := repo.SearchMessages("R1", 2, "room")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	// a late purge of the old room leaves the new one alone
	require.NoError(t, repo.DeleteMessages("R1", 1))
	messages, err = repo.ListMessages("R1", 2, 0)
	require.NoError(t, err)
	assert.Len(t, messages, 1)
	_, err = repo.GetMessage("1")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestGetMessageNotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.GetMessage("missing")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(err, domain.ErrMessageNotFound))

	require.NoError(t, repo.CreateMessage(1, chat("1", "R1", "hello", time.Now())))
	msg, err := repo.GetMessage("1")
	require.NoError(t, err)
	assert.Equal(t, "conn-1", msg.UserID)
}
