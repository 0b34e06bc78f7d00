package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubSendToRoomExcludes(t *testing.T) {
	hub := NewHub()
	a := make(chan Event, 4)
	b := make(chan Event, 4)
	require.NoError(t, hub.RegisterSession("a", a))
	require.NoError(t, hub.RegisterSession("b", b))
	require.NoError(t, hub.Subscribe("R1", "a"))
	require.NoError(t, hub.Subscribe("R1", "b"))

	delivered := hub.SendToRoom("R1", "a", NewClearBoardEvent("R1"))
	assert.Equal(t, 1, delivered)
	assert.Len(t, a, 0)
	require.Len(t, b, 1)
	assert.Equal(t, EventClearBoard, (<-b).Type)
}

func TestHubSubscribeRequiresRegistration(t *testing.T) {
	hub := NewHub()
	err := hub.Subscribe("R1", "ghost")
	assert.True(t, errors.Is(err, ErrSessionNotRegistered))

	err = hub.SendToConnection("ghost", NewClearBoardEvent("R1"))
	assert.True(t, errors.Is(err, ErrSessionNotRegistered))
}

func TestHubDropsWhenQueueFull(t *testing.T) {
	var dropped []string
	hub := NewHub(WithDropHandler(func(sessionID string, _ Event) {
		dropped = append(dropped, sessionID)
	}))
	slow := make(chan Event, 1)
	require.NoError(t, hub.RegisterSession("slow", slow))

	require.NoError(t, hub.SendToConnection("slow", NewClearBoardEvent("R1")))
	err := hub.SendToConnection("slow", NewClearBoardEvent("R1"))
	assert.True(t, errors.Is(err, ErrSessionBackpressure))
	assert.Equal(t, []string{"slow"}, dropped)
}

func TestHubUnregisterDropsSubscriptions(t *testing.T) {
	hub := NewHub()
	a := make(chan Event, 1)
	require.NoError(t, hub.RegisterSession("a", a))
	require.NoError(t, hub.Subscribe("R1", "a"))
	assert.Equal(t, 1, hub.RoomSize("R1"))
	assert.True(t, hub.IsSessionRegistered("a"))

	require.NoError(t, hub.UnregisterSession("a"))
	assert.Zero(t, hub.RoomSize("R1"))
	assert.Zero(t, hub.GetRegisteredSessionCount())
	assert.Zero(t, hub.SendToRoom("R1", "", NewClearBoardEvent("R1")))
}
