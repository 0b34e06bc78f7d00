package domain

import (
	"fmt"
	"sync"
)

// Hub is the in-process MessageBroadcaster. Sends never block: an event that
// does not fit in a connection's queue is dropped for that connection only.
type Hub struct {
	mu            sync.RWMutex
	responseChans map[string]chan<- Event
	groups        map[string]map[string]struct{}
	onDrop        func(sessionID string, event Event)
}

type HubOption func(*Hub)

// WithDropHandler is called for every event dropped because a connection's
// queue was full.
func WithDropHandler(fn func(sessionID string, event Event)) HubOption {
	return func(h *Hub) {
		h.onDrop = fn
	}
}

func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		responseChans: make(map[string]chan<- Event),
		groups:        make(map[string]map[string]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hub) RegisterSession(sessionID string, responseChan chan<- Event) error {
	if sessionID == "" || responseChan == nil {
		return fmt.Errorf("%w: empty session", ErrInvalidRequest)
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	h.responseChans[sessionID] = responseChan
	return nil
}

// UnregisterSession forgets the connection and all its subscriptions. After
// it returns no further event is written to the session's channel.
func (h *Hub) UnregisterSession(sessionID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.responseChans, sessionID)
	for roomID, members := range h.groups {
		delete(members, sessionID)
		if len(members) == 0 {
			delete(h.groups, roomID)
		}
	}
	return nil
}

func (h *Hub) Subscribe(roomID, sessionID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.responseChans[sessionID]; !exists {
		return fmt.Errorf("%w: %s", ErrSessionNotRegistered, sessionID)
	}
	members, exists := h.groups[roomID]
	if !exists {
		members = make(map[string]struct{})
		h.groups[roomID] = members
	}
	members[sessionID] = struct{}{}
	return nil
}

func (h *Hub) Unsubscribe(roomID, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, exists := h.groups[roomID]; exists {
		delete(members, sessionID)
		if len(members) == 0 {
			delete(h.groups, roomID)
		}
	}
}

func (h *Hub) SendToRoom(roomID, exclude string, event Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for sessionID := range h.groups[roomID] {
		if sessionID == exclude {
			continue
		}
		if h.sendLocked(sessionID, event) == nil {
			delivered++
		}
	}
	return delivered
}

func (h *Hub) SendToConnection(sessionID string, event Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.sendLocked(sessionID, event)
}

func (h *Hub) sendLocked(sessionID string, event Event) error {
	responseChan, exists := h.responseChans[sessionID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrSessionNotRegistered, sessionID)
	}
	select {
	case responseChan <- event:
		return nil
	default:
		if h.onDrop != nil {
			h.onDrop(sessionID, event)
		}
		return fmt.Errorf("%w: %s", ErrSessionBackpressure, sessionID)
	}
}

func (h *Hub) IsSessionRegistered(sessionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, exists := h.responseChans[sessionID]
	return exists
}

func (h *Hub) GetRegisteredSessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.responseChans)
}

func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.groups[roomID])
}
