package domain

import "time"

type EventType int

const (
	EventInitialState EventType = iota
	EventDraw
	EventUndo
	EventRedo
	EventClearBoard
	EventChatMessage
	EventChatHistory
	EventUserLeft
)

func (t EventType) String() string {
	switch t {
	case EventInitialState:
		return "initial-state"
	case EventDraw:
		return "draw"
	case EventUndo:
		return "undo"
	case EventRedo:
		return "redo"
	case EventClearBoard:
		return "clear-board"
	case EventChatMessage:
		return "chat-message"
	case EventChatHistory:
		return "chat-history"
	case EventUserLeft:
		return "user-left"
	default:
		return "unknown"
	}
}

// Event is a server -> client message. Payload is JSON-encodable and nil for
// clear-board.
type Event struct {
	Type      EventType
	RoomID    string
	Payload   any
	Timestamp time.Time
}

func newEvent(t EventType, roomID string, payload any) Event {
	return Event{
		Type:      t,
		RoomID:    roomID,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

func NewInitialStateEvent(roomID string, snapshot Snapshot) Event {
	return newEvent(EventInitialState, roomID, snapshot)
}

func NewDrawEvent(op Operation) Event {
	return newEvent(EventDraw, op.RoomID, op)
}

func NewUndoEvent(roomID string, snapshot Snapshot) Event {
	return newEvent(EventUndo, roomID, snapshot)
}

func NewRedoEvent(roomID string, snapshot Snapshot) Event {
	return newEvent(EventRedo, roomID, snapshot)
}

func NewClearBoardEvent(roomID string) Event {
	return newEvent(EventClearBoard, roomID, nil)
}

func NewChatMessageEvent(msg ChatMessage) Event {
	return newEvent(EventChatMessage, msg.RoomID, msg)
}

func NewChatHistoryEvent(roomID string, messages []ChatMessage) Event {
	if messages == nil {
		messages = []ChatMessage{}
	}
	return newEvent(EventChatHistory, roomID, messages)
}

func NewUserLeftEvent(roomID, connectionID string) Event {
	return newEvent(EventUserLeft, roomID, connectionID)
}

func (e Event) String() string {
	return e.Type.String() + "@" + e.RoomID
}
