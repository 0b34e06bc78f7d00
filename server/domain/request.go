package domain

import (
	"fmt"
	"strings"
)

type RequestType int

const (
	RequestJoin RequestType = iota
	RequestDraw
	RequestUndo
	RequestRedo
	RequestClear
	RequestChat
	RequestSync
	RequestLeave
)

func (t RequestType) String() string {
	switch t {
	case RequestJoin:
		return "join"
	case RequestDraw:
		return "draw"
	case RequestUndo:
		return "undo"
	case RequestRedo:
		return "redo"
	case RequestClear:
		return "clear"
	case RequestChat:
		return "chat-message"
	case RequestSync:
		return "sync"
	case RequestLeave:
		return "leave"
	default:
		return "unknown"
	}
}

func ParseRequestType(name string) (RequestType, error) {
	for t := RequestJoin; t <= RequestLeave; t++ {
		if t.String() == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown event %q", ErrInvalidRequest, name)
}

type Request struct {
	Type        RequestType
	RoomID      string
	DisplayName string
	Operation   Operation
	Message     string
}

func NewJoinRequest(roomID, displayName string) Request {
	return Request{
		Type:        RequestJoin,
		RoomID:      roomID,
		DisplayName: displayName,
	}
}

func NewDrawRequest(op Operation) Request {
	return Request{
		Type:      RequestDraw,
		RoomID:    op.RoomID,
		Operation: op,
	}
}

func NewUndoRequest(roomID string) Request {
	return Request{Type: RequestUndo, RoomID: roomID}
}

func NewRedoRequest(roomID string) Request {
	return Request{Type: RequestRedo, RoomID: roomID}
}

func NewClearRequest(roomID string) Request {
	return Request{Type: RequestClear, RoomID: roomID}
}

func NewSyncRequest(roomID string) Request {
	return Request{Type: RequestSync, RoomID: roomID}
}

func NewLeaveRequest(roomID string) Request {
	return Request{Type: RequestLeave, RoomID: roomID}
}

func NewChatRequest(roomID, message, displayName string) Request {
	return Request{
		Type:        RequestChat,
		RoomID:      roomID,
		Message:     message,
		DisplayName: displayName,
	}
}

func (r Request) IsValid() bool {
	switch r.Type {
	case RequestJoin:
		return strings.TrimSpace(r.RoomID) != ""
	case RequestDraw:
		return r.Operation.RoomID != ""
	case RequestChat:
		return strings.TrimSpace(r.Message) != ""
	case RequestUndo, RequestRedo, RequestClear, RequestSync, RequestLeave:
		return true
	default:
		return false
	}
}

func (r Request) String() string {
	switch r.Type {
	case RequestJoin:
		return r.Type.String() + ": " + r.DisplayName + " -> " + r.RoomID
	case RequestDraw:
		return r.Type.String() + ": " + r.Operation.String()
	case RequestChat:
		return r.Type.String() + ": " + r.Message
	default:
		return r.Type.String() + ": " + r.RoomID
	}
}
