package domain

import (
	"fmt"
	"time"
)

type SessionState int

const (
	SessionConnected SessionState = iota
	SessionJoined
	SessionDisconnected
)

func (s SessionState) String() string {
	switch s {
	case SessionConnected:
		return "connected"
	case SessionJoined:
		return "joined"
	case SessionDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Session is the per-connection state record. It is owned by the goroutine
// serving the connection and is never shared.
type Session struct {
	ID          string
	Remote      string
	DisplayName string
	RoomID      string
	State       SessionState
	ConnectedAt time.Time
	JoinedAt    time.Time
}

func NewSession(id, remote string, connectedAt time.Time) *Session {
	return &Session{
		ID:          id,
		Remote:      remote,
		State:       SessionConnected,
		ConnectedAt: connectedAt,
	}
}

func (s *Session) IsJoined() bool {
	return s.State == SessionJoined
}

func (s *Session) InRoom(roomID string) bool {
	return s.IsJoined() && s.RoomID == roomID
}

func (s *Session) MarkJoined(roomID, displayName string, at time.Time) error {
	if s.State == SessionDisconnected {
		return ErrSessionClosed
	}
	s.State = SessionJoined
	s.RoomID = roomID
	s.DisplayName = displayName
	s.JoinedAt = at
	return nil
}

func (s *Session) MarkLeft() {
	if s.State != SessionJoined {
		return
	}
	s.State = SessionConnected
	s.RoomID = ""
}

func (s *Session) MarkDisconnected() {
	s.State = SessionDisconnected
}

// ResolveRoom maps a room id named by a request onto the joined room. An
// empty id means the joined room; any other room is rejected.
func (s *Session) ResolveRoom(roomID string) (string, error) {
	if !s.IsJoined() {
		return "", ErrNotJoined
	}
	if roomID == "" || roomID == s.RoomID {
		return s.RoomID, nil
	}
	return "", fmt.Errorf("%w: %s is in %s, not %s", ErrNotJoined, s.ID, s.RoomID, roomID)
}

func (s *Session) Member() Member {
	return NewMember(s.ID, s.DisplayName, s.JoinedAt)
}

func (s *Session) String() string {
	if s.IsJoined() {
		return s.DisplayName + "@" + s.RoomID + "(" + s.ID + ")"
	}
	return s.ID + "(" + s.State.String() + ")"
}
