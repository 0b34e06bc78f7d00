package domain

import "errors"

var (
	ErrRoomNotFound         = errors.New("room not found")
	ErrRoomClosed           = errors.New("room closed")
	ErrNotJoined            = errors.New("session has not joined the room")
	ErrSessionClosed        = errors.New("session disconnected")
	ErrInvalidOperation     = errors.New("invalid operation")
	ErrDuplicateOperation   = errors.New("operation id already applied")
	ErrInvalidRequest       = errors.New("invalid request")
	ErrEmptyHistory         = errors.New("nothing to undo")
	ErrEmptyRedo            = errors.New("nothing to redo")
	ErrSessionNotRegistered = errors.New("session not registered")
	ErrSessionBackpressure  = errors.New("session outbound queue is full")
	ErrMessageNotFound      = errors.New("message not found")
)
