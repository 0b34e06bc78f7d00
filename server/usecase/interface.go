package usecase

import "github.com/ponyo877/sketchsphere/server/domain"

// Repository stores the chat transcript of live rooms. Messages are scoped to
// a room generation; see domain.RoomState.Generation.
type Repository interface {
	CreateMessage(generation uint64, msg domain.ChatMessage) error
	GetMessage(id string) (domain.ChatMessage, error)
	ListMessages(roomID string, generation uint64, limit int) ([]domain.ChatMessage, error)
	SearchMessages(roomID string, generation uint64, pattern string) ([]domain.ChatMessage, error)
	DeleteMessages(roomID string, generation uint64) error
	CountMessages() (int64, error)
}

// Recorder receives usage counts. *metrics.Metrics implements it.
type Recorder interface {
	RoomCreated()
	RoomRemoved()
	SessionOpened()
	SessionClosed()
	MemberJoined()
	MemberLeft()
	OperationApplied(kind string)
	ChatRelayed()
	RequestDropped(kind, reason string)
	EventDropped(kind string)
}

type nopRecorder struct{}

func (nopRecorder) RoomCreated()                  {}
func (nopRecorder) RoomRemoved()                  {}
func (nopRecorder) SessionOpened()                {}
func (nopRecorder) SessionClosed()                {}
func (nopRecorder) MemberJoined()                 {}
func (nopRecorder) MemberLeft()                   {}
func (nopRecorder) OperationApplied(string)       {}
func (nopRecorder) ChatRelayed()                  {}
func (nopRecorder) RequestDropped(string, string) {}
func (nopRecorder) EventDropped(string)           {}
