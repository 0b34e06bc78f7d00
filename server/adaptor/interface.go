package adaptor

import "github.com/ponyo877/sketchsphere/server/domain"

type Usecase interface {
	NewSessionID() string
	HandleSession(requests <-chan domain.Request, responses chan<- domain.Event, sessionID, remote string) error
	ListRooms() []domain.RoomInfo
	ListMessages(roomID string, limit int) ([]domain.ChatMessage, error)
	SearchMessages(roomID, pattern string) ([]domain.ChatMessage, error)
	GetMessage(id string) (domain.ChatMessage, error)
	Stats() domain.Stats
}
