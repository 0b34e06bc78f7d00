package usecase

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ponyo877/sketchsphere/server/domain"
)

var (
	messageLimit int = 1000
)

func (u *BoardUsecase) ListRooms() []domain.RoomInfo {
	return u.registry.Rooms()
}

// ListMessages returns the last limit chat messages of a live room, oldest
// first. A limit of zero or less uses the chat history limit. Rooms that are
// not live have no transcript.
func (u *BoardUsecase) ListMessages(roomID string, limit int) ([]domain.ChatMessage, error) {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return nil, fmt.Errorf("%w: empty room id", domain.ErrInvalidRequest)
	}
	if limit <= 0 {
		limit = u.historyLimit
	}
	if limit > messageLimit {
		limit = messageLimit
	}
	room, exists := u.registry.Get(roomID)
	if !exists {
		return []domain.ChatMessage{}, nil
	}
	messages, err := u.repo.ListMessages(roomID, room.Generation(), limit)
	if err != nil {
		return nil, fmt.Errorf("error listing messages: %w", err)
	}
	return messages, nil
}

func (u *BoardUsecase) SearchMessages(roomID, pattern string) ([]domain.ChatMessage, error) {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return nil, fmt.Errorf("%w: empty room id", domain.ErrInvalidRequest)
	}
	if _, err := regexp.Compile(pattern); err != nil {
		return nil, fmt.Errorf("%w: bad pattern: %v", domain.ErrInvalidRequest, err)
	}
	room, exists := u.registry.Get(roomID)
	if !exists {
		return []domain.ChatMessage{}, nil
	}
	messages, err := u.repo.SearchMessages(roomID, room.Generation(), pattern)
	if err != nil {
		return nil, fmt.Errorf("error searching messages: %w", err)
	}
	return messages, nil
}

// GetMessage looks up one stored chat message by id. Messages of removed
// rooms are gone.
func (u *BoardUsecase) GetMessage(id string) (domain.ChatMessage, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.ChatMessage{}, fmt.Errorf("%w: empty message id", domain.ErrInvalidRequest)
	}
	msg, err := u.repo.GetMessage(id)
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("error getting message: %w", err)
	}
	return msg, nil
}

// Stats reports live counts. StoredMessages is left at zero when the
// repository cannot be read.
func (u *BoardUsecase) Stats() domain.Stats {
	stored, err := u.repo.CountMessages()
	if err != nil {
		u.logger.Warn("failed to count stored messages", "error", err)
	}
	return domain.Stats{
		ActiveRooms:     u.registry.Len(),
		ActiveSessions:  u.hub.GetRegisteredSessionCount(),
		TotalOperations: u.operations.Load(),
		TotalMessages:   u.messages.Load(),
		StoredMessages:  stored,
		Uptime:          u.now().Sub(u.startedAt).Round(time.Second).String(),
	}
}
