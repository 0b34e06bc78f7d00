package domain

import "time"

// ChatMessage is a server-stamped chat line. UserID is the sender's
// connection id, so every receiver can tell its own messages apart.
type ChatMessage struct {
	ID          string    `json:"id"`
	RoomID      string    `json:"roomId"`
	Message     string    `json:"message"`
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewChatMessage(id, roomID, userID, displayName, message string, timestamp time.Time) ChatMessage {
	return ChatMessage{
		ID:          id,
		RoomID:      roomID,
		Message:     message,
		UserID:      userID,
		DisplayName: displayName,
		Timestamp:   timestamp,
	}
}
