package pb

import "time"

// Payload types of the board channel and the query methods. Field names are
// the JSON names carried in Envelope.Payload and in the unary Structs.

type JoinPayload struct {
	RoomID      string `json:"roomId"`
	DisplayName string `json:"displayName,omitempty"`
}

type RoomPayload struct {
	RoomID string `json:"roomId,omitempty"`
}

type ChatPayload struct {
	RoomID      string `json:"roomId,omitempty"`
	Message     string `json:"message"`
	DisplayName string `json:"displayName,omitempty"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Operation struct {
	ID        string    `json:"id,omitempty"`
	Type      string    `json:"type,omitempty"`
	RoomID    string    `json:"roomId"`
	UserID    string    `json:"userId,omitempty"`
	Tool      string    `json:"tool,omitempty"`
	Color     string    `json:"color,omitempty"`
	LineWidth float64   `json:"lineWidth,omitempty"`
	StartX    float64   `json:"startX"`
	StartY    float64   `json:"startY"`
	EndX      float64   `json:"endX"`
	EndY      float64   `json:"endY"`
	Path      []Point   `json:"path,omitempty"`
	Text      string    `json:"text,omitempty"`
	FillColor string    `json:"fillColor,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

type Snapshot struct {
	Drawings  []Operation `json:"drawings"`
	History   []Operation `json:"history"`
	RedoStack []Operation `json:"redoStack"`
}

type ChatMessage struct {
	ID          string    `json:"id"`
	RoomID      string    `json:"roomId"`
	Message     string    `json:"message"`
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	Timestamp   time.Time `json:"timestamp"`
}

type Room struct {
	RoomID     string    `json:"roomId"`
	Members    int       `json:"members"`
	Operations int       `json:"operations"`
	Redo       int       `json:"redo"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Stats struct {
	ActiveRooms     int    `json:"activeRooms"`
	ActiveSessions  int    `json:"activeSessions"`
	TotalOperations int64  `json:"totalOperations"`
	TotalMessages   int64  `json:"totalMessages"`
	StoredMessages  int64  `json:"storedMessages"`
	Uptime          string `json:"uptime"`
}

// RoomList is the ListRooms reply.
type RoomList struct {
	Rooms []Room `json:"rooms"`
	Stats Stats  `json:"stats"`
}

// MessageQuery is the ListMessages and SearchMessages request.
type MessageQuery struct {
	RoomID  string `json:"roomId"`
	Limit   int    `json:"limit,omitempty"`
	Pattern string `json:"pattern,omitempty"`
}

type MessageList struct {
	Messages []ChatMessage `json:"messages"`
}
