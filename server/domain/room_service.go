package domain

// Broadcaster delivers events to the members of a room or to one connection.
type Broadcaster interface {
	// SendToRoom delivers event to every subscriber of roomID except exclude
	// and reports how many connections accepted it.
	SendToRoom(roomID, exclude string, event Event) int
	SendToConnection(sessionID string, event Event) error
}

// MessageBroadcaster is a Broadcaster that also tracks connections and their
// room subscriptions.
type MessageBroadcaster interface {
	Broadcaster

	RegisterSession(sessionID string, responseChan chan<- Event) error
	UnregisterSession(sessionID string) error

	Subscribe(roomID, sessionID string) error
	Unsubscribe(roomID, sessionID string)

	IsSessionRegistered(sessionID string) bool
	GetRegisteredSessionCount() int
}

type Stats struct {
	ActiveRooms     int    `json:"activeRooms"`
	ActiveSessions  int    `json:"activeSessions"`
	TotalOperations int64  `json:"totalOperations"`
	TotalMessages   int64  `json:"totalMessages"`
	StoredMessages  int64  `json:"storedMessages"`
	Uptime          string `json:"uptime"`
}
