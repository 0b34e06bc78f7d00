// Package board keeps a client-side copy of one room by replaying the events
// the server sends on the board channel.
package board

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	pb "github.com/ponyo877/sketchsphere/grpc"
)

// Board is the local mirror of a room. The server is the source of truth:
// snapshots replace local state wholesale, incremental events are applied in
// the order they arrive.
type Board struct {
	mu        sync.RWMutex
	roomID    string
	self      string
	drawings  []pb.Operation
	history   []pb.Operation
	redoStack []pb.Operation
	chat      []pb.ChatMessage
	left      []string
	pending   map[string]struct{}
}

func New() *Board {
	return &Board{}
}

// Reset forgets everything and starts mirroring roomID.
func (b *Board) Reset(roomID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.roomID = roomID
	b.drawings = nil
	b.history = nil
	b.redoStack = nil
	b.chat = nil
	b.left = nil
}

func (b *Board) foreign(roomID string) bool {
	return roomID != "" && roomID != b.roomID
}

// Expect registers the id of an operation this client is about to send.
// When its echo arrives the stamped userId tells the client who it is.
func (b *Board) Expect(opID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending == nil {
		b.pending = make(map[string]struct{})
	}
	b.pending[opID] = struct{}{}
}

// Self is this client's connection id, once learned from an echo.
func (b *Board) Self() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.self
}

func (b *Board) RoomID() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.roomID
}

// Apply folds one server event into the mirror and returns a one-line
// description of it.
func (b *Board) Apply(env pb.Envelope) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch env.Event {
	case pb.EventInitialState, pb.EventUndo, pb.EventRedo:
		var snap pb.Snapshot
		if err := env.Decode(&snap); err != nil {
			return "", err
		}
		b.drawings = snap.Drawings
		b.history = snap.History
		b.redoStack = snap.RedoStack
		return fmt.Sprintf("%s: %d drawn, %d in history, %d to redo", env.Event, len(b.drawings), len(b.history), len(b.redoStack)), nil

	case pb.EventDraw:
		var op pb.Operation
		if err := env.Decode(&op); err != nil {
			return "", err
		}
		if _, ok := b.pending[op.ID]; ok && op.ID != "" {
			delete(b.pending, op.ID)
			b.self = op.UserID
		}
		// still in flight when the client switched rooms
		if b.foreign(op.RoomID) {
			return "draw: ignored from " + op.RoomID, nil
		}
		if op.ID != "" && slices.ContainsFunc(b.history, func(o pb.Operation) bool { return o.ID == op.ID }) {
			return "draw: duplicate " + op.ID, nil
		}
		b.drawings = append(b.drawings, op)
		b.history = append(b.history, op)
		b.redoStack = nil
		return "draw: " + describeOperation(op), nil

	case pb.EventClearBoard:
		b.drawings = nil
		b.history = []pb.Operation{{Type: "clear", RoomID: b.roomID}}
		b.redoStack = nil
		return "board cleared", nil

	case pb.EventChatMessage:
		var msg pb.ChatMessage
		if err := env.Decode(&msg); err != nil {
			return "", err
		}
		if b.foreign(msg.RoomID) {
			return "chat: ignored from " + msg.RoomID, nil
		}
		b.chat = append(b.chat, msg)
		return b.formatChat(msg), nil

	case pb.EventChatHistory:
		var msgs []pb.ChatMessage
		if err := env.Decode(&msgs); err != nil {
			return "", err
		}
		b.chat = msgs
		return fmt.Sprintf("chat history: %d messages", len(msgs)), nil

	case pb.EventUserLeft:
		var connID string
		if err := env.Decode(&connID); err != nil {
			return "", err
		}
		b.left = append(b.left, connID)
		return connID + " left", nil
	}
	return "", fmt.Errorf("unknown event %q", env.Event)
}

func (b *Board) Drawings() []pb.Operation {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.drawings)
}

func (b *Board) History() []pb.Operation {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.history)
}

func (b *Board) RedoStack() []pb.Operation {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.redoStack)
}

func (b *Board) Chat() []pb.ChatMessage {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.chat)
}

// Left lists the connection ids reported as gone, oldest first.
func (b *Board) Left() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.left)
}

// ChatLines renders the transcript, marking this client's own lines.
func (b *Board) ChatLines() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	lines := make([]string, 0, len(b.chat))
	for _, msg := range b.chat {
		lines = append(lines, b.formatChat(msg))
	}
	return lines
}

// Summary is the status line shown above the canvas.
func (b *Board) Summary() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return fmt.Sprintf("room %s | %d strokes | history %d | redo %d | chat %d",
		b.roomID, len(b.drawings), len(b.history), len(b.redoStack), len(b.chat))
}

func (b *Board) formatChat(msg pb.ChatMessage) string {
	name := msg.DisplayName
	if b.self != "" && msg.UserID == b.self {
		name += " (you)"
	}
	return fmt.Sprintf("[%s] %s: %s", msg.Timestamp.Local().Format("15:04:05"), name, msg.Message)
}

func describeOperation(op pb.Operation) string {
	var sb strings.Builder
	tool := op.Tool
	if tool == "" {
		tool = "pen"
	}
	sb.WriteString(tool)
	if op.Color != "" {
		sb.WriteString(" " + op.Color)
	}
	fmt.Fprintf(&sb, " (%g,%g)->(%g,%g)", op.StartX, op.StartY, op.EndX, op.EndY)
	if op.Text != "" {
		fmt.Fprintf(&sb, " %q", op.Text)
	}
	return sb.String()
}
