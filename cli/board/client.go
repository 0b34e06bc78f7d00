package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
	pb "github.com/ponyo877/sketchsphere/grpc"
)

var ErrNotJoined = errors.New("not joined to a room")

// Client is one board channel connection. Sends may come from any goroutine;
// Recv must be called from a single reader.
type Client struct {
	mu          sync.Mutex
	stream      pb.BoardService_ConnectClient
	board       *Board
	displayName string
}

// Connect opens the board channel. The stream lives until ctx is canceled or
// Close is called.
func Connect(ctx context.Context, client pb.BoardServiceClient, displayName string) (*Client, error) {
	stream, err := client.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open board channel: %w", err)
	}
	return &Client{stream: stream, board: New(), displayName: displayName}, nil
}

func (c *Client) Board() *Board {
	return c.board
}

func (c *Client) send(event string, payload any) error {
	env, err := pb.NewEnvelope(event, payload)
	if err != nil {
		return err
	}
	s, err := env.ToStruct()
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.stream.Send(s); err != nil {
		return fmt.Errorf("failed to send %s: %w", event, err)
	}
	return nil
}

func (c *Client) room() (string, error) {
	roomID := c.board.RoomID()
	if roomID == "" {
		return "", ErrNotJoined
	}
	return roomID, nil
}

// Join enters roomID, leaving any room joined before. The mirror is reset
// and refilled by the initial-state that follows.
func (c *Client) Join(roomID string) error {
	if roomID == "" {
		return fmt.Errorf("room id is required")
	}
	c.board.Reset(roomID)
	return c.send(pb.EventJoin, pb.JoinPayload{RoomID: roomID, DisplayName: c.displayName})
}

func (c *Client) Leave() error {
	roomID, err := c.room()
	if err != nil {
		return err
	}
	if err := c.send(pb.EventLeave, pb.RoomPayload{RoomID: roomID}); err != nil {
		return err
	}
	c.board.Reset("")
	return nil
}

// Draw sends op to the joined room and returns it as sent. The id is
// generated here so the echo can be matched.
func (c *Client) Draw(op pb.Operation) (pb.Operation, error) {
	roomID, err := c.room()
	if err != nil {
		return pb.Operation{}, err
	}
	op.Type = "draw"
	op.RoomID = roomID
	if op.ID == "" {
		op.ID = ulid.Make().String()
	}
	c.board.Expect(op.ID)
	return op, c.send(pb.EventDraw, op)
}

func (c *Client) roomEvent(event string) error {
	roomID, err := c.room()
	if err != nil {
		return err
	}
	return c.send(event, pb.RoomPayload{RoomID: roomID})
}

func (c *Client) Undo() error  { return c.roomEvent(pb.EventUndo) }
func (c *Client) Redo() error  { return c.roomEvent(pb.EventRedo) }
func (c *Client) Clear() error { return c.roomEvent(pb.EventClear) }
func (c *Client) Sync() error  { return c.roomEvent(pb.EventSync) }

func (c *Client) Chat(message string) error {
	roomID, err := c.room()
	if err != nil {
		return err
	}
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("message is empty")
	}
	return c.send(pb.EventChatMessage, pb.ChatPayload{RoomID: roomID, Message: message, DisplayName: c.displayName})
}

// Recv blocks for the next server event, applies it to the mirror and
// returns it with a one-line description. Events the mirror cannot decode
// are returned with the error so the caller can log and keep reading.
func (c *Client) Recv() (pb.Envelope, string, error) {
	s, err := c.stream.Recv()
	if err != nil {
		return pb.Envelope{}, "", err
	}
	env, err := pb.EnvelopeFromStruct(s)
	if err != nil {
		return pb.Envelope{}, "", err
	}
	line, err := c.board.Apply(env)
	return env, line, err
}

// Close half-closes the stream; the server then ends the session.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stream.CloseSend()
}
