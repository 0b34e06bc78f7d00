package cmd

import (
	"context"
	"fmt"

	"github.com/ponyo877/sketchsphere/cli/board"
	pb "github.com/ponyo877/sketchsphere/grpc"
)

// joinRoom opens a board channel and joins roomID. It returns once the
// initial state and chat history have been applied to the mirror.
func joinRoom(ctx context.Context, roomID, name string) (*board.Client, error) {
	client, err := board.Connect(ctx, boardClient, name)
	if err != nil {
		return nil, err
	}
	if err := client.Join(roomID); err != nil {
		client.Close()
		return nil, err
	}
	if _, err := await(client, func(env pb.Envelope) bool { return env.Event == pb.EventChatHistory }); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to join %s: %w", roomID, err)
	}
	return client, nil
}

// await reads events until match accepts one. Events the mirror could not
// decode are skipped.
func await(client *board.Client, match func(pb.Envelope) bool) (pb.Envelope, error) {
	for {
		env, _, err := client.Recv()
		if err != nil && env.Event == "" {
			return pb.Envelope{}, err
		}
		if err == nil && match(env) {
			return env, nil
		}
	}
}

// leaveRoom sends leave and half-closes the stream.
func leaveRoom(client *board.Client) {
	client.Leave()
	client.Close()
}
