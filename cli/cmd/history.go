package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/ponyo877/sketchsphere/cli/board"
	pb "github.com/ponyo877/sketchsphere/grpc"
	"github.com/spf13/cobra"
)

// historyCommand builds undo, redo and clear. They share one flow: join,
// send, wait for the broadcast that confirms it, leave.
func historyCommand(use, short, reply string, ready func(*board.Board) error, send func(*board.Client) error) *cobra.Command {
	c := &cobra.Command{
		Use:               use + " <room>",
		Short:             short,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: RoomCompletionFunc,
		Annotations:       roomArg(0),
		Run: func(cmd *cobra.Command, args []string) {
			roomID := args[0]

			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()

			client, err := joinRoom(ctx, roomID, displayName(cmd))
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error joining %s: %v\n", roomID, err)
				return
			}
			defer leaveRoom(client)

			// the server ignores these silently, so check the mirror first
			if err := ready(client.Board()); err != nil {
				fmt.Fprintf(os.Stderr, "Nothing to %s in %s: %v\n", use, roomID, err)
				return
			}
			if err := send(client); err != nil {
				fmt.Fprintf(os.Stderr, "Error sending %s to %s: %v\n", use, roomID, err)
				return
			}
			if _, err := await(client, func(env pb.Envelope) bool { return env.Event == reply }); err != nil {
				fmt.Fprintf(os.Stderr, "No confirmation from %s: %v\n", roomID, err)
				return
			}
			fmt.Println(client.Board().Summary())
		},
	}
	c.Flags().StringP("name", "n", "", "Name to act as (defaults to display_name in config)")
	return c
}

func init() {
	rootCmd.AddCommand(
		historyCommand("undo", "Undoes the latest operation in a room.", pb.EventUndo,
			func(b *board.Board) error {
				if len(b.History()) == 0 {
					return fmt.Errorf("history is empty")
				}
				return nil
			},
			(*board.Client).Undo),
		historyCommand("redo", "Redoes the latest undone operation in a room.", pb.EventRedo,
			func(b *board.Board) error {
				if len(b.RedoStack()) == 0 {
					return fmt.Errorf("redo stack is empty")
				}
				return nil
			},
			(*board.Client).Redo),
		historyCommand("clear", "Clears the board of a room.", pb.EventClearBoard,
			func(*board.Board) error { return nil },
			(*board.Client).Clear),
	)
}
