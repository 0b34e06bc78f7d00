/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	follow    bool
	tailLines int
)

// tailCmd represents the tail command
var tailCmd = &cobra.Command{
	Use:   "tail [-f] [-n lines] <room>",
	Short: "Displays the latest chat of a room.",
	Long: `Joins a room and prints the board summary and the last chat lines.
With -f, keeps printing every board and chat event until interrupted.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: RoomCompletionFunc,
	Annotations:       roomArg(0),
	Run: func(cmd *cobra.Command, args []string) {
		roomID := args[0]

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		client, err := joinRoom(ctx, roomID, displayName(cmd))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error joining %s: %v\n", roomID, err)
			return
		}
		defer leaveRoom(client)

		fmt.Println(client.Board().Summary())
		lines := client.Board().ChatLines()
		if tailLines >= 0 && len(lines) > tailLines {
			lines = lines[len(lines)-tailLines:]
		}
		for _, line := range lines {
			fmt.Println(line)
		}
		if !follow {
			return
		}

		for {
			env, line, err := client.Recv()
			if errors.Is(err, io.EOF) || status.Code(err) == codes.Canceled {
				return
			}
			if err != nil && env.Event == "" {
				fmt.Fprintf(os.Stderr, "Error receiving events for %s: %v\n", roomID, err)
				return
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Skipped %s: %v\n", env.Event, err)
				continue
			}
			fmt.Println(line)
		}
	},
}

func init() {
	rootCmd.AddCommand(tailCmd)
	tailCmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing room events")
	tailCmd.Flags().IntVarP(&tailLines, "lines", "n", 10, "Number of chat lines to print")
	tailCmd.Flags().String("name", "", "Name shown to the room while following")
}
