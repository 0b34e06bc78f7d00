/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	pb "github.com/ponyo877/sketchsphere/grpc"
	"github.com/spf13/cobra"
)

// echoCmd represents the echo command
var echoCmd = &cobra.Command{
	Use:   "echo <message> <room>",
	Short: "Posts a chat message to a room.",
	Long: `Joins a room, posts one chat message and leaves again. Members of the
room see it like any other chat line.`,
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: RoomCompletionFunc,
	Annotations:       roomArg(1),
	Run: func(cmd *cobra.Command, args []string) {
		message, roomID := args[0], args[1]

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		client, err := joinRoom(ctx, roomID, displayName(cmd))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error joining %s: %v\n", roomID, err)
			return
		}
		defer leaveRoom(client)

		if err := client.Chat(message); err != nil {
			fmt.Fprintf(os.Stderr, "Error posting to %s: %v\n", roomID, err)
			return
		}
		var msg pb.ChatMessage
		_, err = await(client, func(env pb.Envelope) bool {
			return env.Event == pb.EventChatMessage && env.Decode(&msg) == nil && msg.Message == strings.TrimSpace(message)
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "No confirmation from %s: %v\n", roomID, err)
			return
		}
		fmt.Printf("Posted to %s as %s\n", roomID, msg.DisplayName)
	},
}

func init() {
	rootCmd.AddCommand(echoCmd)
	echoCmd.Flags().StringP("name", "n", "", "Name to post as (defaults to display_name in config)")
}
