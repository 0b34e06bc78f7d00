/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"

	pb "github.com/ponyo877/sketchsphere/grpc"
	"github.com/spf13/cobra"
)

// grepCmd represents the grep command
var grepCmd = &cobra.Command{
	Use:   "grep <pattern> <room>",
	Short: "Searches the chat transcript of a room.",
	Long: `Prints the chat messages of a room whose text matches a regular
expression (RE2 syntax), oldest first.`,
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: RoomCompletionFunc,
	Annotations:       roomArg(1),
	Run: func(cmd *cobra.Command, args []string) {
		pattern, roomID := args[0], args[1]

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		messages, err := queryMessages(ctx, boardClient.SearchMessages, pb.MessageQuery{RoomID: roomID, Pattern: pattern})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error calling SearchMessages for pattern '%s' in %s: %v\n", pattern, roomID, err)
			return
		}
		for _, msg := range messages {
			fmt.Println(formatMessage(msg))
		}
	},
}

func init() {
	rootCmd.AddCommand(grepCmd)
}
