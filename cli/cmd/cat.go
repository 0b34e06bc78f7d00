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
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

var catLimit int

// catCmd represents the cat command
var catCmd = &cobra.Command{
	Use:   "cat <room...>",
	Short: "Displays the chat transcript of rooms.",
	Long: `Displays the recorded chat of one or more rooms, oldest first. Rooms
only keep their transcript while they have members.`,
	Args:              cobra.MinimumNArgs(1),
	ValidArgsFunction: RoomCompletionFunc,
	Annotations:       roomArg(0),
	Run: func(cmd *cobra.Command, args []string) {
		for _, roomID := range args {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			messages, err := queryMessages(ctx, boardClient.ListMessages, pb.MessageQuery{RoomID: roomID, Limit: catLimit})
			cancel()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error calling ListMessages for %s: %v\n", roomID, err)
				continue
			}
			for _, msg := range messages {
				fmt.Println(formatMessage(msg))
			}
		}
	},
}

type messageQueryFunc func(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)

// queryMessages calls ListMessages or SearchMessages with a typed query.
func queryMessages(ctx context.Context, call messageQueryFunc, query pb.MessageQuery) ([]pb.ChatMessage, error) {
	in, err := pb.ToStruct(query)
	if err != nil {
		return nil, err
	}
	res, err := call(ctx, in)
	if err != nil {
		return nil, err
	}
	var list pb.MessageList
	if err := pb.FromStruct(res, &list); err != nil {
		return nil, err
	}
	return list.Messages, nil
}

func formatMessage(msg pb.ChatMessage) string {
	return fmt.Sprintf("%s %s: %s", msg.Timestamp.Local().Format("2006-01-02 15:04:05"), msg.DisplayName, msg.Message)
}

func init() {
	rootCmd.AddCommand(catCmd)
	catCmd.Flags().IntVarP(&catLimit, "limit", "n", 0, "Number of latest messages to show (server default when 0)")
}
