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
	"google.golang.org/protobuf/types/known/emptypb"
)

var showStats bool

// lsCmd represents the ls command
var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "Lists the active rooms.",
	Long: `Lists the rooms that currently have members, with member count, log
length and redo depth. With -s, also prints server statistics.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		res, err := boardClient.ListRooms(ctx, &emptypb.Empty{})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error calling ListRooms: %v\n", err)
			return
		}
		var list pb.RoomList
		if err := pb.FromStruct(res, &list); err != nil {
			fmt.Fprintf(os.Stderr, "Error decoding rooms: %v\n", err)
			return
		}

		if len(list.Rooms) == 0 {
			fmt.Println("No active rooms.")
		}
		for _, r := range list.Rooms {
			fmt.Printf("ROOM  %s %3d members %4d ops %3d redo  %s\n",
				r.CreatedAt.Local().Format("1 _2 15:04"), r.Members, r.Operations, r.Redo, r.RoomID)
		}
		if showStats {
			s := list.Stats
			fmt.Printf("rooms %d, sessions %d, operations %d, messages %d (%d stored), up %s\n",
				s.ActiveRooms, s.ActiveSessions, s.TotalOperations, s.TotalMessages, s.StoredMessages, s.Uptime)
		}
	},
}

func init() {
	rootCmd.AddCommand(lsCmd)
	lsCmd.Flags().BoolVarP(&showStats, "stats", "s", false, "Print server statistics")
}
