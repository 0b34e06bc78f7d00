package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	pb "github.com/ponyo877/sketchsphere/grpc"
	"github.com/spf13/cobra"
)

var drawCmd = &cobra.Command{
	Use:   "draw <room> <shape> <args...>",
	Short: "Draws one shape on a room's board.",
	Long: `Joins a room, draws one shape and leaves again. The shape and its
arguments use the board session syntax without the slash, for example:

  sketchsphere-cli draw lobby line 0 0 400 300 "#ff0000" 4
  sketchsphere-cli draw lobby text 20 40 hello world`,
	Args:              cobra.MinimumNArgs(3),
	ValidArgsFunction: RoomCompletionFunc,
	Annotations:       roomArg(0),
	Run: func(cmd *cobra.Command, args []string) {
		roomID := args[0]
		c, err := ParseSessionCommand("/" + quoteArgs(args[1:]))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return
		}
		if c.Name != "draw" {
			fmt.Fprintf(os.Stderr, "Error: %q is not a shape\n", args[1])
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		client, err := joinRoom(ctx, roomID, displayName(cmd))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error joining %s: %v\n", roomID, err)
			return
		}
		defer leaveRoom(client)

		sent, err := client.Draw(c.Op)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error drawing on %s: %v\n", roomID, err)
			return
		}
		var echo pb.Operation
		_, err = await(client, func(env pb.Envelope) bool {
			return env.Event == pb.EventDraw && env.Decode(&echo) == nil && echo.ID == sent.ID
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "No confirmation from %s: %v\n", roomID, err)
			return
		}
		fmt.Printf("%s %s\n", echo.ID, client.Board().Summary())
	},
}

// quoteArgs rebuilds a command line from already split arguments.
func quoteArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
	}
	return strings.Join(quoted, " ")
}

func init() {
	rootCmd.AddCommand(drawCmd)
	drawCmd.Flags().StringP("name", "n", "", "Name to draw as (defaults to display_name in config)")
}
