/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/c-bata/go-prompt"
	"github.com/mattn/go-shellwords"
	pb "github.com/ponyo877/sketchsphere/grpc"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
)

var (
	cfgFile           string
	grpcServerAddress string
	boardClient       pb.BoardServiceClient
	grpcConn          *grpc.ClientConn
)

const (
	grpcServerAddressKey = "grpc_server_address"
	displayNameKey       = "display_name"
	requestTimeout       = 10 * time.Second
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sketchsphere-cli",
	Short: "Terminal client for a SketchSphere board server.",
	Long: `sketchsphere-cli talks to a SketchSphere server over gRPC.

Open a room to watch and draw on the shared board, follow a room's events,
post chat messages or query rooms and chat transcripts. Run without
arguments to enter interactive mode.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations["offline"] == "true" {
			return nil
		}
		conn, err := grpc.NewClient(grpcServerAddress, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return fmt.Errorf("did not connect to gRPC server: %w", err)
		}
		grpcConn = conn
		boardClient = pb.NewBoardServiceClient(conn)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if grpcConn != nil {
			err := grpcConn.Close()
			grpcConn = nil
			return err
		}
		return nil
	},
}

// Execute runs a single command when arguments are given, otherwise it
// starts the interactive prompt.
func Execute() {
	if len(os.Args) > 1 {
		if err := rootCmd.Execute(); err != nil {
			os.Exit(1)
		}
		return
	}

	fmt.Println("entering interactive mode, type 'exit' to quit")
	p := prompt.New(executeLine, complete,
		prompt.OptionPrefix("❯❯❯ "),
		prompt.OptionTitle("sketchsphere-cli"),
		prompt.OptionSetExitCheckerOnInput(func(in string, breakline bool) bool {
			line := strings.TrimSpace(in)
			return breakline && (line == "exit" || line == "quit")
		}),
	)
	p.Run()
}

func executeLine(line string) {
	line = strings.TrimSpace(line)
	if line == "" || line == "exit" || line == "quit" {
		return
	}
	args, err := shellwords.Parse(line)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing input: %v\n", err)
		return
	}
	rootCmd.SetArgs(args)
	// errors are already printed by cobra; the prompt keeps running
	_ = rootCmd.Execute()
}

func complete(d prompt.Document) []prompt.Suggest {
	args := strings.Fields(d.TextBeforeCursor())
	word := d.GetWordBeforeCursor()
	if len(args) == 0 || (len(args) == 1 && word != "") {
		var s []prompt.Suggest
		for _, c := range rootCmd.Commands() {
			if c.Hidden || c.Name() == "completion" || c.Name() == "help" {
				continue
			}
			s = append(s, prompt.Suggest{Text: c.Name(), Description: c.Short})
		}
		return prompt.FilterHasPrefix(s, word, true)
	}
	pos := len(args) - 1
	if word != "" {
		pos--
	}
	if c, _, err := rootCmd.Find(args[:1]); err == nil && c.Annotations[roomArgAnnotation] == strconv.Itoa(pos) {
		var s []prompt.Suggest
		for _, id := range rooms.list() {
			s = append(s, prompt.Suggest{Text: id})
		}
		return prompt.FilterHasPrefix(s, word, true)
	}
	return nil
}

// roomCache keeps the last ListRooms result for completion, so typing does
// not hit the server on every key.
type roomCache struct {
	mu      sync.Mutex
	ids     []string
	fetched time.Time
}

var rooms = &roomCache{}

func (c *roomCache) list() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if time.Since(c.fetched) < 5*time.Second {
		return c.ids
	}
	c.fetched = time.Now()
	ids, err := fetchRoomIDs(grpcServerAddress)
	if err == nil {
		c.ids = ids
	}
	return c.ids
}

func fetchRoomIDs(address string) ([]string, error) {
	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	res, err := pb.NewBoardServiceClient(conn).ListRooms(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, err
	}
	var list pb.RoomList
	if err := pb.FromStruct(res, &list); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(list.Rooms))
	for _, r := range list.Rooms {
		ids = append(ids, r.RoomID)
	}
	return ids, nil
}

// roomArgAnnotation marks the positional argument of a command that names a
// room, so both completers can offer room ids there.
const roomArgAnnotation = "room_arg"

func roomArg(pos int) map[string]string {
	return map[string]string{roomArgAnnotation: strconv.Itoa(pos)}
}

// RoomCompletionFunc completes room ids for cobra's shell completion.
func RoomCompletionFunc(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if cmd.Annotations[roomArgAnnotation] != strconv.Itoa(len(args)) {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	ids, err := fetchRoomIDs(grpcServerAddress)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var out []string
	for _, id := range ids {
		if strings.HasPrefix(id, toComplete) {
			out = append(out, id)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// displayName is the name sent on join: the flag when given, otherwise the
// configured one. An empty name lets the server pick a guest name.
func displayName(cmd *cobra.Command) string {
	if f := cmd.Flags().Lookup("name"); f != nil && f.Changed {
		return f.Value.String()
	}
	return viper.GetString(displayNameKey)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.sketchsphere-cli.yaml)")
	rootCmd.PersistentFlags().String("grpc-server", "localhost:50051", "Address of the SketchSphere gRPC server")
	rootCmd.PersistentFlags().String("display-name", "", "Name shown to other members of a room")

	viper.BindPFlag(grpcServerAddressKey, rootCmd.PersistentFlags().Lookup("grpc-server"))
	viper.BindPFlag(displayNameKey, rootCmd.PersistentFlags().Lookup("display-name"))
	viper.SetDefault(grpcServerAddressKey, "localhost:50051")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".sketchsphere-cli")
	}

	viper.SetEnvPrefix("SKETCHSPHERE_CLI")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintln(os.Stderr, "Error reading config file:", err)
		}
	}

	grpcServerAddress = viper.GetString(grpcServerAddressKey)
}
