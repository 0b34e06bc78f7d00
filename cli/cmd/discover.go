package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/ponyo877/sketchsphere/discovery"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	discoverTimeout time.Duration
	discoverUse     bool
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Finds SketchSphere servers on the local network.",
	Long: `Browses mDNS for servers advertising themselves and prints their gRPC
and HTTP addresses. With --use, stores the first gRPC address found as
grpc_server_address.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{"offline": "true"},
	Run: func(cmd *cobra.Command, args []string) {
		entries, err := discovery.Browse(discoverTimeout)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error browsing the network: %v\n", err)
			return
		}
		if len(entries) == 0 {
			fmt.Println("No servers found.")
			return
		}
		for _, e := range entries {
			fmt.Printf("%-24s grpc=%-22s http=%s\n", e.Instance, e.GRPCAddr, e.HTTPAddr)
		}

		if !discoverUse || entries[0].GRPCAddr == "" {
			return
		}
		viper.Set(grpcServerAddressKey, entries[0].GRPCAddr)
		if err := writeConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
			return
		}
		fmt.Printf("Server set to: %s\n", entries[0].GRPCAddr)
	},
}

func init() {
	rootCmd.AddCommand(discoverCmd)
	discoverCmd.Flags().DurationVarP(&discoverTimeout, "timeout", "t", 2*time.Second, "How long to listen for answers")
	discoverCmd.Flags().BoolVar(&discoverUse, "use", false, "Save the first server found as the default")
}
