/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config [new_display_name]",
	Short: "Gets or sets the display name.",
	Long: `Manages the local client configuration.
If called without arguments, it displays the current configuration.
If called with an argument, it stores the display name used when joining rooms.`,
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{"offline": "true"},
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			name := viper.GetString(displayNameKey)
			if name == "" {
				name = "(server assigned guest name)"
			}
			fmt.Printf("Display Name: %s\n", name)
			fmt.Printf("Server: %s\n", viper.GetString(grpcServerAddressKey))
			return
		}

		newDisplayName := strings.TrimSpace(args[0])
		if newDisplayName == "" {
			fmt.Fprintln(os.Stderr, "Display name must not be empty")
			return
		}
		viper.Set(displayNameKey, newDisplayName)
		if err := writeConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
			return
		}
		fmt.Printf("Display name set to: %s\n", newDisplayName)
	},
}

// writeConfig saves viper's settings, creating the config file on first use.
func writeConfig() error {
	err := viper.WriteConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return viper.SafeWriteConfig()
	}
	return err
}

func init() {
	rootCmd.AddCommand(configCmd)
}
