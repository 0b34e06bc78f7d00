package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ponyo877/sketchsphere/server/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	envPrefix = "SKETCHSPHERE"

	httpAddrKey          = "http_addr"
	grpcAddrKey          = "grpc_addr"
	dbDSNKey             = "db_dsn"
	logLevelKey          = "log.level"
	logFormatKey         = "log.format"
	logFileKey           = "log.file"
	logMaxSizeKey        = "log.max_size_mb"
	logMaxBackupsKey     = "log.max_backups"
	logMaxAgeKey         = "log.max_age_days"
	corsOriginsKey       = "cors.allowed_origins"
	chatHistoryLimitKey  = "chat.history_limit"
	sessionBufferSizeKey = "session.buffer_size"
	mdnsEnabledKey       = "mdns.enabled"
	mdnsInstanceKey      = "mdns.instance"
	portKey              = "port"

	defaultHTTPAddr = ":5000"
)

var rootCmd = &cobra.Command{
	Use:   "sketchsphere",
	Short: "Shared whiteboard server",
	Long: `sketchsphere serves shared drawing rooms. Browsers connect over
WebSocket on the HTTP address, terminal clients over gRPC.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		logger, err := logging.New(cfg.Log)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return Run(ctx, cfg, logger)
	},
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.sketchsphere.yaml)")
	flags.String("http-addr", defaultHTTPAddr, "listen address of the WebSocket/HTTP server")
	flags.String("grpc-addr", ":50051", "listen address of the gRPC server")
	flags.String("db", "", "sqlite DSN of the chat transcript")
	flags.String("log-level", "info", "debug, info, warn or error")
	flags.String("log-format", "text", "text or json")
	flags.String("log-file", "", "also write logs to this file, rotated")
	flags.Bool("mdns", false, "advertise the server on the local network")

	viper.BindPFlag(httpAddrKey, flags.Lookup("http-addr"))
	viper.BindPFlag(grpcAddrKey, flags.Lookup("grpc-addr"))
	viper.BindPFlag(dbDSNKey, flags.Lookup("db"))
	viper.BindPFlag(logLevelKey, flags.Lookup("log-level"))
	viper.BindPFlag(logFormatKey, flags.Lookup("log-format"))
	viper.BindPFlag(logFileKey, flags.Lookup("log-file"))
	viper.BindPFlag(mdnsEnabledKey, flags.Lookup("mdns"))

	SetDefaults(viper.GetViper())
}

// SetDefaults registers defaults and environment bindings on v.
func SetDefaults(v *viper.Viper) {
	defaults := logging.DefaultConfig()
	v.SetDefault(httpAddrKey, defaultHTTPAddr)
	v.SetDefault(grpcAddrKey, ":50051")
	v.SetDefault(dbDSNKey, "file:sketchsphere?mode=memory&cache=shared")
	v.SetDefault(logLevelKey, defaults.Level)
	v.SetDefault(logFormatKey, defaults.Format)
	v.SetDefault(logFileKey, "")
	v.SetDefault(logMaxSizeKey, defaults.MaxSizeMB)
	v.SetDefault(logMaxBackupsKey, defaults.MaxBackups)
	v.SetDefault(logMaxAgeKey, defaults.MaxAgeDays)
	v.SetDefault(corsOriginsKey, []string{"http://localhost:5173"})
	v.SetDefault(chatHistoryLimitKey, 50)
	v.SetDefault(sessionBufferSizeKey, 256)
	v.SetDefault(mdnsEnabledKey, false)
	v.SetDefault(mdnsInstanceKey, "")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	v.BindEnv(portKey, "PORT")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".sketchsphere")
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintln(os.Stderr, "Error reading config file:", err)
		}
	}
}
