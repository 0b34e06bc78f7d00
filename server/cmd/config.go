package cmd

import (
	"fmt"

	"github.com/ponyo877/sketchsphere/server/logging"
	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr          string
	GRPCAddr          string
	DBDSN             string
	Log               logging.Config
	AllowedOrigins    []string
	ChatHistoryLimit  int
	SessionBufferSize int
	MDNSEnabled       bool
	MDNSInstance      string
}

// LoadConfig reads the server configuration from v. The PORT variable sets
// the HTTP port when no HTTP address was configured.
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := Config{
		HTTPAddr: v.GetString(httpAddrKey),
		GRPCAddr: v.GetString(grpcAddrKey),
		DBDSN:    v.GetString(dbDSNKey),
		Log: logging.Config{
			Level:      v.GetString(logLevelKey),
			Format:     v.GetString(logFormatKey),
			File:       v.GetString(logFileKey),
			MaxSizeMB:  v.GetInt(logMaxSizeKey),
			MaxBackups: v.GetInt(logMaxBackupsKey),
			MaxAgeDays: v.GetInt(logMaxAgeKey),
		},
		AllowedOrigins:    v.GetStringSlice(corsOriginsKey),
		ChatHistoryLimit:  v.GetInt(chatHistoryLimitKey),
		SessionBufferSize: v.GetInt(sessionBufferSizeKey),
		MDNSEnabled:       v.GetBool(mdnsEnabledKey),
		MDNSInstance:      v.GetString(mdnsInstanceKey),
	}
	if port := v.GetString(portKey); port != "" && cfg.HTTPAddr == defaultHTTPAddr {
		cfg.HTTPAddr = ":" + port
	}

	if cfg.HTTPAddr == "" || cfg.GRPCAddr == "" {
		return Config{}, fmt.Errorf("both %s and %s are required", httpAddrKey, grpcAddrKey)
	}
	if cfg.DBDSN == "" {
		return Config{}, fmt.Errorf("%s is required", dbDSNKey)
	}
	if cfg.SessionBufferSize <= 0 {
		return Config{}, fmt.Errorf("%s must be positive, got %d", sessionBufferSizeKey, cfg.SessionBufferSize)
	}
	if cfg.ChatHistoryLimit < 0 {
		return Config{}, fmt.Errorf("%s must not be negative, got %d", chatHistoryLimitKey, cfg.ChatHistoryLimit)
	}
	return cfg, nil
}
