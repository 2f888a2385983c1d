// Package config loads appsize settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/blackwell-systems/appsize/internal/bridge"
)

// Config holds all appsize configuration.
type Config struct {
	Device  DeviceConfig
	Bridge  BridgeConfig
	Logging LogConfig
}

// DeviceConfig selects the device and the host tools used to reach it.
type DeviceConfig struct {
	ADBPath  string        `envconfig:"APPSIZE_ADB_PATH" default:"adb"`
	Serial   string        `envconfig:"APPSIZE_SERIAL"`
	AaptPath string        `envconfig:"APPSIZE_AAPT_PATH"`
	Timeout  time.Duration `envconfig:"APPSIZE_ADB_TIMEOUT" default:"30s"`
}

// BridgeConfig configures the bridge server.
type BridgeConfig struct {
	ListenAddr string `envconfig:"APPSIZE_LISTEN_ADDR" default:"127.0.0.1:8765"`
	// Channel defaults to bridge.DefaultChannel.
	Channel string `envconfig:"APPSIZE_CHANNEL"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"APPSIZE_LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"APPSIZE_LOG_DEV" default:"false"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Bridge.Channel == "" {
		cfg.Bridge.Channel = bridge.DefaultChannel
	}
	return &cfg, nil
}
