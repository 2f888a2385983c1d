package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/blackwell-systems/appsize/internal/adb"
	"github.com/blackwell-systems/appsize/internal/config"
	"github.com/blackwell-systems/appsize/internal/inventory"
	"github.com/blackwell-systems/appsize/internal/logging"
)

// newClient builds the adb client. Tests replace it to inject a fake runner.
var newClient = func(cfg *config.Config) *adb.Client {
	c := adb.New(cfg.Device.ADBPath, cfg.Device.Serial)
	c.AaptPath = cfg.Device.AaptPath
	c.Timeout = cfg.Device.Timeout
	return c
}

// loadConfig reads the environment and applies the global flags on top.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if serialFlag != "" {
		cfg.Device.Serial = serialFlag
	}
	if adbFlag != "" {
		cfg.Device.ADBPath = adbFlag
	}
	if logLevelFlag != "" {
		cfg.Logging.Level = logLevelFlag
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

// session is everything a command needs to talk to one device.
type session struct {
	cfg     *config.Config
	logger  *zap.Logger
	client  *adb.Client
	caps    adb.Capabilities
	service *inventory.Service
}

// openSession loads configuration, probes the device and assembles the
// inventory service for it. Icons are left out when withIcons is false.
func openSession(ctx context.Context, withIcons bool) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	client := newClient(cfg)
	caps, err := client.ProbeCapabilities(ctx)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("failed to reach device: %w", err)
	}
	logger.Debug("device capabilities",
		zap.Int("sdk", caps.SDK),
		zap.Bool("storage_stats", caps.StorageStats()),
		zap.Bool("install_source_info", caps.InstallSourceInfo()))

	providers := client.Providers(caps)
	if !withIcons {
		providers.Icons = nil
	}

	return &session{
		cfg:     cfg,
		logger:  logger,
		client:  client,
		caps:    caps,
		service: inventory.New(providers, logger),
	}, nil
}

func (s *session) Close() {
	if err := s.client.ReleaseAPKs(); err != nil {
		s.logger.Warn("failed to remove pulled apks", zap.Error(err))
	}
	_ = s.logger.Sync()
}
