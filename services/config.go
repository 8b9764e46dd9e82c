package services

import (
	"os"
	"strings"

	"github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/ido_api/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type ConfigService struct {
	context.DefaultService

	cfg *config.Config
}

const CONFIG_SVC = "config_svc"

func (svc ConfigService) Id() string {
	return CONFIG_SVC
}

// NewConfigService wraps an already loaded configuration, e.g. one built by the CLI.
func NewConfigService(cfg *config.Config) *ConfigService {
	return &ConfigService{cfg: cfg}
}

func (svc *ConfigService) Configure(ctx *context.Context) error {
	if svc.cfg == nil {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		svc.cfg = cfg
	}

	ConfigureLogger(svc.cfg)

	return svc.DefaultService.Configure(ctx)
}

func (svc *ConfigService) Start() error {
	return nil
}

func (svc *ConfigService) Config() *config.Config {
	return svc.cfg
}

// ConfigureLogger applies LOG_LEVEL and LOG_FORMAT to the global zerolog logger.
func ConfigureLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
