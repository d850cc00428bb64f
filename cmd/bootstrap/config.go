package bootstrap

import (
	"slot-reservation-engine/internal/pkg/config"

	"go.uber.org/fx"
)

var ConfigModule = fx.Module("config",
	fx.Provide(
		loadValidatedConfig,
	),
)

// a bad backend name or a zero lock timeout stops startup here, before any pool
// or cache connection is opened
func loadValidatedConfig() (config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
