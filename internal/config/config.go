// Package config provides environment-driven defaults for the whisperdog CLI.
// The engine packages never read this configuration themselves; main resolves
// flags over environment over defaults and passes plain scalars down.
package config

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"
)

// Config holds the tunable defaults for a processing run. Every field mirrors
// a caller-supplied engine parameter; the defaults match the engine's
// exported constants.
type Config struct {
	// Normalization settings
	Normalize   bool    `env:"WHISPERDOG_NORMALIZE, default=true"`
	TargetRMSDB float64 `env:"WHISPERDOG_TARGET_RMS_DB, default=-20.0" validate:"gte=-40,lte=-6"`

	// Attribution settings
	IntervalMS        int64   `env:"WHISPERDOG_INTERVAL_MS, default=100" validate:"gte=10,lte=5000"`
	ActivityThreshold float64 `env:"WHISPERDOG_ACTIVITY_THRESHOLD, default=0.005" validate:"gt=0,lt=1"`
	DominanceRatio    float64 `env:"WHISPERDOG_DOMINANCE_RATIO, default=3.0" validate:"gte=1,lte=100"`

	// Logging settings
	LogLevel string `env:"WHISPERDOG_LOG_LEVEL, default=info" validate:"oneof=debug info warn error"`
}

// Load reads configuration from WHISPERDOG_* environment variables and
// validates the resulting ranges.
func Load(ctx context.Context) (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process(ctx, cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
