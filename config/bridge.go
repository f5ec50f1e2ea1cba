package config

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/classbridge/bridge"
	"github.com/wippyai/classbridge/errors"
)

// NewLogger builds the logger described by the [bridge] section.
func NewLogger(b Bridge) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(b.LogLevel)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "log_level")
	}

	var cfg zap.Config
	if b.LogFormat == "console" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build()
}

// Options converts the [bridge] section into library options.
func (m *Manifest) Options() ([]bridge.Option, error) {
	policy, err := bridge.ParseUnwindPolicy(m.Bridge.UnwindPolicy)
	if err != nil {
		return nil, err
	}
	return []bridge.Option{bridge.WithUnwindPolicy(policy)}, nil
}
