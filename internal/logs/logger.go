package logs

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the harness logger. Diagnostics go to stderr so the
// benchmark report owns stdout.
func NewLogger(level string) (*zap.Logger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	config := zap.Config{
		Level:             zap.NewAtomicLevelAt(getLogLevel(level)),
		Development:       false,
		DisableCaller:     false,
		DisableStacktrace: false,
		Sampling:          nil,
		Encoding:          "json",
		EncoderConfig:     encoderCfg,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}

	logger, err := config.Build()
	if err != nil {
		return nil, err
	}

	return logger, nil
}

func getLogLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zap.DebugLevel
	case "info":
		return zap.InfoLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel

	default:
		return zap.ErrorLevel
	}
}
