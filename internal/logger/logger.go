package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	sampleInitial    = 100
	sampleThereafter = 100
)

// New builds the JSON logger shared by the server and the built-in middlewares.
// Outside debug mode repeated entries are sampled. fields are added to every entry.
func New(debug bool, fields ...zap.Field) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder

	lvl := zap.InfoLevel
	var sampling *zap.SamplingConfig

	if debug {
		lvl = zap.DebugLevel
	} else {
		sampling = &zap.SamplingConfig{Initial: sampleInitial, Thereafter: sampleThereafter}
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(lvl),
		Development:      debug,
		Sampling:         sampling,
		Encoding:         "json",
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	log, err := config.Build()
	if err != nil {
		panic(err)
	}

	return log.With(fields...)
}
