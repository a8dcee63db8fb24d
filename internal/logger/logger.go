package logger

import (
	"log"
	"os"

	"isotop-deployer/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger. Error entries carry a stack trace, which is
// how a failed run's diagnostic trace reaches the output stream.
func NewLogger(cfg config.LoggerConfig, app config.AppConfig) (*zap.Logger, error) {
	logLevel := zap.NewAtomicLevel()
	if err := logLevel.UnmarshalText([]byte(cfg.Level)); err != nil {
		logLevel.SetLevel(zap.InfoLevel)
		log.Printf("Warning: Failed to parse log level '%s', defaulting to 'info'. Error: %v\n", cfg.Level, err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch cfg.Encoding {
	case "console":
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	default:
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	sink := zapcore.Lock(os.Stdout)
	if cfg.Output == "stderr" {
		sink = zapcore.Lock(os.Stderr)
	}

	logger := zap.New(
		zapcore.NewCore(encoder, sink, logLevel),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(zap.String("app", app.Name), zap.String("version", app.Version)),
	)

	return logger, nil
}
