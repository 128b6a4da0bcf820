package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	global *zap.SugaredLogger
	atom   = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Init builds the process-wide logger with a colored console encoder and
// installs it as the zap global. Safe to call more than once; the last
// call wins.
func Init(level string) error {
	parsed, err := parseLevel(level)
	if err != nil {
		return err
	}
	atom.SetLevel(parsed)

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encCfg.TimeKey = "" // operator-facing output, timestamps add noise

	cfg := zap.Config{
		Level:            atom,
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    encCfg,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}

	zap.ReplaceGlobals(l)
	global = l.Sugar()
	return nil
}

// Logger returns the process-wide sugared logger. It never returns nil:
// before Init it hands back a no-op logger so library code can log
// unconditionally.
func Logger() *zap.SugaredLogger {
	if global == nil {
		return zap.NewNop().Sugar()
	}
	return global
}

// SetLevel adjusts the level of an already-initialized logger.
func SetLevel(level string) error {
	parsed, err := parseLevel(level)
	if err != nil {
		return err
	}
	atom.SetLevel(parsed)
	return nil
}

// Sync flushes buffered log entries. Errors are ignored; stderr cannot
// usefully report its own flush failure.
func Sync() {
	if global != nil {
		_ = global.Sync()
	}
}

func parseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q (expected debug|info|warn|error)", level)
	}
}
