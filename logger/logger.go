// Package logger holds the process-wide structured logger.
//
// Components should not call the global directly when they can take a
// *zap.SugaredLogger in their constructor; ComponentLogger exists for that.
package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global logger instance
	Logger *zap.SugaredLogger
	// Flag to track if JSON output is enabled
	JSONOutput bool
)

func init() {
	// Safe no-op until Initialize runs, so packages can log during init.
	Logger = zap.NewNop().Sugar()
}

// Initialize sets up the global logger.
// jsonOutput selects the production JSON encoder (for log shippers); otherwise
// the compact console encoder is used. level accepts debug, info, warn, error.
func Initialize(jsonOutput bool, level string) error {
	JSONOutput = jsonOutput
	zapLevel := ParseLevel(level)

	var zapLogger *zap.Logger
	var err error

	if jsonOutput {
		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zapLevel)
		config.OutputPaths = []string{"stdout"}
		config.ErrorOutputPaths = []string{"stderr"}
		zapLogger, err = config.Build()
	} else {
		zapLogger = zap.New(
			zapcore.NewCore(
				newConsoleEncoder(),
				zapcore.AddSync(os.Stdout),
				zapLevel,
			),
		)
	}

	if err != nil {
		return err
	}

	Logger = zapLogger.Sugar()
	return nil
}

// ParseLevel maps a config string to a zap level. Unknown values mean info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Cleanup flushes any buffered log entries
func Cleanup() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

// Infow logs an info message with structured fields
func Infow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Infow(msg, keysAndValues...)
	}
}

// Warnw logs a warning message with structured fields
func Warnw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Warnw(msg, keysAndValues...)
	}
}

// Errorw logs an error message with structured fields
func Errorw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Errorw(msg, keysAndValues...)
	}
}

// Debugw logs a debug message with structured fields
func Debugw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Debugw(msg, keysAndValues...)
	}
}
