package logger

import "go.uber.org/zap/zapcore"

// Verbosity level constants for the -v CLI flag count.
const (
	VerbosityDefault = 0 // No flags: configured level
	VerbosityInfo    = 1 // -v: at least info
	VerbosityDebug   = 2 // -vv: debug, including per-attempt upstream detail
)

// VerbosityToLevel maps the -v count onto a level, never raising the
// threshold above what the configuration asked for.
func VerbosityToLevel(verbosity int, configured string) string {
	base := ParseLevel(configured)
	switch {
	case verbosity >= VerbosityDebug:
		return "debug"
	case verbosity == VerbosityInfo && base > zapcore.InfoLevel:
		return "info"
	default:
		return base.String()
	}
}
