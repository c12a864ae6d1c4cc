package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	colorReset = "\x1b[0m"
	colorBold  = "\x1b[1m"

	colorTime      = "\x1b[38;5;107m"
	colorComponent = "\x1b[38;5;208m"
	colorID        = "\x1b[38;5;109m"
	colorNumber    = "\x1b[38;5;108m"
	colorFg        = "\x1b[38;5;223m"
	colorWarn      = "\x1b[38;5;179m"
	colorWarnBg    = "\x1b[48;5;58m"
	colorError     = "\x1b[38;5;167m"
	colorErrorBg   = "\x1b[48;5;52m"
)

var bufferPool = buffer.NewPool()

// consoleEncoder is a compact console encoder.
// Format: "13:04:35  s.http  advisor answered  3f2a… gpt-4o-mini 812ms 200"
type consoleEncoder struct {
	zapcore.Encoder // base encoder, used only for With() field accumulation
}

func newConsoleEncoder() *consoleEncoder {
	return &consoleEncoder{
		Encoder: zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
	}
}

func (enc *consoleEncoder) Clone() zapcore.Encoder {
	return &consoleEncoder{Encoder: enc.Encoder.Clone()}
}

func (enc *consoleEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	final := bufferPool.Get()

	final.AppendString(colorTime)
	final.AppendString(ent.Time.Format("15:04:05"))
	final.AppendString(colorReset)

	// Info is the common case, so only other levels are labelled
	if ent.Level != zapcore.InfoLevel {
		final.AppendString("  ")
		final.AppendString(levelString(ent.Level))
	}

	if ent.LoggerName != "" {
		final.AppendString("  ")
		final.AppendString(colorComponent)
		final.AppendString(abbreviateName(ent.LoggerName))
		final.AppendString(colorReset)
	}

	final.AppendString("  ")
	final.AppendString(colorFg)
	final.AppendString(ent.Message)
	final.AppendString(colorReset)

	if vals := extractFieldValues(fields); vals != "" {
		final.AppendString("  ")
		final.AppendString(vals)
	}

	final.AppendString("\n")
	return final, nil
}

func levelString(level zapcore.Level) string {
	switch level {
	case zapcore.DebugLevel:
		return "DEBUG"
	case zapcore.WarnLevel:
		return colorBold + colorWarnBg + colorWarn + "WARN" + colorReset
	default:
		return colorBold + colorErrorBg + colorError + level.CapitalString() + colorReset
	}
}

// abbreviateName shortens component names: server.http -> s.http
func abbreviateName(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) > 1 && parts[0] != "" {
		return string(parts[0][0]) + "." + strings.Join(parts[1:], ".")
	}
	return name
}

// fieldValue extracts the printable value of a zap field
func fieldValue(field zapcore.Field) string {
	switch field.Type {
	case zapcore.StringType:
		return field.String
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type,
		zapcore.Uint64Type, zapcore.Uint32Type, zapcore.Uint16Type, zapcore.Uint8Type:
		return fmt.Sprintf("%d", field.Integer)
	case zapcore.BoolType:
		return fmt.Sprintf("%t", field.Integer == 1)
	case zapcore.ErrorType:
		if err, ok := field.Interface.(error); ok {
			return err.Error()
		}
	}
	if field.Interface != nil {
		return fmt.Sprintf("%v", field.Interface)
	}
	return ""
}

// extractFieldValues renders the fields the console cares about, in a fixed
// order, and drops everything else. JSON output keeps all fields.
func extractFieldValues(fields []zapcore.Field) string {
	byKey := make(map[string]string, len(fields))
	for _, f := range fields {
		byKey[f.Key] = fieldValue(f)
	}

	var values []string
	if v := byKey[FieldRequestID]; v != "" {
		if len(v) > 8 {
			v = v[:8] + "…"
		}
		values = append(values, colorID+v+colorReset)
	}
	for _, key := range []string{FieldMethod, FieldPath, FieldProvider, FieldModel, FieldState, FieldErrorKind} {
		if v := byKey[key]; v != "" {
			values = append(values, colorFg+v+colorReset)
		}
	}
	if v := byKey[FieldAttempt]; v != "" {
		values = append(values, "#"+colorNumber+v+colorReset)
	}
	if v := byKey[FieldDurationMS]; v != "" {
		values = append(values, colorNumber+v+colorReset+"ms")
	}
	if v := byKey[FieldStatus]; v != "" {
		values = append(values, colorNumber+v+colorReset)
	}
	if v := byKey[FieldError]; v != "" {
		values = append(values, colorError+v+colorReset)
	}
	return strings.Join(values, " ")
}
