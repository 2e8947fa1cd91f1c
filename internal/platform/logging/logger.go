package logging

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a console logger that writes to out at the given level.
func New(out io.Writer, level zapcore.Level) *zap.Logger {
	if out == nil {
		return zap.NewNop()
	}
	cfg := zapcore.EncoderConfig{
		MessageKey:       "message",
		LevelKey:         "severity",
		NameKey:          "logger",
		EncodeLevel:      encodeSeverity,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.AddSync(out), level)
	return zap.New(core)
}

// NewCLI returns the logger used by commands: warnings only unless verbose.
func NewCLI(out io.Writer, verbose bool) *zap.Logger {
	if verbose {
		return New(out, zapcore.DebugLevel)
	}
	return New(out, zapcore.WarnLevel)
}

// encodeSeverity maps zap levels to upper-case severity names.
func encodeSeverity(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	var severity string
	switch level {
	case zapcore.DebugLevel:
		severity = "DEBUG"
	case zapcore.InfoLevel:
		severity = "INFO"
	case zapcore.WarnLevel:
		severity = "WARNING"
	case zapcore.ErrorLevel:
		severity = "ERROR"
	case zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		severity = "CRITICAL"
	default:
		severity = "DEFAULT"
	}
	enc.AppendString(severity)
}
