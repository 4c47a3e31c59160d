// Package logging builds the console logger used by the scholar binary.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TimeLayout is the timestamp format of console output.
const TimeLayout = "2006-01-02 15:04:05"

const (
	reset   = "\x1b[0m"
	cyan    = "\x1b[36m"
	green   = "\x1b[32m"
	yellow  = "\x1b[33m"
	red     = "\x1b[31m"
	boldRed = "\x1b[1;31m"
)

// ColorLevelEncoder writes the capitalized level name wrapped in an ANSI
// color.
func ColorLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(levelColor(l) + l.CapitalString() + reset)
}

func levelColor(l zapcore.Level) string {
	switch l {
	case zapcore.DebugLevel:
		return cyan
	case zapcore.InfoLevel:
		return green
	case zapcore.WarnLevel:
		return yellow
	case zapcore.ErrorLevel:
		return red
	default:
		return boldRed
	}
}

// ParseLevel maps a level name to a zap level. Unknown names mean info.
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// EncoderConfig returns the console layout "time - LEVEL - message".
func EncoderConfig(color bool) zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout(TimeLayout)
	cfg.ConsoleSeparator = " - "
	cfg.CallerKey = zapcore.OmitKey
	cfg.NameKey = zapcore.OmitKey
	cfg.StacktraceKey = zapcore.OmitKey
	if color {
		cfg.EncodeLevel = ColorLevelEncoder
	} else {
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return cfg
}

// New builds a console logger writing to stderr at the given level.
func New(level string) *zap.Logger {
	return NewWithSink(level, zapcore.Lock(os.Stderr), true)
}

// NewWithSink builds a console logger writing to ws.
func NewWithSink(level string, ws zapcore.WriteSyncer, color bool) *zap.Logger {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(EncoderConfig(color)),
		ws,
		zap.NewAtomicLevelAt(ParseLevel(level)),
	)
	return zap.New(core)
}
