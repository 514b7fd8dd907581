package common

import (
	"fmt"
	"os"
	"strings"

	"github.com/lni/dragonboat/v4/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// --------------------------------------------------------------------------
// Custom Logger (implements dragonboat's logger.ILogger)
// --------------------------------------------------------------------------

// expmapLogger implements the ILogger interface on top of a zap logger.
// The level is kept here because dragonboat sets it per package after the logger was created.
type expmapLogger struct {
	name  string
	level logger.LogLevel
	zl    *zap.SugaredLogger
}

func (l *expmapLogger) SetLevel(level logger.LogLevel) {
	l.level = level
}

func (l *expmapLogger) Debugf(format string, args ...interface{}) {
	if l.level >= logger.DEBUG {
		l.zl.Debugf(format, args...)
	}
}

func (l *expmapLogger) Infof(format string, args ...interface{}) {
	if l.level >= logger.INFO {
		l.zl.Infof(format, args...)
	}
}

func (l *expmapLogger) Warningf(format string, args ...interface{}) {
	if l.level >= logger.WARNING {
		l.zl.Warnf(format, args...)
	}
}

func (l *expmapLogger) Errorf(format string, args ...interface{}) {
	if l.level >= logger.ERROR {
		l.zl.Errorf(format, args...)
	}
}

func (l *expmapLogger) Panicf(format string, args ...interface{}) {
	if l.level >= logger.CRITICAL {
		panic(fmt.Sprintf(format, args...))
	}
}

// --------------------------------------------------------------------------
// Logger Factory
// --------------------------------------------------------------------------

// newZapCore creates the core all package loggers write to.
// Lines look like "2025-01-02T15:04:05.000Z | INFO  | rpc             | message".
func newZapCore() zapcore.Core {
	encoderCfg := zapcore.EncoderConfig{
		TimeKey:          "ts",
		LevelKey:         "level",
		NameKey:          "logger",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " | ",
		EncodeLevel: func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(fmt.Sprintf("%-5s", l.CapitalString()))
		},
		EncodeName: func(name string, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(fmt.Sprintf("%-15s", name))
		},
	}

	// filtering happens in expmapLogger, the core accepts everything
	return zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.Lock(os.Stdout), zapcore.DebugLevel)
}

// zapRoot is shared by all package loggers
var zapRoot = zap.New(newZapCore())

// CreateLogger implements dragonboat's logger.Factory
func CreateLogger(pkgName string) logger.ILogger {
	return &expmapLogger{
		name:  pkgName,
		level: logger.INFO,
		zl:    zapRoot.Named(pkgName).Sugar(),
	}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// ParseLogLevel converts a string level to logger.LogLevel
func ParseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logger.DEBUG, nil
	case "info":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	default:
		return logger.INFO, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

// loggedPackages are the package loggers of this module
var loggedPackages = []string{"expmap", "rpc", "transport/http", "client"}

// InitLoggers installs the custom logger factory and sets the level of all package loggers
func InitLoggers(logLevel string) error {
	level, err := ParseLogLevel(logLevel)
	if err != nil {
		return err
	}

	logger.SetLoggerFactory(CreateLogger)

	for _, pkg := range loggedPackages {
		logger.GetLogger(pkg).SetLevel(level)
	}
	return nil
}

// SyncLoggers flushes buffered log entries, call it before the process exits
func SyncLoggers() {
	_ = zapRoot.Sync()
}
