package venom

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogContext map[string]interface{}

type Logger interface {
	Debug(msg string, context ...LogContext)
	Info(msg string, context ...LogContext)
	Warn(msg string, context ...LogContext)
	Error(msg string, context ...LogContext)
	Panic(msg string, context ...LogContext)
}

type DefaultLogger struct {
	internal *zap.Logger
}

func (l *DefaultLogger) Debug(msg string, context ...LogContext) {
	fields := convertToZapFields(getContext(context))
	l.internal.Debug(msg, fields...)
}

func (l *DefaultLogger) Info(msg string, context ...LogContext) {
	fields := convertToZapFields(getContext(context))
	l.internal.Info(msg, fields...)
}

func (l *DefaultLogger) Warn(msg string, context ...LogContext) {
	fields := convertToZapFields(getContext(context))
	l.internal.Warn(msg, fields...)
}

func (l *DefaultLogger) Error(msg string, context ...LogContext) {
	fields := convertToZapFields(getContext(context))
	l.internal.Error(msg, fields...)
}

func (l *DefaultLogger) Panic(msg string, context ...LogContext) {
	fields := convertToZapFields(getContext(context))
	l.internal.Panic(msg, fields...)
}

// With returns a logger that adds context to every entry.
func (l *DefaultLogger) With(context LogContext) *DefaultLogger {
	return &DefaultLogger{internal: l.internal.With(convertToZapFields(context)...)}
}

func (l *DefaultLogger) Sync() error {
	return l.internal.Sync()
}

func getContext(context []LogContext) LogContext {
	if len(context) > 0 {
		return context[0]
	}

	return nil
}

// scopedLogger merges a fixed context into every call of the wrapped logger.
type scopedLogger struct {
	base  Logger
	scope LogContext
}

func withScope(l Logger, scope LogContext) Logger {
	if dl, ok := l.(*DefaultLogger); ok {
		return dl.With(scope)
	}
	return &scopedLogger{base: l, scope: scope}
}

func (l *scopedLogger) merge(context []LogContext) LogContext {
	merged := make(LogContext, len(l.scope))
	for k, v := range l.scope {
		merged[k] = v
	}
	for k, v := range getContext(context) {
		merged[k] = v
	}
	return merged
}

func (l *scopedLogger) Debug(msg string, context ...LogContext) { l.base.Debug(msg, l.merge(context)) }
func (l *scopedLogger) Info(msg string, context ...LogContext)  { l.base.Info(msg, l.merge(context)) }
func (l *scopedLogger) Warn(msg string, context ...LogContext)  { l.base.Warn(msg, l.merge(context)) }
func (l *scopedLogger) Error(msg string, context ...LogContext) { l.base.Error(msg, l.merge(context)) }
func (l *scopedLogger) Panic(msg string, context ...LogContext) { l.base.Panic(msg, l.merge(context)) }

type nopLogger struct{}

func (nopLogger) Debug(string, ...LogContext) {}
func (nopLogger) Info(string, ...LogContext)  {}
func (nopLogger) Warn(string, ...LogContext)  {}
func (nopLogger) Error(string, ...LogContext) {}
func (nopLogger) Panic(msg string, _ ...LogContext) {
	panic(msg)
}

type LogLevel int8

const (
	DebugLevel LogLevel = iota - 1
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (level LogLevel) toZapLevel() zapcore.Level {
	switch level {
	case DebugLevel:
		return zap.DebugLevel
	case InfoLevel:
		return zap.InfoLevel
	case WarnLevel:
		return zap.WarnLevel
	case ErrorLevel:
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// ParseLogLevel maps "debug", "info", "warn" and "error" to a LogLevel.
func ParseLogLevel(s string) (LogLevel, error) {
	switch s {
	case "debug":
		return DebugLevel, nil
	case "", "info":
		return InfoLevel, nil
	case "warn":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return InfoLevel, newArgumentError("log_level", "unknown level %q", s)
	}
}

type LoggerConfig struct {
	ID           string
	Name         string
	ConsoleLevel LogLevel
	FileLevel    LogLevel
	// LogDir enables the file core when set.
	LogDir string
}

func newConsoleCore(encoderConfig zapcore.EncoderConfig, level zapcore.Level) zapcore.Core {
	return zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.Lock(os.Stderr),
		level,
	)
}

func newFileCore(fs FileSystemOperations, encoderConfig zapcore.EncoderConfig, level zapcore.Level, logDir, fileName string) (zapcore.Core, error) {
	if err := fs.MkdirAll(logDir, os.ModePerm); err != nil {
		return nil, err
	}

	logFilePath := filepath.Join(logDir, fileName)
	file, err := fs.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	return zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(file),
		level,
	), nil
}

func getLogFileName(c *LoggerConfig) string {
	timeFormat := "20060102_150405"
	return fmt.Sprintf("%s_%s_%s.log", c.ID, c.Name, time.Now().Format(timeFormat))
}

func createLogger(c *LoggerConfig, fs FileSystemOperations) (*DefaultLogger, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := newConsoleCore(encoderConfig, c.ConsoleLevel.toZapLevel())
	if c.LogDir != "" {
		fileCore, err := newFileCore(fs, encoderConfig, c.FileLevel.toZapLevel(), c.LogDir, getLogFileName(c))
		if err != nil {
			return nil, err
		}
		core = zapcore.NewTee(core, fileCore)
	}

	zlogger := zap.New(core).With(
		zap.String("ID", c.ID),
		zap.String("Name", c.Name),
	)

	return &DefaultLogger{
		internal: zlogger,
	}, nil
}

// NewLogger builds the zap-backed logger used by the engine and the CLI.
func NewLogger(c LoggerConfig) (*DefaultLogger, error) {
	return createLogger(&c, FileSystem{})
}

func convertToZapFields(context map[string]interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(context))
	for k, v := range context {
		fields = append(fields, zap.Any(k, v))
	}

	return fields
}
