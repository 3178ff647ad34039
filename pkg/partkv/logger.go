package partkv

import (
	"github.com/davecgh/go-spew/spew"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel is the severity of a log line. Higher values are noisier.
type LogLevel int8

const (
	// LogLevelNone disables logging entirely.
	LogLevelNone LogLevel = iota
	LogLevelError
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelError:
		return "ERROR"
	case LogLevelWarn:
		return "WARN"
	case LogLevelInfo:
		return "INFO"
	case LogLevelDebug:
		return "DEBUG"
	default:
		return "NONE"
	}
}

// Logger is the structured, leveled sink every component in this package
// logs through. Implementations must be safe for concurrent use.
//
// keyvals are alternating key, value pairs, mirroring the style used
// throughout this codebase for anything that needs structured context
// (ring group, domain id, partition number, version, ...).
type Logger interface {
	Log(level LogLevel, msg string, keyvals ...interface{})
}

// nopLogger discards everything. Used when a caller does not supply a
// Logger via WithLogger.
type nopLogger struct{}

func (nopLogger) Log(LogLevel, string, ...interface{}) {}

// zapLogger is the default Logger, backed by a zap.Logger at the given
// minimum level.
type zapLogger struct {
	z     *zap.Logger
	level LogLevel
}

// NewZapLogger builds the package's default Logger implementation. Lines
// below minLevel are dropped before ever reaching zap.
func NewZapLogger(z *zap.Logger, minLevel LogLevel) Logger {
	return &zapLogger{z: z, level: minLevel}
}

func (l *zapLogger) Log(level LogLevel, msg string, keyvals ...interface{}) {
	if level > l.level || level == LogLevelNone {
		return
	}
	fields := make([]zap.Field, 0, len(keyvals)/2)
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, keyvals[i+1]))
	}
	switch level {
	case LogLevelError:
		l.z.Error(msg, fields...)
	case LogLevelWarn:
		l.z.Warn(msg, fields...)
	case LogLevelInfo:
		l.z.Info(msg, fields...)
	default:
		l.z.Debug(msg, fields...)
	}
}

// DefaultZapConfig is the zap.Config partkv-serve builds its logger from;
// exported so other binaries embedding this package get the same console
// encoding without duplicating it. zap itself is opened at debug level so
// that the minLevel given to NewZapLogger is the only level filter.
func DefaultZapConfig() zap.Config {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return cfg
}

// dumpForLog renders v with spew for debug-level log lines. It does not
// check the Logger's level: the dump is built on every call, whether or not
// the line it is passed to is emitted.
func dumpForLog(v interface{}) string {
	cfg := spew.ConfigState{Indent: "  ", DisableMethods: true, DisablePointerAddresses: true}
	return cfg.Sdump(v)
}
