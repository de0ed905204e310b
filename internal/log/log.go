package log

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var (
	logger     *logrus.Logger
	loggerOnce sync.Once
)

// initLogger sets up the shared logger on stderr. Stdout is reserved for the
// printed briefing.
func initLogger() {
	loggerOnce.Do(func() {
		logger = logrus.New()
		logger.SetOutput(os.Stderr)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
		logger.SetLevel(logrus.InfoLevel)
	})
}

func SetLevel(l Level) {
	initLogger()
	logger.SetLevel(toLogrus(l))
}

// ParseLevel accepts the usual spellings ("debug", "warning", "ERROR", ...).
func ParseLevel(s string) (Level, error) {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(s))
	if err != nil {
		return LevelInfo, err
	}
	switch lvl {
	case logrus.DebugLevel, logrus.TraceLevel:
		return LevelDebug, nil
	case logrus.WarnLevel:
		return LevelWarn, nil
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return LevelError, nil
	default:
		return LevelInfo, nil
	}
}

// SetOutput redirects log output; used by tests.
func SetOutput(w io.Writer) {
	initLogger()
	logger.SetOutput(w)
}

func Debug(msg string, kv ...any) {
	logWithLevel(LevelDebug, msg, kv...)
}

func Info(msg string, kv ...any) {
	logWithLevel(LevelInfo, msg, kv...)
}

func Warn(msg string, kv ...any) {
	logWithLevel(LevelWarn, msg, kv...)
}

func Error(msg string, err error, kv ...any) {
	extended := append([]any{"err", err}, kv...)
	logWithLevel(LevelError, msg, extended...)
}

func logWithLevel(level Level, msg string, kv ...any) {
	initLogger()
	entry := logger.WithFields(fields(kv...))
	switch level {
	case LevelDebug:
		entry.Debug(msg)
	case LevelWarn:
		entry.Warn(msg)
	case LevelError:
		entry.Error(msg)
	default:
		entry.Info(msg)
	}
}

func toLogrus(l Level) logrus.Level {
	switch l {
	case LevelDebug:
		return logrus.DebugLevel
	case LevelWarn:
		return logrus.WarnLevel
	case LevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// fields turns key, value, key, value ... into logrus fields. Non-string keys
// and a trailing odd value are dropped.
func fields(kv ...any) logrus.Fields {
	out := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		val := kv[i+1]
		if err, isErr := val.(error); isErr && err != nil {
			val = err.Error()
		}
		out[key] = val
	}
	return out
}
