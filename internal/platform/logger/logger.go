package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return Debug
	case "info", "":
		return Info
	case "warn", "warning":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

func (l Level) String() string {
	switch l {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "info"
	}
}

func (l Level) logrus() logrus.Level {
	switch l {
	case Debug:
		return logrus.DebugLevel
	case Warn:
		return logrus.WarnLevel
	case Error:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON
	default:
		return FormatText
	}
}

type Logger interface {
	With(fields map[string]any) Logger

	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

// LogrusLogger implementa Logger sobre logrus. Las keys de salida
// son las mismas en text y json: ts, level, msg + campos.
type LogrusLogger struct {
	entry *logrus.Entry
}

type Options struct {
	Level  Level
	Format Format
	App    string

	// Output por defecto es stdout.
	Output io.Writer
}

func New(opts Options) Logger {
	l := logrus.New()

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	l.SetOutput(out)
	l.SetLevel(opts.Level.logrus())

	fieldMap := logrus.FieldMap{
		logrus.FieldKeyTime:  "ts",
		logrus.FieldKeyLevel: "level",
		logrus.FieldKeyMsg:   "msg",
	}

	switch opts.Format {
	case FormatJSON:
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap:        fieldMap,
		})
	default:
		l.SetFormatter(&logrus.TextFormatter{
			DisableColors:   true,
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339Nano,
			FieldMap:        fieldMap,
		})
	}

	entry := logrus.NewEntry(l)
	if app := strings.TrimSpace(opts.App); app != "" {
		entry = entry.WithField("app", app)
	}

	return &LogrusLogger{entry: entry}
}

// Nop descarta todo (tests).
func Nop() Logger {
	return New(Options{Level: Error, Output: io.Discard})
}

func (l *LogrusLogger) With(fields map[string]any) Logger {
	if len(fields) == 0 {
		return l
	}
	return &LogrusLogger{entry: l.entry.WithFields(clean(fields))}
}

func (l *LogrusLogger) Debug(msg string, fields map[string]any) {
	l.entry.WithFields(clean(fields)).Debug(msg)
}

func (l *LogrusLogger) Info(msg string, fields map[string]any) {
	l.entry.WithFields(clean(fields)).Info(msg)
}

func (l *LogrusLogger) Warn(msg string, fields map[string]any) {
	l.entry.WithFields(clean(fields)).Warn(msg)
}

func (l *LogrusLogger) Error(msg string, fields map[string]any) {
	l.entry.WithFields(clean(fields)).Error(msg)
}

func clean(fields map[string]any) logrus.Fields {
	out := make(logrus.Fields, len(fields))
	for k, v := range fields {
		if strings.TrimSpace(k) == "" {
			continue
		}
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		out[k] = v
	}
	return out
}
