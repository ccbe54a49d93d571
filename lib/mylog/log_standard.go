package mylog

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
)

func init() {
	if os.Getenv("GOOGLE_CLOUD_PROJECT") == "" {
		New = newStandardLogger
	}
}

type standardLogger struct {
	componentName string
	logger        zerolog.Logger
}

func newStandardLogger(componentName string) Logger {
	return standardLogger{
		componentName: componentName,
		logger: zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
			Level(levelFromEnv()).
			With().
			Timestamp().
			Str("component", componentName).
			Logger(),
	}
}

func (l standardLogger) Log(c context.Context, traceLabel string, severity Severity, format string, a ...any) {
	event := l.logger.WithLevel(toZerologLevel(severity))
	if traceLabel != "" {
		event = event.Str("label", traceLabel)
	}
	event.Msg(fmt.Sprintf(format, a...))
}

func toZerologLevel(severity Severity) zerolog.Level {
	switch severity {
	case SeverityDebug:
		return zerolog.DebugLevel
	case SeverityWarn:
		return zerolog.WarnLevel
	case SeverityError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// levelFromEnv reads SHOPFRONT_LOG_LEVEL (debug, info, warn, error); info when unset.
func levelFromEnv() zerolog.Level {
	level, err := zerolog.ParseLevel(os.Getenv("SHOPFRONT_LOG_LEVEL"))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}
