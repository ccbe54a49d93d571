package mylog

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/MarcGrol/shopfront/lib/mycontext"
)

const (
	traceField  = "logging.googleapis.com/trace"
	labelsField = "logging.googleapis.com/labels"
)

func init() {
	if os.Getenv("GOOGLE_CLOUD_PROJECT") != "" {
		New = func(componentName string) Logger {
			return newStructuredLogger(componentName, os.Stdout)
		}
	}
}

// structuredLogger writes one JSON object per line in the shape Cloud Logging parses:
// no timestamp (the agent adds it), severity as a string, trace and labels in their
// special fields.
type structuredLogger struct {
	componentName string
	logger        zerolog.Logger
}

func newStructuredLogger(componentName string, out io.Writer) Logger {
	return structuredLogger{
		componentName: componentName,
		logger:        zerolog.New(out).With().Str("component", componentName).Logger(),
	}
}

func (l structuredLogger) Log(c context.Context, traceLabel string, severity Severity, format string, a ...any) {
	event := l.logger.Log().Str("severity", string(severity))
	if trace := mycontext.TraceFrom(c); trace != "" {
		event = event.Str(traceField, trace)
	}
	if traceLabel != "" {
		event = event.Dict(labelsField, zerolog.Dict().Str("aggregate", traceLabel))
	}
	event.Msg(l.componentName + ":" + fmt.Sprintf(format, a...))
}
