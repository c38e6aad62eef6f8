package log

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/nao1215/logscrub/internal/record"
	"github.com/nao1215/logscrub/internal/sink"
)

// Logger is an slog.Logger whose destinations are sanitizing sinks, together
// with the records it logged at error level or above.
type Logger struct {
	*slog.Logger

	capture *sink.ErrorCapture
	sinks   []*sink.Sink
}

// NewLogger creates a logger writing NDJSON records to w.
//
// Parameters:
//   - w: The console stream (typically os.Stderr)
//   - verbose: If true, sets log level to Debug; otherwise Warn
//
// WithFile adds a log file; it is opened here, and Close closes it.
// Records at error level or above are also kept in memory without
// sanitization, see Errors.
func NewLogger(w io.Writer, verbose bool, opts ...Option) (*Logger, error) {
	s := newSettings(verbose, opts)

	console, err := sink.Wrap(sink.Config{Stream: w}, s.walker)
	if err != nil {
		return nil, fmt.Errorf("failed to set up console log: %w", err)
	}
	l := &Logger{capture: sink.NewErrorCapture(), sinks: []*sink.Sink{console}}

	if s.file != "" {
		file, err := sink.Wrap(sink.Config{Path: s.file}, s.walker)
		if err != nil {
			return nil, fmt.Errorf("failed to set up log file: %w", err)
		}
		l.sinks = append(l.sinks, file)
	}

	writers := make([]sink.RecordWriter, 0, len(l.sinks)+1)
	for _, dest := range l.sinks {
		writers = append(writers, dest)
	}
	writers = append(writers, sink.AtLevel(record.LevelError, l.capture))

	l.Logger = slog.New(&Handler{out: sink.Multi(writers...), s: s})
	return l, nil
}

// Errors returns the records logged at error level or above, without the
// transport fields.
func (l *Logger) Errors() []*record.Mapping {
	return l.capture.Errors()
}

// ErrorCapture returns the capture behind Errors.
func (l *Logger) ErrorCapture() *sink.ErrorCapture {
	return l.capture
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	var errs []error
	for _, s := range l.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
