package sink

import (
	"io"

	"github.com/nao1215/logscrub/internal/record"
)

// Type selects how a sink hands records to its stream.
type Type string

const (
	// TypeJSON writes one NDJSON line per record. It is the default.
	TypeJSON Type = "json"

	// TypeRaw passes the sanitized record to a RecordWriter.
	TypeRaw Type = "raw"

	// TypeRotatingFile is recognized only to be rejected.
	TypeRotatingFile Type = "rotating-file"
)

// RecordWriter accepts structured records.
type RecordWriter interface {
	WriteRecord(rec *record.Mapping) error
}

// RecordWriterFunc adapts a function to the RecordWriter interface.
type RecordWriterFunc func(rec *record.Mapping) error

// WriteRecord calls f(rec).
func (f RecordWriterFunc) WriteRecord(rec *record.Mapping) error {
	return f(rec)
}

// writable is implemented by streams that can report being closed.
type writable interface {
	Writable() bool
}

// Config describes where a sink writes.
type Config struct {
	// Type is the serialization mode. Anything but TypeRaw and
	// TypeRotatingFile means json.
	Type Type

	// Stream receives NDJSON lines in json mode. In raw mode it is used when
	// it also implements RecordWriter.
	Stream io.Writer

	// Records receives sanitized records in raw mode.
	Records RecordWriter

	// Path is a file opened in append mode when no usable stream is set.
	Path string
}

// target is a Config resolved to exactly one destination.
type target interface {
	isTarget()
}

// streamTarget writes to a live caller-supplied stream.
type streamTarget struct {
	out     io.Writer
	records RecordWriter
	raw     bool
}

// pathTarget names a file still to be opened.
type pathTarget struct {
	path string
}

func (streamTarget) isTarget() {}
func (pathTarget) isTarget()   {}

// resolve validates cfg without doing any I/O.
func resolve(cfg Config) (target, error) {
	if cfg.Type == TypeRotatingFile {
		return nil, ErrRotatingFile
	}
	raw := cfg.Type == TypeRaw

	if raw {
		if rw := cfg.Records; rw != nil && isWritable(rw) {
			return streamTarget{records: rw, raw: true}, nil
		}
		if rw, ok := cfg.Stream.(RecordWriter); ok && isWritable(cfg.Stream) {
			return streamTarget{records: rw, raw: true}, nil
		}
		if cfg.Stream != nil && isWritable(cfg.Stream) || cfg.Path != "" {
			return nil, ErrRawUnsupported
		}
		return nil, ErrMissingStream
	}

	if cfg.Stream != nil && isWritable(cfg.Stream) {
		return streamTarget{out: cfg.Stream}, nil
	}
	if cfg.Path != "" {
		return pathTarget{path: cfg.Path}, nil
	}
	return nil, ErrMissingStream
}

// isWritable reports false only for streams that say they are closed.
func isWritable(v any) bool {
	if w, ok := v.(writable); ok {
		return w.Writable()
	}
	return true
}
