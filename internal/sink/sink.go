package sink

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/nao1215/logscrub/internal/record"
	"github.com/nao1215/logscrub/internal/sanitize"
)

// logFileMode is the permission for log files created by Wrap.
const logFileMode = 0o600

// Sink sanitizes records and forwards them to a stream.
//
// A Sink adds no buffering: every WriteRecord results in exactly one write
// on the underlying stream, and errors from that stream are returned as-is.
// It holds no per-write state and may be shared by goroutines as long as the
// underlying stream tolerates concurrent writes.
type Sink struct {
	walker  *sanitize.Walker
	out     io.Writer
	records RecordWriter
	raw     bool

	// file is set when the sink opened a path itself.
	file *os.File
}

// Wrap builds a Sink from cfg. Records are sanitized by walker, or by
// sanitize.Default() when walker is nil.
//
// Configuration problems are reported before any I/O. When cfg names a path
// the file is created if needed and opened for appending; it stays open
// until Close.
func Wrap(cfg Config, walker *sanitize.Walker) (*Sink, error) {
	if walker == nil {
		walker = sanitize.Default()
	}
	t, err := resolve(cfg)
	if err != nil {
		return nil, err
	}

	switch t := t.(type) {
	case streamTarget:
		return &Sink{walker: walker, out: t.out, records: t.records, raw: t.raw}, nil
	case pathTarget:
		f, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, logFileMode) //nolint:gosec // log path is configured by the operator
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", t.path, err)
		}
		s, err := Wrap(Config{Type: cfg.Type, Stream: f}, walker)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		s.file = f
		return s, nil
	default:
		return nil, ErrMissingStream
	}
}

// Raw reports whether the sink passes structured records instead of text.
func (s *Sink) Raw() bool {
	return s.raw
}

// WriteRecord sanitizes rec and forwards it. A nil record is rejected with
// ErrMalformedRecord and nothing is written.
func (s *Sink) WriteRecord(rec *record.Mapping) error {
	if rec == nil {
		return fmt.Errorf("%w: nil record", ErrMalformedRecord)
	}
	clean := s.walker.SanitizeRecord(rec)
	if s.raw {
		return s.records.WriteRecord(clean)
	}
	return s.writeLine(record.AppendJSON(make([]byte, 0, 256), clean))
}

// writeLine terminates line with exactly one newline and writes it in one call.
func (s *Sink) writeLine(line []byte) error {
	line = bytes.TrimSuffix(line, []byte{'\n'})
	line = append(line, '\n')
	_, err := s.out.Write(line)
	return err
}

// Write implements io.Writer for producers that emit NDJSON, such as the
// slog JSON handler or a zap JSON encoder. Each non-blank line of p must be a
// JSON object; it is decoded with its key order kept and passed to
// WriteRecord.
//
// On failure the returned count is the offset of the failing line: every
// byte before it has been forwarded.
func (s *Sink) Write(p []byte) (int, error) {
	n := 0
	for lineNo := 1; n < len(p); lineNo++ {
		line, next := p[n:], len(p)
		if i := bytes.IndexByte(line, '\n'); i >= 0 {
			line, next = line[:i], n+i+1
		}
		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			rec, err := record.DecodeRecord(line)
			if err != nil {
				return n, fmt.Errorf("%w: line %d: %v", ErrMalformedRecord, lineNo, err)
			}
			if err := s.WriteRecord(rec); err != nil {
				return n, err
			}
		}
		n = next
	}
	return n, nil
}

// Close closes the file the sink opened for a path configuration.
// Streams supplied by the caller are left open.
func (s *Sink) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
