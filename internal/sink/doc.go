// Package sink connects log record producers to the streams that persist them.
//
// Wrap turns a Config into a Sink. Every record written to a Sink is first
// sanitized by a sanitize.Walker and then either encoded as one NDJSON line
// (json mode) or handed over as a structured value (raw mode). A Config may
// name a file path instead of a stream; the file is opened in append mode.
// Rotating files are not supported and are rejected before anything is
// opened.
//
// ErrorCapture is a destination of its own: it keeps the records it receives
// in memory, without the transport metadata fields, so that callers can
// inspect the errors a run produced.
//
// Typical setup:
//
//	s, err := sink.Wrap(sink.Config{Path: "/var/log/app.log"}, sanitize.Default())
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//	capture := sink.NewErrorCapture()
//	dest := sink.Multi(s, sink.AtLevel(record.LevelError, capture))
package sink
