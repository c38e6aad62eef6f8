// Package log builds the sanitizing loggers of logscrub.
//
// A Handler is an slog.Handler that turns every slog record into a
// record.Mapping shaped like a bunyan record (name, hostname, pid, level,
// msg, time, v) and hands it to a sink.RecordWriter. Attribute groups become
// nested mappings, so field-name redaction applies at every depth.
//
// NewLogger wires the usual destinations: the console stream and an
// optional log file, both behind a sanitizing sink, plus an in-memory error
// capture that receives every record at error level or above.
//
// # Usage
//
//	logger, err := log.NewLogger(os.Stderr, verbose, log.WithFile(path))
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.Warn("lookup failed", "token", token) // token is written as "***********"
//
//	for _, rec := range logger.Errors() {
//	    fmt.Println(record.Message(rec))
//	}
//
// Applications on zap can use NewZapLogger, which encodes entries as JSON
// into a sink.Sink and gets the same redaction.
package log
