// Package store provides the SQLite-based error archive of logscrub.
//
// The archive keeps the error-level records captured while scrubbing, after
// they have been sanitized. Identical records are stored once: each entry
// is keyed by a SHA3-256 fingerprint of its canonical JSON encoding and
// counts how often it was seen, and when it was first and last seen.
//
// The database lives in a single file (logscrub.db) opened through
// modernc.org/sqlite, a CGO-free driver, in WAL mode.
package store
