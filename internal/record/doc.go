// Package record defines the value model for structured log records.
//
// A record is an ordered mapping from string keys to values. Values form a
// closed set of variants:
//   - Scalars: Null, Bool, Int and Float
//   - Text for strings
//   - Blob for binary payloads
//   - Timestamp for points in time
//   - *Sequence for ordered lists
//   - *Mapping for nested keyed objects
//
// Sequences and mappings are pointer types. Two fields may refer to the same
// sequence or mapping, and a mapping may reach itself through its own fields.
// Code that walks records must treat the pointer as the identity of the value.
//
// The package also provides an NDJSON codec that preserves key order on both
// encoding and decoding and that terminates on cyclic graphs.
package record
