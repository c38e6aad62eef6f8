// Package sanitize walks record values and produces redacted copies.
//
// The Walker applies a redaction policy by field name, elides binary
// payloads, and passes every string through a Scrubber. It copies sequences
// and mappings instead of mutating them, and it tracks the values it has
// already visited by identity: a value reached twice maps to the same
// sanitized copy. Self-referential records therefore terminate and keep
// their shape, with the cycle intact in the output.
package sanitize
