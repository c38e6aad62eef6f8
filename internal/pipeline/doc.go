// Package pipeline runs the steps that scrub one log input, and runs many
// inputs concurrently.
//
// A Job is one input: a file, or standard input. A Pipeline passes the job
// through its steps in order: OpenStep opens the input and the sanitizing
// output, ScrubStep copies every NDJSON line through it while capturing the
// error-level records, and ArchiveStep saves those records in the store.
//
// BatchProcessor fans a list of inputs out over a bounded number of
// goroutines with errgroup, giving every input a fresh pipeline.
package pipeline
