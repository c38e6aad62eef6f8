// Package main provides the entry point for the logscrub CLI.
//
// logscrub removes secrets from NDJSON (bunyan style) log files. Fields named
// in the redaction policy are masked or elided, binary values are elided, and
// credentials found inside strings are redacted.
//
// Usage:
//
//	logscrub scrub renovate.log
//	cat renovate.log | logscrub scrub -
//
// See --help for all available options.
package main

// main is the entry point for logscrub.
func main() {
	Execute()
}
