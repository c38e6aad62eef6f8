package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
var (
	// ErrNoInput is returned when there is nothing to read.
	ErrNoInput = errors.New("no input specified: provide log files or use - for stdin")

	// ErrInvalidConcurrency is returned when the concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidCaptureLevel is returned when the capture level is not a known level.
	ErrInvalidCaptureLevel = errors.New("invalid capture level: must be one of trace, debug, info, warn, error, fatal")

	// ErrConflictingOutputs is returned when both --output and --out-dir are specified.
	ErrConflictingOutputs = errors.New("conflicting outputs: --output and --out-dir cannot be used together")

	// ErrOutDirWithStdin is returned when --out-dir is combined with stdin input,
	// which has no file name to derive an output name from.
	ErrOutDirWithStdin = errors.New("--out-dir requires file inputs, not stdin")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidRule is returned when a policy file rule cannot be compiled.
	ErrInvalidRule = errors.New("invalid scrub rule")
)
