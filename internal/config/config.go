package config

import (
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/nao1215/logscrub/internal/record"
)

// Default configuration values.
const (
	// DefaultConcurrency is the number of input files scrubbed at once.
	DefaultConcurrency = 4

	// AppName is the application name used for XDG directory paths.
	AppName = "logscrub"

	// StdinInput is the input name that stands for standard input.
	StdinInput = "-"
)

// Config holds all configuration options of the scrub command.
// It is populated from CLI flags and passed through the application
// rather than kept in global state.
type Config struct {
	// Inputs are the NDJSON log files to scrub. StdinInput reads standard input.
	Inputs []string

	// OutputFile is a file that sanitized records are appended to.
	// When empty and OutDir is empty, records are written to stdout.
	OutputFile string

	// OutDir is a directory receiving one <name>.jsonl file per input.
	// Mutually exclusive with OutputFile.
	OutDir string

	// Concurrency is the number of inputs processed at the same time.
	Concurrency int

	// CaptureLevel is the lowest level whose records are reported and archived.
	CaptureLevel int64

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// LogFile is an optional file for the tool's own diagnostics.
	LogFile string

	// ConfigFilePath is the path to the policy file.
	// If empty, the tool searches for .logscrub in the current directory,
	// the XDG config directory and then the user's home directory.
	ConfigFilePath string

	// Policy is the policy file, if one was found.
	Policy *File

	// Secrets are literal values to redact, in addition to the policy file's.
	Secrets []string

	// Report prints the error-level records as a plain text report.
	Report bool

	// MarkdownReport prints the error-level records as a Markdown report.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// JSONReport prints the error-level records as JSON.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stderr.
	ReportFile string

	// SaveToDB archives the error-level records in the database.
	SaveToDB bool

	// DBDir is the directory path for the SQLite database.
	// Defaults to XDG data directory (~/.local/share/logscrub on Linux).
	DBDir string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Concurrency:  DefaultConcurrency,
		CaptureLevel: record.LevelError,
		DBDir:        XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for logscrub.
// On Linux: ~/.local/share/logscrub
// On macOS: ~/Library/Application Support/logscrub
// On Windows: %LOCALAPPDATA%\logscrub
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for logscrub.
// On Linux: ~/.config/logscrub
// On macOS: ~/Library/Application Support/logscrub
// On Windows: %APPDATA%\logscrub
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ReadsStdin reports whether one of the inputs is standard input.
func (c *Config) ReadsStdin() bool {
	for _, in := range c.Inputs {
		if in == StdinInput {
			return true
		}
	}
	return false
}

// WantsReport reports whether a report of captured errors was requested.
func (c *Config) WantsReport() bool {
	return c.Report || c.MarkdownReport || c.JSONReport
}

// Validate checks if the configuration is valid.
// It returns the first problem found.
func (c *Config) Validate() error {
	if len(c.Inputs) == 0 {
		return ErrNoInput
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.CaptureLevel < record.LevelTrace || c.CaptureLevel > record.LevelFatal {
		return ErrInvalidCaptureLevel
	}

	if c.OutputFile != "" && c.OutDir != "" {
		return ErrConflictingOutputs
	}

	if c.OutDir != "" && c.ReadsStdin() {
		return ErrOutDirWithStdin
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}
