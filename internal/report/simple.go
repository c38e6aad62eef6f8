package report

import (
	"fmt"
	"io"
	"strings"
)

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// verbose adds the full sanitized record under each item.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *Report) (int, error) {
	var sb strings.Builder

	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                       LOGSCRUB ERROR REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	if !report.HasErrors() {
		sb.WriteString("No errors captured.\n")
		return w.output.Write([]byte(sb.String()))
	}

	for _, c := range report.CountByLevel() {
		sb.WriteString(fmt.Sprintf("  %-8s %d\n", strings.ToUpper(levelLabel(c.Level))+":", c.Count))
	}
	sb.WriteString(fmt.Sprintf("  %-8s %d\n\n", "TOTAL:", report.Total()))

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	for i, it := range report.Items {
		sb.WriteString(fmt.Sprintf("[%d] %s: %s", i+1, strings.ToUpper(levelLabel(it.Level)), it.Message))
		if it.Occurrences > 1 {
			sb.WriteString(fmt.Sprintf(" (x%d)", it.Occurrences))
		}
		sb.WriteString("\n")
		if it.Source != "" {
			sb.WriteString(fmt.Sprintf("    source: %s\n", it.Source))
		}
		if w.verbose {
			sb.WriteString(fmt.Sprintf("    record: %s\n", it.Record))
		}
	}

	return w.output.Write([]byte(sb.String()))
}
