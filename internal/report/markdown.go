package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/logscrub/internal/record"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for pull request comments and issue reports.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *Report) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeErrors(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report title and generation time.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *Report) {
	md.H1("logscrub Error Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Generated", report.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Distinct Errors", strconv.Itoa(len(report.Items))},
			{"Occurrences", strconv.Itoa(report.Total())},
		},
	})
	md.PlainText("")
}

// writeSummary writes occurrences per level, a chart and an alert.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *Report) {
	md.H2("Level Summary")
	md.PlainText("")

	counts := report.CountByLevel()
	rows := make([][]string, 0, len(counts)+1)
	for _, c := range counts {
		rows = append(rows, []string{levelLabel(c.Level), strconv.Itoa(c.Count)})
	}
	rows = append(rows, []string{"**Total**", "**" + strconv.Itoa(report.Total()) + "**"})
	md.Table(markdown.TableSet{
		Header: []string{"Level", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(counts) > 1 {
		w.writePieChart(md, counts)
	}
	w.writeAlert(md, report)
}

// writePieChart writes a mermaid pie chart of the level distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, counts []LevelCount) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Errors by Level"),
		piechart.WithShowData(true),
	)
	for _, c := range counts {
		chart.LabelAndIntValue(levelLabel(c.Level), uint64(c.Count)) //nolint:gosec // counts are positive
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert matching the most severe level.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *Report) {
	switch top := report.MaxLevel(); {
	case !report.HasErrors():
		md.Tip("No errors were captured.")
	case top >= record.LevelFatal:
		md.Cautionf("Fatal errors captured! %d distinct record(s) need attention.", len(report.Items))
	case top >= record.LevelError:
		md.Warningf("%d distinct error record(s) captured.", len(report.Items))
	default:
		md.Note("Only records below error level were captured.")
	}
	md.PlainText("")
}

// writeErrors writes a table of items followed by their sanitized records.
func (w *MarkdownWriter) writeErrors(md *markdown.Markdown, report *Report) {
	md.H2("Errors")
	md.PlainText("")

	if !report.HasErrors() {
		md.PlainText("No errors captured.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Items))
	for i, it := range report.Items {
		source := it.Source
		if source == "" {
			source = "-"
		}
		msg := it.Message
		if msg == "" {
			msg = "-"
		}
		rows[i] = []string{
			levelLabel(it.Level),
			truncateString(msg, 60),
			truncateString(source, 40),
			strconv.Itoa(it.Occurrences),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Level", "Message", "Source", "Occurrences"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, it := range report.Items {
		title := it.Message
		if title == "" {
			title = levelLabel(it.Level)
		}
		md.Details(truncateString(title, 60), "`"+it.Record.String()+"`")
	}
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [logscrub](https://github.com/nao1215/logscrub)*")
}
