package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/nao1215/logscrub/internal/config"
	"github.com/nao1215/logscrub/internal/log"
	"github.com/nao1215/logscrub/internal/pipeline"
	"github.com/nao1215/logscrub/internal/record"
	"github.com/nao1215/logscrub/internal/report"
	"github.com/nao1215/logscrub/internal/sanitize"
	"github.com/nao1215/logscrub/internal/sink"
	"github.com/nao1215/logscrub/internal/store"
)

// errInputsFailed is returned when at least one input could not be scrubbed.
var errInputsFailed = errors.New("some inputs failed")

// NewScrubCmd creates the scrub command.
func NewScrubCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrub [file...]",
		Short: "Sanitize NDJSON log files",
		Long: `Scrub reads newline-delimited JSON log records and writes sanitized copies.

Each record is passed through the redaction policy:
- Secret fields are replaced with "***********"
- Content fields are replaced with "[content]", template fields with "[Template]"
- Binary values are replaced with "[content]"
- Credentials inside strings are replaced with "**redacted**"

Lines that are not JSON objects are skipped with a warning.
Use - to read standard input.

Examples:
  # Scrub a file to stdout
  logscrub scrub renovate.log

  # Scrub stdin and append to a file
  cat renovate.log | logscrub scrub -o clean.log -

  # Scrub several files into a directory, 8 at a time
  logscrub scrub --out-dir clean/ -n 8 logs/*.log

  # Redact an extra literal secret and report captured errors as Markdown
  logscrub scrub -s "$NPM_TOKEN" --markdown renovate.log

  # Archive error records for "logscrub errors"
  logscrub scrub --save renovate.log`,
		Args: cobra.ArbitraryArgs,
		RunE: runScrubCmd,
	}

	// Output flags
	cmd.Flags().StringP("output", "o", "",
		"Append sanitized records to this file (default: stdout)")
	cmd.Flags().StringP("out-dir", "d", "",
		"Write one <name>.jsonl file per input into this directory")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of inputs processed at the same time")

	// Policy flags
	cmd.Flags().StringP("config", "c", "",
		"Policy file path (default: .logscrub in current, XDG config or home directory)")
	cmd.Flags().StringArrayP("secret", "s", nil,
		"Literal secret to redact (repeatable)")

	// Diagnostics
	cmd.Flags().String("log-file", "",
		"Also append logscrub's own diagnostics to this file")

	// Report flags
	cmd.Flags().String("capture-level", record.LevelName(record.LevelError),
		"Lowest level reported and archived (trace, debug, info, warn, error, fatal)")
	cmd.Flags().BoolP("report", "r", false,
		"Print a plain text report of captured error records")
	cmd.Flags().BoolP("markdown", "m", false,
		"Print the report in Markdown (mutually exclusive with --json)")
	cmd.Flags().BoolP("json", "j", false,
		"Print the report in JSON (mutually exclusive with --markdown)")
	cmd.Flags().String("report-file", "",
		"Also write the report to this file")

	// Archive flags
	cmd.Flags().Bool("save", false,
		"Archive captured error records in the local database")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the error archive database")

	return cmd
}

// runScrubCmd executes the scrub command.
func runScrubCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	walker, err := cfg.Policy.Walker(cfg.Secrets...)
	if err != nil {
		return fmt.Errorf("invalid policy: %w", err)
	}

	logger, err := setupLogger(cmd.ErrOrStderr(), cfg, walker)
	if err != nil {
		return err
	}
	defer logger.Close()
	slog.SetDefault(logger.Logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runScrub(ctx, cmd, cfg, walker, logger.Logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Inputs = args
	cfg.Verbose = getVerboseFlag(cmd)

	var err error
	flags := cmd.Flags()

	if cfg.OutputFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.OutDir, err = flags.GetString("out-dir"); err != nil {
		return nil, err
	}
	if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.Secrets, err = flags.GetStringArray("secret"); err != nil {
		return nil, err
	}
	if cfg.LogFile, err = flags.GetString("log-file"); err != nil {
		return nil, err
	}

	level, err := flags.GetString("capture-level")
	if err != nil {
		return nil, err
	}
	var ok bool
	if cfg.CaptureLevel, ok = record.ParseLevel(level); !ok {
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidCaptureLevel, level)
	}

	if cfg.Report, err = flags.GetBool("report"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("report-file"); err != nil {
		return nil, err
	}
	if cfg.SaveToDB, err = flags.GetBool("save"); err != nil {
		return nil, err
	}
	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}

	if cfg.Policy, err = loadPolicy(cfg.ConfigFilePath); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadPolicy finds and loads the policy file.
// If the user explicitly specified a path, a missing file is an error.
// Otherwise a missing file means the built-in policy.
func loadPolicy(path string) (*config.File, error) {
	found := config.FindConfigFile(path)
	if found == "" {
		if path != "" {
			return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, path)
		}
		return nil, nil
	}

	f, err := config.LoadConfigFile(found)
	if err != nil {
		return nil, fmt.Errorf("failed to load policy file %s: %w", found, err)
	}
	return f, nil
}

// setupLogger creates the diagnostics logger. It writes sanitized NDJSON to
// w, and to cfg.LogFile when set.
func setupLogger(w io.Writer, cfg *config.Config, walker *sanitize.Walker) (*log.Logger, error) {
	opts := []log.Option{log.WithWalker(walker)}
	if cfg.LogFile != "" {
		opts = append(opts, log.WithFile(cfg.LogFile))
	}
	return log.NewLogger(w, cfg.Verbose, opts...)
}

// openOutput returns the shared destination of all inputs, or nil when each
// input gets its own file in cfg.OutDir. The returned closer may be nil.
func openOutput(cmd *cobra.Command, cfg *config.Config, walker *sanitize.Walker) (sink.RecordWriter, io.Closer, error) {
	if cfg.OutDir != "" {
		return nil, nil, nil
	}

	sc, ok := cfg.Policy.SinkConfig()
	switch {
	case cfg.OutputFile != "":
		sc = sink.Config{Type: sink.TypeJSON, Path: cfg.OutputFile}
	case !ok:
		// Inputs are scrubbed concurrently, so stdout writes are serialized.
		sc = sink.Config{Type: sink.TypeJSON, Stream: zapcore.Lock(zapcore.AddSync(cmd.OutOrStdout()))}
	}

	s, err := sink.Wrap(sc, walker)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open output: %w", err)
	}
	return s, s, nil
}

// runScrub scrubs every input and writes the report.
func runScrub(ctx context.Context, cmd *cobra.Command, cfg *config.Config, walker *sanitize.Walker, logger *slog.Logger) error {
	logger.Debug("starting scrub",
		"inputs", cfg.Inputs,
		"concurrency", cfg.Concurrency,
		"saveToDB", cfg.SaveToDB,
	)

	out, closer, err := openOutput(cmd, cfg, walker)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	var archive *store.Archive
	if cfg.SaveToDB {
		archive, err = store.Open(cfg.DBDir, store.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer archive.Close()
		logger.Debug("database opened", "path", archive.Path())
	}

	opts := pipeline.ScrubOptions{
		Open: pipeline.OpenStep{
			Walker:       walker,
			Output:       out,
			OutDir:       cfg.OutDir,
			CaptureLevel: cfg.CaptureLevel,
			Stdin:        cmd.InOrStdin(),
		},
		Archive: archive,
		Logger:  logger,
	}
	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline { return pipeline.NewScrubPipeline(opts) },
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithBatchLogger(logger),
	)

	startTime := time.Now()
	jobs := make([]*pipeline.Job, len(cfg.Inputs))
	var failed atomic.Int32
	err = bp.ProcessBatchWithCallback(ctx, cfg.Inputs, func(job *pipeline.Job, i int) {
		// Each goroutine owns its index.
		jobs[i] = job
		logJob(logger, job)
		if job.Err != nil {
			failed.Add(1)
		}
	})
	if err != nil {
		return err
	}
	logger.Debug("scrub completed", "elapsed", time.Since(startTime).Round(time.Millisecond))

	if cfg.WantsReport() {
		if err := outputReport(cmd, cfg, collectReport(jobs)); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}

	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%w: %d of %d", errInputsFailed, n, len(jobs))
	}
	return nil
}

// logJob logs the outcome of one input as soon as it is finished.
func logJob(logger *slog.Logger, job *pipeline.Job) {
	if job.Err != nil {
		logger.Error("input failed",
			"input", job.Input,
			"error", job.Err,
			"records", job.Records,
			"archived", job.Archived,
		)
		return
	}
	logger.Info("input scrubbed",
		"input", job.Input,
		"records", job.Records,
		"skipped", job.Skipped,
		"errors", job.Capture.Len(),
		"archived", job.Archived,
		"rules", job.RuleHits,
	)
}

// collectReport merges the captured records of all jobs into one report.
func collectReport(jobs []*pipeline.Job) *report.Report {
	r := &report.Report{GeneratedAt: time.Now()}
	for _, job := range jobs {
		r.Items = append(r.Items, report.FromRecords(job.Input, job.Errors()).Items...)
	}
	return r
}

// newReportWriter selects the report format from the flags.
func newReportWriter(w io.Writer, jsonFormat, markdownFormat, verbose bool) report.Writer {
	switch {
	case jsonFormat:
		return report.NewJSONWriter(w, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case markdownFormat:
		return report.NewMarkdownWriter(w)
	default:
		return report.NewSimpleWriter(w, report.WithVerbose(verbose))
	}
}

// outputReport writes r to stderr so that it never mixes with records on
// stdout, and also to cfg.ReportFile when set.
func outputReport(cmd *cobra.Command, cfg *config.Config, r *report.Report) error {
	writers := []report.Writer{
		newReportWriter(cmd.ErrOrStderr(), cfg.JSONReport, cfg.MarkdownReport, cfg.Verbose),
	}
	if cfg.ReportFile != "" {
		if dir := filepath.Dir(cfg.ReportFile); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Reports hold log content; only the owner may read them.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		writers = append(writers, newReportWriter(f, cfg.JSONReport, cfg.MarkdownReport, cfg.Verbose))
	}

	_, err := report.NewMultiWriter(writers...).Write(r)
	return err
}
