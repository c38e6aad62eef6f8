package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/logscrub/internal/record"
	"github.com/nao1215/logscrub/internal/sanitize"
	"github.com/nao1215/logscrub/internal/sink"
	"github.com/nao1215/logscrub/internal/store"
)

// StdinInput is the input name that reads standard input.
const StdinInput = "-"

// outputExt is the extension of files written to an output directory.
const outputExt = ".jsonl"

// ErrNoOutput is returned by OpenStep when neither an output writer nor an
// output directory is configured.
var ErrNoOutput = errors.New("no output configured")

// OpenStep opens the job's input and builds the sanitizing destination.
//
// Records are written either to Output, shared by all jobs, or to a file in
// OutDir named after the input. Records at or above CaptureLevel are also
// sanitized into job.Capture.
type OpenStep struct {
	// Walker sanitizes records. Nil means sanitize.Default().
	Walker *sanitize.Walker

	// Output receives the records of every job. It must sanitize on its own,
	// typically by being a *sink.Sink.
	Output sink.RecordWriter

	// OutDir, when set, takes precedence over Output.
	OutDir string

	// CaptureLevel is the lowest level captured. Zero means record.LevelError.
	CaptureLevel int64

	// Stdin is read for StdinInput. Nil means os.Stdin.
	Stdin io.Reader
}

// Name returns the step name.
func (s *OpenStep) Name() string {
	return "open"
}

// Do opens the input and destination of job.
func (s *OpenStep) Do(_ context.Context, job *Job) error {
	if err := s.openInput(job); err != nil {
		return err
	}

	out, err := s.openOutput(job)
	if err != nil {
		return err
	}

	capture, err := sink.Wrap(sink.Config{Type: sink.TypeRaw, Records: job.Capture}, s.Walker)
	if err != nil {
		return fmt.Errorf("failed to build error capture: %w", err)
	}
	level := s.CaptureLevel
	if level == 0 {
		level = record.LevelError
	}
	job.dest = sink.Multi(out, sink.AtLevel(level, capture))
	return nil
}

func (s *OpenStep) openInput(job *Job) error {
	if job.Input == StdinInput {
		job.reader = s.Stdin
		if job.reader == nil {
			job.reader = os.Stdin
		}
		return nil
	}
	f, err := os.Open(job.Input)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	job.addCloser(f)
	job.reader = f
	return nil
}

func (s *OpenStep) openOutput(job *Job) (sink.RecordWriter, error) {
	if s.OutDir == "" {
		if s.Output == nil {
			return nil, ErrNoOutput
		}
		return s.Output, nil
	}

	if err := os.MkdirAll(s.OutDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	out, err := sink.Wrap(sink.Config{
		Type: sink.TypeJSON,
		Path: OutputPath(s.OutDir, job.Input),
	}, s.Walker)
	if err != nil {
		return nil, err
	}
	job.addCloser(out)
	return out, nil
}

// OutputPath returns the file in outDir that receives the records of input.
func OutputPath(outDir, input string) string {
	base := filepath.Base(input)
	if input == StdinInput {
		base = "stdin"
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outDir, base+outputExt)
}

// RuleMatcher reports the names of the credential rules matching a text.
// *scrub.Scrubber implements it.
type RuleMatcher interface {
	Matches(s string) []string
}

// ScrubStep copies every NDJSON line of the input into the destination.
// Lines that are not JSON objects are logged and skipped.
type ScrubStep struct {
	// Logger reports skipped lines. Nil means slog.Default().
	Logger *slog.Logger

	// Rules, when set, counts credential rule matches in job.RuleHits.
	Rules RuleMatcher
}

// Name returns the step name.
func (s *ScrubStep) Name() string {
	return "scrub"
}

// Do reads job's input to the end.
func (s *ScrubStep) Do(ctx context.Context, job *Job) error {
	if job.reader == nil || job.dest == nil {
		return errors.New("scrub step requires the open step")
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := bufio.NewReader(job.reader)
	lineNo := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, readErr := r.ReadBytes('\n')
		if len(line) > 0 {
			lineNo++
			if err := s.scrubLine(job, bytes.TrimSpace(line), lineNo, logger); err != nil {
				return err
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("failed to read input: %w", readErr)
		}
	}
}

func (s *ScrubStep) scrubLine(job *Job, line []byte, lineNo int, logger *slog.Logger) error {
	if len(line) == 0 {
		return nil
	}
	job.Lines++

	rec, err := record.DecodeRecord(line)
	if err != nil {
		job.Skipped++
		logger.Warn("skipping line",
			"input", job.Input,
			"line", lineNo,
			"error", err,
		)
		return nil
	}

	if s.Rules != nil {
		if names := s.Rules.Matches(string(line)); len(names) > 0 {
			if job.RuleHits == nil {
				job.RuleHits = make(map[string]int)
			}
			for _, name := range names {
				job.RuleHits[name]++
			}
			logger.Debug("credentials redacted",
				"input", job.Input,
				"line", lineNo,
				"rules", names,
			)
		}
	}

	if err := job.dest.WriteRecord(rec); err != nil {
		return fmt.Errorf("line %d: %w", lineNo, err)
	}
	job.Records++
	return nil
}

// ArchiveStep saves the captured records of a job.
type ArchiveStep struct {
	Archive *store.Archive
}

// Name returns the step name.
func (s *ArchiveStep) Name() string {
	return "archive"
}

// Do saves job's captured records, if any.
func (s *ArchiveStep) Do(ctx context.Context, job *Job) error {
	recs := job.Errors()
	if len(recs) == 0 {
		return nil
	}
	n, err := s.Archive.SaveAll(ctx, job.Input, recs)
	if err != nil {
		return fmt.Errorf("failed to archive errors: %w", err)
	}
	job.Archived = n
	return nil
}

// CloseStep releases the files opened for the job.
type CloseStep struct{}

// Name returns the step name.
func (CloseStep) Name() string {
	return "close"
}

// Do closes job.
func (CloseStep) Do(_ context.Context, job *Job) error {
	return job.Close()
}

// ScrubOptions configures NewScrubPipeline.
type ScrubOptions struct {
	Open    OpenStep
	Archive *store.Archive
	Logger  *slog.Logger
}

// NewScrubPipeline returns the pipeline that scrubs one input: open, scrub,
// close and, when an archive is given, archive.
//
// Steps keep running after a failure, so the input is always closed and the
// records captured before a scrub failure are still archived. The first
// error is left in job.Err.
func NewScrubPipeline(opts ScrubOptions) *Pipeline {
	open := opts.Open
	walker := open.Walker
	if walker == nil {
		walker = sanitize.Default()
	}
	rules, _ := walker.Scrubber().(RuleMatcher)

	p := New(WithLogger(opts.Logger), WithContinueOnError(true))
	p.AddSteps(&open, &ScrubStep{Logger: opts.Logger, Rules: rules}, CloseStep{})
	if opts.Archive != nil {
		p.AddStep(&ArchiveStep{Archive: opts.Archive})
	}
	return p
}
