package pipeline

import (
	"errors"
	"io"

	"github.com/nao1215/logscrub/internal/record"
	"github.com/nao1215/logscrub/internal/sink"
)

// Job is the state of one input while it moves through a pipeline.
type Job struct {
	// Input is the file name, or StdinInput.
	Input string

	// Capture holds the sanitized records at or above the capture level.
	Capture *sink.ErrorCapture

	// Lines is the number of non-blank lines read.
	Lines int

	// Records is the number of records written.
	Records int

	// Skipped is the number of lines that were not JSON objects.
	Skipped int

	// Archived is the number of captured records saved to the store.
	Archived int

	// RuleHits counts, per credential rule, the records whose input line
	// matched the rule.
	RuleHits map[string]int

	// PerformedSteps lists the steps that ran, in order.
	PerformedSteps []string

	// Err is the error of the first failing step, if any.
	Err error

	reader  io.Reader
	dest    sink.RecordWriter
	closers []io.Closer
}

// NewJob returns a job for input.
func NewJob(input string) *Job {
	return &Job{
		Input:   input,
		Capture: sink.NewErrorCapture(),
	}
}

// Errors returns the captured records.
func (j *Job) Errors() []*record.Mapping {
	return j.Capture.Errors()
}

func (j *Job) addCloser(c io.Closer) {
	if c != nil {
		j.closers = append(j.closers, c)
	}
}

// Close releases the files opened for the job, in reverse order.
func (j *Job) Close() error {
	var errs []error
	for i := len(j.closers) - 1; i >= 0; i-- {
		if err := j.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	j.closers = nil
	return errors.Join(errs...)
}
