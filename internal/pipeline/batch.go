package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// defaultConcurrency is the number of inputs processed at once when
// WithConcurrency is not given.
const defaultConcurrency = 4

// BatchProcessor handles concurrent processing of multiple inputs.
// It uses errgroup to manage goroutines and respect concurrency limits.
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each input.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of inputs processed at once.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of inputs processed at once.
// Values below one are ignored.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
//
// The pipelineFactory function is called for each input so that step state
// never leaks between inputs.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     defaultConcurrency,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// Concurrency returns the configured concurrency limit.
func (bp *BatchProcessor) Concurrency() int {
	return bp.concurrency
}

// ProcessBatchWithCallback processes inputs concurrently and calls callback
// once per input as soon as its job is finished, failed or cancelled. Jobs
// that failed carry their error in Job.Err. The callback runs on the
// goroutine that processed the job, so it must be safe for concurrent use;
// index is the position of the job's input in inputs.
//
// The error return is only set when ctx is cancelled.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	inputs []string,
	callback func(job *Job, index int),
) error {
	bp.logger.Debug("starting batch processing",
		"total_inputs", len(inputs),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, input := range inputs {
		g.Go(func() error {
			job := NewJob(input)
			select {
			case <-ctx.Done():
				job.Err = ctx.Err()
				callback(job, i)
				return ctx.Err()
			default:
			}

			if err := bp.pipelineFactory().Execute(ctx, job); err != nil && job.Err == nil {
				job.Err = err
			}
			if err := job.Close(); err != nil && job.Err == nil {
				job.Err = err
			}
			callback(job, i)

			if job.Err != nil {
				bp.logger.Warn("input failed",
					"input", input,
					"error", job.Err,
				)
				// Other inputs keep going; the error is in the job.
				return nil
			}

			bp.logger.Debug("input completed",
				"input", input,
				"records", job.Records,
				"skipped", job.Skipped,
				"errors", job.Capture.Len(),
			)
			return nil
		})
	}

	err := g.Wait()
	bp.logger.Debug("batch processing complete",
		"total_inputs", len(inputs),
		"elapsed", time.Since(startTime),
	)
	return err
}
