package sink

import (
	"errors"
	"sync"

	"github.com/nao1215/logscrub/internal/record"
)

// transportFields are dropped from captured records. They describe the
// process that logged, not the error.
var transportFields = []string{record.KeyPID, record.KeyTime, record.KeyVersion, record.KeyHostname}

// ErrorCapture collects records in memory for later inspection.
// It is safe for concurrent use.
type ErrorCapture struct {
	mu     sync.Mutex
	errors []*record.Mapping
}

// NewErrorCapture returns an empty capture.
func NewErrorCapture() *ErrorCapture {
	return &ErrorCapture{}
}

// Write stores a shallow copy of rec without the transport fields and
// reports true. rec itself is not modified.
func (c *ErrorCapture) Write(rec *record.Mapping) bool {
	var stored *record.Mapping
	if rec == nil {
		stored = record.NewMapping(0)
	} else {
		stored = rec.Clone()
	}
	for _, key := range transportFields {
		stored.Delete(key)
	}

	c.mu.Lock()
	c.errors = append(c.errors, stored)
	c.mu.Unlock()
	return true
}

// WriteRecord implements RecordWriter.
func (c *ErrorCapture) WriteRecord(rec *record.Mapping) error {
	c.Write(rec)
	return nil
}

// Errors returns the captured records in arrival order. The returned slice
// is a copy; appending to the capture later does not change it.
func (c *ErrorCapture) Errors() []*record.Mapping {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*record.Mapping, len(c.errors))
	copy(out, c.errors)
	return out
}

// Len returns the number of captured records.
func (c *ErrorCapture) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errors)
}

// Reset discards all captured records.
func (c *ErrorCapture) Reset() {
	c.mu.Lock()
	c.errors = nil
	c.mu.Unlock()
}

// levelFilter forwards records at or above a level.
type levelFilter struct {
	min  int64
	next RecordWriter
}

// AtLevel returns a RecordWriter that passes records whose level is at least
// minLevel to next. Records without a numeric level are dropped.
func AtLevel(minLevel int64, next RecordWriter) RecordWriter {
	return &levelFilter{min: minLevel, next: next}
}

func (f *levelFilter) WriteRecord(rec *record.Mapping) error {
	lvl, ok := record.LevelOf(rec)
	if !ok || lvl < f.min {
		return nil
	}
	return f.next.WriteRecord(rec)
}

// multiWriter fans records out to several writers.
type multiWriter struct {
	writers []RecordWriter
}

// Multi returns a RecordWriter that hands every record to each of writers.
// A failing writer does not stop the others; the errors are joined.
func Multi(writers ...RecordWriter) RecordWriter {
	return &multiWriter{writers: writers}
}

func (m *multiWriter) WriteRecord(rec *record.Mapping) error {
	var errs []error
	for _, w := range m.writers {
		if err := w.WriteRecord(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
