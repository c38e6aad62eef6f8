package sanitize

import (
	"github.com/nao1215/logscrub/internal/policy"
	"github.com/nao1215/logscrub/internal/record"
	"github.com/nao1215/logscrub/internal/scrub"
)

// Scrubber removes sensitive substrings from text.
type Scrubber interface {
	Scrub(s string) string
}

// ScrubFunc adapts a function to the Scrubber interface.
type ScrubFunc func(s string) string

// Scrub calls f(s).
func (f ScrubFunc) Scrub(s string) string {
	return f(s)
}

// identity leaves text unchanged.
var identity = ScrubFunc(func(s string) string { return s })

// Walker produces sanitized copies of record values.
// A Walker holds no per-walk state and is safe for concurrent use.
type Walker struct {
	policy   *policy.Policy
	scrubber Scrubber
}

// New returns a Walker applying p and passing strings through s.
// A nil policy keeps every field; a nil scrubber leaves strings unchanged.
func New(p *policy.Policy, s Scrubber) *Walker {
	if s == nil {
		s = identity
	}
	return &Walker{policy: p, scrubber: s}
}

// Default returns a Walker with the default policy and the process-wide scrubber.
func Default() *Walker {
	return New(policy.Default(), scrub.Default())
}

// Policy returns the policy applied by w.
func (w *Walker) Policy() *policy.Policy {
	return w.policy
}

// Scrubber returns the scrubber applied to strings by w.
func (w *Walker) Scrubber() Scrubber {
	return w.scrubber
}

// visited maps a sequence or mapping of the input to its sanitized copy.
// It lives for exactly one call to Sanitize.
type visited map[record.Value]record.Value

// lookup reports the copy already produced for v. Only pointer variants
// have identity; every other value is never found.
func (seen visited) lookup(v record.Value) (record.Value, bool) {
	switch v.(type) {
	case *record.Sequence, *record.Mapping:
		out, ok := seen[v]
		return out, ok
	default:
		return nil, false
	}
}

// remember records out as the copy of in when in has identity.
func (seen visited) remember(in, out record.Value) {
	switch in.(type) {
	case *record.Sequence, *record.Mapping:
		seen[in] = out
	}
}

// Sanitize returns a redacted copy of v. The input is never modified.
func (w *Walker) Sanitize(v record.Value) record.Value {
	return w.walk(v, make(visited))
}

// SanitizeRecord is Sanitize for a top-level record.
func (w *Walker) SanitizeRecord(rec *record.Mapping) *record.Mapping {
	if rec == nil {
		return nil
	}
	out, _ := w.Sanitize(rec).(*record.Mapping)
	return out
}

func (w *Walker) walk(v record.Value, seen visited) record.Value {
	switch x := v.(type) {
	case *record.Sequence:
		if x == nil {
			return x
		}
		// Register the copy before descending so that items referring
		// back to x resolve to it.
		out := &record.Sequence{Items: make([]record.Value, len(x.Items))}
		seen[x] = out
		for i, item := range x.Items {
			if prev, ok := seen.lookup(item); ok {
				out.Items[i] = prev
				continue
			}
			res := w.walk(item, seen)
			seen.remember(item, res)
			out.Items[i] = res
		}
		return out
	case record.Blob:
		return record.Text(policy.ContentToken)
	case record.Timestamp:
		return x
	case *record.Mapping:
		if x == nil {
			return x
		}
		out := record.NewMapping(x.Len())
		seen[x] = out
		x.Range(func(key string, val record.Value) bool {
			if token, ok := w.policy.Classify(key).Token(); ok {
				out.Set(key, record.Text(token))
				return true
			}
			if prev, ok := seen.lookup(val); ok {
				out.Set(key, prev)
				return true
			}
			res := w.walk(val, seen)
			seen.remember(val, res)
			out.Set(key, res)
			return true
		})
		return out
	case record.Text:
		return record.Text(w.scrubber.Scrub(string(x)))
	case nil, record.Null, record.Bool, record.Int, record.Float:
		return v
	}
	return v
}
