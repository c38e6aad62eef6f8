package log

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/nao1215/logscrub/internal/record"
	"github.com/nao1215/logscrub/internal/sanitize"
	"github.com/nao1215/logscrub/internal/sink"
)

// Slog levels beyond the four standard ones.
const (
	LevelTrace = slog.Level(-8)
	LevelFatal = slog.Level(12)
)

// DefaultName is the record name used when none is configured.
const DefaultName = "logscrub"

// recordVersion is the value of the "v" field.
const recordVersion = 0

// Option configures a Handler, a Logger or a zap logger.
type Option func(*settings)

type settings struct {
	name     string
	hostname string
	pid      int
	level    slog.Leveler
	file     string
	walker   *sanitize.Walker
	now      func() time.Time
}

func newSettings(verbose bool, opts []Option) *settings {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	s := &settings{
		name:     DefaultName,
		hostname: hostname,
		pid:      os.Getpid(),
		level:    level,
		walker:   sanitize.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithName sets the name field of every record.
func WithName(name string) Option {
	return func(s *settings) {
		if name != "" {
			s.name = name
		}
	}
}

// WithLevel sets the minimum level, overriding the verbose flag.
func WithLevel(level slog.Leveler) Option {
	return func(s *settings) {
		if level != nil {
			s.level = level
		}
	}
}

// WithHostname overrides the hostname field.
func WithHostname(hostname string) Option {
	return func(s *settings) {
		s.hostname = hostname
	}
}

// WithPID overrides the pid field.
func WithPID(pid int) Option {
	return func(s *settings) {
		s.pid = pid
	}
}

// WithFile adds a log file, opened in append mode, as a destination of NewLogger.
func WithFile(path string) Option {
	return func(s *settings) {
		s.file = path
	}
}

// WithWalker sets the walker used by sanitizing destinations.
func WithWalker(w *sanitize.Walker) Option {
	return func(s *settings) {
		if w != nil {
			s.walker = w
		}
	}
}

// withClock sets the time source for records without a time.
func withClock(now func() time.Time) Option {
	return func(s *settings) {
		s.now = now
	}
}

// recordLevel maps an slog level onto the numeric record scale.
func recordLevel(l slog.Level) int64 {
	switch {
	case l < slog.LevelDebug:
		return record.LevelTrace
	case l < slog.LevelInfo:
		return record.LevelDebug
	case l < slog.LevelWarn:
		return record.LevelInfo
	case l < slog.LevelError:
		return record.LevelWarn
	case l < LevelFatal:
		return record.LevelError
	default:
		return record.LevelFatal
	}
}

// groupOrAttrs is one WithGroup or WithAttrs call.
type groupOrAttrs struct {
	group string
	attrs []slog.Attr
}

// Handler converts slog records into record mappings.
// It does not redact anything itself; that is the job of the sinks behind out.
type Handler struct {
	out  sink.RecordWriter
	s    *settings
	goas []groupOrAttrs
}

// NewHandler returns a Handler writing to out at the warn level, or at the
// level given by WithLevel.
func NewHandler(out sink.RecordWriter, opts ...Option) *Handler {
	return &Handler{out: out, s: newSettings(false, opts)}
}

// Enabled reports whether level is at or above the configured minimum.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.s.level.Level()
}

// Handle builds the record for r and writes it.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	rec := record.NewMapping(8 + r.NumAttrs())
	rec.Set(record.KeyName, record.Text(h.s.name))
	rec.Set(record.KeyHostname, record.Text(h.s.hostname))
	rec.Set(record.KeyPID, record.Int(h.s.pid))
	rec.Set(record.KeyLevel, record.Int(recordLevel(r.Level)))

	goas := h.goas
	if r.NumAttrs() == 0 {
		// Groups with nothing in them are left out.
		for len(goas) > 0 && goas[len(goas)-1].group != "" {
			goas = goas[:len(goas)-1]
		}
	}
	cur := rec
	for _, g := range goas {
		if g.group != "" {
			child := record.NewMapping(4)
			cur.Set(g.group, child)
			cur = child
			continue
		}
		for _, a := range g.attrs {
			addAttr(cur, a)
		}
	}
	r.Attrs(func(a slog.Attr) bool {
		addAttr(cur, a)
		return true
	})

	rec.Set(record.KeyMsg, record.Text(r.Message))
	ts := r.Time
	if ts.IsZero() {
		ts = h.s.now()
	}
	rec.Set(record.KeyTime, record.Timestamp(ts))
	rec.Set(record.KeyVersion, record.Int(recordVersion))

	return h.out.WriteRecord(rec)
}

// WithAttrs returns a handler that adds attrs to every record.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	return h.with(groupOrAttrs{attrs: attrs})
}

// WithGroup returns a handler that nests later attributes under name.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return h.with(groupOrAttrs{group: name})
}

func (h *Handler) with(g groupOrAttrs) *Handler {
	goas := make([]groupOrAttrs, len(h.goas), len(h.goas)+1)
	copy(goas, h.goas)
	return &Handler{out: h.out, s: h.s, goas: append(goas, g)}
}

// addAttr stores a in m, turning groups into nested mappings.
func addAttr(m *record.Mapping, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		if len(attrs) == 0 {
			return
		}
		target := m
		if a.Key != "" {
			target = record.NewMapping(len(attrs))
			m.Set(a.Key, target)
		}
		for _, ga := range attrs {
			addAttr(target, ga)
		}
		return
	}
	m.Set(a.Key, attrValue(a.Value))
}

// attrValue converts a resolved, non-group slog value.
func attrValue(v slog.Value) record.Value {
	switch v.Kind() {
	case slog.KindString:
		return record.Text(v.String())
	case slog.KindInt64:
		return record.Int(v.Int64())
	case slog.KindUint64:
		return record.Of(v.Uint64())
	case slog.KindFloat64:
		return record.Float(v.Float64())
	case slog.KindBool:
		return record.Bool(v.Bool())
	case slog.KindDuration:
		return record.Text(v.Duration().String())
	case slog.KindTime:
		return record.Timestamp(v.Time())
	default:
		return record.Of(v.Any())
	}
}
