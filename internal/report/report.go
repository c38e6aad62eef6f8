package report

import (
	"sort"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/logscrub/internal/record"
	"github.com/nao1215/logscrub/internal/store"
)

// Item is one distinct error record.
type Item struct {
	Level       int64           `json:"level"`
	LevelName   string          `json:"levelName"`
	Name        string          `json:"name,omitempty"`
	Message     string          `json:"msg"`
	Source      string          `json:"source,omitempty"`
	Occurrences int             `json:"occurrences"`
	LastSeen    time.Time       `json:"lastSeen,omitzero"`
	Record      *record.Mapping `json:"record"`
}

// Report is a list of error records to render.
type Report struct {
	GeneratedAt time.Time `json:"generatedAt"`
	Items       []Item    `json:"errors"`
}

// LevelCount is the number of occurrences at one level.
type LevelCount struct {
	Level int64
	Count int
}

// FromRecords builds a report from captured records. Identical records are
// merged into one item.
func FromRecords(source string, recs []*record.Mapping) *Report {
	r := &Report{GeneratedAt: time.Now()}
	index := make(map[string]int, len(recs))
	for _, rec := range recs {
		if rec == nil {
			continue
		}
		key := rec.String()
		if i, ok := index[key]; ok {
			r.Items[i].Occurrences++
			continue
		}
		index[key] = len(r.Items)
		r.Items = append(r.Items, newItem(source, rec, 1))
	}
	return r
}

// FromEntries builds a report from archived entries.
func FromEntries(entries []store.Entry) *Report {
	r := &Report{GeneratedAt: time.Now(), Items: make([]Item, 0, len(entries))}
	for _, e := range entries {
		it := newItem(e.Source, e.Record, e.Occurrences)
		it.LastSeen = e.LastSeen
		r.Items = append(r.Items, it)
	}
	return r
}

func newItem(source string, rec *record.Mapping, occurrences int) Item {
	level, _ := record.LevelOf(rec)
	name := ""
	if v, ok := rec.Get(record.KeyName); ok {
		if t, ok := v.(record.Text); ok {
			name = string(t)
		}
	}
	return Item{
		Level:       level,
		LevelName:   record.LevelName(level),
		Name:        name,
		Message:     record.Message(rec),
		Source:      source,
		Occurrences: occurrences,
		Record:      rec,
	}
}

// Total returns the number of occurrences across all items.
func (r *Report) Total() int {
	n := 0
	for _, it := range r.Items {
		n += it.Occurrences
	}
	return n
}

// HasErrors reports whether the report has at least one item.
func (r *Report) HasErrors() bool {
	return len(r.Items) > 0
}

// CountByLevel returns occurrences per level, highest level first.
func (r *Report) CountByLevel() []LevelCount {
	counts := make(map[int64]int)
	for _, it := range r.Items {
		counts[it.Level] += it.Occurrences
	}
	out := make([]LevelCount, 0, len(counts))
	for level, n := range counts {
		out = append(out, LevelCount{Level: level, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level > out[j].Level })
	return out
}

// MaxLevel returns the highest level in the report, or zero.
func (r *Report) MaxLevel() int64 {
	var top int64
	for _, it := range r.Items {
		if it.Level > top {
			top = it.Level
		}
	}
	return top
}

// levelLabel returns a display label such as "Error".
func levelLabel(level int64) string {
	return cases.Title(language.English).String(record.LevelName(level))
}
