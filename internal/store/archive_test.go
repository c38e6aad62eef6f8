package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/logscrub/internal/record"
)

// setupTestArchive creates a temporary archive for testing.
func setupTestArchive(t *testing.T) (*Archive, func()) {
	t.Helper()

	a, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	cleanup := func() {
		_ = a.Close()
	}
	return a, cleanup
}

func errorRecord(msg string, level int64) *record.Mapping {
	return record.NewMapping(4).
		Set(record.KeyName, record.Text("renovate")).
		Set(record.KeyLevel, record.Int(level)).
		Set(record.KeyMsg, record.Text(msg)).
		Set("repository", record.Text("org/repo"))
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		a, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer a.Close()

		if _, err := os.Stat(filepath.Join(dbDir, DBFileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if a.Path() != filepath.Join(dbDir, DBFileName) {
			t.Errorf("unexpected path %q", a.Path())
		}
	})

	t.Run("CreateIfNotExists=false fails for missing database", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "missing")
		if _, err := Open(dbDir, Options{CreateIfNotExists: false}); err == nil {
			t.Error("expected error for missing database")
		}
	})

	t.Run("reopens existing database", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		a, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		if _, err := a.Save(context.Background(), "a.log", errorRecord("boom", record.LevelError)); err != nil {
			t.Fatalf("failed to save: %v", err)
		}
		_ = a.Close()

		b, err := Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer b.Close()
		n, err := b.Count(context.Background())
		if err != nil {
			t.Fatalf("failed to count: %v", err)
		}
		if n != 1 {
			t.Errorf("expected 1 entry, got %d", n)
		}
	})
}

// TestFingerprint tests that fingerprints follow the record content.
func TestFingerprint(t *testing.T) {
	t.Parallel()

	a := Fingerprint(errorRecord("boom", record.LevelError))
	b := Fingerprint(errorRecord("boom", record.LevelError))
	c := Fingerprint(errorRecord("bang", record.LevelError))

	if a != b {
		t.Error("expected identical records to share a fingerprint")
	}
	if a == c {
		t.Error("expected different records to differ")
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex characters, got %d", len(a))
	}
}

// TestArchive_Save tests storing and deduplication.
func TestArchive_Save(t *testing.T) {
	t.Parallel()

	a, cleanup := setupTestArchive(t)
	defer cleanup()
	ctx := context.Background()

	rec := errorRecord("lookup failed", record.LevelError)
	fp, err := a.Save(ctx, "first.log", rec)
	if err != nil {
		t.Fatalf("failed to save: %v", err)
	}
	if _, err := a.Save(ctx, "second.log", errorRecord("lookup failed", record.LevelError)); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	e, err := a.Get(ctx, fp)
	if err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	if e == nil {
		t.Fatal("expected an entry")
	}
	if e.Occurrences != 2 {
		t.Errorf("expected 2 occurrences, got %d", e.Occurrences)
	}
	if e.Source != "second.log" {
		t.Errorf("expected latest source, got %q", e.Source)
	}
	if e.Name != "renovate" || e.Level != record.LevelError || e.Message != "lookup failed" {
		t.Errorf("unexpected entry %+v", e)
	}
	if e.Record.String() != rec.String() {
		t.Errorf("expected stored record %s, got %s", rec, e.Record)
	}
	if e.FirstSeen.IsZero() || e.LastSeen.IsZero() {
		t.Error("expected timestamps to be parsed")
	}

	t.Run("unknown fingerprint", func(t *testing.T) {
		e, err := a.Get(ctx, "nope")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if e != nil {
			t.Error("expected nil entry")
		}
	})

	t.Run("nil record", func(t *testing.T) {
		if _, err := a.Save(ctx, "x", nil); err == nil {
			t.Error("expected an error")
		}
	})
}

// TestArchive_List tests filtering and ordering.
func TestArchive_List(t *testing.T) {
	t.Parallel()

	a, cleanup := setupTestArchive(t)
	defer cleanup()
	ctx := context.Background()

	recs := []*record.Mapping{
		errorRecord("warned", record.LevelWarn),
		errorRecord("failed", record.LevelError),
		errorRecord("crashed", record.LevelFatal),
	}
	n, err := a.SaveAll(ctx, "run.log", recs)
	if err != nil {
		t.Fatalf("failed to save: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 saved, got %d", n)
	}
	if _, err := a.Save(ctx, "other.log", errorRecord("elsewhere", record.LevelError)); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	tests := []struct {
		name string
		opts ListOptions
		want int
	}{
		{name: "all", opts: ListOptions{}, want: 4},
		{name: "error and above", opts: ListOptions{MinLevel: record.LevelError}, want: 3},
		{name: "by source", opts: ListOptions{Source: "run.log"}, want: 3},
		{name: "limit", opts: ListOptions{Limit: 2}, want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := a.List(ctx, tt.opts)
			if err != nil {
				t.Fatalf("failed to list: %v", err)
			}
			if len(entries) != tt.want {
				t.Errorf("expected %d entries, got %d", tt.want, len(entries))
			}
		})
	}

	t.Run("most recent first", func(t *testing.T) {
		entries, err := a.List(ctx, ListOptions{})
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if entries[0].Message != "elsewhere" {
			t.Errorf("expected the last saved entry first, got %q", entries[0].Message)
		}
	})
}

// TestArchive_Purge tests removal of old entries.
func TestArchive_Purge(t *testing.T) {
	t.Parallel()

	a, cleanup := setupTestArchive(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := a.Save(ctx, "a.log", errorRecord("old", record.LevelError)); err != nil {
		t.Fatalf("failed to save: %v", err)
	}
	if _, err := a.db.ExecContext(ctx, "UPDATE errors SET last_seen = datetime('now', '-48 hours')"); err != nil {
		t.Fatalf("failed to age entry: %v", err)
	}
	if _, err := a.Save(ctx, "a.log", errorRecord("new", record.LevelError)); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	removed, err := a.Purge(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("failed to purge: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 removed, got %d", removed)
	}
	if n, _ := a.Count(ctx); n != 1 {
		t.Errorf("expected 1 remaining, got %d", n)
	}
}
