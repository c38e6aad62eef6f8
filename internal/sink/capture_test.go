package sink

import (
	"errors"
	"sync"
	"testing"

	"github.com/nao1215/logscrub/internal/record"
)

func errorRecord(msg string) *record.Mapping {
	return record.NewMapping(7).
		Set(record.KeyName, record.Text("app")).
		Set(record.KeyHostname, record.Text("host")).
		Set(record.KeyPID, record.Int(42)).
		Set(record.KeyLevel, record.Int(record.LevelError)).
		Set(record.KeyMsg, record.Text(msg)).
		Set(record.KeyTime, record.Text("2024-01-02T03:04:05.000Z")).
		Set(record.KeyVersion, record.Int(0))
}

// TestErrorCapture tests storage of captured records.
func TestErrorCapture(t *testing.T) {
	t.Parallel()

	t.Run("transport fields are removed", func(t *testing.T) {
		t.Parallel()
		c := NewErrorCapture()
		in := errorRecord("lookup failed")

		if !c.Write(in) {
			t.Error("expected Write to report true")
		}
		errs := c.Errors()
		if len(errs) != 1 {
			t.Fatalf("expected 1 error, got %d", len(errs))
		}
		want := `{"name":"app","level":50,"msg":"lookup failed"}`
		if got := errs[0].String(); got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
		if in.Len() != 7 {
			t.Error("expected the input record to be left unchanged")
		}
	})

	t.Run("errors returns a snapshot", func(t *testing.T) {
		t.Parallel()
		c := NewErrorCapture()
		c.Write(errorRecord("first"))
		snap := c.Errors()
		c.Write(errorRecord("second"))

		if len(snap) != 1 {
			t.Errorf("expected snapshot to keep 1 error, got %d", len(snap))
		}
		if c.Len() != 2 {
			t.Errorf("expected 2 errors, got %d", c.Len())
		}
		c.Reset()
		if c.Len() != 0 {
			t.Errorf("expected empty capture after reset, got %d", c.Len())
		}
	})

	t.Run("nil record", func(t *testing.T) {
		t.Parallel()
		c := NewErrorCapture()
		if err := c.WriteRecord(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := c.Errors()[0].Len(); got != 0 {
			t.Errorf("expected an empty record, got %d fields", got)
		}
	})

	t.Run("concurrent writes", func(t *testing.T) {
		t.Parallel()
		c := NewErrorCapture()
		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				c.Write(errorRecord("x"))
			}()
		}
		wg.Wait()
		if c.Len() != 50 {
			t.Errorf("expected 50 errors, got %d", c.Len())
		}
	})
}

// TestAtLevel tests level gating.
func TestAtLevel(t *testing.T) {
	t.Parallel()

	c := NewErrorCapture()
	w := AtLevel(record.LevelError, c)

	records := []*record.Mapping{
		record.NewMapping(1).Set(record.KeyLevel, record.Int(record.LevelInfo)),
		record.NewMapping(1).Set(record.KeyLevel, record.Int(record.LevelWarn)),
		record.NewMapping(1).Set(record.KeyLevel, record.Int(record.LevelError)),
		record.NewMapping(1).Set(record.KeyLevel, record.Text("fatal")),
		record.NewMapping(1).Set(record.KeyMsg, record.Text("no level")),
	}
	for _, rec := range records {
		if err := w.WriteRecord(rec); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if c.Len() != 2 {
		t.Errorf("expected 2 records at error or above, got %d", c.Len())
	}
}

// TestMulti tests fan-out.
func TestMulti(t *testing.T) {
	t.Parallel()

	errBroken := errors.New("broken")
	a := NewErrorCapture()
	b := NewErrorCapture()
	broken := RecordWriterFunc(func(*record.Mapping) error { return errBroken })

	w := Multi(a, broken, b)
	err := w.WriteRecord(errorRecord("x"))
	if !errors.Is(err, errBroken) {
		t.Errorf("expected %v, got %v", errBroken, err)
	}
	if a.Len() != 1 || b.Len() != 1 {
		t.Errorf("expected every healthy writer to receive the record, got %d and %d", a.Len(), b.Len())
	}
}
