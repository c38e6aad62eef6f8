package log

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/nao1215/logscrub/internal/policy"
	"github.com/nao1215/logscrub/internal/record"
	"github.com/nao1215/logscrub/internal/sanitize"
	"github.com/nao1215/logscrub/internal/scrub"
	"github.com/nao1215/logscrub/internal/sink"
)

func testWalker() *sanitize.Walker {
	return sanitize.New(policy.Default(), scrub.New(scrub.DefaultRules()...))
}

// TestNewLogger tests console output and error capture.
func TestNewLogger(t *testing.T) {
	t.Parallel()

	t.Run("console output is sanitized", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger, err := NewLogger(&buf, false, WithWalker(testWalker()), WithHostname("box"), WithPID(1))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer logger.Close()

		logger.Warn("upload failed", "password", "abc123", "content", "large")
		out := buf.String()
		if strings.Contains(out, "abc123") || strings.Contains(out, "large") {
			t.Errorf("expected secrets to be removed, got %s", out)
		}
		if !strings.Contains(out, `"password":"***********"`) {
			t.Errorf("expected masked password, got %s", out)
		}
		if !strings.HasPrefix(out, `{"name":"logscrub","hostname":"box","pid":1,"level":40,`) {
			t.Errorf("unexpected record prefix: %s", out)
		}
		if strings.Count(out, "\n") != 1 {
			t.Errorf("expected exactly one line, got %q", out)
		}
	})

	t.Run("verbose enables debug", func(t *testing.T) {
		t.Parallel()
		var quiet, loud bytes.Buffer
		q, err := NewLogger(&quiet, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		l, err := NewLogger(&loud, true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		q.Debug("hidden")
		l.Debug("shown")
		if quiet.Len() != 0 {
			t.Errorf("expected no debug output, got %s", quiet.String())
		}
		if !strings.Contains(loud.String(), `"level":20`) {
			t.Errorf("expected debug record, got %s", loud.String())
		}
	})

	t.Run("errors are captured without transport fields", func(t *testing.T) {
		t.Parallel()
		logger, err := NewLogger(&bytes.Buffer{}, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		logger.Warn("just a warning")
		logger.Error("lookup failed", "dep", "lodash")

		errs := logger.Errors()
		if len(errs) != 1 {
			t.Fatalf("expected 1 captured error, got %d", len(errs))
		}
		for _, key := range []string{record.KeyPID, record.KeyTime, record.KeyVersion, record.KeyHostname} {
			if _, ok := errs[0].Get(key); ok {
				t.Errorf("expected %s to be stripped", key)
			}
		}
		if record.Message(errs[0]) != "lookup failed" {
			t.Errorf("unexpected message %q", record.Message(errs[0]))
		}
		if logger.ErrorCapture().Len() != 1 {
			t.Error("expected the capture to hold the error")
		}
	})
}

// TestNewLogger_File tests the log file destination.
func TestNewLogger_File(t *testing.T) {
	t.Parallel()

	t.Run("file receives sanitized records", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "logscrub.log")
		var console bytes.Buffer
		logger, err := NewLogger(&console, false, WithFile(path), WithWalker(testWalker()))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		logger.Error("failed", "token", "t0ken")
		if err := logger.Close(); err != nil {
			t.Fatalf("failed to close: %v", err)
		}

		data, err := os.ReadFile(path) //nolint:gosec // test file
		if err != nil {
			t.Fatalf("failed to read log file: %v", err)
		}
		if strings.Contains(string(data), "t0ken") {
			t.Errorf("expected token to be masked, got %s", data)
		}
		if string(data) == "" || console.Len() == 0 {
			t.Error("expected both destinations to receive the record")
		}
	})

	t.Run("unopenable file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "missing", "logscrub.log")
		if _, err := NewLogger(&bytes.Buffer{}, false, WithFile(path)); err == nil {
			t.Error("expected an error")
		}
	})
}

// TestNewZapLogger tests the zap front-end.
func TestNewZapLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s, err := sink.Wrap(sink.Config{Stream: &buf}, testWalker())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger := NewZapLogger(s, false, WithName("worker"), WithHostname("box"), WithPID(7))

	logger.Info("dropped")
	logger.Warn("retrying", zap.String("token", "t0ken"), zap.Int("attempt", 2))
	if err := logger.Sync(); err != nil {
		t.Fatalf("failed to sync: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}
	rec, err := record.DecodeRecord([]byte(lines[0]))
	if err != nil {
		t.Fatalf("failed to decode %s: %v", lines[0], err)
	}

	checks := map[string]record.Value{
		record.KeyName:     record.Text("worker"),
		record.KeyHostname: record.Text("box"),
		record.KeyPID:      record.Int(7),
		record.KeyLevel:    record.Int(record.LevelWarn),
		record.KeyMsg:      record.Text("retrying"),
		record.KeyVersion:  record.Int(0),
		"token":            record.Text(policy.MaskedToken),
		"attempt":          record.Int(2),
	}
	for key, want := range checks {
		if got, _ := rec.Get(key); got != want {
			t.Errorf("%s: expected %v, got %v", key, want, got)
		}
	}
	if _, ok := rec.Get(record.KeyTime); !ok {
		t.Error("expected a time field")
	}
}
