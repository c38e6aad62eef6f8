package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nao1215/logscrub/internal/policy"
	"github.com/nao1215/logscrub/internal/record"
	"github.com/nao1215/logscrub/internal/scrub"
	"github.com/nao1215/logscrub/internal/sink"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default Concurrency is 4", func(t *testing.T) {
		t.Parallel()
		if cfg.Concurrency != 4 {
			t.Errorf("expected Concurrency to be 4, got %d", cfg.Concurrency)
		}
	})

	t.Run("default DBDir is the XDG data dir", func(t *testing.T) {
		t.Parallel()
		if cfg.DBDir != XDGDataDir() {
			t.Errorf("expected DBDir to be %q, got %q", XDGDataDir(), cfg.DBDir)
		}
	})

	t.Run("default CaptureLevel is error", func(t *testing.T) {
		t.Parallel()
		if cfg.CaptureLevel != 50 {
			t.Errorf("expected CaptureLevel to be 50, got %d", cfg.CaptureLevel)
		}
	})

	t.Run("no report by default", func(t *testing.T) {
		t.Parallel()
		if cfg.WantsReport() {
			t.Error("expected no report")
		}
	})
}

// TestConfigValidate tests the Validate method with various configurations.
// Each test case is designed to test one specific validation rule.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	validConfig := func() *Config {
		return &Config{
			Inputs:       []string{"renovate.log"},
			Concurrency:  4,
			CaptureLevel: 50,
		}
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{
			name:   "valid config returns nil",
			modify: func(*Config) {},
		},
		{
			name:   "stdin input is valid",
			modify: func(c *Config) { c.Inputs = []string{StdinInput} },
		},
		{
			name:    "empty inputs returns ErrNoInput",
			modify:  func(c *Config) { c.Inputs = nil },
			wantErr: ErrNoInput,
		},
		{
			name:    "zero concurrency returns ErrInvalidConcurrency",
			modify:  func(c *Config) { c.Concurrency = 0 },
			wantErr: ErrInvalidConcurrency,
		},
		{
			name:    "unknown capture level returns ErrInvalidCaptureLevel",
			modify:  func(c *Config) { c.CaptureLevel = 70 },
			wantErr: ErrInvalidCaptureLevel,
		},
		{
			name: "output file and out dir conflict",
			modify: func(c *Config) {
				c.OutputFile = "out.log"
				c.OutDir = "out"
			},
			wantErr: ErrConflictingOutputs,
		},
		{
			name: "out dir with stdin",
			modify: func(c *Config) {
				c.Inputs = []string{"a.log", StdinInput}
				c.OutDir = "out"
			},
			wantErr: ErrOutDirWithStdin,
		},
		{
			name: "json and markdown reports conflict",
			modify: func(c *Config) {
				c.JSONReport = true
				c.MarkdownReport = true
			},
			wantErr: ErrConflictingReportFormats,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestLoadConfigFile tests the LoadConfigFile function.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.logscrub")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()
		configPath := filepath.Join(t.TempDir(), ".logscrub")

		content := `extraSecretFields:
  - webhookSecret
contentFields:
  - body
secrets:
  - hunter2
rules:
  - name: internal_ticket
    pattern: "TICKET-[0-9]+"
sink:
  path: /var/log/scrubbed.log
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(cfg.ExtraSecretFields) != 1 || cfg.ExtraSecretFields[0] != "webhookSecret" {
			t.Errorf("unexpected extra secret fields %v", cfg.ExtraSecretFields)
		}
		if len(cfg.Rules) != 1 || cfg.Rules[0].Pattern != "TICKET-[0-9]+" {
			t.Errorf("unexpected rules %v", cfg.Rules)
		}
		if cfg.Sink.Path != "/var/log/scrubbed.log" {
			t.Errorf("unexpected sink path %q", cfg.Sink.Path)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()
		configPath := filepath.Join(t.TempDir(), ".logscrub")

		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()
		configPath := filepath.Join(t.TempDir(), "custom.yaml")

		if err := os.WriteFile(configPath, []byte("secrets: []"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		if result := FindConfigFile(configPath); result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()
		if result := FindConfigFile("/nonexistent/path/config.yaml"); result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})
}

// TestFile_Policy tests how the policy file changes the field sets.
func TestFile_Policy(t *testing.T) {
	t.Parallel()

	t.Run("nil file is the default policy", func(t *testing.T) {
		t.Parallel()
		var f *File
		p, err := f.Policy()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p != policy.Default() {
			t.Error("expected the default policy")
		}
	})

	t.Run("extra fields extend defaults", func(t *testing.T) {
		t.Parallel()
		f := &File{ExtraSecretFields: []string{"webhookSecret"}}
		p, err := f.Policy()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Classify("webhookSecret") != policy.Mask {
			t.Error("expected webhookSecret to be masked")
		}
		if p.Classify("password") != policy.Mask {
			t.Error("expected defaults to be kept")
		}
	})

	t.Run("explicit fields replace defaults", func(t *testing.T) {
		t.Parallel()
		f := &File{ContentFields: []string{"body"}}
		p, err := f.Policy()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Classify("body") != policy.ElideContent {
			t.Error("expected body to be elided")
		}
		if p.Classify("content") != policy.Keep {
			t.Error("expected default content field to be replaced")
		}
	})

	t.Run("overlapping fields are rejected", func(t *testing.T) {
		t.Parallel()
		f := &File{ExtraContentFields: []string{"password"}}
		if _, err := f.Policy(); !errors.Is(err, policy.ErrOverlappingFields) {
			t.Errorf("expected ErrOverlappingFields, got %v", err)
		}
	})
}

// TestFile_Walker tests secrets and custom rules.
func TestFile_Walker(t *testing.T) {
	t.Parallel()

	t.Run("secrets and rules are applied", func(t *testing.T) {
		t.Parallel()
		f := &File{
			Secrets: []string{"hunter2"},
			Rules:   []RuleConfig{{Name: "ticket", Pattern: `TICKET-[0-9]+`}},
		}
		w, err := f.Walker("flag-secret")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		rec := record.NewMapping(1).Set("msg", record.Text("hunter2 flag-secret TICKET-42"))
		got := record.Message(w.SanitizeRecord(rec))
		want := scrub.Redacted + " " + scrub.Redacted + " " + scrub.Redacted
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("invalid rule", func(t *testing.T) {
		t.Parallel()
		f := &File{Rules: []RuleConfig{{Name: "bad", Pattern: `(`}}}
		if _, err := f.Walker(); !errors.Is(err, ErrInvalidRule) {
			t.Errorf("expected ErrInvalidRule, got %v", err)
		}
	})
}

// TestFile_SinkConfig tests the sink section.
func TestFile_SinkConfig(t *testing.T) {
	t.Parallel()

	if _, ok := (&File{}).SinkConfig(); ok {
		t.Error("expected no sink for an empty section")
	}
	cfg, ok := (&File{Sink: SinkConfig{Type: "rotating-file", Path: "a.log"}}).SinkConfig()
	if !ok {
		t.Fatal("expected a sink config")
	}
	if cfg.Type != sink.TypeRotatingFile || cfg.Path != "a.log" {
		t.Errorf("unexpected sink config %+v", cfg)
	}
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	if XDGDataDir() == "" {
		t.Error("expected non-empty XDG data dir")
	}
	if XDGConfigDir() == "" {
		t.Error("expected non-empty XDG config dir")
	}
}
