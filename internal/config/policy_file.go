package config

import (
	"fmt"
	"regexp"

	"github.com/nao1215/logscrub/internal/policy"
	"github.com/nao1215/logscrub/internal/sanitize"
	"github.com/nao1215/logscrub/internal/scrub"
	"github.com/nao1215/logscrub/internal/sink"
)

// RuleConfig is a custom scrub rule.
type RuleConfig struct {
	// Name identifies the rule in diagnostics.
	Name string `yaml:"name"`

	// Pattern is a Go regular expression.
	Pattern string `yaml:"pattern"`

	// Replacement defaults to the scrubber's redaction marker.
	Replacement string `yaml:"replacement,omitempty"`
}

// SinkConfig selects where the scrub command writes when no flag says otherwise.
type SinkConfig struct {
	// Type is "json" (default) or "rotating-file", which is rejected.
	Type string `yaml:"type,omitempty"`

	// Path is a file that records are appended to.
	Path string `yaml:"path,omitempty"`
}

// File represents the structure of the .logscrub policy file.
type File struct {
	// SecretFields replace the default secret field names when set.
	SecretFields []string `yaml:"secretFields,omitempty"`

	// ContentFields replace the default content field names when set.
	ContentFields []string `yaml:"contentFields,omitempty"`

	// TemplateFields replace the default template field names when set.
	TemplateFields []string `yaml:"templateFields,omitempty"`

	// ExtraSecretFields are added to the secret field names.
	ExtraSecretFields []string `yaml:"extraSecretFields,omitempty"`

	// ExtraContentFields are added to the content field names.
	ExtraContentFields []string `yaml:"extraContentFields,omitempty"`

	// ExtraTemplateFields are added to the template field names.
	ExtraTemplateFields []string `yaml:"extraTemplateFields,omitempty"`

	// Secrets are literal values redacted wherever they appear in text.
	Secrets []string `yaml:"secrets,omitempty"`

	// Rules are regular expression rules applied after the built-in ones.
	Rules []RuleConfig `yaml:"rules,omitempty"`

	// Sink is the default output.
	Sink SinkConfig `yaml:"sink,omitempty"`
}

// fieldSet returns base, or def when base is empty, followed by extra.
func fieldSet(base, def, extra []string) []string {
	if len(base) == 0 {
		base = def
	}
	out := make([]string, 0, len(base)+len(extra))
	out = append(out, base...)
	return append(out, extra...)
}

// Policy builds the redaction policy described by the file.
// A nil File yields the default policy.
func (f *File) Policy() (*policy.Policy, error) {
	if f == nil {
		return policy.Default(), nil
	}
	return policy.New(
		fieldSet(f.SecretFields, policy.DefaultSecretFields, f.ExtraSecretFields),
		fieldSet(f.ContentFields, policy.DefaultContentFields, f.ExtraContentFields),
		fieldSet(f.TemplateFields, policy.DefaultTemplateFields, f.ExtraTemplateFields),
	)
}

// ScrubRules compiles the built-in rules followed by the file's rules.
func (f *File) ScrubRules() ([]scrub.Rule, error) {
	rules := scrub.DefaultRules()
	if f == nil {
		return rules, nil
	}
	for i, rc := range f.Rules {
		re, err := regexp.Compile(rc.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: rule %d (%s): %v", ErrInvalidRule, i+1, rc.Name, err)
		}
		repl := rc.Replacement
		if repl == "" {
			repl = scrub.Redacted
		}
		rules = append(rules, scrub.Rule{Name: rc.Name, Pattern: re, Replacement: repl})
	}
	return rules, nil
}

// Walker builds a walker for the file's policy and rules. The literal
// secrets of the file and extraSecrets are registered in global scope.
func (f *File) Walker(extraSecrets ...string) (*sanitize.Walker, error) {
	p, err := f.Policy()
	if err != nil {
		return nil, err
	}
	rules, err := f.ScrubRules()
	if err != nil {
		return nil, err
	}
	s := scrub.New(rules...)
	if f != nil {
		for _, secret := range f.Secrets {
			s.AddSecret(secret, scrub.Global)
		}
	}
	for _, secret := range extraSecrets {
		s.AddSecret(secret, scrub.Global)
	}
	return sanitize.New(p, s), nil
}

// SinkConfig converts the sink section into a sink configuration.
// It reports false when the section does not name a destination.
func (f *File) SinkConfig() (sink.Config, bool) {
	if f == nil || (f.Sink.Type == "" && f.Sink.Path == "") {
		return sink.Config{}, false
	}
	return sink.Config{Type: sink.Type(f.Sink.Type), Path: f.Sink.Path}, true
}
