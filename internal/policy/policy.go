package policy

import (
	"errors"
	"fmt"
	"sort"
)

// Replacement tokens written in place of redacted fields.
const (
	// MaskedToken replaces the value of a secret field.
	MaskedToken = "***********"

	// ContentToken replaces the value of a content field and any binary payload.
	ContentToken = "[content]"

	// TemplateToken replaces the value of a template field.
	TemplateToken = "[Template]"
)

// ErrOverlappingFields is returned when a field name appears in more than one set.
var ErrOverlappingFields = errors.New("field name appears in more than one redaction set")

// Treatment is what happens to the value of a field.
type Treatment int

const (
	// Keep walks the value normally.
	Keep Treatment = iota
	// Mask replaces the value with MaskedToken.
	Mask
	// ElideContent replaces the value with ContentToken.
	ElideContent
	// ElideTemplate replaces the value with TemplateToken.
	ElideTemplate
)

// Token returns the replacement for t. Keep has none.
func (t Treatment) Token() (string, bool) {
	switch t {
	case Mask:
		return MaskedToken, true
	case ElideContent:
		return ContentToken, true
	case ElideTemplate:
		return TemplateToken, true
	default:
		return "", false
	}
}

// String returns the name of the treatment.
func (t Treatment) String() string {
	switch t {
	case Keep:
		return "keep"
	case Mask:
		return "mask"
	case ElideContent:
		return "content"
	case ElideTemplate:
		return "template"
	default:
		return fmt.Sprintf("Treatment(%d)", int(t))
	}
}

// DefaultSecretFields are masked by the default policy.
var DefaultSecretFields = []string{
	"authorization",
	"token",
	"githubAppKey",
	"npmToken",
	"npmrc",
	"privateKey",
	"privateKeyOld",
	"gitPrivateKey",
	"forkToken",
	"password",
	"httpsCertificate",
	"httpsPrivateKey",
	"httpsCertificateAuthority",
}

// DefaultContentFields hold large payloads such as file contents or parsed lockfiles.
var DefaultContentFields = []string{
	"content",
	"contents",
	"packageLockParsed",
	"yarnLockParsed",
}

// DefaultTemplateFields hold rendered templates.
var DefaultTemplateFields = []string{
	"prBody",
}

// Policy is an immutable set of field-name rules.
// A nil *Policy keeps every field.
type Policy struct {
	secret   map[string]struct{}
	content  map[string]struct{}
	template map[string]struct{}
}

// New builds a policy from the three field lists. Duplicates inside one
// list are ignored; a name listed in two sets is an error.
func New(secret, content, template []string) (*Policy, error) {
	p := &Policy{
		secret:   toSet(secret),
		content:  toSet(content),
		template: toSet(template),
	}
	for name := range p.secret {
		if _, ok := p.content[name]; ok {
			return nil, fmt.Errorf("%w: %q is both secret and content", ErrOverlappingFields, name)
		}
		if _, ok := p.template[name]; ok {
			return nil, fmt.Errorf("%w: %q is both secret and template", ErrOverlappingFields, name)
		}
	}
	for name := range p.content {
		if _, ok := p.template[name]; ok {
			return nil, fmt.Errorf("%w: %q is both content and template", ErrOverlappingFields, name)
		}
	}
	return p, nil
}

// defaultPolicy is built once; the default lists are disjoint.
var defaultPolicy = func() *Policy {
	p, err := New(DefaultSecretFields, DefaultContentFields, DefaultTemplateFields)
	if err != nil {
		panic(err)
	}
	return p
}()

// Default returns the built-in policy.
func Default() *Policy {
	return defaultPolicy
}

// Classify returns the treatment for a field named key.
// Secret wins over content, content over template.
func (p *Policy) Classify(key string) Treatment {
	if p == nil {
		return Keep
	}
	if _, ok := p.secret[key]; ok {
		return Mask
	}
	if _, ok := p.content[key]; ok {
		return ElideContent
	}
	if _, ok := p.template[key]; ok {
		return ElideTemplate
	}
	return Keep
}

// SecretFields returns the secret field names, sorted.
func (p *Policy) SecretFields() []string {
	if p == nil {
		return nil
	}
	return sortedKeys(p.secret)
}

// ContentFields returns the content field names, sorted.
func (p *Policy) ContentFields() []string {
	if p == nil {
		return nil
	}
	return sortedKeys(p.content)
}

// TemplateFields returns the template field names, sorted.
func (p *Policy) TemplateFields() []string {
	if p == nil {
		return nil
	}
	return sortedKeys(p.template)
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
