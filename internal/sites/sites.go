// Package sites holds the per-site capture configuration: which hosts
// are supported, how fields are located on a page, and how extracted
// values map onto the external record store.
package sites

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/antchfx/xpath"

	"github.com/IshaanNene/ScrapeBoard/internal/canonical"
)

// SelectorKind names a strategy for locating an element.
type SelectorKind string

const (
	KindID    SelectorKind = "id"
	KindClass SelectorKind = "class"
	KindCSS   SelectorKind = "css"
	KindXPath SelectorKind = "xpath"
)

// SelectorRule locates one field's value in a rendered page.
type SelectorRule struct {
	Kind  SelectorKind `yaml:"kind" json:"kind"`
	Value string       `yaml:"value" json:"value"`
}

// BindingSource says where an outgoing field value comes from.
type BindingSource string

const (
	// SourceCopy copies the extracted value of the same internal field.
	SourceCopy BindingSource = "copy"
	// SourceURL binds the canonical page URL.
	SourceURL BindingSource = "url"
	// SourceActor binds the resolved identity of the capturing actor.
	SourceActor BindingSource = "actor"
)

// ValueType declares how extracted text is normalized.
type ValueType string

const (
	TypeText     ValueType = "text"
	TypeNumber   ValueType = "number"
	TypeCurrency ValueType = "currency"
)

// Numeric reports whether values of this type parse as numbers.
func (t ValueType) Numeric() bool {
	return t == TypeNumber || t == TypeCurrency
}

// FieldBinding maps an internal field onto an external record field.
type FieldBinding struct {
	// Field is the external field identifier in the record store.
	Field string `yaml:"field" json:"field"`

	// Source defaults to copy.
	Source BindingSource `yaml:"source" json:"source"`

	// Type defaults to text.
	Type ValueType `yaml:"type" json:"type"`

	// DuplicateCheck flags this field for the pre-insert duplicate query.
	DuplicateCheck bool `yaml:"duplicate_check" json:"duplicate_check"`
}

// CleanRule is the configured form of a canonical URL rewrite. The
// extract pattern carries exactly one capturing group and is matched
// case-insensitively; the template references the group as {1}.
type CleanRule struct {
	ExtractPattern string `yaml:"extract_pattern" json:"extract_pattern"`
	CleanTemplate  string `yaml:"clean_template" json:"clean_template"`

	compiled *canonical.Rule
}

// SiteConfig describes how to capture records from one host. A config is
// immutable once published to a registry.
type SiteConfig struct {
	// Host is the exact lower-cased host this config serves, including
	// any www. prefix.
	Host string `yaml:"-" json:"-"`

	// Name is a human-readable site label.
	Name string `yaml:"name" json:"name"`

	// Selectors locate each internal field on the page.
	Selectors map[string]SelectorRule `yaml:"selectors" json:"selectors"`

	// Fields bind internal fields to external record fields.
	Fields map[string]FieldBinding `yaml:"fields" json:"fields"`

	// Clean is the optional canonical URL rewrite.
	Clean *CleanRule `yaml:"clean" json:"clean"`
}

// CleanRule returns the compiled URL rewrite, or nil when the site has
// none configured.
func (s *SiteConfig) CleanRule() *canonical.Rule {
	if s.Clean == nil {
		return nil
	}
	return s.Clean.compiled
}

// SelectorFields returns the internal field names with selectors, sorted
// so extraction order is deterministic.
func (s *SiteConfig) SelectorFields() []string {
	names := make([]string, 0, len(s.Selectors))
	for name := range s.Selectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BindingFields returns the internal field names with bindings, sorted.
func (s *SiteConfig) BindingFields() []string {
	names := make([]string, 0, len(s.Fields))
	for name := range s.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DuplicateCheckFields returns the external field identifiers to query
// before insert, sorted. Fields flagged duplicate_check win; with none
// flagged, the field bound from the canonical URL is checked. An empty
// result means the site has nothing to check against.
func (s *SiteConfig) DuplicateCheckFields() []string {
	var fields []string
	for _, b := range s.Fields {
		if b.DuplicateCheck {
			fields = append(fields, b.Field)
		}
	}
	if len(fields) == 0 {
		for _, b := range s.Fields {
			if b.Source == SourceURL {
				fields = append(fields, b.Field)
			}
		}
	}
	sort.Strings(fields)
	return fields
}

// BindsActor reports whether any binding draws on the actor identity.
func (s *SiteConfig) BindsActor() bool {
	for _, b := range s.Fields {
		if b.Source == SourceActor {
			return true
		}
	}
	return false
}

// compile validates the config and compiles its patterns. Bindings get
// their defaults filled in here.
func (s *SiteConfig) compile() error {
	if len(s.Selectors) == 0 {
		return fmt.Errorf("site %s: no selectors configured", s.Host)
	}

	for name, rule := range s.Selectors {
		if strings.TrimSpace(rule.Value) == "" {
			return fmt.Errorf("site %s: selector %q has an empty value", s.Host, name)
		}
		switch rule.Kind {
		case KindID, KindClass, KindCSS:
		case KindXPath:
			if _, err := xpath.Compile(rule.Value); err != nil {
				return fmt.Errorf("site %s: selector %q has invalid xpath: %w", s.Host, name, err)
			}
		default:
			return fmt.Errorf("site %s: selector %q has unknown kind %q (valid: id, class, css, xpath)", s.Host, name, rule.Kind)
		}
	}

	for name, b := range s.Fields {
		if strings.TrimSpace(b.Field) == "" {
			return fmt.Errorf("site %s: binding %q has no external field", s.Host, name)
		}
		if b.Source == "" {
			b.Source = SourceCopy
		}
		if b.Type == "" {
			b.Type = TypeText
		}
		switch b.Source {
		case SourceCopy, SourceURL, SourceActor:
		default:
			return fmt.Errorf("site %s: binding %q has unknown source %q (valid: copy, url, actor)", s.Host, name, b.Source)
		}
		switch b.Type {
		case TypeText, TypeNumber, TypeCurrency:
		default:
			return fmt.Errorf("site %s: binding %q has unknown type %q (valid: text, number, currency)", s.Host, name, b.Type)
		}
		if b.Source == SourceCopy {
			if _, ok := s.Selectors[name]; !ok {
				return fmt.Errorf("site %s: binding %q copies a field with no selector", s.Host, name)
			}
		}
		s.Fields[name] = b
	}

	if s.Clean != nil {
		if err := s.Clean.compile(s.Host); err != nil {
			return err
		}
	}

	return nil
}

func (c *CleanRule) compile(host string) error {
	if c.ExtractPattern == "" || c.CleanTemplate == "" {
		return fmt.Errorf("site %s: clean rule needs both extract_pattern and clean_template", host)
	}
	// Hosts compare case-insensitively, so the pattern does too.
	re, err := regexp.Compile("(?i)" + c.ExtractPattern)
	if err != nil {
		return fmt.Errorf("site %s: invalid extract_pattern: %w", host, err)
	}
	if re.NumSubexp() != 1 {
		return fmt.Errorf("site %s: extract_pattern must have exactly one capture group, got %d", host, re.NumSubexp())
	}
	if !strings.Contains(c.CleanTemplate, "{1}") {
		return fmt.Errorf("site %s: clean_template does not reference {1}", host)
	}
	c.compiled = &canonical.Rule{Extract: re, Template: c.CleanTemplate}
	return nil
}
