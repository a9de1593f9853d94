package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/tafa1618/Copilot-Process/pkg/contracts/domain"
)

//go:embed columns.yaml
var defaultCatalog []byte

// FieldKind tells the normalizer how to type a canonical field.
type FieldKind string

const (
	KindText     FieldKind = "text"
	KindKey      FieldKind = "key"
	KindDate     FieldKind = "date"
	KindHours    FieldKind = "hours"
	KindDuration FieldKind = "duration"
)

func (k FieldKind) valid() bool {
	switch k {
	case KindText, KindKey, KindDate, KindHours, KindDuration:
		return true
	}
	return false
}

// FieldSpec is one canonical field and its raw header candidates in priority order.
type FieldSpec struct {
	Name       string    `yaml:"name"`
	Kind       FieldKind `yaml:"kind"`
	Required   bool      `yaml:"required"`
	Identity   bool      `yaml:"identity"`
	Candidates []string  `yaml:"candidates"`
}

// SourceSpec describes one export kind.
type SourceSpec struct {
	Kind         domain.SourceKind `yaml:"kind"`
	FilePatterns []string          `yaml:"file_patterns"`
	Fields       []FieldSpec       `yaml:"fields"`
	// RequireAny lists groups where at least one field must resolve.
	RequireAny [][]string `yaml:"require_any"`
}

// Field returns the spec of the named field.
func (s SourceSpec) Field(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// IdentityFields returns the fields the record filter checks.
func (s SourceSpec) IdentityFields() []string {
	var out []string
	for _, f := range s.Fields {
		if f.Identity {
			out = append(out, f.Name)
		}
	}
	return out
}

// MatchesFile reports whether a file name matches one of the source patterns.
// Matching is case-insensitive on the base name.
func (s SourceSpec) MatchesFile(name string) bool {
	base := strings.ToLower(filepath.Base(name))
	for _, p := range s.FilePatterns {
		if ok, _ := filepath.Match(strings.ToLower(p), base); ok {
			return true
		}
	}
	return false
}

// Catalog is the column catalog for every supported export.
type Catalog struct {
	Sources []SourceSpec `yaml:"sources"`
}

// Source returns the spec for kind.
func (c *Catalog) Source(kind domain.SourceKind) (SourceSpec, bool) {
	for _, s := range c.Sources {
		if s.Kind == kind {
			return s, true
		}
	}
	return SourceSpec{}, false
}

// ClassifyFile returns the first source whose file patterns match name.
func (c *Catalog) ClassifyFile(name string) (domain.SourceKind, bool) {
	for _, s := range c.Sources {
		if s.MatchesFile(name) {
			return s.Kind, true
		}
	}
	return "", false
}

// DefaultCatalog parses the embedded column catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// LoadCatalog reads a catalog from path, or the embedded default when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read column catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse column catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid column catalog: %w", err)
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("no sources defined")
	}
	seen := make(map[domain.SourceKind]bool)
	for _, s := range c.Sources {
		if !s.Kind.Valid() {
			return fmt.Errorf("unknown source kind %q", s.Kind)
		}
		if seen[s.Kind] {
			return fmt.Errorf("source %s defined twice", s.Kind)
		}
		seen[s.Kind] = true

		names := make(map[string]bool)
		for _, f := range s.Fields {
			if f.Name == "" {
				return fmt.Errorf("source %s: field without name", s.Kind)
			}
			if names[f.Name] {
				return fmt.Errorf("source %s: field %s defined twice", s.Kind, f.Name)
			}
			names[f.Name] = true
			if !f.Kind.valid() {
				return fmt.Errorf("source %s: field %s has unknown kind %q", s.Kind, f.Name, f.Kind)
			}
			if len(f.Candidates) == 0 {
				return fmt.Errorf("source %s: field %s has no candidates", s.Kind, f.Name)
			}
			if f.Identity && !f.Required {
				return fmt.Errorf("source %s: identity field %s must be required", s.Kind, f.Name)
			}
		}
		for _, group := range s.RequireAny {
			for _, name := range group {
				if !names[name] {
					return fmt.Errorf("source %s: require_any references unknown field %s", s.Kind, name)
				}
			}
		}
	}
	return nil
}
