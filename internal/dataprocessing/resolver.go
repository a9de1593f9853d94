package dataprocessing

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/tafa1618/Copilot-Process/internal/config"
	apperrors "github.com/tafa1618/Copilot-Process/internal/errors"
	"github.com/tafa1618/Copilot-Process/pkg/contracts/domain"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// ResolvedField is a canonical field bound to a raw column.
type ResolvedField struct {
	Spec   config.FieldSpec
	Column int
	Header string
}

// Resolution maps the raw headers of one table to canonical fields.
type Resolution struct {
	Source domain.SourceKind
	Fields []ResolvedField
}

// Renames returns the raw header to canonical field map.
func (r *Resolution) Renames() map[string]string {
	out := make(map[string]string, len(r.Fields))
	for _, f := range r.Fields {
		out[f.Header] = f.Spec.Name
	}
	return out
}

// FieldNames lists the canonical fields that resolved.
func (r *Resolution) FieldNames() []string {
	out := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		out[i] = f.Spec.Name
	}
	return out
}

// Resolver binds export headers to canonical fields using the column catalog.
type Resolver struct {
	catalog *config.Catalog
	logger  *slog.Logger
}

// NewResolver creates a column resolver over catalog.
func NewResolver(catalog *config.Catalog, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		catalog: catalog,
		logger:  logger.With(slog.String("component", "resolver")),
	}
}

// Resolve walks each field's candidates in priority order. For every
// candidate an exact header match is tried before a folded one; the first
// candidate that hits wins. A column is bound to at most one field.
// Unresolved required fields and unsatisfied require_any groups reject the
// table with a SchemaError.
func (r *Resolver) Resolve(table *domain.RawTable) (*Resolution, error) {
	spec, ok := r.catalog.Source(table.Source)
	if !ok {
		return nil, apperrors.NewConfigError("no column catalog entry for source "+string(table.Source), nil)
	}

	folded := make([]string, len(table.Headers))
	for i, h := range table.Headers {
		folded[i] = FoldHeader(h)
	}

	claimed := make(map[int]bool)
	res := &Resolution{Source: table.Source}
	resolved := make(map[string]bool)
	var missing []string

	for _, field := range spec.Fields {
		col := matchColumn(field.Candidates, table.Headers, folded, claimed)
		if col < 0 {
			if field.Required {
				missing = append(missing, field.Name)
			}
			continue
		}
		claimed[col] = true
		resolved[field.Name] = true
		res.Fields = append(res.Fields, ResolvedField{Spec: field, Column: col, Header: table.Headers[col]})
	}

	for _, group := range spec.RequireAny {
		satisfied := false
		for _, name := range group {
			if resolved[name] {
				satisfied = true
				break
			}
		}
		if !satisfied {
			missing = append(missing, strings.Join(group, "|"))
		}
	}

	if len(missing) > 0 {
		err := apperrors.NewSchemaError(string(table.Source), missing, presentHeaders(table.Headers))
		r.logger.Warn("dataset rejected",
			slog.String("source", string(table.Source)),
			slog.String("file", table.FileName),
			slog.Any("missing", err.Missing),
			slog.Any("seen", err.Seen))
		return nil, err
	}

	r.logger.Debug("columns resolved",
		slog.String("source", string(table.Source)),
		slog.Any("renames", res.Renames()))

	return res, nil
}

func matchColumn(candidates, headers, folded []string, claimed map[int]bool) int {
	for _, cand := range candidates {
		for i, h := range headers {
			if !claimed[i] && h == cand {
				return i
			}
		}
		fc := FoldHeader(cand)
		if fc == "" {
			continue
		}
		for i, fh := range folded {
			if !claimed[i] && fh == fc {
				return i
			}
		}
	}
	return -1
}

func presentHeaders(headers []string) []string {
	out := make([]string, 0, len(headers))
	for _, h := range headers {
		if h != "" {
			out = append(out, h)
		}
	}
	return out
}

// FoldHeader lower-cases a header, strips diacritics, unifies apostrophes and
// collapses whitespace so export naming drift still matches.
func FoldHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return s
	}
	s = strings.NewReplacer("\u2019", "'", "`", "'", "\u00a0", " ").Replace(s)
	s = stripDiacritics(s)
	s = whitespaceRe.ReplaceAllString(s, " ")
	return s
}

// stripDiacritics decomposes to NFD and drops combining marks.
func stripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
