package dataprocessing

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tafa1618/Copilot-Process/internal/config"
	"github.com/tafa1618/Copilot-Process/pkg/contracts/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

type recOpt func(*domain.CanonicalRecord)

func txt(field, v string) recOpt {
	return func(r *domain.CanonicalRecord) { r.Text[field] = v }
}

func num(field string, v float64) recOpt {
	return func(r *domain.CanonicalRecord) { r.Numbers[field] = v }
}

func date(field, v string) recOpt {
	return func(r *domain.CanonicalRecord) { r.Dates[field] = day(v) }
}

func rec(line int, opts ...recOpt) domain.CanonicalRecord {
	r := domain.CanonicalRecord{
		Line:    line,
		Text:    map[string]string{},
		Numbers: map[string]float64{},
		Dates:   map[string]time.Time{},
	}
	for _, o := range opts {
		o(&r)
	}
	return r
}

func defaultCatalog(t *testing.T) *config.Catalog {
	t.Helper()
	cat, err := config.DefaultCatalog()
	require.NoError(t, err)
	return cat
}

// rawTable builds a raw table from a header row and string rows.
func rawTable(source domain.SourceKind, headers []string, rows ...[]string) *domain.RawTable {
	t := &domain.RawTable{Source: source, Headers: headers}
	for i, r := range rows {
		t.Records = append(t.Records, domain.RawRecord{Line: i + 2, Cells: r})
	}
	return t
}

// pipe runs resolve, normalize and filter over a raw table.
func pipe(t *testing.T, table *domain.RawTable) domain.CanonicalTable {
	t.Helper()
	cat := defaultCatalog(t)
	res, err := NewResolver(cat, testLogger()).Resolve(table)
	require.NoError(t, err)
	canon, _ := NewNormalizer(testLogger()).Normalize(table, res)
	spec, _ := cat.Source(table.Source)
	filtered, _ := FilterRequired(canon, spec.IdentityFields())
	return filtered
}
