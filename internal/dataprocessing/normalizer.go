package dataprocessing

import (
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tafa1618/Copilot-Process/internal/config"
	"github.com/tafa1618/Copilot-Process/pkg/contracts/domain"
)

// Excel serial bounds: 1900-01-01 up to 9999-12-31.
const (
	minExcelSerial = 1
	maxExcelSerial = 2958465
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"02/01/2006",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2/1/2006",
	"02-01-2006",
	"02.01.2006",
	"2006/01/02",
}

// NormalizeStats counts soft coercion failures of one table.
type NormalizeStats struct {
	InvalidNumbers int
	InvalidDates   int
}

// Normalizer types resolved raw cells.
type Normalizer struct {
	logger *slog.Logger
}

// NewNormalizer creates a type normalizer.
func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{logger: logger.With(slog.String("component", "normalizer"))}
}

// Normalize produces a new canonical table. Hours default to 0 when blank or
// unparseable; durations and dates become null. Non-blank cells that fail to
// parse are counted.
func (n *Normalizer) Normalize(table *domain.RawTable, res *Resolution) (domain.CanonicalTable, NormalizeStats) {
	var stats NormalizeStats
	out := domain.CanonicalTable{
		Source:  table.Source,
		Fields:  res.FieldNames(),
		Records: make([]domain.CanonicalRecord, 0, len(table.Records)),
	}

	for _, raw := range table.Records {
		rec := domain.CanonicalRecord{
			Line:    raw.Line,
			Text:    make(map[string]string),
			Numbers: make(map[string]float64),
			Dates:   make(map[string]time.Time),
		}

		for _, f := range res.Fields {
			cell := strings.TrimSpace(raw.Cell(f.Column))

			switch f.Spec.Kind {
			case config.KindText:
				if cell != "" {
					rec.Text[f.Spec.Name] = cell
				}
			case config.KindKey:
				if key := NormalizeKey(cell); key != "" {
					rec.Text[f.Spec.Name] = key
				}
			case config.KindHours:
				v, ok := ParseNumber(cell)
				if !ok && cell != "" {
					stats.InvalidNumbers++
				}
				rec.Numbers[f.Spec.Name] = v
			case config.KindDuration:
				if cell == "" {
					continue
				}
				if v, ok := ParseNumber(cell); ok {
					rec.Numbers[f.Spec.Name] = v
				} else {
					stats.InvalidNumbers++
				}
			case config.KindDate:
				if cell == "" {
					continue
				}
				if d, ok := ParseDate(cell); ok {
					rec.Dates[f.Spec.Name] = d
				} else {
					stats.InvalidDates++
				}
			}
		}

		out.Records = append(out.Records, rec)
	}

	n.logger.Debug("table normalized",
		slog.String("source", string(table.Source)),
		slog.Int("records", len(out.Records)),
		slog.Int("invalid_numbers", stats.InvalidNumbers),
		slog.Int("invalid_dates", stats.InvalidDates))

	return out, stats
}

// ParseNumber parses a spreadsheet number, tolerating decimal commas,
// thousands separators and non-breaking spaces. NaN and infinities are rejected.
func ParseNumber(s string) (float64, bool) {
	raw := strings.TrimSpace(s)
	raw = strings.NewReplacer("\u00a0", "", "\u202f", "", " ", "").Replace(raw)
	if raw == "" {
		return 0, false
	}

	cpos := strings.LastIndex(raw, ",")
	dpos := strings.LastIndex(raw, ".")
	switch {
	case cpos >= 0 && dpos >= 0:
		if cpos > dpos {
			raw = strings.ReplaceAll(raw, ".", "")
			raw = strings.Replace(raw, ",", ".", 1)
		} else {
			raw = strings.ReplaceAll(raw, ",", "")
		}
	case cpos >= 0:
		if strings.Count(raw, ",") > 1 {
			raw = strings.ReplaceAll(raw, ",", "")
		} else {
			raw = strings.Replace(raw, ",", ".", 1)
		}
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseDate parses a calendar date from text layouts or an Excel serial
// number. Times of day are dropped; the result is midnight UTC.
func ParseDate(s string) (time.Time, bool) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return truncateDay(t), true
		}
	}

	if v, err := strconv.ParseFloat(raw, 64); err == nil && v >= minExcelSerial && v <= maxExcelSerial {
		if t, err := excelize.ExcelDateToTime(v, false); err == nil {
			return truncateDay(t), true
		}
	}

	return time.Time{}, false
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NormalizeKey canonicalises a business identifier: spreadsheet float
// suffixes ("12345.0") and inner spaces are removed, letters upper-cased.
func NormalizeKey(s string) string {
	k := strings.ToUpper(strings.TrimSpace(s))
	k = strings.NewReplacer(" ", "", "\u00a0", "").Replace(k)
	if i := strings.IndexByte(k, '.'); i > 0 && allDigits(k[:i]) && strings.Trim(k[i+1:], "0") == "" {
		k = k[:i]
	}
	return k
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
