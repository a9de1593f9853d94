package dataprocessing

import (
	"sort"
	"time"

	"github.com/tafa1618/Copilot-Process/pkg/contracts/domain"
)

// CollapsePolicy describes how rows sharing a key merge into one.
//
// Rows are stably sorted by SortField ascending (null dates first). Fields in
// Sum add every row; dates in Latest keep the maximum. Any other number or
// date keeps the value of the last row that sets it; text keeps the first
// non-empty value after the sort.
type CollapsePolicy struct {
	SortField string
	Sum       []string
	Latest    []string
}

// KeyFunc extracts the grouping key of a record.
type KeyFunc func(domain.CanonicalRecord) string

// FieldKey groups by a single text field.
func FieldKey(field string) KeyFunc {
	return func(r domain.CanonicalRecord) string { return r.Text[field] }
}

// Collapse merges records sharing a key and returns them sorted by the
// collapsed SortField, with the number of rows folded away. Applying it to
// its own output returns the same records.
func Collapse(records []domain.CanonicalRecord, key KeyFunc, p CollapsePolicy) ([]domain.CanonicalRecord, int) {
	sorted := SortByDate(records, p.SortField)

	sum := toSet(p.Sum)
	latest := toSet(p.Latest)

	index := make(map[string]int)
	var out []domain.CanonicalRecord
	for _, rec := range sorted {
		k := key(rec)
		i, seen := index[k]
		if !seen {
			index[k] = len(out)
			out = append(out, rec.Clone())
			continue
		}
		mergeInto(&out[i], rec, sum, latest)
	}

	out = SortByDate(out, p.SortField)
	return out, len(records) - len(out)
}

func mergeInto(dst *domain.CanonicalRecord, src domain.CanonicalRecord, sum, latest map[string]bool) {
	for f, v := range src.Text {
		if dst.Text[f] == "" && v != "" {
			dst.Text[f] = v
		}
	}
	for f, v := range src.Numbers {
		if sum[f] {
			dst.Numbers[f] += v
			continue
		}
		dst.Numbers[f] = v
	}
	for f, v := range src.Dates {
		if latest[f] {
			if cur, ok := dst.Dates[f]; ok && cur.After(v) {
				continue
			}
		}
		dst.Dates[f] = v
	}
}

// SortByDate returns a stably sorted copy ordered by field ascending.
// Records without the date sort first in their original order.
func SortByDate(records []domain.CanonicalRecord, field string) []domain.CanonicalRecord {
	out := make([]domain.CanonicalRecord, len(records))
	copy(out, records)
	if field == "" {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		return dateBefore(out[i].Dates, out[j].Dates, field)
	})
	return out
}

func dateBefore(a, b map[string]time.Time, field string) bool {
	da, okA := a[field]
	db, okB := b[field]
	switch {
	case !okA && !okB:
		return false
	case !okA:
		return true
	case !okB:
		return false
	}
	return da.Before(db)
}

func toSet(fields []string) map[string]bool {
	m := make(map[string]bool, len(fields))
	for _, f := range fields {
		m[f] = true
	}
	return m
}
