package dataprocessing

import (
	"github.com/tafa1618/Copilot-Process/pkg/contracts/domain"
)

// JoinStats reports how a left join matched.
type JoinStats struct {
	Primary    int `json:"primary"`
	Matched    int `json:"matched"`
	Unmatched  int `json:"unmatched"`
	Duplicates int `json:"secondary_duplicates"`
}

// Index holds one merged secondary record per key. For every field the first
// non-empty value after sorting by the index date wins, so ambiguous keys
// resolve the same way at every join site.
type Index struct {
	byKey      map[string]domain.CanonicalRecord
	duplicates int
}

// BuildIndex indexes secondary records by keyField after a stable sort on
// sortField ascending.
func BuildIndex(records []domain.CanonicalRecord, keyField, sortField string) *Index {
	ix := &Index{byKey: make(map[string]domain.CanonicalRecord)}
	for _, rec := range SortByDate(records, sortField) {
		k := rec.Text[keyField]
		if k == "" {
			continue
		}
		cur, ok := ix.byKey[k]
		if !ok {
			ix.byKey[k] = rec.Clone()
			continue
		}
		ix.duplicates++
		fillFirst(&cur, rec)
		ix.byKey[k] = cur
	}
	return ix
}

func fillFirst(dst *domain.CanonicalRecord, src domain.CanonicalRecord) {
	for f, v := range src.Text {
		if dst.Text[f] == "" && v != "" {
			dst.Text[f] = v
		}
	}
	for f, v := range src.Numbers {
		if _, ok := dst.Numbers[f]; !ok {
			dst.Numbers[f] = v
		}
	}
	for f, v := range src.Dates {
		if _, ok := dst.Dates[f]; !ok {
			dst.Dates[f] = v
		}
	}
}

// Lookup returns the merged secondary record for key.
func (ix *Index) Lookup(key string) (domain.CanonicalRecord, bool) {
	rec, ok := ix.byKey[key]
	return rec, ok
}

// Len returns the number of distinct keys.
func (ix *Index) Len() int {
	return len(ix.byKey)
}

// Duplicates returns how many secondary rows shared a key with an earlier one.
func (ix *Index) Duplicates() int {
	return ix.duplicates
}

// LeftJoin copies every primary record and fills the mapped secondary fields
// (secondary name to primary name) from the index. A primary value that is
// already set is kept. Unmatched records keep those fields null.
func LeftJoin(primary []domain.CanonicalRecord, keyField string, ix *Index, fields map[string]string) ([]domain.CanonicalRecord, JoinStats) {
	stats := JoinStats{Primary: len(primary), Duplicates: ix.Duplicates()}
	out := make([]domain.CanonicalRecord, 0, len(primary))

	for _, rec := range primary {
		joined := rec.Clone()
		sec, ok := ix.Lookup(rec.Text[keyField])
		if !ok {
			stats.Unmatched++
			out = append(out, joined)
			continue
		}
		stats.Matched++

		for from, to := range fields {
			if v := sec.Text[from]; v != "" && joined.Text[to] == "" {
				joined.Text[to] = v
			}
			if v, ok := sec.Numbers[from]; ok {
				if _, set := joined.Numbers[to]; !set {
					joined.Numbers[to] = v
				}
			}
			if v, ok := sec.Dates[from]; ok {
				if _, set := joined.Dates[to]; !set {
					joined.Dates[to] = v
				}
			}
		}
		out = append(out, joined)
	}

	return out, stats
}
