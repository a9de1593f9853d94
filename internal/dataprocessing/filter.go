package dataprocessing

import (
	"github.com/tafa1618/Copilot-Process/pkg/contracts/domain"
)

// FilterRequired returns a new table without the rows where any identity
// field is null, and the number of rows dropped.
func FilterRequired(table domain.CanonicalTable, identity []string) (domain.CanonicalTable, int) {
	out := domain.CanonicalTable{
		Source:  table.Source,
		Fields:  table.Fields,
		Records: make([]domain.CanonicalRecord, 0, len(table.Records)),
	}

	for _, rec := range table.Records {
		if hasAll(rec, identity) {
			out.Records = append(out.Records, rec)
		}
	}

	return out, len(table.Records) - len(out.Records)
}

func hasAll(rec domain.CanonicalRecord, fields []string) bool {
	for _, f := range fields {
		if !isSet(rec, f) {
			return false
		}
	}
	return true
}

func isSet(rec domain.CanonicalRecord, field string) bool {
	if v, ok := rec.Text[field]; ok && v != "" {
		return true
	}
	if _, ok := rec.Dates[field]; ok {
		return true
	}
	_, ok := rec.Numbers[field]
	return ok
}
