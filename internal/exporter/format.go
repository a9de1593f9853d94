package exporter

import (
	"strconv"
	"time"
)

// formatFloat formats a float64 value for CSV output with exactly 2 decimal places
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// formatRatio keeps four decimals so a ratio survives a round trip as a
// percentage with two.
func formatRatio(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}

// formatOptional renders nil as an empty cell.
func formatOptional(f *float64) string {
	if f == nil {
		return ""
	}
	return formatRatio(*f)
}

func formatInt(i int) string {
	return strconv.Itoa(i)
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
