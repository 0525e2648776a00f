package journal

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FilePrefix starts the name of every monthly journal object.
const FilePrefix = "Journal_"

// Period is a calendar month. One journal object exists per period.
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf returns the period containing t, in t's location.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// FileName returns the object name for the period, e.g. "Journal_2025-01".
// The zero-padded form sorts chronologically.
func (p Period) FileName() string {
	return FilePrefix + p.String()
}

// String returns YYYY-MM.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// ParsePeriod parses an object name of the form Journal_YYYY-MM.
func ParsePeriod(name string) (Period, bool) {
	rest, ok := strings.CutPrefix(name, FilePrefix)
	if !ok || len(rest) != len("2006-01") || rest[4] != '-' {
		return Period{}, false
	}
	year, err := strconv.Atoi(rest[:4])
	if err != nil {
		return Period{}, false
	}
	month, err := strconv.Atoi(rest[5:])
	if err != nil || month < 1 || month > 12 {
		return Period{}, false
	}
	return Period{Year: year, Month: time.Month(month)}, true
}
