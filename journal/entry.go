package journal

import (
	"fmt"
	"strings"
	"time"
)

const (
	// Separator delimits entries inside a period file and between period
	// files when the corpus is concatenated.
	Separator = "\n\n---\n"

	// HeaderMarker starts the timestamp line written above every entry.
	HeaderMarker = "🕒"

	// HeaderLayout is the time layout following HeaderMarker.
	HeaderLayout = "2006-01-02 15:04"

	headerDateLayout = "2006-01-02"
)

// Entry is one block recovered from a period file.
type Entry struct {
	At        time.Time
	HasHeader bool
	Body      string
}

// FormatHeader renders the header line for an entry written at t.
func FormatHeader(t time.Time) string {
	return HeaderMarker + " " + t.Format(HeaderLayout)
}

// ParseHeader parses a header line. Lines carrying only a date are accepted.
// The returned time is in UTC since headers carry no zone.
func ParseHeader(line string) (time.Time, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), HeaderMarker)
	if !ok {
		return time.Time{}, false
	}
	rest = strings.TrimSpace(rest)
	if t, err := time.Parse(HeaderLayout, rest); err == nil {
		return t, true
	}
	if len(rest) >= len(headerDateLayout) {
		if t, err := time.Parse(headerDateLayout, rest[:len(headerDateLayout)]); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// HeaderTime finds the first header line in block and parses it.
func HeaderTime(block string) (time.Time, bool) {
	for _, line := range strings.Split(block, "\n") {
		if !strings.HasPrefix(strings.TrimSpace(line), HeaderMarker) {
			continue
		}
		return ParseHeader(line)
	}
	return time.Time{}, false
}

// AppendBlock returns existing with a new header+text block appended.
func AppendBlock(existing string, at time.Time, text string) string {
	block := FormatHeader(at) + "\n" + strings.TrimSpace(text)
	if strings.TrimSpace(existing) == "" {
		return block
	}
	return existing + Separator + block
}

// SplitEntries splits concatenated journal text into non-empty entry blocks,
// in the order they appear.
func SplitEntries(text string) []string {
	parts := strings.Split(text, Separator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseEntries splits text and parses each block's header.
func ParseEntries(text string) []Entry {
	blocks := SplitEntries(text)
	out := make([]Entry, 0, len(blocks))
	for _, block := range blocks {
		e := Entry{Body: block}
		first, rest, _ := strings.Cut(block, "\n")
		if at, ok := ParseHeader(first); ok {
			e.At = at
			e.HasHeader = true
			e.Body = strings.TrimSpace(rest)
		}
		out = append(out, e)
	}
	return out
}

// LastEntries returns the trailing n entry blocks of text joined with
// Separator. n <= 0 returns "".
func LastEntries(text string, n int) string {
	if n <= 0 {
		return ""
	}
	blocks := SplitEntries(text)
	if len(blocks) > n {
		blocks = blocks[len(blocks)-n:]
	}
	return strings.Join(blocks, Separator)
}

// ParseTimestamp accepts RFC 3339, HeaderLayout or a bare date. The last
// two are read in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range []string{HeaderLayout, headerDateLayout} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}
