package journal

import (
	"testing"
	"time"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		name string
		want Period
		ok   bool
	}{
		{"Journal_2025-01", Period{2025, time.January}, true},
		{"Journal_1999-12", Period{1999, time.December}, true},
		{"Journal_2025-13", Period{}, false},
		{"Journal_2025-1", Period{}, false},
		{"Journal_notes", Period{}, false},
		{"Thread_2025-01", Period{}, false},
	}
	for _, tt := range tests {
		got, ok := ParsePeriod(tt.name)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParsePeriod(%q) = %v, %v; expected %v, %v", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}

func TestPeriodFileNameRoundTrip(t *testing.T) {
	p := PeriodOf(time.Date(2025, time.July, 31, 23, 59, 0, 0, time.UTC))
	if p.FileName() != "Journal_2025-07" {
		t.Errorf("Expected Journal_2025-07, got %q", p.FileName())
	}
	back, ok := ParsePeriod(p.FileName())
	if !ok || back != p {
		t.Errorf("Expected round trip to %v, got %v", p, back)
	}
}

func TestParseHeader(t *testing.T) {
	at, ok := ParseHeader("🕒 2025-01-06 21:05")
	if !ok {
		t.Fatal("Expected header to parse")
	}
	if !at.Equal(time.Date(2025, time.January, 6, 21, 5, 0, 0, time.UTC)) {
		t.Errorf("Unexpected time %v", at)
	}

	at, ok = ParseHeader("🕒 2025-01-06")
	if !ok || at.Day() != 6 {
		t.Errorf("Expected date-only header to parse, got %v %v", at, ok)
	}

	if _, ok := ParseHeader("2025-01-06 21:05"); ok {
		t.Error("Expected header without marker to be rejected")
	}
}

func TestSplitEntries(t *testing.T) {
	text := "\n" + "a" + Separator + "  " + Separator + "b\nmore" + Separator
	blocks := SplitEntries(text)
	if len(blocks) != 2 {
		t.Fatalf("Expected 2 blocks, got %d: %q", len(blocks), blocks)
	}
	if blocks[0] != "a" || blocks[1] != "b\nmore" {
		t.Errorf("Unexpected blocks %q", blocks)
	}
}

func TestLastEntries(t *testing.T) {
	text := "one" + Separator + "two" + Separator + "three"
	if got := LastEntries(text, 2); got != "two"+Separator+"three" {
		t.Errorf("Expected last two entries, got %q", got)
	}
	if got := LastEntries(text, 10); got != text {
		t.Errorf("Expected whole text, got %q", got)
	}
	if got := LastEntries(text, 0); got != "" {
		t.Errorf("Expected empty string, got %q", got)
	}
}

func TestAppendBlock(t *testing.T) {
	at := time.Date(2025, time.January, 5, 8, 0, 0, 0, time.UTC)
	first := AppendBlock("", at, " hello ")
	if first != "🕒 2025-01-05 08:00\nhello" {
		t.Errorf("Unexpected first block %q", first)
	}
	second := AppendBlock(first, at.Add(time.Hour), "again")
	if second != first+Separator+"🕒 2025-01-05 09:00\nagain" {
		t.Errorf("Unexpected appended text %q", second)
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2025, time.March, 2, 7, 30, 0, 0, time.UTC)
	for _, s := range []string{"2025-03-02T07:30:00Z", "2025-03-02 07:30", " 2025-03-02 07:30 "} {
		got, err := ParseTimestamp(s, time.UTC)
		if err != nil {
			t.Errorf("ParseTimestamp(%q) failed: %v", s, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseTimestamp(%q) = %v, expected %v", s, got, want)
		}
	}
	if got, err := ParseTimestamp("2025-03-02", time.UTC); err != nil || !got.Equal(time.Date(2025, time.March, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected bare date to parse as midnight, got %v (%v)", got, err)
	}
	if _, err := ParseTimestamp("yesterday", time.UTC); err == nil {
		t.Error("Expected error for unrecognised timestamp")
	}
}
