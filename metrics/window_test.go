package metrics

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func intPtr(v int) *int { return &v }

func TestReindexFixedLength(t *testing.T) {
	anchor := time.Date(2025, time.January, 31, 18, 30, 0, 0, time.UTC)
	for _, n := range []int{0, 1, 40} {
		records := make([]Record, 0, n)
		for i := 0; i < n; i++ {
			records = append(records, Record{
				Date:         anchor.AddDate(0, 0, -i),
				Satisfaction: intPtr(3),
				ExerciseType: ExerciseNone,
			})
		}
		w := Reindex(records, 30, anchor)
		if len(w.Rows) != 30 {
			t.Errorf("%d records: expected 30 rows, got %d", n, len(w.Rows))
			continue
		}
		for i := 1; i < len(w.Rows); i++ {
			if !w.Rows[i].Date.Equal(w.Rows[i-1].Date.AddDate(0, 0, 1)) {
				t.Errorf("%d records: rows %d and %d are not consecutive days", n, i-1, i)
			}
		}
		if !w.Rows[29].Date.Equal(time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("Expected last row on anchor date, got %v", w.Rows[29].Date)
		}
		if !w.Start.Equal(time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("Expected window to start 2025-01-02, got %v", w.Start)
		}
	}
}

func TestReindexGapFill(t *testing.T) {
	anchor := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	records := []Record{{
		Date:            time.Date(2025, time.January, 8, 0, 0, 0, 0, time.UTC),
		Satisfaction:    intPtr(4),
		Neuralgia:       intPtr(1),
		ExerciseType:    ExerciseSwim,
		ExerciseMinutes: 30,
	}}
	w := Reindex(records, 5, anchor)
	for i, row := range w.Rows {
		if i == 2 {
			if !row.Logged || *row.Satisfaction != 4 || row.ExerciseMinutes != 30 {
				t.Errorf("Unexpected logged row %+v", row)
			}
			continue
		}
		if row.Logged || row.Satisfaction != nil || row.Neuralgia != nil || row.ExerciseMinutes != 0 {
			t.Errorf("Expected empty gap row at %d, got %+v", i, row)
		}
	}
}

func TestReindexLastRecordWins(t *testing.T) {
	day := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	records := []Record{
		{Date: day.Add(8 * time.Hour), Satisfaction: intPtr(1), ExerciseType: ExerciseNone},
		{Date: day.Add(2 * time.Hour), Satisfaction: intPtr(5), ExerciseType: ExerciseNone},
	}
	w := Reindex(records, 1, day)
	if len(w.Rows) != 1 || *w.Rows[0].Satisfaction != 5 {
		t.Errorf("Expected later-appearing record to win, got %+v", w.Rows)
	}
}

func TestReindexIgnoresRecordsOutsideRange(t *testing.T) {
	anchor := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	records := []Record{
		{Date: anchor.AddDate(0, 0, 1), Satisfaction: intPtr(2), ExerciseType: ExerciseNone},
		{Date: anchor.AddDate(0, 0, -30), Satisfaction: intPtr(2), ExerciseType: ExerciseNone},
	}
	w := Reindex(records, 30, anchor)
	if s := w.Summary(); s.LoggedDays != 0 {
		t.Errorf("Expected no logged days, got %d", s.LoggedDays)
	}
}

func TestWindowSummary(t *testing.T) {
	anchor := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	dist := 2.0
	records := []Record{
		{Date: anchor, Satisfaction: intPtr(4), Neuralgia: intPtr(1), ExerciseType: ExerciseSwim, ExerciseMinutes: 30},
		{Date: anchor.AddDate(0, 0, -1), Satisfaction: intPtr(2), ExerciseType: ExerciseRun, ExerciseMinutes: 20, ExerciseDistance: &dist},
		{Date: anchor.AddDate(0, 0, -2), ExerciseType: ExerciseNone},
	}
	s := Reindex(records, 7, anchor).Summary()
	if s.Days != 7 || s.LoggedDays != 3 {
		t.Errorf("Expected 7 days with 3 logged, got %d/%d", s.Days, s.LoggedDays)
	}
	if s.AvgSatisfaction == nil || *s.AvgSatisfaction != 3 {
		t.Errorf("Expected average satisfaction 3, got %v", s.AvgSatisfaction)
	}
	if s.AvgNeuralgia == nil || *s.AvgNeuralgia != 1 {
		t.Errorf("Expected average neuralgia 1, got %v", s.AvgNeuralgia)
	}
	if s.TotalMinutes != 50 || s.TotalDistance != 2 {
		t.Errorf("Expected 50 minutes and distance 2, got %v and %v", s.TotalMinutes, s.TotalDistance)
	}
	if s.ExerciseCounts[ExerciseSwim] != 1 || s.ExerciseCounts[ExerciseRun] != 1 || s.ExerciseCounts[ExerciseNone] != 0 {
		t.Errorf("Unexpected exercise counts %v", s.ExerciseCounts)
	}

	empty := Reindex(nil, 30, anchor).Summary()
	if empty.AvgSatisfaction != nil || empty.LoggedDays != 0 {
		t.Errorf("Expected empty summary, got %+v", empty)
	}
}

func TestExtractorTrend(t *testing.T) {
	anchor := time.Date(2025, time.January, 10, 12, 0, 0, 0, time.UTC)
	raw := ComposeEntry("🕒 2025-01-09 08:00\nslept badly", TemplateInput{Satisfaction: intPtr(3), Exercise: ExerciseYoga, Minutes: 15})

	w, report := NewExtractor(0, zerolog.Nop()).Trend(raw, 3, anchor)
	if len(w.Rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(w.Rows))
	}
	if report.Records != 1 {
		t.Errorf("Expected 1 record, got %d", report.Records)
	}
	row := w.Rows[1]
	if !row.Logged || row.ExerciseType != ExerciseYoga || row.ExerciseMinutes != 15 {
		t.Errorf("Expected yoga logged on 2025-01-09, got %+v", row)
	}
	if w.Rows[0].Logged || w.Rows[2].Logged {
		t.Error("Expected gap days around the logged day")
	}
}

func TestComposeEntry(t *testing.T) {
	if got := ComposeEntry("  just text ", TemplateInput{}); got != "just text" {
		t.Errorf("Expected text unchanged, got %q", got)
	}
	got := ComposeEntry("", TemplateInput{Neuralgia: intPtr(2)})
	if got != TemplateMarker+"\nNeuralgia: 2/5\nExercise: None" {
		t.Errorf("Unexpected template-only entry %q", got)
	}

	got = FormatTemplate(TemplateInput{Minutes: 30})
	if got != TemplateMarker+"\nExercise: Other (30 mins)" {
		t.Errorf("Expected minutes without a type to record Other, got %q", got)
	}
	got = FormatTemplate(TemplateInput{Exercise: ExerciseNone, Minutes: 30})
	if got != TemplateMarker+"\nExercise: None" {
		t.Errorf("Expected explicit None to drop minutes, got %q", got)
	}
}
