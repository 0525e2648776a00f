package metrics

import (
	"time"

	"github.com/samber/lo"
)

// DefaultWindowDays is the trailing window length used by the trend view.
const DefaultWindowDays = 30

// Row is one calendar day of a Window. Logged is false for gap days, which
// carry nil scores and zero minutes.
type Row struct {
	Record
	Logged bool `json:"logged"`
}

// Window is a gap-filled run of consecutive days ending at End.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Rows  []Row     `json:"rows"`
}

// Reindex lays records onto [anchor-windowDays+1, anchor]. The result always
// has windowDays rows in ascending date order. When several records share a
// date the one appearing last in records wins. windowDays <= 0 yields an
// empty window.
func Reindex(records []Record, windowDays int, anchor time.Time) Window {
	end := Day(anchor)
	if windowDays <= 0 {
		return Window{Start: end, End: end, Rows: []Row{}}
	}
	start := end.AddDate(0, 0, -(windowDays - 1))

	byDate := make(map[time.Time]Record, len(records))
	for _, rec := range records {
		byDate[Day(rec.Date)] = rec
	}

	rows := make([]Row, 0, windowDays)
	for i := 0; i < windowDays; i++ {
		d := start.AddDate(0, 0, i)
		rec, ok := byDate[d]
		if !ok {
			rows = append(rows, Row{Record: Record{Date: d, ExerciseType: ExerciseNone}})
			continue
		}
		rec.Date = d
		rows = append(rows, Row{Record: rec, Logged: true})
	}
	return Window{Start: start, End: end, Rows: rows}
}

// Summary aggregates a Window.
type Summary struct {
	Days            int                  `json:"days"`
	LoggedDays      int                  `json:"logged_days"`
	AvgSatisfaction *float64             `json:"avg_satisfaction"`
	AvgNeuralgia    *float64             `json:"avg_neuralgia"`
	TotalMinutes    float64              `json:"total_minutes"`
	TotalDistance   float64              `json:"total_distance"`
	ExerciseCounts  map[ExerciseType]int `json:"exercise_counts"`
}

// Summary averages the scores that are present and totals exercise.
func (w Window) Summary() Summary {
	logged := lo.Filter(w.Rows, func(r Row, _ int) bool { return r.Logged })

	satisfaction := lo.FilterMap(logged, func(r Row, _ int) (float64, bool) {
		if r.Satisfaction == nil {
			return 0, false
		}
		return float64(*r.Satisfaction), true
	})
	neuralgia := lo.FilterMap(logged, func(r Row, _ int) (float64, bool) {
		if r.Neuralgia == nil {
			return 0, false
		}
		return float64(*r.Neuralgia), true
	})
	active := lo.Filter(logged, func(r Row, _ int) bool { return r.ExerciseType != ExerciseNone })

	return Summary{
		Days:            len(w.Rows),
		LoggedDays:      len(logged),
		AvgSatisfaction: mean(satisfaction),
		AvgNeuralgia:    mean(neuralgia),
		TotalMinutes:    lo.SumBy(w.Rows, func(r Row) float64 { return r.ExerciseMinutes }),
		TotalDistance: lo.SumBy(w.Rows, func(r Row) float64 {
			if r.ExerciseDistance == nil {
				return 0
			}
			return *r.ExerciseDistance
		}),
		ExerciseCounts: lo.CountValuesBy(active, func(r Row) ExerciseType { return r.ExerciseType }),
	}
}

func mean(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	avg := lo.Sum(values) / float64(len(values))
	return &avg
}

// Trend extracts the records in raw and lays them onto the windowDays
// ending at anchor.
func (e *Extractor) Trend(raw string, windowDays int, anchor time.Time) (Window, Report) {
	records, report := e.Extract(raw)
	return Reindex(records, windowDays, anchor), report
}
