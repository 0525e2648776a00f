// Package metrics derives daily health and exercise records from the
// template blocks embedded in journal entries and lays them onto a fixed
// trailing calendar window.
package metrics

import (
	"strings"
	"time"
)

// Score bounds for satisfaction and neuralgia.
const (
	ScoreMin = 0
	ScoreMax = 5
)

// ExerciseType is the categorical exercise field.
type ExerciseType string

const (
	ExerciseSwim       ExerciseType = "Swim"
	ExerciseRun        ExerciseType = "Run"
	ExerciseCycle      ExerciseType = "Cycle"
	ExerciseElliptical ExerciseType = "Elliptical"
	ExerciseYoga       ExerciseType = "Yoga"
	ExerciseOther      ExerciseType = "Other"
	ExerciseNone       ExerciseType = "None"
)

// ExerciseTypes lists the domain in display order.
var ExerciseTypes = []ExerciseType{
	ExerciseSwim,
	ExerciseRun,
	ExerciseCycle,
	ExerciseElliptical,
	ExerciseYoga,
	ExerciseOther,
	ExerciseNone,
}

// ParseExerciseType matches s case-insensitively against the domain.
// Blank input is None and anything unrecognised is Other.
func ParseExerciseType(s string) ExerciseType {
	s = strings.TrimSpace(s)
	if s == "" {
		return ExerciseNone
	}
	for _, t := range ExerciseTypes {
		if strings.EqualFold(s, string(t)) {
			return t
		}
	}
	return ExerciseOther
}

// Record is the typed projection of one template-tagged entry.
type Record struct {
	Date             time.Time    `json:"date"`
	Satisfaction     *int         `json:"satisfaction"`
	Neuralgia        *int         `json:"neuralgia"`
	ExerciseType     ExerciseType `json:"exercise_type"`
	ExerciseMinutes  float64      `json:"exercise_minutes"`
	ExerciseDistance *float64     `json:"exercise_distance,omitempty"`
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func clampScore(v int) (int, bool) {
	switch {
	case v < ScoreMin:
		return ScoreMin, true
	case v > ScoreMax:
		return ScoreMax, true
	}
	return v, false
}
