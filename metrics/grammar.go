package metrics

import (
	"regexp"
	"strconv"
)

// Field is one labeled line of the template sub-block. Pattern is matched
// against a trimmed line; Apply stores the submatches on the record and
// reports whether the value had to be clamped. An Apply error drops the
// field, never the record.
type Field struct {
	Label   string
	Pattern *regexp.Regexp
	Apply   func(m []string, rec *Record) (clamped bool, err error)
}

// Grammar is the ordered set of optional fields recognised inside a template
// sub-block. Each field is applied at most once per block.
type Grammar []Field

var (
	minutesPattern  = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*min`)
	distancePattern = regexp.MustCompile(`,\s*(\d+(?:\.\d+)?)`)
)

// ScoreField builds a field for an integer score out of five. The "/5"
// suffix is optional.
func ScoreField(label string, set func(rec *Record, v int)) Field {
	return Field{
		Label:   label,
		Pattern: regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(label) + `\s*:\s*(-?\d+)(?:\s*/\s*5)?\b`),
		Apply: func(m []string, rec *Record) (bool, error) {
			v, err := strconv.Atoi(m[1])
			if err != nil {
				return false, err
			}
			v, clamped := clampScore(v)
			set(rec, v)
			return clamped, nil
		},
	}
}

// ExerciseField parses "Exercise: <Type> (<mins> mins[, <dist> distance])".
// The type runs up to the parenthesis and may contain spaces.
func ExerciseField() Field {
	return Field{
		Label:   "Exercise",
		Pattern: regexp.MustCompile(`(?i)^exercise\s*:\s*([^(\n]*[^(\s])\s*(?:\(([^)]*)\))?`),
		Apply: func(m []string, rec *Record) (bool, error) {
			rec.ExerciseType = ParseExerciseType(m[1])
			if rec.ExerciseType == ExerciseNone || m[2] == "" {
				return false, nil
			}
			if mm := minutesPattern.FindStringSubmatch(m[2]); mm != nil {
				minutes, err := strconv.ParseFloat(mm[1], 64)
				if err != nil {
					return false, err
				}
				rec.ExerciseMinutes = minutes
			}
			if dm := distancePattern.FindStringSubmatch(m[2]); dm != nil {
				dist, err := strconv.ParseFloat(dm[1], 64)
				if err != nil {
					return false, err
				}
				rec.ExerciseDistance = &dist
			}
			return false, nil
		},
	}
}

// DefaultGrammar recognises Satisfaction, Neuralgia and Exercise.
func DefaultGrammar() Grammar {
	return Grammar{
		ScoreField("Satisfaction", func(rec *Record, v int) { rec.Satisfaction = &v }),
		ScoreField("Neuralgia", func(rec *Record, v int) { rec.Neuralgia = &v }),
		ExerciseField(),
	}
}
