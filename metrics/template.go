package metrics

import (
	"fmt"
	"strconv"
	"strings"
)

// TemplateInput holds the values for a new template sub-block.
type TemplateInput struct {
	Satisfaction *int
	Neuralgia    *int
	Exercise     ExerciseType
	Minutes      float64
	Distance     *float64
}

// FormatTemplate renders input as a template sub-block the extractor reads
// back unchanged. Scores are clamped into range.
func FormatTemplate(input TemplateInput) string {
	var b strings.Builder
	b.WriteString(TemplateMarker)
	if input.Satisfaction != nil {
		v, _ := clampScore(*input.Satisfaction)
		fmt.Fprintf(&b, "\nSatisfaction: %d/5", v)
	}
	if input.Neuralgia != nil {
		v, _ := clampScore(*input.Neuralgia)
		fmt.Fprintf(&b, "\nNeuralgia: %d/5", v)
	}

	exercise := input.Exercise
	if exercise == "" {
		exercise = ExerciseNone
		// Minutes or distance without a type still record an activity.
		if input.Minutes > 0 || input.Distance != nil {
			exercise = ExerciseOther
		}
	}
	if exercise == ExerciseNone {
		b.WriteString("\nExercise: None")
		return b.String()
	}
	minutes := input.Minutes
	if minutes < 0 {
		minutes = 0
	}
	fmt.Fprintf(&b, "\nExercise: %s (%s mins", exercise, formatNumber(minutes))
	if input.Distance != nil && *input.Distance >= 0 {
		fmt.Fprintf(&b, ", %s distance", formatNumber(*input.Distance))
	}
	b.WriteString(")")
	return b.String()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// IsZero reports whether no template field was supplied.
func (input TemplateInput) IsZero() bool {
	return input.Satisfaction == nil && input.Neuralgia == nil &&
		(input.Exercise == "" || input.Exercise == ExerciseNone) &&
		input.Minutes == 0 && input.Distance == nil
}

// ComposeEntry appends the rendered template below text. A zero input
// leaves text untouched.
func ComposeEntry(text string, input TemplateInput) string {
	text = strings.TrimSpace(text)
	if input.IsZero() {
		return text
	}
	if text == "" {
		return FormatTemplate(input)
	}
	return text + "\n\n" + FormatTemplate(input)
}
