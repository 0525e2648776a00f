package metrics

import (
	"strings"

	"github.com/aschepis/backscratcher/diary/journal"
	"github.com/rs/zerolog"
)

// TemplateMarker opens the template sub-block inside an entry.
const TemplateMarker = "DAILY TEMPLATE SUMMARY:"

// DefaultMaxLines bounds how many lines after the marker are scanned.
const DefaultMaxLines = 12

// Report counts what extraction dropped. Nothing in it is an error.
type Report struct {
	Blocks        int `json:"blocks"`
	Templates     int `json:"templates"`
	Records       int `json:"records"`
	NoMarker      int `json:"no_marker"`
	NoDate        int `json:"no_date"`
	FieldsMissing int `json:"fields_missing"`
	FieldsInvalid int `json:"fields_invalid"`
	Clamped       int `json:"clamped"`
}

// Extractor parses template sub-blocks out of concatenated journal text.
type Extractor struct {
	Grammar  Grammar
	MaxLines int
	Logger   zerolog.Logger
}

// NewExtractor creates an Extractor with the default grammar.
func NewExtractor(maxLines int, logger zerolog.Logger) *Extractor {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	return &Extractor{
		Grammar:  DefaultGrammar(),
		MaxLines: maxLines,
		Logger:   logger.With().Str("component", "metrics").Logger(),
	}
}

// ExtractRecords extracts records with the default grammar.
func ExtractRecords(raw string) []Record {
	records, _ := NewExtractor(DefaultMaxLines, zerolog.Nop()).Extract(raw)
	return records
}

// Extract splits raw on the entry separator and returns one record per
// block carrying both a template marker and a parsable header date, in the
// order the blocks appear.
func (e *Extractor) Extract(raw string) ([]Record, Report) {
	var report Report
	records := make([]Record, 0)

	for _, block := range journal.SplitEntries(raw) {
		report.Blocks++
		lines, ok := e.templateLines(block)
		if !ok {
			report.NoMarker++
			continue
		}
		report.Templates++

		at, ok := journal.HeaderTime(block)
		if !ok {
			report.NoDate++
			e.Logger.Debug().Msg("Skipping template block without a header date")
			continue
		}

		rec := Record{Date: Day(at), ExerciseType: ExerciseNone}
		e.applyFields(lines, &rec, &report)
		records = append(records, rec)
		report.Records++
	}

	e.Logger.Debug().
		Int("blocks", report.Blocks).
		Int("records", report.Records).
		Int("no_date", report.NoDate).
		Int("clamped", report.Clamped).
		Msg("Template extraction finished")
	return records, report
}

// templateLines returns the bounded window of lines following the marker.
func (e *Extractor) templateLines(block string) ([]string, bool) {
	idx := strings.Index(block, TemplateMarker)
	if idx < 0 {
		return nil, false
	}
	rest := block[idx+len(TemplateMarker):]
	lines := strings.Split(rest, "\n")
	// Text on the marker line itself counts as the first line.
	limit := e.MaxLines
	if limit <= 0 {
		limit = DefaultMaxLines
	}
	if len(lines) > limit+1 {
		lines = lines[:limit+1]
	}
	return lines, true
}

func (e *Extractor) applyFields(lines []string, rec *Record, report *Report) {
	seen := make([]bool, len(e.Grammar))
	for _, line := range lines {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*•"))
		if line == "" {
			continue
		}
		for i, field := range e.Grammar {
			if seen[i] {
				continue
			}
			m := field.Pattern.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			seen[i] = true
			clamped, err := field.Apply(m, rec)
			if err != nil {
				report.FieldsInvalid++
				e.Logger.Debug().Err(err).Str("field", field.Label).Msg("Dropping malformed template field")
				break
			}
			if clamped {
				report.Clamped++
			}
			break
		}
	}
	for i := range seen {
		if !seen[i] {
			report.FieldsMissing++
		}
	}
}
