package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/aschepis/backscratcher/diary/journal"
	"github.com/aschepis/backscratcher/diary/metrics"
)

type trendOutput struct {
	Window  metrics.Window  `json:"window"`
	Summary metrics.Summary `json:"summary"`
	Report  metrics.Report  `json:"report"`
}

func addTrend(topLevel *cobra.Command, opts *rootOptions) {
	var (
		days     int
		anchor   string
		asJSON   bool
		showGaps bool
	)

	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Show daily satisfaction, neuralgia and exercise over recent days",
		Example: `
diary trend
diary trend --days 7 --anchor 2025-01-31
diary trend --json`,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			if days <= 0 {
				days = a.cfg.Metrics.WindowDays
			}
			end := a.journal.Now()
			if anchor != "" {
				t, err := journal.ParseTimestamp(anchor, time.UTC)
				if err != nil {
					return err
				}
				end = t
			}

			corpus, err := a.journal.ReadAllEntries(cmd.Context())
			if err != nil {
				return err
			}
			warnSkipped(cmd, corpus.Skipped)

			w, report := a.extractor.Trend(corpus.Text, days, end)
			out := trendOutput{Window: w, Summary: w.Summary(), Report: report}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			printTrend(cmd.OutOrStdout(), out, showGaps)
			return nil
		}),
	}

	cmd.Flags().IntVar(&days, "days", 0, "Window length in days (default from config)")
	cmd.Flags().StringVar(&anchor, "anchor", "", "Last day of the window as YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the window as JSON")
	cmd.Flags().BoolVar(&showGaps, "all", false, "Include days with no template")
	topLevel.AddCommand(cmd)
}

func printTrend(w io.Writer, out trendOutput, showGaps bool) {
	bold := color.New(color.Bold)
	faint := color.New(color.Faint)

	_, _ = bold.Fprintf(w, "%s to %s\n", out.Window.Start.Format("2006-01-02"), out.Window.End.Format("2006-01-02"))

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("Date"), bold.Sprint("Satisfaction"), bold.Sprint("Neuralgia"),
		bold.Sprint("Exercise"), bold.Sprint("Minutes"), bold.Sprint("Distance"))
	for _, row := range out.Window.Rows {
		if !row.Logged {
			if showGaps {
				tbl.AddRow(faint.Sprint(row.Date.Format("2006-01-02")), faint.Sprint("-"), faint.Sprint("-"), faint.Sprint("-"), "", "")
			}
			continue
		}
		tbl.AddRow(
			row.Date.Format("2006-01-02"),
			scoreCell(row.Satisfaction, false),
			scoreCell(row.Neuralgia, true),
			string(row.ExerciseType),
			number(row.ExerciseMinutes),
			optionalNumber(row.ExerciseDistance),
		)
	}
	_, _ = fmt.Fprintln(w, tbl)
	_, _ = fmt.Fprintln(w)

	s := out.Summary
	sum := uitable.New()
	sum.Separator = "  "
	sum.AddRow(bold.Sprint("Logged days"), fmt.Sprintf("%d of %d", s.LoggedDays, s.Days))
	sum.AddRow(bold.Sprint("Avg satisfaction"), optionalAverage(s.AvgSatisfaction))
	sum.AddRow(bold.Sprint("Avg neuralgia"), optionalAverage(s.AvgNeuralgia))
	sum.AddRow(bold.Sprint("Exercise minutes"), number(s.TotalMinutes))
	sum.AddRow(bold.Sprint("Exercise distance"), number(s.TotalDistance))
	for _, t := range metrics.ExerciseTypes {
		if n := s.ExerciseCounts[t]; n > 0 {
			sum.AddRow(bold.Sprint(string(t)), strconv.Itoa(n))
		}
	}
	_, _ = fmt.Fprintln(w, sum)

	if r := out.Report; r.NoDate > 0 || r.Clamped > 0 {
		_, _ = faint.Fprintf(w, "\n%d template(s) without a date skipped, %d score(s) clamped\n", r.NoDate, r.Clamped)
	}
}

// scoreCell colours a score; high neuralgia is bad, high satisfaction good.
func scoreCell(v *int, inverted bool) string {
	if v == nil {
		return "-"
	}
	good := *v >= 4
	bad := *v <= 1
	if inverted {
		good, bad = *v <= 1, *v >= 4
	}
	text := strconv.Itoa(*v)
	switch {
	case good:
		return color.GreenString(text)
	case bad:
		return color.RedString(text)
	default:
		return text
	}
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func optionalNumber(v *float64) string {
	if v == nil {
		return "-"
	}
	return number(*v)
}

func optionalAverage(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
