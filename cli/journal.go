package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/aschepis/backscratcher/diary/insight"
	"github.com/aschepis/backscratcher/diary/journal"
	"github.com/aschepis/backscratcher/diary/metrics"
)

func addAdd(topLevel *cobra.Command, opts *rootOptions) {
	var (
		satisfaction int
		neuralgia    int
		exercise     string
		minutes      float64
		distance     float64
		at           string
	)

	cmd := &cobra.Command{
		Use:   "add [text...]",
		Short: "Append an entry to this month's journal",
		Example: `
diary add slept well, long walk at lunch
diary add --satisfaction 4 --neuralgia 1 --exercise swim --minutes 30 felt strong
echo "from a pipe" | diary add`,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				piped, err := readPiped(cmd.InOrStdin())
				if err != nil {
					return err
				}
				text = piped
			}

			var input metrics.TemplateInput
			flags := cmd.Flags()
			if flags.Changed("satisfaction") {
				input.Satisfaction = &satisfaction
			}
			if flags.Changed("neuralgia") {
				input.Neuralgia = &neuralgia
			}
			if flags.Changed("exercise") {
				input.Exercise = metrics.ParseExerciseType(exercise)
			}
			input.Minutes = minutes
			if flags.Changed("distance") {
				input.Distance = &distance
			}

			when := a.journal.Now()
			if at != "" {
				t, err := journal.ParseTimestamp(at, time.Local)
				if err != nil {
					return err
				}
				when = t
			}

			conf, err := a.journal.AppendEntry(cmd.Context(), when, metrics.ComposeEntry(text, input))
			if errors.Is(err, journal.ErrEmptyEntry) {
				return errors.New("please write something before saving")
			}
			if err != nil {
				return err
			}
			_, _ = color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Saved journal entry: %s\n", conf.File.Name)
			_, _ = color.New(color.Faint).Fprintln(cmd.OutOrStdout(), conf.Header)
			return nil
		}),
	}

	cmd.Flags().IntVar(&satisfaction, "satisfaction", 0, "Satisfaction score 0-5")
	cmd.Flags().IntVar(&neuralgia, "neuralgia", 0, "Neuralgia score 0-5")
	cmd.Flags().StringVar(&exercise, "exercise", "", "Exercise type: swim, run, cycle, elliptical, yoga, other, none")
	cmd.Flags().Float64Var(&minutes, "minutes", 0, "Exercise minutes")
	cmd.Flags().Float64Var(&distance, "distance", 0, "Exercise distance")
	cmd.Flags().StringVar(&at, "at", "", "Entry time as 'YYYY-MM-DD HH:MM' or RFC3339 (default now)")

	topLevel.AddCommand(cmd)
}

// readPiped reads stdin when it is not an interactive terminal.
func readPiped(in io.Reader) (string, error) {
	if isTerminal(in) {
		return "", nil
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func addRead(topLevel *cobra.Command, opts *rootOptions) {
	var last int

	cmd := &cobra.Command{
		Use:   "read",
		Short: "Print the journal across every month",
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			corpus, err := a.journal.ReadAllEntries(cmd.Context())
			if err != nil {
				return err
			}
			warnSkipped(cmd, corpus.Skipped)
			if corpus.Empty() {
				_, _ = color.New(color.Faint, color.Italic).Fprintln(cmd.OutOrStdout(), insight.EmptyCorpusMessage)
				return nil
			}
			text := corpus.Text
			if last > 0 {
				text = journal.LastEntries(text, last)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		}),
	}

	cmd.Flags().IntVarP(&last, "last", "n", 0, "Only print the last N entries")
	topLevel.AddCommand(cmd)
}

func warnSkipped(cmd *cobra.Command, skipped []string) {
	if len(skipped) == 0 {
		return
	}
	_, _ = color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(), "Skipped unreadable files: %s\n", strings.Join(skipped, ", "))
}

func addMonths(topLevel *cobra.Command, opts *rootOptions) {
	cmd := &cobra.Command{
		Use:   "months",
		Short: "List the months that have a journal file",
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			periods, err := a.journal.Periods(cmd.Context())
			if err != nil {
				return err
			}
			if len(periods) == 0 {
				_, _ = color.New(color.Faint, color.Italic).Fprintln(cmd.OutOrStdout(), " none")
				return nil
			}
			bold := color.New(color.Bold)
			tbl := uitable.New()
			tbl.Separator = "  "
			tbl.AddRow(bold.Sprint("Month"), bold.Sprint("File"))
			for _, p := range periods {
				tbl.AddRow(p.String(), p.FileName())
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), tbl)
			return nil
		}),
	}
	topLevel.AddCommand(cmd)
}

func addAsk(topLevel *cobra.Command, opts *rootOptions) {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: "Ask a question answered from your recent entries",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			question := strings.Join(args, " ")
			out := cmd.OutOrStdout()

			if dryRun {
				if strings.TrimSpace(question) == "" {
					return insight.ErrEmptyQuestion
				}
				policy := policyFromConfig(a.cfg, "")
				corpus, err := a.journal.ReadAllEntries(cmd.Context())
				if err != nil {
					return err
				}
				if corpus.Empty() {
					_, _ = color.New(color.FgYellow).Fprintln(out, insight.EmptyCorpusMessage)
					return nil
				}
				_, _ = fmt.Fprintln(out, insight.BuildPrompt(question, corpus.Text, nil, policy).Render())
				return nil
			}

			req, err := a.requester()
			if err != nil {
				return err
			}
			answer, err := req.Ask(cmd.Context(), question)
			if errors.Is(err, insight.ErrEmptyCorpus) {
				_, _ = color.New(color.FgYellow).Fprintln(out, answer)
				return nil
			}
			if err != nil {
				return err
			}
			_, _ = color.New(color.Bold).Fprintln(out, "💬 AI Insight:")
			_, _ = fmt.Fprintln(out, answer)
			return nil
		}),
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the prompt instead of calling the model")
	topLevel.AddCommand(cmd)
}
