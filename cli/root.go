// Package cli implements the diary command line.
package cli

import (
	"github.com/spf13/cobra"
)

// New returns the root command.
func New() *cobra.Command {
	return newRoot(&rootOptions{})
}

func newRoot(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diary",
		Short: "A monthly journal you can write to, chart and ask questions of.",
		Long: `diary keeps free-form entries in one file per month, charts the daily
satisfaction, neuralgia and exercise template, and answers questions about
recent entries with a language model.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default: $DIARY_CONFIG_PATH or ~/.diary/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.logFile, "logfile", "", "Append JSON logs to this file instead of stderr")
	cmd.PersistentFlags().BoolVar(&opts.pretty, "pretty", false, "Human-readable logs on stderr (not valid with --logfile)")
	cmd.PersistentFlags().StringVar(&opts.storePath, "store", "", "Override store.path from the config")

	addAdd(cmd, opts)
	addRead(cmd, opts)
	addMonths(cmd, opts)
	addAsk(cmd, opts)
	addTrend(cmd, opts)
	addThread(cmd, opts)
	addMCP(cmd, opts)
	addConfig(cmd, opts)
	return cmd
}

// withApp opens the app for the duration of fn.
func withApp(opts *rootOptions, fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := opts.open()
		if err != nil {
			return err
		}
		defer a.Close() //nolint:errcheck // Nothing to do about a failed close on exit
		return fn(cmd, a, args)
	}
}
