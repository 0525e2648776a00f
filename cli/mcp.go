package cli

import (
	"github.com/spf13/cobra"

	"github.com/aschepis/backscratcher/diary/mcp"
)

func addMCP(topLevel *cobra.Command, opts *rootOptions) {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the Model Context Protocol server on stdio",
		Long: `Launch an MCP server that exposes journal appends, reads, questions,
the metrics window and conversation threads as tools. Logs go to stderr or
--logfile so stdout stays reserved for the protocol.`,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			req, err := a.requester()
			if err != nil {
				return err
			}
			return mcp.ServeStdio(mcp.Deps{
				Journal:    a.journal,
				Threads:    a.threads,
				Insight:    req,
				Extractor:  a.extractor,
				WindowDays: a.cfg.Metrics.WindowDays,
				Logger:     a.logger,
			})
		}),
	}
	topLevel.AddCommand(cmd)
}
