package cli

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/aschepis/backscratcher/diary/conversations"
)

func addThread(topLevel *cobra.Command, opts *rootOptions) {
	cmd := &cobra.Command{
		Use:   "thread",
		Short: "Hold named conversations about your journal",
		Example: `
diary thread new "Sleep patterns"
diary thread send Sleep_patterns --journal why am I tired on Mondays?
diary thread show Sleep_patterns`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	addThreadNew(cmd, opts)
	addThreadList(cmd, opts)
	addThreadShow(cmd, opts)
	addThreadSend(cmd, opts)
	addThreadClear(cmd, opts)
	addThreadEdit(cmd, opts)

	topLevel.AddCommand(cmd)
}

func addThreadNew(parent *cobra.Command, opts *rootOptions) {
	parent.AddCommand(&cobra.Command{
		Use:   "new <title...>",
		Short: "Create a thread, or reuse one with the same title",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			h, err := a.threads.CreateThread(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			_, _ = color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Thread %s ready\n", h.Name)
			return nil
		}),
	})
}

func addThreadList(parent *cobra.Command, opts *rootOptions) {
	parent.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List threads",
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			names, err := a.threads.ListThreads(cmd.Context())
			if err != nil {
				return err
			}
			if len(names) == 0 {
				_, _ = color.New(color.Faint, color.Italic).Fprintln(cmd.OutOrStdout(), " none")
				return nil
			}
			for _, name := range names {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		}),
	})
}

func addThreadShow(parent *cobra.Command, opts *rootOptions) {
	parent.AddCommand(&cobra.Command{
		Use:   "show <name>",
		Short: "Print every message of a thread",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			thread, err := a.threads.LoadThread(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printThread(cmd, thread)
			return nil
		}),
	})
}

func printThread(cmd *cobra.Command, thread *conversations.Thread) {
	out := cmd.OutOrStdout()
	title := thread.Title
	if title == "" {
		title = thread.Name
	}
	_, _ = color.New(color.Bold, color.Underline).Fprintln(out, title)
	if len(thread.Messages) == 0 {
		_, _ = color.New(color.Faint, color.Italic).Fprintln(out, " no messages")
		return
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.Wrap = true
	tbl.MaxColWidth = 80
	user := color.New(color.FgCyan, color.Bold)
	assistant := color.New(color.FgMagenta, color.Bold)
	for _, m := range thread.Messages {
		who := user.Sprint("you")
		if m.Role == conversations.RoleAssistant {
			who = assistant.Sprint("ai")
		}
		stamp := ""
		if !m.Timestamp.IsZero() {
			stamp = color.New(color.Faint).Sprint(m.Timestamp.Local().Format("2006-01-02 15:04"))
		}
		tbl.AddRow(stamp, who, m.Content)
	}
	_, _ = fmt.Fprintln(out, tbl)
}

func addThreadSend(parent *cobra.Command, opts *rootOptions) {
	var withJournal bool

	cmd := &cobra.Command{
		Use:   "send <name> <message...>",
		Short: "Send a message to a thread and print the reply",
		Args:  cobra.MinimumNArgs(2),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			req, err := a.requester()
			if err != nil {
				return err
			}
			h, err := a.threads.CreateThread(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			reply, err := req.Send(cmd.Context(), h, strings.Join(args[1:], " "), withJournal)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), reply)
			return nil
		}),
	}

	cmd.Flags().BoolVarP(&withJournal, "journal", "j", false, "Include recent journal entries as context")
	parent.AddCommand(cmd)
}

func addThreadClear(parent *cobra.Command, opts *rootOptions) {
	parent.AddCommand(&cobra.Command{
		Use:   "clear <name>",
		Short: "Remove every message from a thread",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			h, ok, err := a.threads.Find(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("thread %s not found", conversations.SanitizeTitle(args[0]))
			}
			if err := a.threads.ClearThread(cmd.Context(), h); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", h.Name)
			return nil
		}),
	})
}

func addThreadEdit(parent *cobra.Command, opts *rootOptions) {
	parent.AddCommand(&cobra.Command{
		Use:   "edit <name>",
		Short: "Edit a thread's messages in $EDITOR",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			h, ok, err := a.threads.Find(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("thread %s not found", conversations.SanitizeTitle(args[0]))
			}
			thread, err := a.threads.LoadThread(cmd.Context(), h.Name)
			if err != nil {
				return err
			}
			before, err := conversations.Encode(thread)
			if err != nil {
				return err
			}

			f, err := os.CreateTemp("", h.Name+"-*.json")
			if err != nil {
				return err
			}
			path := f.Name()
			defer os.Remove(path) //nolint:errcheck // Best-effort temp file cleanup
			if _, err := f.Write(before); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			edit := opts.editor
			if edit == nil {
				edit = runEditor
			}
			if err := edit(path); err != nil {
				return fmt.Errorf("editor failed: %w", err)
			}

			after, err := os.ReadFile(path) //#nosec G304 -- temp file created above
			if err != nil {
				return err
			}
			if bytes.Equal(before, after) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No changes")
				return nil
			}
			edited, err := conversations.Decode(h.Name, after)
			if err != nil {
				return fmt.Errorf("edited thread is invalid, nothing saved: %w", err)
			}
			if err := a.threads.SaveThread(cmd.Context(), h, edited); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d messages)\n", h.Name, len(edited.Messages))
			return nil
		}),
	})
}

func runEditor(path string) error {
	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	//nolint:gosec // G204: The editor comes from the user's environment
	c := exec.Command(parts[0], append(parts[1:], path)...)
	c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
	return c.Run()
}
