package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aschepis/backscratcher/diary/config"
)

func addConfig(topLevel *cobra.Command, opts *rootOptions) {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(opts.resolvedConfigPath())
			if err != nil {
				return err
			}
			redacted := cfg.Redacted()
			data, err := yaml.Marshal(&redacted)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.resolvedConfigPath()
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			cfg := config.Defaults()
			if err := config.SaveConfig(&cfg, path); err != nil {
				return err
			}
			_, _ = color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	cmd.AddCommand(initCmd)

	topLevel.AddCommand(cmd)
}

func (o *rootOptions) resolvedConfigPath() string {
	if o.configPath != "" {
		return o.configPath
	}
	return config.GetConfigPath()
}
