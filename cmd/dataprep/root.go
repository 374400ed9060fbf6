package main

import (
	"github.com/spf13/cobra"

	"dataprep/internal/config"
)

// commandContext carries the flag values and lazily loaded
// configuration shared by all subcommands.
type commandContext struct {
	envFlag      *string
	datasetsFlag *string

	cfg *config.Config
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(*c.envFlag)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

func (c *commandContext) loadDatasets() ([]config.DatasetSpec, error) {
	return config.LoadDatasets(*c.datasetsFlag)
}

func newRootCommand() *cobra.Command {
	var envFlag string
	var datasetsFlag string

	ctx := &commandContext{envFlag: &envFlag, datasetsFlag: &datasetsFlag}

	rootCmd := &cobra.Command{
		Use:           "dataprep",
		Short:         "Download, pair and enrich speech corpora",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&envFlag, "env", ".env", "Environment file path")
	rootCmd.PersistentFlags().StringVar(&datasetsFlag, "datasets", "datasets.toml", "Dataset descriptor file")

	rootCmd.AddCommand(newDownloadCommand(ctx))
	rootCmd.AddCommand(newPrepareCommand(ctx))
	rootCmd.AddCommand(newCutCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}
