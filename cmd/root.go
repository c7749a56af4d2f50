package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/snowlift/snowlift/internal/config"
)

var (
	cfgFile string
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "snowlift",
	Short: "Snowflake to BigQuery table migration",
	Long: `Snowlift moves Snowflake tables into BigQuery: it unloads each table
to a GCS external stage as Parquet, loads the staged files into a
BigQuery dataset, and verifies row counts.

Tables to migrate are listed in a YAML file referenced by the config.
Run ` + "`snowlift init`" + ` to create a config, ` + "`snowlift plan`" + ` to preview
the generated queries, and ` + "`snowlift migrate`" + ` to move data.`,
}

func Execute() {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.snowlift/snowlift.yaml)")
}

// loadConfig reads the config honoring --config and validates it.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = config.ExpandHome(config.DefaultPath)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
