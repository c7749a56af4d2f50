package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/snowlift/snowlift/internal/engine"
	"github.com/snowlift/snowlift/internal/logging"
	"github.com/snowlift/snowlift/internal/report"
)

var planSample bool

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the discovered tables and generated queries",
	Long: `Connect to Snowflake, discover the configured tables and print the
cleaning and copy queries that a migration would run. BigQuery is not
touched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		logger, err := logging.Setup(cfg.Logging.Level, cfg.Logging.Directory)
		if err != nil {
			return fmt.Errorf("setting up logging: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		eng := engine.New(cfg, logger)
		defer eng.Session.Close()

		tables, err := eng.Plan(ctx, planSample)
		if err != nil {
			return err
		}

		fmt.Println(report.Summary(tables))
		fmt.Println()

		for i := range tables {
			t := &tables[i]
			fmt.Printf("-- %s\n", t.FullName())
			fmt.Println(t.CleaningQuery)
			if t.CopyQuery != "" {
				fmt.Println(t.CopyQuery)
			} else {
				fmt.Println("-- no copy query could be generated")
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	planCmd.Flags().BoolVar(&planSample, "sample", false, "include the sample LIMIT in copy queries")
	rootCmd.AddCommand(planCmd)
}
