package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/snowlift/snowlift/internal/engine"
	"github.com/snowlift/snowlift/internal/lock"
	"github.com/snowlift/snowlift/internal/logging"
)

var (
	migrateDryRun      bool
	migrateInteractive bool
	migrateSample      bool
	migrateVerbose     bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the configured tables to BigQuery",
	Long: `Discover the configured tables, unload each one to the GCS external
stage, load the staged Parquet into BigQuery and verify row counts.
Results are written as YAML reports under the reports directory.

With --interactive, every table is confirmed before work starts and
failed steps offer retry, edit and skip choices. With --sample, copy
queries carry a LIMIT so a trial run stays cheap.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		logger, err := logging.Setup(cfg.Logging.Level, cfg.Logging.Directory)
		if err != nil {
			return fmt.Errorf("setting up logging: %w", err)
		}

		if err := lock.Acquire(""); err != nil {
			return err
		}
		defer lock.Release("")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		eng := engine.New(cfg, logger)
		res, err := eng.Run(ctx, engine.Options{
			DryRun:      migrateDryRun,
			Interactive: migrateInteractive,
			Sample:      migrateSample,
			Verbose:     migrateVerbose,
		})
		if err != nil {
			return err
		}

		if migrateDryRun {
			fmt.Println("Dry run complete, see the dry_mode report for the generated queries.")
			return nil
		}

		fmt.Printf("Migration finished: %d succeeded, %d failed.\n", len(res.Succeeded), len(res.Failed))
		if len(res.Failed) > 0 {
			for _, t := range res.Failed {
				fmt.Printf("  %s: %s\n", t.FullName(), t.Error)
			}
			return fmt.Errorf("%d table(s) failed", len(res.Failed))
		}
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "generate queries and write the plan without moving data")
	migrateCmd.Flags().BoolVarP(&migrateInteractive, "interactive", "i", false, "confirm and edit each table interactively")
	migrateCmd.Flags().BoolVar(&migrateSample, "sample", false, "copy only a sample of rows per table")
	migrateCmd.Flags().BoolVarP(&migrateVerbose, "verbose", "v", false, "log generated queries")
	rootCmd.AddCommand(migrateCmd)
}
