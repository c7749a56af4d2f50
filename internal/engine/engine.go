// Package engine ties a run together: discovery, query generation, the
// migration executor and the report files.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/snowlift/snowlift/internal/config"
	"github.com/snowlift/snowlift/internal/discovery"
	"github.com/snowlift/snowlift/internal/ident"
	"github.com/snowlift/snowlift/internal/migration"
	"github.com/snowlift/snowlift/internal/querygen"
	"github.com/snowlift/snowlift/internal/report"
	"github.com/snowlift/snowlift/internal/schema"
	"github.com/snowlift/snowlift/internal/source"
	"github.com/snowlift/snowlift/internal/target"
	"github.com/snowlift/snowlift/internal/typemap"
	"github.com/snowlift/snowlift/internal/wizard"
)

// Options control a single run.
type Options struct {
	DryRun      bool // generate queries and write the plan, touch nothing remote
	Interactive bool // prompt per table instead of single-attempt mode
	Sample      bool // LIMIT the copy queries for a cheap trial run
	Verbose     bool // log generated queries
}

// Engine is the migration engine shared by the CLI commands. Session
// and Loader are replaceable for tests.
type Engine struct {
	Config  *config.Config
	Logger  *slog.Logger
	Session source.Session
	Loader  target.Loader
	Decider migration.Decider // overrides the interactive wizard when set
}

// New creates an Engine wired to Snowflake and BigQuery.
func New(cfg *config.Config, logger *slog.Logger) *Engine {
	return &Engine{
		Config:  cfg,
		Logger:  logger,
		Session: source.NewSnowflake(cfg.Snowflake.DSN),
		Loader: target.NewBigQuery(cfg.BigQuery.ProjectID, cfg.BigQuery.GCSURI,
			cfg.BigQuery.Location, cfg.BigQuery.DatasetPrefix, logger),
	}
}

// Plan connects to Snowflake, discovers the configured tables and
// attaches their cleaning and copy queries. The session stays open for
// a following Run; callers that stop here close it themselves.
func (e *Engine) Plan(ctx context.Context, sample bool) ([]schema.Table, error) {
	entries, err := discovery.LoadEntries(e.Config.TablesFile)
	if err != nil {
		return nil, fmt.Errorf("loading tables file: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no entries in %s", e.Config.TablesFile)
	}

	if err := e.Session.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connecting to Snowflake: %w", err)
	}

	tables, err := discovery.New(e.Session, e.Logger).Discover(ctx, entries)
	if err != nil {
		return nil, fmt.Errorf("discovering tables: %w", err)
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("no tables discovered for the configured entries")
	}
	e.Logger.Info("tables discovered", "count", len(tables))

	gen := querygen.New(e.Config.Snowflake.ExternalStage, e.Logger)
	gen.SampleLimit = e.Config.SampleLimit
	return gen.Generate(tables, sample), nil
}

// Run executes a full migration: plan, then either write the dry-run
// report or migrate every table and write the result reports.
func (e *Engine) Run(ctx context.Context, opts Options) (*migration.Result, error) {
	defer e.Session.Close()

	tables, err := e.Plan(ctx, opts.Sample)
	if err != nil {
		return nil, err
	}

	writer := report.NewWriter(e.Config.ReportsDir, e.Logger)

	if opts.DryRun {
		e.Logger.Info("dry run, no data will be moved")
		if err := writer.WriteDryRun(tables); err != nil {
			return nil, err
		}
		return &migration.Result{}, nil
	}

	if err := e.Loader.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connecting to BigQuery: %w", err)
	}
	defer e.Loader.Close()

	decider := e.Decider
	if decider == nil && opts.Interactive {
		w := wizard.New(ident.Default(), typemap.DefaultSnowflake(), e.Logger)
		w.Verbose = opts.Verbose
		decider = w
	}

	exec := migration.NewExecutor(e.Session, e.Loader, decider, e.Logger)
	exec.Verbose = opts.Verbose

	res := exec.Run(ctx, tables)

	if err := writer.WriteResults(res.Succeeded, res.Failed); err != nil {
		return res, err
	}
	return res, nil
}
