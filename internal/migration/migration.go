// Package migration drives the per-table workflow: clean the stage,
// copy out of Snowflake, load into BigQuery and verify row counts.
package migration

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/snowlift/snowlift/internal/schema"
	"github.com/snowlift/snowlift/internal/source"
	"github.com/snowlift/snowlift/internal/target"
)

// Step identifies a Snowflake workflow step in retry prompts.
type Step string

const (
	StepCleaning Step = "Snowflake cleaning"
	StepCopy     Step = "Snowflake COPY"
)

// Action is a per-table decision.
type Action int

const (
	ActionProceed Action = iota
	ActionRetry
	ActionSkip
	ActionAbort
)

// Decider supplies decisions during an interactive run. Implementations
// may edit the table's queries and load options in place before
// returning; the executor re-reads them on the next attempt. A nil
// Decider means non-interactive: every step gets exactly one attempt.
type Decider interface {
	// ConfirmTable is asked before any work starts on a table.
	// Returns ActionProceed, ActionSkip or ActionAbort.
	ConfirmTable(t *schema.Table) Action

	// RetryStep is asked after a failed cleaning or copy statement.
	// Returns ActionRetry or ActionSkip.
	RetryStep(t *schema.Table, step Step, execErr error) Action

	// ConfirmLoad is asked before the BigQuery load and again after a
	// failed one (with the error). Returns ActionProceed, ActionSkip or
	// ActionAbort.
	ConfirmLoad(t *schema.Table, loadErr error) Action
}

// Result collects per-table outcomes in processing order.
type Result struct {
	Succeeded []schema.Table
	Failed    []schema.Table
}

// Executor runs the migration workflow over a prepared table list.
type Executor struct {
	Session source.Session
	Loader  target.Loader
	Decider Decider // nil disables interaction
	Logger  *slog.Logger
	Verbose bool
}

// NewExecutor creates an Executor.
func NewExecutor(session source.Session, loader target.Loader, decider Decider, logger *slog.Logger) *Executor {
	return &Executor{
		Session: session,
		Loader:  loader,
		Decider: decider,
		Logger:  logger,
	}
}

type outcome int

const (
	outcomeOK outcome = iota
	outcomeFailed
	outcomeAborted
	outcomeInterrupted
)

// Run processes every table in order. A user abort or a context
// cancellation stops the batch; the tables not yet attempted are
// recorded as failed with the corresponding reason, and their remote
// state is never touched.
func (e *Executor) Run(ctx context.Context, tables []schema.Table) *Result {
	res := &Result{}

	for i := range tables {
		t := &tables[i]

		if ctx.Err() != nil {
			e.Logger.Warn("migration interrupted")
			e.failRemaining(res, tables[i:], "Aborted by user (Ctrl+C)")
			break
		}

		if e.Decider != nil {
			switch e.Decider.ConfirmTable(t) {
			case ActionAbort:
				e.failRemaining(res, tables[i:], "Aborted by user")
				return res
			case ActionSkip:
				e.fail(res, t, "Skipped by user")
				continue
			}
		}

		how, reason := e.migrateTable(ctx, t)
		switch how {
		case outcomeOK:
			e.Logger.Info("table migrated", "table", t.FullName())
			res.Succeeded = append(res.Succeeded, *t)
		case outcomeFailed:
			e.fail(res, t, reason)
		case outcomeAborted:
			e.fail(res, t, reason)
			e.failRemaining(res, tables[i+1:], "Aborted by user")
			return res
		case outcomeInterrupted:
			e.failRemaining(res, tables[i:], "Aborted by user (Ctrl+C)")
			return res
		}
	}

	return res
}

// migrateTable walks one table through cleaning, copy, load and count
// verification.
func (e *Executor) migrateTable(ctx context.Context, t *schema.Table) (outcome, string) {
	e.Logger.Info("processing table", "table", t.FullName())
	if e.Verbose {
		e.Logger.Info("cleaning query", "table", t.FullName(), "query", t.CleaningQuery)
		e.Logger.Info("copy query", "table", t.FullName(), "query", t.CopyQuery)
	}

	// Cleaning: clear previously staged files.
	for {
		if ctx.Err() != nil {
			return outcomeInterrupted, ""
		}
		if t.CleaningQuery == "" {
			return outcomeFailed, "no cleaning query available"
		}
		err := e.Session.Exec(ctx, t.Database, t.CleaningQuery)
		if err == nil {
			break
		}
		e.Logger.Error("cleaning failed", "table", t.FullName(), "error", err)
		if e.Decider == nil {
			return outcomeFailed, fmt.Sprintf("Snowflake cleaning failed: %v", err)
		}
		if e.Decider.RetryStep(t, StepCleaning, err) != ActionRetry {
			return outcomeFailed, fmt.Sprintf("Snowflake cleaning failed: %v", err)
		}
	}

	// Copy: unload the table to the stage.
	for {
		if ctx.Err() != nil {
			return outcomeInterrupted, ""
		}
		if t.CopyQuery == "" {
			return outcomeFailed, "no copy query available"
		}
		err := e.Session.Exec(ctx, t.Database, t.CopyQuery)
		if err == nil {
			break
		}
		e.Logger.Error("copy failed", "table", t.FullName(), "error", err)
		if e.Decider == nil {
			return outcomeFailed, fmt.Sprintf("Snowflake COPY failed: %v", err)
		}
		if e.Decider.RetryStep(t, StepCopy, err) != ActionRetry {
			return outcomeFailed, fmt.Sprintf("Snowflake COPY failed: %v", err)
		}
	}

	// Load permission: the decider can still edit load options here.
	if e.Decider != nil {
		switch e.Decider.ConfirmLoad(t, nil) {
		case ActionAbort:
			return outcomeAborted, "BigQuery loading aborted by user"
		case ActionSkip:
			return outcomeFailed, "BigQuery loading skipped by user"
		}
	}

	if ctx.Err() != nil {
		return outcomeInterrupted, ""
	}

	sfCount, err := e.Session.RowCount(ctx, t.Database, t.Schema, t.Name)
	if err != nil {
		return outcomeFailed, fmt.Sprintf("Snowflake row count failed: %v", err)
	}

	// Load and verify.
	for {
		if ctx.Err() != nil {
			return outcomeInterrupted, ""
		}
		bqCount, err := e.Loader.Load(ctx, t)
		if err == nil {
			if sfCount != bqCount {
				reason := fmt.Sprintf("Row count mismatch: Snowflake=%d, BigQuery=%d", sfCount, bqCount)
				e.Logger.Error("verification failed", "table", t.FullName(), "reason", reason)
				return outcomeFailed, reason
			}
			e.Logger.Info("rows migrated", "table", t.FullName(), "rows", sfCount)
			return outcomeOK, ""
		}

		e.Logger.Error("load failed", "table", t.FullName(), "error", err)
		if e.Decider == nil {
			return outcomeFailed, fmt.Sprintf("BigQuery table creation failed: %v", err)
		}
		switch e.Decider.ConfirmLoad(t, err) {
		case ActionProceed:
			continue
		case ActionAbort:
			return outcomeAborted, fmt.Sprintf("BigQuery table creation failed: %v", err)
		default:
			return outcomeFailed, fmt.Sprintf("BigQuery table creation failed: %v", err)
		}
	}
}

func (e *Executor) fail(res *Result, t *schema.Table, reason string) {
	failed := *t
	failed.Error = reason
	res.Failed = append(res.Failed, failed)
}

func (e *Executor) failRemaining(res *Result, tables []schema.Table, reason string) {
	for i := range tables {
		e.fail(res, &tables[i], reason)
	}
}
