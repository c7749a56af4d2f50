// Package report writes the run artifacts: succeeded and failed table
// lists, dry-run plans, and the post-discovery table count summary.
package report

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/snowlift/snowlift/internal/schema"
)

// Writer writes timestamped result files into a reports directory. All
// files of one run share the same run ID.
type Writer struct {
	Directory string
	Logger    *slog.Logger

	runID string
}

// NewWriter creates a Writer with a run ID fixed at construction time.
func NewWriter(directory string, logger *slog.Logger) *Writer {
	return &Writer{
		Directory: directory,
		Logger:    logger,
		runID:     time.Now().Format("2006-01-02_15-04-05"),
	}
}

// SucceededPath returns the succeeded tables file for this run.
func (w *Writer) SucceededPath() string {
	return filepath.Join(w.Directory, fmt.Sprintf("succeeded_tables_%s.yml", w.runID))
}

// FailedPath returns the failed tables file for this run.
func (w *Writer) FailedPath() string {
	return filepath.Join(w.Directory, fmt.Sprintf("failed_tables_%s.yml", w.runID))
}

// DryRunPath returns the dry-run plan file for this run.
func (w *Writer) DryRunPath() string {
	return filepath.Join(w.Directory, fmt.Sprintf("dry_mode_%s.yml", w.runID))
}

// WriteResults writes the succeeded and failed table lists. Both files
// are always written, empty when there is nothing to report, so a run
// always leaves a complete pair behind.
func (w *Writer) WriteResults(succeeded, failed []schema.Table) error {
	if err := w.writeTables(w.SucceededPath(), succeeded); err != nil {
		return err
	}
	w.Logger.Info("wrote succeeded tables", "count", len(succeeded), "file", w.SucceededPath())

	if err := w.writeTables(w.FailedPath(), failed); err != nil {
		return err
	}
	if len(failed) > 0 {
		w.Logger.Error("some tables failed", "count", len(failed), "file", w.FailedPath())
	} else {
		w.Logger.Info("all tables processed successfully")
	}
	return nil
}

// WriteDryRun writes the dry-run plan: every table with its generated
// queries.
func (w *Writer) WriteDryRun(tables []schema.Table) error {
	if err := w.writeTables(w.DryRunPath(), tables); err != nil {
		return err
	}
	w.Logger.Info("dry run analysis saved", "count", len(tables), "file", w.DryRunPath())
	return nil
}

func (w *Writer) writeTables(path string, tables []schema.Table) error {
	if err := os.MkdirAll(w.Directory, 0o755); err != nil {
		return fmt.Errorf("creating reports directory: %w", err)
	}

	var data []byte
	if len(tables) > 0 {
		var err error
		data, err = yaml.Marshal(tables)
		if err != nil {
			return fmt.Errorf("marshaling tables: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Summary renders table counts grouped by database.schema, sorted, with
// a total line.
func Summary(tables []schema.Table) string {
	if len(tables) == 0 {
		return "No tables were found to count."
	}

	counts := make(map[string]int)
	for _, t := range tables {
		counts[t.Database+"."+t.Schema]++
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := fmt.Sprintf("%-40s %s\n", "Schema", "Number of Tables")
	total := 0
	for _, k := range keys {
		out += fmt.Sprintf("%-40s %d\n", k, counts[k])
		total += counts[k]
	}
	out += fmt.Sprintf("%-40s %d", "Total", total)
	return out
}
