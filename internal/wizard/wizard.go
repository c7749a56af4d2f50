// Package wizard implements the interactive side of a migration run:
// per-table confirmation, retry decisions after failed Snowflake
// statements, and editing of queries and BigQuery load options.
package wizard

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/snowlift/snowlift/internal/ident"
	"github.com/snowlift/snowlift/internal/migration"
	"github.com/snowlift/snowlift/internal/schema"
	"github.com/snowlift/snowlift/internal/typemap"
)

const (
	choiceProceed       = "proceed"
	choiceSkip          = "skip"
	choiceRetry         = "retry"
	choiceEdit          = "edit"
	choiceAbort         = "abort"
	choiceEditCleaning  = "edit-cleaning"
	choiceEditCopy      = "edit-copy"
	choiceEditSchema    = "edit-schema"
	choiceEditPartition = "edit-partition"
	choiceEditCluster   = "edit-cluster"

	choiceDone   = "(done)"
	choiceRemove = "(remove)"
)

// exampleSchema seeds the schema editor when nothing can be inferred.
const exampleSchema = `[
  {
    "name": "id",
    "type": "INTEGER",
    "mode": "REQUIRED"
  },
  {
    "name": "name",
    "type": "STRING",
    "mode": "NULLABLE"
  },
  {
    "name": "created_at",
    "type": "TIMESTAMP",
    "mode": "NULLABLE"
  }
]`

// Wizard answers the executor's decision points through terminal
// prompts. Edits mutate the table in place; the executor picks them up
// on the next attempt.
type Wizard struct {
	Prompt     prompter
	Editor     Editor
	Normalizer *ident.Normalizer
	TypeMap    *typemap.TypeMap
	Logger     *slog.Logger
	Verbose    bool
}

var _ migration.Decider = (*Wizard)(nil)

// New creates a Wizard backed by bubbletea prompts and the user's
// external editor.
func New(n *ident.Normalizer, tm *typemap.TypeMap, logger *slog.Logger) *Wizard {
	return &Wizard{
		Prompt:     teaPrompter{},
		Editor:     ExternalEditor{},
		Normalizer: n,
		TypeMap:    tm,
		Logger:     logger,
	}
}

// ConfirmTable asks what to do with a table before any work starts. The
// edit choices loop back into the same prompt.
func (w *Wizard) ConfirmTable(t *schema.Table) migration.Action {
	if w.Verbose {
		w.Logger.Info("cleaning query", "table", t.FullName(), "query", t.CleaningQuery)
		w.Logger.Info("copy query", "table", t.FullName(), "query", t.CopyQuery)
	}

	choices := []choice{
		{"Proceed with migration", choiceProceed},
		{"Skip to next table", choiceSkip},
		{"Edit cleaning query", choiceEditCleaning},
		{"Edit copy query", choiceEditCopy},
		{"Abort migration", choiceAbort},
	}

	for {
		sel, err := w.Prompt.Choose(fmt.Sprintf("What would you like to do with %s?", t.FullName()), choices)
		if err != nil {
			return migration.ActionAbort
		}

		switch sel {
		case choiceEditCleaning:
			if w.editQuery(t, &t.CleaningQuery, "cleaning") {
				w.Logger.Info("cleaning query updated", "table", t.FullName())
			}
		case choiceEditCopy:
			if w.editQuery(t, &t.CopyQuery, "copy") {
				w.Logger.Info("copy query updated", "table", t.FullName())
			}
		case choiceProceed:
			return migration.ActionProceed
		case choiceSkip:
			return migration.ActionSkip
		default:
			return migration.ActionAbort
		}
	}
}

// RetryStep asks how to handle a failed cleaning or copy statement.
func (w *Wizard) RetryStep(t *schema.Table, step migration.Step, execErr error) migration.Action {
	choices := []choice{
		{"Retry", choiceRetry},
		{"Edit query and retry", choiceEdit},
		{"Skip to next table", choiceSkip},
	}

	sel, err := w.Prompt.Choose(fmt.Sprintf("%s failed for %s: %v. What would you like to do?",
		step, t.FullName(), execErr), choices)
	if err != nil {
		return migration.ActionSkip
	}

	switch sel {
	case choiceRetry:
		return migration.ActionRetry
	case choiceEdit:
		query := &t.CopyQuery
		kind := "copy"
		if step == migration.StepCleaning {
			query = &t.CleaningQuery
			kind = "cleaning"
		}
		if w.editQuery(t, query, kind) {
			return migration.ActionRetry
		}
		return migration.ActionSkip
	default:
		return migration.ActionSkip
	}
}

// ConfirmLoad asks whether to load a table into BigQuery, offering edits
// of the schema, partitioning and clustering settings. It is also the
// retry prompt after a failed load, with loadErr set.
func (w *Wizard) ConfirmLoad(t *schema.Table, loadErr error) migration.Action {
	w.Logger.Info("bigquery settings", "table", t.FullName(), "settings", loadSettings(t))
	if t.CustomSchema == "" && (t.PartitionField != "" || len(t.ClusterFields) > 0) {
		w.Logger.Warn("custom schema required for partitioning and clustering options")
	}

	title := fmt.Sprintf("BigQuery table loading for %s", t.FullName())
	if loadErr != nil {
		title = fmt.Sprintf("BigQuery loading failed for %s: %v. What would you like to do?", t.FullName(), loadErr)
	}

	choices := []choice{
		{"Proceed with loading", choiceProceed},
		{"Skip to next table", choiceSkip},
		{"Edit schema", choiceEditSchema},
		{"Edit partition settings", choiceEditPartition},
		{"Edit cluster settings", choiceEditCluster},
		{"Abort migration", choiceAbort},
	}

	for {
		sel, err := w.Prompt.Choose(title, choices)
		if err != nil {
			return migration.ActionAbort
		}

		switch sel {
		case choiceEditSchema:
			if w.editSchema(t) {
				w.Logger.Info("schema settings updated", "table", t.FullName())
			}
		case choiceEditPartition:
			if w.editPartition(t) {
				w.Logger.Info("partitioning settings updated", "table", t.FullName())
			}
		case choiceEditCluster:
			if w.editCluster(t) {
				w.Logger.Info("clustering settings updated", "table", t.FullName())
			}
		case choiceProceed:
			return migration.ActionProceed
		case choiceSkip:
			return migration.ActionSkip
		default:
			return migration.ActionAbort
		}
	}
}

// editQuery opens a query in the editor. An unchanged result still
// means retry; an empty result or an editor failure means skip.
func (w *Wizard) editQuery(t *schema.Table, query *string, kind string) bool {
	edited, err := w.Editor.Edit(*query, ".sql")
	if err != nil {
		w.Logger.Error("editor failed", "table", t.FullName(), "error", err)
		return false
	}

	switch {
	case edited == "":
		w.Logger.Info("empty query, skipping", "table", t.FullName())
		return false
	case edited == strings.TrimSpace(*query):
		w.Logger.Info("no changes made, retrying with original query", "table", t.FullName(), "step", kind)
		return true
	default:
		*query = edited
		return true
	}
}

// editSchema opens the custom schema in the editor, seeded from the
// inferred schema when none is set. Emptying the content removes the
// custom schema and falls back to auto-detection.
func (w *Wizard) editSchema(t *schema.Table) bool {
	template := t.CustomSchema
	if template == "" {
		template = w.inferredSchemaJSON(t)
	}
	if template == "" {
		w.Logger.Warn("could not infer schema, using example template", "table", t.FullName())
		template = exampleSchema
	}

	edited, err := w.Editor.Edit(template, ".json")
	if err != nil {
		w.Logger.Error("editor failed", "table", t.FullName(), "error", err)
		return false
	}

	if edited == "" {
		if t.CustomSchema != "" {
			t.CustomSchema = ""
			w.Logger.Info("custom schema removed, will use auto-detection", "table", t.FullName())
		}
		return true
	}

	fields, err := schema.ParseFieldsJSON(edited)
	if err != nil {
		w.Logger.Warn("schema not updated", "table", t.FullName(), "error", err)
		return false
	}

	t.CustomSchema = edited
	w.Logger.Info("custom schema updated", "table", t.FullName(), "fields", len(fields))
	return true
}

// editPartition selects a partition column from the temporal fields of
// the custom schema, auto-generating the schema first when needed.
func (w *Wizard) editPartition(t *schema.Table) bool {
	if !w.ensureCustomSchema(t) {
		return false
	}

	fields, err := schema.ParseFieldsJSON(t.CustomSchema)
	if err != nil {
		w.Logger.Error("custom schema is invalid", "table", t.FullName(), "error", err)
		return false
	}

	eligible := schema.TemporalFields(fields)
	if len(eligible) == 0 {
		w.Logger.Error("no DATE, DATETIME or TIMESTAMP columns available for partitioning", "table", t.FullName())
		return false
	}

	choices := []choice{{"(Remove partitioning)", choiceRemove}}
	for _, f := range eligible {
		choices = append(choices, choice{fmt.Sprintf("%s (%s)", f.Name, f.Type), f.Name})
	}

	sel, err := w.Prompt.Choose(fmt.Sprintf("Select partition column for %s", t.FullName()), choices)
	if err != nil {
		return false
	}
	if sel == choiceRemove {
		t.PartitionField = ""
		t.PartitionType = ""
		w.Logger.Info("partitioning removed", "table", t.FullName())
		return true
	}

	partitionType, err := w.Prompt.Choose(fmt.Sprintf("Partition type for %s", sel), []choice{
		{"DAY", "DAY"}, {"HOUR", "HOUR"}, {"MONTH", "MONTH"}, {"YEAR", "YEAR"},
	})
	if err != nil {
		return false
	}

	t.PartitionField = sel
	t.PartitionType = partitionType
	return true
}

// editCluster selects up to four ordered clustering columns from the
// custom schema, auto-generating the schema first when needed.
func (w *Wizard) editCluster(t *schema.Table) bool {
	if !w.ensureCustomSchema(t) {
		return false
	}

	fields, err := schema.ParseFieldsJSON(t.CustomSchema)
	if err != nil {
		w.Logger.Error("custom schema is invalid", "table", t.FullName(), "error", err)
		return false
	}
	if len(fields) == 0 {
		w.Logger.Error("no columns available for clustering", "table", t.FullName())
		return false
	}

	var selected []string
	for len(selected) < 4 && len(selected) < len(fields) {
		var choices []choice
		if len(selected) > 0 {
			choices = append(choices, choice{"(Done - finish selection)", choiceDone})
		}
		choices = append(choices, choice{"(Remove all clustering)", choiceRemove})
		for _, f := range fields {
			if !containsString(selected, f.Name) {
				choices = append(choices, choice{fmt.Sprintf("%s (%s)", f.Name, f.Type), f.Name})
			}
		}

		title := fmt.Sprintf("Select clustering column %d of 4 for %s", len(selected)+1, t.FullName())
		sel, err := w.Prompt.Choose(title, choices)
		if err != nil {
			return false
		}

		if sel == choiceDone {
			break
		}
		if sel == choiceRemove {
			t.ClusterFields = nil
			w.Logger.Info("clustering removed", "table", t.FullName())
			return true
		}
		selected = append(selected, sel)
	}

	if len(selected) == 0 {
		return false
	}
	t.ClusterFields = selected
	return true
}

// ensureCustomSchema materializes the inferred schema on the table so
// partitioning and clustering edits have field definitions to offer.
func (w *Wizard) ensureCustomSchema(t *schema.Table) bool {
	if t.CustomSchema != "" {
		return true
	}
	encoded := w.inferredSchemaJSON(t)
	if encoded == "" {
		w.Logger.Error("could not infer schema; partitioning and clustering require a schema definition",
			"table", t.FullName())
		return false
	}
	t.CustomSchema = encoded
	w.Logger.Info("schema auto-generated from table columns and copy query", "table", t.FullName())
	return true
}

func (w *Wizard) inferredSchemaJSON(t *schema.Table) string {
	fields := schema.Infer(t, w.Normalizer, w.TypeMap)
	if len(fields) == 0 {
		return ""
	}
	encoded, err := schema.EncodeFieldsJSON(fields)
	if err != nil {
		return ""
	}
	return encoded
}

func loadSettings(t *schema.Table) string {
	var opts []string
	if t.CustomSchema != "" {
		opts = append(opts, "Custom schema")
	}
	if t.PartitionField != "" {
		partitionType := t.PartitionType
		if partitionType == "" {
			partitionType = "DAY"
		}
		opts = append(opts, fmt.Sprintf("Partitioned by %s (%s)", t.PartitionField, partitionType))
	}
	if len(t.ClusterFields) > 0 {
		opts = append(opts, "Clustered by "+strings.Join(t.ClusterFields, ", "))
	}
	if len(opts) == 0 {
		return "Auto-detect schema, no partitioning/clustering"
	}
	return strings.Join(opts, "; ")
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
