// Package querygen builds the Snowflake statements that stage table data
// to GCS: a REMOVE to clear the stage path and a COPY INTO that unloads
// the table as Snappy-compressed Parquet.
package querygen

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/snowlift/snowlift/internal/ident"
	"github.com/snowlift/snowlift/internal/schema"
)

// DefaultSampleLimit is the LIMIT applied in sample mode when the config
// does not set one.
const DefaultSampleLimit = 100

// timestampTypes are the Snowflake types that carry a time zone and get
// cast to TIMESTAMP_NTZ on export, since Parquet has no zoned timestamp.
var timestampTypes = map[string]bool{
	"TIMESTAMP_TZ":  true,
	"TIMESTAMP_LTZ": true,
}

// Generator produces cleaning and copy queries against an external
// stage. The generated text is part of the tool's contract: edited
// queries and downstream schema inference both parse it back.
type Generator struct {
	ExternalStage  string
	SampleLimit    int
	CastTimestamps bool
	Normalizer     *ident.Normalizer
	Logger         *slog.Logger
}

// New returns a Generator with the default normalizer and sample limit.
func New(externalStage string, logger *slog.Logger) *Generator {
	return &Generator{
		ExternalStage:  externalStage,
		SampleLimit:    DefaultSampleLimit,
		CastTimestamps: true,
		Normalizer:     ident.Default(),
		Logger:         logger,
	}
}

// StoragePath returns the stage-relative path for a table's data files,
// always lowercase with a trailing slash.
func StoragePath(database, schemaName, table string) string {
	return fmt.Sprintf("%s/%s/%s/",
		strings.ToLower(database), strings.ToLower(schemaName), strings.ToLower(table))
}

// CleaningQuery returns the REMOVE statement that clears previously
// staged data for a table.
func (g *Generator) CleaningQuery(database, schemaName, table string) string {
	return fmt.Sprintf("REMOVE @%s/%s", g.ExternalStage, StoragePath(database, schemaName, table))
}

// CopyQuery returns the COPY INTO statement that unloads a table to the
// stage. Sample mode appends a LIMIT clause.
func (g *Generator) CopyQuery(t *schema.Table, sample bool) (string, error) {
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("no columns for table %s", t.FullName())
	}

	exprs := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		exprs[i] = g.columnExpression(col)
	}

	sel := fmt.Sprintf("    SELECT\n        %s\n    FROM %s",
		strings.Join(exprs, ",\n        "), t.FullName())
	if sample {
		limit := g.SampleLimit
		if limit <= 0 {
			limit = DefaultSampleLimit
		}
		sel += fmt.Sprintf("\n    LIMIT %d", limit)
	}

	query := fmt.Sprintf(`COPY INTO @%s/%s
FROM (
%s
)
FILE_FORMAT = (TYPE = PARQUET, SNAPPY_COMPRESSION = TRUE)
OVERWRITE = TRUE
HEADER = TRUE;`,
		g.ExternalStage, StoragePath(t.Database, t.Schema, t.Name), sel)

	return query, nil
}

// columnExpression builds one SELECT list entry: the quoted source
// column aliased to its normalized BigQuery name.
func (g *Generator) columnExpression(col schema.Column) string {
	quoted := `"` + strings.ReplaceAll(col.Name, `"`, `""`) + `"`
	alias := `"` + g.Normalizer.Normalize(quoted) + `"`

	if g.CastTimestamps && timestampTypes[col.DataType] {
		return fmt.Sprintf("%s::TIMESTAMP_NTZ AS %s", quoted, alias)
	}
	return fmt.Sprintf("%s AS %s", quoted, alias)
}

// Generate attaches cleaning and copy queries to every table in place.
// A table whose copy query cannot be generated keeps its cleaning query
// and an empty copy query, so the run can still clean its stage path
// while the load step reports the missing query.
func (g *Generator) Generate(tables []schema.Table, sample bool) []schema.Table {
	for i := range tables {
		t := &tables[i]
		t.CleaningQuery = g.CleaningQuery(t.Database, t.Schema, t.Name)

		copyQuery, err := g.CopyQuery(t, sample)
		if err != nil {
			g.Logger.Error("generating copy query", "table", t.FullName(), "error", err)
			t.CopyQuery = ""
			continue
		}
		t.CopyQuery = copyQuery
	}
	return tables
}
