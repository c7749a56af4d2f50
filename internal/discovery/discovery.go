// Package discovery resolves the tables file into concrete tables with
// columns by querying Snowflake's INFORMATION_SCHEMA.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/snowlift/snowlift/internal/schema"
	"github.com/snowlift/snowlift/internal/source"
)

const baseTableType = "BASE TABLE"

// Entry is one selection rule from the tables file. Database is
// mandatory; a table selection additionally requires its schema.
type Entry struct {
	Database          string   `yaml:"database"`
	Schema            string   `yaml:"schema,omitempty"`
	Table             string   `yaml:"table,omitempty"`
	ExcludeSchemaLike []string `yaml:"exclude_schema_like,omitempty"`
	ExcludeTableLike  []string `yaml:"exclude_table_like,omitempty"`
	WithViews         bool     `yaml:"with_views,omitempty"`
}

// Validate checks the entry's mandatory fields.
func (e *Entry) Validate() error {
	if e.Database == "" {
		return fmt.Errorf("'database' is mandatory")
	}
	if e.Table != "" && e.Schema == "" {
		return fmt.Errorf("'schema' is mandatory if 'table' is provided")
	}
	return nil
}

// LoadEntries reads the tables file, a YAML list of entries.
func LoadEntries(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tables file: %w", err)
	}

	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing tables file %s: %w", path, err)
	}
	return entries, nil
}

// MetadataQuery builds the INFORMATION_SCHEMA query selecting every
// column of every table the entry matches.
func MetadataQuery(e Entry) string {
	query := fmt.Sprintf(`SELECT
    c.table_catalog AS database_name,
    c.table_schema AS schema_name,
    c.table_name,
    c.column_name,
    c.data_type,
    t.table_type AS table_type
FROM %s.INFORMATION_SCHEMA.COLUMNS c
JOIN %s.INFORMATION_SCHEMA.TABLES t
    ON c.table_name = t.table_name
    AND c.table_schema = t.table_schema`, e.Database, e.Database)

	var where []string
	if !e.WithViews {
		where = append(where, fmt.Sprintf("t.table_type = '%s'", baseTableType))
	}
	if e.Schema != "" {
		where = append(where, fmt.Sprintf("c.table_schema = '%s'", strings.ToUpper(e.Schema)))
	}
	if e.Table != "" {
		where = append(where, fmt.Sprintf("c.table_name = '%s'", strings.ToUpper(e.Table)))
	}
	for _, pattern := range e.ExcludeSchemaLike {
		if pattern != "" {
			where = append(where, fmt.Sprintf("c.table_schema NOT LIKE '%s'", strings.ToUpper(pattern)))
		}
	}
	for _, pattern := range e.ExcludeTableLike {
		if pattern != "" {
			where = append(where, fmt.Sprintf("c.table_name NOT LIKE '%s'", strings.ToUpper(pattern)))
		}
	}

	if len(where) > 0 {
		query += "\nWHERE " + strings.Join(where, "\n    AND ")
	}
	query += "\nORDER BY c.table_schema, c.table_name, c.ordinal_position"
	return query
}

// Discoverer turns tables-file entries into tables with columns.
type Discoverer struct {
	Session source.Session
	Logger  *slog.Logger
}

// New creates a Discoverer over the given session.
func New(session source.Session, logger *slog.Logger) *Discoverer {
	return &Discoverer{Session: session, Logger: logger}
}

// Discover runs the metadata query for every entry and groups the rows
// into ordered tables. Invalid entries are skipped with a warning, and a
// query failure for one entry does not stop the others. An entry that
// re-matches a table already found replaces the earlier version in
// place.
func (d *Discoverer) Discover(ctx context.Context, entries []Entry) ([]schema.Table, error) {
	var tables []schema.Table
	index := make(map[string]int)

	for _, e := range entries {
		if err := e.Validate(); err != nil {
			d.Logger.Warn("skipping tables file entry", "database", e.Database, "error", err)
			continue
		}

		d.Logger.Info("querying tables", "database", e.Database)
		rows, err := d.Session.Query(ctx, MetadataQuery(e))
		if err != nil {
			d.Logger.Error("metadata query failed", "database", e.Database, "error", err)
			continue
		}

		for _, t := range Group(rows) {
			key := t.FullName()
			if i, ok := index[key]; ok {
				tables[i] = t
				continue
			}
			index[key] = len(tables)
			tables = append(tables, t)
		}
	}

	return tables, nil
}

// Group folds metadata rows into tables, preserving row order. Rows
// arrive ordered by schema, table and ordinal position, so columns stay
// in table order.
func Group(rows []map[string]interface{}) []schema.Table {
	var tables []schema.Table
	index := make(map[string]int)

	for _, row := range rows {
		database := stringValue(row, "DATABASE_NAME")
		schemaName := stringValue(row, "SCHEMA_NAME")
		tableName := stringValue(row, "TABLE_NAME")

		key := database + "." + schemaName + "." + tableName
		i, ok := index[key]
		if !ok {
			i = len(tables)
			index[key] = i
			tables = append(tables, schema.Table{
				Database: database,
				Schema:   schemaName,
				Name:     tableName,
				Type:     stringValue(row, "TABLE_TYPE"),
			})
		}

		tables[i].Columns = append(tables[i].Columns, schema.Column{
			Name:     stringValue(row, "COLUMN_NAME"),
			DataType: stringValue(row, "DATA_TYPE"),
		})
	}

	return tables
}

func stringValue(row map[string]interface{}, key string) string {
	if v, ok := row[key]; ok && v != nil {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", v)
	}
	return ""
}
