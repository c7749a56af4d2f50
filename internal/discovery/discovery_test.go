package discovery

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/snowlift/snowlift/internal/source"
)

func TestEntryValidate(t *testing.T) {
	tests := []struct {
		name    string
		entry   Entry
		wantErr bool
	}{
		{"database only", Entry{Database: "DB"}, false},
		{"database and schema", Entry{Database: "DB", Schema: "PUBLIC"}, false},
		{"full selection", Entry{Database: "DB", Schema: "PUBLIC", Table: "ORDERS"}, false},
		{"missing database", Entry{Schema: "PUBLIC"}, true},
		{"table without schema", Entry{Database: "DB", Table: "ORDERS"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tables.yml")
	content := `- database: ANALYTICS
  schema: public
- database: RAW
  exclude_schema_like:
    - "TMP%"
  with_views: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	entries, err := LoadEntries(path)
	if err != nil {
		t.Fatalf("LoadEntries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Database != "ANALYTICS" || entries[0].Schema != "public" {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if !entries[1].WithViews || entries[1].ExcludeSchemaLike[0] != "TMP%" {
		t.Errorf("entries[1] = %+v", entries[1])
	}
}

func TestLoadEntries_NotFound(t *testing.T) {
	if _, err := LoadEntries("/nonexistent/tables.yml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadEntries_NotAList(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tables.yml")
	if err := os.WriteFile(path, []byte("database: DB\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadEntries(path); err == nil {
		t.Error("expected error for non-list tables file")
	}
}

func TestMetadataQuery(t *testing.T) {
	q := MetadataQuery(Entry{
		Database:          "ANALYTICS",
		Schema:            "public",
		Table:             "orders",
		ExcludeSchemaLike: []string{"tmp%"},
		ExcludeTableLike:  []string{"bak_%"},
	})

	for _, want := range []string{
		"FROM ANALYTICS.INFORMATION_SCHEMA.COLUMNS c",
		"JOIN ANALYTICS.INFORMATION_SCHEMA.TABLES t",
		"t.table_type = 'BASE TABLE'",
		"c.table_schema = 'PUBLIC'",
		"c.table_name = 'ORDERS'",
		"c.table_schema NOT LIKE 'TMP%'",
		"c.table_name NOT LIKE 'BAK_%'",
		"ORDER BY c.table_schema, c.table_name, c.ordinal_position",
	} {
		if !strings.Contains(q, want) {
			t.Errorf("query missing %q:\n%s", want, q)
		}
	}
}

func TestMetadataQuery_WithViews(t *testing.T) {
	q := MetadataQuery(Entry{Database: "DB", WithViews: true})
	if strings.Contains(q, "table_type =") {
		t.Errorf("with_views query should not filter on table_type:\n%s", q)
	}
}

func metaRow(db, schemaName, table, column, dataType, tableType string) map[string]interface{} {
	return map[string]interface{}{
		"DATABASE_NAME": db,
		"SCHEMA_NAME":   schemaName,
		"TABLE_NAME":    table,
		"COLUMN_NAME":   column,
		"DATA_TYPE":     dataType,
		"TABLE_TYPE":    tableType,
	}
}

func TestGroup(t *testing.T) {
	rows := []map[string]interface{}{
		metaRow("DB", "PUBLIC", "ORDERS", "ID", "NUMBER", "BASE TABLE"),
		metaRow("DB", "PUBLIC", "ORDERS", "TOTAL", "FLOAT", "BASE TABLE"),
		metaRow("DB", "PUBLIC", "USERS", "ID", "NUMBER", "BASE TABLE"),
	}

	tables := Group(rows)
	if len(tables) != 2 {
		t.Fatalf("got %d tables, want 2", len(tables))
	}
	if tables[0].Name != "ORDERS" || len(tables[0].Columns) != 2 {
		t.Errorf("tables[0] = %+v", tables[0])
	}
	if tables[0].Columns[1].Name != "TOTAL" || tables[0].Columns[1].DataType != "FLOAT" {
		t.Errorf("column order not preserved: %+v", tables[0].Columns)
	}
	if tables[1].Name != "USERS" || tables[1].Type != "BASE TABLE" {
		t.Errorf("tables[1] = %+v", tables[1])
	}
}

func TestDiscover_SkipsInvalidEntries(t *testing.T) {
	sess := &source.MockSession{
		QueryResults: []map[string]interface{}{
			metaRow("DB", "PUBLIC", "ORDERS", "ID", "NUMBER", "BASE TABLE"),
		},
	}
	d := New(sess, slog.Default())

	entries := []Entry{
		{Schema: "PUBLIC"}, // missing database, skipped
		{Database: "DB"},
	}

	tables, err := d.Discover(context.Background(), entries)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(tables) != 1 || tables[0].Name != "ORDERS" {
		t.Errorf("tables = %+v", tables)
	}
	if len(sess.Queries) != 1 {
		t.Errorf("expected 1 metadata query, got %d", len(sess.Queries))
	}
}

func TestDiscover_ReplacesDuplicatesInPlace(t *testing.T) {
	sess := &source.MockSession{
		QueryResults: []map[string]interface{}{
			metaRow("DB", "PUBLIC", "ORDERS", "ID", "NUMBER", "BASE TABLE"),
			metaRow("DB", "PUBLIC", "USERS", "ID", "NUMBER", "BASE TABLE"),
		},
	}
	d := New(sess, slog.Default())

	// Two entries matching the same tables: the second pass replaces the
	// first at its original position.
	entries := []Entry{{Database: "DB"}, {Database: "DB"}}

	tables, err := d.Discover(context.Background(), entries)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(tables) != 2 {
		t.Fatalf("got %d tables, want 2", len(tables))
	}
	if tables[0].Name != "ORDERS" || tables[1].Name != "USERS" {
		t.Errorf("order not preserved: %v, %v", tables[0].Name, tables[1].Name)
	}
}
