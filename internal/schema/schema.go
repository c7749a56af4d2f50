// Package schema holds the table data model shared by discovery, query
// generation and loading, plus BigQuery schema inference.
package schema

import (
	"encoding/json"
	"fmt"
)

// Column is a source column as reported by INFORMATION_SCHEMA.
type Column struct {
	Name     string `yaml:"column_name"`
	DataType string `yaml:"data_type"`
}

// Table carries one table through the whole migration: identity and
// columns from discovery, generated queries, and optional BigQuery load
// options set interactively. Field order here is the field order of the
// run report files.
type Table struct {
	Database string   `yaml:"database"`
	Schema   string   `yaml:"schema"`
	Name     string   `yaml:"table"`
	Type     string   `yaml:"table_type,omitempty"` // BASE TABLE or VIEW
	Columns  []Column `yaml:"columns"`

	CleaningQuery string `yaml:"cleaning_query,omitempty"`
	CopyQuery     string `yaml:"copy_query,omitempty"`

	// BigQuery load options, all optional.
	CustomSchema   string   `yaml:"custom_schema,omitempty"` // JSON field list
	PartitionField string   `yaml:"partition_field,omitempty"`
	PartitionType  string   `yaml:"partition_type,omitempty"` // DAY, HOUR, MONTH or YEAR
	ClusterFields  []string `yaml:"cluster_fields,omitempty"`

	// Error is set when the table ends up in the failed report.
	Error string `yaml:"error,omitempty"`
}

// FullName returns the display name database.schema.table.
func (t *Table) FullName() string {
	return fmt.Sprintf("%s.%s.%s", t.Database, t.Schema, t.Name)
}

// HasLoadOptions reports whether any BigQuery load option is set.
func (t *Table) HasLoadOptions() bool {
	return t.CustomSchema != "" || t.PartitionField != "" || len(t.ClusterFields) > 0
}

// Field is one column of a BigQuery table schema, in the JSON shape the
// load job and the interactive schema editor use.
type Field struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Mode string `json:"mode,omitempty"`
}

// ParseFieldsJSON decodes and validates a custom schema: a JSON array of
// objects, each with at least "name" and "type". Mode defaults to
// NULLABLE.
func ParseFieldsJSON(data string) ([]Field, error) {
	var fields []Field
	if err := json.Unmarshal([]byte(data), &fields); err != nil {
		return nil, fmt.Errorf("parsing schema JSON: %w", err)
	}
	for i, f := range fields {
		if f.Name == "" || f.Type == "" {
			return nil, fmt.Errorf("schema field %d: name and type are required", i)
		}
		if fields[i].Mode == "" {
			fields[i].Mode = "NULLABLE"
		}
	}
	return fields, nil
}

// EncodeFieldsJSON renders fields as indented JSON, the format shown in
// the schema editor.
func EncodeFieldsJSON(fields []Field) (string, error) {
	data, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding schema JSON: %w", err)
	}
	return string(data), nil
}
