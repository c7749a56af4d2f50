package target

import (
	"errors"
	"log/slog"
	"testing"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"

	"github.com/snowlift/snowlift/internal/schema"
)

func testLoader() *BigQuery {
	return NewBigQuery("my-project", "gs://my-bucket/", "EU", "snowflake_", slog.Default())
}

func TestDatasetID(t *testing.T) {
	b := testLoader()

	tests := []struct {
		database   string
		schemaName string
		want       string
	}{
		{"ANALYTICS", "PUBLIC", "snowflake_analytics_public"},
		{"my-db", "my-schema", "snowflake_my_db_my_schema"},
		{"DB", "Sales", "snowflake_db_sales"},
	}

	for _, tt := range tests {
		if got := b.DatasetID(tt.database, tt.schemaName); got != tt.want {
			t.Errorf("DatasetID(%q, %q) = %q, want %q", tt.database, tt.schemaName, got, tt.want)
		}
	}
}

func TestSourceURI(t *testing.T) {
	b := testLoader()
	got := b.SourceURI("ANALYTICS", "PUBLIC", "Orders")
	want := "gs://my-bucket/analytics/public/orders/*"
	if got != want {
		t.Errorf("SourceURI = %q, want %q", got, want)
	}
}

func TestNewBigQueryDefaults(t *testing.T) {
	b := NewBigQuery("p", "gs://bucket", "", "", slog.Default())
	if b.Location != DefaultLocation {
		t.Errorf("Location = %q, want %q", b.Location, DefaultLocation)
	}
	if b.DatasetPrefix != DefaultDatasetPrefix {
		t.Errorf("DatasetPrefix = %q, want %q", b.DatasetPrefix, DefaultDatasetPrefix)
	}
}

func TestToBQSchema(t *testing.T) {
	fields := []schema.Field{
		{Name: "id", Type: "INTEGER", Mode: "REQUIRED"},
		{Name: "total", Type: "FLOAT64", Mode: "NULLABLE"},
		{Name: "tags", Type: "STRING", Mode: "REPEATED"},
	}

	s := toBQSchema(fields)
	if len(s) != 3 {
		t.Fatalf("got %d fields, want 3", len(s))
	}
	if s[0].Type != bigquery.IntegerFieldType || !s[0].Required {
		t.Errorf("s[0] = %+v", s[0])
	}
	if s[1].Type != bigquery.FloatFieldType || s[1].Required || s[1].Repeated {
		t.Errorf("s[1] = %+v", s[1])
	}
	if !s[2].Repeated {
		t.Errorf("s[2] = %+v", s[2])
	}
}

func TestFieldType(t *testing.T) {
	tests := []struct {
		in   string
		want bigquery.FieldType
	}{
		{"FLOAT64", bigquery.FloatFieldType},
		{"INTEGER", bigquery.IntegerFieldType},
		{"BOOLEAN", bigquery.BooleanFieldType},
		{"NUMERIC", bigquery.NumericFieldType},
		{"TIMESTAMP", bigquery.TimestampFieldType},
		{"JSON", bigquery.JSONFieldType},
	}
	for _, tt := range tests {
		if got := fieldType(tt.in); got != tt.want {
			t.Errorf("fieldType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPartitioningType(t *testing.T) {
	tests := []struct {
		in   string
		want bigquery.TimePartitioningType
	}{
		{"DAY", bigquery.DayPartitioningType},
		{"HOUR", bigquery.HourPartitioningType},
		{"MONTH", bigquery.MonthPartitioningType},
		{"YEAR", bigquery.YearPartitioningType},
		{"", bigquery.DayPartitioningType},
		{"bogus", bigquery.DayPartitioningType},
	}
	for _, tt := range tests {
		if got := partitioningType(tt.in); got != tt.want {
			t.Errorf("partitioningType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHasStatusCode(t *testing.T) {
	conflict := &googleapi.Error{Code: 409, Message: "already exists"}
	if !hasStatusCode(conflict, 409) {
		t.Error("expected 409 match")
	}
	if hasStatusCode(conflict, 404) {
		t.Error("unexpected 404 match")
	}
	if hasStatusCode(errors.New("plain"), 409) {
		t.Error("plain error should not match")
	}
}
