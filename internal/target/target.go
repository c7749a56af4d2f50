// Package target loads staged Parquet data into BigQuery.
package target

import (
	"context"

	"github.com/snowlift/snowlift/internal/schema"
)

// Loader defines the BigQuery operations the migration needs.
type Loader interface {
	Connect(ctx context.Context) error

	// Load runs a load job from the table's staged Parquet files into a
	// managed BigQuery table and returns the resulting row count.
	Load(ctx context.Context, t *schema.Table) (int64, error)

	// CreateExternalTable creates a federated table named
	// <table>_external over the staged Parquet files.
	CreateExternalTable(ctx context.Context, t *schema.Table) error

	Close() error
}

// ConnectionError indicates the BigQuery client could not be created,
// which aborts the run before any table work starts.
type ConnectionError struct {
	ProjectID string
	Err       error
}

func (e *ConnectionError) Error() string {
	return "connecting to BigQuery project " + e.ProjectID + ": " + e.Err.Error()
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
