// Package source provides the Snowflake session the migration reads
// metadata from and runs staging queries against.
package source

import (
	"context"
	"fmt"
)

// Session is the Snowflake surface the migration needs: metadata
// queries, staging statements executed in a database context, and row
// counts for verification.
type Session interface {
	Connect(ctx context.Context) error
	// Exec runs a statement after switching the session to the given
	// database, so stage references resolve in the right context.
	Exec(ctx context.Context, database, query string) error
	// Query runs a fully qualified read query and returns rows keyed by
	// upper-case column name.
	Query(ctx context.Context, query string) ([]map[string]interface{}, error)
	RowCount(ctx context.Context, database, schemaName, table string) (int64, error)
	Close() error
}

// ConnectionError indicates the Snowflake connection itself failed,
// which aborts the run before any table work starts.
type ConnectionError struct {
	DSN string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connecting to Snowflake: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
