package source

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/snowflakedb/gosnowflake" // registers the snowflake driver
)

// Snowflake implements Session over database/sql with the gosnowflake
// driver. All statements run on one pinned connection so that USE
// DATABASE affects every query that follows, matching how stage paths
// resolve during COPY.
type Snowflake struct {
	dsn       string
	db        *sql.DB
	conn      *sql.Conn
	currentDB string
}

// NewSnowflake creates a Snowflake session for the given DSN.
func NewSnowflake(dsn string) *Snowflake {
	return &Snowflake{dsn: dsn}
}

func (s *Snowflake) Connect(ctx context.Context) error {
	db, err := sql.Open("snowflake", s.dsn)
	if err != nil {
		return &ConnectionError{DSN: s.dsn, Err: err}
	}
	db.SetMaxOpenConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return &ConnectionError{DSN: s.dsn, Err: err}
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		db.Close()
		return &ConnectionError{DSN: s.dsn, Err: err}
	}

	s.db = db
	s.conn = conn
	return nil
}

// switchDatabase issues USE DATABASE when the session is not already in
// the requested database.
func (s *Snowflake) switchDatabase(ctx context.Context, database string) error {
	if database == s.currentDB {
		return nil
	}
	if _, err := s.conn.ExecContext(ctx, fmt.Sprintf("USE DATABASE %s", database)); err != nil {
		return fmt.Errorf("switching to database %s: %w", database, err)
	}
	s.currentDB = database
	return nil
}

func (s *Snowflake) Exec(ctx context.Context, database, query string) error {
	if s.conn == nil {
		return &ConnectionError{DSN: s.dsn, Err: fmt.Errorf("no active session")}
	}
	if err := s.switchDatabase(ctx, database); err != nil {
		return err
	}
	if _, err := s.conn.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("executing query: %w", err)
	}
	return nil
}

func (s *Snowflake) Query(ctx context.Context, query string) ([]map[string]interface{}, error) {
	if s.conn == nil {
		return nil, &ConnectionError{DSN: s.dsn, Err: fmt.Errorf("no active session")}
	}

	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	var results []map[string]interface{}
	for rows.Next() {
		vals := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		row := make(map[string]interface{}, len(cols))
		for i, c := range cols {
			row[c] = vals[i]
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return results, nil
}

func (s *Snowflake) RowCount(ctx context.Context, database, schemaName, table string) (int64, error) {
	if s.conn == nil {
		return 0, &ConnectionError{DSN: s.dsn, Err: fmt.Errorf("no active session")}
	}

	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s.%s.%s", database, schemaName, table)
	if err := s.conn.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting rows in %s.%s.%s: %w", database, schemaName, table, err)
	}
	return count, nil
}

func (s *Snowflake) Close() error {
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}
