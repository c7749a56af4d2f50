package source

import (
	"context"
	"fmt"
)

// MockSession is a test double for the Session interface.
type MockSession struct {
	ConnectErr error

	// ExecErrByQuery fails specific statements by exact query text, so
	// tests can exercise retry and edit flows.
	ExecErrByQuery map[string]error
	ExecErr        error
	Executed       []string
	ExecDatabases  []string

	QueryResults []map[string]interface{}
	QueryErr     error
	Queries      []string

	RowCounts   map[string]int64 // key: "db.schema.table"
	RowCountErr error

	Connected bool
	Closed    bool
}

func (m *MockSession) Connect(_ context.Context) error {
	if m.ConnectErr != nil {
		return m.ConnectErr
	}
	m.Connected = true
	return nil
}

func (m *MockSession) Exec(_ context.Context, database, query string) error {
	m.Executed = append(m.Executed, query)
	m.ExecDatabases = append(m.ExecDatabases, database)
	if err, ok := m.ExecErrByQuery[query]; ok {
		return err
	}
	return m.ExecErr
}

func (m *MockSession) Query(_ context.Context, query string) ([]map[string]interface{}, error) {
	m.Queries = append(m.Queries, query)
	if m.QueryErr != nil {
		return nil, m.QueryErr
	}
	return m.QueryResults, nil
}

func (m *MockSession) RowCount(_ context.Context, database, schemaName, table string) (int64, error) {
	if m.RowCountErr != nil {
		return 0, m.RowCountErr
	}
	key := database + "." + schemaName + "." + table
	if m.RowCounts != nil {
		if c, ok := m.RowCounts[key]; ok {
			return c, nil
		}
	}
	return 0, fmt.Errorf("no row count configured for %s", key)
}

func (m *MockSession) Close() error {
	m.Closed = true
	return nil
}

var _ Session = (*MockSession)(nil)
var _ Session = (*Snowflake)(nil)
