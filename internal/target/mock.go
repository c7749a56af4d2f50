package target

import (
	"context"

	"github.com/snowlift/snowlift/internal/schema"
)

// MockLoader is a test double for the Loader interface.
type MockLoader struct {
	ConnectErr error

	// LoadFunc, when set, handles Load entirely; otherwise RowCounts and
	// LoadErrs drive the result by full table name.
	LoadFunc  func(t *schema.Table) (int64, error)
	RowCounts map[string]int64
	LoadErrs  map[string]error

	ExternalErr error

	// Call log.
	Loaded          []schema.Table
	CreatedExternal []string

	Connected bool
	Closed    bool
}

func (m *MockLoader) Connect(_ context.Context) error {
	if m.ConnectErr != nil {
		return m.ConnectErr
	}
	m.Connected = true
	return nil
}

func (m *MockLoader) Load(_ context.Context, t *schema.Table) (int64, error) {
	m.Loaded = append(m.Loaded, *t)
	if m.LoadFunc != nil {
		return m.LoadFunc(t)
	}
	if err, ok := m.LoadErrs[t.FullName()]; ok {
		return 0, err
	}
	if m.RowCounts != nil {
		if c, ok := m.RowCounts[t.FullName()]; ok {
			return c, nil
		}
	}
	return 0, nil
}

func (m *MockLoader) CreateExternalTable(_ context.Context, t *schema.Table) error {
	if m.ExternalErr != nil {
		return m.ExternalErr
	}
	m.CreatedExternal = append(m.CreatedExternal, t.FullName())
	return nil
}

func (m *MockLoader) Close() error {
	m.Closed = true
	return nil
}

var _ Loader = (*MockLoader)(nil)
