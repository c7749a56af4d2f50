package source

import (
	"context"
	"errors"
	"testing"
)

func TestConnectionErrorUnwrap(t *testing.T) {
	inner := errors.New("network unreachable")
	err := &ConnectionError{DSN: "user@account/db", Err: inner}

	if !errors.Is(err, inner) {
		t.Error("expected errors.Is to find the wrapped error")
	}

	var connErr *ConnectionError
	if !errors.As(error(err), &connErr) {
		t.Error("expected errors.As to match ConnectionError")
	}
}

func TestMockSessionExecErrByQuery(t *testing.T) {
	failing := errors.New("stage not found")
	m := &MockSession{
		ExecErrByQuery: map[string]error{"REMOVE @s/a/b/c/": failing},
	}

	if err := m.Exec(context.Background(), "DB", "REMOVE @s/a/b/c/"); !errors.Is(err, failing) {
		t.Errorf("expected configured error, got %v", err)
	}
	if err := m.Exec(context.Background(), "DB", "COPY INTO @s/a/b/c/"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if len(m.Executed) != 2 || m.ExecDatabases[0] != "DB" {
		t.Errorf("execution log = %v / %v", m.Executed, m.ExecDatabases)
	}
}
