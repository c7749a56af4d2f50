//go:build !windows

package wizard

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExternalEditorReturnsTrimmedContent(t *testing.T) {
	// An editor that exits without touching the file leaves the
	// original text in place.
	t.Setenv("EDITOR", "true")

	got, err := ExternalEditor{}.Edit("  SELECT 1;\n", ".sql")
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if got != "SELECT 1;" {
		t.Errorf("Edit = %q", got)
	}
}

func TestExternalEditorReportsFailure(t *testing.T) {
	t.Setenv("EDITOR", "false")

	if _, err := (ExternalEditor{}).Edit("SELECT 1;", ".sql"); err == nil {
		t.Error("expected an error when the editor exits nonzero")
	}
}

func TestExternalEditorAppliesEdits(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "editor.sh")
	content := "#!/bin/sh\nprintf 'REMOVE @STAGE/fixed/' > \"$1\"\n"
	if err := os.WriteFile(script, []byte(content), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("EDITOR", script)

	got, err := ExternalEditor{}.Edit("REMOVE @STAGE/old/", ".sql")
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if got != "REMOVE @STAGE/fixed/" {
		t.Errorf("Edit = %q", got)
	}
}

func TestFindEditorPrefersEnvironment(t *testing.T) {
	t.Setenv("EDITOR", "my-editor")
	if got := findEditor(); got != "my-editor" {
		t.Errorf("findEditor = %q", got)
	}
}
