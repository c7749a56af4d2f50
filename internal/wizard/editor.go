package wizard

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Editor opens text in an editor and returns the edited result, trimmed
// of surrounding whitespace. The suffix sets the temp file extension so
// the editor picks up syntax highlighting.
type Editor interface {
	Edit(initial, suffix string) (string, error)
}

// ExternalEditor shells out to the user's editor. EDITOR is honored
// first, then the first of code, vim, nano, vi found on PATH.
type ExternalEditor struct{}

var _ Editor = ExternalEditor{}

func (ExternalEditor) Edit(initial, suffix string) (string, error) {
	f, err := os.CreateTemp("", "snowlift-*"+suffix)
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.WriteString(initial); err != nil {
		f.Close()
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing temp file: %w", err)
	}

	editor := findEditor()

	cmd := exec.Command(editor, path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("running editor %s: %w", editor, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading edited file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func findEditor() string {
	if editor := os.Getenv("EDITOR"); editor != "" {
		return editor
	}
	for _, candidate := range []string{"code", "vim", "nano", "vi"} {
		if _, err := exec.LookPath(candidate); err == nil {
			return candidate
		}
	}
	return "vi"
}
