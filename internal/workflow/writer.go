package workflow

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultDataDir returns the per-user directory workflow files are written
// to before submission.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".goqe", "workflows"), nil
}

// WriteFile serializes the document and writes it under dir, creating the
// directory if needed. It returns the full path of the written file.
func WriteFile(dir, filename string, doc *Document) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create workflow dir %s: %w", dir, err)
	}

	data, err := doc.Marshal()
	if err != nil {
		return "", fmt.Errorf("marshal workflow: %w", err)
	}

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write workflow file: %w", err)
	}
	return path, nil
}
