// Package sourcetesting provides helpers for tests that need source files on disk. WithFiles writes in-memory sources (map of relative path to contents) into a
// throwaway directory, calls f with that directory, and cleans up. Dedent strips common indentation from multi-line strings so inline fixtures can be indented
// with surrounding code.
package sourcetesting

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Dedent removes the common leading indentation from each non-blank line in s. Spaces and tabs both count as indentation; the smallest indent among non-blank lines
// is removed from all non-blank lines. Interior blank lines are preserved, and leading/trailing blank lines are trimmed. The result has no trailing spaces or tabs
// on any line and always ends with a single '\n'.
func Dedent(s string) string {
	s = strings.Trim(s, "\n")
	lines := strings.Split(s, "\n")

	minIndent := -1
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			lines[i] = ""
			continue
		}
		indent := len(line) - len(trimmed)
		if minIndent == -1 || indent < minIndent {
			minIndent = indent
		}
	}

	for i, line := range lines {
		if minIndent > 0 && len(line) >= minIndent {
			line = line[minIndent:]
		}
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n") + "\n"
}

// WithFiles writes each entry of pathToContents (slash-separated relative paths) under a fresh temporary directory and calls f with the directory's absolute path.
// Parent directories are created as needed. Setup failures fail the test before f is called.
func WithFiles(t *testing.T, pathToContents map[string]string, f func(dir string)) {
	t.Helper()
	dir := t.TempDir()
	for rel, contents := range pathToContents {
		abs := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
		require.NoError(t, os.WriteFile(abs, []byte(contents), 0o644))
	}
	f(dir)
}

// WithFile is WithFiles for a single file. f receives the file's absolute path.
func WithFile(t *testing.T, name string, contents string, f func(path string)) {
	t.Helper()
	WithFiles(t, map[string]string{name: contents}, func(dir string) {
		f(filepath.Join(dir, filepath.FromSlash(name)))
	})
}

// ReadFile returns the contents of path, failing the test on error.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}
