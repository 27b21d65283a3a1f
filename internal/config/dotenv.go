package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvUpdate is one key to write into a dotenv file.
type EnvUpdate struct {
	Key   string
	Value string
}

// EnvChange reports what UpdateEnvFile did with one key.
type EnvChange struct {
	Key     string
	Updated bool // true if an existing assignment was rewritten; false if the key was appended
}

// UpdateEnvFile sets each update's key in the dotenv file at path, creating the file if needed. Existing assignments (`KEY=...` or `export KEY=...`) are rewritten
// in place; other lines, including comments and unrelated keys, are kept byte-for-byte. New keys are appended. Values are written double-quoted.
//
// The resulting file is checked with godotenv before it replaces the original, so a write never leaves behind a file autodoc can't read.
func UpdateEnvFile(path string, updates []EnvUpdate) ([]EnvChange, error) {
	if len(updates) == 0 {
		return nil, nil
	}

	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	var lines []string
	if len(existing) > 0 {
		lines = strings.SplitAfter(string(existing), "\n")
		if lines[len(lines)-1] == "" {
			lines = lines[:len(lines)-1]
		}
	}

	var changes []EnvChange
	for _, u := range updates {
		assignment := u.Key + "=" + strconv.Quote(u.Value) + "\n"
		updated := false
		for i, line := range lines {
			if assignsKey(line, u.Key) {
				lines[i] = assignment
				updated = true
			}
		}
		if !updated {
			if n := len(lines); n > 0 && !strings.HasSuffix(lines[n-1], "\n") {
				lines[n-1] += "\n"
			}
			lines = append(lines, assignment)
		}
		changes = append(changes, EnvChange{Key: u.Key, Updated: updated})
	}

	content := strings.Join(lines, "")
	if _, err := godotenv.Unmarshal(content); err != nil {
		return nil, fmt.Errorf("refusing to write %s: result would not parse: %w", path, err)
	}

	mode := os.FileMode(0o600)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		return nil, err
	}
	return changes, nil
}

func assignsKey(line string, key string) bool {
	t := strings.TrimSpace(line)
	t = strings.TrimPrefix(t, "export ")
	t = strings.TrimLeft(t, " \t")
	if !strings.HasPrefix(t, key) {
		return false
	}
	rest := strings.TrimLeft(t[len(key):], " \t")
	return strings.HasPrefix(rest, "=")
}
