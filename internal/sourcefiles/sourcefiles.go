// Package sourcefiles finds the files autodoc should process: an explicit file, every supported file under a directory (honoring .gitignore), or the files git
// reports as changed.
package sourcefiles

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/codalotl/autodoc/internal/langprofile"
	ignore "github.com/sabhiram/go-gitignore"
)

// BuiltinIgnores are always skipped during directory walks, in addition to .gitignore.
var BuiltinIgnores = []string{".git/", "venv/", ".venv/", "__pycache__/", "node_modules/"}

// ErrNotFound is returned when the requested path does not exist.
var ErrNotFound = errors.New("path not found")

// ErrNotGitRepo is returned by Changed when the directory is not inside a git work tree.
var ErrNotGitRepo = errors.New("not a git repository")

// Discover returns the absolute paths of files to process under path, sorted.
//
// If path is a file, it is returned as-is whether or not a language supports it (the caller reports unsupported files). If path is a directory, it is walked recursively
// and only files selected by some language profile are returned; entries matched by path/.gitignore or BuiltinIgnores are skipped.
func Discover(path string) ([]string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}
	if !info.IsDir() {
		return []string{abs}, nil
	}

	matcher := loadIgnore(abs)
	var files []string
	err = filepath.WalkDir(abs, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == abs {
			return nil
		}
		rel, relErr := filepath.Rel(abs, p)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if matcher.MatchesPath(rel + "/") {
				return filepath.SkipDir
			}
			return nil
		}
		if matcher.MatchesPath(rel) || !d.Type().IsRegular() {
			return nil
		}
		if langprofile.IsSupportedPath(p) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func loadIgnore(dir string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFileAndLines(filepath.Join(dir, ".gitignore"), BuiltinIgnores...)
	if err != nil {
		return ignore.CompileIgnoreLines(BuiltinIgnores...)
	}
	return gi
}

// Changed returns the supported files that differ from HEAD in the git work tree containing dir, plus untracked files that are not ignored. Deleted files are
// omitted. If within is non-empty, only files at or below that path are returned. Paths are absolute and sorted.
func Changed(ctx context.Context, dir string, within string) ([]string, error) {
	top, err := runGit(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotGitRepo, err)
	}
	root := strings.TrimSpace(top)

	diff, err := runGit(ctx, root, "diff", "--name-only", "HEAD")
	if err != nil {
		return nil, err
	}
	untracked, err := runGit(ctx, root, "ls-files", "--others", "--exclude-standard", "--full-name")
	if err != nil {
		return nil, err
	}

	var withinAbs string
	if within != "" {
		if withinAbs, err = filepath.Abs(within); err != nil {
			return nil, err
		}
		// git reports the resolved top-level; resolve within the same way so prefixes compare.
		if resolved, err := filepath.EvalSymlinks(withinAbs); err == nil {
			withinAbs = resolved
		}
	}

	seen := make(map[string]bool)
	var files []string
	for _, line := range strings.Split(diff+"\n"+untracked, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		p := filepath.Join(root, filepath.FromSlash(line))
		if seen[p] || !langprofile.IsSupportedPath(p) {
			continue
		}
		if withinAbs != "" && p != withinAbs && !strings.HasPrefix(p, withinAbs+string(filepath.Separator)) {
			continue
		}
		if info, err := os.Stat(p); err != nil || info.IsDir() {
			continue
		}
		seen[p] = true
		files = append(files, p)
	}
	sort.Strings(files)
	return files, nil
}

func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s failed: %s", strings.Join(args, " "), strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
