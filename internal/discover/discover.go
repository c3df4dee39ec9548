// Package discover finds the files a check run should consider: every file
// under the project matching the configured include/ignore globs, or the
// files git reports as staged/changed/since a revision. It is its own
// package (rather than living in internal/cli) so both internal/cli and
// internal/cli/commands can import it without an import cycle.
package discover

import (
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pg-lang-server/pgls/internal/config"
)

// Files walks roots (or, if empty, projectDir) collecting every file
// matching cfg.Include and not matching cfg.Ignore.
func Files(projectDir string, cfg config.FilesConfig, roots []string) ([]string, error) {
	if len(roots) == 0 {
		roots = []string{projectDir}
	}

	seen := make(map[string]bool)
	var out []string
	consider := func(path string) {
		rel, relErr := filepath.Rel(projectDir, path)
		if relErr != nil {
			rel = path
		}
		if matchesAny(rel, cfg.Include) && !matchesAny(rel, cfg.Ignore) && !seen[path] {
			seen[path] = true
			out = append(out, path)
		}
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err == nil && !info.IsDir() {
			consider(root)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				return nil
			}
			consider(path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// matchesAny reports whether path matches any of patterns, each tried both
// against the full relative path and its base name so a plain "*.sql"
// pattern still matches files nested in subdirectories.
func matchesAny(path string, patterns []string) bool {
	base := filepath.Base(path)
	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, path); ok {
			return true
		}
		if strings.Contains(pattern, "**") {
			suffix := strings.TrimPrefix(pattern, "**/")
			if ok, _ := filepath.Match(suffix, base); ok {
				return true
			}
		}
	}
	return false
}

// Staged returns the files `git diff --name-only --cached` reports,
// relative to dir, for `check --staged`.
func Staged(dir string) ([]string, error) {
	return gitNames(dir, "diff", "--name-only", "--cached")
}

// Changed returns the files `git diff --name-only` reports, for
// `check --changed`.
func Changed(dir string) ([]string, error) {
	return gitNames(dir, "diff", "--name-only")
}

// Since returns the files changed since rev, for `check --since REV`.
func Since(dir, rev string) ([]string, error) {
	return gitNames(dir, "diff", "--name-only", rev+"...HEAD")
}

func gitNames(dir string, args ...string) ([]string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return nil, err
	}
	var files []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			files = append(files, filepath.Join(dir, line))
		}
	}
	return files, nil
}
