// Package git reads repository state around plan application and finds
// repositories that make good project roots.
package git

import (
	"context"
	"fmt"
	"io/fs"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

type RepoInfo struct {
	Path       string
	Head       string
	Branch     string
	Dirty      bool
	Remote     string
	LastCommit time.Time
}

// skipDirs are never descended into when looking for repositories.
var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	".venv":        true,
	"venv":         true,
	"target":       true,
	"build":        true,
	"dist":         true,
	".next":        true,
	".nuxt":        true,
	"__pycache__":  true,
	".cache":       true,
}

func IsRepo(ctx context.Context, path string) bool {
	cmd := exec.CommandContext(ctx, "git", "-C", path, "rev-parse", "--git-dir")
	return cmd.Run() == nil
}

// TopLevel returns the root of the work tree containing path.
func TopLevel(ctx context.Context, path string) (string, error) {
	return run(ctx, path, "rev-parse", "--show-toplevel")
}

func GetInfo(ctx context.Context, repoPath string) (*RepoInfo, error) {
	info := &RepoInfo{Path: repoPath}

	head, err := run(ctx, repoPath, "rev-parse", "--short", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("reading HEAD of %s: %w", repoPath, err)
	}
	info.Head = head

	if branch, err := run(ctx, repoPath, "rev-parse", "--abbrev-ref", "HEAD"); err == nil {
		info.Branch = branch
	}

	info.Dirty = isDirty(ctx, repoPath)

	if remote, err := run(ctx, repoPath, "remote", "get-url", "origin"); err == nil {
		info.Remote = remote
	}

	if out, err := run(ctx, repoPath, "log", "-1", "--format=%cI"); err == nil {
		if t, err := time.Parse(time.RFC3339, out); err == nil {
			info.LastCommit = t
		}
	}

	return info, nil
}

// ChangedFiles lists paths with uncommitted changes, relative to the repo.
func ChangedFiles(ctx context.Context, repoPath string) ([]string, error) {
	// porcelain lines start with a status column that may be a space, so the
	// output is not trimmed here
	out, err := exec.CommandContext(ctx, "git", "-C", repoPath, "status", "--porcelain").Output()
	if err != nil {
		return nil, err
	}
	var files []string
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if len(line) < 4 {
			continue
		}
		name := line[3:]
		if i := strings.Index(name, " -> "); i >= 0 {
			name = name[i+4:]
		}
		files = append(files, name)
	}
	return files, nil
}

func isDirty(ctx context.Context, repoPath string) bool {
	out, err := run(ctx, repoPath, "status", "--porcelain")
	if err != nil {
		return false
	}
	return out != ""
}

func run(ctx context.Context, repoPath string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", repoPath}, args...)...)
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// FindGitRootsWithDepth finds repositories under basePath. maxDepth counts
// directory levels below basePath; a negative maxDepth means unlimited.
func FindGitRootsWithDepth(basePath string, maxDepth int) ([]string, error) {
	var roots []string
	seen := make(map[string]bool)
	base := filepath.Clean(basePath)

	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}

		name := d.Name()
		if path != base && skipDirs[name] {
			return filepath.SkipDir
		}

		if name == ".git" {
			repoRoot := filepath.Dir(path)
			if !seen[repoRoot] && withinDepth(base, repoRoot, maxDepth) {
				seen[repoRoot] = true
				roots = append(roots, repoRoot)
			}
			return filepath.SkipDir
		}

		if path != base && maxDepth >= 0 && !withinDepth(base, path, maxDepth) {
			return filepath.SkipDir
		}
		return nil
	})

	return roots, err
}

func withinDepth(base, path string, maxDepth int) bool {
	if maxDepth < 0 {
		return true
	}
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return len(strings.Split(filepath.ToSlash(rel), "/")) <= maxDepth
}
