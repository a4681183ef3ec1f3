package listing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tormodhaugland/planner/internal/fs"
	"github.com/tormodhaugland/planner/internal/model"
	"github.com/tormodhaugland/planner/internal/pathpolicy"
)

// DefaultMaxEntries caps a single listing to keep the UI responsive.
const DefaultMaxEntries = 500

// LocalLister lists directories on the local filesystem.
type LocalLister struct {
	// Root confines listings when non-empty.
	Root string
	// MaxEntries caps the number of entries returned; 0 means DefaultMaxEntries.
	MaxEntries int
	// ShowHidden includes dotfiles.
	ShowHidden bool
}

// List reads path and returns its children with normalized paths. Symlinked
// entries are reported as files. With Root set, a path that resolves through
// a symlink to somewhere outside Root is rejected.
func (l *LocalLister) List(ctx context.Context, path string) ([]model.DirectoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := pathpolicy.Normalize(path)
	if dir == pathpolicy.Empty {
		return nil, fmt.Errorf("path cannot be empty")
	}
	if l.Root != "" {
		if !pathpolicy.Contains(l.Root, dir) {
			return nil, fmt.Errorf("%s: %w", dir, ErrOutsideRoot)
		}
		if err := l.checkResolved(dir); err != nil {
			return nil, err
		}
	}

	dirEntries, err := os.ReadDir(filepath.FromSlash(dir))
	if err != nil {
		return nil, fmt.Errorf("failed to load contents for %s: %w", dir, err)
	}

	limit := l.MaxEntries
	if limit <= 0 {
		limit = DefaultMaxEntries
	}

	entries := make([]model.DirectoryEntry, 0, len(dirEntries))
	for _, de := range dirEntries {
		name := de.Name()
		if !l.ShowHidden && fs.IsHidden(name) {
			continue
		}
		if len(entries) >= limit {
			break
		}

		isSymlink := de.Type()&os.ModeSymlink != 0
		entries = append(entries, model.DirectoryEntry{
			Name:        name,
			Path:        pathpolicy.Join(dir, name),
			IsDirectory: de.IsDir() && !isSymlink,
		})
	}

	return entries, nil
}

// checkResolved compares dir and Root after resolving symlinks.
func (l *LocalLister) checkResolved(dir string) error {
	root, err := filepath.EvalSymlinks(filepath.FromSlash(pathpolicy.Normalize(l.Root)))
	if err != nil {
		return fmt.Errorf("failed to resolve root %s: %w", l.Root, err)
	}
	resolved, err := filepath.EvalSymlinks(filepath.FromSlash(dir))
	if err != nil {
		return fmt.Errorf("failed to load contents for %s: %w", dir, err)
	}
	if !pathpolicy.Contains(filepath.ToSlash(root), filepath.ToSlash(resolved)) {
		return fmt.Errorf("%s: %w", dir, ErrOutsideRoot)
	}
	return nil
}
