package cmd

import (
	"context"
	iofs "io/fs"
	"os"
	"path/filepath"

	"github.com/tormodhaugland/planner/internal/fs"
	"github.com/tormodhaugland/planner/internal/model"
	"github.com/tormodhaugland/planner/internal/pathpolicy"
)

const (
	maxAttachFiles = 200
	maxAttachBytes = 256 * 1024
)

// collectScannedFiles reads the text files under scanPaths (the whole root
// when there are none). Binary and oversized files are skipped.
func collectScannedFiles(ctx context.Context, root string, scanPaths []string, exclude *fs.ExcludeList) ([]model.ScannedFile, error) {
	if len(scanPaths) == 0 {
		scanPaths = []string{root}
	}

	var files []model.ScannedFile
	seen := make(map[string]bool)

	add := func(p string) error {
		norm := pathpolicy.Normalize(filepath.ToSlash(p))
		if seen[norm] || len(files) >= maxAttachFiles {
			return nil
		}
		seen[norm] = true
		content, ok, err := fs.ReadTextFile(p, maxAttachBytes)
		if err != nil || !ok {
			return nil
		}
		files = append(files, model.ScannedFile{
			FilePath:     norm,
			RelativePath: pathpolicy.Rel(root, norm),
			Content:      content,
		})
		return nil
	}

	for _, sp := range scanPaths {
		native := filepath.FromSlash(sp)
		info, err := os.Stat(native)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		if !info.IsDir() {
			if err := add(native); err != nil {
				return nil, err
			}
			continue
		}

		err = filepath.WalkDir(native, func(p string, d iofs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if len(files) >= maxAttachFiles {
				return filepath.SkipAll
			}
			name := d.Name()
			if d.IsDir() {
				if p != native && (fs.IsHidden(name) || exclude.Matches(name, true)) {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() || exclude.Matches(name, false) {
				return nil
			}
			return add(p)
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}
