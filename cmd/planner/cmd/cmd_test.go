package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tormodhaugland/planner/internal/fs"
	"github.com/tormodhaugland/planner/internal/model"
	"github.com/tormodhaugland/planner/internal/pathpolicy"
)

func TestResolvePath(t *testing.T) {
	tests := []struct {
		name string
		base string
		arg  string
		want string
	}{
		{"empty uses base", "/work/app", "", "/work/app"},
		{"relative joins base", "/work/app", "src/api", "/work/app/src/api"},
		{"dot dot", "/work/app", "../other", "/work/other"},
		{"absolute", "/work/app", "/etc/", "/etc"},
		{"trims", "/work/app", "  lib  ", "/work/app/lib"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolvePath(tt.base, tt.arg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolvePathRelativeWithoutBase(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	got, err := resolvePath("", "sub")
	require.NoError(t, err)
	assert.Equal(t, pathpolicy.Normalize(filepath.ToSlash(filepath.Join(wd, "sub"))), got)
}

func TestChooseChangesExplicitIndexes(t *testing.T) {
	plan := &model.Plan{ID: "p1", Changes: make([]model.FileChange, 3)}

	applyChanges = []int{2, 0, 2}
	defer func() { applyChanges = nil }()

	indexes, all, err := chooseChanges(plan)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0}, indexes)
	assert.False(t, all)

	applyChanges = []int{3}
	_, _, err = chooseChanges(plan)
	assert.Error(t, err)
}

func TestChooseChangesAll(t *testing.T) {
	plan := &model.Plan{ID: "p1", Changes: make([]model.FileChange, 2)}

	applyAll = true
	defer func() { applyAll = false }()

	indexes, all, err := chooseChanges(plan)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, indexes)
	assert.True(t, all)
}

func TestCollectScannedFiles(t *testing.T) {
	dir := t.TempDir()
	root := pathpolicy.Normalize(filepath.ToSlash(dir))

	write := func(rel, content string) {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
	write("src/a.go", "package a\n")
	write("src/node_modules/x.js", "x")
	write("src/.hidden/y.go", "package y\n")
	write("README.md", "# readme\n")
	write("bin.dat", "\x00\x01\x02")

	exclude := fs.BuildExcludeList(fs.ExcludeOptions{})

	files, err := collectScannedFiles(context.Background(), root, []string{root + "/src", root + "/README.md", root + "/missing"}, exclude)
	require.NoError(t, err)

	var rels []string
	for _, f := range files {
		rels = append(rels, f.RelativePath)
	}
	assert.ElementsMatch(t, []string{"src/a.go", "README.md"}, rels)

	all, err := collectScannedFiles(context.Background(), root, nil, exclude)
	require.NoError(t, err)
	rels = rels[:0]
	for _, f := range all {
		rels = append(rels, f.RelativePath)
	}
	assert.ElementsMatch(t, []string{"src/a.go", "README.md"}, rels)
}

func TestShortHash(t *testing.T) {
	assert.Equal(t, "0123abcd", shortHash("0123abcdef987654"))
	assert.Equal(t, "abc", shortHash("abc\n"))
}
