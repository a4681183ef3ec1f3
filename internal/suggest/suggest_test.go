package suggest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tormodhaugland/planner/internal/pathpolicy"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func makeProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "cache/lru.go", "package cache\n\ntype LRU struct{}\n\nfunc NewLRU() *LRU { return &LRU{} }\n\nfunc (c *LRU) Evict() {}\n")
	writeFile(t, root, "server/http.go", "package server\n\nfunc Serve() {}\n")
	writeFile(t, root, "node_modules/pkg/cache.js", "function cache() {}\n")
	writeFile(t, root, ".hidden/cache.go", "package hidden\n")
	writeFile(t, root, "README.md", "# cache\n")
	return root
}

func norm(root, rel string) string {
	return pathpolicy.Normalize(filepath.ToSlash(filepath.Join(root, filepath.FromSlash(rel))))
}

func TestTerms(t *testing.T) {
	assert.Equal(t, []string{"lru", "cache", "eviction"}, Terms("Add an LRU cache, with eviction! (cache)"))
	assert.Empty(t, Terms("a to of"))
}

func TestSuggestRanksMatchingFiles(t *testing.T) {
	root := makeProject(t)
	s := New(Options{Root: root})
	defer s.Close()

	got, err := s.Suggest(context.Background(), "add an LRU cache with eviction", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, norm(root, "cache/lru.go"), got[0].Path)
	assert.Equal(t, 2, got[0].Hits)
}

func TestSuggestSkipsExcludedAndHidden(t *testing.T) {
	root := makeProject(t)
	s := New(Options{Root: root})
	defer s.Close()

	paths, err := s.Paths(context.Background(), "cache", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{norm(root, "cache/lru.go")}, paths)
}

func TestSuggestReportsMatchedSymbols(t *testing.T) {
	root := makeProject(t)
	s := New(Options{Root: root})
	defer s.Close()

	got, err := s.Suggest(context.Background(), "evict", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"Evict"}, got[0].Symbols)
}

func TestSuggestEmptyPrompt(t *testing.T) {
	s := New(Options{Root: makeProject(t)})
	defer s.Close()

	got, err := s.Suggest(context.Background(), "  ", 5)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSuggestMissingRoot(t *testing.T) {
	s := New(Options{Root: filepath.Join(t.TempDir(), "missing")})
	defer s.Close()

	_, err := s.Suggest(context.Background(), "cache", 5)
	assert.Error(t, err)
}

func TestSuggestCanceled(t *testing.T) {
	s := New(Options{Root: makeProject(t)})
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Suggest(ctx, "cache", 5)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsSourceFile(t *testing.T) {
	assert.True(t, IsSourceFile("main.go"))
	assert.True(t, IsSourceFile("app.tsx"))
	assert.False(t, IsSourceFile("README.md"))
	assert.False(t, IsSourceFile(".eslintrc.js"))
	assert.False(t, IsSourceFile("bundle.min.js"))
	assert.False(t, IsSourceFile("types.d.ts"))
}
