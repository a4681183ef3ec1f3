package fs

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// ListingExcludes are the names hidden from directory listings and from scan
// path browsing.
var ListingExcludes = []string{
	"node_modules/",
	"dist/",
	"logs/",
	".git/",
	".github/",
	".vscode/",
	".idea/",
}

// BuiltinExcludes are skipped when walking a project for suggestions. They
// target build artifacts, dependency caches and sensitive files.
var BuiltinExcludes = []string{
	// === Package managers & dependencies ===
	"node_modules/", // Node.js
	"vendor/",       // Go, PHP, Ruby
	".pnpm-store/",  // pnpm

	// === Build outputs ===
	"target/", // Rust, Java (Maven)
	"dist/",
	"build/",
	"out/",
	"bin/",
	"obj/",   // .NET, C++
	".next/", // Next.js

	// === Caches ===
	".cache/",
	"__pycache__/",
	".pytest_cache/",
	".mypy_cache/",
	"*.pyc",
	".turbo/",

	// === Virtual environments ===
	".venv/",
	"venv/",

	// === VCS & editors ===
	".git/",
	".idea/",
	".vscode/",
	"*.swp",
	".DS_Store",

	// === Logs ===
	"*.log",
	"logs/",

	// === Secrets & sensitive ===
	".env",
	".env.*",
	"*.pem",
	"*.key",
}

// IgnoreFileName is an optional per-project file with extra exclude patterns.
const IgnoreFileName = ".plannerignore"

// ExcludeList holds an effective set of exclude patterns. Patterns ending in
// "/" only match directories; the rest are shell globs matched against the
// base name.
type ExcludeList struct {
	Patterns []string
}

// ExcludeOptions configures how the exclude list is built.
type ExcludeOptions struct {
	// Base patterns; nil means ListingExcludes.
	Base []string
	// Additional patterns to add
	Additional []string
	// Patterns to remove from the base
	Remove []string
}

// BuildExcludeList computes the effective exclude list.
func BuildExcludeList(opts ExcludeOptions) *ExcludeList {
	base := opts.Base
	if base == nil {
		base = ListingExcludes
	}

	removeSet := make(map[string]bool, len(opts.Remove))
	for _, p := range opts.Remove {
		removeSet[p] = true
	}

	patterns := make([]string, 0, len(base)+len(opts.Additional))
	for _, p := range base {
		if !removeSet[p] {
			patterns = append(patterns, p)
		}
	}
	patterns = append(patterns, opts.Additional...)

	return &ExcludeList{Patterns: dedupePatterns(patterns)}
}

// Matches reports whether an entry with the given base name is excluded.
func (e *ExcludeList) Matches(name string, isDir bool) bool {
	if e == nil {
		return false
	}
	for _, p := range e.Patterns {
		dirOnly := strings.HasSuffix(p, "/")
		p = strings.TrimSuffix(p, "/")
		if dirOnly && !isDir {
			continue
		}
		if p == name {
			return true
		}
		if ok, err := filepath.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}

// LoadProjectExcludes builds an exclude list from base plus any patterns in
// the project's ignore file. A missing ignore file is not an error.
func LoadProjectExcludes(projectRoot string, base []string) (*ExcludeList, error) {
	extra, err := ParseExcludeFile(filepath.Join(projectRoot, IgnoreFileName))
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return BuildExcludeList(ExcludeOptions{Base: base, Additional: extra}), nil
}

// ParseExcludeFile reads exclude patterns from a file.
// Lines starting with # are comments, blank lines are ignored.
func ParseExcludeFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var patterns []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return patterns, nil
}

// dedupePatterns removes duplicate patterns while preserving order.
func dedupePatterns(patterns []string) []string {
	seen := make(map[string]bool, len(patterns))
	result := make([]string, 0, len(patterns))

	for _, p := range patterns {
		if !seen[p] {
			seen[p] = true
			result = append(result, p)
		}
	}

	return result
}
