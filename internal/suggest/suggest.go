// Package suggest proposes scan paths for a prompt by matching prompt terms
// against file names and the symbols declared in each file.
package suggest

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/sahilm/fuzzy"
	pfs "github.com/tormodhaugland/planner/internal/fs"
	"github.com/tormodhaugland/planner/internal/pathpolicy"
)

const (
	DefaultMaxFiles     = 2000
	DefaultMaxFileBytes = 256 * 1024
	DefaultLimit        = 10
)

// Suggestion is a ranked candidate scan path.
type Suggestion struct {
	Path    string   `json:"path"`
	Hits    int      `json:"hits"` // prompt terms that matched
	Score   int      `json:"score"`
	Symbols []string `json:"symbols,omitempty"` // matched symbol names
}

type Options struct {
	Root         string
	Exclude      *pfs.ExcludeList
	MaxFiles     int
	MaxFileBytes int64
	Logger       *slog.Logger
}

type Suggester struct {
	opts    Options
	logger  *slog.Logger
	symbols *SymbolExtractor
}

// file is one walked source file and the strings it can be matched by.
type file struct {
	path    string
	targets []string
	kinds   []bool // true where targets[i] is a symbol name
}

func New(opts Options) *Suggester {
	if opts.Exclude == nil {
		opts.Exclude = pfs.BuildExcludeList(pfs.ExcludeOptions{Base: pfs.BuiltinExcludes})
	}
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = DefaultMaxFiles
	}
	if opts.MaxFileBytes <= 0 {
		opts.MaxFileBytes = DefaultMaxFileBytes
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Suggester{
		opts:    opts,
		logger:  logger.With("component", "suggest"),
		symbols: NewSymbolExtractor(),
	}
}

// Close releases parser resources.
func (s *Suggester) Close() {
	s.symbols.Close()
}

// Suggest returns up to limit files under the root ranked against prompt.
// Files matching no prompt term are not returned.
func (s *Suggester) Suggest(ctx context.Context, prompt string, limit int) ([]Suggestion, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	terms := Terms(prompt)
	if len(terms) == 0 {
		return nil, nil
	}

	files, err := s.collect(ctx)
	if err != nil {
		return nil, err
	}

	return rank(files, terms, limit), nil
}

// Paths is Suggest reduced to the suggested paths.
func (s *Suggester) Paths(ctx context.Context, prompt string, limit int) ([]string, error) {
	suggestions, err := s.Suggest(ctx, prompt, limit)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(suggestions))
	for i, sg := range suggestions {
		paths[i] = sg.Path
	}
	return paths, nil
}

func (s *Suggester) collect(ctx context.Context) ([]file, error) {
	root := filepath.Clean(filepath.FromSlash(s.opts.Root))
	var files []file

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		name := d.Name()
		if d.IsDir() {
			if p != root && (pfs.IsHidden(name) || s.opts.Exclude.Matches(name, true)) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || s.opts.Exclude.Matches(name, false) || !IsSourceFile(name) {
			return nil
		}
		if len(files) >= s.opts.MaxFiles {
			return filepath.SkipAll
		}

		f := file{path: pathpolicy.Normalize(filepath.ToSlash(p))}
		f.targets = append(f.targets, strings.TrimSuffix(name, filepath.Ext(name)))
		f.kinds = append(f.kinds, false)
		if rel, err := filepath.Rel(root, filepath.Dir(p)); err == nil && rel != "." {
			f.targets = append(f.targets, filepath.ToSlash(rel))
			f.kinds = append(f.kinds, false)
		}

		content, ok, err := pfs.ReadTextFile(p, s.opts.MaxFileBytes)
		if err != nil || !ok {
			files = append(files, f)
			return nil
		}
		syms, err := s.symbols.Symbols(ctx, []byte(content), name)
		if err != nil {
			s.logger.Debug("symbol extraction failed", "path", p, "err", err)
		}
		for _, sym := range syms {
			f.targets = append(f.targets, sym.Name)
			f.kinds = append(f.kinds, true)
		}
		files = append(files, f)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("collected suggestion candidates", "root", root, "files", len(files))
	return files, nil
}

func rank(files []file, terms []string, limit int) []Suggestion {
	var out []Suggestion
	for _, f := range files {
		sg := Suggestion{Path: f.path}
		seenSym := map[string]bool{}
		for _, term := range terms {
			matches := fuzzy.Find(term, f.targets)
			if len(matches) == 0 {
				continue
			}
			sg.Hits++
			best := matches[0] // sorted by score
			sg.Score += best.Score
			if f.kinds[best.Index] && !seenSym[best.Str] {
				seenSym[best.Str] = true
				sg.Symbols = append(sg.Symbols, best.Str)
			}
		}
		if sg.Hits > 0 {
			out = append(out, sg)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Hits != out[j].Hits {
			return out[i].Hits > out[j].Hits
		}
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Path < out[j].Path
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "into": true,
	"from": true, "that": true, "this": true, "add": true, "make": true,
	"use": true, "should": true, "when": true, "all": true, "new": true,
	"fix": true, "please": true, "our": true, "can": true, "are": true,
}

// Terms splits a prompt into lowercase search terms of three or more
// letters, dropping common filler words and duplicates.
func Terms(prompt string) []string {
	fields := strings.FieldsFunc(strings.ToLower(prompt), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := map[string]bool{}
	var terms []string
	for _, f := range fields {
		if len(f) < 3 || stopWords[f] || seen[f] {
			continue
		}
		seen[f] = true
		terms = append(terms, f)
	}
	return terms
}
