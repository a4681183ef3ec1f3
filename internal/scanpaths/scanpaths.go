// Package scanpaths holds the set of paths a user picked for the planner to
// scan. The set is seeded from the caller's committed list, edited during a
// session, and written back on commit.
package scanpaths

import (
	"sort"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"
	"github.com/tormodhaugland/planner/internal/pathpolicy"
)

// Set is a de-duplicated set of normalized paths. It is safe for concurrent
// use.
type Set struct {
	mu        sync.Mutex
	paths     map[string]struct{}
	listeners map[int]func([]string)
	nextID    int
}

// New returns a Set seeded with initial.
func New(initial []string) *Set {
	s := &Set{
		paths:     make(map[string]struct{}),
		listeners: make(map[int]func([]string)),
	}
	s.InitializeFrom(initial)
	return s
}

// InitializeFrom replaces the contents with the normalized, de-duplicated
// paths. Blank entries are dropped. Listeners are not notified.
func (s *Set) InitializeFrom(paths []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.paths = make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if n := pathpolicy.Normalize(p); n != pathpolicy.Empty {
			s.paths[n] = struct{}{}
		}
	}
}

// Add inserts path and reports whether the set changed.
func (s *Set) Add(path string) bool {
	n := pathpolicy.Normalize(path)
	if n == pathpolicy.Empty {
		return false
	}

	s.mu.Lock()
	if _, ok := s.paths[n]; ok {
		s.mu.Unlock()
		return false
	}
	s.paths[n] = struct{}{}
	list, listeners := s.snapshotLocked()
	s.mu.Unlock()

	notify(listeners, list)
	return true
}

// AddManual adds user-typed text after trimming surrounding whitespace.
func (s *Set) AddManual(text string) bool {
	return s.Add(strings.TrimSpace(text))
}

// Remove deletes path and reports whether the set changed.
func (s *Set) Remove(path string) bool {
	n := pathpolicy.Normalize(path)

	s.mu.Lock()
	if _, ok := s.paths[n]; !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.paths, n)
	list, listeners := s.snapshotLocked()
	s.mu.Unlock()

	notify(listeners, list)
	return true
}

// Clear empties the set.
func (s *Set) Clear() {
	s.mu.Lock()
	if len(s.paths) == 0 {
		s.mu.Unlock()
		return
	}
	s.paths = make(map[string]struct{})
	list, listeners := s.snapshotLocked()
	s.mu.Unlock()

	notify(listeners, list)
}

func (s *Set) Contains(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.paths[pathpolicy.Normalize(path)]
	return ok
}

func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.paths)
}

// ToSortedList returns the paths in ascending lexicographic order. The result
// is never nil.
func (s *Set) ToSortedList() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked()
}

// OnSelectionChanged registers fn to receive the sorted list after every add
// or remove that changed the set. The returned func unregisters it.
func (s *Set) OnSelectionChanged(fn func([]string)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Commit hands the final sorted list to the owner of the committed value.
func (s *Set) Commit(commit func([]string)) {
	commit(s.ToSortedList())
}

func (s *Set) sortedLocked() []string {
	list := make([]string, 0, len(s.paths))
	for p := range s.paths {
		list = append(list, p)
	}
	sort.Strings(list)
	return list
}

func (s *Set) snapshotLocked() ([]string, []func([]string)) {
	listeners := make([]func([]string), 0, len(s.listeners))
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		listeners = append(listeners, s.listeners[id])
	}
	return s.sortedLocked(), listeners
}

func notify(listeners []func([]string), list []string) {
	for _, fn := range listeners {
		out := make([]string, len(list))
		copy(out, list)
		fn(out)
	}
}

// FilterSuggestions narrows suggested paths to those fuzzily matching term,
// best match first. An empty term returns all suggestions unchanged.
func FilterSuggestions(suggested []string, term string) []string {
	term = strings.TrimSpace(term)
	if term == "" {
		out := make([]string, len(suggested))
		copy(out, suggested)
		return out
	}

	matches := fuzzy.Find(term, suggested)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Str)
	}
	return out
}
