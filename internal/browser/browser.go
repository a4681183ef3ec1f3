// Package browser implements the path-scoped directory browser used by the
// project-root picker and the scan-paths drawer.
//
// A Controller owns one browsing session. Navigation updates the current path
// immediately and starts a listing fetch in the background; a fetch result is
// applied only if no newer navigation happened in the meantime.
package browser

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/tormodhaugland/planner/internal/fs"
	"github.com/tormodhaugland/planner/internal/listing"
	"github.com/tormodhaugland/planner/internal/model"
	"github.com/tormodhaugland/planner/internal/pathpolicy"
	"github.com/tormodhaugland/planner/internal/scanpaths"
)

// Messages shown to the user for rejected navigation.
const (
	MsgEmptyPath       = "Path cannot be empty."
	MsgOutsideBoundary = "Cannot navigate outside the defined project root."
)

var (
	ErrEmptyPath       = errors.New("path cannot be empty")
	ErrOutsideBoundary = errors.New("path is outside the browsing boundary")
)

// State is a snapshot of a browsing session.
type State struct {
	CurrentPath  string
	PendingInput string
	// Listing is nil when the contents of CurrentPath are unknown (not yet
	// loaded, or the last fetch failed).
	Listing    []model.DirectoryEntry
	Loading    bool
	FetchError string
}

// Options configure a Controller.
type Options struct {
	// Boundary is the outermost directory reachable when AllowExternal is false.
	Boundary      string
	AllowExternal bool
	// Exclude hides matching entries from listings.
	Exclude *fs.ExcludeList
	// Selection receives file entries picked with SelectEntry.
	Selection *scanpaths.Set
	Logger    *slog.Logger
}

// Controller is safe for concurrent use.
type Controller struct {
	lister        listing.Lister
	boundary      string
	allowExternal bool
	exclude       *fs.ExcludeList
	selection     *scanpaths.Set
	logger        *slog.Logger

	mu        sync.Mutex
	state     State
	seq       uint64
	inflight  sync.WaitGroup
	listeners map[int]func(State)
	nextID    int

	// states waiting for delivery, in the order they were taken
	pending   []notification
	notifying bool
}

type notification struct {
	state State
	fns   []func(State)
}

// New creates a controller that lists directories through lister.
func New(lister listing.Lister, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		lister:        lister,
		boundary:      pathpolicy.Normalize(opts.Boundary),
		allowExternal: opts.AllowExternal,
		exclude:       opts.Exclude,
		selection:     opts.Selection,
		logger:        logger.With("component", "browser"),
		listeners:     make(map[int]func(State)),
	}
}

// Boundary returns the normalized boundary path.
func (c *Controller) Boundary() string { return c.boundary }

// AllowExternal reports whether browsing may leave the boundary.
func (c *Controller) AllowExternal() bool { return c.allowExternal }

// Selection returns the attached selection set, which may be nil.
func (c *Controller) Selection() *scanpaths.Set { return c.selection }

// Initialize starts the session at initialPath. An empty path falls back to
// the boundary and then to "/".
func (c *Controller) Initialize(ctx context.Context, initialPath string) {
	target := pathpolicy.Normalize(initialPath)
	if target == pathpolicy.Empty {
		target = c.boundary
	}
	if target == pathpolicy.Empty {
		target = "/"
	}

	c.mu.Lock()
	c.navigateLocked(ctx, target)
}

// SetPendingInput stores the typed path text verbatim and clears any error.
func (c *Controller) SetPendingInput(text string) {
	c.mu.Lock()
	c.state.PendingInput = text
	c.state.FetchError = ""
	c.unlockAndNotify()
}

// CommitPendingInput navigates to the typed path. Rejected input leaves the
// current path alone, records a message in FetchError and returns
// ErrEmptyPath or ErrOutsideBoundary.
func (c *Controller) CommitPendingInput(ctx context.Context) error {
	c.mu.Lock()

	text := strings.TrimSpace(c.state.PendingInput)
	if text == "" {
		c.state.FetchError = MsgEmptyPath
		c.unlockAndNotify()
		return ErrEmptyPath
	}

	target := pathpolicy.Normalize(text)
	if !pathpolicy.CanNavigateTo(target, c.boundary, c.allowExternal) {
		c.logger.Debug("navigation rejected", "target", target, "boundary", c.boundary)
		c.state.FetchError = MsgOutsideBoundary
		c.unlockAndNotify()
		return ErrOutsideBoundary
	}

	c.navigateLocked(ctx, target)
	return nil
}

// NavigateTo sets the pending input to path and commits it.
func (c *Controller) NavigateTo(ctx context.Context, path string) error {
	c.mu.Lock()
	c.state.PendingInput = path
	c.mu.Unlock()
	return c.CommitPendingInput(ctx)
}

// CanGoUp reports whether GoUp would move.
func (c *Controller) CanGoUp() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return pathpolicy.CanGoUp(c.state.CurrentPath, c.boundary, c.allowExternal)
}

// GoUp moves to the parent directory, never past the boundary. It reports
// whether navigation happened.
func (c *Controller) GoUp(ctx context.Context) bool {
	c.mu.Lock()

	current := c.state.CurrentPath
	if !pathpolicy.CanGoUp(current, c.boundary, c.allowExternal) {
		c.mu.Unlock()
		return false
	}

	parent := pathpolicy.ParentOf(current)
	if !pathpolicy.CanNavigateTo(parent, c.boundary, c.allowExternal) {
		parent = c.boundary
	}

	c.navigateLocked(ctx, parent)
	return true
}

// SelectEntry opens a directory entry, or adds a file entry to the selection.
// Directory entries came from a boundary-respecting listing and are not
// re-validated.
func (c *Controller) SelectEntry(ctx context.Context, entry model.DirectoryEntry) {
	if !entry.IsDirectory {
		if c.selection != nil {
			c.selection.Add(entry.Path)
		}
		return
	}

	target := pathpolicy.Normalize(entry.Path)
	if target == pathpolicy.Empty {
		return
	}
	c.mu.Lock()
	c.navigateLocked(ctx, target)
}

// Refresh re-fetches the current path, e.g. to retry after an error.
func (c *Controller) Refresh(ctx context.Context) {
	c.mu.Lock()
	if c.state.CurrentPath == pathpolicy.Empty {
		c.mu.Unlock()
		return
	}
	c.navigateLocked(ctx, c.state.CurrentPath)
}

// DismissError clears FetchError.
func (c *Controller) DismissError() {
	c.mu.Lock()
	c.state.FetchError = ""
	c.unlockAndNotify()
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn to be called with a fresh snapshot after every state
// change. Calls may arrive from background goroutines but are never
// concurrent, and snapshots are delivered in the order the changes happened.
// The returned func unregisters fn.
func (c *Controller) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Wait blocks until every started fetch has finished.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

// navigateLocked must be called with c.mu held; it releases it.
func (c *Controller) navigateLocked(ctx context.Context, target string) {
	c.seq++
	seq := c.seq

	c.state.CurrentPath = target
	c.state.PendingInput = target
	c.state.FetchError = ""
	c.state.Loading = true

	c.inflight.Add(1)
	c.unlockAndNotify()

	c.logger.Debug("fetching listing", "path", target, "seq", seq)
	go c.fetch(ctx, seq, target)
}

func (c *Controller) fetch(ctx context.Context, seq uint64, target string) {
	defer c.inflight.Done()

	entries, err := c.lister.List(ctx, target)

	c.mu.Lock()
	if seq != c.seq || c.state.CurrentPath != target {
		c.mu.Unlock()
		c.logger.Debug("discarding superseded listing", "path", target, "seq", seq)
		return
	}

	c.state.Loading = false
	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = "Failed to load contents for " + target
		}
		c.logger.Warn("listing failed", "path", target, "err", err)
		c.state.FetchError = msg
		c.state.Listing = nil
	} else {
		c.state.Listing = c.prepare(entries)
	}
	c.unlockAndNotify()
}

// prepare filters excluded names and sorts for display. The result is never
// nil.
func (c *Controller) prepare(entries []model.DirectoryEntry) []model.DirectoryEntry {
	out := make([]model.DirectoryEntry, 0, len(entries))
	for _, e := range entries {
		if c.exclude.Matches(e.Name, e.IsDirectory) {
			continue
		}
		out = append(out, e)
	}
	model.SortEntries(out)
	return out
}

func (c *Controller) snapshotLocked() State {
	s := c.state
	s.Listing = slices.Clone(c.state.Listing)
	return s
}

// unlockAndNotify queues the new state, releases c.mu and delivers queued
// states to listeners. Only one goroutine delivers at a time, so snapshots
// arrive in the order they were taken. Listeners run without c.mu held and
// may call back into the controller; such calls only queue.
func (c *Controller) unlockAndNotify() {
	ids := make([]int, 0, len(c.listeners))
	for id := range c.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(State), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, c.listeners[id])
	}
	c.pending = append(c.pending, notification{state: c.snapshotLocked(), fns: fns})

	if c.notifying {
		c.mu.Unlock()
		return
	}
	c.notifying = true

	for {
		n := c.pending[0]
		c.pending[0] = notification{}
		c.pending = c.pending[1:]
		c.mu.Unlock()

		for _, fn := range n.fns {
			fn(n.state)
		}

		c.mu.Lock()
		if len(c.pending) == 0 {
			c.notifying = false
			c.pending = nil
			c.mu.Unlock()
			return
		}
	}
}
