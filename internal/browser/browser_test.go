package browser

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tormodhaugland/planner/internal/fs"
	"github.com/tormodhaugland/planner/internal/listing"
	"github.com/tormodhaugland/planner/internal/model"
	"github.com/tormodhaugland/planner/internal/scanpaths"
)

type listResult struct {
	entries []model.DirectoryEntry
	err     error
}

// gatedLister blocks each List call until the test releases a result for
// that path.
type gatedLister struct {
	mu    sync.Mutex
	gates map[string]chan listResult
}

func newGatedLister() *gatedLister {
	return &gatedLister{gates: make(map[string]chan listResult)}
}

func (g *gatedLister) gate(path string) chan listResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[path]
	if !ok {
		ch = make(chan listResult, 4)
		g.gates[path] = ch
	}
	return ch
}

func (g *gatedLister) release(path string, entries []model.DirectoryEntry, err error) {
	g.gate(path) <- listResult{entries: entries, err: err}
}

func (g *gatedLister) List(ctx context.Context, path string) ([]model.DirectoryEntry, error) {
	select {
	case r := <-g.gate(path):
		return r.entries, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// staticLister answers immediately with one entry named after the path.
func staticLister() listing.Lister {
	return listing.FuncLister(func(ctx context.Context, path string) ([]model.DirectoryEntry, error) {
		return []model.DirectoryEntry{{Name: "child", Path: path + "/child", IsDirectory: true}}, nil
	})
}

func entry(name, path string, dir bool) model.DirectoryEntry {
	return model.DirectoryEntry{Name: name, Path: path, IsDirectory: dir}
}

func TestBasicNavigation(t *testing.T) {
	ctx := context.Background()
	c := New(staticLister(), Options{Boundary: "/repo"})
	c.Initialize(ctx, "/repo")
	c.Wait()

	c.SetPendingInput("/repo/src")
	require.NoError(t, c.CommitPendingInput(ctx))
	c.Wait()

	st := c.State()
	assert.Equal(t, "/repo/src", st.CurrentPath)
	assert.Equal(t, "/repo/src", st.PendingInput)
	assert.True(t, c.CanGoUp())

	assert.True(t, c.GoUp(ctx))
	c.Wait()
	assert.Equal(t, "/repo", c.State().CurrentPath)
	assert.False(t, c.CanGoUp())
	assert.False(t, c.GoUp(ctx), "go up at boundary should be a no-op")
	assert.Equal(t, "/repo", c.State().CurrentPath)
}

func TestRejectedExternalNavigation(t *testing.T) {
	ctx := context.Background()
	c := New(staticLister(), Options{Boundary: "/repo"})
	c.Initialize(ctx, "/repo")
	c.Wait()

	c.SetPendingInput("/etc")
	err := c.CommitPendingInput(ctx)
	require.ErrorIs(t, err, ErrOutsideBoundary)

	st := c.State()
	assert.Equal(t, "/repo", st.CurrentPath)
	assert.Equal(t, MsgOutsideBoundary, st.FetchError)
	assert.Equal(t, "/etc", st.PendingInput, "rejected input stays editable")
}

func TestSiblingWithSharedPrefixIsRejected(t *testing.T) {
	ctx := context.Background()
	c := New(staticLister(), Options{Boundary: "/proj"})
	c.Initialize(ctx, "/proj")
	c.Wait()

	require.ErrorIs(t, c.NavigateTo(ctx, "/proj2"), ErrOutsideBoundary)
	assert.Equal(t, "/proj", c.State().CurrentPath)
}

func TestExternalNavigationAllowed(t *testing.T) {
	ctx := context.Background()
	c := New(staticLister(), Options{Boundary: "/repo", AllowExternal: true})
	c.Initialize(ctx, "/repo")
	c.Wait()

	require.NoError(t, c.NavigateTo(ctx, "/etc/"))
	c.Wait()
	assert.Equal(t, "/etc", c.State().CurrentPath)

	assert.True(t, c.GoUp(ctx))
	c.Wait()
	assert.Equal(t, "/", c.State().CurrentPath)
	assert.False(t, c.CanGoUp(), "cannot go up from root")
}

func TestEmptyInputRejected(t *testing.T) {
	ctx := context.Background()
	c := New(staticLister(), Options{Boundary: "/repo"})
	c.Initialize(ctx, "/repo")
	c.Wait()

	c.SetPendingInput("   ")
	require.ErrorIs(t, c.CommitPendingInput(ctx), ErrEmptyPath)
	st := c.State()
	assert.Equal(t, MsgEmptyPath, st.FetchError)
	assert.Equal(t, "/repo", st.CurrentPath)

	c.SetPendingInput("/repo/x")
	assert.Empty(t, c.State().FetchError, "typing clears the error")
}

func TestCommitNormalizesInput(t *testing.T) {
	ctx := context.Background()
	c := New(staticLister(), Options{Boundary: "/repo"})
	c.Initialize(ctx, "/repo")
	c.Wait()

	c.SetPendingInput(`  \repo\src\..\lib\  `)
	require.NoError(t, c.CommitPendingInput(ctx))
	c.Wait()
	assert.Equal(t, "/repo/lib", c.State().CurrentPath)
}

func TestGoUpConvergesToBoundary(t *testing.T) {
	ctx := context.Background()
	c := New(staticLister(), Options{Boundary: "/repo"})
	c.Initialize(ctx, "/repo/a/b/c/d")
	c.Wait()

	for i := 0; i < 20; i++ {
		if !c.GoUp(ctx) {
			break
		}
		c.Wait()
	}
	assert.Equal(t, "/repo", c.State().CurrentPath)
	assert.False(t, c.CanGoUp())
}

func TestInitializeFallbacks(t *testing.T) {
	ctx := context.Background()

	c := New(staticLister(), Options{Boundary: "/repo/"})
	c.Initialize(ctx, "")
	c.Wait()
	assert.Equal(t, "/repo", c.State().CurrentPath)

	c = New(staticLister(), Options{})
	c.Initialize(ctx, "")
	c.Wait()
	assert.Equal(t, "/", c.State().CurrentPath)
}

func TestListingIsFilteredAndSorted(t *testing.T) {
	ctx := context.Background()
	lister := listing.FuncLister(func(ctx context.Context, path string) ([]model.DirectoryEntry, error) {
		return []model.DirectoryEntry{
			entry("zeta.go", "/repo/zeta.go", false),
			entry("node_modules", "/repo/node_modules", true),
			entry("src", "/repo/src", true),
			entry("README.md", "/repo/README.md", false),
			entry("cmd", "/repo/cmd", true),
		}, nil
	})
	c := New(lister, Options{
		Boundary: "/repo",
		Exclude:  fs.BuildExcludeList(fs.ExcludeOptions{}),
	})
	c.Initialize(ctx, "/repo")
	c.Wait()

	var names []string
	for _, e := range c.State().Listing {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"cmd", "src", "README.md", "zeta.go"}, names)
}

func TestFetchFailureAdvancesPathAndClearsListing(t *testing.T) {
	ctx := context.Background()
	lister := listing.FuncLister(func(ctx context.Context, path string) ([]model.DirectoryEntry, error) {
		if path == "/repo/broken" {
			return nil, errors.New("permission denied")
		}
		return []model.DirectoryEntry{entry("broken", "/repo/broken", true)}, nil
	})
	c := New(lister, Options{Boundary: "/repo"})
	c.Initialize(ctx, "/repo")
	c.Wait()
	require.NotNil(t, c.State().Listing)

	c.SelectEntry(ctx, entry("broken", "/repo/broken", true))
	c.Wait()

	st := c.State()
	assert.Equal(t, "/repo/broken", st.CurrentPath)
	assert.Nil(t, st.Listing)
	assert.False(t, st.Loading)
	assert.Equal(t, "permission denied", st.FetchError)

	c.DismissError()
	assert.Empty(t, c.State().FetchError)
}

func TestEmptyErrorMessageGetsFallback(t *testing.T) {
	ctx := context.Background()
	lister := listing.FuncLister(func(ctx context.Context, path string) ([]model.DirectoryEntry, error) {
		return nil, errors.New("")
	})
	c := New(lister, Options{})
	c.Initialize(ctx, "/data")
	c.Wait()
	assert.Equal(t, "Failed to load contents for /data", c.State().FetchError)
}

func TestRefreshRetries(t *testing.T) {
	ctx := context.Background()
	var mu sync.Mutex
	fail := true
	lister := listing.FuncLister(func(ctx context.Context, path string) ([]model.DirectoryEntry, error) {
		mu.Lock()
		defer mu.Unlock()
		if fail {
			return nil, errors.New("transport failure")
		}
		return []model.DirectoryEntry{}, nil
	})
	c := New(lister, Options{})
	c.Initialize(ctx, "/srv")
	c.Wait()
	require.NotEmpty(t, c.State().FetchError)

	mu.Lock()
	fail = false
	mu.Unlock()

	c.Refresh(ctx)
	c.Wait()
	st := c.State()
	assert.Empty(t, st.FetchError)
	assert.NotNil(t, st.Listing, "known-empty listing is not nil")
	assert.Empty(t, st.Listing)
}

func TestStaleResultDiscarded(t *testing.T) {
	ctx := context.Background()
	g := newGatedLister()
	c := New(g, Options{Boundary: "/repo"})

	c.Initialize(ctx, "/repo")
	g.release("/repo", nil, nil)
	c.Wait()

	require.NoError(t, c.NavigateTo(ctx, "/repo/a"))
	require.NoError(t, c.NavigateTo(ctx, "/repo/b"))

	bEntries := []model.DirectoryEntry{entry("b.go", "/repo/b/b.go", false)}
	g.release("/repo/b", bEntries, nil)
	require.Eventually(t, func() bool {
		return !c.State().Loading
	}, time.Second, 5*time.Millisecond)

	g.release("/repo/a", []model.DirectoryEntry{entry("a.go", "/repo/a/a.go", false)}, nil)
	c.Wait()

	st := c.State()
	assert.Equal(t, "/repo/b", st.CurrentPath)
	assert.Equal(t, bEntries, st.Listing)
	assert.False(t, st.Loading)
}

func TestStaleFailureDoesNotClobberPendingFetch(t *testing.T) {
	ctx := context.Background()
	g := newGatedLister()
	c := New(g, Options{Boundary: "/repo"})

	c.Initialize(ctx, "/repo")
	require.NoError(t, c.NavigateTo(ctx, "/repo/b"))

	// The initial fetch fails after it was superseded.
	g.release("/repo", nil, errors.New("boom"))
	time.Sleep(10 * time.Millisecond)

	st := c.State()
	assert.True(t, st.Loading, "newer fetch still outstanding")
	assert.Empty(t, st.FetchError)

	g.release("/repo/b", []model.DirectoryEntry{}, nil)
	c.Wait()
	assert.False(t, c.State().Loading)
	assert.Empty(t, c.State().FetchError)
}

func TestReturningToSamePathIgnoresOlderRequest(t *testing.T) {
	ctx := context.Background()
	g := newGatedLister()
	c := New(g, Options{})

	c.Initialize(ctx, "/a")
	require.NoError(t, c.NavigateTo(ctx, "/b"))
	require.NoError(t, c.NavigateTo(ctx, "/a"))

	// Both /a requests read from the same gate; the first answer goes to
	// whichever call receives it. Only the newest request may apply.
	newest := []model.DirectoryEntry{entry("new", "/a/new", false)}
	g.release("/b", nil, nil)
	g.release("/a", newest, nil)
	g.release("/a", newest, nil)
	c.Wait()

	assert.Equal(t, "/a", c.State().CurrentPath)
	assert.Equal(t, newest, c.State().Listing)
}

func TestSelectEntryFileAddsToSelection(t *testing.T) {
	ctx := context.Background()
	sel := scanpaths.New([]string{"README.md"})
	c := New(staticLister(), Options{Boundary: "/repo", Selection: sel})
	c.Initialize(ctx, "/repo")
	c.Wait()

	c.SelectEntry(ctx, entry("main.go", "/repo/main.go", false))
	c.SelectEntry(ctx, entry("main.go", "/repo//main.go", false))

	assert.Equal(t, []string{"/repo/main.go", "README.md"}, sel.ToSortedList())
	assert.Equal(t, "/repo", c.State().CurrentPath, "selecting a file does not navigate")
}

func TestSelectEntryDirectorySkipsBoundaryCheck(t *testing.T) {
	ctx := context.Background()
	c := New(staticLister(), Options{Boundary: "/repo"})
	c.Initialize(ctx, "/repo")
	c.Wait()

	c.SelectEntry(ctx, entry("linked", "/elsewhere/linked", true))
	c.Wait()
	assert.Equal(t, "/elsewhere/linked", c.State().CurrentPath)
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	ctx := context.Background()
	c := New(staticLister(), Options{})

	var mu sync.Mutex
	var states []State
	cancel := c.Subscribe(func(s State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})

	c.Initialize(ctx, "/x")
	c.Wait()

	mu.Lock()
	require.GreaterOrEqual(t, len(states), 2)
	assert.True(t, states[0].Loading)
	last := states[len(states)-1]
	mu.Unlock()
	assert.False(t, last.Loading)
	assert.Len(t, last.Listing, 1)

	cancel()
	c.SetPendingInput("ignored")
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, last, states[len(states)-1])
}

func TestSubscribeDeliversInOrder(t *testing.T) {
	ctx := context.Background()
	c := New(staticLister(), Options{})

	var mu sync.Mutex
	var states []State
	c.Subscribe(func(s State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})

	for i := 0; i < 50; i++ {
		c.Initialize(ctx, "/x")
		c.Wait()

		mu.Lock()
		require.NotEmpty(t, states)
		last := states[len(states)-1]
		mu.Unlock()
		require.False(t, last.Loading, "round %d: last delivered state is still loading", i)
		require.Equal(t, c.State(), last)
	}
}

func TestSubscribeListenerMayCallBack(t *testing.T) {
	ctx := context.Background()
	c := New(staticLister(), Options{})

	var mu sync.Mutex
	var seen []State
	c.Subscribe(func(s State) {
		// re-entrant calls must not deadlock
		cur := c.State()
		if s.FetchError == "" && !s.Loading && s.CurrentPath == "/x" && s.PendingInput != "typed" {
			c.SetPendingInput("typed")
		}
		mu.Lock()
		seen = append(seen, cur)
		mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		c.Initialize(ctx, "/x")
		c.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("controller deadlocked with a re-entrant listener")
	}

	assert.Equal(t, "typed", c.State().PendingInput)
	mu.Lock()
	defer mu.Unlock()
	assert.NotEmpty(t, seen)
}

func TestStateIsACopy(t *testing.T) {
	ctx := context.Background()
	c := New(staticLister(), Options{})
	c.Initialize(ctx, "/x")
	c.Wait()

	st := c.State()
	st.Listing[0].Name = "mutated"
	assert.Equal(t, "child", c.State().Listing[0].Name)
}
