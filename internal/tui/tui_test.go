package tui

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tormodhaugland/planner/internal/browser"
	"github.com/tormodhaugland/planner/internal/fs"
	"github.com/tormodhaugland/planner/internal/listing"
	"github.com/tormodhaugland/planner/internal/model"
	"github.com/tormodhaugland/planner/internal/scanpaths"
)

func dir(parent, name string) model.DirectoryEntry {
	return model.DirectoryEntry{Name: name, Path: parent + "/" + name, IsDirectory: true}
}

func file(parent, name string) model.DirectoryEntry {
	return model.DirectoryEntry{Name: name, Path: parent + "/" + name}
}

func fakeTree() listing.FuncLister {
	tree := map[string][]model.DirectoryEntry{
		"/repo": {
			file("/repo", "main.go"),
			dir("/repo", "src"),
			dir("/repo", "node_modules"),
			dir("/repo", "docs"),
		},
		"/repo/src":  {file("/repo/src", "app.go")},
		"/repo/docs": {},
	}
	return func(ctx context.Context, p string) ([]model.DirectoryEntry, error) {
		entries, ok := tree[p]
		if !ok {
			return nil, fmt.Errorf("failed to load contents for %s", p)
		}
		return entries, nil
	}
}

func newTestController(t *testing.T, sel *scanpaths.Set) *browser.Controller {
	t.Helper()
	ctrl := browser.New(fakeTree(), browser.Options{
		Boundary:  "/repo",
		Exclude:   fs.BuildExcludeList(fs.ExcludeOptions{}),
		Selection: sel,
	})
	ctrl.Initialize(context.Background(), "")
	ctrl.Wait()
	return ctrl
}

func keyType(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var space = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}

// press feeds msg to m, waits for any listing fetch it started and delivers
// the resulting state change.
func press[M tea.Model](t *testing.T, ctrl *browser.Controller, m M, msg tea.Msg) (M, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	ctrl.Wait()
	updated, _ = updated.(M).Update(stateChangedMsg{})
	return updated.(M), cmd
}

func typeText[M tea.Model](t *testing.T, ctrl *browser.Controller, m M, text string) M {
	t.Helper()
	for _, r := range text {
		m, _ = press(t, ctrl, m, runes(string(r)))
	}
	return m
}

func dirNames(entries []model.DirectoryEntry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

func TestDirPickerListsSubdirectories(t *testing.T) {
	ctrl := newTestController(t, nil)
	m := NewDirPicker(context.Background(), ctrl, "Project root")

	assert.Equal(t, "/repo", m.state.CurrentPath)
	assert.Equal(t, []string{"docs", "src"}, dirNames(m.dirs))
	assert.Equal(t, "/repo", m.input.Value())

	view := m.View()
	assert.Contains(t, view, "src/")
	assert.NotContains(t, view, "main.go")
	assert.NotContains(t, view, "node_modules")
}

func TestDirPickerOpenDirectoryGoUpAndChoose(t *testing.T) {
	ctrl := newTestController(t, nil)
	m := NewDirPicker(context.Background(), ctrl, "Project root")

	m, _ = press(t, ctrl, m, keyType(tea.KeyTab))
	require.Equal(t, focusList, m.focus)
	m, _ = press(t, ctrl, m, keyType(tea.KeyDown))
	m, _ = press(t, ctrl, m, keyType(tea.KeyEnter))
	assert.Equal(t, "/repo/src", m.state.CurrentPath)
	assert.Equal(t, "/repo/src", m.input.Value())

	m, _ = press(t, ctrl, m, keyType(tea.KeyCtrlU))
	assert.Equal(t, "/repo", m.state.CurrentPath)

	// already at the boundary
	m, _ = press(t, ctrl, m, keyType(tea.KeyCtrlU))
	assert.Equal(t, "/repo", m.state.CurrentPath)

	m, cmd := press(t, ctrl, m, keyType(tea.KeyCtrlS))
	require.NotNil(t, cmd)
	assert.True(t, m.done)
	assert.Equal(t, DirPickerResult{Path: "/repo"}, m.Result())
}

func TestDirPickerTypedPath(t *testing.T) {
	ctrl := newTestController(t, nil)
	m := NewDirPicker(context.Background(), ctrl, "Project root")

	for range len("/repo") {
		m, _ = press(t, ctrl, m, keyType(tea.KeyBackspace))
	}
	require.Equal(t, "", m.input.Value())

	m = typeText(t, ctrl, m, "/etc")
	assert.Equal(t, "/etc", m.state.PendingInput)

	m, _ = press(t, ctrl, m, keyType(tea.KeyEnter))
	assert.Equal(t, "/repo", m.state.CurrentPath, "out-of-bounds path must not navigate")
	assert.Equal(t, browser.MsgOutsideBoundary, m.state.FetchError)
	assert.Contains(t, m.View(), browser.MsgOutsideBoundary)

	for range len("/etc") {
		m, _ = press(t, ctrl, m, keyType(tea.KeyBackspace))
	}
	assert.Empty(t, m.state.FetchError, "editing clears the error")

	m = typeText(t, ctrl, m, "/repo/docs/")
	m, _ = press(t, ctrl, m, keyType(tea.KeyEnter))
	assert.Equal(t, "/repo/docs", m.state.CurrentPath)
	assert.Empty(t, m.dirs)
	assert.Contains(t, m.View(), "No subdirectories")
}

func TestDirPickerBackspaceOnEmptyGoesUp(t *testing.T) {
	ctrl := newTestController(t, nil)
	require.NoError(t, ctrl.NavigateTo(context.Background(), "/repo/src"))
	ctrl.Wait()

	m := NewDirPicker(context.Background(), ctrl, "Project root")
	for range len("/repo/src") {
		m, _ = press(t, ctrl, m, keyType(tea.KeyBackspace))
	}
	m, _ = press(t, ctrl, m, keyType(tea.KeyBackspace))
	assert.Equal(t, "/repo", m.state.CurrentPath)
}

func TestDirPickerShowsFetchError(t *testing.T) {
	ctrl := newTestController(t, nil)
	m := NewDirPicker(context.Background(), ctrl, "Project root")

	require.NoError(t, ctrl.NavigateTo(context.Background(), "/repo/missing"))
	ctrl.Wait()
	updated, _ := m.Update(stateChangedMsg{})
	m = updated.(DirPickerModel)

	assert.Equal(t, "/repo/missing", m.state.CurrentPath)
	assert.Nil(t, m.state.Listing)
	assert.Contains(t, m.View(), "failed to load contents for /repo/missing")
}

func TestDirPickerCancel(t *testing.T) {
	ctrl := newTestController(t, nil)
	m := NewDirPicker(context.Background(), ctrl, "Project root")

	m, cmd := press(t, ctrl, m, keyType(tea.KeyEsc))
	require.NotNil(t, cmd)
	assert.True(t, m.Result().Aborted)
	assert.Empty(t, m.Result().Path)
}

func TestStateWatcherDeliversAndStops(t *testing.T) {
	ctrl := newTestController(t, nil)
	w := watchController(ctrl)

	ctrl.Refresh(context.Background())
	ctrl.Wait()

	msg := w.wait()()
	assert.Equal(t, stateChangedMsg{}, msg)

	w.stop()
	w.stop()
	done := make(chan tea.Msg, 1)
	go func() { done <- w.wait()() }()
	select {
	case msg := <-done:
		assert.Nil(t, msg)
	case <-time.After(time.Second):
		t.Fatal("wait did not return after stop")
	}
}

func newDrawer(t *testing.T, commit func([]string)) (*browser.Controller, ScanPathsDrawerModel) {
	t.Helper()
	ctrl := newTestController(t, scanpaths.New(nil))
	suggested := []string{"/repo/src/app.go", "/repo/README.md"}
	return ctrl, NewScanPathsDrawer(context.Background(), ctrl, suggested, commit)
}

func TestDrawerBrowseAndToggle(t *testing.T) {
	ctrl, m := newDrawer(t, nil)

	require.Equal(t, []string{"docs", "src", "main.go"}, dirNames(m.state.Listing))

	m, _ = press(t, ctrl, m, keyType(tea.KeyDown))
	m, _ = press(t, ctrl, m, keyType(tea.KeyDown))
	m, _ = press(t, ctrl, m, keyType(tea.KeyEnter))
	assert.Equal(t, []string{"/repo/main.go"}, m.selected)
	assert.Equal(t, "/repo", m.state.CurrentPath, "selecting a file does not navigate")
	assert.Contains(t, m.View(), "[x] main.go")

	m, _ = press(t, ctrl, m, space)
	assert.Empty(t, m.selected)

	// space on a directory selects the directory itself
	m, _ = press(t, ctrl, m, keyType(tea.KeyUp))
	m, _ = press(t, ctrl, m, space)
	assert.Equal(t, []string{"/repo/src"}, m.selected)

	m, _ = press(t, ctrl, m, keyType(tea.KeyEnter))
	assert.Equal(t, "/repo/src", m.state.CurrentPath)
	assert.Equal(t, []string{"app.go"}, dirNames(m.state.Listing))

	m, _ = press(t, ctrl, m, keyType(tea.KeyBackspace))
	assert.Equal(t, "/repo", m.state.CurrentPath)
}

func TestDrawerRemoveManualAndSuggest(t *testing.T) {
	var committed []string
	ctrl, m := newDrawer(t, func(paths []string) { committed = paths })
	m.selection.Add("/repo/main.go")
	m, _ = press(t, ctrl, m, stateChangedMsg{})
	require.Equal(t, []string{"/repo/main.go"}, m.selected)

	m, _ = press(t, ctrl, m, keyType(tea.KeyTab))
	require.Equal(t, paneSelected, m.pane)
	m, _ = press(t, ctrl, m, runes("x"))
	assert.Empty(t, m.selected)

	m, _ = press(t, ctrl, m, keyType(tea.KeyTab))
	require.Equal(t, paneManual, m.pane)
	m = typeText(t, ctrl, m, `\repo\notes.txt`)
	m, _ = press(t, ctrl, m, keyType(tea.KeyEnter))
	assert.Equal(t, []string{"/repo/notes.txt"}, m.selected)
	assert.Equal(t, "", m.manualInput.Value())
	assert.Contains(t, m.View(), "Added /repo/notes.txt")

	m, _ = press(t, ctrl, m, keyType(tea.KeyTab))
	require.Equal(t, paneSuggest, m.pane)
	m = typeText(t, ctrl, m, "app")
	assert.Equal(t, []string{"/repo/src/app.go"}, m.filtered)
	m, _ = press(t, ctrl, m, keyType(tea.KeyEnter))
	assert.Equal(t, []string{"/repo/notes.txt", "/repo/src/app.go"}, m.selected)

	m, cmd := press(t, ctrl, m, keyType(tea.KeyEsc))
	require.NotNil(t, cmd)
	assert.True(t, m.Result().Committed)
	assert.Equal(t, []string{"/repo/notes.txt", "/repo/src/app.go"}, committed)
	assert.Equal(t, committed, m.Result().Paths)
}

func TestDrawerAbortDoesNotCommit(t *testing.T) {
	called := false
	ctrl, m := newDrawer(t, func([]string) { called = true })
	m.selection.Add("/repo/main.go")

	m, _ = press(t, ctrl, m, keyType(tea.KeyCtrlC))
	assert.False(t, called)
	assert.False(t, m.Result().Committed)
}

func TestDrawerPaneCycle(t *testing.T) {
	ctrl, m := newDrawer(t, nil)

	m, _ = press(t, ctrl, m, keyType(tea.KeyShiftTab))
	assert.Equal(t, paneSuggest, m.pane)
	assert.True(t, m.searchInput.Focused())

	m, _ = press(t, ctrl, m, keyType(tea.KeyTab))
	assert.Equal(t, paneBrowse, m.pane)
	assert.False(t, m.searchInput.Focused())
}

func testPlan() *model.Plan {
	return &model.Plan{
		ID:      "p1",
		Title:   "Add cache",
		Summary: "Adds an LRU cache in front of the store.",
		Changes: []model.FileChange{
			{FilePath: "cache/lru.go", Action: model.ActionAdd, NewContent: "package cache\n"},
			{FilePath: "store/store.go", Action: model.ActionModify, Diff: "--- a/store.go\n+++ b/store.go\n@@ -1 +1 @@\n-old\n+new\n"},
			{FilePath: "legacy.go", Action: model.ActionDelete},
		},
	}
}

func planKey(m PlanViewModel, msg tea.KeyMsg) (PlanViewModel, tea.Cmd) {
	updated, cmd := m.Update(msg)
	return updated.(PlanViewModel), cmd
}

func TestPlanViewChooseSubset(t *testing.T) {
	m := NewPlanView(testPlan())
	assert.Equal(t, 3, m.countChosen())

	view := m.View()
	assert.Contains(t, view, "Add cache")
	assert.Contains(t, view, "Changes (3/3 chosen)")
	assert.Contains(t, view, "package cache")

	m, _ = planKey(m, keyType(tea.KeyDown))
	m, _ = planKey(m, space)
	assert.Contains(t, m.View(), "+new")

	m, cmd := planKey(m, keyType(tea.KeyEnter))
	require.NotNil(t, cmd)
	assert.Equal(t, PlanViewResult{Indexes: []int{0, 2}}, m.Result())
}

func TestPlanViewToggleAll(t *testing.T) {
	m := NewPlanView(testPlan())

	m, _ = planKey(m, runes("a"))
	assert.Equal(t, 0, m.countChosen())

	// nothing chosen: enter does nothing
	m, cmd := planKey(m, keyType(tea.KeyEnter))
	assert.Nil(t, cmd)
	assert.False(t, m.done)

	m, _ = planKey(m, runes("a"))
	m, _ = planKey(m, keyType(tea.KeyEnter))
	assert.Equal(t, PlanViewResult{Indexes: []int{0, 1, 2}, All: true}, m.Result())
}

func TestPlanViewCancel(t *testing.T) {
	m, _ := planKey(NewPlanView(testPlan()), keyType(tea.KeyEsc))
	assert.True(t, m.Result().Aborted)
}

func TestRenderPreviewTruncates(t *testing.T) {
	var lines []string
	for i := 0; i < previewLines+5; i++ {
		lines = append(lines, fmt.Sprintf("line %d", i))
	}
	out := renderPreview(model.FileChange{FilePath: "x", NewContent: strings.Join(lines, "\n")})
	assert.Contains(t, out, "5 more lines")
	assert.NotContains(t, out, fmt.Sprintf("line %d", previewLines))

	assert.Contains(t, renderPreview(model.FileChange{FilePath: "gone.go"}), "No preview for gone.go")
}

func TestConfirm(t *testing.T) {
	m := newConfirmModel("Apply anyway?", []string{"M main.go"}, false)
	assert.Contains(t, m.View(), "M main.go")

	updated, _ := m.Update(keyType(tea.KeyEnter))
	assert.False(t, updated.(confirmModel).result.Confirmed)

	updated, _ = m.Update(runes("y"))
	assert.True(t, updated.(confirmModel).result.Confirmed)
}

func TestPlanPromptRequiresPrompt(t *testing.T) {
	m := newPlanPromptModel("/repo", nil, model.RequestLLMGeneration)

	updated, _ := m.Update(keyType(tea.KeyTab))
	updated, cmd := updated.Update(keyType(tea.KeyEnter))
	pm := updated.(planPromptModel)
	assert.Nil(t, cmd)
	assert.Equal(t, "prompt is required", pm.err)

	updated, _ = pm.Update(keyType(tea.KeyTab))
	for _, r := range "add cache" {
		updated, _ = updated.Update(runes(string(r)))
	}
	updated, _ = updated.Update(keyType(tea.KeyTab))
	updated, cmd = updated.Update(keyType(tea.KeyEnter))
	require.NotNil(t, cmd)
	assert.Equal(t, "add cache", updated.(planPromptModel).result.Prompt)
}

func TestScroller(t *testing.T) {
	s := scroller{height: 3}
	s.setCount(10)
	for i := 0; i < 5; i++ {
		s.down()
	}
	assert.Equal(t, 5, s.cursor)
	start, end := s.visibleRange()
	assert.Equal(t, 3, start)
	assert.Equal(t, 6, end)

	s.bottom()
	assert.Equal(t, 9, s.cursor)
	s.setCount(4)
	assert.Equal(t, 3, s.cursor)
	s.top()
	start, _ = s.visibleRange()
	assert.Equal(t, 0, start)
}

func TestTruncateLeft(t *testing.T) {
	assert.Equal(t, "short", truncateLeft("short", 10))
	assert.Equal(t, "…/b/c.go", truncateLeft("/very/long/a/b/c.go", 8))
}
