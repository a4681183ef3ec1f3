package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tormodhaugland/planner/internal/browser"
	"github.com/tormodhaugland/planner/internal/model"
	"github.com/tormodhaugland/planner/internal/pathpolicy"
	"github.com/tormodhaugland/planner/internal/scanpaths"
)

// ScanPathsResult holds the outcome of the scan-paths drawer.
type ScanPathsResult struct {
	Paths     []string
	Committed bool
}

type drawerPane int

const (
	paneBrowse drawerPane = iota
	paneSelected
	paneManual
	paneSuggest
)

func (p drawerPane) String() string {
	switch p {
	case paneBrowse:
		return "Browse"
	case paneSelected:
		return "Selected"
	case paneManual:
		return "Add path"
	case paneSuggest:
		return "Suggested"
	default:
		return "Unknown"
	}
}

type drawerKeyMap struct {
	NextPane key.Binding
	PrevPane key.Binding
	Toggle   key.Binding
	Open     key.Binding
	Up       key.Binding
	Remove   key.Binding
	Close    key.Binding
	Abort    key.Binding
}

var drawerKeys = drawerKeyMap{
	NextPane: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next pane")),
	PrevPane: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev pane")),
	Toggle:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
	Open:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open/add")),
	Up:       key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("ctrl+u", "up")),
	Remove:   key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "remove")),
	Close:    key.NewBinding(key.WithKeys("esc", "ctrl+s"), key.WithHelp("esc", "done")),
	Abort:    key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "discard")),
}

// ScanPathsDrawerModel edits a scan path selection: browse and pick files,
// review and remove selected paths, type a path by hand, or take one of the
// suggested paths. Closing the drawer commits the selection.
type ScanPathsDrawerModel struct {
	ctx       context.Context
	ctrl      *browser.Controller
	selection *scanpaths.Set
	watcher   *stateWatcher
	commit    func([]string)

	pane      drawerPane
	state     browser.State
	selected  []string
	suggested []string
	filtered  []string

	browseScroll  scroller
	selectScroll  scroller
	suggestScroll scroller
	manualInput   textinput.Model
	searchInput   textinput.Model
	message       string
	frame         int
	width         int

	done   bool
	result ScanPathsResult
}

// NewScanPathsDrawer builds a drawer over ctrl, which must have a selection
// attached. commit receives the final selection when the drawer is closed.
func NewScanPathsDrawer(ctx context.Context, ctrl *browser.Controller, suggested []string, commit func([]string)) ScanPathsDrawerModel {
	mi := textinput.New()
	mi.Placeholder = "path/to/file.go"
	mi.CharLimit = 4096
	mi.Width = 50

	si := textinput.New()
	si.Placeholder = "search suggestions"
	si.CharLimit = 128
	si.Width = 30

	m := ScanPathsDrawerModel{
		ctx:           ctx,
		ctrl:          ctrl,
		selection:     ctrl.Selection(),
		watcher:       watchController(ctrl),
		commit:        commit,
		suggested:     suggested,
		browseScroll:  scroller{height: 12},
		selectScroll:  scroller{height: 6},
		suggestScroll: scroller{height: 6},
		manualInput:   mi,
		searchInput:   si,
	}
	m.filtered = scanpaths.FilterSuggestions(suggested, "")
	m.suggestScroll.setCount(len(m.filtered))
	m.sync()
	return m
}

func (m ScanPathsDrawerModel) Init() tea.Cmd {
	return tea.Batch(m.watcher.wait(), loadingTick())
}

// Result returns the outcome once the drawer has quit.
func (m ScanPathsDrawerModel) Result() ScanPathsResult {
	return m.result
}

func (m *ScanPathsDrawerModel) sync() {
	prevPath := m.state.CurrentPath
	m.state = m.ctrl.State()
	if m.state.CurrentPath != prevPath {
		m.browseScroll.reset()
	}
	m.browseScroll.setCount(len(m.state.Listing))
	m.selected = m.selection.ToSortedList()
	m.selectScroll.setCount(len(m.selected))
}

func (m ScanPathsDrawerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateChangedMsg:
		m.sync()
		return m, m.watcher.wait()

	case loadingTickMsg:
		m.frame = (m.frame + 1) % len(loadingFrames)
		if m.done {
			return m, nil
		}
		return m, loadingTick()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.browseScroll.setHeight(msg.Height - 18)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m ScanPathsDrawerModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, drawerKeys.Abort):
		return m.finish(false)
	case key.Matches(msg, drawerKeys.Close):
		return m.finish(true)
	case key.Matches(msg, drawerKeys.NextPane):
		return m.setPane((m.pane + 1) % 4)
	case key.Matches(msg, drawerKeys.PrevPane):
		return m.setPane((m.pane + 3) % 4)
	}

	m.message = ""
	switch m.pane {
	case paneBrowse:
		return m.handleBrowseKey(msg)
	case paneSelected:
		return m.handleSelectedKey(msg)
	case paneManual:
		return m.handleManualKey(msg)
	case paneSuggest:
		return m.handleSuggestKey(msg)
	}
	return m, nil
}

func (m ScanPathsDrawerModel) setPane(p drawerPane) (tea.Model, tea.Cmd) {
	m.pane = p
	m.manualInput.Blur()
	m.searchInput.Blur()
	switch p {
	case paneManual:
		return m, m.manualInput.Focus()
	case paneSuggest:
		return m, m.searchInput.Focus()
	}
	return m, nil
}

func (m ScanPathsDrawerModel) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	entry, ok := m.currentEntry()

	switch {
	case key.Matches(msg, drawerKeys.Up):
		m.ctrl.GoUp(m.ctx)
		m.sync()
		return m, nil
	case key.Matches(msg, drawerKeys.Open):
		if ok {
			// files are added to the selection, directories are opened
			m.ctrl.SelectEntry(m.ctx, entry)
			m.sync()
		}
		return m, nil
	case key.Matches(msg, drawerKeys.Toggle):
		if ok {
			m.toggle(entry.Path)
		}
		return m, nil
	}

	switch msg.String() {
	case "up", "k":
		m.browseScroll.up()
	case "down", "j":
		m.browseScroll.down()
	case "home", "g":
		m.browseScroll.top()
	case "end", "G":
		m.browseScroll.bottom()
	case "backspace", "h", "left":
		m.ctrl.GoUp(m.ctx)
		m.sync()
	case "r":
		m.ctrl.Refresh(m.ctx)
		m.sync()
	}
	return m, nil
}

func (m ScanPathsDrawerModel) handleSelectedKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, drawerKeys.Remove), msg.String() == "backspace":
		if m.selectScroll.cursor < len(m.selected) {
			m.selection.Remove(m.selected[m.selectScroll.cursor])
			m.sync()
		}
		return m, nil
	}

	switch msg.String() {
	case "up", "k", "left", "h":
		m.selectScroll.up()
	case "down", "j", "right", "l":
		m.selectScroll.down()
	}
	return m, nil
}

func (m ScanPathsDrawerModel) handleManualKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, drawerKeys.Open) {
		text := m.manualInput.Value()
		if strings.TrimSpace(text) == "" {
			return m, nil
		}
		if m.selection.AddManual(text) {
			m.message = "Added " + pathpolicy.Normalize(strings.TrimSpace(text))
		} else {
			m.message = "Already selected"
		}
		m.manualInput.SetValue("")
		m.sync()
		return m, nil
	}

	var cmd tea.Cmd
	m.manualInput, cmd = m.manualInput.Update(msg)
	return m, cmd
}

func (m ScanPathsDrawerModel) handleSuggestKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, drawerKeys.Open):
		if m.suggestScroll.cursor < len(m.filtered) {
			m.toggle(m.filtered[m.suggestScroll.cursor])
		}
		return m, nil
	}

	switch msg.String() {
	case "up":
		m.suggestScroll.up()
		return m, nil
	case "down":
		m.suggestScroll.down()
		return m, nil
	}

	var cmd tea.Cmd
	before := m.searchInput.Value()
	m.searchInput, cmd = m.searchInput.Update(msg)
	if m.searchInput.Value() != before {
		m.filtered = scanpaths.FilterSuggestions(m.suggested, m.searchInput.Value())
		m.suggestScroll.reset()
		m.suggestScroll.setCount(len(m.filtered))
	}
	return m, cmd
}

func (m *ScanPathsDrawerModel) toggle(path string) {
	if m.selection.Contains(path) {
		m.selection.Remove(path)
	} else {
		m.selection.Add(path)
	}
	m.sync()
}

func (m ScanPathsDrawerModel) currentEntry() (model.DirectoryEntry, bool) {
	if m.state.Loading || m.browseScroll.cursor >= len(m.state.Listing) {
		return model.DirectoryEntry{}, false
	}
	return m.state.Listing[m.browseScroll.cursor], true
}

func (m ScanPathsDrawerModel) finish(commit bool) (tea.Model, tea.Cmd) {
	m.done = true
	m.watcher.stop()
	if commit {
		if m.commit != nil {
			m.selection.Commit(m.commit)
		}
		m.result.Paths = m.selection.ToSortedList()
		m.result.Committed = true
	}
	return m, tea.Quit
}

func (m ScanPathsDrawerModel) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Scan paths") + dimStyle.Render(fmt.Sprintf("  %d selected", len(m.selected))) + "\n\n")

	sb.WriteString(m.paneBox(paneBrowse, m.browseView()) + "\n")
	sb.WriteString(m.paneBox(paneSelected, m.selectedView()) + "\n")
	row := lipgloss.JoinHorizontal(lipgloss.Top,
		m.paneBox(paneManual, m.manualInput.View()),
		" ",
		m.paneBox(paneSuggest, m.suggestView()),
	)
	sb.WriteString(row + "\n")

	if m.message != "" {
		sb.WriteString(dimStyle.Render(m.message) + "\n")
	}
	sb.WriteString(hintStyle.Render(m.hint()))
	return sb.String()
}

func (m ScanPathsDrawerModel) paneBox(p drawerPane, body string) string {
	style := paneStyle
	header := dimStyle.Render(p.String())
	if m.pane == p {
		style = activePane
		header = labelStyle.Render(p.String())
	}
	return style.Render(header + "\n" + body)
}

func (m ScanPathsDrawerModel) browseView() string {
	var sb strings.Builder
	sb.WriteString(dimStyle.Render(m.state.CurrentPath) + "\n")

	switch {
	case m.state.FetchError != "":
		sb.WriteString(errorStyle.Render("Error: " + m.state.FetchError))
		return sb.String()
	case m.state.Loading:
		sb.WriteString(loadingFrames[m.frame] + " Loading")
		return sb.String()
	case len(m.state.Listing) == 0:
		sb.WriteString(dimStyle.Render("Empty directory"))
		return sb.String()
	}

	start, end := m.browseScroll.visibleRange()
	for i := start; i < end; i++ {
		e := m.state.Listing[i]
		mark := "[ ]"
		if m.selection.Contains(e.Path) {
			mark = "[x]"
		}
		name := e.Name
		if e.IsDirectory {
			name = dirStyle.Render(name + "/")
		}
		line := mark + " " + name
		if i == m.browseScroll.cursor && m.pane == paneBrowse {
			line = cursorStyle.Render("▸ ") + line
		} else {
			line = "  " + line
		}
		sb.WriteString(line)
		if i < end-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func (m ScanPathsDrawerModel) selectedView() string {
	if len(m.selected) == 0 {
		return dimStyle.Render("Nothing selected")
	}
	root := m.ctrl.Boundary()
	chips := make([]string, 0, len(m.selected))
	for i, p := range m.selected {
		label := p
		if root != pathpolicy.Empty {
			label = pathpolicy.Rel(root, p)
		}
		label = truncateLeft(label, 40)
		if i == m.selectScroll.cursor && m.pane == paneSelected {
			chips = append(chips, chipActive.Render(label+" ×"))
		} else {
			chips = append(chips, chipStyle.Render(label))
		}
	}
	return strings.Join(chips, " ")
}

func (m ScanPathsDrawerModel) suggestView() string {
	var sb strings.Builder
	sb.WriteString(m.searchInput.View())
	if len(m.suggested) == 0 {
		sb.WriteString("\n" + dimStyle.Render("No suggestions"))
		return sb.String()
	}
	start, end := m.suggestScroll.visibleRange()
	for i := start; i < end; i++ {
		p := m.filtered[i]
		mark := "  "
		if m.selection.Contains(p) {
			mark = "✓ "
		}
		line := mark + truncateLeft(p, 40)
		if i == m.suggestScroll.cursor && m.pane == paneSuggest {
			line = cursorStyle.Render(line)
		}
		sb.WriteString("\n" + line)
	}
	return sb.String()
}

func (m ScanPathsDrawerModel) hint() string {
	switch m.pane {
	case paneBrowse:
		return "enter: open/add • space: toggle • ctrl+u: up • r: retry • tab: next pane • esc: done"
	case paneSelected:
		return "←/→: move • x: remove • tab: next pane • esc: done"
	case paneManual:
		return "enter: add path • tab: next pane • esc: done"
	default:
		return "type to search • enter: toggle • tab: next pane • esc: done"
	}
}

// RunScanPathsDrawer opens the drawer at initialPath and returns the
// selection. commit is called with the selection when the user closes the
// drawer normally.
func RunScanPathsDrawer(ctx context.Context, ctrl *browser.Controller, initialPath string, suggested []string, commit func([]string)) (ScanPathsResult, error) {
	if ctrl.Selection() == nil {
		return ScanPathsResult{}, fmt.Errorf("scan paths drawer needs a selection")
	}
	ctrl.Initialize(ctx, initialPath)

	m := NewScanPathsDrawer(ctx, ctrl, suggested, commit)
	defer m.watcher.stop()

	p := tea.NewProgram(m, useStderr()...)
	finalModel, err := p.Run()
	if err != nil {
		return ScanPathsResult{}, err
	}
	return finalModel.(ScanPathsDrawerModel).Result(), nil
}
