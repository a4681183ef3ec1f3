package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/tormodhaugland/planner/internal/browser"
	"github.com/tormodhaugland/planner/internal/model"
	"github.com/tormodhaugland/planner/internal/pathpolicy"
)

// DirPickerResult holds the outcome of the project-root picker.
type DirPickerResult struct {
	Path    string
	Aborted bool
}

type pickerFocus int

const (
	focusPath pickerFocus = iota
	focusList
)

type pickerKeyMap struct {
	Go      key.Binding
	Up      key.Binding
	Choose  key.Binding
	Refresh key.Binding
	Focus   key.Binding
	Cancel  key.Binding
}

var pickerKeys = pickerKeyMap{
	Go:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "go")),
	Up:      key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("ctrl+u", "up")),
	Choose:  key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "choose")),
	Refresh: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "retry")),
	Focus:   key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "switch")),
	Cancel:  key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "cancel")),
}

// DirPickerModel lets the user pick a directory, typically a project root,
// within the controller's boundary.
type DirPickerModel struct {
	ctx     context.Context
	ctrl    *browser.Controller
	watcher *stateWatcher
	title   string

	input  textinput.Model
	focus  pickerFocus
	state  browser.State
	dirs   []model.DirectoryEntry
	scroll scroller
	frame  int
	width  int

	done   bool
	result DirPickerResult
}

// NewDirPicker builds a picker over ctrl. The controller should already be
// initialized.
func NewDirPicker(ctx context.Context, ctrl *browser.Controller, title string) DirPickerModel {
	ti := textinput.New()
	ti.Placeholder = "/path/to/project"
	ti.CharLimit = 4096
	ti.Width = 60
	ti.Prompt = ""
	ti.Focus()

	m := DirPickerModel{
		ctx:     ctx,
		ctrl:    ctrl,
		watcher: watchController(ctrl),
		title:   title,
		input:   ti,
		scroll:  scroller{height: 12},
	}
	m.sync()
	return m
}

func (m DirPickerModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.watcher.wait(), loadingTick())
}

// Result returns the outcome once the picker has quit.
func (m DirPickerModel) Result() DirPickerResult {
	return m.result
}

// sync re-reads controller state into the model.
func (m *DirPickerModel) sync() {
	prevPath := m.state.CurrentPath
	m.state = m.ctrl.State()
	m.dirs = model.Directories(m.state.Listing)
	if m.state.CurrentPath != prevPath {
		m.scroll.reset()
	}
	m.scroll.setCount(len(m.dirs))
	if m.input.Value() != m.state.PendingInput {
		m.input.SetValue(m.state.PendingInput)
		m.input.CursorEnd()
	}
}

func (m DirPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
		m.input.Width = max(20, msg.Width-10)
		m.scroll.setHeight(msg.Height - 9)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m DirPickerModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, pickerKeys.Cancel):
		m.result.Aborted = true
		return m.finish()

	case key.Matches(msg, pickerKeys.Choose):
		if m.state.CurrentPath == pathpolicy.Empty {
			return m, nil
		}
		m.result.Path = m.state.CurrentPath
		return m.finish()

	case key.Matches(msg, pickerKeys.Up):
		m.ctrl.GoUp(m.ctx)
		m.sync()
		return m, nil

	case key.Matches(msg, pickerKeys.Refresh):
		m.ctrl.Refresh(m.ctx)
		m.sync()
		return m, nil

	case key.Matches(msg, pickerKeys.Focus):
		return m.toggleFocus()

	case key.Matches(msg, pickerKeys.Go):
		if m.focus == focusPath {
			// a rejected path is reported through FetchError
			_ = m.ctrl.CommitPendingInput(m.ctx)
		} else if m.scroll.cursor < len(m.dirs) {
			m.ctrl.SelectEntry(m.ctx, m.dirs[m.scroll.cursor])
		}
		m.sync()
		return m, nil
	}

	if m.focus == focusList {
		switch msg.String() {
		case "up", "k":
			m.scroll.up()
		case "down", "j":
			m.scroll.down()
		case "home", "g":
			m.scroll.top()
		case "end", "G":
			m.scroll.bottom()
		case "backspace", "h", "left":
			m.ctrl.GoUp(m.ctx)
			m.sync()
		case "right", "l":
			if m.scroll.cursor < len(m.dirs) {
				m.ctrl.SelectEntry(m.ctx, m.dirs[m.scroll.cursor])
				m.sync()
			}
		}
		return m, nil
	}

	if msg.Type == tea.KeyBackspace && m.input.Value() == "" {
		m.ctrl.GoUp(m.ctx)
		m.sync()
		return m, nil
	}
	if msg.Type == tea.KeyDown {
		return m.toggleFocus()
	}

	var cmd tea.Cmd
	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.ctrl.SetPendingInput(m.input.Value())
		m.state = m.ctrl.State()
	}
	return m, cmd
}

func (m DirPickerModel) toggleFocus() (tea.Model, tea.Cmd) {
	if m.focus == focusPath {
		m.focus = focusList
		m.input.Blur()
		return m, nil
	}
	m.focus = focusPath
	return m, m.input.Focus()
}

func (m DirPickerModel) finish() (tea.Model, tea.Cmd) {
	m.done = true
	m.watcher.stop()
	return m, tea.Quit
}

func (m DirPickerModel) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(m.title) + "\n")
	if b := m.ctrl.Boundary(); b != pathpolicy.Empty && !m.ctrl.AllowExternal() {
		sb.WriteString(dimStyle.Render("within "+b) + "\n")
	}
	sb.WriteString("\n")

	pathLabel := "Path: "
	if m.focus == focusPath {
		pathLabel = labelStyle.Render(pathLabel)
	}
	sb.WriteString(pathLabel + m.input.View() + "\n\n")

	switch {
	case m.state.FetchError != "":
		sb.WriteString(errorStyle.Render("Error: "+m.state.FetchError) + "\n")
	case m.state.Loading:
		sb.WriteString(fmt.Sprintf("%s Loading %s\n", loadingFrames[m.frame], dimStyle.Render(m.state.CurrentPath)))
	case len(m.dirs) == 0:
		sb.WriteString(dimStyle.Render("No subdirectories") + "\n")
	}

	if !m.state.Loading && m.state.Listing != nil {
		start, end := m.scroll.visibleRange()
		for i := start; i < end; i++ {
			name := m.dirs[i].Name + "/"
			if i == m.scroll.cursor && m.focus == focusList {
				sb.WriteString(cursorStyle.Render("▸ "+name) + "\n")
			} else {
				sb.WriteString("  " + dirStyle.Render(name) + "\n")
			}
		}
		if end < len(m.dirs) {
			sb.WriteString(dimStyle.Render(fmt.Sprintf("  … %d more", len(m.dirs)-end)) + "\n")
		}
	}

	up := "ctrl+u: up • "
	if !m.ctrl.CanGoUp() {
		up = ""
	}
	sb.WriteString("\n" + hintStyle.Render("enter: go • tab: switch • "+up+"ctrl+r: retry • ctrl+s: choose • esc: cancel"))

	return sb.String()
}

// RunDirPicker opens the picker at initialPath and returns the chosen
// directory.
func RunDirPicker(ctx context.Context, ctrl *browser.Controller, initialPath, title string) (DirPickerResult, error) {
	ctrl.Initialize(ctx, initialPath)

	m := NewDirPicker(ctx, ctrl, title)
	defer m.watcher.stop()

	p := tea.NewProgram(m, useStderr()...)
	finalModel, err := p.Run()
	if err != nil {
		return DirPickerResult{Aborted: true}, err
	}

	return finalModel.(DirPickerModel).Result(), nil
}
