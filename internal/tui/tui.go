// Package tui holds the interactive dialogs: the project-root picker, the
// scan-paths drawer and the plan viewer.
package tui

import (
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/tormodhaugland/planner/internal/browser"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	dirStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	chipStyle     = lipgloss.NewStyle().Padding(0, 1).Background(lipgloss.Color("237")).Foreground(lipgloss.Color("252"))
	chipActive    = lipgloss.NewStyle().Padding(0, 1).Background(lipgloss.Color("212")).Foreground(lipgloss.Color("0"))
	addedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	removedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	paneStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1)
	activePane    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("212")).Padding(0, 1)
	loadingFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
)

// loadingTickMsg animates the loading indicator.
type loadingTickMsg struct{}

func loadingTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return loadingTickMsg{}
	})
}

// stateChangedMsg tells a model to re-read controller and selection state.
type stateChangedMsg struct{}

// stateWatcher turns controller and selection callbacks, which arrive on
// background goroutines, into tea messages. Bursts collapse into one message
// since models re-read the full state anyway.
type stateWatcher struct {
	ch      chan struct{}
	done    chan struct{}
	once    sync.Once
	cancels []func()
}

func newStateWatcher() *stateWatcher {
	return &stateWatcher{
		ch:   make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

func watchController(ctrl *browser.Controller) *stateWatcher {
	w := newStateWatcher()
	w.cancels = append(w.cancels, ctrl.Subscribe(func(browser.State) { w.signal() }))
	if sel := ctrl.Selection(); sel != nil {
		w.cancels = append(w.cancels, sel.OnSelectionChanged(func([]string) { w.signal() }))
	}
	return w
}

func (w *stateWatcher) signal() {
	select {
	case w.ch <- struct{}{}:
	default:
	}
}

// wait returns a command that delivers the next change.
func (w *stateWatcher) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-w.ch:
			return stateChangedMsg{}
		case <-w.done:
			return nil
		}
	}
}

func (w *stateWatcher) stop() {
	w.once.Do(func() {
		for _, cancel := range w.cancels {
			cancel()
		}
		close(w.done)
	})
}

// useStderr renders dialogs on stderr so stdout stays clean for results that
// callers capture, as in cd "$(planner root)".
func useStderr() []tea.ProgramOption {
	lipgloss.SetDefaultRenderer(lipgloss.NewRenderer(os.Stderr, termenv.WithColorCache(true)))
	return []tea.ProgramOption{tea.WithOutput(os.Stderr)}
}

// scroller tracks a cursor and a visible window over a list of rows.
type scroller struct {
	cursor int
	offset int
	count  int
	height int
}

func (s *scroller) setCount(n int) {
	s.count = n
	if s.cursor >= n {
		s.cursor = n - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
	s.ensureVisible()
}

func (s *scroller) setHeight(h int) {
	if h < 1 {
		h = 1
	}
	s.height = h
	s.ensureVisible()
}

func (s *scroller) reset() {
	s.cursor = 0
	s.offset = 0
}

func (s *scroller) up() {
	if s.cursor > 0 {
		s.cursor--
		s.ensureVisible()
	}
}

func (s *scroller) down() {
	if s.cursor < s.count-1 {
		s.cursor++
		s.ensureVisible()
	}
}

func (s *scroller) top() {
	s.cursor = 0
	s.ensureVisible()
}

func (s *scroller) bottom() {
	if s.count > 0 {
		s.cursor = s.count - 1
	}
	s.ensureVisible()
}

func (s *scroller) ensureVisible() {
	h := s.height
	if h < 1 {
		h = 10
	}
	if s.cursor < s.offset {
		s.offset = s.cursor
	}
	if s.cursor >= s.offset+h {
		s.offset = s.cursor - h + 1
	}
	if s.offset < 0 {
		s.offset = 0
	}
}

// visibleRange returns the half-open range of rows to draw.
func (s *scroller) visibleRange() (start, end int) {
	h := s.height
	if h < 1 {
		h = 10
	}
	start = s.offset
	end = start + h
	if end > s.count {
		end = s.count
	}
	return start, end
}

func truncateLeft(s string, width int) string {
	r := []rune(s)
	if width <= 1 || len(r) <= width {
		return s
	}
	return "…" + string(r[len(r)-width+1:])
}
