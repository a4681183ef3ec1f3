package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tormodhaugland/planner/internal/model"
)

// PlanViewResult holds the changes chosen for application.
type PlanViewResult struct {
	// Indexes of the chosen changes, ascending.
	Indexes []int
	// All is set when every change was chosen, so the whole plan can be
	// applied in one call.
	All     bool
	Aborted bool
}

type planKeyMap struct {
	Toggle    key.Binding
	ToggleAll key.Binding
	Preview   key.Binding
	Apply     key.Binding
	Cancel    key.Binding
}

var planKeys = planKeyMap{
	Toggle:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
	ToggleAll: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "all/none")),
	Preview:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "preview")),
	Apply:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
	Cancel:    key.NewBinding(key.WithKeys("esc", "q", "ctrl+c"), key.WithHelp("esc", "cancel")),
}

var actionStyles = map[model.FileAction]lipgloss.Style{
	model.ActionAdd:    addedStyle,
	model.ActionModify: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	model.ActionDelete: removedStyle,
}

const previewLines = 12

// PlanViewModel shows a plan and lets the user choose which changes to apply.
type PlanViewModel struct {
	plan        *model.Plan
	chosen      []bool
	scroll      scroller
	showPreview bool
	width       int

	done   bool
	result PlanViewResult
}

// NewPlanView starts with every change chosen.
func NewPlanView(plan *model.Plan) PlanViewModel {
	chosen := make([]bool, len(plan.Changes))
	for i := range chosen {
		chosen[i] = true
	}
	m := PlanViewModel{
		plan:        plan,
		chosen:      chosen,
		scroll:      scroller{height: 10},
		showPreview: true,
	}
	m.scroll.setCount(len(plan.Changes))
	return m
}

func (m PlanViewModel) Init() tea.Cmd {
	return nil
}

// Result returns the outcome once the viewer has quit.
func (m PlanViewModel) Result() PlanViewResult {
	return m.result
}

func (m PlanViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.scroll.setHeight(msg.Height - previewLines - 12)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, planKeys.Cancel):
			m.result = PlanViewResult{Aborted: true}
			m.done = true
			return m, tea.Quit

		case key.Matches(msg, planKeys.Toggle):
			if m.scroll.cursor < len(m.chosen) {
				m.chosen[m.scroll.cursor] = !m.chosen[m.scroll.cursor]
			}

		case key.Matches(msg, planKeys.ToggleAll):
			all := m.countChosen() != len(m.chosen)
			for i := range m.chosen {
				m.chosen[i] = all
			}

		case key.Matches(msg, planKeys.Preview):
			m.showPreview = !m.showPreview

		case key.Matches(msg, planKeys.Apply):
			if m.countChosen() == 0 {
				return m, nil
			}
			m.result = m.buildResult()
			m.done = true
			return m, tea.Quit

		default:
			switch msg.String() {
			case "up", "k":
				m.scroll.up()
			case "down", "j":
				m.scroll.down()
			case "home", "g":
				m.scroll.top()
			case "end", "G":
				m.scroll.bottom()
			}
		}
	}
	return m, nil
}

func (m PlanViewModel) countChosen() int {
	n := 0
	for _, c := range m.chosen {
		if c {
			n++
		}
	}
	return n
}

func (m PlanViewModel) buildResult() PlanViewResult {
	var r PlanViewResult
	for i, c := range m.chosen {
		if c {
			r.Indexes = append(r.Indexes, i)
		}
	}
	r.All = len(r.Indexes) == len(m.chosen)
	return r
}

func (m PlanViewModel) View() string {
	var sb strings.Builder
	width := m.width
	if width <= 0 {
		width = 80
	}

	sb.WriteString(titleStyle.Render(m.plan.Title) + "\n")
	sb.WriteString(dimStyle.Render(fmt.Sprintf("%s • created %s", m.plan.ID, m.plan.CreatedAt.Format("2006-01-02 15:04"))) + "\n\n")
	if m.plan.Summary != "" {
		sb.WriteString(lipgloss.NewStyle().Width(width-2).Render(m.plan.Summary) + "\n\n")
	}

	sb.WriteString(labelStyle.Render(fmt.Sprintf("Changes (%d/%d chosen)", m.countChosen(), len(m.chosen))) + "\n")
	if len(m.plan.Changes) == 0 {
		sb.WriteString(dimStyle.Render("This plan has no file changes") + "\n")
	}

	start, end := m.scroll.visibleRange()
	for i := start; i < end; i++ {
		c := m.plan.Changes[i]
		box := "[ ]"
		if m.chosen[i] {
			box = "[x]"
		}
		action := string(c.Action)
		if st, ok := actionStyles[c.Action]; ok {
			action = st.Render(action)
		}
		line := fmt.Sprintf("%s %-8s %s", box, action, c.FilePath)
		if c.Reason != "" {
			line += dimStyle.Render(" · " + c.Reason)
		}
		if i == m.scroll.cursor {
			sb.WriteString(cursorStyle.Render("▸ ") + line + "\n")
		} else {
			sb.WriteString("  " + line + "\n")
		}
	}

	if m.showPreview && m.scroll.cursor < len(m.plan.Changes) {
		sb.WriteString("\n" + paneStyle.Width(width-4).Render(renderPreview(m.plan.Changes[m.scroll.cursor])) + "\n")
	}

	sb.WriteString("\n" + hintStyle.Render("space: toggle • a: all/none • p: preview • enter: apply chosen • esc: cancel"))
	return sb.String()
}

// renderPreview shows the start of a change's diff, or of its new content
// when there is no diff.
func renderPreview(c model.FileChange) string {
	body := c.Diff
	isDiff := body != ""
	if !isDiff {
		body = c.NewContent
	}
	if body == "" {
		return dimStyle.Render("No preview for " + c.FilePath)
	}

	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	more := 0
	if len(lines) > previewLines {
		more = len(lines) - previewLines
		lines = lines[:previewLines]
	}

	for i, l := range lines {
		if !isDiff {
			continue
		}
		switch {
		case strings.HasPrefix(l, "+++"), strings.HasPrefix(l, "---"):
			lines[i] = dimStyle.Render(l)
		case strings.HasPrefix(l, "+"):
			lines[i] = addedStyle.Render(l)
		case strings.HasPrefix(l, "-"):
			lines[i] = removedStyle.Render(l)
		case strings.HasPrefix(l, "@@"):
			lines[i] = dirStyle.Render(l)
		}
	}

	out := strings.Join(lines, "\n")
	if more > 0 {
		out += "\n" + dimStyle.Render(fmt.Sprintf("… %d more lines", more))
	}
	return out
}

// RunPlanView shows plan and returns the changes the user chose.
func RunPlanView(plan *model.Plan) (PlanViewResult, error) {
	m := NewPlanView(plan)
	p := tea.NewProgram(m, useStderr()...)

	finalModel, err := p.Run()
	if err != nil {
		return PlanViewResult{Aborted: true}, err
	}
	return finalModel.(PlanViewModel).Result(), nil
}
