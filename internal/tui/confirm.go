package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type ConfirmResult struct {
	Confirmed bool
	Aborted   bool
}

// confirmModel asks a yes/no question. Details are shown under the question,
// e.g. the uncommitted files a plan apply would run over.
type confirmModel struct {
	message  string
	details  []string
	selected bool // true = Yes
	done     bool
	result   ConfirmResult
}

func newConfirmModel(message string, details []string, defaultYes bool) confirmModel {
	return confirmModel{
		message:  message,
		details:  details,
		selected: defaultYes,
	}
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.result.Aborted = true
			m.done = true
			return m, tea.Quit

		case "left", "right", "tab", "h", "l":
			m.selected = !m.selected
			return m, nil

		case "y", "Y":
			m.selected = true
			m.result.Confirmed = true
			m.done = true
			return m, tea.Quit

		case "n", "N":
			m.selected = false
			m.result.Confirmed = false
			m.done = true
			return m, tea.Quit

		case "enter":
			m.result.Confirmed = m.selected
			m.done = true
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m confirmModel) View() string {
	var sb strings.Builder

	sb.WriteString(labelStyle.Render(m.message) + "\n")
	for _, d := range m.details {
		sb.WriteString(dimStyle.Render("  "+d) + "\n")
	}
	sb.WriteString("\n")

	yesStyle := lipgloss.NewStyle().Padding(0, 2)
	noStyle := lipgloss.NewStyle().Padding(0, 2)

	if m.selected {
		yesStyle = yesStyle.Background(lipgloss.Color("212")).Foreground(lipgloss.Color("0"))
	} else {
		noStyle = noStyle.Background(lipgloss.Color("212")).Foreground(lipgloss.Color("0"))
	}

	sb.WriteString(fmt.Sprintf("  %s  %s\n", yesStyle.Render("Yes"), noStyle.Render("No")))
	sb.WriteString("\n" + hintStyle.Render("←/→: select • enter: confirm • y/n: quick select • esc: cancel"))

	return sb.String()
}

// RunConfirm asks message on stderr. defaultYes picks the initially
// highlighted answer.
func RunConfirm(message string, details []string, defaultYes bool) (ConfirmResult, error) {
	m := newConfirmModel(message, details, defaultYes)
	p := tea.NewProgram(m, useStderr()...)

	finalModel, err := p.Run()
	if err != nil {
		return ConfirmResult{Aborted: true}, err
	}

	return finalModel.(confirmModel).result, nil
}
