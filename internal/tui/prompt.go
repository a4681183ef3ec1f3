package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/tormodhaugland/planner/internal/model"
)

type PlanPromptResult struct {
	Prompt       string
	Instructions string
	Abort        bool
}

// planPromptModel collects the user prompt and optional extra instructions
// for a new plan.
type planPromptModel struct {
	promptInput textinput.Model
	extraInput  textinput.Model
	focusIndex  int
	projectRoot string
	scanPaths   []string
	requestType model.RequestType
	err         string
	done        bool
	result      PlanPromptResult
}

func newPlanPromptModel(projectRoot string, scanPaths []string, requestType model.RequestType) planPromptModel {
	pi := textinput.New()
	pi.Placeholder = "describe the change you want"
	pi.CharLimit = 2000
	pi.Width = 70
	pi.Focus()

	ei := textinput.New()
	ei.Placeholder = "optional"
	ei.CharLimit = 2000
	ei.Width = 70

	return planPromptModel{
		promptInput: pi,
		extraInput:  ei,
		projectRoot: projectRoot,
		scanPaths:   scanPaths,
		requestType: requestType,
	}
}

func (m planPromptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m planPromptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.result.Abort = true
			m.done = true
			return m, tea.Quit

		case "tab", "down", "enter":
			if msg.String() == "enter" && m.focusIndex == 1 {
				prompt := strings.TrimSpace(m.promptInput.Value())
				if prompt == "" {
					m.err = "prompt is required"
					return m, nil
				}
				m.result.Prompt = prompt
				m.result.Instructions = strings.TrimSpace(m.extraInput.Value())
				m.done = true
				return m, tea.Quit
			}
			return m.switchFocus()

		case "shift+tab", "up":
			return m.switchFocus()
		}
	}

	var cmd tea.Cmd
	if m.focusIndex == 0 {
		m.promptInput, cmd = m.promptInput.Update(msg)
	} else {
		m.extraInput, cmd = m.extraInput.Update(msg)
	}

	return m, cmd
}

func (m planPromptModel) switchFocus() (tea.Model, tea.Cmd) {
	m.focusIndex = (m.focusIndex + 1) % 2
	m.promptInput.Blur()
	m.extraInput.Blur()
	if m.focusIndex == 0 {
		return m, m.promptInput.Focus()
	}
	return m, m.extraInput.Focus()
}

func (m planPromptModel) View() string {
	var sb strings.Builder

	sb.WriteString(labelStyle.Render("New plan") + "\n\n")
	sb.WriteString(fmt.Sprintf("Project: %s\n", m.projectRoot))
	sb.WriteString(fmt.Sprintf("Request: %s\n", m.requestType))
	switch len(m.scanPaths) {
	case 0:
		sb.WriteString("Scan:    whole project\n\n")
	case 1:
		sb.WriteString("Scan:    1 path\n\n")
	default:
		sb.WriteString(fmt.Sprintf("Scan:    %d paths\n\n", len(m.scanPaths)))
	}

	sb.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Prompt:      "), m.promptInput.View()))
	sb.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Instructions:"), m.extraInput.View()))

	if m.err != "" {
		sb.WriteString("\n" + errorStyle.Render("Error: "+m.err) + "\n")
	}

	sb.WriteString("\n" + hintStyle.Render("tab: next field • enter on instructions: generate • esc: cancel"))

	return sb.String()
}

func RunPlanPrompt(projectRoot string, scanPaths []string, requestType model.RequestType) (PlanPromptResult, error) {
	m := newPlanPromptModel(projectRoot, scanPaths, requestType)
	p := tea.NewProgram(m, useStderr()...)

	finalModel, err := p.Run()
	if err != nil {
		return PlanPromptResult{Abort: true}, err
	}

	return finalModel.(planPromptModel).result, nil
}
