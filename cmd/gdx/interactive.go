package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const scrollback = 200

type entry struct {
	command string
	output  string
	err     error
}

type interactiveModel struct {
	sh      *shell
	input   textinput.Model
	entries []entry
	history []string
	histIdx int
	height  int
}

func newInteractiveModel(sh *shell) *interactiveModel {
	ti := textinput.New()
	ti.Prompt = "gdx> "
	ti.Placeholder = "new Ship"
	ti.Width = 60
	ti.Focus()
	return &interactiveModel{sh: sh, input: ti, height: 24}
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

type execMsg entry

func (m *interactiveModel) run(line string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.sh.exec(line)
		return execMsg{command: line, output: out, err: err}
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "enter":
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			switch line {
			case "":
				return m, nil
			case "quit", "exit":
				return m, tea.Quit
			}
			m.history = append(m.history, line)
			m.histIdx = len(m.history)
			return m, m.run(line)

		case "up":
			if m.histIdx > 0 {
				m.histIdx--
				m.input.SetValue(m.history[m.histIdx])
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if m.histIdx < len(m.history)-1 {
				m.histIdx++
				m.input.SetValue(m.history[m.histIdx])
				m.input.CursorEnd()
			} else {
				m.histIdx = len(m.history)
				m.input.SetValue("")
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.height = msg.Height

	case execMsg:
		m.entries = append(m.entries, entry(msg))
		if len(m.entries) > scrollback {
			m.entries = m.entries[len(m.entries)-scrollback:]
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Class Bridge"))
	b.WriteString(" ")
	for i, s := range m.sh.sess.Library.Summaries() {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(classStyle.Render(s.Name))
	}
	b.WriteString("\n\n")

	var lines []string
	for _, e := range m.entries {
		lines = append(lines, selectedStyle.Render("> "+e.command))
		switch {
		case e.err != nil:
			lines = append(lines, errorStyle.Render(fmt.Sprintf("Error: %v", e.err)))
		case e.output != "":
			for _, l := range strings.Split(e.output, "\n") {
				lines = append(lines, resultStyle.Render(l))
			}
		}
	}
	if room := m.height - 6; room > 0 && len(lines) > room {
		lines = lines[len(lines)-room:]
	}
	for _, l := range lines {
		b.WriteString(l)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter run • ↑/↓ history • help commands • esc quit"))
	return b.String()
}

func runInteractive(sh *shell) error {
	p := tea.NewProgram(newInteractiveModel(sh), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
