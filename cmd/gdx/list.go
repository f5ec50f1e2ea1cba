package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/classbridge/bridge"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	classStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// renderClasses formats class summaries, styled when color is set.
func renderClasses(classes []bridge.ClassSummary, color bool) string {
	style := func(s lipgloss.Style, text string) string {
		if !color {
			return text
		}
		return s.Render(text)
	}

	var b strings.Builder
	b.WriteString(style(titleStyle, "Classes"))
	b.WriteString("\n\n")
	for _, c := range classes {
		flags := ""
		if c.RefCounted {
			flags += " refcounted"
		}
		if c.Abstract {
			flags += " abstract"
		}
		fmt.Fprintf(&b, "%s : %s [%s]%s\n",
			style(classStyle, c.Name), style(typeStyle, c.Base), c.Level, flags)
		if len(c.Virtuals) > 0 {
			fmt.Fprintf(&b, "    virtuals: %s\n", strings.Join(c.Virtuals, ", "))
		}
		if len(c.Vars) > 0 {
			fmt.Fprintf(&b, "    vars:     %s\n", strings.Join(c.Vars, ", "))
		}
	}
	return b.String()
}
