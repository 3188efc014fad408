package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorPrimary   = lipgloss.Color("39")
	colorSecondary = lipgloss.Color("86")
	colorSuccess   = lipgloss.Color("42")
	colorWarning   = lipgloss.Color("220")
	colorError     = lipgloss.Color("196")
	colorDim       = lipgloss.Color("241")

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorSuccess)

	promptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	agentLabelStyle = lipgloss.NewStyle().
			Foreground(colorSecondary)

	userStyle = lipgloss.NewStyle().
			Foreground(colorPrimary)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError)

	goodbyeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorError)
)

// Banner is printed once when a session starts.
func Banner() string {
	return headerStyle.Render("🤖 Django CLI AI Agent") + "\n" + dimStyle.Render("Press Ctrl+C or Ctrl+D to exit")
}

// Goodbye is printed when a session ends.
func Goodbye() string {
	return goodbyeStyle.Render("Session ended. Goodbye 👋")
}

// Separator divides consecutive exchanges.
func Separator(width int) string {
	if width <= 0 || width > 60 {
		width = 60
	}
	return dimStyle.Render(strings.Repeat("-", width))
}
