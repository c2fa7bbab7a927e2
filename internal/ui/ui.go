// Package ui renders user-facing CLI output: short styled status lines on
// stdout, kept separate from the structured logs on stderr.
package ui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var (
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
)

// colorEnabled reports whether styled output makes sense: stdout is a
// terminal, the terminal supports color, and NO_COLOR is not set.
func colorEnabled() bool {
	if termenv.EnvNoColor() {
		return false
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return false
	}
	return termenv.ColorProfile() != termenv.Ascii
}

func render(style lipgloss.Style, text string) string {
	if !colorEnabled() {
		return text
	}
	return style.Render(text)
}

// Info prints a cyan informational line.
func Info(format string, args ...any) {
	fmt.Println(render(infoStyle, fmt.Sprintf(format, args...)))
}

// Warn prints a bold red warning line.
func Warn(format string, args ...any) {
	fmt.Println(render(warnStyle, fmt.Sprintf(format, args...)))
}

// Success prints a green completion line.
func Success(format string, args ...any) {
	fmt.Println(render(successStyle, fmt.Sprintf(format, args...)))
}

// Accent returns text in the accent color for embedding in a larger line.
func Accent(text string) string {
	return render(accentStyle, text)
}
