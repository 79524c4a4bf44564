package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type helpItem struct {
	key  string
	desc string
}

var helpItems = []helpItem{
	{"q / Ctrl+C", "Quit"},
	{"Tab / Shift+Tab", "Navigate planets"},
	{"Enter", "Focus selected planet"},
	{"Esc", "Back / Cancel"},
	{"s", "Send a sunray"},
	{"a", "Send an asteroid"},
	{"p", "Stop planet"},
	{"x", "Kill planet"},
	{"m", "Move an explorer to the planet"},
	{"c", "Connect planet to another"},
	{"↑ / ↓", "Scroll journal (focus view)"},
	{"G / End", "Jump to newest journal entry"},
	{"?", "Toggle help"},
}

// RenderHelp renders the help overlay centered in width x height.
func RenderHelp(width, height int) string {
	lines := []string{titleStyle.Render("⌨ Keyboard Shortcuts"), ""}

	maxKeyLen := 0
	for _, item := range helpItems {
		maxKeyLen = max(maxKeyLen, lipgloss.Width(item.key))
	}
	for _, item := range helpItems {
		lines = append(lines, helpKeyStyle.Render(padRight(item.key, maxKeyLen))+"  "+helpDescStyle.Render(item.desc))
	}

	box := helpStyle.Render(strings.Join(lines, "\n"))

	padLeft := max(0, (width-lipgloss.Width(box))/2)
	padTop := max(0, (height-lipgloss.Height(box))/2)

	leftPad := strings.Repeat(" ", padLeft)
	boxLines := strings.Split(box, "\n")
	for i, line := range boxLines {
		boxLines[i] = leftPad + line
	}
	return strings.Repeat("\n", padTop) + strings.Join(boxLines, "\n")
}

func padRight(s string, length int) string {
	w := lipgloss.Width(s)
	if w >= length {
		return s
	}
	return s + strings.Repeat(" ", length-w)
}
