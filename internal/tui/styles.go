package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/xonecas/zoea-galaxy/internal/core"
)

// Colors. Deep space background, purple and teal accents.
var (
	colorBrand    = lipgloss.Color("#9D00FF")
	colorTeal     = lipgloss.Color("#00FFCC")
	colorBrandDim = lipgloss.Color("#6B00B3")

	colorSunray   = lipgloss.Color("#FFCC00")
	colorAsteroid = lipgloss.Color("#FF6600")
	colorMove     = lipgloss.Color("#00CCFF")

	colorError   = lipgloss.Color("#FF3366")
	colorSuccess = lipgloss.Color("#00FF66")
	colorMuted   = lipgloss.Color("#5555AA")

	colorBg      = lipgloss.Color("#08080F")
	colorBgAlt   = lipgloss.Color("#101018")
	colorBgPanel = lipgloss.Color("#14141F")
	colorBorder  = lipgloss.Color("#2A2A55")
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBrand).
			Background(colorBgAlt).
			MarginBottom(1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBrand)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorTeal).
			Background(colorBgAlt)

	planetListStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(colorBrandDim)

	planetItemStyle = lipgloss.NewStyle().
			Foreground(colorTeal).
			Padding(0, 1)

	planetItemSelectedStyle = lipgloss.NewStyle().
				Foreground(colorBg).
				Background(colorBrand).
				Bold(true).
				Padding(0, 1)

	stateRunningStyle = lipgloss.NewStyle().
				Foreground(colorSuccess).
				Bold(true)

	stateNotStartedStyle = lipgloss.NewStyle().
				Foreground(colorTeal)

	stateStoppedStyle = lipgloss.NewStyle().
				Foreground(colorMuted)

	stateKilledStyle = lipgloss.NewStyle().
				Foreground(colorError).
				Bold(true)

	journalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBrandDim)

	inputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorTeal).
			Padding(0, 1)

	inputPromptStyle = lipgloss.NewStyle().
				Foreground(colorBrand).
				Bold(true)

	helpStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(colorBrand).
			Background(colorBgPanel).
			Padding(1, 2).
			Margin(1)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(colorTeal).
			Bold(true)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	panelTitleStyle = lipgloss.NewStyle().
			Foreground(colorTeal).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	valueStyle = lipgloss.NewStyle().
			Foreground(colorBrand).
			Bold(true)

	dimmedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)
)

// StateStyle returns the style for a lifecycle state.
func StateStyle(state core.LifecycleState) lipgloss.Style {
	switch state {
	case core.StateRunning:
		return stateRunningStyle
	case core.StateStopped:
		return stateStoppedStyle
	case core.StateKilled:
		return stateKilledStyle
	default:
		return stateNotStartedStyle
	}
}

// stateGlyph is the one-cell marker drawn in front of an actor.
func stateGlyph(state core.LifecycleState) string {
	switch state {
	case core.StateRunning:
		return stateRunningStyle.Render("●")
	case core.StateStopped:
		return stateStoppedStyle.Render("◌")
	case core.StateKilled:
		return stateKilledStyle.Render("✖")
	default:
		return stateNotStartedStyle.Render("○")
	}
}

// EventColor returns the accent for a galaxy event.
func EventColor(t core.EventType) lipgloss.Color {
	switch t {
	case core.EventSunray:
		return colorSunray
	case core.EventAsteroid, core.EventPlanetDestroyed:
		return colorAsteroid
	case core.EventExplorerMoved:
		return colorMove
	case core.EventRelocationFailed:
		return colorError
	default:
		return colorTeal
	}
}

// renderSectionTitle renders a section title that spans the full width.
func renderSectionTitle(title string, width int) string {
	return renderSectionTitleWithSuffix(title, "", width)
}

// renderSectionTitleWithSuffix renders a section title followed by suffix.
func renderSectionTitleWithSuffix(title, suffix string, width int) string {
	// ⬧── TITLE ──⬧ [suffix]
	titleWithSpaces := " " + title + " "
	available := width - lipgloss.Width(titleWithSpaces) - 4 - lipgloss.Width(suffix)
	if available < 2 {
		available = 2
	}
	left := available / 2
	right := available - left

	line := "⬧─" + strings.Repeat("─", left) + titleWithSpaces + strings.Repeat("─", right) + "─⬧"
	if suffix != "" {
		line += suffix
	}
	return panelTitleStyle.Width(width).Render(line)
}

// truncateToWidth truncates s to fit within maxWidth display columns.
func truncateToWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	current := 0
	for i, r := range s {
		w := lipgloss.Width(string(r))
		if current+w > maxWidth {
			return s[:i]
		}
		current += w
	}
	return s
}

func truncateWithEllipsis(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return truncateToWidth(s, maxWidth)
	}
	return truncateToWidth(s, maxWidth-3) + "..."
}

// formatStamp renders ts as "⬡ [HH:MM:SS]" in local time.
func formatStamp(ts time.Time) string {
	hex := lipgloss.NewStyle().Foreground(colorBrand).Render("⬡")
	clock := dimmedStyle.Render(fmt.Sprintf("[%s]", ts.Local().Format("15:04:05")))
	return hex + " " + clock
}
