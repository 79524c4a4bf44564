package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	scrollbarThumb = "█"
	scrollbarTrack = "│"
)

var (
	scrollTrackStyle = lipgloss.NewStyle().Foreground(colorBorder)
	scrollThumbStyle = lipgloss.NewStyle().Foreground(colorBrandDim)
)

// renderScrollbar draws a vertical scrollbar one cell wide and height lines
// tall for a viewport showing totalLines starting at offset.
func renderScrollbar(height, totalLines, offset int) string {
	if height <= 0 {
		return ""
	}

	lines := make([]string, height)
	if totalLines <= height {
		for i := range lines {
			lines[i] = scrollTrackStyle.Render(scrollbarTrack)
		}
		return strings.Join(lines, "\n")
	}

	thumb := max(1, min(height, height*height/totalLines))

	ratio := float64(offset) / float64(totalLines-height)
	ratio = max(0, min(1, ratio))
	pos := int(ratio * float64(height-thumb))

	for i := range lines {
		if i >= pos && i < pos+thumb {
			lines[i] = scrollThumbStyle.Render(scrollbarThumb)
		} else {
			lines[i] = scrollTrackStyle.Render(scrollbarTrack)
		}
	}
	return strings.Join(lines, "\n")
}
