package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/xonecas/zoea-galaxy/internal/constants"
	"github.com/xonecas/zoea-galaxy/internal/core"
)

// EventLine is one entry of the dashboard's recent activity feed.
type EventLine struct {
	At   time.Time
	Type core.EventType
	Text string
}

// EventLineFromCore describes a bus event for the activity feed.
func EventLineFromCore(e core.Event) EventLine {
	at := e.Timestamp
	if at.IsZero() {
		at = time.Now()
	}
	return EventLine{At: at, Type: e.Type, Text: describeEvent(e)}
}

func describeEvent(e core.Event) string {
	switch e.Type {
	case core.EventPlanetAdded:
		return fmt.Sprintf("planet %d joined the galaxy", e.PlanetID)
	case core.EventPlanetStateChanged:
		if d, ok := e.Data.(core.StateChangeData); ok {
			return fmt.Sprintf("planet %d %s → %s", e.PlanetID, d.OldState, d.NewState)
		}
		return fmt.Sprintf("planet %d changed state", e.PlanetID)
	case core.EventPlanetDestroyed:
		return fmt.Sprintf("planet %d destroyed", e.PlanetID)
	case core.EventExplorerAdded:
		return fmt.Sprintf("explorer %d landed on planet %d", e.ExplorerID, e.PlanetID)
	case core.EventExplorerStateChanged:
		if d, ok := e.Data.(core.StateChangeData); ok {
			return fmt.Sprintf("explorer %d %s → %s", e.ExplorerID, d.OldState, d.NewState)
		}
		return fmt.Sprintf("explorer %d changed state", e.ExplorerID)
	case core.EventExplorerMoved:
		if d, ok := e.Data.(core.MoveData); ok {
			return fmt.Sprintf("explorer %d moved %d → %d", e.ExplorerID, d.From, d.To)
		}
		return fmt.Sprintf("explorer %d moved to planet %d", e.ExplorerID, e.PlanetID)
	case core.EventRelocationFailed:
		if d, ok := e.Data.(core.RelocationFailedData); ok {
			return fmt.Sprintf("explorer %d failed to move %d → %d at %s: %s", e.ExplorerID, d.From, d.To, d.Stage, d.Reason)
		}
		return fmt.Sprintf("explorer %d relocation failed", e.ExplorerID)
	case core.EventSunray:
		return fmt.Sprintf("sunray hit planet %d", e.PlanetID)
	case core.EventAsteroid:
		if d, ok := e.Data.(core.AsteroidData); ok {
			switch {
			case d.RocketUsed:
				return fmt.Sprintf("planet %d shot down an asteroid", e.PlanetID)
			case d.Destroyed:
				return fmt.Sprintf("asteroid destroyed planet %d", e.PlanetID)
			}
		}
		return fmt.Sprintf("asteroid struck planet %d", e.PlanetID)
	}
	return string(e.Type)
}

// alerting reports whether an event should raise the pulse to an alert.
func alerting(t core.EventType) bool {
	switch t {
	case core.EventAsteroid, core.EventPlanetDestroyed, core.EventRelocationFailed:
		return true
	}
	return false
}

// RenderDashboard renders the main view: banner, stats, planets and the
// recent activity feed.
func RenderDashboard(planets []core.PlanetInfo, explorers []core.ExplorerInfo, events []EventLine, selectedIdx, width, height int, pulseView string) string {
	if width < 20 {
		width = 20
	}

	var sections []string
	sections = append(sections, renderBanner(width))
	sections = append(sections, renderStats(planets, explorers, pulseView, width))

	sections = append(sections, renderSectionTitle("PLANETS", width))

	// banner (3 + margin) + stats + two section titles + footer + list borders
	const chrome = 4 + 1 + 2 + 1 + 2
	feedHeight := min(len(events), constants.RecentEventsShown, max(3, height/4))
	listHeight := max(3, height-chrome-feedHeight)

	contentWidth := max(20, width-4)
	if len(planets) == 0 {
		empty := dimmedStyle.Render("No planets. Load a galaxy file with --galaxy.")
		sections = append(sections, planetListStyle.Width(width-2).Height(listHeight).Render(empty))
	} else {
		var lines []string
		for _, p := range visibleWindow(planets, selectedIdx, listHeight) {
			lines = append(lines, renderPlanetLine(p.info, p.index == selectedIdx, contentWidth))
		}
		sections = append(sections, planetListStyle.Width(width-2).Height(listHeight).Render(strings.Join(lines, "\n")))
	}

	sections = append(sections, renderSectionTitle("ACTIVITY", width))
	sections = append(sections, renderFeed(events, feedHeight, width))

	hint := dimmedStyle.Render("[ ? ] HELP  ·  [ s ] SUNRAY  ·  [ a ] ASTEROID  ·  [ enter ] FOCUS")
	sections = append(sections, hint)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderBanner(width int) string {
	edge := "◆" + strings.Repeat("═", width-2) + "◆"
	title := " ⬡ Z O E A   G A L A X Y ⬡   ORCHESTRATOR"
	pad := max(0, (width-lipgloss.Width(title))/2)
	titleLine := strings.Repeat(" ", pad) + title
	if w := lipgloss.Width(titleLine); w < width {
		titleLine += strings.Repeat(" ", width-w)
	}
	return headerStyle.Width(width).Render(edge + "\n" + titleLine + "\n" + edge)
}

func renderStats(planets []core.PlanetInfo, explorers []core.ExplorerInfo, pulseView string, width int) string {
	counts := make(map[core.LifecycleState]int)
	for _, p := range planets {
		counts[p.State]++
	}
	active := 0
	for _, e := range explorers {
		if e.State != core.StateKilled {
			active++
		}
	}
	stats := fmt.Sprintf(
		"%s %d  %s %d  %s %d  %s %d   %s %s",
		stateGlyph(core.StateRunning), counts[core.StateRunning],
		stateGlyph(core.StateNotStarted), counts[core.StateNotStarted],
		stateGlyph(core.StateStopped), counts[core.StateStopped],
		stateGlyph(core.StateKilled), counts[core.StateKilled],
		labelStyle.Render("explorers"), valueStyle.Render(fmt.Sprint(active)),
	)
	if pulseView != "" {
		stats += "   " + pulseView
	}
	return statusBarStyle.Width(width).Render(stats)
}

type indexedPlanet struct {
	index int
	info  core.PlanetInfo
}

// visibleWindow returns at most height planets, scrolled so that selected
// stays visible.
func visibleWindow(planets []core.PlanetInfo, selected, height int) []indexedPlanet {
	start := 0
	if selected >= height {
		start = selected - height + 1
	}
	end := min(len(planets), start+height)
	out := make([]indexedPlanet, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, indexedPlanet{index: i, info: planets[i]})
	}
	return out
}

func renderPlanetLine(p core.PlanetInfo, selected bool, width int) string {
	name := truncateWithEllipsis(p.Name, 16)
	state := StateStyle(p.State).Render(fmt.Sprintf("%-11s", p.State))
	typ := dimmedStyle.Render(fmt.Sprintf("[%s]", p.Type))

	line := fmt.Sprintf("%s %3d %-16s %s %s %s", stateGlyph(p.State), p.ID, name, typ, state,
		dimmedStyle.Render(fmt.Sprintf("⛭ %d", len(p.Explorers))))

	if len(p.Neighbors) > 0 {
		ids := make([]string, len(p.Neighbors))
		for i, n := range p.Neighbors {
			ids[i] = fmt.Sprint(n)
		}
		rest := width - lipgloss.Width(line) - 6
		if rest > 4 {
			line += dimmedStyle.Render(" │ ⇄ " + truncateWithEllipsis(strings.Join(ids, ","), rest))
		}
	}

	if selected {
		return planetItemSelectedStyle.Width(width).Render(line)
	}
	return planetItemStyle.Width(width).Render(line)
}

func renderFeed(events []EventLine, height, width int) string {
	if height <= 0 || len(events) == 0 {
		return dimmedStyle.Render("  quiet skies")
	}
	start := max(0, len(events)-height)
	var lines []string
	for _, ev := range events[start:] {
		text := truncateWithEllipsis(ev.Text, max(10, width-16))
		lines = append(lines, formatStamp(ev.At)+" "+lipgloss.NewStyle().Foreground(EventColor(ev.Type)).Render(text))
	}
	return strings.Join(lines, "\n")
}
