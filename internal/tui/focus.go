package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/xonecas/zoea-galaxy/internal/core"
	"github.com/xonecas/zoea-galaxy/internal/logging"
	"github.com/xonecas/zoea-galaxy/internal/protocol"
	"github.com/xonecas/zoea-galaxy/internal/store"
)

// journalLimit is how many journal entries the focus view loads.
const journalLimit = 200

// RenderFocusView renders one planet: header, snapshot, hosted explorers and
// its journal in vp.
func RenderFocusView(p core.PlanetInfo, snap *protocol.PlanetSnapshot, explorers []core.ExplorerInfo, vp viewport.Model, totalLines, width int) string {
	var sections []string

	title := fmt.Sprintf("⬡ PLANET %d · %s · TYPE %s", p.ID, p.Name, p.Type)
	sections = append(sections, headerStyle.Width(width).Render(truncateWithEllipsis(title, width)))

	info := []string{
		labelStyle.Render("state ") + StateStyle(p.State).Render(string(p.State)),
		labelStyle.Render("neighbors ") + valueStyle.Render(joinIDs(p.Neighbors)),
	}
	sections = append(sections, strings.Join(info, "   "))

	if snap != nil {
		sections = append(sections, renderSnapshot(*snap))
	} else {
		sections = append(sections, dimmedStyle.Render("snapshot unavailable"))
	}

	sections = append(sections, renderSectionTitle("EXPLORERS", width))
	sections = append(sections, renderHosted(p, explorers))

	suffix := ""
	if totalLines > vp.Height {
		suffix = dimmedStyle.Render(fmt.Sprintf(" %d%%", int(vp.ScrollPercent()*100)))
	}
	sections = append(sections, renderSectionTitleWithSuffix("JOURNAL", suffix, width))

	body := lipgloss.JoinHorizontal(lipgloss.Top, vp.View(), renderScrollbar(vp.Height, totalLines, vp.YOffset))
	sections = append(sections, journalStyle.Render(body))

	hint := dimmedStyle.Render("[ esc ] BACK  ·  [ s ] SUNRAY  ·  [ a ] ASTEROID  ·  [ m ] MOVE EXPLORER HERE")
	sections = append(sections, hint)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderSnapshot(s protocol.PlanetSnapshot) string {
	var cells strings.Builder
	for _, charged := range s.EnergyCells {
		if charged {
			cells.WriteString(lipgloss.NewStyle().Foreground(colorSunray).Render("■"))
		} else {
			cells.WriteString(dimmedStyle.Render("□"))
		}
	}

	rocket := dimmedStyle.Render("none")
	switch {
	case s.HasRocket:
		rocket = stateRunningStyle.Render("ready")
	case !s.CanRocket:
		rocket = dimmedStyle.Render("unsupported")
	}

	gen := make([]string, len(s.Generate))
	for i, k := range s.Generate {
		gen[i] = k.String()
	}
	comb := make([]string, len(s.Combine))
	for i, k := range s.Combine {
		comb[i] = k.String()
	}

	lines := []string{
		labelStyle.Render("cells ") + cells.String() + dimmedStyle.Render(fmt.Sprintf(" %d/%d", s.ChargedCells, len(s.EnergyCells))) +
			"   " + labelStyle.Render("rocket ") + rocket,
		labelStyle.Render("generates ") + valueStyle.Render(orDash(strings.Join(gen, ", "))),
		labelStyle.Render("combines ") + valueStyle.Render(orDash(strings.Join(comb, ", "))),
	}
	return strings.Join(lines, "\n")
}

func renderHosted(p core.PlanetInfo, explorers []core.ExplorerInfo) string {
	hosted := make(map[core.ExplorerID]bool, len(p.Explorers))
	for _, id := range p.Explorers {
		hosted[id] = true
	}
	var lines []string
	for _, e := range explorers {
		if !hosted[e.ID] {
			continue
		}
		line := fmt.Sprintf("%s %3d %s %s", stateGlyph(e.State), e.ID,
			truncateWithEllipsis(e.Name, 20), StateStyle(e.State).Render(string(e.State)))
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return dimmedStyle.Render("  nobody home")
	}
	return strings.Join(lines, "\n")
}

// journalLines formats journal entries for the focus viewport.
func journalLines(events []*store.Event, width int) []string {
	lines := make([]string, 0, len(events))
	for _, ev := range events {
		lines = append(lines, formatJournalEntry(ev, width))
	}
	return lines
}

func formatJournalEntry(ev *store.Event, width int) string {
	ts := time.Unix(0, int64(ev.Timestamp))
	channel := channelStyle(ev.Channel).Render(fmt.Sprintf("%-7s", ev.Channel))
	target := dimmedStyle.Render("→ " + ev.Receiver.String())

	msg := strings.ReplaceAll(ev.Message, "\n", " ")
	if len(ev.Payload) > 0 {
		keys := make([]string, 0, len(ev.Payload))
		for k := range ev.Payload {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg += fmt.Sprintf(" %s=%s", k, ev.Payload[k])
		}
	}

	prefix := formatStamp(ts) + " " + channel + " " + target + " "
	room := max(10, width-lipgloss.Width(prefix))
	return prefix + truncateWithEllipsis(msg, room)
}

func channelStyle(ch logging.Channel) lipgloss.Style {
	switch ch {
	case logging.ChannelError:
		return errorStyle
	case logging.ChannelWarning:
		return lipgloss.NewStyle().Foreground(colorAsteroid)
	case logging.ChannelInfo:
		return lipgloss.NewStyle().Foreground(colorTeal)
	default:
		return dimmedStyle
	}
}

func joinIDs(ids []core.PlanetID) string {
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ",")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
