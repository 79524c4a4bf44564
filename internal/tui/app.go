// Package tui provides the terminal dashboard for a running galaxy.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/xonecas/zoea-galaxy/internal/core"
	"github.com/xonecas/zoea-galaxy/internal/logging"
	"github.com/xonecas/zoea-galaxy/internal/protocol"
	"github.com/xonecas/zoea-galaxy/internal/store"
)

const (
	actionTimeout = 5 * time.Second
	maxFeed       = 100
)

// Galaxy is the part of the orchestrator the dashboard drives.
type Galaxy interface {
	Planets() []core.PlanetInfo
	Explorers() []core.ExplorerInfo
	PlanetState(ctx context.Context, id core.PlanetID) (protocol.PlanetSnapshot, error)
	SendSunray(ctx context.Context, id core.PlanetID) error
	SendAsteroid(ctx context.Context, id core.PlanetID) (core.AsteroidOutcome, error)
	StopPlanet(ctx context.Context, id core.PlanetID) error
	KillPlanet(ctx context.Context, id core.PlanetID) error
	MoveExplorer(ctx context.Context, id core.ExplorerID, to core.PlanetID) error
	Connect(a, b core.PlanetID) error
}

// Journal reads persisted actor events.
type Journal interface {
	ActorEvents(runID string, actor logging.Actor, limit int) ([]*store.Event, error)
}

var _ Galaxy = (*core.Orchestrator)(nil)
var _ Journal = (*store.Store)(nil)

// View represents the current view mode.
type View int

const (
	ViewDashboard View = iota
	ViewFocus
)

// Model is the main TUI model.
type Model struct {
	galaxy  Galaxy
	journal Journal
	runID   string
	eventCh <-chan core.Event

	view        View
	width       int
	height      int
	selectedIdx int
	showHelp    bool

	input     InputModel
	pulse     Pulse
	planets   []core.PlanetInfo
	explorers []core.ExplorerInfo
	events    []EventLine

	focusID      core.PlanetID
	snapshot     *protocol.PlanetSnapshot
	journalVP    viewport.Model
	journalTotal int

	status string
	err    error
}

// EventMsg wraps a bus event for the TUI.
type EventMsg struct {
	Event core.Event
}

type actionResultMsg struct {
	status string
	err    error
}

type snapshotMsg struct {
	id   core.PlanetID
	snap protocol.PlanetSnapshot
	err  error
}

type journalMsg struct {
	id     core.PlanetID
	events []*store.Event
	err    error
}

// New creates the dashboard model. journal may be nil, in which case the
// focus view shows no journal.
func New(g Galaxy, journal Journal, runID string, eventCh <-chan core.Event) Model {
	m := Model{
		galaxy:    g,
		journal:   journal,
		runID:     runID,
		eventCh:   eventCh,
		view:      ViewDashboard,
		input:     NewInputModel(),
		pulse:     NewPulse(),
		journalVP: viewport.New(80, 10),
	}
	m.refresh()
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.listenForEvents(), m.pulse.Init())
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.SetWidth(msg.Width - 4)
		m.resizeJournal()
		return m, nil

	case tea.KeyMsg:
		if m.input.IsActive() {
			return m.handleInputKey(msg)
		}

		if key.Matches(msg, keys.Help) {
			m.showHelp = !m.showHelp
			return m, nil
		}
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}

		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Escape):
			if m.view == ViewFocus {
				m.view = ViewDashboard
				m.focusID = 0
				m.snapshot = nil
			}
			m.err = nil
			return m, nil
		}

		if m.view == ViewFocus {
			return m.handleFocusKey(msg)
		}
		return m.handleDashboardKey(msg)

	case EventMsg:
		return m.handleEvent(msg.Event)

	case actionResultMsg:
		m.err = msg.err
		if msg.err == nil {
			m.status = msg.status
		}
		m.refresh()
		return m, nil

	case snapshotMsg:
		if m.view != ViewFocus || msg.id != m.focusID {
			return m, nil
		}
		if msg.err != nil {
			m.snapshot = nil
			return m, nil
		}
		snap := msg.snap
		m.snapshot = &snap
		return m, nil

	case journalMsg:
		if m.view != ViewFocus || msg.id != m.focusID {
			return m, nil
		}
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.setJournal(msg.events)
		return m, nil

	case PulseTickMsg:
		var cmd tea.Cmd
		m.pulse, cmd = m.pulse.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the UI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content string
	switch {
	case m.showHelp:
		content = RenderHelp(m.width, m.height)
	case m.view == ViewFocus:
		content = RenderFocusView(m.planetByID(m.focusID), m.snapshot, m.explorers, m.journalVP, m.journalTotal, m.width)
	default:
		content = RenderDashboard(m.planets, m.explorers, m.events, m.selectedIdx, m.width, m.height-3, m.pulse.View())
	}

	if m.input.IsActive() {
		content += "\n" + m.input.View()
	}

	if m.err != nil {
		content += "\n" + errorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	} else if m.status != "" {
		content += "\n" + dimmedStyle.Render(m.status)
	}

	return content
}

func (m Model) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up), key.Matches(msg, keys.ShiftTab):
		if m.selectedIdx > 0 {
			m.selectedIdx--
		}
		return m, nil

	case key.Matches(msg, keys.Down), key.Matches(msg, keys.Tab):
		if m.selectedIdx < len(m.planets)-1 {
			m.selectedIdx++
		}
		return m, nil

	case key.Matches(msg, keys.Enter):
		id, ok := m.selectedPlanet()
		if !ok {
			return m, nil
		}
		m.view = ViewFocus
		m.focusID = id
		m.snapshot = nil
		m.journalTotal = 0
		m.journalVP.SetContent("")
		m.resizeJournal()
		return m, tea.Batch(m.loadSnapshot(id), m.loadJournal(id))
	}

	id, ok := m.selectedPlanet()
	if !ok {
		return m, nil
	}
	return m.handlePlanetKey(msg, id)
}

func (m Model) handleFocusKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.Bottom) {
		m.journalVP.GotoBottom()
		return m, nil
	}
	if next, cmd := m.handlePlanetKey(msg, m.focusID); cmd != nil || next.(Model).input.IsActive() {
		return next, cmd
	}

	var cmd tea.Cmd
	m.journalVP, cmd = m.journalVP.Update(msg)
	return m, cmd
}

// handlePlanetKey runs the per-planet commands shared by both views.
func (m Model) handlePlanetKey(msg tea.KeyMsg, id core.PlanetID) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Sunray):
		return m, m.act(func(ctx context.Context) (string, error) {
			if err := m.galaxy.SendSunray(ctx, id); err != nil {
				return "", err
			}
			return fmt.Sprintf("sunray sent to planet %d", id), nil
		})

	case key.Matches(msg, keys.Asteroid):
		return m, m.act(func(ctx context.Context) (string, error) {
			out, err := m.galaxy.SendAsteroid(ctx, id)
			if err != nil {
				return "", err
			}
			if out.RocketUsed {
				return fmt.Sprintf("planet %d deflected the asteroid", id), nil
			}
			return fmt.Sprintf("planet %d was destroyed", id), nil
		})

	case key.Matches(msg, keys.Stop):
		return m, m.act(func(ctx context.Context) (string, error) {
			return fmt.Sprintf("planet %d stopped", id), m.galaxy.StopPlanet(ctx, id)
		})

	case key.Matches(msg, keys.Kill):
		return m, m.act(func(ctx context.Context) (string, error) {
			return fmt.Sprintf("planet %d killed", id), m.galaxy.KillPlanet(ctx, id)
		})

	case key.Matches(msg, keys.Move):
		m.input.SetMode(InputModeMove, id)
		return m, nil

	case key.Matches(msg, keys.Connect):
		m.input.SetMode(InputModeConnect, id)
		return m, nil
	}
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		m.input.Reset()
		return m, nil

	case key.Matches(msg, keys.Enter):
		if strings.TrimSpace(m.input.Value()) == "" {
			m.input.Reset()
			return m, nil
		}
		n, err := m.input.ID()
		if err != nil {
			m.err = err
			m.input.Reset()
			return m, nil
		}

		target := m.input.Target()
		mode := m.input.Mode()
		m.input.Reset()

		switch mode {
		case InputModeMove:
			eid := core.ExplorerID(n)
			return m, m.act(func(ctx context.Context) (string, error) {
				return fmt.Sprintf("explorer %d moved to planet %d", eid, target), m.galaxy.MoveExplorer(ctx, eid, target)
			})
		case InputModeConnect:
			other := core.PlanetID(n)
			return m, m.act(func(context.Context) (string, error) {
				return fmt.Sprintf("planets %d and %d connected", target, other), m.galaxy.Connect(target, other)
			})
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleEvent(event core.Event) (tea.Model, tea.Cmd) {
	m.refresh()

	m.events = append(m.events, EventLineFromCore(event))
	if len(m.events) > maxFeed {
		m.events = m.events[len(m.events)-maxFeed:]
	}

	if alerting(event.Type) {
		m.pulse.Kick(ActivityAlert)
	} else {
		m.pulse.Kick(ActivityCalm)
	}

	cmds := []tea.Cmd{m.listenForEvents()}
	if m.view == ViewFocus && m.concernsFocus(event) {
		cmds = append(cmds, m.loadSnapshot(m.focusID), m.loadJournal(m.focusID))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) concernsFocus(e core.Event) bool {
	if e.PlanetID == m.focusID {
		return true
	}
	if d, ok := e.Data.(core.MoveData); ok {
		return d.From == m.focusID || d.To == m.focusID
	}
	return false
}

func (m *Model) refresh() {
	m.planets = m.galaxy.Planets()
	m.explorers = m.galaxy.Explorers()
	if m.selectedIdx >= len(m.planets) {
		m.selectedIdx = max(0, len(m.planets)-1)
	}
}

func (m Model) selectedPlanet() (core.PlanetID, bool) {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.planets) {
		return 0, false
	}
	return m.planets[m.selectedIdx].ID, true
}

func (m Model) planetByID(id core.PlanetID) core.PlanetInfo {
	for _, p := range m.planets {
		if p.ID == id {
			return p
		}
	}
	return core.PlanetInfo{ID: id, Name: "unknown", State: core.StateKilled}
}

// resizeJournal fits the journal viewport into the space the focus view
// leaves free.
func (m *Model) resizeJournal() {
	if m.width == 0 || m.height == 0 {
		return
	}
	hosted := max(1, len(m.planetByID(m.focusID).Explorers))
	// header + margin, info, snapshot, two titles, borders, hint, status
	const chrome = 2 + 1 + 3 + 2 + 2 + 1 + 2
	m.journalVP.Width = max(10, m.width-3)
	m.journalVP.Height = max(3, m.height-chrome-hosted)
}

func (m *Model) setJournal(events []*store.Event) {
	follow := m.journalVP.AtBottom() || m.journalTotal == 0
	lines := journalLines(events, m.journalVP.Width)
	m.journalTotal = len(lines)
	m.journalVP.SetContent(strings.Join(lines, "\n"))
	if follow {
		m.journalVP.GotoBottom()
	}
}

func (m Model) act(fn func(ctx context.Context) (string, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		status, err := fn(ctx)
		return actionResultMsg{status: status, err: err}
	}
}

func (m Model) loadSnapshot(id core.PlanetID) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		snap, err := m.galaxy.PlanetState(ctx, id)
		return snapshotMsg{id: id, snap: snap, err: err}
	}
}

func (m Model) loadJournal(id core.PlanetID) tea.Cmd {
	if m.journal == nil {
		return nil
	}
	return func() tea.Msg {
		events, err := m.journal.ActorEvents(m.runID, logging.Planet(uint32(id)), journalLimit)
		return journalMsg{id: id, events: events, err: err}
	}
}

func (m Model) listenForEvents() tea.Cmd {
	return func() tea.Msg {
		event, ok := <-m.eventCh
		if !ok {
			return nil
		}
		return EventMsg{Event: event}
	}
}

// Key bindings
var keys = struct {
	Quit     key.Binding
	Help     key.Binding
	Escape   key.Binding
	Enter    key.Binding
	Tab      key.Binding
	ShiftTab key.Binding
	Up       key.Binding
	Down     key.Binding
	Bottom   key.Binding
	Sunray   key.Binding
	Asteroid key.Binding
	Stop     key.Binding
	Kill     key.Binding
	Move     key.Binding
	Connect  key.Binding
}{
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c")),
	Help:     key.NewBinding(key.WithKeys("?")),
	Escape:   key.NewBinding(key.WithKeys("esc")),
	Enter:    key.NewBinding(key.WithKeys("enter")),
	Tab:      key.NewBinding(key.WithKeys("tab")),
	ShiftTab: key.NewBinding(key.WithKeys("shift+tab")),
	Up:       key.NewBinding(key.WithKeys("up", "k")),
	Down:     key.NewBinding(key.WithKeys("down", "j")),
	Bottom:   key.NewBinding(key.WithKeys("G", "end")),
	Sunray:   key.NewBinding(key.WithKeys("s")),
	Asteroid: key.NewBinding(key.WithKeys("a")),
	Stop:     key.NewBinding(key.WithKeys("p")),
	Kill:     key.NewBinding(key.WithKeys("x")),
	Move:     key.NewBinding(key.WithKeys("m")),
	Connect:  key.NewBinding(key.WithKeys("c")),
}
