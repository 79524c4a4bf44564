package tui

import (
	"context"
	"errors"
	"regexp"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/xonecas/zoea-galaxy/internal/core"
	"github.com/xonecas/zoea-galaxy/internal/logging"
	"github.com/xonecas/zoea-galaxy/internal/protocol"
	"github.com/xonecas/zoea-galaxy/internal/resource"
	"github.com/xonecas/zoea-galaxy/internal/store"
)

const (
	TestTerminalWidth  = 120
	TestTerminalHeight = 40
)

// setupColorTest forces TrueColor output. Returns a cleanup function that
// should be deferred.
func setupColorTest(t *testing.T) func() {
	t.Helper()
	lipgloss.SetColorProfile(termenv.TrueColor)
	return func() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

type sunrayCall struct{ id core.PlanetID }

type moveCall struct {
	explorer core.ExplorerID
	to       core.PlanetID
}

// fakeGalaxy records the commands the dashboard sends.
type fakeGalaxy struct {
	planets   []core.PlanetInfo
	explorers []core.ExplorerInfo

	rocket bool
	err    error

	sunrays   []sunrayCall
	asteroids []core.PlanetID
	stopped   []core.PlanetID
	killed    []core.PlanetID
	moves     []moveCall
	connects  [][2]core.PlanetID
}

func newFakeGalaxy() *fakeGalaxy {
	return &fakeGalaxy{
		planets: []core.PlanetInfo{
			{ID: 1, Name: "alpha", Type: resource.PlanetA, State: core.StateRunning, Neighbors: []core.PlanetID{2}, Explorers: []core.ExplorerID{1}},
			{ID: 2, Name: "beta", Type: resource.PlanetC, State: core.StateStopped, Neighbors: []core.PlanetID{1}},
			{ID: 3, Name: "gamma", Type: resource.PlanetD, State: core.StateNotStarted},
		},
		explorers: []core.ExplorerInfo{
			{ID: 1, Name: "scout", State: core.StateRunning, Planet: 1},
		},
	}
}

func (g *fakeGalaxy) Planets() []core.PlanetInfo     { return g.planets }
func (g *fakeGalaxy) Explorers() []core.ExplorerInfo { return g.explorers }

func (g *fakeGalaxy) PlanetState(_ context.Context, id core.PlanetID) (protocol.PlanetSnapshot, error) {
	if g.err != nil {
		return protocol.PlanetSnapshot{}, g.err
	}
	return protocol.PlanetSnapshot{
		PlanetID:     id,
		Type:         resource.PlanetA,
		EnergyCells:  []bool{true, false, false},
		ChargedCells: 1,
		CanRocket:    true,
		Generate:     []resource.BasicKind{resource.Oxygen},
	}, nil
}

func (g *fakeGalaxy) SendSunray(_ context.Context, id core.PlanetID) error {
	g.sunrays = append(g.sunrays, sunrayCall{id: id})
	return g.err
}

func (g *fakeGalaxy) SendAsteroid(_ context.Context, id core.PlanetID) (core.AsteroidOutcome, error) {
	g.asteroids = append(g.asteroids, id)
	if g.err != nil {
		return core.AsteroidOutcome{}, g.err
	}
	return core.AsteroidOutcome{RocketUsed: g.rocket, Destroyed: !g.rocket}, nil
}

func (g *fakeGalaxy) StopPlanet(_ context.Context, id core.PlanetID) error {
	g.stopped = append(g.stopped, id)
	return g.err
}

func (g *fakeGalaxy) KillPlanet(_ context.Context, id core.PlanetID) error {
	g.killed = append(g.killed, id)
	return g.err
}

func (g *fakeGalaxy) MoveExplorer(_ context.Context, id core.ExplorerID, to core.PlanetID) error {
	g.moves = append(g.moves, moveCall{explorer: id, to: to})
	return g.err
}

func (g *fakeGalaxy) Connect(a, b core.PlanetID) error {
	g.connects = append(g.connects, [2]core.PlanetID{a, b})
	return g.err
}

// fakeJournal serves canned events for any actor.
type fakeJournal struct {
	events []*store.Event
	asked  []logging.Actor
}

func (j *fakeJournal) ActorEvents(_ string, actor logging.Actor, _ int) ([]*store.Event, error) {
	j.asked = append(j.asked, actor)
	return j.events, nil
}

var errFake = errors.New("fake failure")

// setupModelTest returns a sized model over a fake galaxy.
func setupModelTest(t *testing.T) (Model, *fakeGalaxy, chan core.Event) {
	t.Helper()
	g := newFakeGalaxy()
	ch := make(chan core.Event, 8)
	m := New(g, nil, "run-1", ch)
	m = update(t, m, tea.WindowSizeMsg{Width: TestTerminalWidth, Height: TestTerminalHeight})
	return m, g, ch
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func press(t *testing.T, m Model, k string) (Model, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		msg = tea.KeyMsg{Type: tea.KeyUp}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// runCmd executes cmd and any batched commands, returning the messages.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}
