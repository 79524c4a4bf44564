package core

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xonecas/zoea-galaxy/internal/config"
	"github.com/xonecas/zoea-galaxy/internal/protocol"
	"github.com/xonecas/zoea-galaxy/internal/resource"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Orchestrator.RequestTimeout = config.Duration{Duration: 500 * time.Millisecond}
	cfg.Explorer.TickInterval = config.Duration{Duration: time.Hour}
	cfg.Explorer.RateLimit = 1000
	cfg.Explorer.RateBurst = 100
	return cfg
}

func setupOrchestratorTest(t *testing.T, opts ...func(*config.Config)) (*Orchestrator, *EventBus, func()) {
	t.Helper()

	cfg := testConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	bus := NewEventBus(100)
	o := NewOrchestrator(cfg, resource.NewForge(), bus)

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := o.Shutdown(ctx); err != nil {
			t.Logf("Shutdown() error: %v", err)
		}
		bus.Close()
	}
	return o, bus, cleanup
}

// addRunningPlanet adds and starts a planet that generates kinds.
func addRunningPlanet(t *testing.T, o *Orchestrator, name string, typ resource.PlanetType, ai PlanetAI, rules resource.Rules) PlanetID {
	t.Helper()
	id, err := o.AddPlanet(name, typ, rules, ai)
	if err != nil {
		t.Fatalf("AddPlanet(%s) error: %v", name, err)
	}
	if err := o.StartPlanet(context.Background(), id); err != nil {
		t.Fatalf("StartPlanet(%s) error: %v", name, err)
	}
	return id
}

func oxygenRules() resource.Rules {
	return resource.Rules{Generate: []resource.BasicKind{resource.Oxygen}}
}

func addExplorer(t *testing.T, o *Orchestrator, at PlanetID, ai ExplorerAI) ExplorerID {
	t.Helper()
	id, err := o.AddExplorer(context.Background(), "", at, ai)
	if err != nil {
		t.Fatalf("AddExplorer() error: %v", err)
	}
	return id
}

func waitForEvent(t *testing.T, events <-chan Event, typ EventType, timeout time.Duration) Event {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case e := <-events:
			if e.Type == typ {
				return e
			}
		case <-deadline:
			t.Fatalf("timeout waiting for %s event", typ)
			return Event{}
		}
	}
}

// rocketAI builds a rocket as soon as a cell is charged.
type rocketAI struct {
	BasePlanetAI
}

func (rocketAI) HandleSunray(state *PlanetState, sunray resource.Sunray) {
	state.ChargeCell(sunray)
	if !state.HasRocket() {
		_ = state.BuildRocket()
	}
}

// panicAI panics on start.
type panicAI struct {
	BasePlanetAI
}

func (panicAI) OnStart(*PlanetState, *resource.Generator, *resource.Combinator) {
	panic("boom")
}

// gateAI lets tests decide arrivals and departures.
type gateAI struct {
	BasePlanetAI
	admit   func(ExplorerID) protocol.Outcome
	release func(ExplorerID) protocol.Outcome
}

func (g *gateAI) AdmitExplorer(_ *PlanetState, id ExplorerID) protocol.Outcome {
	if g.admit == nil {
		return protocol.Accept()
	}
	return g.admit(id)
}

func (g *gateAI) ReleaseExplorer(_ *PlanetState, id ExplorerID) protocol.Outcome {
	if g.release == nil {
		return protocol.Accept()
	}
	return g.release(id)
}

// travelAI asks once to travel to target and reports the outcome.
type travelAI struct {
	BaseExplorerAI
	target PlanetID
	asked  atomic.Bool
	moved  chan PlanetID
	denied chan PlanetID
}

func newTravelAI(target PlanetID) *travelAI {
	return &travelAI{target: target, moved: make(chan PlanetID, 1), denied: make(chan PlanetID, 1)}
}

func (a *travelAI) Step(ctx context.Context, ctrl *ExplorerControl) {
	if a.asked.Swap(true) {
		return
	}
	_ = ctrl.TravelTo(ctx, a.target)
}

func (a *travelAI) OnMoved(_ *ExplorerControl, planet PlanetID) {
	select {
	case a.moved <- planet:
	default:
	}
}

func (a *travelAI) OnTravelDenied(_ *ExplorerControl, planet PlanetID) {
	select {
	case a.denied <- planet:
	default:
	}
}

// hold blocks a hook until the test opens it.
type hold struct {
	entered chan struct{}
	proceed chan struct{}
	once    sync.Once
}

func newHold() *hold {
	return &hold{entered: make(chan struct{}, 1), proceed: make(chan struct{})}
}

func (h *hold) wait() {
	select {
	case h.entered <- struct{}{}:
	default:
	}
	<-h.proceed
}

func (h *hold) open() {
	h.once.Do(func() { close(h.proceed) })
}

func (h *hold) waitEntered(t *testing.T) {
	t.Helper()
	select {
	case <-h.entered:
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for hook to block")
	}
}

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func relocationPhase(o *Orchestrator, id ExplorerID) RelocationPhase {
	for _, a := range o.Relocations() {
		if a.ExplorerID == id {
			return a.Phase
		}
	}
	return ""
}

func explorerState(o *Orchestrator, id ExplorerID) LifecycleState {
	for _, e := range o.Explorers() {
		if e.ID == id {
			return e.State
		}
	}
	return ""
}

func receiveErr(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for result")
		return nil
	}
}

func slowRequests(c *config.Config) {
	c.Orchestrator.RequestTimeout = config.Duration{Duration: 5 * time.Second}
}
