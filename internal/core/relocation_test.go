package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/xonecas/zoea-galaxy/internal/config"
	"github.com/xonecas/zoea-galaxy/internal/protocol"
	"github.com/xonecas/zoea-galaxy/internal/resource"
)

func TestRelocationSuccess(t *testing.T) {
	o, bus, cleanup := setupOrchestratorTest(t)
	defer cleanup()
	ctx := context.Background()

	events := bus.Subscribe()
	a := addRunningPlanet(t, o, "a", resource.PlanetA, nil, oxygenRules())
	b := addRunningPlanet(t, o, "b", resource.PlanetA, nil, oxygenRules())
	e := addExplorer(t, o, a, nil)

	if err := o.MoveExplorer(ctx, e, b); err != nil {
		t.Fatalf("MoveExplorer() error: %v", err)
	}

	got, _ := o.ExplorerPlanet(e)
	if got != b {
		t.Errorf("expected record on %d, got %d", b, got)
	}
	current, err := o.CurrentPlanet(ctx, e)
	if err != nil {
		t.Fatalf("CurrentPlanet() error: %v", err)
	}
	if current != b {
		t.Errorf("expected explorer to believe it is on %d, got %d", b, current)
	}

	snapA, _ := o.PlanetState(ctx, a)
	if snapA.Hosts(e) {
		t.Error("expected source to no longer list the explorer")
	}
	snapB, _ := o.PlanetState(ctx, b)
	if !snapB.Hosts(e) {
		t.Error("expected destination to list the explorer")
	}

	ev := waitForEvent(t, events, EventExplorerMoved, time.Second)
	if data, ok := ev.Data.(MoveData); !ok || data.From != a || data.To != b {
		t.Errorf("expected move %d->%d, got %+v", a, b, ev.Data)
	}
	if n := len(o.Relocations()); n != 0 {
		t.Errorf("expected no relocation in flight, got %d", n)
	}
	if err := o.VerifyDirectory(ctx); err != nil {
		t.Errorf("VerifyDirectory() error: %v", err)
	}
}

func TestRelocationSourceRejects(t *testing.T) {
	o, bus, cleanup := setupOrchestratorTest(t)
	defer cleanup()
	ctx := context.Background()

	events := bus.Subscribe()
	sticky := &gateAI{release: func(ExplorerID) protocol.Outcome { return protocol.Reject("not leaving") }}
	a := addRunningPlanet(t, o, "a", resource.PlanetA, sticky, oxygenRules())
	b := addRunningPlanet(t, o, "b", resource.PlanetA, nil, oxygenRules())
	e := addExplorer(t, o, a, nil)

	err := o.MoveExplorer(ctx, e, b)
	var rej *RelocationRejectedError
	if !errors.As(err, &rej) {
		t.Fatalf("expected *RelocationRejectedError, got %v", err)
	}
	if rej.Stage != StageOutgoing {
		t.Errorf("expected stage=outgoing, got %s", rej.Stage)
	}

	got, _ := o.ExplorerPlanet(e)
	if got != a {
		t.Errorf("expected record to stay on %d, got %d", a, got)
	}
	snapB, _ := o.PlanetState(ctx, b)
	if snapB.Hosts(e) {
		t.Error("expected destination registration revoked")
	}
	snapA, _ := o.PlanetState(ctx, a)
	if !snapA.Hosts(e) {
		t.Error("expected source to still list the explorer")
	}

	ev := waitForEvent(t, events, EventRelocationFailed, time.Second)
	if data, ok := ev.Data.(RelocationFailedData); !ok || data.Stage != StageOutgoing {
		t.Errorf("expected relocation_failed at outgoing, got %+v", ev.Data)
	}
	if err := o.VerifyDirectory(ctx); err != nil {
		t.Errorf("VerifyDirectory() error: %v", err)
	}
}

func TestRelocationDestinationRejects(t *testing.T) {
	o, _, cleanup := setupOrchestratorTest(t)
	defer cleanup()
	ctx := context.Background()

	full := &gateAI{}
	a := addRunningPlanet(t, o, "a", resource.PlanetA, nil, oxygenRules())
	b := addRunningPlanet(t, o, "b", resource.PlanetA, full, oxygenRules())
	e := addExplorer(t, o, a, nil)
	full.admit = func(ExplorerID) protocol.Outcome { return protocol.Reject("full") }

	err := o.MoveExplorer(ctx, e, b)
	var rej *RelocationRejectedError
	if !errors.As(err, &rej) {
		t.Fatalf("expected *RelocationRejectedError, got %v", err)
	}
	if rej.Stage != StageIncoming {
		t.Errorf("expected stage=incoming, got %s", rej.Stage)
	}
	if rej.Reason != "full" {
		t.Errorf("expected reason=full, got %s", rej.Reason)
	}
	snapA, _ := o.PlanetState(ctx, a)
	if !snapA.Hosts(e) {
		t.Error("expected source untouched")
	}
}

func TestRelocationValidation(t *testing.T) {
	o, _, cleanup := setupOrchestratorTest(t)
	defer cleanup()
	ctx := context.Background()

	a := addRunningPlanet(t, o, "a", resource.PlanetA, nil, oxygenRules())
	stopped := addRunningPlanet(t, o, "stopped", resource.PlanetA, nil, oxygenRules())
	if err := o.StopPlanet(ctx, stopped); err != nil {
		t.Fatalf("StopPlanet() error: %v", err)
	}
	e := addExplorer(t, o, a, nil)

	if err := o.MoveExplorer(ctx, e, a); !errors.Is(err, ErrProtocolViolation) {
		t.Errorf("expected ErrProtocolViolation moving to the same planet, got %v", err)
	}
	if err := o.MoveExplorer(ctx, e, stopped); !errors.Is(err, ErrProtocolViolation) {
		t.Errorf("expected ErrProtocolViolation moving to a stopped planet, got %v", err)
	}
	if err := o.MoveExplorer(ctx, e, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown destination, got %v", err)
	}
	if err := o.MoveExplorer(ctx, 99, a); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown explorer, got %v", err)
	}

	var rej *RelocationRejectedError
	if err := o.MoveExplorer(ctx, e, stopped); !errors.As(err, &rej) || rej.Stage != StageValidate {
		t.Errorf("expected rejection at validate, got %v", err)
	}
}

func TestRelocationConcurrentSameExplorer(t *testing.T) {
	o, _, cleanup := setupOrchestratorTest(t, func(c *config.Config) {
		c.Orchestrator.RequestTimeout = config.Duration{Duration: 2 * time.Second}
	})
	defer cleanup()
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	slow := &gateAI{}

	a := addRunningPlanet(t, o, "a", resource.PlanetA, nil, oxygenRules())
	b := addRunningPlanet(t, o, "b", resource.PlanetA, slow, oxygenRules())
	c := addRunningPlanet(t, o, "c", resource.PlanetA, nil, oxygenRules())
	e := addExplorer(t, o, a, nil)

	slow.admit = func(ExplorerID) protocol.Outcome {
		once.Do(func() { close(entered) })
		<-release
		return protocol.Accept()
	}

	first := make(chan error, 1)
	go func() { first <- o.MoveExplorer(ctx, e, b) }()

	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for first relocation")
	}

	if n := len(o.Relocations()); n != 1 {
		t.Errorf("expected 1 relocation in flight, got %d", n)
	}
	err := o.MoveExplorer(ctx, e, c)
	if !errors.Is(err, ErrRelocationInProgress) {
		t.Errorf("expected ErrRelocationInProgress, got %v", err)
	}

	close(release)
	if err := <-first; err != nil {
		t.Fatalf("first MoveExplorer() error: %v", err)
	}
	got, _ := o.ExplorerPlanet(e)
	if got != b {
		t.Errorf("expected record on %d, got %d", b, got)
	}
}

func TestRelocationExplorerInitiated(t *testing.T) {
	o, _, cleanup := setupOrchestratorTest(t, func(c *config.Config) {
		c.Explorer.TickInterval = config.Duration{Duration: 10 * time.Millisecond}
	})
	defer cleanup()
	ctx := context.Background()

	a := addRunningPlanet(t, o, "a", resource.PlanetA, nil, oxygenRules())
	b := addRunningPlanet(t, o, "b", resource.PlanetA, nil, oxygenRules())
	if err := o.Connect(a, b); err != nil {
		t.Fatalf("Connect() error: %v", err)
	}

	ai := newTravelAI(b)
	e := addExplorer(t, o, a, ai)
	if err := o.StartExplorer(ctx, e); err != nil {
		t.Fatalf("StartExplorer() error: %v", err)
	}

	select {
	case got := <-ai.moved:
		if got != b {
			t.Errorf("expected move to %d, got %d", b, got)
		}
	case <-ai.denied:
		t.Fatal("expected travel to a neighbor to be accepted")
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for move")
	}

	got, _ := o.ExplorerPlanet(e)
	if got != b {
		t.Errorf("expected record on %d, got %d", b, got)
	}
}

func TestRelocationExplorerInitiatedNotNeighbor(t *testing.T) {
	o, bus, cleanup := setupOrchestratorTest(t, func(c *config.Config) {
		c.Explorer.TickInterval = config.Duration{Duration: 10 * time.Millisecond}
	})
	defer cleanup()
	ctx := context.Background()

	events := bus.Subscribe()
	a := addRunningPlanet(t, o, "a", resource.PlanetA, nil, oxygenRules())
	far := addRunningPlanet(t, o, "far", resource.PlanetA, nil, oxygenRules())

	ai := newTravelAI(far)
	e := addExplorer(t, o, a, ai)
	if err := o.StartExplorer(ctx, e); err != nil {
		t.Fatalf("StartExplorer() error: %v", err)
	}

	select {
	case got := <-ai.denied:
		if got != far {
			t.Errorf("expected denial for %d, got %d", far, got)
		}
	case <-ai.moved:
		t.Fatal("expected travel to a non-neighbor to be denied")
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for denial")
	}

	ev := waitForEvent(t, events, EventRelocationFailed, time.Second)
	if data, ok := ev.Data.(RelocationFailedData); !ok || data.Stage != StageValidate {
		t.Errorf("expected relocation_failed at validate, got %+v", ev.Data)
	}
	got, _ := o.ExplorerPlanet(e)
	if got != a {
		t.Errorf("expected record to stay on %d, got %d", a, got)
	}
}

func TestRelocationStress(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	o, _, cleanup := setupOrchestratorTest(t, func(c *config.Config) {
		c.Orchestrator.RequestTimeout = config.Duration{Duration: 2 * time.Second}
	})
	defer cleanup()
	ctx := context.Background()

	planets := make([]PlanetID, 4)
	for i := range planets {
		planets[i] = addRunningPlanet(t, o, "", resource.PlanetA, nil, oxygenRules())
	}
	explorers := make([]ExplorerID, 8)
	for i := range explorers {
		explorers[i] = addExplorer(t, o, planets[i%len(planets)], nil)
	}

	var wg sync.WaitGroup
	for i, e := range explorers {
		wg.Add(1)
		go func(i int, e ExplorerID) {
			defer wg.Done()
			for round := 0; round < 20; round++ {
				to := planets[(i+round+1)%len(planets)]
				err := o.MoveExplorer(ctx, e, to)
				if err != nil && !errors.Is(err, ErrProtocolViolation) {
					t.Errorf("MoveExplorer(%d -> %d) error: %v", e, to, err)
				}
			}
		}(i, e)
	}
	wg.Wait()

	if err := o.VerifyDirectory(ctx); err != nil {
		t.Errorf("VerifyDirectory() error: %v", err)
	}
}

func TestRelocationDestinationUnreachable(t *testing.T) {
	o, _, cleanup := setupOrchestratorTest(t)
	defer cleanup()
	ctx := context.Background()

	h := newHold()
	defer h.open()
	slow := &gateAI{}
	a := addRunningPlanet(t, o, "a", resource.PlanetA, nil, oxygenRules())
	b := addRunningPlanet(t, o, "b", resource.PlanetA, slow, oxygenRules())
	e := addExplorer(t, o, a, nil)
	slow.admit = func(ExplorerID) protocol.Outcome {
		h.wait()
		return protocol.Accept()
	}

	result := make(chan error, 1)
	go func() { result <- o.MoveExplorer(ctx, e, b) }()

	h.waitEntered(t)
	waitUntil(t, "compensation", func() bool { return relocationPhase(o, e) == PhaseCompensating })
	h.open()

	err := receiveErr(t, result)
	var rej *RelocationRejectedError
	if !errors.As(err, &rej) {
		t.Fatalf("expected *RelocationRejectedError, got %v", err)
	}
	if rej.Stage != StageIncoming {
		t.Errorf("expected stage=incoming, got %s", rej.Stage)
	}
	if !errors.Is(err, ErrActorUnreachable) {
		t.Errorf("expected ErrActorUnreachable, got %v", err)
	}

	// The late acceptance was revoked by the queued cancellation.
	snapB, err := o.PlanetState(ctx, b)
	if err != nil {
		t.Fatalf("PlanetState() error: %v", err)
	}
	if snapB.Hosts(e) {
		t.Error("expected destination registration cancelled")
	}
	got, _ := o.ExplorerPlanet(e)
	if got != a {
		t.Errorf("expected record to stay on %d, got %d", a, got)
	}
	if err := o.VerifyDirectory(ctx); err != nil {
		t.Errorf("VerifyDirectory() error: %v", err)
	}
}

func TestRelocationSourceTimesOut(t *testing.T) {
	o, _, cleanup := setupOrchestratorTest(t)
	defer cleanup()
	ctx := context.Background()

	h := newHold()
	defer h.open()
	slow := &gateAI{}
	a := addRunningPlanet(t, o, "a", resource.PlanetA, slow, oxygenRules())
	b := addRunningPlanet(t, o, "b", resource.PlanetA, nil, oxygenRules())
	e := addExplorer(t, o, a, nil)
	slow.release = func(ExplorerID) protocol.Outcome {
		h.wait()
		return protocol.Accept()
	}
	// Handing the explorer back must not go through admission.
	slow.admit = func(ExplorerID) protocol.Outcome { return protocol.Reject("closed") }

	result := make(chan error, 1)
	go func() { result <- o.MoveExplorer(ctx, e, b) }()

	h.waitEntered(t)
	waitUntil(t, "compensation", func() bool { return relocationPhase(o, e) == PhaseCompensating })
	h.open()

	err := receiveErr(t, result)
	var rej *RelocationRejectedError
	if !errors.As(err, &rej) {
		t.Fatalf("expected *RelocationRejectedError, got %v", err)
	}
	if rej.Stage != StageOutgoing {
		t.Errorf("expected stage=outgoing, got %s", rej.Stage)
	}

	got, _ := o.ExplorerPlanet(e)
	if got != a {
		t.Errorf("expected record to stay on %d, got %d", a, got)
	}
	snapA, _ := o.PlanetState(ctx, a)
	if !snapA.Hosts(e) {
		t.Error("expected explorer restored at source")
	}
	snapB, _ := o.PlanetState(ctx, b)
	if snapB.Hosts(e) {
		t.Error("expected destination registration cancelled")
	}
	if err := o.VerifyDirectory(ctx); err != nil {
		t.Errorf("VerifyDirectory() error: %v", err)
	}
}

func TestRelocationDestinationKilledMidway(t *testing.T) {
	o, _, cleanup := setupOrchestratorTest(t, slowRequests)
	defer cleanup()
	ctx := context.Background()

	h := newHold()
	defer h.open()
	slow := &gateAI{}
	a := addRunningPlanet(t, o, "a", resource.PlanetA, slow, oxygenRules())
	b := addRunningPlanet(t, o, "b", resource.PlanetA, nil, oxygenRules())
	e := addExplorer(t, o, a, nil)
	slow.release = func(ExplorerID) protocol.Outcome {
		h.wait()
		return protocol.Accept()
	}

	result := make(chan error, 1)
	go func() { result <- o.MoveExplorer(ctx, e, b) }()

	h.waitEntered(t)
	if err := o.KillPlanet(ctx, b); err != nil {
		t.Fatalf("KillPlanet() error: %v", err)
	}
	h.open()

	err := receiveErr(t, result)
	var rej *RelocationRejectedError
	if !errors.As(err, &rej) {
		t.Fatalf("expected *RelocationRejectedError, got %v", err)
	}
	if rej.Stage != StageOutgoing {
		t.Errorf("expected stage=outgoing, got %s", rej.Stage)
	}

	got, _ := o.ExplorerPlanet(e)
	if got != a {
		t.Errorf("expected record to stay on %d, got %d", a, got)
	}
	if s := explorerState(o, e); s == StateKilled {
		t.Errorf("expected explorer to survive, got %s", s)
	}
	snapA, _ := o.PlanetState(ctx, a)
	if !snapA.Hosts(e) {
		t.Error("expected explorer restored at source")
	}
	if err := o.VerifyDirectory(ctx); err != nil {
		t.Errorf("VerifyDirectory() error: %v", err)
	}
}

func TestRelocationExplorerKilledMidway(t *testing.T) {
	o, _, cleanup := setupOrchestratorTest(t, slowRequests)
	defer cleanup()
	ctx := context.Background()

	h := newHold()
	defer h.open()
	slow := &gateAI{}
	a := addRunningPlanet(t, o, "a", resource.PlanetA, slow, oxygenRules())
	b := addRunningPlanet(t, o, "b", resource.PlanetA, nil, oxygenRules())
	e := addExplorer(t, o, a, nil)
	slow.release = func(ExplorerID) protocol.Outcome {
		h.wait()
		return protocol.Accept()
	}

	result := make(chan error, 1)
	go func() { result <- o.MoveExplorer(ctx, e, b) }()
	h.waitEntered(t)

	killed := make(chan error, 1)
	go func() { killed <- o.KillExplorer(ctx, e) }()
	waitUntil(t, "explorer killed", func() bool { return explorerState(o, e) == StateKilled })
	h.open()

	err := receiveErr(t, result)
	var rej *RelocationRejectedError
	if !errors.As(err, &rej) {
		t.Fatalf("expected *RelocationRejectedError, got %v", err)
	}
	if err := receiveErr(t, killed); err != nil {
		t.Errorf("KillExplorer() error: %v", err)
	}

	snapB, _ := o.PlanetState(ctx, b)
	if snapB.Hosts(e) {
		t.Error("expected destination to drop the killed explorer")
	}
	snapA, _ := o.PlanetState(ctx, a)
	if snapA.Hosts(e) {
		t.Error("expected source to drop the killed explorer")
	}
	if err := o.VerifyDirectory(ctx); err != nil {
		t.Errorf("VerifyDirectory() error: %v", err)
	}
}
