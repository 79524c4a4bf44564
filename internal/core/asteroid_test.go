package core

import (
	"context"
	"testing"
	"time"

	"github.com/xonecas/zoea-galaxy/internal/resource"
)

func TestAsteroidWithRocket(t *testing.T) {
	o, bus, cleanup := setupOrchestratorTest(t)
	defer cleanup()
	ctx := context.Background()

	events := bus.Subscribe()
	p := addRunningPlanet(t, o, "fortress", resource.PlanetA, rocketAI{}, oxygenRules())
	if err := o.SendSunray(ctx, p); err != nil {
		t.Fatalf("SendSunray() error: %v", err)
	}
	snap, err := o.PlanetState(ctx, p)
	if err != nil {
		t.Fatalf("PlanetState() error: %v", err)
	}
	if !snap.HasRocket {
		t.Fatal("expected rocket after first sunray")
	}

	out, err := o.SendAsteroid(ctx, p)
	if err != nil {
		t.Fatalf("SendAsteroid() error: %v", err)
	}
	if !out.RocketUsed {
		t.Error("expected rocket used")
	}
	if out.Destroyed {
		t.Error("expected planet to survive")
	}
	if got := o.Planets()[0].State; got != StateRunning {
		t.Errorf("expected state=running, got %s", got)
	}

	e := waitForEvent(t, events, EventAsteroid, time.Second)
	if data, ok := e.Data.(AsteroidData); !ok || !data.RocketUsed {
		t.Errorf("expected asteroid event with rocket used, got %+v", e.Data)
	}

	// The rocket is gone; a second strike destroys the planet.
	out, err = o.SendAsteroid(ctx, p)
	if err != nil {
		t.Fatalf("SendAsteroid() error: %v", err)
	}
	if out.RocketUsed || !out.Destroyed {
		t.Errorf("expected second asteroid to destroy the planet, got %+v", out)
	}
}

func TestAsteroidWithoutRocket(t *testing.T) {
	o, bus, cleanup := setupOrchestratorTest(t)
	defer cleanup()
	ctx := context.Background()

	events := bus.Subscribe()
	p := addRunningPlanet(t, o, "exposed", resource.PlanetB, nil, oxygenRules())
	e := addExplorer(t, o, p, nil)

	out, err := o.SendAsteroid(ctx, p)
	if err != nil {
		t.Fatalf("SendAsteroid() error: %v", err)
	}
	if out.RocketUsed {
		t.Error("expected no rocket on a type B planet")
	}
	if !out.Destroyed {
		t.Error("expected planet destroyed")
	}
	if got := o.Planets()[0].State; got != StateKilled {
		t.Errorf("expected state=killed, got %s", got)
	}
	if got := o.Explorers()[0].State; got != StateKilled {
		t.Errorf("expected explorer %d killed, got %s", e, got)
	}
	waitForEvent(t, events, EventPlanetDestroyed, time.Second)
}

func TestAsteroidOnStoppedPlanet(t *testing.T) {
	o, _, cleanup := setupOrchestratorTest(t)
	defer cleanup()
	ctx := context.Background()

	p := addRunningPlanet(t, o, "sleeping", resource.PlanetA, rocketAI{}, oxygenRules())
	if err := o.SendSunray(ctx, p); err != nil {
		t.Fatalf("SendSunray() error: %v", err)
	}
	if err := o.StopPlanet(ctx, p); err != nil {
		t.Fatalf("StopPlanet() error: %v", err)
	}

	out, err := o.SendAsteroid(ctx, p)
	if err != nil {
		t.Fatalf("SendAsteroid() error: %v", err)
	}
	if !out.Destroyed {
		t.Error("expected a stopped planet to be destroyed even with a rocket")
	}
}
