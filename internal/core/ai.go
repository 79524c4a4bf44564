package core

import (
	"context"

	"github.com/xonecas/zoea-galaxy/internal/protocol"
	"github.com/xonecas/zoea-galaxy/internal/resource"
)

// PlanetAI makes a planet's decisions. Every hook runs on the planet's own
// goroutine. A hook that panics is recovered and reported as a failure reply;
// it never takes the planet down.
//
// Embed BasePlanetAI to inherit the default behaviour of hooks you do not need.
type PlanetAI interface {
	// OnStart runs when the planet starts.
	OnStart(state *PlanetState, gen *resource.Generator, comb *resource.Combinator)
	// OnStop runs when a running planet stops.
	OnStop(state *PlanetState, gen *resource.Generator, comb *resource.Combinator)
	// HandleSunray decides what to do with incoming energy.
	HandleSunray(state *PlanetState, sunray resource.Sunray)
	// HandleAsteroid returns the rocket used to destroy the asteroid, or nil.
	HandleAsteroid(state *PlanetState) *resource.Rocket
	// HandleInternalState returns the snapshot reported to callers.
	HandleInternalState(state *PlanetState) protocol.PlanetSnapshot
	// OnExplorerArrival runs after an explorer is registered.
	OnExplorerArrival(state *PlanetState, id ExplorerID)
	// OnExplorerDeparture runs after an explorer is released.
	OnExplorerDeparture(state *PlanetState, id ExplorerID)
	// HandleExplorerRequest may answer an explorer request itself.
	// Returning nil selects the built-in handling.
	HandleExplorerRequest(state *PlanetState, req protocol.ExplorerToPlanet) protocol.PlanetToExplorer
}

// BasePlanetAI charges cells with sunrays, defends with a stored rocket and
// leaves explorer requests to the built-in handling.
type BasePlanetAI struct{}

func (BasePlanetAI) OnStart(*PlanetState, *resource.Generator, *resource.Combinator) {}
func (BasePlanetAI) OnStop(*PlanetState, *resource.Generator, *resource.Combinator)  {}

func (BasePlanetAI) HandleSunray(state *PlanetState, sunray resource.Sunray) {
	state.ChargeCell(sunray)
}

func (BasePlanetAI) HandleAsteroid(state *PlanetState) *resource.Rocket {
	return state.TakeRocket()
}

func (BasePlanetAI) HandleInternalState(state *PlanetState) protocol.PlanetSnapshot {
	return state.Snapshot()
}

func (BasePlanetAI) OnExplorerArrival(*PlanetState, ExplorerID)   {}
func (BasePlanetAI) OnExplorerDeparture(*PlanetState, ExplorerID) {}

func (BasePlanetAI) HandleExplorerRequest(*PlanetState, protocol.ExplorerToPlanet) protocol.PlanetToExplorer {
	return nil
}

// ExplorerAI makes an explorer's decisions. Every hook runs on the
// explorer's own goroutine and acts through the ExplorerControl.
//
// Embed BaseExplorerAI to inherit no-op defaults.
type ExplorerAI interface {
	OnStart(ctrl *ExplorerControl)
	OnStop(ctrl *ExplorerControl)
	// OnReset clears whatever the AI learned. Bag and planet are kept.
	OnReset(ctrl *ExplorerControl)
	// Step is called on every tick while the explorer is running.
	Step(ctx context.Context, ctrl *ExplorerControl)
	OnNeighbors(ctrl *ExplorerControl, neighbors []PlanetID)
	OnMoved(ctrl *ExplorerControl, planet PlanetID)
	OnTravelDenied(ctrl *ExplorerControl, planet PlanetID)
}

// BaseExplorerAI does nothing.
type BaseExplorerAI struct{}

func (BaseExplorerAI) OnStart(*ExplorerControl)                  {}
func (BaseExplorerAI) OnStop(*ExplorerControl)                   {}
func (BaseExplorerAI) OnReset(*ExplorerControl)                  {}
func (BaseExplorerAI) Step(context.Context, *ExplorerControl)    {}
func (BaseExplorerAI) OnNeighbors(*ExplorerControl, []PlanetID)  {}
func (BaseExplorerAI) OnMoved(*ExplorerControl, PlanetID)        {}
func (BaseExplorerAI) OnTravelDenied(*ExplorerControl, PlanetID) {}

// AIFactory resolves AI implementations by name for galaxy files.
type AIFactory interface {
	PlanetAI(name string) (PlanetAI, error)
	ExplorerAI(name string) (ExplorerAI, error)
}

// safely runs fn, converting a panic into an ErrAIHookFailed error.
func safely(hook string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = hookError(hook, r)
		}
	}()
	fn()
	return nil
}
