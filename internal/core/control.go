package core

import (
	"context"
	"fmt"

	"github.com/xonecas/zoea-galaxy/internal/logging"
	"github.com/xonecas/zoea-galaxy/internal/protocol"
	"github.com/xonecas/zoea-galaxy/internal/resource"
)

// ExplorerControl is what an ExplorerAI acts through. Methods must only be
// called from the hook that received the control.
type ExplorerControl struct {
	e *Explorer
}

// ID returns the explorer id.
func (c *ExplorerControl) ID() ExplorerID { return c.e.id }

// CurrentPlanet returns the planet the explorer is on.
func (c *ExplorerControl) CurrentPlanet() PlanetID { return c.e.Planet() }

// Bag returns a copy of the bag contents.
func (c *ExplorerControl) Bag() resource.Contents { return c.e.bag.Contents() }

// Count returns how many resources of kind the bag holds.
func (c *ExplorerControl) Count(kind resource.Kind) int { return c.e.bag.Count(kind) }

// SupportedResources asks the current planet which basic resources it generates.
func (c *ExplorerControl) SupportedResources(ctx context.Context) ([]resource.BasicKind, error) {
	resp, err := askPlanet[protocol.SupportedResourceResponse](ctx, c.e, protocol.SupportedResourceRequest{ExplorerID: c.e.id})
	if err != nil {
		return nil, err
	}
	return resp.Kinds, nil
}

// SupportedCombinations asks the current planet which complex resources it combines.
func (c *ExplorerControl) SupportedCombinations(ctx context.Context) ([]resource.ComplexKind, error) {
	resp, err := askPlanet[protocol.SupportedCombinationResponse](ctx, c.e, protocol.SupportedCombinationRequest{ExplorerID: c.e.id})
	if err != nil {
		return nil, err
	}
	return resp.Kinds, nil
}

// AvailableEnergyCells asks the current planet how many cells are charged.
func (c *ExplorerControl) AvailableEnergyCells(ctx context.Context) (int, error) {
	resp, err := askPlanet[protocol.AvailableEnergyCellResponse](ctx, c.e, protocol.AvailableEnergyCellRequest{ExplorerID: c.e.id})
	if err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// PlanetState asks the current planet for its snapshot.
func (c *ExplorerControl) PlanetState(ctx context.Context) (protocol.PlanetSnapshot, error) {
	resp, err := askPlanet[protocol.PlanetStateResponse](ctx, c.e, protocol.PlanetStateRequest{ExplorerID: c.e.id})
	if err != nil {
		return protocol.PlanetSnapshot{}, err
	}
	return resp.State, nil
}

// Generate asks the current planet for a basic resource and stores it in the bag.
func (c *ExplorerControl) Generate(ctx context.Context, kind resource.BasicKind) error {
	resp, err := askPlanet[protocol.GenerateResourceResponse](ctx, c.e, protocol.GenerateResourceRequest{ExplorerID: c.e.id, Kind: kind})
	if err != nil {
		return err
	}
	if resp.Resource == nil {
		return generationFailed(&resource.GenerationError{Kind: kind, Reason: "planet produced nothing"})
	}
	c.e.bag.Add(*resp.Resource)
	c.e.log.Log(logging.ChannelDebug, logging.InternalExplorerAction, logging.Actor{}, "generated", "kind", kind.String())
	return nil
}

// Combine takes the recipe inputs for kind out of the bag and asks the
// current planet to combine them. On any failure the inputs go back in the bag.
func (c *ExplorerControl) Combine(ctx context.Context, kind resource.ComplexKind) error {
	recipe, ok := resource.RecipeFor(kind)
	if !ok {
		return &resource.CombinationError{Kind: kind, Reason: "no recipe"}
	}

	bag := c.e.bag
	first, ok := bag.Take(recipe.First)
	if !ok {
		return &resource.CombinationError{Kind: kind, Reason: fmt.Sprintf("bag has no %s", recipe.First)}
	}
	second, ok := bag.Take(recipe.Second)
	if !ok {
		bag.Add(first)
		return &resource.CombinationError{Kind: kind, Reason: fmt.Sprintf("bag has no %s", recipe.Second)}
	}

	resp, err := askPlanet[protocol.CombineResourceResponse](ctx, c.e, protocol.CombineResourceRequest{
		ExplorerID: c.e.id,
		Kind:       kind,
		First:      first,
		Second:     second,
	})
	if err != nil {
		bag.Add(first)
		bag.Add(second)
		return err
	}
	if resp.Err != nil {
		if resp.Err.First != nil {
			bag.Add(resp.Err.First)
		}
		if resp.Err.Second != nil {
			bag.Add(resp.Err.Second)
		}
		return resp.Err
	}
	if resp.Resource == nil {
		bag.Add(first)
		bag.Add(second)
		return &resource.CombinationError{Kind: kind, Reason: "planet produced nothing", First: first, Second: second}
	}
	bag.Add(*resp.Resource)
	c.e.log.Log(logging.ChannelDebug, logging.InternalExplorerAction, logging.Actor{}, "combined", "kind", kind.String())
	return nil
}

// RequestNeighbors asks the orchestrator for the current planet's
// neighbors. The answer arrives later through OnNeighbors.
func (c *ExplorerControl) RequestNeighbors(ctx context.Context) error {
	return c.send(ctx, protocol.NeighborsRequest{ExplorerID: c.e.id, CurrentPlanet: c.e.Planet()})
}

// TravelTo asks the orchestrator to move the explorer. The outcome arrives
// later through OnMoved or OnTravelDenied.
func (c *ExplorerControl) TravelTo(ctx context.Context, to PlanetID) error {
	return c.send(ctx, protocol.TravelToPlanet{ExplorerID: c.e.id, From: c.e.Planet(), To: to})
}

func (c *ExplorerControl) send(ctx context.Context, msg protocol.ExplorerToOrchestrator) error {
	ctx, cancel := context.WithTimeout(ctx, c.e.replyTimeout)
	defer cancel()
	if err := c.e.toOrch.Send(ctx, msg); err != nil {
		return fmt.Errorf("%w: %v", ErrActorUnreachable, err)
	}
	c.e.log.Log(logging.ChannelDebug, logging.MessageExplorerToOrchestrator, logging.Orchestrator, protocol.Name(msg))
	return nil
}

// askPlanet sends req to the explorer's current planet and waits for the
// reply of type R. Replies of other types are leftovers and are skipped.
func askPlanet[R protocol.PlanetToExplorer](ctx context.Context, e *Explorer, req protocol.ExplorerToPlanet) (R, error) {
	var zero R
	planet, box := e.currentPlanet()
	if box == nil {
		return zero, fmt.Errorf("%w: explorer has no planet", ErrActorUnreachable)
	}

	e.drainReplies()
	if err := e.limiter.Wait(ctx); err != nil {
		return zero, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.replyTimeout)
	defer cancel()
	if err := box.Send(ctx, req); err != nil {
		return zero, fmt.Errorf("%w: %s: %v", ErrActorUnreachable, planet, err)
	}
	e.log.Log(logging.ChannelTrace, logging.MessageExplorerToPlanet, logging.Planet(uint32(planet)), protocol.Name(req))

	for {
		select {
		case msg := <-e.planetReplies.Receive():
			if resp, ok := msg.(R); ok {
				return resp, nil
			}
			if u, ok := msg.(protocol.PlanetUnavailable); ok {
				return zero, fmt.Errorf("%w: %s unavailable: %s", ErrProtocolViolation, u.PlanetID, u.Reason)
			}
		case <-ctx.Done():
			return zero, fmt.Errorf("%w: %s: %v", ErrActorUnreachable, planet, ctx.Err())
		}
	}
}
