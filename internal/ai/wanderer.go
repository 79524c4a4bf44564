package ai

import (
	"context"
	"errors"
	"math/rand/v2"

	"github.com/rs/zerolog/log"

	"github.com/xonecas/zoea-galaxy/internal/core"
	"github.com/xonecas/zoea-galaxy/internal/resource"
)

const defaultStayTicks = 4

// Wanderer generates what its planet offers, combines whatever its bag
// allows, and moves on to a random neighbor every few ticks.
type Wanderer struct {
	core.BaseExplorerAI

	stay      int
	ticks     int
	neighbors []core.PlanetID
	asked     bool
	traveling bool
	supported []resource.BasicKind
	combines  []resource.ComplexKind
	known     bool
}

// NewWanderer creates a Wanderer that stays stay ticks on each planet.
// Zero selects the default.
func NewWanderer(stay int) *Wanderer {
	if stay <= 0 {
		stay = defaultStayTicks
	}
	return &Wanderer{stay: stay}
}

func (w *Wanderer) OnReset(*core.ExplorerControl) {
	*w = Wanderer{stay: w.stay}
}

func (w *Wanderer) Step(ctx context.Context, ctrl *core.ExplorerControl) {
	if w.traveling {
		return
	}
	w.ticks++

	if !w.known {
		if err := w.learn(ctx, ctrl); err != nil {
			log.Debug().Err(err).Uint32("explorer_id", uint32(ctrl.ID())).Msg("Wanderer could not query planet")
			return
		}
	}

	w.work(ctx, ctrl)

	if w.ticks < w.stay {
		return
	}
	if !w.asked {
		w.asked = true
		if err := ctrl.RequestNeighbors(ctx); err != nil {
			w.asked = false
		}
		return
	}
	if len(w.neighbors) == 0 {
		return
	}
	to := w.neighbors[rand.IntN(len(w.neighbors))]
	if err := ctrl.TravelTo(ctx, to); err == nil {
		w.traveling = true
	}
}

func (w *Wanderer) learn(ctx context.Context, ctrl *core.ExplorerControl) error {
	supported, err := ctrl.SupportedResources(ctx)
	if err != nil {
		return err
	}
	combines, err := ctrl.SupportedCombinations(ctx)
	if err != nil {
		return err
	}
	w.supported, w.combines, w.known = supported, combines, true
	return nil
}

func (w *Wanderer) work(ctx context.Context, ctrl *core.ExplorerControl) {
	for _, kind := range w.combines {
		recipe, ok := resource.RecipeFor(kind)
		if !ok || !w.has(ctrl, recipe) {
			continue
		}
		if err := ctrl.Combine(ctx, kind); err == nil {
			return
		}
	}

	if len(w.supported) == 0 {
		return
	}
	kind := w.supported[rand.IntN(len(w.supported))]
	err := ctrl.Generate(ctx, kind)
	if err != nil && !errors.Is(err, core.ErrResourceGenerationFailed) {
		log.Debug().Err(err).Uint32("explorer_id", uint32(ctrl.ID())).Msg("Wanderer generate failed")
	}
}

func (w *Wanderer) has(ctrl *core.ExplorerControl, r resource.Recipe) bool {
	if r.First == r.Second {
		return ctrl.Count(r.First) >= 2
	}
	return ctrl.Count(r.First) > 0 && ctrl.Count(r.Second) > 0
}

func (w *Wanderer) OnNeighbors(_ *core.ExplorerControl, neighbors []core.PlanetID) {
	w.neighbors = neighbors
}

func (w *Wanderer) OnMoved(_ *core.ExplorerControl, _ core.PlanetID) {
	w.arrived()
}

func (w *Wanderer) OnTravelDenied(_ *core.ExplorerControl, _ core.PlanetID) {
	w.traveling = false
	w.asked = false
	w.neighbors = nil
}

func (w *Wanderer) arrived() {
	w.ticks = 0
	w.traveling = false
	w.asked = false
	w.neighbors = nil
	w.known = false
}
