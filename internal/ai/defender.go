package ai

import (
	"github.com/rs/zerolog/log"

	"github.com/xonecas/zoea-galaxy/internal/core"
	"github.com/xonecas/zoea-galaxy/internal/resource"
)

// Defender keeps a rocket ready whenever its planet type allows one, and
// only then spends energy on explorers.
type Defender struct {
	core.BasePlanetAI
	sunrays  int
	launched int
}

// NewDefender creates a Defender.
func NewDefender() *Defender {
	return &Defender{}
}

func (d *Defender) HandleSunray(state *core.PlanetState, sunray resource.Sunray) {
	d.sunrays++
	state.ChargeCell(sunray)
	if state.CanHaveRocket() && !state.HasRocket() {
		if err := state.BuildRocket(); err == nil {
			log.Debug().Uint32("planet_id", uint32(state.ID())).Msg("Rocket built")
		}
	}
}

func (d *Defender) HandleAsteroid(state *core.PlanetState) *resource.Rocket {
	r := state.TakeRocket()
	if r != nil {
		d.launched++
		// Rebuild straight away if energy is left.
		_ = state.BuildRocket()
	}
	return r
}

// Launched returns how many rockets the defender has fired.
func (d *Defender) Launched() int { return d.launched }
