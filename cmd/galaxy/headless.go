package main

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xonecas/zoea-galaxy/internal/core"
)

// asteroidChance is the share of cosmic events that are asteroids.
const asteroidChance = 0.2

var errNoTargets = errors.New("no running planets")

// cosmos is the part of the orchestrator the headless driver needs.
type cosmos interface {
	Planets() []core.PlanetInfo
	SendSunray(ctx context.Context, id core.PlanetID) error
	SendAsteroid(ctx context.Context, id core.PlanetID) (core.AsteroidOutcome, error)
}

// runHeadless throws a sunray or an asteroid at a random running planet every
// interval until ctx is cancelled, limit elapses or no planet is left.
func runHeadless(ctx context.Context, c cosmos, interval, limit time.Duration) {
	if limit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, limit)
		defer cancel()
	}

	rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Dur("interval", interval).Msg("Headless driver started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Headless driver stopped")
			return
		case <-ticker.C:
			if err := cosmicEvent(ctx, c, rng); err != nil {
				if errors.Is(err, errNoTargets) {
					log.Warn().Msg("Every planet is gone, stopping")
					return
				}
				log.Warn().Err(err).Msg("Cosmic event failed")
			}
		}
	}
}

// cosmicEvent sends one sunray or asteroid to a random running planet.
func cosmicEvent(ctx context.Context, c cosmos, rng *rand.Rand) error {
	var targets []core.PlanetID
	for _, p := range c.Planets() {
		if p.State == core.StateRunning {
			targets = append(targets, p.ID)
		}
	}
	if len(targets) == 0 {
		return errNoTargets
	}
	id := targets[rng.IntN(len(targets))]

	if rng.Float64() >= asteroidChance {
		if err := c.SendSunray(ctx, id); err != nil {
			return err
		}
		log.Debug().Uint32("planet_id", uint32(id)).Msg("Sunray sent")
		return nil
	}

	out, err := c.SendAsteroid(ctx, id)
	if err != nil {
		return err
	}
	log.Info().
		Uint32("planet_id", uint32(id)).
		Bool("rocket_used", out.RocketUsed).
		Bool("destroyed", out.Destroyed).
		Msg("Asteroid resolved")
	return nil
}
