package core

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/xonecas/zoea-galaxy/internal/config"
	"github.com/xonecas/zoea-galaxy/internal/resource"
)

// startConcurrently runs start for every id in parallel and returns the
// first error.
func startConcurrently[ID any](ctx context.Context, ids []ID, start func(context.Context, ID) error) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		g.Go(func() error {
			return start(ctx, id)
		})
	}
	return g.Wait()
}

// Populate builds the galaxy described by g: planets are added, connected
// and started, then explorers are placed on them. Explorers are left
// NotStarted; StartAll starts them.
func (o *Orchestrator) Populate(ctx context.Context, g *config.Galaxy, ais AIFactory) (map[string]PlanetID, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	ids := make(map[string]PlanetID, len(g.Planets))
	for _, pc := range g.Planets {
		typ, err := resource.ParsePlanetType(pc.Type)
		if err != nil {
			return nil, fmt.Errorf("planet %q: %w", pc.Name, err)
		}
		rules, err := parseRules(pc)
		if err != nil {
			return nil, err
		}
		ai, err := ais.PlanetAI(pc.AI)
		if err != nil {
			return nil, fmt.Errorf("planet %q: %w", pc.Name, err)
		}
		id, err := o.AddPlanet(pc.Name, typ, rules, ai)
		if err != nil {
			return nil, err
		}
		ids[pc.Name] = id
	}

	for _, pc := range g.Planets {
		for _, n := range pc.Neighbors {
			if err := o.Connect(ids[pc.Name], ids[n]); err != nil {
				return nil, fmt.Errorf("connect %q to %q: %w", pc.Name, n, err)
			}
		}
	}

	planets := make([]PlanetID, 0, len(ids))
	for _, id := range ids {
		planets = append(planets, id)
	}
	if err := startConcurrently(ctx, planets, o.StartPlanet); err != nil {
		return nil, err
	}

	for _, ec := range g.Explorers {
		ai, err := ais.ExplorerAI(ec.AI)
		if err != nil {
			return nil, fmt.Errorf("explorer %q: %w", ec.Name, err)
		}
		if _, err := o.AddExplorer(ctx, ec.Name, ids[ec.Planet], ai); err != nil {
			return nil, fmt.Errorf("explorer %q: %w", ec.Name, err)
		}
	}

	log.Info().Int("planets", len(g.Planets)).Int("explorers", len(g.Explorers)).Msg("Galaxy populated")
	return ids, nil
}

func parseRules(pc config.PlanetSpec) (resource.Rules, error) {
	var rules resource.Rules
	for _, s := range pc.Generate {
		k, err := resource.ParseBasicKind(s)
		if err != nil {
			return rules, fmt.Errorf("planet %q: %w", pc.Name, err)
		}
		rules.Generate = append(rules.Generate, k)
	}
	for _, s := range pc.Combine {
		k, err := resource.ParseComplexKind(s)
		if err != nil {
			return rules, fmt.Errorf("planet %q: %w", pc.Name, err)
		}
		rules.Combine = append(rules.Combine, k)
	}
	return rules, nil
}

// VerifyDirectory checks that every live explorer is recorded on a planet
// that is still alive and is listed by exactly that planet. Stopped planets
// cannot be queried, so their lists are not compared. Run it on a quiet
// galaxy: a kill cascade in progress looks like a violation.
func (o *Orchestrator) VerifyDirectory(ctx context.Context) error {
	if err := o.verifyRecords(); err != nil {
		return err
	}

	explorers := o.Explorers()
	for _, p := range o.Planets() {
		if p.State != StateRunning {
			continue
		}
		snap, err := o.PlanetState(ctx, p.ID)
		if err != nil {
			return err
		}
		for _, e := range explorers {
			if e.State == StateKilled {
				continue
			}
			listed := snap.Hosts(e.ID)
			if listed != (e.Planet == p.ID) {
				return fmt.Errorf("%s on %s, listed by %s=%t: %w", e.ID, e.Planet, p.ID, listed, ErrInvariantViolation)
			}
		}
	}
	return nil
}

func (o *Orchestrator) verifyRecords() error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	for _, er := range o.explorers {
		if er.state == StateKilled || er.dying {
			continue
		}
		prec, ok := o.planets[er.planet]
		if !ok {
			return fmt.Errorf("%s recorded on unknown %s: %w", er.id, er.planet, ErrInvariantViolation)
		}
		if prec.state == StateKilled {
			return fmt.Errorf("%s recorded on killed %s: %w", er.id, er.planet, ErrInvariantViolation)
		}
	}
	return nil
}
