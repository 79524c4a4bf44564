// Package ai provides the built-in planet and explorer AIs and the registry
// galaxy files resolve them from.
package ai

import (
	"errors"
	"fmt"
	"sort"

	"github.com/xonecas/zoea-galaxy/internal/core"
)

// ErrAINotFound is returned when a galaxy file names an unknown AI.
var ErrAINotFound = errors.New("ai not found")

// PlanetFactory builds a fresh PlanetAI for one planet.
type PlanetFactory func() core.PlanetAI

// ExplorerFactory builds a fresh ExplorerAI for one explorer.
type ExplorerFactory func() core.ExplorerAI

// Registry maps AI names to factories. The empty name selects the base AIs.
type Registry struct {
	planets   map[string]PlanetFactory
	explorers map[string]ExplorerFactory
}

// NewRegistry creates a registry holding the built-in AIs.
func NewRegistry() *Registry {
	r := &Registry{
		planets:   make(map[string]PlanetFactory),
		explorers: make(map[string]ExplorerFactory),
	}
	r.RegisterPlanet("", func() core.PlanetAI { return core.BasePlanetAI{} })
	r.RegisterPlanet("defender", func() core.PlanetAI { return NewDefender() })
	r.RegisterExplorer("", func() core.ExplorerAI { return core.BaseExplorerAI{} })
	r.RegisterExplorer("idle", func() core.ExplorerAI { return core.BaseExplorerAI{} })
	r.RegisterExplorer("wanderer", func() core.ExplorerAI { return NewWanderer(0) })
	return r
}

// RegisterPlanet adds or replaces a planet AI.
func (r *Registry) RegisterPlanet(name string, f PlanetFactory) {
	r.planets[name] = f
}

// RegisterExplorer adds or replaces an explorer AI.
func (r *Registry) RegisterExplorer(name string, f ExplorerFactory) {
	r.explorers[name] = f
}

// PlanetAI implements core.AIFactory.
func (r *Registry) PlanetAI(name string) (core.PlanetAI, error) {
	f, ok := r.planets[name]
	if !ok {
		return nil, fmt.Errorf("planet ai %q: %w", name, ErrAINotFound)
	}
	return f(), nil
}

// ExplorerAI implements core.AIFactory.
func (r *Registry) ExplorerAI(name string) (core.ExplorerAI, error) {
	f, ok := r.explorers[name]
	if !ok {
		return nil, fmt.Errorf("explorer ai %q: %w", name, ErrAINotFound)
	}
	return f(), nil
}

// List returns the registered AI names, planets first.
func (r *Registry) List() (planets, explorers []string) {
	for name := range r.planets {
		if name != "" {
			planets = append(planets, name)
		}
	}
	for name := range r.explorers {
		if name != "" {
			explorers = append(explorers, name)
		}
	}
	sort.Strings(planets)
	sort.Strings(explorers)
	return planets, explorers
}

var _ core.AIFactory = (*Registry)(nil)
