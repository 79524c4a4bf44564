package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Galaxy describes the planets, their links and the explorers placed on them.
type Galaxy struct {
	Planets   []PlanetSpec   `toml:"planets" yaml:"planets"`
	Explorers []ExplorerSpec `toml:"explorers" yaml:"explorers"`
}

// PlanetSpec declares one planet.
type PlanetSpec struct {
	Name      string   `toml:"name" yaml:"name"`
	Type      string   `toml:"type" yaml:"type"`
	AI        string   `toml:"ai" yaml:"ai"`
	Generate  []string `toml:"generate" yaml:"generate"`
	Combine   []string `toml:"combine" yaml:"combine"`
	Neighbors []string `toml:"neighbors" yaml:"neighbors"`
}

// ExplorerSpec declares one explorer and where it starts.
type ExplorerSpec struct {
	Name   string `toml:"name" yaml:"name"`
	Planet string `toml:"planet" yaml:"planet"`
	AI     string `toml:"ai" yaml:"ai"`
}

// LoadGalaxy reads a galaxy from a .toml, .yaml or .yml file.
func LoadGalaxy(path string) (*Galaxy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read galaxy: %w", err)
	}

	var g Galaxy
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &g); err != nil {
			return nil, fmt.Errorf("decode galaxy %s: %w", path, err)
		}
	case ".toml", "":
		if _, err := toml.Decode(string(data), &g); err != nil {
			return nil, fmt.Errorf("decode galaxy %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported galaxy format: %s", path)
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

// Validate checks names are unique and every reference resolves.
func (g *Galaxy) Validate() error {
	if len(g.Planets) == 0 {
		return fmt.Errorf("galaxy has no planets")
	}

	planets := make(map[string]bool, len(g.Planets))
	for _, p := range g.Planets {
		if p.Name == "" {
			return fmt.Errorf("planet with empty name")
		}
		if planets[p.Name] {
			return fmt.Errorf("duplicate planet: %s", p.Name)
		}
		planets[p.Name] = true
	}

	for _, p := range g.Planets {
		for _, n := range p.Neighbors {
			if !planets[n] {
				return fmt.Errorf("planet %s: unknown neighbor %s", p.Name, n)
			}
			if n == p.Name {
				return fmt.Errorf("planet %s: cannot neighbor itself", p.Name)
			}
		}
	}

	explorers := make(map[string]bool, len(g.Explorers))
	for _, e := range g.Explorers {
		if e.Name == "" {
			return fmt.Errorf("explorer with empty name")
		}
		if explorers[e.Name] {
			return fmt.Errorf("duplicate explorer: %s", e.Name)
		}
		explorers[e.Name] = true
		if !planets[e.Planet] {
			return fmt.Errorf("explorer %s: unknown planet %s", e.Name, e.Planet)
		}
	}
	return nil
}
