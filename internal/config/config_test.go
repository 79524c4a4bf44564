package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Orchestrator.RequestTimeout.Duration != 2*time.Second {
		t.Errorf("expected request_timeout=2s, got %s", cfg.Orchestrator.RequestTimeout)
	}
	if cfg.Orchestrator.MailboxCapacity != 64 {
		t.Errorf("expected mailbox_capacity=64, got %d", cfg.Orchestrator.MailboxCapacity)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected log level=info, got %s", cfg.Log.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	content := `
galaxy = "galaxy.yaml"

[orchestrator]
request_timeout = "750ms"
mailbox_capacity = 8

[explorer]
tick_interval = "100ms"
rate_limit = 5.0
rate_burst = 2
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Orchestrator.RequestTimeout.Duration != 750*time.Millisecond {
		t.Errorf("expected request_timeout=750ms, got %s", cfg.Orchestrator.RequestTimeout)
	}
	if cfg.Orchestrator.MailboxCapacity != 8 {
		t.Errorf("expected mailbox_capacity=8, got %d", cfg.Orchestrator.MailboxCapacity)
	}
	if cfg.Orchestrator.MaxPlanets != 256 {
		t.Errorf("expected default max_planets=256, got %d", cfg.Orchestrator.MaxPlanets)
	}
	if cfg.Explorer.RateBurst != 2 {
		t.Errorf("expected rate_burst=2, got %d", cfg.Explorer.RateBurst)
	}
	if cfg.Galaxy != "galaxy.yaml" {
		t.Errorf("expected galaxy=galaxy.yaml, got %s", cfg.Galaxy)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load("/nonexistent/config.toml")
	if err != nil {
		t.Fatalf("Load() should not error on missing file: %v", err)
	}
	if cfg.Orchestrator.MaxExplorers != 256 {
		t.Errorf("expected default config, got max_explorers=%d", cfg.Orchestrator.MaxExplorers)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ZOEA_GALAXY_ORCHESTRATOR_REQUEST_TIMEOUT", "3s")
	t.Setenv("ZOEA_GALAXY_EXPLORER_RATE_LIMIT", "1.5")
	t.Setenv("ZOEA_GALAXY_LOG_LEVEL", "debug")
	t.Setenv("ZOEA_GALAXY_GALAXY", "custom.toml")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Orchestrator.RequestTimeout.Duration != 3*time.Second {
		t.Errorf("expected request_timeout=3s, got %s", cfg.Orchestrator.RequestTimeout)
	}
	if cfg.Explorer.RateLimit != 1.5 {
		t.Errorf("expected rate_limit=1.5, got %f", cfg.Explorer.RateLimit)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected log level=debug, got %s", cfg.Log.Level)
	}
	if cfg.Galaxy != "custom.toml" {
		t.Errorf("expected galaxy=custom.toml, got %s", cfg.Galaxy)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("ZOEA_GALAXY_ORCHESTRATOR_MAILBOX_CAPACITY", "0")

	if _, err := Load(""); err == nil {
		t.Error("expected error for zero mailbox capacity")
	}
}

const galaxyYAML = `
planets:
  - name: terra
    type: A
    ai: defender
    generate: [oxygen]
    neighbors: [luna]
  - name: luna
    type: C
    generate: [carbon]
    combine: [water, diamond]
explorers:
  - name: scout
    planet: terra
    ai: wanderer
`

const galaxyTOML = `
[[planets]]
name = "terra"
type = "D"
generate = ["oxygen", "hydrogen"]
neighbors = ["mars"]

[[planets]]
name = "mars"
type = "B"
generate = ["silicon"]

[[explorers]]
name = "rover"
planet = "mars"
`

func TestLoadGalaxy_YAMLAndTOML(t *testing.T) {
	tmpDir := t.TempDir()

	yamlPath := filepath.Join(tmpDir, "galaxy.yaml")
	if err := os.WriteFile(yamlPath, []byte(galaxyYAML), 0644); err != nil {
		t.Fatal(err)
	}
	g, err := LoadGalaxy(yamlPath)
	if err != nil {
		t.Fatalf("LoadGalaxy(yaml) error: %v", err)
	}
	if len(g.Planets) != 2 || g.Planets[1].Combine[1] != "diamond" {
		t.Errorf("unexpected planets: %+v", g.Planets)
	}
	if g.Explorers[0].AI != "wanderer" {
		t.Errorf("expected explorer ai=wanderer, got %s", g.Explorers[0].AI)
	}

	tomlPath := filepath.Join(tmpDir, "galaxy.toml")
	if err := os.WriteFile(tomlPath, []byte(galaxyTOML), 0644); err != nil {
		t.Fatal(err)
	}
	g, err = LoadGalaxy(tomlPath)
	if err != nil {
		t.Fatalf("LoadGalaxy(toml) error: %v", err)
	}
	if g.Planets[0].Neighbors[0] != "mars" {
		t.Errorf("expected terra neighbor mars, got %v", g.Planets[0].Neighbors)
	}
}

func TestGalaxyValidate(t *testing.T) {
	g := &Galaxy{
		Planets:   []PlanetSpec{{Name: "a", Neighbors: []string{"b"}}},
		Explorers: []ExplorerSpec{{Name: "e", Planet: "a"}},
	}
	if err := g.Validate(); err == nil {
		t.Error("expected error for unknown neighbor")
	}

	g.Planets = append(g.Planets, PlanetSpec{Name: "b"})
	if err := g.Validate(); err != nil {
		t.Errorf("expected valid galaxy, got %v", err)
	}

	g.Explorers = append(g.Explorers, ExplorerSpec{Name: "e", Planet: "b"})
	if err := g.Validate(); err == nil {
		t.Error("expected error for duplicate explorer")
	}
}

func TestExampleFilesLoad(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config.example.toml"))
	if err != nil {
		t.Fatalf("Load(config.example.toml) error: %v", err)
	}
	if cfg.Galaxy != "galaxy.example.toml" {
		t.Errorf("expected galaxy=galaxy.example.toml, got %q", cfg.Galaxy)
	}

	for _, name := range []string{"galaxy.example.toml", "galaxy.example.yaml"} {
		g, err := LoadGalaxy(filepath.Join("..", "..", name))
		if err != nil {
			t.Errorf("LoadGalaxy(%s) error: %v", name, err)
			continue
		}
		if len(g.Explorers) == 0 {
			t.Errorf("expected %s to place explorers", name)
		}
	}
}
