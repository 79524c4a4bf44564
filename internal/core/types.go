// Package core provides the galaxy runtime: planet and explorer actors, the
// orchestrator that owns the directory of live actors, and the relocation
// coordinator that moves explorers between planets.
package core

import (
	"time"

	"github.com/xonecas/zoea-galaxy/internal/protocol"
)

// PlanetID and ExplorerID are re-exported for callers of this package.
type (
	PlanetID   = protocol.PlanetID
	ExplorerID = protocol.ExplorerID
)

// LifecycleState represents the lifecycle state of a planet or explorer.
type LifecycleState string

const (
	StateNotStarted LifecycleState = "not_started"
	StateRunning    LifecycleState = "running"
	StateStopped    LifecycleState = "stopped"
	StateKilled     LifecycleState = "killed"
)

// EventType identifies the type of event.
type EventType string

const (
	EventPlanetAdded          EventType = "planet_added"
	EventPlanetStateChanged   EventType = "planet_state_changed"
	EventPlanetDestroyed      EventType = "planet_destroyed"
	EventExplorerAdded        EventType = "explorer_added"
	EventExplorerStateChanged EventType = "explorer_state_changed"
	EventExplorerMoved        EventType = "explorer_moved"
	EventRelocationFailed     EventType = "relocation_failed"
	EventSunray               EventType = "sunray"
	EventAsteroid             EventType = "asteroid"
)

// Event represents something that happened in the galaxy.
type Event struct {
	Type       EventType
	PlanetID   PlanetID
	ExplorerID ExplorerID
	Data       interface{}
	Timestamp  time.Time
}

// StateChangeData contains data for state change events.
type StateChangeData struct {
	OldState LifecycleState
	NewState LifecycleState
}

// MoveData contains data for explorer moves.
type MoveData struct {
	From PlanetID
	To   PlanetID
}

// RelocationFailedData contains data for failed relocations.
type RelocationFailedData struct {
	From   PlanetID
	To     PlanetID
	Stage  RelocationStage
	Reason string
}

// AsteroidData contains the outcome of an asteroid strike.
type AsteroidData struct {
	RocketUsed bool
	Destroyed  bool
}
