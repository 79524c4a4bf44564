package protocol

import "github.com/xonecas/zoea-galaxy/internal/resource"

// OrchestratorToPlanet is a message the orchestrator sends to a planet.
type OrchestratorToPlanet interface {
	isOrchestratorToPlanet()
}

type (
	StartPlanetAI struct{}
	StopPlanetAI  struct{}
	KillPlanet    struct{}

	// Sunray delivers energy to the planet.
	Sunray struct {
		Payload resource.Sunray
	}

	// Asteroid strikes the planet. Undefended, it is fatal.
	Asteroid struct {
		Payload resource.Asteroid
	}

	InternalStateRequest struct{}

	// IncomingExplorerRequest asks the planet to host an explorer.
	// Mailbox is where the planet answers that explorer's requests.
	// Restore hands back an explorer the planet released for a relocation
	// that then failed; it bypasses admission and lands on stopped planets.
	IncomingExplorerRequest struct {
		ExplorerID ExplorerID
		Mailbox    *ExplorerInbox
		Restore    bool
	}

	// OutgoingExplorerRequest asks the planet to release an explorer.
	OutgoingExplorerRequest struct {
		ExplorerID ExplorerID
	}

	// IncomingExplorerCancel revokes a previously accepted incoming request.
	IncomingExplorerCancel struct {
		ExplorerID ExplorerID
	}
)

func (StartPlanetAI) isOrchestratorToPlanet()           {}
func (StopPlanetAI) isOrchestratorToPlanet()            {}
func (KillPlanet) isOrchestratorToPlanet()              {}
func (Sunray) isOrchestratorToPlanet()                  {}
func (Asteroid) isOrchestratorToPlanet()                {}
func (InternalStateRequest) isOrchestratorToPlanet()    {}
func (IncomingExplorerRequest) isOrchestratorToPlanet() {}
func (OutgoingExplorerRequest) isOrchestratorToPlanet() {}
func (IncomingExplorerCancel) isOrchestratorToPlanet()  {}

// PlanetToOrchestrator is a planet's reply to the orchestrator.
type PlanetToOrchestrator interface {
	isPlanetToOrchestrator()
}

type (
	// StartPlanetAIResult carries Err when the AI start hook failed.
	StartPlanetAIResult struct {
		PlanetID PlanetID
		Err      error
	}

	StopPlanetAIResult struct {
		PlanetID PlanetID
		Err      error
	}

	KillPlanetResult struct{ PlanetID PlanetID }
	SunrayAck        struct{ PlanetID PlanetID }

	AsteroidAck struct {
		PlanetID   PlanetID
		RocketUsed bool
	}

	InternalStateResponse struct {
		PlanetID PlanetID
		State    PlanetSnapshot
	}

	IncomingExplorerResponse struct {
		PlanetID   PlanetID
		ExplorerID ExplorerID
		Outcome    Outcome
	}

	OutgoingExplorerResponse struct {
		PlanetID   PlanetID
		ExplorerID ExplorerID
		Outcome    Outcome
	}

	IncomingExplorerCancelResult struct {
		PlanetID   PlanetID
		ExplorerID ExplorerID
	}

	// Stopped is the reply of a planet that is not running to any
	// request other than start or kill.
	Stopped struct{ PlanetID PlanetID }
)

func (StartPlanetAIResult) isPlanetToOrchestrator()          {}
func (StopPlanetAIResult) isPlanetToOrchestrator()           {}
func (KillPlanetResult) isPlanetToOrchestrator()             {}
func (SunrayAck) isPlanetToOrchestrator()                    {}
func (AsteroidAck) isPlanetToOrchestrator()                  {}
func (InternalStateResponse) isPlanetToOrchestrator()        {}
func (IncomingExplorerResponse) isPlanetToOrchestrator()     {}
func (OutgoingExplorerResponse) isPlanetToOrchestrator()     {}
func (IncomingExplorerCancelResult) isPlanetToOrchestrator() {}
func (Stopped) isPlanetToOrchestrator()                      {}

// PlanetIDOf returns the id of the planet that sent msg.
func PlanetIDOf(msg PlanetToOrchestrator) PlanetID {
	switch m := msg.(type) {
	case StartPlanetAIResult:
		return m.PlanetID
	case StopPlanetAIResult:
		return m.PlanetID
	case KillPlanetResult:
		return m.PlanetID
	case SunrayAck:
		return m.PlanetID
	case AsteroidAck:
		return m.PlanetID
	case InternalStateResponse:
		return m.PlanetID
	case IncomingExplorerResponse:
		return m.PlanetID
	case OutgoingExplorerResponse:
		return m.PlanetID
	case IncomingExplorerCancelResult:
		return m.PlanetID
	case Stopped:
		return m.PlanetID
	}
	return 0
}

// PlanetSnapshot is a planet's internal state as reported to callers.
type PlanetSnapshot struct {
	PlanetID     PlanetID
	Type         resource.PlanetType
	EnergyCells  []bool
	ChargedCells int
	HasRocket    bool
	CanRocket    bool
	Generate     []resource.BasicKind
	Combine      []resource.ComplexKind
	Explorers    []ExplorerID
}

// Hosts reports whether the snapshot lists explorer id.
func (s PlanetSnapshot) Hosts(id ExplorerID) bool {
	for _, e := range s.Explorers {
		if e == id {
			return true
		}
	}
	return false
}
