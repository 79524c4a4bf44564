package protocol

import "github.com/xonecas/zoea-galaxy/internal/resource"

// OrchestratorToExplorer is a message the orchestrator sends to an explorer.
type OrchestratorToExplorer interface {
	isOrchestratorToExplorer()
}

type (
	StartExplorerAI struct{}
	StopExplorerAI  struct{}
	ResetExplorerAI struct{}
	KillExplorer    struct{}

	// MoveToPlanet tells the explorer where it now lives. A nil Mailbox
	// means a travel request was denied and no acknowledgement is expected.
	MoveToPlanet struct {
		PlanetID PlanetID
		Mailbox  *PlanetInbox
	}

	CurrentPlanetRequest struct{}

	// NeighborsResponse answers an explorer's NeighborsRequest.
	NeighborsResponse struct {
		PlanetID  PlanetID
		Neighbors []PlanetID
	}

	BagContentRequest struct{}

	// Manual-mode commands, executed against the current planet.
	AskSupportedResources    struct{}
	AskSupportedCombinations struct{}
	GenerateCommand          struct{ Kind resource.BasicKind }
	CombineCommand           struct{ Kind resource.ComplexKind }
)

func (StartExplorerAI) isOrchestratorToExplorer()          {}
func (StopExplorerAI) isOrchestratorToExplorer()           {}
func (ResetExplorerAI) isOrchestratorToExplorer()          {}
func (KillExplorer) isOrchestratorToExplorer()             {}
func (MoveToPlanet) isOrchestratorToExplorer()             {}
func (CurrentPlanetRequest) isOrchestratorToExplorer()     {}
func (NeighborsResponse) isOrchestratorToExplorer()        {}
func (BagContentRequest) isOrchestratorToExplorer()        {}
func (AskSupportedResources) isOrchestratorToExplorer()    {}
func (AskSupportedCombinations) isOrchestratorToExplorer() {}
func (GenerateCommand) isOrchestratorToExplorer()          {}
func (CombineCommand) isOrchestratorToExplorer()           {}

// ExplorerToOrchestrator is an explorer's reply or request to the orchestrator.
type ExplorerToOrchestrator interface {
	isExplorerToOrchestrator()
}

type (
	// Lifecycle results carry Err when the matching AI hook failed.
	StartExplorerAIResult struct {
		ExplorerID ExplorerID
		Err        error
	}

	StopExplorerAIResult struct {
		ExplorerID ExplorerID
		Err        error
	}

	ResetExplorerAIResult struct {
		ExplorerID ExplorerID
		Err        error
	}

	KillExplorerResult struct{ ExplorerID ExplorerID }

	MovedToPlanetResult struct {
		ExplorerID ExplorerID
		PlanetID   PlanetID
	}

	CurrentPlanetResult struct {
		ExplorerID ExplorerID
		PlanetID   PlanetID
	}

	BagContentResponse struct {
		ExplorerID ExplorerID
		Bag        resource.Contents
	}

	SupportedResourcesResult struct {
		ExplorerID ExplorerID
		Kinds      []resource.BasicKind
		Err        error
	}

	SupportedCombinationsResult struct {
		ExplorerID ExplorerID
		Kinds      []resource.ComplexKind
		Err        error
	}

	GenerateCommandResult struct {
		ExplorerID ExplorerID
		Err        error
	}

	CombineCommandResult struct {
		ExplorerID ExplorerID
		Err        error
	}

	// NeighborsRequest is explorer-initiated.
	NeighborsRequest struct {
		ExplorerID    ExplorerID
		CurrentPlanet PlanetID
	}

	// TravelToPlanet is explorer-initiated. It is answered with MoveToPlanet.
	TravelToPlanet struct {
		ExplorerID ExplorerID
		From       PlanetID
		To         PlanetID
	}
)

func (StartExplorerAIResult) isExplorerToOrchestrator()       {}
func (StopExplorerAIResult) isExplorerToOrchestrator()        {}
func (ResetExplorerAIResult) isExplorerToOrchestrator()       {}
func (KillExplorerResult) isExplorerToOrchestrator()          {}
func (MovedToPlanetResult) isExplorerToOrchestrator()         {}
func (CurrentPlanetResult) isExplorerToOrchestrator()         {}
func (BagContentResponse) isExplorerToOrchestrator()          {}
func (SupportedResourcesResult) isExplorerToOrchestrator()    {}
func (SupportedCombinationsResult) isExplorerToOrchestrator() {}
func (GenerateCommandResult) isExplorerToOrchestrator()       {}
func (CombineCommandResult) isExplorerToOrchestrator()        {}
func (NeighborsRequest) isExplorerToOrchestrator()            {}
func (TravelToPlanet) isExplorerToOrchestrator()              {}

// ExplorerIDOf returns the id of the explorer that sent msg.
func ExplorerIDOf(msg ExplorerToOrchestrator) ExplorerID {
	switch m := msg.(type) {
	case StartExplorerAIResult:
		return m.ExplorerID
	case StopExplorerAIResult:
		return m.ExplorerID
	case ResetExplorerAIResult:
		return m.ExplorerID
	case KillExplorerResult:
		return m.ExplorerID
	case MovedToPlanetResult:
		return m.ExplorerID
	case CurrentPlanetResult:
		return m.ExplorerID
	case BagContentResponse:
		return m.ExplorerID
	case SupportedResourcesResult:
		return m.ExplorerID
	case SupportedCombinationsResult:
		return m.ExplorerID
	case GenerateCommandResult:
		return m.ExplorerID
	case CombineCommandResult:
		return m.ExplorerID
	case NeighborsRequest:
		return m.ExplorerID
	case TravelToPlanet:
		return m.ExplorerID
	}
	return 0
}

// IsExplorerRequest reports whether msg starts a new exchange rather than
// answering one the orchestrator is waiting on.
func IsExplorerRequest(msg ExplorerToOrchestrator) bool {
	switch msg.(type) {
	case NeighborsRequest, TravelToPlanet:
		return true
	}
	return false
}
