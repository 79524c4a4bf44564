package protocol

import "github.com/xonecas/zoea-galaxy/internal/resource"

// ExplorerToPlanet is a request an explorer sends to the planet it occupies.
type ExplorerToPlanet interface {
	isExplorerToPlanet()
}

type (
	SupportedResourceRequest    struct{ ExplorerID ExplorerID }
	SupportedCombinationRequest struct{ ExplorerID ExplorerID }

	GenerateResourceRequest struct {
		ExplorerID ExplorerID
		Kind       resource.BasicKind
	}

	// CombineResourceRequest hands both inputs to the planet. They come back
	// in the response error if the combination fails.
	CombineResourceRequest struct {
		ExplorerID ExplorerID
		Kind       resource.ComplexKind
		First      resource.Resource
		Second     resource.Resource
	}

	AvailableEnergyCellRequest struct{ ExplorerID ExplorerID }
	PlanetStateRequest         struct{ ExplorerID ExplorerID }
)

func (SupportedResourceRequest) isExplorerToPlanet()    {}
func (SupportedCombinationRequest) isExplorerToPlanet() {}
func (GenerateResourceRequest) isExplorerToPlanet()     {}
func (CombineResourceRequest) isExplorerToPlanet()      {}
func (AvailableEnergyCellRequest) isExplorerToPlanet()  {}
func (PlanetStateRequest) isExplorerToPlanet()          {}

// RequesterOf returns the explorer that sent msg.
func RequesterOf(msg ExplorerToPlanet) ExplorerID {
	switch m := msg.(type) {
	case SupportedResourceRequest:
		return m.ExplorerID
	case SupportedCombinationRequest:
		return m.ExplorerID
	case GenerateResourceRequest:
		return m.ExplorerID
	case CombineResourceRequest:
		return m.ExplorerID
	case AvailableEnergyCellRequest:
		return m.ExplorerID
	case PlanetStateRequest:
		return m.ExplorerID
	}
	return 0
}

// PlanetToExplorer is a planet's reply to an explorer.
type PlanetToExplorer interface {
	isPlanetToExplorer()
}

type (
	SupportedResourceResponse struct {
		ExplorerID ExplorerID
		Kinds      []resource.BasicKind
	}

	SupportedCombinationResponse struct {
		ExplorerID ExplorerID
		Kinds      []resource.ComplexKind
	}

	// GenerateResourceResponse carries nil Resource when generation failed.
	GenerateResourceResponse struct {
		ExplorerID ExplorerID
		Resource   *resource.BasicResource
	}

	// CombineResourceResponse carries either Resource or Err, never both.
	CombineResourceResponse struct {
		ExplorerID ExplorerID
		Resource   *resource.ComplexResource
		Err        *resource.CombinationError
	}

	AvailableEnergyCellResponse struct {
		ExplorerID ExplorerID
		Count      int
	}

	PlanetStateResponse struct {
		ExplorerID ExplorerID
		State      PlanetSnapshot
	}

	// PlanetUnavailable answers any request the planet cannot serve,
	// because it is not running or does not host the explorer.
	PlanetUnavailable struct {
		ExplorerID ExplorerID
		PlanetID   PlanetID
		Reason     string
	}
)

func (SupportedResourceResponse) isPlanetToExplorer()    {}
func (SupportedCombinationResponse) isPlanetToExplorer() {}
func (GenerateResourceResponse) isPlanetToExplorer()     {}
func (CombineResourceResponse) isPlanetToExplorer()      {}
func (AvailableEnergyCellResponse) isPlanetToExplorer()  {}
func (PlanetStateResponse) isPlanetToExplorer()          {}
func (PlanetUnavailable) isPlanetToExplorer()            {}

// RecipientOf returns the explorer msg is addressed to.
func RecipientOf(msg PlanetToExplorer) ExplorerID {
	switch m := msg.(type) {
	case SupportedResourceResponse:
		return m.ExplorerID
	case SupportedCombinationResponse:
		return m.ExplorerID
	case GenerateResourceResponse:
		return m.ExplorerID
	case CombineResourceResponse:
		return m.ExplorerID
	case AvailableEnergyCellResponse:
		return m.ExplorerID
	case PlanetStateResponse:
		return m.ExplorerID
	case PlanetUnavailable:
		return m.ExplorerID
	}
	return 0
}
