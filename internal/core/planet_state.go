package core

import (
	"sort"

	"github.com/xonecas/zoea-galaxy/internal/protocol"
	"github.com/xonecas/zoea-galaxy/internal/resource"
)

// PlanetState is the mutable state a planet exposes to its AI.
// It is only touched from the planet's goroutine.
type PlanetState struct {
	id     PlanetID
	typ    resource.PlanetType
	rules  resource.Rules
	cells  []resource.EnergyCell
	rocket *resource.Rocket

	generator  *resource.Generator
	combinator *resource.Combinator
	explorers  map[ExplorerID]*protocol.ExplorerInbox
}

func newPlanetState(id PlanetID, typ resource.PlanetType, rules resource.Rules) *PlanetState {
	return &PlanetState{
		id:        id,
		typ:       typ,
		rules:     rules,
		cells:     make([]resource.EnergyCell, typ.Constraints().EnergyCells),
		explorers: make(map[ExplorerID]*protocol.ExplorerInbox),
	}
}

// ID returns the planet id.
func (s *PlanetState) ID() PlanetID { return s.id }

// Type returns the planet type.
func (s *PlanetState) Type() resource.PlanetType { return s.typ }

// Rules returns what the planet may generate and combine.
func (s *PlanetState) Rules() resource.Rules { return s.rules }

// Generator returns the shared generator, nil before the planet starts.
func (s *PlanetState) Generator() *resource.Generator { return s.generator }

// Combinator returns the shared combinator, nil before the planet starts.
func (s *PlanetState) Combinator() *resource.Combinator { return s.combinator }

// CellCount returns the number of energy cells.
func (s *PlanetState) CellCount() int { return len(s.cells) }

// Cell returns the i-th energy cell.
func (s *PlanetState) Cell(i int) *resource.EnergyCell { return &s.cells[i] }

// ChargedCells returns the number of charged cells.
func (s *PlanetState) ChargedCells() int {
	n := 0
	for i := range s.cells {
		if s.cells[i].IsCharged() {
			n++
		}
	}
	return n
}

// ChargeCell charges the first empty cell. It reports false, wasting the
// sunray, when every cell is already charged.
func (s *PlanetState) ChargeCell(sunray resource.Sunray) bool {
	for i := range s.cells {
		if !s.cells[i].IsCharged() {
			s.cells[i].Charge(sunray)
			return true
		}
	}
	return false
}

// FullCell returns the first charged cell.
func (s *PlanetState) FullCell() (*resource.EnergyCell, bool) {
	for i := range s.cells {
		if s.cells[i].IsCharged() {
			return &s.cells[i], true
		}
	}
	return nil, false
}

// CanHaveRocket reports whether the planet type allows a rocket.
func (s *PlanetState) CanHaveRocket() bool { return s.typ.Constraints().CanHaveRocket }

// HasRocket reports whether a rocket is ready.
func (s *PlanetState) HasRocket() bool { return s.rocket != nil }

// BuildRocket builds a rocket from the first charged cell.
func (s *PlanetState) BuildRocket() error {
	if !s.CanHaveRocket() {
		return errRocketNotAllowed
	}
	if s.rocket != nil {
		return errRocketExists
	}
	cell, ok := s.FullCell()
	if !ok {
		return resource.ErrCellNotCharged
	}
	r, err := resource.BuildRocket(cell)
	if err != nil {
		return err
	}
	s.rocket = r
	return nil
}

// TakeRocket removes and returns the rocket, or nil.
func (s *PlanetState) TakeRocket() *resource.Rocket {
	r := s.rocket
	s.rocket = nil
	return r
}

// Explorers returns the ids of hosted explorers, sorted.
func (s *PlanetState) Explorers() []ExplorerID {
	ids := make([]ExplorerID, 0, len(s.explorers))
	for id := range s.explorers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Hosts reports whether the explorer is registered here.
func (s *PlanetState) Hosts(id ExplorerID) bool {
	_, ok := s.explorers[id]
	return ok
}

// Snapshot returns the planet's reportable state.
func (s *PlanetState) Snapshot() protocol.PlanetSnapshot {
	cells := make([]bool, len(s.cells))
	for i := range s.cells {
		cells[i] = s.cells[i].IsCharged()
	}
	return protocol.PlanetSnapshot{
		PlanetID:     s.id,
		Type:         s.typ,
		EnergyCells:  cells,
		ChargedCells: s.ChargedCells(),
		HasRocket:    s.rocket != nil,
		CanRocket:    s.CanHaveRocket(),
		Generate:     append([]resource.BasicKind(nil), s.rules.Generate...),
		Combine:      append([]resource.ComplexKind(nil), s.rules.Combine...),
		Explorers:    s.Explorers(),
	}
}
