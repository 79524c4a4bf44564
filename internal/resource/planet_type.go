package resource

import (
	"fmt"
	"strings"
)

// PlanetType fixes how many energy cells a planet has and which rules it may carry.
type PlanetType uint8

const (
	PlanetA PlanetType = iota + 1
	PlanetB
	PlanetC
	PlanetD
)

const (
	maxEnergyCells      = 5
	maxCombinationRules = 6
)

// Constraints are the limits implied by a planet type.
type Constraints struct {
	EnergyCells         int
	UnboundedGeneration bool
	CanHaveRocket       bool
	MaxCombinationRules int
}

// Constraints returns the limits for t.
func (t PlanetType) Constraints() Constraints {
	switch t {
	case PlanetA:
		return Constraints{EnergyCells: maxEnergyCells, CanHaveRocket: true}
	case PlanetB:
		return Constraints{EnergyCells: 1, UnboundedGeneration: true, MaxCombinationRules: 1}
	case PlanetC:
		return Constraints{EnergyCells: 1, CanHaveRocket: true, MaxCombinationRules: maxCombinationRules}
	case PlanetD:
		return Constraints{EnergyCells: maxEnergyCells, UnboundedGeneration: true}
	}
	return Constraints{}
}

func (t PlanetType) String() string {
	switch t {
	case PlanetA:
		return "A"
	case PlanetB:
		return "B"
	case PlanetC:
		return "C"
	case PlanetD:
		return "D"
	}
	return fmt.Sprintf("PlanetType(%d)", uint8(t))
}

// ParsePlanetType resolves "A".."D", case-insensitive.
func ParsePlanetType(s string) (PlanetType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A":
		return PlanetA, nil
	case "B":
		return PlanetB, nil
	case "C":
		return PlanetC, nil
	case "D":
		return PlanetD, nil
	}
	return 0, fmt.Errorf("unknown planet type: %q", s)
}

// Rules lists what a planet is allowed to generate and combine.
type Rules struct {
	Generate []BasicKind
	Combine  []ComplexKind
}

// Validate checks rules against the planet type's constraints.
func (t PlanetType) Validate(r Rules) error {
	c := t.Constraints()
	if c.EnergyCells == 0 {
		return fmt.Errorf("invalid planet type %s", t)
	}
	if len(r.Generate) == 0 {
		return fmt.Errorf("planet type %s: no generation rules", t)
	}
	if !c.UnboundedGeneration && len(r.Generate) > 1 {
		return fmt.Errorf("planet type %s: too many generation rules (limited to 1)", t)
	}
	if len(r.Combine) > c.MaxCombinationRules {
		return fmt.Errorf("planet type %s: too many combination rules (limited to %d)", t, c.MaxCombinationRules)
	}
	seenBasic := make(map[BasicKind]bool, len(r.Generate))
	for _, k := range r.Generate {
		if !k.Valid() {
			return fmt.Errorf("planet type %s: invalid generation rule %s", t, k)
		}
		if seenBasic[k] {
			return fmt.Errorf("planet type %s: duplicate generation rule %s", t, k)
		}
		seenBasic[k] = true
	}
	seenComplex := make(map[ComplexKind]bool, len(r.Combine))
	for _, k := range r.Combine {
		if !k.Valid() {
			return fmt.Errorf("planet type %s: invalid combination rule %s", t, k)
		}
		if seenComplex[k] {
			return fmt.Errorf("planet type %s: duplicate combination rule %s", t, k)
		}
		seenComplex[k] = true
	}
	return nil
}

// CanGenerate reports whether the rules include kind.
func (r Rules) CanGenerate(kind BasicKind) bool {
	for _, k := range r.Generate {
		if k == kind {
			return true
		}
	}
	return false
}

// CanCombine reports whether the rules include kind.
func (r Rules) CanCombine(kind ComplexKind) bool {
	for _, k := range r.Combine {
		if k == kind {
			return true
		}
	}
	return false
}
