// Package resource defines the resources planets manufacture and explorers
// collect, the energy model behind them and the Forge that hands out the
// shared generator and combinator.
package resource

import (
	"fmt"
	"strings"
)

// Kind identifies a resource without holding one.
// It is implemented by BasicKind and ComplexKind.
type Kind interface {
	fmt.Stringer
	isKind()
}

// BasicKind is a resource produced directly from an energy cell.
type BasicKind uint8

const (
	Oxygen BasicKind = iota + 1
	Hydrogen
	Carbon
	Silicon
)

var basicNames = map[BasicKind]string{
	Oxygen:   "oxygen",
	Hydrogen: "hydrogen",
	Carbon:   "carbon",
	Silicon:  "silicon",
}

func (BasicKind) isKind() {}

func (k BasicKind) String() string {
	if name, ok := basicNames[k]; ok {
		return name
	}
	return fmt.Sprintf("basic(%d)", uint8(k))
}

// Valid reports whether k names a known basic resource.
func (k BasicKind) Valid() bool {
	_, ok := basicNames[k]
	return ok
}

// BasicKinds returns every basic resource kind in declaration order.
func BasicKinds() []BasicKind {
	return []BasicKind{Oxygen, Hydrogen, Carbon, Silicon}
}

// ParseBasicKind resolves a case-insensitive resource name.
func ParseBasicKind(s string) (BasicKind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, n := range basicNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown basic resource: %q", s)
}

// ComplexKind is a resource produced by combining two others.
type ComplexKind uint8

const (
	Diamond ComplexKind = iota + 1
	Water
	Life
	Robot
	Dolphin
	AIPartner
)

var complexNames = map[ComplexKind]string{
	Diamond:   "diamond",
	Water:     "water",
	Life:      "life",
	Robot:     "robot",
	Dolphin:   "dolphin",
	AIPartner: "ai_partner",
}

func (ComplexKind) isKind() {}

func (k ComplexKind) String() string {
	if name, ok := complexNames[k]; ok {
		return name
	}
	return fmt.Sprintf("complex(%d)", uint8(k))
}

// Valid reports whether k names a known complex resource.
func (k ComplexKind) Valid() bool {
	_, ok := complexNames[k]
	return ok
}

// ComplexKinds returns every complex resource kind in declaration order.
func ComplexKinds() []ComplexKind {
	return []ComplexKind{Diamond, Water, Life, Robot, Dolphin, AIPartner}
}

// ParseComplexKind resolves a case-insensitive resource name.
// Both "ai_partner" and "aipartner" are accepted.
func ParseComplexKind(s string) (ComplexKind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "aipartner" {
		name = "ai_partner"
	}
	for k, n := range complexNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown complex resource: %q", s)
}

// ParseKind resolves a name to either a basic or a complex kind.
func ParseKind(s string) (Kind, error) {
	if k, err := ParseBasicKind(s); err == nil {
		return k, nil
	}
	if k, err := ParseComplexKind(s); err == nil {
		return k, nil
	}
	return nil, fmt.Errorf("unknown resource: %q", s)
}
