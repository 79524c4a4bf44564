package resource

import "fmt"

// GenerationError reports why a basic resource could not be produced.
type GenerationError struct {
	Kind   BasicKind
	Reason string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate %s: %s", e.Kind, e.Reason)
}

// CombinationError reports a failed combination. Both inputs are handed
// back unchanged so the caller can keep or reuse them.
type CombinationError struct {
	Kind   ComplexKind
	Reason string
	First  Resource
	Second Resource
}

func (e *CombinationError) Error() string {
	return fmt.Sprintf("combine %s: %s", e.Kind, e.Reason)
}

// Generator turns charged energy cells into basic resources.
// One instance is shared by every planet through the Forge.
type Generator struct {
	known map[BasicKind]struct{}
}

func newGenerator() *Generator {
	g := &Generator{known: make(map[BasicKind]struct{})}
	for _, k := range BasicKinds() {
		g.known[k] = struct{}{}
	}
	return g
}

// Supports reports whether the generator knows how to produce kind.
func (g *Generator) Supports(kind BasicKind) bool {
	_, ok := g.known[kind]
	return ok
}

// Make discharges cell and returns one unit of kind.
func (g *Generator) Make(kind BasicKind, cell *EnergyCell) (BasicResource, error) {
	if !g.Supports(kind) {
		return BasicResource{}, &GenerationError{Kind: kind, Reason: "no recipe"}
	}
	if cell == nil {
		return BasicResource{}, &GenerationError{Kind: kind, Reason: "no energy cell"}
	}
	if err := cell.Discharge(); err != nil {
		return BasicResource{}, &GenerationError{Kind: kind, Reason: err.Error()}
	}
	return BasicResource{kind: kind}, nil
}

// TryMake is Make with absence instead of an error.
func (g *Generator) TryMake(kind BasicKind, cell *EnergyCell) (BasicResource, bool) {
	r, err := g.Make(kind, cell)
	if err != nil {
		return BasicResource{}, false
	}
	return r, true
}

// Combinator merges two resources into a complex one.
// One instance is shared by every planet through the Forge.
type Combinator struct {
	recipes map[ComplexKind]Recipe
}

func newCombinator() *Combinator {
	c := &Combinator{recipes: make(map[ComplexKind]Recipe, len(recipes))}
	for k, r := range recipes {
		c.recipes[k] = r
	}
	return c
}

// Supports reports whether the combinator has a recipe for kind.
func (c *Combinator) Supports(kind ComplexKind) bool {
	_, ok := c.recipes[kind]
	return ok
}

// Make combines first and second into kind. On failure the returned
// *CombinationError carries both inputs.
func (c *Combinator) Make(kind ComplexKind, first, second Resource) (ComplexResource, error) {
	recipe, ok := c.recipes[kind]
	if !ok {
		return ComplexResource{}, &CombinationError{Kind: kind, Reason: "no recipe", First: first, Second: second}
	}
	if !recipe.accepts(first, second) {
		return ComplexResource{}, &CombinationError{
			Kind:   kind,
			Reason: fmt.Sprintf("expected %s + %s", recipe.First, recipe.Second),
			First:  first,
			Second: second,
		}
	}
	return ComplexResource{kind: kind}, nil
}

// TryMake is Make with absence instead of an error.
func (c *Combinator) TryMake(kind ComplexKind, first, second Resource) (ComplexResource, bool) {
	r, err := c.Make(kind, first, second)
	if err != nil {
		return ComplexResource{}, false
	}
	return r, true
}
