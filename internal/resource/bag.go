package resource

import "sort"

// Bag is an explorer's resource inventory.
// It is owned by a single explorer goroutine and is not safe for concurrent use.
type Bag struct {
	basic   map[BasicKind]int
	complex map[ComplexKind]int
}

// NewBag creates an empty bag.
func NewBag() *Bag {
	return &Bag{
		basic:   make(map[BasicKind]int),
		complex: make(map[ComplexKind]int),
	}
}

// Add stores r in the bag.
func (b *Bag) Add(r Resource) {
	switch v := r.(type) {
	case BasicResource:
		b.basic[v.kind]++
	case ComplexResource:
		b.complex[v.kind]++
	}
}

// Take removes one unit of kind from the bag.
func (b *Bag) Take(kind Kind) (Resource, bool) {
	switch k := kind.(type) {
	case BasicKind:
		if b.basic[k] == 0 {
			return nil, false
		}
		b.basic[k]--
		return BasicResource{kind: k}, true
	case ComplexKind:
		if b.complex[k] == 0 {
			return nil, false
		}
		b.complex[k]--
		return ComplexResource{kind: k}, true
	}
	return nil, false
}

// Count returns the quantity of kind held.
func (b *Bag) Count(kind Kind) int {
	switch k := kind.(type) {
	case BasicKind:
		return b.basic[k]
	case ComplexKind:
		return b.complex[k]
	}
	return 0
}

// Contents returns a copy of the bag's quantities.
func (b *Bag) Contents() Contents {
	c := Contents{
		Basic:   make(map[BasicKind]int, len(b.basic)),
		Complex: make(map[ComplexKind]int, len(b.complex)),
	}
	for k, n := range b.basic {
		if n > 0 {
			c.Basic[k] = n
		}
	}
	for k, n := range b.complex {
		if n > 0 {
			c.Complex[k] = n
		}
	}
	return c
}

// Contents is a point-in-time copy of a bag.
type Contents struct {
	Basic   map[BasicKind]int
	Complex map[ComplexKind]int
}

// Total returns the number of units across all kinds.
func (c Contents) Total() int {
	n := 0
	for _, q := range c.Basic {
		n += q
	}
	for _, q := range c.Complex {
		n += q
	}
	return n
}

// Named returns the quantities keyed by resource name, for display and logs.
func (c Contents) Named() map[string]int {
	out := make(map[string]int, len(c.Basic)+len(c.Complex))
	for k, n := range c.Basic {
		out[k.String()] = n
	}
	for k, n := range c.Complex {
		out[k.String()] = n
	}
	return out
}

// Names returns the resource names held, sorted.
func (c Contents) Names() []string {
	named := c.Named()
	names := make([]string, 0, len(named))
	for name := range named {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
