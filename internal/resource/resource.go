package resource

// Resource is a manufactured resource value.
type Resource interface {
	Kind() Kind
	String() string
}

// BasicResource is a unit of a basic resource. Values are produced by a
// Generator and by taking them back out of a Bag.
type BasicResource struct {
	kind BasicKind
}

// Kind returns the resource kind.
func (r BasicResource) Kind() Kind { return r.kind }

// Basic returns the concrete basic kind.
func (r BasicResource) Basic() BasicKind { return r.kind }

func (r BasicResource) String() string { return r.kind.String() }

// ComplexResource is a unit of a complex resource, produced by a Combinator.
type ComplexResource struct {
	kind ComplexKind
}

// Kind returns the resource kind.
func (r ComplexResource) Kind() Kind { return r.kind }

// Complex returns the concrete complex kind.
func (r ComplexResource) Complex() ComplexKind { return r.kind }

func (r ComplexResource) String() string { return r.kind.String() }

// Recipe describes which two inputs combine into a complex resource.
type Recipe struct {
	Output ComplexKind
	First  Kind
	Second Kind
}

var recipes = map[ComplexKind]Recipe{
	Water:     {Output: Water, First: Hydrogen, Second: Oxygen},
	Diamond:   {Output: Diamond, First: Carbon, Second: Carbon},
	Life:      {Output: Life, First: Water, Second: Carbon},
	Robot:     {Output: Robot, First: Silicon, Second: Life},
	Dolphin:   {Output: Dolphin, First: Water, Second: Life},
	AIPartner: {Output: AIPartner, First: Robot, Second: Diamond},
}

// RecipeFor returns the recipe producing kind.
func RecipeFor(kind ComplexKind) (Recipe, bool) {
	r, ok := recipes[kind]
	return r, ok
}

// accepts reports whether the two inputs satisfy the recipe in either order.
func (r Recipe) accepts(a, b Resource) bool {
	if a == nil || b == nil {
		return false
	}
	if a.Kind() == r.First && b.Kind() == r.Second {
		return true
	}
	return a.Kind() == r.Second && b.Kind() == r.First
}
