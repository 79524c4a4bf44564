package resource

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// ErrForgePoisoned is returned only when construction keeps failing after
// the forge has reset itself once.
var ErrForgePoisoned = errors.New("forge poisoned")

// Forge builds the shared Generator and Combinator lazily, at most once each,
// and mints the sunrays and asteroids that drive the simulation.
//
// A builder that panics leaves the forge poisoned. The next acquisition
// clears the flag, keeps any instance that was fully built and retries
// construction once.
type Forge struct {
	mu         sync.Mutex
	poisoned   bool
	generator  *Generator
	combinator *Combinator

	buildGenerator  func() *Generator
	buildCombinator func() *Combinator

	constructions atomic.Int64
	recoveries    atomic.Int64
	sunrays       atomic.Uint64
	asteroids     atomic.Uint64
}

// ForgeOption customizes a Forge.
type ForgeOption func(*Forge)

// WithGeneratorBuilder replaces the function used to build the generator.
func WithGeneratorBuilder(build func() *Generator) ForgeOption {
	return func(f *Forge) {
		f.buildGenerator = build
	}
}

// WithCombinatorBuilder replaces the function used to build the combinator.
func WithCombinatorBuilder(build func() *Combinator) ForgeOption {
	return func(f *Forge) {
		f.buildCombinator = build
	}
}

// NewForge creates a forge. Nothing is built until first requested.
func NewForge(opts ...ForgeOption) *Forge {
	f := &Forge{
		buildGenerator:  newGenerator,
		buildCombinator: newCombinator,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Generator returns the shared generator, building it on first use.
func (f *Forge) Generator() (*Generator, error) {
	return acquire(f, &f.generator, f.buildGenerator, "generator")
}

// Combinator returns the shared combinator, building it on first use.
func (f *Forge) Combinator() (*Combinator, error) {
	return acquire(f, &f.combinator, f.buildCombinator, "combinator")
}

// Sunray mints a new sunray.
func (f *Forge) Sunray() Sunray {
	return Sunray{serial: f.sunrays.Add(1)}
}

// Asteroid mints a new asteroid.
func (f *Forge) Asteroid() Asteroid {
	return Asteroid{serial: f.asteroids.Add(1)}
}

// Constructions returns how many instances the forge has built.
func (f *Forge) Constructions() int64 {
	return f.constructions.Load()
}

// Recoveries returns how many times the forge reset itself after poisoning.
func (f *Forge) Recoveries() int64 {
	return f.recoveries.Load()
}

// Poisoned reports whether the last construction attempt failed.
func (f *Forge) Poisoned() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.poisoned
}

// acquire returns *slot, constructing it under the forge lock if needed.
// It makes at most two construction attempts.
func acquire[T any](f *Forge, slot **T, build func() *T, what string) (*T, error) {
	for attempt := 0; attempt < 2; attempt++ {
		if inst, ok := acquireOnce(f, slot, build, what); ok {
			return inst, nil
		}
	}
	log.Error().Str("component", what).Msg("Forge construction failed after recovery")
	return nil, ErrForgePoisoned
}

func acquireOnce[T any](f *Forge, slot **T, build func() *T, what string) (*T, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.poisoned {
		f.poisoned = false
		f.recoveries.Add(1)
		log.Warn().Str("component", what).Msg("Forge recovered from poisoned state")
	}

	if *slot != nil {
		return *slot, true
	}

	inst, ok := construct(build)
	if !ok {
		f.poisoned = true
		return nil, false
	}
	*slot = inst
	f.constructions.Add(1)
	return inst, true
}

// construct runs build, converting a panic into a failed attempt.
func construct[T any](build func() *T) (inst *T, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Forge builder panicked")
			inst, ok = nil, false
		}
	}()
	inst = build()
	return inst, inst != nil
}
