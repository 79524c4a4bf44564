package resource

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestForge_ConcurrentFirstCallsShareOneGenerator(t *testing.T) {
	var builds atomic.Int32
	f := NewForge(WithGeneratorBuilder(func() *Generator {
		builds.Add(1)
		return newGenerator()
	}))

	const n = 64
	results := make([]*Generator, n)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			g, err := f.Generator()
			if err != nil {
				t.Errorf("Generator() error: %v", err)
				return
			}
			results[i] = g
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 1; i < n; i++ {
		if results[i] != results[0] {
			t.Fatalf("expected identical generator instances, got %p and %p", results[0], results[i])
		}
	}
	if got := builds.Load(); got != 1 {
		t.Errorf("expected 1 construction, got %d", got)
	}
	if got := f.Constructions(); got != 1 {
		t.Errorf("expected Constructions()=1, got %d", got)
	}
}

func TestForge_CombinatorIsLazyAndStable(t *testing.T) {
	f := NewForge()
	if got := f.Constructions(); got != 0 {
		t.Fatalf("expected no constructions before first use, got %d", got)
	}

	c1, err := f.Combinator()
	if err != nil {
		t.Fatalf("Combinator() error: %v", err)
	}
	c2, err := f.Combinator()
	if err != nil {
		t.Fatalf("Combinator() error: %v", err)
	}
	if c1 != c2 {
		t.Error("expected the same combinator on every call")
	}
	if got := f.Constructions(); got != 1 {
		t.Errorf("expected 1 construction, got %d", got)
	}
}

func TestForge_RetriesOnceAfterPanic(t *testing.T) {
	var calls atomic.Int32
	f := NewForge(WithGeneratorBuilder(func() *Generator {
		if calls.Add(1) == 1 {
			panic("half-built generator")
		}
		return newGenerator()
	}))

	g, err := f.Generator()
	if err != nil {
		t.Fatalf("expected recovery, got error: %v", err)
	}
	if g == nil {
		t.Fatal("expected a generator")
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("expected 2 builder calls, got %d", got)
	}
	if got := f.Recoveries(); got != 1 {
		t.Errorf("expected 1 recovery, got %d", got)
	}
	if f.Poisoned() {
		t.Error("expected forge to be healthy after recovery")
	}
}

func TestForge_ReturnsPoisonedWhenRecoveryFails(t *testing.T) {
	f := NewForge(WithCombinatorBuilder(func() *Combinator {
		panic("always broken")
	}))

	_, err := f.Combinator()
	if !errors.Is(err, ErrForgePoisoned) {
		t.Fatalf("expected ErrForgePoisoned, got %v", err)
	}
	if !f.Poisoned() {
		t.Error("expected forge to stay poisoned")
	}
}

func TestForge_KeepsBuiltInstanceAcrossPoisoning(t *testing.T) {
	f := NewForge(WithCombinatorBuilder(func() *Combinator {
		panic("combinator failure")
	}))

	g1, err := f.Generator()
	if err != nil {
		t.Fatalf("Generator() error: %v", err)
	}

	if _, err := f.Combinator(); !errors.Is(err, ErrForgePoisoned) {
		t.Fatalf("expected ErrForgePoisoned, got %v", err)
	}

	g2, err := f.Generator()
	if err != nil {
		t.Fatalf("Generator() after poisoning error: %v", err)
	}
	if g1 != g2 {
		t.Error("expected previously built generator to survive poisoning")
	}
	if got := f.Constructions(); got != 1 {
		t.Errorf("expected 1 construction, got %d", got)
	}
}

func TestForge_MintsSequentialPayloads(t *testing.T) {
	f := NewForge()
	s1 := f.Sunray()
	s2 := f.Sunray()
	if s2.Serial() != s1.Serial()+1 {
		t.Errorf("expected sequential sunray serials, got %d then %d", s1.Serial(), s2.Serial())
	}
	if a := f.Asteroid(); a.Serial() != 1 {
		t.Errorf("expected first asteroid serial=1, got %d", a.Serial())
	}
}
