package evo

import (
	"math/rand"
	"testing"
)

func nextGeneration(t *testing.T, seed int64, cfg Config) (*Population, *Population) {
	t.Helper()
	problem := testProblem(t, 8)
	rng := rand.New(rand.NewSource(seed))
	pop, err := InitializePopulation(rng, problem, cfg)
	if err != nil {
		t.Fatalf("InitializePopulation: %v", err)
	}
	next, err := NextGeneration(rng, pop, problem, cfg)
	if err != nil {
		t.Fatalf("NextGeneration: %v", err)
	}
	return pop, next
}

func TestNextGenerationExactSizeAndEvaluation(t *testing.T) {
	cases := []struct {
		name                          string
		popSize                       int
		survivor, crossover, mutation float64
	}{
		{"even fractions", 50, 0.2, 0.6, 0.2},
		{"awkward thirds", 10, 0.33, 0.33, 0.34},
		{"odd crossover count", 10, 0.2, 0.5, 0.3},
		{"tiny population", 3, 0.2, 0.6, 0.2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig(tc.popSize)
			cfg.SurvivorFraction = tc.survivor
			cfg.CrossoverFraction = tc.crossover
			cfg.MutationFraction = tc.mutation
			if err := cfg.Validate(); err != nil {
				t.Fatalf("Validate: %v", err)
			}

			_, next := nextGeneration(t, 89, cfg)
			if next.Size() != tc.popSize {
				t.Fatalf("size = %d, want %d", next.Size(), tc.popSize)
			}
			for i, ind := range next.Individuals() {
				if !ind.Valid() {
					t.Fatalf("individual %d is not a permutation", i)
				}
				if _, ok := ind.Distance(); !ok {
					t.Fatalf("individual %d carries no evaluated distance", i)
				}
			}
		})
	}
}

func TestNextGenerationSurvivesOvershootFractions(t *testing.T) {
	// Fraction sums just over 1.0 pass Validate, and the truncated
	// survivor+crossover counts can then cover the whole population on
	// their own. The mutation component degrades to zero offspring and
	// the assembled slice truncates back to size.
	cfg := testConfig(100)
	cfg.SurvivorFraction = 0.50
	cfg.CrossoverFraction = 0.51
	cfg.MutationFraction = 0.00
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	_, next := nextGeneration(t, 97, cfg)
	if next.Size() != 100 {
		t.Fatalf("size = %d, want 100", next.Size())
	}
}

func TestNextGenerationElitesLead(t *testing.T) {
	cfg := testConfig(40)
	pop, next := nextGeneration(t, 101, cfg)

	pop.SortByDistance()
	for i := 0; i < cfg.Elitism; i++ {
		wantDist, ok := pop.Individuals()[i].Distance()
		if !ok {
			t.Fatalf("elite source %d unevaluated", i)
		}
		gotDist, ok := next.Individuals()[i].Distance()
		if !ok {
			t.Fatalf("next[%d] unevaluated", i)
		}
		if gotDist != wantDist {
			t.Fatalf("next[%d] distance = %v, want elite distance %v", i, gotDist, wantDist)
		}
	}
}

func TestNextGenerationLeavesInputUsable(t *testing.T) {
	cfg := testConfig(30)
	pop, _ := nextGeneration(t, 103, cfg)

	if pop.Size() != 30 {
		t.Fatalf("input population size = %d, want 30", pop.Size())
	}
	for i, ind := range pop.Individuals() {
		if !ind.Valid() {
			t.Fatalf("input individual %d broken after NextGeneration", i)
		}
	}
}
