package evo

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"

	"tspevo/internal/tsp"
)

// Population is an ordered collection of individuals. Size is fixed at
// the start and end of every generation.
type Population struct {
	individuals []*Individual
}

func NewPopulation(individuals []*Individual) *Population {
	return &Population{individuals: individuals}
}

// InitializePopulation builds the starting population: 90% uniformly
// random tours plus 10% greedy nearest-neighbor tours seeded from a
// rotation of starting cities, padded or truncated to exactly N.
func InitializePopulation(rng *rand.Rand, problem *tsp.Problem, cfg Config) (*Population, error) {
	n := cfg.PopulationSize
	individuals := make([]*Individual, 0, n)

	numRandom := n - n/10
	if numRandom < 1 {
		numRandom = 1
	}
	for i := 0; i < numRandom; i++ {
		individuals = append(individuals, NewRandomIndividual(rng, problem.Size()))
	}
	for i := 0; len(individuals) < n; i++ {
		start := i % problem.Size()
		tour, err := tsp.NearestNeighborTour(problem, start)
		if err != nil {
			return nil, fmt.Errorf("greedy seed from city %d: %w", start, err)
		}
		individuals = append(individuals, newOffspring(tour))
	}
	individuals = individuals[:n]

	pop := NewPopulation(individuals)
	if err := pop.EvaluateAll(problem); err != nil {
		return nil, err
	}
	return pop, nil
}

// Size returns the number of individuals.
func (p *Population) Size() int {
	return len(p.individuals)
}

// Individuals returns the backing slice. Callers outside a generation
// step must treat it as read-only.
func (p *Population) Individuals() []*Individual {
	return p.individuals
}

// EvaluateAll computes the distance of every individual that lacks a
// cached evaluation.
func (p *Population) EvaluateAll(problem *tsp.Problem) error {
	for _, ind := range p.individuals {
		if err := ind.Evaluate(problem); err != nil {
			return err
		}
	}
	return nil
}

// SortByDistance orders the population best (shortest) first.
// Unevaluated individuals sort last.
func (p *Population) SortByDistance() {
	sort.SliceStable(p.individuals, func(i, j int) bool {
		return p.individuals[i].sortKey() < p.individuals[j].sortKey()
	})
}

// Best returns the individual with the shortest distance.
func (p *Population) Best() *Individual {
	var best *Individual
	for _, ind := range p.individuals {
		if best == nil || ind.sortKey() < best.sortKey() {
			best = ind
		}
	}
	return best
}

// Worst returns the individual with the longest distance.
func (p *Population) Worst() *Individual {
	var worst *Individual
	for _, ind := range p.individuals {
		if worst == nil || ind.sortKey() > worst.sortKey() {
			worst = ind
		}
	}
	return worst
}

// AverageDistance returns the mean distance over evaluated
// individuals, or +Inf when none are evaluated.
func (p *Population) AverageDistance() float64 {
	distances := p.evaluatedDistances()
	if len(distances) == 0 {
		return math.Inf(1)
	}
	return stat.Mean(distances, nil)
}

// UniqueRatio returns the fraction of distinct tours.
func (p *Population) UniqueRatio() float64 {
	if len(p.individuals) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(p.individuals))
	for _, ind := range p.individuals {
		seen[ind.tourKey()] = struct{}{}
	}
	return float64(len(seen)) / float64(len(p.individuals))
}

// RemoveDuplicates replaces every repeated tour with a fresh random
// evaluated individual, keeping the first occurrence.
func (p *Population) RemoveDuplicates(rng *rand.Rand, problem *tsp.Problem) error {
	seen := make(map[string]struct{}, len(p.individuals))
	for i, ind := range p.individuals {
		key := ind.tourKey()
		if _, dup := seen[key]; !dup {
			seen[key] = struct{}{}
			continue
		}
		fresh := NewRandomIndividual(rng, ind.Size())
		if err := fresh.Evaluate(problem); err != nil {
			return err
		}
		p.individuals[i] = fresh
	}
	return nil
}

func (p *Population) evaluatedDistances() []float64 {
	distances := make([]float64, 0, len(p.individuals))
	for _, ind := range p.individuals {
		if d, ok := ind.Distance(); ok {
			distances = append(distances, d)
		}
	}
	return distances
}
