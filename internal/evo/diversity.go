package evo

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"tspevo/internal/tsp"
)

// DiversityManager defaults.
const (
	DefaultMinUniqueRatio      = 0.3
	DefaultStagnationThreshold = 20

	// aggressiveStagnationLevel separates the moderate regime from the
	// partial-restart regime.
	aggressiveStagnationLevel = 50

	moderateKeepFraction   = 0.7
	aggressiveKeepFraction = 0.2
)

// DiversityMetrics summarizes how spread out a population is.
type DiversityMetrics struct {
	// UniqueRatio is distinct tours divided by population size.
	UniqueRatio float64
	UniqueCount int
	// HammingDiversity is the mean pairwise fraction of differing tour
	// positions. Computing it is O(N²·n), a known scaling limit.
	HammingDiversity float64
	FitnessVariance  float64
}

// DiversityManager watches population diversity and search stagnation
// and applies corrective transformations. Its state is mutated only by
// its own methods, once per generation.
type DiversityManager struct {
	minUniqueRatio      float64
	stagnationThreshold int

	stagnationCounter int
	bestWatermark     float64
	bestHistory       []float64
}

// NewDiversityManager builds a manager. Non-positive arguments fall
// back to the defaults.
func NewDiversityManager(minUniqueRatio float64, stagnationThreshold int) *DiversityManager {
	if minUniqueRatio <= 0 {
		minUniqueRatio = DefaultMinUniqueRatio
	}
	if stagnationThreshold <= 0 {
		stagnationThreshold = DefaultStagnationThreshold
	}
	return &DiversityManager{
		minUniqueRatio:      minUniqueRatio,
		stagnationThreshold: stagnationThreshold,
		bestWatermark:       math.Inf(1),
	}
}

// UpdateStagnation resets the counter on a strict improvement of the
// best distance and increments it otherwise. The observation is always
// appended to the history.
func (m *DiversityManager) UpdateStagnation(currentBest float64) {
	if currentBest < m.bestWatermark {
		m.stagnationCounter = 0
		m.bestWatermark = currentBest
	} else {
		m.stagnationCounter++
	}
	m.bestHistory = append(m.bestHistory, currentBest)
}

// StagnationLevel returns generations since the last improvement.
func (m *DiversityManager) StagnationLevel() int {
	return m.stagnationCounter
}

// Stagnated reports whether the stagnation threshold has been reached.
func (m *DiversityManager) Stagnated() bool {
	return m.stagnationCounter >= m.stagnationThreshold
}

// BestHistory returns a copy of the per-generation best observations.
func (m *DiversityManager) BestHistory() []float64 {
	return append([]float64(nil), m.bestHistory...)
}

// Metrics computes the diversity metrics of a population.
func (m *DiversityManager) Metrics(pop *Population) DiversityMetrics {
	n := pop.Size()
	if n == 0 {
		return DiversityMetrics{}
	}

	seen := make(map[string]struct{}, n)
	for _, ind := range pop.individuals {
		seen[ind.tourKey()] = struct{}{}
	}

	metrics := DiversityMetrics{
		UniqueRatio:      float64(len(seen)) / float64(n),
		UniqueCount:      len(seen),
		HammingDiversity: hammingDiversity(pop.individuals),
	}
	if distances := pop.evaluatedDistances(); len(distances) > 1 {
		metrics.FitnessVariance = stat.PopVariance(distances, nil)
	}
	return metrics
}

// hammingDiversity averages the normalized Hamming distance over all
// individual pairs.
func hammingDiversity(individuals []*Individual) float64 {
	if len(individuals) < 2 {
		return 0
	}
	tourLen := individuals[0].Size()
	total := 0.0
	pairs := 0
	for i := 0; i < len(individuals); i++ {
		for j := i + 1; j < len(individuals); j++ {
			differing := 0
			for k := 0; k < tourLen; k++ {
				if individuals[i].tour[k] != individuals[j].tour[k] {
					differing++
				}
			}
			total += float64(differing) / float64(tourLen)
			pairs++
		}
	}
	return total / float64(pairs)
}

// MaintainDiversity replaces duplicate tours with heavily mutated
// variants when the unique ratio drops below the threshold. The best
// occurrence of each tour is kept.
func (m *DiversityManager) MaintainDiversity(rng *rand.Rand, pop *Population, problem *tsp.Problem) (*Population, error) {
	if pop.UniqueRatio() >= m.minUniqueRatio {
		return pop, nil
	}

	pop.SortByDistance()
	seen := make(map[string]struct{}, pop.Size())
	replaced := make([]*Individual, 0, pop.Size())
	for _, ind := range pop.individuals {
		key := ind.tourKey()
		if _, dup := seen[key]; !dup {
			seen[key] = struct{}{}
			replaced = append(replaced, ind)
			continue
		}
		mutated := heavyMutate(rng, ind)
		if err := mutated.Evaluate(problem); err != nil {
			return nil, err
		}
		replaced = append(replaced, mutated)
	}
	return NewPopulation(replaced), nil
}

// heavyMutate compounds 2–5 random swap/inversion mutations.
func heavyMutate(rng *rand.Rand, ind *Individual) *Individual {
	mutated := ind
	steps := 2 + rng.Intn(4)
	for i := 0; i < steps; i++ {
		if rng.Float64() < 0.5 {
			mutated = SwapMutation{}.Mutate(rng, mutated)
		} else {
			mutated = InversionMutation{}.Mutate(rng, mutated)
		}
	}
	return mutated
}

// ApplyAdaptiveMechanisms is a no-op until the stagnation threshold is
// reached. In the moderate regime the worst 30% are replaced with
// adaptively mutated variants; in the aggressive regime only the best
// 20% (at least one) survive, the rest are regenerated at random and
// the stagnation counter resets.
func (m *DiversityManager) ApplyAdaptiveMechanisms(rng *rand.Rand, pop *Population, problem *tsp.Problem, base MutationOperator) (*Population, error) {
	if !m.Stagnated() {
		return pop, nil
	}
	if m.stagnationCounter < aggressiveStagnationLevel {
		return m.moderateAdaptation(rng, pop, problem, base)
	}
	return m.aggressiveAdaptation(rng, pop, problem)
}

func (m *DiversityManager) moderateAdaptation(rng *rand.Rand, pop *Population, problem *tsp.Problem, base MutationOperator) (*Population, error) {
	pop.SortByDistance()
	split := int(float64(pop.Size()) * moderateKeepFraction)

	next := make([]*Individual, 0, pop.Size())
	next = append(next, pop.individuals[:split]...)
	for _, ind := range pop.individuals[split:] {
		mutated := AdaptiveMutate(rng, ind, m.stagnationCounter, base)
		if err := mutated.Evaluate(problem); err != nil {
			return nil, err
		}
		next = append(next, mutated)
	}
	return NewPopulation(next), nil
}

func (m *DiversityManager) aggressiveAdaptation(rng *rand.Rand, pop *Population, problem *tsp.Problem) (*Population, error) {
	pop.SortByDistance()
	keep := int(float64(pop.Size()) * aggressiveKeepFraction)
	if keep < 1 {
		keep = 1
	}

	next := make([]*Individual, 0, pop.Size())
	next = append(next, pop.individuals[:keep]...)
	for len(next) < pop.Size() {
		fresh := NewRandomIndividual(rng, problem.Size())
		if err := fresh.Evaluate(problem); err != nil {
			return nil, err
		}
		next = append(next, fresh)
	}

	m.stagnationCounter = 0
	return NewPopulation(next), nil
}
