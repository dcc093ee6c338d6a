package evo

import (
	"math/rand"

	"tspevo/internal/tsp"
)

// offspringMutationProbability is the chance that a mutation-offspring
// slot actually mutates its parent during replacement. It is a fixed
// replacement-time constant, deliberately distinct from the rate
// callers pass to OffspringByMutation.
const offspringMutationProbability = 0.8

// NextGeneration assembles the next population: elitism-preserving
// survivors, then crossover offspring, then mutation offspring,
// truncated to exactly the configured size. Every returned individual
// carries an evaluated distance.
func NextGeneration(rng *rand.Rand, pop *Population, problem *tsp.Problem, cfg Config) (*Population, error) {
	selector, err := cfg.selector()
	if err != nil {
		return nil, err
	}
	crossover, err := cfg.crossover()
	if err != nil {
		return nil, err
	}
	mutation, err := cfg.mutation()
	if err != nil {
		return nil, err
	}

	numSurvivors := cfg.numSurvivors()
	numCrossover := cfg.numCrossover()
	numMutation := cfg.numMutation()

	survivors, err := SelectSurvivors(rng, pop, numSurvivors, selector, cfg.Elitism)
	if err != nil {
		return nil, err
	}
	crossed, err := OffspringByCrossover(rng, pop.Individuals(), numCrossover, crossover)
	if err != nil {
		return nil, err
	}
	mutated := OffspringByMutation(rng, pop.Individuals(), numMutation, mutation, offspringMutationProbability)

	next := make([]*Individual, 0, cfg.PopulationSize)
	next = append(next, survivors...)
	next = append(next, crossed...)
	next = append(next, mutated...)
	next = next[:cfg.PopulationSize]

	generation := NewPopulation(next)
	if err := generation.EvaluateAll(problem); err != nil {
		return nil, err
	}
	return generation, nil
}
