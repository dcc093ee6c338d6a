package evo

import "math/rand"

// Adaptive mutation escalation thresholds, in stagnant generations.
// Tunable constants, not derived values.
const (
	adaptiveRepeatThreshold   = 10
	adaptiveScrambleThreshold = 25
	adaptiveRepeatCap         = 3
)

// MutationOperator perturbs one tour. Implementations work on a copy,
// leave the input unchanged, and return a result whose cached
// evaluation is unset.
type MutationOperator interface {
	Name() string
	Mutate(rng *rand.Rand, ind *Individual) *Individual
}

// SwapMutation exchanges two distinct randomly chosen positions.
type SwapMutation struct{}

func (SwapMutation) Name() string {
	return "swap"
}

func (SwapMutation) Mutate(rng *rand.Rand, ind *Individual) *Individual {
	tour := ind.Tour()
	n := len(tour)
	if n < 2 {
		return newOffspring(tour)
	}
	pos1 := rng.Intn(n)
	pos2 := rng.Intn(n)
	for pos2 == pos1 {
		pos2 = rng.Intn(n)
	}
	tour[pos1], tour[pos2] = tour[pos2], tour[pos1]
	return newOffspring(tour)
}

// InversionMutation reverses an inclusive random sub-segment. When
// both drawn indices coincide the segment is widened by one position
// so the perturbation is never a no-op.
type InversionMutation struct{}

func (InversionMutation) Name() string {
	return "inversion"
}

func (InversionMutation) Mutate(rng *rand.Rand, ind *Individual) *Individual {
	tour := ind.Tour()
	n := len(tour)
	if n < 2 {
		return newOffspring(tour)
	}
	cut1, cut2 := drawCuts(rng, n)
	if cut1 == cut2 {
		if cut1 < n-1 {
			cut2 = cut1 + 1
		} else {
			cut1 = cut1 - 1
		}
	}
	for i, j := cut1, cut2; i < j; i, j = i+1, j-1 {
		tour[i], tour[j] = tour[j], tour[i]
	}
	return newOffspring(tour)
}

// ScrambleMutation randomly permutes the contents of an inclusive
// random sub-segment.
type ScrambleMutation struct{}

func (ScrambleMutation) Name() string {
	return "scramble"
}

func (ScrambleMutation) Mutate(rng *rand.Rand, ind *Individual) *Individual {
	tour := ind.Tour()
	n := len(tour)
	if n < 2 {
		return newOffspring(tour)
	}
	cut1, cut2 := drawCuts(rng, n)
	segment := tour[cut1 : cut2+1]
	rng.Shuffle(len(segment), func(i, j int) {
		segment[i], segment[j] = segment[j], segment[i]
	})
	return newOffspring(tour)
}

// OffspringByMutation fills each output slot by picking one parent
// uniformly at random (with replacement) and applying the mutation
// with probability rate, otherwise copying the parent unmodified.
func OffspringByMutation(rng *rand.Rand, parents []*Individual, num int, op MutationOperator, rate float64) []*Individual {
	if num <= 0 {
		return nil
	}
	offspring := make([]*Individual, 0, num)
	for i := 0; i < num; i++ {
		parent := parents[rng.Intn(len(parents))]
		if rng.Float64() < rate {
			offspring = append(offspring, op.Mutate(rng, parent))
		} else {
			offspring = append(offspring, parent.Clone())
		}
	}
	return offspring
}

// AdaptiveMutate escalates the perturbation with the stagnation level:
// below adaptiveRepeatThreshold one ordinary mutation, then a bounded
// number of repeated mutations, and from adaptiveScrambleThreshold on
// a scramble of a random segment.
func AdaptiveMutate(rng *rand.Rand, ind *Individual, stagnation int, base MutationOperator) *Individual {
	switch {
	case stagnation < adaptiveRepeatThreshold:
		return base.Mutate(rng, ind)
	case stagnation < adaptiveScrambleThreshold:
		repeats := stagnation / 5
		if repeats > adaptiveRepeatCap {
			repeats = adaptiveRepeatCap
		}
		mutated := ind
		for i := 0; i < repeats; i++ {
			mutated = base.Mutate(rng, mutated)
		}
		return mutated
	default:
		return ScrambleMutation{}.Mutate(rng, ind)
	}
}
