package evo

import (
	"errors"
	"math/rand"
	"sort"
)

var ErrEmptyPopulation = errors.New("population is empty")

// Selector picks one individual from a population, biased toward
// shorter tours. Implementations return a copy; the population is
// never mutated.
type Selector interface {
	Name() string
	Pick(rng *rand.Rand, pop *Population) (*Individual, error)
}

// TournamentSelector draws Size individuals uniformly without
// replacement and returns the one with the shortest distance.
type TournamentSelector struct {
	Size int
}

func (TournamentSelector) Name() string {
	return "tournament"
}

func (s TournamentSelector) Pick(rng *rand.Rand, pop *Population) (*Individual, error) {
	if pop.Size() == 0 {
		return nil, ErrEmptyPopulation
	}
	k := s.Size
	if k <= 0 {
		k = 3
	}
	if k > pop.Size() {
		k = pop.Size()
	}

	entrants := rng.Perm(pop.Size())[:k]
	best := pop.individuals[entrants[0]]
	for _, idx := range entrants[1:] {
		if pop.individuals[idx].sortKey() < best.sortKey() {
			best = pop.individuals[idx]
		}
	}
	return best.Clone(), nil
}

// RankSelector sorts ascending by distance and samples one individual
// with probability proportional to the linear rank weights
// n, n-1, ..., 1 for best through worst.
type RankSelector struct{}

func (RankSelector) Name() string {
	return "rank"
}

func (RankSelector) Pick(rng *rand.Rand, pop *Population) (*Individual, error) {
	n := pop.Size()
	if n == 0 {
		return nil, ErrEmptyPopulation
	}

	ranked := append([]*Individual(nil), pop.individuals...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].sortKey() < ranked[j].sortKey()
	})

	total := n * (n + 1) / 2
	pick := rng.Intn(total)
	acc := 0
	for i, ind := range ranked {
		acc += n - i
		if pick < acc {
			return ind.Clone(), nil
		}
	}
	return ranked[n-1].Clone(), nil
}

// SelectParents invokes the selector repeatedly to build a mating
// pool.
func SelectParents(rng *rand.Rand, pop *Population, num int, selector Selector) ([]*Individual, error) {
	parents := make([]*Individual, 0, num)
	for i := 0; i < num; i++ {
		parent, err := selector.Pick(rng, pop)
		if err != nil {
			return nil, err
		}
		parents = append(parents, parent)
	}
	return parents, nil
}

// SelectSurvivors copies the best min(elitism, num, population size)
// individuals unconditionally, then fills the remaining slots with the
// configured selector.
func SelectSurvivors(rng *rand.Rand, pop *Population, num int, selector Selector, elitism int) ([]*Individual, error) {
	survivors := make([]*Individual, 0, num)

	if elitism > 0 {
		pop.SortByDistance()
		eliteCount := elitism
		if eliteCount > num {
			eliteCount = num
		}
		if eliteCount > pop.Size() {
			eliteCount = pop.Size()
		}
		for _, elite := range pop.individuals[:eliteCount] {
			survivors = append(survivors, elite.Clone())
		}
	}

	remaining := num - len(survivors)
	if remaining > 0 {
		filled, err := SelectParents(rng, pop, remaining, selector)
		if err != nil {
			return nil, err
		}
		survivors = append(survivors, filled...)
	}
	if len(survivors) > num {
		survivors = survivors[:num]
	}
	return survivors, nil
}
