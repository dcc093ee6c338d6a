package evo

import (
	"errors"
	"fmt"
	"math/rand"
)

var (
	ErrParentSizeMismatch = errors.New("parents have different tour sizes")
	ErrTooFewParents      = errors.New("crossover needs at least two parents")
)

// CrossoverOperator recombines two parent tours into two children.
// Both children must be permutations over the parents' city set; a
// violated post-condition is reported as an error since it indicates a
// defect, not a recoverable condition.
type CrossoverOperator interface {
	Name() string
	Cross(rng *rand.Rand, a, b *Individual) (*Individual, *Individual, error)
}

// drawCuts picks two cut indices independently and uniformly and
// returns them in ascending order. Equal cuts are allowed and yield a
// single-position segment.
func drawCuts(rng *rand.Rand, n int) (int, int) {
	cut1 := rng.Intn(n)
	cut2 := rng.Intn(n)
	if cut1 > cut2 {
		cut1, cut2 = cut2, cut1
	}
	return cut1, cut2
}

// OrderCrossover (OX) copies the segment between two cuts from one
// parent and fills the remaining positions, starting after the second
// cut and wrapping, with the other parent's cities in that parent's
// own order.
type OrderCrossover struct{}

func (OrderCrossover) Name() string {
	return "OX"
}

func (OrderCrossover) Cross(rng *rand.Rand, a, b *Individual) (*Individual, *Individual, error) {
	if a.Size() != b.Size() {
		return nil, nil, fmt.Errorf("%w: %d vs %d", ErrParentSizeMismatch, a.Size(), b.Size())
	}
	n := a.Size()
	cut1, cut2 := drawCuts(rng, n)

	childA := emptyTour(n)
	childB := emptyTour(n)
	copy(childA[cut1:cut2+1], a.tour[cut1:cut2+1])
	copy(childB[cut1:cut2+1], b.tour[cut1:cut2+1])

	fillOrderRemainder(childA, b.tour, cut2)
	fillOrderRemainder(childB, a.tour, cut2)

	return wrapChildren(childA, childB, "OX")
}

// fillOrderRemainder places the donor's unused cities, in donor order,
// into the empty positions starting just after cut2 and wrapping.
func fillOrderRemainder(child, donor []int, cut2 int) {
	n := len(child)
	used := make(map[int]struct{}, n)
	for _, city := range child {
		if city >= 0 {
			used[city] = struct{}{}
		}
	}

	pos := (cut2 + 1) % n
	for _, city := range donor {
		if _, ok := used[city]; ok {
			continue
		}
		for child[pos] >= 0 {
			pos = (pos + 1) % n
		}
		child[pos] = city
		pos = (pos + 1) % n
	}
}

// PartiallyMappedCrossover (PMX) exchanges the cut segment between the
// parents and resolves conflicts outside the segment through the
// city-to-city mapping induced by the exchange. When following the
// mapping chain revisits a city (a cycle) or dead-ends on a used city,
// the child takes the first unused city found by scanning the donor
// parent's tour left to right.
type PartiallyMappedCrossover struct{}

func (PartiallyMappedCrossover) Name() string {
	return "PMX"
}

func (PartiallyMappedCrossover) Cross(rng *rand.Rand, a, b *Individual) (*Individual, *Individual, error) {
	if a.Size() != b.Size() {
		return nil, nil, fmt.Errorf("%w: %d vs %d", ErrParentSizeMismatch, a.Size(), b.Size())
	}
	n := a.Size()
	cut1, cut2 := drawCuts(rng, n)

	childA := emptyTour(n)
	childB := emptyTour(n)
	copy(childA[cut1:cut2+1], b.tour[cut1:cut2+1])
	copy(childB[cut1:cut2+1], a.tour[cut1:cut2+1])

	mappingAB := make(map[int]int, cut2-cut1+1)
	mappingBA := make(map[int]int, cut2-cut1+1)
	for i := cut1; i <= cut2; i++ {
		if a.tour[i] != b.tour[i] {
			mappingAB[a.tour[i]] = b.tour[i]
			mappingBA[b.tour[i]] = a.tour[i]
		}
	}

	fillMappedRemainder(childA, a.tour, mappingAB)
	fillMappedRemainder(childB, b.tour, mappingBA)

	return wrapChildren(childA, childB, "PMX")
}

// fillMappedRemainder fills each empty position with the donor's own
// city at that position, chasing the mapping chain while the candidate
// is already used. Chains are bounded by a visited set so mapping
// cycles cannot loop forever.
func fillMappedRemainder(child, donor []int, mapping map[int]int) {
	used := make(map[int]struct{}, len(child))
	for _, city := range child {
		if city >= 0 {
			used[city] = struct{}{}
		}
	}

	for i, have := range child {
		if have >= 0 {
			continue
		}
		city := donor[i]
		visited := make(map[int]struct{})
		for {
			if _, taken := used[city]; !taken {
				break
			}
			next, hasNext := mapping[city]
			if !hasNext {
				break
			}
			if _, seen := visited[city]; seen {
				break
			}
			visited[city] = struct{}{}
			city = next
		}
		if _, taken := used[city]; taken {
			for _, candidate := range donor {
				if _, ok := used[candidate]; !ok {
					city = candidate
					break
				}
			}
		}
		child[i] = city
		used[city] = struct{}{}
	}
}

// OffspringByCrossover repeatedly samples two distinct parents
// uniformly, applies the operator, and collects both children until
// num offspring exist. An odd request truncates the last pair by one.
func OffspringByCrossover(rng *rand.Rand, parents []*Individual, num int, op CrossoverOperator) ([]*Individual, error) {
	if num <= 0 {
		return nil, nil
	}
	if len(parents) < 2 {
		return nil, fmt.Errorf("%w: have %d", ErrTooFewParents, len(parents))
	}

	offspring := make([]*Individual, 0, num+1)
	for len(offspring) < num {
		i := rng.Intn(len(parents))
		j := rng.Intn(len(parents) - 1)
		if j >= i {
			j++
		}
		childA, childB, err := op.Cross(rng, parents[i], parents[j])
		if err != nil {
			return nil, err
		}
		offspring = append(offspring, childA, childB)
	}
	return offspring[:num], nil
}

func emptyTour(n int) []int {
	tour := make([]int, n)
	for i := range tour {
		tour[i] = -1
	}
	return tour
}

func wrapChildren(tourA, tourB []int, op string) (*Individual, *Individual, error) {
	if !isPermutation(tourA) || !isPermutation(tourB) {
		return nil, nil, fmt.Errorf("%s produced %w", op, ErrInvalidTour)
	}
	return newOffspring(tourA), newOffspring(tourB), nil
}
