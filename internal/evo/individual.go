package evo

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"

	"tspevo/internal/tsp"
)

var ErrInvalidTour = errors.New("tour is not a permutation of the city set")

// Individual is a candidate tour with a cached evaluation. The tour is
// never exposed mutably; operators work on clones and leave their
// inputs untouched.
type Individual struct {
	tour      []int
	distance  float64
	evaluated bool
}

// NewIndividual builds an individual from an explicit tour. The tour
// must be a permutation of 0..n-1 and is copied.
func NewIndividual(tour []int) (*Individual, error) {
	if !isPermutation(tour) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTour, tour)
	}
	return &Individual{tour: append([]int(nil), tour...)}, nil
}

// NewRandomIndividual builds an individual with a uniformly random
// tour over n cities.
func NewRandomIndividual(rng *rand.Rand, n int) *Individual {
	return &Individual{tour: rng.Perm(n)}
}

// newOffspring wraps a tour produced by an operator. The caller owns
// the slice; the cached evaluation starts out unset.
func newOffspring(tour []int) *Individual {
	return &Individual{tour: tour}
}

// Size returns the number of cities in the tour.
func (ind *Individual) Size() int {
	return len(ind.tour)
}

// Tour returns a copy of the tour.
func (ind *Individual) Tour() []int {
	return append([]int(nil), ind.tour...)
}

// Distance returns the cached tour distance. ok is false until
// Evaluate has run.
func (ind *Individual) Distance() (float64, bool) {
	return ind.distance, ind.evaluated
}

// Fitness returns 1/(1+distance), derived from the cached distance.
// ok is false until Evaluate has run.
func (ind *Individual) Fitness() (float64, bool) {
	if !ind.evaluated {
		return 0, false
	}
	return 1.0 / (1.0 + ind.distance), true
}

// Evaluate computes and caches the closed-tour distance. It is
// idempotent: a second call with the same tour is a no-op.
func (ind *Individual) Evaluate(problem *tsp.Problem) error {
	if ind.evaluated {
		return nil
	}
	d, err := problem.TourDistance(ind.tour)
	if err != nil {
		return err
	}
	ind.distance = d
	ind.evaluated = true
	return nil
}

// Valid reports whether the tour is a permutation of 0..n-1.
func (ind *Individual) Valid() bool {
	return isPermutation(ind.tour)
}

// Clone returns a deep copy, including the cached evaluation.
func (ind *Individual) Clone() *Individual {
	return &Individual{
		tour:      append([]int(nil), ind.tour...),
		distance:  ind.distance,
		evaluated: ind.evaluated,
	}
}

// sortKey orders individuals ascending by distance; unevaluated
// individuals sort as worst.
func (ind *Individual) sortKey() float64 {
	if !ind.evaluated {
		return math.Inf(1)
	}
	return ind.distance
}

// tourKey is a map key identifying the exact visiting order.
func (ind *Individual) tourKey() string {
	var b strings.Builder
	for i, city := range ind.tour {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(city))
	}
	return b.String()
}

func isPermutation(tour []int) bool {
	if len(tour) == 0 {
		return false
	}
	seen := make([]bool, len(tour))
	for _, city := range tour {
		if city < 0 || city >= len(tour) || seen[city] {
			return false
		}
		seen[city] = true
	}
	return true
}
