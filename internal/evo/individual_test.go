package evo

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"tspevo/internal/tsp"
)

func testProblem(t *testing.T, n int) *tsp.Problem {
	t.Helper()
	coords := make([]tsp.Coord, n)
	for i := range coords {
		angle := 2 * math.Pi * float64(i) / float64(n)
		coords[i] = tsp.Coord{X: 1000 * math.Cos(angle), Y: 1000 * math.Sin(angle)}
	}
	problem, err := tsp.NewProblem(coords)
	if err != nil {
		t.Fatalf("NewProblem: %v", err)
	}
	return problem
}

func TestNewIndividualRejectsNonPermutation(t *testing.T) {
	bad := [][]int{
		nil,
		{},
		{0, 1, 1},
		{0, 1, 3},
		{-1, 0, 1},
	}
	for _, tour := range bad {
		if _, err := NewIndividual(tour); !errors.Is(err, ErrInvalidTour) {
			t.Errorf("NewIndividual(%v): want ErrInvalidTour, got %v", tour, err)
		}
	}
}

func TestIndividualTourIsACopy(t *testing.T) {
	ind, err := NewIndividual([]int{2, 0, 1})
	if err != nil {
		t.Fatalf("NewIndividual: %v", err)
	}
	tour := ind.Tour()
	tour[0] = 99
	if got := ind.Tour()[0]; got != 2 {
		t.Fatalf("internal tour mutated through Tour copy: got %d", got)
	}
}

func TestIndividualEvaluateIdempotent(t *testing.T) {
	problem := testProblem(t, 6)
	ind := NewRandomIndividual(rand.New(rand.NewSource(1)), 6)

	if _, ok := ind.Distance(); ok {
		t.Fatal("fresh individual reports an evaluated distance")
	}
	if _, ok := ind.Fitness(); ok {
		t.Fatal("fresh individual reports a fitness")
	}

	if err := ind.Evaluate(problem); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	d1, ok := ind.Distance()
	if !ok || d1 <= 0 {
		t.Fatalf("Distance after Evaluate: got (%v, %v)", d1, ok)
	}
	if err := ind.Evaluate(problem); err != nil {
		t.Fatalf("second Evaluate: %v", err)
	}
	if d2, _ := ind.Distance(); d2 != d1 {
		t.Fatalf("Evaluate not idempotent: %v vs %v", d1, d2)
	}

	f, ok := ind.Fitness()
	if !ok {
		t.Fatal("Fitness after Evaluate: not ok")
	}
	if want := 1.0 / (1.0 + d1); f != want {
		t.Fatalf("Fitness = %v, want %v", f, want)
	}
}

func TestIndividualCloneIsIndependent(t *testing.T) {
	problem := testProblem(t, 5)
	original := NewRandomIndividual(rand.New(rand.NewSource(2)), 5)
	if err := original.Evaluate(problem); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	clone := original.Clone()
	cd, ok := clone.Distance()
	od, _ := original.Distance()
	if !ok || cd != od {
		t.Fatalf("clone distance = (%v, %v), want (%v, true)", cd, ok, od)
	}
	clone.tour[0], clone.tour[1] = clone.tour[1], clone.tour[0]
	if !original.Valid() {
		t.Fatal("mutating the clone corrupted the original")
	}
	if original.tourKey() == clone.tourKey() {
		t.Fatal("clone shares the tour backing array with the original")
	}
}
