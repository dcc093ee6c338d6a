package tsp

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrNoCities      = errors.New("problem needs at least one city")
	ErrNotSquare     = errors.New("distance matrix must be square")
	ErrNotSymmetric  = errors.New("distance matrix must be symmetric")
	ErrNegativeEdge  = errors.New("distance matrix must be non-negative")
	ErrDiagonalEdge  = errors.New("distance matrix diagonal must be zero")
	ErrTourLength    = errors.New("tour length does not match problem size")
	ErrTourCityRange = errors.New("tour contains a city outside the problem")
)

// Coord is a 2-D city position.
type Coord struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Problem is a symmetric distance oracle over a fixed city set.
// It is immutable after construction.
type Problem struct {
	n      int
	coords []Coord
	dist   [][]float64
}

// NewProblem builds a problem from 2-D coordinates. Pairwise distances
// follow the TSPLIB EUC_2D convention: Euclidean distance rounded to
// the nearest integer.
func NewProblem(coords []Coord) (*Problem, error) {
	if len(coords) == 0 {
		return nil, ErrNoCities
	}
	n := len(coords)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dx := coords[j].X - coords[i].X
			dy := coords[j].Y - coords[i].Y
			d := math.Round(math.Sqrt(dx*dx + dy*dy))
			dist[i][j] = d
			dist[j][i] = d
		}
	}
	return &Problem{
		n:      n,
		coords: append([]Coord(nil), coords...),
		dist:   dist,
	}, nil
}

// NewProblemFromMatrix builds a problem from a precomputed distance
// matrix. The matrix must be square, symmetric, non-negative and zero
// on the diagonal; it is copied, not retained.
func NewProblemFromMatrix(dist [][]float64) (*Problem, error) {
	if len(dist) == 0 {
		return nil, ErrNoCities
	}
	n := len(dist)
	copied := make([][]float64, n)
	for i, row := range dist {
		if len(row) != n {
			return nil, fmt.Errorf("%w: row %d has %d entries, want %d", ErrNotSquare, i, len(row), n)
		}
		copied[i] = append([]float64(nil), row...)
	}
	for i := 0; i < n; i++ {
		if copied[i][i] != 0 {
			return nil, fmt.Errorf("%w: dist[%d][%d] = %v", ErrDiagonalEdge, i, i, copied[i][i])
		}
		for j := 0; j < n; j++ {
			if copied[i][j] < 0 {
				return nil, fmt.Errorf("%w: dist[%d][%d] = %v", ErrNegativeEdge, i, j, copied[i][j])
			}
			if copied[i][j] != copied[j][i] {
				return nil, fmt.Errorf("%w: dist[%d][%d] != dist[%d][%d]", ErrNotSymmetric, i, j, j, i)
			}
		}
	}
	return &Problem{n: n, dist: copied}, nil
}

// Size returns the number of cities.
func (p *Problem) Size() int {
	return p.n
}

// Coords returns a copy of the city coordinates, or nil when the
// problem was built from a matrix.
func (p *Problem) Coords() []Coord {
	if p.coords == nil {
		return nil
	}
	return append([]Coord(nil), p.coords...)
}

// Distance returns the distance between two cities in O(1).
func (p *Problem) Distance(i, j int) float64 {
	return p.dist[i][j]
}

// TourDistance sums the edges of a closed tour, including the wrap
// edge from the last city back to the first.
func (p *Problem) TourDistance(tour []int) (float64, error) {
	if len(tour) != p.n {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrTourLength, len(tour), p.n)
	}
	total := 0.0
	for i, city := range tour {
		if city < 0 || city >= p.n {
			return 0, fmt.Errorf("%w: city %d at position %d", ErrTourCityRange, city, i)
		}
		next := tour[(i+1)%p.n]
		if next < 0 || next >= p.n {
			return 0, fmt.Errorf("%w: city %d at position %d", ErrTourCityRange, next, (i+1)%p.n)
		}
		total += p.dist[city][next]
	}
	return total, nil
}

// NearestNeighborTour builds a greedy tour that always moves to the
// closest unvisited city, starting from the given city.
func NearestNeighborTour(p *Problem, start int) ([]int, error) {
	if start < 0 || start >= p.n {
		return nil, fmt.Errorf("%w: start city %d", ErrTourCityRange, start)
	}
	tour := make([]int, 0, p.n)
	tour = append(tour, start)
	visited := make([]bool, p.n)
	visited[start] = true

	current := start
	for len(tour) < p.n {
		next := -1
		best := math.Inf(1)
		for city := 0; city < p.n; city++ {
			if visited[city] {
				continue
			}
			if d := p.dist[current][city]; d < best {
				best = d
				next = city
			}
		}
		tour = append(tour, next)
		visited[next] = true
		current = next
	}
	return tour, nil
}
