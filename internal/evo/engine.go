package evo

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"tspevo/internal/model"
	"tspevo/internal/tsp"
)

// duplicateSweepInterval is how often (in generations) the full
// duplicate sweep runs regardless of the diversity threshold.
const duplicateSweepInterval = 50

var ErrNilProblem = errors.New("problem is required")

// Result accumulates the outcome of one run. BestDistance is a
// watermark: it never regresses across updates within a run.
type Result struct {
	BestTour     []int
	BestDistance float64
	History      []model.GenerationRecord
}

func newResult() *Result {
	return &Result{BestDistance: math.Inf(1)}
}

func (r *Result) updateBest(tour []int, distance float64) {
	if distance < r.BestDistance {
		r.BestTour = append([]int(nil), tour...)
		r.BestDistance = distance
	}
}

// Snapshot is the read-only per-generation view handed to callbacks.
// Tours and individuals are deep copies; mutating them has no effect
// on the engine.
type Snapshot struct {
	Generation      int
	BestTour        []int
	BestDistance    float64
	AverageDistance float64
	Population      []*Individual
	Diversity       DiversityMetrics
	Stagnation      int
}

// Callback observes one generation. A returned error is logged with
// generation context and never aborts the run.
type Callback func(Snapshot) error

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithCallback(cb Callback) Option {
	return func(e *Engine) { e.callbacks = append(e.callbacks, cb) }
}

// WithDiversityManager overrides the default manager, mainly for
// tuning thresholds.
func WithDiversityManager(m *DiversityManager) Option {
	return func(e *Engine) { e.diversity = m }
}

// Engine owns the problem, the validated config, the shared random
// stream and the diversity manager, and drives the generational loop.
// It is single-threaded; all randomness flows through one *rand.Rand
// so a fixed seed reproduces a run exactly.
type Engine struct {
	problem   *tsp.Problem
	cfg       Config
	rng       *rand.Rand
	mutation  MutationOperator
	diversity *DiversityManager
	logger    *slog.Logger
	callbacks []Callback
}

// NewEngine validates the config, resolves operator kinds and seeds
// the random stream. A zero seed falls back to the wall clock.
func NewEngine(problem *tsp.Problem, cfg Config, opts ...Option) (*Engine, error) {
	if problem == nil {
		return nil, ErrNilProblem
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mutation, err := cfg.mutation()
	if err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	e := &Engine{
		problem:   problem,
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(seed)),
		mutation:  mutation,
		diversity: NewDiversityManager(DefaultMinUniqueRatio, DefaultStagnationThreshold),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e, nil
}

// Run executes the generational loop until the generation cap or the
// stagnation-triggered early stop.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	pop, err := InitializePopulation(e.rng, e.problem, e.cfg)
	if err != nil {
		return nil, err
	}

	result := newResult()
	if best := pop.Best(); best != nil {
		if d, ok := best.Distance(); ok {
			result.updateBest(best.tour, d)
		}
	}

	for gen := 0; gen < e.cfg.MaxGenerations; gen++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		best := pop.Best()
		bestDistance, _ := best.Distance()
		avgDistance := pop.AverageDistance()
		metrics := e.diversity.Metrics(pop)

		result.updateBest(best.tour, bestDistance)
		e.diversity.UpdateStagnation(bestDistance)
		result.History = append(result.History, model.GenerationRecord{
			Generation:      gen,
			BestDistance:    bestDistance,
			AverageDistance: avgDistance,
			Diversity:       metrics.UniqueRatio,
		})

		e.notify(gen, best, bestDistance, avgDistance, pop, metrics)

		if e.diversity.StagnationLevel() > e.cfg.MaxGenerations/4 {
			break
		}

		if pop, err = e.diversity.MaintainDiversity(e.rng, pop, e.problem); err != nil {
			return nil, err
		}
		if pop, err = e.diversity.ApplyAdaptiveMechanisms(e.rng, pop, e.problem, e.mutation); err != nil {
			return nil, err
		}
		if pop, err = NextGeneration(e.rng, pop, e.problem, e.cfg); err != nil {
			return nil, err
		}
		if gen%duplicateSweepInterval == 0 {
			if err := pop.RemoveDuplicates(e.rng, e.problem); err != nil {
				return nil, err
			}
		}
	}

	if final := pop.Best(); final != nil {
		if d, ok := final.Distance(); ok {
			result.updateBest(final.tour, d)
		}
	}
	return result, nil
}

// notify invokes every callback with a deep-copied snapshot. Failures
// are captured per callback and logged; the run continues.
func (e *Engine) notify(gen int, best *Individual, bestDistance, avgDistance float64, pop *Population, metrics DiversityMetrics) {
	if len(e.callbacks) == 0 {
		return
	}

	populationCopy := make([]*Individual, pop.Size())
	for i, ind := range pop.individuals {
		populationCopy[i] = ind.Clone()
	}
	snapshot := Snapshot{
		Generation:      gen,
		BestTour:        best.Tour(),
		BestDistance:    bestDistance,
		AverageDistance: avgDistance,
		Population:      populationCopy,
		Diversity:       metrics,
		Stagnation:      e.diversity.StagnationLevel(),
	}

	for i, cb := range e.callbacks {
		if err := cb(snapshot); err != nil {
			e.logger.Warn("generation callback failed",
				"generation", gen,
				"callback", i,
				"error", err,
			)
		}
	}
}

// Run is the package entry point: build an engine for the problem and
// config, attach the callbacks, and execute it.
func Run(ctx context.Context, problem *tsp.Problem, cfg Config, callbacks ...Callback) (*Result, error) {
	opts := make([]Option, 0, len(callbacks))
	for _, cb := range callbacks {
		opts = append(opts, WithCallback(cb))
	}
	engine, err := NewEngine(problem, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return engine.Run(ctx)
}
