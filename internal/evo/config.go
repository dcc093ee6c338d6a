package evo

import (
	"errors"
	"fmt"
	"math"
)

// Closed operator kinds, validated once at config construction.
type (
	SelectionKind string
	CrossoverKind string
	MutationKind  string
)

const (
	SelectionTournament SelectionKind = "tournament"
	SelectionRank       SelectionKind = "rank"

	CrossoverOX  CrossoverKind = "OX"
	CrossoverPMX CrossoverKind = "PMX"

	MutationSwap      MutationKind = "swap"
	MutationInversion MutationKind = "inversion"
	MutationScramble  MutationKind = "scramble"
)

// fractionSumTolerance bounds how far the three population fractions
// may drift from 1.0.
const fractionSumTolerance = 0.01

var (
	ErrUnknownSelection = errors.New("unknown selection kind")
	ErrUnknownCrossover = errors.New("unknown crossover kind")
	ErrUnknownMutation  = errors.New("unknown mutation kind")
)

// Config holds the engine parameters. Validate it once with Validate
// (NewEngine does so) and treat it as immutable afterwards.
type Config struct {
	PopulationSize int
	MaxGenerations int

	// Fractions of the next generation built from survivors,
	// crossover offspring and mutation offspring. Must sum to ~1.0.
	SurvivorFraction  float64
	CrossoverFraction float64
	MutationFraction  float64

	Selection SelectionKind
	Crossover CrossoverKind
	Mutation  MutationKind

	// TournamentSize applies to tournament selection only; zero means
	// the default of 3.
	TournamentSize int

	Elitism int

	// Seed for the shared pseudo-random stream. Zero seeds from the
	// wall clock, which forfeits reproducibility.
	Seed int64
}

// Validate checks the configuration. Operator kinds are resolved here
// once; an unrecognized kind never reaches the generational loop.
func (cfg Config) Validate() error {
	if cfg.PopulationSize <= 0 {
		return fmt.Errorf("population size must be > 0, got %d", cfg.PopulationSize)
	}
	if cfg.MaxGenerations <= 0 {
		return fmt.Errorf("max generations must be > 0, got %d", cfg.MaxGenerations)
	}
	if cfg.SurvivorFraction < 0 || cfg.CrossoverFraction < 0 || cfg.MutationFraction < 0 {
		return errors.New("population fractions must be >= 0")
	}
	total := cfg.SurvivorFraction + cfg.CrossoverFraction + cfg.MutationFraction
	if math.Abs(total-1.0) > fractionSumTolerance {
		return fmt.Errorf("population fractions must sum to ~1.0, got %v", total)
	}
	if cfg.Elitism < 0 {
		return fmt.Errorf("elitism must be >= 0, got %d", cfg.Elitism)
	}
	if cfg.TournamentSize < 0 {
		return fmt.Errorf("tournament size must be >= 0, got %d", cfg.TournamentSize)
	}
	if _, err := cfg.selector(); err != nil {
		return err
	}
	if _, err := cfg.crossover(); err != nil {
		return err
	}
	if _, err := cfg.mutation(); err != nil {
		return err
	}
	return nil
}

// Integer counts for the three next-generation components. The
// mutation count absorbs rounding so the three sum to at least
// PopulationSize; NextGeneration truncates the assembled slice back to
// size. Fraction sums slightly over 1.0 are within Validate's
// tolerance, so the mutation count clamps at zero rather than going
// negative.
func (cfg Config) numSurvivors() int {
	return int(float64(cfg.PopulationSize) * cfg.SurvivorFraction)
}

func (cfg Config) numCrossover() int {
	return int(float64(cfg.PopulationSize) * cfg.CrossoverFraction)
}

func (cfg Config) numMutation() int {
	num := cfg.PopulationSize - cfg.numSurvivors() - cfg.numCrossover()
	if num < 0 {
		return 0
	}
	return num
}

func (cfg Config) selector() (Selector, error) {
	switch cfg.Selection {
	case SelectionTournament:
		return TournamentSelector{Size: cfg.TournamentSize}, nil
	case SelectionRank:
		return RankSelector{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSelection, cfg.Selection)
	}
}

func (cfg Config) crossover() (CrossoverOperator, error) {
	switch cfg.Crossover {
	case CrossoverOX:
		return OrderCrossover{}, nil
	case CrossoverPMX:
		return PartiallyMappedCrossover{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCrossover, cfg.Crossover)
	}
}

func (cfg Config) mutation() (MutationOperator, error) {
	switch cfg.Mutation {
	case MutationSwap:
		return SwapMutation{}, nil
	case MutationInversion:
		return InversionMutation{}, nil
	case MutationScramble:
		return ScrambleMutation{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMutation, cfg.Mutation)
	}
}
