package evo

import (
	"context"
	"errors"
	"testing"
)

func TestEngineRunEightCities(t *testing.T) {
	problem := testProblem(t, 8)
	cfg := testConfig(50)

	result, err := Run(context.Background(), problem, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.BestTour) != 8 {
		t.Fatalf("best tour length = %d, want 8", len(result.BestTour))
	}
	best, err := NewIndividual(result.BestTour)
	if err != nil {
		t.Fatalf("best tour is not a permutation: %v", err)
	}
	if err := best.Evaluate(problem); err != nil {
		t.Fatalf("Evaluate best tour: %v", err)
	}
	if d, _ := best.Distance(); d != result.BestDistance {
		t.Fatalf("reported distance %v does not match tour distance %v", result.BestDistance, d)
	}

	// Eight cities on a circle: 100 generations find the circular
	// optimum every time.
	optimal, err := problem.TourDistance([]int{0, 1, 2, 3, 4, 5, 6, 7})
	if err != nil {
		t.Fatalf("TourDistance: %v", err)
	}
	if result.BestDistance != optimal {
		t.Fatalf("best distance %v, optimum is %v", result.BestDistance, optimal)
	}
}

func TestEngineDeterministicWithSeed(t *testing.T) {
	problem := testProblem(t, 10)
	cfg := testConfig(30)
	cfg.Seed = 1234

	first, err := Run(context.Background(), problem, cfg)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	second, err := Run(context.Background(), problem, cfg)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}

	if first.BestDistance != second.BestDistance {
		t.Fatalf("seeded runs diverged: %v vs %v", first.BestDistance, second.BestDistance)
	}
	if len(first.History) != len(second.History) {
		t.Fatalf("seeded runs recorded %d vs %d generations", len(first.History), len(second.History))
	}
	for i := range first.History {
		if first.History[i] != second.History[i] {
			t.Fatalf("history diverged at generation %d: %+v vs %+v", i, first.History[i], second.History[i])
		}
	}
}

func TestEngineBestIsWatermark(t *testing.T) {
	problem := testProblem(t, 12)
	cfg := testConfig(40)
	cfg.Seed = 7

	result, err := Run(context.Background(), problem, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.History) == 0 {
		t.Fatal("empty history")
	}

	watermark := result.History[0].BestDistance
	for _, rec := range result.History {
		if rec.BestDistance < watermark {
			watermark = rec.BestDistance
		}
	}
	if result.BestDistance > watermark {
		t.Fatalf("final best %v worse than history watermark %v", result.BestDistance, watermark)
	}
	for i, rec := range result.History {
		if rec.Generation != i {
			t.Fatalf("history generation %d recorded as %d", i, rec.Generation)
		}
		if rec.Diversity < 0 || rec.Diversity > 1 {
			t.Fatalf("generation %d diversity out of range: %v", i, rec.Diversity)
		}
	}
}

func TestEngineCallbackObservesEveryGeneration(t *testing.T) {
	problem := testProblem(t, 8)
	cfg := testConfig(20)
	cfg.MaxGenerations = 15

	var snapshots []Snapshot
	result, err := Run(context.Background(), problem, cfg, func(s Snapshot) error {
		snapshots = append(snapshots, s)
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(snapshots) != len(result.History) {
		t.Fatalf("callback saw %d generations, history has %d", len(snapshots), len(result.History))
	}
	for i, s := range snapshots {
		if s.Generation != i {
			t.Fatalf("snapshot %d reports generation %d", i, s.Generation)
		}
		if len(s.Population) != cfg.PopulationSize {
			t.Fatalf("snapshot %d population size = %d", i, len(s.Population))
		}
		if s.BestDistance != result.History[i].BestDistance {
			t.Fatalf("snapshot %d best %v, history says %v", i, s.BestDistance, result.History[i].BestDistance)
		}
	}
}

func TestEngineCallbackFailureDoesNotAbort(t *testing.T) {
	problem := testProblem(t, 8)
	cfg := testConfig(20)
	cfg.MaxGenerations = 10

	calls := 0
	result, err := Run(context.Background(), problem, cfg, func(Snapshot) error {
		calls++
		return errors.New("observer exploded")
	})
	if err != nil {
		t.Fatalf("Run aborted on callback failure: %v", err)
	}
	if calls != len(result.History) {
		t.Fatalf("failing callback invoked %d times, history has %d generations", calls, len(result.History))
	}
}

func TestEngineStopsOnCancelledContext(t *testing.T) {
	problem := testProblem(t, 8)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Run(ctx, problem, testConfig(20)); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestEngineEarlyStopOnStagnation(t *testing.T) {
	problem := testProblem(t, 6)
	cfg := testConfig(30)
	cfg.MaxGenerations = 160
	cfg.Seed = 99

	result, err := Run(context.Background(), problem, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Six cities converge almost immediately; the stagnation guard
	// (a quarter of the generation cap) must cut the run well short.
	if len(result.History) >= cfg.MaxGenerations {
		t.Fatalf("run used all %d generations despite stagnation", len(result.History))
	}
}

func TestNewEngineRejectsBadInput(t *testing.T) {
	problem := testProblem(t, 6)

	if _, err := NewEngine(nil, testConfig(10)); !errors.Is(err, ErrNilProblem) {
		t.Fatalf("nil problem: want ErrNilProblem, got %v", err)
	}

	cfg := testConfig(10)
	cfg.Crossover = "edge"
	if _, err := NewEngine(problem, cfg); !errors.Is(err, ErrUnknownCrossover) {
		t.Fatalf("bad crossover: want ErrUnknownCrossover, got %v", err)
	}
}

func TestElitismPreservesBestAcrossGenerations(t *testing.T) {
	problem := testProblem(t, 10)
	cfg := testConfig(30)
	cfg.Seed = 5

	var previousBest float64
	_, err := Run(context.Background(), problem, cfg, func(s Snapshot) error {
		if s.Generation > 0 && s.BestDistance > previousBest {
			t.Errorf("generation %d best %v regressed from %v", s.Generation, s.BestDistance, previousBest)
		}
		previousBest = s.BestDistance
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
}
