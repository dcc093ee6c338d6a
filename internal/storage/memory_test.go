package storage

import (
	"context"
	"testing"

	"tspevo/internal/model"
)

func testRun(id, createdAt string) model.RunRecord {
	return model.RunRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion},
		RunID:           id,
		CreatedAtUTC:    createdAt,
		Config: model.RunConfig{
			Instance:       "berlin52",
			PopulationSize: 100,
			Generations:    500,
			Selection:      "tournament",
			Crossover:      "OX",
			Mutation:       "inversion",
		},
		BestTour:     []int{0, 2, 1, 3},
		BestDistance: 1234.0,
		Generations:  500,
	}
}

func TestMemoryStoreRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	if err := store.SaveRun(ctx, testRun("run-1", "2026-08-27T10:00:00Z")); err != nil {
		t.Fatalf("save run: %v", err)
	}

	run, ok, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted run")
	}
	if run.BestDistance != 1234.0 || len(run.BestTour) != 4 {
		t.Fatalf("unexpected run: %+v", run)
	}

	if _, ok, err := store.GetRun(ctx, "missing"); err != nil || ok {
		t.Fatalf("missing run: ok=%v err=%v", ok, err)
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	if err := store.SaveRun(ctx, testRun("run-1", "2026-08-27T10:00:00Z")); err != nil {
		t.Fatalf("save run: %v", err)
	}
	first, _, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	first.BestTour[0] = 99

	second, _, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("second get run: %v", err)
	}
	if second.BestTour[0] != 0 {
		t.Fatal("stored tour mutated through a returned copy")
	}
}

func TestMemoryStoreListRunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	for _, run := range []model.RunRecord{
		testRun("run-old", "2026-08-25T10:00:00Z"),
		testRun("run-new", "2026-08-27T10:00:00Z"),
		testRun("run-mid", "2026-08-26T10:00:00Z"),
	} {
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("save run %s: %v", run.RunID, err)
		}
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("run count = %d, want 3", len(runs))
	}
	want := []string{"run-new", "run-mid", "run-old"}
	for i, id := range want {
		if runs[i].RunID != id {
			t.Fatalf("runs[%d] = %s, want %s", i, runs[i].RunID, id)
		}
	}
}

func TestMemoryStoreHistoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	input := []model.GenerationRecord{
		{Generation: 0, BestDistance: 2000, AverageDistance: 2400, Diversity: 0.9},
		{Generation: 1, BestDistance: 1800, AverageDistance: 2200, Diversity: 0.85},
	}
	if err := store.SaveHistory(ctx, "run-1", input); err != nil {
		t.Fatalf("save history: %v", err)
	}

	output, ok, err := store.GetHistory(ctx, "run-1")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted history")
	}
	if len(output) != 2 || output[1].BestDistance != 1800 {
		t.Fatalf("unexpected history: %+v", output)
	}

	if _, ok, err := store.GetHistory(ctx, "missing"); err != nil || ok {
		t.Fatalf("missing history: ok=%v err=%v", ok, err)
	}
}
