// Package tspevo is the embedding API for the evolutionary TSP solver:
// it wires instance loading, the engine, run persistence and artifact
// export behind one client.
package tspevo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"tspevo/internal/evo"
	"tspevo/internal/model"
	"tspevo/internal/stats"
	"tspevo/internal/storage"
	"tspevo/internal/tsp"
	"tspevo/internal/tsplib"
)

const (
	defaultBenchmarksDir = "benchmarks"
	defaultExportsDir    = "exports"
	defaultDBPath        = "tspevo.db"
)

type Options struct {
	StoreKind     string
	DBPath        string
	BenchmarksDir string
	ExportsDir    string
	Logger        *slog.Logger
}

type Client struct {
	store  storage.Store
	logger *slog.Logger

	benchmarksDir string
	exportsDir    string
}

// Coord is re-exported so callers can describe inline instances
// without importing internal packages.
type Coord = tsp.Coord

// ProgressUpdate is delivered once per generation while a run is in
// flight.
type ProgressUpdate struct {
	Generation      int
	BestDistance    float64
	AverageDistance float64
	Diversity       float64
	Stagnation      int
}

type RunRequest struct {
	// RunID is optional; an empty value generates one.
	RunID string

	// InstancePath points at a TSPLIB file. Coords is the inline
	// alternative; exactly one of the two must be set.
	InstancePath string
	Coords       []Coord
	// Name labels an inline instance. TSPLIB instances are named by
	// their NAME header.
	Name string

	Population  int
	Generations int

	SurvivorFraction  float64
	CrossoverFraction float64
	MutationFraction  float64

	Selection      string
	Crossover      string
	Mutation       string
	TournamentSize int
	Elitism        int
	Seed           int64

	OnProgress func(ProgressUpdate)
}

type RunSummary struct {
	RunID        string
	ArtifactsDir string
	Instance     string
	BestTour     []int
	BestDistance float64
	Generations  int
	// KnownOptimum and GapPercent are zero when no reference optimum
	// is on record for the instance.
	KnownOptimum float64
	GapPercent   float64
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID        string
	CreatedAtUTC string
	Instance     string
	Seed         int64
	Population   int
	Generations  int
	BestDistance float64
}

type HistoryRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type TourRequest struct {
	RunID  string
	Latest bool
}

type TourSummary struct {
	RunID        string
	Instance     string
	BestTour     []int
	BestDistance float64
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	benchmarksDir := opts.BenchmarksDir
	if benchmarksDir == "" {
		benchmarksDir = defaultBenchmarksDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:         store,
		logger:        logger,
		benchmarksDir: benchmarksDir,
		exportsDir:    exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	return c.store.Init(ctx)
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.Population <= 0 {
		req.Population = 100
	}
	if req.Generations <= 0 {
		req.Generations = 500
	}
	if req.SurvivorFraction == 0 && req.CrossoverFraction == 0 && req.MutationFraction == 0 {
		req.SurvivorFraction = 0.2
		req.CrossoverFraction = 0.6
		req.MutationFraction = 0.2
	}
	if req.Selection == "" {
		req.Selection = string(evo.SelectionTournament)
	}
	if req.Crossover == "" {
		req.Crossover = string(evo.CrossoverOX)
	}
	if req.Mutation == "" {
		req.Mutation = string(evo.MutationInversion)
	}

	problem, instanceName, err := loadProblem(req)
	if err != nil {
		return RunSummary{}, err
	}

	cfg := evo.Config{
		PopulationSize:    req.Population,
		MaxGenerations:    req.Generations,
		SurvivorFraction:  req.SurvivorFraction,
		CrossoverFraction: req.CrossoverFraction,
		MutationFraction:  req.MutationFraction,
		Selection:         evo.SelectionKind(req.Selection),
		Crossover:         evo.CrossoverKind(req.Crossover),
		Mutation:          evo.MutationKind(req.Mutation),
		TournamentSize:    req.TournamentSize,
		Elitism:           req.Elitism,
		Seed:              req.Seed,
	}

	engineOpts := []evo.Option{evo.WithLogger(c.logger)}
	if req.OnProgress != nil {
		onProgress := req.OnProgress
		engineOpts = append(engineOpts, evo.WithCallback(func(s evo.Snapshot) error {
			onProgress(ProgressUpdate{
				Generation:      s.Generation,
				BestDistance:    s.BestDistance,
				AverageDistance: s.AverageDistance,
				Diversity:       s.Diversity.UniqueRatio,
				Stagnation:      s.Stagnation,
			})
			return nil
		}))
	}

	engine, err := evo.NewEngine(problem, cfg, engineOpts...)
	if err != nil {
		return RunSummary{}, err
	}
	result, err := engine.Run(ctx)
	if err != nil {
		return RunSummary{}, err
	}

	runID := req.RunID
	if runID == "" {
		runID = fmt.Sprintf("%s-%s", instanceName, uuid.NewString()[:8])
	}
	now := time.Now().UTC()

	runConfig := model.RunConfig{
		Instance:          instanceName,
		PopulationSize:    req.Population,
		Generations:       req.Generations,
		SurvivorFraction:  req.SurvivorFraction,
		CrossoverFraction: req.CrossoverFraction,
		MutationFraction:  req.MutationFraction,
		Selection:         req.Selection,
		Crossover:         req.Crossover,
		Mutation:          req.Mutation,
		Elitism:           req.Elitism,
		TournamentSize:    req.TournamentSize,
		Seed:              req.Seed,
	}
	record := model.RunRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: storage.CurrentSchemaVersion},
		RunID:           runID,
		CreatedAtUTC:    now.Format(time.RFC3339Nano),
		Config:          runConfig,
		BestTour:        append([]int(nil), result.BestTour...),
		BestDistance:    result.BestDistance,
		Generations:     len(result.History),
	}
	if err := c.store.SaveRun(ctx, record); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveHistory(ctx, runID, result.History); err != nil {
		return RunSummary{}, err
	}

	optimum, hasOptimum := tsplib.KnownOptimum(instanceName)
	artifacts := stats.RunArtifacts{
		RunID:        runID,
		Config:       runConfig,
		History:      result.History,
		BestTour:     record.BestTour,
		BestDistance: result.BestDistance,
	}
	if hasOptimum {
		artifacts.KnownOptimum = optimum
	}
	runDir, err := stats.WriteRunArtifacts(c.benchmarksDir, artifacts)
	if err != nil {
		return RunSummary{}, err
	}

	indexEntry := stats.RunIndexEntry{
		RunID:          runID,
		Instance:       instanceName,
		PopulationSize: req.Population,
		Generations:    len(result.History),
		Seed:           req.Seed,
		BestDistance:   result.BestDistance,
		CreatedAtUTC:   record.CreatedAtUTC,
	}
	if hasOptimum {
		indexEntry.GapPercent = stats.GapPercent(result.BestDistance, optimum)
	}
	if err := stats.AppendRunIndex(c.benchmarksDir, indexEntry); err != nil {
		return RunSummary{}, err
	}

	summary := RunSummary{
		RunID:        runID,
		ArtifactsDir: filepath.Clean(runDir),
		Instance:     instanceName,
		BestTour:     append([]int(nil), result.BestTour...),
		BestDistance: result.BestDistance,
		Generations:  len(result.History),
	}
	if hasOptimum {
		summary.KnownOptimum = optimum
		summary.GapPercent = stats.GapPercent(result.BestDistance, optimum)
	}
	return summary, nil
}

func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	records, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) > req.Limit {
		records = records[:req.Limit]
	}

	out := make([]RunItem, 0, len(records))
	for _, record := range records {
		out = append(out, RunItem{
			RunID:        record.RunID,
			CreatedAtUTC: record.CreatedAtUTC,
			Instance:     record.Config.Instance,
			Seed:         record.Config.Seed,
			Population:   record.Config.PopulationSize,
			Generations:  record.Generations,
			BestDistance: record.BestDistance,
		})
	}
	return out, nil
}

func (c *Client) History(ctx context.Context, req HistoryRequest) ([]model.GenerationRecord, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest, "history")
	if err != nil {
		return nil, err
	}

	history, ok, err := c.store.GetHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("history not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(history) > req.Limit {
		history = history[:req.Limit]
	}
	return history, nil
}

func (c *Client) Tour(ctx context.Context, req TourRequest) (TourSummary, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest, "tour")
	if err != nil {
		return TourSummary{}, err
	}

	record, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return TourSummary{}, err
	}
	if !ok {
		return TourSummary{}, fmt.Errorf("run not found: %s", runID)
	}
	return TourSummary{
		RunID:        record.RunID,
		Instance:     record.Config.Instance,
		BestTour:     record.BestTour,
		BestDistance: record.BestDistance,
	}, nil
}

// Summary condenses a persisted run's history series.
func (c *Client) Summary(ctx context.Context, req HistoryRequest) (stats.HistorySummary, error) {
	history, err := c.History(ctx, HistoryRequest{RunID: req.RunID, Latest: req.Latest})
	if err != nil {
		return stats.HistorySummary{}, err
	}
	return stats.Summarize(history), nil
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	if req.RunID != "" && req.Latest {
		return ExportSummary{}, errors.New("use either run id or latest")
	}
	if req.RunID == "" && !req.Latest {
		return ExportSummary{}, errors.New("export requires run id or latest")
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	runID := req.RunID
	if req.Latest {
		entries, err := stats.ListRunIndex(c.benchmarksDir)
		if err != nil {
			return ExportSummary{}, err
		}
		if len(entries) == 0 {
			return ExportSummary{}, errors.New("no runs available to export")
		}
		runID = entries[0].RunID
	}

	exportedDir, err := stats.ExportRunArtifacts(c.benchmarksDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

func (c *Client) resolveRunID(runID string, latest bool, what string) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if latest {
		entries, err := stats.ListRunIndex(c.benchmarksDir)
		if err != nil {
			return "", err
		}
		if len(entries) == 0 {
			return "", errors.New("no runs available")
		}
		return entries[0].RunID, nil
	}
	if runID == "" {
		return "", fmt.Errorf("%s requires run id or latest", what)
	}
	return runID, nil
}

func loadProblem(req RunRequest) (*tsp.Problem, string, error) {
	switch {
	case req.InstancePath != "" && len(req.Coords) > 0:
		return nil, "", errors.New("use either an instance path or inline coordinates")
	case req.InstancePath != "":
		instance, err := tsplib.Load(req.InstancePath)
		if err != nil {
			return nil, "", err
		}
		problem, err := instance.Problem()
		if err != nil {
			return nil, "", err
		}
		name := instance.Name
		if name == "" {
			name = filepath.Base(req.InstancePath)
		}
		return problem, name, nil
	case len(req.Coords) > 0:
		problem, err := tsp.NewProblem(req.Coords)
		if err != nil {
			return nil, "", err
		}
		name := req.Name
		if name == "" {
			name = fmt.Sprintf("inline-%d", len(req.Coords))
		}
		return problem, name, nil
	default:
		return nil, "", errors.New("an instance path or inline coordinates are required")
	}
}
