package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"tspevo/internal/storage"
	"tspevo/internal/tsplib"
	"tspevo/pkg/tspevo"
)

const benchmarksDir = "benchmarks"

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "history":
		return runHistory(ctx, args[1:])
	case "tour":
		return runTour(ctx, args[1:])
	case "summary":
		return runSummary(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "instance":
		return runInstance(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "tspevo.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := tspevo.New(tspevo.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Init(ctx); err != nil {
		return err
	}
	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional run config JSON path (explicit flags override)")
	instancePath := fs.String("instance", "", "TSPLIB instance file (EUC_2D)")
	runID := fs.String("run-id", "", "run id (default: derived from instance name)")
	population := fs.Int("pop", 100, "population size")
	generations := fs.Int("gens", 500, "generation cap")
	survivorFraction := fs.Float64("survivor-fraction", 0.2, "fraction of the next generation kept as survivors")
	crossoverFraction := fs.Float64("crossover-fraction", 0.6, "fraction built by crossover")
	mutationFraction := fs.Float64("mutation-fraction", 0.2, "fraction built by mutation")
	selection := fs.String("selection", "tournament", "selection: tournament|rank")
	crossover := fs.String("crossover", "OX", "crossover: OX|PMX")
	mutation := fs.String("mutation", "inversion", "mutation: swap|inversion|scramble")
	tournamentSize := fs.Int("tournament-size", 3, "tournament size for tournament selection")
	elitism := fs.Int("elitism", 2, "elites copied unchanged into the next generation")
	seed := fs.Int64("seed", 0, "rng seed (0 seeds from the wall clock)")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "tspevo.db", "sqlite database path")
	progressEvery := fs.Int("progress-every", 50, "print progress every N generations (<=0 disables)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	req, err := loadOrDefaultRunRequest(*configPath)
	if err != nil {
		return err
	}
	if *configPath == "" {
		req = tspevo.RunRequest{
			RunID:             *runID,
			InstancePath:      *instancePath,
			Population:        *population,
			Generations:       *generations,
			SurvivorFraction:  *survivorFraction,
			CrossoverFraction: *crossoverFraction,
			MutationFraction:  *mutationFraction,
			Selection:         *selection,
			Crossover:         *crossover,
			Mutation:          *mutation,
			TournamentSize:    *tournamentSize,
			Elitism:           *elitism,
			Seed:              *seed,
		}
	} else {
		overrideFromFlags(&req, setFlags, map[string]any{
			"run-id":             *runID,
			"instance":           *instancePath,
			"pop":                *population,
			"gens":               *generations,
			"survivor-fraction":  *survivorFraction,
			"crossover-fraction": *crossoverFraction,
			"mutation-fraction":  *mutationFraction,
			"selection":          *selection,
			"crossover":          *crossover,
			"mutation":           *mutation,
			"tournament-size":    *tournamentSize,
			"elitism":            *elitism,
			"seed":               *seed,
		})
	}
	if req.InstancePath == "" {
		return usageError("run requires -instance (flag or config)")
	}

	client, err := tspevo.New(tspevo.Options{
		StoreKind:     *storeKind,
		DBPath:        *dbPath,
		BenchmarksDir: benchmarksDir,
	})
	if err != nil {
		return err
	}
	defer client.Close()
	if err := client.Init(ctx); err != nil {
		return err
	}

	if *progressEvery > 0 {
		every := *progressEvery
		req.OnProgress = func(u tspevo.ProgressUpdate) {
			if u.Generation%every != 0 {
				return
			}
			fmt.Printf("generation=%d best_distance=%.2f avg_distance=%.2f diversity=%.3f stagnation=%d\n",
				u.Generation, u.BestDistance, u.AverageDistance, u.Diversity, u.Stagnation)
		}
	}

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}

	evaluations := int64(summary.Generations) * int64(req.Population)
	fmt.Printf("run completed run_id=%s instance=%s pop=%d gens=%d seed=%d evaluations=%s\n",
		summary.RunID, summary.Instance, req.Population, summary.Generations, req.Seed, humanize.Comma(evaluations))
	fmt.Printf("best_distance=%.2f\n", summary.BestDistance)
	if summary.KnownOptimum > 0 {
		fmt.Printf("known_optimum=%.2f gap=%.2f%%\n", summary.KnownOptimum, summary.GapPercent)
	}
	fmt.Printf("best_tour=%s\n", formatTour(summary.BestTour))
	fmt.Printf("artifacts_dir=%s\n", filepath.Clean(summary.ArtifactsDir))
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to print")
	jsonOut := fs.Bool("json", false, "emit runs as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "tspevo.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := tspevo.New(tspevo.Options{
		StoreKind:     *storeKind,
		DBPath:        *dbPath,
		BenchmarksDir: benchmarksDir,
	})
	if err != nil {
		return err
	}
	defer client.Close()
	if err := client.Init(ctx); err != nil {
		return err
	}

	runs, err := client.Runs(ctx, tspevo.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(runs)
	}
	for _, item := range runs {
		fmt.Printf("run_id=%s created_at=%s instance=%s seed=%d pop=%d gens=%d best_distance=%.2f\n",
			item.RunID, item.CreatedAtUTC, item.Instance, item.Seed, item.Population, item.Generations, item.BestDistance)
	}
	return nil
}

func runHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show history for the most recent run")
	limit := fs.Int("limit", 50, "max generations to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit history as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "tspevo.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := tspevo.New(tspevo.Options{
		StoreKind:     *storeKind,
		DBPath:        *dbPath,
		BenchmarksDir: benchmarksDir,
	})
	if err != nil {
		return err
	}
	defer client.Close()
	if err := client.Init(ctx); err != nil {
		return err
	}

	history, err := client.History(ctx, tspevo.HistoryRequest{RunID: *runID, Latest: *latest, Limit: max(*limit, 0)})
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(history)
	}
	for _, rec := range history {
		fmt.Printf("generation=%d best_distance=%.2f avg_distance=%.2f diversity=%.3f\n",
			rec.Generation, rec.BestDistance, rec.AverageDistance, rec.Diversity)
	}
	return nil
}

func runTour(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tour", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show the best tour for the most recent run")
	jsonOut := fs.Bool("json", false, "emit the tour as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "tspevo.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := tspevo.New(tspevo.Options{
		StoreKind:     *storeKind,
		DBPath:        *dbPath,
		BenchmarksDir: benchmarksDir,
	})
	if err != nil {
		return err
	}
	defer client.Close()
	if err := client.Init(ctx); err != nil {
		return err
	}

	tour, err := client.Tour(ctx, tspevo.TourRequest{RunID: *runID, Latest: *latest})
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(tour)
	}
	fmt.Printf("run_id=%s instance=%s best_distance=%.2f\n", tour.RunID, tour.Instance, tour.BestDistance)
	fmt.Printf("best_tour=%s\n", formatTour(tour.BestTour))
	return nil
}

func runSummary(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "summarize the most recent run")
	jsonOut := fs.Bool("json", false, "emit the summary as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "tspevo.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := tspevo.New(tspevo.Options{
		StoreKind:     *storeKind,
		DBPath:        *dbPath,
		BenchmarksDir: benchmarksDir,
	})
	if err != nil {
		return err
	}
	defer client.Close()
	if err := client.Init(ctx); err != nil {
		return err
	}

	summary, err := client.Summary(ctx, tspevo.HistoryRequest{RunID: *runID, Latest: *latest})
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(summary)
	}
	fmt.Printf("generations=%d initial_best=%.2f final_best=%.2f mean_best=%.2f std_best=%.2f improvement=%.2f avg_diversity=%.3f\n",
		summary.Generations, summary.InitialBest, summary.FinalBest, summary.BestMean, summary.BestStd, summary.Improvement, summary.AvgDiversity)
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "export the most recent run")
	outDir := fs.String("out", "exports", "export destination directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := tspevo.New(tspevo.Options{
		StoreKind:     "memory",
		BenchmarksDir: benchmarksDir,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	exported, err := client.Export(ctx, tspevo.ExportRequest{RunID: *runID, Latest: *latest, OutDir: *outDir})
	if err != nil {
		return err
	}
	fmt.Printf("exported run_id=%s to=%s\n", exported.RunID, filepath.Clean(exported.Directory))
	return nil
}

func runInstance(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("instance", flag.ContinueOnError)
	instancePath := fs.String("instance", "", "TSPLIB instance file")
	jsonOut := fs.Bool("json", false, "emit instance details as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *instancePath == "" {
		return usageError("instance requires -instance")
	}

	instance, err := tsplib.Load(*instancePath)
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(instance)
	}
	fmt.Printf("name=%s type=%s dimension=%s edge_weight_type=%s\n",
		instance.Name, instance.Type, humanize.Comma(int64(instance.Dimension)), instance.EdgeWeightType)
	if optimum, ok := tsplib.KnownOptimum(instance.Name); ok {
		fmt.Printf("known_optimum=%.0f\n", optimum)
	}
	return nil
}

func formatTour(tour []int) string {
	parts := make([]string, len(tour))
	for i, city := range tour {
		parts[i] = fmt.Sprintf("%d", city)
	}
	return strings.Join(parts, "->")
}

func printJSON(value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: tspevoctl <init|run|runs|history|tour|summary|export|instance> [flags]", msg)
}
