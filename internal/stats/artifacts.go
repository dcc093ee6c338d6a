package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"tspevo/internal/model"
)

const runIndexFile = "run_index.json"

// RunArtifacts is everything a finished run writes to disk.
type RunArtifacts struct {
	RunID        string                   `json:"run_id"`
	Config       model.RunConfig          `json:"config"`
	History      []model.GenerationRecord `json:"history"`
	BestTour     []int                    `json:"best_tour"`
	BestDistance float64                  `json:"best_distance"`
	// KnownOptimum is zero when the instance has no reference optimum.
	KnownOptimum float64 `json:"known_optimum,omitempty"`
}

type RunIndexEntry struct {
	RunID          string  `json:"run_id"`
	Instance       string  `json:"instance"`
	PopulationSize int     `json:"population_size"`
	Generations    int     `json:"generations"`
	Seed           int64   `json:"seed"`
	BestDistance   float64 `json:"best_distance"`
	GapPercent     float64 `json:"gap_percent,omitempty"`
	CreatedAtUTC   string  `json:"created_at_utc"`
}

// HistorySummary condenses the per-generation best-distance series.
type HistorySummary struct {
	Generations  int     `json:"generations"`
	InitialBest  float64 `json:"initial_best"`
	FinalBest    float64 `json:"final_best"`
	BestMean     float64 `json:"best_mean"`
	BestStd      float64 `json:"best_std"`
	Improvement  float64 `json:"improvement"`
	AvgDiversity float64 `json:"avg_diversity"`
}

// WriteRunArtifacts writes config.json, history.json, history.csv and
// best_tour.json into <baseDir>/<runID> and returns the run directory.
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.RunID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "config.json"), artifacts.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "history.json"), artifacts.History); err != nil {
		return "", err
	}
	if err := WriteHistoryCSV(runDir, artifacts.History); err != nil {
		return "", err
	}
	best := map[string]any{
		"best_tour":     artifacts.BestTour,
		"best_distance": artifacts.BestDistance,
	}
	if artifacts.KnownOptimum > 0 {
		best["known_optimum"] = artifacts.KnownOptimum
		best["gap_percent"] = GapPercent(artifacts.BestDistance, artifacts.KnownOptimum)
	}
	if err := writeJSON(filepath.Join(runDir, "best_tour.json"), best); err != nil {
		return "", err
	}

	return runDir, nil
}

// GapPercent is how far a distance sits above a known optimum, as a
// percentage of the optimum.
func GapPercent(distance, optimum float64) float64 {
	if optimum <= 0 {
		return 0
	}
	return (distance - optimum) / optimum * 100
}

// AppendRunIndex inserts or updates one entry in the shared run index.
func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns the run index entries, newest first. A missing
// index reads as empty.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	path := filepath.Join(baseDir, runIndexFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Prefer later appended entries for equal timestamps.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

// ReadRunConfig loads <baseDir>/<runID>/config.json.
func ReadRunConfig(baseDir, runID string) (model.RunConfig, bool, error) {
	path := filepath.Join(baseDir, runID, "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.RunConfig{}, false, nil
		}
		return model.RunConfig{}, false, err
	}

	var cfg model.RunConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return model.RunConfig{}, false, err
	}
	return cfg, true, nil
}

// ReadHistory loads <baseDir>/<runID>/history.json.
func ReadHistory(baseDir, runID string) ([]model.GenerationRecord, bool, error) {
	path := filepath.Join(baseDir, runID, "history.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var history []model.GenerationRecord
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, false, err
	}
	return history, true, nil
}

// ExportRunArtifacts copies a run directory's files into outDir.
func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	files := []string{"config.json", "history.json", "history.csv", "best_tour.json"}
	for _, file := range files {
		srcPath := filepath.Join(src, file)
		if _, err := os.Stat(srcPath); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", err
		}
		if err := copyFile(srcPath, filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	return dst, nil
}

// Summarize condenses a history series. A nil or empty history yields
// a zero summary.
func Summarize(history []model.GenerationRecord) HistorySummary {
	if len(history) == 0 {
		return HistorySummary{}
	}

	best := make([]float64, len(history))
	diversity := make([]float64, len(history))
	for i, rec := range history {
		best[i] = rec.BestDistance
		diversity[i] = rec.Diversity
	}

	summary := HistorySummary{
		Generations:  len(history),
		InitialBest:  best[0],
		FinalBest:    best[len(best)-1],
		BestMean:     stat.Mean(best, nil),
		AvgDiversity: stat.Mean(diversity, nil),
	}
	if len(best) > 1 {
		summary.BestStd = math.Sqrt(stat.PopVariance(best, nil))
	}
	summary.Improvement = summary.InitialBest - summary.FinalBest
	return summary
}

// WriteHistoryCSV writes the generation history as history.csv in the
// run directory.
func WriteHistoryCSV(runDir string, history []model.GenerationRecord) error {
	path := filepath.Join(runDir, "history.csv")
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"generation", "best_distance", "average_distance", "diversity"}); err != nil {
		return err
	}
	for _, rec := range history {
		if err := writer.Write([]string{
			strconv.Itoa(rec.Generation),
			strconv.FormatFloat(rec.BestDistance, 'f', -1, 64),
			strconv.FormatFloat(rec.AverageDistance, 'f', -1, 64),
			strconv.FormatFloat(rec.Diversity, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadHistoryCSV reads history.csv back into generation records.
func ReadHistoryCSV(baseDir, runID string) ([]model.GenerationRecord, bool, error) {
	path := filepath.Join(baseDir, runID, "history.csv")
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []model.GenerationRecord{}, true, nil
		}
		return nil, false, err
	}
	if len(header) < 4 {
		return nil, false, fmt.Errorf("history header must have at least 4 columns")
	}

	history := make([]model.GenerationRecord, 0, 128)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		if len(record) < 4 {
			return nil, false, fmt.Errorf("history row must have at least 4 columns")
		}
		generation, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, false, err
		}
		bestDistance, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, false, err
		}
		avgDistance, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, false, err
		}
		diversity, err := strconv.ParseFloat(record[3], 64)
		if err != nil {
			return nil, false, err
		}
		history = append(history, model.GenerationRecord{
			Generation:      generation,
			BestDistance:    bestDistance,
			AverageDistance: avgDistance,
			Diversity:       diversity,
		})
	}
	return history, true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
