package model

// VersionedRecord captures schema evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
}

// RunConfig is the persisted shape of an engine configuration.
type RunConfig struct {
	Instance          string  `json:"instance"`
	PopulationSize    int     `json:"population_size"`
	Generations       int     `json:"generations"`
	SurvivorFraction  float64 `json:"survivor_fraction"`
	CrossoverFraction float64 `json:"crossover_fraction"`
	MutationFraction  float64 `json:"mutation_fraction"`
	Selection         string  `json:"selection"`
	Crossover         string  `json:"crossover"`
	Mutation          string  `json:"mutation"`
	Elitism           int     `json:"elitism"`
	TournamentSize    int     `json:"tournament_size"`
	Seed              int64   `json:"seed"`
}

// GenerationRecord is one row of a run's per-generation history.
type GenerationRecord struct {
	Generation      int     `json:"generation"`
	BestDistance    float64 `json:"best_distance"`
	AverageDistance float64 `json:"average_distance"`
	Diversity       float64 `json:"diversity"`
}

// RunRecord is the persisted outcome of one engine run.
type RunRecord struct {
	VersionedRecord
	RunID        string    `json:"run_id"`
	CreatedAtUTC string    `json:"created_at_utc"`
	Config       RunConfig `json:"config"`
	BestTour     []int     `json:"best_tour"`
	BestDistance float64   `json:"best_distance"`
	Generations  int       `json:"generations"`
}
