package main

import (
	"encoding/json"
	"fmt"
	"os"

	"tspevo/pkg/tspevo"
)

func loadOrDefaultRunRequest(configPath string) (tspevo.RunRequest, error) {
	if configPath == "" {
		return tspevo.RunRequest{}, nil
	}
	req, err := loadRunRequestFromConfig(configPath)
	if err != nil {
		return tspevo.RunRequest{}, fmt.Errorf("load config: %w", err)
	}
	return req, nil
}

func loadRunRequestFromConfig(path string) (tspevo.RunRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tspevo.RunRequest{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return tspevo.RunRequest{}, err
	}

	var req tspevo.RunRequest
	if v, ok := asString(raw["run_id"]); ok {
		req.RunID = v
	}
	if v, ok := asString(raw["instance"]); ok {
		req.InstancePath = v
	}
	if v, ok := asInt(raw["population"]); ok {
		req.Population = v
	}
	if v, ok := asInt(raw["generations"]); ok {
		req.Generations = v
	}
	if v, ok := asFloat64(raw["survivor_fraction"]); ok {
		req.SurvivorFraction = v
	}
	if v, ok := asFloat64(raw["crossover_fraction"]); ok {
		req.CrossoverFraction = v
	}
	if v, ok := asFloat64(raw["mutation_fraction"]); ok {
		req.MutationFraction = v
	}
	if v, ok := asString(raw["selection"]); ok {
		req.Selection = v
	}
	if v, ok := asString(raw["crossover"]); ok {
		req.Crossover = v
	}
	if v, ok := asString(raw["mutation"]); ok {
		req.Mutation = v
	}
	if v, ok := asInt(raw["tournament_size"]); ok {
		req.TournamentSize = v
	}
	if v, ok := asInt(raw["elitism"]); ok {
		req.Elitism = v
	}
	if v, ok := asInt64(raw["seed"]); ok {
		req.Seed = v
	}
	return req, nil
}

func overrideFromFlags(req *tspevo.RunRequest, set map[string]bool, flagValue map[string]any) {
	for name := range set {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		switch name {
		case "run-id":
			req.RunID = v.(string)
		case "instance":
			req.InstancePath = v.(string)
		case "pop":
			req.Population = v.(int)
		case "gens":
			req.Generations = v.(int)
		case "survivor-fraction":
			req.SurvivorFraction = v.(float64)
		case "crossover-fraction":
			req.CrossoverFraction = v.(float64)
		case "mutation-fraction":
			req.MutationFraction = v.(float64)
		case "selection":
			req.Selection = v.(string)
		case "crossover":
			req.Crossover = v.(string)
		case "mutation":
			req.Mutation = v.(string)
		case "tournament-size":
			req.TournamentSize = v.(int)
		case "elitism":
			req.Elitism = v.(int)
		case "seed":
			req.Seed = v.(int64)
		}
	}
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}
