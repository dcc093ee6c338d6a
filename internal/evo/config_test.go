package evo

import (
	"errors"
	"testing"
)

func TestConfigValidateAccepts(t *testing.T) {
	if err := testConfig(50).Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestConfigValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"zero population", func(c *Config) { c.PopulationSize = 0 }, nil},
		{"zero generations", func(c *Config) { c.MaxGenerations = 0 }, nil},
		{"negative fraction", func(c *Config) { c.SurvivorFraction = -0.1 }, nil},
		{"fractions over one", func(c *Config) { c.MutationFraction = 0.5 }, nil},
		{"fractions under one", func(c *Config) { c.CrossoverFraction = 0.3 }, nil},
		{"negative elitism", func(c *Config) { c.Elitism = -1 }, nil},
		{"negative tournament", func(c *Config) { c.TournamentSize = -2 }, nil},
		{"unknown selection", func(c *Config) { c.Selection = "roulette" }, ErrUnknownSelection},
		{"unknown crossover", func(c *Config) { c.Crossover = "CX" }, ErrUnknownCrossover},
		{"unknown mutation", func(c *Config) { c.Mutation = "insert" }, ErrUnknownMutation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig(50)
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate accepted an invalid config")
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
		})
	}
}

func TestConfigFractionTolerance(t *testing.T) {
	cfg := testConfig(50)
	cfg.SurvivorFraction = 0.2
	cfg.CrossoverFraction = 0.6
	cfg.MutationFraction = 0.205
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sum within tolerance rejected: %v", err)
	}
	cfg.MutationFraction = 0.22
	if err := cfg.Validate(); err == nil {
		t.Fatal("sum outside tolerance accepted")
	}
}

func TestConfigCountsSumToPopulationSize(t *testing.T) {
	for _, popSize := range []int{1, 7, 10, 33, 50, 101} {
		cfg := testConfig(popSize)
		got := cfg.numSurvivors() + cfg.numCrossover() + cfg.numMutation()
		if got != popSize {
			t.Fatalf("pop %d: counts sum to %d", popSize, got)
		}
		if cfg.numMutation() < 0 {
			t.Fatalf("pop %d: negative mutation count", popSize)
		}
	}
}

func TestConfigCountsClampWhenFractionsOvershoot(t *testing.T) {
	// Sums up to 1.0+fractionSumTolerance pass Validate, and truncated
	// survivor+crossover counts can then already cover the whole
	// population. The mutation count must clamp at zero, not go negative.
	cfg := testConfig(100)
	cfg.SurvivorFraction = 0.50
	cfg.CrossoverFraction = 0.51
	cfg.MutationFraction = 0.00
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := cfg.numMutation(); got != 0 {
		t.Fatalf("mutation count = %d, want 0", got)
	}
	if sum := cfg.numSurvivors() + cfg.numCrossover() + cfg.numMutation(); sum < cfg.PopulationSize {
		t.Fatalf("counts sum to %d, want >= %d", sum, cfg.PopulationSize)
	}
}
