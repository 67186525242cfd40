// Package config provides configuration management for DocketKeeper services.
package config

import "fmt"

// ClassifierConfig holds configuration for ruleset compilation and batch
// classification runs.
type ClassifierConfig struct {
	RulesDir     string
	Jurisdiction string
	DataDir      string
	Workers      int
	MaxBatchSize int
}

// DefaultClassifierConfig returns configuration with default values.
func DefaultClassifierConfig() *ClassifierConfig {
	return &ClassifierConfig{
		RulesDir:     "./rules",
		Jurisdiction: "core",
		DataDir:      "./data",
		Workers:      4,
		MaxBatchSize: 1000,
	}
}

// Validate checks rules directory presence and positive worker/batch values.
func (cfg *ClassifierConfig) Validate() error {
	if cfg.RulesDir == "" {
		return fmt.Errorf("rules_dir must not be empty")
	}
	if cfg.Jurisdiction == "" {
		return fmt.Errorf("jurisdiction must not be empty")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", cfg.Workers)
	}
	if cfg.MaxBatchSize <= 0 {
		return fmt.Errorf("max_batch_size must be positive, got %d", cfg.MaxBatchSize)
	}
	return nil
}
