package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/coordchem/cshm/internal/cshm"
)

// DefaultConfigPath is the path to the optional tuning overrides file.
const DefaultConfigPath = "config/tuning.json"

// TuningConfig overrides search budgets and service parameters. Fields are
// pointers so a partial JSON file only overrides what it names; the
// accessors fall back to the built-in mode defaults for everything else.
type TuningConfig struct {
	// Search params (applied on top of the selected mode's defaults)
	GridSteps       *int     `json:"grid_steps,omitempty"`
	GridStride      *int     `json:"grid_stride,omitempty"`
	AnnealRestarts  *int     `json:"anneal_restarts,omitempty"`
	AnnealSteps     *int     `json:"anneal_steps,omitempty"`
	AnnealStartTemp *float64 `json:"anneal_start_temp,omitempty"`
	RefineSteps     *int     `json:"refine_steps,omitempty"`
	RefineCooling   *float64 `json:"refine_cooling,omitempty"`

	// Ranking params
	Workers *int `json:"workers,omitempty"`
}

// EmptyTuningConfig returns a config with no overrides set.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig reads overrides from a JSON file. Partial configs are
// safe: omitted fields keep their defaults.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate rejects override values the search cannot run with.
func (c *TuningConfig) Validate() error {
	if c.GridSteps != nil && *c.GridSteps < 2 {
		return fmt.Errorf("grid_steps must be >= 2, got %d", *c.GridSteps)
	}
	if c.GridStride != nil && *c.GridStride < 1 {
		return fmt.Errorf("grid_stride must be >= 1, got %d", *c.GridStride)
	}
	if c.AnnealRestarts != nil && *c.AnnealRestarts < 0 {
		return fmt.Errorf("anneal_restarts must be >= 0, got %d", *c.AnnealRestarts)
	}
	if c.AnnealSteps != nil && *c.AnnealSteps < 1 {
		return fmt.Errorf("anneal_steps must be >= 1, got %d", *c.AnnealSteps)
	}
	if c.AnnealStartTemp != nil && *c.AnnealStartTemp <= 0 {
		return fmt.Errorf("anneal_start_temp must be > 0, got %v", *c.AnnealStartTemp)
	}
	if c.RefineSteps != nil && *c.RefineSteps < 0 {
		return fmt.Errorf("refine_steps must be >= 0, got %d", *c.RefineSteps)
	}
	if c.RefineCooling != nil && (*c.RefineCooling <= 0 || *c.RefineCooling >= 1) {
		return fmt.Errorf("refine_cooling must be in (0,1), got %v", *c.RefineCooling)
	}
	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", *c.Workers)
	}
	return nil
}

// SearchParams returns the mode's defaults with any overrides applied.
func (c *TuningConfig) SearchParams(mode cshm.Mode) cshm.Params {
	p := cshm.ParamsForMode(mode)
	if c == nil {
		return p
	}
	if c.GridSteps != nil {
		p.GridSteps = *c.GridSteps
	}
	if c.GridStride != nil {
		p.GridStride = *c.GridStride
	}
	if c.AnnealRestarts != nil {
		p.AnnealRestarts = *c.AnnealRestarts
	}
	if c.AnnealSteps != nil {
		p.AnnealSteps = *c.AnnealSteps
	}
	if c.AnnealStartTemp != nil {
		p.AnnealStartTemp = *c.AnnealStartTemp
	}
	if c.RefineSteps != nil {
		p.RefineSteps = *c.RefineSteps
	}
	if c.RefineCooling != nil {
		p.RefineCooling = *c.RefineCooling
	}
	return p
}

// GetWorkers returns the ranking worker-pool size, defaulting to the CPU
// count.
func (c *TuningConfig) GetWorkers() int {
	if c != nil && c.Workers != nil {
		return *c.Workers
	}
	return runtime.NumCPU()
}
