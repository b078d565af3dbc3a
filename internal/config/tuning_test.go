package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coordchem/cshm/internal/cshm"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tuning.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTuningConfigPartial(t *testing.T) {
	path := writeConfig(t, `{"grid_steps": 24, "workers": 3}`)

	cfg, err := LoadTuningConfig(path)
	require.NoError(t, err)

	require.NotNil(t, cfg.GridSteps)
	assert.Equal(t, 24, *cfg.GridSteps)
	assert.Equal(t, 3, cfg.GetWorkers())

	// Unset fields keep the mode defaults.
	assert.Nil(t, cfg.AnnealRestarts)
	p := cfg.SearchParams(cshm.ModeDefault)
	assert.Equal(t, 24, p.GridSteps)
	assert.Equal(t, cshm.ParamsForMode(cshm.ModeDefault).AnnealRestarts, p.AnnealRestarts)
}

func TestLoadTuningConfigRejectsNonJSON(t *testing.T) {
	_, err := LoadTuningConfig("tuning.yaml")
	assert.ErrorContains(t, err, ".json")
}

func TestLoadTuningConfigMissingFile(t *testing.T) {
	_, err := LoadTuningConfig(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorContains(t, err, "failed to read")
}

func TestLoadTuningConfigBadJSON(t *testing.T) {
	path := writeConfig(t, `{"grid_steps": `)
	_, err := LoadTuningConfig(path)
	assert.ErrorContains(t, err, "parse")
}

func TestValidateRejections(t *testing.T) {
	intp := func(v int) *int { return &v }
	floatp := func(v float64) *float64 { return &v }

	tests := []struct {
		name string
		cfg  TuningConfig
	}{
		{"grid steps too small", TuningConfig{GridSteps: intp(1)}},
		{"zero stride", TuningConfig{GridStride: intp(0)}},
		{"negative restarts", TuningConfig{AnnealRestarts: intp(-1)}},
		{"zero anneal steps", TuningConfig{AnnealSteps: intp(0)}},
		{"non-positive temperature", TuningConfig{AnnealStartTemp: floatp(0)}},
		{"negative refine steps", TuningConfig{RefineSteps: intp(-5)}},
		{"cooling at one", TuningConfig{RefineCooling: floatp(1.0)}},
		{"zero workers", TuningConfig{Workers: intp(0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.cfg.Validate())
		})
	}
}

func TestValidateEmptyIsValid(t *testing.T) {
	assert.NoError(t, EmptyTuningConfig().Validate())
}

func TestSearchParamsFullOverride(t *testing.T) {
	path := writeConfig(t, `{
		"grid_steps": 36,
		"grid_stride": 4,
		"anneal_restarts": 2,
		"anneal_steps": 500,
		"anneal_start_temp": 15,
		"refine_steps": 100,
		"refine_cooling": 0.99
	}`)
	cfg, err := LoadTuningConfig(path)
	require.NoError(t, err)

	p := cfg.SearchParams(cshm.ModeIntensive)
	assert.Equal(t, 36, p.GridSteps)
	assert.Equal(t, 4, p.GridStride)
	assert.Equal(t, 2, p.AnnealRestarts)
	assert.Equal(t, 500, p.AnnealSteps)
	assert.Equal(t, 15.0, p.AnnealStartTemp)
	assert.Equal(t, 100, p.RefineSteps)
	assert.Equal(t, 0.99, p.RefineCooling)

	// Fields without overrides stay at the intensive defaults.
	assert.Equal(t, cshm.ParamsForMode(cshm.ModeIntensive).AnnealFloorTemp, p.AnnealFloorTemp)
}

func TestSearchParamsNilConfig(t *testing.T) {
	var cfg *TuningConfig
	assert.Equal(t, cshm.ParamsForMode(cshm.ModeDefault), cfg.SearchParams(cshm.ModeDefault))
	assert.Greater(t, cfg.GetWorkers(), 0)
}
