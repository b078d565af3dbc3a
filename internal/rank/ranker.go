// Package rank evaluates one observed coordination sphere against every
// candidate reference geometry of its coordination number and orders the
// results by ascending measure.
//
// Each geometry is scored by an independent, single-threaded computation, so
// the fan-out is plain parallelism across invocations on a bounded worker
// pool; the only shared data are the read-only inputs.
package rank

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/coordchem/cshm/internal/cshm"
	"github.com/coordchem/cshm/internal/geom"
	"github.com/coordchem/cshm/internal/refgeom"
	"github.com/coordchem/cshm/internal/runstore"
)

// GeometryScore is the outcome for one candidate reference geometry.
type GeometryScore struct {
	Symbol        string            `json:"symbol"`
	Name          string            `json:"name"`
	Measure       float64           `json:"measure"`
	Quality       cshm.MatchQuality `json:"quality"`
	Rotation      [16]float64       `json:"rotation"`
	AlignedCoords [][3]float64      `json:"aligned_coordinates"`
}

// RunResult is a completed ranking run, best match first.
type RunResult struct {
	RunID   string          `json:"run_id"`
	Mode    string          `json:"mode"`
	CN      int             `json:"cn"`
	Scores  []GeometryScore `json:"scores"`
	Elapsed time.Duration   `json:"elapsed_ns"`
}

// Store is the persistence surface the ranker needs; satisfied by
// *runstore.Store. A nil store disables persistence.
type Store interface {
	InsertRun(record runstore.RunRecord) error
	UpdateRunResults(runID, status string, results json.RawMessage, completedAt time.Time, errMsg string) error
}

// Ranker fans one actual point set out across candidate geometries.
type Ranker struct {
	Workers int
	Params  *cshm.Params // optional override of the mode's budgets
	Seed    int64        // base RNG seed; 0 means time-seeded
}

// Rank scores actual against every table geometry of its coordination
// number. A DegenerateGeometry failure aborts the whole run: it means the
// actual structure itself cannot be scored, not that one candidate is bad.
func (r *Ranker) Rank(ctx context.Context, actual []geom.Vec3, mode cshm.Mode) (*RunResult, error) {
	cn := len(actual)
	candidates := refgeom.ByCN(cn)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no reference geometries for coordination number %d",
			cshm.ErrInvalidInput, cn)
	}

	workers := r.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(candidates) {
		workers = len(candidates)
	}

	start := time.Now()
	result := &RunResult{
		RunID: uuid.NewString(),
		Mode:  mode.String(),
		CN:    cn,
	}

	type job struct {
		idx int
		g   refgeom.Geometry
	}
	jobs := make(chan job)
	scores := make([]*GeometryScore, len(candidates))
	errs := make([]error, len(candidates))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := range jobs {
				scores[j.idx], errs[j.idx] = r.scoreOne(ctx, actual, j.g, mode, int64(j.idx))
			}
		}(w)
	}

	for i, g := range candidates {
		jobs <- job{idx: i, g: g}
	}
	close(jobs)
	wg.Wait()

	// Any failure aborts the whole run: degeneracy and cancellation are
	// properties of the actual structure or the request, not of a single
	// candidate geometry.
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	for _, s := range scores {
		result.Scores = append(result.Scores, *s)
	}
	sort.Slice(result.Scores, func(i, j int) bool {
		return result.Scores[i].Measure < result.Scores[j].Measure
	})
	result.Elapsed = time.Since(start)
	return result, nil
}

func (r *Ranker) scoreOne(ctx context.Context, actual []geom.Vec3, g refgeom.Geometry, mode cshm.Mode, offset int64) (*GeometryScore, error) {
	seed := r.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	opts := cshm.Options{
		Mode:   mode,
		Rand:   rand.New(rand.NewSource(seed + offset)),
		Params: r.Params,
	}

	res, err := cshm.Compute(ctx, actual, g.Vertices, opts)
	if err != nil {
		return nil, fmt.Errorf("scoring %s: %w", g.Symbol, err)
	}

	score := &GeometryScore{
		Symbol:   g.Symbol,
		Name:     g.Name,
		Measure:  res.Measure,
		Quality:  cshm.GradeMeasure(res.Measure),
		Rotation: res.Rotation.Flat(),
	}
	for _, p := range res.AlignedCoords {
		score.AlignedCoords = append(score.AlignedCoords, [3]float64{p.X, p.Y, p.Z})
	}
	return score, nil
}

// RankAndPersist runs Rank and records the run in the store when one is
// configured. Store failures are logged, not fatal: the ranking result is
// still valid without persistence.
func (r *Ranker) RankAndPersist(ctx context.Context, store Store, actual []geom.Vec3, mode cshm.Mode) (*RunResult, error) {
	runID := uuid.NewString()
	started := time.Now()

	var request json.RawMessage
	if store != nil {
		coords := make([][3]float64, len(actual))
		for i, p := range actual {
			coords[i] = [3]float64{p.X, p.Y, p.Z}
		}
		request, _ = json.Marshal(map[string]any{
			"actual_coordinates": coords,
			"mode":               mode.String(),
		})
		if err := store.InsertRun(runstore.RunRecord{
			RunID:     runID,
			Mode:      mode.String(),
			Status:    runstore.StatusRunning,
			Request:   request,
			StartedAt: started,
		}); err != nil {
			log.Printf("runstore: insert failed for run %s: %v", runID, err)
			store = nil
		}
	}

	result, err := r.Rank(ctx, actual, mode)
	if err != nil {
		if store != nil {
			if uerr := store.UpdateRunResults(runID, runstore.StatusFailed, nil, time.Now(), err.Error()); uerr != nil {
				log.Printf("runstore: update failed for run %s: %v", runID, uerr)
			}
		}
		return nil, err
	}
	result.RunID = runID

	if store != nil {
		payload, _ := json.Marshal(result)
		if uerr := store.UpdateRunResults(runID, runstore.StatusCompleted, payload, time.Now(), ""); uerr != nil {
			log.Printf("runstore: update failed for run %s: %v", runID, uerr)
		}
	}
	return result, nil
}
