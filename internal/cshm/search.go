package cshm

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/coordchem/cshm/internal/geom"
)

// Mode selects the search budget. Intensive strictly extends Default: wider
// Euler grid, more annealing restarts with longer runs, longer refinement.
type Mode int

const (
	ModeDefault Mode = iota
	ModeIntensive
)

// String implements fmt.Stringer for logging and persistence.
func (m Mode) String() string {
	if m == ModeIntensive {
		return "intensive"
	}
	return "default"
}

// ParseMode maps the wire-level mode string to a Mode. Unknown strings fall
// back to ModeDefault.
func ParseMode(s string) Mode {
	if s == "intensive" {
		return ModeIntensive
	}
	return ModeDefault
}

// Progress is an advisory snapshot emitted while a search runs. Events are
// throttled and delivered with non-blocking sends; consumers that fall behind
// miss updates rather than stalling the search.
type Progress struct {
	Stage   string  `json:"stage"`
	Current int     `json:"current"`
	Total   int     `json:"total"`
	Best    float64 `json:"best_so_far"`
}

// Params are the tunable budgets of the rotation search. Zero values are not
// meaningful; obtain a baseline from ParamsForMode and override selectively.
type Params struct {
	GridSteps       int     // Euler grid resolution per axis
	GridStride      int     // sample every GridStride-th grid index
	AnnealRestarts  int     // independent simulated-annealing restarts
	AnnealSteps     int     // steps per restart
	AnnealStartTemp float64 // Metropolis starting temperature
	AnnealFloorTemp float64 // temperature reached at the end of a restart
	RefineSteps     int     // local refinement step budget
	RefineCooling   float64 // geometric cooling rate during refinement
	GridExit        float64 // skip annealing when the post-grid best is below this; 0 disables
}

// ParamsForMode returns the stage budgets for the given mode. The constants
// were validated against the identity property: every reference geometry in
// the table must score below 0.01 against itself under both modes.
func ParamsForMode(m Mode) Params {
	if m == ModeIntensive {
		return Params{
			GridSteps:       30,
			GridStride:      2,
			AnnealRestarts:  12,
			AnnealSteps:     8000,
			AnnealStartTemp: 30,
			AnnealFloorTemp: 0.001,
			RefineSteps:     6000,
			RefineCooling:   0.999,
			GridExit:        0, // intensive always anneals
		}
	}
	return Params{
		GridSteps:       18,
		GridStride:      3,
		AnnealRestarts:  6,
		AnnealSteps:     3000,
		AnnealStartTemp: 20,
		AnnealFloorTemp: 0.001,
		RefineSteps:     2000,
		RefineCooling:   0.999,
		GridExit:        gridGoodEnough,
	}
}

// Early-exit thresholds. A measure below nearPerfect is treated as a found
// global optimum; gridGoodEnough lets Default mode skip annealing for clearly
// good grid hits.
const (
	nearPerfect    = 0.01
	gridGoodEnough = 0.05
)

// cancelCheckInterval is how many annealing steps run between context polls.
const cancelCheckInterval = 256

// progressInterval is how many evaluations run between progress emissions.
const progressInterval = 200

// keyOrientations are the fixed Euler triples of stage 2: axis-aligned plus
// 45° and 60° rotations, cheap coverage of symmetry-adjacent orientations.
var keyOrientations = [][3]float64{
	{math.Pi / 2, 0, 0}, {0, math.Pi / 2, 0}, {0, 0, math.Pi / 2},
	{math.Pi, 0, 0}, {0, math.Pi, 0}, {0, 0, math.Pi},
	{math.Pi / 2, math.Pi / 2, 0}, {math.Pi / 2, 0, math.Pi / 2}, {0, math.Pi / 2, math.Pi / 2},
	{math.Pi / 4, 0, 0}, {0, math.Pi / 4, 0}, {0, 0, math.Pi / 4},
	{math.Pi / 4, math.Pi / 4, math.Pi / 4},
	{math.Pi / 3, 0, 0}, {0, math.Pi / 3, 0}, {0, 0, math.Pi / 3},
	{math.Pi / 3, math.Pi / 3, math.Pi / 3},
	{math.Pi / 2, math.Pi / 4, 0},
}

// candidate is a scored rotation with its optimal vertex correspondence.
type candidate struct {
	measure float64
	rot     geom.Mat4
	assign  []int
}

// Engine runs the multi-stage global rotation search for one point-set size.
// All scratch state (cost matrix, solver buffers, rotation accumulators) is
// private to the engine, so independent searches on separate engines may run
// concurrently without locking. A single engine must not be shared.
type Engine struct {
	params   Params
	rng      *rand.Rand
	progress chan<- Progress

	n       int
	cost    [][]float64
	solver  *assignmentSolver
	rotated []geom.Vec3
	evals   int
}

// NewEngine builds an engine for point sets of size n. rng must be non-nil;
// inject a fixed-seed source for reproducible runs. progress may be nil.
func NewEngine(n int, params Params, rng *rand.Rand, progress chan<- Progress) *Engine {
	cost := make([][]float64, n)
	for i := range cost {
		cost[i] = make([]float64, n)
	}
	return &Engine{
		params:   params,
		rng:      rng,
		progress: progress,
		n:        n,
		cost:     cost,
		solver:   newAssignmentSolver(n),
		rotated:  make([]geom.Vec3, n),
	}
}

// evaluate scores one candidate rotation: rotate the actual set, build the
// squared-distance cost matrix against the reference, solve the assignment
// and convert the matched cost to the conventional 0-100 CShM scale.
// The returned assignment aliases solver scratch; copy before keeping.
func (e *Engine) evaluate(rot geom.Mat4, actual, reference []geom.Vec3) (float64, []int) {
	for i, p := range actual {
		e.rotated[i] = rot.Apply(p)
	}
	for i := range e.rotated {
		for j := range reference {
			e.cost[i][j] = e.rotated[i].Dist2(reference[j])
		}
	}
	perm := e.solver.Solve(e.cost)

	var sum float64
	for i, j := range perm {
		sum += e.cost[i][j]
	}
	measure := 100 * sum / float64(e.n)
	if math.IsNaN(measure) || math.IsInf(measure, 0) {
		// Never let NaN reach the best-measure comparisons.
		return math.Inf(1), perm
	}
	e.evals++
	return measure, perm
}

// consider scores rot and folds it into best when it improves. Returns the
// new best measure.
func (e *Engine) consider(rot geom.Mat4, actual, reference []geom.Vec3, best *candidate) float64 {
	m, perm := e.evaluate(rot, actual, reference)
	if m < best.measure {
		best.measure = m
		best.rot = rot
		copy(best.assign, perm)
	}
	return best.measure
}

// polish alternates Kabsch alignment and reassignment from the current best:
// the optimal rotation for the best correspondence usually shifts the
// correspondence itself, so the pair is iterated to a joint fixed point.
// Deterministic, and exact for perfect matches.
func (e *Engine) polish(actual, reference []geom.Vec3, best *candidate) {
	const maxRounds = 30
	for round := 0; round < maxRounds; round++ {
		rot := kabschRotation(actual, reference, best.assign)
		prev := best.measure
		e.consider(rot, actual, reference, best)
		if best.measure > prev-1e-12 {
			return
		}
	}
}

// emit sends a throttled progress event when a consumer is attached.
func (e *Engine) emit(stage string, current, total int, best float64) {
	if e.progress == nil {
		return
	}
	select {
	case e.progress <- Progress{Stage: stage, Current: current, Total: total, Best: best}:
	default:
	}
}

// randomRotation draws a uniformly random axis and an angle in [0, π).
func (e *Engine) randomRotation() geom.Mat4 {
	return geom.FromAxisAngle(e.randomAxis(), e.rng.Float64()*math.Pi)
}

// randomAxis draws a unit vector uniformly on the sphere.
func (e *Engine) randomAxis() geom.Vec3 {
	z := 2*e.rng.Float64() - 1
	theta := 2 * math.Pi * e.rng.Float64()
	r := math.Sqrt(1 - z*z)
	return geom.Vec3{X: r * math.Cos(theta), Y: r * math.Sin(theta), Z: z}
}

// perturb composes rot with a random-axis rotation of at most maxAngle.
func (e *Engine) perturb(rot geom.Mat4, maxAngle float64) geom.Mat4 {
	return geom.FromAxisAngle(e.randomAxis(), e.rng.Float64()*maxAngle).Mul(rot)
}

func (e *Engine) checkCancelled(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
	default:
		return nil
	}
}

// Search runs the full staged search over normalized, equal-length point
// sets and returns the best (measure, rotation, assignment) found. seeds are
// caller-supplied candidate rotations evaluated alongside the identity.
func (e *Engine) Search(ctx context.Context, actual, reference []geom.Vec3, seeds []geom.Mat4) (candidate, error) {
	best := candidate{
		measure: math.Inf(1),
		rot:     geom.Identity(),
		assign:  make([]int, e.n),
	}

	// Stage 1: identity plus caller-supplied seeds, then a Kabsch polish of
	// whichever won.
	e.consider(geom.Identity(), actual, reference, &best)
	for _, s := range seeds {
		e.consider(s, actual, reference, &best)
	}
	e.polish(actual, reference, &best)
	e.emit("seeds", 1, 1, best.measure)
	if err := e.checkCancelled(ctx); err != nil {
		return best, err
	}

	// Stage 2: fixed key orientations.
	for i, angles := range keyOrientations {
		e.consider(geom.FromEuler(angles[0], angles[1], angles[2]), actual, reference, &best)
		if (i+1)%8 == 0 {
			e.emit("key-orientations", i+1, len(keyOrientations), best.measure)
		}
	}
	e.polish(actual, reference, &best)
	e.emit("key-orientations", len(keyOrientations), len(keyOrientations), best.measure)
	if best.measure < nearPerfect {
		return best, nil
	}
	if err := e.checkCancelled(ctx); err != nil {
		return best, err
	}

	// Stage 3: coarse Euler grid.
	if err := e.gridSearch(ctx, actual, reference, &best); err != nil {
		return best, err
	}
	e.polish(actual, reference, &best)
	if best.measure < nearPerfect {
		return best, nil
	}
	if e.params.GridExit > 0 && best.measure < e.params.GridExit {
		// A clearly good grid hit skips annealing.
		return best, nil
	}

	// Stage 4: simulated-annealing restarts.
	if err := e.anneal(ctx, actual, reference, &best); err != nil {
		return best, err
	}
	e.polish(actual, reference, &best)
	if best.measure < nearPerfect {
		return best, nil
	}

	// Stage 5: local refinement around the best found.
	if err := e.refine(ctx, actual, reference, &best); err != nil {
		return best, err
	}
	e.polish(actual, reference, &best)
	return best, nil
}

func (e *Engine) gridSearch(ctx context.Context, actual, reference []geom.Vec3, best *candidate) error {
	steps, stride := e.params.GridSteps, e.params.GridStride
	perAxis := (steps + stride - 1) / stride
	total := perAxis * perAxis * perAxis
	done := 0

	for ix := 0; ix < steps; ix += stride {
		ax := 2 * math.Pi * float64(ix) / float64(steps)
		for iy := 0; iy < steps; iy += stride {
			ay := 2 * math.Pi * float64(iy) / float64(steps)
			for iz := 0; iz < steps; iz += stride {
				az := 2 * math.Pi * float64(iz) / float64(steps)
				e.consider(geom.FromEuler(ax, ay, az), actual, reference, best)
				done++
				if done%progressInterval == 0 {
					e.emit("grid", done, total, best.measure)
				}
			}
		}
		if err := e.checkCancelled(ctx); err != nil {
			return err
		}
	}
	e.emit("grid", total, total, best.measure)
	return nil
}

// anneal runs the configured number of independent restarts. The first
// restart exploits the current best; odd restarts perturb it; the rest are
// fully random, balancing exploitation and exploration.
func (e *Engine) anneal(ctx context.Context, actual, reference []geom.Vec3, best *candidate) error {
	for r := 0; r < e.params.AnnealRestarts; r++ {
		var start geom.Mat4
		switch {
		case r == 0:
			start = best.rot
		case r%2 == 1:
			start = e.perturb(best.rot, 0.3)
		default:
			start = e.randomRotation()
		}

		if err := e.annealRun(ctx, actual, reference, best, start,
			e.params.AnnealStartTemp, e.params.AnnealSteps, 0.5, "anneal", r); err != nil {
			return err
		}
		e.emit("anneal", r+1, e.params.AnnealRestarts, best.measure)
		if best.measure < nearPerfect {
			return nil
		}
	}
	return nil
}

// annealRun performs one Metropolis run from start. maxStep is the largest
// perturbation angle at full temperature; the step shrinks with the
// temperature so late moves are local.
func (e *Engine) annealRun(ctx context.Context, actual, reference []geom.Vec3, best *candidate,
	start geom.Mat4, startTemp float64, steps int, maxStep float64, stage string, restart int) error {

	current := start
	currentMeasure, perm := e.evaluate(current, actual, reference)
	if currentMeasure < best.measure {
		best.measure = currentMeasure
		best.rot = current
		copy(best.assign, perm)
	}

	temp := startTemp
	cooling := math.Pow(e.params.AnnealFloorTemp/startTemp, 1/float64(steps))

	for step := 0; step < steps; step++ {
		if step%cancelCheckInterval == 0 {
			if err := e.checkCancelled(ctx); err != nil {
				return err
			}
		}

		frac := temp / startTemp
		angle := maxStep*math.Sqrt(frac) + 0.01
		cand := e.perturb(current, angle)
		m, perm := e.evaluate(cand, actual, reference)

		delta := m - currentMeasure
		if delta < 0 || e.rng.Float64() < math.Exp(-delta/temp) {
			current = cand
			currentMeasure = m
			if m < best.measure {
				best.measure = m
				best.rot = cand
				copy(best.assign, perm)
			}
		}

		temp *= cooling
		if step%progressInterval == 0 {
			e.emit(stage, restart*steps+step, e.params.AnnealRestarts*steps, best.measure)
		}
		if best.measure < nearPerfect {
			return nil
		}
	}
	return nil
}

// refine runs a final slow-cooled anneal around the best with small steps,
// tracking a stall counter so a converged run exits early.
func (e *Engine) refine(ctx context.Context, actual, reference []geom.Vec3, best *candidate) error {
	current := best.rot
	currentMeasure := best.measure
	temp := 1.0
	noImprove := 0

	for step := 0; step < e.params.RefineSteps; step++ {
		if step%cancelCheckInterval == 0 {
			if err := e.checkCancelled(ctx); err != nil {
				return err
			}
		}

		cand := e.perturb(current, 0.05+0.1*temp)
		m, perm := e.evaluate(cand, actual, reference)

		delta := m - currentMeasure
		if delta < 0 || e.rng.Float64() < math.Exp(-delta/temp) {
			current = cand
			currentMeasure = m
		}
		if m < best.measure-1e-12 {
			best.measure = m
			best.rot = cand
			copy(best.assign, perm)
			noImprove = 0
		} else {
			noImprove++
		}

		temp *= e.params.RefineCooling
		if step%progressInterval == 0 {
			e.emit("refine", step, e.params.RefineSteps, best.measure)
		}
		if noImprove > 500 && best.measure < nearPerfect {
			break
		}
	}
	e.emit("refine", e.params.RefineSteps, e.params.RefineSteps, best.measure)
	return nil
}
