package cshm

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/coordchem/cshm/internal/geom"
)

// coincidentLigand is the metal-relative distance below which a ligand is
// treated as sitting on the central atom.
const coincidentLigand = 1e-8

// Result is the outcome of one shape-measure computation.
type Result struct {
	// Measure is the continuous shape measure on the conventional 0-100
	// scale; 0 is a perfect match up to tolerance.
	Measure float64

	// Assignment maps actual index i to its matched reference index.
	Assignment []int

	// Rotation is the winning proper rotation applied to the normalized
	// actual set, as a row-major 4x4 homogeneous matrix.
	Rotation geom.Mat4

	// AlignedCoords holds the rotated, normalized actual points in
	// reference-vertex order, for overlaying the ideal polyhedron.
	AlignedCoords []geom.Vec3
}

// Options configure a computation. The zero value runs Default mode with a
// time-seeded RNG and no progress reporting.
type Options struct {
	Mode Mode

	// Seeds are candidate rotations evaluated before the global search,
	// e.g. Kabsch results from heuristic correspondences.
	Seeds []geom.Mat4

	// Progress, when non-nil, receives throttled advisory events.
	Progress chan<- Progress

	// Rand is the pseudo-random source for the stochastic stages. Inject a
	// fixed-seed source for reproducible runs; nil gets a time seed.
	Rand *rand.Rand

	// Params overrides the mode's stage budgets when non-nil.
	Params *Params
}

// Compute calculates the continuous shape measure of actual against
// reference. Coordinates are metal-relative; reference vertices for
// coordination numbers 2-3 include an explicit central-atom point as the
// last entry, and a missing central point in actual is supplied as the zero
// vector before normalization.
//
// Fails with ErrInvalidInput on empty or mismatched inputs or non-finite
// coordinates, ErrDegenerateGeometry when a ligand coincides with the metal,
// and ErrCancelled when ctx is cancelled mid-search.
func Compute(ctx context.Context, actual, reference []geom.Vec3, opts Options) (*Result, error) {
	if len(actual) == 0 || len(reference) == 0 {
		return nil, fmt.Errorf("%w: empty point set", ErrInvalidInput)
	}
	for _, p := range actual {
		if !p.IsFinite() {
			return nil, fmt.Errorf("%w: non-finite actual coordinate", ErrInvalidInput)
		}
	}
	for _, p := range reference {
		if !p.IsFinite() {
			return nil, fmt.Errorf("%w: non-finite reference coordinate", ErrInvalidInput)
		}
	}

	// A ligand on the metal center cannot be scored by any rotation.
	for _, p := range actual {
		if p.Norm() < coincidentLigand {
			return nil, fmt.Errorf("%w: ligand coincides with metal center", ErrDegenerateGeometry)
		}
	}

	// Low-coordination references carry the central atom as an explicit
	// final vertex off the ligand centroid; centering the ligand-only set
	// would destroy the pyramidal angles relative to the metal. Supply the
	// metal (the origin, since coordinates are metal-relative) instead.
	if len(actual)+1 == len(reference) && reference[len(reference)-1].Norm() < coincidentLigand {
		actual = append(append([]geom.Vec3(nil), actual...), geom.Vec3{})
	}
	if len(actual) != len(reference) {
		return nil, fmt.Errorf("%w: %d actual points vs %d reference points",
			ErrInvalidInput, len(actual), len(reference))
	}

	normActual := Normalize(actual)
	normReference := Normalize(reference)

	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	params := ParamsForMode(opts.Mode)
	if opts.Params != nil {
		params = *opts.Params
	}

	engine := NewEngine(len(normActual), params, rng, opts.Progress)
	best, err := engine.Search(ctx, normActual, normReference, opts.Seeds)
	if err != nil {
		return nil, err
	}

	aligned := make([]geom.Vec3, len(normActual))
	for i, p := range normActual {
		aligned[best.assign[i]] = best.rot.Apply(p)
	}

	return &Result{
		Measure:       best.measure,
		Assignment:    append([]int(nil), best.assign...),
		Rotation:      best.rot,
		AlignedCoords: aligned,
	}, nil
}
