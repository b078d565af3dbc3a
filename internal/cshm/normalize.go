package cshm

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/coordchem/cshm/internal/geom"
)

// degenerateRMS is the spread below which a point set is treated as
// coincident with its centroid and left unscaled to avoid dividing by
// near-zero.
const degenerateRMS = 1e-10

// Normalize centers points on their centroid and rescales them to unit
// root-mean-square distance from it, preserving relative proportions.
//
// Per-vertex unit-length normalization would be wrong here: it discards the
// radial differences (axial vs equatorial bond lengths) that distinguish
// Johnson variants from regular polyhedra of the same topology. Centroid/RMS
// normalization keeps those proportions while removing overall scale.
func Normalize(points []geom.Vec3) []geom.Vec3 {
	if len(points) == 0 {
		return nil
	}

	c := geom.Centroid(points)

	centered := make([]geom.Vec3, len(points))
	norms2 := make([]float64, len(points))
	for i, p := range points {
		centered[i] = p.Sub(c)
		norms2[i] = centered[i].Norm2()
	}

	rms := math.Sqrt(stat.Mean(norms2, nil))
	if rms < degenerateRMS {
		// All points coincide with the centroid; scaling would blow up.
		return centered
	}

	inv := 1 / rms
	for i := range centered {
		centered[i] = centered[i].Scale(inv)
	}
	return centered
}
