package cshm

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/coordchem/cshm/internal/geom"
)

// kabschRotation returns the proper rotation R minimizing
// Σ ‖R·actual[i] − reference[assign[i]]‖² for a fixed correspondence.
//
// Both point sets must already be centered; re-centering here would discard
// information for references whose central atom is off-centroid. The rotation
// comes from the SVD of the 3×3 cross-covariance H = Σ aᵢ·bᵢᵀ as R = V·Uᵀ,
// with the last column of V negated when det(R) < 0 so that reflections are
// never produced (molecules are not matched against their mirror images).
//
// On a failed factorization (near-singular covariance) the identity is
// returned instead of propagating NaN into the best-measure tracking.
func kabschRotation(actual, reference []geom.Vec3, assign []int) geom.Mat4 {
	var h [9]float64
	for i, a := range actual {
		b := reference[assign[i]]
		h[0] += a.X * b.X
		h[1] += a.X * b.Y
		h[2] += a.X * b.Z
		h[3] += a.Y * b.X
		h[4] += a.Y * b.Y
		h[5] += a.Y * b.Z
		h[6] += a.Z * b.X
		h[7] += a.Z * b.Y
		h[8] += a.Z * b.Z
	}
	for _, v := range h {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return geom.Identity()
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(mat.NewDense(3, 3, h[:]), mat.SVDFull); !ok {
		return geom.Identity()
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	var r mat.Dense
	r.Mul(&v, u.T())

	if mat.Det(&r) < 0 {
		// Reflection: flip the axis of least variance and recompose.
		for i := 0; i < 3; i++ {
			v.Set(i, 2, -v.At(i, 2))
		}
		r.Mul(&v, u.T())
	}

	out := geom.Identity()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i*4+j] = r.At(i, j)
		}
	}
	if !out.IsRotation() {
		return geom.Identity()
	}
	return out
}
