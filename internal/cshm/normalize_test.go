package cshm

import (
	"math"
	"testing"

	"github.com/coordchem/cshm/internal/geom"
)

func rmsFromOrigin(points []geom.Vec3) float64 {
	var sum float64
	for _, p := range points {
		sum += p.Norm2()
	}
	return math.Sqrt(sum / float64(len(points)))
}

func TestNormalizeCentersAndScales(t *testing.T) {
	points := []geom.Vec3{
		{X: 3, Y: 1, Z: 0},
		{X: 5, Y: 1, Z: 0},
		{X: 4, Y: 2, Z: 2},
		{X: 4, Y: 0, Z: -2},
	}
	norm := Normalize(points)

	c := geom.Centroid(norm)
	if c.Norm() > 1e-12 {
		t.Errorf("centroid after normalize = %+v, want origin", c)
	}
	if rms := rmsFromOrigin(norm); math.Abs(rms-1) > 1e-12 {
		t.Errorf("RMS after normalize = %v, want 1", rms)
	}
}

func TestNormalizePreservesProportions(t *testing.T) {
	// Axial points farther out than equatorial; the ratio of their
	// distances must survive normalization, or Johnson variants become
	// indistinguishable from regular polyhedra.
	points := []geom.Vec3{
		{Z: 2}, {Z: -2},
		{X: 1}, {X: -0.5, Y: 0.866}, {X: -0.5, Y: -0.866},
	}
	norm := Normalize(points)

	ratio := norm[0].Norm() / norm[2].Norm()
	if math.Abs(ratio-2) > 1e-9 {
		t.Errorf("axial/equatorial ratio = %v, want 2", ratio)
	}
}

func TestNormalizeScaleInvariant(t *testing.T) {
	points := []geom.Vec3{{X: 1}, {X: -1}, {Y: 2}, {Y: -2}}
	scaled := make([]geom.Vec3, len(points))
	for i, p := range points {
		scaled[i] = p.Scale(7.5)
	}

	a := Normalize(points)
	b := Normalize(scaled)
	for i := range a {
		if a[i].Sub(b[i]).Norm() > 1e-9 {
			t.Fatalf("point %d differs after scaling: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestNormalizeDegenerate(t *testing.T) {
	// All points on top of each other: centered but not scaled, no NaN.
	points := []geom.Vec3{{X: 2, Y: 2, Z: 2}, {X: 2, Y: 2, Z: 2}, {X: 2, Y: 2, Z: 2}}
	norm := Normalize(points)
	for i, p := range norm {
		if !p.IsFinite() {
			t.Fatalf("point %d not finite: %+v", i, p)
		}
		if p.Norm() > 1e-9 {
			t.Errorf("point %d = %+v, want origin", i, p)
		}
	}
}

func TestNormalizeEmpty(t *testing.T) {
	if got := Normalize(nil); got != nil {
		t.Errorf("Normalize(nil) = %v, want nil", got)
	}
}
