package refgeom_test

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coordchem/cshm/internal/cshm"
	"github.com/coordchem/cshm/internal/geom"
	"github.com/coordchem/cshm/internal/refgeom"
)

func TestTableSanity(t *testing.T) {
	seen := map[string]bool{}
	for _, g := range refgeom.All() {
		t.Run(g.Symbol, func(t *testing.T) {
			assert.False(t, seen[g.Symbol], "duplicate symbol")
			seen[g.Symbol] = true
			assert.NotEmpty(t, g.Name)
			assert.Greater(t, g.CN, 1)

			if g.CentralVertex {
				require.Len(t, g.Vertices, g.CN+1)
				last := g.Vertices[len(g.Vertices)-1]
				assert.Less(t, last.Norm(), 1e-12, "central vertex must sit at the origin")
			} else {
				require.Len(t, g.Vertices, g.CN)
			}

			for i, v := range g.Vertices {
				assert.True(t, v.IsFinite(), "vertex %d not finite", i)
			}
		})
	}
}

func TestLigandVerticesOnUnitSphere(t *testing.T) {
	// All regular spherical shapes keep their ligands at circumradius 1;
	// Johnson and pyramidal shapes deliberately do not.
	spherical := []string{"L-2", "TP-3", "T-4", "SP-4", "TBPY-5", "PP-5", "OC-6", "TPR-6", "HP-6", "PBPY-7", "CU-8", "SAPR-8", "HBPY-8"}
	for _, symbol := range spherical {
		g, ok := refgeom.Lookup(symbol)
		require.True(t, ok, symbol)
		n := len(g.Vertices)
		if g.CentralVertex {
			n--
		}
		for i := 0; i < n; i++ {
			assert.InDelta(t, 1, g.Vertices[i].Norm(), 1e-9, "%s vertex %d", symbol, i)
		}
	}
}

func TestLookup(t *testing.T) {
	g, ok := refgeom.Lookup("OC-6")
	require.True(t, ok)
	assert.Equal(t, 6, g.CN)
	assert.Equal(t, "octahedron", g.Name)

	_, ok = refgeom.Lookup("XX-99")
	assert.False(t, ok)
}

func TestByCN(t *testing.T) {
	five := refgeom.ByCN(5)
	require.Len(t, five, 4)
	for _, g := range five {
		assert.Equal(t, 5, g.CN)
	}
	assert.Empty(t, refgeom.ByCN(17))
}

func TestCoordinationNumbers(t *testing.T) {
	assert.Equal(t, []int{2, 3, 4, 5, 6, 7, 8}, refgeom.CoordinationNumbers())
}

// Every reference geometry must match itself nearly exactly. This pins the
// vertex constants: a typo in the table shows up as a self-measure far from
// zero.
func TestGeometrySelfMeasure(t *testing.T) {
	for _, g := range refgeom.All() {
		t.Run(g.Symbol, func(t *testing.T) {
			actual := g.Vertices
			if g.CentralVertex {
				// Present the ligand-only set, scaled, the way callers do.
				ligands := make([]geom.Vec3, g.CN)
				for i := range ligands {
					ligands[i] = g.Vertices[i].Scale(2.1)
				}
				actual = ligands
			}

			res, err := cshm.Compute(context.Background(), actual, g.Vertices, cshm.Options{
				Rand: rand.New(rand.NewSource(1)),
			})
			require.NoError(t, err)
			assert.Less(t, res.Measure, 0.01, "self measure for %s", g.Symbol)
		})
	}
}

// Sanity on the derived constants: the Johnson bipyramid has all edges equal.
func TestJohnsonBipyramidEdges(t *testing.T) {
	g, ok := refgeom.Lookup("JTBPY-5")
	require.True(t, ok)

	axial := g.Vertices[0]
	eq0, eq1 := g.Vertices[2], g.Vertices[3]
	slant := math.Sqrt(axial.Dist2(eq0))
	base := math.Sqrt(eq0.Dist2(eq1))
	assert.InDelta(t, base, slant, 1e-9, "J12 slant and base edges must match")
}
