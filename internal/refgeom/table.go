// Package refgeom holds the static reference-geometry table: idealized
// polyhedron vertices per coordination number, under their conventional
// CShM symbols. Vertex coordinates are unit-circumradius where the shape
// allows it; the measure engine normalizes scale, so only relative
// proportions matter.
//
// For coordination numbers 2-3 each entry carries the central atom as an
// explicit final vertex, because for the vacant shapes the center does not
// sit at the ligand centroid and dropping it would lose the pyramidal
// angles.
package refgeom

import "github.com/coordchem/cshm/internal/geom"

// Geometry is one reference polyhedron.
type Geometry struct {
	Symbol string // conventional CShM symbol, e.g. "OC-6"
	Name   string
	CN     int // coordination number (ligand count, excluding any central vertex)

	// Vertices are the reference points. When CentralVertex is true the
	// last entry is the central atom and len(Vertices) == CN+1.
	Vertices      []geom.Vec3
	CentralVertex bool
}

const (
	s3  = 0.57735026918962576 // 1/sqrt(3)
	c60 = 0.5
	s60 = 0.86602540378443865

	// Tetrahedron directions decomposed onto the z axis.
	tetA = 0.94280904158206336 // 2*sqrt(2)/3
	tetB = 0.33333333333333333
	tetC = 0.47140452079103168 // sqrt(2)/3
	tetD = 0.81649658092772603 // sqrt(2/3)

	// Pentagon cosines/sines at 72 degree steps.
	p1c = 0.30901699437494742
	p1s = 0.95105651629515357
	p2c = -0.80901699437494742
	p2s = 0.58778525229247313

	// Square-pyramid basal angle of 104.45 degrees from the apex.
	spyS = 0.96836405889152317
	spyC = -0.24956312732999461

	// Trigonal prism with unit circumradius and square faces.
	tprR = 0.75592894601845446 // 2/sqrt(7)
	tprH = 0.65465367070797714 // sqrt(3/7)

	// Square antiprism with unit circumradius and equal edges.
	saprR = 0.85949929556515652
	saprH = 0.51108108519104132
)

var table = []Geometry{
	// CN 2
	{
		Symbol: "L-2", Name: "linear", CN: 2, CentralVertex: true,
		Vertices: []geom.Vec3{
			{X: 0, Y: 0, Z: 1}, {X: 0, Y: 0, Z: -1}, {},
		},
	},
	{
		Symbol: "vT-2", Name: "bent (vacant tetrahedron)", CN: 2, CentralVertex: true,
		Vertices: []geom.Vec3{
			{X: tetD, Y: 0, Z: s3}, {X: -tetD, Y: 0, Z: s3}, {},
		},
	},
	{
		Symbol: "vOC-2", Name: "bent 90 (cis-tetravacant octahedron)", CN: 2, CentralVertex: true,
		Vertices: []geom.Vec3{
			{X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}, {},
		},
	},

	// CN 3
	{
		Symbol: "TP-3", Name: "trigonal planar", CN: 3, CentralVertex: true,
		Vertices: []geom.Vec3{
			{X: 1, Y: 0, Z: 0}, {X: -c60, Y: s60, Z: 0}, {X: -c60, Y: -s60, Z: 0}, {},
		},
	},
	{
		Symbol: "vT-3", Name: "trigonal pyramid (vacant tetrahedron)", CN: 3, CentralVertex: true,
		Vertices: []geom.Vec3{
			{X: tetA, Y: 0, Z: -tetB},
			{X: -tetC, Y: tetD, Z: -tetB},
			{X: -tetC, Y: -tetD, Z: -tetB},
			{},
		},
	},
	{
		Symbol: "fvOC-3", Name: "fac-trivacant octahedron", CN: 3, CentralVertex: true,
		Vertices: []geom.Vec3{
			{X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}, {X: 0, Y: 0, Z: 1}, {},
		},
	},
	{
		Symbol: "mvOC-3", Name: "T-shape (mer-trivacant octahedron)", CN: 3, CentralVertex: true,
		Vertices: []geom.Vec3{
			{X: 1, Y: 0, Z: 0}, {X: -1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}, {},
		},
	},

	// CN 4
	{
		Symbol: "T-4", Name: "tetrahedron", CN: 4,
		Vertices: []geom.Vec3{
			{X: s3, Y: s3, Z: s3},
			{X: s3, Y: -s3, Z: -s3},
			{X: -s3, Y: s3, Z: -s3},
			{X: -s3, Y: -s3, Z: s3},
		},
	},
	{
		Symbol: "SP-4", Name: "square planar", CN: 4,
		Vertices: []geom.Vec3{
			{X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}, {X: -1, Y: 0, Z: 0}, {X: 0, Y: -1, Z: 0},
		},
	},
	{
		Symbol: "SS-4", Name: "seesaw (cis-divacant octahedron)", CN: 4,
		Vertices: []geom.Vec3{
			{X: 1, Y: 0, Z: 0}, {X: -1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}, {X: 0, Y: 0, Z: 1},
		},
	},

	// CN 5
	{
		Symbol: "TBPY-5", Name: "trigonal bipyramid", CN: 5,
		Vertices: []geom.Vec3{
			{X: 0, Y: 0, Z: 1}, {X: 0, Y: 0, Z: -1},
			{X: 1, Y: 0, Z: 0}, {X: -c60, Y: s60, Z: 0}, {X: -c60, Y: -s60, Z: 0},
		},
	},
	{
		Symbol: "JTBPY-5", Name: "Johnson trigonal bipyramid (J12)", CN: 5,
		// Equal-edge solid: axial vertices closer to the center than the
		// equatorial ring, unlike the spherical TBPY-5.
		Vertices: []geom.Vec3{
			{X: 0, Y: 0, Z: tetD}, {X: 0, Y: 0, Z: -tetD},
			{X: s3, Y: 0, Z: 0}, {X: -s3 * c60, Y: s3 * s60, Z: 0}, {X: -s3 * c60, Y: -s3 * s60, Z: 0},
		},
	},
	{
		Symbol: "SPY-5", Name: "square pyramid", CN: 5,
		Vertices: []geom.Vec3{
			{X: 0, Y: 0, Z: 1},
			{X: spyS, Y: 0, Z: spyC}, {X: 0, Y: spyS, Z: spyC},
			{X: -spyS, Y: 0, Z: spyC}, {X: 0, Y: -spyS, Z: spyC},
		},
	},
	{
		Symbol: "PP-5", Name: "pentagon", CN: 5,
		Vertices: []geom.Vec3{
			{X: 1, Y: 0, Z: 0},
			{X: p1c, Y: p1s, Z: 0}, {X: p2c, Y: p2s, Z: 0},
			{X: p2c, Y: -p2s, Z: 0}, {X: p1c, Y: -p1s, Z: 0},
		},
	},

	// CN 6
	{
		Symbol: "OC-6", Name: "octahedron", CN: 6,
		Vertices: []geom.Vec3{
			{X: 1, Y: 0, Z: 0}, {X: -1, Y: 0, Z: 0},
			{X: 0, Y: 1, Z: 0}, {X: 0, Y: -1, Z: 0},
			{X: 0, Y: 0, Z: 1}, {X: 0, Y: 0, Z: -1},
		},
	},
	{
		Symbol: "TPR-6", Name: "trigonal prism", CN: 6,
		Vertices: []geom.Vec3{
			{X: tprR, Y: 0, Z: tprH}, {X: -tprR * c60, Y: tprR * s60, Z: tprH}, {X: -tprR * c60, Y: -tprR * s60, Z: tprH},
			{X: tprR, Y: 0, Z: -tprH}, {X: -tprR * c60, Y: tprR * s60, Z: -tprH}, {X: -tprR * c60, Y: -tprR * s60, Z: -tprH},
		},
	},
	{
		Symbol: "HP-6", Name: "hexagon", CN: 6,
		Vertices: []geom.Vec3{
			{X: 1, Y: 0, Z: 0}, {X: c60, Y: s60, Z: 0}, {X: -c60, Y: s60, Z: 0},
			{X: -1, Y: 0, Z: 0}, {X: -c60, Y: -s60, Z: 0}, {X: c60, Y: -s60, Z: 0},
		},
	},

	// CN 7
	{
		Symbol: "PBPY-7", Name: "pentagonal bipyramid", CN: 7,
		Vertices: []geom.Vec3{
			{X: 0, Y: 0, Z: 1}, {X: 0, Y: 0, Z: -1},
			{X: 1, Y: 0, Z: 0},
			{X: p1c, Y: p1s, Z: 0}, {X: p2c, Y: p2s, Z: 0},
			{X: p2c, Y: -p2s, Z: 0}, {X: p1c, Y: -p1s, Z: 0},
		},
	},

	// CN 8
	{
		Symbol: "CU-8", Name: "cube", CN: 8,
		Vertices: []geom.Vec3{
			{X: s3, Y: s3, Z: s3}, {X: s3, Y: -s3, Z: s3}, {X: -s3, Y: -s3, Z: s3}, {X: -s3, Y: s3, Z: s3},
			{X: s3, Y: s3, Z: -s3}, {X: s3, Y: -s3, Z: -s3}, {X: -s3, Y: -s3, Z: -s3}, {X: -s3, Y: s3, Z: -s3},
		},
	},
	{
		Symbol: "SAPR-8", Name: "square antiprism", CN: 8,
		Vertices: []geom.Vec3{
			{X: saprR, Y: 0, Z: saprH}, {X: 0, Y: saprR, Z: saprH},
			{X: -saprR, Y: 0, Z: saprH}, {X: 0, Y: -saprR, Z: saprH},
			{X: saprR * 0.70710678118654752, Y: saprR * 0.70710678118654752, Z: -saprH},
			{X: -saprR * 0.70710678118654752, Y: saprR * 0.70710678118654752, Z: -saprH},
			{X: -saprR * 0.70710678118654752, Y: -saprR * 0.70710678118654752, Z: -saprH},
			{X: saprR * 0.70710678118654752, Y: -saprR * 0.70710678118654752, Z: -saprH},
		},
	},
	{
		Symbol: "HBPY-8", Name: "hexagonal bipyramid", CN: 8,
		Vertices: []geom.Vec3{
			{X: 0, Y: 0, Z: 1}, {X: 0, Y: 0, Z: -1},
			{X: 1, Y: 0, Z: 0}, {X: c60, Y: s60, Z: 0}, {X: -c60, Y: s60, Z: 0},
			{X: -1, Y: 0, Z: 0}, {X: -c60, Y: -s60, Z: 0}, {X: c60, Y: -s60, Z: 0},
		},
	},
}

// All returns every reference geometry in table order.
func All() []Geometry {
	return table
}

// ByCN returns the reference geometries for one coordination number.
func ByCN(cn int) []Geometry {
	var out []Geometry
	for _, g := range table {
		if g.CN == cn {
			out = append(out, g)
		}
	}
	return out
}

// Lookup finds a geometry by its CShM symbol.
func Lookup(symbol string) (Geometry, bool) {
	for _, g := range table {
		if g.Symbol == symbol {
			return g, true
		}
	}
	return Geometry{}, false
}

// CoordinationNumbers returns the distinct CNs present in the table, in
// ascending order.
func CoordinationNumbers() []int {
	seen := map[int]bool{}
	var out []int
	for _, g := range table {
		if !seen[g.CN] {
			seen[g.CN] = true
			out = append(out, g.CN)
		}
	}
	return out
}
