// Package cshm computes continuous shape measures (CShM): a non-negative
// score quantifying how closely an observed set of ligand positions around a
// central atom matches an idealized reference polyhedron. A measure of 0 is a
// perfect match; values grow as the arrangement deviates, on the conventional
// 0-100 scale used in the coordination-geometry literature.
//
// The measure is found by a joint search over the rotation group and the
// vertex correspondence: candidate rotations are scored by solving an exact
// assignment problem over squared distances, and the search combines seeded
// Kabsch alignments, a coarse Euler grid, simulated-annealing restarts and a
// local refinement pass.
package cshm
