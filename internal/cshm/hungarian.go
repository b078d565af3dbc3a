package cshm

import "math"

// assignmentSolver implements the Kuhn–Munkres (Hungarian) algorithm for the
// balanced assignment problem, in the Jonker–Volgenant potentials variant,
// O(n³). It must be exact: greedy nearest-neighbour matching is non-optimal
// for n ≥ 3 and would inflate measures.
//
// The solver is called once per candidate rotation, tens of thousands of
// times per search, so its scratch arrays are allocated once and reused.
// A solver instance is not safe for concurrent use; each in-flight search
// owns its own.
type assignmentSolver struct {
	n    int
	u    []float64 // row potentials, 1-indexed
	v    []float64 // column potentials, 1-indexed
	p    []int     // p[j] = row assigned to column j
	way  []int     // way[j] = previous column on the augmenting path
	minv []float64
	used []bool
	out  []int
}

func newAssignmentSolver(n int) *assignmentSolver {
	return &assignmentSolver{
		n:    n,
		u:    make([]float64, n+1),
		v:    make([]float64, n+1),
		p:    make([]int, n+1),
		way:  make([]int, n+1),
		minv: make([]float64, n+1),
		used: make([]bool, n+1),
		out:  make([]int, n),
	}
}

// Solve returns the permutation perm minimizing Σ cost[i][perm[i]] over an
// n×n cost matrix of finite values. The returned slice is reused by the next
// call; callers that keep it must copy.
func (s *assignmentSolver) Solve(cost [][]float64) []int {
	n := s.n
	const inf = math.MaxFloat64 / 2

	for j := 0; j <= n; j++ {
		s.u[j] = 0
		s.v[j] = 0
		s.p[j] = 0
		s.way[j] = 0
	}

	// Uses 1-indexed arrays internally for cleaner index arithmetic; column
	// 0 is the virtual start of each augmenting path.
	for i := 1; i <= n; i++ {
		s.p[0] = i
		j0 := 0

		for j := 1; j <= n; j++ {
			s.minv[j] = inf
			s.used[j] = false
		}
		s.used[0] = false

		for {
			s.used[j0] = true
			i0 := s.p[j0]
			delta := inf
			j1 := -1

			for j := 1; j <= n; j++ {
				if s.used[j] {
					continue
				}
				cur := cost[i0-1][j-1] - s.u[i0] - s.v[j]
				if cur < s.minv[j] {
					s.minv[j] = cur
					s.way[j] = j0
				}
				if s.minv[j] < delta {
					delta = s.minv[j]
					j1 = j
				}
			}

			if j1 < 0 {
				break
			}

			for j := 0; j <= n; j++ {
				if s.used[j] {
					s.u[s.p[j]] += delta
					s.v[j] -= delta
				} else {
					s.minv[j] -= delta
				}
			}

			j0 = j1
			if s.p[j0] == 0 {
				break
			}
		}

		// Augment along the path back to the virtual column.
		for j0 != 0 {
			j1 := s.way[j0]
			s.p[j0] = s.p[j1]
			j0 = j1
		}
	}

	for j := 1; j <= n; j++ {
		if s.p[j] > 0 {
			s.out[s.p[j]-1] = j - 1
		}
	}
	return s.out
}

// SolveAssignment is a convenience wrapper for one-off exact assignment on a
// square cost matrix. It allocates a fresh solver; hot paths should hold an
// assignmentSolver instead.
func SolveAssignment(cost [][]float64) []int {
	n := len(cost)
	if n == 0 {
		return nil
	}
	perm := newAssignmentSolver(n).Solve(cost)
	out := make([]int, n)
	copy(out, perm)
	return out
}
