// Copyright (c) 2026 Colin McRae

// Package octahedron enumerates the vertices of octahedral input
// regions: polytopes over K dimensions (K in [1,4]) described by one
// inequality per nonzero sign combination of the coordinates. The
// constraint layout is fixed per K by a canonical coefficient table;
// only the constant column varies with the input.
package octahedron

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/bits-and-blooms/bitset"
	"gonum.org/v1/gonum/mat"

	"github.com/fastpoly/fconv/polydd"
	"github.com/fastpoly/fconv/ratmat"
)

// MaxK is the largest supported input dimension. The table size (and
// with it the cost of exact enumeration) grows as 3^K, which is why
// the cap is part of the contract rather than a soft limit.
const MaxK = 4

// ErrInvalidInput reports a halfspace matrix that does not match the
// canonical octahedral layout for its dimension.
var ErrInvalidInput = errors.New("octahedron: input does not match the canonical octahedral format")

// pow3[k] = 3^k.
var pow3 = [MaxK + 1]int{1, 3, 9, 27, 81}

// coefTables[k] is the canonical coefficient table for dimension k:
// every nonzero sign row over {+1, 0, -1}^k, enumerated
// lexicographically with digit order (+1, 0, -1). Built once at
// startup and never mutated.
var coefTables [MaxK + 1][][]int

func init() {
	for k := 1; k <= MaxK; k++ {
		coefTables[k] = buildCoefs(k)
	}
}

func buildCoefs(k int) [][]int {
	table := make([][]int, 0, pow3[k]-1)
	for code := 0; code < pow3[k]; code++ {
		row := make([]int, k)
		rest := code
		zero := true
		for j := k - 1; j >= 0; j-- {
			// digit 0 -> +1, 1 -> 0, 2 -> -1
			row[j] = 1 - rest%3
			if row[j] != 0 {
				zero = false
			}
			rest /= 3
		}
		if zero {
			continue
		}
		table = append(table, row)
	}
	return table
}

// NumRows returns the number of constraint rows of the canonical
// octahedron for dimension k.
func NumRows(k int) int {
	return pow3[k] - 1
}

// Coefs returns the canonical coefficient table for dimension k. The
// table is shared read-only state; callers must not modify it.
func Coefs(k int) ([][]int, error) {
	if k < 1 || MaxK < k {
		return nil, fmt.Errorf("%w: K = %d outside [1, %d]", ErrInvalidInput, k, MaxK)
	}
	return coefTables[k], nil
}

// boundRowIndex returns the table row index of the pure sign row
// s * e_dim (all coefficients zero except sign s at dim).
func boundRowIndex(k, dim int, s int) int {
	code := 0
	for j := 0; j < k; j++ {
		digit := 1 // coefficient 0
		if j == dim {
			if s > 0 {
				digit = 0
			} else {
				digit = 2
			}
		}
		code = code*3 + digit
	}
	// The all-zero row sits at code (3^k - 1) / 2 and is skipped by the
	// table, shifting everything after it down by one.
	if code > (pow3[k]-1)/2 {
		return code - 1
	}
	return code
}

// VerifyInput checks that a is a canonical octahedral halfspace matrix:
// K+1 columns with K in [1, MaxK], 3^K - 1 rows, and coefficient
// columns exactly matching the table. The constant column is free.
func VerifyInput(a *mat.Dense) error {
	rows, cols := a.Dims()
	k := cols - 1
	if k < 1 || MaxK < k {
		return fmt.Errorf("%w: K = %d outside [1, %d]", ErrInvalidInput, k, MaxK)
	}
	if rows != NumRows(k) {
		return fmt.Errorf("%w: %d rows, expected %d for K = %d", ErrInvalidInput, rows, NumRows(k), k)
	}
	coefs := coefTables[k]
	for i := 0; i < rows; i++ {
		for j := 0; j < k; j++ {
			if a.At(i, j+1) != float64(coefs[i][j]) {
				return fmt.Errorf(
					"%w: coefficient (%d,%d) = %v, expected %d", ErrInvalidInput, i, j+1, a.At(i, j+1), coefs[i][j],
				)
			}
		}
	}
	return nil
}

// Bounds extracts the per-dimension interval [lb_i, ub_i] encoded by
// the pure sign rows of a canonical octahedral matrix a.
func Bounds(a *mat.Dense) (lb, ub []float64, err error) {
	if err := VerifyInput(a); err != nil {
		return nil, nil, err
	}
	_, cols := a.Dims()
	k := cols - 1
	lb = make([]float64, k)
	ub = make([]float64, k)
	for i := 0; i < k; i++ {
		// b + x_i >= 0 gives the lower bound, b - x_i >= 0 the upper.
		lb[i] = -a.At(boundRowIndex(k, i, 1), 0)
		ub[i] = a.At(boundRowIndex(k, i, -1), 0)
	}
	return lb, ub, nil
}

// OrthantAdjacency records an edge between two vertices that lie in
// different orthants: adjacent extreme points u and v with strictly
// opposite signs in at least one coordinate. The quadrant splitter cuts
// these edges where they cross the sign hyperplanes; the crossing
// points are the boundary vertices shared by adjacent quadrants.
type OrthantAdjacency struct {
	U, V int
}

// VertexSet is the exact vertex description of an octahedron: the
// homogeneous vertex matrix, per-vertex incidence over the input
// constraint rows, and the orthant adjacency metadata consumed by the
// quadrant splitter.
type VertexSet struct {
	K           int
	V           *ratmat.Matrix
	Incidence   []*bitset.BitSet
	Adjacencies []OrthantAdjacency
}

// ComputeVertices enumerates the vertex set of the octahedron described
// by the exact halfspace matrix a, using exact double-description
// enumeration. Vertices come back sorted in a canonical order, each
// with its constraint incidence; adjacency metadata lists the vertices
// sitting on each inter-orthant boundary.
func ComputeVertices(a *ratmat.Matrix) (*VertexSet, error) {
	k := a.NumCols() - 1
	if k < 1 || MaxK < k {
		return nil, fmt.Errorf("%w: K = %d outside [1, %d]", ErrInvalidInput, k, MaxK)
	}
	if a.NumRows() != NumRows(k) {
		return nil, fmt.Errorf(
			"%w: %d rows, expected %d for K = %d", ErrInvalidInput, a.NumRows(), NumRows(k), k,
		)
	}
	verts, incidence, err := polydd.VerticesFromHalfspaces(a)
	if err != nil {
		if errors.Is(err, polydd.ErrNotPolytope) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
		}
		return nil, err
	}
	perm := verts.SortRowsWithPerm()
	sortedInc := make([]*bitset.BitSet, len(incidence))
	for newIdx, oldIdx := range perm {
		sortedInc[newIdx] = incidence[oldIdx]
	}
	vs := &VertexSet{K: k, V: verts, Incidence: sortedInc}
	vs.Adjacencies = computeAdjacencies(vs)
	return vs, nil
}

// computeAdjacencies lists the vertex pairs that are adjacent (share an
// edge, by the combinatorial test on their incidence sets) and sit in
// different orthants: some coordinate has strictly opposite signs.
// These are exactly the edges the quadrant splitter has to cut.
func computeAdjacencies(vs *VertexSet) []OrthantAdjacency {
	n := vs.V.NumRows()
	var adjacencies []OrthantAdjacency
	for u := 0; u < n; u++ {
		for v := u + 1; v < n; v++ {
			if !straddles(vs.V.Row(u), vs.V.Row(v), vs.K) {
				continue
			}
			if !VerticesAdjacent(vs.Incidence, u, v) {
				continue
			}
			adjacencies = append(adjacencies, OrthantAdjacency{U: u, V: v})
		}
	}
	return adjacencies
}

// straddles reports whether two homogeneous vertices have strictly
// opposite signs in some coordinate.
func straddles(u, v []*big.Rat, k int) bool {
	for dim := 0; dim < k; dim++ {
		if u[dim+1].Sign()*v[dim+1].Sign() < 0 {
			return true
		}
	}
	return false
}

// VerticesAdjacent is the combinatorial edge test: vertices u and v of
// a polytope are adjacent iff no third vertex is tight on every
// constraint u and v are both tight on.
func VerticesAdjacent(incidence []*bitset.BitSet, u, v int) bool {
	common := incidence[u].Intersection(incidence[v])
	for w := range incidence {
		if w == u || w == v {
			continue
		}
		if incidence[w].IsSuperSet(common) {
			return false
		}
	}
	return true
}

// NewRatFromDense verifies a float input matrix against the canonical
// layout and embeds it exactly into rational arithmetic.
func NewRatFromDense(a *mat.Dense) (*ratmat.Matrix, error) {
	if err := VerifyInput(a); err != nil {
		return nil, err
	}
	r, err := ratmat.NewFromDense(a)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}
	return r, nil
}
