// Copyright (c) 2026 Colin McRae

package fconv

import (
	"fmt"
	"math/big"

	"github.com/bits-and-blooms/bitset"

	"github.com/fastpoly/fconv/octahedron"
	"github.com/fastpoly/fconv/polydd"
	"github.com/fastpoly/fconv/ratmat"
)

// decompose merges the per-quadrant dual descriptions into one
// description of the convex hull of their union over all 2^K
// quadrants, in 2K+1 columns (1, x_1..x_K, y_1..y_K).
//
// It works one dimension at a time, from K down to 1: the PLUS/MINUS
// pair of quadrants sharing a sign prefix is lifted by the output
// column y_dim (y = x on the PLUS side, y = 0 on the MINUS side, the
// ReLU semantics of that sign) and replaced by the hull of the union of
// their vertex sets. Merging pairwise keeps each exact enumeration
// small instead of attacking the full 2K-dimensional problem at once,
// and the per-quadrant sign constraints guarantee no soundness is lost
// at the seams.
func decompose(quadrant2pdd map[octahedron.Quadrant]*polydd.PDD, k int) (*polydd.PDD, error) {
	if len(quadrant2pdd) != 1<<k {
		return nil, fmt.Errorf(
			"%w: decomposition got %d quadrants for K = %d", ErrInternal, len(quadrant2pdd), k,
		)
	}
	current := quadrant2pdd
	width := k + 1
	for dim := k; dim >= 1; dim-- {
		next := make(map[octahedron.Quadrant]*polydd.PDD, 1<<(dim-1))
		for _, prefix := range octahedron.AllQuadrants(dim - 1) {
			plusSide, ok := current[prefix.Extend(octahedron.Plus)]
			if !ok {
				return nil, fmt.Errorf("%w: missing quadrant %s+", ErrInternal, prefix)
			}
			minusSide, ok := current[prefix.Extend(octahedron.Minus)]
			if !ok {
				return nil, fmt.Errorf("%w: missing quadrant %s-", ErrInternal, prefix)
			}
			merged, err := mergePair(plusSide, minusSide, k, dim-1, width)
			if err != nil {
				return nil, err
			}
			next[prefix] = merged
		}
		current = next
		width++
	}
	return current[octahedron.Quadrant("")], nil
}

// mergePair computes the hull of the union of the two sides of
// dimension dim (0-based), lifted by the output column y_dim. width is
// the homogeneous width of both inputs; the result has width+1.
func mergePair(plusSide, minusSide *polydd.PDD, k, dim, width int) (*polydd.PDD, error) {
	if plusSide.Dim != width || minusSide.Dim != width {
		return nil, fmt.Errorf(
			"%w: merge at width %d got PDDs of width %d and %d",
			ErrInternal, width, plusSide.Dim, minusSide.Dim,
		)
	}
	switch {
	case plusSide.IsEmpty() && minusSide.IsEmpty():
		return polydd.NewEmptyPDD(width + 1), nil
	case minusSide.IsEmpty():
		// The region never goes negative in this dimension: the ReLU
		// is the identity there, expressed as an exact equality.
		return liftDegenerate(plusSide, k, dim, width, true)
	case plusSide.IsEmpty():
		return liftDegenerate(minusSide, k, dim, width, false)
	}

	liftedPlus, err := liftVertices(plusSide.V, k, dim, true)
	if err != nil {
		return nil, err
	}
	liftedMinus, err := liftVertices(minusSide.V, k, dim, false)
	if err != nil {
		return nil, err
	}
	// Vertices on the seam hyperplane x_dim = 0 appear on both sides
	// with identical lifts; keep one copy.
	seen := make(map[string]bool, liftedPlus.NumRows()+liftedMinus.NumRows())
	combined := ratmat.NewEmpty(0, width+1)
	for _, m := range []*ratmat.Matrix{liftedPlus, liftedMinus} {
		for i := 0; i < m.NumRows(); i++ {
			row := m.Row(i)
			key := ratmat.RowKey(row)
			if seen[key] {
				continue
			}
			seen[key] = true
			if err := combined.AppendRow(row); err != nil {
				return nil, fmt.Errorf("%w: %s", ErrInternal, err.Error())
			}
		}
	}
	h, incidence, err := polydd.HalfspacesFromVertices(combined)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInternal, err.Error())
	}
	return &polydd.PDD{Dim: width + 1, V: combined, H: h, Incidence: incidence}, nil
}

// liftVertices inserts the y_dim column at position k+1: a copy of
// x_dim on the PLUS side, zero on the MINUS side.
func liftVertices(v *ratmat.Matrix, k, dim int, plus bool) (*ratmat.Matrix, error) {
	lifted, err := v.InsertCol(k + 1)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInternal, err.Error())
	}
	if plus {
		for i := 0; i < lifted.NumRows(); i++ {
			row := lifted.Row(i)
			row[k+1].Set(row[dim+1])
		}
	}
	return lifted, nil
}

// liftDegenerate lifts a PDD whose opposite quadrant is empty. No hull
// is needed: the new output coordinate is an exact linear function of
// the inputs (y = x on an all-nonnegative dimension, y = 0 on an
// all-nonpositive one), appended as a pair of opposing inequalities
// tight on every vertex.
func liftDegenerate(p *polydd.PDD, k, dim, width int, plus bool) (*polydd.PDD, error) {
	liftedV, err := liftVertices(p.V, k, dim, plus)
	if err != nil {
		return nil, err
	}
	liftedH, err := p.H.InsertCol(k + 1)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInternal, err.Error())
	}
	eq := make([]*big.Rat, width+1)
	for i := range eq {
		eq[i] = new(big.Rat)
	}
	eq[k+1].SetInt64(1)
	if plus {
		eq[dim+1].SetInt64(-1) // y - x >= 0
	}
	neg := make([]*big.Rat, width+1)
	for i := range neg {
		neg[i] = new(big.Rat).Neg(eq[i])
	}
	if err := liftedH.AppendRow(eq); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInternal, err.Error())
	}
	if err := liftedH.AppendRow(neg); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInternal, err.Error())
	}

	numVerts := uint(liftedV.NumRows())
	all := bitset.New(numVerts)
	for i := uint(0); i < numVerts; i++ {
		all.Set(i)
	}
	incidence := make([]*bitset.BitSet, 0, len(p.Incidence)+2)
	incidence = append(incidence, p.Incidence...)
	incidence = append(incidence, all, all.Clone())
	return &polydd.PDD{Dim: width + 1, V: liftedV, H: liftedH, Incidence: incidence}, nil
}
