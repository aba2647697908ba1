// Copyright (c) 2026 Colin McRae

// Package fconv computes exact convex relaxations of the K-dimensional
// ReLU function over octahedral input regions, K in [1,4]. The result
// of FKRelu is a halfspace matrix over (1, x_1..x_K, y_1..y_K) whose
// feasible region contains every point (x, relu(x)) of the input region
// and is as tight as exactly computable.
//
// The pipeline: enumerate the octahedron's vertices exactly, split them
// into sign quadrants, build one polyhedron dual description per
// quadrant with redundancy eliminated by incidence dominance, then
// merge the quadrants into the convex hull of their union one output
// dimension at a time. FKReluWithDD is an independent single-shot
// double-description path kept for cross-checking the primary one.
package fconv

import (
	"fmt"
	"math/big"

	"github.com/bits-and-blooms/bitset"
	"gonum.org/v1/gonum/mat"

	"github.com/fastpoly/fconv/octahedron"
	"github.com/fastpoly/fconv/polydd"
	"github.com/fastpoly/fconv/ratmat"
)

// Relu1 returns the minimal triangle relaxation of 1-dimensional ReLU
// on [lb, ub]:
//
//	y >= 0
//	y >= x
//	y <= mu*x + lmd, mu = ub/(ub-lb), lmd = -lb*ub/(ub-lb)
//
// encoded as rows (c, cx, cy) meaning c + cx*x + cy*y >= 0. The bounds
// must satisfy lb < 0 < ub: on an interval that does not straddle zero
// the ReLU is linear and has no triangle to relax.
func Relu1(lb, ub float64) (*mat.Dense, error) {
	if lb > ub {
		return nil, fmt.Errorf("%w: lower bound %v above upper bound %v", ErrInvalidInput, lb, ub)
	}
	if !(lb < 0 && 0 < ub) {
		return nil, fmt.Errorf("%w: expecting non-trivial bounds lb < 0 < ub, got [%v, %v]", ErrInvalidInput, lb, ub)
	}
	lmd := -lb * ub / (ub - lb)
	mu := ub / (ub - lb)
	return mat.NewDense(3, 3, []float64{
		0, 0, 1, // y >= 0
		0, -1, 1, // y >= x
		lmd, mu, -1, // y <= mu*x + lmd
	}), nil
}

// FKRelu computes the relaxation of K-dimensional ReLU over the
// octahedral region described by a (the canonical layout checked by
// octahedron.VerifyInput). The output has 2K+1 columns: constant,
// inputs x, outputs y. Each row is normalized by its maximum absolute
// coefficient. Fails with ErrInvalidInput on malformed input and
// ErrInternal on invariant violations.
func FKRelu(a *mat.Dense) (*mat.Dense, error) {
	if err := octahedron.VerifyInput(a); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}
	_, cols := a.Dims()
	k := cols - 1
	if k == 1 {
		// The analytic 1-d solution is exact and cheaper than
		// enumeration.
		lb, ub, err := octahedron.Bounds(a)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
		}
		return Relu1(lb[0], ub[0])
	}
	aRat, err := octahedron.NewRatFromDense(a)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}
	h, err := fkreluExact(aRat)
	if err != nil {
		return nil, err
	}
	dense := h.ToDense()
	if dense == nil {
		return nil, fmt.Errorf("%w: empty relaxation", ErrInternal)
	}
	return dense, nil
}

// fkreluExact is the exact-arithmetic body of FKRelu for K >= 2. It is
// kept separate so the soundness and agreement tests can inspect the
// output before the final float64 conversion.
func fkreluExact(aRat *ratmat.Matrix) (*ratmat.Matrix, error) {
	k := aRat.NumCols() - 1
	vs, err := octahedron.ComputeVertices(aRat)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}
	if vs.V.NumRows() == 0 {
		// The constants are mutually inconsistent: a well-formed table
		// can still describe an empty region, and there is nothing to
		// relax over it.
		return nil, fmt.Errorf("%w: octahedral region is empty", ErrInvalidInput)
	}
	quadrant2info, err := octahedron.SplitInQuadrants(vs, aRat.NumRows())
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInternal, err.Error())
	}
	quadrant2pdd := make(map[octahedron.Quadrant]*polydd.PDD, len(quadrant2info))
	for quadrant, info := range quadrant2info {
		pdd, err := quadrantPDD(aRat, quadrant, info, k)
		if err != nil {
			return nil, err
		}
		quadrant2pdd[quadrant] = pdd
	}
	final, err := decompose(quadrant2pdd, k)
	if err != nil {
		return nil, err
	}
	return normalizeRows(final.H)
}

// quadrantPDD builds the dual description of one quadrant: the vertices
// that fell into it, and the non-redundant constraints among the
// original octahedron rows plus the quadrant's own sign facets.
func quadrantPDD(aRat *ratmat.Matrix, quadrant octahedron.Quadrant, info *octahedron.QuadrantInfo, k int) (*polydd.PDD, error) {
	if info.V.NumRows() == 0 {
		// The input region does not reach this quadrant.
		return polydd.NewEmptyPDD(k + 1), nil
	}
	numRows := aRat.NumRows()
	if len(info.Incidence) != info.V.NumRows() {
		return nil, fmt.Errorf(
			"%w: quadrant %s has %d incidence rows for %d vertices",
			ErrInternal, quadrant, len(info.Incidence), info.V.NumRows(),
		)
	}
	incidenceHToV, err := polydd.TransposeIncidence(info.Incidence, uint(numRows+k))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInternal, err.Error())
	}
	if len(incidenceHToV) != numRows+k {
		return nil, fmt.Errorf(
			"%w: transposed incidence has %d rows, expected %d",
			ErrInternal, len(incidenceHToV), numRows+k,
		)
	}
	maximal := polydd.MaximalIndexes(incidenceHToV)

	h := ratmat.NewEmpty(len(maximal), k+1)
	incidence := make([]*bitset.BitSet, len(maximal))
	one := new(big.Rat).SetInt64(1)
	minusOne := new(big.Rat).SetInt64(-1)
	for i, m := range maximal {
		incidence[i] = incidenceHToV[m]
		if m < numRows {
			for j := 0; j <= k; j++ {
				v, err := aRat.Get(m, j)
				if err != nil {
					return nil, fmt.Errorf("%w: %s", ErrInternal, err.Error())
				}
				if err := h.Set(i, j, v); err != nil {
					return nil, fmt.Errorf("%w: %s", ErrInternal, err.Error())
				}
			}
			continue
		}
		// Synthesized sign facet for dimension m - numRows.
		xi := m - numRows
		coef := one
		if quadrant.Sign(xi) == octahedron.Minus {
			coef = minusOne
		}
		if err := h.Set(i, xi+1, coef); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInternal, err.Error())
		}
	}
	return &polydd.PDD{Dim: k + 1, V: info.V, H: h, Incidence: incidence}, nil
}

// normalizeRows scales every row by its maximum absolute coefficient
// (exactly, in rational arithmetic) and sorts the rows canonically so
// repeated runs produce identical output.
func normalizeRows(h *ratmat.Matrix) (*ratmat.Matrix, error) {
	numRows, numCols := h.Dimensions()
	out := ratmat.NewEmpty(numRows, numCols)
	abs := new(big.Rat)
	for i := 0; i < numRows; i++ {
		row := h.Row(i)
		maxAbs := new(big.Rat)
		for _, x := range row {
			if abs.Abs(x).Cmp(maxAbs) > 0 {
				maxAbs.Set(abs)
			}
		}
		if maxAbs.Sign() == 0 {
			return nil, fmt.Errorf("%w: all-zero constraint row %d", ErrInternal, i)
		}
		for j, x := range row {
			if err := out.Set(i, j, new(big.Rat).Quo(x, maxAbs)); err != nil {
				return nil, fmt.Errorf("%w: %s", ErrInternal, err.Error())
			}
		}
	}
	out.SortRowsWithPerm()
	return out, nil
}
