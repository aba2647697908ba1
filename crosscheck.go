// Copyright (c) 2026 Colin McRae

package fconv

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/fastpoly/fconv/octahedron"
	"github.com/fastpoly/fconv/polydd"
	"github.com/fastpoly/fconv/ratmat"
)

// FKReluWithDD computes the same relaxation as FKRelu through an
// independent pipeline: each quadrant's vertices are enumerated
// directly from its own halfspace description (the octahedron rows
// plus the quadrant's sign rows), projected onto the ReLU graph in
// 2K+1 columns, and handed to the generic double-description solver in
// a single call. The two paths must define the same feasible region;
// keeping both lets tests validate one against the other.
func FKReluWithDD(a *mat.Dense) (*mat.Dense, error) {
	if err := octahedron.VerifyInput(a); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}
	aRat, err := octahedron.NewRatFromDense(a)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}
	h, err := fkreluWithDDExact(aRat)
	if err != nil {
		return nil, err
	}
	dense := h.ToDense()
	if dense == nil {
		return nil, fmt.Errorf("%w: empty relaxation", ErrInternal)
	}
	normalizeDenseRows(dense)
	return dense, nil
}

// fkreluWithDDExact is the exact body of FKReluWithDD, shared with the
// agreement tests.
func fkreluWithDDExact(aRat *ratmat.Matrix) (*ratmat.Matrix, error) {
	k := aRat.NumCols() - 1
	combined := ratmat.NewEmpty(0, 2*k+1)
	seen := make(map[string]bool)
	projected := make([]*big.Rat, 2*k+1)
	for _, quadrant := range octahedron.AllQuadrants(k) {
		verts, err := quadrantVertices(aRat, quadrant, k)
		if err != nil {
			return nil, err
		}
		for i := 0; i < verts.NumRows(); i++ {
			v := verts.Row(i)
			for j := 0; j <= k; j++ {
				projected[j] = v[j]
			}
			for dim := 0; dim < k; dim++ {
				// Only the PLUS case copies the coordinate; a MINUS
				// output is clamped to zero.
				if quadrant.Sign(dim) == octahedron.Plus {
					projected[k+1+dim] = v[dim+1]
				} else {
					projected[k+1+dim] = new(big.Rat)
				}
			}
			if key := ratmat.RowKey(projected); !seen[key] {
				seen[key] = true
				if err := combined.AppendRow(projected); err != nil {
					return nil, fmt.Errorf("%w: %s", ErrInternal, err.Error())
				}
			}
		}
	}
	if combined.NumRows() == 0 {
		// Same failure class as the primary path: an empty region is a
		// contract violation by the caller, not a pipeline bug.
		return nil, fmt.Errorf("%w: octahedral region is empty", ErrInvalidInput)
	}
	h, _, err := polydd.HalfspacesFromVertices(combined)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInternal, err.Error())
	}
	return normalizeRows(h)
}

// quadrantVertices enumerates the vertices of the octahedron restricted
// to one quadrant, from scratch: the input rows plus one sign row per
// dimension form the quadrant's own halfspace description. This is the
// independent enumeration backend of the cross-check path.
func quadrantVertices(aRat *ratmat.Matrix, quadrant octahedron.Quadrant, k int) (*ratmat.Matrix, error) {
	desc := ratmat.NewEmpty(0, k+1)
	desc.Copy(aRat)
	row := make([]*big.Rat, k+1)
	for dim := 0; dim < k; dim++ {
		for j := range row {
			row[j] = new(big.Rat)
		}
		if quadrant.Sign(dim) == octahedron.Plus {
			row[dim+1].SetInt64(1) // x_dim >= 0
		} else {
			row[dim+1].SetInt64(-1) // x_dim <= 0
		}
		if err := desc.AppendRow(row); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInternal, err.Error())
		}
	}
	verts, _, err := polydd.VerticesFromHalfspaces(desc)
	if err != nil {
		if errors.Is(err, polydd.ErrNotPolytope) {
			// A quadrant of a verified octahedron is always bounded.
			return nil, fmt.Errorf("%w: %s", ErrInternal, err.Error())
		}
		return nil, fmt.Errorf("%w: %s", ErrInternal, err.Error())
	}
	return verts, nil
}

// normalizeDenseRows rescales each row of a float matrix by its maximum
// absolute coefficient. Pure numerical conditioning for downstream
// float consumers; correctness never depends on it.
func normalizeDenseRows(dense *mat.Dense) {
	numRows, numCols := dense.Dims()
	absRow := make([]float64, numCols)
	for i := 0; i < numRows; i++ {
		row := dense.RawRowView(i)
		for j, x := range row {
			absRow[j] = math.Abs(x)
		}
		if maxAbs := floats.Max(absRow); maxAbs > 0 {
			floats.Scale(1/maxAbs, row)
		}
	}
}
