// Copyright (c) 2026 Colin McRae

package polydd

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/fastpoly/fconv/ratmat"
)

// PDD is a polyhedron dual description: both the vertex and the
// halfspace representation of the same polytope, glued together by the
// halfspace-to-vertex incidence.
//
// Invariants: every vertex satisfies every row of H exactly
// (soundness), and no row of H is implied by the others (minimality,
// enforced by the maximal-index filter when the PDD is assembled).
type PDD struct {
	// Dim is the number of columns of V and H (homogeneous dimension).
	Dim int
	// V holds one homogeneous vertex per row, leading coordinate 1.
	V *ratmat.Matrix
	// H holds one inequality per row: row . (1, x, ...) >= 0.
	H *ratmat.Matrix
	// Incidence[i] is the set of vertices row i of H is tight on.
	Incidence []*bitset.BitSet
}

// NewEmptyPDD returns the PDD of the empty polytope of homogeneous
// dimension dim: zero vertices, zero constraints, correct width.
func NewEmptyPDD(dim int) *PDD {
	return &PDD{
		Dim: dim,
		V:   ratmat.NewEmpty(0, dim),
		H:   ratmat.NewEmpty(0, dim),
	}
}

// IsEmpty reports whether the PDD describes the empty polytope.
func (p *PDD) IsEmpty() bool {
	return p.V.NumRows() == 0
}

// CheckSound verifies the soundness invariant: every vertex satisfies
// every constraint with exact arithmetic. A violation means a
// programming error upstream, never bad input.
func (p *PDD) CheckSound() error {
	for i := 0; i < p.H.NumRows(); i++ {
		h := p.H.Row(i)
		for j := 0; j < p.V.NumRows(); j++ {
			v, err := ratmat.Dot(h, p.V.Row(j))
			if err != nil {
				return fmt.Errorf("PDD.CheckSound: %s", err.Error())
			}
			if v.Sign() < 0 {
				return fmt.Errorf("PDD.CheckSound: vertex %d violates constraint %d", j, i)
			}
		}
	}
	return nil
}
