// Copyright (c) 2026 Colin McRae

package octahedron

import (
	"fmt"
	"math/big"

	"github.com/bits-and-blooms/bitset"

	"github.com/fastpoly/fconv/ratmat"
)

// Sign labels one dimension of a quadrant.
type Sign byte

const (
	// Plus marks the halfspace x_i >= 0.
	Plus Sign = '+'
	// Minus marks the halfspace x_i <= 0.
	Minus Sign = '-'
)

// Quadrant is a sign-consistent region of the input space: one Sign per
// dimension. The string form ("+-" etc.) doubles as the map key and
// sorts quadrants in a deterministic order.
type Quadrant string

// Sign returns the sign label of dimension i.
func (q Quadrant) Sign(i int) Sign {
	return Sign(q[i])
}

// Extend returns q with one more trailing dimension of sign s.
func (q Quadrant) Extend(s Sign) Quadrant {
	return Quadrant(append([]byte(q), byte(s)))
}

// Flip returns the quadrant with dimension i's sign flipped.
func (q Quadrant) Flip(i int) Quadrant {
	b := []byte(q)
	if b[i] == byte(Plus) {
		b[i] = byte(Minus)
	} else {
		b[i] = byte(Plus)
	}
	return Quadrant(b)
}

// Compatible reports whether a homogeneous vertex row lies in q. A
// coordinate that is exactly zero is compatible with either sign, which
// is what places boundary vertices in every adjacent quadrant.
func (q Quadrant) Compatible(vertex []*big.Rat) bool {
	for i := 0; i < len(q); i++ {
		s := vertex[i+1].Sign()
		if s > 0 && q.Sign(i) == Minus {
			return false
		}
		if s < 0 && q.Sign(i) == Plus {
			return false
		}
	}
	return true
}

// AllQuadrants returns the 2^k quadrants of dimension k in
// lexicographic order ('+' before '-'). k = 0 yields the single empty
// quadrant, which the decomposition uses as its terminal key.
func AllQuadrants(k int) []Quadrant {
	quadrants := make([]Quadrant, 0, 1<<k)
	buf := make([]byte, k)
	for code := 0; code < 1<<k; code++ {
		for i := 0; i < k; i++ {
			if code&(1<<(k-1-i)) == 0 {
				buf[i] = byte(Plus)
			} else {
				buf[i] = byte(Minus)
			}
		}
		quadrants = append(quadrants, Quadrant(buf))
	}
	return quadrants
}

// QuadrantInfo is the vertex description of the octahedron restricted
// to one quadrant: the vertices of the intersection polytope and their
// incidence, widened by one sign-facet column per dimension (bit
// numConstraints + i set iff the vertex lies on the hyperplane x_i = 0
// of a quadrant whose sign at i has been imposed).
type QuadrantInfo struct {
	V         *ratmat.Matrix
	Incidence []*bitset.BitSet
}

// SplitInQuadrants computes, for each of the 2^K quadrants, the vertex
// set of the octahedron intersected with that quadrant. This is more
// than filtering the octahedron's own vertices by sign: an edge whose
// endpoints have opposite signs at some coordinate crosses the sign
// hyperplane, and the crossing point is a new vertex of both pieces.
//
// The split runs one dimension at a time. At each level every piece is
// cut by the hyperplane x_dim = 0: vertices on the nonnegative side go
// to the '+' child, vertices on the nonpositive side to the '-' child
// (a vertex exactly on the hyperplane goes to both, with the sign-facet
// bit set), and each edge straddling the hyperplane contributes its
// crossing point to both children. Edges of a piece are recovered from
// incidence by the combinatorial adjacency test; the top level reuses
// the enumerator's adjacency metadata.
//
// Every quadrant key is present in the result; quadrants the region
// does not reach carry a zero-row vertex matrix. numConstraints is the
// row count of the originating halfspace matrix; incidence in the
// result has numConstraints + K columns.
func SplitInQuadrants(vs *VertexSet, numConstraints int) (map[Quadrant]*QuadrantInfo, error) {
	k := vs.K
	if len(vs.Incidence) != vs.V.NumRows() {
		return nil, fmt.Errorf(
			"SplitInQuadrants: %d incidence rows for %d vertices", len(vs.Incidence), vs.V.NumRows(),
		)
	}
	width := uint(numConstraints + k)
	root := &QuadrantInfo{V: ratmat.NewEmpty(0, k+1)}
	root.V.Copy(vs.V)
	for _, inc := range vs.Incidence {
		widened := bitset.New(width)
		for b, ok := inc.NextSet(0); ok; b, ok = inc.NextSet(b + 1) {
			widened.Set(b)
		}
		root.Incidence = append(root.Incidence, widened)
	}
	pieces := map[Quadrant]*QuadrantInfo{Quadrant(""): root}
	for dim := 0; dim < k; dim++ {
		next := make(map[Quadrant]*QuadrantInfo, 2<<dim)
		for _, prefix := range AllQuadrants(dim) {
			p := pieces[prefix]
			var edges []OrthantAdjacency
			if dim == 0 {
				edges = vs.Adjacencies
			} else {
				edges = pieceEdges(p)
			}
			plusSide, minusSide, err := cutPiece(p, edges, k, dim, width)
			if err != nil {
				return nil, err
			}
			next[prefix.Extend(Plus)] = plusSide
			next[prefix.Extend(Minus)] = minusSide
		}
		pieces = next
	}
	return pieces, nil
}

// pieceEdges recovers the edges of a piece from vertex incidence.
func pieceEdges(p *QuadrantInfo) []OrthantAdjacency {
	var edges []OrthantAdjacency
	for u := 0; u < len(p.Incidence); u++ {
		for v := u + 1; v < len(p.Incidence); v++ {
			if VerticesAdjacent(p.Incidence, u, v) {
				edges = append(edges, OrthantAdjacency{U: u, V: v})
			}
		}
	}
	return edges
}

// cutPiece splits one piece by the hyperplane x_dim = 0 into its
// nonnegative and nonpositive sides. The sign-facet bit of dim is
// numConstraints + dim; cut vertices inherit the intersection of their
// edge endpoints' incidence, which is exact because a constraint tight
// in an edge's relative interior is tight at both endpoints.
func cutPiece(p *QuadrantInfo, edges []OrthantAdjacency, k, dim int, width uint) (plusSide, minusSide *QuadrantInfo, err error) {
	signBit := width - uint(k) + uint(dim)
	plusSide = &QuadrantInfo{V: ratmat.NewEmpty(0, k+1)}
	minusSide = &QuadrantInfo{V: ratmat.NewEmpty(0, k+1)}
	for i := 0; i < p.V.NumRows(); i++ {
		row := p.V.Row(i)
		s := row[dim+1].Sign()
		if s >= 0 {
			if err := appendVertex(plusSide, row, p.Incidence[i], s == 0, signBit); err != nil {
				return nil, nil, err
			}
		}
		if s <= 0 {
			if err := appendVertex(minusSide, row, p.Incidence[i], s == 0, signBit); err != nil {
				return nil, nil, err
			}
		}
	}
	seen := make(map[string]bool)
	for _, e := range edges {
		u := p.V.Row(e.U)
		v := p.V.Row(e.V)
		if u[dim+1].Sign()*v[dim+1].Sign() >= 0 {
			continue
		}
		cut := cutPoint(u, v, dim)
		if key := ratmat.RowKey(cut); seen[key] {
			continue
		} else {
			seen[key] = true
		}
		inc := p.Incidence[e.U].Intersection(p.Incidence[e.V])
		inc.Set(signBit)
		if err := appendVertex(plusSide, cut, inc, false, 0); err != nil {
			return nil, nil, err
		}
		if err := appendVertex(minusSide, cut, inc, false, 0); err != nil {
			return nil, nil, err
		}
	}
	return plusSide, minusSide, nil
}

// cutPoint returns the point where the segment between homogeneous
// vertices u and v crosses the hyperplane x_dim = 0. The endpoints must
// have strictly opposite signs at dim, so the denominator is nonzero
// and the crossing is in the segment's relative interior.
func cutPoint(u, v []*big.Rat, dim int) []*big.Rat {
	t := new(big.Rat).Sub(u[dim+1], v[dim+1])
	t.Quo(u[dim+1], t)
	oneMinusT := new(big.Rat).SetInt64(1)
	oneMinusT.Sub(oneMinusT, t)
	cut := make([]*big.Rat, len(u))
	for j := range cut {
		cut[j] = new(big.Rat).Mul(oneMinusT, u[j])
		cut[j].Add(cut[j], new(big.Rat).Mul(t, v[j]))
	}
	// Exactly zero by construction; set it outright rather than trust
	// the interpolation.
	cut[dim+1] = new(big.Rat)
	return cut
}

func appendVertex(info *QuadrantInfo, row []*big.Rat, inc *bitset.BitSet, onFacet bool, signBit uint) error {
	if err := info.V.AppendRow(row); err != nil {
		return fmt.Errorf("SplitInQuadrants: %s", err.Error())
	}
	withBit := inc.Clone()
	if onFacet {
		withBit.Set(signBit)
	}
	info.Incidence = append(info.Incidence, withBit)
	return nil
}
