// Copyright (c) 2026 Colin McRae

// Package polydd converts between the two descriptions of a convex
// polyhedron: a halfspace (inequality) matrix and a vertex/generator
// matrix. The conversion is the exact double-description method over
// rational arithmetic, with incidence bitsets as the canonical
// redundancy representation. It plays the role cdd plays for the C
// ecosystem: a description is tagged with its representation, and Dual
// computes the other one.
package polydd

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/bits-and-blooms/bitset"

	"github.com/fastpoly/fconv/ratmat"
)

// Representation tags which description of a polyhedron a matrix holds.
type Representation int

const (
	// Inequalities: each row h of M constrains h . z >= 0.
	Inequalities Representation = iota
	// Generators: each row of M generates the cone; for a polytope the
	// rows are homogeneous vertices with leading coordinate 1.
	Generators
)

// Description is a polyhedral cone in one representation.
type Description struct {
	Rep Representation
	M   *ratmat.Matrix
}

// Dual is the result of a double-description conversion.
//
// For an Inequalities input the Rays are the extreme rays of
// {z : Mz >= 0} and Lin is a basis of its lineality space. For a
// Generators input the Rays are the facet normals of cone(M) and Lin
// spans the directions in which the cone is flat (each lineality vector
// a satisfies a . r = 0 for every generator, an implicit equality).
//
// Incidence[i] records, for ray i, which input rows it satisfies with
// equality.
type Dual struct {
	Rays      *ratmat.Matrix
	Lin       *ratmat.Matrix
	Incidence []*bitset.BitSet
}

// ErrNotPolytope reports that an inequality description expected to
// define a bounded polytope turned out to be unbounded or degenerate.
var ErrNotPolytope = errors.New("polydd: description does not define a bounded polytope")

// Convert computes the dual description of d. Both representation
// directions reduce to the same cone computation: the facets of a cone
// generated by rows R are exactly the extreme rays of {a : Ra >= 0}.
func Convert(d Description) (*Dual, error) {
	if d.M == nil || d.M.NumRows() == 0 || d.M.NumCols() == 0 {
		return nil, fmt.Errorf("Convert: empty description")
	}
	return dualCone(d.M)
}

// ray is one generator of the pointed part of the cone under
// construction, with its incidence over the constraint rows processed
// so far.
type ray struct {
	coords []*big.Rat
	inc    *bitset.BitSet
}

// dualCone computes the extreme rays and lineality of {z : Mz >= 0}.
func dualCone(m *ratmat.Matrix) (*Dual, error) {
	numRows, d := m.Dimensions()
	rows := make([][]*big.Rat, numRows)
	for i := 0; i < numRows; i++ {
		rows[i] = m.Row(i)
	}

	basis := independentRows(rows, d)
	rank := len(basis)

	var lin [][]*big.Rat
	work := rows
	workDim := d
	var span [][]*big.Rat // rows of m spanning the row space, when projecting
	if rank < d {
		// The cone has a nontrivial lineality space: the null space of
		// M. The pointed part lives in the row space of M; parametrize
		// z = S^T u with S the independent rows and solve in u.
		lin = nullSpaceBasis(rows, d)
		span = make([][]*big.Rat, rank)
		for i, idx := range basis {
			span[i] = rows[idx]
		}
		work = make([][]*big.Rat, numRows)
		for i := 0; i < numRows; i++ {
			work[i] = make([]*big.Rat, rank)
			for j := 0; j < rank; j++ {
				v, err := ratmat.Dot(rows[i], span[j])
				if err != nil {
					return nil, fmt.Errorf("dualCone: %s", err.Error())
				}
				work[i][j] = v
			}
		}
		workDim = rank
		basis = independentRows(work, workDim)
		if len(basis) != workDim {
			return nil, fmt.Errorf("dualCone: projected matrix lost rank (%d of %d)", len(basis), workDim)
		}
	}

	rays, err := pointedDual(work, workDim, basis)
	if err != nil {
		return nil, err
	}

	// Embed projected rays back into the original coordinates.
	coords := make([][]*big.Rat, len(rays))
	for i, r := range rays {
		if span == nil {
			coords[i] = r.coords
			continue
		}
		z := make([]*big.Rat, d)
		for j := 0; j < d; j++ {
			z[j] = new(big.Rat)
		}
		tmp := new(big.Rat)
		for j := 0; j < workDim; j++ {
			for k := 0; k < d; k++ {
				z[k].Add(z[k], tmp.Mul(r.coords[j], span[j][k]))
			}
		}
		coords[i] = ratmat.ScaleToLattice(z)
	}

	// Final incidence over every input row, by exact evaluation. This
	// also serves as a defensive soundness sweep: any negative value is
	// an internal error.
	incidence := make([]*bitset.BitSet, len(coords))
	for i, z := range coords {
		inc := bitset.New(uint(numRows))
		for rowIdx := 0; rowIdx < numRows; rowIdx++ {
			v, err := ratmat.Dot(rows[rowIdx], z)
			if err != nil {
				return nil, fmt.Errorf("dualCone: %s", err.Error())
			}
			switch v.Sign() {
			case -1:
				return nil, fmt.Errorf("dualCone: ray %d violates constraint %d", i, rowIdx)
			case 0:
				inc.Set(uint(rowIdx))
			}
		}
		incidence[i] = inc
	}

	raysM, err := ratmat.NewFromRatRows(coords, d)
	if err != nil {
		return nil, fmt.Errorf("dualCone: %s", err.Error())
	}
	linRows := make([][]*big.Rat, len(lin))
	for i, v := range lin {
		linRows[i] = ratmat.ScaleToLattice(v)
	}
	linM, err := ratmat.NewFromRatRows(linRows, d)
	if err != nil {
		return nil, fmt.Errorf("dualCone: %s", err.Error())
	}
	return &Dual{Rays: raysM, Lin: linM, Incidence: incidence}, nil
}

// pointedDual runs the incremental double-description algorithm on a
// full-column-rank constraint matrix. basis indexes d independent rows
// used to seed the initial cone.
func pointedDual(rows [][]*big.Rat, d int, basis []int) ([]*ray, error) {
	numRows := len(rows)
	inBasis := make([]bool, numRows)
	sub := make([][]*big.Rat, d)
	for i, idx := range basis {
		inBasis[idx] = true
		sub[i] = rows[idx]
	}
	inv, err := invertSquare(sub)
	if err != nil {
		return nil, fmt.Errorf("pointedDual: seed basis not invertible: %s", err.Error())
	}

	// Initial rays: the columns of the inverse. Ray j satisfies basis
	// row i with value delta_ij, so it is tight on every basis row but
	// the j-th.
	processed := make([]int, 0, numRows)
	processed = append(processed, basis...)
	rays := make([]*ray, d)
	for j := 0; j < d; j++ {
		col := make([]*big.Rat, d)
		for i := 0; i < d; i++ {
			col[i] = inv[i][j]
		}
		r := &ray{coords: ratmat.ScaleToLattice(col)}
		if err := evalIncidence(r, rows, processed, numRows); err != nil {
			return nil, err
		}
		rays[j] = r
	}

	for rowIdx := 0; rowIdx < numRows; rowIdx++ {
		if inBasis[rowIdx] {
			continue
		}
		var pos, zero, neg []*ray
		value := make(map[*ray]*big.Rat, len(rays))
		for _, r := range rays {
			v, err := ratmat.Dot(rows[rowIdx], r.coords)
			if err != nil {
				return nil, fmt.Errorf("pointedDual: %s", err.Error())
			}
			value[r] = v
			switch v.Sign() {
			case 1:
				pos = append(pos, r)
			case 0:
				zero = append(zero, r)
			case -1:
				neg = append(neg, r)
			}
		}
		processed = append(processed, rowIdx)
		if len(neg) == 0 {
			for _, r := range zero {
				r.inc.Set(uint(rowIdx))
			}
			continue
		}

		var created []*ray
		seen := make(map[string]bool)
		tmp := new(big.Rat)
		for _, p := range pos {
			for _, n := range neg {
				if !adjacent(p, n, rays, d) {
					continue
				}
				// alpha p + beta n with alpha = -value(n) > 0,
				// beta = value(p) > 0 lands exactly on the new
				// hyperplane.
				alpha := new(big.Rat).Neg(value[n])
				beta := value[p]
				coords := make([]*big.Rat, d)
				for j := 0; j < d; j++ {
					coords[j] = new(big.Rat).Mul(alpha, p.coords[j])
					coords[j].Add(coords[j], tmp.Mul(beta, n.coords[j]))
				}
				coords = ratmat.ScaleToLattice(coords)
				key := ratmat.RowKey(coords)
				if seen[key] {
					continue
				}
				seen[key] = true
				r := &ray{coords: coords}
				if err := evalIncidence(r, rows, processed, numRows); err != nil {
					return nil, err
				}
				created = append(created, r)
			}
		}
		for _, r := range zero {
			r.inc.Set(uint(rowIdx))
		}
		rays = append(append(pos, zero...), created...)
	}
	return rays, nil
}

// evalIncidence fills r.inc with the processed rows r is tight on.
func evalIncidence(r *ray, rows [][]*big.Rat, processed []int, numRows int) error {
	r.inc = bitset.New(uint(numRows))
	for _, rowIdx := range processed {
		v, err := ratmat.Dot(rows[rowIdx], r.coords)
		if err != nil {
			return fmt.Errorf("evalIncidence: %s", err.Error())
		}
		if v.Sign() == 0 {
			r.inc.Set(uint(rowIdx))
		}
	}
	return nil
}

// adjacent implements the combinatorial adjacency test: p and n are
// adjacent extreme rays iff no other current ray is tight on everything
// p and n are both tight on.
func adjacent(p, n *ray, rays []*ray, d int) bool {
	common := p.inc.Intersection(n.inc)
	if int(common.Count()) < d-2 {
		return false
	}
	for _, w := range rays {
		if w == p || w == n {
			continue
		}
		if w.inc.IsSuperSet(common) {
			return false
		}
	}
	return true
}

// VerticesFromHalfspaces enumerates the vertices of the polytope
// {x : row . (1, x) >= 0 for every row of a}. The result is a matrix of
// homogeneous vertices (leading coordinate 1) and, per vertex, the
// incidence over the rows of a. Fails with ErrNotPolytope when the
// description is unbounded or has a nontrivial lineality space.
func VerticesFromHalfspaces(a *ratmat.Matrix) (*ratmat.Matrix, []*bitset.BitSet, error) {
	numRows, d := a.Dimensions()
	if numRows == 0 || d == 0 {
		return nil, nil, fmt.Errorf("VerticesFromHalfspaces: empty description")
	}
	// Close the homogenization explicitly with z_0 >= 0 so rays with a
	// negative leading coordinate cannot appear.
	closed := ratmat.NewEmpty(0, d)
	closed.Copy(a)
	z0 := make([]*big.Rat, d)
	for j := range z0 {
		z0[j] = new(big.Rat)
	}
	z0[0].SetInt64(1)
	if err := closed.AppendRow(z0); err != nil {
		return nil, nil, fmt.Errorf("VerticesFromHalfspaces: %s", err.Error())
	}

	dual, err := dualCone(closed)
	if err != nil {
		return nil, nil, err
	}
	if dual.Lin.NumRows() > 0 {
		return nil, nil, fmt.Errorf("%w: lineality space has dimension %d", ErrNotPolytope, dual.Lin.NumRows())
	}

	numRays := dual.Rays.NumRows()
	verts := make([][]*big.Rat, 0, numRays)
	incidence := make([]*bitset.BitSet, 0, numRays)
	for i := 0; i < numRays; i++ {
		r := dual.Rays.Row(i)
		if r[0].Sign() == 0 {
			return nil, nil, fmt.Errorf("%w: recession ray found", ErrNotPolytope)
		}
		// Normalize to z_0 = 1.
		v := make([]*big.Rat, d)
		for j := 0; j < d; j++ {
			v[j] = new(big.Rat).Quo(r[j], r[0])
		}
		verts = append(verts, v)
		// Drop the synthetic closing row from the incidence.
		inc := bitset.New(uint(numRows))
		for b, ok := dual.Incidence[i].NextSet(0); ok; b, ok = dual.Incidence[i].NextSet(b + 1) {
			if b < uint(numRows) {
				inc.Set(b)
			}
		}
		incidence = append(incidence, inc)
	}
	vm, err := ratmat.NewFromRatRows(verts, d)
	if err != nil {
		return nil, nil, fmt.Errorf("VerticesFromHalfspaces: %s", err.Error())
	}
	return vm, incidence, nil
}

// HalfspacesFromVertices computes a minimal inequality description of
// the polytope spanned by the homogeneous vertex rows of v. Lineality
// of the dual cone (a degenerate, lower-dimensional hull) comes back as
// explicit pairs of opposing inequality rows, each tight on every
// vertex. The returned incidence maps each inequality row to the
// vertices it is tight on.
func HalfspacesFromVertices(v *ratmat.Matrix) (*ratmat.Matrix, []*bitset.BitSet, error) {
	numVerts, d := v.Dimensions()
	if numVerts == 0 || d == 0 {
		return nil, nil, fmt.Errorf("HalfspacesFromVertices: empty description")
	}
	dual, err := dualCone(v)
	if err != nil {
		return nil, nil, err
	}
	h := ratmat.NewEmpty(0, d)
	h.Copy(dual.Rays)
	incidence := make([]*bitset.BitSet, 0, len(dual.Incidence)+2*dual.Lin.NumRows())
	incidence = append(incidence, dual.Incidence...)
	all := bitset.New(uint(numVerts))
	for i := 0; i < numVerts; i++ {
		all.Set(uint(i))
	}
	neg := make([]*big.Rat, d)
	for i := 0; i < dual.Lin.NumRows(); i++ {
		row := dual.Lin.Row(i)
		for j := 0; j < d; j++ {
			neg[j] = new(big.Rat).Neg(row[j])
		}
		if err := h.AppendRow(row); err != nil {
			return nil, nil, fmt.Errorf("HalfspacesFromVertices: %s", err.Error())
		}
		if err := h.AppendRow(neg); err != nil {
			return nil, nil, fmt.Errorf("HalfspacesFromVertices: %s", err.Error())
		}
		incidence = append(incidence, all.Clone(), all.Clone())
	}
	return h, incidence, nil
}
