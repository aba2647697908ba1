// Copyright (c) 2026 Colin McRae

package polydd

import (
	"testing"

	"github.com/bits-and-blooms/bitset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastpoly/fconv/ratmat"
)

// sortWithIncidence sorts the rows of m canonically and permutes the
// incidence slice to match.
func sortWithIncidence(m *ratmat.Matrix, incidence []*bitset.BitSet) []*bitset.BitSet {
	perm := m.SortRowsWithPerm()
	sorted := make([]*bitset.BitSet, len(incidence))
	for newIdx, oldIdx := range perm {
		sorted[newIdx] = incidence[oldIdx]
	}
	return sorted
}

func TestConvertGenerators(t *testing.T) {
	// The facets of the cone generated by the triangle's homogeneous
	// vertices are the triangle's inequality rows.
	v, err := ratmat.NewFromInt64Array([]int64{
		1, 0, 0,
		1, 1, 0,
		1, 0, 1,
	}, 3, 3)
	require.NoError(t, err)
	dual, err := Convert(Description{Rep: Generators, M: v})
	require.NoError(t, err)
	assert.Equal(t, 0, dual.Lin.NumRows())
	require.Equal(t, 3, dual.Rays.NumRows())
	dual.Rays.SortRowsWithPerm()
	expected, err := ratmat.NewFromInt64Array([]int64{
		0, 0, 1,
		0, 1, 0,
		1, -1, -1,
	}, 3, 3)
	require.NoError(t, err)
	assert.Equal(t, expected.String(), dual.Rays.String())
}

func TestConvertEmpty(t *testing.T) {
	_, err := Convert(Description{Rep: Inequalities, M: nil})
	assert.Error(t, err)
	_, err = Convert(Description{Rep: Inequalities, M: ratmat.NewEmpty(0, 3)})
	assert.Error(t, err)
}

func TestVerticesFromHalfspacesSquare(t *testing.T) {
	// The unit square over (1, x, y): x >= 0, x <= 1, y >= 0, y <= 1.
	a, err := ratmat.NewFromInt64Array([]int64{
		0, 1, 0,
		1, -1, 0,
		0, 0, 1,
		1, 0, -1,
	}, 4, 3)
	require.NoError(t, err)

	verts, incidence, err := VerticesFromHalfspaces(a)
	require.NoError(t, err)
	require.Equal(t, 4, verts.NumRows())
	incidence = sortWithIncidence(verts, incidence)

	expected, err := ratmat.NewFromInt64Array([]int64{
		1, 0, 0,
		1, 0, 1,
		1, 1, 0,
		1, 1, 1,
	}, 4, 3)
	require.NoError(t, err)
	assert.Equal(t, expected.String(), verts.String())

	// Each corner is tight on exactly the two constraints it saturates.
	assert.True(t, incidence[0].Equal(bs(4, 0, 2)))
	assert.True(t, incidence[1].Equal(bs(4, 0, 3)))
	assert.True(t, incidence[2].Equal(bs(4, 1, 2)))
	assert.True(t, incidence[3].Equal(bs(4, 1, 3)))
}

func TestVerticesFromHalfspacesRedundantRow(t *testing.T) {
	// x >= 0, x <= 1, x <= 2 over (1, x): the third row is redundant and
	// no vertex is tight on it.
	a, err := ratmat.NewFromInt64Array([]int64{
		0, 1,
		1, -1,
		2, -1,
	}, 3, 2)
	require.NoError(t, err)
	verts, incidence, err := VerticesFromHalfspaces(a)
	require.NoError(t, err)
	require.Equal(t, 2, verts.NumRows())
	incidence = sortWithIncidence(verts, incidence)
	assert.True(t, incidence[0].Equal(bs(3, 0)))
	assert.True(t, incidence[1].Equal(bs(3, 1)))
}

func TestVerticesFromHalfspacesUnbounded(t *testing.T) {
	// {x : x >= 0} is an unbounded ray, not a polytope.
	a, err := ratmat.NewFromInt64Array([]int64{
		0, 1,
	}, 1, 2)
	require.NoError(t, err)
	_, _, err = VerticesFromHalfspaces(a)
	assert.ErrorIs(t, err, ErrNotPolytope)
}

func TestVerticesFromHalfspacesLineality(t *testing.T) {
	// x + y >= 0 over (1, x, y) leaves the direction (1, -1) free.
	a, err := ratmat.NewFromInt64Array([]int64{
		0, 1, 1,
	}, 1, 3)
	require.NoError(t, err)
	_, _, err = VerticesFromHalfspaces(a)
	assert.ErrorIs(t, err, ErrNotPolytope)
}

func TestHalfspacesFromVerticesTriangle(t *testing.T) {
	// Triangle (0,0), (1,0), (0,1): facets x >= 0, y >= 0, 1 - x - y >= 0.
	v, err := ratmat.NewFromInt64Array([]int64{
		1, 0, 0,
		1, 1, 0,
		1, 0, 1,
	}, 3, 3)
	require.NoError(t, err)

	h, incidence, err := HalfspacesFromVertices(v)
	require.NoError(t, err)
	require.Equal(t, 3, h.NumRows())
	incidence = sortWithIncidence(h, incidence)

	expected, err := ratmat.NewFromInt64Array([]int64{
		0, 0, 1,
		0, 1, 0,
		1, -1, -1,
	}, 3, 3)
	require.NoError(t, err)
	assert.Equal(t, expected.String(), h.String())

	// y >= 0 is tight on the first two vertices, and so on.
	assert.True(t, incidence[0].Equal(bs(3, 0, 1)))
	assert.True(t, incidence[1].Equal(bs(3, 0, 2)))
	assert.True(t, incidence[2].Equal(bs(3, 1, 2)))
}

func TestHalfspacesFromVerticesSegment(t *testing.T) {
	// A degenerate hull: the segment from (0,0) to (1,1) spans only a
	// plane of the cone, so the implicit equality y = x comes back as a
	// pair of opposing rows tight on every vertex.
	v, err := ratmat.NewFromInt64Array([]int64{
		1, 0, 0,
		1, 1, 1,
	}, 2, 3)
	require.NoError(t, err)

	h, incidence, err := HalfspacesFromVertices(v)
	require.NoError(t, err)
	require.Equal(t, len(incidence), h.NumRows())

	all := bs(2, 0, 1)
	numEqualityRows := 0
	for i := 0; i < h.NumRows(); i++ {
		row := h.Row(i)
		tight := true
		for j := 0; j < v.NumRows(); j++ {
			val, err := ratmat.Dot(row, v.Row(j))
			require.NoError(t, err)
			// Soundness: every returned row holds on every vertex.
			assert.True(t, val.Sign() >= 0)
			if val.Sign() != 0 {
				tight = false
			}
		}
		if tight && incidence[i].Equal(all) {
			numEqualityRows++
		}
	}
	// One equality pair per lineality dimension; the segment has one.
	assert.GreaterOrEqual(t, numEqualityRows, 2)
}

func TestDualRoundTripPentagon(t *testing.T) {
	// H -> V -> H on an asymmetric polygon must reproduce the original
	// facets up to row order (all rows are lattice-normalized, so the
	// comparison is exact).
	a, err := ratmat.NewFromInt64Array([]int64{
		0, 1, 0, // x >= 0
		0, 0, 1, // y >= 0
		2, -1, 0, // x <= 2
		3, 0, -1, // y <= 3
		4, -1, -1, // x + y <= 4
	}, 5, 3)
	require.NoError(t, err)

	verts, _, err := VerticesFromHalfspaces(a)
	require.NoError(t, err)
	require.Equal(t, 5, verts.NumRows())

	back, _, err := HalfspacesFromVertices(verts)
	require.NoError(t, err)
	require.Equal(t, 5, back.NumRows())

	back.SortRowsWithPerm()
	expected := ratmat.NewEmpty(0, 3)
	expected.Copy(a)
	expected.SortRowsWithPerm()
	assert.Equal(t, expected.String(), back.String())
}
