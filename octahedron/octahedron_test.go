// Copyright (c) 2026 Colin McRae

package octahedron

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/fastpoly/fconv/ratmat"
)

// makeDense builds a canonical octahedral input for dimension k from
// the constant column b, one entry per table row.
func makeDense(t *testing.T, k int, b []float64) *mat.Dense {
	coefs, err := Coefs(k)
	require.NoError(t, err)
	require.Equal(t, NumRows(k), len(b))
	a := mat.NewDense(NumRows(k), k+1, nil)
	for i, row := range coefs {
		a.Set(i, 0, b[i])
		for j, c := range row {
			a.Set(i, j+1, float64(c))
		}
	}
	return a
}

// octagonDense is |x_i| <= 1, |x_1 +- x_2| <= 3/2: a regular-looking
// octagon with vertices (+-1, +-1/2) and (+-1/2, +-1).
func octagonDense(t *testing.T) *mat.Dense {
	return makeDense(t, 2, []float64{1.5, 1, 1.5, 1, 1, 1.5, 1, 1.5})
}

// diamondDense is |x_1| + |x_2| <= 1 with slack box bounds: the diagonal
// rows cut the corners all the way down to the axes.
func diamondDense(t *testing.T) *mat.Dense {
	return makeDense(t, 2, []float64{1, 1, 1, 1, 1, 1, 1, 1})
}

func TestCoefs(t *testing.T) {
	table, err := Coefs(1)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1}, {-1}}, table)

	table, err = Coefs(2)
	require.NoError(t, err)
	assert.Equal(t, [][]int{
		{1, 1}, {1, 0}, {1, -1},
		{0, 1}, {0, -1},
		{-1, 1}, {-1, 0}, {-1, -1},
	}, table)

	_, err = Coefs(0)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = Coefs(MaxK + 1)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNumRows(t *testing.T) {
	assert.Equal(t, 2, NumRows(1))
	assert.Equal(t, 8, NumRows(2))
	assert.Equal(t, 26, NumRows(3))
	assert.Equal(t, 80, NumRows(4))
}

func TestVerifyInput(t *testing.T) {
	assert.NoError(t, VerifyInput(octagonDense(t)))

	// Wrong row count for K = 2.
	assert.ErrorIs(t, VerifyInput(mat.NewDense(7, 3, nil)), ErrInvalidInput)

	// K out of range.
	assert.ErrorIs(t, VerifyInput(mat.NewDense(3, 6, nil)), ErrInvalidInput)

	// One corrupted coefficient.
	a := octagonDense(t)
	a.Set(3, 1, 0.5)
	assert.ErrorIs(t, VerifyInput(a), ErrInvalidInput)
}

func TestBounds(t *testing.T) {
	lb, ub, err := Bounds(octagonDense(t))
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, -1}, lb)
	assert.Equal(t, []float64{1, 1}, ub)

	// K = 1 with asymmetric bounds [-1, 2].
	a := makeDense(t, 1, []float64{1, 2})
	lb, ub, err = Bounds(a)
	require.NoError(t, err)
	assert.Equal(t, []float64{-1}, lb)
	assert.Equal(t, []float64{2}, ub)

	_, _, err = Bounds(mat.NewDense(2, 4, nil))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestComputeVerticesInterval(t *testing.T) {
	aRat, err := NewRatFromDense(makeDense(t, 1, []float64{1, 2}))
	require.NoError(t, err)
	vs, err := ComputeVertices(aRat)
	require.NoError(t, err)
	require.Equal(t, 2, vs.V.NumRows())

	expected, err := ratmat.NewFromRatRows([][]*big.Rat{
		{big.NewRat(1, 1), big.NewRat(-1, 1)},
		{big.NewRat(1, 1), big.NewRat(2, 1)},
	}, 2)
	require.NoError(t, err)
	assert.Equal(t, expected.String(), vs.V.String())

	// The two endpoints are each tight on their own bound row.
	assert.True(t, vs.Incidence[0].Test(0))
	assert.False(t, vs.Incidence[0].Test(1))
	assert.True(t, vs.Incidence[1].Test(1))

	// The edge between the endpoints straddles zero.
	require.Len(t, vs.Adjacencies, 1)
	assert.Equal(t, OrthantAdjacency{U: 0, V: 1}, vs.Adjacencies[0])
}

func TestComputeVerticesOctagon(t *testing.T) {
	aRat, err := NewRatFromDense(octagonDense(t))
	require.NoError(t, err)
	vs, err := ComputeVertices(aRat)
	require.NoError(t, err)
	require.Equal(t, 8, vs.V.NumRows())

	expected, err := ratmat.NewFromRatRows([][]*big.Rat{
		{big.NewRat(1, 1), big.NewRat(-1, 1), big.NewRat(-1, 2)},
		{big.NewRat(1, 1), big.NewRat(-1, 1), big.NewRat(1, 2)},
		{big.NewRat(1, 1), big.NewRat(-1, 2), big.NewRat(-1, 1)},
		{big.NewRat(1, 1), big.NewRat(-1, 2), big.NewRat(1, 1)},
		{big.NewRat(1, 1), big.NewRat(1, 2), big.NewRat(-1, 1)},
		{big.NewRat(1, 1), big.NewRat(1, 2), big.NewRat(1, 1)},
		{big.NewRat(1, 1), big.NewRat(1, 1), big.NewRat(-1, 2)},
		{big.NewRat(1, 1), big.NewRat(1, 1), big.NewRat(1, 2)},
	}, 3)
	require.NoError(t, err)
	assert.Equal(t, expected.String(), vs.V.String())

	// A simple polygon: every vertex is tight on exactly two facets.
	for i, inc := range vs.Incidence {
		assert.Equal(t, uint(2), inc.Count(), "vertex %d", i)
	}

	// Four edges of the octagon cross a sign hyperplane (one per side of
	// the surrounding box), and each crossing pair really straddles.
	require.Len(t, vs.Adjacencies, 4)
	for _, adj := range vs.Adjacencies {
		u := vs.V.Row(adj.U)
		v := vs.V.Row(adj.V)
		found := false
		for dim := 0; dim < vs.K; dim++ {
			if u[dim+1].Sign()*v[dim+1].Sign() < 0 {
				found = true
			}
		}
		assert.True(t, found, "pair (%d, %d) does not straddle", adj.U, adj.V)
	}
}

func TestComputeVerticesDiamondHasNoStraddlingEdges(t *testing.T) {
	// Every edge of the diamond has an endpoint on an axis, so no edge
	// strictly straddles a sign hyperplane.
	aRat, err := NewRatFromDense(diamondDense(t))
	require.NoError(t, err)
	vs, err := ComputeVertices(aRat)
	require.NoError(t, err)
	require.Equal(t, 4, vs.V.NumRows())
	assert.Empty(t, vs.Adjacencies)
}

func TestComputeVerticesRejectsBadDimensions(t *testing.T) {
	_, err := ComputeVertices(ratmat.NewEmpty(8, 6))
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = ComputeVertices(ratmat.NewEmpty(7, 3))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNewRatFromDense(t *testing.T) {
	r, err := NewRatFromDense(octagonDense(t))
	require.NoError(t, err)
	assert.Equal(t, 8, r.NumRows())
	assert.Equal(t, 3, r.NumCols())
	v, err := r.Get(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, v.Cmp(big.NewRat(3, 2)))

	_, err = NewRatFromDense(mat.NewDense(8, 3, nil))
	assert.ErrorIs(t, err, ErrInvalidInput)
}
