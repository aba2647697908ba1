// Copyright (c) 2026 Colin McRae

// Package ratmat represents matrices and vectors of exact rational
// numbers. All entries are *big.Rat, so every operation in this package
// is exact; the only lossy conversion is ToDense, which rounds entries
// to float64 on the way out to callers that work in floating point.
package ratmat

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a dense matrix of rational numbers in row-major order.
type Matrix struct {
	values  []*big.Rat
	numRows int
	numCols int
}

// NewEmpty returns a numRows x numCols matrix with 0s in each value.
// Negative numRows or numCols is interpreted as 0. A matrix with zero
// rows keeps its column count, so width survives emptiness.
func NewEmpty(numRows int, numCols int) *Matrix {
	if numRows < 0 {
		numRows = 0
	}
	if numCols < 0 {
		numCols = 0
	}
	retVal := &Matrix{
		values:  make([]*big.Rat, numRows*numCols),
		numRows: numRows,
		numCols: numCols,
	}
	for i := range retVal.values {
		retVal.values[i] = new(big.Rat)
	}
	return retVal
}

// NewFromInt64Array creates a matrix with integer-valued entries from input
// with dimensions numRowsIn x numColsIn. If the number of rows and columns
// do not match the length of the input, an error is returned.
func NewFromInt64Array(input []int64, numRowsIn int, numColsIn int) (*Matrix, error) {
	if numRowsIn <= 0 || numColsIn <= 0 {
		return nil, fmt.Errorf(
			"Matrix.NewFromInt64Array: illegal number of rows %d or columns %d",
			numRowsIn, numColsIn,
		)
	}
	if len(input) != numRowsIn*numColsIn {
		return nil, fmt.Errorf("Matrix.NewFromInt64Array: length of input does not match dimensions")
	}
	retVal := &Matrix{
		values:  make([]*big.Rat, numRowsIn*numColsIn),
		numRows: numRowsIn,
		numCols: numColsIn,
	}
	for index, value := range input {
		retVal.values[index] = new(big.Rat).SetInt64(value)
	}
	return retVal, nil
}

// NewFromRatRows creates a matrix from a slice of equal-length rational
// rows. The entries are deep-copied. numCols fixes the width, which lets
// the caller create a zero-row matrix of known width.
func NewFromRatRows(rows [][]*big.Rat, numCols int) (*Matrix, error) {
	retVal := NewEmpty(len(rows), numCols)
	for i, row := range rows {
		if len(row) != numCols {
			return nil, fmt.Errorf(
				"Matrix.NewFromRatRows: row %d has %d entries, expected %d", i, len(row), numCols,
			)
		}
		for j, v := range row {
			retVal.values[i*numCols+j].Set(v)
		}
	}
	return retVal, nil
}

// NewFromDense converts a gonum dense matrix to a rational matrix. The
// float64 to rational embedding is exact, so no information is lost on
// the way in.
func NewFromDense(d *mat.Dense) (*Matrix, error) {
	numRows, numCols := d.Dims()
	if numRows <= 0 || numCols <= 0 {
		return nil, fmt.Errorf("Matrix.NewFromDense: illegal dimensions %d x %d", numRows, numCols)
	}
	retVal := NewEmpty(numRows, numCols)
	for i := 0; i < numRows; i++ {
		for j := 0; j < numCols; j++ {
			v := d.At(i, j)
			if retVal.values[i*numCols+j].SetFloat64(v) == nil {
				return nil, fmt.Errorf("Matrix.NewFromDense: entry (%d,%d) = %v is not finite", i, j, v)
			}
		}
	}
	return retVal, nil
}

// ToDense converts bm to a gonum dense matrix, rounding each entry to
// the nearest float64. This is the only lossy conversion in the package.
// A zero-row matrix converts to nil, since gonum rejects empty matrices.
func (bm *Matrix) ToDense() *mat.Dense {
	if bm.numRows == 0 || bm.numCols == 0 {
		return nil
	}
	retVal := mat.NewDense(bm.numRows, bm.numCols, nil)
	for i := 0; i < bm.numRows; i++ {
		for j := 0; j < bm.numCols; j++ {
			f, _ := bm.values[i*bm.numCols+j].Float64()
			retVal.Set(i, j, f)
		}
	}
	return retVal
}

// Get returns the pointer to the value in row i, column j of bm.
// This is not a deep copy.
func (bm *Matrix) Get(i int, j int) (*big.Rat, error) {
	if i < 0 || bm.numRows <= i {
		return nil, fmt.Errorf("Matrix.Get: index i = %d outside range {0, ... %d}", i, bm.numRows-1)
	}
	if j < 0 || bm.numCols <= j {
		return nil, fmt.Errorf("Matrix.Get: index j = %d outside range {0, ... %d}", j, bm.numCols-1)
	}
	return bm.values[i*bm.numCols+j], nil
}

// Set sets the value in row i, column j to x. This is a deep copy.
func (bm *Matrix) Set(i int, j int, x *big.Rat) error {
	if i < 0 || bm.numRows <= i {
		return fmt.Errorf("Matrix.Set: index i = %d outside range {0, ... %d}", i, bm.numRows-1)
	}
	if j < 0 || bm.numCols <= j {
		return fmt.Errorf("Matrix.Set: index j = %d outside range {0, ... %d}", j, bm.numCols-1)
	}
	bm.values[i*bm.numCols+j].Set(x)
	return nil
}

// Row returns the slice of pointers backing row i. This is a view, not
// a deep copy; mutating the entries mutates the matrix.
func (bm *Matrix) Row(i int) []*big.Rat {
	return bm.values[i*bm.numCols : (i+1)*bm.numCols]
}

// Dimensions returns the number of rows and columns in bm, in that order.
func (bm *Matrix) Dimensions() (int, int) {
	return bm.numRows, bm.numCols
}

// NumRows returns the number of rows in bm
func (bm *Matrix) NumRows() int {
	return bm.numRows
}

// NumCols returns the number of columns in bm
func (bm *Matrix) NumCols() int {
	return bm.numCols
}

// Copy copies x to bm and returns bm. This is a deep copy.
func (bm *Matrix) Copy(x *Matrix) *Matrix {
	bm.numRows = x.numRows
	bm.numCols = x.numCols
	bm.values = make([]*big.Rat, len(x.values))
	for i := range x.values {
		bm.values[i] = new(big.Rat).Set(x.values[i])
	}
	return bm
}

// Transpose replaces the contents of bm with the transpose of matrix x.
func (bm *Matrix) Transpose(x *Matrix) *Matrix {
	retVal := NewEmpty(x.numCols, x.numRows)
	for i := 0; i < retVal.numRows; i++ {
		for j := 0; j < retVal.numCols; j++ {
			retVal.values[i*retVal.numCols+j].Set(x.values[j*x.numCols+i])
		}
	}
	bm.values = retVal.values
	bm.numRows = retVal.numRows
	bm.numCols = retVal.numCols
	return bm
}

// AppendRow appends a deep copy of row to bm. The row width must match
// the matrix width.
func (bm *Matrix) AppendRow(row []*big.Rat) error {
	if len(row) != bm.numCols {
		return fmt.Errorf(
			"Matrix.AppendRow: row has %d entries, expected %d", len(row), bm.numCols,
		)
	}
	for _, v := range row {
		bm.values = append(bm.values, new(big.Rat).Set(v))
	}
	bm.numRows++
	return nil
}

// InsertCol returns a new matrix equal to bm with a zero column inserted
// at column index at, shifting columns at and beyond one to the right.
func (bm *Matrix) InsertCol(at int) (*Matrix, error) {
	if at < 0 || bm.numCols < at {
		return nil, fmt.Errorf("Matrix.InsertCol: index %d outside range {0, ... %d}", at, bm.numCols)
	}
	retVal := NewEmpty(bm.numRows, bm.numCols+1)
	for i := 0; i < bm.numRows; i++ {
		for j := 0; j < bm.numCols; j++ {
			jOut := j
			if j >= at {
				jOut = j + 1
			}
			retVal.values[i*retVal.numCols+jOut].Set(bm.values[i*bm.numCols+j])
		}
	}
	return retVal, nil
}

// SortRowsWithPerm sorts the rows of bm lexicographically by exact
// comparison and returns the permutation applied: perm[newIndex] is the
// old index of the row now at newIndex. Sorting in a canonical order
// makes downstream output deterministic regardless of enumeration order.
func (bm *Matrix) SortRowsWithPerm() []int {
	perm := make([]int, bm.numRows)
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(a, b int) bool {
		return CompareRows(bm.Row(perm[a]), bm.Row(perm[b])) < 0
	})
	sorted := make([]*big.Rat, 0, len(bm.values))
	for _, old := range perm {
		sorted = append(sorted, bm.Row(old)...)
	}
	bm.values = sorted
	return perm
}

// String returns a string representing bm with rows separated by newlines.
func (bm *Matrix) String() string {
	var sb strings.Builder
	for i := 0; i < bm.numRows; i++ {
		for j := 0; j < bm.numCols; j++ {
			sb.WriteString(fmt.Sprintf("%s, ", bm.values[i*bm.numCols+j].RatString()))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Dot returns the exact inner product of two equal-length rational
// vectors. Mismatched lengths are a caller bug, so they are rejected
// with an error rather than truncated.
func Dot(a []*big.Rat, b []*big.Rat) (*big.Rat, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("Dot: mismatched lengths %d and %d", len(a), len(b))
	}
	retVal := new(big.Rat)
	term := new(big.Rat)
	for i := range a {
		retVal.Add(retVal, term.Mul(a[i], b[i]))
	}
	return retVal, nil
}

// ScaleToLattice returns the unique positive multiple of v whose entries
// are coprime integers. The direction of v is preserved, so scaling an
// inequality row never flips its sense. A zero vector scales to itself.
func ScaleToLattice(v []*big.Rat) []*big.Rat {
	// lcm of the denominators clears fractions; gcd of the resulting
	// numerators reduces to the primitive lattice vector.
	lcm := big.NewInt(1)
	for _, x := range v {
		if x.Sign() == 0 {
			continue
		}
		d := x.Denom()
		g := new(big.Int).GCD(nil, nil, lcm, d)
		lcm.Mul(lcm, new(big.Int).Div(d, g))
	}
	ints := make([]*big.Int, len(v))
	gcd := new(big.Int)
	for i, x := range v {
		n := new(big.Int).Div(lcm, x.Denom())
		n.Mul(n, x.Num())
		ints[i] = n
		if n.Sign() != 0 {
			gcd.GCD(nil, nil, gcd, n)
		}
	}
	retVal := make([]*big.Rat, len(v))
	for i, n := range ints {
		if gcd.Sign() != 0 {
			n.Div(n, gcd)
		}
		retVal[i] = new(big.Rat).SetInt(n)
	}
	return retVal
}

// RowKey returns a canonical string key for a rational vector, suitable
// for exact deduplication in maps.
func RowKey(v []*big.Rat) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = x.RatString()
	}
	return strings.Join(parts, ",")
}

// CompareRows compares two rational vectors lexicographically, entry by
// entry, returning -1, 0 or 1. A shorter vector that is a prefix of the
// longer one compares less.
func CompareRows(a []*big.Rat, b []*big.Rat) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := a[i].Cmp(b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}
