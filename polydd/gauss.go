// Copyright (c) 2026 Colin McRae

package polydd

import (
	"fmt"
	"math/big"
)

// Exact Gaussian elimination helpers used to seed the double-description
// computation. All of them work on copies; the callers' rows are never
// mutated.

func cloneRow(row []*big.Rat) []*big.Rat {
	out := make([]*big.Rat, len(row))
	for i, x := range row {
		out[i] = new(big.Rat).Set(x)
	}
	return out
}

// independentRows returns the indexes of a maximal linearly independent
// subset of rows, in increasing order. The length of the result is the
// rank of the matrix.
func independentRows(rows [][]*big.Rat, d int) []int {
	// echelon holds reduced pivot rows; pivotCol[i] is the pivot column
	// of echelon[i].
	var echelon [][]*big.Rat
	var pivotCol []int
	var picked []int
	tmp := new(big.Rat)
	for idx, row := range rows {
		r := cloneRow(row)
		for i, p := range pivotCol {
			if r[p].Sign() == 0 {
				continue
			}
			factor := new(big.Rat).Quo(r[p], echelon[i][p])
			for j := 0; j < d; j++ {
				r[j].Sub(r[j], tmp.Mul(factor, echelon[i][j]))
			}
		}
		pivot := -1
		for j := 0; j < d; j++ {
			if r[j].Sign() != 0 {
				pivot = j
				break
			}
		}
		if pivot < 0 {
			continue
		}
		echelon = append(echelon, r)
		pivotCol = append(pivotCol, pivot)
		picked = append(picked, idx)
		if len(picked) == d {
			break
		}
	}
	return picked
}

// nullSpaceBasis returns a basis of {z : rows . z = 0} for rows of
// width d. The result is empty when the rows have full column rank.
func nullSpaceBasis(rows [][]*big.Rat, d int) [][]*big.Rat {
	// Reduce to row echelon form, tracking pivot columns.
	var echelon [][]*big.Rat
	var pivotCol []int
	tmp := new(big.Rat)
	for _, row := range rows {
		r := cloneRow(row)
		for i, p := range pivotCol {
			if r[p].Sign() == 0 {
				continue
			}
			factor := new(big.Rat).Quo(r[p], echelon[i][p])
			for j := 0; j < d; j++ {
				r[j].Sub(r[j], tmp.Mul(factor, echelon[i][j]))
			}
		}
		pivot := -1
		for j := 0; j < d; j++ {
			if r[j].Sign() != 0 {
				pivot = j
				break
			}
		}
		if pivot < 0 {
			continue
		}
		echelon = append(echelon, r)
		pivotCol = append(pivotCol, pivot)
	}
	// Back-substitute so each pivot column is zero in every other row.
	for i := len(echelon) - 1; i >= 0; i-- {
		p := pivotCol[i]
		for k := 0; k < i; k++ {
			if echelon[k][p].Sign() == 0 {
				continue
			}
			factor := new(big.Rat).Quo(echelon[k][p], echelon[i][p])
			for j := 0; j < d; j++ {
				echelon[k][j].Sub(echelon[k][j], tmp.Mul(factor, echelon[i][j]))
			}
		}
	}
	isPivot := make([]bool, d)
	for _, p := range pivotCol {
		isPivot[p] = true
	}
	var basis [][]*big.Rat
	for free := 0; free < d; free++ {
		if isPivot[free] {
			continue
		}
		v := make([]*big.Rat, d)
		for j := range v {
			v[j] = new(big.Rat)
		}
		v[free].SetInt64(1)
		for i, p := range pivotCol {
			// echelon[i] . v = 0  =>  v[p] = -echelon[i][free] / echelon[i][p]
			v[p].Quo(echelon[i][free], echelon[i][p])
			v[p].Neg(v[p])
		}
		basis = append(basis, v)
	}
	return basis
}

// invertSquare returns the inverse of a d x d matrix, or an error if it
// is singular.
func invertSquare(m [][]*big.Rat) ([][]*big.Rat, error) {
	d := len(m)
	// Augment with the identity and run Gauss-Jordan.
	aug := make([][]*big.Rat, d)
	for i := 0; i < d; i++ {
		if len(m[i]) != d {
			return nil, fmt.Errorf("invertSquare: row %d has %d entries, expected %d", i, len(m[i]), d)
		}
		aug[i] = make([]*big.Rat, 2*d)
		for j := 0; j < d; j++ {
			aug[i][j] = new(big.Rat).Set(m[i][j])
			aug[i][d+j] = new(big.Rat)
		}
		aug[i][d+i].SetInt64(1)
	}
	tmp := new(big.Rat)
	for col := 0; col < d; col++ {
		pivot := -1
		for i := col; i < d; i++ {
			if aug[i][col].Sign() != 0 {
				pivot = i
				break
			}
		}
		if pivot < 0 {
			return nil, fmt.Errorf("invertSquare: matrix is singular at column %d", col)
		}
		aug[col], aug[pivot] = aug[pivot], aug[col]
		inv := new(big.Rat).Inv(aug[col][col])
		for j := 0; j < 2*d; j++ {
			aug[col][j].Mul(aug[col][j], inv)
		}
		for i := 0; i < d; i++ {
			if i == col || aug[i][col].Sign() == 0 {
				continue
			}
			factor := new(big.Rat).Set(aug[i][col])
			for j := 0; j < 2*d; j++ {
				aug[i][j].Sub(aug[i][j], tmp.Mul(factor, aug[col][j]))
			}
		}
	}
	out := make([][]*big.Rat, d)
	for i := 0; i < d; i++ {
		out[i] = aug[i][d:]
	}
	return out, nil
}
