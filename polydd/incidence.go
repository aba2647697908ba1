// Copyright (c) 2026 Colin McRae

package polydd

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// TransposeIncidence flips a vertex-to-constraint incidence relation
// into a constraint-to-vertex one (or back). numCols is the width of
// every input bitset; the output has one bitset of width len(input) per
// input column. Transposing twice round-trips exactly.
func TransposeIncidence(input []*bitset.BitSet, numCols uint) ([]*bitset.BitSet, error) {
	if len(input) == 0 {
		return nil, fmt.Errorf("TransposeIncidence: empty input is not supported")
	}
	numRows := uint(len(input))
	output := make([]*bitset.BitSet, numCols)
	for col := uint(0); col < numCols; col++ {
		output[col] = bitset.New(numRows)
	}
	for row := uint(0); row < numRows; row++ {
		inRow := input[row]
		if inRow.Len() != numCols {
			return nil, fmt.Errorf(
				"TransposeIncidence: incidence %d has width %d, expected %d", row, inRow.Len(), numCols,
			)
		}
		for col, ok := inRow.NextSet(0); ok; col, ok = inRow.NextSet(col + 1) {
			output[col].Set(row)
		}
	}
	return output, nil
}

// MaximalIndexes returns the indexes whose incidence sets are not
// contained in any other incidence set, in increasing order. A
// constraint whose incident-vertex set is a subset of another's is
// implied by it and therefore redundant; among equal sets the smallest
// index survives. This is the canonical redundancy filter of the
// package.
func MaximalIndexes(input []*bitset.BitSet) []int {
	maximal := make([]int, 0, len(input))
	for i, candidate := range input {
		dominated := false
		for j, other := range input {
			if i == j {
				continue
			}
			if !candidate.IsSuperSet(other) && other.IsSuperSet(candidate) {
				// Strictly contained in another set.
				dominated = true
				break
			}
			if j < i && other.Equal(candidate) {
				// Duplicate of an earlier set.
				dominated = true
				break
			}
		}
		if !dominated {
			maximal = append(maximal, i)
		}
	}
	return maximal
}
