// Copyright (c) 2026 Colin McRae

package polydd

import (
	"testing"

	"github.com/bits-and-blooms/bitset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bs(width uint, bits ...uint) *bitset.BitSet {
	b := bitset.New(width)
	for _, i := range bits {
		b.Set(i)
	}
	return b
}

func TestTransposeIncidence(t *testing.T) {
	input := []*bitset.BitSet{
		bs(3, 0, 2),
		bs(3, 1),
		bs(3, 0, 1, 2),
	}
	output, err := TransposeIncidence(input, 3)
	require.NoError(t, err)
	require.Len(t, output, 3)
	assert.True(t, output[0].Equal(bs(3, 0, 2)))
	assert.True(t, output[1].Equal(bs(3, 1, 2)))
	assert.True(t, output[2].Equal(bs(3, 0, 2)))

	// Transposing twice round-trips.
	back, err := TransposeIncidence(output, 3)
	require.NoError(t, err)
	for i := range input {
		assert.True(t, back[i].Equal(input[i]))
	}
}

func TestTransposeIncidenceErrors(t *testing.T) {
	_, err := TransposeIncidence(nil, 3)
	assert.Error(t, err)

	_, err = TransposeIncidence([]*bitset.BitSet{bs(2, 0)}, 3)
	assert.Error(t, err)
}

func TestMaximalIndexes(t *testing.T) {
	// Index 1 is a strict subset of index 0 and drops out; 0 and 2 are
	// incomparable and both survive.
	input := []*bitset.BitSet{
		bs(4, 0, 1, 2),
		bs(4, 0, 1),
		bs(4, 2, 3),
	}
	assert.Equal(t, []int{0, 2}, MaximalIndexes(input))

	// Among equal sets only the smallest index survives.
	input = []*bitset.BitSet{
		bs(4, 0, 1),
		bs(4, 0, 1),
		bs(4, 0, 1),
	}
	assert.Equal(t, []int{0}, MaximalIndexes(input))

	// An empty set is a subset of everything.
	input = []*bitset.BitSet{
		bs(4),
		bs(4, 3),
	}
	assert.Equal(t, []int{1}, MaximalIndexes(input))

	assert.Empty(t, MaximalIndexes(nil))
}
