package thread

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recursive is the textbook definition, used as an oracle.
func recursive(ix *Index[uint], id uint) int {
	total := 0
	for _, c := range ix.Children(id) {
		total += 1 + recursive(ix, c)
	}
	return total
}

func sample() *Index[uint] {
	// 1
	// ├── 2
	// │   └── 4
	// └── 3
	ix := NewIndex[uint]()
	ix.Add(1, 0, false)
	ix.Add(2, 1, true)
	ix.Add(3, 1, true)
	ix.Add(4, 2, true)
	return ix
}

func TestCount_RootWithNestedReply(t *testing.T) {
	ix := sample()
	n, err := ix.Count(1)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, recursive(ix, 1), n)

	n, err = ix.Count(3)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestCount_AddingReplyAtAnyDepth(t *testing.T) {
	for _, parent := range []uint{1, 2, 3, 4} {
		ix := sample()
		ix.Add(99, parent, true)
		n, err := ix.Count(1)
		require.NoError(t, err)
		assert.Equal(t, 4, n, "reply under %d", parent)
	}
}

func TestCount_DeepChain(t *testing.T) {
	ix := NewIndex[uint]()
	ix.Add(0, 0, false)
	const depth = 10000
	for i := uint(1); i <= depth; i++ {
		ix.Add(i, i-1, true)
	}
	n, err := ix.Count(0)
	require.NoError(t, err)
	assert.Equal(t, depth, n)
}

func TestCount_Cycle(t *testing.T) {
	ix := NewIndex[uint]()
	ix.Add(1, 3, true)
	ix.Add(2, 1, true)
	ix.Add(3, 2, true)
	_, err := ix.Count(1)
	assert.ErrorIs(t, err, ErrCycle)
}

func TestCounts(t *testing.T) {
	counts, err := sample().Counts()
	require.NoError(t, err)
	assert.Equal(t, map[uint]int{1: 3, 2: 1}, counts)
}

func TestCounts_DeepChain(t *testing.T) {
	ix := NewIndex[uint]()
	ix.Add(0, 0, false)
	const depth = 10000
	for i := uint(1); i <= depth; i++ {
		ix.Add(i, i-1, true)
	}
	counts, err := ix.Counts()
	require.NoError(t, err)
	assert.Len(t, counts, depth)
	assert.Equal(t, depth, counts[0])
	assert.Equal(t, 1, counts[depth-1])
	assert.Equal(t, depth/2, counts[depth/2])
	_, leaf := counts[depth]
	assert.False(t, leaf)
}

func TestCounts_MatchesRecursive(t *testing.T) {
	ix := sample()
	ix.Add(5, 4, true)
	ix.Add(6, 4, true)
	ix.Add(7, 3, true)
	ix.Add(10, 0, false)
	ix.Add(11, 10, true)
	counts, err := ix.Counts()
	require.NoError(t, err)
	for _, id := range []uint{1, 2, 3, 4, 10} {
		assert.Equal(t, recursive(ix, id), counts[id], "node %d", id)
	}
}

func TestCounts_Cycle(t *testing.T) {
	ix := sample()
	ix.Add(7, 9, true)
	ix.Add(8, 7, true)
	ix.Add(9, 8, true)
	_, err := ix.Counts()
	assert.ErrorIs(t, err, ErrCycle)

	self := NewIndex[uint]()
	self.Add(1, 1, true)
	_, err = self.Counts()
	assert.ErrorIs(t, err, ErrCycle)
}

func TestCounts_TwoParents(t *testing.T) {
	ix := sample()
	ix.Add(4, 3, true)
	_, err := ix.Counts()
	assert.ErrorIs(t, err, ErrCycle)
}

func TestRootsAndChildren(t *testing.T) {
	ix := sample()
	assert.Equal(t, []uint{1}, ix.Roots())
	assert.Equal(t, []uint{2, 3}, ix.Children(1))
}

func TestCountDescendants_ExpandError(t *testing.T) {
	boom := errors.New("query failed")
	_, err := CountDescendants(context.Background(), "a", func(context.Context, []string) ([]string, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestCountDescendants_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := CountDescendants(ctx, 1, sample().Expand)
	assert.ErrorIs(t, err, context.Canceled)
}
