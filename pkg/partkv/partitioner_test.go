package partkv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCRC32CPartitionerDeterministic(t *testing.T) {
	p := NewCRC32CPartitioner(nil)

	first := p.Partition([]byte("alice"), 8)
	second := p.Partition([]byte("alice"), 8)
	assert.Equal(t, first, second, "same key and partition count must route identically across calls")

	require.GreaterOrEqual(t, first, 0)
	require.Less(t, first, 8)
}

func TestCRC32CPartitionerOutOfRangeNumPartitions(t *testing.T) {
	p := NewCRC32CPartitioner(nil)
	assert.Equal(t, -1, p.Partition([]byte("x"), 0))
	assert.Equal(t, -1, p.Partition([]byte("x"), -3))
}

func TestBlake2bPartitionerDeterministic(t *testing.T) {
	p := NewBlake2bPartitioner()

	first := p.Partition([]byte("bob"), 16)
	second := p.Partition([]byte("bob"), 16)
	assert.Equal(t, first, second)
	assert.GreaterOrEqual(t, first, 0)
	assert.Less(t, first, 16)
}

func TestPartitionersDistributeAcrossKeys(t *testing.T) {
	for _, p := range []Partitioner{NewCRC32CPartitioner(nil), NewBlake2bPartitioner()} {
		seen := map[int]bool{}
		for i := 0; i < 200; i++ {
			key := []byte{byte(i), byte(i >> 8)}
			idx := p.Partition(key, 4)
			require.GreaterOrEqual(t, idx, 0)
			require.Less(t, idx, 4)
			seen[idx] = true
		}
		assert.Greater(t, len(seen), 1, "200 distinct keys should not all land on the same partition")
	}
}
