package ringbuffer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		expected int
	}{
		{name: "valid capacity", capacity: 10, expected: 10},
		{name: "zero capacity should default to 1", capacity: 0, expected: 1},
		{name: "negative capacity should default to 1", capacity: -5, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := New[string](tt.capacity)
			require.NotNil(t, j)
			require.Equal(t, tt.expected, j.Capacity())
			require.Equal(t, 0, j.Len())
		})
	}
}

func TestJournal_PushAndGet(t *testing.T) {
	j := New[string](5)

	j.Push(0, "first")
	j.Push(1, "second")
	j.Push(2, "third")

	require.Equal(t, 3, j.Len())

	val, ok := j.Get(1)
	require.True(t, ok)
	require.Equal(t, "second", val)

	_, ok = j.Get(99)
	require.False(t, ok)
}

func TestJournal_EvictsOldestWhenFull(t *testing.T) {
	j := New[int](3)

	for seq := range int64(5) {
		j.Push(seq, int(seq))
	}

	require.Equal(t, 3, j.Len())

	// 0 and 1 should have been evicted.
	_, ok := j.Get(0)
	require.False(t, ok)

	_, ok = j.Get(1)
	require.False(t, ok)

	oldest, ok := j.OldestSeq()
	require.True(t, ok)
	require.Equal(t, int64(2), oldest)

	for seq := int64(2); seq < 5; seq++ {
		val, ok := j.Get(seq)
		require.True(t, ok)
		require.Equal(t, int(seq), val)
	}
}

func TestJournal_OldestSeqEmpty(t *testing.T) {
	j := New[int](3)

	_, ok := j.OldestSeq()
	require.False(t, ok)
}
