package collections

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestInsertKeepsSortedOrder(t *testing.T) {
	l := NewSortedFixedList[int](8)
	for _, k := range []uint32{50, 10, 30, 20, 40} {
		require.True(t, l.Insert(k, int(k)))
	}
	assert.Equal(t, []uint32{10, 20, 30, 40, 50}, l.Keys())
}

func TestCapacityRejectsOnlyTheOverflowingInsert(t *testing.T) {
	l := NewSortedFixedList[int](64)
	for i := 0; i < 64; i++ {
		require.True(t, l.Insert(uint32(i), i))
	}
	assert.True(t, l.Full())
	ok := l.Insert(1000, 1000)
	assert.False(t, ok)
	assert.Equal(t, 64, l.Len())
	// existing content survives untouched
	for i := 0; i < 64; i++ {
		assert.Equal(t, uint32(i), l.Keys()[i])
	}
}

func TestPopFrontReturnsLowestKey(t *testing.T) {
	l := NewSortedFixedList[string](4)
	l.Insert(3, "c")
	l.Insert(1, "a")
	l.Insert(2, "b")
	k, v, ok := l.PopFront()
	require.True(t, ok)
	assert.Equal(t, uint32(1), k)
	assert.Equal(t, "a", v)
	assert.Equal(t, 2, l.Len())
}

func TestPropertySortedInsertion(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cap := rapid.IntRange(1, 32).Draw(t, "cap")
		l := NewSortedFixedList[uint32](cap)
		n := rapid.IntRange(0, cap+8).Draw(t, "n")
		var inserted []uint32
		for i := 0; i < n; i++ {
			k := rapid.Uint32Range(0, 1000).Draw(t, "key")
			if l.Insert(k, k) {
				inserted = append(inserted, k)
			}
		}
		sort.Slice(inserted, func(i, j int) bool { return inserted[i] < inserted[j] })
		if len(inserted) != l.Len() {
			t.Fatalf("expected %d items, got %d", len(inserted), l.Len())
		}
		for i, k := range l.Keys() {
			if k != inserted[i] {
				t.Fatalf("not sorted at %d: want %v got %v", i, inserted, l.Keys())
			}
		}
		if l.Len() > l.Cap() {
			t.Fatalf("exceeded capacity: %d > %d", l.Len(), l.Cap())
		}
	})
}
