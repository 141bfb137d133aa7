package workqueue

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dexforge/dexforge/mutatorlock"
)

func TestForAllVisitsEveryIndexExactlyOnce(t *testing.T) {
	var lock mutatorlock.Lock
	e, err := New(4, &lock)
	require.NoError(t, err)
	defer e.Release()

	var mu sync.Mutex
	var seen []int
	e.ForAll(10, 37, func(idx int) {
		mu.Lock()
		seen = append(seen, idx)
		mu.Unlock()
	}, 6)

	sort.Ints(seen)
	require.Len(t, seen, 27)
	for i, v := range seen {
		require.Equal(t, 10+i, v)
	}
}

func TestForAllEmptyRangeIsNoOp(t *testing.T) {
	var lock mutatorlock.Lock
	e, err := New(2, &lock)
	require.NoError(t, err)
	defer e.Release()

	called := false
	e.ForAll(5, 5, func(int) { called = true }, 4)
	require.False(t, called)
}

func TestForAllStridedAssignment(t *testing.T) {
	var lock mutatorlock.Lock
	e, err := New(3, &lock)
	require.NoError(t, err)
	defer e.Release()

	var mu sync.Mutex
	byWorker := map[int][]int{}
	workUnits := 3
	e.ForAll(0, 9, func(idx int) {
		mu.Lock()
		byWorker[idx%workUnits] = append(byWorker[idx%workUnits], idx)
		mu.Unlock()
	}, workUnits)

	// The callback cannot see which task ran an index, so this part
	// only checks that the 9 indices are visited once each, grouped by
	// residue class mod workUnits.
	for residue := 0; residue < workUnits; residue++ {
		for _, idx := range byWorker[residue] {
			require.Equal(t, residue, idx%workUnits)
		}
	}
	total := 0
	for _, v := range byWorker {
		total += len(v)
	}
	require.Equal(t, 9, total)

	// A single-worker engine runs the tasks one after another, so its
	// visit order exposes the stride: task 0 takes 0, 3, 6, task 1
	// takes 1, 4, 7, task 2 takes 2, 5, 8.
	seq, err := New(1, &lock)
	require.NoError(t, err)
	defer seq.Release()
	var order []int
	seq.ForAll(0, 9, func(idx int) {
		mu.Lock()
		order = append(order, idx)
		mu.Unlock()
	}, workUnits)
	require.Equal(t, []int{0, 3, 6, 1, 4, 7, 2, 5, 8}, order)
}
