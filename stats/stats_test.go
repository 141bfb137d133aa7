package stats

import (
	"sync"
	"testing"

	"github.com/dexforge/dexforge/types"
)

func TestIncrementAndSnapshotDebug(t *testing.T) {
	b := New(true, nil)
	b.Increment(VirtualMadeDirect, types.InvokeVirtual)
	b.Increment(VirtualMadeDirect, types.InvokeVirtual)
	b.Increment(VirtualMadeDirect, types.InvokeSuper)

	snap := b.Snapshot(VirtualMadeDirect)
	if snap[types.InvokeVirtual] != 2 {
		t.Fatalf("virtual count = %d, want 2", snap[types.InvokeVirtual])
	}
	if snap[types.InvokeSuper] != 1 {
		t.Fatalf("super count = %d, want 1", snap[types.InvokeSuper])
	}
	if b.Total(VirtualMadeDirect) != 3 {
		t.Fatalf("total = %d, want 3", b.Total(VirtualMadeDirect))
	}
}

func TestIncrementConcurrentRelease(t *testing.T) {
	b := New(false, nil)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Increment(ResolvedMethods, types.InvokeStatic)
		}()
	}
	wg.Wait()
	if got := b.Total(ResolvedMethods); got != 100 {
		t.Fatalf("total = %d, want 100", got)
	}
}

func TestSnapshotUnknownKindIsZero(t *testing.T) {
	b := New(true, nil)
	snap := b.Snapshot(Kind("never-incremented"))
	for i, v := range snap {
		if v != 0 {
			t.Fatalf("snap[%d] = %d, want 0", i, v)
		}
	}
}
