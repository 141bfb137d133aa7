/*
 * dexforge - an ahead-of-time compiler driver
 * Copyright (c) 2026 by the dexforge authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package workqueue implements the parallel work engine (spec.md
// §4.2): a shared worker pool dispatching a strided partition of
// [begin, end) across workUnits tasks, with a join barrier the caller
// blocks on. Per-index callbacks are independent; there is no
// ordering between workers.
package workqueue

import (
	"context"
	"sync"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/semaphore"

	"github.com/dexforge/dexforge/mutatorlock"
	"github.com/dexforge/dexforge/shutdown"
)

// Callback processes a single index within [begin, end). A
// recoverable error is the callback's own responsibility to swallow
// (spec.md §4.2); Callback itself returns nothing because there is
// nothing for the engine to do with a per-index error except log it,
// which the callback can do directly via trace.
type Callback func(index int)

// Engine is a reusable worker pool behind ForAll. It is reused across
// all five pipeline stages of a single run but not across runs
// (spec.md §5).
type Engine struct {
	pool *ants.Pool
	lock *mutatorlock.Lock
	sem  *semaphore.Weighted
}

// New constructs an Engine with the given worker pool capacity,
// sharing lock for the orchestrator's runnable/suspended transitions
// around the join barrier.
func New(capacity int, lock *mutatorlock.Lock) (*Engine, error) {
	pool, err := ants.NewPool(capacity)
	if err != nil {
		return nil, err
	}
	return &Engine{
		pool: pool,
		lock: lock,
		sem:  semaphore.NewWeighted(int64(capacity)),
	}, nil
}

// Release tears down the underlying pool. Call once the driver that
// owns this Engine is done with it.
func (e *Engine) Release() {
	e.pool.Release()
}

// ForAll dispatches workUnits strided tasks over [begin, end): task i
// processes begin+i, begin+i+workUnits, begin+i+2*workUnits, ... up to
// end. This strided partition (rather than contiguous chunking) is
// deliberate: adjacent indices are often related classes, and
// spreading them across workers balances load and avoids correlated
// cache pressure on a single worker.
//
// The calling goroutine transitions to suspended before blocking on
// the join barrier and back to runnable once every task has
// completed, per spec.md §5. An unrecoverable failure inside callback
// (a panic) aborts the process — this layer offers no cancellation.
func (e *Engine) ForAll(begin, end int, callback Callback, workUnits int) {
	if workUnits <= 0 {
		workUnits = 1
	}
	if end <= begin {
		return
	}

	var wg sync.WaitGroup
	for i := 0; i < workUnits; i++ {
		start := begin + i
		if start >= end {
			continue
		}
		wg.Add(1)
		stride := workUnits
		task := func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					shutdown.Fatal(shutdown.BackendContractViolation, errorf("workqueue: callback panic: %v", r))
				}
			}()
			for idx := start; idx < end; idx += stride {
				callback(idx)
			}
		}
		if err := e.sem.Acquire(context.Background(), 1); err != nil {
			// Only fails if the context is canceled; Background()
			// never is, so run synchronously as a defensive fallback.
			task()
			continue
		}
		if err := e.pool.Submit(func() {
			defer e.sem.Release(1)
			task()
		}); err != nil {
			e.sem.Release(1)
			task()
		}
	}

	release := e.lock.Suspended()
	wg.Wait()
	release()
}

func errorf(format string, args ...any) error {
	return shutdown.Errorf(format, args...)
}
