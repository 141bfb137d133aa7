/*
 * dexforge - an ahead-of-time compiler driver
 * Copyright (c) 2026 by the dexforge authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package mutatorlock models the runtime's reader/writer mutator
// lock (spec.md §5). Callbacks hold it reader-side ("runnable")
// whenever they touch the resolver, dex cache, object graph or class
// state, and release it ("suspended") around blocking operations such
// as the work-engine join barrier. Running a class initializer takes
// it writer-side (WriterRunnable) instead.
package mutatorlock

import (
	deadlock "github.com/sasha-s/go-deadlock"
)

// Lock is the shared mutator lock. Its zero value is ready to use.
type Lock struct {
	rw deadlock.RWMutex
}

// Release undoes whatever scoped transition produced it.
type Release func()

// Runnable transitions the calling goroutine into the runnable
// (reader-held) state for the duration of a mutator-touching
// operation. The returned Release must be called exactly once, on
// every exit path, to return to suspended.
func (l *Lock) Runnable() Release {
	l.rw.RLock()
	return func() { l.rw.RUnlock() }
}

// Suspended transitions the calling goroutine into the suspended
// state around a blocking operation (join barrier, I/O). While
// suspended the goroutine must not touch the resolver, dex cache, or
// object graph.
//
// Suspended does not itself acquire or release the mutator lock: it
// exists to make suspension points syntactically visible at call
// sites, matching spec.md §5's requirement that the orchestrator
// "transition to suspended before calling wait ... and back to
// runnable after." Callers that need exclusive access during a
// suspension window (e.g. to run a class initializer the lock should
// guard against readers) use WriterRunnable instead.
func (l *Lock) Suspended() Release {
	return func() {}
}

// WriterRunnable acquires the mutator lock for exclusive (writer)
// access, used by the initializer when running <clinit> for a class
// that must not be observed half-initialized by a concurrent reader.
func (l *Lock) WriterRunnable() Release {
	l.rw.Lock()
	return func() { l.rw.Unlock() }
}
