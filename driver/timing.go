/*
 * dexforge - an ahead-of-time compiler driver
 * Copyright (c) 2026 by the dexforge authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package driver

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dexforge/dexforge/trace"
)

// timingEntry is one labeled sub-step measurement, in the order it was
// recorded.
type timingEntry struct {
	label string
	d     time.Duration
}

// ledger accumulates per-substage timings for a single CompileAll run,
// identified by a run ID so concurrent runs' log lines can be told
// apart (spec.md §4.1 Observability).
type ledger struct {
	runID   string
	mu      sync.Mutex
	entries []timingEntry
	start   time.Time
}

func newLedger() *ledger {
	return &ledger{runID: uuid.NewString(), start: time.Now()}
}

// record measures the duration of fn and appends label/duration to the
// ledger.
func (l *ledger) record(label string, fn func()) {
	begin := time.Now()
	fn()
	d := time.Since(begin)
	l.mu.Lock()
	l.entries = append(l.entries, timingEntry{label: label, d: d})
	l.mu.Unlock()
}

// total returns the elapsed wall time since the ledger was created.
func (l *ledger) total() time.Duration {
	return time.Since(l.start)
}

// dump emits the ledger through trace.Info, one line per sub-step plus
// a total, tagged with the run ID.
func (l *ledger) dump() {
	l.mu.Lock()
	defer l.mu.Unlock()
	trace.Info(fmt.Sprintf("[%s] timing ledger (total %s):", l.runID, l.total()))
	for _, e := range l.entries {
		trace.Info(fmt.Sprintf("[%s]   %s: %s", l.runID, e.label, e.d))
	}
}

// maybeDump emits the ledger if forced (globals.RuntimeContext.DumpTimings)
// or if the total pipeline time exceeded the one-second threshold from
// spec.md §4.1.
func (l *ledger) maybeDump(forced bool) {
	if forced || l.total() > time.Second {
		l.dump()
	}
}
