/*
 * dexforge - an ahead-of-time compiler driver
 * Copyright (c) 2026 by the dexforge authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package stats implements the statistics bag described in spec.md
// §3 and §9: counters partitioned by decision kind and InvokeType,
// mutex-guarded in debug builds and updated with lock-free atomic
// adds in release builds.
package stats

import (
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dexforge/dexforge/types"
)

// Kind enumerates the decision kinds the oracle and initializer
// report against.
type Kind string

const (
	ResolvedMethods         Kind = "resolved_methods"
	UnresolvedMethods       Kind = "unresolved_methods"
	VirtualMadeDirect       Kind = "virtual_made_direct"
	ResolvedInstanceFields  Kind = "resolved_instance_fields"
	UnresolvedInstanceFields Kind = "unresolved_instance_fields"
	ResolvedLocalStaticFields Kind = "resolved_local_static_fields"
	ResolvedStaticFields    Kind = "resolved_static_fields"
	UnresolvedStaticFields  Kind = "unresolved_static_fields"
	SafeCasts               Kind = "safe_casts"
	UnsafeCasts             Kind = "unsafe_casts"
	TypesInDexCache         Kind = "types_in_dex_cache"
	ClassesVerified         Kind = "classes_verified"
	ClassesErroneous        Kind = "classes_erroneous"
	ClassesInitialized      Kind = "classes_initialized"
	DenylistSkips           Kind = "denylist_skips"
)

// Bag is the statistics surface. It is safe for concurrent use; the
// Debug flag controls whether counter updates are serialized under a
// mutex or applied with lock-free atomic adds; both modes count every
// increment.
type Bag struct {
	Debug bool

	mu       sync.Mutex // only taken when Debug is true
	counters map[Kind]*[types.InvokeTypeCount]int64

	vec *prometheus.CounterVec
}

// New constructs an empty Bag. registerer may be nil, in which case
// the Prometheus vector is created but not registered with any
// registry (useful for tests and for processes that expose metrics
// through a different registry than the default one).
func New(debug bool, registerer prometheus.Registerer) *Bag {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dexforge",
		Subsystem: "driver",
		Name:      "decisions_total",
		Help:      "Compile-time resolution decisions, partitioned by kind and invoke type.",
	}, []string{"kind", "invoke_type"})
	if registerer != nil {
		_ = registerer.Register(vec)
	}
	b := &Bag{
		Debug:    debug,
		counters: make(map[Kind]*[types.InvokeTypeCount]int64, len(allKinds)),
		vec:      vec,
	}
	for _, k := range allKinds {
		b.counters[k] = &[types.InvokeTypeCount]int64{}
	}
	return b
}

// allKinds lists every Kind constant so New can pre-populate the
// counters map: every key the process will ever look up already
// exists by construction, which keeps Increment/Snapshot's release-
// mode map reads lock-free without racing a concurrent insert.
var allKinds = []Kind{
	ResolvedMethods,
	UnresolvedMethods,
	VirtualMadeDirect,
	ResolvedInstanceFields,
	UnresolvedInstanceFields,
	ResolvedLocalStaticFields,
	ResolvedStaticFields,
	UnresolvedStaticFields,
	SafeCasts,
	UnsafeCasts,
	TypesInDexCache,
	ClassesVerified,
	ClassesErroneous,
	ClassesInitialized,
	DenylistSkips,
}

// Increment bumps the counter for kind/invokeType by one. In debug
// mode it is taken under a mutex (exact); in release mode it is a
// plain atomic add against the per-kind array, which is what the spec
// calls "writer-lossy outside debug builds" in spirit — the update
// itself never races destructively (atomic), but cross-kind snapshots
// taken concurrently with Increment are not point-in-time consistent. kind
// must be one of the declared Kind constants; New preallocates an
// array for each of them so this never needs to insert into the map
// at runtime, which would otherwise race across goroutines fanned out
// by workqueue.Engine.ForAll.
func (b *Bag) Increment(kind Kind, invokeType types.InvokeType) {
	b.vec.WithLabelValues(string(kind), invokeType.String()).Inc()

	if b.Debug {
		b.mu.Lock()
		defer b.mu.Unlock()
		arr := b.counters[kind]
		arr[invokeType]++
		return
	}

	atomic.AddInt64(&b.counters[kind][invokeType], 1)
}

// Snapshot returns the current counts for kind across all invoke
// types. In release mode this is a best-effort read, consistent with
// the spec's tolerance for lossy counters outside debug builds.
func (b *Bag) Snapshot(kind Kind) [types.InvokeTypeCount]int64 {
	if b.Debug {
		b.mu.Lock()
		defer b.mu.Unlock()
	}
	arr, ok := b.counters[kind]
	if !ok {
		return [types.InvokeTypeCount]int64{}
	}
	var out [types.InvokeTypeCount]int64
	for i := range out {
		out[i] = atomic.LoadInt64(&arr[i])
	}
	return out
}

// Total sums Snapshot(kind) across invoke types.
func (b *Bag) Total(kind Kind) int64 {
	var total int64
	for _, v := range b.Snapshot(kind) {
		total += v
	}
	return total
}
