/*
 * dexforge - an ahead-of-time compiler driver
 * Copyright (c) 2026 by the dexforge authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package registry holds the four shared, independently-locked
// structures described in spec.md §4.6: the compiled-classes map, the
// compiled-methods map, the append-only patch lists, and the
// freezing-constructor-classes set. A single mutex guards each
// structure, held only for the individual insert or lookup; no
// iteration runs concurrently with mutation.
package registry

import (
	"fmt"

	deadlock "github.com/sasha-s/go-deadlock"

	"github.com/dexforge/dexforge/types"
)

// Registry is the compiled-artifact registry and patch ledger for one
// compilation run. Its zero value is not usable; construct with New.
type Registry struct {
	classesMu deadlock.Mutex
	classes   map[types.ClassReference]types.CompiledClass

	methodsMu deadlock.Mutex
	methods   map[types.MethodReference]any // opaque CompiledMethod, owned by the backend

	patchMu       deadlock.Mutex
	codePatches   []types.PatchInformation
	methodPatches []types.PatchInformation

	freezingMu deadlock.Mutex
	freezing   map[types.ClassReference]struct{}
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{
		classes:  make(map[types.ClassReference]types.CompiledClass),
		methods:  make(map[types.MethodReference]any),
		freezing: make(map[types.ClassReference]struct{}),
	}
}

// RecordClassStatus records status for ref, enforcing the monotonic
// non-decreasing invariant (spec.md §3, §8). Recording a status that
// would regress the class's current status is rejected and returns
// false; the stored status is left unchanged.
func (r *Registry) RecordClassStatus(ref types.ClassReference, status types.ClassStatus) bool {
	r.classesMu.Lock()
	defer r.classesMu.Unlock()

	current, ok := r.classes[ref]
	if ok && current.Status.Regresses(status) {
		return false
	}
	r.classes[ref] = types.CompiledClass{Status: status}
	return true
}

// ClassStatus returns the recorded status for ref, or
// (CompiledClass{}, false) if nothing has been recorded yet.
func (r *Registry) ClassStatus(ref types.ClassReference) (types.CompiledClass, bool) {
	r.classesMu.Lock()
	defer r.classesMu.Unlock()
	c, ok := r.classes[ref]
	return c, ok
}

// InsertMethod records the compiled artifact for ref. A duplicate
// insert for the same reference with a different artifact is a fatal
// error (spec.md §3 invariant); inserting the identical artifact
// again is a harmless no-op (idempotent insert).
func (r *Registry) InsertMethod(ref types.MethodReference, artifact any) error {
	r.methodsMu.Lock()
	defer r.methodsMu.Unlock()

	existing, ok := r.methods[ref]
	if !ok {
		r.methods[ref] = artifact
		return nil
	}
	if existing == artifact {
		return nil
	}
	return fmt.Errorf("registry: duplicate compiled-method insert for %s", ref)
}

// Method returns the compiled artifact for ref, if any.
func (r *Registry) Method(ref types.MethodReference) (any, bool) {
	r.methodsMu.Lock()
	defer r.methodsMu.Unlock()
	m, ok := r.methods[ref]
	return m, ok
}

// MethodCount returns the number of compiled methods recorded so far.
func (r *Registry) MethodCount() int {
	r.methodsMu.Lock()
	defer r.methodsMu.Unlock()
	return len(r.methods)
}

// AppendCodePatch appends a patch to the code-to-patch ledger.
func (r *Registry) AppendCodePatch(p types.PatchInformation) {
	r.patchMu.Lock()
	defer r.patchMu.Unlock()
	r.codePatches = append(r.codePatches, p)
}

// AppendMethodPatch appends a patch to the methods-to-patch ledger.
func (r *Registry) AppendMethodPatch(p types.PatchInformation) {
	r.patchMu.Lock()
	defer r.patchMu.Unlock()
	r.methodPatches = append(r.methodPatches, p)
}

// CodePatches returns a snapshot copy of the code-to-patch ledger.
func (r *Registry) CodePatches() []types.PatchInformation {
	r.patchMu.Lock()
	defer r.patchMu.Unlock()
	out := make([]types.PatchInformation, len(r.codePatches))
	copy(out, r.codePatches)
	return out
}

// MethodPatches returns a snapshot copy of the methods-to-patch
// ledger.
func (r *Registry) MethodPatches() []types.PatchInformation {
	r.patchMu.Lock()
	defer r.patchMu.Unlock()
	out := make([]types.PatchInformation, len(r.methodPatches))
	copy(out, r.methodPatches)
	return out
}

// MarkFreezingConstructor adds ref to the set of classes whose
// constructors require a memory barrier at return, because one of
// their instance fields is final (spec.md §4.5).
func (r *Registry) MarkFreezingConstructor(ref types.ClassReference) {
	r.freezingMu.Lock()
	defer r.freezingMu.Unlock()
	r.freezing[ref] = struct{}{}
}

// RequiresConstructorBarrier reports whether ref was previously marked
// by MarkFreezingConstructor.
func (r *Registry) RequiresConstructorBarrier(ref types.ClassReference) bool {
	r.freezingMu.Lock()
	defer r.freezingMu.Unlock()
	_, ok := r.freezing[ref]
	return ok
}
