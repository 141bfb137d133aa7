/*
 * dexforge - an ahead-of-time compiler driver
 * Copyright (c) 2026 by the dexforge authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package initialize implements the initialization & verification
// stage (spec.md §4.5): per-class structural-or-resolver verification,
// denylist-gated <clinit> driving with metaclass-then-class lock
// ordering, and constructor-barrier-set population.
package initialize

import (
	"sync"

	"github.com/dexforge/dexforge/denylist"
	"github.com/dexforge/dexforge/globals"
	"github.com/dexforge/dexforge/mutatorlock"
	"github.com/dexforge/dexforge/registry"
	"github.com/dexforge/dexforge/resolver"
	"github.com/dexforge/dexforge/stats"
	"github.com/dexforge/dexforge/trace"
	"github.com/dexforge/dexforge/types"
	"github.com/dexforge/dexforge/verifier"
)

// voidDescriptor is the single special-cased class that is
// initialized by hand instead of through the resolver, so that
// compiling the boot image never needs a started runtime just to run
// java.lang.Void's (trivial) class initializer.
const voidDescriptor = "Ljava/lang/Void;"

// Stage runs the verify and initialize steps of spec.md §4.5 against
// a shared registry and resolver/verifier pair.
type Stage struct {
	Resolver resolver.Resolver
	Verifier verifier.Verifier
	Registry *registry.Registry
	Runtime  globals.RuntimeContext
	Lock     *mutatorlock.Lock
	Stats    *stats.Bag
	Image    types.DescriptorSet

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func (s *Stage) lockFor(key string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	if s.locks == nil {
		s.locks = make(map[string]*sync.Mutex)
	}
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

// VerifyClass implements the per-class verify step. loaded reports
// whether the class successfully loaded; when it did not,
// StructuralVerify runs against the raw dex bytes instead of
// VerifyClass. A hard failure is logged but never aborts the run.
func (s *Stage) VerifyClass(ref types.ClassReference, cache resolver.DexCache, loader resolver.ClassLoader, loaded bool) verifier.Outcome {
	release := s.Lock.Runnable()
	defer release()

	var outcome verifier.Outcome
	var err error
	if loaded {
		outcome, err = s.Verifier.VerifyClass(ref.Dex, cache, loader, ref.ClassDefIndex)
	} else {
		outcome, err = s.Verifier.StructuralVerify(ref.Dex, cache, loader, ref.ClassDefIndex)
	}
	_ = s.Resolver.ClearPendingException()

	if err != nil {
		trace.Error("hard verification failure for " + ref.String() + ": " + err.Error())
	}

	switch outcome {
	case verifier.OutcomeHardFail:
		s.Stats.Increment(stats.ClassesErroneous, types.InvokeStatic)
		s.Registry.RecordClassStatus(ref, types.StatusErroneous)
	case verifier.OutcomeSoftFail:
		s.Stats.Increment(stats.ClassesVerified, types.InvokeStatic)
		s.Registry.RecordClassStatus(ref, types.StatusVerified)
	default:
		s.Stats.Increment(stats.ClassesVerified, types.InvokeStatic)
		s.Registry.RecordClassStatus(ref, types.StatusVerified)
	}
	return outcome
}

// InitializeClass implements the per-class initialize step. typeIdx is
// the class's own type index within its declaring dex file, used to
// mark the dex cache's static-storage array on success. metaclassKey
// identifies the class's metaclass for lock-ordering purposes (the
// caller supplies it because the metaclass relationship lives in the
// resolver's runtime, out of this driver's model).
func (s *Stage) InitializeClass(ref types.ClassReference, class resolver.Class, cache resolver.DexCache, loader resolver.ClassLoader, typeIdx uint32, metaclassKey string) {
	// Lock ordering: metaclass first, then the class itself, to
	// serialize concurrent initializers and avoid the parent-then-
	// child deadlock pattern that locking in the opposite order
	// invites when two classes initialize each other's dependencies.
	metaLock := s.lockFor(metaclassKey)
	classLock := s.lockFor(ref.String())
	metaLock.Lock()
	defer metaLock.Unlock()
	classLock.Lock()
	defer classLock.Unlock()

	status, known := s.Registry.ClassStatus(ref)
	if !known || status.Status != types.StatusVerified {
		return
	}

	eligible := s.Runtime.CompilingBootImage &&
		s.Image != nil && s.Image.Contains(class.Descriptor()) &&
		!denylist.Contains(class.Descriptor())

	if !eligible {
		if denylist.Contains(class.Descriptor()) {
			s.Stats.Increment(stats.DenylistSkips, types.InvokeStatic)
			trace.Trace("denylist skip: " + class.Descriptor())
		}
		return
	}

	if class.Descriptor() == voidDescriptor {
		s.Registry.RecordClassStatus(ref, types.StatusInitialized)
		s.Stats.Increment(stats.ClassesInitialized, types.InvokeStatic)
		return
	}

	release := s.Lock.WriterRunnable()
	err := s.Resolver.EnsureInitialized(class, true, true)
	release()
	_ = s.Resolver.ClearPendingException()

	if err != nil {
		trace.Error("initialization failed for " + ref.String() + ": " + err.Error())
		s.Registry.RecordClassStatus(ref, types.StatusErroneous)
		s.Stats.Increment(stats.ClassesErroneous, types.InvokeStatic)
		return
	}

	if cache != nil {
		cache.MarkStaticStorageInitialized(typeIdx)
	}
	s.Registry.RecordClassStatus(ref, types.StatusInitialized)
	s.Stats.Increment(stats.ClassesInitialized, types.InvokeStatic)
}

// NoteFinalInstanceField implements the constructor-barrier-set
// population rule: whenever field resolution discovers a final
// instance field, the enclosing class is marked as requiring a
// release fence at constructor return.
func NoteFinalInstanceField(reg *registry.Registry, declaring types.ClassReference, field resolver.Field) {
	if field == nil || field.IsStatic() || !field.IsFinal() {
		return
	}
	reg.MarkFreezingConstructor(declaring)
}
