/*
 * dexforge - an ahead-of-time compiler driver
 * Copyright (c) 2026 by the dexforge authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package oracle

import (
	"github.com/dexforge/dexforge/backend"
	"github.com/dexforge/dexforge/resolver"
	"github.com/dexforge/dexforge/stats"
	"github.com/dexforge/dexforge/types"
)

// InvokeInfoRequest bundles the in-parameters of query 7 (spec.md
// §4.4): it is the call site's current knowledge before the oracle
// attempts to sharpen or devirtualize it.
type InvokeInfoRequest struct {
	Dex             types.DexFile
	Cache           resolver.DexCache
	Loader          resolver.ClassLoader
	Referrer        resolver.Method
	ReferrerRef     types.MethodReference
	ReferrerClass   resolver.Class
	DexPC           uint32
	InvokeType      types.InvokeType
	TargetMethodIdx uint32
	// ExpectedDex is the dex file the call site expects its target to
	// live in; normally Dex itself. A devirtualized target living
	// elsewhere triggers the cross-dex re-locate logic of step d.
	ExpectedDex types.DexFile
	UpdateStats bool
}

// InvokeInfoResult bundles the out-parameters of query 7.
type InvokeInfoResult struct {
	InvokeType   types.InvokeType
	TargetMethod types.MethodReference
	VtableIndex  int
	DirectCode   types.DirectPtr
	DirectMethod types.DirectPtr
}

// InvokeInfo implements query 7, the most intricate decision the
// oracle makes. See spec.md §4.4 step 7 for the full decision tree;
// this implementation follows it step by step.
func (o *Oracle) InvokeInfo(req InvokeInfoRequest) (InvokeInfoResult, bool) {
	defer o.clear()
	release := o.Lock.Runnable()
	defer release()

	// a. Resolve the callee.
	callee, err := o.Resolver.ResolveMethod(req.Dex, req.TargetMethodIdx, req.Cache, req.Loader, req.Referrer, req.InvokeType)
	if err != nil || callee == nil {
		o.maybeIncrement(req.UpdateStats, stats.UnresolvedMethods, req.InvokeType)
		return InvokeInfoResult{}, false
	}

	// b. Referrer class / access checks.
	calleeClass := callee.DeclaringClass()
	if calleeClass == nil || req.ReferrerClass == nil || !isAccessible(req.ReferrerClass, calleeClass) {
		o.maybeIncrement(req.UpdateStats, stats.UnresolvedMethods, req.InvokeType)
		return InvokeInfoResult{}, false
	}

	invokeType := req.InvokeType
	target := callee
	// Static and direct invokes need no sharpening: they are already
	// the final dispatch kind, so the direct-pointer helper below
	// applies to them unconditionally.
	sharpened := invokeType == types.InvokeStatic || invokeType == types.InvokeDirect

	switch {
	case invokeType == types.InvokeVirtual && (callee.IsFinal() || calleeClass.IsFinal()):
		// c. Final-based sharpening, virtual case.
		invokeType = types.InvokeDirect
		sharpened = true
		o.maybeIncrement(req.UpdateStats, stats.VirtualMadeDirect, types.InvokeVirtual)

	case invokeType == types.InvokeSuper:
		// c. Final-based sharpening, super case: requires the
		// referrer to be a proper subclass of the callee's class and
		// the callee's own vtable slot to resolve, in the referrer's
		// hierarchy, to the same method.
		if req.ReferrerClass != nil && isProperSubclass(req.ReferrerClass, calleeClass) {
			if slot, ok := req.ReferrerClass.VtableMethodAt(callee.VtableIndex()); ok && slot.Reference() == callee.Reference() {
				invokeType = types.InvokeDirect
				sharpened = true
				o.maybeIncrement(req.UpdateStats, stats.VirtualMadeDirect, types.InvokeSuper)
			}
		}
	}

	if !sharpened && (req.InvokeType == types.InvokeVirtual || req.InvokeType == types.InvokeInterface) {
		// d. Verifier-based devirtualization.
		if refinedRef, ok := o.Verifier.DevirtTarget(req.ReferrerRef, req.DexPC); ok {
			refinedCache, _ := o.Resolver.FindDexCache(refinedRef.Dex)
			refined, err := o.Resolver.ResolveMethod(refinedRef.Dex, refinedRef.MethodIndex, refinedCache, req.Loader, req.Referrer, req.InvokeType)
			o.clear()
			if err == nil && refined != nil {
				expectedDex := req.ExpectedDex
				if expectedDex == nil {
					expectedDex = req.Dex
				}
				if refinedRef.Dex != expectedDex {
					tentativeCode, tentativeMethod := o.directPointers(types.InvokeDirect, req.ReferrerClass, refined)
					needsRelocate := o.Backend.NeedsDexCacheEntry(o.Runtime.InstructionSet) ||
						tentativeCode.IsNone() || tentativeMethod.IsNone() ||
						tentativeCode.IsPatchLater() || tentativeMethod.IsPatchLater()
					if needsRelocate {
						if located, ok := o.Resolver.LocateMethod(expectedDex, req.Cache, req.Loader, calleeClass.Descriptor(), refined.Name(), refined.Signature()); ok {
							target = located
							invokeType = types.InvokeDirect
							sharpened = true
						}
						// On failure to re-locate: leave the site slow
						// (fall through unsharpened).
					} else {
						target = refined
						invokeType = types.InvokeDirect
						sharpened = true
					}
				} else {
					target = refined
					invokeType = types.InvokeDirect
					sharpened = true
				}
			}
		}
	}

	result := InvokeInfoResult{
		InvokeType:   invokeType,
		TargetMethod: target.Reference(),
	}

	if !sharpened {
		// e. Super-without-sharpening is a deliberate slow path: no
		// direct pointers, but f. still reports vtable_idx for
		// virtual/super so the caller can emit a vtable dispatch.
		if invokeType == types.InvokeVirtual || invokeType == types.InvokeSuper {
			result.VtableIndex = callee.VtableIndex()
		}
		result.DirectCode = types.DirectPtrNone
		result.DirectMethod = types.DirectPtrNone
		o.maybeIncrement(req.UpdateStats, stats.ResolvedMethods, req.InvokeType)
		return result, true
	}

	result.DirectCode, result.DirectMethod = o.directPointers(invokeType, req.ReferrerClass, target)
	o.maybeIncrement(req.UpdateStats, stats.ResolvedMethods, req.InvokeType)
	return result, true
}

func (o *Oracle) maybeIncrement(update bool, kind stats.Kind, invokeType types.InvokeType) {
	if update {
		o.Stats.Increment(kind, invokeType)
	}
}

// isProperSubclass reports whether sub is a strict descendant of
// super in the class hierarchy.
func isProperSubclass(sub, super resolver.Class) bool {
	if sub == nil || super == nil {
		return false
	}
	for p := sub.Superclass(); p != nil; p = p.Superclass() {
		if p.Descriptor() == super.Descriptor() {
			return true
		}
	}
	return false
}

// directPointers is the direct-code/direct-method helper shared by
// the final-sharpening and devirtualization paths (spec.md §4.4).
func (o *Oracle) directPointers(sharpenedType types.InvokeType, referrerClass resolver.Class, target resolver.Method) (types.DirectPtr, types.DirectPtr) {
	applicable := sharpenedType == types.InvokeStatic || sharpenedType == types.InvokeDirect ||
		(sharpenedType == types.InvokeInterface && o.Backend != backend.Portable)
	if !applicable {
		return types.DirectPtrNone, types.DirectPtrNone
	}

	calleeClass := target.DeclaringClass()
	if calleeClass == nil || calleeClass.HasClassLoader() {
		// Not a boot class: no direct pointer.
		return types.DirectPtrNone, types.DirectPtrNone
	}

	if target.IsStatic() && !calleeClass.IsInitialized() {
		if referrerClass == nil || referrerClass.Descriptor() != calleeClass.Descriptor() {
			// Needs a <clinit> trampoline at runtime.
			return types.DirectPtrNone, types.DirectPtrNone
		}
	}

	if o.Runtime.CompilingBootImage {
		if o.ImageClasses != nil && o.ImageClasses.Contains(calleeClass.Descriptor()) {
			return types.DirectPtrPatchLater, types.DirectPtrPatchLater
		}
		return types.DirectPtrNone, types.DirectPtrNone
	}

	if o.Runtime.HasImage {
		code, hasCode := target.Address()
		obj, hasObj := target.ObjectAddress()
		if hasCode && hasObj {
			return types.DirectPtrConcrete(code), types.DirectPtrConcrete(obj)
		}
	}

	return types.DirectPtrNone, types.DirectPtrNone
}
