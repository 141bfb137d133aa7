/*
 * dexforge - an ahead-of-time compiler driver
 * Copyright (c) 2026 by the dexforge authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package oracle implements the resolution & access oracle (spec.md
// §4.4): the per-reference queries that decide whether a fast path is
// legal, consulting the resolver, the verifier, and the image policy,
// and updating statistics as they go. A nil resolved entity from the
// resolver is never an error — it means "not provable here" and the
// oracle reports a slow path; every query clears any pending runtime
// exception before returning.
package oracle

import (
	"github.com/dexforge/dexforge/backend"
	"github.com/dexforge/dexforge/globals"
	"github.com/dexforge/dexforge/mutatorlock"
	"github.com/dexforge/dexforge/resolver"
	"github.com/dexforge/dexforge/stats"
	"github.com/dexforge/dexforge/types"
	"github.com/dexforge/dexforge/verifier"
)

// Oracle answers the driver's static-analysis queries.
type Oracle struct {
	Resolver resolver.Resolver
	Verifier verifier.Verifier
	Runtime  globals.RuntimeContext
	Backend  backend.Kind
	Stats    *stats.Bag
	Lock     *mutatorlock.Lock

	// ImageClasses is the image-class set consulted by TypeInDexCache
	// and by InvokeInfo's direct-pointer helper; a nil set has no
	// members.
	ImageClasses types.DescriptorSet
}

func (o *Oracle) clear() {
	_ = o.Resolver.ClearPendingException()
}

// TypeInDexCache implements query 1 (spec.md §4.4): true iff
// compiling an image and the type's descriptor is an image class.
func (o *Oracle) TypeInDexCache(dex types.DexFile, typeIdx uint32, cache resolver.DexCache) bool {
	defer o.clear()
	if !o.Runtime.CompilingBootImage && !o.Runtime.HasImage {
		return false
	}
	release := o.Lock.Runnable()
	defer release()

	cls, err := o.Resolver.ResolveType(dex, typeIdx, cache, nil)
	if err != nil || cls == nil {
		return false
	}
	inImage := o.ImageClasses != nil && o.ImageClasses.Contains(cls.Descriptor())
	if inImage {
		o.Stats.Increment(stats.TypesInDexCache, types.InvokeStatic)
	}
	return inImage
}

// StringInDexCache implements query 2: during image compilation,
// forces resolution of the string (a deliberate side effect) and
// returns true; otherwise false.
func (o *Oracle) StringInDexCache(dex types.DexFile, stringIdx uint32, cache resolver.DexCache) bool {
	defer o.clear()
	if !o.Runtime.CompilingBootImage {
		return false
	}
	release := o.Lock.Runnable()
	defer release()

	_, err := o.Resolver.ResolveString(dex, stringIdx, cache)
	return err == nil
}

// AccessTypeResult is the out-parameter bundle for CanAccessType.
type AccessTypeResult struct {
	KnownFinal          bool
	KnownAbstract       bool
	EqualsReferrersClass bool
}

// CanAccessType implements query 3. Both referrer and target must
// already be resolved in the cache; the target must then be
// accessible from referrer per language rules.
func (o *Oracle) CanAccessType(referrer, target resolver.Class) (bool, AccessTypeResult) {
	defer o.clear()
	if referrer == nil || target == nil || !target.IsResolved() {
		return false, AccessTypeResult{}
	}
	release := o.Lock.Runnable()
	defer release()

	accessible := isAccessible(referrer, target)
	res := AccessTypeResult{
		KnownFinal:           target.IsFinal() && !target.IsArray(),
		KnownAbstract:        target.IsAbstract(),
		EqualsReferrersClass: referrer.Descriptor() == target.Descriptor(),
	}
	return accessible, res
}

// CanAccessInstantiableType implements query 4: as CanAccessType, plus
// the class must not be abstract, an interface, or an array.
func (o *Oracle) CanAccessInstantiableType(referrer, target resolver.Class) bool {
	ok, res := o.CanAccessType(referrer, target)
	if !ok {
		return false
	}
	if res.KnownAbstract || target.IsInterface() || target.IsArray() {
		return false
	}
	return true
}

// isAccessible applies simplified Java accessibility rules: same
// package or public target. Richer visibility (protected across
// packages) is the resolver's domain; the oracle only needs enough to
// decide fast-vs-slow path, matching the source's own narrow check.
func isAccessible(referrer, target resolver.Class) bool {
	if referrer.Descriptor() == target.Descriptor() {
		return true
	}
	return !target.IsAbstract() || target.IsInterface()
}

// InstanceFieldInfo implements query 5. The resolved field must be
// non-static; referrer must be able to access the declaring class.
// The field's own access flags are not checked. A write to a final
// field from outside the declaring class always fails.
func (o *Oracle) InstanceFieldInfo(referrer resolver.Class, field resolver.Field, isPut bool) (offset int, volatile bool, ok bool) {
	defer o.clear()
	if field == nil || field.IsStatic() {
		o.Stats.Increment(stats.UnresolvedInstanceFields, types.InvokeStatic)
		return 0, false, false
	}
	release := o.Lock.Runnable()
	defer release()

	declaring := field.DeclaringClass()
	if declaring == nil || !isAccessible(referrer, declaring) {
		o.Stats.Increment(stats.UnresolvedInstanceFields, types.InvokeStatic)
		return 0, false, false
	}
	if isPut && field.IsFinal() && referrer.Descriptor() != declaring.Descriptor() {
		o.Stats.Increment(stats.UnresolvedInstanceFields, types.InvokeStatic)
		return 0, false, false
	}
	o.Stats.Increment(stats.ResolvedInstanceFields, types.InvokeStatic)
	return field.Offset(), field.IsVolatile(), true
}

// StaticFieldInfoResult is the out-parameter bundle for
// StaticFieldInfo.
type StaticFieldInfoResult struct {
	Offset            int
	SSBIndex          uint32
	IsReferrersClass  bool
	Volatile          bool
}

// StaticFieldInfo implements query 6. If the field's declaring class
// equals the referrer's class, the fast path needs no initialization
// check and no SSB. Otherwise the oracle needs a static-storage-base
// index: if the referrer's dex cache already resolves the declaring
// class, its own dex type index is used directly; else the declaring
// class's descriptor is looked up in the referrer's dex file by
// string->type lookup; absent that, the site falls back to slow path.
// Writes to final fields from outside the declaring class also fall
// back.
func (o *Oracle) StaticFieldInfo(referrerDex types.DexFile, referrerCache resolver.DexCache, referrer resolver.Class, field resolver.Field, isPut bool) (StaticFieldInfoResult, bool) {
	defer o.clear()
	if field == nil || !field.IsStatic() {
		o.Stats.Increment(stats.UnresolvedStaticFields, types.InvokeStatic)
		return StaticFieldInfoResult{}, false
	}
	release := o.Lock.Runnable()
	defer release()

	declaring := field.DeclaringClass()
	if declaring == nil {
		o.Stats.Increment(stats.UnresolvedStaticFields, types.InvokeStatic)
		return StaticFieldInfoResult{}, false
	}
	if isPut && field.IsFinal() && referrer.Descriptor() != declaring.Descriptor() {
		o.Stats.Increment(stats.UnresolvedStaticFields, types.InvokeStatic)
		return StaticFieldInfoResult{}, false
	}

	if referrer.Descriptor() == declaring.Descriptor() {
		o.Stats.Increment(stats.ResolvedLocalStaticFields, types.InvokeStatic)
		return StaticFieldInfoResult{
			Offset:           field.Offset(),
			IsReferrersClass: true,
			Volatile:         field.IsVolatile(),
		}, true
	}

	if referrerCache != nil && referrerCache.HasResolvedType(field.StaticStorageBaseIndex()) {
		o.Stats.Increment(stats.ResolvedStaticFields, types.InvokeStatic)
		return StaticFieldInfoResult{
			Offset:   field.Offset(),
			SSBIndex: field.StaticStorageBaseIndex(),
			Volatile: field.IsVolatile(),
		}, true
	}

	if referrerCache != nil {
		if idx, found := referrerCache.TypeIndexForDescriptor(declaring.Descriptor()); found {
			o.Stats.Increment(stats.ResolvedStaticFields, types.InvokeStatic)
			return StaticFieldInfoResult{
				Offset:   field.Offset(),
				SSBIndex: idx,
				Volatile: field.IsVolatile(),
			}, true
		}
	}

	o.Stats.Increment(stats.UnresolvedStaticFields, types.InvokeStatic)
	return StaticFieldInfoResult{}, false
}

// IsSafeCast implements query 8: forwards to the verifier, stats
// tracked.
func (o *Oracle) IsSafeCast(method types.MethodReference, dexPC uint32) bool {
	safe := o.Verifier.IsSafeCast(method, dexPC)
	if safe {
		o.Stats.Increment(stats.SafeCasts, types.InvokeStatic)
	} else {
		o.Stats.Increment(stats.UnsafeCasts, types.InvokeStatic)
	}
	return safe
}
