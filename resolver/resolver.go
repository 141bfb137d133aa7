/*
 * dexforge - an ahead-of-time compiler driver
 * Copyright (c) 2026 by the dexforge authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package resolver declares the external resolver / class-linker
// collaborator interface (spec.md §6). The driver never implements
// this itself; it is supplied by the managed runtime.
package resolver

import "github.com/dexforge/dexforge/types"

// ClassLoader is an opaque handle to a class-loading context,
// threaded through every resolution call the way the managed runtime
// threads it.
type ClassLoader interface {
	Name() string
}

// Class is the resolver's view of a loaded class: enough for the
// driver's static analysis without exposing the runtime's internal
// representation.
type Class interface {
	Descriptor() string
	IsResolved() bool
	IsFinal() bool
	IsAbstract() bool
	IsInterface() bool
	IsArray() bool
	// HasClassLoader reports whether the class has a user class
	// loader; false means it is defined by the boot class loader
	// ("is defined in a boot class", spec.md §4.4).
	HasClassLoader() bool
	Superclass() Class // nil for java.lang.Object
	Interfaces() []Class
	ComponentType() Class // non-nil only for array classes
	IsAssignableTo(other Class) bool
	// IsInitialized reports whether <clinit> has already run (or the
	// class needs none) — consulted by the direct-code/direct-method
	// helper's static-method initialization check (spec.md §4.4).
	IsInitialized() bool
	// VtableMethodAt returns the method currently occupying vtable
	// slot index in this class's vtable, used to verify the super-
	// sharpening invariant (spec.md §4.4 step c, §8).
	VtableMethodAt(index int) (Method, bool)
}

// Field is the resolver's view of a resolved field.
type Field interface {
	DeclaringClass() Class
	IsStatic() bool
	IsFinal() bool
	IsVolatile() bool
	Offset() int
	// StaticStorageBaseIndex is the declaring class's own dex type
	// index within its own dex file, used directly as the SSB index
	// when the referrer's dex cache already resolves that type index.
	StaticStorageBaseIndex() uint32
}

// Method is the resolver's view of a resolved method.
type Method interface {
	DeclaringClass() Class
	IsStatic() bool
	IsFinal() bool
	IsAbstract() bool
	IsNative() bool
	VtableIndex() int
	// Address is the method's current entry-point address, valid
	// only when the method already lives in a loaded image space.
	Address() (uintptr, bool)
	// ObjectAddress is the method object's own address, valid under
	// the same condition as Address.
	ObjectAddress() (uintptr, bool)
	Reference() types.MethodReference
	// Name and Signature identify the method independent of any one
	// dex file's method_idx, used to re-locate a devirtualized
	// target across dex files (spec.md §4.4 step d).
	Name() string
	Signature() string
}

// Resolver is the external collaborator that resolves indices to
// runtime descriptors, loads classes, and drives <clinit>. Every
// method here may leave a pending runtime exception on failure; the
// driver always clears it immediately after inspecting the result
// (spec.md §4.4, §7).
type Resolver interface {
	FindDexCache(dex types.DexFile) (DexCache, bool)
	ResolveType(dex types.DexFile, typeIdx uint32, cache DexCache, loader ClassLoader) (Class, error)
	ResolveField(dex types.DexFile, fieldIdx uint32, cache DexCache, loader ClassLoader, isStatic bool) (Field, error)
	ResolveMethod(dex types.DexFile, methodIdx uint32, cache DexCache, loader ClassLoader, referrer Method, invokeType types.InvokeType) (Method, error)
	FindClass(descriptor string, loader ClassLoader) (Class, error)
	EnsureInitialized(class Class, assertInitialized, canInitStaticFields bool) error
	ResolveString(dex types.DexFile, stringIdx uint32, cache DexCache) (string, error)
	// VisitClasses walks every currently loaded class, calling fn for
	// each; used by the image-class live-object sweep.
	VisitClasses(fn func(Class) bool)
	// ClearPendingException clears and returns whatever pending
	// runtime exception the previous call may have left, per the
	// swallow-and-log policy of spec.md §4.4/§7.
	ClearPendingException() error
	// LocateMethod re-finds a method by descriptor/name/signature
	// within a specific dex file, used when a verifier-devirtualized
	// target lives in a different dex file than expected (spec.md
	// §4.4 step d).
	LocateMethod(dex types.DexFile, cache DexCache, loader ClassLoader, declaringDescriptor, name, signature string) (Method, bool)
}

// DexCache is a per-dex-file memoization table of resolved types,
// methods, fields and strings (glossary). The oracle consults it
// opportunistically and, for string resolution during image builds,
// is allowed to force it to resolve.
type DexCache interface {
	HasResolvedType(typeIdx uint32) bool
	HasResolvedString(stringIdx uint32) bool
	// TypeIndexForDescriptor looks up descriptor among this dex
	// file's own type table, used by the static-storage-base
	// fallback lookup in static_field_info.
	TypeIndexForDescriptor(descriptor string) (uint32, bool)
	// MarkStaticStorageInitialized records, at typeIdx, that the
	// class now has a live static storage block — consulted by
	// nothing in this driver directly, but updated by the initializer
	// on a successful <clinit> run so later dex-cache reads observe
	// the class as initialized (spec.md §4.5).
	MarkStaticStorageInitialized(typeIdx uint32)
}
