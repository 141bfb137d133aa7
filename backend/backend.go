/*
 * dexforge - an ahead-of-time compiler driver
 * Copyright (c) 2026 by the dexforge authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package backend declares the pluggable code-generator interface
// (spec.md §6) and the per-instruction-set trampoline surface. Backend
// implementations are supplied by the caller; the driver only
// dispatches to them.
package backend

import (
	"github.com/dexforge/dexforge/resolver"
	"github.com/dexforge/dexforge/types"
)

// Kind distinguishes the two native code-generator families the
// source supports. The oracle's direct-pointer helper accepts an
// interface call site only for Quick; for Portable it applies to
// static and direct call sites only.
type Kind int

const (
	Quick Kind = iota
	Portable
)

func (k Kind) String() string {
	if k == Portable {
		return "portable"
	}
	return "quick"
}

// NeedsDexCacheEntry reports whether this backend kind requires a
// dex-cache entry for a devirtualized target before it can be
// sharpened to direct (spec.md §4.4 step d): the portable backend
// always needs one; the quick backend needs one whenever the
// instruction set is not thumb2.
func (k Kind) NeedsDexCacheEntry(set types.InstructionSet) bool {
	if k == Portable {
		return true
	}
	return set != types.InstructionSetThumb2
}

// CodeItem is the bytecode body of a single method, opaque to the
// driver beyond what a backend needs.
type CodeItem interface {
	MaxStack() int
	MaxLocals() int
	Bytes() []byte
	SizeBytes() int
}

// CompiledMethod is the backend's compiled output. It is opaque to
// the driver: the driver only stores and forwards it via the
// registry.
type CompiledMethod any

// Backend is the pluggable code generator (spec.md §6). init_context
// and uninit_context map to InitContext/UninitContext; the three
// compile entry points map one-to-one.
type Backend interface {
	Kind() Kind

	InitContext() error
	UninitContext() error

	// CompileMethod compiles a single concrete method body.
	CompileMethod(codeItem CodeItem, accessFlags uint32, invokeType types.InvokeType, classDefIdx uint32, methodIdx uint32, loader resolver.ClassLoader, dex types.DexFile) (CompiledMethod, error)

	// CompileJNI produces a JNI stub for a native method; codeItem is
	// absent by construction (native methods carry no bytecode).
	CompileJNI(accessFlags uint32, methodIdx uint32, dex types.DexFile) (CompiledMethod, error)

	// CompileDexToDex rewrites the method's bytecode in place and
	// emits no native artifact (it returns nil on success).
	CompileDexToDex(codeItem CodeItem, accessFlags uint32, invokeType types.InvokeType, classDefIdx uint32, methodIdx uint32, loader resolver.ClassLoader, dex types.DexFile) error
}

// TrampolineSet is the six canned byte sequences a backend exposes
// per instruction set (spec.md §6): portable-resolution,
// quick-resolution, interpreter<->interpreter entry,
// interpreter<->quick entry, and per-invoke-type quick-invocation
// entry offsets.
type TrampolineSet struct {
	InstructionSet types.InstructionSet

	PortableResolutionTrampoline []byte
	QuickResolutionTrampoline    []byte
	InterpreterToInterpreter     []byte
	InterpreterToQuick           []byte

	// QuickInvokeEntryOffset is indexed by types.InvokeType.
	QuickInvokeEntryOffset [types.InvokeTypeCount]int
}

// Registry maps each supported instruction set to its trampoline
// surface. Lookup reports an instruction set that was never
// registered with ok=false; an instruction set that
// types.InstructionSet.IsValid rejects is fatal in driver.New.
type Registry struct {
	sets map[types.InstructionSet]TrampolineSet
}

// NewRegistry builds a Registry from the given trampoline sets,
// keyed by their own InstructionSet field.
func NewRegistry(sets ...TrampolineSet) *Registry {
	r := &Registry{sets: make(map[types.InstructionSet]TrampolineSet, len(sets))}
	for _, s := range sets {
		r.sets[s.InstructionSet] = s
	}
	return r
}

// Lookup returns the trampoline set for set, or ok=false if it was
// never registered (meaning it is unrecognized by this driver build,
// per spec.md §6/§7).
func (r *Registry) Lookup(set types.InstructionSet) (TrampolineSet, bool) {
	t, ok := r.sets[set]
	return t, ok
}

// methodIsLeafFlag is the access-flag bit the return-bytecode paths
// test to decide whether a compiled method's epilogue can skip frame
// bookkeeping that only matters when the method itself can be the
// target of a stack walk across a call. The original source applies
// this test as `!flags & METHOD_IS_LEAF`, which due to operator
// precedence computes `(!flags) & METHOD_IS_LEAF` rather than the
// evidently-intended `(flags & METHOD_IS_LEAF) == 0` (Open Question
// 1). IsLeaf implements the intended test.
const methodIsLeafFlag = 0x00010000

// IsLeaf applies the corrected reading of the source's precedence
// bug, `(accessFlags & methodIsLeafFlag) == 0`: it returns true when
// the leaf bit is clear in accessFlags and false when it is set.
func IsLeaf(accessFlags uint32) bool {
	return accessFlags&methodIsLeafFlag == 0
}
