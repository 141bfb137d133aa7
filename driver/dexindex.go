/*
 * dexforge - an ahead-of-time compiler driver
 * Copyright (c) 2026 by the dexforge authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package driver

import (
	"github.com/dexforge/dexforge/backend"
	"github.com/dexforge/dexforge/resolver"
	"github.com/dexforge/dexforge/types"
)

// ClassDefInfo describes one class_def table entry enough for the
// pipeline to drive resolution, verification and initialization
// without parsing dex bytes itself (spec.md §1 treats dex file
// contents as opaque beyond what a resolver/class-linker exposes).
type ClassDefInfo struct {
	TypeIndex uint32
	// Loaded reports whether the class backing this class_def loaded
	// successfully; false routes the verify step to StructuralVerify.
	Loaded bool
}

// FieldInfo describes one field belonging to a class_def.
type FieldInfo struct {
	FieldIndex uint32
	IsStatic   bool
}

// MethodInfo describes one method belonging to a class_def.
type MethodInfo struct {
	MethodIndex uint32
	AccessFlags uint32
	InvokeType  types.InvokeType
	// IsDirect marks static, private and constructor methods — the
	// "direct methods" list iterated before "virtual methods" in the
	// compile stage (spec.md §4.1 step 6).
	IsDirect   bool
	IsNative   bool
	IsAbstract bool
	// CodeItem is nil for native and abstract methods.
	CodeItem backend.CodeItem
}

// DexIndex is the structural enumeration surface for one dex file.
// The driver uses it to drive stage A/B resolution and the compile
// stage's method iteration.
type DexIndex interface {
	TypeCount() int
	ClassDefCount() int
	ClassDef(classDefIdx int) ClassDefInfo
	FieldsOf(classDefIdx int) []FieldInfo
	MethodsOf(classDefIdx int) []MethodInfo
}

// Unit bundles one dex file with its dex cache and structural index,
// the minimal per-dex context the pipeline needs for a compile run.
type Unit struct {
	Dex   types.DexFile
	Cache resolver.DexCache
	Index DexIndex
}

// PatchEmitter is an optional extension a Backend may implement to
// surface patch-ledger entries produced by a single compile call. Not
// every backend needs one; CompileAll only consults it when present.
type PatchEmitter interface {
	TakePatches() (code []types.PatchInformation, methods []types.PatchInformation)
}
