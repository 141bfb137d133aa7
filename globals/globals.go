/*
 * dexforge - an ahead-of-time compiler driver
 * Copyright (c) 2026 by the dexforge authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package globals carries the driver's run-wide configuration as an
// explicit value instead of a global Runtime::Current()-style
// singleton (design note, spec §9).
package globals

import "github.com/dexforge/dexforge/types"

// RuntimeContext is constructed once by the caller and threaded
// through the driver. It replaces the hidden global state the source
// keeps on its Runtime singleton.
type RuntimeContext struct {
	// CompilingBootImage is true when this run produces the boot
	// image itself, with no preceding image to compile against.
	CompilingBootImage bool

	// HasImage is true when compiling against an existing boot
	// image (the complement of a from-scratch non-image compile).
	HasImage bool

	// InstructionSet selects trampoline and devirtualization policy.
	InstructionSet types.InstructionSet

	// SmallModeEnabled turns on the small-method compilation mode
	// used for size-constrained targets (design note, Open Question
	// 2).
	SmallModeEnabled bool

	// SmallModeDexSizeLimit is the method dex-code size cutoff
	// applied only when SmallModeEnabled and the image-class set is
	// non-empty.
	SmallModeDexSizeLimit int

	// DefaultDexSizeLimit is the size cutoff applied otherwise.
	DefaultDexSizeLimit int

	// DumpTimings enables emission of the timing ledger regardless
	// of the 1s threshold (spec §4.1).
	DumpTimings bool

	// DumpStats enables emission of the statistics bag at the end
	// of compile_all.
	DumpStats bool

	// DebugStats switches the statistics bag between the
	// mutex-guarded debug mode and the lock-free, atomic release mode
	// (spec §3, §9).
	DebugStats bool

	// AllowDexToDex permits dispatching eligible methods to the
	// dex-to-dex rewriter backend during the compile stage.
	AllowDexToDex bool
}

// DefaultRuntimeContext returns a RuntimeContext with conservative,
// non-boot-image defaults.
func DefaultRuntimeContext() RuntimeContext {
	return RuntimeContext{
		InstructionSet:         types.InstructionSetARM,
		DefaultDexSizeLimit:    4096,
		SmallModeDexSizeLimit:  160,
		AllowDexToDex:          true,
	}
}

// EffectiveDexSizeLimit applies the Open Question 2 decision: the
// small-mode threshold only takes effect when small mode is enabled
// and the image-class set is non-empty; otherwise the default applies.
func (r RuntimeContext) EffectiveDexSizeLimit(imageClassCount int) int {
	if r.SmallModeEnabled && imageClassCount > 0 {
		return r.SmallModeDexSizeLimit
	}
	return r.DefaultDexSizeLimit
}
