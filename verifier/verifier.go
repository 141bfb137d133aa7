/*
 * dexforge - an ahead-of-time compiler driver
 * Copyright (c) 2026 by the dexforge authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package verifier declares the external structural-verification,
// devirtualization-map, and cast-safety collaborator (spec.md §6).
package verifier

import (
	"github.com/dexforge/dexforge/resolver"
	"github.com/dexforge/dexforge/types"
)

// Outcome is the result of verifying a single class.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeSoftFail
	OutcomeHardFail
)

// Verifier is the external collaborator performing structural
// bytecode verification, devirtualization analysis and cast-safety
// checks.
type Verifier interface {
	// VerifyClass structurally verifies a class. err is non-nil only
	// for OutcomeHardFail-adjacent infrastructure failures (I/O,
	// malformed dex); OutcomeSoftFail/OutcomeHardFail are reported
	// through the return value, not err.
	VerifyClass(dex types.DexFile, cache resolver.DexCache, loader resolver.ClassLoader, classDefIdx uint32) (Outcome, error)

	// StructuralVerify performs verification against the raw dex
	// bytes only, used when the class failed to load (spec.md §4.5).
	StructuralVerify(dex types.DexFile, cache resolver.DexCache, loader resolver.ClassLoader, classDefIdx uint32) (Outcome, error)

	// IsSafeCast reports whether the cast at dexPC within method is
	// statically provably safe.
	IsSafeCast(method types.MethodReference, dexPC uint32) bool

	// DevirtTarget returns the refined callee the verifier proved for
	// the call at (caller, dexPC), or ok=false if it could not
	// refine the call.
	DevirtTarget(caller types.MethodReference, dexPC uint32) (target types.MethodReference, ok bool)

	// IsClassRejected reports whether the verifier has already
	// rejected ref outright (used to short-circuit re-verification).
	IsClassRejected(ref types.ClassReference) bool
}
