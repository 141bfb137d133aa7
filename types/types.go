/*
 * dexforge - an ahead-of-time compiler driver
 * Copyright (c) 2026 by the dexforge authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package types holds the value types shared across the driver: class
// and method references, invoke kinds, instruction sets, class status,
// and the patch-ledger record. All of them are value-semantic and
// comparable so they can be used directly as map keys.
package types

import "fmt"

// DexFile is the minimal identity a dex file needs to participate in
// ClassReference/MethodReference: something that names itself for
// logging. The actual table contents (types, strings, fields,
// methods, class defs, code items) live behind the resolver.Resolver
// interface; the driver never indexes into a dex file directly.
// Implementations must be comparable (pointer types, typically) so
// that ClassReference/MethodReference can be used as map keys.
type DexFile interface {
	Location() string
}

// ClassReference identifies a class definition within a specific dex
// file by its class_def index.
type ClassReference struct {
	Dex           DexFile
	ClassDefIndex uint32
}

func (c ClassReference) String() string {
	loc := "<nil>"
	if c.Dex != nil {
		loc = c.Dex.Location()
	}
	return fmt.Sprintf("%s!class#%d", loc, c.ClassDefIndex)
}

// MethodReference identifies a method within a specific dex file by
// its method_idx.
type MethodReference struct {
	Dex         DexFile
	MethodIndex uint32
}

func (m MethodReference) String() string {
	loc := "<nil>"
	if m.Dex != nil {
		loc = m.Dex.Location()
	}
	return fmt.Sprintf("%s!method#%d", loc, m.MethodIndex)
}

// InvokeType mirrors the bytecode invoke kinds. Integer ordering is
// observable: callers use it to index per-kind statistics arrays, so
// values must not be reordered.
type InvokeType int

const (
	InvokeStatic InvokeType = iota
	InvokeDirect
	InvokeVirtual
	InvokeSuper
	InvokeInterface
	invokeTypeCount
)

func (t InvokeType) String() string {
	switch t {
	case InvokeStatic:
		return "static"
	case InvokeDirect:
		return "direct"
	case InvokeVirtual:
		return "virtual"
	case InvokeSuper:
		return "super"
	case InvokeInterface:
		return "interface"
	default:
		return "unknown"
	}
}

// InvokeTypeCount is the number of InvokeType values, for sizing
// per-kind arrays.
const InvokeTypeCount = int(invokeTypeCount)

// InstructionSet drives trampoline and devirtualization policy
// selection.
type InstructionSet int

const (
	InstructionSetARM InstructionSet = iota
	InstructionSetThumb2
	InstructionSetMIPS
	InstructionSetX86
	instructionSetCount
)

func (s InstructionSet) String() string {
	switch s {
	case InstructionSetARM:
		return "arm"
	case InstructionSetThumb2:
		return "thumb2"
	case InstructionSetMIPS:
		return "mips"
	case InstructionSetX86:
		return "x86"
	default:
		return "unknown"
	}
}

// IsValid reports whether s is one of the recognized instruction
// sets. An unrecognized instruction set is a fatal runtime invariant
// violation (spec §7) at driver construction time.
func (s InstructionSet) IsValid() bool {
	return s >= InstructionSetARM && s < instructionSetCount
}

// ClassStatus is the compile-time status of a class. Status only ever
// moves forward; recording a lower status is rejected by the
// registry.
type ClassStatus int

const (
	StatusNotReady ClassStatus = iota
	StatusResolved
	StatusVerified
	StatusInitializing
	StatusInitialized
	StatusErroneous
)

func (s ClassStatus) String() string {
	switch s {
	case StatusNotReady:
		return "not_ready"
	case StatusResolved:
		return "resolved"
	case StatusVerified:
		return "verified"
	case StatusInitializing:
		return "initializing"
	case StatusInitialized:
		return "initialized"
	case StatusErroneous:
		return "erroneous"
	default:
		return "unknown"
	}
}

// rank gives a total order to ClassStatus for monotonicity checks.
// StatusErroneous is not "higher" than StatusInitialized in a useful
// sense, so it is ranked just past StatusVerified: once a class is
// erroneous, compile is skipped, but the initializer must still be
// allowed to report statuses beyond verified for classes that are not
// erroneous. With this rank, recording StatusInitializing or
// StatusInitialized after StatusErroneous is not a regression.
func (s ClassStatus) rank() int {
	switch s {
	case StatusNotReady:
		return 0
	case StatusResolved:
		return 1
	case StatusVerified:
		return 2
	case StatusErroneous:
		return 3
	case StatusInitializing:
		return 4
	case StatusInitialized:
		return 5
	default:
		return -1
	}
}

// Regresses reports whether moving from s to next would violate the
// monotonic non-decreasing invariant.
func (s ClassStatus) Regresses(next ClassStatus) bool {
	return next.rank() < s.rank()
}

// CompiledClass is the terminal record of a class's compile-time
// status.
type CompiledClass struct {
	Status ClassStatus
}

// DirectPtr replaces the source's overloaded sentinel integers
// (0 = "no direct pointer", -1 = "patch later", anything else =
// concrete address) with an explicit sum type (design note / Open
// Question 3).
type DirectPtr struct {
	kind int8
	addr uintptr
}

const (
	directPtrNone = iota
	directPtrPatchLater
	directPtrConcrete
)

// DirectPtrNone means no direct pointer is available: the call must
// stay on the slow path, or (for direct_method) the field simply does
// not apply.
var DirectPtrNone = DirectPtr{kind: directPtrNone}

// DirectPtrPatchLater means the call site needs a patch ledger entry
// resolved once the boot image's absolute addresses are known.
var DirectPtrPatchLater = DirectPtr{kind: directPtrPatchLater}

// DirectPtrConcrete wraps a known address, valid when compiling
// against an already-built boot image.
func DirectPtrConcrete(addr uintptr) DirectPtr {
	return DirectPtr{kind: directPtrConcrete, addr: addr}
}

// IsNone reports whether the pointer carries no information.
func (d DirectPtr) IsNone() bool { return d.kind == directPtrNone }

// IsPatchLater reports whether the pointer is a deferred patch.
func (d DirectPtr) IsPatchLater() bool { return d.kind == directPtrPatchLater }

// Address returns the concrete address and true, or 0 and false if d
// is not DirectPtrConcrete.
func (d DirectPtr) Address() (uintptr, bool) {
	if d.kind != directPtrConcrete {
		return 0, false
	}
	return d.addr, true
}

func (d DirectPtr) String() string {
	switch d.kind {
	case directPtrNone:
		return "none"
	case directPtrPatchLater:
		return "patch-later"
	default:
		return fmt.Sprintf("0x%x", d.addr)
	}
}

// PatchInformation is an immutable fix-up record: the literal at
// Referrer+LiteralOffset must be rewritten by the object-file writer
// once Target's final address is known.
type PatchInformation struct {
	Dex           DexFile
	Referrer      MethodReference
	ReferrerType  InvokeType
	Target        MethodReference
	TargetType    InvokeType
	LiteralOffset int
}

// DescriptorSet is a set of Java-style class descriptor strings
// ("Ljava/lang/Object;"), driving image membership.
type DescriptorSet map[string]struct{}

// NewDescriptorSet builds a DescriptorSet from a seed list.
func NewDescriptorSet(seed ...string) DescriptorSet {
	s := make(DescriptorSet, len(seed))
	for _, d := range seed {
		s[d] = struct{}{}
	}
	return s
}

// Add inserts descriptor into the set and reports whether it was new.
func (s DescriptorSet) Add(descriptor string) bool {
	if _, ok := s[descriptor]; ok {
		return false
	}
	s[descriptor] = struct{}{}
	return true
}

// Contains reports set membership.
func (s DescriptorSet) Contains(descriptor string) bool {
	_, ok := s[descriptor]
	return ok
}

// Slice returns the set's members; order is unspecified.
func (s DescriptorSet) Slice() []string {
	out := make([]string, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	return out
}
