/*
 * dexforge - an ahead-of-time compiler driver
 * Copyright (c) 2026 by the dexforge authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package shutdown implements the fatal half of the error taxonomy in
// spec.md §7: runtime invariant violations and backend contract
// violations. Everything else is absorbed locally by its caller and
// never reaches this package.
package shutdown

import (
	"fmt"
	"os"

	"github.com/dexforge/dexforge/trace"
)

// ExitCode enumerates the reasons the driver may abort the process.
type ExitCode int

const (
	// UnknownInstructionSet is returned when the driver is
	// constructed with an InstructionSet that
	// types.InstructionSet.IsValid rejects.
	UnknownInstructionSet ExitCode = iota + 1
	// EmptyImageClassSet is returned when stage 1 produces an empty
	// image-class set while image compilation was requested.
	EmptyImageClassSet
	// InconsistentDevirtTarget is returned when a devirtualized
	// super call's vtable slot does not match the resolved method.
	InconsistentDevirtTarget
	// BackendContractViolation is returned when a backend returns no
	// artifact while the runtime has a pending exception, or
	// otherwise violates its documented contract.
	BackendContractViolation
	// DuplicateMethodInsert is returned when the registry detects a
	// second, different artifact inserted for a method reference
	// already present.
	DuplicateMethodInsert
)

func (c ExitCode) String() string {
	switch c {
	case UnknownInstructionSet:
		return "unknown instruction set"
	case EmptyImageClassSet:
		return "empty image-class set after load-image-classes"
	case InconsistentDevirtTarget:
		return "devirtualized vtable slot mismatch"
	case BackendContractViolation:
		return "backend contract violation"
	case DuplicateMethodInsert:
		return "duplicate compiled-method insert"
	default:
		return "unknown fatal condition"
	}
}

// exitFunc is overridable in tests so a fatal path can be observed
// without tearing down the test binary.
var exitFunc = os.Exit

// Fatal logs a severe diagnostic carrying the exit code and aborts
// the process. Only the runtime-invariant and backend-contract
// violation classes from spec.md §7 call this; every other error is
// absorbed by its caller via a statistics counter or a swallowed
// error.
func Fatal(code ExitCode, err error) {
	msg := fmt.Sprintf("fatal: %s", code)
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	trace.Severe(msg)
	exitFunc(int(code))
}

// Errorf builds a wrapped error the way the rest of the driver reports
// non-fatal failures up one layer (stdlib wrapping only: see
// DESIGN.md for why no pack library replaces this concern).
func Errorf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}
