/*
 * dexforge - an ahead-of-time compiler driver
 * Copyright (c) 2026 by the dexforge authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package trace is the driver's single logging indirection. Every
// package routes diagnostics through here instead of fmt.Println, the
// way the teacher routes everything through its own trace package.
package trace

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu     sync.Mutex
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		With().Timestamp().Logger().Level(zerolog.InfoLevel)
)

// SetLevel adjusts global verbosity. Valid values are the zerolog
// level names: "trace", "debug", "info", "warn", "error".
func SetLevel(level string) {
	mu.Lock()
	defer mu.Unlock()
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	logger = logger.Level(lvl)
}

// Trace logs a fine-grained diagnostic, the driver's equivalent of
// the teacher's globals.TraceClass/TraceCloadi-gated Trace() calls.
func Trace(msg string) {
	logger.Trace().Msg(msg)
}

// Info logs a normal progress message (stage starts, timing ledger
// lines).
func Info(msg string) {
	logger.Info().Msg(msg)
}

// Warning logs a non-fatal condition: a dropped image seed, a
// class-load miss.
func Warning(msg string) {
	logger.Warn().Msg(msg)
}

// Error logs a swallowed exception or resolution failure. These never
// propagate as Go errors past the oracle/initializer boundary; Error
// is the only record of them.
func Error(msg string) {
	logger.Error().Msg(msg)
}

// Severe logs a condition the caller is about to treat as fatal,
// immediately before shutdown.Fatal.
func Severe(msg string) {
	logger.Error().Str("severity", "fatal").Msg(msg)
}
