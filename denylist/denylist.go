/*
 * dexforge - an ahead-of-time compiler driver
 * Copyright (c) 2026 by the dexforge authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package denylist holds the fixed list of class descriptors known to
// trigger side effects unsafe to run before the runtime is live
// (native library loads, property reads, random seeds, date/time,
// regex compilation, locale construction). Membership is a binary
// search against a sorted, deduplicated slice (design note 5).
package denylist

import "sort"

// raw is the source list, deliberately left unsorted and with its
// duplicate exactly as found (android_art's CompilerDriver denylist
// repeats Landroid/util/Patterns; twice); sorted() deduplicates it
// once at package init.
var raw = []string{
	"Ljava/lang/System;",
	"Ljava/lang/Runtime;",
	"Ljava/lang/ProcessEnvironment;",
	"Ljava/util/Random;",
	"Ljava/security/SecureRandom;",
	"Ljava/util/Locale;",
	"Ljava/util/TimeZone;",
	"Ljava/util/Calendar;",
	"Ljava/util/GregorianCalendar;",
	"Ljava/time/ZoneId;",
	"Ljava/time/Clock;",
	"Ljava/util/regex/Pattern;",
	"Landroid/util/Patterns;",
	"Landroid/util/Patterns;",
	"Ljava/lang/ClassLoader;",
	"Ljava/lang/Thread;",
	"Ljava/net/InetAddress;",
	"Ljava/io/File;",
	"Ljava/io/FileDescriptor;",
}

var sortedDescriptors = sortedDeduped(raw)

func sortedDeduped(in []string) []string {
	cp := append([]string(nil), in...)
	sort.Strings(cp)
	out := cp[:0]
	var prev string
	first := true
	for _, d := range cp {
		if first || d != prev {
			out = append(out, d)
			prev = d
			first = false
		}
	}
	return out
}

// Contains reports whether descriptor is on the initialization
// denylist.
func Contains(descriptor string) bool {
	i := sort.SearchStrings(sortedDescriptors, descriptor)
	return i < len(sortedDescriptors) && sortedDescriptors[i] == descriptor
}

// All returns the sorted, deduplicated descriptor list. Callers must
// not mutate the returned slice.
func All() []string {
	return sortedDescriptors
}
