// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snescom

import "fmt"

// A DiagCategory classifies one kind of diagnostic, matching the
// taxonomy in spec.md §7.
type DiagCategory string

const (
	DiagRedefinition     DiagCategory = "redefinition"
	DiagUnresolvedRel    DiagCategory = "unresolved-relative"
	DiagJumpOutOfRange   DiagCategory = "jump-out-of-range"
	DiagRelocNonPositive DiagCategory = "reloc-delta-non-positive"
	DiagRelocCollision   DiagCategory = "reloc-collision"
	DiagIPSLimitation    DiagCategory = "ips-limitation"
	DiagUnusedLabel      DiagCategory = "unused-label"
	DiagUse32Widening    DiagCategory = "use32-widening"
)

// A Diagnostic is one error or warning produced while building or
// writing an object. Diagnostics are collected, never thrown: the
// resolver and writers record them and keep going so a single run can
// report every problem.
type Diagnostic struct {
	Category DiagCategory
	Message  string
}

// Diagnostics accumulates Diagnostic values in the order they were
// recorded.
type Diagnostics struct {
	entries []Diagnostic
}

// Add appends a diagnostic with the given category and message.
func (ds *Diagnostics) Add(category DiagCategory, message string) {
	ds.entries = append(ds.entries, Diagnostic{category, message})
}

// Addf appends a diagnostic built with fmt.Sprintf semantics.
func (ds *Diagnostics) Addf(category DiagCategory, format string, args ...any) {
	ds.Add(category, fmt.Sprintf(format, args...))
}

// All returns every diagnostic recorded so far, in recording order.
func (ds *Diagnostics) All() []Diagnostic {
	return ds.entries
}

// CountByCategory returns the number of diagnostics recorded under
// category, satisfying spec.md §7's requirement that a test harness be
// able to count diagnostics by category.
func (ds *Diagnostics) CountByCategory(category DiagCategory) int {
	n := 0
	for _, d := range ds.entries {
		if d.Category == category {
			n++
		}
	}
	return n
}

// Len returns the total number of diagnostics recorded.
func (ds *Diagnostics) Len() int {
	return len(ds.entries)
}

// Reset discards all recorded diagnostics.
func (ds *Diagnostics) Reset() {
	ds.entries = nil
}

// A Warner answers whether diagnostics in a given category should be
// reported as warnings. spec.md §6 names the categories "unused-label"
// and "use32"; callers not interested in warnings may pass nil, which
// Object and the writers treat as "never warn".
type Warner interface {
	MayWarn(category string) bool
}
