// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snescom

import (
	"fmt"
	"io"
	"sort"
)

// Dump writes a deterministic, line-oriented listing of every surviving
// label across all four segments to w, in segment order CODE, DATA,
// ZERO, BSS, plus (once CloseSegments has run) the unresolved externs
// and resolved fixups recorded in each segment's relocation table. It
// is a read-only inspection aid for a driver's "dump" command and never
// mutates the Object.
func (o *Object) Dump(w io.Writer) {
	for _, id := range segmentOrder {
		o.segs[id].dumpLabels(w)
	}
	for _, id := range segmentOrder {
		o.segs[id].dumpExterns(w)
	}
	for _, id := range segmentOrder {
		o.segs[id].dumpFixups(w)
	}
}

func (s *Segment) dumpLabels(w io.Writer) {
	labels := s.Labels()
	if len(labels) == 0 {
		return
	}
	fmt.Fprintf(w, "Labels in the %s segment:\n", s.ID)
	for _, l := range labels {
		fmt.Fprintf(w, " %04X %s%s\n", l.Offset, scopeMarker(l.Level), l.Name)
	}
}

// dumpExterns and dumpFixups read from s.Relocs rather than the
// pre-close s.externs/s.fixups work queues: CloseSegments clears both
// queues once it has folded their surviving entries into s.Relocs, so
// by the time a caller can observe a closed object, the queues are
// always empty.

func (s *Segment) dumpExterns(w io.Writer) {
	var externs []Reloc
	for _, r := range s.Relocs.All() {
		if !r.IsFixup {
			externs = append(externs, r)
		}
	}
	if len(externs) == 0 {
		return
	}
	fmt.Fprintf(w, "Externs in the %s segment:\n", s.ID)
	sort.SliceStable(externs, func(i, j int) bool { return externs[i].Addr < externs[j].Addr })
	for _, e := range externs {
		if e.Value != 0 {
			fmt.Fprintf(w, " %04X %s %s%+d\n", e.Addr, e.Kind, e.Name, e.Value)
		} else {
			fmt.Fprintf(w, " %04X %s %s\n", e.Addr, e.Kind, e.Name)
		}
	}
}

func (s *Segment) dumpFixups(w io.Writer) {
	var fixups []Reloc
	for _, r := range s.Relocs.All() {
		if r.IsFixup {
			fixups = append(fixups, r)
		}
	}
	if len(fixups) == 0 {
		return
	}
	fmt.Fprintf(w, "Fixups in the %s segment:\n", s.ID)
	sort.SliceStable(fixups, func(i, j int) bool { return fixups[i].Addr < fixups[j].Addr })
	for _, f := range fixups {
		if f.Value != 0 {
			fmt.Fprintf(w, " %04X %s fixup%+d to %s:%04X\n", f.Addr, f.Kind, f.Value, f.TargetSeg, f.TargetOffset)
		} else {
			fmt.Fprintf(w, " %04X %s fixup to %s:%04X\n", f.Addr, f.Kind, f.TargetSeg, f.TargetOffset)
		}
	}
}

func scopeMarker(level int) string {
	s := ""
	for i := 0; i < level; i++ {
		s += "+"
	}
	return s
}
