// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snescom

import "sort"

// A SegmentID identifies one of the four fixed segments of an object.
// The ordinal values are stable and used in wire formats.
type SegmentID byte

const (
	CODE SegmentID = iota
	DATA
	ZERO
	BSS
)

func (id SegmentID) String() string {
	switch id {
	case CODE:
		return "CODE"
	case DATA:
		return "DATA"
	case ZERO:
		return "ZERO"
	case BSS:
		return "BSS"
	default:
		return "?"
	}
}

// segmentOrder is the fixed search and serialization order of the four
// segments.
var segmentOrder = [4]SegmentID{CODE, DATA, ZERO, BSS}

// A label is one definition in a Segment's scoped label table.
type label struct {
	offset int
	used   bool
}

// An Extern is a pending symbolic reference awaiting resolution.
type Extern struct {
	Addr  int // patch address within the owning segment
	Kind  RelocKind
	Value int
	Name  string
	Scope int // scope level at which this extern was recorded
}

// A Fixup is a resolved internal reference: a patch address plus the
// segment+offset pair it targets.
type Fixup struct {
	Addr         int
	Kind         RelocKind
	Value        int
	TargetSeg    SegmentID
	TargetOffset int
}

// A Segment bundles a sparse data area, a scoped label map, pending
// externs, resolved fixups, and a relocation table. It tracks a single
// Position cursor used by AddByte.
type Segment struct {
	ID       SegmentID
	Data     DataArea
	Position int

	labels map[int]map[string]*label // level -> name -> label

	externs []Extern
	fixups  []Fixup
	Relocs  RelocTable
}

func newSegment(id SegmentID) *Segment {
	return &Segment{
		ID:     id,
		labels: make(map[int]map[string]*label),
	}
}

// AddByte writes b at the current Position and advances it by one.
func (s *Segment) AddByte(b byte) {
	s.Data.WriteByte(s.Position, b)
	s.Position++
}

// GetPos returns the current Position.
func (s *Segment) GetPos() int {
	return s.Position
}

// SetPos moves the Position cursor. Subsequent AddByte calls overwrite
// from newPos onward.
func (s *Segment) SetPos(newPos int) {
	s.Position = newPos
}

// DefineLabel records name at scope level, defaulting value to the
// current Position. It returns false if name already exists at that
// (segment, level) pair.
func (s *Segment) DefineLabel(level int, name string, value ...int) bool {
	v := s.Position
	if len(value) > 0 {
		v = value[0]
	}
	m, ok := s.labels[level]
	if !ok {
		m = make(map[string]*label)
		s.labels[level] = m
	}
	if _, exists := m[name]; exists {
		return false
	}
	m[name] = &label{offset: v}
	return true
}

// FindLabel looks up name at a single scope level. It does not mark the
// label used — only CheckExterns's resolver marks labels used, per the
// distinction in spec.md's design notes: a visibility check (used by
// redefinition tests) must not count as a reference.
func (s *Segment) FindLabel(level int, name string) (offset int, ok bool) {
	m, exists := s.labels[level]
	if !exists {
		return 0, false
	}
	l, exists := m[name]
	if !exists {
		return 0, false
	}
	return l.offset, true
}

// FindLabelAnyLevel looks up name across every scope level, in
// ascending-level order, returning the first match.
func (s *Segment) FindLabelAnyLevel(name string) (offset, level int, ok bool) {
	levels := make([]int, 0, len(s.labels))
	for lv := range s.labels {
		levels = append(levels, lv)
	}
	sort.Ints(levels)
	for _, lv := range levels {
		if off, found := s.labels[lv][name]; found {
			return off.offset, lv, true
		}
	}
	return 0, 0, false
}

// Exists reports whether name is defined at any scope level in this
// segment, without marking it used.
func (s *Segment) Exists(name string) bool {
	for _, m := range s.labels {
		if _, ok := m[name]; ok {
			return true
		}
	}
	return false
}

// UndefineLabel removes every occurrence of name across all levels.
func (s *Segment) UndefineLabel(name string) {
	for _, m := range s.labels {
		delete(m, name)
	}
}

// ClearLabels drops all labels at level, reporting the names that were
// never marked used via diags if warnUnused is true.
func (s *Segment) ClearLabels(level int, warnUnused bool, diags *Diagnostics) {
	m, ok := s.labels[level]
	if !ok {
		return
	}
	if warnUnused {
		names := make([]string, 0, len(m))
		for name := range m {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if !m[name].used {
				diags.Addf(DiagUnusedLabel, "unused label %q in segment %s", name, s.ID)
			}
		}
	}
	delete(s.labels, level)
}

// An ExportedLabel is one surviving label definition, as reported by
// Segment.Labels.
type ExportedLabel struct {
	Name   string
	Level  int
	Offset int
}

// Labels returns every surviving label, in ascending level then name
// order, matching the natural iteration order the O65/IPS writers rely
// on.
func (s *Segment) Labels() []ExportedLabel {
	levels := make([]int, 0, len(s.labels))
	for lv := range s.labels {
		levels = append(levels, lv)
	}
	sort.Ints(levels)

	var out []ExportedLabel
	for _, lv := range levels {
		names := make([]string, 0, len(s.labels[lv]))
		for name := range s.labels[lv] {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			out = append(out, ExportedLabel{name, lv, s.labels[lv][name].offset})
		}
	}
	return out
}

// AddExtern records a pending external reference at the current
// Position, tagged with the scope level it was created at.
func (s *Segment) AddExtern(kind RelocKind, name string, value, scope int) {
	s.externs = append(s.externs, Extern{
		Addr:  s.Position,
		Kind:  kind,
		Value: value,
		Name:  name,
		Scope: scope,
	})
}
