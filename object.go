// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snescom

import "strings"

// A Linkage expresses how the linker may place this object's CODE
// segment.
type Linkage struct {
	kind linkageKind
	n    int
}

// LinkageKind identifies which of the three linkage wishes a Linkage
// value carries.
type LinkageKind byte

const (
	LinkageAnywhere LinkageKind = iota
	LinkageInGroup
	LinkageThisPage
)

type linkageKind = LinkageKind

const (
	linkAnywhere = LinkageAnywhere
	linkInGroup  = LinkageInGroup
	linkThisPage = LinkageThisPage
)

// LinkAnywhere places no constraint on linkage.
func LinkAnywhere() Linkage { return Linkage{kind: linkAnywhere} }

// LinkInGroup requires the object to be linked into group n.
func LinkInGroup(n int) Linkage { return Linkage{kind: linkInGroup, n: n} }

// LinkThisPage requires the object to be linked within page n.
func LinkThisPage(n int) Linkage { return Linkage{kind: linkThisPage, n: n} }

// Kind reports which linkage wish l carries.
func (l Linkage) Kind() LinkageKind { return l.kind }

// N returns the group or page number for LinkInGroup/LinkThisPage
// linkage; it is meaningless for LinkAnywhere.
func (l Linkage) N() int { return l.n }

// Object owns the four segments of a translation unit plus the shared
// front-end state: the currently-selected segment, the current scope
// depth, and the requested linkage.
type Object struct {
	segs       [4]*Segment // indexed by SegmentID
	CurSegment SegmentID
	CurScope   int
	Linkage    Linkage

	Warn  Warner
	Diags Diagnostics

	closed bool
}

// New creates an empty Object with CurSegment == CODE and CurScope == 0.
func New(warn Warner) *Object {
	o := &Object{Warn: warn}
	o.init()
	return o
}

func (o *Object) init() {
	for _, id := range segmentOrder {
		o.segs[id] = newSegment(id)
	}
	o.CurSegment = CODE
	o.CurScope = 0
	o.Linkage = LinkAnywhere()
	o.closed = false
}

// ClearMost resets the Object to a freshly-constructed state (new
// segments, scope 0, CODE segment) without reallocating the Object
// itself. Diagnostics accumulated so far are left in place for the
// caller to read before the next pass, matching the original driver's
// multi-pass contract: ClearMost does not implicitly discard them.
func (o *Object) ClearMost() {
	o.init()
}

// Segment returns the segment identified by id.
func (o *Object) Segment(id SegmentID) *Segment {
	return o.segs[id]
}

// Cur returns the currently-selected segment.
func (o *Object) Cur() *Segment {
	return o.segs[o.CurSegment]
}

// SetLinkage records the requested linkage wish.
func (o *Object) SetLinkage(l Linkage) {
	o.Linkage = l
}

// GenerateByte writes b to the current segment at its Position.
func (o *Object) GenerateByte(b byte) {
	o.Cur().AddByte(b)
}

// GetPos returns the current segment's Position.
func (o *Object) GetPos() int {
	return o.Cur().GetPos()
}

// SetPos moves the current segment's Position cursor.
func (o *Object) SetPos(addr int) {
	o.Cur().SetPos(addr)
}

// AddExtern records a pending external reference in the current segment
// at the current scope level.
func (o *Object) AddExtern(kind RelocKind, name string, value int) {
	o.Cur().AddExtern(kind, name, value, o.CurScope)
}

// FindLabel searches the four segments, in the fixed order CODE, DATA,
// ZERO, BSS, for name at any scope level, returning the first match and
// the segment it was found in. It does not mark the label used.
func (o *Object) FindLabel(name string) (seg SegmentID, offset int, ok bool) {
	for _, id := range segmentOrder {
		if off, _, found := o.segs[id].FindLabelAnyLevel(name); found {
			return id, off, true
		}
	}
	return 0, 0, false
}

// existsAnywhere reports whether name is defined in any segment at any
// scope level, used to enforce global redefinition errors.
func (o *Object) existsAnywhere(name string) bool {
	for _, id := range segmentOrder {
		if o.segs[id].Exists(name) {
			return true
		}
	}
	return false
}

// DefineLabel defines name in the current segment, applying the
// sigil language described in spec.md §4.3:
//
//	+name   global label; scope forced to 0
//	&&name  climb scopes, one level per leading '&' (never below 0)
//	name    defined at CurScope-1
//
// Redefinition of a name that already exists anywhere (any segment, any
// level) is reported as a diagnostic and the definition is dropped.
func (o *Object) DefineLabel(name string, value ...int) {
	var level int

	switch {
	case strings.HasPrefix(name, "+"):
		name = name[1:]
		level = 0

	case strings.HasPrefix(name, "&"):
		// Each '&' climbs one scope starting from CurScope itself,
		// not from the CurScope-1 baseline a plain label gets: a
		// single '&' therefore lands in the same scope a plain label
		// would (CurScope-1), and each additional '&' climbs one
		// level further.
		level = o.CurScope
		for strings.HasPrefix(name, "&") {
			name = name[1:]
			level--
			if level < 0 {
				level = 0
			}
		}

	default:
		level = o.CurScope - 1
		if level < 0 {
			level = 0
		}
	}

	if o.existsAnywhere(name) {
		o.Diags.Addf(DiagRedefinition, "redefinition of label %q", name)
		return
	}
	o.Cur().DefineLabel(level, name, value...)
}

// UndefineLabel removes name from the current segment's label map at
// every level.
func (o *Object) UndefineLabel(name string) {
	o.Cur().UndefineLabel(name)
}

// StartScope increments the scope depth.
func (o *Object) StartScope() {
	o.CurScope++
}

// EndScope runs CheckExterns on every segment at the closing scope
// level, then clears the level that just ended (but only once CurScope
// has risen past 1 — see DESIGN.md's discussion of this ambiguous but
// preserved teacher behavior), then decrements CurScope. Labels at
// level 0 are always preserved so the file writers can export them.
func (o *Object) EndScope() {
	closing := o.CurScope
	for _, id := range segmentOrder {
		checkExterns(o.segs[id], o, closing)
	}
	if o.CurScope > 1 {
		warnUnused := o.Warn != nil && o.Warn.MayWarn("unused-label")
		for _, id := range segmentOrder {
			o.segs[id].ClearLabels(o.CurScope-1, warnUnused, &o.Diags)
		}
	}
	o.CurScope--
}

// CloseSegments applies remaining externs as unresolved relocations and
// all fixups as internal patches, across all four segments. reprocessed
// communicates whether this is a final reassembly pass, which relaxes
// the REL8 short-jump range check (see spec.md §4.5).
func (o *Object) CloseSegments(reprocessed bool) {
	if o.closed {
		return
	}
	for _, id := range segmentOrder {
		closeSegment(o.segs[id], reprocessed, &o.Diags)
	}
	o.closed = true
}
