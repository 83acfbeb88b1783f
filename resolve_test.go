// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snescom

import "testing"

// TestRel8ThresholdMonotonicity exercises spec.md's testable property 7:
// for a given distance d, acceptance iff -128 <= d < 128 when
// already_reprocessed, otherwise iff -108 <= d < 108.
func TestRel8ThresholdMonotonicity(t *testing.T) {
	cases := []struct {
		diff         int
		reprocessed  bool
		wantAccepted bool
	}{
		{-128, true, true},
		{127, true, true},
		{-129, true, false},
		{128, true, false},
		{-108, false, true},
		{107, false, true},
		{-109, false, false},
		{108, false, false},
	}

	for _, c := range cases {
		seg := newSegment(CODE)
		// Place the fixup so that value' - (addr+1) == c.diff exactly:
		// addr = 0, value' = c.diff + 1.
		seg.fixups = append(seg.fixups, Fixup{
			Addr:  0,
			Kind:  Rel8,
			Value: c.diff + 1,
		})
		var diags Diagnostics
		closeSegment(seg, c.reprocessed, &diags)

		accepted := diags.CountByCategory(DiagJumpOutOfRange) == 0
		if accepted != c.wantAccepted {
			t.Errorf("diff=%d reprocessed=%v: accepted=%v, want %v",
				c.diff, c.reprocessed, accepted, c.wantAccepted)
		}
	}
}

func TestResolverOnlyConsidersStrictlyEnclosingScopes(t *testing.T) {
	o := New(nil)
	o.StartScope() // CurScope 1
	o.DefineLabel("S", 0x10)
	o.StartScope() // CurScope 2
	o.AddExtern(LoByte, "S", 0)
	o.GenerateByte(0)
	o.EndScope() // closes scope 2; "S" visible at level 0 (strictly enclosing)
	o.EndScope()
	o.CloseSegments(false)

	code := o.Segment(CODE)
	relocs := code.Relocs.List(LoByte)
	if len(relocs) != 1 || !relocs[0].IsFixup || relocs[0].TargetOffset != 0x10 {
		t.Errorf("relocs = %+v, want a fixup targeting offset 0x10", relocs)
	}
}

func TestResolverPatchMaskingPerKind(t *testing.T) {
	o := New(nil)
	o.StartScope()
	o.DefineLabel("T", 0x1234AB)
	o.StartScope()
	o.AddExtern(HiByte, "T", 0)
	o.GenerateByte(0)
	o.EndScope()
	o.EndScope()
	o.CloseSegments(false)

	got := o.Segment(CODE).Data.GetByte(0)
	want := byte((0x1234AB >> 8) & 0xFF)
	if got != want {
		t.Errorf("patched HIBYTE = %#x, want %#x", got, want)
	}
}

func TestCloseSegmentUnresolvedRel8IsError(t *testing.T) {
	seg := newSegment(CODE)
	seg.externs = append(seg.externs, Extern{Addr: 0, Kind: Rel8, Name: "nowhere"})
	var diags Diagnostics
	closeSegment(seg, false, &diags)
	if diags.CountByCategory(DiagUnresolvedRel) != 1 {
		t.Error("unresolved REL8 extern at close should produce a DiagUnresolvedRel")
	}
}
