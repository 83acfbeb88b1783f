// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snescom

import "testing"

func TestRelocTableAddAndList(t *testing.T) {
	var rt RelocTable
	rt.Add(Reloc{Addr: 10, Kind: LoByte, Name: "a"})
	rt.Add(Reloc{Addr: 20, Kind: LoByte, Name: "b"})
	rt.Add(Reloc{Addr: 5, Kind: Long, Name: "c"})

	lo := rt.List(LoByte)
	if len(lo) != 2 || lo[0].Name != "a" || lo[1].Name != "b" {
		t.Errorf("List(LoByte) = %+v", lo)
	}
	long := rt.List(Long)
	if len(long) != 1 || long[0].Name != "c" {
		t.Errorf("List(Long) = %+v", long)
	}
	if rt.Len() != 3 {
		t.Errorf("Len() = %d, want 3", rt.Len())
	}
}

func TestRelocKindPatchWidth(t *testing.T) {
	cases := []struct {
		k RelocKind
		w int
	}{
		{LoByte, 1}, {HiByte, 1}, {SegByte, 1},
		{AbsWord, 2}, {Rel16, 2},
		{Long, 3}, {Rel8, 1},
	}
	for _, c := range cases {
		if got := c.k.PatchWidth(); got != c.w {
			t.Errorf("%v.PatchWidth() = %d, want %d", c.k, got, c.w)
		}
	}
}

func TestRelocKindRelocatable(t *testing.T) {
	if !LoByte.Relocatable() {
		t.Error("LoByte should be relocatable")
	}
	if Rel8.Relocatable() || Rel16.Relocatable() {
		t.Error("REL8/REL16 must never be relocatable")
	}
}

func TestRelocTableAddRel8Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic adding REL8 to a RelocTable")
		}
	}()
	var rt RelocTable
	rt.Add(Reloc{Kind: Rel8})
}
