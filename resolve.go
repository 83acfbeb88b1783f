// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snescom

// checkExterns resolves pending externs of seg against labels visible
// in obj, for every extern recorded at scope level >= closingScope (the
// scope that is now ending, or deeper). It is a free function rather
// than a Segment method, per spec.md §9's design note, so that Segment
// never needs a back-pointer to its owning Object.
func checkExterns(seg *Segment, obj *Object, closingScope int) {
	var survivors []Extern
	for _, ext := range seg.externs {
		if ext.Scope < closingScope {
			survivors = append(survivors, ext)
			continue
		}

		targetSeg, targetOffset, ok := resolveAcrossScopes(obj, ext.Name, closingScope)
		if !ok {
			survivors = append(survivors, ext)
			continue
		}

		seg.fixups = append(seg.fixups, Fixup{
			Addr:         ext.Addr,
			Kind:         ext.Kind,
			Value:        ext.Value,
			TargetSeg:    targetSeg,
			TargetOffset: targetOffset,
		})
	}
	seg.externs = survivors
}

// resolveAcrossScopes searches, for scope = closingScope-1 down to 0,
// every segment of obj in fixed order (CODE, DATA, ZERO, BSS) for name.
// The first hit wins and is marked used.
func resolveAcrossScopes(obj *Object, name string, closingScope int) (seg SegmentID, offset int, ok bool) {
	for level := closingScope - 1; level >= 0; level-- {
		for _, id := range segmentOrder {
			s := obj.segs[id]
			if m, exists := s.labels[level]; exists {
				if l, found := m[name]; found {
					l.used = true
					return id, l.offset, true
				}
			}
		}
	}
	return 0, 0, false
}

// closeSegment applies remaining externs as unresolved relocations and
// all fixups as internal patches, registering entries in seg.Relocs and
// patching seg.Data. reprocessed loosens the REL8 short-jump range
// check on a final reassembly pass.
func closeSegment(seg *Segment, reprocessed bool, diags *Diagnostics) {
	for _, ext := range seg.externs {
		switch ext.Kind {
		case Rel8, Rel16:
			diags.Addf(DiagUnresolvedRel, "unresolved short/near relative %q in segment %s", ext.Name, seg.ID)
			continue
		}
		patchBytes(seg, ext.Addr, ext.Kind, ext.Value)
		seg.Relocs.Add(Reloc{
			Addr:  ext.Addr,
			Kind:  ext.Kind,
			Value: ext.Value,
			Name:  ext.Name,
		})
	}
	seg.externs = nil

	for _, fx := range seg.fixups {
		value := fx.Value + fx.TargetOffset

		switch fx.Kind {
		case Rel8:
			diff := value - (fx.Addr + 1)
			threshold := 20
			if reprocessed {
				threshold = 0
			}
			if diff < -128+threshold || diff >= 128-threshold {
				diags.Addf(DiagJumpOutOfRange, "short jump out of range (%d)", diff)
			}
			seg.Data.WriteByte(fx.Addr, byte(diff))
			continue

		case Rel16:
			diff := value - (fx.Addr + 2)
			if diff < -32768 || diff >= 32768 {
				diags.Addf(DiagJumpOutOfRange, "near jump out of range (%d)", diff)
			}
			seg.Data.WriteByte(fx.Addr, byte(diff))
			seg.Data.WriteByte(fx.Addr+1, byte(diff>>8))
			continue
		}

		patchBytes(seg, fx.Addr, fx.Kind, value)
		seg.Relocs.Add(Reloc{
			Addr:         fx.Addr,
			Kind:         fx.Kind,
			Value:        value,
			TargetSeg:    fx.TargetSeg,
			TargetOffset: fx.TargetOffset,
			IsFixup:      true,
		})
	}
	seg.fixups = nil
}

// patchBytes writes value, masked per kind, starting at addr.
func patchBytes(seg *Segment, addr int, kind RelocKind, value int) {
	switch kind {
	case LoByte:
		seg.Data.WriteByte(addr, byte(value&0xFF))
	case HiByte:
		seg.Data.WriteByte(addr, byte((value>>8)&0xFF))
	case AbsWord:
		seg.Data.WriteByte(addr, byte(value&0xFF))
		seg.Data.WriteByte(addr+1, byte((value>>8)&0xFF))
	case Long:
		seg.Data.WriteByte(addr, byte(value&0xFF))
		seg.Data.WriteByte(addr+1, byte((value>>8)&0xFF))
		seg.Data.WriteByte(addr+2, byte((value>>16)&0xFF))
	case SegByte:
		seg.Data.WriteByte(addr, byte((value>>16)&0xFF))
	}
}
