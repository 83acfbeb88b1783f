// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package o65 serializes a snescom object to the O65 relocatable object
// format: an 8-byte header, a 16- or 32-bit segment geometry table,
// code/data content, an undefined-symbol table, delta-encoded
// relocation streams, and exported-label tables.
package o65

import (
	"io"
	"sort"

	"github.com/beevik/snescom"
)

var magic = []byte{0x01, 0x00, 0x6F, 0x36, 0x35, 0x00}

const (
	hdrTypeLinkage = 10
	hdrTypeVersion = 2

	subtypeInGroup  = 1
	subtypeThisPage = 2
)

// Write serializes obj to w in O65 format. warn may be nil, in which
// case the use32 informational warning is never emitted but widening
// still occurs silently when required.
func Write(w io.Writer, obj *snescom.Object, warn snescom.Warner) error {
	enc := &encoder{obj: obj, warn: warn}
	enc.buildSymbolTable()
	enc.chooseWidth()

	var out []byte
	out = append(out, magic...)
	out = append(out, le16(enc.modeWord())...)
	out = append(out, enc.geometry()...)
	out = append(out, enc.customHeaders()...)
	out = append(out, 0) // terminate custom header list

	out = append(out, obj.Segment(snescom.CODE).Data.GetContent()...)
	out = append(out, obj.Segment(snescom.DATA).Data.GetContent()...)

	out = append(out, enc.width(len(enc.externs))...)
	for _, name := range enc.externs {
		out = append(out, cstring(name)...)
	}

	out = append(out, enc.relocStream(obj.Segment(snescom.CODE))...)
	out = append(out, enc.relocStream(obj.Segment(snescom.DATA))...)

	for _, id := range []snescom.SegmentID{snescom.CODE, snescom.DATA, snescom.ZERO, snescom.BSS} {
		out = append(out, enc.labelTable(obj.Segment(id))...)
	}

	_, err := w.Write(out)
	return err
}

type encoder struct {
	obj     *snescom.Object
	warn    snescom.Warner
	externs []string       // unresolved extern names, first-seen order
	index   map[string]int // name -> symbol table index
	use32   bool
}

// buildSymbolTable collects the union of every unresolved extern name
// across all four segments, in first-seen order, scanning segments in
// fixed order CODE, DATA, ZERO, BSS and each segment's relocation kinds
// in LOBYTE, HIBYTE, ABSWORD, LONG, SEGBYTE order.
func (e *encoder) buildSymbolTable() {
	e.index = make(map[string]int)
	for _, id := range []snescom.SegmentID{snescom.CODE, snescom.DATA, snescom.ZERO, snescom.BSS} {
		seg := e.obj.Segment(id)
		for _, kind := range []snescom.RelocKind{snescom.LoByte, snescom.HiByte, snescom.AbsWord, snescom.Long, snescom.SegByte} {
			for _, r := range seg.Relocs.List(kind) {
				if r.IsFixup {
					continue
				}
				if _, seen := e.index[r.Name]; seen {
					continue
				}
				e.index[r.Name] = len(e.externs)
				e.externs = append(e.externs, r.Name)
			}
		}
	}
}

// chooseWidth decides between 16-bit and 32-bit integer encoding.
func (e *encoder) chooseWidth() {
	wide := func(base, size int) bool {
		return base > 0xFFFF || size > 0xFFFF
	}
	code, data := e.obj.Segment(snescom.CODE), e.obj.Segment(snescom.DATA)
	bss, zero := e.obj.Segment(snescom.BSS), e.obj.Segment(snescom.ZERO)

	e.use32 = wide(code.Data.Base(), code.Data.Size()) ||
		wide(data.Data.Base(), data.Data.Size()) ||
		wide(bss.Data.Base(), bss.Data.Size()) ||
		wide(zero.Data.Base(), zero.Data.Size()) ||
		len(e.externs) > 0xFFFF

	if e.use32 && e.warn != nil && e.warn.MayWarn("use32") {
		e.obj.Diags.Add(snescom.DiagUse32Widening, "object requires 32-bit O65 encoding")
	}
}

func (e *encoder) modeWord() int {
	mode := 0x8000 | 0x1000
	if e.use32 {
		mode |= 0x2000
	}
	return mode
}

func (e *encoder) width(v int) []byte {
	if e.use32 {
		return le32(v)
	}
	return le16(v)
}

func (e *encoder) geometry() []byte {
	var out []byte
	for _, id := range []snescom.SegmentID{snescom.CODE, snescom.DATA, snescom.BSS, snescom.ZERO} {
		seg := e.obj.Segment(id)
		out = append(out, e.width(seg.Data.Base())...)
		out = append(out, e.width(seg.Data.Size())...)
	}
	out = append(out, e.width(0)...) // stack size
	return out
}

func (e *encoder) customHeaders() []byte {
	var out []byte

	switch l := e.obj.Linkage; {
	case l.Kind() == snescom.LinkageInGroup:
		out = append(out, customHeader(hdrTypeLinkage, append([]byte{subtypeInGroup}, le32(l.N())...))...)
	case l.Kind() == snescom.LinkageThisPage:
		out = append(out, customHeader(hdrTypeLinkage, append([]byte{subtypeThisPage}, le32(l.N())...))...)
	}

	out = append(out, customHeader(hdrTypeVersion, cstring("snescom "+snescom.Version))...)
	return out
}

func customHeader(typ byte, payload []byte) []byte {
	out := []byte{byte(2 + len(payload)), typ}
	return append(out, payload...)
}

// relocStream encodes seg's relocation entries per spec.md §4.7: an
// address-keyed, delta-compressed stream terminated by a zero byte.
// Fixups and unresolved externs share the address space. Entries are
// visited kind by kind (LOBYTE, HIBYTE, ABSWORD, LONG, SEGBYTE), each
// kind's list in recording order, and the last one visited at an
// address wins; a replacement that changes kind or fixup/extern status
// is reported as DiagRelocCollision.
func (e *encoder) relocStream(seg *snescom.Segment) []byte {
	byAddr := make(map[int]snescom.Reloc)
	var addrs []int
	for _, kind := range []snescom.RelocKind{snescom.LoByte, snescom.HiByte, snescom.AbsWord, snescom.Long, snescom.SegByte} {
		for _, r := range seg.Relocs.List(kind) {
			if prev, seen := byAddr[r.Addr]; !seen {
				addrs = append(addrs, r.Addr)
			} else if prev.IsFixup != r.IsFixup || prev.Kind != r.Kind {
				e.obj.Diags.Addf(snescom.DiagRelocCollision, "relocation at address %d in segment %s replaced by a later one at the same address", r.Addr, seg.ID)
			}
			byAddr[r.Addr] = r
		}
	}
	sort.Ints(addrs)

	var out []byte
	last := -1
	for _, addr := range addrs {
		r := byAddr[addr]
		delta := addr - last
		if delta <= 0 {
			e.obj.Diags.Add(snescom.DiagRelocNonPositive, "reloc delta non-positive in segment")
			continue
		}
		for delta > 254 {
			out = append(out, 255)
			delta -= 254
		}
		out = append(out, byte(delta))
		out = append(out, e.relocPayload(r)...)
		last = addr
	}
	out = append(out, 0)
	return out
}

func (e *encoder) relocPayload(r snescom.Reloc) []byte {
	segByte := func(base byte) byte { return base | byte(r.TargetSeg) }

	if r.IsFixup {
		switch r.Kind {
		case snescom.LoByte:
			return []byte{segByte(0x20)}
		case snescom.AbsWord:
			return []byte{segByte(0x80)}
		case snescom.Long:
			return []byte{segByte(0xC0)}
		case snescom.HiByte:
			return []byte{segByte(0x40), r.ExtraByte()}
		case snescom.SegByte:
			w := r.ExtraWord()
			return []byte{segByte(0xA0), byte(w), byte(w >> 8)}
		}
		return nil
	}

	sym := le16(e.index[r.Name])
	switch r.Kind {
	case snescom.LoByte:
		return append([]byte{0x20}, sym...)
	case snescom.AbsWord:
		return append([]byte{0x80}, sym...)
	case snescom.Long:
		return append([]byte{0xC0}, sym...)
	case snescom.HiByte:
		return append(append([]byte{0x40}, sym...), r.ExtraByte())
	case snescom.SegByte:
		w := r.ExtraWord()
		return append(append([]byte{0xA0}, sym...), byte(w), byte(w>>8))
	}
	return nil
}

// labelTable encodes seg's exported labels per spec.md §4.8.
func (e *encoder) labelTable(seg *snescom.Segment) []byte {
	labels := seg.Labels()
	out := e.width(len(labels))
	for _, l := range labels {
		out = append(out, cstring(l.Name)...)
		out = append(out, byte(seg.ID))
		out = append(out, e.width(l.Offset)...)
	}
	return out
}

func cstring(s string) []byte {
	return append([]byte(s), 0)
}

func le16(v int) []byte {
	return []byte{byte(v), byte(v >> 8)}
}

func le32(v int) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}
