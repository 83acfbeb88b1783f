// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ips serializes a snescom object to an IPS patch carrying the
// DarkForce label/extern extension: ordinary IPS records plus
// vendor-specific records at reserved pseudo-addresses that carry a
// segment's exported labels and unresolved externs for the linker.
package ips

import (
	"io"

	"github.com/beevik/snescom"
)

// Reserved pseudo-addresses: the ASCII bytes of "EOF"/"EOE" read as
// 24-bit big-endian integers. They cannot appear as real IPS patch
// addresses in a well-formed patch, which is why DarkForce's extension
// chose them to carry label/extern metadata instead of payload bytes.
const (
	addrGlobal = 0x454F46 // "EOF"
	addrExtern = 0x454F45 // "EOE"
	eofMarker  = 0x454F46 // literal trailing "EOF" record
)

const maxChunk = 20000

// segmentOrder is IPS's segment emission order: BSS before ZERO,
// opposite to O65's CODE/DATA/ZERO/BSS order (spec.md §4.9).
var segmentOrder = [4]snescom.SegmentID{snescom.CODE, snescom.DATA, snescom.BSS, snescom.ZERO}

// Write serializes obj to w as an IPS patch. A Linkage other than
// LinkAnywhere produces a warning diagnostic and is otherwise ignored,
// since IPS patches carry no linkage metadata.
func Write(w io.Writer, obj *snescom.Object, warn snescom.Warner) error {
	if obj.Linkage.Kind() != snescom.LinkageAnywhere {
		obj.Diags.Add(snescom.DiagIPSLimitation, "IPS format carries no linkage metadata; linkage wish ignored")
	}

	var out []byte
	out = append(out, "PATCH"...)

	for _, id := range segmentOrder {
		out = append(out, emitSegment(obj.Segment(id), &obj.Diags)...)
	}

	out = append(out, "EOF"...)

	_, err := w.Write(out)
	return err
}

func emitSegment(seg *snescom.Segment, diags *snescom.Diagnostics) []byte {
	var out []byte
	out = append(out, emitLabels(seg)...)
	out = append(out, emitExterns(seg, diags)...)
	out = append(out, emitPayload(seg, diags)...)
	return out
}

// emitLabels writes one patch per surviving label at addrGlobal,
// carrying name\0 addr_lo addr_mid (addr_hi & 0x3F).
func emitLabels(seg *snescom.Segment) []byte {
	var out []byte
	for _, l := range seg.Labels() {
		payload := append(cstring(l.Name), addr24(l.Offset)...)
		out = append(out, record(addrGlobal, payload)...)
	}
	return out
}

// emitExterns writes one patch per unresolved extern at addrExtern,
// carrying name\0 addr_lo addr_mid (addr_hi & 0x3F) size. HIBYTE and
// SEGBYTE externs cannot be expressed (no room for their extra value)
// and are reported as errors instead of emitted.
func emitExterns(seg *snescom.Segment, diags *snescom.Diagnostics) []byte {
	var out []byte
	for _, kind := range []snescom.RelocKind{snescom.LoByte, snescom.HiByte, snescom.AbsWord, snescom.Long, snescom.SegByte} {
		for _, r := range seg.Relocs.List(kind) {
			if r.IsFixup {
				continue
			}
			size, ok := externSize(r.Kind)
			if !ok {
				diags.Addf(snescom.DiagIPSLimitation, "extern %q: relocation kind %v unsupported in IPS format", r.Name, r.Kind)
				continue
			}
			payload := append(cstring(r.Name), addr24(r.Addr)...)
			payload = append(payload, size)
			out = append(out, record(addrExtern, payload)...)
		}
	}
	return out
}

func externSize(k snescom.RelocKind) (byte, bool) {
	switch k {
	case snescom.LoByte:
		return 1, true
	case snescom.AbsWord:
		return 2, true
	case snescom.Long:
		return 3, true
	default:
		return 0, false
	}
}

// emitPayload walks the segment's populated byte ranges, splitting each
// into chunks no larger than maxChunk, and writes a standard IPS record
// per chunk.
func emitPayload(seg *snescom.Segment, diags *snescom.Diagnostics) []byte {
	var out []byte
	addr, length := seg.Data.FindNextBlob(0)
	for length > 0 {
		for length > 0 {
			n := length
			if n > maxChunk {
				n = maxChunk
			}
			if collides(addr) {
				diags.Addf(snescom.DiagIPSLimitation, "payload address %#x collides with a reserved IPS pseudo-address", addr)
			} else if addr > 0xFFFFFF {
				diags.Addf(snescom.DiagIPSLimitation, "payload address %#x exceeds 0xFFFFFF", addr)
			} else {
				chunk := seg.Data.GetContentRange(addr, n)
				out = append(out, record(addr&0x3FFFFF, chunk)...)
			}
			addr += n
			length -= n
		}
		addr, length = seg.Data.FindNextBlob(addr)
	}
	return out
}

func collides(addr int) bool {
	return addr == eofMarker || addr == addrExtern || addr == addrGlobal
}

// record emits one standard IPS record: a 24-bit BE address, a 16-bit
// BE length, and the payload bytes. addr is written verbatim — callers
// writing a real payload address must mask it themselves; the pseudo-
// addresses used for label/extern records must NOT be masked, since a
// masked value would no longer match the reserved constant a DarkForce
// reader scans for.
func record(addr int, payload []byte) []byte {
	out := be24(addr)
	out = append(out, byte(len(payload)>>8), byte(len(payload)))
	out = append(out, payload...)
	return out
}

func be24(addr int) []byte {
	return []byte{byte(addr >> 16), byte(addr >> 8), byte(addr)}
}

// addr24 encodes a label/extern offset as addr_lo addr_mid (addr_hi &
// 0x3F), per spec.md §4.9 — the 6-bit mask on the high byte is exactly
// what masking a 24-bit value by 0x3FFFFF produces. Unlike be24, this
// is little-endian: low byte first.
func addr24(addr int) []byte {
	masked := addr & 0x3FFFFF
	return []byte{byte(masked), byte(masked >> 8), byte(masked >> 16)}
}

func cstring(s string) []byte {
	return append([]byte(s), 0)
}
