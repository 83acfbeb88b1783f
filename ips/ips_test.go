// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ips

import (
	"bytes"
	"testing"

	"github.com/beevik/snescom"
)

// TestWriteS5PayloadWithHole exercises spec.md's S5.
func TestWriteS5PayloadWithHole(t *testing.T) {
	o := snescom.New(nil)
	o.SetPos(0x100)
	o.GenerateByte(0x42)
	o.SetPos(0x200)
	o.GenerateByte(0x43)
	o.CloseSegments(false)

	var buf bytes.Buffer
	if err := Write(&buf, o, nil); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()

	if !bytes.HasPrefix(data, []byte("PATCH")) {
		t.Fatalf("missing PATCH header: %v", data[:5])
	}
	if !bytes.HasSuffix(data, []byte("EOF")) {
		t.Fatalf("missing EOF trailer")
	}

	first := record(0x100, []byte{0x42})
	second := record(0x200, []byte{0x43})
	if !bytes.Contains(data, first) {
		t.Errorf("missing payload record at 0x100: want %v in %v", first, data)
	}
	if !bytes.Contains(data, second) {
		t.Errorf("missing payload record at 0x200: want %v in %v", second, data)
	}
}

// TestPayloadAddressNeverCollidesSilently exercises testable property 6:
// a payload that would land on a reserved pseudo-address is diagnosed,
// not silently emitted.
func TestPayloadAddressNeverCollidesSilently(t *testing.T) {
	o := snescom.New(nil)
	o.SetPos(addrGlobal)
	o.GenerateByte(0x99)
	o.CloseSegments(false)

	var buf bytes.Buffer
	if err := Write(&buf, o, nil); err != nil {
		t.Fatal(err)
	}

	if o.Diags.CountByCategory(snescom.DiagIPSLimitation) == 0 {
		t.Errorf("expected a DiagIPSLimitation for payload colliding with addrGlobal")
	}
	if bytes.Contains(buf.Bytes(), record(addrGlobal&0x3FFFFF, []byte{0x99})) {
		t.Errorf("colliding payload should not have been emitted")
	}
}

// TestHiByteExternUnsupportedInIPS exercises the IPS kind limitation
// error for HIBYTE externs, which carry an extra value IPS has no room
// to express.
func TestHiByteExternUnsupportedInIPS(t *testing.T) {
	o := snescom.New(nil)
	o.AddExtern(snescom.HiByte, "ext", 0)
	o.GenerateByte(0)
	o.CloseSegments(false)

	var buf bytes.Buffer
	if err := Write(&buf, o, nil); err != nil {
		t.Fatal(err)
	}

	if o.Diags.CountByCategory(snescom.DiagIPSLimitation) == 0 {
		t.Errorf("expected a DiagIPSLimitation for unsupported HIBYTE extern")
	}
	if bytes.Contains(buf.Bytes(), []byte("ext\x00")) {
		t.Errorf("unsupported extern should not have been emitted")
	}
}

// TestLabelRecordAddressNotMasked verifies that the pseudo-address a
// label/extern record is written at is the literal reserved constant,
// not masked the way a payload address would be.
func TestLabelRecordAddressNotMasked(t *testing.T) {
	o := snescom.New(nil)
	o.DefineLabel("start")
	o.CloseSegments(false)

	var buf bytes.Buffer
	if err := Write(&buf, o, nil); err != nil {
		t.Fatal(err)
	}

	want := be24(addrGlobal)
	if !bytes.Contains(buf.Bytes(), want) {
		t.Errorf("expected unmasked addrGlobal record address %v in output", want)
	}
}

// TestAddr24IsLittleEndian verifies the embedded offset inside a
// label/extern payload is addr_lo addr_mid (addr_hi & 0x3F), the
// opposite byte order from a record's own big-endian header address.
func TestAddr24IsLittleEndian(t *testing.T) {
	got := addr24(0x123456)
	want := []byte{0x56, 0x34, 0x12 & 0x3F}
	if !bytes.Equal(got, want) {
		t.Errorf("addr24(0x123456) = %v, want %v", got, want)
	}
}

// TestLabelRecordPayloadAddressOrder verifies emitLabels embeds the
// label's offset in addr_lo addr_mid addr_hi order within the record
// payload, not the record header's big-endian order.
func TestLabelRecordPayloadAddressOrder(t *testing.T) {
	o := snescom.New(nil)
	o.SetPos(0x010203)
	o.DefineLabel("start")
	o.CloseSegments(false)

	var buf bytes.Buffer
	if err := Write(&buf, o, nil); err != nil {
		t.Fatal(err)
	}

	payload := append(cstring("start"), addr24(0x010203)...)
	want := record(addrGlobal, payload)
	if !bytes.Contains(buf.Bytes(), want) {
		t.Errorf("expected label record with little-endian offset %v in output", want)
	}
}

// TestExternRecordPayloadAddressOrder is the same check for emitExterns.
func TestExternRecordPayloadAddressOrder(t *testing.T) {
	o := snescom.New(nil)
	o.SetPos(0x030201)
	o.AddExtern(snescom.AbsWord, "ext", 0)
	o.GenerateByte(0)
	o.GenerateByte(0)
	o.CloseSegments(false)

	var buf bytes.Buffer
	if err := Write(&buf, o, nil); err != nil {
		t.Fatal(err)
	}

	payload := append(cstring("ext"), addr24(0x030201)...)
	payload = append(payload, 2)
	want := record(addrExtern, payload)
	if !bytes.Contains(buf.Bytes(), want) {
		t.Errorf("expected extern record with little-endian offset %v in output", want)
	}
}

// TestLinkageOtherThanAnywhereWarns exercises the IPS linkage-ignored
// diagnostic.
func TestLinkageOtherThanAnywhereWarns(t *testing.T) {
	o := snescom.New(nil)
	o.SetLinkage(snescom.LinkInGroup(3))
	o.CloseSegments(false)

	var buf bytes.Buffer
	if err := Write(&buf, o, nil); err != nil {
		t.Fatal(err)
	}
	if o.Diags.CountByCategory(snescom.DiagIPSLimitation) == 0 {
		t.Errorf("expected a DiagIPSLimitation for non-anywhere linkage in IPS output")
	}
}
