// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snescom

import (
	"strings"
	"testing"
)

func TestDumpListsLabelsExternsAndFixups(t *testing.T) {
	o := New(nil)
	o.DefineLabel("main")
	o.StartScope()
	o.AddExtern(AbsWord, "L", 0)
	o.GenerateByte(0)
	o.GenerateByte(0)
	o.DefineLabel("L")
	o.EndScope()
	o.CloseSegments(false)

	var sb strings.Builder
	o.Dump(&sb)
	out := sb.String()

	if !strings.Contains(out, "Labels in the CODE segment:") {
		t.Errorf("missing label section: %q", out)
	}
	if !strings.Contains(out, "main") {
		t.Errorf("missing label name: %q", out)
	}
	if !strings.Contains(out, "Fixups in the CODE segment:") {
		t.Errorf("missing fixup section: %q", out)
	}
}

func TestDumpOmitsEmptySections(t *testing.T) {
	o := New(nil)
	var sb strings.Builder
	o.Dump(&sb)
	if sb.Len() != 0 {
		t.Errorf("expected no output for an empty object, got %q", sb.String())
	}
}

func TestDumpDoesNotMutateObject(t *testing.T) {
	o := New(nil)
	o.AddExtern(Long, "ext", 0)
	o.GenerateByte(0)

	var sb strings.Builder
	o.Dump(&sb)

	if _, _, ok := o.FindLabel("ext"); ok {
		t.Errorf("Dump should not have defined anything")
	}
	if len(o.Segment(CODE).externs) != 1 {
		t.Errorf("Dump should not have consumed the pending extern")
	}
}
