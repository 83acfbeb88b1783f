// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package driver

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/beevik/snescom"
)

func run(t *testing.T, script string) (*Driver, string) {
	t.Helper()
	d := New(nil)
	var out bytes.Buffer
	d.RunCommands(strings.NewReader(script), &out, false)
	return d, out.String()
}

func TestByteAppendsToCurrentSegment(t *testing.T) {
	d, _ := run(t, "byte 1 2 $ff\n")
	if got := d.Obj.Segment(snescom.CODE).Data.Size(); got != 3 {
		t.Errorf("expected 3 bytes, got %d", got)
	}
}

func TestLabelDefinesAtCurrentPosition(t *testing.T) {
	d, _ := run(t, "byte 0 0\nlabel foo\n")
	_, offset, ok := d.Obj.FindLabel("foo")
	if !ok || offset != 2 {
		t.Errorf("expected foo at offset 2, got %d ok=%v", offset, ok)
	}
}

func TestExternRecordsPendingReference(t *testing.T) {
	d, _ := run(t, "extern absword L\n")
	d.Obj.CloseSegments(false)
	var sb strings.Builder
	d.Obj.Dump(&sb)
	if !strings.Contains(sb.String(), "Externs in the CODE segment:") {
		t.Errorf("expected one unresolved extern, dump was %q", sb.String())
	}
}

func TestScopeStartEndResolvesExtern(t *testing.T) {
	_, out := run(t, "scope start\nextern absword L\nbyte 0 0\nlabel L\nscope end\n")
	if strings.Contains(out, "error") {
		t.Errorf("unexpected error output: %q", out)
	}
}

func TestSegmentSwitchesCurSegment(t *testing.T) {
	d, _ := run(t, "segment data\nbyte 9\n")
	if d.Obj.Segment(snescom.DATA).Data.Size() != 1 {
		t.Errorf("expected byte written to DATA segment")
	}
}

func TestOrgMovesPosition(t *testing.T) {
	d, _ := run(t, "org $8000\nbyte 1\n")
	if d.Obj.Segment(snescom.CODE).Data.Size() == 0 {
		t.Errorf("expected data at the new origin")
	}
}

func TestLinkageGroupSetsWish(t *testing.T) {
	d, _ := run(t, "linkage group 3\n")
	if d.Obj.Linkage.Kind() != snescom.LinkageInGroup || d.Obj.Linkage.N() != 3 {
		t.Errorf("expected group linkage 3, got %v/%d", d.Obj.Linkage.Kind(), d.Obj.Linkage.N())
	}
}

func TestUnknownCommandReportsNotFound(t *testing.T) {
	_, out := run(t, "boguscommand\n")
	if !strings.Contains(out, "not found") {
		t.Errorf("expected not-found message, got %q", out)
	}
}

func TestSetAndQueryWarnSetting(t *testing.T) {
	d, _ := run(t, "set use32 true\n")
	if !d.Settings.MayWarn("use32") {
		t.Errorf("expected use32 to be enabled")
	}
}

func TestQuitStopsProcessing(t *testing.T) {
	_, out := run(t, "byte 1\nquit\nbyte 2\n")
	if strings.Contains(out, "error") {
		t.Errorf("unexpected error output: %q", out)
	}
}

func TestWriteO65ToQuotedFilenameWithSpaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "my object.o65")
	script := fmt.Sprintf("byte 1 2 3\nwrite o65 \"%s\"\n", path)
	_, out := run(t, script)
	if strings.Contains(out, "error") {
		t.Fatalf("unexpected error output: %q", out)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file at %q, got %v", path, err)
	}
}

func TestExecuteRunsNestedScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested.scr")
	if err := os.WriteFile(path, []byte("byte 7\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	script := fmt.Sprintf("execute %s\n", path)
	d, out := run(t, script)
	if strings.Contains(out, "error") {
		t.Fatalf("unexpected error output: %q", out)
	}
	if d.Obj.Segment(snescom.CODE).Data.Size() != 1 {
		t.Errorf("expected the nested script's byte to land in the parent's Object")
	}
}
