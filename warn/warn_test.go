// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package warn

import (
	"strings"
	"testing"
)

func TestDefaultAllDisabled(t *testing.T) {
	s := New()
	if s.MayWarn("unused-label") || s.MayWarn("use32") {
		t.Errorf("new Settings should start with every category disabled")
	}
}

func TestSetAndMayWarn(t *testing.T) {
	s := New()
	if err := s.Set("UnusedLabel", true); err != nil {
		t.Fatal(err)
	}
	if !s.MayWarn("unused-label") {
		t.Errorf("expected unused-label to be enabled after Set")
	}
	if s.MayWarn("use32") {
		t.Errorf("use32 should remain disabled")
	}
}

func TestSetByAbbreviation(t *testing.T) {
	s := New()
	if err := s.Set("use", true); err != nil {
		t.Fatal(err)
	}
	if !s.MayWarn("use32") {
		t.Errorf("expected abbreviation \"use\" to resolve to Use32")
	}
}

func TestSetUnknownNameErrors(t *testing.T) {
	s := New()
	if err := s.Set("bogus", true); err == nil {
		t.Errorf("expected an error for an unknown setting name")
	}
}

func TestMayWarnUnknownCategoryFalse(t *testing.T) {
	s := New()
	if s.MayWarn("no-such-category") {
		t.Errorf("unrecognized category should never warn")
	}
}

func TestGetRoundTrips(t *testing.T) {
	s := New()
	s.Set("unusedlabel", true)
	v, err := s.Get("unusedlabel")
	if err != nil {
		t.Fatal(err)
	}
	if !v {
		t.Errorf("Get should reflect the value set")
	}
}

func TestDisplayListsEverySetting(t *testing.T) {
	s := New()
	s.Set("use32", true)
	var sb strings.Builder
	s.Display(&sb)
	out := sb.String()
	if !strings.Contains(out, "UnusedLabel") || !strings.Contains(out, "Use32") {
		t.Errorf("Display output missing a setting name: %q", out)
	}
}
