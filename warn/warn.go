// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package warn implements a settings-backed snescom.Warner: a small
// reflect-driven registry of boolean switches, one per diagnostic
// category that spec.md's warning subsystem names, with an
// abbreviation-tolerant lookup for driver "set" commands.
package warn

import (
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/beevik/prefixtree/v2"
)

// Settings holds every warning category a driver may toggle. Field tags
// name the category string consulted by MayWarn and the setting name a
// driver command abbreviates.
type Settings struct {
	UnusedLabel bool `setting:"unused-label" doc:"warn when a scope ends with a label that was never referenced"`
	Use32       bool `setting:"use32" doc:"warn when an object must widen to 32-bit O65 encoding"`
}

// New returns a Settings with every warning disabled, matching the
// original driver's default of silence until a user opts in.
func New() *Settings {
	return &Settings{}
}

type settingField struct {
	name     string
	category string
	index    int
	doc      string
}

var (
	settingTree   = prefixtree.New[*settingField]()
	settingFields []settingField
	byCategory    = make(map[string]int)
)

func init() {
	t := reflect.TypeOf(Settings{})
	settingFields = make([]settingField, t.NumField())
	for i := range settingFields {
		f := t.Field(i)
		category, _ := f.Tag.Lookup("setting")
		doc, _ := f.Tag.Lookup("doc")
		settingFields[i] = settingField{
			name:     f.Name,
			category: category,
			index:    i,
			doc:      doc,
		}
		settingTree.Add(strings.ToLower(f.Name), &settingFields[i])
		byCategory[category] = i
	}
}

// MayWarn implements snescom.Warner: it reports whether category is
// currently enabled. An unrecognized category never warns.
func (s *Settings) MayWarn(category string) bool {
	i, ok := byCategory[category]
	if !ok {
		return false
	}
	return reflect.ValueOf(s).Elem().Field(i).Bool()
}

// Set assigns value to the setting named by key, which may be any
// unambiguous abbreviation of a field name (e.g. "un" for UnusedLabel;
// "u" alone is ambiguous with Use32).
func (s *Settings) Set(key string, value bool) error {
	f, err := settingTree.FindValue(strings.ToLower(key))
	if err != nil {
		return err
	}
	reflect.ValueOf(s).Elem().Field(f.index).SetBool(value)
	return nil
}

// Get reports the current value of the setting named by key.
func (s *Settings) Get(key string) (bool, error) {
	f, err := settingTree.FindValue(strings.ToLower(key))
	if err != nil {
		return false, err
	}
	return reflect.ValueOf(s).Elem().Field(f.index).Bool(), nil
}

// Display writes every setting and its current value to w, in
// declaration order, for the driver's "set" command given no arguments.
func (s *Settings) Display(w io.Writer) {
	v := reflect.ValueOf(s).Elem()
	for i, f := range settingFields {
		fmt.Fprintf(w, "    %-14s %-5v (%s)\n", f.name, v.Field(i).Bool(), f.doc)
	}
}
