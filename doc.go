// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package snescom implements the object module of a 65816 cross-assembler:
// a multi-segment data area, a scoped symbol table, and a two-pass
// reference resolver that turns a stream of code-generation events into
// a finished object. The package does not lex or parse source, does not
// encode CPU instructions, and does not simulate the target machine; it
// accepts already-encoded bytes and symbolic references from a front end
// and resolves them as scopes close.
//
// Serialization to the O65 relocatable object format and to an IPS patch
// with label/extern extensions lives in the o65 and ips subpackages.
package snescom

// Version is embedded in the O65 custom header and reported by tools
// built on this package.
const Version = "1.0"
