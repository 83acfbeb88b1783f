// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snescom

import "sort"

// A run is a maximal span of contiguously-written bytes within a
// DataArea, stored in ascending address order.
type run struct {
	addr int
	data []byte
}

func (r *run) end() int {
	return r.addr + len(r.data)
}

// A DataArea is a sparse mapping from 24-bit address to byte. Writes may
// occur in any order and at any address; base and size are derived from
// the minimum and maximum written addresses.
type DataArea struct {
	runs []run // sorted by addr, non-overlapping, non-adjacent
}

// WriteByte stores b at addr, growing or merging runs as needed.
func (d *DataArea) WriteByte(addr int, b byte) {
	// i is the first run whose end is >= addr; since runs are sorted
	// and non-overlapping, any run able to absorb addr is run i.
	i := sort.Search(len(d.runs), func(i int) bool {
		return d.runs[i].end() >= addr
	})

	switch {
	case i < len(d.runs) && addr >= d.runs[i].addr && addr < d.runs[i].end():
		// Overwrite within an existing run.
		d.runs[i].data[addr-d.runs[i].addr] = b

	case i < len(d.runs) && addr == d.runs[i].end():
		// Extend run i on the right; maybe merge with run i+1.
		d.runs[i].data = append(d.runs[i].data, b)
		d.mergeForward(i)

	case i < len(d.runs) && addr == d.runs[i].addr-1:
		// Extend run i on the left.
		d.runs[i].addr = addr
		d.runs[i].data = append([]byte{b}, d.runs[i].data...)

	default:
		// Insert a brand-new single-byte run at position i.
		nr := run{addr: addr, data: []byte{b}}
		d.runs = append(d.runs, run{})
		copy(d.runs[i+1:], d.runs[i:])
		d.runs[i] = nr
	}
}

// mergeForward merges run i with run i+1 if they are now adjacent or
// overlapping.
func (d *DataArea) mergeForward(i int) {
	for i+1 < len(d.runs) && d.runs[i].end() >= d.runs[i+1].addr {
		next := d.runs[i+1]
		overlap := d.runs[i].end() - next.addr
		if overlap < len(next.data) {
			d.runs[i].data = append(d.runs[i].data, next.data[overlap:]...)
		}
		d.runs = append(d.runs[:i+1], d.runs[i+2:]...)
	}
}

// GetByte returns the byte stored at addr, or 0 if addr was never
// written.
func (d *DataArea) GetByte(addr int) byte {
	r := d.findRun(addr)
	if r == nil {
		return 0
	}
	return r.data[addr-r.addr]
}

func (d *DataArea) findRun(addr int) *run {
	i := sort.Search(len(d.runs), func(i int) bool {
		return d.runs[i].end() > addr
	})
	if i < len(d.runs) && addr >= d.runs[i].addr {
		return &d.runs[i]
	}
	return nil
}

// Base returns the minimum written address, or 0 if nothing was written.
func (d *DataArea) Base() int {
	if len(d.runs) == 0 {
		return 0
	}
	return d.runs[0].addr
}

// Size returns (max written address - Base + 1), or 0 if nothing was
// written.
func (d *DataArea) Size() int {
	if len(d.runs) == 0 {
		return 0
	}
	last := d.runs[len(d.runs)-1]
	return last.end() - d.runs[0].addr
}

// GetContent returns a dense byte vector of length Size, starting at
// Base, with unset bytes filled as 0.
func (d *DataArea) GetContent() []byte {
	return d.GetContentRange(d.Base(), d.Size())
}

// GetContentRange returns a dense byte vector for the window
// [addr, addr+length), with unset bytes filled as 0.
func (d *DataArea) GetContentRange(addr, length int) []byte {
	out := make([]byte, length)
	for _, r := range d.runs {
		if r.end() <= addr || r.addr >= addr+length {
			continue
		}
		lo := r.addr
		if lo < addr {
			lo = addr
		}
		hi := r.end()
		if hi > addr+length {
			hi = addr + length
		}
		copy(out[lo-addr:hi-addr], r.data[lo-r.addr:hi-r.addr])
	}
	return out
}

// FindNextBlob returns the first address >= from at which a run of
// contiguously-set bytes begins, and the length of that run. It returns
// length 0 when no such run exists.
func (d *DataArea) FindNextBlob(from int) (addr, length int) {
	i := sort.Search(len(d.runs), func(i int) bool {
		return d.runs[i].end() > from
	})
	if i >= len(d.runs) {
		return 0, 0
	}
	r := d.runs[i]
	start := r.addr
	if start < from {
		start = from
	}
	return start, r.end() - start
}
