// Copyright 2026 Marcel Schaible
// Licensed under the MIT license. See license text in the LICENSE file.

// Package trace provides recording backends for simulation traces.
//
// The simulation core hands each committed cycle to the attached tracers
// as a pyrtl.Snapshot; the backends here only store those values, they do
// not render or format waveforms.
package trace

import (
	"sort"

	pyrtl "github.com/MarcelSchaible/PyRTL"
)

// A row is one flattened signal sample: a named value at a cycle, with an
// address for memory contents.
type row struct {
	cycle   uint64
	kind    string
	name    string
	addr    uint64
	hasAddr bool
	value   uint64
	width   int
}

// flatten turns a snapshot into rows ordered by kind, name and address so
// that trace files are deterministic.
func flatten(s pyrtl.Snapshot) []row {
	rows := make([]row, 0, len(s.Inputs)+len(s.Outputs)+len(s.Registers))
	appendGroup := func(kind string, m map[string]pyrtl.BitVector) {
		for name, v := range m {
			rows = append(rows, row{
				cycle: s.Cycle, kind: kind, name: name,
				value: v.Uint64(), width: v.Width(),
			})
		}
	}
	appendGroup("input", s.Inputs)
	appendGroup("output", s.Outputs)
	appendGroup("register", s.Registers)
	for name, contents := range s.Memories {
		for addr, v := range contents {
			rows = append(rows, row{
				cycle: s.Cycle, kind: "memory", name: name,
				addr: addr, hasAddr: true,
				value: v.Uint64(), width: v.Width(),
			})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.kind != b.kind {
			return a.kind < b.kind
		}
		if a.name != b.name {
			return a.name < b.name
		}
		return a.addr < b.addr
	})
	return rows
}

// A SliceTracer keeps snapshots in memory, for tests and programmatic
// inspection.
type SliceTracer struct {
	Snapshots []pyrtl.Snapshot
}

// Record implements pyrtl.Tracer.
func (t *SliceTracer) Record(s pyrtl.Snapshot) {
	t.Snapshots = append(t.Snapshots, s)
}

// Last returns the most recent snapshot and true, or false if nothing has
// been recorded.
func (t *SliceTracer) Last() (pyrtl.Snapshot, bool) {
	if len(t.Snapshots) == 0 {
		return pyrtl.Snapshot{}, false
	}
	return t.Snapshots[len(t.Snapshots)-1], true
}
