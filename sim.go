// Copyright 2026 Marcel Schaible
// Licensed under the MIT license. See license text in the LICENSE file.

package pyrtl

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/xid"
)

type phase int

const (
	phaseIdle phase = iota
	phaseEvaluate
	phaseCommit
)

// A WriteConflict reports two enabled write ports targeting the same
// address of the same storage element in one cycle. It is resolved
// deterministically (the last-declared port wins) and surfaced as a
// diagnostic, not an error.
//
type WriteConflict struct {
	Memory *Memory
	Cycle  uint64
	Addr   uint64
	Ports  []int // declaration indices of the conflicting write ports
}

func (c WriteConflict) String() string {
	return fmt.Sprintf("cycle %d: %s %s: write ports %v target address %d, port %d wins",
		c.Cycle, c.Memory.kind, c.Memory.name, c.Ports, c.Addr, c.Ports[len(c.Ports)-1])
}

// A StepResult holds everything one cycle produced: the named output
// values and any write-conflict diagnostics raised at commit.
//
type StepResult struct {
	Cycle     uint64
	Outputs   map[string]BitVector
	Conflicts []WriteConflict
}

// A Snapshot is the per-cycle record handed to tracers: the full set of
// input, output and register values as visible during the cycle, plus
// storage contents when memory snapshots are enabled. Memory contents are
// recorded before commit, so a snapshot shows the state the cycle's reads
// observed.
//
type Snapshot struct {
	SimulationID string
	Cycle        uint64
	Inputs       map[string]BitVector
	Outputs      map[string]BitVector
	Registers    map[string]BitVector
	Memories     map[string]map[uint64]BitVector
}

// A Tracer receives one Snapshot per committed cycle. Tracers must not
// call back into the simulation.
//
type Tracer interface {
	Record(Snapshot)
}

// An Option configures a Simulation.
//
type Option func(*Simulation)

// WithTracer attaches a tracer; every committed cycle is recorded to all
// attached tracers in attachment order.
//
func WithTracer(t Tracer) Option {
	return func(s *Simulation) { s.tracers = append(s.tracers, t) }
}

// WithMemorySnapshots includes every storage element's contents in trace
// snapshots.
//
func WithMemorySnapshots() Option {
	return func(s *Simulation) { s.snapshotMems = true }
}

// A Simulation drives one accepted circuit graph, one cycle at a time:
// each Step evaluates every combinational wire from the current state and
// the cycle's inputs, then atomically commits register next-values and
// pending memory writes. State mutates only at commit, so the state at
// every cycle boundary is consistent and a failed Step changes nothing.
//
// A Simulation is single-threaded: methods must not be called
// concurrently.
//
type Simulation struct {
	id string
	g  *Graph

	vals  []BitVector // current-cycle value of every wire
	valid []bool      // whether the wire has been produced this cycle

	cycle   uint64
	phase   phase
	started bool

	tracers      []Tracer
	snapshotMems bool
}

// NewSimulation accepts the graph and returns a simulation driving it. A
// graph can be driven by at most one simulation; use Reset to rerun it.
//
func NewSimulation(g *Graph, opts ...Option) (*Simulation, error) {
	if g == nil {
		return nil, newError(KindGraphConstruction, "nil graph")
	}
	if err := g.Accept(); err != nil {
		return nil, errors.Wrap(err, "circuit rejected")
	}
	if g.bound {
		return nil, newError(KindInvalidPhase, "graph is already driven by another simulation")
	}
	g.bound = true
	s := &Simulation{
		id:    xid.New().String(),
		g:     g,
		vals:  make([]BitVector, len(g.wires)),
		valid: make([]bool, len(g.wires)),
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// ID returns the simulation's run identifier, unique per process.
//
func (s *Simulation) ID() string { return s.id }

// Cycle returns the number of committed cycles.
//
func (s *Simulation) Cycle() uint64 { return s.cycle }

// Configure seeds a RAM's contents before the first cycle. Omitted
// addresses keep the zero default. Configuring a ROM or an already
// started simulation is an error.
//
func (s *Simulation) Configure(m *Memory, contents map[uint64]uint64) error {
	if m == nil || m.graph != s.g {
		return newError(KindGraphConstruction, "storage element is nil or belongs to another graph")
	}
	if s.started {
		return newErrorf(KindInvalidPhase, "%s %s: cannot configure contents after the first step", m.kind, m.name)
	}
	return m.setSeed(contents)
}

// Step runs exactly one cycle: it validates and applies the input
// assignment, evaluates every combinational wire in topological order,
// records the cycle to the attached tracers, then commits register and
// memory effects. Every declared input must be assigned a value that fits
// its width; on an input mismatch the simulation state is left exactly as
// of the last successful commit.
//
func (s *Simulation) Step(inputs map[string]uint64) (*StepResult, error) {
	if s.phase != phaseIdle {
		return nil, newError(KindInvalidPhase, "step called while a cycle is in progress")
	}
	for name := range inputs {
		if _, ok := s.g.inputs[name]; !ok {
			return nil, newErrorf(KindInputMismatch, "unknown input %s", name)
		}
	}
	for name, w := range s.g.inputs {
		v, ok := inputs[name]
		if !ok {
			return nil, newErrorf(KindInputMismatch, "missing value for input %s", name)
		}
		if v&^widthMask(w.width) != 0 {
			return nil, newErrorf(KindInputMismatch,
				"input %s: value %d does not fit in %d bits", name, v, w.width)
		}
	}
	s.started = true

	// Evaluate: compute every wire from current state and this cycle's
	// inputs, and stage write-port effects.
	s.phase = phaseEvaluate
	for i := range s.valid {
		s.valid[i] = false
	}
	for name, w := range s.g.inputs {
		s.vals[w.id] = bv(w.width, inputs[name])
		s.valid[w.id] = true
	}
	for _, r := range s.g.regs {
		s.vals[r.out.id] = bv(r.out.width, r.cur)
		s.valid[r.out.id] = true
	}
	for _, n := range s.g.order {
		s.vals[n.out.id] = n.eval(s.vals, s.valid)
		s.valid[n.out.id] = true
	}
	for _, m := range s.g.mems {
		for i, p := range m.writePorts {
			if p.enabled(s.vals) {
				m.stage(i, s.vals[p.addr.id].Uint64(), s.vals[p.data.id].Uint64())
			}
		}
	}

	res := &StepResult{Cycle: s.cycle, Outputs: make(map[string]BitVector, len(s.g.outputs))}
	for name, w := range s.g.outputs {
		res.Outputs[name] = s.vals[w.id]
	}
	s.record(inputs, res.Outputs)

	// Commit: registers take their next values and storage elements apply
	// staged writes. Neither group reads the other's post-commit state, so
	// the pair is atomic from every reader's perspective.
	s.phase = phaseCommit
	for _, r := range s.g.regs {
		r.cur = s.vals[r.next.id].Uint64()
	}
	for _, m := range s.g.mems {
		res.Conflicts = append(res.Conflicts, m.commitPending(s.cycle)...)
	}
	s.cycle++
	s.phase = phaseIdle
	return res, nil
}

func (s *Simulation) record(inputs map[string]uint64, outputs map[string]BitVector) {
	if len(s.tracers) == 0 {
		return
	}
	snap := Snapshot{
		SimulationID: s.id,
		Cycle:        s.cycle,
		Inputs:       make(map[string]BitVector, len(inputs)),
		Outputs:      outputs,
		Registers:    make(map[string]BitVector, len(s.g.regs)),
	}
	for name, w := range s.g.inputs {
		snap.Inputs[name] = s.vals[w.id]
	}
	for _, r := range s.g.regs {
		snap.Registers[r.name] = s.vals[r.out.id]
	}
	if s.snapshotMems {
		snap.Memories = make(map[string]map[uint64]BitVector, len(s.g.mems))
		for _, m := range s.g.mems {
			snap.Memories[m.name] = m.snapshot()
		}
	}
	for _, t := range s.tracers {
		t.Record(snap)
	}
}

// Inspect returns the value w carried during the last evaluated cycle.
//
func (s *Simulation) Inspect(w *Wire) (BitVector, error) {
	if w == nil || w.graph != s.g {
		return BitVector{}, newError(KindGraphConstruction, "wire is nil or belongs to another graph")
	}
	if !s.valid[w.id] {
		return BitVector{}, newErrorf(KindInvalidPhase, "wire %s has not been evaluated yet", w.name)
	}
	return s.vals[w.id], nil
}

// InspectMemory returns a copy of a storage element's current contents.
// Addresses never written and never seeded are omitted; they read zero.
//
func (s *Simulation) InspectMemory(m *Memory) (map[uint64]BitVector, error) {
	if m == nil || m.graph != s.g {
		return nil, newError(KindGraphConstruction, "storage element is nil or belongs to another graph")
	}
	return m.snapshot(), nil
}

// Reset discards the simulation state: registers return to zero, RAM
// contents to their configured seed, ROM contents are untouched and the
// cycle counter restarts. The graph itself is kept; a new circuit
// definition is a new Graph.
//
func (s *Simulation) Reset() error {
	if s.phase != phaseIdle {
		return newError(KindInvalidPhase, "reset called while a cycle is in progress")
	}
	for _, r := range s.g.regs {
		r.cur = r.init
	}
	for _, m := range s.g.mems {
		m.reset()
	}
	for i := range s.valid {
		s.valid[i] = false
	}
	s.cycle = 0
	s.started = false
	return nil
}
