// Copyright 2026 Marcel Schaible
// Licensed under the MIT license. See license text in the LICENSE file.

package pyrtl

import (
	"strconv"

	"github.com/pkg/errors"
)

// A Graph is one circuit definition. It owns all wires, nets, registers
// and storage elements created through it, for the lifetime of that
// definition; a new definition is a new Graph. Builder methods panic with
// a KindGraphConstruction error on misuse (width mismatches, foreign
// wires, duplicate names); structural problems that can only be seen on
// the finished graph are reported by Accept.
//
// A Graph must not be mutated once accepted, and never concurrently with
// a running simulation.
//
type Graph struct {
	wires   []*Wire
	nets    []*net
	regs    []*Register
	mems    []*Memory
	inputs  map[string]*Wire
	outputs map[string]*Wire

	order    []*net // topological evaluation order, set by Accept
	accepted bool
	bound    bool // a Simulation owns this graph's state
	internN  int  // generated internal wire names
}

// NewGraph returns an empty circuit graph.
//
func NewGraph() *Graph {
	return &Graph{
		inputs:  make(map[string]*Wire),
		outputs: make(map[string]*Wire),
	}
}

func (g *Graph) checkMutable() {
	if g.accepted {
		panic(newError(KindInvalidPhase, "graph is frozen: it has already been accepted for simulation"))
	}
}

func (g *Graph) checkWire(w *Wire) {
	if w == nil {
		panic(newError(KindGraphConstruction, "nil wire"))
	}
	if w.graph != g {
		panic(newErrorf(KindGraphConstruction, "wire %s belongs to another graph", w.name))
	}
}

func (g *Graph) addWire(name string, width int, role Role) *Wire {
	if !validWidth(width) {
		panic(newErrorf(KindGraphConstruction, "wire %s: invalid width %d", name, width))
	}
	if name == "" {
		name = "__" + strconv.Itoa(g.internN)
		g.internN++
	}
	w := &Wire{id: len(g.wires), name: name, width: width, role: role, graph: g}
	g.wires = append(g.wires, w)
	return w
}

func (g *Graph) addNet(n *net) {
	n.out.driver = n
	g.nets = append(g.nets, n)
}

// Input declares a named input wire of the given width. Every input must
// be assigned a value on every simulation step.
//
func (g *Graph) Input(name string, width int) *Wire {
	g.checkMutable()
	if name == "" {
		panic(newError(KindGraphConstruction, "input with empty name"))
	}
	if _, ok := g.inputs[name]; ok {
		panic(newErrorf(KindGraphConstruction, "duplicate input %s", name))
	}
	w := g.addWire(name, width, RoleInput)
	g.inputs[name] = w
	return w
}

// Output exposes w as a named output: its value is reported in every step
// result and trace snapshot.
//
func (g *Graph) Output(name string, w *Wire) {
	g.checkMutable()
	g.checkWire(w)
	if name == "" {
		panic(newError(KindGraphConstruction, "output with empty name"))
	}
	if _, ok := g.outputs[name]; ok {
		panic(newErrorf(KindGraphConstruction, "duplicate output %s", name))
	}
	if w.role == RoleInternal {
		w.role = RoleOutput
	}
	g.outputs[name] = w
}

// NewWire declares a named wire whose driver is connected later with
// Connect. An accepted graph may not contain declared-but-unconnected
// wires.
//
func (g *Graph) NewWire(name string, width int) *Wire {
	g.checkMutable()
	if name == "" {
		panic(newError(KindGraphConstruction, "declared wire with empty name"))
	}
	return g.addWire(name, width, RoleInternal)
}

// Connect drives dst with the value of src. dst must be a declared wire
// without a driver; widths must match.
//
func (g *Graph) Connect(dst, src *Wire) {
	g.checkMutable()
	g.checkWire(dst)
	g.checkWire(src)
	if dst.driver != nil || dst.role != RoleInternal {
		panic(newErrorf(KindGraphConstruction, "wire %s is already driven", dst.name))
	}
	if dst.width != src.width {
		panic(newErrorf(KindGraphConstruction,
			"connect: %s is %d bits wide, %s is %d", dst.name, dst.width, src.name, src.width))
	}
	g.addNet(&net{op: opBuf, ins: []*Wire{src}, out: dst})
}

// Const returns a wire holding the constant v at the given width.
//
func (g *Graph) Const(width int, v uint64) *Wire {
	g.checkMutable()
	if !validWidth(width) {
		panic(newErrorf(KindGraphConstruction, "const: invalid width %d", width))
	}
	if v&^widthMask(width) != 0 {
		panic(newErrorf(KindGraphConstruction, "const %d does not fit in %d bits", v, width))
	}
	out := g.addWire("", width, RoleInternal)
	g.addNet(&net{op: opConst, out: out, cval: v})
	return out
}

func (g *Graph) binary(op netOp, a, b *Wire) *Wire {
	g.checkMutable()
	g.checkWire(a)
	g.checkWire(b)
	if a.width != b.width {
		panic(newErrorf(KindGraphConstruction,
			"%s: operand widths differ: %s is %d bits, %s is %d bits", op, a.name, a.width, b.name, b.width))
	}
	width := a.width
	if op == opEq || op == opLt {
		width = 1
	}
	out := g.addWire("", width, RoleInternal)
	g.addNet(&net{op: op, ins: []*Wire{a, b}, out: out})
	return out
}

// Not returns the bitwise complement of a.
//
func (g *Graph) Not(a *Wire) *Wire {
	g.checkMutable()
	g.checkWire(a)
	out := g.addWire("", a.width, RoleInternal)
	g.addNet(&net{op: opNot, ins: []*Wire{a}, out: out})
	return out
}

// And returns the bitwise AND of a and b. Operand widths must match.
//
func (g *Graph) And(a, b *Wire) *Wire { return g.binary(opAnd, a, b) }

// Or returns the bitwise OR of a and b.
//
func (g *Graph) Or(a, b *Wire) *Wire { return g.binary(opOr, a, b) }

// Xor returns the bitwise XOR of a and b.
//
func (g *Graph) Xor(a, b *Wire) *Wire { return g.binary(opXor, a, b) }

// Add returns a + b truncated to the operand width.
//
func (g *Graph) Add(a, b *Wire) *Wire { return g.binary(opAdd, a, b) }

// Sub returns a - b with two's complement wrap-around.
//
func (g *Graph) Sub(a, b *Wire) *Wire { return g.binary(opSub, a, b) }

// Eq returns a 1-bit wire holding 1 when a == b.
//
func (g *Graph) Eq(a, b *Wire) *Wire { return g.binary(opEq, a, b) }

// Lt returns a 1-bit wire holding 1 when a < b (unsigned).
//
func (g *Graph) Lt(a, b *Wire) *Wire { return g.binary(opLt, a, b) }

// Mux returns f when the 1-bit sel is 0 and t when it is 1. The f and t
// widths must match.
//
func (g *Graph) Mux(sel, f, t *Wire) *Wire {
	g.checkMutable()
	g.checkWire(sel)
	g.checkWire(f)
	g.checkWire(t)
	if sel.width != 1 {
		panic(newErrorf(KindGraphConstruction, "mux: select %s is %d bits wide, want 1", sel.name, sel.width))
	}
	if f.width != t.width {
		panic(newErrorf(KindGraphConstruction,
			"mux: case widths differ: %s is %d bits, %s is %d bits", f.name, f.width, t.name, t.width))
	}
	out := g.addWire("", f.width, RoleInternal)
	g.addNet(&net{op: opMux, ins: []*Wire{sel, f, t}, out: out})
	return out
}

// Concat returns hi concatenated above lo; the result width is the sum of
// the operand widths.
//
func (g *Graph) Concat(hi, lo *Wire) *Wire {
	g.checkMutable()
	g.checkWire(hi)
	g.checkWire(lo)
	if hi.width+lo.width > MaxWidth {
		panic(newErrorf(KindGraphConstruction,
			"concat: combined width %d exceeds %d bits", hi.width+lo.width, MaxWidth))
	}
	out := g.addWire("", hi.width+lo.width, RoleInternal)
	g.addNet(&net{op: opConcat, ins: []*Wire{hi, lo}, out: out})
	return out
}

// Slice returns bits [lo, hi) of a, bit 0 being the least significant.
//
func (g *Graph) Slice(a *Wire, lo, hi int) *Wire {
	g.checkMutable()
	g.checkWire(a)
	if lo < 0 || hi <= lo || hi > a.width {
		panic(newErrorf(KindGraphConstruction,
			"slice [%d:%d) out of range for %s (%d bits)", lo, hi, a.name, a.width))
	}
	out := g.addWire("", hi-lo, RoleInternal)
	g.addNet(&net{op: opSlice, ins: []*Wire{a}, out: out, lo: lo, hi: hi})
	return out
}

// NewRegister declares a register of the given width, initialized to
// zero. Its next wire must be connected with SetNext before the graph is
// accepted.
//
func (g *Graph) NewRegister(name string, width int) *Register {
	g.checkMutable()
	if name == "" {
		panic(newError(KindGraphConstruction, "register with empty name"))
	}
	for _, r := range g.regs {
		if r.name == name {
			panic(newErrorf(KindGraphConstruction, "duplicate register %s", name))
		}
	}
	r := &Register{name: name, out: g.addWire(name, width, RoleRegister)}
	g.regs = append(g.regs, r)
	return r
}

func (g *Graph) newMemory(name string, bitwidth, addrwidth int, kind MemKind) *Memory {
	g.checkMutable()
	if name == "" {
		panic(newErrorf(KindGraphConstruction, "%s with empty name", kind))
	}
	for _, m := range g.mems {
		if m.name == name {
			panic(newErrorf(KindGraphConstruction, "duplicate storage element %s", name))
		}
	}
	if !validWidth(bitwidth) {
		panic(newErrorf(KindGraphConstruction, "%s %s: invalid bitwidth %d", kind, name, bitwidth))
	}
	if !validWidth(addrwidth) {
		panic(newErrorf(KindGraphConstruction, "%s %s: invalid addrwidth %d", kind, name, addrwidth))
	}
	m := &Memory{
		name:      name,
		bitwidth:  bitwidth,
		addrwidth: addrwidth,
		kind:      kind,
		graph:     g,
		contents:  make(map[uint64]uint64),
	}
	g.mems = append(g.mems, m)
	return m
}

// NewMemory declares a writable memory holding 2^addrwidth values of
// bitwidth bits. The memory is synchronous: its read addresses must be
// derived only from inputs, constants and register outputs, which is
// checked at acceptance.
//
func (g *Graph) NewMemory(name string, bitwidth, addrwidth int) *Memory {
	return g.newMemory(name, bitwidth, addrwidth, RAM)
}

// NewAsyncMemory declares a writable memory whose read addresses may be
// computed by arbitrary combinational logic within the cycle. Reads still
// observe start-of-cycle contents.
//
func (g *Graph) NewAsyncMemory(name string, bitwidth, addrwidth int) *Memory {
	m := g.newMemory(name, bitwidth, addrwidth, RAM)
	m.asynchronous = true
	return m
}

// romMaxAddrwidth bounds ROM sizes: contents are materialized and
// validated per address at construction.
const romMaxAddrwidth = 24

// NewROMFunc declares a read-only memory whose contents are produced by
// f. The function must return a width-valid value for every address in
// [0, 2^addrwidth); it is evaluated for the whole range at construction
// and never again.
//
func (g *Graph) NewROMFunc(name string, bitwidth, addrwidth int, f func(addr uint64) uint64) (*Memory, error) {
	if addrwidth > romMaxAddrwidth {
		return nil, newErrorf(KindGraphConstruction,
			"ROM %s: addrwidth %d exceeds the %d-bit ROM limit", name, addrwidth, romMaxAddrwidth)
	}
	if f == nil {
		return nil, newErrorf(KindGraphConstruction, "ROM %s: nil content function", name)
	}
	m := g.newMemory(name, bitwidth, addrwidth, ROM)
	for addr := uint64(0); addr <= widthMask(addrwidth); addr++ {
		v := f(addr)
		if v&^widthMask(bitwidth) != 0 {
			g.mems = g.mems[:len(g.mems)-1]
			return nil, newErrorf(KindGraphConstruction,
				"ROM %s: value %d at address %d does not fit in %d bits", name, v, addr, bitwidth)
		}
		m.contents[addr] = v
	}
	return m, nil
}

// NewROMValues declares a read-only memory from an explicit total value
// sequence. The sequence length must be exactly 2^addrwidth.
//
func (g *Graph) NewROMValues(name string, bitwidth, addrwidth int, values []uint64) (*Memory, error) {
	if addrwidth > romMaxAddrwidth {
		return nil, newErrorf(KindGraphConstruction,
			"ROM %s: addrwidth %d exceeds the %d-bit ROM limit", name, addrwidth, romMaxAddrwidth)
	}
	if n := widthMask(addrwidth) + 1; uint64(len(values)) != n {
		return nil, newErrorf(KindGraphConstruction,
			"ROM %s: got %d values, want %d for %d address bits", name, len(values), n, addrwidth)
	}
	m := g.newMemory(name, bitwidth, addrwidth, ROM)
	for addr, v := range values {
		if v&^widthMask(bitwidth) != 0 {
			g.mems = g.mems[:len(g.mems)-1]
			return nil, newErrorf(KindGraphConstruction,
				"ROM %s: value %d at address %d does not fit in %d bits", name, v, addr, bitwidth)
		}
		m.contents[uint64(addr)] = v
	}
	return m, nil
}

// Accept validates the finished graph and freezes it. It checks that
// every register has a next wire, that every storage element has the
// ports its kind requires, that synchronous read addresses are derived
// only from cycle-start sources, and that the combinational nets admit a
// topological order. Accept is idempotent; NewSimulation calls it.
//
func (g *Graph) Accept() error {
	if g.accepted {
		return nil
	}
	for _, r := range g.regs {
		if r.next == nil {
			return newErrorf(KindGraphConstruction, "register %s has no next wire", r.name)
		}
	}
	for _, m := range g.mems {
		if len(m.readPorts) == 0 {
			return newErrorf(KindGraphConstruction, "%s %s has no read port", m.kind, m.name)
		}
		if m.kind == RAM && len(m.writePorts) == 0 {
			return newErrorf(KindGraphConstruction,
				"RAM %s has no write port: declare it as a ROM instead", m.name)
		}
	}
	// By construction only inputs and register outputs lack a driver;
	// anything else undriven is a dangling reference.
	for _, w := range g.wires {
		if w.driver == nil && w.role != RoleInput && w.role != RoleRegister {
			return newErrorf(KindGraphConstruction, "wire %s (%s) is not driven", w.name, w.role)
		}
	}

	order, err := g.sortNets()
	if err != nil {
		return err
	}
	if err := g.checkSyncReads(order); err != nil {
		return errors.Wrap(err, "synchronous memory check")
	}
	g.order = order
	g.accepted = true
	return nil
}

// checkSyncReads verifies that every synchronous read port's address is
// stable at the start of a cycle: derived only from inputs, constants and
// register outputs.
func (g *Graph) checkSyncReads(order []*net) error {
	stable := make([]bool, len(g.wires))
	for _, w := range g.wires {
		if w.role == RoleInput || w.role == RoleRegister {
			stable[w.id] = true
		}
	}
	for _, n := range order {
		s := true
		for _, in := range n.ins {
			if !stable[in.id] {
				s = false
				break
			}
		}
		if n.op == opRead {
			// A read-port output is produced within the cycle, so it can
			// never address a synchronous port.
			s = false
		}
		stable[n.out.id] = s
	}
	for _, m := range g.mems {
		if m.asynchronous {
			continue
		}
		for _, p := range m.readPorts {
			if !stable[p.addr.id] {
				return newErrorf(KindGraphConstruction,
					"%s %s: read address %s depends on same-cycle combinational logic; declare the memory asynchronous",
					m.kind, m.name, p.addr.name)
			}
		}
	}
	return nil
}
