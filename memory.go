// Copyright 2026 Marcel Schaible
// Licensed under the MIT license. See license text in the LICENSE file.

package pyrtl

// MemKind distinguishes writable memories from ROMs.
//
type MemKind int

// Storage element kinds.
//
const (
	// RAM is a writable memory.
	RAM MemKind = iota
	// ROM is a read-only memory: its contents are fixed at construction
	// and never mutated afterwards.
	ROM
)

func (k MemKind) String() string {
	if k == ROM {
		return "ROM"
	}
	return "RAM"
}

// A Memory is an addressable storage element: an array of 2^addrwidth
// values of bitwidth bits, accessed through read and write ports. All
// ports share the single owned contents array; ports carry only wire
// bindings, never copies.
//
// Reads of never-written RAM addresses return zero. This is a
// simulation-only convenience for deterministic runs, not a hardware
// guarantee: real memory is undefined before its first write.
//
type Memory struct {
	name      string
	bitwidth  int
	addrwidth int
	kind      MemKind

	// Asynchronous memories may compute their read addresses from
	// arbitrary combinational logic. Synchronous memories (the default)
	// require read addresses derived only from inputs, constants and
	// register outputs, which is enforced at graph acceptance.
	asynchronous bool

	graph      *Graph
	contents   map[uint64]uint64
	seed       map[uint64]uint64 // Configure values, reapplied on Reset
	readPorts  []*ReadPort
	writePorts []*WritePort
	pending    []stagedWrite
}

// A ReadPort binds a storage element to an address wire. Its output wire
// carries contents[address] as of the start of the current cycle,
// ignoring any write committed later in the same cycle.
//
type ReadPort struct {
	mem  *Memory
	addr *Wire
	out  *Wire
}

// Mem returns the port's owning storage element.
//
func (p *ReadPort) Mem() *Memory { return p.mem }

// Out returns the port's output wire.
//
func (p *ReadPort) Out() *Wire { return p.out }

// A WritePort binds a storage element to address, data and optional
// enable wires. A nil enable means always enabled. A write is pending
// during the cycle it is staged in and committed only at the cycle
// boundary.
//
type WritePort struct {
	mem    *Memory
	addr   *Wire
	data   *Wire
	enable *Wire
}

// Mem returns the port's owning storage element.
//
func (p *WritePort) Mem() *Memory { return p.mem }

// enabled composes the port's effective enable from the enable wire value
// and the unconditional case: no enable wire means always enabled.
func (p *WritePort) enabled(vals []BitVector) bool {
	if p.enable == nil {
		return true
	}
	return vals[p.enable.id].Uint64() != 0
}

type stagedWrite struct {
	port       int // declaration index of the write port
	addr, data uint64
}

// Name returns the storage element's name.
//
func (m *Memory) Name() string { return m.name }

// Bitwidth returns the width of stored values in bits.
//
func (m *Memory) Bitwidth() int { return m.bitwidth }

// Addrwidth returns the address width in bits; the element holds
// 2^Addrwidth values.
//
func (m *Memory) Addrwidth() int { return m.addrwidth }

// Kind returns RAM or ROM.
//
func (m *Memory) Kind() MemKind { return m.kind }

// Read adds a read port addressed by addr and returns its output wire.
// Multiple read ports on the same element are independent. Read panics if
// addr's width does not match the element's address width.
//
func (m *Memory) Read(addr *Wire) *Wire {
	m.graph.checkMutable()
	if addr == nil || addr.graph != m.graph {
		panic(newErrorf(KindGraphConstruction, "%s %s: read address wire is nil or foreign", m.kind, m.name))
	}
	if addr.width != m.addrwidth {
		panic(newErrorf(KindGraphConstruction,
			"%s %s: read address %s is %d bits wide, want %d", m.kind, m.name, addr.name, addr.width, m.addrwidth))
	}
	out := m.graph.addWire("", m.bitwidth, RoleReadPort)
	p := &ReadPort{mem: m, addr: addr, out: out}
	m.readPorts = append(m.readPorts, p)
	m.graph.addNet(&net{op: opRead, ins: []*Wire{addr}, out: out, port: p})
	return out
}

// Write adds an always-enabled write port.
//
func (m *Memory) Write(addr, data *Wire) {
	m.WriteEnabled(addr, data, nil)
}

// WriteEnabled adds a write port gated by the 1-bit enable wire. A nil
// enable is always enabled. WriteEnabled panics on ROMs and on width
// mismatches.
//
func (m *Memory) WriteEnabled(addr, data, enable *Wire) {
	m.graph.checkMutable()
	if m.kind == ROM {
		panic(newErrorf(KindReadOnlyViolation, "ROM %s: cannot add a write port", m.name))
	}
	if addr == nil || data == nil || addr.graph != m.graph || data.graph != m.graph {
		panic(newErrorf(KindGraphConstruction, "RAM %s: write address or data wire is nil or foreign", m.name))
	}
	if addr.width != m.addrwidth {
		panic(newErrorf(KindGraphConstruction,
			"RAM %s: write address %s is %d bits wide, want %d", m.name, addr.name, addr.width, m.addrwidth))
	}
	if data.width != m.bitwidth {
		panic(newErrorf(KindGraphConstruction,
			"RAM %s: write data %s is %d bits wide, want %d", m.name, data.name, data.width, m.bitwidth))
	}
	if enable != nil {
		if enable.graph != m.graph {
			panic(newErrorf(KindGraphConstruction, "RAM %s: enable wire belongs to another graph", m.name))
		}
		if enable.width != 1 {
			panic(newErrorf(KindGraphConstruction,
				"RAM %s: enable %s is %d bits wide, want 1", m.name, enable.name, enable.width))
		}
	}
	m.writePorts = append(m.writePorts, &WritePort{mem: m, addr: addr, data: data, enable: enable})
}

// read is the pure lookup behind read ports. The address wire's width
// already bounds addr to the valid range; the mask below only guards the
// internal callers.
func (m *Memory) read(addr uint64) uint64 {
	return m.contents[addr&widthMask(m.addrwidth)]
}

// stage records a pending write without touching contents.
func (m *Memory) stage(port int, addr, data uint64) {
	m.pending = append(m.pending, stagedWrite{port: port, addr: addr, data: data})
}

// commitPending applies all writes staged this cycle and clears the
// pending set. Writes are applied in write-port declaration order, so two
// enabled ports targeting the same address resolve to the last-declared
// port; each such conflict is reported as a WriteConflict diagnostic.
func (m *Memory) commitPending(cycle uint64) []WriteConflict {
	if len(m.pending) == 0 {
		return nil
	}
	var conflicts []WriteConflict
	seen := make(map[uint64]int, len(m.pending)) // addr -> first writing port
	for _, w := range m.pending {
		if first, ok := seen[w.addr]; ok {
			conflicts = append(conflicts, WriteConflict{
				Memory: m, Cycle: cycle, Addr: w.addr, Ports: []int{first, w.port},
			})
		} else {
			seen[w.addr] = w.port
		}
		m.contents[w.addr] = w.data
	}
	m.pending = m.pending[:0]
	return conflicts
}

// setSeed validates and records initial contents for a RAM. The seed is
// applied immediately and reapplied by Reset.
func (m *Memory) setSeed(contents map[uint64]uint64) error {
	if m.kind == ROM {
		return newErrorf(KindReadOnlyViolation, "ROM %s: contents are fixed at construction", m.name)
	}
	for addr, v := range contents {
		if addr&^widthMask(m.addrwidth) != 0 {
			return newErrorf(KindGraphConstruction,
				"RAM %s: initial address %d out of range for %d address bits", m.name, addr, m.addrwidth)
		}
		if v&^widthMask(m.bitwidth) != 0 {
			return newErrorf(KindGraphConstruction,
				"RAM %s: initial value %d at address %d does not fit in %d bits", m.name, v, addr, m.bitwidth)
		}
	}
	if m.seed == nil {
		m.seed = make(map[uint64]uint64, len(contents))
	}
	for addr, v := range contents {
		m.seed[addr] = v
		m.contents[addr] = v
	}
	return nil
}

// reset restores construction-time contents: the ROM image or the
// configured RAM seed.
func (m *Memory) reset() {
	m.pending = m.pending[:0]
	if m.kind == ROM {
		return
	}
	m.contents = make(map[uint64]uint64, len(m.seed))
	for addr, v := range m.seed {
		m.contents[addr] = v
	}
}

// snapshot returns a copy of the element's stored contents. Addresses
// never written or seeded are absent.
func (m *Memory) snapshot() map[uint64]BitVector {
	snap := make(map[uint64]BitVector, len(m.contents))
	for addr, v := range m.contents {
		snap[addr] = bv(m.bitwidth, v)
	}
	return snap
}
