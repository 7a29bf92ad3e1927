package pyrtl_test

import (
	"testing"

	rtl "github.com/MarcelSchaible/PyRTL"
)

// ramSim builds a single RAM with one enabled write port and one read
// port, both directly addressed.
func ramSim(t *testing.T, bitwidth, addrwidth int) (*rtl.Simulation, *rtl.Memory) {
	t.Helper()
	g := rtl.NewGraph()
	en := g.Input("en", 1)
	waddr := g.Input("waddr", addrwidth)
	wdata := g.Input("wdata", bitwidth)
	raddr := g.Input("raddr", addrwidth)
	m := g.NewMemory("m", bitwidth, addrwidth)
	m.WriteEnabled(waddr, wdata, en)
	g.Output("q", m.Read(raddr))
	sim, err := rtl.NewSimulation(g)
	if err != nil {
		t.Fatal(err)
	}
	return sim, m
}

func step(t *testing.T, sim *rtl.Simulation, in map[string]uint64) *rtl.StepResult {
	t.Helper()
	res, err := sim.Step(in)
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestWriteVisibilityDelay(t *testing.T) {
	sim, _ := ramSim(t, 8, 2)

	// Write 42 to address 1 while reading address 1: the read must still
	// see the pre-write value.
	res := step(t, sim, map[string]uint64{"en": 1, "waddr": 1, "wdata": 42, "raddr": 1})
	if got := res.Outputs["q"].Uint64(); got != 0 {
		t.Fatalf("same-cycle read returned %d, want the pre-write value 0", got)
	}

	// One cycle later, with no further write, the value is visible.
	res = step(t, sim, map[string]uint64{"en": 0, "waddr": 0, "wdata": 0, "raddr": 1})
	if got := res.Outputs["q"].Uint64(); got != 42 {
		t.Fatalf("next-cycle read returned %d, want 42", got)
	}
}

func TestWriteEnableGating(t *testing.T) {
	sim, m := ramSim(t, 8, 2)

	step(t, sim, map[string]uint64{"en": 1, "waddr": 2, "wdata": 7, "raddr": 0})
	before, err := sim.InspectMemory(m)
	if err != nil {
		t.Fatal(err)
	}

	// Disabled writes must leave contents untouched regardless of the
	// address and data wires.
	step(t, sim, map[string]uint64{"en": 0, "waddr": 2, "wdata": 99, "raddr": 0})
	step(t, sim, map[string]uint64{"en": 0, "waddr": 1, "wdata": 1, "raddr": 0})
	after, err := sim.InspectMemory(m)
	if err != nil {
		t.Fatal(err)
	}

	if len(before) != len(after) {
		t.Fatalf("contents changed: %v -> %v", before, after)
	}
	for addr, v := range before {
		if after[addr] != v {
			t.Fatalf("address %d changed: %v -> %v", addr, v, after[addr])
		}
	}
	if after[2].Uint64() != 7 {
		t.Fatalf("address 2 holds %d, want 7", after[2].Uint64())
	}
}

func TestWriteConflictLastPortWins(t *testing.T) {
	g := rtl.NewGraph()
	addr := g.Input("addr", 2)
	m := g.NewMemory("m", 8, 2)
	m.Write(addr, g.Const(8, 11)) // port 0
	m.Write(addr, g.Const(8, 22)) // port 1
	g.Output("q", m.Read(addr))
	sim, err := rtl.NewSimulation(g)
	if err != nil {
		t.Fatal(err)
	}

	res := step(t, sim, map[string]uint64{"addr": 3})
	if len(res.Conflicts) != 1 {
		t.Fatalf("got %d conflicts, want 1", len(res.Conflicts))
	}
	c := res.Conflicts[0]
	if c.Memory != m || c.Addr != 3 || c.Cycle != 0 {
		t.Fatalf("bad conflict %+v", c)
	}
	if len(c.Ports) != 2 || c.Ports[0] != 0 || c.Ports[1] != 1 {
		t.Fatalf("bad conflict ports %v", c.Ports)
	}

	res = step(t, sim, map[string]uint64{"addr": 3})
	if got := res.Outputs["q"].Uint64(); got != 22 {
		t.Fatalf("address 3 holds %d, want 22 (last-declared port wins)", got)
	}
}

func TestNoConflictOnDistinctAddresses(t *testing.T) {
	g := rtl.NewGraph()
	a0 := g.Input("a0", 2)
	a1 := g.Input("a1", 2)
	m := g.NewMemory("m", 8, 2)
	m.Write(a0, g.Const(8, 11))
	m.Write(a1, g.Const(8, 22))
	g.Output("q", m.Read(a0))
	sim, err := rtl.NewSimulation(g)
	if err != nil {
		t.Fatal(err)
	}
	res := step(t, sim, map[string]uint64{"a0": 0, "a1": 1})
	if len(res.Conflicts) != 0 {
		t.Fatalf("unexpected conflicts %v", res.Conflicts)
	}
}

func TestROMContents(t *testing.T) {
	g := rtl.NewGraph()
	raddr := g.Input("raddr", 4)
	rom, err := g.NewROMFunc("table", 5, 4, func(addr uint64) uint64 { return 31 - 2*addr })
	if err != nil {
		t.Fatal(err)
	}
	g.Output("q", rom.Read(raddr))
	sim, err := rtl.NewSimulation(g)
	if err != nil {
		t.Fatal(err)
	}

	// Reading address 5 returns 21; the full scan reproduces 31, 29, ..., 1.
	for addr := uint64(0); addr < 16; addr++ {
		res := step(t, sim, map[string]uint64{"raddr": addr})
		if got, want := res.Outputs["q"].Uint64(), 31-2*addr; got != want {
			t.Fatalf("table[%d] = %d, want %d", addr, got, want)
		}
	}

	// No sequence of steps may change ROM contents.
	contents, err := sim.InspectMemory(rom)
	if err != nil {
		t.Fatal(err)
	}
	for addr := uint64(0); addr < 16; addr++ {
		if got, want := contents[addr].Uint64(), 31-2*addr; got != want {
			t.Fatalf("contents[%d] = %d, want %d", addr, got, want)
		}
	}
}

func TestROMSeedRejected(t *testing.T) {
	g := rtl.NewGraph()
	raddr := g.Input("raddr", 2)
	rom, err := g.NewROMValues("rom", 8, 2, []uint64{1, 2, 3, 4})
	if err != nil {
		t.Fatal(err)
	}
	g.Output("q", rom.Read(raddr))
	sim, err := rtl.NewSimulation(g)
	if err != nil {
		t.Fatal(err)
	}

	err = sim.Configure(rom, map[uint64]uint64{0: 9})
	if err == nil {
		t.Fatal("configured a ROM")
	}
	if k := rtl.KindOf(err); k != rtl.KindReadOnlyViolation {
		t.Fatalf("wrong kind %v: %v", k, err)
	}
}

func TestConfigureValidatesSeed(t *testing.T) {
	sim, m := ramSim(t, 8, 2)
	if err := sim.Configure(m, map[uint64]uint64{4: 0}); err == nil {
		t.Fatal("accepted an out-of-range seed address")
	}
	if err := sim.Configure(m, map[uint64]uint64{0: 256}); err == nil {
		t.Fatal("accepted an oversized seed value")
	}
	if err := sim.Configure(m, map[uint64]uint64{3: 255}); err != nil {
		t.Fatal(err)
	}

	step(t, sim, map[string]uint64{"en": 0, "waddr": 0, "wdata": 0, "raddr": 0})
	err := sim.Configure(m, map[uint64]uint64{0: 1})
	if err == nil {
		t.Fatal("configured a started simulation")
	}
	if k := rtl.KindOf(err); k != rtl.KindInvalidPhase {
		t.Fatalf("wrong kind %v: %v", k, err)
	}
}

func TestUnwrittenAddressesReadZero(t *testing.T) {
	sim, _ := ramSim(t, 8, 2)
	res := step(t, sim, map[string]uint64{"en": 0, "waddr": 0, "wdata": 0, "raddr": 3})
	if got := res.Outputs["q"].Uint64(); got != 0 {
		t.Fatalf("unwritten address read %d, want 0", got)
	}
}

func TestResetRestoresSeed(t *testing.T) {
	sim, m := ramSim(t, 8, 2)
	if err := sim.Configure(m, map[uint64]uint64{0: 5, 1: 6}); err != nil {
		t.Fatal(err)
	}

	step(t, sim, map[string]uint64{"en": 1, "waddr": 0, "wdata": 200, "raddr": 0})
	step(t, sim, map[string]uint64{"en": 1, "waddr": 3, "wdata": 201, "raddr": 0})

	if err := sim.Reset(); err != nil {
		t.Fatal(err)
	}
	if sim.Cycle() != 0 {
		t.Fatalf("cycle = %d after reset", sim.Cycle())
	}
	contents, err := sim.InspectMemory(m)
	if err != nil {
		t.Fatal(err)
	}
	if len(contents) != 2 || contents[0].Uint64() != 5 || contents[1].Uint64() != 6 {
		t.Fatalf("contents after reset: %v", contents)
	}

	// The seed may still be adjusted after a reset, before the first step.
	if err := sim.Configure(m, map[uint64]uint64{2: 7}); err != nil {
		t.Fatal(err)
	}
}
