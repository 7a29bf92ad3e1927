package pyrtl_test

import (
	"math/rand"
	"testing"

	rtl "github.com/MarcelSchaible/PyRTL"
	"github.com/MarcelSchaible/PyRTL/simtest"
)

// twoMemories builds the walkthrough circuit: mem1 written at a direct
// address, mem2 through a register incrementing on every enabled write,
// both fed the same data and enable.
func twoMemories(t *testing.T) (*rtl.Simulation, *rtl.Memory, *rtl.Memory) {
	t.Helper()
	g := rtl.NewGraph()
	en := g.Input("en", 1)
	waddr := g.Input("waddr", 3)
	wdata := g.Input("wdata", 32)
	raddr := g.Input("raddr", 3)

	mem1 := g.NewMemory("mem1", 32, 3)
	mem2 := g.NewMemory("mem2", 32, 3)

	mem1.WriteEnabled(waddr, wdata, en)

	addrReg := g.NewRegister("addr_reg", 3)
	addrReg.SetNext(g.Mux(en, addrReg.Out(), g.Add(addrReg.Out(), g.Const(3, 1))))
	mem2.WriteEnabled(addrReg.Out(), wdata, en)

	g.Output("q1", mem1.Read(raddr))
	g.Output("q2", mem2.Read(raddr))
	g.Output("addr_ok", g.Eq(waddr, addrReg.Out()))

	sim, err := rtl.NewSimulation(g)
	if err != nil {
		t.Fatal(err)
	}
	return sim, mem1, mem2
}

func allNines() map[uint64]uint64 {
	m := make(map[uint64]uint64, 8)
	for addr := uint64(0); addr < 8; addr++ {
		m[addr] = 9
	}
	return m
}

// scenarioInputs reproduces the walkthrough stimulus: two idle cycles,
// eight enabled writes of 1..8 to addresses 0..7, then idle cycles with a
// read scan of addresses 0..7 starting at cycle 19.
func scenarioInputs(cycle int) map[string]uint64 {
	enables := []uint64{0, 0, 1, 1, 1, 1, 1, 1, 1, 1}
	waddrs := []uint64{0, 0, 0, 1, 2, 3, 4, 5, 6, 7}
	wdatas := []uint64{0, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 9, 9}

	in := map[string]uint64{"en": 0, "waddr": 0, "wdata": 0, "raddr": 0}
	if cycle < len(enables) {
		in["en"] = enables[cycle]
	}
	if cycle < len(waddrs) {
		in["waddr"] = waddrs[cycle]
	}
	if cycle < len(wdatas) {
		in["wdata"] = wdatas[cycle]
	}
	if cycle >= 19 {
		in["raddr"] = uint64(cycle-19) & 7
	}
	return in
}

func TestTwoMemoryScenario(t *testing.T) {
	sim, mem1, mem2 := twoMemories(t)
	if err := sim.Configure(mem1, allNines()); err != nil {
		t.Fatal(err)
	}
	if err := sim.Configure(mem2, allNines()); err != nil {
		t.Fatal(err)
	}

	for cycle := 0; cycle < 27; cycle++ {
		res, err := sim.Step(scenarioInputs(cycle))
		if err != nil {
			t.Fatal(err)
		}

		// Before any write commits, reads see the initial contents.
		if cycle < 3 {
			if got := res.Outputs["q1"].Uint64(); got != 9 {
				t.Fatalf("cycle %d: q1 = %d, want the initial 9", cycle, got)
			}
		}
		// The register tracks the direct write address on every enabled
		// write cycle.
		if cycle >= 2 && cycle <= 9 {
			if res.Outputs["addr_ok"].Uint64() != 1 {
				t.Fatalf("cycle %d: write address sources diverged", cycle)
			}
		}
		// The read scan yields 1..8 for addresses 0..7.
		if cycle >= 19 {
			want := uint64(cycle-19) + 1
			if got := res.Outputs["q1"].Uint64(); got != want {
				t.Fatalf("cycle %d: q1 = %d, want %d", cycle, got, want)
			}
			if got := res.Outputs["q2"].Uint64(); got != want {
				t.Fatalf("cycle %d: q2 = %d, want %d", cycle, got, want)
			}
		}
	}
}

func TestRoundTripRegisterIndexedWrite(t *testing.T) {
	sim, mem1, mem2 := twoMemories(t)

	// Eight enabled writes with addresses 0..7 and data 1..8.
	for i := uint64(0); i < 8; i++ {
		_, err := sim.Step(map[string]uint64{"en": 1, "waddr": i, "wdata": i + 1, "raddr": 0})
		if err != nil {
			t.Fatal(err)
		}
	}

	for _, m := range []*rtl.Memory{mem1, mem2} {
		contents, err := sim.InspectMemory(m)
		if err != nil {
			t.Fatal(err)
		}
		for addr := uint64(0); addr < 8; addr++ {
			if got := contents[addr].Uint64(); got != addr+1 {
				t.Fatalf("%s[%d] = %d, want %d", m.Name(), addr, got, addr+1)
			}
		}
	}
}

func TestEquivalenceUnderIdenticalStimulus(t *testing.T) {
	a, am1, am2 := twoMemories(t)
	b, bm1, bm2 := twoMemories(t)
	for _, p := range []struct {
		sim *rtl.Simulation
		m   *rtl.Memory
	}{{a, am1}, {a, am2}, {b, bm1}, {b, bm2}} {
		if err := p.sim.Configure(p.m, allNines()); err != nil {
			t.Fatal(err)
		}
	}

	rng := rand.New(rand.NewSource(1))
	stim := simtest.RandomStimulus(rng, map[string]int{
		"en": 1, "waddr": 3, "wdata": 32, "raddr": 3,
	})
	simtest.CompareOutputs(t, a, b, 256, stim)
}

func TestInputMismatchLeavesStateUntouched(t *testing.T) {
	sim, mem1, _ := twoMemories(t)
	if err := sim.Configure(mem1, allNines()); err != nil {
		t.Fatal(err)
	}

	td := []struct {
		name string
		in   map[string]uint64
	}{
		{"missing input", map[string]uint64{"en": 1, "waddr": 0, "wdata": 1}},
		{"unknown input", map[string]uint64{"en": 1, "waddr": 0, "wdata": 1, "raddr": 0, "bogus": 0}},
		{"oversized value", map[string]uint64{"en": 1, "waddr": 8, "wdata": 1, "raddr": 0}},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			_, err := sim.Step(d.in)
			if err == nil {
				t.Fatal("step accepted a bad input assignment")
			}
			if k := rtl.KindOf(err); k != rtl.KindInputMismatch {
				t.Fatalf("wrong kind %v: %v", k, err)
			}
			if sim.Cycle() != 0 {
				t.Fatalf("cycle advanced to %d", sim.Cycle())
			}
			contents, err := sim.InspectMemory(mem1)
			if err != nil {
				t.Fatal(err)
			}
			if contents[0].Uint64() != 9 {
				t.Fatalf("state leaked: mem1[0] = %d", contents[0].Uint64())
			}
		})
	}

	// The caller may retry with a corrected assignment.
	res, err := sim.Step(map[string]uint64{"en": 1, "waddr": 0, "wdata": 1, "raddr": 0})
	if err != nil {
		t.Fatal(err)
	}
	if res.Cycle != 0 {
		t.Fatalf("first committed cycle is %d", res.Cycle)
	}
}

// recorder is a minimal in-memory tracer.
type recorder struct {
	snaps []rtl.Snapshot
}

func (r *recorder) Record(s rtl.Snapshot) { r.snaps = append(r.snaps, s) }

func TestTracerSeesPreCommitState(t *testing.T) {
	g := rtl.NewGraph()
	en := g.Input("en", 1)
	addr := g.Input("addr", 2)
	data := g.Input("data", 8)
	m := g.NewMemory("m", 8, 2)
	m.WriteEnabled(addr, data, en)
	g.Output("q", m.Read(addr))

	rec := &recorder{}
	sim, err := rtl.NewSimulation(g, rtl.WithTracer(rec), rtl.WithMemorySnapshots())
	if err != nil {
		t.Fatal(err)
	}

	step(t, sim, map[string]uint64{"en": 1, "addr": 1, "data": 42})
	step(t, sim, map[string]uint64{"en": 0, "addr": 1, "data": 0})

	if len(rec.snaps) != 2 {
		t.Fatalf("recorded %d snapshots, want 2", len(rec.snaps))
	}
	s0, s1 := rec.snaps[0], rec.snaps[1]
	if s0.Cycle != 0 || s1.Cycle != 1 {
		t.Fatalf("bad cycle indices %d, %d", s0.Cycle, s1.Cycle)
	}
	if s0.SimulationID != sim.ID() {
		t.Fatalf("snapshot carries id %q, want %q", s0.SimulationID, sim.ID())
	}
	if got := s0.Inputs["data"].Uint64(); got != 42 {
		t.Fatalf("snapshot input data = %d, want 42", got)
	}
	// The cycle-0 snapshot shows the contents its reads observed: the
	// write staged that cycle is not in it yet.
	if _, ok := s0.Memories["m"][1]; ok {
		t.Fatal("cycle-0 snapshot contains the staged write")
	}
	if got := s1.Memories["m"][1].Uint64(); got != 42 {
		t.Fatalf("cycle-1 snapshot: m[1] = %d, want 42", got)
	}
	if got := s1.Outputs["q"].Uint64(); got != 42 {
		t.Fatalf("cycle-1 output q = %d, want 42", got)
	}
}

func TestInspect(t *testing.T) {
	g := rtl.NewGraph()
	a := g.Input("a", 4)
	sum := g.Add(a, g.Const(4, 3))
	g.Output("sum", sum)
	sim, err := rtl.NewSimulation(g)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := sim.Inspect(sum); err == nil {
		t.Fatal("inspected a wire before the first step")
	} else if k := rtl.KindOf(err); k != rtl.KindInvalidPhase {
		t.Fatalf("wrong kind %v: %v", k, err)
	}

	step(t, sim, map[string]uint64{"a": 14})
	v, err := sim.Inspect(sum)
	if err != nil {
		t.Fatal(err)
	}
	if v.Uint64() != 1 { // 14 + 3 wraps at 4 bits
		t.Fatalf("sum = %d, want 1", v.Uint64())
	}
}

func TestRegisterCommitSemantics(t *testing.T) {
	g := rtl.NewGraph()
	a := g.Input("a", 8)
	r := g.NewRegister("r", 8)
	r.SetNext(a)
	g.Output("q", r.Out())
	sim, err := rtl.NewSimulation(g)
	if err != nil {
		t.Fatal(err)
	}

	// out(t) = in(t-1), with registers starting at zero.
	var prev uint64
	for i := uint64(10); i > 0; i-- {
		res := step(t, sim, map[string]uint64{"a": i})
		if got := res.Outputs["q"].Uint64(); got != prev {
			t.Fatalf("cycle %d: q = %d, want %d", res.Cycle, got, prev)
		}
		prev = i
	}
}

func TestResetAllowsRerun(t *testing.T) {
	sim, mem1, mem2 := twoMemories(t)
	run := func() []uint64 {
		var out []uint64
		for cycle := 0; cycle < 27; cycle++ {
			res, err := sim.Step(scenarioInputs(cycle))
			if err != nil {
				t.Fatal(err)
			}
			out = append(out, res.Outputs["q1"].Uint64(), res.Outputs["q2"].Uint64())
		}
		return out
	}

	for _, m := range []*rtl.Memory{mem1, mem2} {
		if err := sim.Configure(m, allNines()); err != nil {
			t.Fatal(err)
		}
	}
	first := run()
	if err := sim.Reset(); err != nil {
		t.Fatal(err)
	}
	second := run()

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("rerun diverged at sample %d: %d != %d", i, first[i], second[i])
		}
	}
}
