/*
Package pyrtl models storage elements inside a digital-circuit description
and drives a cycle-based simulator over them.

A circuit is built as a Graph of wires, combinational nets, registers and
addressable storage elements (writable memories and ROMs). A Simulation
then evaluates the circuit one clock cycle at a time: every combinational
wire, including read-port outputs, is a pure function of the cycle's
inputs and the state at the start of the cycle. Register next-values and
memory writes staged during a cycle become visible only after commit, at
the start of the next cycle.

Building and running a small circuit:

	g := pyrtl.NewGraph()
	en := g.Input("en", 1)
	addr := g.Input("addr", 3)
	data := g.Input("data", 32)
	mem := g.NewMemory("mem", 32, 3)
	mem.WriteEnabled(addr, data, en)
	g.Output("q", mem.Read(addr))

	sim, err := pyrtl.NewSimulation(g)
	if err != nil {
		// the graph was rejected
	}
	res, err := sim.Step(map[string]uint64{"en": 1, "addr": 0, "data": 42})

The read port above still reports the pre-write value in the cycle the
write is staged; the written value is visible from the next cycle on.
*/
package pyrtl
