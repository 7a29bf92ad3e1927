// Copyright 2026 Marcel Schaible
// Licensed under the MIT license. See license text in the LICENSE file.

// Command pyrtl runs small demonstration circuits on the simulator.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	pyrtl "github.com/MarcelSchaible/PyRTL"
	"github.com/MarcelSchaible/PyRTL/trace"
)

var (
	csvPath      string
	dbPath       string
	memSnapshots bool
)

var rootCmd = &cobra.Command{
	Use:   "pyrtl",
	Short: "pyrtl runs demonstration circuits on the cycle-based simulator.",
	Long: `pyrtl runs demonstration circuits on the cycle-based simulator: ` +
		`a two-memory write/read walkthrough and a ROM lookup table.`,
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the two-memory write/read walkthrough.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDemo()
	},
}

var romCmd = &cobra.Command{
	Use:   "rom",
	Short: "Run the ROM lookup-table demonstration.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runROM()
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&csvPath, "trace", "", "record a CSV trace to the given file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "record a SQLite trace to the given database")
	rootCmd.PersistentFlags().BoolVar(&memSnapshots, "mem-snapshots", false, "include memory contents in traces")
	rootCmd.AddCommand(demoCmd, romCmd)
	if err := rootCmd.Execute(); err != nil {
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

func simOptions() []pyrtl.Option {
	var opts []pyrtl.Option
	if csvPath != "" {
		t := trace.NewCSVTracer(csvPath)
		t.Init()
		opts = append(opts, pyrtl.WithTracer(t))
	}
	if dbPath != "" {
		t := trace.NewSQLiteTracer(dbPath)
		t.Init()
		opts = append(opts, pyrtl.WithTracer(t))
	}
	if memSnapshots {
		opts = append(opts, pyrtl.WithMemorySnapshots())
	}
	return opts
}

// runDemo drives two memories with the same data and enable: mem1 is
// addressed directly, mem2 through a register that increments on every
// enabled write. After eight enabled writes both hold {0:1, ..., 7:8}.
func runDemo() error {
	g := pyrtl.NewGraph()
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

	sim, err := pyrtl.NewSimulation(g, simOptions()...)
	if err != nil {
		return err
	}

	initial := make(map[uint64]uint64)
	for addr := uint64(0); addr < 8; addr++ {
		initial[addr] = 9
	}
	if err := sim.Configure(mem1, initial); err != nil {
		return err
	}
	if err := sim.Configure(mem2, initial); err != nil {
		return err
	}

	enables := []uint64{0, 0, 1, 1, 1, 1, 1, 1, 1, 1}
	waddrs := []uint64{0, 0, 0, 1, 2, 3, 4, 5, 6, 7}
	wdatas := []uint64{0, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 9, 9}

	for cycle := 0; cycle < 27; cycle++ {
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

		res, err := sim.Step(in)
		if err != nil {
			return err
		}
		for _, c := range res.Conflicts {
			log.Print(c)
		}
		fmt.Printf("cycle %2d: en=%d waddr=%d wdata=%-2d raddr=%d  q1=%-2d q2=%-2d addr_ok=%d\n",
			res.Cycle, in["en"], in["waddr"], in["wdata"], in["raddr"],
			res.Outputs["q1"].Uint64(), res.Outputs["q2"].Uint64(), res.Outputs["addr_ok"].Uint64())
	}

	for _, m := range []*pyrtl.Memory{mem1, mem2} {
		contents, err := sim.InspectMemory(m)
		if err != nil {
			return err
		}
		fmt.Printf("%s:", m.Name())
		for addr := uint64(0); addr < 8; addr++ {
			fmt.Printf(" [%d]=%d", addr, contents[addr].Uint64())
		}
		fmt.Println()
	}
	return nil
}

// runROM reads the whole range of a function-defined lookup table.
func runROM() error {
	g := pyrtl.NewGraph()
	raddr := g.Input("raddr", 4)
	rom, err := g.NewROMFunc("table", 5, 4, func(addr uint64) uint64 {
		return 31 - 2*addr
	})
	if err != nil {
		return err
	}
	g.Output("q", rom.Read(raddr))

	sim, err := pyrtl.NewSimulation(g, simOptions()...)
	if err != nil {
		return err
	}

	for addr := uint64(0); addr < 16; addr++ {
		res, err := sim.Step(map[string]uint64{"raddr": addr})
		if err != nil {
			return err
		}
		fmt.Printf("table[%2d] = %d\n", addr, res.Outputs["q"].Uint64())
	}
	return nil
}

func init() {
	log.SetOutput(os.Stderr)
	log.SetFlags(0)
}
