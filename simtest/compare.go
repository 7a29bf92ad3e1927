// Copyright 2026 Marcel Schaible
// Licensed under the MIT license. See license text in the LICENSE file.

// Package simtest provides utility functions for testing simulations.
//
package simtest

import (
	"math/rand"
	"testing"

	pyrtl "github.com/MarcelSchaible/PyRTL"
)

// A Stimulus produces the input assignment for a given cycle.
//
type Stimulus func(cycle uint64) map[string]uint64

// RandomStimulus returns a Stimulus assigning each named input a random
// value fitting its width. widths maps input names to their bit widths.
//
func RandomStimulus(rng *rand.Rand, widths map[string]int) Stimulus {
	return func(uint64) map[string]uint64 {
		in := make(map[string]uint64, len(widths))
		for name, w := range widths {
			in[name] = rng.Uint64() & (^uint64(0) >> uint(64-w))
		}
		return in
	}
}

// CompareOutputs drives both simulations with the same per-cycle inputs
// for the given number of cycles and fails the test on the first cycle
// where any named output diverges. Both circuits must declare the same
// inputs and outputs.
//
func CompareOutputs(t *testing.T, a, b *pyrtl.Simulation, cycles int, stim Stimulus) {
	t.Helper()

	for i := 0; i < cycles; i++ {
		in := stim(a.Cycle())
		ra, err := a.Step(in)
		if err != nil {
			t.Fatalf("cycle %d: first simulation: %v", i, err)
		}
		rb, err := b.Step(in)
		if err != nil {
			t.Fatalf("cycle %d: second simulation: %v", i, err)
		}
		if len(ra.Outputs) != len(rb.Outputs) {
			t.Fatalf("output sets differ: %d vs %d outputs", len(ra.Outputs), len(rb.Outputs))
		}
		for name, va := range ra.Outputs {
			vb, ok := rb.Outputs[name]
			if !ok {
				t.Fatalf("second simulation has no output %q", name)
			}
			if va.Uint64() != vb.Uint64() || va.Width() != vb.Width() {
				t.Fatalf("cycle %d: inputs %v: output %s diverged: %v != %v", i, in, name, va, vb)
			}
		}
	}
}
