// Copyright 2026 Marcel Schaible
// Licensed under the MIT license. See license text in the LICENSE file.

package pyrtl

// A Register is a clocked storage element holding a single value. Its
// output wire carries the current value during evaluation; the value of
// its next wire becomes the new current value at commit time.
//
type Register struct {
	name string
	out  *Wire
	next *Wire
	init uint64
	cur  uint64
}

// Out returns the register's output wire.
//
func (r *Register) Out() *Wire { return r.out }

// Name returns the register's name.
//
func (r *Register) Name() string { return r.name }

// SetNext connects w as the register's next-value expression. Every
// register must have its next wire set before the graph is accepted.
// SetNext panics if called twice or if w's width does not match.
//
func (r *Register) SetNext(w *Wire) {
	if r.next != nil {
		panic(newErrorf(KindGraphConstruction, "register %s: next wire already set", r.name))
	}
	if w == nil {
		panic(newErrorf(KindGraphConstruction, "register %s: nil next wire", r.name))
	}
	if w.width != r.out.width {
		panic(newErrorf(KindGraphConstruction,
			"register %s: next wire %s is %d bits wide, want %d", r.name, w.name, w.width, r.out.width))
	}
	if w.graph != r.out.graph {
		panic(newErrorf(KindGraphConstruction, "register %s: next wire belongs to another graph", r.name))
	}
	r.next = w
}
