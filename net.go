package pyrtl

type netOp int

const (
	opConst netOp = iota
	opBuf
	opNot
	opAnd
	opOr
	opXor
	opAdd
	opSub
	opEq
	opLt
	opMux
	opConcat
	opSlice
	opRead
)

func (op netOp) String() string {
	switch op {
	case opConst:
		return "const"
	case opBuf:
		return "buf"
	case opNot:
		return "not"
	case opAnd:
		return "and"
	case opOr:
		return "or"
	case opXor:
		return "xor"
	case opAdd:
		return "add"
	case opSub:
		return "sub"
	case opEq:
		return "eq"
	case opLt:
		return "lt"
	case opMux:
		return "mux"
	case opConcat:
		return "concat"
	case opSlice:
		return "slice"
	case opRead:
		return "read"
	}
	return "?"
}

// A net is a combinational node: it computes its single output wire from
// its input wires. Read-port nets additionally reference the port they
// serve; their value is a pure function of the current address and the
// storage contents as of the start of the cycle.
type net struct {
	op     netOp
	ins    []*Wire
	out    *Wire
	cval   uint64    // opConst
	lo, hi int       // opSlice
	port   *ReadPort // opRead
}

// eval computes the net's output from the given wire values. Reading a
// wire that has not been produced yet is an evaluation-order violation:
// an internal bug, reported by panicking rather than by error return.
func (n *net) eval(vals []BitVector, valid []bool) BitVector {
	for _, in := range n.ins {
		if !valid[in.id] {
			panic("pyrtl: evaluation order violation: wire " + in.name + " read before it was produced")
		}
	}
	switch n.op {
	case opConst:
		return bv(n.out.width, n.cval)
	case opBuf:
		return vals[n.ins[0].id]
	case opNot:
		return vals[n.ins[0].id].Not()
	case opAnd:
		return vals[n.ins[0].id].And(vals[n.ins[1].id])
	case opOr:
		return vals[n.ins[0].id].Or(vals[n.ins[1].id])
	case opXor:
		return vals[n.ins[0].id].Xor(vals[n.ins[1].id])
	case opAdd:
		return vals[n.ins[0].id].Add(vals[n.ins[1].id])
	case opSub:
		return vals[n.ins[0].id].Sub(vals[n.ins[1].id])
	case opEq:
		return vals[n.ins[0].id].Eq(vals[n.ins[1].id])
	case opLt:
		return vals[n.ins[0].id].Lt(vals[n.ins[1].id])
	case opMux:
		if vals[n.ins[0].id].Uint64() == 0 {
			return vals[n.ins[1].id]
		}
		return vals[n.ins[2].id]
	case opConcat:
		return vals[n.ins[0].id].Concat(vals[n.ins[1].id])
	case opSlice:
		return vals[n.ins[0].id].Slice(n.lo, n.hi)
	case opRead:
		addr := vals[n.ins[0].id].Uint64()
		return bv(n.out.width, n.port.mem.read(addr))
	}
	panic("pyrtl: unknown net op")
}
