package pyrtl

// A Role describes how a wire is driven.
//
type Role int

// Wire roles.
//
const (
	// RoleInternal wires are driven by a net.
	RoleInternal Role = iota
	// RoleInput wires take their value from the per-cycle input assignment.
	RoleInput
	// RoleOutput wires are internal wires exposed in step results.
	RoleOutput
	// RoleRegister wires carry a register's current value.
	RoleRegister
	// RoleReadPort wires carry a storage element's read-port output.
	RoleReadPort
)

func (r Role) String() string {
	switch r {
	case RoleInput:
		return "input"
	case RoleOutput:
		return "output"
	case RoleRegister:
		return "register"
	case RoleReadPort:
		return "read port"
	}
	return "internal"
}

// A Wire is a named value carrier in a circuit graph. Wires are owned by
// the Graph that created them; nets, registers and storage-element ports
// hold non-owning references.
//
type Wire struct {
	id     int
	name   string
	width  int
	role   Role
	graph  *Graph
	driver *net // nil for inputs and register outputs
}

// Name returns the wire's name. Internal wires have generated names of the
// form __N.
//
func (w *Wire) Name() string { return w.name }

// Width returns the wire's width in bits.
//
func (w *Wire) Width() int { return w.width }

// Role returns the wire's role.
//
func (w *Wire) Role() Role { return w.role }
