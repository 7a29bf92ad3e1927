package pyrtl

import (
	"sort"
	"strings"
)

// sortNets orders the combinational nets so that every net is evaluated
// after all nets driving its inputs. Inputs and register outputs have no
// driver and count as sources. Registers and storage elements are the
// only state-holding elements allowed to break a cycle: a register's next
// wire is not an edge into its output, and a read port observes
// start-of-cycle contents rather than this cycle's writes. Any remaining
// cycle is purely combinational and rejected.
func (g *Graph) sortNets() ([]*net, error) {
	indeg := make([]int, len(g.nets))
	consumers := make([][]int, len(g.wires))
	for i, n := range g.nets {
		for _, in := range n.ins {
			if in.driver != nil {
				indeg[i]++
				consumers[in.id] = append(consumers[in.id], i)
			}
		}
	}

	queue := make([]int, 0, len(g.nets))
	for i := range g.nets {
		if indeg[i] == 0 {
			queue = append(queue, i)
		}
	}

	order := make([]*net, 0, len(g.nets))
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		n := g.nets[i]
		order = append(order, n)
		for _, c := range consumers[n.out.id] {
			indeg[c]--
			if indeg[c] == 0 {
				queue = append(queue, c)
			}
		}
	}

	if len(order) < len(g.nets) {
		return nil, newErrorf(KindGraphConstruction,
			"combinational cycle through wires %s", cycleWires(g.nets, indeg))
	}
	return order, nil
}

// cycleWires names the output wires of the nets left on a cycle, for the
// construction error message.
func cycleWires(nets []*net, indeg []int) string {
	var names []string
	for i, n := range nets {
		if indeg[i] > 0 {
			names = append(names, n.out.name)
		}
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
