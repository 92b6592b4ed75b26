package autodiff

import (
	"github.com/pkg/errors"

	"github.com/born-ml/minigrad/internal/tensor"
)

const (
	unvisited uint8 = iota
	onStack
	done
)

type frame struct {
	t       tensor.Tensor
	parents []tensor.Tensor
	next    int
}

// TopologicalOrder returns every node reachable from terminal through parent
// edges, parents before children, terminal last. Each node appears once,
// at the position of its first discovery; read in reverse the order is a
// valid backward schedule.
//
// The traversal is iterative and keys visitation by arena slot, so it needs
// no per-node flag and cannot overflow the stack on deep graphs.
func TopologicalOrder(terminal tensor.Tensor) ([]tensor.Tensor, error) {
	if err := terminal.Check(); err != nil {
		return nil, err
	}
	g := terminal.Graph()
	state := make([]uint8, g.NumSlots())

	order := make([]tensor.Tensor, 0, g.Live())
	stack := []frame{{t: terminal, parents: terminal.Parents()}}
	state[terminal.ID()] = onStack

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next == len(top.parents) {
			state[top.t.ID()] = done
			order = append(order, top.t)
			stack = stack[:len(stack)-1]
			continue
		}

		p := top.parents[top.next]
		top.next++
		switch state[p.ID()] {
		case done:
		case onStack:
			return nil, errors.Wrapf(tensor.ErrCycle, "tensor %d reached again through its own ancestors", p.ID())
		default:
			state[p.ID()] = onStack
			stack = append(stack, frame{t: p, parents: p.Parents()})
		}
	}
	return order, nil
}
