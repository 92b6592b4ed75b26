// Package ops is the operation library of the autodiff engine.
//
// Every operation follows one contract:
//   - validate operands (live, same graph, compatible shapes); on failure
//     return an error wrapping a tensor.Err* kind and allocate nothing
//   - allocate the result, whose requires-grad flag is the OR of the operands'
//   - compute the forward values
//   - only if the result requires gradients, attach the parents (retaining
//     each) and the gradient rule for the operation
//
// Primitive operations attach tensor.Generic rules tagged with their
// operation kind; the matching backward formulas live next to each forward
// and are registered in registry.go. Composite operations (MSE,
// CrossEntropy) attach tensor.Custom rules that capture their own
// intermediate tensors.
//
// The caller owns the returned tensor and must Release it.
package ops

import (
	"fmt"

	"github.com/born-ml/minigrad/internal/tensor"
)

// checkOperands verifies that all operands are live and share a graph.
func checkOperands(op string, ts ...tensor.Tensor) (*tensor.Graph, error) {
	var g *tensor.Graph
	for i, t := range ts {
		if err := t.Check(); err != nil {
			return nil, tensor.NewOpError(op, tensor.ErrReleased, fmt.Sprintf("operand %d", i))
		}
		if g == nil {
			g = t.Graph()
		} else if t.Graph() != g {
			return nil, tensor.NewOpError(op, tensor.ErrForeignGraph, fmt.Sprintf("operand %d", i))
		}
	}
	return g, nil
}

// sameShape checks that a and b have identical shapes.
func sameShape(op string, a, b tensor.Tensor) error {
	if !a.Shape().Equal(b.Shape()) {
		return tensor.NewOpError(op, tensor.ErrShapeMismatch, "", a.Shape(), b.Shape())
	}
	return nil
}

// requireRank checks the rank of t.
func requireRank(op string, t tensor.Tensor, rank int) error {
	if t.Rank() != rank {
		return tensor.NewOpError(op, tensor.ErrRankMismatch,
			fmt.Sprintf("expected rank %d, got %d", rank, t.Rank()), t.Shape())
	}
	return nil
}

// requireAxis checks that axis is a valid axis of a rank-2 tensor.
func requireAxis(op string, t tensor.Tensor, axis int) error {
	if axis < 0 || axis > 1 {
		return tensor.NewOpError(op, tensor.ErrInvalidAxis,
			fmt.Sprintf("axis %d, want 0 or 1", axis), t.Shape())
	}
	return nil
}

// anyRequiresGrad reports whether any operand requires gradients.
func anyRequiresGrad(ts ...tensor.Tensor) bool {
	for _, t := range ts {
		if t.RequiresGrad() {
			return true
		}
	}
	return false
}

// record attaches rule and parents to out when out requires gradients.
// On failure out is released, so the caller never sees a half-built node.
func record(out tensor.Tensor, rule tensor.Rule, parents ...tensor.Tensor) (tensor.Tensor, error) {
	if !out.RequiresGrad() {
		return out, nil
	}
	if err := out.Attach(rule, parents...); err != nil {
		out.Release()
		return tensor.Tensor{}, err
	}
	return out, nil
}

// dims2 returns the dimensions of a rank-2 tensor.
func dims2(t tensor.Tensor) (rows, cols int) {
	s := t.Shape()
	return s[0], s[1]
}
