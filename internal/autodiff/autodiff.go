// Package autodiff implements reverse-mode automatic differentiation over
// the tensor graph.
//
// Operations in package ops record, on each result that requires gradients,
// its parents and a gradient rule. RunBackward schedules the graph reachable
// from a terminal tensor and runs those rules from the terminal back to the
// leaves, accumulating into gradient buffers.
//
// Example:
//
//	g := tensor.NewGraph()
//	x, _ := g.FromSlice([]float64{1, 2, 3}, tensor.Shape{3}, true)
//	y, _ := ops.Mul(x, x)
//	loss, _ := ops.Sum(y)
//	_ = autodiff.RunBackward(loss)
//	fmt.Println(x.Grad()) // [2 4 6]
//	tensor.ReleaseAll(loss, y, x)
package autodiff

import (
	"time"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/minigrad/internal/tensor"
)

// RunBackward computes gradients of terminal with respect to every
// requires-grad tensor it depends on.
//
// If terminal has no gradient yet, every element is seeded with 1 (the
// gradient of a sum over terminal). An existing terminal gradient is used
// as-is, which lets callers backpropagate an arbitrary upstream gradient.
// Gradients accumulate; call ZeroGrad between iterations.
//
// RunBackward never releases tensors. Custom rules are consumed, so running
// it twice over the same loss returns an error wrapping ErrRuleSpent.
func RunBackward(terminal tensor.Tensor) error {
	if err := terminal.Check(); err != nil {
		return err
	}
	if !terminal.RequiresGrad() {
		return errors.Wrapf(tensor.ErrNoGradient, "backward from %v", terminal)
	}

	start := time.Now()
	if terminal.Grad() == nil {
		seed := terminal.EnsureGrad()
		for i := range seed {
			seed[i] = 1
		}
	}

	order, err := TopologicalOrder(terminal)
	if err != nil {
		return err
	}
	for i := len(order) - 1; i >= 0; i-- {
		t := order[i]
		if !t.RequiresGrad() {
			continue
		}
		t.EnsureGrad()
		if err := dispatch(t); err != nil {
			return err
		}
	}

	klog.V(2).InfoS("Backward pass complete",
		"graph", terminal.Graph().ID(), "nodes", len(order), "duration", time.Since(start))
	return nil
}
