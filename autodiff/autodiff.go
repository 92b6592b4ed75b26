// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation.
//
// Operations build the computation graph as they run: each result records
// the rule that differentiates it and holds a reference to its operands.
// RunBackward walks that graph from a scalar terminal in reverse
// topological order and accumulates gradients into every tensor that
// requires them.
//
// Example:
//
//	g := tensor.NewGraph()
//	x, _ := g.FromSlice([]float64{1, 2, 3}, tensor.Shape{3}, true)
//	sq, _ := autodiff.Mul(x, x)
//	loss, _ := autodiff.Sum(sq)
//	_ = autodiff.RunBackward(loss)
//	fmt.Println(x.Grad()) // [2 4 6]
//	tensor.ReleaseAll(loss, sq, x)
package autodiff

import (
	"github.com/born-ml/minigrad/internal/autodiff"
	"github.com/born-ml/minigrad/tensor"
)

// RunBackward computes gradients of terminal with respect to every tensor
// that requires them.
func RunBackward(terminal tensor.Tensor) error {
	return autodiff.RunBackward(terminal)
}

// TopologicalOrder returns the nodes reachable from terminal, parents first.
func TopologicalOrder(terminal tensor.Tensor) ([]tensor.Tensor, error) {
	return autodiff.TopologicalOrder(terminal)
}

// GradCheckResult reports the worst disagreement found by GradCheck.
type GradCheckResult = autodiff.GradCheckResult

// GradCheck compares analytic gradients with central finite differences.
//
// Example:
//
//	res, err := autodiff.GradCheck(func() (tensor.Tensor, []tensor.Tensor, error) {
//	    out, err := autodiff.Sum(x)
//	    return out, nil, err
//	}, []tensor.Tensor{x}, 1e-6)
func GradCheck(f func() (tensor.Tensor, []tensor.Tensor, error), inputs []tensor.Tensor, eps float64) (GradCheckResult, error) {
	return autodiff.GradCheck(f, inputs, eps)
}
