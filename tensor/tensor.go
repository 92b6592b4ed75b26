// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor is the public API of the minigrad tensor store.
//
// Tensors live in a Graph and are addressed by small handles. Every tensor
// returned by a constructor or an operation is owned by the caller, who must
// Release it; a released handle reports ErrReleased instead of touching
// recycled memory.
//
// Example:
//
//	g := tensor.NewGraph(tensor.WithSeed(42))
//	x, _ := g.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{2, 2}, true)
//	defer x.Release()
//	fmt.Println(x.Shape(), x.Data())
package tensor

import (
	"github.com/born-ml/minigrad/internal/tensor"
)

// Tensor is a handle to a node in a Graph.
type Tensor = tensor.Tensor

// Graph is the arena that owns tensors. It is not safe for concurrent use.
type Graph = tensor.Graph

// Option configures a Graph.
type Option = tensor.Option

// Shape is a list of dimension sizes.
type Shape = tensor.Shape

// Stats counts allocations in a Graph.
type Stats = tensor.Stats

// OpError describes a failed operation. Match its kind with errors.Is.
type OpError = tensor.OpError

// Gradient rules.
type (
	Rule     = tensor.Rule
	OpKind   = tensor.OpKind
	Generic  = tensor.Generic
	Custom   = tensor.Custom
	GradFunc = tensor.GradFunc
	Disposer = tensor.Disposer
)

// Error kinds.
var (
	ErrInvalidShape           = tensor.ErrInvalidShape
	ErrShapeMismatch          = tensor.ErrShapeMismatch
	ErrRankMismatch           = tensor.ErrRankMismatch
	ErrInvalidAxis            = tensor.ErrInvalidAxis
	ErrUnsupportedTargetShape = tensor.ErrUnsupportedTargetShape
	ErrIndexOutOfBounds       = tensor.ErrIndexOutOfBounds
	ErrReleased               = tensor.ErrReleased
	ErrForeignGraph           = tensor.ErrForeignGraph
	ErrNoGradient             = tensor.ErrNoGradient
	ErrCycle                  = tensor.ErrCycle
	ErrUnknownRule            = tensor.ErrUnknownRule
	ErrRuleSpent              = tensor.ErrRuleSpent
)

// NewGraph creates an empty graph.
func NewGraph(opts ...Option) *Graph {
	return tensor.NewGraph(opts...)
}

// WithSeed seeds the graph's random source.
func WithSeed(seed int64) Option {
	return tensor.WithSeed(seed)
}

// WithName names the graph in logs and metrics.
func WithName(name string) Option {
	return tensor.WithName(name)
}

// Retain adds a reference to t.
func Retain(t Tensor) {
	tensor.Retain(t)
}

// Release drops a reference to t, destroying it (and parents nobody else
// holds) when the count reaches zero.
func Release(t Tensor) {
	tensor.Release(t)
}

// ReleaseAll releases every tensor in ts.
func ReleaseAll(ts ...Tensor) {
	tensor.ReleaseAll(ts...)
}
