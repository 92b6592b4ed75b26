// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network building blocks for minigrad.
//
// Example:
//
//	g := tensor.NewGraph(tensor.WithSeed(42))
//	l1, _ := nn.NewLinear(g, 2, 4)
//	l2, _ := nn.NewLinear(g, 4, 2)
//	model := nn.NewSequential(l1, nn.NewReLU(), l2)
//	defer model.Release()
//
//	logits, _ := model.Forward(x)
//	loss, _ := nn.NewCrossEntropyLoss().Forward(logits, y)
package nn

import (
	"github.com/born-ml/minigrad/internal/nn"
	"github.com/born-ml/minigrad/tensor"
)

// Module is the common interface of all network components.
type Module = nn.Module

// Parameter is a named trainable leaf tensor.
type Parameter = nn.Parameter

// NewParameter wraps t as a trainable parameter. t is marked as requiring
// gradients and the parameter takes ownership of it.
func NewParameter(name string, t tensor.Tensor) *Parameter {
	return nn.NewParameter(name, t)
}

// CountParameters returns the total number of scalar values in params.
func CountParameters(params []*Parameter) int {
	return nn.CountParameters(params)
}

// Layers

// Linear is a fully connected layer computing x·W + b.
type Linear = nn.Linear

// LinearOption configures NewLinear.
type LinearOption = nn.LinearOption

// WithNormalInit draws weights from N(0, 1) instead of Xavier.
func WithNormalInit() LinearOption {
	return nn.WithNormalInit()
}

// NewLinear creates a linear layer with Xavier-initialized weights and zero
// bias.
func NewLinear(g *tensor.Graph, inFeatures, outFeatures int, opts ...LinearOption) (*Linear, error) {
	return nn.NewLinear(g, inFeatures, outFeatures, opts...)
}

// Sequential chains modules.
type Sequential = nn.Sequential

// NewSequential creates a Sequential container.
func NewSequential(modules ...Module) *Sequential {
	return nn.NewSequential(modules...)
}

// Activations

type (
	ReLU    = nn.ReLU
	Sigmoid = nn.Sigmoid
	Tanh    = nn.Tanh
)

func NewReLU() *ReLU       { return nn.NewReLU() }
func NewSigmoid() *Sigmoid { return nn.NewSigmoid() }
func NewTanh() *Tanh       { return nn.NewTanh() }

// NewActivation returns the activation called name: relu, sigmoid or tanh.
func NewActivation(name string) (Module, error) {
	return nn.NewActivation(name)
}

// Losses

// Loss computes a scalar loss from predictions and targets.
type Loss = nn.Loss

type (
	MSELoss          = nn.MSELoss
	CrossEntropyLoss = nn.CrossEntropyLoss
)

func NewMSELoss() *MSELoss                   { return nn.NewMSELoss() }
func NewCrossEntropyLoss() *CrossEntropyLoss { return nn.NewCrossEntropyLoss() }

// NewLoss returns the loss called name: mse or cross_entropy.
func NewLoss(name string) (Loss, error) {
	return nn.NewLoss(name)
}

// Accuracy returns the fraction of rows of logits whose arg-max matches the
// class index in targets.
func Accuracy(logits, targets tensor.Tensor) float64 {
	return nn.Accuracy(logits, targets)
}

// Initializers

// Xavier returns a tensor drawn from the Xavier/Glorot uniform distribution.
func Xavier(g *tensor.Graph, fanIn, fanOut int, shape tensor.Shape) (tensor.Tensor, error) {
	return nn.Xavier(g, fanIn, fanOut, shape)
}
