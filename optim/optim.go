// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimizers that update nn parameters from the
// gradients left by autodiff.RunBackward.
//
// Example:
//
//	opt := optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: 0.1, Momentum: 0.9})
//	for range epochs {
//	    opt.ZeroGrad()
//	    // forward, loss, autodiff.RunBackward(loss)
//	    _ = opt.Step()
//	}
package optim

import (
	"github.com/born-ml/minigrad/internal/optim"
	"github.com/born-ml/minigrad/nn"
)

// Optimizer is the common interface for all optimizers.
type Optimizer = optim.Optimizer

// New returns the optimizer called name: sgd or adam.
func New(name string, params []*nn.Parameter, lr, momentum float64) (Optimizer, error) {
	return optim.New(name, params, lr, momentum)
}

// SGD is stochastic gradient descent with optional momentum.
type SGD = optim.SGD

// SGDConfig contains configuration for SGD.
type SGDConfig = optim.SGDConfig

// NewSGD creates a new SGD optimizer.
func NewSGD(params []*nn.Parameter, config SGDConfig) *SGD {
	return optim.NewSGD(params, config)
}

// Adam is the Adam optimizer.
type Adam = optim.Adam

// AdamConfig contains configuration for Adam.
type AdamConfig = optim.AdamConfig

// NewAdam creates a new Adam optimizer.
func NewAdam(params []*nn.Parameter, config AdamConfig) *Adam {
	return optim.NewAdam(params, config)
}
