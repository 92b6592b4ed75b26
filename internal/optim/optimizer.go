// Package optim implements optimization algorithms for training neural networks.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation
//
// Optimizers read the gradient buffers that autodiff.RunBackward fills on
// parameter leaves and update the parameter data in place.
//
// Example usage:
//
//	optimizer := optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: 0.01})
//
//	for epoch := range epochs {
//	    optimizer.ZeroGrad()
//	    output, _ := model.Forward(input)
//	    loss, _ := criterion.Forward(output, targets)
//	    _ = autodiff.RunBackward(loss)
//	    _ = optimizer.Step()
//	    tensor.ReleaseAll(loss, output)
//	}
package optim

import (
	"github.com/pkg/errors"

	"github.com/born-ml/minigrad/internal/nn"
)

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Step applies gradient updates to all parameters in place.
	// Parameters that received no gradient are skipped.
	Step() error

	// ZeroGrad clears all parameter gradients.
	//
	// This should be called before each backward pass to prevent
	// gradient accumulation from previous iterations.
	ZeroGrad()

	// LR returns the current learning rate.
	LR() float64
}

// New returns the optimizer called name ("sgd" or "adam").
func New(name string, params []*nn.Parameter, lr, momentum float64) (Optimizer, error) {
	switch name {
	case "", "sgd":
		return NewSGD(params, SGDConfig{LR: lr, Momentum: momentum}), nil
	case "adam":
		return NewAdam(params, AdamConfig{LR: lr}), nil
	default:
		return nil, errors.Errorf("unknown optimizer %q", name)
	}
}

// gradient returns param's gradient, or nil when it did not take part in the
// last backward pass. Released parameters are an error.
func gradient(param *nn.Parameter) ([]float64, error) {
	if err := param.Tensor().Check(); err != nil {
		return nil, errors.WithMessagef(err, "parameter %q", param.Name())
	}
	return param.Grad(), nil
}

func zeroGrad(params []*nn.Parameter) {
	for _, param := range params {
		param.ZeroGrad()
	}
}
