package nn

import (
	"github.com/pkg/errors"

	"github.com/born-ml/minigrad/internal/autodiff/ops"
	"github.com/born-ml/minigrad/internal/tensor"
)

// ReLU is a Rectified Linear Unit activation module.
//
// Applies the element-wise function: f(x) = max(0, x)
type ReLU struct{}

// NewReLU creates a new ReLU activation module.
func NewReLU() *ReLU {
	return &ReLU{}
}

// Forward applies ReLU activation: f(x) = max(0, x).
func (r *ReLU) Forward(input tensor.Tensor) (tensor.Tensor, error) {
	return ops.ReLU(input)
}

// Parameters returns an empty slice (ReLU has no trainable parameters).
func (r *ReLU) Parameters() []*Parameter {
	return nil
}

// Release is a no-op.
func (r *ReLU) Release() {}

// Sigmoid is a sigmoid activation module.
//
// Applies the element-wise function: σ(x) = 1 / (1 + exp(-x))
type Sigmoid struct{}

// NewSigmoid creates a new Sigmoid activation module.
func NewSigmoid() *Sigmoid {
	return &Sigmoid{}
}

// Forward applies Sigmoid activation.
func (s *Sigmoid) Forward(input tensor.Tensor) (tensor.Tensor, error) {
	return ops.Sigmoid(input)
}

// Parameters returns an empty slice (Sigmoid has no trainable parameters).
func (s *Sigmoid) Parameters() []*Parameter {
	return nil
}

// Release is a no-op.
func (s *Sigmoid) Release() {}

// Tanh is a hyperbolic tangent activation module.
type Tanh struct{}

// NewTanh creates a new Tanh activation module.
func NewTanh() *Tanh {
	return &Tanh{}
}

// Forward applies Tanh activation.
func (t *Tanh) Forward(input tensor.Tensor) (tensor.Tensor, error) {
	return ops.Tanh(input)
}

// Parameters returns an empty slice (Tanh has no trainable parameters).
func (t *Tanh) Parameters() []*Parameter {
	return nil
}

// Release is a no-op.
func (t *Tanh) Release() {}

// NewActivation returns the activation module called name
// ("relu", "sigmoid" or "tanh").
func NewActivation(name string) (Module, error) {
	switch name {
	case "relu":
		return NewReLU(), nil
	case "sigmoid":
		return NewSigmoid(), nil
	case "tanh":
		return NewTanh(), nil
	default:
		return nil, errors.Errorf("unknown activation %q", name)
	}
}
