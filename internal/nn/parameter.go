package nn

import (
	"github.com/pkg/errors"

	"github.com/born-ml/minigrad/internal/tensor"
)

// Parameter represents a trainable parameter in a neural network.
//
// A parameter is a named leaf tensor that requires gradients. Its gradient
// buffer is filled by autodiff.RunBackward and consumed by an optimizer.
//
// Example:
//
//	w, _ := g.RandomNormal(tensor.Shape{3, 2}, true)
//	weight := nn.NewParameter("weight", w)
//	grad := weight.Grad() // nil before the first backward pass
type Parameter struct {
	name   string
	tensor tensor.Tensor
}

// NewParameter wraps t as a parameter named name. The parameter takes over
// the caller's reference to t and marks it as requiring gradients.
//
// t must be a live leaf tensor; NewParameter panics otherwise.
func NewParameter(name string, t tensor.Tensor) *Parameter {
	if err := t.Check(); err != nil {
		panic(errors.WithMessagef(err, "parameter %q", name))
	}
	if err := t.SetRequiresGrad(true); err != nil {
		panic(errors.WithMessagef(err, "parameter %q", name))
	}
	t.SetName(name)
	return &Parameter{name: name, tensor: t}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter) Tensor() tensor.Tensor {
	return p.tensor
}

// Grad returns the accumulated gradient, or nil before the first backward pass.
func (p *Parameter) Grad() []float64 {
	return p.tensor.Grad()
}

// ZeroGrad clears the gradient buffer.
//
// This should be called before each training iteration to avoid
// accumulating gradients from previous iterations.
func (p *Parameter) ZeroGrad() {
	p.tensor.ZeroGrad()
}

// Release drops the parameter's reference to its tensor.
func (p *Parameter) Release() {
	p.tensor.Release()
}
