package nn

import (
	"github.com/pkg/errors"

	"github.com/born-ml/minigrad/internal/tensor"
)

// Sequential is a container module that chains multiple modules together.
//
// Each module's output becomes the next module's input. Intermediate
// outputs are released as soon as the next module has consumed them.
//
// Example:
//
//	model := nn.NewSequential(linear1, nn.NewReLU(), linear2)
//	output, err := model.Forward(input)
type Sequential struct {
	modules []Module
}

// NewSequential creates a new Sequential container.
func NewSequential(modules ...Module) *Sequential {
	return &Sequential{
		modules: modules,
	}
}

// Forward applies all modules in sequence.
func (s *Sequential) Forward(input tensor.Tensor) (tensor.Tensor, error) {
	output := input
	for i, module := range s.modules {
		next, err := module.Forward(output)
		if i > 0 {
			output.Release()
		}
		if err != nil {
			return tensor.Tensor{}, errors.WithMessagef(err, "module %d", i)
		}
		output = next
	}
	if len(s.modules) == 0 {
		return input.Retain(), nil
	}
	return output, nil
}

// Parameters returns all trainable parameters from all modules.
func (s *Sequential) Parameters() []*Parameter {
	var params []*Parameter
	for _, module := range s.modules {
		params = append(params, module.Parameters()...)
	}
	return params
}

// Release releases every module.
func (s *Sequential) Release() {
	for _, module := range s.modules {
		module.Release()
	}
}

// Add appends a module to the sequence.
func (s *Sequential) Add(module Module) {
	s.modules = append(s.modules, module)
}

// Len returns the number of modules in the sequence.
func (s *Sequential) Len() int {
	return len(s.modules)
}

// Module returns the module at the given index.
//
// Panics if index is out of bounds.
func (s *Sequential) Module(index int) Module {
	if index < 0 || index >= len(s.modules) {
		panic("Sequential.Module: index out of bounds")
	}
	return s.modules[index]
}
