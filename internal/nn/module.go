// Package nn implements neural network modules on top of the autodiff engine.
//
// This package provides building blocks for small feed-forward networks:
//   - Module interface: Base interface for all NN components
//   - Parameter: Trainable leaf tensors with gradient tracking
//   - Linear: Fully connected layer
//   - Activations: ReLU, Sigmoid, Tanh
//   - Loss functions: MSE, CrossEntropy
//   - Sequential: Container for stacking layers
//
// Ownership follows package tensor: Forward returns a tensor owned by the
// caller and never consumes its input. Intermediates created inside Forward
// are released before it returns; the graph edges keep them alive until the
// caller releases the output.
package nn

import (
	"github.com/born-ml/minigrad/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Modules can be composed to build larger networks:
//
//	l1, _ := nn.NewLinear(g, 4, 16)
//	l2, _ := nn.NewLinear(g, 16, 3)
//	model := nn.NewSequential(l1, nn.NewReLU(), l2)
type Module interface {
	// Forward computes the output of the module given an input tensor.
	//
	// For example, Linear expects [batch_size, in_features].
	Forward(input tensor.Tensor) (tensor.Tensor, error)

	// Parameters returns all trainable parameters of this module.
	// Returns an empty slice for modules without trainable parameters.
	Parameters() []*Parameter

	// Release drops the module's hold on its parameters.
	Release()
}

// CountParameters returns the number of scalar weights in params.
func CountParameters(params []*Parameter) int {
	n := 0
	for _, p := range params {
		n += p.Tensor().Size()
	}
	return n
}
