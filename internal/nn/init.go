package nn

import (
	"math"

	"github.com/born-ml/minigrad/internal/tensor"
)

// Xavier (Glorot) initialization for weights.
//
// Initializes weights with values drawn from a uniform distribution:
// U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out)))
//
// This initialization helps maintain variance of activations across layers.
func Xavier(g *tensor.Graph, fanIn, fanOut int, shape tensor.Shape) (tensor.Tensor, error) {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	return g.RandomUniform(shape, -bound, bound, true)
}

// Normal initializes weights from N(0, 1), as the original C trainer does.
func Normal(g *tensor.Graph, shape tensor.Shape) (tensor.Tensor, error) {
	return g.RandomNormal(shape, true)
}

// Zeros creates a trainable tensor filled with zeros.
//
// This is commonly used for bias initialization.
func Zeros(g *tensor.Graph, shape tensor.Shape) (tensor.Tensor, error) {
	return g.Zeros(shape, true)
}
