package nn

import (
	"fmt"

	"github.com/born-ml/minigrad/internal/autodiff/ops"
	"github.com/born-ml/minigrad/internal/tensor"
)

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation: y = x @ W + b
// where:
//   - x is the input tensor with shape [batch_size, in_features]
//   - W is the weight matrix with shape [in_features, out_features]
//   - b is the bias vector with shape [out_features]
//   - y is the output tensor with shape [batch_size, out_features]
//
// Weights are initialized using Xavier/Glorot initialization.
// Biases are initialized to zeros.
//
// Example:
//
//	layer, err := nn.NewLinear(g, 784, 128)
//	output, err := layer.Forward(input) // shape: [32, 128]
type Linear struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter // [in_features, out_features]
	bias        *Parameter // [out_features]
}

// LinearOption configures NewLinear.
type LinearOption func(*linearConfig)

type linearConfig struct {
	normalInit bool
}

// WithNormalInit draws weights from N(0, 1) instead of Xavier.
func WithNormalInit() LinearOption {
	return func(c *linearConfig) { c.normalInit = true }
}

// NewLinear creates a new Linear layer whose parameters live in g.
func NewLinear(g *tensor.Graph, inFeatures, outFeatures int, opts ...LinearOption) (*Linear, error) {
	var cfg linearConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	weightShape := tensor.Shape{inFeatures, outFeatures}
	var (
		w   tensor.Tensor
		err error
	)
	if cfg.normalInit {
		w, err = Normal(g, weightShape)
	} else {
		w, err = Xavier(g, inFeatures, outFeatures, weightShape)
	}
	if err != nil {
		return nil, err
	}

	b, err := Zeros(g, tensor.Shape{outFeatures})
	if err != nil {
		w.Release()
		return nil, err
	}

	return &Linear{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter("weight", w),
		bias:        NewParameter("bias", b),
	}, nil
}

// Forward computes x @ W + b.
//
// Input shape: [batch_size, in_features]
// Output shape: [batch_size, out_features]
func (l *Linear) Forward(input tensor.Tensor) (tensor.Tensor, error) {
	if err := input.Check(); err != nil {
		return tensor.Tensor{}, err
	}
	inputShape := input.Shape()
	if len(inputShape) != 2 {
		return tensor.Tensor{}, tensor.NewOpError("Linear", tensor.ErrRankMismatch,
			"expected 2D input [batch, features]", inputShape)
	}
	if inputShape[1] != l.inFeatures {
		return tensor.Tensor{}, tensor.NewOpError("Linear", tensor.ErrShapeMismatch,
			fmt.Sprintf("expected input with %d features, got %d", l.inFeatures, inputShape[1]), inputShape)
	}

	h, err := ops.MatMul(input, l.weight.Tensor())
	if err != nil {
		return tensor.Tensor{}, err
	}
	defer h.Release()
	return ops.AddBroadcast(h, l.bias.Tensor())
}

// Parameters returns [weight, bias].
func (l *Linear) Parameters() []*Parameter {
	return []*Parameter{l.weight, l.bias}
}

// Release releases the weight and bias.
func (l *Linear) Release() {
	l.weight.Release()
	l.bias.Release()
}

// Weight returns the weight parameter.
func (l *Linear) Weight() *Parameter {
	return l.weight
}

// Bias returns the bias parameter.
func (l *Linear) Bias() *Parameter {
	return l.bias
}

// InFeatures returns the number of input features.
func (l *Linear) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the number of output features.
func (l *Linear) OutFeatures() int {
	return l.outFeatures
}
