package nn

import (
	"github.com/pkg/errors"

	"github.com/born-ml/minigrad/internal/autodiff/ops"
	"github.com/born-ml/minigrad/internal/tensor"
)

// Loss maps predictions and targets to a scalar.
type Loss interface {
	Forward(predictions, targets tensor.Tensor) (tensor.Tensor, error)
}

// MSELoss computes Mean Squared Error loss.
//
// Loss = sum((predictions - targets)²) / N, N being the batch size.
//
// Example:
//
//	criterion := nn.NewMSELoss()
//	loss, err := criterion.Forward(predictions, targets)
type MSELoss struct{}

// NewMSELoss creates a new MSE loss.
func NewMSELoss() *MSELoss {
	return &MSELoss{}
}

// Forward computes the loss.
func (l *MSELoss) Forward(predictions, targets tensor.Tensor) (tensor.Tensor, error) {
	return ops.MSE(predictions, targets)
}

// CrossEntropyLoss computes categorical cross-entropy over raw logits.
//
// Targets hold class indices, shaped [N] or [N, 1].
type CrossEntropyLoss struct{}

// NewCrossEntropyLoss creates a new cross-entropy loss.
func NewCrossEntropyLoss() *CrossEntropyLoss {
	return &CrossEntropyLoss{}
}

// Forward computes the loss.
func (l *CrossEntropyLoss) Forward(logits, targets tensor.Tensor) (tensor.Tensor, error) {
	return ops.CrossEntropy(logits, targets)
}

// NewLoss returns the loss called name ("mse" or "cross_entropy").
func NewLoss(name string) (Loss, error) {
	switch name {
	case "mse":
		return NewMSELoss(), nil
	case "cross_entropy":
		return NewCrossEntropyLoss(), nil
	default:
		return nil, errors.Errorf("unknown loss %q", name)
	}
}

// Accuracy returns the fraction of rows of logits [N, C] whose arg-max
// equals the class index in targets.
func Accuracy(logits, targets tensor.Tensor) float64 {
	shape := logits.Shape()
	n, c := shape[0], shape[1]
	data, idx := logits.Data(), targets.Data()
	correct := 0
	for i := 0; i < n; i++ {
		best := 0
		for j := 1; j < c; j++ {
			if data[i*c+j] > data[i*c+best] {
				best = j
			}
		}
		if best == int(idx[i]) {
			correct++
		}
	}
	return float64(correct) / float64(n)
}
