package ops

import (
	"math"

	"github.com/born-ml/minigrad/internal/tensor"
)

// Sigmoid computes 1 / (1 + e^-x) elementwise.
//
// Backward: d(σ(x))/dx = σ(x) * (1 - σ(x)), computed from the output.
func Sigmoid(t tensor.Tensor) (tensor.Tensor, error) {
	return unaryOp("Sigmoid", tensor.OpSigmoid, t, sigmoid)
}

// sigmoid is numerically stable for large |x|.
func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

func sigmoidBackward(out tensor.Tensor, _ tensor.Generic) error {
	grad, y := out.Grad(), out.Data()
	if pGrad := out.Parents()[0].EnsureGrad(); pGrad != nil {
		for i, v := range grad {
			pGrad[i] += v * y[i] * (1 - y[i])
		}
	}
	return nil
}
