package ops

import (
	"math"

	"github.com/born-ml/minigrad/internal/tensor"
)

// Tanh computes the hyperbolic tangent elementwise.
//
// Backward: d(tanh(x))/dx = 1 - tanh²(x).
func Tanh(t tensor.Tensor) (tensor.Tensor, error) {
	return unaryOp("Tanh", tensor.OpTanh, t, math.Tanh)
}

func tanhBackward(out tensor.Tensor, _ tensor.Generic) error {
	grad, y := out.Grad(), out.Data()
	if pGrad := out.Parents()[0].EnsureGrad(); pGrad != nil {
		for i, v := range grad {
			pGrad[i] += v * (1 - y[i]*y[i])
		}
	}
	return nil
}
