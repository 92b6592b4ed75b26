package ops

import (
	"math"

	"github.com/born-ml/minigrad/internal/tensor"
)

// Log computes the natural logarithm elementwise. Non-positive inputs yield
// -Inf or NaN as in math.Log.
//
// Backward: d(log(x))/dx = 1/x, so grad_x += outputGrad / x.
func Log(t tensor.Tensor) (tensor.Tensor, error) {
	return unaryOp("Log", tensor.OpLog, t, math.Log)
}

func logBackward(out tensor.Tensor, _ tensor.Generic) error {
	p := out.Parents()[0]
	grad, x := out.Grad(), p.Data()
	if pGrad := p.EnsureGrad(); pGrad != nil {
		for i, v := range grad {
			pGrad[i] += v / x[i]
		}
	}
	return nil
}
