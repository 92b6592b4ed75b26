package ops

import "github.com/born-ml/minigrad/internal/tensor"

// ReLU computes max(0, x) elementwise.
//
// Backward: grad_x += outputGrad where x > 0; the subgradient at 0 is 0.
func ReLU(t tensor.Tensor) (tensor.Tensor, error) {
	return unaryOp("ReLU", tensor.OpReLU, t, func(v float64) float64 {
		if v > 0 {
			return v
		}
		return 0
	})
}

func reluBackward(out tensor.Tensor, _ tensor.Generic) error {
	p := out.Parents()[0]
	grad, x := out.Grad(), p.Data()
	if pGrad := p.EnsureGrad(); pGrad != nil {
		for i, v := range grad {
			if x[i] > 0 {
				pGrad[i] += v
			}
		}
	}
	return nil
}
