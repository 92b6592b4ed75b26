package ops

import (
	"math"

	"github.com/born-ml/minigrad/internal/tensor"
)

// Exp computes e^t elementwise.
//
// Backward: d(exp(x))/dx = exp(x), so grad_x += outputGrad * output.
func Exp(t tensor.Tensor) (tensor.Tensor, error) {
	return unaryOp("Exp", tensor.OpExp, t, math.Exp)
}

func expBackward(out tensor.Tensor, _ tensor.Generic) error {
	grad, y := out.Grad(), out.Data()
	if pGrad := out.Parents()[0].EnsureGrad(); pGrad != nil {
		for i, v := range grad {
			pGrad[i] += v * y[i]
		}
	}
	return nil
}

// unaryOp applies f elementwise and records a single-parent rule.
func unaryOp(name string, kind tensor.OpKind, t tensor.Tensor, f func(float64) float64) (tensor.Tensor, error) {
	g, err := checkOperands(name, t)
	if err != nil {
		return tensor.Tensor{}, err
	}

	out, err := g.Create(t.Shape(), t.RequiresGrad())
	if err != nil {
		return tensor.Tensor{}, err
	}
	in, outData := t.Data(), out.Data()
	for i := range outData {
		outData[i] = f(in[i])
	}

	return record(out, tensor.Generic{Op: kind}, t)
}
