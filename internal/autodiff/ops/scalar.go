package ops

import "github.com/born-ml/minigrad/internal/tensor"

// MulScalar computes t * s.
func MulScalar(t tensor.Tensor, s float64) (tensor.Tensor, error) {
	return scalarOp("MulScalar", tensor.OpMulScalar, t, s, func(v float64) float64 { return v * s })
}

// DivScalar computes t / s. Division by zero follows IEEE-754 (±Inf, NaN).
func DivScalar(t tensor.Tensor, s float64) (tensor.Tensor, error) {
	return scalarOp("DivScalar", tensor.OpDivScalar, t, s, func(v float64) float64 { return v / s })
}

func scalarOp(name string, kind tensor.OpKind, t tensor.Tensor, s float64, f func(float64) float64) (tensor.Tensor, error) {
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

	return record(out, tensor.Generic{Op: kind, Scalar: s}, t)
}

// mulScalarBackward: grad_t += outputGrad * s.
func mulScalarBackward(out tensor.Tensor, rule tensor.Generic) error {
	grad := out.Grad()
	if pGrad := out.Parents()[0].EnsureGrad(); pGrad != nil {
		for i, v := range grad {
			pGrad[i] += v * rule.Scalar
		}
	}
	return nil
}

// divScalarBackward: grad_t += outputGrad / s.
func divScalarBackward(out tensor.Tensor, rule tensor.Generic) error {
	grad := out.Grad()
	if pGrad := out.Parents()[0].EnsureGrad(); pGrad != nil {
		for i, v := range grad {
			pGrad[i] += v / rule.Scalar
		}
	}
	return nil
}
