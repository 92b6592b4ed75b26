package ops

import "github.com/born-ml/minigrad/internal/tensor"

// Mul computes a * b elementwise. Operands must have the same shape.
//
// Backward:
//   - d(a*b)/da = b, so grad_a += outputGrad * b
//   - d(a*b)/db = a, so grad_b += outputGrad * a
func Mul(a, b tensor.Tensor) (tensor.Tensor, error) {
	g, err := checkOperands("Mul", a, b)
	if err != nil {
		return tensor.Tensor{}, err
	}
	if err := sameShape("Mul", a, b); err != nil {
		return tensor.Tensor{}, err
	}

	out, err := g.Create(a.Shape(), anyRequiresGrad(a, b))
	if err != nil {
		return tensor.Tensor{}, err
	}
	aData, bData, outData := a.Data(), b.Data(), out.Data()
	for i := range outData {
		outData[i] = aData[i] * bData[i]
	}

	return record(out, tensor.Generic{Op: tensor.OpMul}, a, b)
}

func mulBackward(out tensor.Tensor, _ tensor.Generic) error {
	grad := out.Grad()
	parents := out.Parents()
	a, b := parents[0], parents[1]
	aData, bData := a.Data(), b.Data()

	// Mul(x, x) lists x twice; each edge adds its own contribution.
	if aGrad := a.EnsureGrad(); aGrad != nil {
		for i, v := range grad {
			aGrad[i] += v * bData[i]
		}
	}
	if bGrad := b.EnsureGrad(); bGrad != nil {
		for i, v := range grad {
			bGrad[i] += v * aData[i]
		}
	}
	return nil
}
