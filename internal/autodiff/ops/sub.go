package ops

import "github.com/born-ml/minigrad/internal/tensor"

// Sub computes a - b elementwise. Operands must have the same shape.
//
// Backward:
//   - d(a-b)/da = 1, so grad_a += outputGrad
//   - d(a-b)/db = -1, so grad_b -= outputGrad
func Sub(a, b tensor.Tensor) (tensor.Tensor, error) {
	g, err := checkOperands("Sub", a, b)
	if err != nil {
		return tensor.Tensor{}, err
	}
	if err := sameShape("Sub", a, b); err != nil {
		return tensor.Tensor{}, err
	}

	out, err := g.Create(a.Shape(), anyRequiresGrad(a, b))
	if err != nil {
		return tensor.Tensor{}, err
	}
	aData, bData, outData := a.Data(), b.Data(), out.Data()
	for i := range outData {
		outData[i] = aData[i] - bData[i]
	}

	return record(out, tensor.Generic{Op: tensor.OpSub}, a, b)
}

func subBackward(out tensor.Tensor, _ tensor.Generic) error {
	grad := out.Grad()
	parents := out.Parents()

	if aGrad := parents[0].EnsureGrad(); aGrad != nil {
		for i, v := range grad {
			aGrad[i] += v
		}
	}
	if bGrad := parents[1].EnsureGrad(); bGrad != nil {
		for i, v := range grad {
			bGrad[i] -= v
		}
	}
	return nil
}
