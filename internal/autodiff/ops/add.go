package ops

import "github.com/born-ml/minigrad/internal/tensor"

// Add computes a + b elementwise. Operands must have the same shape.
//
// Backward:
//   - d(a+b)/da = 1, so grad_a += outputGrad
//   - d(a+b)/db = 1, so grad_b += outputGrad
func Add(a, b tensor.Tensor) (tensor.Tensor, error) {
	g, err := checkOperands("Add", a, b)
	if err != nil {
		return tensor.Tensor{}, err
	}
	if err := sameShape("Add", a, b); err != nil {
		return tensor.Tensor{}, err
	}

	out, err := g.Create(a.Shape(), anyRequiresGrad(a, b))
	if err != nil {
		return tensor.Tensor{}, err
	}
	aData, bData, outData := a.Data(), b.Data(), out.Data()
	for i := range outData {
		outData[i] = aData[i] + bData[i]
	}

	return record(out, tensor.Generic{Op: tensor.OpAdd}, a, b)
}

// addBackward passes the output gradient unchanged to both operands.
func addBackward(out tensor.Tensor, _ tensor.Generic) error {
	grad := out.Grad()
	for _, p := range out.Parents() {
		if pGrad := p.EnsureGrad(); pGrad != nil {
			for i, v := range grad {
				pGrad[i] += v
			}
		}
	}
	return nil
}
