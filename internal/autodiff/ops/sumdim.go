package ops

import "github.com/born-ml/minigrad/internal/tensor"

// SumAxis sums a rank-2 tensor along one axis.
//
//	axis 0: [rows, cols] -> [cols] (column sums)
//	axis 1: [rows, cols] -> [rows] (row sums)
//
// Backward: each input element receives the gradient of the sum it fed.
func SumAxis(t tensor.Tensor, axis int) (tensor.Tensor, error) {
	g, err := checkOperands("SumAxis", t)
	if err != nil {
		return tensor.Tensor{}, err
	}
	if err := requireRank("SumAxis", t, 2); err != nil {
		return tensor.Tensor{}, err
	}
	if err := requireAxis("SumAxis", t, axis); err != nil {
		return tensor.Tensor{}, err
	}

	rows, cols := dims2(t)
	outShape := tensor.Shape{cols}
	if axis == 1 {
		outShape = tensor.Shape{rows}
	}
	out, err := g.Create(outShape, t.RequiresGrad())
	if err != nil {
		return tensor.Tensor{}, err
	}

	in, outData := t.Data(), out.Data()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if axis == 0 {
				outData[j] += in[i*cols+j]
			} else {
				outData[i] += in[i*cols+j]
			}
		}
	}

	return record(out, tensor.Generic{Op: tensor.OpSumAxis, Axis: axis}, t)
}

func sumAxisBackward(out tensor.Tensor, rule tensor.Generic) error {
	p := out.Parents()[0]
	pGrad := p.EnsureGrad()
	if pGrad == nil {
		return nil
	}
	grad := out.Grad()
	rows, cols := dims2(p)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if rule.Axis == 0 {
				pGrad[i*cols+j] += grad[j]
			} else {
				pGrad[i*cols+j] += grad[i]
			}
		}
	}
	return nil
}
