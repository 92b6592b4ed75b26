package ops

import (
	"math"

	"github.com/born-ml/minigrad/internal/tensor"
)

// Softmax normalizes each row of a rank-2 tensor into a probability
// distribution. The row maximum is subtracted before exponentiating.
//
// Backward, per row: grad_x = y * (g - sum(g * y)).
func Softmax(t tensor.Tensor) (tensor.Tensor, error) {
	g, err := checkOperands("Softmax", t)
	if err != nil {
		return tensor.Tensor{}, err
	}
	if err := requireRank("Softmax", t, 2); err != nil {
		return tensor.Tensor{}, err
	}

	out, err := g.Create(t.Shape(), t.RequiresGrad())
	if err != nil {
		return tensor.Tensor{}, err
	}
	rows, cols := dims2(t)
	in, outData := t.Data(), out.Data()
	for i := 0; i < rows; i++ {
		row := in[i*cols : (i+1)*cols]
		dst := outData[i*cols : (i+1)*cols]

		maxVal := math.Inf(-1)
		for _, v := range row {
			maxVal = math.Max(maxVal, v)
		}
		var total float64
		for j, v := range row {
			dst[j] = math.Exp(v - maxVal)
			total += dst[j]
		}
		for j := range dst {
			dst[j] /= total
		}
	}

	return record(out, tensor.Generic{Op: tensor.OpSoftmax}, t)
}

func softmaxBackward(out tensor.Tensor, _ tensor.Generic) error {
	p := out.Parents()[0]
	pGrad := p.EnsureGrad()
	if pGrad == nil {
		return nil
	}
	rows, cols := dims2(out)
	grad, y := out.Grad(), out.Data()
	for i := 0; i < rows; i++ {
		off := i * cols
		var dot float64
		for j := 0; j < cols; j++ {
			dot += grad[off+j] * y[off+j]
		}
		for j := 0; j < cols; j++ {
			pGrad[off+j] += y[off+j] * (grad[off+j] - dot)
		}
	}
	return nil
}
