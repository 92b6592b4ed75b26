package ops

import (
	"math"

	"github.com/born-ml/minigrad/internal/tensor"
)

// MaxAxis returns the maximum of a rank-2 tensor along axis 0 (per column)
// or axis 1 (per row). The result never requires gradients and records no
// parents; it is meant for numerically stabilizing other computations.
func MaxAxis(t tensor.Tensor, axis int) (tensor.Tensor, error) {
	g, err := checkOperands("MaxAxis", t)
	if err != nil {
		return tensor.Tensor{}, err
	}
	if err := requireRank("MaxAxis", t, 2); err != nil {
		return tensor.Tensor{}, err
	}
	if err := requireAxis("MaxAxis", t, axis); err != nil {
		return tensor.Tensor{}, err
	}

	rows, cols := dims2(t)
	outShape := tensor.Shape{cols}
	if axis == 1 {
		outShape = tensor.Shape{rows}
	}
	out, err := g.Full(outShape, math.Inf(-1), false)
	if err != nil {
		return tensor.Tensor{}, err
	}

	in, outData := t.Data(), out.Data()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			k := j
			if axis == 1 {
				k = i
			}
			outData[k] = math.Max(outData[k], in[i*cols+j])
		}
	}
	return out, nil
}
