package ops

import "github.com/born-ml/minigrad/internal/tensor"

// Reshape returns a view of t with a new shape and the same number of
// elements. The view shares t's data but keeps its own gradient buffer;
// when t requires gradients the view records t as its parent and copies
// its gradient through on backward.
func Reshape(t tensor.Tensor, shape tensor.Shape) (tensor.Tensor, error) {
	if _, err := checkOperands("Reshape", t); err != nil {
		return tensor.Tensor{}, err
	}
	out, err := t.View(shape)
	if err != nil {
		return tensor.Tensor{}, err
	}
	return record(out, tensor.Generic{Op: tensor.OpReshape}, t)
}

func reshapeBackward(out tensor.Tensor, _ tensor.Generic) error {
	return out.Parents()[0].AccumulateGrad(out.Grad())
}
