package ops

import "github.com/born-ml/minigrad/internal/tensor"

// Sum reduces every element of t into a rank-0 scalar.
//
// Backward: the scalar output gradient is broadcast to every element.
func Sum(t tensor.Tensor) (tensor.Tensor, error) {
	g, err := checkOperands("Sum", t)
	if err != nil {
		return tensor.Tensor{}, err
	}

	out, err := g.Create(tensor.Shape{}, t.RequiresGrad())
	if err != nil {
		return tensor.Tensor{}, err
	}
	var total float64
	for _, v := range t.Data() {
		total += v
	}
	out.Data()[0] = total

	return record(out, tensor.Generic{Op: tensor.OpSum}, t)
}

func sumBackward(out tensor.Tensor, _ tensor.Generic) error {
	g0 := out.Grad()[0]
	if pGrad := out.Parents()[0].EnsureGrad(); pGrad != nil {
		for i := range pGrad {
			pGrad[i] += g0
		}
	}
	return nil
}
