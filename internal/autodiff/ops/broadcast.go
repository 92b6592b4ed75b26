package ops

import (
	"fmt"

	"github.com/born-ml/minigrad/internal/tensor"
)

// AddBroadcast adds a rank-1 vector to every row of a rank-2 matrix:
// [N, C] + [C] -> [N, C]. Two operands of the same shape are added
// elementwise with Add.
//
// Backward:
//   - the matrix receives outputGrad
//   - the vector receives outputGrad summed over rows
func AddBroadcast(a, b tensor.Tensor) (tensor.Tensor, error) {
	return broadcastOp("AddBroadcast", tensor.OpAddBroadcast, a, b, 1)
}

// SubBroadcast subtracts a rank-1 vector from every row of a rank-2 matrix.
// Same-shape operands fall back to Sub.
func SubBroadcast(a, b tensor.Tensor) (tensor.Tensor, error) {
	return broadcastOp("SubBroadcast", tensor.OpSubBroadcast, a, b, -1)
}

func broadcastOp(name string, kind tensor.OpKind, a, b tensor.Tensor, sign float64) (tensor.Tensor, error) {
	g, err := checkOperands(name, a, b)
	if err != nil {
		return tensor.Tensor{}, err
	}
	if a.Shape().Equal(b.Shape()) {
		if sign > 0 {
			return Add(a, b)
		}
		return Sub(a, b)
	}
	if a.Rank() != 2 || b.Rank() != 1 {
		return tensor.Tensor{}, tensor.NewOpError(name, tensor.ErrRankMismatch,
			"want a rank-2 matrix and a rank-1 vector", a.Shape(), b.Shape())
	}
	rows, cols := dims2(a)
	if b.Size() != cols {
		return tensor.Tensor{}, tensor.NewOpError(name, tensor.ErrShapeMismatch,
			fmt.Sprintf("vector length %d does not match %d columns", b.Size(), cols), a.Shape(), b.Shape())
	}

	out, err := g.Create(a.Shape(), anyRequiresGrad(a, b))
	if err != nil {
		return tensor.Tensor{}, err
	}
	aData, bData, outData := a.Data(), b.Data(), out.Data()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			outData[i*cols+j] = aData[i*cols+j] + sign*bData[j]
		}
	}

	return record(out, tensor.Generic{Op: kind, Scalar: sign}, a, b)
}

// broadcastBackward serves both AddBroadcast and SubBroadcast; rule.Scalar
// carries the sign applied to the vector.
func broadcastBackward(out tensor.Tensor, rule tensor.Generic) error {
	parents := out.Parents()
	a, b := parents[0], parents[1]
	grad := out.Grad()
	rows, cols := dims2(out)

	if aGrad := a.EnsureGrad(); aGrad != nil {
		for i, v := range grad {
			aGrad[i] += v
		}
	}
	if bGrad := b.EnsureGrad(); bGrad != nil {
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				bGrad[j] += rule.Scalar * grad[i*cols+j]
			}
		}
	}
	return nil
}
