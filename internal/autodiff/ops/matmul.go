package ops

import (
	"fmt"

	"github.com/born-ml/minigrad/internal/tensor"
)

// MatMul computes the matrix product a @ b of a [m, k] and a [k, n] tensor.
//
// Backward:
//   - d(A@B)/dA = outputGrad @ B^T
//   - d(A@B)/dB = A^T @ outputGrad
func MatMul(a, b tensor.Tensor) (tensor.Tensor, error) {
	g, err := checkOperands("MatMul", a, b)
	if err != nil {
		return tensor.Tensor{}, err
	}
	if a.Rank() != 2 || b.Rank() != 2 {
		return tensor.Tensor{}, tensor.NewOpError("MatMul", tensor.ErrRankMismatch,
			"both operands must be rank 2", a.Shape(), b.Shape())
	}
	m, k := dims2(a)
	k2, n := dims2(b)
	if k != k2 {
		return tensor.Tensor{}, tensor.NewOpError("MatMul", tensor.ErrShapeMismatch,
			fmt.Sprintf("inner dimensions %d and %d differ", k, k2), a.Shape(), b.Shape())
	}

	out, err := g.Create(tensor.Shape{m, n}, anyRequiresGrad(a, b))
	if err != nil {
		return tensor.Tensor{}, err
	}
	aData, bData, outData := a.Data(), b.Data(), out.Data()
	for i := 0; i < m; i++ {
		for p := 0; p < k; p++ {
			av := aData[i*k+p]
			for j := 0; j < n; j++ {
				outData[i*n+j] += av * bData[p*n+j]
			}
		}
	}

	return record(out, tensor.Generic{Op: tensor.OpMatMul}, a, b)
}

func matMulBackward(out tensor.Tensor, _ tensor.Generic) error {
	parents := out.Parents()
	a, b := parents[0], parents[1]
	m, k := dims2(a)
	_, n := dims2(b)
	grad, aData, bData := out.Grad(), a.Data(), b.Data()

	// grad_a[i,p] += sum_j grad[i,j] * b[p,j]
	if aGrad := a.EnsureGrad(); aGrad != nil {
		for i := 0; i < m; i++ {
			for p := 0; p < k; p++ {
				var s float64
				for j := 0; j < n; j++ {
					s += grad[i*n+j] * bData[p*n+j]
				}
				aGrad[i*k+p] += s
			}
		}
	}
	// grad_b[p,j] += sum_i a[i,p] * grad[i,j]
	if bGrad := b.EnsureGrad(); bGrad != nil {
		for i := 0; i < m; i++ {
			for p := 0; p < k; p++ {
				av := aData[i*k+p]
				for j := 0; j < n; j++ {
					bGrad[p*n+j] += av * grad[i*n+j]
				}
			}
		}
	}
	return nil
}
