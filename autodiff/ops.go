// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package autodiff

import (
	"github.com/born-ml/minigrad/internal/autodiff/ops"
	"github.com/born-ml/minigrad/tensor"
)

// Elementwise

// Add computes a + b. Operands must have the same shape.
func Add(a, b tensor.Tensor) (tensor.Tensor, error) { return ops.Add(a, b) }

// Sub computes a - b. Operands must have the same shape.
func Sub(a, b tensor.Tensor) (tensor.Tensor, error) { return ops.Sub(a, b) }

// Mul computes a * b. Operands must have the same shape.
func Mul(a, b tensor.Tensor) (tensor.Tensor, error) { return ops.Mul(a, b) }

// MulScalar computes t * s.
func MulScalar(t tensor.Tensor, s float64) (tensor.Tensor, error) { return ops.MulScalar(t, s) }

// DivScalar computes t / s.
func DivScalar(t tensor.Tensor, s float64) (tensor.Tensor, error) { return ops.DivScalar(t, s) }

// AddBroadcast adds a vector [C] to every row of a matrix [R, C].
func AddBroadcast(a, b tensor.Tensor) (tensor.Tensor, error) { return ops.AddBroadcast(a, b) }

// SubBroadcast subtracts a vector [C] from every row of a matrix [R, C].
func SubBroadcast(a, b tensor.Tensor) (tensor.Tensor, error) { return ops.SubBroadcast(a, b) }

// Unary

func Exp(t tensor.Tensor) (tensor.Tensor, error)     { return ops.Exp(t) }
func Log(t tensor.Tensor) (tensor.Tensor, error)     { return ops.Log(t) }
func ReLU(t tensor.Tensor) (tensor.Tensor, error)    { return ops.ReLU(t) }
func Sigmoid(t tensor.Tensor) (tensor.Tensor, error) { return ops.Sigmoid(t) }
func Tanh(t tensor.Tensor) (tensor.Tensor, error)    { return ops.Tanh(t) }

// Softmax normalizes each row of a matrix.
func Softmax(t tensor.Tensor) (tensor.Tensor, error) { return ops.Softmax(t) }

// Reductions and shape

// Sum reduces t to a rank-0 scalar.
func Sum(t tensor.Tensor) (tensor.Tensor, error) { return ops.Sum(t) }

// SumAxis sums a matrix along axis 0 (columns) or 1 (rows).
func SumAxis(t tensor.Tensor, axis int) (tensor.Tensor, error) { return ops.SumAxis(t, axis) }

// MaxAxis takes the maximum of a matrix along an axis. It is not differentiable.
func MaxAxis(t tensor.Tensor, axis int) (tensor.Tensor, error) { return ops.MaxAxis(t, axis) }

// MatMul multiplies [M, K] by [K, N].
func MatMul(a, b tensor.Tensor) (tensor.Tensor, error) { return ops.MatMul(a, b) }

// Gather picks one element per row: out[i] = t[i, indices[i]].
func Gather(t, indices tensor.Tensor) (tensor.Tensor, error) { return ops.Gather(t, indices) }

// Reshape returns a view of t with a new shape of the same size.
func Reshape(t tensor.Tensor, shape tensor.Shape) (tensor.Tensor, error) { return ops.Reshape(t, shape) }

// Losses

// MSE is the mean squared error over the first dimension.
func MSE(pred, target tensor.Tensor) (tensor.Tensor, error) { return ops.MSE(pred, target) }

// CrossEntropy is the mean softmax cross-entropy of logits [N, C] against
// class indices [N] or [N, 1].
func CrossEntropy(logits, targets tensor.Tensor) (tensor.Tensor, error) {
	return ops.CrossEntropy(logits, targets)
}
