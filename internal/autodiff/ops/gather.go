package ops

import (
	"fmt"
	"math"

	"github.com/born-ml/minigrad/internal/tensor"
)

// Gather picks one element per row of a rank-2 tensor:
//
//	out[i] = t[i, indices[i]]
//
// indices is a rank-1 tensor of N integral values in [0, C). It is recorded
// as a parent but never receives a gradient.
//
// Backward: outputGrad[i] is scattered into grad_t[i, indices[i]].
func Gather(t, indices tensor.Tensor) (tensor.Tensor, error) {
	g, err := checkOperands("Gather", t, indices)
	if err != nil {
		return tensor.Tensor{}, err
	}
	if err := requireRank("Gather", t, 2); err != nil {
		return tensor.Tensor{}, err
	}
	if err := requireRank("Gather", indices, 1); err != nil {
		return tensor.Tensor{}, err
	}
	rows, cols := dims2(t)
	if indices.Size() != rows {
		return tensor.Tensor{}, tensor.NewOpError("Gather", tensor.ErrShapeMismatch,
			fmt.Sprintf("%d indices for %d rows", indices.Size(), rows), t.Shape(), indices.Shape())
	}
	idx, err := classIndices("Gather", indices.Data(), cols)
	if err != nil {
		return tensor.Tensor{}, err
	}

	out, err := g.Create(tensor.Shape{rows}, t.RequiresGrad())
	if err != nil {
		return tensor.Tensor{}, err
	}
	in, outData := t.Data(), out.Data()
	for i, k := range idx {
		outData[i] = in[i*cols+k]
	}

	return record(out, tensor.Generic{Op: tensor.OpGather}, t, indices)
}

func gatherBackward(out tensor.Tensor, _ tensor.Generic) error {
	parents := out.Parents()
	t, indices := parents[0], parents[1]
	tGrad := t.EnsureGrad()
	if tGrad == nil {
		return nil
	}
	_, cols := dims2(t)
	idx := indices.Data()
	for i, v := range out.Grad() {
		tGrad[i*cols+int(idx[i])] += v
	}
	return nil
}

// classIndices converts float-encoded indices into ints, rejecting values
// that are not integral or fall outside [0, limit).
func classIndices(op string, values []float64, limit int) ([]int, error) {
	idx := make([]int, len(values))
	for i, v := range values {
		if v != math.Trunc(v) || v < 0 || v >= float64(limit) {
			return nil, tensor.NewOpError(op, tensor.ErrIndexOutOfBounds,
				fmt.Sprintf("index %v at position %d, want an integer in [0, %d)", v, i, limit))
		}
		idx[i] = int(v)
	}
	return idx, nil
}
