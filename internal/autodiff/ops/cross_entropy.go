package ops

import (
	"fmt"
	"math"

	"github.com/born-ml/minigrad/internal/tensor"
)

// CrossEntropy computes the mean categorical cross-entropy of logits [N, C]
// against integer class targets:
//
//	loss = mean_i(logsumexp(logits[i]) - logits[i, target_i])
//
// Targets are a [N] tensor of class indices; a single-column [N, 1] tensor
// is flattened first, any other shape fails with ErrUnsupportedTargetShape.
// Every argument is validated before anything is allocated.
//
// Backward: grad_logits += (softmax(logits) - onehot(targets)) / N * outputGrad.
// Targets never receive gradients.
func CrossEntropy(logits, targets tensor.Tensor) (tensor.Tensor, error) {
	g, err := checkOperands("CrossEntropy", logits, targets)
	if err != nil {
		return tensor.Tensor{}, err
	}
	if err := requireRank("CrossEntropy", logits, 2); err != nil {
		return tensor.Tensor{}, err
	}
	n, c := dims2(logits)

	ts := targets.Shape()
	switch {
	case ts.Rank() == 1:
	case ts.Rank() == 2 && ts[1] == 1:
	default:
		return tensor.Tensor{}, tensor.NewOpError("CrossEntropy", tensor.ErrUnsupportedTargetShape,
			"targets must be [N] or [N, 1]", ts)
	}
	if ts[0] != n {
		return tensor.Tensor{}, tensor.NewOpError("CrossEntropy", tensor.ErrShapeMismatch,
			fmt.Sprintf("%d targets for %d rows", ts[0], n), logits.Shape(), ts)
	}
	if _, err := classIndices("CrossEntropy", targets.Data(), c); err != nil {
		return tensor.Tensor{}, err
	}

	ld, err := logits.Detach()
	if err != nil {
		return tensor.Tensor{}, err
	}
	defer ld.Release()
	td, err := targets.Detach()
	if err != nil {
		return tensor.Tensor{}, err
	}
	defer td.Release()
	flat, err := td.View(tensor.Shape{n})
	if err != nil {
		return tensor.Tensor{}, err
	}

	picked, err := Gather(ld, flat)
	if err != nil {
		flat.Release()
		return tensor.Tensor{}, err
	}
	defer picked.Release()
	rowMax, err := MaxAxis(ld, 1)
	if err != nil {
		flat.Release()
		return tensor.Tensor{}, err
	}
	defer rowMax.Release()

	in, mx, pk := ld.Data(), rowMax.Data(), picked.Data()
	var total float64
	for i := 0; i < n; i++ {
		var sumExp float64
		for j := 0; j < c; j++ {
			sumExp += math.Exp(in[i*c+j] - mx[i])
		}
		total += mx[i] + math.Log(sumExp) - pk[i]
	}

	out, err := g.Scalar(total/float64(n), logits.RequiresGrad())
	if err != nil {
		flat.Release()
		return tensor.Tensor{}, err
	}
	if !out.RequiresGrad() {
		flat.Release()
		return out, nil
	}

	probs, err := Softmax(ld)
	if err != nil {
		flat.Release()
		out.Release()
		return tensor.Tensor{}, err
	}
	state := &crossEntropyState{probs: probs, targets: flat, n: n, c: c}
	rule := tensor.Custom{Name: "CrossEntropy", Fn: crossEntropyBackward, State: state}
	if err := out.Attach(rule, logits, targets); err != nil {
		state.Dispose()
		out.Release()
		return tensor.Tensor{}, err
	}
	return out, nil
}

type crossEntropyState struct {
	probs   tensor.Tensor
	targets tensor.Tensor
	n, c    int
}

func (s *crossEntropyState) Dispose() {
	tensor.ReleaseAll(s.probs, s.targets)
}

func crossEntropyBackward(out tensor.Tensor, state any) error {
	s := state.(*crossEntropyState)
	lGrad := out.Parents()[0].EnsureGrad()
	if lGrad == nil {
		return nil
	}
	scale := out.Grad()[0] / float64(s.n)
	probs, idx := s.probs.Data(), s.targets.Data()
	for i := 0; i < s.n; i++ {
		for j := 0; j < s.c; j++ {
			v := probs[i*s.c+j]
			if j == int(idx[i]) {
				v--
			}
			lGrad[i*s.c+j] += v * scale
		}
	}
	return nil
}
