package ops

import "github.com/born-ml/minigrad/internal/tensor"

// MSE computes the mean squared error between predictions and targets:
//
//	loss = sum((pred - target)²) / N
//
// where N is the size of the leading dimension (1 for scalars). The result
// is a rank-0 tensor with a custom rule that captures pred - target.
//
// Backward:
//   - grad_pred += (2/N) * (pred - target) * outputGrad
//   - grad_target -= the same, when targets require gradients
func MSE(pred, target tensor.Tensor) (tensor.Tensor, error) {
	g, err := checkOperands("MSE", pred, target)
	if err != nil {
		return tensor.Tensor{}, err
	}
	if err := sameShape("MSE", pred, target); err != nil {
		return tensor.Tensor{}, err
	}

	n := 1
	if pred.Rank() > 0 {
		n = pred.Shape()[0]
	}

	// The forward pass runs on detached views so the intermediates record
	// no parents; the loss node owns the only gradient edge.
	pd, err := pred.Detach()
	if err != nil {
		return tensor.Tensor{}, err
	}
	defer pd.Release()
	td, err := target.Detach()
	if err != nil {
		return tensor.Tensor{}, err
	}
	defer td.Release()

	diff, err := Sub(pd, td)
	if err != nil {
		return tensor.Tensor{}, err
	}
	var sq float64
	for _, v := range diff.Data() {
		sq += v * v
	}

	out, err := g.Scalar(sq/float64(n), anyRequiresGrad(pred, target))
	if err != nil {
		diff.Release()
		return tensor.Tensor{}, err
	}
	if !out.RequiresGrad() {
		diff.Release()
		return out, nil
	}

	state := &mseState{diff: diff, n: float64(n)}
	rule := tensor.Custom{Name: "MSE", Fn: mseBackward, State: state}
	if err := out.Attach(rule, pred, target); err != nil {
		state.Dispose()
		out.Release()
		return tensor.Tensor{}, err
	}
	return out, nil
}

type mseState struct {
	diff tensor.Tensor
	n    float64
}

func (s *mseState) Dispose() {
	s.diff.Release()
}

func mseBackward(out tensor.Tensor, state any) error {
	s := state.(*mseState)
	scale := 2 / s.n * out.Grad()[0]
	diff := s.diff.Data()
	parents := out.Parents()

	if pGrad := parents[0].EnsureGrad(); pGrad != nil {
		for i, d := range diff {
			pGrad[i] += scale * d
		}
	}
	if tGrad := parents[1].EnsureGrad(); tGrad != nil {
		for i, d := range diff {
			tGrad[i] -= scale * d
		}
	}
	return nil
}
