package autodiff

import (
	"math"

	"github.com/pkg/errors"

	"github.com/born-ml/minigrad/internal/tensor"
)

// GradCheckResult reports the worst disagreement found by GradCheck.
type GradCheckResult struct {
	MaxAbsError float64
	MaxRelError float64
	// MaxError is the largest per-element min(absolute, relative) error.
	MaxError float64
	Checked  int
}

// OK reports whether every checked element agreed within tol.
func (r GradCheckResult) OK(tol float64) bool {
	return r.MaxError <= tol
}

// GradCheck compares the analytic gradient of f with central finite
// differences for every element of every input.
//
// f builds a scalar from the inputs and returns it along with any
// intermediates it created; GradCheck releases them all. Inputs must be
// leaves that require gradients; their gradients are zeroed first and left
// holding the analytic gradient on return.
func GradCheck(f func() (tensor.Tensor, []tensor.Tensor, error), inputs []tensor.Tensor, eps float64) (GradCheckResult, error) {
	var res GradCheckResult

	eval := func() (float64, error) {
		out, tmp, err := f()
		defer tensor.ReleaseAll(tmp...)
		if err != nil {
			return 0, err
		}
		defer out.Release()
		return out.Item()
	}

	for _, in := range inputs {
		in.ZeroGrad()
	}
	out, tmp, err := f()
	if err != nil {
		tensor.ReleaseAll(tmp...)
		return res, err
	}
	err = RunBackward(out)
	out.Release()
	tensor.ReleaseAll(tmp...)
	if err != nil {
		return res, err
	}

	for k, in := range inputs {
		analytic := append([]float64(nil), in.Grad()...)
		if analytic == nil {
			return res, errors.Wrapf(tensor.ErrNoGradient, "input %d received no gradient", k)
		}
		data := in.Data()
		for i := range data {
			orig := data[i]
			data[i] = orig + eps
			plus, err := eval()
			if err != nil {
				data[i] = orig
				return res, err
			}
			data[i] = orig - eps
			minus, err := eval()
			data[i] = orig
			if err != nil {
				return res, err
			}

			numeric := (plus - minus) / (2 * eps)
			abs := math.Abs(numeric - analytic[i])
			rel := abs / math.Max(math.Abs(numeric)+math.Abs(analytic[i]), 1e-12)
			res.MaxAbsError = math.Max(res.MaxAbsError, abs)
			res.MaxRelError = math.Max(res.MaxRelError, rel)
			res.MaxError = math.Max(res.MaxError, math.Min(abs, rel))
			res.Checked++
		}
	}
	return res, nil
}
