package autodiff

import (
	"github.com/pkg/errors"

	"github.com/born-ml/minigrad/internal/autodiff/ops"
	"github.com/born-ml/minigrad/internal/tensor"
)

// dispatch runs t's gradient rule. Leaves have no rule and are skipped.
func dispatch(t tensor.Tensor) error {
	switch r := t.Rule().(type) {
	case nil:
		return nil
	case tensor.Generic:
		fn, ok := ops.GradientFor(r.Op)
		if !ok {
			return errors.Wrapf(tensor.ErrUnknownRule, "no gradient registered for %s", r.Op)
		}
		return errors.WithMessagef(fn(t, r), "backward of %s", r.Op)
	case tensor.Custom:
		return t.RunCustomRule()
	default:
		return errors.Wrapf(tensor.ErrUnknownRule, "rule %T", r)
	}
}
