package ops

import "github.com/born-ml/minigrad/internal/tensor"

// GradientFunc accumulates the gradient contributions of out, whose rule is
// rule, into out's parents. out's gradient is allocated when it runs.
type GradientFunc func(out tensor.Tensor, rule tensor.Generic) error

var gradients = map[tensor.OpKind]GradientFunc{
	tensor.OpAdd:          addBackward,
	tensor.OpSub:          subBackward,
	tensor.OpMul:          mulBackward,
	tensor.OpMulScalar:    mulScalarBackward,
	tensor.OpDivScalar:    divScalarBackward,
	tensor.OpSum:          sumBackward,
	tensor.OpSumAxis:      sumAxisBackward,
	tensor.OpMatMul:       matMulBackward,
	tensor.OpExp:          expBackward,
	tensor.OpLog:          logBackward,
	tensor.OpSoftmax:      softmaxBackward,
	tensor.OpAddBroadcast: broadcastBackward,
	tensor.OpSubBroadcast: broadcastBackward,
	tensor.OpGather:       gatherBackward,
	tensor.OpReshape:      reshapeBackward,
	tensor.OpReLU:         reluBackward,
	tensor.OpSigmoid:      sigmoidBackward,
	tensor.OpTanh:         tanhBackward,
}

// GradientFor returns the backward function registered for kind.
func GradientFor(kind tensor.OpKind) (GradientFunc, bool) {
	fn, ok := gradients[kind]
	return fn, ok
}
