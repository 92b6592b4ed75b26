package tensor

import "fmt"

// OpKind identifies the primitive operation that produced a node. It selects
// the generic gradient rule at backward time.
type OpKind int

// Primitive operation kinds.
const (
	OpNone OpKind = iota
	OpAdd
	OpSub
	OpMul
	OpMulScalar
	OpDivScalar
	OpSum
	OpSumAxis
	OpMatMul
	OpExp
	OpLog
	OpSoftmax
	OpAddBroadcast
	OpSubBroadcast
	OpGather
	OpReshape
	OpReLU
	OpSigmoid
	OpTanh
)

var opKindNames = map[OpKind]string{
	OpNone:         "None",
	OpAdd:          "Add",
	OpSub:          "Sub",
	OpMul:          "Mul",
	OpMulScalar:    "MulScalar",
	OpDivScalar:    "DivScalar",
	OpSum:          "Sum",
	OpSumAxis:      "SumAxis",
	OpMatMul:       "MatMul",
	OpExp:          "Exp",
	OpLog:          "Log",
	OpSoftmax:      "Softmax",
	OpAddBroadcast: "AddBroadcast",
	OpSubBroadcast: "SubBroadcast",
	OpGather:       "Gather",
	OpReshape:      "Reshape",
	OpReLU:         "ReLU",
	OpSigmoid:      "Sigmoid",
	OpTanh:         "Tanh",
}

// String returns the operation name.
func (k OpKind) String() string {
	if name, ok := opKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("OpKind(%d)", int(k))
}

// Rule is the backward behavior attached to a node. It is a closed sum type:
// the only implementations are Generic and Custom.
type Rule interface {
	isRule()
}

// Generic selects a built-in gradient rule by the kind of the operation that
// produced the node. Scalar and Axis carry the operation's attributes.
type Generic struct {
	Op     OpKind
	Scalar float64 // MulScalar / DivScalar operand
	Axis   int     // SumAxis reduction axis
}

func (Generic) isRule() {}

// GradFunc computes the gradient contributions of out to its parents and
// accumulates them into the parents' gradient buffers. state is the value
// captured when the rule was attached.
type GradFunc func(out Tensor, state any) error

// Custom pairs a gradient function with the auxiliary state it needs.
// Composite operations (losses) use it to keep their intermediate tensors.
//
// If State implements Disposer, it is disposed exactly once: right after the
// rule runs, or when the node is destroyed if the rule never ran.
type Custom struct {
	Name  string
	Fn    GradFunc
	State any
}

func (Custom) isRule() {}

// Disposer is implemented by custom-rule state that holds resources
// (typically retained tensors) which must be released.
type Disposer interface {
	Dispose()
}

// RuleName returns a short human-readable description of a rule.
func RuleName(r Rule) string {
	switch r := r.(type) {
	case nil:
		return "leaf"
	case Generic:
		return r.Op.String()
	case Custom:
		if r.Name != "" {
			return "custom:" + r.Name
		}
		return "custom"
	default:
		return fmt.Sprintf("%T", r)
	}
}
