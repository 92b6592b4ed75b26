package tensor

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Error kinds. Match them with errors.Is.
var (
	ErrInvalidShape           = errors.New("invalid shape")
	ErrShapeMismatch          = errors.New("shape mismatch")
	ErrRankMismatch           = errors.New("rank mismatch")
	ErrInvalidAxis            = errors.New("invalid axis")
	ErrUnsupportedTargetShape = errors.New("unsupported target shape")
	ErrIndexOutOfBounds       = errors.New("index out of bounds")

	ErrReleased     = errors.New("tensor already released")
	ErrForeignGraph = errors.New("tensors belong to different graphs")
	ErrNoGradient   = errors.New("tensor does not require gradients")
	ErrCycle        = errors.New("computation graph contains a cycle")
	ErrUnknownRule  = errors.New("no gradient rule registered for operation")
	ErrRuleSpent    = errors.New("custom gradient rule already consumed")
)

// OpError describes a rejected operation call: which operation, which kind of
// failure and the operand shapes involved.
type OpError struct {
	Op     string  // Operation name, e.g. "MatMul"
	Kind   error   // One of the Err* kinds above
	Shapes []Shape // Offending operand shapes, in argument order
	Detail string  // Optional free-form detail
}

// NewOpError builds an *OpError with a stack trace attached.
func NewOpError(op string, kind error, detail string, shapes ...Shape) error {
	return errors.WithStack(&OpError{Op: op, Kind: kind, Shapes: shapes, Detail: detail})
}

// Error implements the error interface.
func (e *OpError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %v", e.Op, e.Kind)
	if len(e.Shapes) > 0 {
		parts := make([]string, len(e.Shapes))
		for i, s := range e.Shapes {
			parts[i] = s.String()
		}
		fmt.Fprintf(&b, " (shapes %s)", strings.Join(parts, " vs "))
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

// Unwrap returns the error kind so errors.Is matches it.
func (e *OpError) Unwrap() error {
	return e.Kind
}
