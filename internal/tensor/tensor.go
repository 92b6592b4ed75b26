package tensor

import (
	"fmt"

	"github.com/pkg/errors"
)

// Tensor is a handle to a node in a Graph. The zero value is the null tensor.
// Copying a Tensor copies the handle, not the node; ownership is tracked by
// Retain/Release.
type Tensor struct {
	g   *Graph
	idx int32
	gen uint32
}

// Graph returns the graph owning t (nil for the null tensor).
func (t Tensor) Graph() *Graph {
	return t.g
}

// ID returns t's arena slot index. It identifies the node among live nodes
// of its graph and is always below Graph.NumSlots.
func (t Tensor) ID() int {
	return int(t.idx)
}

// Valid reports whether t refers to a live node.
func (t Tensor) Valid() bool {
	_, ok := t.g.lookup(t)
	return ok
}

// Check returns ErrReleased if t does not refer to a live node.
func (t Tensor) Check() error {
	if _, ok := t.g.lookup(t); !ok {
		return errors.Wrapf(ErrReleased, "tensor %d (generation %d)", t.idx, t.gen)
	}
	return nil
}

// mustNode resolves t or panics: reading a released tensor is a programming
// error.
func (t Tensor) mustNode() *node {
	n, ok := t.g.lookup(t)
	if !ok {
		panic(errors.Wrapf(ErrReleased, "use of tensor %d (generation %d)", t.idx, t.gen))
	}
	return n
}

// Shape returns a copy of the tensor's shape.
func (t Tensor) Shape() Shape {
	return t.mustNode().shape.Clone()
}

// Rank returns the number of dimensions.
func (t Tensor) Rank() int {
	return len(t.mustNode().shape)
}

// Size returns the number of elements.
func (t Tensor) Size() int {
	return t.mustNode().shape.NumElements()
}

// Strides returns a copy of the row-major strides.
func (t Tensor) Strides() []int {
	return append([]int(nil), t.mustNode().strides...)
}

// Data returns the forward values. The slice aliases the tensor's buffer:
// writes are visible to every view of it. Only leaves may be written
// (parameter updates); interior nodes are read by gradient rules.
func (t Tensor) Data() []float64 {
	return t.mustNode().data.data
}

// At returns the element at flat index i.
func (t Tensor) At(i int) (float64, error) {
	n, ok := t.g.lookup(t)
	if !ok {
		return 0, t.Check()
	}
	if i < 0 || i >= len(n.data.data) {
		return 0, NewOpError("At", ErrIndexOutOfBounds,
			fmt.Sprintf("index %d, size %d", i, len(n.data.data)), n.shape.Clone())
	}
	return n.data.data[i], nil
}

// Item returns the single value of a one-element tensor.
func (t Tensor) Item() (float64, error) {
	n, ok := t.g.lookup(t)
	if !ok {
		return 0, t.Check()
	}
	if len(n.data.data) != 1 {
		return 0, NewOpError("Item", ErrShapeMismatch, "tensor has more than one element", n.shape.Clone())
	}
	return n.data.data[0], nil
}

// Grad returns the gradient buffer, or nil if none has been allocated.
func (t Tensor) Grad() []float64 {
	return t.mustNode().grad
}

// EnsureGrad returns the gradient buffer, allocating it zero-filled on first
// use. It returns nil for tensors that do not require gradients.
func (t Tensor) EnsureGrad() []float64 {
	n := t.mustNode()
	if !n.requiresGrad {
		return nil
	}
	if n.grad == nil {
		t.g.allocGrad(n)
	}
	return n.grad
}

// AccumulateGrad adds contrib elementwise into t's gradient. It is a no-op
// for tensors that do not require gradients.
func (t Tensor) AccumulateGrad(contrib []float64) error {
	n, ok := t.g.lookup(t)
	if !ok {
		return t.Check()
	}
	if !n.requiresGrad {
		return nil
	}
	if len(contrib) != n.shape.NumElements() {
		return NewOpError("AccumulateGrad", ErrShapeMismatch,
			fmt.Sprintf("%d gradient values for %d elements", len(contrib), n.shape.NumElements()), n.shape.Clone())
	}
	if n.grad == nil {
		t.g.allocGrad(n)
	}
	for i, v := range contrib {
		n.grad[i] += v
	}
	return nil
}

// ZeroGrad fills the gradient buffer with zeros, if allocated.
func (t Tensor) ZeroGrad() {
	n, ok := t.g.lookup(t)
	if !ok || n.grad == nil {
		return
	}
	clear(n.grad)
}

// RequiresGrad reports whether t participates in gradient accumulation.
func (t Tensor) RequiresGrad() bool {
	return t.mustNode().requiresGrad
}

// SetRequiresGrad marks a leaf as trainable (or not). Turning the flag off
// frees the gradient buffer. Interior nodes cannot change the flag.
func (t Tensor) SetRequiresGrad(requires bool) error {
	n, ok := t.g.lookup(t)
	if !ok {
		return t.Check()
	}
	if len(n.parents) > 0 || n.rule != nil {
		return errors.Errorf("SetRequiresGrad: tensor %d is not a leaf", t.idx)
	}
	if !requires && n.grad != nil {
		t.g.stats.GradBuffersFreed++
		t.g.stats.LiveBytes -= int64(len(n.grad)) * bytesPerElement
		n.grad = nil
	}
	n.requiresGrad = requires
	return nil
}

// IsView reports whether t aliases another tensor's data buffer.
func (t Tensor) IsView() bool {
	return t.mustNode().isView
}

// IsLeaf reports whether t has no parents.
func (t Tensor) IsLeaf() bool {
	return len(t.mustNode().parents) == 0
}

// Parents returns a copy of t's parent handles, in operand order.
func (t Tensor) Parents() []Tensor {
	return append([]Tensor(nil), t.mustNode().parents...)
}

// Rule returns t's gradient rule (nil for leaves).
func (t Tensor) Rule() Rule {
	return t.mustNode().rule
}

// RefCount returns the number of holders of t.
func (t Tensor) RefCount() int {
	return t.mustNode().refs
}

// Name returns the tensor's label.
func (t Tensor) Name() string {
	return t.mustNode().name
}

// SetName labels the tensor (for logs and parameter listings).
func (t Tensor) SetName(name string) Tensor {
	t.mustNode().name = name
	return t
}

// String implements fmt.Stringer.
func (t Tensor) String() string {
	n, ok := t.g.lookup(t)
	if !ok {
		return "Tensor(released)"
	}
	return fmt.Sprintf("Tensor(shape=%v, requires_grad=%t, op=%s)", n.shape, n.requiresGrad, RuleName(n.rule))
}

// Attach registers parents as t's inputs and sets its gradient rule. Each
// parent is retained once. Only tensors that require gradients and have no
// rule yet can be attached, and every parent must be a live tensor of the
// same graph created before t, which keeps the graph acyclic.
func (t Tensor) Attach(rule Rule, parents ...Tensor) error {
	n, ok := t.g.lookup(t)
	if !ok {
		return t.Check()
	}
	if !n.requiresGrad {
		return errors.Wrapf(ErrNoGradient, "attach %s to tensor %d", RuleName(rule), t.idx)
	}
	if n.rule != nil || len(n.parents) > 0 {
		return errors.Errorf("attach %s: tensor %d already has rule %s", RuleName(rule), t.idx, RuleName(n.rule))
	}
	for i, p := range parents {
		if p.g != t.g {
			return errors.Wrapf(ErrForeignGraph, "attach %s: parent %d", RuleName(rule), i)
		}
		pn, ok := t.g.lookup(p)
		if !ok {
			return errors.Wrapf(p.Check(), "attach %s: parent %d", RuleName(rule), i)
		}
		if pn.seq >= n.seq {
			return errors.Wrapf(ErrCycle, "attach %s: parent %d is not older than its child", RuleName(rule), i)
		}
	}

	n.parents = make([]Tensor, len(parents))
	for i, p := range parents {
		Retain(p)
		n.parents[i] = p
	}
	n.rule = rule
	return nil
}

// RunCustomRule invokes t's custom rule with its captured state and then
// disposes the state. A rule runs at most once.
func (t Tensor) RunCustomRule() error {
	n, ok := t.g.lookup(t)
	if !ok {
		return t.Check()
	}
	c, ok := n.rule.(Custom)
	if !ok {
		return errors.Wrapf(ErrUnknownRule, "tensor %d has rule %s, not a custom rule", t.idx, RuleName(n.rule))
	}
	if n.ruleSpent {
		return errors.Wrapf(ErrRuleSpent, "tensor %d (%s)", t.idx, RuleName(c))
	}
	if c.Fn == nil {
		return errors.Wrapf(ErrUnknownRule, "tensor %d: custom rule %q has no function", t.idx, c.Name)
	}
	err := c.Fn(t, c.State)
	t.g.disposeRule(n)
	return err
}

// View creates a tensor with a new shape over t's data buffer. The view does
// not own the data (the buffer stays alive until every holder is released)
// and has its own, independent gradient buffer. It inherits t's
// requires-grad flag; linking gradients back to t is the caller's job
// (see ops.Reshape).
func (t Tensor) View(newShape Shape) (Tensor, error) {
	n, ok := t.g.lookup(t)
	if !ok {
		return Tensor{}, t.Check()
	}
	if err := newShape.Validate(); err != nil {
		return Tensor{}, err
	}
	if newShape.NumElements() != n.shape.NumElements() {
		return Tensor{}, NewOpError("Reshape", ErrShapeMismatch,
			fmt.Sprintf("cannot view %d elements as %d", n.shape.NumElements(), newShape.NumElements()),
			n.shape.Clone(), newShape.Clone())
	}

	return t.g.view(n, newShape, n.requiresGrad), nil
}

// Detach returns a view of t with the same shape that does not require
// gradients. Operations on it are not recorded.
func (t Tensor) Detach() (Tensor, error) {
	n, ok := t.g.lookup(t)
	if !ok {
		return Tensor{}, t.Check()
	}
	return t.g.view(n, n.shape, false), nil
}

func (g *Graph) view(src *node, shape Shape, requiresGrad bool) Tensor {
	src.data.addRef()
	return g.newNode(&node{
		shape:        shape.Clone(),
		data:         src.data,
		requiresGrad: requiresGrad,
		isView:       true,
	})
}
