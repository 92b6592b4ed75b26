package tensor

import "github.com/pkg/errors"

// Retain adds one reference to t. Retaining the zero Tensor is a no-op;
// retaining a released tensor panics.
func Retain(t Tensor) {
	if t.g == nil {
		return
	}
	n, ok := t.g.lookup(t)
	if !ok {
		panic(errors.Wrapf(ErrReleased, "retain of tensor %d", t.idx))
	}
	n.refs++
	t.g.stats.Retains++
}

// Release drops one reference to t. When the count reaches zero the node is
// destroyed: its parents are released by the same protocol, its data buffer
// reference is dropped (the storage is freed once no view aliases it), its
// gradient is freed and unconsumed custom-rule state is disposed.
//
// Releasing the zero Tensor or an already released handle is a no-op.
func Release(t Tensor) {
	if t.g == nil {
		return
	}
	t.g.release(t)
}

// Retain adds one reference to t.
func (t Tensor) Retain() Tensor {
	Retain(t)
	return t
}

// Release drops one reference to t.
func (t Tensor) Release() {
	Release(t)
}

// ReleaseAll releases every tensor in ts.
func ReleaseAll(ts ...Tensor) {
	for _, t := range ts {
		Release(t)
	}
}

// release walks an explicit worklist instead of recursing so that long
// chains of single-owner nodes cannot exhaust the stack.
func (g *Graph) release(t Tensor) {
	pending := []Tensor{t}
	for len(pending) > 0 {
		cur := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		n, ok := g.lookup(cur)
		if !ok {
			continue
		}
		g.stats.Releases++
		n.refs--
		if n.refs > 0 {
			continue
		}
		pending = append(pending, n.parents...)
		g.destroy(cur.idx, n)
	}
}
