// Package tensor implements the node storage of the autodiff engine.
//
// Tensors live in a Graph, an arena of node slots. A Tensor value is a small
// handle (graph, slot, generation) rather than a pointer: releasing a node
// recycles its slot under a new generation, so a stale handle is detected
// instead of silently reading someone else's data.
//
// Ownership is explicit. Every constructor returns a tensor with reference
// count 1 owned by the caller; every parent edge holds one more reference;
// Release drops one and destroys the node (and, transitively, parents that
// nobody else holds) when the count reaches zero.
//
// Example:
//
//	g := tensor.NewGraph(tensor.WithSeed(42))
//	x, _ := g.FromSlice([]float64{1, 2, 3}, tensor.Shape{3}, true)
//	defer x.Release()
package tensor

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
	"k8s.io/klog/v2"
)

// Graph is the arena that owns every node created through it.
// A Graph is not safe for concurrent use.
type Graph struct {
	id    uuid.UUID
	name  string
	rng   *rand.Rand
	slots []slot
	free  []int32
	seq   uint64
	stats Stats
}

// slot is one arena cell. gen starts at 1 and is bumped on every release so
// that handles to a previous occupant no longer match.
type slot struct {
	gen  uint32
	node *node
}

// node is the tensor vertex stored in a slot.
type node struct {
	shape        Shape
	strides      []int
	data         *buffer
	grad         []float64
	requiresGrad bool
	parents      []Tensor
	rule         Rule
	ruleSpent    bool
	isView       bool
	refs         int
	seq          uint64
	name         string
}

// Option configures a Graph.
type Option func(*Graph)

// WithSeed seeds the graph's random source (RandomNormal).
func WithSeed(seed int64) Option {
	return func(g *Graph) {
		//nolint:gosec // math/rand is fine for weight initialization
		g.rng = rand.New(rand.NewSource(seed))
	}
}

// WithName sets a human-readable name used in log lines.
func WithName(name string) Option {
	return func(g *Graph) {
		g.name = name
	}
}

// NewGraph creates an empty graph.
func NewGraph(opts ...Option) *Graph {
	g := &Graph{
		id:    uuid.New(),
		slots: make([]slot, 0, 64),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		//nolint:gosec // math/rand is fine for weight initialization
		g.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	klog.V(2).Infof("graph %s (%q) created", g.id, g.name)
	return g
}

// ID returns the graph's unique identifier.
func (g *Graph) ID() uuid.UUID {
	return g.id
}

// Name returns the graph's name (may be empty).
func (g *Graph) Name() string {
	return g.name
}

// NumSlots returns the number of arena slots ever allocated. Slot indices
// (Tensor.ID) are always below this value.
func (g *Graph) NumSlots() int {
	return len(g.slots)
}

// Live returns the number of live nodes.
func (g *Graph) Live() int {
	return len(g.slots) - len(g.free)
}

// Stats returns a snapshot of the allocation counters.
func (g *Graph) Stats() Stats {
	return g.stats
}

// newNode places n into a free slot (or a new one) and returns its handle.
// The node starts with reference count 1.
func (g *Graph) newNode(n *node) Tensor {
	g.seq++
	n.seq = g.seq
	n.refs = 1
	n.strides = n.shape.ComputeStrides()

	var idx int32
	if k := len(g.free); k > 0 {
		idx = g.free[k-1]
		g.free = g.free[:k-1]
	} else {
		g.slots = append(g.slots, slot{gen: 1})
		idx = int32(len(g.slots) - 1) //nolint:gosec // arena never exceeds int32 slots
	}
	g.slots[idx].node = n

	g.stats.NodesCreated++
	return Tensor{g: g, idx: idx, gen: g.slots[idx].gen}
}

// lookup resolves a handle to its node, reporting false for stale or zero handles.
func (g *Graph) lookup(t Tensor) (*node, bool) {
	if g == nil || t.g != g || t.idx < 0 || int(t.idx) >= len(g.slots) {
		return nil, false
	}
	s := g.slots[t.idx]
	if s.node == nil || s.gen != t.gen {
		return nil, false
	}
	return s.node, true
}

// destroy frees everything a node owns and recycles its slot. Parents are the
// caller's responsibility (see release).
func (g *Graph) destroy(idx int32, n *node) {
	g.disposeRule(n)

	if n.data != nil {
		bytes := n.data.byteSize()
		if n.data.release() {
			g.stats.BuffersFreed++
			g.stats.LiveBytes -= bytes
		}
		n.data = nil
	}
	if n.grad != nil {
		g.stats.GradBuffersFreed++
		g.stats.LiveBytes -= int64(len(n.grad)) * bytesPerElement
		n.grad = nil
	}

	if klog.V(4).Enabled() {
		klog.Infof("graph %s: destroyed node %d (%s %v)", g.id, idx, RuleName(n.rule), n.shape)
	}

	n.parents = nil
	n.shape = nil
	n.strides = nil
	n.rule = nil

	g.slots[idx].node = nil
	g.slots[idx].gen++
	g.free = append(g.free, idx)
	g.stats.NodesDestroyed++
}

// disposeRule disposes custom-rule state once and marks the rule spent.
func (g *Graph) disposeRule(n *node) {
	if n.ruleSpent {
		return
	}
	c, ok := n.rule.(Custom)
	if !ok {
		return
	}
	n.ruleSpent = true
	if d, ok := c.State.(Disposer); ok {
		d.Dispose()
	}
}

// allocGrad allocates a zero-filled gradient buffer for n.
func (g *Graph) allocGrad(n *node) {
	size := n.shape.NumElements()
	n.grad = make([]float64, size)
	g.stats.GradBuffersAllocated++
	g.stats.LiveBytes += int64(size) * bytesPerElement
}
