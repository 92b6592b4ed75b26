package autodiff_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/minigrad/internal/autodiff"
	"github.com/born-ml/minigrad/internal/autodiff/ops"
	"github.com/born-ml/minigrad/internal/tensor"
)

func TestRunBackward_SumGradIsOne(t *testing.T) {
	g := tensor.NewGraph(tensor.WithSeed(1))
	x, err := g.RandomNormal(tensor.Shape{3, 4}, true)
	require.NoError(t, err)
	s, err := ops.Sum(x)
	require.NoError(t, err)

	require.NoError(t, autodiff.RunBackward(s))
	for i, v := range x.Grad() {
		assert.Equal(t, 1.0, v, "element %d", i)
	}
	tensor.ReleaseAll(s, x)
}

func TestRunBackward_Square(t *testing.T) {
	g := tensor.NewGraph()
	x, err := g.FromSlice([]float64{1, 2, 3}, tensor.Shape{3}, true)
	require.NoError(t, err)
	y, err := ops.Mul(x, x)
	require.NoError(t, err)
	s, err := ops.Sum(y)
	require.NoError(t, err)

	require.NoError(t, autodiff.RunBackward(s))
	assert.Equal(t, []float64{2, 4, 6}, x.Grad())
	assert.Equal(t, 3, x.RefCount(), "one external hold and two edges from y")

	tensor.ReleaseAll(s, y, x)
}

func TestRunBackward_Diamond(t *testing.T) {
	g := tensor.NewGraph()
	p, err := g.FromSlice([]float64{1, 2}, tensor.Shape{2}, true)
	require.NoError(t, err)
	q, err := ops.MulScalar(p, 3)
	require.NoError(t, err)
	r, err := ops.MulScalar(p, 5)
	require.NoError(t, err)
	sum, err := ops.Add(q, r)
	require.NoError(t, err)
	out, err := ops.Sum(sum)
	require.NoError(t, err)

	order, err := autodiff.TopologicalOrder(out)
	require.NoError(t, err)
	require.Len(t, order, 5)
	seen := 0
	for _, n := range order {
		if n == p {
			seen++
		}
	}
	assert.Equal(t, 1, seen, "shared parent scheduled once")
	assert.Equal(t, p, order[0])
	assert.Equal(t, out, order[len(order)-1])

	require.NoError(t, autodiff.RunBackward(out))
	assert.Equal(t, []float64{8, 8}, p.Grad())

	tensor.ReleaseAll(out, sum, r, q, p)
	assert.Equal(t, 0, g.Stats().LiveNodes())
}

func TestRunBackward_UsesExistingSeed(t *testing.T) {
	g := tensor.NewGraph()
	x, err := g.FromSlice([]float64{1, 2}, tensor.Shape{2}, true)
	require.NoError(t, err)
	y, err := ops.MulScalar(x, 2)
	require.NoError(t, err)

	require.NoError(t, y.AccumulateGrad([]float64{10, 100}))
	require.NoError(t, autodiff.RunBackward(y))
	assert.Equal(t, []float64{20, 200}, x.Grad())

	tensor.ReleaseAll(y, x)
}

func TestRunBackward_Errors(t *testing.T) {
	g := tensor.NewGraph()
	x, err := g.Ones(tensor.Shape{2}, false)
	require.NoError(t, err)
	s, err := ops.Sum(x)
	require.NoError(t, err)
	err = autodiff.RunBackward(s)
	assert.True(t, errors.Is(err, tensor.ErrNoGradient))

	s.Release()
	assert.True(t, errors.Is(autodiff.RunBackward(s), tensor.ErrReleased))
	x.Release()
}

func TestRunBackward_SecondPassOverCustomRule(t *testing.T) {
	g := tensor.NewGraph()
	pred, err := g.FromSlice([]float64{1, 2}, tensor.Shape{2}, true)
	require.NoError(t, err)
	target, err := g.FromSlice([]float64{0, 0}, tensor.Shape{2}, false)
	require.NoError(t, err)
	loss, err := ops.MSE(pred, target)
	require.NoError(t, err)

	require.NoError(t, autodiff.RunBackward(loss))
	// (2/N) * diff with N = 2
	assert.InDeltaSlice(t, []float64{1, 2}, pred.Grad(), 1e-12)

	err = autodiff.RunBackward(loss)
	assert.True(t, errors.Is(err, tensor.ErrRuleSpent))

	tensor.ReleaseAll(loss, pred, target)
	st := g.Stats()
	assert.Equal(t, 0, st.LiveNodes())
	assert.Equal(t, 0, st.LiveBuffers())
	assert.Equal(t, 0, st.LiveGradBuffers())
}

func TestRunBackward_UnknownGenericRule(t *testing.T) {
	g := tensor.NewGraph()
	x, err := g.Ones(tensor.Shape{1}, true)
	require.NoError(t, err)
	out, err := g.Create(tensor.Shape{1}, true)
	require.NoError(t, err)
	require.NoError(t, out.Attach(tensor.Generic{Op: tensor.OpNone}, x))

	err = autodiff.RunBackward(out)
	assert.True(t, errors.Is(err, tensor.ErrUnknownRule))
	tensor.ReleaseAll(out, x)
}

func TestRunBackward_NoLeaksAfterTraining(t *testing.T) {
	g := tensor.NewGraph(tensor.WithSeed(9))
	w, err := g.RandomNormal(tensor.Shape{3, 2}, true)
	require.NoError(t, err)
	b, err := g.Zeros(tensor.Shape{2}, true)
	require.NoError(t, err)
	x, err := g.RandomNormal(tensor.Shape{4, 3}, false)
	require.NoError(t, err)
	y, err := g.FromSlice([]float64{0, 1, 1, 0}, tensor.Shape{4}, false)
	require.NoError(t, err)

	baseline := g.Stats()
	for step := 0; step < 3; step++ {
		w.ZeroGrad()
		b.ZeroGrad()

		h, err := ops.MatMul(x, w)
		require.NoError(t, err)
		logits, err := ops.AddBroadcast(h, b)
		require.NoError(t, err)
		act, err := ops.Tanh(logits)
		require.NoError(t, err)
		loss, err := ops.CrossEntropy(act, y)
		require.NoError(t, err)

		require.NoError(t, autodiff.RunBackward(loss))
		tensor.ReleaseAll(loss, act, logits, h)
	}

	st := g.Stats()
	assert.Equal(t, baseline.LiveNodes(), st.LiveNodes())
	assert.Equal(t, baseline.LiveBuffers(), st.LiveBuffers())
	assert.Equal(t, 2, st.LiveGradBuffers(), "only w and b keep gradients")
	assert.Equal(t, 1, w.RefCount())
	assert.Equal(t, st.Retains+st.NodesCreated, st.Releases+st.LiveNodes())

	tensor.ReleaseAll(w, b, x, y)
	st = g.Stats()
	assert.Equal(t, 0, st.LiveNodes())
	assert.Equal(t, st.BuffersAllocated, st.BuffersFreed)
	assert.Equal(t, int64(0), st.LiveBytes)
}
