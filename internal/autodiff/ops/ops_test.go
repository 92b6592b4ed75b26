package ops_test

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/minigrad/internal/autodiff/ops"
	"github.com/born-ml/minigrad/internal/tensor"
)

func fromSlice(t *testing.T, g *tensor.Graph, values []float64, shape tensor.Shape, requiresGrad bool) tensor.Tensor {
	t.Helper()
	x, err := g.FromSlice(values, shape, requiresGrad)
	require.NoError(t, err)
	return x
}

func TestElementwise_Forward(t *testing.T) {
	g := tensor.NewGraph()
	a := fromSlice(t, g, []float64{1, 2, 3}, tensor.Shape{3}, false)
	b := fromSlice(t, g, []float64{4, 5, 6}, tensor.Shape{3}, false)
	defer tensor.ReleaseAll(a, b)

	tests := []struct {
		name string
		op   func(a, b tensor.Tensor) (tensor.Tensor, error)
		want []float64
	}{
		{"Add", ops.Add, []float64{5, 7, 9}},
		{"Sub", ops.Sub, []float64{-3, -3, -3}},
		{"Mul", ops.Mul, []float64{4, 10, 18}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.op(a, b)
			require.NoError(t, err)
			defer out.Release()
			assert.Equal(t, tt.want, out.Data())
			assert.False(t, out.RequiresGrad())
			assert.True(t, out.IsLeaf(), "no parents recorded without gradients")
		})
	}
}

func TestAdd_ShapeMismatchAllocatesNothing(t *testing.T) {
	g := tensor.NewGraph()
	a, err := g.Ones(tensor.Shape{2, 3}, true)
	require.NoError(t, err)
	b, err := g.Ones(tensor.Shape{3, 2}, true)
	require.NoError(t, err)
	defer tensor.ReleaseAll(a, b)

	before := g.Stats()
	_, err = ops.Add(a, b)
	require.Error(t, err)
	assert.True(t, errors.Is(err, tensor.ErrShapeMismatch))

	var opErr *tensor.OpError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, "Add", opErr.Op)

	after := g.Stats()
	assert.Equal(t, before.BuffersAllocated, after.BuffersAllocated)
	assert.Equal(t, before.NodesCreated, after.NodesCreated)
	assert.Equal(t, 1, a.RefCount())
}

func TestOps_RejectReleasedAndForeignOperands(t *testing.T) {
	g1, g2 := tensor.NewGraph(), tensor.NewGraph()
	a, err := g1.Ones(tensor.Shape{2}, false)
	require.NoError(t, err)
	b, err := g2.Ones(tensor.Shape{2}, false)
	require.NoError(t, err)
	defer tensor.ReleaseAll(a, b)

	_, err = ops.Mul(a, b)
	assert.True(t, errors.Is(err, tensor.ErrForeignGraph))

	dead, err := g1.Ones(tensor.Shape{2}, false)
	require.NoError(t, err)
	dead.Release()
	_, err = ops.Sum(dead)
	assert.True(t, errors.Is(err, tensor.ErrReleased))
}

func TestRecordedParents(t *testing.T) {
	g := tensor.NewGraph()
	x := fromSlice(t, g, []float64{1, 2}, tensor.Shape{2}, true)
	c := fromSlice(t, g, []float64{3, 4}, tensor.Shape{2}, false)

	y, err := ops.Mul(x, c)
	require.NoError(t, err)
	assert.True(t, y.RequiresGrad())
	assert.Equal(t, tensor.Generic{Op: tensor.OpMul}, y.Rule())
	assert.Equal(t, 2, x.RefCount())
	assert.Equal(t, 2, c.RefCount())

	tensor.ReleaseAll(x, c, y)
	assert.Equal(t, 0, g.Stats().LiveNodes())
}

func TestScalarOps(t *testing.T) {
	g := tensor.NewGraph()
	x := fromSlice(t, g, []float64{2, -4}, tensor.Shape{2}, false)
	defer x.Release()

	m, err := ops.MulScalar(x, 1.5)
	require.NoError(t, err)
	defer m.Release()
	assert.Equal(t, []float64{3, -6}, m.Data())

	d, err := ops.DivScalar(x, 2)
	require.NoError(t, err)
	defer d.Release()
	assert.Equal(t, []float64{1, -2}, d.Data())

	inf, err := ops.DivScalar(x, 0)
	require.NoError(t, err)
	defer inf.Release()
	assert.True(t, math.IsInf(inf.Data()[0], 1))
	assert.True(t, math.IsInf(inf.Data()[1], -1))
}

func TestSumAndSumAxis(t *testing.T) {
	g := tensor.NewGraph()
	x := fromSlice(t, g, []float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, false)
	defer x.Release()

	s, err := ops.Sum(x)
	require.NoError(t, err)
	defer s.Release()
	assert.Equal(t, 0, s.Rank())
	v, err := s.Item()
	require.NoError(t, err)
	assert.Equal(t, 21.0, v)

	cols, err := ops.SumAxis(x, 0)
	require.NoError(t, err)
	defer cols.Release()
	assert.Equal(t, tensor.Shape{3}, cols.Shape())
	assert.Equal(t, []float64{5, 7, 9}, cols.Data())

	rows, err := ops.SumAxis(x, 1)
	require.NoError(t, err)
	defer rows.Release()
	assert.Equal(t, []float64{6, 15}, rows.Data())

	_, err = ops.SumAxis(x, 2)
	assert.True(t, errors.Is(err, tensor.ErrInvalidAxis))

	vec := fromSlice(t, g, []float64{1, 2}, tensor.Shape{2}, false)
	defer vec.Release()
	_, err = ops.SumAxis(vec, 0)
	assert.True(t, errors.Is(err, tensor.ErrRankMismatch))
}

func TestMatMul(t *testing.T) {
	g := tensor.NewGraph()
	a := fromSlice(t, g, []float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, false)
	b := fromSlice(t, g, []float64{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2}, false)
	defer tensor.ReleaseAll(a, b)

	c, err := ops.MatMul(a, b)
	require.NoError(t, err)
	defer c.Release()
	assert.Equal(t, tensor.Shape{2, 2}, c.Shape())
	assert.Equal(t, []float64{58, 64, 139, 154}, c.Data())

	_, err = ops.MatMul(a, a)
	assert.True(t, errors.Is(err, tensor.ErrShapeMismatch))

	vec := fromSlice(t, g, []float64{1, 2, 3}, tensor.Shape{3}, false)
	defer vec.Release()
	_, err = ops.MatMul(a, vec)
	assert.True(t, errors.Is(err, tensor.ErrRankMismatch))
}

func TestSoftmax_RowsSumToOne(t *testing.T) {
	g := tensor.NewGraph(tensor.WithSeed(3))
	x, err := g.RandomNormal(tensor.Shape{5, 7}, false)
	require.NoError(t, err)
	defer x.Release()
	// Large magnitudes must not overflow.
	x.Data()[0] = 1000

	y, err := ops.Softmax(x)
	require.NoError(t, err)
	defer y.Release()

	data := y.Data()
	for i := 0; i < 5; i++ {
		var sum float64
		for j := 0; j < 7; j++ {
			p := data[i*7+j]
			assert.False(t, math.IsNaN(p))
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-12, "row %d", i)
	}
}

func TestMaxAxis(t *testing.T) {
	g := tensor.NewGraph()
	x := fromSlice(t, g, []float64{1, 9, 3, 7, 2, 8}, tensor.Shape{2, 3}, true)
	defer x.Release()

	rowMax, err := ops.MaxAxis(x, 1)
	require.NoError(t, err)
	defer rowMax.Release()
	assert.Equal(t, []float64{9, 8}, rowMax.Data())
	assert.False(t, rowMax.RequiresGrad())
	assert.Equal(t, 1, x.RefCount())

	colMax, err := ops.MaxAxis(x, 0)
	require.NoError(t, err)
	defer colMax.Release()
	assert.Equal(t, []float64{7, 9, 8}, colMax.Data())
}

func TestBroadcast(t *testing.T) {
	g := tensor.NewGraph()
	m := fromSlice(t, g, []float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, false)
	v := fromSlice(t, g, []float64{10, 20, 30}, tensor.Shape{3}, false)
	defer tensor.ReleaseAll(m, v)

	sum, err := ops.AddBroadcast(m, v)
	require.NoError(t, err)
	defer sum.Release()
	assert.Equal(t, []float64{11, 22, 33, 14, 25, 36}, sum.Data())

	diff, err := ops.SubBroadcast(m, v)
	require.NoError(t, err)
	defer diff.Release()
	assert.Equal(t, []float64{-9, -18, -27, -6, -15, -24}, diff.Data())

	short := fromSlice(t, g, []float64{1, 2}, tensor.Shape{2}, false)
	defer short.Release()
	_, err = ops.AddBroadcast(m, short)
	assert.True(t, errors.Is(err, tensor.ErrShapeMismatch))
}

func TestAddBroadcast_SameShapeFallsBackToAdd(t *testing.T) {
	g := tensor.NewGraph()
	a := fromSlice(t, g, []float64{1, 2}, tensor.Shape{2}, true)
	b := fromSlice(t, g, []float64{3, 4}, tensor.Shape{2}, true)
	defer tensor.ReleaseAll(a, b)

	out, err := ops.AddBroadcast(a, b)
	require.NoError(t, err)
	defer out.Release()
	assert.Equal(t, []float64{4, 6}, out.Data())
	assert.Equal(t, tensor.Generic{Op: tensor.OpAdd}, out.Rule())
}

func TestGather(t *testing.T) {
	g := tensor.NewGraph()
	x := fromSlice(t, g, []float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, false)
	idx := fromSlice(t, g, []float64{2, 0}, tensor.Shape{2}, false)
	defer tensor.ReleaseAll(x, idx)

	out, err := ops.Gather(x, idx)
	require.NoError(t, err)
	defer out.Release()
	assert.Equal(t, []float64{3, 4}, out.Data())

	for _, bad := range [][]float64{{3, 0}, {-1, 0}, {0.5, 1}} {
		badIdx := fromSlice(t, g, bad, tensor.Shape{2}, false)
		_, err := ops.Gather(x, badIdx)
		assert.True(t, errors.Is(err, tensor.ErrIndexOutOfBounds), "indices %v", bad)
		badIdx.Release()
	}
}

func TestReshape(t *testing.T) {
	g := tensor.NewGraph()
	x := fromSlice(t, g, []float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, true)

	v, err := ops.Reshape(x, tensor.Shape{3, 2})
	require.NoError(t, err)
	assert.True(t, v.IsView())
	assert.Equal(t, tensor.Shape{3, 2}, v.Shape())
	assert.Equal(t, x.Data(), v.Data())
	assert.Equal(t, []tensor.Tensor{x}, v.Parents())

	_, err = ops.Reshape(x, tensor.Shape{5})
	assert.True(t, errors.Is(err, tensor.ErrShapeMismatch))

	tensor.ReleaseAll(x, v)
	st := g.Stats()
	assert.Equal(t, 0, st.LiveNodes())
	assert.Equal(t, 1, st.BuffersFreed)
}

func TestActivations(t *testing.T) {
	g := tensor.NewGraph()
	x := fromSlice(t, g, []float64{-2, 0, 3}, tensor.Shape{3}, false)
	defer x.Release()

	relu, err := ops.ReLU(x)
	require.NoError(t, err)
	defer relu.Release()
	assert.Equal(t, []float64{0, 0, 3}, relu.Data())

	sig, err := ops.Sigmoid(x)
	require.NoError(t, err)
	defer sig.Release()
	assert.InDelta(t, 1/(1+math.Exp(2)), sig.Data()[0], 1e-12)
	assert.InDelta(t, 0.5, sig.Data()[1], 1e-12)

	th, err := ops.Tanh(x)
	require.NoError(t, err)
	defer th.Release()
	assert.InDelta(t, math.Tanh(3), th.Data()[2], 1e-12)

	e, err := ops.Exp(x)
	require.NoError(t, err)
	defer e.Release()
	assert.InDelta(t, math.E*math.E*math.E, e.Data()[2], 1e-9)

	l, err := ops.Log(e)
	require.NoError(t, err)
	defer l.Release()
	assert.InDeltaSlice(t, []float64{-2, 0, 3}, l.Data(), 1e-12)
}

func TestGradientRegistry(t *testing.T) {
	kinds := []tensor.OpKind{
		tensor.OpAdd, tensor.OpSub, tensor.OpMul, tensor.OpMulScalar, tensor.OpDivScalar,
		tensor.OpSum, tensor.OpSumAxis, tensor.OpMatMul, tensor.OpExp, tensor.OpLog,
		tensor.OpSoftmax, tensor.OpAddBroadcast, tensor.OpSubBroadcast, tensor.OpGather,
		tensor.OpReshape, tensor.OpReLU, tensor.OpSigmoid, tensor.OpTanh,
	}
	for _, k := range kinds {
		_, ok := ops.GradientFor(k)
		assert.True(t, ok, "missing gradient for %s", k)
	}
	_, ok := ops.GradientFor(tensor.OpNone)
	assert.False(t, ok)
}
