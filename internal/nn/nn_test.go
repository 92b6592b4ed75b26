package nn_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/minigrad/internal/autodiff"
	"github.com/born-ml/minigrad/internal/autodiff/ops"
	"github.com/born-ml/minigrad/internal/nn"
	"github.com/born-ml/minigrad/internal/tensor"
)

func TestParameter(t *testing.T) {
	g := tensor.NewGraph()
	data, err := g.FromSlice([]float64{1, 2, 3}, tensor.Shape{3}, false)
	require.NoError(t, err)
	param := nn.NewParameter("test_param", data)

	assert.Equal(t, "test_param", param.Name())
	assert.Equal(t, "test_param", param.Tensor().Name())
	assert.True(t, param.Tensor().RequiresGrad())
	assert.Nil(t, param.Grad())

	require.NoError(t, param.Tensor().AccumulateGrad([]float64{0.1, 0.2, 0.3}))
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, param.Grad())
	param.ZeroGrad()
	assert.Equal(t, []float64{0, 0, 0}, param.Grad())

	param.Release()
	assert.Equal(t, 0, g.Stats().LiveNodes())
}

func TestNewParameter_RequiresLiveLeaf(t *testing.T) {
	g := tensor.NewGraph()
	x, err := g.FromSlice([]float64{1, 2}, tensor.Shape{2}, true)
	require.NoError(t, err)
	sq, err := ops.Mul(x, x)
	require.NoError(t, err)
	defer tensor.ReleaseAll(x, sq)

	assert.Panics(t, func() { nn.NewParameter("interior", sq) })

	gone, err := g.Zeros(tensor.Shape{2}, false)
	require.NoError(t, err)
	gone.Release()
	assert.Panics(t, func() { nn.NewParameter("released", gone) })
	assert.Panics(t, func() { nn.NewParameter("zero", tensor.Tensor{}) })
}

func TestLinear_Forward(t *testing.T) {
	g := tensor.NewGraph(tensor.WithSeed(1))
	layer, err := nn.NewLinear(g, 3, 2)
	require.NoError(t, err)
	defer layer.Release()

	assert.Equal(t, 3, layer.InFeatures())
	assert.Equal(t, 2, layer.OutFeatures())
	assert.Equal(t, tensor.Shape{3, 2}, layer.Weight().Tensor().Shape())
	assert.Equal(t, []float64{0, 0}, layer.Bias().Tensor().Data())
	assert.Len(t, layer.Parameters(), 2)
	assert.Equal(t, 8, nn.CountParameters(layer.Parameters()))

	// Xavier bound sqrt(6/5).
	for _, w := range layer.Weight().Tensor().Data() {
		assert.LessOrEqual(t, w*w, 6.0/5.0)
	}

	copy(layer.Weight().Tensor().Data(), []float64{1, 0, 0, 1, 1, 1})
	copy(layer.Bias().Tensor().Data(), []float64{0.5, -0.5})

	x, err := g.FromSlice([]float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, false)
	require.NoError(t, err)
	defer x.Release()

	y, err := layer.Forward(x)
	require.NoError(t, err)
	defer y.Release()
	assert.Equal(t, tensor.Shape{2, 2}, y.Shape())
	// [1+3, 2+3] + b, [4+6, 5+6] + b
	assert.Equal(t, []float64{4.5, 4.5, 10.5, 10.5}, y.Data())
}

func TestLinear_ForwardValidation(t *testing.T) {
	g := tensor.NewGraph()
	layer, err := nn.NewLinear(g, 3, 2)
	require.NoError(t, err)
	defer layer.Release()

	wrong, err := g.Ones(tensor.Shape{2, 4}, false)
	require.NoError(t, err)
	defer wrong.Release()
	_, err = layer.Forward(wrong)
	assert.True(t, errors.Is(err, tensor.ErrShapeMismatch))

	vec, err := g.Ones(tensor.Shape{3}, false)
	require.NoError(t, err)
	defer vec.Release()
	_, err = layer.Forward(vec)
	assert.True(t, errors.Is(err, tensor.ErrRankMismatch))
}

func TestSequential_BackwardAndRelease(t *testing.T) {
	g := tensor.NewGraph(tensor.WithSeed(4))
	l1, err := nn.NewLinear(g, 4, 8, nn.WithNormalInit())
	require.NoError(t, err)
	l2, err := nn.NewLinear(g, 8, 3)
	require.NoError(t, err)
	act, err := nn.NewActivation("relu")
	require.NoError(t, err)
	model := nn.NewSequential(l1, act)
	model.Add(l2)
	assert.Equal(t, 3, model.Len())
	assert.Same(t, l2, model.Module(2))
	assert.Len(t, model.Parameters(), 4)

	x, err := g.RandomNormal(tensor.Shape{5, 4}, false)
	require.NoError(t, err)
	targets, err := g.FromSlice([]float64{0, 1, 2, 1, 0}, tensor.Shape{5, 1}, false)
	require.NoError(t, err)

	baseline := g.Stats().LiveNodes()
	logits, err := model.Forward(x)
	require.NoError(t, err)
	loss, err := nn.NewCrossEntropyLoss().Forward(logits, targets)
	require.NoError(t, err)
	require.NoError(t, autodiff.RunBackward(loss))

	for _, p := range model.Parameters() {
		assert.NotNil(t, p.Grad(), p.Name())
	}

	acc := nn.Accuracy(logits, targets)
	assert.GreaterOrEqual(t, acc, 0.0)
	assert.LessOrEqual(t, acc, 1.0)

	tensor.ReleaseAll(loss, logits)
	assert.Equal(t, baseline, g.Stats().LiveNodes())

	model.Release()
	tensor.ReleaseAll(x, targets)
	st := g.Stats()
	assert.Equal(t, 0, st.LiveNodes())
	assert.Equal(t, int64(0), st.LiveBytes)
}

func TestSequential_Empty(t *testing.T) {
	g := tensor.NewGraph()
	x, err := g.Ones(tensor.Shape{1, 1}, false)
	require.NoError(t, err)
	out, err := nn.NewSequential().Forward(x)
	require.NoError(t, err)
	assert.Equal(t, x, out)
	assert.Equal(t, 2, x.RefCount())
	tensor.ReleaseAll(out, x)
}

func TestActivationsAndLosses_ByName(t *testing.T) {
	for _, name := range []string{"relu", "sigmoid", "tanh"} {
		m, err := nn.NewActivation(name)
		require.NoError(t, err, name)
		assert.Empty(t, m.Parameters())
	}
	_, err := nn.NewActivation("gelu")
	assert.Error(t, err)

	_, err = nn.NewLoss("mse")
	assert.NoError(t, err)
	_, err = nn.NewLoss("cross_entropy")
	assert.NoError(t, err)
	_, err = nn.NewLoss("hinge")
	assert.Error(t, err)
}

func TestAccuracy(t *testing.T) {
	g := tensor.NewGraph()
	logits, err := g.FromSlice([]float64{0.1, 0.9, 0.8, 0.2, 0.3, 0.7}, tensor.Shape{3, 2}, false)
	require.NoError(t, err)
	targets, err := g.FromSlice([]float64{1, 0, 0}, tensor.Shape{3}, false)
	require.NoError(t, err)
	defer tensor.ReleaseAll(logits, targets)

	assert.InDelta(t, 2.0/3.0, nn.Accuracy(logits, targets), 1e-12)
}
