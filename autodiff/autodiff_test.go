// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package autodiff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/minigrad/autodiff"
	"github.com/born-ml/minigrad/tensor"
)

func TestBackwardThroughPublicAPI(t *testing.T) {
	g := tensor.NewGraph()
	x, err := g.FromSlice([]float64{1, 2, 3}, tensor.Shape{3}, true)
	require.NoError(t, err)

	sq, err := autodiff.Mul(x, x)
	require.NoError(t, err)
	loss, err := autodiff.Sum(sq)
	require.NoError(t, err)

	order, err := autodiff.TopologicalOrder(loss)
	require.NoError(t, err)
	assert.Len(t, order, 3)

	require.NoError(t, autodiff.RunBackward(loss))
	assert.Equal(t, []float64{2, 4, 6}, x.Grad())

	tensor.ReleaseAll(loss, sq, x)
	assert.Equal(t, 0, g.Live())
}

func TestGradCheck_PublicAPI(t *testing.T) {
	g := tensor.NewGraph(tensor.WithSeed(9))
	logits, err := g.RandomNormal(tensor.Shape{3, 4}, true)
	require.NoError(t, err)
	targets, err := g.FromSlice([]float64{1, 3, 0}, tensor.Shape{3, 1}, false)
	require.NoError(t, err)
	defer tensor.ReleaseAll(logits, targets)

	res, err := autodiff.GradCheck(func() (tensor.Tensor, []tensor.Tensor, error) {
		out, err := autodiff.CrossEntropy(logits, targets)
		return out, nil, err
	}, []tensor.Tensor{logits}, 1e-6)
	require.NoError(t, err)
	assert.Equal(t, 12, res.Checked)
	assert.True(t, res.OK(1e-5))
}
