package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/minigrad/internal/autodiff"
	"github.com/born-ml/minigrad/internal/tensor"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "minigrad "+version+"\n", out)
}

func TestGradCases(t *testing.T) {
	g := tensor.NewGraph(tensor.WithSeed(3))
	for _, c := range gradCases(g) {
		res, err := autodiff.GradCheck(c.build, c.inputs, 1e-6)
		require.NoError(t, err, c.name)
		assert.True(t, res.OK(1e-5), "%s: max abs %g, max rel %g", c.name, res.MaxAbsError, res.MaxRelError)
	}
}

func TestGradCheckCommand(t *testing.T) {
	out, err := execute(t, "gradcheck", "--seed", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "CrossEntropy")
	assert.NotContains(t, out, "FAIL")
}

func TestTrainCommand(t *testing.T) {
	dir := t.TempDir()
	features := filepath.Join(dir, "x.csv")
	labels := filepath.Join(dir, "y.csv")
	require.NoError(t, os.WriteFile(features, []byte("-2\n-1\n1\n2\n"), 0o600))
	require.NoError(t, os.WriteFile(labels, []byte("0\n0\n1\n1\n"), 0o600))

	cfgPath := filepath.Join(dir, "mlp.yaml")
	cfg := strings.Join([]string{
		"model:",
		"  hidden: []",
		"training:",
		"  epochs: 50",
		"  learning_rate: 0.1",
	}, "\n")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	weights := filepath.Join(dir, "mlp.mgrd")
	out, err := execute(t, "train", "--config", cfgPath, "--features", features, "--labels", labels,
		"--epochs", "20", "--no-progress", "--save", weights)
	require.NoError(t, err)
	assert.Contains(t, out, "Epochs:   20")
	assert.Contains(t, out, "Accuracy:")
	assert.Contains(t, out, "Graph:")
	assert.Contains(t, out, "Saved:    "+weights)

	out, err = execute(t, "eval", "--config", cfgPath, "--features", features, "--labels", labels, "--weights", weights)
	require.NoError(t, err)
	assert.Contains(t, out, "Loss:")
	assert.Contains(t, out, "Accuracy:")
}

func TestTrainCommand_InvalidConfig(t *testing.T) {
	_, err := execute(t, "train", "--config=", "--features", "x.csv", "--labels", "y.csv", "--lr", "-1", "--no-progress")
	assert.ErrorContains(t, err, "learning_rate")
}
