package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/minigrad/internal/config"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []int{4, 4}, cfg.Model.Hidden)
	assert.Equal(t, 2, cfg.OutputSize())
}

func TestLoad_OverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.yaml")
	yamlDoc := `
data:
  features: iris.csv
  label_column: species
  has_header: true
model:
  hidden: [8]
  activation: tanh
  classes: 3
training:
  epochs: 50
  optimizer: adam
  learning_rate: 0.01
metrics_addr: ":9100"
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "iris.csv", cfg.Data.Features)
	assert.Equal(t, "species", cfg.Data.LabelColumn)
	assert.Empty(t, cfg.Data.Labels, "label_column replaces the default labels file")
	assert.True(t, cfg.Data.HasHeader)
	assert.Equal(t, []int{8}, cfg.Model.Hidden)
	assert.Equal(t, "tanh", cfg.Model.Activation)
	assert.Equal(t, "cross_entropy", cfg.Model.Loss, "unset keys keep defaults")
	assert.Equal(t, 50, cfg.Training.Epochs)
	assert.Equal(t, "adam", cfg.Training.Optimizer)
	assert.Equal(t, ":9100", cfg.MetricsAddr)
	assert.Equal(t, 3, cfg.OutputSize())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("MINIGRAD_EPOCHS", "7")
	t.Setenv("MINIGRAD_LEARNING_RATE", "0.25")
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Training.Epochs)
	assert.Equal(t, 0.25, cfg.Training.LearningRate)
}

func TestLoad_BothLabelSources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.yaml")
	yamlDoc := `
data:
  features: x.csv
  labels: y.csv
  label_column: species
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "y.csv", cfg.Data.Labels)
	assert.ErrorContains(t, cfg.Validate(), "mutually exclusive")
}

func TestLoad_InvalidEnvironment(t *testing.T) {
	t.Run("epochs", func(t *testing.T) {
		t.Setenv("MINIGRAD_EPOCHS", "ten")
		_, err := config.Load("")
		assert.ErrorContains(t, err, "MINIGRAD_EPOCHS")
	})
	t.Run("learning rate", func(t *testing.T) {
		t.Setenv("MINIGRAD_LEARNING_RATE", "0,1")
		_, err := config.Load("")
		assert.ErrorContains(t, err, "MINIGRAD_LEARNING_RATE")
	})
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: [unclosed"), 0o600))
	_, err = config.Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.TrainConfig)
	}{
		{"no features", func(c *config.TrainConfig) { c.Data.Features = "" }},
		{"no labels", func(c *config.TrainConfig) { c.Data.Labels = "" }},
		{"both label sources", func(c *config.TrainConfig) { c.Data.LabelColumn = "y" }},
		{"zero hidden", func(c *config.TrainConfig) { c.Model.Hidden = []int{4, 0} }},
		{"activation", func(c *config.TrainConfig) { c.Model.Activation = "gelu" }},
		{"loss", func(c *config.TrainConfig) { c.Model.Loss = "hinge" }},
		{"one class", func(c *config.TrainConfig) { c.Model.Classes = 1 }},
		{"optimizer", func(c *config.TrainConfig) { c.Training.Optimizer = "lbfgs" }},
		{"epochs", func(c *config.TrainConfig) { c.Training.Epochs = 0 }},
		{"learning rate", func(c *config.TrainConfig) { c.Training.LearningRate = 0 }},
		{"momentum", func(c *config.TrainConfig) { c.Training.Momentum = 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	mse := config.Default()
	mse.Model.Loss = "mse"
	mse.Model.Classes = 0
	require.NoError(t, mse.Validate())
	assert.Equal(t, 1, mse.OutputSize())
}
