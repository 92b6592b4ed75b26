// Package config holds the training configuration read by the minigrad CLI.
//
// Configuration is layered: defaults, then an optional YAML file, then
// MINIGRAD_* environment variables, then command-line flags (applied by the
// caller). Validate runs last.
package config

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// TrainConfig describes one training run.
type TrainConfig struct {
	// Data contains the CSV inputs.
	Data DataConfig `yaml:"data"`

	// Model contains the network layout.
	Model ModelConfig `yaml:"model"`

	// Training contains optimizer and loop settings.
	Training TrainingConfig `yaml:"training"`

	// MetricsAddr, when set, serves Prometheus metrics on this address.
	MetricsAddr string `yaml:"metrics_addr"`

	// Checkpoint, when set, is where the trained parameters are saved.
	Checkpoint string `yaml:"checkpoint"`
}

// DataConfig locates the training data. Either Labels is set (two files, the
// labels file holding one column) or LabelColumn names a column of Features.
type DataConfig struct {
	Features    string `yaml:"features"`
	Labels      string `yaml:"labels"`
	LabelColumn string `yaml:"label_column"`
	HasHeader   bool   `yaml:"has_header"`
}

// ModelConfig describes a multi-layer perceptron.
type ModelConfig struct {
	Hidden     []int  `yaml:"hidden"`
	Activation string `yaml:"activation"` // relu, sigmoid or tanh
	Loss       string `yaml:"loss"`       // cross_entropy or mse
	Classes    int    `yaml:"classes"`    // output width for cross_entropy
	NormalInit bool   `yaml:"normal_init"`
}

// TrainingConfig contains the optimization loop settings.
type TrainingConfig struct {
	Epochs       int     `yaml:"epochs"`
	Optimizer    string  `yaml:"optimizer"` // sgd or adam
	LearningRate float64 `yaml:"learning_rate"`
	Momentum     float64 `yaml:"momentum"`
	Seed         int64   `yaml:"seed"`
	LogEvery     int     `yaml:"log_every"`
}

// Default returns the configuration of the reference trainer: two hidden
// layers of 4 units with ReLU, cross-entropy over 2 classes, 1000 epochs of
// plain SGD at learning rate 0.1.
func Default() TrainConfig {
	return TrainConfig{
		Data: DataConfig{
			Features: "data/train_X.csv",
			Labels:   "data/train_y.csv",
		},
		Model: ModelConfig{
			Hidden:     []int{4, 4},
			Activation: "relu",
			Loss:       "cross_entropy",
			Classes:    2,
		},
		Training: TrainingConfig{
			Epochs:       1000,
			Optimizer:    "sgd",
			LearningRate: 0.1,
			Seed:         42,
			LogEvery:     100,
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path (if path is
// not empty) and the environment.
func Load(path string) (TrainConfig, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrap(err, "read config")
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "parse config %s", path)
		}
		// A file that names a label column without a labels file replaces
		// the default labels file.
		var explicit struct {
			Data struct {
				Labels *string `yaml:"labels"`
			} `yaml:"data"`
		}
		if err := yaml.Unmarshal(raw, &explicit); err != nil {
			return cfg, errors.Wrapf(err, "parse config %s", path)
		}
		if cfg.Data.LabelColumn != "" && explicit.Data.Labels == nil {
			cfg.Data.Labels = ""
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *TrainConfig) error {
	if v := os.Getenv("MINIGRAD_FEATURES"); v != "" {
		cfg.Data.Features = v
	}
	if v := os.Getenv("MINIGRAD_LABELS"); v != "" {
		cfg.Data.Labels = v
	}
	if v := os.Getenv("MINIGRAD_EPOCHS"); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, "MINIGRAD_EPOCHS")
		}
		cfg.Training.Epochs = i
	}
	if v := os.Getenv("MINIGRAD_LEARNING_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.Wrap(err, "MINIGRAD_LEARNING_RATE")
		}
		cfg.Training.LearningRate = f
	}
	if v := os.Getenv("MINIGRAD_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c TrainConfig) Validate() error {
	if c.Data.Features == "" {
		return errors.New("data.features is required")
	}
	if c.Data.Labels == "" && c.Data.LabelColumn == "" {
		return errors.New("one of data.labels or data.label_column is required")
	}
	if c.Data.Labels != "" && c.Data.LabelColumn != "" {
		return errors.New("data.labels and data.label_column are mutually exclusive")
	}
	for i, h := range c.Model.Hidden {
		if h < 1 {
			return errors.Errorf("model.hidden[%d] must be >= 1, got %d", i, h)
		}
	}
	switch c.Model.Activation {
	case "relu", "sigmoid", "tanh":
	default:
		return errors.Errorf("model.activation must be relu, sigmoid or tanh, got %q", c.Model.Activation)
	}
	switch c.Model.Loss {
	case "cross_entropy":
		if c.Model.Classes < 2 {
			return errors.Errorf("model.classes must be >= 2 for cross_entropy, got %d", c.Model.Classes)
		}
	case "mse":
	default:
		return errors.Errorf("model.loss must be cross_entropy or mse, got %q", c.Model.Loss)
	}
	switch c.Training.Optimizer {
	case "sgd", "adam":
	default:
		return errors.Errorf("training.optimizer must be sgd or adam, got %q", c.Training.Optimizer)
	}
	if c.Training.Epochs < 1 {
		return errors.New("training.epochs must be >= 1")
	}
	if c.Training.LearningRate <= 0 {
		return errors.New("training.learning_rate must be > 0")
	}
	if c.Training.Momentum < 0 || c.Training.Momentum >= 1 {
		return errors.New("training.momentum must be in [0, 1)")
	}
	if c.Training.LogEvery < 0 {
		return errors.New("training.log_every must be >= 0")
	}
	return nil
}

// OutputSize returns the width of the network's last layer.
func (c TrainConfig) OutputSize() int {
	if c.Model.Loss == "mse" {
		return 1
	}
	return c.Model.Classes
}
