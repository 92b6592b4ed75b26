// Package train runs the full-batch training loop behind `minigrad train`:
// forward, loss, backward, optimizer step and release, once per epoch.
//
// Hooks registered with OnStep observe every epoch; the CLI uses them for the
// progress bar, periodic logging and metrics.
package train

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/minigrad/internal/autodiff"
	"github.com/born-ml/minigrad/internal/config"
	"github.com/born-ml/minigrad/internal/data"
	"github.com/born-ml/minigrad/internal/nn"
	"github.com/born-ml/minigrad/internal/optim"
	"github.com/born-ml/minigrad/internal/tensor"
)

// Step reports one completed epoch.
type Step struct {
	Epoch    int
	Loss     float64
	Accuracy float64 // only meaningful when Classify is true
	Classify bool
	Backward time.Duration
}

// OnStepFn is the type of OnStep hooks. Returning an error stops the run.
type OnStepFn func(step Step) error

// Trainer owns a graph, a model, its optimizer and the training data.
type Trainer struct {
	g        *tensor.Graph
	model    *nn.Sequential
	loss     nn.Loss
	opt      optim.Optimizer
	x, y     tensor.Tensor
	classify bool
	onStep   []OnStepFn
}

// New builds the model and optimizer described by cfg over the features x
// [N, F] and labels y [N, 1]. The trainer takes ownership of x and y.
func New(g *tensor.Graph, cfg config.TrainConfig, x, y tensor.Tensor) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if x.Rank() != 2 {
		return nil, errors.Errorf("features must be rank 2, got shape %v", x.Shape())
	}
	if y.Shape()[0] != x.Shape()[0] {
		return nil, errors.Errorf("features have %d rows but labels have %d", x.Shape()[0], y.Shape()[0])
	}

	model, err := BuildModel(g, cfg, x.Shape()[1])
	if err != nil {
		return nil, err
	}
	loss, err := nn.NewLoss(cfg.Model.Loss)
	if err != nil {
		model.Release()
		return nil, err
	}
	opt, err := optim.New(cfg.Training.Optimizer, model.Parameters(), cfg.Training.LearningRate, cfg.Training.Momentum)
	if err != nil {
		model.Release()
		return nil, err
	}

	klog.V(1).Infof("model: %d layers, %d parameters", model.Len(), nn.CountParameters(model.Parameters()))
	return &Trainer{
		g:        g,
		model:    model,
		loss:     loss,
		opt:      opt,
		x:        x,
		y:        y,
		classify: cfg.Model.Loss == "cross_entropy",
	}, nil
}

// FromConfig creates a graph seeded with cfg.Training.Seed, loads the data
// files and returns a ready trainer.
func FromConfig(cfg config.TrainConfig) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g := tensor.NewGraph(tensor.WithSeed(cfg.Training.Seed), tensor.WithName("train"))
	x, y, err := LoadData(g, cfg.Data)
	if err != nil {
		return nil, err
	}
	t, err := New(g, cfg, x, y)
	if err != nil {
		tensor.ReleaseAll(x, y)
		return nil, err
	}
	return t, nil
}

// LoadData reads features and labels as described by d.
func LoadData(g *tensor.Graph, d config.DataConfig) (x, y tensor.Tensor, err error) {
	opts := data.Options{HasHeader: d.HasHeader}
	if d.LabelColumn != "" {
		f, err := os.Open(d.Features)
		if err != nil {
			return tensor.Tensor{}, tensor.Tensor{}, errors.Wrap(err, "open features")
		}
		defer f.Close()
		df, err := data.ReadFrame(f, opts)
		if err != nil {
			return tensor.Tensor{}, tensor.Tensor{}, errors.WithMessagef(err, "read %s", d.Features)
		}
		return data.SplitLabel(g, df, d.LabelColumn)
	}

	x, err = data.LoadCSVFile(g, d.Features, opts)
	if err != nil {
		return tensor.Tensor{}, tensor.Tensor{}, err
	}
	y, err = data.LoadCSVFile(g, d.Labels, opts)
	if err != nil {
		x.Release()
		return tensor.Tensor{}, tensor.Tensor{}, err
	}
	if y.Rank() != 2 || y.Shape()[1] != 1 {
		tensor.ReleaseAll(x, y)
		return tensor.Tensor{}, tensor.Tensor{}, errors.Errorf("labels file %s must have exactly one column, got shape %v", d.Labels, y.Shape())
	}
	return x, y, nil
}

// BuildModel returns the MLP described by cfg.Model for inputs of width
// inFeatures: Linear layers of the hidden sizes, each followed by the
// activation, and a final Linear of cfg.OutputSize() units.
func BuildModel(g *tensor.Graph, cfg config.TrainConfig, inFeatures int) (*nn.Sequential, error) {
	var opts []nn.LinearOption
	if cfg.Model.NormalInit {
		opts = append(opts, nn.WithNormalInit())
	}

	model := nn.NewSequential()
	width := inFeatures
	for _, h := range cfg.Model.Hidden {
		layer, err := nn.NewLinear(g, width, h, opts...)
		if err != nil {
			model.Release()
			return nil, err
		}
		model.Add(layer)
		act, err := nn.NewActivation(cfg.Model.Activation)
		if err != nil {
			model.Release()
			return nil, err
		}
		model.Add(act)
		width = h
	}
	head, err := nn.NewLinear(g, width, cfg.OutputSize(), opts...)
	if err != nil {
		model.Release()
		return nil, err
	}
	model.Add(head)
	return model, nil
}

// OnStep registers fn to run after every epoch.
func (t *Trainer) OnStep(fn OnStepFn) {
	t.onStep = append(t.onStep, fn)
}

// Graph returns the graph the trainer allocates in.
func (t *Trainer) Graph() *tensor.Graph {
	return t.g
}

// Model returns the network being trained.
func (t *Trainer) Model() *nn.Sequential {
	return t.model
}

// Epoch runs one full-batch training step. Every tensor created by the
// step is released before it returns.
func (t *Trainer) Epoch(epoch int) (Step, error) {
	step := Step{Epoch: epoch, Classify: t.classify}

	t.opt.ZeroGrad()
	out, err := t.model.Forward(t.x)
	if err != nil {
		return step, errors.WithMessage(err, "forward")
	}
	defer out.Release()

	loss, err := t.loss.Forward(out, t.y)
	if err != nil {
		return step, errors.WithMessage(err, "loss")
	}
	defer loss.Release()

	start := time.Now()
	if err := autodiff.RunBackward(loss); err != nil {
		return step, errors.WithMessage(err, "backward")
	}
	step.Backward = time.Since(start)

	if step.Loss, err = loss.Item(); err != nil {
		return step, err
	}
	if t.classify {
		step.Accuracy = nn.Accuracy(out, t.y)
	}
	if err := t.opt.Step(); err != nil {
		return step, errors.WithMessage(err, "optimizer step")
	}
	return step, nil
}

// Evaluate computes the loss (and accuracy) over the training data without
// touching parameters or their gradients.
func (t *Trainer) Evaluate() (Step, error) {
	step := Step{Classify: t.classify}
	out, err := t.model.Forward(t.x)
	if err != nil {
		return step, errors.WithMessage(err, "forward")
	}
	defer out.Release()
	loss, err := t.loss.Forward(out, t.y)
	if err != nil {
		return step, errors.WithMessage(err, "loss")
	}
	defer loss.Release()

	if step.Loss, err = loss.Item(); err != nil {
		return step, err
	}
	if t.classify {
		step.Accuracy = nn.Accuracy(out, t.y)
	}
	return step, nil
}

// Run trains for the given number of epochs, calling the OnStep hooks after
// each one. It stops early when ctx is cancelled and returns the last
// completed step.
func (t *Trainer) Run(ctx context.Context, epochs int) (Step, error) {
	var last Step
	for epoch := 1; epoch <= epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return last, errors.Wrapf(err, "stopped after %d epochs", epoch-1)
		}
		step, err := t.Epoch(epoch)
		if err != nil {
			return last, errors.WithMessagef(err, "epoch %d", epoch)
		}
		last = step
		for _, fn := range t.onStep {
			if err := fn(step); err != nil {
				return last, err
			}
		}
	}
	return last, nil
}

// Release frees the model and the training data.
func (t *Trainer) Release() {
	t.model.Release()
	tensor.ReleaseAll(t.x, t.y)
}
