package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/born-ml/minigrad/internal/config"
	"github.com/born-ml/minigrad/internal/metrics"
	"github.com/born-ml/minigrad/internal/nn"
	"github.com/born-ml/minigrad/internal/serialization"
	"github.com/born-ml/minigrad/internal/train"
)

var (
	configPath   string
	featuresPath string
	labelsPath   string
	epochs       int
	learningRate float64
	metricsAddr  string
	savePath     string
	noProgress   bool

	trainCmd = &cobra.Command{
		Use:   "train",
		Short: "Train a multi-layer perceptron on CSV data",
		Example: `  minigrad train --features data/train_X.csv --labels data/train_y.csv
  minigrad train --config mlp.yaml --epochs 500 --metrics-addr :9090`,
		Args: cobra.NoArgs,
		RunE: runTrain,
	}
)

func init() {
	f := trainCmd.Flags()
	f.StringVarP(&configPath, "config", "c", "", "YAML training configuration")
	f.StringVar(&featuresPath, "features", "", "features CSV (overrides data.features)")
	f.StringVar(&labelsPath, "labels", "", "labels CSV (overrides data.labels)")
	f.IntVar(&epochs, "epochs", 0, "number of epochs (overrides training.epochs)")
	f.Float64Var(&learningRate, "lr", 0, "learning rate (overrides training.learning_rate)")
	f.StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	f.StringVar(&savePath, "save", "", "save the trained parameters to this checkpoint file")
	f.BoolVar(&noProgress, "no-progress", false, "disable the progress bar")
}

// loadConfig layers command-line flags on top of the configuration file and
// the environment.
func loadConfig(cmd *cobra.Command) (config.TrainConfig, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("features") {
		cfg.Data.Features = featuresPath
	}
	if flags.Changed("labels") {
		cfg.Data.Labels = labelsPath
		cfg.Data.LabelColumn = ""
	}
	if flags.Changed("epochs") {
		cfg.Training.Epochs = epochs
	}
	if flags.Changed("lr") {
		cfg.Training.LearningRate = learningRate
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = metricsAddr
	}
	if flags.Changed("save") {
		cfg.Checkpoint = savePath
	}
	return cfg, cfg.Validate()
}

func runTrain(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	tr, err := train.FromConfig(cfg)
	if err != nil {
		return err
	}
	defer tr.Release()

	g := tr.Graph()
	out := cmd.OutOrStdout()
	params := nn.CountParameters(tr.Model().Parameters())
	fmt.Fprintf(out, "Model: %d layers, %s parameters, %s optimizer (lr=%g)\n",
		tr.Model().Len(), humanize.Comma(int64(params)), cfg.Training.Optimizer, cfg.Training.LearningRate)

	reg := prometheus.NewRegistry()
	graphs := metrics.NewGraphCollector()
	tm, err := metrics.NewTraining(reg, graphs)
	if err != nil {
		return errors.Wrap(err, "register metrics")
	}
	graphs.Observe(g)
	if cfg.MetricsAddr != "" {
		shutdown := serveMetrics(cmd.Context(), cfg.MetricsAddr, reg)
		defer shutdown()
	}

	var barOut io.Writer = os.Stderr
	if noProgress {
		barOut = io.Discard
	}
	bar := progressbar.NewOptions(cfg.Training.Epochs,
		progressbar.OptionSetDescription("Training"),
		progressbar.OptionSetWriter(barOut),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("epochs"),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSetTheme(progressbar.ThemeUnicode),
		progressbar.OptionClearOnFinish(),
	)

	tr.OnStep(func(s train.Step) error {
		tm.Loss.Set(s.Loss)
		tm.Epochs.Inc()
		tm.ObserveBackward(s.Backward)
		if s.Classify {
			tm.Accuracy.Set(s.Accuracy)
		}
		graphs.Observe(g)

		bar.Describe(fmt.Sprintf("Training (loss %.4f)", s.Loss))
		_ = bar.Add(1)
		if cfg.Training.LogEvery > 0 && s.Epoch%cfg.Training.LogEvery == 0 {
			klog.V(1).Infof("epoch %d: loss=%.6f", s.Epoch, s.Loss)
		}
		return nil
	})

	start := time.Now()
	last, err := tr.Run(cmd.Context(), cfg.Training.Epochs)
	_ = bar.Finish()
	if err != nil {
		if last.Epoch > 0 {
			klog.Warningf("training interrupted at epoch %d (loss %.6f)", last.Epoch, last.Loss)
		}
		return err
	}
	elapsed := time.Since(start)

	stats := g.Stats()
	fmt.Fprintf(out, "Epochs:   %d in %s (%.0f epochs/s)\n", last.Epoch, elapsed.Round(time.Millisecond),
		float64(last.Epoch)/elapsed.Seconds())
	fmt.Fprintf(out, "Loss:     %.6f\n", last.Loss)
	if last.Classify {
		fmt.Fprintf(out, "Accuracy: %.2f%%\n", 100*last.Accuracy)
	}
	fmt.Fprintf(out, "Graph:    %s live nodes, %s held, %s nodes created\n",
		humanize.Comma(int64(stats.LiveNodes())), humanize.Bytes(uint64(stats.LiveBytes)),
		humanize.Comma(int64(stats.NodesCreated)))

	if cfg.Checkpoint != "" {
		meta := serialization.CheckpointMeta{
			Epoch:     last.Epoch,
			Loss:      last.Loss,
			Optimizer: cfg.Training.Optimizer,
			Layout:    layout(cfg, tr),
		}
		err := serialization.SaveFile(cfg.Checkpoint, tr.Model().Parameters(), meta,
			map[string]string{"minigrad_version": version})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Saved:    %s\n", cfg.Checkpoint)
	}
	return nil
}

// layout describes the network as its layer widths and activation, e.g.
// "2-4-4-2 relu".
func layout(cfg config.TrainConfig, tr *train.Trainer) string {
	var b strings.Builder
	for i := 0; i < tr.Model().Len(); i++ {
		l, ok := tr.Model().Module(i).(*nn.Linear)
		if !ok {
			continue
		}
		if b.Len() == 0 {
			fmt.Fprintf(&b, "%d", l.InFeatures())
		}
		fmt.Fprintf(&b, "-%d", l.OutFeatures())
	}
	if len(cfg.Model.Hidden) > 0 {
		b.WriteString(" " + cfg.Model.Activation)
	}
	return b.String()
}

// serveMetrics serves reg on addr until the returned function is called.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		klog.Infof("serving metrics on %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			klog.Errorf("metrics server: %v", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
