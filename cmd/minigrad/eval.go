package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/born-ml/minigrad/internal/serialization"
	"github.com/born-ml/minigrad/internal/train"
)

var (
	weightsPath string

	evalCmd = &cobra.Command{
		Use:   "eval",
		Short: "Evaluate a saved checkpoint on CSV data",
		Example: `  minigrad eval --config mlp.yaml --weights mlp.mgrd
  minigrad eval --weights mlp.mgrd --features data/test_X.csv --labels data/test_y.csv`,
		Args: cobra.NoArgs,
		RunE: runEval,
	}
)

func init() {
	f := evalCmd.Flags()
	f.StringVarP(&configPath, "config", "c", "", "YAML training configuration the checkpoint was trained with")
	f.StringVar(&featuresPath, "features", "", "features CSV (overrides data.features)")
	f.StringVar(&labelsPath, "labels", "", "labels CSV (overrides data.labels)")
	f.StringVarP(&weightsPath, "weights", "w", "", "checkpoint written by train --save")
	_ = evalCmd.MarkFlagRequired("weights")
}

func runEval(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ck, err := serialization.ReadFile(weightsPath)
	if err != nil {
		return err
	}
	klog.V(1).Infof("checkpoint %s: epoch %d, loss %.6f, layout %q",
		weightsPath, ck.Header.Checkpoint.Epoch, ck.Header.Checkpoint.Loss, ck.Header.Checkpoint.Layout)

	tr, err := train.FromConfig(cfg)
	if err != nil {
		return err
	}
	defer tr.Release()
	if err := ck.LoadInto(tr.Model().Parameters()); err != nil {
		return err
	}

	step, err := tr.Evaluate()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Loss:     %.6f\n", step.Loss)
	if step.Classify {
		fmt.Fprintf(out, "Accuracy: %.2f%%\n", 100*step.Accuracy)
	}
	return nil
}
