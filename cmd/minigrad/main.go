// Package main provides the minigrad CLI.
package main

import (
	"context"
	goflag "flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

const version = "v0.1.0-dev"

var rootCmd = &cobra.Command{
	Use:   "minigrad",
	Short: "Reverse-mode automatic differentiation over n-dimensional tensors",
	Long: `minigrad trains small multi-layer perceptrons on CSV data with a
reference-counted autodiff engine, and checks every gradient rule against
finite differences.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "minigrad %s\n", version)
	},
}

func init() {
	klogFlags := goflag.NewFlagSet("klog", goflag.ExitOnError)
	klog.InitFlags(klogFlags)
	rootCmd.PersistentFlags().AddGoFlagSet(klogFlags)

	rootCmd.AddCommand(versionCmd, trainCmd, evalCmd, gradcheckCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	klog.Flush()
	if err != nil {
		os.Exit(1)
	}
}
