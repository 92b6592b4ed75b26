package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/born-ml/minigrad/internal/autodiff"
	"github.com/born-ml/minigrad/internal/autodiff/ops"
	"github.com/born-ml/minigrad/internal/tensor"
)

var (
	gradEps  float64
	gradTol  float64
	gradSeed int64

	gradcheckCmd = &cobra.Command{
		Use:   "gradcheck",
		Short: "Compare every gradient rule with central finite differences",
		Args:  cobra.NoArgs,
		RunE:  runGradCheck,
	}
)

func init() {
	f := gradcheckCmd.Flags()
	f.Float64Var(&gradEps, "eps", 1e-6, "finite-difference step")
	f.Float64Var(&gradTol, "tol", 1e-5, "largest accepted min(absolute, relative) error")
	f.Int64Var(&gradSeed, "seed", 1, "seed for the random inputs")
}

type unaryFn func(tensor.Tensor) (tensor.Tensor, error)

type binaryFn func(a, b tensor.Tensor) (tensor.Tensor, error)

// gradCase is one operation under test. build returns a scalar built from
// inputs plus the intermediates to release.
type gradCase struct {
	name   string
	inputs []tensor.Tensor
	build  func() (tensor.Tensor, []tensor.Tensor, error)
}

// weighted reduces t to a scalar with distinct weights per element, so every
// output element receives a different upstream gradient.
func weighted(g *tensor.Graph, t tensor.Tensor) (tensor.Tensor, []tensor.Tensor, error) {
	w := make([]float64, t.Size())
	for i := range w {
		w[i] = 0.5 + 0.25*float64(i)
	}
	weights, err := g.FromSlice(w, t.Shape(), false)
	if err != nil {
		return tensor.Tensor{}, nil, err
	}
	prod, err := ops.Mul(t, weights)
	if err != nil {
		return tensor.Tensor{}, []tensor.Tensor{weights}, err
	}
	out, err := ops.Sum(prod)
	return out, []tensor.Tensor{weights, prod}, err
}

func unaryCase(g *tensor.Graph, name string, x tensor.Tensor, op unaryFn) gradCase {
	return gradCase{name: name, inputs: []tensor.Tensor{x}, build: func() (tensor.Tensor, []tensor.Tensor, error) {
		y, err := op(x)
		if err != nil {
			return tensor.Tensor{}, nil, err
		}
		out, tmp, err := weighted(g, y)
		return out, append(tmp, y), err
	}}
}

func binaryCase(g *tensor.Graph, name string, a, b tensor.Tensor, op binaryFn) gradCase {
	return gradCase{name: name, inputs: []tensor.Tensor{a, b}, build: func() (tensor.Tensor, []tensor.Tensor, error) {
		y, err := op(a, b)
		if err != nil {
			return tensor.Tensor{}, nil, err
		}
		out, tmp, err := weighted(g, y)
		return out, append(tmp, y), err
	}}
}

// gradCases returns one case per differentiable operation, with inputs
// allocated in g.
func gradCases(g *tensor.Graph) []gradCase {
	normal := func(shape ...int) tensor.Tensor {
		return must.M1(g.RandomNormal(shape, true))
	}
	x, y := normal(2, 3), normal(2, 3)
	positive := must.M1(g.RandomUniform(tensor.Shape{2, 3}, 0.5, 2, true))
	m, v := normal(3, 4), normal(3)
	target := must.M1(g.RandomNormal(tensor.Shape{2, 3}, false))
	classes := must.M1(g.FromSlice([]float64{2, 0}, tensor.Shape{2}, false))

	return []gradCase{
		binaryCase(g, "Add", x, y, ops.Add),
		binaryCase(g, "Sub", x, y, ops.Sub),
		binaryCase(g, "Mul", x, y, ops.Mul),
		binaryCase(g, "MatMul", x, m, ops.MatMul),
		binaryCase(g, "AddBroadcast", x, v, ops.AddBroadcast),
		binaryCase(g, "SubBroadcast", x, v, ops.SubBroadcast),
		unaryCase(g, "MulScalar", x, func(t tensor.Tensor) (tensor.Tensor, error) { return ops.MulScalar(t, -1.5) }),
		unaryCase(g, "DivScalar", x, func(t tensor.Tensor) (tensor.Tensor, error) { return ops.DivScalar(t, 3) }),
		unaryCase(g, "Sum", x, ops.Sum),
		unaryCase(g, "SumAxis(0)", x, func(t tensor.Tensor) (tensor.Tensor, error) { return ops.SumAxis(t, 0) }),
		unaryCase(g, "SumAxis(1)", x, func(t tensor.Tensor) (tensor.Tensor, error) { return ops.SumAxis(t, 1) }),
		unaryCase(g, "Exp", x, ops.Exp),
		unaryCase(g, "Log", positive, ops.Log),
		unaryCase(g, "ReLU", x, ops.ReLU),
		unaryCase(g, "Sigmoid", x, ops.Sigmoid),
		unaryCase(g, "Tanh", x, ops.Tanh),
		unaryCase(g, "Softmax", x, ops.Softmax),
		unaryCase(g, "Reshape", x, func(t tensor.Tensor) (tensor.Tensor, error) { return ops.Reshape(t, tensor.Shape{3, 2}) }),
		unaryCase(g, "Gather", x, func(t tensor.Tensor) (tensor.Tensor, error) { return ops.Gather(t, classes) }),
		{name: "MSE", inputs: []tensor.Tensor{x}, build: func() (tensor.Tensor, []tensor.Tensor, error) {
			out, err := ops.MSE(x, target)
			return out, nil, err
		}},
		{name: "CrossEntropy", inputs: []tensor.Tensor{x}, build: func() (tensor.Tensor, []tensor.Tensor, error) {
			out, err := ops.CrossEntropy(x, classes)
			return out, nil, err
		}},
	}
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	failStyle   = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("9"))
)

func runGradCheck(cmd *cobra.Command, _ []string) error {
	g := tensor.NewGraph(tensor.WithSeed(gradSeed), tensor.WithName("gradcheck"))

	failed := make(map[int]bool)
	rows := [][]string{}
	for i, c := range gradCases(g) {
		res, err := autodiff.GradCheck(c.build, c.inputs, gradEps)
		if err != nil {
			return errors.WithMessagef(err, "gradcheck %s", c.name)
		}
		status := "ok"
		if !res.OK(gradTol) {
			status = "FAIL"
			failed[i] = true
		}
		rows = append(rows, []string{
			c.name,
			fmt.Sprintf("%d", res.Checked),
			fmt.Sprintf("%.2e", res.MaxAbsError),
			fmt.Sprintf("%.2e", res.MaxRelError),
			status,
		})
	}

	table := lgtable.New().
		Border(lipgloss.RoundedBorder()).
		Headers("Op", "Elements", "Max abs err", "Max rel err", "Status").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row < 0:
				return headerStyle
			case failed[row]:
				return failStyle
			}
			return cellStyle
		})
	fmt.Fprintln(cmd.OutOrStdout(), table.Render())

	if len(failed) > 0 {
		return errors.Errorf("%d of %d operations exceed tolerance %g", len(failed), len(rows), gradTol)
	}
	return nil
}
