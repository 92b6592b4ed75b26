// Package data loads numeric CSV files into tensors.
//
// Files are parsed with gota dataframes; every column must be numeric. A
// file with a single column loads as [N, 1], which is the shape the loss
// functions accept for class indices and regression targets.
package data

import (
	"io"
	"math"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/minigrad/internal/tensor"
)

// ErrEmpty is returned for files without data rows.
var ErrEmpty = errors.New("csv has no data rows")

// Options controls CSV parsing.
type Options struct {
	// HasHeader treats the first row as column names.
	HasHeader bool
}

// ReadFrame parses r into a dataframe whose columns are all floats.
func ReadFrame(r io.Reader, opts Options) (dataframe.DataFrame, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(opts.HasHeader),
		dataframe.DefaultType(series.Float),
		dataframe.DetectTypes(false))
	if df.Err != nil {
		return df, errors.Wrap(df.Err, "parse csv")
	}
	if df.Nrow() == 0 || df.Ncol() == 0 {
		return df, ErrEmpty
	}
	return df, nil
}

// FrameToTensor copies df into a [rows, cols] tensor of g. Cells that do not
// parse as numbers are rejected.
func FrameToTensor(g *tensor.Graph, df dataframe.DataFrame, requiresGrad bool) (tensor.Tensor, error) {
	rows, cols := df.Nrow(), df.Ncol()
	if rows == 0 || cols == 0 {
		return tensor.Tensor{}, ErrEmpty
	}
	values := make([]float64, rows*cols)
	for j, name := range df.Names() {
		for i, v := range df.Col(name).Float() {
			if math.IsNaN(v) {
				return tensor.Tensor{}, errors.Errorf("row %d, column %q: not a number", i+1, name)
			}
			values[i*cols+j] = v
		}
	}
	return g.FromSlice(values, tensor.Shape{rows, cols}, requiresGrad)
}

// LoadCSV reads r and returns its contents as a [rows, cols] tensor.
func LoadCSV(g *tensor.Graph, r io.Reader, opts Options) (tensor.Tensor, error) {
	df, err := ReadFrame(r, opts)
	if err != nil {
		return tensor.Tensor{}, err
	}
	return FrameToTensor(g, df, false)
}

// LoadCSVFile opens path and loads it with LoadCSV.
func LoadCSVFile(g *tensor.Graph, path string, opts Options) (tensor.Tensor, error) {
	f, err := os.Open(path)
	if err != nil {
		return tensor.Tensor{}, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	t, err := LoadCSV(g, f, opts)
	if err != nil {
		return tensor.Tensor{}, errors.WithMessagef(err, "load %s", path)
	}
	klog.V(1).Infof("loaded %s: shape %v", path, t.Shape())
	return t, nil
}

// SplitLabel separates column from the remaining columns of df and returns
// the features [N, F] and the labels [N, 1]. column is a column name; files
// without a header name their columns X0, X1, ...
func SplitLabel(g *tensor.Graph, df dataframe.DataFrame, column string) (features, labels tensor.Tensor, err error) {
	found := false
	for _, name := range df.Names() {
		if name == column {
			found = true
			break
		}
	}
	if !found {
		return tensor.Tensor{}, tensor.Tensor{}, errors.Errorf("label column %q not found in %v", column, df.Names())
	}
	if df.Ncol() < 2 {
		return tensor.Tensor{}, tensor.Tensor{}, errors.Errorf("label column %q is the only column", column)
	}

	features, err = FrameToTensor(g, df.Drop(column), false)
	if err != nil {
		return tensor.Tensor{}, tensor.Tensor{}, err
	}
	labels, err = FrameToTensor(g, df.Select(column), false)
	if err != nil {
		features.Release()
		return tensor.Tensor{}, tensor.Tensor{}, err
	}
	return features, labels, nil
}
