package tensor

import "fmt"

// Create allocates a tensor of the given shape. The data content is not part
// of the contract (it happens to be zero); no gradient buffer is allocated
// until one is needed.
func (g *Graph) Create(shape Shape, requiresGrad bool) (Tensor, error) {
	if err := shape.Validate(); err != nil {
		return Tensor{}, err
	}
	size := shape.NumElements()

	g.stats.BuffersAllocated++
	g.stats.LiveBytes += int64(size) * bytesPerElement

	return g.newNode(&node{
		shape:        shape.Clone(),
		data:         newBuffer(size),
		requiresGrad: requiresGrad,
	}), nil
}

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	g := tensor.NewGraph()
//	bias, _ := g.Zeros(tensor.Shape{4}, true)
func (g *Graph) Zeros(shape Shape, requiresGrad bool) (Tensor, error) {
	return g.Create(shape, requiresGrad)
}

// Full creates a tensor filled with value.
func (g *Graph) Full(shape Shape, value float64, requiresGrad bool) (Tensor, error) {
	t, err := g.Create(shape, requiresGrad)
	if err != nil {
		return Tensor{}, err
	}
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t, nil
}

// Ones creates a tensor filled with ones.
func (g *Graph) Ones(shape Shape, requiresGrad bool) (Tensor, error) {
	return g.Full(shape, 1, requiresGrad)
}

// RandomNormal creates a tensor with values drawn from N(0, 1) using the
// graph's random source.
func (g *Graph) RandomNormal(shape Shape, requiresGrad bool) (Tensor, error) {
	t, err := g.Create(shape, requiresGrad)
	if err != nil {
		return Tensor{}, err
	}
	data := t.Data()
	for i := range data {
		data[i] = g.rng.NormFloat64()
	}
	return t, nil
}

// RandomUniform creates a tensor with values drawn from U(low, high).
func (g *Graph) RandomUniform(shape Shape, low, high float64, requiresGrad bool) (Tensor, error) {
	t, err := g.Create(shape, requiresGrad)
	if err != nil {
		return Tensor{}, err
	}
	data := t.Data()
	for i := range data {
		data[i] = low + g.rng.Float64()*(high-low)
	}
	return t, nil
}

// FromSlice creates a tensor holding a copy of values.
//
// Example:
//
//	x, err := g.FromSlice([]float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, true)
func (g *Graph) FromSlice(values []float64, shape Shape, requiresGrad bool) (Tensor, error) {
	if err := shape.Validate(); err != nil {
		return Tensor{}, err
	}
	if len(values) != shape.NumElements() {
		return Tensor{}, NewOpError("FromSlice", ErrShapeMismatch,
			fmt.Sprintf("%d values for %d elements", len(values), shape.NumElements()), shape.Clone())
	}
	t, err := g.Create(shape, requiresGrad)
	if err != nil {
		return Tensor{}, err
	}
	copy(t.Data(), values)
	return t, nil
}

// Scalar creates a rank-0 tensor holding v.
func (g *Graph) Scalar(v float64, requiresGrad bool) (Tensor, error) {
	return g.FromSlice([]float64{v}, Shape{}, requiresGrad)
}
